// semaphore.go: Redis-backed warden.SemaphoreAdapter
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0
package rds

import (
	"context"
	"strconv"
	"time"

	"github.com/agilira/warden"
	"github.com/redis/go-redis/v9"
)

// Each semaphore record is a Redis hash: a reserved "__limit" field plus
// one field per held slot id mapping to its absolute expiration in epoch
// milliseconds ("0" for unexpireable). The limit is frozen at first
// insert, matching the frozen-limit invariant in adapter.go.

var semAcquireScript = redis.NewScript(`
local t = redis.call('TIME')
local now = tonumber(t[1]) * 1000 + math.floor(tonumber(t[2]) / 1000)
local all = redis.call('HGETALL', KEYS[1])
local limit = nil
local count = 0
local held = false
for i = 1, #all, 2 do
	local f = all[i]
	local v = all[i + 1]
	if f == '__limit' then
		limit = tonumber(v)
	else
		local exp = tonumber(v)
		if exp == 0 or exp > now then
			count = count + 1
			if f == ARGV[1] then held = true end
		else
			redis.call('HDEL', KEYS[1], f)
		end
	end
end
if limit == nil then
	limit = tonumber(ARGV[2])
	redis.call('HSET', KEYS[1], '__limit', limit)
end
if held then return 1 end
if count >= limit then return 0 end
local exp = 0
if ARGV[3] ~= '-1' then
	exp = now + tonumber(ARGV[3])
end
redis.call('HSET', KEYS[1], ARGV[1], tostring(exp))
return 1
`)

var semReleaseScript = redis.NewScript(`
local t = redis.call('TIME')
local now = tonumber(t[1]) * 1000 + math.floor(tonumber(t[2]) / 1000)
local exp = redis.call('HGET', KEYS[1], ARGV[1])
if exp == false then return 0 end
exp = tonumber(exp)
if exp ~= 0 and exp <= now then
	redis.call('HDEL', KEYS[1], ARGV[1])
	return 0
end
redis.call('HDEL', KEYS[1], ARGV[1])
local remaining = redis.call('HLEN', KEYS[1])
if remaining <= 1 then
	redis.call('DEL', KEYS[1])
end
return 1
`)

var semForceReleaseAllScript = redis.NewScript(`
local t = redis.call('TIME')
local now = tonumber(t[1]) * 1000 + math.floor(tonumber(t[2]) / 1000)
local all = redis.call('HGETALL', KEYS[1])
local hadActive = false
for i = 1, #all, 2 do
	local f = all[i]
	local v = all[i + 1]
	if f ~= '__limit' then
		local exp = tonumber(v)
		if exp == 0 or exp > now then hadActive = true end
	end
end
redis.call('DEL', KEYS[1])
if hadActive then return 1 end
return 0
`)

var semRefreshScript = redis.NewScript(`
local t = redis.call('TIME')
local now = tonumber(t[1]) * 1000 + math.floor(tonumber(t[2]) / 1000)
local exp = redis.call('HGET', KEYS[1], ARGV[1])
if exp == false then return 0 end
exp = tonumber(exp)
if exp == 0 then return 0 end
if exp <= now then return 0 end
local newExp = now + tonumber(ARGV[2])
redis.call('HSET', KEYS[1], ARGV[1], tostring(newExp))
return 1
`)

// SemaphoreAdapter implements warden.SemaphoreAdapter against a Redis hash.
type SemaphoreAdapter struct {
	client    RedisClient
	keyPrefix string
}

// NewSemaphoreAdapter returns a warden.SemaphoreAdapter backed by Redis.
func NewSemaphoreAdapter(client RedisClient, keyPrefix string) *SemaphoreAdapter {
	return &SemaphoreAdapter{client: client, keyPrefix: keyPrefix}
}

func (a *SemaphoreAdapter) rkey(key string) string { return a.keyPrefix + key }

func (a *SemaphoreAdapter) Acquire(ctx context.Context, in warden.SemaphoreAcquireInput) (bool, error) {
	res, err := semAcquireScript.Run(ctx, a.client, []string{a.rkey(in.Key)},
		in.SlotID, in.Limit, ttlArg(in.TTL)).Int()
	if err != nil {
		return false, err
	}
	return res == 1, nil
}

func (a *SemaphoreAdapter) Release(ctx context.Context, key string, slotID string) (bool, error) {
	res, err := semReleaseScript.Run(ctx, a.client, []string{a.rkey(key)}, slotID).Int()
	if err != nil {
		return false, err
	}
	return res == 1, nil
}

func (a *SemaphoreAdapter) ForceReleaseAll(ctx context.Context, key string) (bool, error) {
	res, err := semForceReleaseAllScript.Run(ctx, a.client, []string{a.rkey(key)}).Int()
	if err != nil {
		return false, err
	}
	return res == 1, nil
}

func (a *SemaphoreAdapter) Refresh(ctx context.Context, key string, slotID string, ttl time.Duration) (bool, error) {
	ms := strconv.FormatInt(ttl.Milliseconds(), 10)
	res, err := semRefreshScript.Run(ctx, a.client, []string{a.rkey(key)}, slotID, ms).Int()
	if err != nil {
		return false, err
	}
	return res == 1, nil
}

func (a *SemaphoreAdapter) GetState(ctx context.Context, key string) (*warden.SemaphoreRecord, error) {
	raw, err := a.client.HGetAll(ctx, a.rkey(key)).Result()
	if err != nil && err != redis.Nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, nil
	}
	now := time.Now()
	rec := &warden.SemaphoreRecord{AcquiredSlots: map[string]*time.Time{}}
	for field, v := range raw {
		if field == "__limit" {
			limit, err := strconv.Atoi(v)
			if err != nil {
				return nil, err
			}
			rec.Limit = limit
			continue
		}
		expMs, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, err
		}
		if expMs == 0 {
			rec.AcquiredSlots[field] = nil
			continue
		}
		t := time.UnixMilli(expMs)
		if t.Before(now) {
			continue
		}
		rec.AcquiredSlots[field] = &t
	}
	if len(rec.AcquiredSlots) == 0 {
		return nil, nil
	}
	return rec, nil
}

var _ warden.SemaphoreAdapter = (*SemaphoreAdapter)(nil)
