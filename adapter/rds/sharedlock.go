// sharedlock.go: Redis-backed warden.SharedLockAdapter
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

// SharedLockAdapter stores the writer side at "<key>:w" (a LockAdapter
// hash) and the reader side at "<key>:r" (a SemaphoreAdapter hash).
// Disjointness is enforced by every writer script checking the reader
// key is absent before mutating, and vice versa, within the same EVAL.

var sharedAcquireWriterScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[2]) == 1 then return 0 end
local t = redis.call('TIME')
local now = tonumber(t[1]) * 1000 + math.floor(tonumber(t[2]) / 1000)
if redis.call('EXISTS', KEYS[1]) == 1 then
	local owner = redis.call('HGET', KEYS[1], 'owner')
	local exp = tonumber(redis.call('HGET', KEYS[1], 'exp'))
	if exp == 0 or exp > now then
		if owner == ARGV[1] then return 1 end
		return 0
	end
end
local exp = 0
if ARGV[2] ~= '-1' then exp = now + tonumber(ARGV[2]) end
redis.call('HSET', KEYS[1], 'owner', ARGV[1], 'exp', tostring(exp))
if exp > 0 then redis.call('PEXPIREAT', KEYS[1], exp) else redis.call('PERSIST', KEYS[1]) end
return 1
`)

var sharedReleaseWriterScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[2]) == 1 then return 0 end
local t = redis.call('TIME')
local now = tonumber(t[1]) * 1000 + math.floor(tonumber(t[2]) / 1000)
if redis.call('EXISTS', KEYS[1]) == 0 then return 0 end
local owner = redis.call('HGET', KEYS[1], 'owner')
local exp = tonumber(redis.call('HGET', KEYS[1], 'exp'))
if exp ~= 0 and exp <= now then return 0 end
if owner ~= ARGV[1] then return 0 end
redis.call('DEL', KEYS[1])
return 1
`)

var sharedForceReleaseWriterScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[2]) == 1 then return 0 end
local t = redis.call('TIME')
local now = tonumber(t[1]) * 1000 + math.floor(tonumber(t[2]) / 1000)
if redis.call('EXISTS', KEYS[1]) == 0 then return 0 end
local exp = tonumber(redis.call('HGET', KEYS[1], 'exp'))
if exp ~= 0 and exp <= now then return 0 end
redis.call('DEL', KEYS[1])
return 1
`)

var sharedRefreshWriterScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[2]) == 1 then return 0 end
local t = redis.call('TIME')
local now = tonumber(t[1]) * 1000 + math.floor(tonumber(t[2]) / 1000)
if redis.call('EXISTS', KEYS[1]) == 0 then return 0 end
local owner = redis.call('HGET', KEYS[1], 'owner')
local exp = tonumber(redis.call('HGET', KEYS[1], 'exp'))
if exp == 0 or exp <= now then return 0 end
if owner ~= ARGV[1] then return 0 end
local newExp = now + tonumber(ARGV[2])
redis.call('HSET', KEYS[1], 'exp', tostring(newExp))
redis.call('PEXPIREAT', KEYS[1], newExp)
return 1
`)

var sharedAcquireReaderScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 1 then return 0 end
local t = redis.call('TIME')
local now = tonumber(t[1]) * 1000 + math.floor(tonumber(t[2]) / 1000)
local all = redis.call('HGETALL', KEYS[2])
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
			redis.call('HDEL', KEYS[2], f)
		end
	end
end
if limit == nil then
	limit = tonumber(ARGV[2])
	redis.call('HSET', KEYS[2], '__limit', limit)
end
if held then return 1 end
if count >= limit then return 0 end
local exp = 0
if ARGV[3] ~= '-1' then exp = now + tonumber(ARGV[3]) end
redis.call('HSET', KEYS[2], ARGV[1], tostring(exp))
return 1
`)

var sharedReleaseReaderScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 1 then return 0 end
local t = redis.call('TIME')
local now = tonumber(t[1]) * 1000 + math.floor(tonumber(t[2]) / 1000)
local exp = redis.call('HGET', KEYS[2], ARGV[1])
if exp == false then return 0 end
exp = tonumber(exp)
if exp ~= 0 and exp <= now then
	redis.call('HDEL', KEYS[2], ARGV[1])
	return 0
end
redis.call('HDEL', KEYS[2], ARGV[1])
if redis.call('HLEN', KEYS[2]) <= 1 then redis.call('DEL', KEYS[2]) end
return 1
`)

var sharedForceReleaseAllReadersScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 1 then return 0 end
local t = redis.call('TIME')
local now = tonumber(t[1]) * 1000 + math.floor(tonumber(t[2]) / 1000)
local all = redis.call('HGETALL', KEYS[2])
local hadActive = false
for i = 1, #all, 2 do
	local f = all[i]
	local v = all[i + 1]
	if f ~= '__limit' then
		local exp = tonumber(v)
		if exp == 0 or exp > now then hadActive = true end
	end
end
redis.call('DEL', KEYS[2])
if hadActive then return 1 end
return 0
`)

var sharedRefreshReaderScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 1 then return 0 end
local t = redis.call('TIME')
local now = tonumber(t[1]) * 1000 + math.floor(tonumber(t[2]) / 1000)
local exp = redis.call('HGET', KEYS[2], ARGV[1])
if exp == false then return 0 end
exp = tonumber(exp)
if exp == 0 or exp <= now then return 0 end
local newExp = now + tonumber(ARGV[2])
redis.call('HSET', KEYS[2], ARGV[1], tostring(newExp))
return 1
`)

var sharedForceReleaseScript = redis.NewScript(`
local deleted = 0
if redis.call('EXISTS', KEYS[1]) == 1 then
	redis.call('DEL', KEYS[1])
	deleted = 1
end
if redis.call('EXISTS', KEYS[2]) == 1 then
	redis.call('DEL', KEYS[2])
	deleted = 1
end
return deleted
`)

// SharedLockAdapter implements warden.SharedLockAdapter against a pair of
// Redis hashes per key.
type SharedLockAdapter struct {
	client    RedisClient
	keyPrefix string
}

// NewSharedLockAdapter returns a warden.SharedLockAdapter backed by Redis.
func NewSharedLockAdapter(client RedisClient, keyPrefix string) *SharedLockAdapter {
	return &SharedLockAdapter{client: client, keyPrefix: keyPrefix}
}

func (a *SharedLockAdapter) keys(key string) []string {
	base := a.keyPrefix + key
	return []string{base + ":w", base + ":r"}
}

func (a *SharedLockAdapter) AcquireWriter(ctx context.Context, key string, owner string, ttl *time.Duration) (bool, error) {
	res, err := sharedAcquireWriterScript.Run(ctx, a.client, a.keys(key), owner, ttlArg(ttl)).Int()
	if err != nil {
		return false, err
	}
	return res == 1, nil
}

func (a *SharedLockAdapter) ReleaseWriter(ctx context.Context, key string, owner string) (bool, error) {
	res, err := sharedReleaseWriterScript.Run(ctx, a.client, a.keys(key), owner).Int()
	if err != nil {
		return false, err
	}
	return res == 1, nil
}

func (a *SharedLockAdapter) ForceReleaseWriter(ctx context.Context, key string) (bool, error) {
	res, err := sharedForceReleaseWriterScript.Run(ctx, a.client, a.keys(key)).Int()
	if err != nil {
		return false, err
	}
	return res == 1, nil
}

func (a *SharedLockAdapter) RefreshWriter(ctx context.Context, key string, owner string, ttl time.Duration) (bool, error) {
	ms := strconv.FormatInt(ttl.Milliseconds(), 10)
	res, err := sharedRefreshWriterScript.Run(ctx, a.client, a.keys(key), owner, ms).Int()
	if err != nil {
		return false, err
	}
	return res == 1, nil
}

func (a *SharedLockAdapter) AcquireReader(ctx context.Context, in warden.SemaphoreAcquireInput) (bool, error) {
	res, err := sharedAcquireReaderScript.Run(ctx, a.client, a.keys(in.Key), in.SlotID, in.Limit, ttlArg(in.TTL)).Int()
	if err != nil {
		return false, err
	}
	return res == 1, nil
}

func (a *SharedLockAdapter) ReleaseReader(ctx context.Context, key string, slotID string) (bool, error) {
	res, err := sharedReleaseReaderScript.Run(ctx, a.client, a.keys(key), slotID).Int()
	if err != nil {
		return false, err
	}
	return res == 1, nil
}

func (a *SharedLockAdapter) ForceReleaseAllReaders(ctx context.Context, key string) (bool, error) {
	res, err := sharedForceReleaseAllReadersScript.Run(ctx, a.client, a.keys(key)).Int()
	if err != nil {
		return false, err
	}
	return res == 1, nil
}

func (a *SharedLockAdapter) RefreshReader(ctx context.Context, key string, slotID string, ttl time.Duration) (bool, error) {
	ms := strconv.FormatInt(ttl.Milliseconds(), 10)
	res, err := sharedRefreshReaderScript.Run(ctx, a.client, a.keys(key), slotID, ms).Int()
	if err != nil {
		return false, err
	}
	return res == 1, nil
}

func (a *SharedLockAdapter) ForceRelease(ctx context.Context, key string) (bool, error) {
	res, err := sharedForceReleaseScript.Run(ctx, a.client, a.keys(key)).Int()
	if err != nil {
		return false, err
	}
	return res == 1, nil
}

func (a *SharedLockAdapter) GetState(ctx context.Context, key string) (*warden.SharedLockRecord, error) {
	keys := a.keys(key)

	writerRaw, err := lockGetStateScript.Run(ctx, a.client, []string{keys[0]}).Result()
	if err != nil {
		return nil, err
	}
	writer, err := decodeLockState(writerRaw)
	if err != nil {
		return nil, err
	}

	raw, err := a.client.HGetAll(ctx, keys[1]).Result()
	if err != nil && err != redis.Nil {
		return nil, err
	}
	var readerRec *warden.SemaphoreRecord
	if len(raw) > 0 {
		now := time.Now()
		readerRec = &warden.SemaphoreRecord{AcquiredSlots: map[string]*time.Time{}}
		for field, v := range raw {
			if field == "__limit" {
				limit, err := strconv.Atoi(v)
				if err != nil {
					return nil, err
				}
				readerRec.Limit = limit
				continue
			}
			expMs, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				return nil, err
			}
			if expMs == 0 {
				readerRec.AcquiredSlots[field] = nil
				continue
			}
			t := time.UnixMilli(expMs)
			if t.Before(now) {
				continue
			}
			readerRec.AcquiredSlots[field] = &t
		}
		if len(readerRec.AcquiredSlots) == 0 {
			readerRec = nil
		}
	}

	return &warden.SharedLockRecord{Writer: writer, Reader: readerRec}, nil
}

var _ warden.SharedLockAdapter = (*SharedLockAdapter)(nil)
