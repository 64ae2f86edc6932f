// lock.go: Redis-backed warden.LockAdapter using Lua scripts for atomicity
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

// go-redis's TxPipeline alone cannot express the check-then-set compare
// semantics the lock contract requires, so every operation below is a
// single EVAL. Scripts read Redis server time via TIME rather than trust
// the caller's clock, so a fleet of warden processes with skewed local
// clocks still agree on expiration.

var lockAcquireScript = redis.NewScript(`
local t = redis.call('TIME')
local now = tonumber(t[1]) * 1000 + math.floor(tonumber(t[2]) / 1000)
if redis.call('EXISTS', KEYS[1]) == 1 then
	local owner = redis.call('HGET', KEYS[1], 'owner')
	local exp = tonumber(redis.call('HGET', KEYS[1], 'exp'))
	if exp == 0 or exp > now then
		if owner == ARGV[1] then
			return 1
		end
		return 0
	end
end
local exp = 0
if ARGV[2] ~= '-1' then
	exp = now + tonumber(ARGV[2])
end
redis.call('HSET', KEYS[1], 'owner', ARGV[1], 'exp', tostring(exp))
if exp > 0 then
	redis.call('PEXPIREAT', KEYS[1], exp)
else
	redis.call('PERSIST', KEYS[1])
end
return 1
`)

var lockReleaseScript = redis.NewScript(`
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

var lockForceReleaseScript = redis.NewScript(`
local t = redis.call('TIME')
local now = tonumber(t[1]) * 1000 + math.floor(tonumber(t[2]) / 1000)
if redis.call('EXISTS', KEYS[1]) == 0 then return 0 end
local exp = tonumber(redis.call('HGET', KEYS[1], 'exp'))
if exp ~= 0 and exp <= now then return 0 end
redis.call('DEL', KEYS[1])
return 1
`)

var lockRefreshScript = redis.NewScript(`
local t = redis.call('TIME')
local now = tonumber(t[1]) * 1000 + math.floor(tonumber(t[2]) / 1000)
if redis.call('EXISTS', KEYS[1]) == 0 then return 0 end
local owner = redis.call('HGET', KEYS[1], 'owner')
local exp = tonumber(redis.call('HGET', KEYS[1], 'exp'))
if exp == 0 then return 0 end
if exp <= now then return 0 end
if owner ~= ARGV[1] then return 0 end
local newExp = now + tonumber(ARGV[2])
redis.call('HSET', KEYS[1], 'exp', tostring(newExp))
redis.call('PEXPIREAT', KEYS[1], newExp)
return 1
`)

var lockGetStateScript = redis.NewScript(`
local t = redis.call('TIME')
local now = tonumber(t[1]) * 1000 + math.floor(tonumber(t[2]) / 1000)
if redis.call('EXISTS', KEYS[1]) == 0 then return false end
local owner = redis.call('HGET', KEYS[1], 'owner')
local exp = tonumber(redis.call('HGET', KEYS[1], 'exp'))
if exp ~= 0 and exp <= now then return false end
return {owner, tostring(exp)}
`)

// LockAdapter implements warden.LockAdapter against a Redis hash per key,
// namespaced under keyPrefix.
type LockAdapter struct {
	client    RedisClient
	keyPrefix string
}

// NewLockAdapter returns a warden.LockAdapter backed by Redis. keyPrefix
// is prepended to every warden key to separate this adapter's rows from
// other data sharing the same Redis database.
func NewLockAdapter(client RedisClient, keyPrefix string) *LockAdapter {
	return &LockAdapter{client: client, keyPrefix: keyPrefix}
}

func (a *LockAdapter) rkey(key string) string { return a.keyPrefix + key }

func ttlArg(ttl *time.Duration) string {
	if ttl == nil {
		return "-1"
	}
	return strconv.FormatInt(ttl.Milliseconds(), 10)
}

func (a *LockAdapter) Acquire(ctx context.Context, key string, owner string, ttl *time.Duration) (bool, error) {
	res, err := lockAcquireScript.Run(ctx, a.client, []string{a.rkey(key)}, owner, ttlArg(ttl)).Int()
	if err != nil {
		return false, err
	}
	return res == 1, nil
}

func (a *LockAdapter) Release(ctx context.Context, key string, owner string) (bool, error) {
	res, err := lockReleaseScript.Run(ctx, a.client, []string{a.rkey(key)}, owner).Int()
	if err != nil {
		return false, err
	}
	return res == 1, nil
}

func (a *LockAdapter) ForceRelease(ctx context.Context, key string) (bool, error) {
	res, err := lockForceReleaseScript.Run(ctx, a.client, []string{a.rkey(key)}).Int()
	if err != nil {
		return false, err
	}
	return res == 1, nil
}

func (a *LockAdapter) Refresh(ctx context.Context, key string, owner string, ttl time.Duration) (bool, error) {
	ms := strconv.FormatInt(ttl.Milliseconds(), 10)
	res, err := lockRefreshScript.Run(ctx, a.client, []string{a.rkey(key)}, owner, ms).Int()
	if err != nil {
		return false, err
	}
	return res == 1, nil
}

func (a *LockAdapter) GetState(ctx context.Context, key string) (*warden.LockRecord, error) {
	res, err := lockGetStateScript.Run(ctx, a.client, []string{a.rkey(key)}).Result()
	if err != nil {
		return nil, err
	}
	return decodeLockState(res)
}

func decodeLockState(res interface{}) (*warden.LockRecord, error) {
	fields, ok := res.([]interface{})
	if !ok || len(fields) != 2 {
		return nil, nil
	}
	owner, _ := fields[0].(string)
	expStr, _ := fields[1].(string)
	expMs, err := strconv.ParseInt(expStr, 10, 64)
	if err != nil {
		return nil, err
	}
	rec := &warden.LockRecord{Owner: owner}
	if expMs != 0 {
		t := time.UnixMilli(expMs)
		rec.Expiration = &t
	}
	return rec, nil
}

var _ warden.LockAdapter = (*LockAdapter)(nil)
