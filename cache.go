// cache.go: TTL-aware secondary cache primitive
//
// GetOrSet is grounded on the teacher's loading.go GetOrLoad stampede
// prevention feature, rebuilt here over golang.org/x/sync/singleflight
// instead of the teacher's bespoke in-flight map.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package warden

import (
	"context"
	"time"

	"golang.org/x/sync/singleflight"
)

// Cache is a TTL-aware key/value handle bound to a single Provider
// namespace. Unlike Lock/Semaphore/SharedLock it carries no owner
// identity: every caller sharing a namespace and key sees the same value.
type Cache struct {
	p    *Provider
	flight *singleflight.Group
}

// Get returns the current value and whether it was found (absent or
// expired both report found=false).
func (c *Cache) Get(ctx context.Context, key string) (interface{}, bool, error) {
	k := c.p.key(key)
	value, found, err := c.p.cacheAdapter.Get(ctx, k.Namespaced())
	if err != nil {
		c.p.metrics.RecordUnexpectedError("cache", "get")
		return nil, false, ErrUnexpected("cache", "get", k.Resolved(), err)
	}
	if found {
		c.p.emit(Event{Name: EventKeyFound, Primitive: "cache", Key: k.Resolved()})
	} else {
		c.p.emit(Event{Name: EventKeyNotFound, Primitive: "cache", Key: k.Resolved()})
	}
	return value, found, nil
}

// GetOrFail is Get, returning ErrKeyNotFoundInCache instead of found=false.
func (c *Cache) GetOrFail(ctx context.Context, key string) (interface{}, error) {
	value, found, err := c.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrKeyNotFoundInCache(key)
	}
	return value, nil
}

// Add inserts value iff the key is absent or expired.
func (c *Cache) Add(ctx context.Context, key string, value interface{}, ttl *time.Duration) (bool, error) {
	k := c.p.key(key)
	ok, err := c.p.cacheAdapter.Add(ctx, k.Namespaced(), value, ttl)
	if err != nil {
		c.p.metrics.RecordUnexpectedError("cache", "add")
		return false, ErrUnexpected("cache", "add", k.Resolved(), err)
	}
	if ok {
		c.p.emit(Event{Name: EventKeyAdded, Primitive: "cache", Key: k.Resolved()})
	}
	return ok, nil
}

// Update writes value iff the key is present and unexpired.
func (c *Cache) Update(ctx context.Context, key string, value interface{}, ttl *time.Duration) (bool, error) {
	k := c.p.key(key)
	ok, err := c.p.cacheAdapter.Update(ctx, k.Namespaced(), value, ttl)
	if err != nil {
		c.p.metrics.RecordUnexpectedError("cache", "update")
		return false, ErrUnexpected("cache", "update", k.Resolved(), err)
	}
	if ok {
		c.p.emit(Event{Name: EventKeyUpdated, Primitive: "cache", Key: k.Resolved()})
	}
	return ok, nil
}

// Put unconditionally sets value and expiration, inserting or overwriting.
func (c *Cache) Put(ctx context.Context, key string, value interface{}, ttl *time.Duration) error {
	k := c.p.key(key)
	if err := c.p.cacheAdapter.Put(ctx, k.Namespaced(), value, ttl); err != nil {
		c.p.metrics.RecordUnexpectedError("cache", "put")
		return ErrUnexpected("cache", "put", k.Resolved(), err)
	}
	c.p.emit(Event{Name: EventKeyUpdated, Primitive: "cache", Key: k.Resolved()})
	return nil
}

// Remove deletes key, reporting whether it was present.
func (c *Cache) Remove(ctx context.Context, key string) (bool, error) {
	k := c.p.key(key)
	ok, err := c.p.cacheAdapter.Remove(ctx, k.Namespaced())
	if err != nil {
		c.p.metrics.RecordUnexpectedError("cache", "remove")
		return false, ErrUnexpected("cache", "remove", k.Resolved(), err)
	}
	if ok {
		c.p.emit(Event{Name: EventKeyRemoved, Primitive: "cache", Key: k.Resolved()})
	}
	return ok, nil
}

// Increment adds delta to a numeric value in place, preserving the
// existing TTL. It returns false if the key is absent or expired, and an
// ErrTypeCache error if the stored value is not numeric.
func (c *Cache) Increment(ctx context.Context, key string, delta float64) (bool, error) {
	k := c.p.key(key)
	ok, err := c.p.cacheAdapter.Increment(ctx, k.Namespaced(), delta)
	if err != nil {
		if IsTypeCache(err) {
			return false, err
		}
		c.p.metrics.RecordUnexpectedError("cache", "increment")
		return false, ErrUnexpected("cache", "increment", k.Resolved(), err)
	}
	if ok {
		c.p.emit(Event{Name: EventKeyIncremented, Primitive: "cache", Key: k.Resolved()})
	}
	return ok, nil
}

// Decrement is Increment with delta negated.
func (c *Cache) Decrement(ctx context.Context, key string, delta float64) (bool, error) {
	k := c.p.key(key)
	ok, err := c.p.cacheAdapter.Increment(ctx, k.Namespaced(), -delta)
	if err != nil {
		if IsTypeCache(err) {
			return false, err
		}
		c.p.metrics.RecordUnexpectedError("cache", "decrement")
		return false, ErrUnexpected("cache", "decrement", k.Resolved(), err)
	}
	if ok {
		c.p.emit(Event{Name: EventKeyDecremented, Primitive: "cache", Key: k.Resolved()})
	}
	return ok, nil
}

// Clear removes every key minted under this Provider's namespace.
func (c *Cache) Clear(ctx context.Context) error {
	if err := c.p.cacheAdapter.Clear(ctx, namespacePrefix(c.p.cfg.Namespace)); err != nil {
		c.p.metrics.RecordUnexpectedError("cache", "clear")
		return ErrUnexpected("cache", "clear", "", err)
	}
	c.p.emit(Event{Name: EventKeysCleared, Primitive: "cache"})
	return nil
}

// GetOrSet returns the cached value for key if present and unexpired;
// otherwise it invokes loader, stores the result under ttl, and returns
// it. Concurrent GetOrSet calls for the same cold key invoke loader at
// most once, the same stampede-prevention guarantee the teacher's
// GetOrLoad makes, implemented here over singleflight instead of a
// bespoke in-flight map.
func (c *Cache) GetOrSet(ctx context.Context, key string, ttl *time.Duration, loader func(ctx context.Context) (interface{}, error)) (interface{}, error) {
	if value, found, err := c.Get(ctx, key); err != nil {
		return nil, err
	} else if found {
		return value, nil
	}

	result, err, _ := c.flight.Do(key, func() (interface{}, error) {
		value, found, err := c.Get(ctx, key)
		if err != nil {
			return nil, err
		}
		if found {
			return value, nil
		}
		loaded, err := loader(ctx)
		if err != nil {
			return nil, err
		}
		if err := c.Put(ctx, key, loaded, ttl); err != nil {
			return nil, err
		}
		return loaded, nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
