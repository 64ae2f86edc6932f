// memadapter.go: in-memory implementation of every direct adapter contract
//
// Grounded on the lazy-expiration idiom of Krishna8167/tempuscache (an
// expiration timestamp checked on every read, pruned on access) combined
// with the compare-and-set discipline of solarisdb/solaris's kvlock.go
// (an atomic create-or-reject guarded by a single mutex standing in for a
// backend transaction).
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package warden

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
)

// MemoryAdapter is a single in-process backend implementing LockAdapter,
// SemaphoreAdapter, SharedLockAdapter, and CacheAdapter. It is the one
// adapter the core test suite exercises directly; Redis- and SQL-backed
// adapters live in separate submodules (adapter/rds, adapter/sqlstore).
type MemoryAdapter struct {
	clock Clock

	mu    sync.Mutex
	locks map[string]*LockRecord
	sems  map[string]*SemaphoreRecord
	sls   map[string]*SharedLockRecord
	cache map[string]cacheEntry
}

type cacheEntry struct {
	value      interface{}
	expiration *time.Time
}

// NewMemoryAdapter returns a ready-to-use MemoryAdapter using clock for
// all expiration arithmetic.
func NewMemoryAdapter(clock Clock) *MemoryAdapter {
	if clock == nil {
		clock = cachedClock{}
	}
	return &MemoryAdapter{
		clock: clock,
		locks: make(map[string]*LockRecord),
		sems:  make(map[string]*SemaphoreRecord),
		sls:   make(map[string]*SharedLockRecord),
		cache: make(map[string]cacheEntry),
	}
}

// ---- LockAdapter ----------------------------------------------------------

func (a *MemoryAdapter) Acquire(_ context.Context, key, owner string, ttl *time.Duration) (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	existing, present := a.locks[key]
	if present && !isExpired(existing.Expiration, a.clock) {
		return existing.Owner == owner, nil
	}
	a.locks[key] = &LockRecord{Owner: owner, Expiration: expirationFromTTL(ttl, a.clock)}
	return true, nil
}

func (a *MemoryAdapter) Release(_ context.Context, key, owner string) (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	existing, present := a.locks[key]
	if !present || isExpired(existing.Expiration, a.clock) || existing.Owner != owner {
		return false, nil
	}
	delete(a.locks, key)
	return true, nil
}

func (a *MemoryAdapter) ForceRelease(_ context.Context, key string) (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	existing, present := a.locks[key]
	if !present || isExpired(existing.Expiration, a.clock) {
		return false, nil
	}
	delete(a.locks, key)
	return true, nil
}

func (a *MemoryAdapter) Refresh(_ context.Context, key, owner string, ttl time.Duration) (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	existing, present := a.locks[key]
	if !present || isExpired(existing.Expiration, a.clock) || existing.Owner != owner || existing.Expiration == nil {
		return false, nil
	}
	end := NewTimeSpan(ttl).EndDate(a.clock)
	existing.Expiration = &end
	return true, nil
}

func (a *MemoryAdapter) GetState(_ context.Context, key string) (*LockRecord, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	existing, present := a.locks[key]
	if !present || isExpired(existing.Expiration, a.clock) {
		return nil, nil
	}
	cp := *existing
	return &cp, nil
}

// ---- SemaphoreAdapter -------------------------------------------------------

func (a *MemoryAdapter) pruneSemaphoreLocked(key string) *SemaphoreRecord {
	rec, present := a.sems[key]
	if !present {
		return nil
	}
	for slot, exp := range rec.AcquiredSlots {
		if isExpired(exp, a.clock) {
			delete(rec.AcquiredSlots, slot)
		}
	}
	if len(rec.AcquiredSlots) == 0 {
		delete(a.sems, key)
		return nil
	}
	return rec
}

func (a *MemoryAdapter) SemAcquire(_ context.Context, in SemaphoreAcquireInput) (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.semAcquireLocked(in)
}

func (a *MemoryAdapter) semAcquireLocked(in SemaphoreAcquireInput) (bool, error) {
	rec := a.pruneSemaphoreLocked(in.Key)
	if rec == nil {
		rec = &SemaphoreRecord{Limit: in.Limit, AcquiredSlots: map[string]*time.Time{}}
		a.sems[in.Key] = rec
	}
	if _, held := rec.AcquiredSlots[in.SlotID]; held {
		return true, nil
	}
	if len(rec.AcquiredSlots) >= rec.Limit {
		return false, nil
	}
	rec.AcquiredSlots[in.SlotID] = expirationFromTTL(in.TTL, a.clock)
	return true, nil
}

func (a *MemoryAdapter) SemRelease(_ context.Context, key, slotID string) (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	rec := a.pruneSemaphoreLocked(key)
	if rec == nil {
		return false, nil
	}
	if _, held := rec.AcquiredSlots[slotID]; !held {
		return false, nil
	}
	delete(rec.AcquiredSlots, slotID)
	if len(rec.AcquiredSlots) == 0 {
		delete(a.sems, key)
	}
	return true, nil
}

func (a *MemoryAdapter) SemForceReleaseAll(_ context.Context, key string) (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	rec := a.pruneSemaphoreLocked(key)
	if rec == nil {
		return false, nil
	}
	delete(a.sems, key)
	return true, nil
}

func (a *MemoryAdapter) SemRefresh(_ context.Context, key, slotID string, ttl time.Duration) (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	rec := a.pruneSemaphoreLocked(key)
	if rec == nil {
		return false, nil
	}
	exp, held := rec.AcquiredSlots[slotID]
	if !held || exp == nil {
		return false, nil
	}
	end := NewTimeSpan(ttl).EndDate(a.clock)
	rec.AcquiredSlots[slotID] = &end
	return true, nil
}

func (a *MemoryAdapter) SemGetState(_ context.Context, key string) (*SemaphoreRecord, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	rec := a.pruneSemaphoreLocked(key)
	if rec == nil {
		return nil, nil
	}
	cp := SemaphoreRecord{Limit: rec.Limit, AcquiredSlots: make(map[string]*time.Time, len(rec.AcquiredSlots))}
	for k, v := range rec.AcquiredSlots {
		cp.AcquiredSlots[k] = v
	}
	return &cp, nil
}

// memSemaphoreAdapter adapts MemoryAdapter's Sem-prefixed methods to the
// SemaphoreAdapter interface, so a single MemoryAdapter value can satisfy
// LockAdapter, SemaphoreAdapter and SharedLockAdapter without the method
// sets colliding on Acquire/Release/Refresh/GetState.
type memSemaphoreAdapter struct{ a *MemoryAdapter }

func (m memSemaphoreAdapter) Acquire(ctx context.Context, in SemaphoreAcquireInput) (bool, error) {
	return m.a.SemAcquire(ctx, in)
}
func (m memSemaphoreAdapter) Release(ctx context.Context, key, slotID string) (bool, error) {
	return m.a.SemRelease(ctx, key, slotID)
}
func (m memSemaphoreAdapter) ForceReleaseAll(ctx context.Context, key string) (bool, error) {
	return m.a.SemForceReleaseAll(ctx, key)
}
func (m memSemaphoreAdapter) Refresh(ctx context.Context, key, slotID string, ttl time.Duration) (bool, error) {
	return m.a.SemRefresh(ctx, key, slotID, ttl)
}
func (m memSemaphoreAdapter) GetState(ctx context.Context, key string) (*SemaphoreRecord, error) {
	return m.a.SemGetState(ctx, key)
}

// SemaphoreAdapter exposes the SemaphoreAdapter view of this MemoryAdapter.
func (a *MemoryAdapter) SemaphoreAdapter() SemaphoreAdapter { return memSemaphoreAdapter{a} }

// LockAdapter exposes the LockAdapter view of this MemoryAdapter (it
// already satisfies the interface directly; this accessor exists for
// symmetry with SemaphoreAdapter()/SharedLockAdapter()/CacheAdapter()).
func (a *MemoryAdapter) LockAdapter() LockAdapter { return a }

// ---- SharedLockAdapter ------------------------------------------------------

type memSharedLockAdapter struct{ a *MemoryAdapter }

// SharedLockAdapter exposes the SharedLockAdapter view of this MemoryAdapter.
func (a *MemoryAdapter) SharedLockAdapter() SharedLockAdapter { return memSharedLockAdapter{a} }

func (a *MemoryAdapter) pruneSharedLocked(key string) *SharedLockRecord {
	rec, present := a.sls[key]
	if !present {
		return nil
	}
	if rec.Writer != nil {
		if isExpired(rec.Writer.Expiration, a.clock) {
			rec.Writer = nil
		}
	}
	if rec.Reader != nil {
		for slot, exp := range rec.Reader.AcquiredSlots {
			if isExpired(exp, a.clock) {
				delete(rec.Reader.AcquiredSlots, slot)
			}
		}
		if len(rec.Reader.AcquiredSlots) == 0 {
			rec.Reader = nil
		}
	}
	if rec.Writer == nil && rec.Reader == nil {
		delete(a.sls, key)
		return nil
	}
	return rec
}

func (m memSharedLockAdapter) AcquireWriter(_ context.Context, key, owner string, ttl *time.Duration) (bool, error) {
	a := m.a
	a.mu.Lock()
	defer a.mu.Unlock()

	rec := a.pruneSharedLocked(key)
	if rec != nil && rec.Reader != nil {
		return false, nil
	}
	if rec != nil && rec.Writer != nil {
		return rec.Writer.Owner == owner, nil
	}
	if rec == nil {
		rec = &SharedLockRecord{}
		a.sls[key] = rec
	}
	rec.Writer = &LockRecord{Owner: owner, Expiration: expirationFromTTL(ttl, a.clock)}
	return true, nil
}

func (m memSharedLockAdapter) ReleaseWriter(_ context.Context, key, owner string) (bool, error) {
	a := m.a
	a.mu.Lock()
	defer a.mu.Unlock()

	rec := a.pruneSharedLocked(key)
	if rec == nil || rec.Reader != nil || rec.Writer == nil || rec.Writer.Owner != owner {
		return false, nil
	}
	rec.Writer = nil
	if rec.Reader == nil {
		delete(a.sls, key)
	}
	return true, nil
}

func (m memSharedLockAdapter) ForceReleaseWriter(_ context.Context, key string) (bool, error) {
	a := m.a
	a.mu.Lock()
	defer a.mu.Unlock()

	rec := a.pruneSharedLocked(key)
	if rec == nil || rec.Reader != nil || rec.Writer == nil {
		return false, nil
	}
	rec.Writer = nil
	delete(a.sls, key)
	return true, nil
}

func (m memSharedLockAdapter) RefreshWriter(_ context.Context, key, owner string, ttl time.Duration) (bool, error) {
	a := m.a
	a.mu.Lock()
	defer a.mu.Unlock()

	rec := a.pruneSharedLocked(key)
	if rec == nil || rec.Reader != nil || rec.Writer == nil || rec.Writer.Owner != owner || rec.Writer.Expiration == nil {
		return false, nil
	}
	end := NewTimeSpan(ttl).EndDate(a.clock)
	rec.Writer.Expiration = &end
	return true, nil
}

func (m memSharedLockAdapter) AcquireReader(_ context.Context, in SemaphoreAcquireInput) (bool, error) {
	a := m.a
	a.mu.Lock()
	defer a.mu.Unlock()

	rec := a.pruneSharedLocked(in.Key)
	if rec != nil && rec.Writer != nil {
		return false, nil
	}
	if rec == nil {
		rec = &SharedLockRecord{}
		a.sls[in.Key] = rec
	}
	if rec.Reader == nil {
		rec.Reader = &SemaphoreRecord{Limit: in.Limit, AcquiredSlots: map[string]*time.Time{}}
	}
	if _, held := rec.Reader.AcquiredSlots[in.SlotID]; held {
		return true, nil
	}
	if len(rec.Reader.AcquiredSlots) >= rec.Reader.Limit {
		return false, nil
	}
	rec.Reader.AcquiredSlots[in.SlotID] = expirationFromTTL(in.TTL, a.clock)
	return true, nil
}

func (m memSharedLockAdapter) ReleaseReader(_ context.Context, key, slotID string) (bool, error) {
	a := m.a
	a.mu.Lock()
	defer a.mu.Unlock()

	rec := a.pruneSharedLocked(key)
	if rec == nil || rec.Writer != nil || rec.Reader == nil {
		return false, nil
	}
	if _, held := rec.Reader.AcquiredSlots[slotID]; !held {
		return false, nil
	}
	delete(rec.Reader.AcquiredSlots, slotID)
	if len(rec.Reader.AcquiredSlots) == 0 {
		rec.Reader = nil
		delete(a.sls, key)
	}
	return true, nil
}

func (m memSharedLockAdapter) ForceReleaseAllReaders(_ context.Context, key string) (bool, error) {
	a := m.a
	a.mu.Lock()
	defer a.mu.Unlock()

	rec := a.pruneSharedLocked(key)
	if rec == nil || rec.Writer != nil || rec.Reader == nil {
		return false, nil
	}
	rec.Reader = nil
	delete(a.sls, key)
	return true, nil
}

func (m memSharedLockAdapter) RefreshReader(_ context.Context, key, slotID string, ttl time.Duration) (bool, error) {
	a := m.a
	a.mu.Lock()
	defer a.mu.Unlock()

	rec := a.pruneSharedLocked(key)
	if rec == nil || rec.Writer != nil || rec.Reader == nil {
		return false, nil
	}
	exp, held := rec.Reader.AcquiredSlots[slotID]
	if !held || exp == nil {
		return false, nil
	}
	end := NewTimeSpan(ttl).EndDate(a.clock)
	rec.Reader.AcquiredSlots[slotID] = &end
	return true, nil
}

func (m memSharedLockAdapter) ForceRelease(_ context.Context, key string) (bool, error) {
	a := m.a
	a.mu.Lock()
	defer a.mu.Unlock()

	rec := a.pruneSharedLocked(key)
	if rec == nil {
		return false, nil
	}
	delete(a.sls, key)
	return true, nil
}

func (m memSharedLockAdapter) GetState(_ context.Context, key string) (*SharedLockRecord, error) {
	a := m.a
	a.mu.Lock()
	defer a.mu.Unlock()

	rec := a.pruneSharedLocked(key)
	if rec == nil {
		return &SharedLockRecord{}, nil
	}
	cp := SharedLockRecord{}
	if rec.Writer != nil {
		w := *rec.Writer
		cp.Writer = &w
	}
	if rec.Reader != nil {
		r := SemaphoreRecord{Limit: rec.Reader.Limit, AcquiredSlots: make(map[string]*time.Time, len(rec.Reader.AcquiredSlots))}
		for k, v := range rec.Reader.AcquiredSlots {
			r.AcquiredSlots[k] = v
		}
		cp.Reader = &r
	}
	return &cp, nil
}

// ---- CacheAdapter -----------------------------------------------------------

type memCacheAdapter struct{ a *MemoryAdapter }

// CacheAdapter exposes the CacheAdapter view of this MemoryAdapter.
func (a *MemoryAdapter) CacheAdapter() CacheAdapter { return memCacheAdapter{a} }

func (m memCacheAdapter) Get(_ context.Context, key string) (interface{}, bool, error) {
	a := m.a
	a.mu.Lock()
	defer a.mu.Unlock()

	entry, present := a.cache[key]
	if !present || isExpired(entry.expiration, a.clock) {
		if present {
			delete(a.cache, key)
		}
		return nil, false, nil
	}
	return entry.value, true, nil
}

func (m memCacheAdapter) Add(_ context.Context, key string, value interface{}, ttl *time.Duration) (bool, error) {
	a := m.a
	a.mu.Lock()
	defer a.mu.Unlock()

	entry, present := a.cache[key]
	if present && !isExpired(entry.expiration, a.clock) {
		return false, nil
	}
	a.cache[key] = cacheEntry{value: value, expiration: expirationFromTTL(ttl, a.clock)}
	return true, nil
}

func (m memCacheAdapter) Update(_ context.Context, key string, value interface{}, ttl *time.Duration) (bool, error) {
	a := m.a
	a.mu.Lock()
	defer a.mu.Unlock()

	entry, present := a.cache[key]
	if !present || isExpired(entry.expiration, a.clock) {
		return false, nil
	}
	a.cache[key] = cacheEntry{value: value, expiration: expirationFromTTL(ttl, a.clock)}
	return true, nil
}

func (m memCacheAdapter) Put(_ context.Context, key string, value interface{}, ttl *time.Duration) error {
	a := m.a
	a.mu.Lock()
	defer a.mu.Unlock()

	a.cache[key] = cacheEntry{value: value, expiration: expirationFromTTL(ttl, a.clock)}
	return nil
}

func (m memCacheAdapter) Remove(_ context.Context, key string) (bool, error) {
	a := m.a
	a.mu.Lock()
	defer a.mu.Unlock()

	entry, present := a.cache[key]
	delete(a.cache, key)
	if !present || isExpired(entry.expiration, a.clock) {
		return false, nil
	}
	return true, nil
}

func (m memCacheAdapter) Increment(_ context.Context, key string, delta float64) (bool, error) {
	a := m.a
	a.mu.Lock()
	defer a.mu.Unlock()

	entry, present := a.cache[key]
	if !present || isExpired(entry.expiration, a.clock) {
		return false, nil
	}
	num, err := toFloat64(entry.value)
	if err != nil {
		return false, ErrTypeCache(fmt.Sprintf("%v", key), err)
	}
	entry.value = num + delta
	a.cache[key] = entry
	return true, nil
}

func (m memCacheAdapter) Clear(_ context.Context, namespacePrefix string) error {
	a := m.a
	a.mu.Lock()
	defer a.mu.Unlock()

	for k := range a.cache {
		if strings.HasPrefix(k, namespacePrefix) {
			delete(a.cache, k)
		}
	}
	return nil
}

func toFloat64(v interface{}) (float64, error) {
	switch n := v.(type) {
	case int:
		return float64(n), nil
	case int32:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case float32:
		return float64(n), nil
	case float64:
		return n, nil
	default:
		return 0, fmt.Errorf("value is not numeric: %T", v)
	}
}
