// adapter.go: storage adapter contracts for every coordination primitive
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package warden

import (
	"context"
	"time"
)

// LockRecord is the adapter-visible persisted tuple for a single-owner lock.
type LockRecord struct {
	Owner      string
	Expiration *time.Time // nil means unexpireable
}

// SemaphoreRecord is the adapter-visible persisted tuple for a bounded set
// of slot holders.
type SemaphoreRecord struct {
	Limit         int
	AcquiredSlots map[string]*time.Time // slot id -> expiration (nil = unexpireable)
}

// SharedLockRecord is the disjoint union of a writer lock and a reader
// semaphore. At most one of Writer, Reader is non-nil.
type SharedLockRecord struct {
	Writer *LockRecord
	Reader *SemaphoreRecord
}

// LockAdapter is the minimal atomic primitive a backend must provide for
// the Lock coordination primitive. Every method is a single atomic
// operation from the caller's perspective.
type LockAdapter interface {
	// Acquire sets the record iff absent-or-expired, or owner already
	// matches (idempotent no-op: does not update expiration). Returns
	// whether the caller now owns the key.
	Acquire(ctx context.Context, key string, owner string, ttl *time.Duration) (bool, error)

	// Release removes the record iff present, unexpired, and owned by owner.
	Release(ctx context.Context, key string, owner string) (bool, error)

	// ForceRelease unconditionally removes any unexpired record.
	ForceRelease(ctx context.Context, key string) (bool, error)

	// Refresh sets a new expiration iff present, unexpired, owned by
	// owner, and the current expiration is non-nil.
	Refresh(ctx context.Context, key string, owner string, ttl time.Duration) (bool, error)

	// GetState returns the current record, or nil if absent or expired.
	GetState(ctx context.Context, key string) (*LockRecord, error)
}

// SemaphoreAcquireInput bundles the parameters of a semaphore slot acquisition.
type SemaphoreAcquireInput struct {
	Key    string
	SlotID string
	Limit  int
	TTL    *time.Duration
}

// SemaphoreAdapter is the minimal atomic primitive a backend must provide
// for the Semaphore coordination primitive.
type SemaphoreAdapter interface {
	// Acquire prunes expired slots, then inserts slotId if capacity
	// allows, or succeeds idempotently if slotId is already held.
	Acquire(ctx context.Context, in SemaphoreAcquireInput) (bool, error)

	// Release removes slotId iff present and unexpired.
	Release(ctx context.Context, key string, slotID string) (bool, error)

	// ForceReleaseAll removes the whole record, reporting whether it held
	// at least one unexpired slot.
	ForceReleaseAll(ctx context.Context, key string) (bool, error)

	// Refresh updates slotId's expiration iff present, unexpired, and
	// its current expiration is non-nil.
	Refresh(ctx context.Context, key string, slotID string, ttl time.Duration) (bool, error)

	// GetState returns the current record, or nil if absent.
	GetState(ctx context.Context, key string) (*SemaphoreRecord, error)
}

// SharedLockAdapter unions the lock and semaphore contracts under a single
// key, with a disjointness rule: a writer op fails while a reader record
// exists and vice versa, without mutating state.
type SharedLockAdapter interface {
	AcquireWriter(ctx context.Context, key string, owner string, ttl *time.Duration) (bool, error)
	ReleaseWriter(ctx context.Context, key string, owner string) (bool, error)
	ForceReleaseWriter(ctx context.Context, key string) (bool, error)
	RefreshWriter(ctx context.Context, key string, owner string, ttl time.Duration) (bool, error)

	AcquireReader(ctx context.Context, in SemaphoreAcquireInput) (bool, error)
	ReleaseReader(ctx context.Context, key string, slotID string) (bool, error)
	ForceReleaseAllReaders(ctx context.Context, key string) (bool, error)
	RefreshReader(ctx context.Context, key string, slotID string, ttl time.Duration) (bool, error)

	// ForceRelease wipes whichever mode currently holds the record.
	ForceRelease(ctx context.Context, key string) (bool, error)

	GetState(ctx context.Context, key string) (*SharedLockRecord, error)
}

// CacheAdapter is the minimal atomic primitive a backend must provide for
// the secondary Cache primitive. Every operation is single-key atomic.
type CacheAdapter interface {
	Get(ctx context.Context, key string) (value interface{}, found bool, err error)

	// Add inserts iff absent-or-expired.
	Add(ctx context.Context, key string, value interface{}, ttl *time.Duration) (bool, error)

	// Update writes iff present-and-unexpired.
	Update(ctx context.Context, key string, value interface{}, ttl *time.Duration) (bool, error)

	// Put unconditionally sets value and expiration.
	Put(ctx context.Context, key string, value interface{}, ttl *time.Duration) error

	// Remove deletes the key, reporting whether it was present.
	Remove(ctx context.Context, key string) (bool, error)

	// Increment adds delta to a numeric value in place, preserving TTL.
	// Returns ErrTypeCache if the stored value is not numeric, and false
	// if the key is absent or expired.
	Increment(ctx context.Context, key string, delta float64) (bool, error)

	// Clear removes every key stored under namespacePrefix.
	Clear(ctx context.Context, namespacePrefix string) error
}

// DatabaseLockAdapter is the CRUD-oriented flavor of LockAdapter for
// backends (SQL databases) whose atomicity comes from a host-driven
// transaction rather than a single primitive call. The provider
// normalizes it to LockAdapter via normalizeLockAdapter.
type DatabaseLockAdapter interface {
	// WithTransaction runs fn inside a transaction that provides
	// row-level locking for key. The CRUD methods below are only safe to
	// call from inside fn.
	WithTransaction(ctx context.Context, key string, fn func(tx DatabaseLockTx) error) error
}

// DatabaseLockTx is the row-level CRUD surface available inside a
// DatabaseLockAdapter transaction.
type DatabaseLockTx interface {
	Find(ctx context.Context, key string) (*LockRecord, error)
	Upsert(ctx context.Context, key string, rec LockRecord) error
	Delete(ctx context.Context, key string) error
}

// DatabaseSemaphoreAdapter is the CRUD-oriented flavor of SemaphoreAdapter.
type DatabaseSemaphoreAdapter interface {
	WithTransaction(ctx context.Context, key string, fn func(tx DatabaseSemaphoreTx) error) error
}

// DatabaseSemaphoreTx is the row-level CRUD surface available inside a
// DatabaseSemaphoreAdapter transaction.
type DatabaseSemaphoreTx interface {
	Find(ctx context.Context, key string) (*SemaphoreRecord, error)
	Upsert(ctx context.Context, key string, rec SemaphoreRecord) error
	Delete(ctx context.Context, key string) error
}

// normalizeLockAdapter adapts a DatabaseLockAdapter to the direct
// LockAdapter shape by assembling each atomic operation from a CRUD
// round-trip inside a single transaction. This is the one place allowed
// to branch on adapter shape; the primitive layer above never sees the
// distinction (spec redesign flag: tagged variant at mint time, no
// runtime type-sniffing in hot paths).
func normalizeLockAdapter(db DatabaseLockAdapter, clock Clock) LockAdapter {
	return &dbLockAdapter{db: db, clock: clock}
}

// NormalizeDatabaseLockAdapter exposes normalizeLockAdapter to callers
// outside this module (e.g. the sqlstore submodule's tests) that want a
// direct LockAdapter without going through NewProvider.
func NormalizeDatabaseLockAdapter(db DatabaseLockAdapter, clock Clock) LockAdapter {
	return normalizeLockAdapter(db, clock)
}

type dbLockAdapter struct {
	db    DatabaseLockAdapter
	clock Clock
}

func (a *dbLockAdapter) Acquire(ctx context.Context, key, owner string, ttl *time.Duration) (bool, error) {
	var acquired bool
	err := a.db.WithTransaction(ctx, key, func(tx DatabaseLockTx) error {
		existing, err := tx.Find(ctx, key)
		if err != nil {
			return err
		}
		if existing != nil && !isExpired(existing.Expiration, a.clock) {
			if existing.Owner != owner {
				acquired = false
				return nil
			}
			acquired = true
			return nil
		}
		rec := LockRecord{Owner: owner, Expiration: expirationFromTTL(ttl, a.clock)}
		if err := tx.Upsert(ctx, key, rec); err != nil {
			return err
		}
		acquired = true
		return nil
	})
	return acquired, err
}

func (a *dbLockAdapter) Release(ctx context.Context, key, owner string) (bool, error) {
	var released bool
	err := a.db.WithTransaction(ctx, key, func(tx DatabaseLockTx) error {
		existing, err := tx.Find(ctx, key)
		if err != nil {
			return err
		}
		if existing == nil || isExpired(existing.Expiration, a.clock) || existing.Owner != owner {
			return nil
		}
		if err := tx.Delete(ctx, key); err != nil {
			return err
		}
		released = true
		return nil
	})
	return released, err
}

func (a *dbLockAdapter) ForceRelease(ctx context.Context, key string) (bool, error) {
	var released bool
	err := a.db.WithTransaction(ctx, key, func(tx DatabaseLockTx) error {
		existing, err := tx.Find(ctx, key)
		if err != nil {
			return err
		}
		if existing == nil || isExpired(existing.Expiration, a.clock) {
			return nil
		}
		if err := tx.Delete(ctx, key); err != nil {
			return err
		}
		released = true
		return nil
	})
	return released, err
}

func (a *dbLockAdapter) Refresh(ctx context.Context, key, owner string, ttl time.Duration) (bool, error) {
	var refreshed bool
	err := a.db.WithTransaction(ctx, key, func(tx DatabaseLockTx) error {
		existing, err := tx.Find(ctx, key)
		if err != nil {
			return err
		}
		if existing == nil || isExpired(existing.Expiration, a.clock) || existing.Owner != owner || existing.Expiration == nil {
			return nil
		}
		end := NewTimeSpan(ttl).EndDate(a.clock)
		existing.Expiration = &end
		if err := tx.Upsert(ctx, key, *existing); err != nil {
			return err
		}
		refreshed = true
		return nil
	})
	return refreshed, err
}

func (a *dbLockAdapter) GetState(ctx context.Context, key string) (*LockRecord, error) {
	var result *LockRecord
	err := a.db.WithTransaction(ctx, key, func(tx DatabaseLockTx) error {
		existing, err := tx.Find(ctx, key)
		if err != nil {
			return err
		}
		if existing == nil || isExpired(existing.Expiration, a.clock) {
			return nil
		}
		result = existing
		return nil
	})
	return result, err
}

// normalizeSemaphoreAdapter adapts a DatabaseSemaphoreAdapter to the
// direct SemaphoreAdapter shape, mirroring normalizeLockAdapter.
func normalizeSemaphoreAdapter(db DatabaseSemaphoreAdapter, clock Clock) SemaphoreAdapter {
	return &dbSemaphoreAdapter{db: db, clock: clock}
}

// NormalizeDatabaseSemaphoreAdapter exposes normalizeSemaphoreAdapter to
// callers outside this module, mirroring NormalizeDatabaseLockAdapter.
func NormalizeDatabaseSemaphoreAdapter(db DatabaseSemaphoreAdapter, clock Clock) SemaphoreAdapter {
	return normalizeSemaphoreAdapter(db, clock)
}

type dbSemaphoreAdapter struct {
	db    DatabaseSemaphoreAdapter
	clock Clock
}

func pruneExpired(rec *SemaphoreRecord, clock Clock) {
	for slot, exp := range rec.AcquiredSlots {
		if isExpired(exp, clock) {
			delete(rec.AcquiredSlots, slot)
		}
	}
}

func (a *dbSemaphoreAdapter) Acquire(ctx context.Context, in SemaphoreAcquireInput) (bool, error) {
	var acquired bool
	err := a.db.WithTransaction(ctx, in.Key, func(tx DatabaseSemaphoreTx) error {
		existing, err := tx.Find(ctx, in.Key)
		if err != nil {
			return err
		}
		if existing == nil {
			existing = &SemaphoreRecord{Limit: in.Limit, AcquiredSlots: map[string]*time.Time{}}
		}
		pruneExpired(existing, a.clock)
		if _, held := existing.AcquiredSlots[in.SlotID]; held {
			acquired = true
			return nil
		}
		if len(existing.AcquiredSlots) >= existing.Limit {
			acquired = false
			return nil
		}
		existing.AcquiredSlots[in.SlotID] = expirationFromTTL(in.TTL, a.clock)
		if err := tx.Upsert(ctx, in.Key, *existing); err != nil {
			return err
		}
		acquired = true
		return nil
	})
	return acquired, err
}

func (a *dbSemaphoreAdapter) Release(ctx context.Context, key, slotID string) (bool, error) {
	var released bool
	err := a.db.WithTransaction(ctx, key, func(tx DatabaseSemaphoreTx) error {
		existing, err := tx.Find(ctx, key)
		if err != nil {
			return err
		}
		if existing == nil {
			return nil
		}
		pruneExpired(existing, a.clock)
		if _, held := existing.AcquiredSlots[slotID]; !held {
			return nil
		}
		delete(existing.AcquiredSlots, slotID)
		released = true
		if len(existing.AcquiredSlots) == 0 {
			return tx.Delete(ctx, key)
		}
		return tx.Upsert(ctx, key, *existing)
	})
	return released, err
}

func (a *dbSemaphoreAdapter) ForceReleaseAll(ctx context.Context, key string) (bool, error) {
	var released bool
	err := a.db.WithTransaction(ctx, key, func(tx DatabaseSemaphoreTx) error {
		existing, err := tx.Find(ctx, key)
		if err != nil {
			return err
		}
		if existing == nil {
			return nil
		}
		pruneExpired(existing, a.clock)
		if len(existing.AcquiredSlots) == 0 {
			return tx.Delete(ctx, key)
		}
		released = true
		return tx.Delete(ctx, key)
	})
	return released, err
}

func (a *dbSemaphoreAdapter) Refresh(ctx context.Context, key, slotID string, ttl time.Duration) (bool, error) {
	var refreshed bool
	err := a.db.WithTransaction(ctx, key, func(tx DatabaseSemaphoreTx) error {
		existing, err := tx.Find(ctx, key)
		if err != nil {
			return err
		}
		if existing == nil {
			return nil
		}
		pruneExpired(existing, a.clock)
		exp, held := existing.AcquiredSlots[slotID]
		if !held || exp == nil {
			return nil
		}
		end := NewTimeSpan(ttl).EndDate(a.clock)
		existing.AcquiredSlots[slotID] = &end
		refreshed = true
		return tx.Upsert(ctx, key, *existing)
	})
	return refreshed, err
}

func (a *dbSemaphoreAdapter) GetState(ctx context.Context, key string) (*SemaphoreRecord, error) {
	var result *SemaphoreRecord
	err := a.db.WithTransaction(ctx, key, func(tx DatabaseSemaphoreTx) error {
		existing, err := tx.Find(ctx, key)
		if err != nil {
			return err
		}
		if existing == nil {
			return nil
		}
		pruneExpired(existing, a.clock)
		if len(existing.AcquiredSlots) == 0 {
			return nil
		}
		result = existing
		return nil
	})
	return result, err
}
