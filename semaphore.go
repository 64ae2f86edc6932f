// semaphore.go: counting semaphore primitive
//
// Grounded on incubusfree-consul's api/semaphore.go slot-holder bookkeeping,
// adapted from session-backed contenders to an adapter-backed slot map.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package warden

import (
	"context"
	"time"
)

// Semaphore is a bounded counting lock handle bound to a single key. The
// limit is frozen at the value passed to the first successful Acquire call
// for the key (or at mint time via Provider.Semaphore); later callers
// contend for the same fixed number of slots regardless of the limit they
// request.
type Semaphore struct {
	p      *Provider
	key    Key
	slotID string
	limit  int
}

// SlotID returns the identity this handle presents to the adapter.
func (s *Semaphore) SlotID() string { return s.slotID }

// Key returns the handle's resolved key.
func (s *Semaphore) Key() string { return s.key.Resolved() }

// Acquire attempts to claim a slot. Re-acquiring an already-held slot is
// idempotent and does not reset its expiration.
func (s *Semaphore) Acquire(ctx context.Context, ttl *time.Duration) (bool, error) {
	start := s.p.clock.Now()
	ok, err := s.p.semaphoreAdapter.Acquire(ctx, SemaphoreAcquireInput{
		Key: s.key.Namespaced(), SlotID: s.slotID, Limit: s.limit, TTL: ttl,
	})
	latency := s.p.clock.Now().Sub(start).Nanoseconds()
	if err != nil {
		s.p.metrics.RecordUnexpectedError("semaphore", "acquire")
		s.p.emit(Event{Name: EventUnexpectedError, Primitive: "semaphore", Key: s.key.Resolved(), Owner: s.slotID, Err: err})
		return false, ErrUnableToAcquire("semaphore", s.key.Resolved(), err)
	}
	s.p.metrics.RecordAcquire("semaphore", latency, ok)
	if ok {
		s.p.emit(Event{Name: EventAcquired, Primitive: "semaphore", Key: s.key.Resolved(), Owner: s.slotID})
	} else {
		s.p.metrics.RecordContention("semaphore")
		s.p.emit(Event{Name: EventLimitReached, Primitive: "semaphore", Key: s.key.Resolved(), Owner: s.slotID, Extra: map[string]interface{}{"limit": s.limit}})
	}
	return ok, nil
}

// AcquireOrFail is Acquire, returning ErrLimitReached instead of false.
func (s *Semaphore) AcquireOrFail(ctx context.Context, ttl *time.Duration) error {
	ok, err := s.Acquire(ctx, ttl)
	if err != nil {
		return err
	}
	if !ok {
		return ErrLimitReached(s.key.Resolved(), s.limit)
	}
	return nil
}

// AcquireBlocking polls Acquire until it succeeds, ctx is cancelled, or
// maxWait elapses (zero uses the Provider's default blocking time).
func (s *Semaphore) AcquireBlocking(ctx context.Context, ttl *time.Duration, maxWait time.Duration) (bool, error) {
	if maxWait <= 0 {
		maxWait = s.p.cfg.DefaultBlockingTime
	}
	deadline := s.p.clock.Now().Add(maxWait)
	ticker := time.NewTicker(s.p.cfg.DefaultBlockingInterval)
	defer ticker.Stop()

	for {
		ok, err := s.Acquire(ctx, ttl)
		if err != nil || ok {
			return ok, err
		}
		if !s.p.clock.Now().Before(deadline) {
			return false, nil
		}
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-ticker.C:
		}
	}
}

// AcquireBlockingOrFail is AcquireBlocking, returning ErrBlockingTimeout instead of false.
func (s *Semaphore) AcquireBlockingOrFail(ctx context.Context, ttl *time.Duration, maxWait time.Duration) error {
	ok, err := s.AcquireBlocking(ctx, ttl, maxWait)
	if err != nil {
		return err
	}
	if !ok {
		return ErrBlockingTimeout("semaphore", s.key.Resolved(), NewTimeSpan(maxWait))
	}
	return nil
}

// Release gives up this handle's slot, reporting whether it actually held one.
func (s *Semaphore) Release(ctx context.Context) (bool, error) {
	start := s.p.clock.Now()
	ok, err := s.p.semaphoreAdapter.Release(ctx, s.key.Namespaced(), s.slotID)
	latency := s.p.clock.Now().Sub(start).Nanoseconds()
	if err != nil {
		s.p.metrics.RecordUnexpectedError("semaphore", "release")
		return false, ErrUnableToRelease("semaphore", s.key.Resolved(), err)
	}
	s.p.metrics.RecordRelease("semaphore", latency, ok)
	if ok {
		s.p.emit(Event{Name: EventReleased, Primitive: "semaphore", Key: s.key.Resolved(), Owner: s.slotID})
	} else {
		s.p.emit(Event{Name: EventUnownedReleaseTry, Primitive: "semaphore", Key: s.key.Resolved(), Owner: s.slotID})
	}
	return ok, nil
}

// ReleaseOrFail is Release, returning ErrUnownedRelease instead of false.
func (s *Semaphore) ReleaseOrFail(ctx context.Context) error {
	ok, err := s.Release(ctx)
	if err != nil {
		return err
	}
	if !ok {
		s.p.emit(Event{Name: EventFailedRelease, Primitive: "semaphore", Key: s.key.Resolved(), Owner: s.slotID})
		return ErrUnownedRelease("semaphore", s.key.Resolved(), s.slotID)
	}
	return nil
}

// ForceReleaseAll drops every slot holder for the key, reporting whether
// at least one unexpired slot was removed.
func (s *Semaphore) ForceReleaseAll(ctx context.Context) (bool, error) {
	ok, err := s.p.semaphoreAdapter.ForceReleaseAll(ctx, s.key.Namespaced())
	if err != nil {
		s.p.metrics.RecordUnexpectedError("semaphore", "forceReleaseAll")
		return false, ErrUnexpected("semaphore", "forceReleaseAll", s.key.Resolved(), err)
	}
	s.p.metrics.RecordForceRelease("semaphore", ok)
	s.p.emit(Event{Name: EventAllForceReleased, Primitive: "semaphore", Key: s.key.Resolved(), Extra: map[string]interface{}{"hasReleased": ok}})
	return ok, nil
}

// Refresh extends this handle's slot expiration to ttl from now. Like
// Lock.Refresh, it only succeeds against a slot that already has a
// non-nil expiration.
func (s *Semaphore) Refresh(ctx context.Context, ttl time.Duration) (bool, error) {
	if ttl <= 0 {
		ttl = s.p.cfg.DefaultRefreshTime
	}
	start := s.p.clock.Now()
	ok, err := s.p.semaphoreAdapter.Refresh(ctx, s.key.Namespaced(), s.slotID, ttl)
	latency := s.p.clock.Now().Sub(start).Nanoseconds()
	if err != nil {
		s.p.metrics.RecordUnexpectedError("semaphore", "refresh")
		return false, ErrUnexpected("semaphore", "refresh", s.key.Resolved(), err)
	}
	s.p.metrics.RecordRefresh("semaphore", latency, ok)
	if ok {
		s.p.emit(Event{Name: EventRefreshed, Primitive: "semaphore", Key: s.key.Resolved(), Owner: s.slotID})
	} else {
		s.p.emit(Event{Name: EventUnownedRefreshTry, Primitive: "semaphore", Key: s.key.Resolved(), Owner: s.slotID})
	}
	return ok, nil
}

// RefreshOrFail is Refresh, returning ErrUnownedRefresh instead of false.
func (s *Semaphore) RefreshOrFail(ctx context.Context, ttl time.Duration) error {
	ok, err := s.Refresh(ctx, ttl)
	if err != nil {
		return err
	}
	if !ok {
		s.p.emit(Event{Name: EventFailedRefresh, Primitive: "semaphore", Key: s.key.Resolved(), Owner: s.slotID})
		return ErrUnownedRefresh("semaphore", s.key.Resolved(), s.slotID)
	}
	return nil
}

// SemaphoreState is the structured view returned by GetState.
type SemaphoreState struct {
	Limit         int
	AcquiredSlots []string
}

// GetState returns the current slot occupancy, or a zero-slot state if the
// key has never been acquired.
func (s *Semaphore) GetState(ctx context.Context) (SemaphoreState, error) {
	rec, err := s.p.semaphoreAdapter.GetState(ctx, s.key.Namespaced())
	if err != nil {
		return SemaphoreState{}, ErrUnexpected("semaphore", "getState", s.key.Resolved(), err)
	}
	if rec == nil {
		return SemaphoreState{Limit: s.limit}, nil
	}
	slots := make([]string, 0, len(rec.AcquiredSlots))
	for slot := range rec.AcquiredSlots {
		slots = append(slots, slot)
	}
	return SemaphoreState{Limit: rec.Limit, AcquiredSlots: slots}, nil
}

// Run acquires a slot, invokes fn, and releases the slot afterward
// regardless of fn's outcome.
func (s *Semaphore) Run(ctx context.Context, ttl *time.Duration, fn func(ctx context.Context) error) (bool, error) {
	ok, err := s.Acquire(ctx, ttl)
	if err != nil || !ok {
		return ok, err
	}
	defer func() { _, _ = s.Release(ctx) }()
	return true, fn(ctx)
}

// RunBlocking is Run, using AcquireBlocking instead of Acquire.
func (s *Semaphore) RunBlocking(ctx context.Context, ttl *time.Duration, maxWait time.Duration, fn func(ctx context.Context) error) (bool, error) {
	ok, err := s.AcquireBlocking(ctx, ttl, maxWait)
	if err != nil || !ok {
		return ok, err
	}
	defer func() { _, _ = s.Release(ctx) }()
	return true, fn(ctx)
}
