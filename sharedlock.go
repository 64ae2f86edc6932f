// sharedlock.go: shared reader/writer lock primitive
//
// Grounded on the same consul semaphore lifecycle as lock.go/semaphore.go,
// composed here into a disjoint writer-XOR-readers union per the adapter
// contract in adapter.go.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package warden

import (
	"context"
	"time"
)

// SharedLock is a reader/writer coordination handle bound to a single key.
// A writer and any readers are mutually exclusive: while one writer holds
// the key, all reader operations fail without mutating state, and vice
// versa.
type SharedLock struct {
	p       *Provider
	key     Key
	owner   string // writer identity
	slotID  string // reader slot identity
	limit   int    // reader limit, frozen like Semaphore's
}

// Owner returns the writer identity this handle presents.
func (s *SharedLock) Owner() string { return s.owner }

// SlotID returns the reader slot identity this handle presents.
func (s *SharedLock) SlotID() string { return s.slotID }

// Key returns the handle's resolved key.
func (s *SharedLock) Key() string { return s.key.Resolved() }

// AcquireWriter attempts to take exclusive ownership. It fails without
// mutating state if any reader currently holds the key.
func (s *SharedLock) AcquireWriter(ctx context.Context, ttl *time.Duration) (bool, error) {
	start := s.p.clock.Now()
	ok, err := s.p.sharedLockAdapter.AcquireWriter(ctx, s.key.Namespaced(), s.owner, ttl)
	latency := s.p.clock.Now().Sub(start).Nanoseconds()
	if err != nil {
		s.p.metrics.RecordUnexpectedError("sharedLock", "acquireWriter")
		return false, ErrUnableToAcquire("sharedLock", s.key.Resolved(), err)
	}
	s.p.metrics.RecordAcquire("sharedLock", latency, ok)
	if ok {
		s.p.emit(Event{Name: EventAcquired, Primitive: "sharedLock", Key: s.key.Resolved(), Owner: s.owner, Extra: map[string]interface{}{"mode": "writer"}})
	} else {
		s.p.metrics.RecordContention("sharedLock")
		s.p.emit(Event{Name: EventNotAvailable, Primitive: "sharedLock", Key: s.key.Resolved(), Owner: s.owner, Extra: map[string]interface{}{"mode": "writer"}})
	}
	return ok, nil
}

// AcquireWriterOrFail is AcquireWriter, returning ErrKeyAlreadyAcquired
// instead of false, whether another writer or readers hold the key.
func (s *SharedLock) AcquireWriterOrFail(ctx context.Context, ttl *time.Duration) error {
	ok, err := s.AcquireWriter(ctx, ttl)
	if err != nil {
		return err
	}
	if !ok {
		return ErrKeyAlreadyAcquired("sharedLock", s.key.Resolved(), s.owner)
	}
	return nil
}

// AcquireWriterBlocking polls AcquireWriter until it succeeds, ctx is
// cancelled, or maxWait elapses.
func (s *SharedLock) AcquireWriterBlocking(ctx context.Context, ttl *time.Duration, maxWait time.Duration) (bool, error) {
	if maxWait <= 0 {
		maxWait = s.p.cfg.DefaultBlockingTime
	}
	deadline := s.p.clock.Now().Add(maxWait)
	ticker := time.NewTicker(s.p.cfg.DefaultBlockingInterval)
	defer ticker.Stop()
	for {
		ok, err := s.AcquireWriter(ctx, ttl)
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

// ReleaseWriter gives up writer ownership, reporting whether this handle
// actually held it.
func (s *SharedLock) ReleaseWriter(ctx context.Context) (bool, error) {
	ok, err := s.p.sharedLockAdapter.ReleaseWriter(ctx, s.key.Namespaced(), s.owner)
	if err != nil {
		s.p.metrics.RecordUnexpectedError("sharedLock", "releaseWriter")
		return false, ErrUnableToRelease("sharedLock", s.key.Resolved(), err)
	}
	s.p.metrics.RecordRelease("sharedLock", 0, ok)
	if ok {
		s.p.emit(Event{Name: EventReleased, Primitive: "sharedLock", Key: s.key.Resolved(), Owner: s.owner, Extra: map[string]interface{}{"mode": "writer"}})
	}
	return ok, nil
}

// ReleaseWriterOrFail is ReleaseWriter, returning ErrUnownedRelease instead of false.
func (s *SharedLock) ReleaseWriterOrFail(ctx context.Context) error {
	ok, err := s.ReleaseWriter(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return ErrUnownedRelease("sharedLock", s.key.Resolved(), s.owner)
	}
	return nil
}

// ForceReleaseWriter unconditionally removes a writer-held record. Per the
// disjointness rule, it fails without mutating state if the key is
// currently reader-held.
func (s *SharedLock) ForceReleaseWriter(ctx context.Context) (bool, error) {
	ok, err := s.p.sharedLockAdapter.ForceReleaseWriter(ctx, s.key.Namespaced())
	if err != nil {
		return false, ErrUnexpected("sharedLock", "forceReleaseWriter", s.key.Resolved(), err)
	}
	s.p.metrics.RecordForceRelease("sharedLock", ok)
	if ok {
		s.p.emit(Event{Name: EventForceReleased, Primitive: "sharedLock", Key: s.key.Resolved(), Extra: map[string]interface{}{"mode": "writer"}})
	}
	return ok, nil
}

// RefreshWriter extends the writer's expiration to ttl from now.
func (s *SharedLock) RefreshWriter(ctx context.Context, ttl time.Duration) (bool, error) {
	if ttl <= 0 {
		ttl = s.p.cfg.DefaultRefreshTime
	}
	ok, err := s.p.sharedLockAdapter.RefreshWriter(ctx, s.key.Namespaced(), s.owner, ttl)
	if err != nil {
		return false, ErrUnexpected("sharedLock", "refreshWriter", s.key.Resolved(), err)
	}
	s.p.metrics.RecordRefresh("sharedLock", 0, ok)
	if ok {
		s.p.emit(Event{Name: EventRefreshed, Primitive: "sharedLock", Key: s.key.Resolved(), Owner: s.owner, Extra: map[string]interface{}{"mode": "writer"}})
	}
	return ok, nil
}

// RefreshWriterOrFail is RefreshWriter, returning ErrUnownedRefresh instead of false.
func (s *SharedLock) RefreshWriterOrFail(ctx context.Context, ttl time.Duration) error {
	ok, err := s.RefreshWriter(ctx, ttl)
	if err != nil {
		return err
	}
	if !ok {
		return ErrUnownedRefresh("sharedLock", s.key.Resolved(), s.owner)
	}
	return nil
}

// AcquireReader attempts to claim a reader slot. It fails without mutating
// state if a writer currently holds the key.
func (s *SharedLock) AcquireReader(ctx context.Context, ttl *time.Duration) (bool, error) {
	start := s.p.clock.Now()
	ok, err := s.p.sharedLockAdapter.AcquireReader(ctx, SemaphoreAcquireInput{
		Key: s.key.Namespaced(), SlotID: s.slotID, Limit: s.limit, TTL: ttl,
	})
	latency := s.p.clock.Now().Sub(start).Nanoseconds()
	if err != nil {
		s.p.metrics.RecordUnexpectedError("sharedLock", "acquireReader")
		return false, ErrUnableToAcquire("sharedLock", s.key.Resolved(), err)
	}
	s.p.metrics.RecordAcquire("sharedLock", latency, ok)
	if ok {
		s.p.emit(Event{Name: EventAcquired, Primitive: "sharedLock", Key: s.key.Resolved(), Owner: s.slotID, Extra: map[string]interface{}{"mode": "reader"}})
	} else {
		s.p.metrics.RecordContention("sharedLock")
		s.p.emit(Event{Name: EventNotAvailable, Primitive: "sharedLock", Key: s.key.Resolved(), Owner: s.slotID, Extra: map[string]interface{}{"mode": "reader"}})
	}
	return ok, nil
}

// AcquireReaderOrFail is AcquireReader, returning an error instead of false.
func (s *SharedLock) AcquireReaderOrFail(ctx context.Context, ttl *time.Duration) error {
	ok, err := s.AcquireReader(ctx, ttl)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotAvailable("sharedLock", s.key.Resolved())
	}
	return nil
}

// AcquireReaderBlocking polls AcquireReader until it succeeds, ctx is
// cancelled, or maxWait elapses.
func (s *SharedLock) AcquireReaderBlocking(ctx context.Context, ttl *time.Duration, maxWait time.Duration) (bool, error) {
	if maxWait <= 0 {
		maxWait = s.p.cfg.DefaultBlockingTime
	}
	deadline := s.p.clock.Now().Add(maxWait)
	ticker := time.NewTicker(s.p.cfg.DefaultBlockingInterval)
	defer ticker.Stop()
	for {
		ok, err := s.AcquireReader(ctx, ttl)
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

// ReleaseReader gives up this handle's reader slot.
func (s *SharedLock) ReleaseReader(ctx context.Context) (bool, error) {
	ok, err := s.p.sharedLockAdapter.ReleaseReader(ctx, s.key.Namespaced(), s.slotID)
	if err != nil {
		return false, ErrUnableToRelease("sharedLock", s.key.Resolved(), err)
	}
	s.p.metrics.RecordRelease("sharedLock", 0, ok)
	if ok {
		s.p.emit(Event{Name: EventReleased, Primitive: "sharedLock", Key: s.key.Resolved(), Owner: s.slotID, Extra: map[string]interface{}{"mode": "reader"}})
	}
	return ok, nil
}

// ReleaseReaderOrFail is ReleaseReader, returning ErrUnownedRelease instead of false.
func (s *SharedLock) ReleaseReaderOrFail(ctx context.Context) error {
	ok, err := s.ReleaseReader(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return ErrUnownedRelease("sharedLock", s.key.Resolved(), s.slotID)
	}
	return nil
}

// ForceReleaseAllReaders drops every reader for the key. Per the
// disjointness rule, it returns false without mutating state if the key
// is currently writer-held.
func (s *SharedLock) ForceReleaseAllReaders(ctx context.Context) (bool, error) {
	ok, err := s.p.sharedLockAdapter.ForceReleaseAllReaders(ctx, s.key.Namespaced())
	if err != nil {
		return false, ErrUnexpected("sharedLock", "forceReleaseAllReaders", s.key.Resolved(), err)
	}
	s.p.metrics.RecordForceRelease("sharedLock", ok)
	if ok {
		s.p.emit(Event{Name: EventAllForceReleased, Primitive: "sharedLock", Key: s.key.Resolved(), Extra: map[string]interface{}{"mode": "reader", "hasReleased": ok}})
	}
	return ok, nil
}

// RefreshReader extends this handle's reader slot expiration to ttl from now.
func (s *SharedLock) RefreshReader(ctx context.Context, ttl time.Duration) (bool, error) {
	if ttl <= 0 {
		ttl = s.p.cfg.DefaultRefreshTime
	}
	ok, err := s.p.sharedLockAdapter.RefreshReader(ctx, s.key.Namespaced(), s.slotID, ttl)
	if err != nil {
		return false, ErrUnexpected("sharedLock", "refreshReader", s.key.Resolved(), err)
	}
	s.p.metrics.RecordRefresh("sharedLock", 0, ok)
	if ok {
		s.p.emit(Event{Name: EventRefreshed, Primitive: "sharedLock", Key: s.key.Resolved(), Owner: s.slotID, Extra: map[string]interface{}{"mode": "reader"}})
	}
	return ok, nil
}

// RefreshReaderOrFail is RefreshReader, returning ErrUnownedRefresh instead of false.
func (s *SharedLock) RefreshReaderOrFail(ctx context.Context, ttl time.Duration) error {
	ok, err := s.RefreshReader(ctx, ttl)
	if err != nil {
		return err
	}
	if !ok {
		return ErrUnownedRefresh("sharedLock", s.key.Resolved(), s.slotID)
	}
	return nil
}

// ForceRelease unconditionally wipes whichever mode (writer or readers)
// currently holds the record.
func (s *SharedLock) ForceRelease(ctx context.Context) (bool, error) {
	ok, err := s.p.sharedLockAdapter.ForceRelease(ctx, s.key.Namespaced())
	if err != nil {
		return false, ErrUnexpected("sharedLock", "forceRelease", s.key.Resolved(), err)
	}
	s.p.metrics.RecordForceRelease("sharedLock", ok)
	if ok {
		s.p.emit(Event{Name: EventForceReleased, Primitive: "sharedLock", Key: s.key.Resolved()})
	}
	return ok, nil
}

// SharedLockState is the structured union view returned by GetState. At
// most one of Writer, ReaderSlots is populated.
type SharedLockState struct {
	Writer      *string // owner identity, nil if not writer-held
	ReaderLimit int
	ReaderSlots []string
}

// GetState returns the current mode and holders of the key.
func (s *SharedLock) GetState(ctx context.Context) (SharedLockState, error) {
	rec, err := s.p.sharedLockAdapter.GetState(ctx, s.key.Namespaced())
	if err != nil {
		return SharedLockState{}, ErrUnexpected("sharedLock", "getState", s.key.Resolved(), err)
	}
	if rec == nil {
		return SharedLockState{}, nil
	}
	out := SharedLockState{}
	if rec.Writer != nil {
		owner := rec.Writer.Owner
		out.Writer = &owner
	}
	if rec.Reader != nil {
		out.ReaderLimit = rec.Reader.Limit
		for slot := range rec.Reader.AcquiredSlots {
			out.ReaderSlots = append(out.ReaderSlots, slot)
		}
	}
	return out, nil
}
