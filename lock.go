// lock.go: exclusive single-owner lock primitive
//
// Grounded on incubusfree-consul's api/semaphore.go acquire/release/renew
// lifecycle, adapted from Consul's session-backed protocol to warden's
// adapter-backed one.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package warden

import (
	"context"
	"time"
)

// Lock is a distributed exclusive-owner handle bound to a single key. All
// operations delegate to the owning Provider's LockAdapter; the handle
// itself is a thin, reusable coordinate into that adapter plus the owner
// identity minted for it.
type Lock struct {
	p     *Provider
	key   Key
	owner string
}

// Owner returns the identity this handle will present to every acquire,
// release, and refresh call.
func (l *Lock) Owner() string { return l.owner }

// Key returns the handle's resolved (user-facing) key.
func (l *Lock) Key() string { return l.key.Resolved() }

// Acquire attempts to take ownership of the key, applying ttl (nil means
// unexpireable). It is idempotent for the same owner: re-acquiring does
// not reset an existing expiration.
func (l *Lock) Acquire(ctx context.Context, ttl *time.Duration) (bool, error) {
	start := l.p.clock.Now()
	ok, err := l.p.lockAdapter.Acquire(ctx, l.key.Namespaced(), l.owner, ttl)
	latency := l.p.clock.Now().Sub(start).Nanoseconds()
	if err != nil {
		l.p.metrics.RecordUnexpectedError("lock", "acquire")
		l.p.emit(Event{Name: EventUnexpectedError, Primitive: "lock", Key: l.key.Resolved(), Owner: l.owner, Err: err})
		return false, ErrUnableToAcquire("lock", l.key.Resolved(), err)
	}
	l.p.metrics.RecordAcquire("lock", latency, ok)
	if ok {
		l.p.emit(Event{Name: EventAcquired, Primitive: "lock", Key: l.key.Resolved(), Owner: l.owner})
	} else {
		l.p.metrics.RecordContention("lock")
		l.p.emit(Event{Name: EventNotAvailable, Primitive: "lock", Key: l.key.Resolved(), Owner: l.owner})
	}
	return ok, nil
}

// AcquireOrFail is Acquire, returning ErrKeyAlreadyAcquired instead of false.
func (l *Lock) AcquireOrFail(ctx context.Context, ttl *time.Duration) error {
	ok, err := l.Acquire(ctx, ttl)
	if err != nil {
		return err
	}
	if !ok {
		return ErrKeyAlreadyAcquired("lock", l.key.Resolved(), l.owner)
	}
	return nil
}

// AcquireBlocking polls Acquire at the Provider's default blocking interval
// until it succeeds, ctx is cancelled, or maxWait elapses. maxWait of zero
// uses the Provider's default blocking time.
func (l *Lock) AcquireBlocking(ctx context.Context, ttl *time.Duration, maxWait time.Duration) (bool, error) {
	if maxWait <= 0 {
		maxWait = l.p.cfg.DefaultBlockingTime
	}
	deadline := l.p.clock.Now().Add(maxWait)
	ticker := time.NewTicker(l.p.cfg.DefaultBlockingInterval)
	defer ticker.Stop()

	for {
		ok, err := l.Acquire(ctx, ttl)
		if err != nil || ok {
			return ok, err
		}
		if !l.p.clock.Now().Before(deadline) {
			return false, nil
		}
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-ticker.C:
		}
	}
}

// AcquireBlockingOrFail is AcquireBlocking, returning ErrBlockingTimeout
// instead of false.
func (l *Lock) AcquireBlockingOrFail(ctx context.Context, ttl *time.Duration, maxWait time.Duration) error {
	ok, err := l.AcquireBlocking(ctx, ttl, maxWait)
	if err != nil {
		return err
	}
	if !ok {
		return ErrBlockingTimeout("lock", l.key.Resolved(), NewTimeSpan(maxWait))
	}
	return nil
}

// Release gives up ownership, reporting whether this handle actually held it.
func (l *Lock) Release(ctx context.Context) (bool, error) {
	start := l.p.clock.Now()
	ok, err := l.p.lockAdapter.Release(ctx, l.key.Namespaced(), l.owner)
	latency := l.p.clock.Now().Sub(start).Nanoseconds()
	if err != nil {
		l.p.metrics.RecordUnexpectedError("lock", "release")
		l.p.emit(Event{Name: EventUnexpectedError, Primitive: "lock", Key: l.key.Resolved(), Owner: l.owner, Err: err})
		return false, ErrUnableToRelease("lock", l.key.Resolved(), err)
	}
	l.p.metrics.RecordRelease("lock", latency, ok)
	if ok {
		l.p.emit(Event{Name: EventReleased, Primitive: "lock", Key: l.key.Resolved(), Owner: l.owner})
	} else {
		l.p.emit(Event{Name: EventUnownedReleaseTry, Primitive: "lock", Key: l.key.Resolved(), Owner: l.owner})
	}
	return ok, nil
}

// ReleaseOrFail is Release, returning ErrUnownedRelease instead of false.
func (l *Lock) ReleaseOrFail(ctx context.Context) error {
	ok, err := l.Release(ctx)
	if err != nil {
		return err
	}
	if !ok {
		l.p.emit(Event{Name: EventFailedRelease, Primitive: "lock", Key: l.key.Resolved(), Owner: l.owner})
		return ErrUnownedRelease("lock", l.key.Resolved(), l.owner)
	}
	return nil
}

// ForceRelease removes any unexpired record regardless of owner.
func (l *Lock) ForceRelease(ctx context.Context) (bool, error) {
	ok, err := l.p.lockAdapter.ForceRelease(ctx, l.key.Namespaced())
	if err != nil {
		l.p.metrics.RecordUnexpectedError("lock", "forceRelease")
		return false, ErrUnexpected("lock", "forceRelease", l.key.Resolved(), err)
	}
	l.p.metrics.RecordForceRelease("lock", ok)
	if ok {
		l.p.emit(Event{Name: EventForceReleased, Primitive: "lock", Key: l.key.Resolved()})
	}
	return ok, nil
}

// Refresh extends the lock's expiration to ttl from now. Refresh only
// succeeds against a record that already has a non-nil expiration:
// refreshing an unexpireable lock is a no-op failure.
func (l *Lock) Refresh(ctx context.Context, ttl time.Duration) (bool, error) {
	if ttl <= 0 {
		ttl = l.p.cfg.DefaultRefreshTime
	}
	start := l.p.clock.Now()
	ok, err := l.p.lockAdapter.Refresh(ctx, l.key.Namespaced(), l.owner, ttl)
	latency := l.p.clock.Now().Sub(start).Nanoseconds()
	if err != nil {
		l.p.metrics.RecordUnexpectedError("lock", "refresh")
		l.p.emit(Event{Name: EventUnexpectedError, Primitive: "lock", Key: l.key.Resolved(), Owner: l.owner, Err: err})
		return false, ErrUnexpected("lock", "refresh", l.key.Resolved(), err)
	}
	l.p.metrics.RecordRefresh("lock", latency, ok)
	if ok {
		l.p.emit(Event{Name: EventRefreshed, Primitive: "lock", Key: l.key.Resolved(), Owner: l.owner})
	} else {
		l.p.emit(Event{Name: EventUnownedRefreshTry, Primitive: "lock", Key: l.key.Resolved(), Owner: l.owner})
	}
	return ok, nil
}

// RefreshOrFail is Refresh, returning ErrUnownedRefresh instead of false.
func (l *Lock) RefreshOrFail(ctx context.Context, ttl time.Duration) error {
	ok, err := l.Refresh(ctx, ttl)
	if err != nil {
		return err
	}
	if !ok {
		l.p.emit(Event{Name: EventFailedRefresh, Primitive: "lock", Key: l.key.Resolved(), Owner: l.owner})
		return ErrUnownedRefresh("lock", l.key.Resolved(), l.owner)
	}
	return nil
}

// IsLocked reports whether the key currently has an unexpired owner (any owner).
func (l *Lock) IsLocked(ctx context.Context) (bool, error) {
	rec, err := l.p.lockAdapter.GetState(ctx, l.key.Namespaced())
	if err != nil {
		return false, ErrUnexpected("lock", "getState", l.key.Resolved(), err)
	}
	return rec != nil, nil
}

// IsExpired reports whether this handle's own ownership has lapsed: true
// both when another owner holds the key and when nobody does.
func (l *Lock) IsExpired(ctx context.Context) (bool, error) {
	rec, err := l.p.lockAdapter.GetState(ctx, l.key.Namespaced())
	if err != nil {
		return true, ErrUnexpected("lock", "getState", l.key.Resolved(), err)
	}
	if rec == nil {
		return true, nil
	}
	return rec.Owner != l.owner, nil
}

// GetRemainingTime returns the time left before the current owner's
// expiration, or nil if the key is absent or unexpireable.
func (l *Lock) GetRemainingTime(ctx context.Context) (*TimeSpan, error) {
	rec, err := l.p.lockAdapter.GetState(ctx, l.key.Namespaced())
	if err != nil {
		return nil, ErrUnexpected("lock", "getState", l.key.Resolved(), err)
	}
	if rec == nil {
		return nil, nil
	}
	return remainingTime(rec.Expiration, l.p.clock), nil
}

// Run acquires the lock, invokes fn, and releases it afterward regardless
// of fn's outcome. It returns false without invoking fn if the lock is
// already held by someone else.
func (l *Lock) Run(ctx context.Context, ttl *time.Duration, fn func(ctx context.Context) error) (bool, error) {
	ok, err := l.Acquire(ctx, ttl)
	if err != nil || !ok {
		return ok, err
	}
	defer func() { _, _ = l.Release(ctx) }()
	return true, fn(ctx)
}

// RunOrFail is Run, returning ErrKeyAlreadyAcquired instead of false.
func (l *Lock) RunOrFail(ctx context.Context, ttl *time.Duration, fn func(ctx context.Context) error) error {
	ok, err := l.Run(ctx, ttl, fn)
	if err != nil {
		return err
	}
	if !ok {
		return ErrKeyAlreadyAcquired("lock", l.key.Resolved(), l.owner)
	}
	return nil
}

// RunBlocking is Run, using AcquireBlocking instead of Acquire.
func (l *Lock) RunBlocking(ctx context.Context, ttl *time.Duration, maxWait time.Duration, fn func(ctx context.Context) error) (bool, error) {
	ok, err := l.AcquireBlocking(ctx, ttl, maxWait)
	if err != nil || !ok {
		return ok, err
	}
	defer func() { _, _ = l.Release(ctx) }()
	return true, fn(ctx)
}

// RunBlockingOrFail is RunBlocking, returning ErrBlockingTimeout instead of false.
func (l *Lock) RunBlockingOrFail(ctx context.Context, ttl *time.Duration, maxWait time.Duration, fn func(ctx context.Context) error) error {
	ok, err := l.RunBlocking(ctx, ttl, maxWait, fn)
	if err != nil {
		return err
	}
	if !ok {
		return ErrBlockingTimeout("lock", l.key.Resolved(), NewTimeSpan(maxWait))
	}
	return nil
}
