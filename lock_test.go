package warden

import (
	"context"
	"testing"
	"time"
)

func newTestProvider(t *testing.T) *Provider {
	t.Helper()
	p, err := NewInMemoryProvider(Config{Clock: &OffsetClock{Base: FixedClock{At: time.Unix(1000, 0)}}})
	if err != nil {
		t.Fatalf("NewInMemoryProvider: %v", err)
	}
	return p
}

func TestLockAcquireReleaseRoundTrip(t *testing.T) {
	p := newTestProvider(t)
	ctx := context.Background()

	l := p.Lock("resource:1", "owner-a")
	ok, err := l.Acquire(ctx, nil)
	if err != nil || !ok {
		t.Fatalf("Acquire = %v, %v; want true, nil", ok, err)
	}

	other := p.Lock("resource:1", "owner-b")
	ok, err = other.Acquire(ctx, nil)
	if err != nil || ok {
		t.Fatalf("second Acquire = %v, %v; want false, nil", ok, err)
	}

	ok, err = other.Release(ctx)
	if err != nil || ok {
		t.Fatalf("unowned Release = %v, %v; want false, nil", ok, err)
	}

	ok, err = l.Release(ctx)
	if err != nil || !ok {
		t.Fatalf("Release = %v, %v; want true, nil", ok, err)
	}

	ok, err = other.Acquire(ctx, nil)
	if err != nil || !ok {
		t.Fatalf("Acquire after release = %v, %v; want true, nil", ok, err)
	}
}

func TestLockAcquireIsIdempotentForSameOwner(t *testing.T) {
	p := newTestProvider(t)
	ctx := context.Background()

	ttl := time.Minute
	l := p.Lock("resource:2", "owner-a")
	if ok, err := l.Acquire(ctx, &ttl); err != nil || !ok {
		t.Fatalf("first Acquire = %v, %v", ok, err)
	}
	remaining1, err := l.GetRemainingTime(ctx)
	if err != nil || remaining1 == nil {
		t.Fatalf("GetRemainingTime = %v, %v", remaining1, err)
	}

	if ok, err := l.Acquire(ctx, &ttl); err != nil || !ok {
		t.Fatalf("re-Acquire = %v, %v", ok, err)
	}
	remaining2, err := l.GetRemainingTime(ctx)
	if err != nil || remaining2 == nil {
		t.Fatalf("GetRemainingTime = %v, %v", remaining2, err)
	}
	if remaining1.ToDuration() != remaining2.ToDuration() {
		t.Errorf("idempotent re-acquire changed expiration: %v -> %v", remaining1, remaining2)
	}
}

func TestLockAcquireOrFail(t *testing.T) {
	p := newTestProvider(t)
	ctx := context.Background()

	l1 := p.Lock("resource:3", "owner-a")
	if err := l1.AcquireOrFail(ctx, nil); err != nil {
		t.Fatalf("AcquireOrFail = %v", err)
	}

	l2 := p.Lock("resource:3", "owner-b")
	err := l2.AcquireOrFail(ctx, nil)
	if !IsKeyAlreadyAcquired(err) {
		t.Fatalf("AcquireOrFail error = %v, want IsKeyAlreadyAcquired", err)
	}
}

func TestLockRefreshRequiresExistingExpiration(t *testing.T) {
	p := newTestProvider(t)
	ctx := context.Background()

	l := p.Lock("resource:4", "owner-a")
	if _, err := l.Acquire(ctx, nil); err != nil { // unexpireable
		t.Fatalf("Acquire: %v", err)
	}
	ok, err := l.Refresh(ctx, time.Minute)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if ok {
		t.Error("Refresh on unexpireable lock should fail, got true")
	}
}

func TestLockForceReleaseIgnoresOwner(t *testing.T) {
	p := newTestProvider(t)
	ctx := context.Background()

	l := p.Lock("resource:5", "owner-a")
	if _, err := l.Acquire(ctx, nil); err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	other := p.Lock("resource:5", "owner-b")
	ok, err := other.ForceRelease(ctx)
	if err != nil || !ok {
		t.Fatalf("ForceRelease = %v, %v; want true, nil", ok, err)
	}
	locked, err := l.IsLocked(ctx)
	if err != nil || locked {
		t.Fatalf("IsLocked after ForceRelease = %v, %v; want false, nil", locked, err)
	}
}

func TestLockExpiresAfterTTL(t *testing.T) {
	p := newTestProvider(t)
	ctx := context.Background()
	clock := p.clock.(*OffsetClock)

	ttl := 10 * time.Second
	l := p.Lock("resource:6", "owner-a")
	if _, err := l.Acquire(ctx, &ttl); err != nil {
		t.Fatalf("Acquire: %v", err)
	}

	clock.Advance(15 * time.Second)

	expired, err := l.IsExpired(ctx)
	if err != nil || !expired {
		t.Fatalf("IsExpired = %v, %v; want true, nil", expired, err)
	}

	other := p.Lock("resource:6", "owner-b")
	ok, err := other.Acquire(ctx, nil)
	if err != nil || !ok {
		t.Fatalf("Acquire after expiry = %v, %v; want true, nil", ok, err)
	}
}

func TestLockRun(t *testing.T) {
	p := newTestProvider(t)
	ctx := context.Background()

	l := p.Lock("resource:7", "owner-a")
	ran := false
	ok, err := l.Run(ctx, nil, func(context.Context) error {
		ran = true
		locked, _ := l.IsLocked(ctx)
		if !locked {
			t.Error("lock should be held while fn runs")
		}
		return nil
	})
	if err != nil || !ok || !ran {
		t.Fatalf("Run = %v, %v, ran=%v", ok, err, ran)
	}

	locked, err := l.IsLocked(ctx)
	if err != nil || locked {
		t.Fatalf("lock should be released after Run, IsLocked = %v, %v", locked, err)
	}
}

func TestLockAcquireBlockingSucceedsOnceReleased(t *testing.T) {
	p, err := NewInMemoryProvider(Config{})
	if err != nil {
		t.Fatalf("NewInMemoryProvider: %v", err)
	}
	ctx := context.Background()

	holder := p.Lock("resource:8", "owner-a")
	if _, err := holder.Acquire(ctx, nil); err != nil {
		t.Fatalf("Acquire: %v", err)
	}

	go func() {
		time.Sleep(20 * time.Millisecond)
		_, _ = holder.Release(ctx)
	}()

	waiter := p.Lock("resource:8", "owner-b")
	ok, err := waiter.AcquireBlocking(ctx, nil, time.Second)
	if err != nil || !ok {
		t.Fatalf("AcquireBlocking = %v, %v; want true, nil", ok, err)
	}
}

func TestLockAcquireBlockingOrFailTimesOut(t *testing.T) {
	p, err := NewInMemoryProvider(Config{})
	if err != nil {
		t.Fatalf("NewInMemoryProvider: %v", err)
	}
	ctx := context.Background()

	holder := p.Lock("resource:9", "owner-a")
	if _, err := holder.Acquire(ctx, nil); err != nil {
		t.Fatalf("Acquire: %v", err)
	}

	waiter := p.Lock("resource:9", "owner-b")
	err = waiter.AcquireBlockingOrFail(ctx, nil, 30*time.Millisecond)
	if !IsBlockingTimeout(err) {
		t.Fatalf("AcquireBlockingOrFail error = %v, want IsBlockingTimeout", err)
	}
}
