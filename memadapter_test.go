package warden

import (
	"context"
	"testing"
	"time"
)

func TestMemoryAdapterLockLazyExpiration(t *testing.T) {
	clock := &OffsetClock{Base: FixedClock{At: time.Unix(0, 0)}}
	a := NewMemoryAdapter(clock)
	ctx := context.Background()

	ttl := time.Second
	ok, err := a.Acquire(ctx, "k", "owner", &ttl)
	if err != nil || !ok {
		t.Fatalf("Acquire = %v, %v", ok, err)
	}

	clock.Advance(2 * time.Second)

	rec, err := a.GetState(ctx, "k")
	if err != nil || rec != nil {
		t.Fatalf("GetState after expiry = %+v, %v; want nil, nil", rec, err)
	}

	ok, err = a.Acquire(ctx, "k", "other", nil)
	if err != nil || !ok {
		t.Fatalf("Acquire after expiry = %v, %v; want true, nil", ok, err)
	}
}

func TestMemoryAdapterSemaphorePrunesExpiredSlots(t *testing.T) {
	clock := &OffsetClock{Base: FixedClock{At: time.Unix(0, 0)}}
	a := NewMemoryAdapter(clock)
	sem := a.SemaphoreAdapter()
	ctx := context.Background()

	ttl := time.Second
	ok, err := sem.Acquire(ctx, SemaphoreAcquireInput{Key: "pool", SlotID: "s1", Limit: 1, TTL: &ttl})
	if err != nil || !ok {
		t.Fatalf("Acquire = %v, %v", ok, err)
	}

	clock.Advance(2 * time.Second)

	ok, err = sem.Acquire(ctx, SemaphoreAcquireInput{Key: "pool", SlotID: "s2", Limit: 1, TTL: nil})
	if err != nil || !ok {
		t.Fatalf("Acquire after slot expiry should reclaim capacity, got %v, %v", ok, err)
	}
}

func TestMemoryAdapterSharedLockDisjointness(t *testing.T) {
	a := NewMemoryAdapter(cachedClock{})
	sl := a.SharedLockAdapter()
	ctx := context.Background()

	ok, err := sl.AcquireWriter(ctx, "doc", "w1", nil)
	if err != nil || !ok {
		t.Fatalf("AcquireWriter = %v, %v", ok, err)
	}
	ok, err = sl.AcquireReader(ctx, SemaphoreAcquireInput{Key: "doc", SlotID: "r1", Limit: 5})
	if err != nil || ok {
		t.Fatalf("AcquireReader while writer-held = %v, %v; want false, nil", ok, err)
	}

	rec, err := sl.GetState(ctx, "doc")
	if err != nil {
		t.Fatalf("GetState: %v", err)
	}
	if rec.Writer == nil || rec.Reader != nil {
		t.Fatalf("unexpected state: %+v", rec)
	}
}

func TestMemoryAdapterCacheClearIsNamespaceScoped(t *testing.T) {
	a := NewMemoryAdapter(cachedClock{})
	c := a.CacheAdapter()
	ctx := context.Background()

	if err := c.Put(ctx, "ns1:a", 1, nil); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := c.Put(ctx, "ns2:a", 2, nil); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := c.Clear(ctx, "ns1:"); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if _, found, _ := c.Get(ctx, "ns1:a"); found {
		t.Error("ns1:a should be cleared")
	}
	if _, found, _ := c.Get(ctx, "ns2:a"); !found {
		t.Error("ns2:a should survive a scoped Clear")
	}
}
