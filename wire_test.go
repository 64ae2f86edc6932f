package warden

import (
	"context"
	"encoding/json"
	"testing"
)

func TestLockWireRoundTrip(t *testing.T) {
	p := newTestProvider(t)
	ctx := context.Background()

	l := p.Lock("wire:lock", "owner-a")
	if _, err := l.Acquire(ctx, nil); err != nil {
		t.Fatalf("Acquire: %v", err)
	}

	data, err := json.Marshal(l)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	rebound, err := UnmarshalLock(p, data)
	if err != nil {
		t.Fatalf("UnmarshalLock: %v", err)
	}
	if rebound.Key() != l.Key() || rebound.Owner() != l.Owner() {
		t.Fatalf("rebound handle = %q/%q, want %q/%q", rebound.Key(), rebound.Owner(), l.Key(), l.Owner())
	}

	ok, err := rebound.Release(ctx)
	if err != nil || !ok {
		t.Fatalf("Release via rebound handle = %v, %v; want true, nil", ok, err)
	}
}

func TestUnmarshalLockRejectsUnknownVersion(t *testing.T) {
	p := newTestProvider(t)
	data := []byte(`{"version":99,"key":"k","owner":"o"}`)
	if _, err := UnmarshalLock(p, data); err == nil {
		t.Fatal("UnmarshalLock accepted an unknown wire version")
	}
}

func TestSemaphoreWireRoundTrip(t *testing.T) {
	p := newTestProvider(t)
	ctx := context.Background()

	s := p.Semaphore("wire:sem", "slot-a", 3)
	if _, err := s.Acquire(ctx, nil); err != nil {
		t.Fatalf("Acquire: %v", err)
	}

	data, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	rebound, err := UnmarshalSemaphore(p, data)
	if err != nil {
		t.Fatalf("UnmarshalSemaphore: %v", err)
	}
	if rebound.SlotID() != s.SlotID() || rebound.limit != s.limit {
		t.Fatalf("rebound semaphore mismatch: slot %q/%q limit %d/%d", rebound.SlotID(), s.SlotID(), rebound.limit, s.limit)
	}
}

func TestSharedLockWireRoundTrip(t *testing.T) {
	p := newTestProvider(t)
	ctx := context.Background()

	s := p.SharedLock("wire:shared", "writer-a", "reader-a", 2)
	if _, err := s.AcquireWriter(ctx, nil); err != nil {
		t.Fatalf("AcquireWriter: %v", err)
	}

	data, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	rebound, err := UnmarshalSharedLock(p, data)
	if err != nil {
		t.Fatalf("UnmarshalSharedLock: %v", err)
	}
	ok, err := rebound.ReleaseWriter(ctx)
	if err != nil || !ok {
		t.Fatalf("ReleaseWriter via rebound handle = %v, %v; want true, nil", ok, err)
	}
}
