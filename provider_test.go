package warden

import (
	"context"
	"testing"
)

func TestNewInMemoryProviderDistinctHandlesShareState(t *testing.T) {
	p := newTestProvider(t)
	ctx := context.Background()

	a := p.Lock("shared", "owner-a")
	b := p.Lock("shared", "owner-b")

	if ok, err := a.Acquire(ctx, nil); err != nil || !ok {
		t.Fatalf("a.Acquire = %v, %v", ok, err)
	}
	if ok, err := b.Acquire(ctx, nil); err != nil || ok {
		t.Fatalf("b.Acquire = %v, %v; want false, nil (same underlying adapter/key)", ok, err)
	}
}

func TestProviderNamespaceIsolatesKeys(t *testing.T) {
	ns1, err := NewInMemoryProvider(Config{Namespace: "tenant-a"})
	if err != nil {
		t.Fatalf("NewInMemoryProvider: %v", err)
	}
	ns2, err := NewInMemoryProvider(Config{Namespace: "tenant-b"})
	if err != nil {
		t.Fatalf("NewInMemoryProvider: %v", err)
	}
	ctx := context.Background()

	l1 := ns1.Lock("same-key", "owner")
	l2 := ns2.Lock("same-key", "owner")
	if ok, err := l1.Acquire(ctx, nil); err != nil || !ok {
		t.Fatalf("l1.Acquire = %v, %v", ok, err)
	}
	ok, err := l2.Acquire(ctx, nil)
	if err != nil || !ok {
		t.Fatalf("l2.Acquire in a different namespace should succeed independently, got %v, %v", ok, err)
	}
}

func TestProviderMintsIDsWhenOwnerOmitted(t *testing.T) {
	p := newTestProvider(t)
	l1 := p.Lock("auto-id", "")
	l2 := p.Lock("auto-id", "")
	if l1.Owner() == "" || l2.Owner() == "" {
		t.Fatal("Provider.Lock should mint a non-empty owner when none is given")
	}
	if l1.Owner() == l2.Owner() {
		t.Error("Provider.Lock minted the same owner id for two distinct handles")
	}
}

func TestProviderPing(t *testing.T) {
	p := newTestProvider(t)
	if err := p.Ping(context.Background()); err != nil {
		t.Fatalf("Ping: %v", err)
	}
}

func TestProviderResetDefaults(t *testing.T) {
	p := newTestProvider(t)
	p.ResetDefaults(0, 0, 0, 9)
	if p.cfg.DefaultSemaphoreLimit != 9 {
		t.Errorf("DefaultSemaphoreLimit = %d, want 9", p.cfg.DefaultSemaphoreLimit)
	}

	s := p.Semaphore("pool", "slot", 0)
	if s.limit != 9 {
		t.Errorf("Semaphore minted after ResetDefaults has limit %d, want 9", s.limit)
	}
}
