package warden

import (
	"context"
	"testing"
)

func TestSemaphoreRespectsLimit(t *testing.T) {
	p := newTestProvider(t)
	ctx := context.Background()

	s1 := p.Semaphore("pool:db", "slot-1", 2)
	s2 := p.Semaphore("pool:db", "slot-2", 2)
	s3 := p.Semaphore("pool:db", "slot-3", 2)

	for _, s := range []*Semaphore{s1, s2} {
		ok, err := s.Acquire(ctx, nil)
		if err != nil || !ok {
			t.Fatalf("Acquire(%s) = %v, %v; want true, nil", s.SlotID(), ok, err)
		}
	}

	ok, err := s3.Acquire(ctx, nil)
	if err != nil || ok {
		t.Fatalf("third Acquire = %v, %v; want false, nil", ok, err)
	}

	if ok, err := s1.Release(ctx); err != nil || !ok {
		t.Fatalf("Release = %v, %v", ok, err)
	}

	ok, err = s3.Acquire(ctx, nil)
	if err != nil || !ok {
		t.Fatalf("Acquire after release = %v, %v; want true, nil", ok, err)
	}
}

func TestSemaphoreAcquireIsIdempotent(t *testing.T) {
	p := newTestProvider(t)
	ctx := context.Background()

	s := p.Semaphore("pool:idem", "slot-1", 1)
	for i := 0; i < 3; i++ {
		ok, err := s.Acquire(ctx, nil)
		if err != nil || !ok {
			t.Fatalf("Acquire #%d = %v, %v", i, ok, err)
		}
	}
	state, err := s.GetState(ctx)
	if err != nil {
		t.Fatalf("GetState: %v", err)
	}
	if len(state.AcquiredSlots) != 1 {
		t.Errorf("AcquiredSlots = %v, want exactly one entry", state.AcquiredSlots)
	}
}

func TestSemaphoreLimitFrozenAtFirstAcquire(t *testing.T) {
	p := newTestProvider(t)
	ctx := context.Background()

	s1 := p.Semaphore("pool:frozen", "slot-1", 1)
	if ok, err := s1.Acquire(ctx, nil); err != nil || !ok {
		t.Fatalf("first Acquire = %v, %v", ok, err)
	}

	s2 := p.Semaphore("pool:frozen", "slot-2", 10)
	ok, err := s2.Acquire(ctx, nil)
	if err != nil || ok {
		t.Fatalf("second Acquire with larger requested limit = %v, %v; want false (frozen at 1), nil", ok, err)
	}
}

func TestSemaphoreForceReleaseAll(t *testing.T) {
	p := newTestProvider(t)
	ctx := context.Background()

	s1 := p.Semaphore("pool:force", "slot-1", 3)
	s2 := p.Semaphore("pool:force", "slot-2", 3)
	if _, err := s1.Acquire(ctx, nil); err != nil {
		t.Fatalf("Acquire s1: %v", err)
	}
	if _, err := s2.Acquire(ctx, nil); err != nil {
		t.Fatalf("Acquire s2: %v", err)
	}

	ok, err := s1.ForceReleaseAll(ctx)
	if err != nil || !ok {
		t.Fatalf("ForceReleaseAll = %v, %v; want true, nil", ok, err)
	}

	state, err := s1.GetState(ctx)
	if err != nil {
		t.Fatalf("GetState: %v", err)
	}
	if len(state.AcquiredSlots) != 0 {
		t.Errorf("AcquiredSlots after ForceReleaseAll = %v, want empty", state.AcquiredSlots)
	}
}

func TestSemaphoreAcquireOrFailReportsLimitReached(t *testing.T) {
	p := newTestProvider(t)
	ctx := context.Background()

	s1 := p.Semaphore("pool:orfail", "slot-1", 1)
	if err := s1.AcquireOrFail(ctx, nil); err != nil {
		t.Fatalf("AcquireOrFail: %v", err)
	}

	s2 := p.Semaphore("pool:orfail", "slot-2", 1)
	err := s2.AcquireOrFail(ctx, nil)
	code := GetErrorCode(err)
	if code != ErrCodeLimitReached {
		t.Fatalf("AcquireOrFail error code = %v, want %v", code, ErrCodeLimitReached)
	}
}
