package sqlstore

import (
	"context"
	"testing"
	"time"

	"github.com/agilira/warden"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open("file::memory:?cache=shared")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestLockStore_AcquireReleaseViaNormalizedAdapter(t *testing.T) {
	store := openTestStore(t)
	lockAdapter := warden.NormalizeDatabaseLockAdapter(NewLockStore(store), warden.SystemClock())

	ctx := context.Background()
	ttl := 100 * time.Millisecond

	ok, err := lockAdapter.Acquire(ctx, "k1", "A", &ttl)
	if err != nil || !ok {
		t.Fatalf("Acquire() = %v, %v; want true, nil", ok, err)
	}

	ok, err = lockAdapter.Acquire(ctx, "k1", "B", &ttl)
	if err != nil || ok {
		t.Fatalf("Acquire() by other owner = %v, %v; want false, nil", ok, err)
	}

	state, err := lockAdapter.GetState(ctx, "k1")
	if err != nil || state == nil || state.Owner != "A" {
		t.Fatalf("GetState() = %+v, %v; want owner A", state, err)
	}

	ok, err = lockAdapter.Release(ctx, "k1", "A")
	if err != nil || !ok {
		t.Fatalf("Release() = %v, %v; want true, nil", ok, err)
	}
}

func TestSemaphoreStore_LimitEnforced(t *testing.T) {
	store := openTestStore(t)
	semAdapter := warden.NormalizeDatabaseSemaphoreAdapter(NewSemaphoreStore(store), warden.SystemClock())

	ctx := context.Background()
	in := warden.SemaphoreAcquireInput{Key: "sem1", Limit: 1}

	in.SlotID = "s1"
	ok, err := semAdapter.Acquire(ctx, in)
	if err != nil || !ok {
		t.Fatalf("Acquire(s1) = %v, %v; want true, nil", ok, err)
	}

	in.SlotID = "s2"
	ok, err = semAdapter.Acquire(ctx, in)
	if err != nil || ok {
		t.Fatalf("Acquire(s2) over limit = %v, %v; want false, nil", ok, err)
	}

	released, err := semAdapter.Release(ctx, "sem1", "s1")
	if err != nil || !released {
		t.Fatalf("Release(s1) = %v, %v; want true, nil", released, err)
	}

	ok, err = semAdapter.Acquire(ctx, in)
	if err != nil || !ok {
		t.Fatalf("Acquire(s2) after release = %v, %v; want true, nil", ok, err)
	}
}
