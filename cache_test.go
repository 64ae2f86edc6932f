package warden

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestCacheAddUpdatePut(t *testing.T) {
	p := newTestProvider(t)
	ctx := context.Background()
	c := p.Cache()

	ok, err := c.Add(ctx, "k1", "v1", nil)
	if err != nil || !ok {
		t.Fatalf("Add = %v, %v; want true, nil", ok, err)
	}
	ok, err = c.Add(ctx, "k1", "v2", nil)
	if err != nil || ok {
		t.Fatalf("second Add on present key = %v, %v; want false, nil", ok, err)
	}

	ok, err = c.Update(ctx, "k1", "v2", nil)
	if err != nil || !ok {
		t.Fatalf("Update = %v, %v; want true, nil", ok, err)
	}
	value, found, err := c.Get(ctx, "k1")
	if err != nil || !found || value != "v2" {
		t.Fatalf("Get after Update = %v, %v, %v", value, found, err)
	}

	if err := c.Put(ctx, "k2", "v3", nil); err != nil {
		t.Fatalf("Put: %v", err)
	}
	value, found, err = c.Get(ctx, "k2")
	if err != nil || !found || value != "v3" {
		t.Fatalf("Get after Put = %v, %v, %v", value, found, err)
	}
}

func TestCacheGetOrFailMiss(t *testing.T) {
	p := newTestProvider(t)
	ctx := context.Background()
	c := p.Cache()

	_, err := c.GetOrFail(ctx, "missing")
	if !IsKeyNotFound(err) {
		t.Fatalf("GetOrFail error = %v, want IsKeyNotFound", err)
	}
}

func TestCacheRemove(t *testing.T) {
	p := newTestProvider(t)
	ctx := context.Background()
	c := p.Cache()

	if err := c.Put(ctx, "k1", "v1", nil); err != nil {
		t.Fatalf("Put: %v", err)
	}
	ok, err := c.Remove(ctx, "k1")
	if err != nil || !ok {
		t.Fatalf("Remove = %v, %v; want true, nil", ok, err)
	}
	_, found, err := c.Get(ctx, "k1")
	if err != nil || found {
		t.Fatalf("Get after Remove = found:%v, err:%v", found, err)
	}
}

func TestCacheIncrementDecrementPreservesTTL(t *testing.T) {
	p := newTestProvider(t)
	ctx := context.Background()
	c := p.Cache()

	ttl := time.Minute
	if err := c.Put(ctx, "counter", float64(10), &ttl); err != nil {
		t.Fatalf("Put: %v", err)
	}
	ok, err := c.Increment(ctx, "counter", 5)
	if err != nil || !ok {
		t.Fatalf("Increment = %v, %v", ok, err)
	}
	value, _, err := c.Get(ctx, "counter")
	if err != nil || value != float64(15) {
		t.Fatalf("Get after Increment = %v, %v", value, err)
	}

	ok, err = c.Decrement(ctx, "counter", 3)
	if err != nil || !ok {
		t.Fatalf("Decrement = %v, %v", ok, err)
	}
	value, _, err = c.Get(ctx, "counter")
	if err != nil || value != float64(12) {
		t.Fatalf("Get after Decrement = %v, %v", value, err)
	}
}

func TestCacheIncrementNonNumericReturnsTypeCache(t *testing.T) {
	p := newTestProvider(t)
	ctx := context.Background()
	c := p.Cache()

	if err := c.Put(ctx, "text", "not-a-number", nil); err != nil {
		t.Fatalf("Put: %v", err)
	}
	_, err := c.Increment(ctx, "text", 1)
	if !IsTypeCache(err) {
		t.Fatalf("Increment error = %v, want IsTypeCache", err)
	}
}

func TestCacheClearRemovesNamespacedKeys(t *testing.T) {
	p := newTestProvider(t)
	ctx := context.Background()
	c := p.Cache()

	if err := c.Put(ctx, "a", 1, nil); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := c.Put(ctx, "b", 2, nil); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := c.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	for _, k := range []string{"a", "b"} {
		if _, found, err := c.Get(ctx, k); err != nil || found {
			t.Fatalf("Get(%q) after Clear = found:%v, err:%v", k, found, err)
		}
	}
}

func TestCacheGetOrSetCallsLoaderOnceUnderConcurrency(t *testing.T) {
	p := newTestProvider(t)
	ctx := context.Background()
	c := p.Cache()

	var calls int32
	loader := func(context.Context) (interface{}, error) {
		atomic.AddInt32(&calls, 1)
		time.Sleep(20 * time.Millisecond)
		return "loaded", nil
	}

	var wg sync.WaitGroup
	results := make([]interface{}, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := c.GetOrSet(ctx, "stampede", nil, loader)
			if err != nil {
				t.Errorf("GetOrSet: %v", err)
				return
			}
			results[i] = v
		}(i)
	}
	wg.Wait()

	if atomic.LoadInt32(&calls) != 1 {
		t.Errorf("loader called %d times, want 1", calls)
	}
	for i, v := range results {
		if v != "loaded" {
			t.Errorf("results[%d] = %v, want loaded", i, v)
		}
	}
}

func TestCacheGetOrSetPropagatesLoaderError(t *testing.T) {
	p := newTestProvider(t)
	ctx := context.Background()
	c := p.Cache()

	wantErr := errors.New("backend unavailable")
	_, err := c.GetOrSet(ctx, "failing", nil, func(context.Context) (interface{}, error) {
		return nil, wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("GetOrSet error = %v, want %v", err, wantErr)
	}

	// A subsequent call should retry the loader rather than caching the failure.
	v, err := c.GetOrSet(ctx, "failing", nil, func(context.Context) (interface{}, error) {
		return "recovered", nil
	})
	if err != nil || v != "recovered" {
		t.Fatalf("GetOrSet retry = %v, %v; want recovered, nil", v, err)
	}
}
