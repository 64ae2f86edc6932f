package warden

import (
	"sync"
	"testing"
	"time"
)

func TestEventDispatcherDeliversInOrder(t *testing.T) {
	d := NewEventDispatcher()
	var mu sync.Mutex
	var got []string

	unsub := d.On(EventAcquired, func(e Event) {
		mu.Lock()
		got = append(got, e.Owner)
		mu.Unlock()
	})
	defer unsub()

	for _, owner := range []string{"a", "b", "c"} {
		d.Emit(Event{Name: EventAcquired, Owner: owner})
	}

	deadline := time.Now().Add(time.Second)
	for {
		mu.Lock()
		n := len(got)
		mu.Unlock()
		if n == 3 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for events, got %v", got)
		}
		time.Sleep(time.Millisecond)
	}

	mu.Lock()
	defer mu.Unlock()
	want := []string{"a", "b", "c"}
	for i, w := range want {
		if got[i] != w {
			t.Errorf("got[%d] = %q, want %q (order violated)", i, got[i], w)
		}
	}
}

func TestEventDispatcherUnsubscribe(t *testing.T) {
	d := NewEventDispatcher()
	var mu sync.Mutex
	count := 0

	unsub := d.On(EventReleased, func(Event) {
		mu.Lock()
		count++
		mu.Unlock()
	})
	unsub()

	d.Emit(Event{Name: EventReleased})
	time.Sleep(20 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if count != 0 {
		t.Errorf("listener fired %d times after unsubscribe, want 0", count)
	}
}

func TestEventDispatcherEmitNeverBlocks(t *testing.T) {
	d := NewEventDispatcher()
	done := make(chan struct{})
	go func() {
		for i := 0; i < 5000; i++ {
			d.Emit(Event{Name: EventAcquired})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Emit blocked under load")
	}
}
