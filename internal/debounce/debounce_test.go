package debounce

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestDebouncerRunsOnlyLastTrigger(t *testing.T) {
	d := New(20 * time.Millisecond)
	var calls int32
	var last int32
	for i := 1; i <= 5; i++ {
		v := int32(i)
		d.Trigger(func() {
			atomic.AddInt32(&calls, 1)
			atomic.StoreInt32(&last, v)
		})
	}

	deadline := time.Now().Add(time.Second)
	for atomic.LoadInt32(&calls) == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	time.Sleep(50 * time.Millisecond)

	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Fatalf("expected exactly one call, got %d", got)
	}
	if got := atomic.LoadInt32(&last); got != 5 {
		t.Fatalf("expected last trigger to win, got %d", got)
	}
}

func TestDebouncerFlush(t *testing.T) {
	d := New(time.Hour)
	ran := ""
	d.Trigger(func() { ran = "first" })
	d.Trigger(func() { ran = "second" })
	if !d.Pending() {
		t.Fatalf("expected pending call")
	}
	if !d.Flush() {
		t.Fatalf("expected flush to run pending call")
	}
	if ran != "second" {
		t.Fatalf("expected second, got %q", ran)
	}
	if d.Flush() {
		t.Fatalf("expected nothing left to flush")
	}
}

func TestDebouncerCancelAndStop(t *testing.T) {
	d := New(time.Hour)
	ran := false
	d.Trigger(func() { ran = true })
	d.Cancel()
	if d.Flush() || ran {
		t.Fatalf("expected cancelled call not to run")
	}

	d.Stop()
	d.Trigger(func() { ran = true })
	if d.Pending() || ran {
		t.Fatalf("expected stopped debouncer to ignore triggers")
	}
}
