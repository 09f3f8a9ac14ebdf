package retry

import (
	"context"
	"testing"
	"time"
)

func TestBackoffDoublesUpToMax(t *testing.T) {
	b := NewBackoff(time.Millisecond, 4*time.Millisecond)
	ctx := context.Background()

	want := []time.Duration{time.Millisecond, 2 * time.Millisecond, 4 * time.Millisecond, 4 * time.Millisecond}
	for i, w := range want {
		if got := b.Current(); got != w {
			t.Fatalf("step %d: expected %v, got %v", i, w, got)
		}
		if !b.Wait(ctx) {
			t.Fatalf("step %d: wait interrupted", i)
		}
	}

	b.Reset()
	if b.Current() != time.Millisecond {
		t.Fatalf("expected reset to initial, got %v", b.Current())
	}
}

func TestBackoffDefaults(t *testing.T) {
	b := NewBackoff(0, 0)
	if b.Current() != DefaultInitial || b.max != DefaultMax {
		t.Fatalf("unexpected defaults: %v / %v", b.Current(), b.max)
	}
}

func TestSleepInterruptedByContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	start := time.Now()
	if Sleep(ctx, time.Minute) {
		t.Fatal("expected sleep to be interrupted")
	}
	if time.Since(start) > time.Second {
		t.Fatal("sleep did not return promptly")
	}
}
