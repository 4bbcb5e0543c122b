package cache

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

type countingClearer struct {
	clears atomic.Int64
}

func (c *countingClearer) Clear() {
	c.clears.Add(1)
}

func TestNewJanitor_Validates(t *testing.T) {
	if _, err := NewJanitor(nil, time.Minute); err == nil {
		t.Fatalf("expected error for nil target")
	}
	if _, err := NewJanitor(&countingClearer{}, 0); err == nil {
		t.Fatalf("expected error for zero interval")
	}
}

func TestJanitor_ClearsOnInterval(t *testing.T) {
	target := &countingClearer{}
	janitor, err := NewJanitor(target, 10*time.Millisecond)
	if err != nil {
		t.Fatalf("new janitor: %v", err)
	}

	janitor.Start(context.Background())
	defer janitor.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for target.clears.Load() < 2 {
		if time.Now().After(deadline) {
			t.Fatalf("expected at least two clears, got %d", target.clears.Load())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestJanitor_StopHaltsLoop(t *testing.T) {
	target := &countingClearer{}
	janitor, err := NewJanitor(target, 5*time.Millisecond)
	if err != nil {
		t.Fatalf("new janitor: %v", err)
	}

	janitor.Start(context.Background())
	time.Sleep(20 * time.Millisecond)
	janitor.Stop()
	janitor.Stop()

	settled := target.clears.Load()
	time.Sleep(30 * time.Millisecond)
	if target.clears.Load() != settled {
		t.Fatalf("expected no clears after stop, got %d then %d", settled, target.clears.Load())
	}
}

func TestJanitor_ContextCancelStopsLoop(t *testing.T) {
	target := &countingClearer{}
	janitor, err := NewJanitor(target, 5*time.Millisecond)
	if err != nil {
		t.Fatalf("new janitor: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	janitor.Start(ctx)
	time.Sleep(20 * time.Millisecond)
	cancel()
	time.Sleep(20 * time.Millisecond)

	settled := target.clears.Load()
	time.Sleep(30 * time.Millisecond)
	if target.clears.Load() != settled {
		t.Fatalf("expected no clears after cancel, got %d then %d", settled, target.clears.Load())
	}

	janitor.Stop()
}
