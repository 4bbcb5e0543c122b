package core

import (
	"context"
	"testing"
	"time"
)

func TestMemoryLinkStateStore(t *testing.T) {
	ctx := context.Background()

	t.Run("save then consume", func(t *testing.T) {
		store := NewMemoryLinkStateStore(time.Minute)
		if err := store.Save(ctx, LinkStateRecord{State: "s1", ExternalID: "ext_1"}); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
		record, err := store.Consume(ctx, "s1")
		if err != nil {
			t.Fatalf("Consume() error = %v", err)
		}
		if record.ExternalID != "ext_1" {
			t.Fatalf("external id = %q, want ext_1", record.ExternalID)
		}
		if record.CreatedAt.IsZero() || record.ExpiresAt.IsZero() {
			t.Fatalf("timestamps not defaulted: %+v", record)
		}
	})

	t.Run("consume is single use", func(t *testing.T) {
		store := NewMemoryLinkStateStore(time.Minute)
		if err := store.Save(ctx, LinkStateRecord{State: "s1", ExternalID: "ext_1"}); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
		if _, err := store.Consume(ctx, "s1"); err != nil {
			t.Fatalf("first Consume() error = %v", err)
		}
		if _, err := store.Consume(ctx, "s1"); err == nil {
			t.Fatal("state consumed twice")
		}
	})

	t.Run("unknown state fails", func(t *testing.T) {
		store := NewMemoryLinkStateStore(time.Minute)
		if _, err := store.Consume(ctx, "never_saved"); err == nil {
			t.Fatal("unknown state accepted")
		}
	})

	t.Run("expired state fails and is dropped", func(t *testing.T) {
		store := NewMemoryLinkStateStore(time.Minute)
		past := time.Now().UTC().Add(-time.Hour)
		if err := store.Save(ctx, LinkStateRecord{
			State:      "s1",
			ExternalID: "ext_1",
			CreatedAt:  past,
			ExpiresAt:  past.Add(time.Minute),
		}); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
		if _, err := store.Consume(ctx, "s1"); err == nil {
			t.Fatal("expired state accepted")
		}
		if _, err := store.Consume(ctx, "s1"); err == nil {
			t.Fatal("expired state survived its first consume")
		}
	})

	t.Run("blank state rejected", func(t *testing.T) {
		store := NewMemoryLinkStateStore(time.Minute)
		if err := store.Save(ctx, LinkStateRecord{State: " "}); err == nil {
			t.Fatal("blank state saved")
		}
		if _, err := store.Consume(ctx, ""); err == nil {
			t.Fatal("blank state consumed")
		}
	})
}

func TestGenerateLinkState(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 64; i++ {
		state, err := generateLinkState()
		if err != nil {
			t.Fatalf("generateLinkState() error = %v", err)
		}
		if len(state) < 30 {
			t.Fatalf("state %q too short", state)
		}
		if seen[state] {
			t.Fatalf("duplicate state %q", state)
		}
		seen[state] = true
	}
}
