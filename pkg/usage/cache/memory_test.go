package cache

import (
	"context"
	"testing"
	"time"

	"mercator-hq/callisto/pkg/usage"
)

func testSnapshot() usage.Snapshot {
	return usage.Snapshot{
		FiveHour: usage.Window{Utilization: 42.5, ResetsAt: "2025-06-15T14:00:00Z"},
		SevenDay: usage.Window{Utilization: 81.0, ResetsAt: "2025-06-18T00:00:00Z"},
		ExtraUsage: usage.Extra{
			IsEnabled:    true,
			MonthlyLimit: 5000,
			UsedCredits:  1250,
			Utilization:  25,
		},
	}
}

func TestMemory_MissWhenEmpty(t *testing.T) {
	m := NewMemory(60 * time.Second)

	_, _, ok, err := m.Get(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Error("expected miss on empty cache")
	}
}

func TestMemory_PutThenGet(t *testing.T) {
	base := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	m := NewMemory(60 * time.Second)
	m.now = func() time.Time { return base }

	if err := m.Put(context.Background(), testSnapshot()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	snap, storedAt, ok, err := m.Get(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatal("expected hit after put")
	}
	if snap.FiveHour.Utilization != 42.5 {
		t.Errorf("expected five_hour utilization 42.5, got %v", snap.FiveHour.Utilization)
	}
	if !snap.ExtraUsage.IsEnabled {
		t.Error("expected extra usage enabled")
	}
	if !storedAt.Equal(base) {
		t.Errorf("expected storedAt %s, got %s", base, storedAt)
	}
}

func TestMemory_Expiry(t *testing.T) {
	base := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	current := base

	m := NewMemory(60 * time.Second)
	m.now = func() time.Time { return current }

	if err := m.Put(context.Background(), testSnapshot()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Just inside the TTL
	current = base.Add(59 * time.Second)
	if _, _, ok, _ := m.Get(context.Background()); !ok {
		t.Error("expected hit at 59s")
	}

	// At the TTL boundary the entry is expired
	current = base.Add(60 * time.Second)
	if _, _, ok, _ := m.Get(context.Background()); ok {
		t.Error("expected miss at 60s")
	}
}

func TestMemory_PutRestartsTTL(t *testing.T) {
	base := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	current := base

	m := NewMemory(60 * time.Second)
	m.now = func() time.Time { return current }

	if err := m.Put(context.Background(), testSnapshot()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Refresh the entry 45s in; it should then survive past the
	// original expiry.
	current = base.Add(45 * time.Second)
	refreshed := testSnapshot()
	refreshed.FiveHour.Utilization = 50
	if err := m.Put(context.Background(), refreshed); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	current = base.Add(90 * time.Second)
	snap, storedAt, ok, _ := m.Get(context.Background())
	if !ok {
		t.Fatal("expected hit 45s after refresh")
	}
	if snap.FiveHour.Utilization != 50 {
		t.Errorf("expected refreshed snapshot, got utilization %v", snap.FiveHour.Utilization)
	}
	if !storedAt.Equal(base.Add(45 * time.Second)) {
		t.Errorf("expected storedAt to track the refresh, got %s", storedAt)
	}
}

func TestNewMemory_DefaultTTL(t *testing.T) {
	m := NewMemory(0)
	if m.ttl != DefaultTTL {
		t.Errorf("expected default TTL %s, got %s", DefaultTTL, m.ttl)
	}
}
