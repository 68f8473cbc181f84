package storage

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"feed_kiosk/internal/model"
)

func newTestDB(t *testing.T) *SQLite {
	t.Helper()
	s, err := NewSQLite(":memory:")
	if err != nil {
		t.Fatalf("new sqlite: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSQLiteQueue(t *testing.T) {
	ctx := context.Background()
	s := newTestDB(t)

	empty, err := s.LoadQueue(ctx)
	if err != nil {
		t.Fatalf("load empty: %v", err)
	}
	if len(empty) != 0 {
		t.Fatalf("expected empty queue, got %d", len(empty))
	}

	if err := s.SaveQueue(ctx, samplePosts()); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := s.LoadQueue(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if diff := cmp.Diff(samplePosts(), got); diff != "" {
		t.Errorf("queue mismatch (-want +got):\n%s", diff)
	}

	replacement := []model.Post{{ID: "c"}}
	if err := s.SaveQueue(ctx, replacement); err != nil {
		t.Fatalf("save replacement: %v", err)
	}
	got, err = s.LoadQueue(ctx)
	if err != nil {
		t.Fatalf("load replacement: %v", err)
	}
	if diff := cmp.Diff(replacement, got); diff != "" {
		t.Errorf("replaced queue mismatch (-want +got):\n%s", diff)
	}
}

func TestSQLiteSeenGrowOnly(t *testing.T) {
	ctx := context.Background()
	s := newTestDB(t)

	before := time.Now().UTC().Add(-time.Second)
	if err := s.SaveSeen(ctx, model.NewSeenSet("a", "b")); err != nil {
		t.Fatalf("save: %v", err)
	}
	first, err := s.FirstSeen(ctx, "a")
	if err != nil {
		t.Fatalf("first seen: %v", err)
	}
	if first.Before(before) {
		t.Errorf("first_seen_at %v before test start %v", first, before)
	}

	// Saving a set without "a" must not forget it.
	if err := s.SaveSeen(ctx, model.NewSeenSet("b", "c")); err != nil {
		t.Fatalf("save again: %v", err)
	}

	got, err := s.LoadSeen(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if diff := cmp.Diff([]string{"a", "b", "c"}, got.Sorted()); diff != "" {
		t.Errorf("seen mismatch (-want +got):\n%s", diff)
	}

	again, err := s.FirstSeen(ctx, "a")
	if err != nil {
		t.Fatalf("first seen again: %v", err)
	}
	if !again.Equal(first) {
		t.Errorf("first_seen_at changed from %v to %v", first, again)
	}
}
