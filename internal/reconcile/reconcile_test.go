package reconcile

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"feed_kiosk/internal/model"
)

var now = time.Date(2025, 11, 3, 12, 0, 0, 0, time.UTC)

func ids(posts []model.Post) []string {
	var out []string
	for _, p := range posts {
		out = append(out, p.ID)
	}
	return out
}

func TestReconcileOrdering(t *testing.T) {
	items := []model.Post{{ID: "A"}, {ID: "B"}, {ID: "C"}}
	seen := model.NewSeenSet("A")

	res := Reconcile(items, seen, nil, now)

	if diff := cmp.Diff([]string{"B", "C", "A"}, ids(res.Queue)); diff != "" {
		t.Errorf("queue order mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"B", "C"}, ids(res.New)); diff != "" {
		t.Errorf("new posts mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"A", "B", "C"}, res.Seen.Sorted()); diff != "" {
		t.Errorf("seen mismatch (-want +got):\n%s", diff)
	}
	if seen.Has("B") {
		t.Error("input seen-set was mutated")
	}

	for _, p := range res.New {
		if diff := cmp.Diff(model.UnixSeconds(now), p.DiscoveredAt); diff != "" {
			t.Errorf("discovered_at for %s mismatch (-want +got):\n%s", p.ID, diff)
		}
	}
	if res.Queue[2].DiscoveredAt != 0 {
		t.Errorf("existing post without previous stamp got discovered_at %v", res.Queue[2].DiscoveredAt)
	}
}

func TestReconcileIdempotent(t *testing.T) {
	items := []model.Post{{ID: "1", Title: "one"}, {ID: "2", Title: "two"}}

	first := Reconcile(items, model.SeenSet{}, nil, now)
	second := Reconcile(items, first.Seen, first.Queue, now.Add(30*time.Second))

	if len(second.New) != 0 {
		t.Errorf("second pass discovered %v, want none", ids(second.New))
	}
	if diff := cmp.Diff(first.Seen.Sorted(), second.Seen.Sorted()); diff != "" {
		t.Errorf("seen-set changed on second pass (-want +got):\n%s", diff)
	}
}

func TestReconcileCarriesDiscoveryForward(t *testing.T) {
	items := []model.Post{{ID: "1"}, {ID: "2"}}

	first := Reconcile(items, model.NewSeenSet("2"), nil, now)
	later := now.Add(2 * time.Minute)
	// A fresh fetch never carries discovered_at of its own.
	second := Reconcile(items, first.Seen, first.Queue, later)

	got := map[string]float64{}
	for _, p := range second.Queue {
		got[p.ID] = p.DiscoveredAt
	}
	want := map[string]float64{"1": model.UnixSeconds(now), "2": 0}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("discovered_at mismatch (-want +got):\n%s", diff)
	}
}

func TestReconcileKeepsStampOfUnseenQueuedPost(t *testing.T) {
	stamped := model.UnixSeconds(now.Add(-20 * time.Minute))
	// The queue was saved with B but the seen-set save was lost.
	previous := []model.Post{{ID: "B", DiscoveredAt: stamped}}

	res := Reconcile([]model.Post{{ID: "B"}, {ID: "C"}}, model.NewSeenSet(), previous, now)

	got := map[string]float64{}
	for _, p := range res.Queue {
		got[p.ID] = p.DiscoveredAt
	}
	want := map[string]float64{"B": stamped, "C": model.UnixSeconds(now)}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("discovered_at mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"B", "C"}, res.Seen.Sorted()); diff != "" {
		t.Errorf("seen mismatch (-want +got):\n%s", diff)
	}
}

func TestReconcileDropsInvalidItems(t *testing.T) {
	tests := []struct {
		name      string
		items     []model.Post
		wantQueue []string
	}{
		{
			name:      "missing id dropped",
			items:     []model.Post{{Title: "no id"}, {ID: "x"}},
			wantQueue: []string{"x"},
		},
		{
			name:      "duplicate keeps first",
			items:     []model.Post{{ID: "x", Title: "first"}, {ID: "y"}, {ID: "x", Title: "second"}},
			wantQueue: []string{"x", "y"},
		},
		{
			name:      "empty feed",
			items:     nil,
			wantQueue: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Reconcile(tt.items, nil, nil, now)
			if diff := cmp.Diff(tt.wantQueue, ids(res.Queue)); diff != "" {
				t.Errorf("queue mismatch (-want +got):\n%s", diff)
			}
			for _, p := range res.Queue {
				if p.ID == "x" && p.Title == "second" {
					t.Error("duplicate replaced first occurrence")
				}
			}
		})
	}
}
