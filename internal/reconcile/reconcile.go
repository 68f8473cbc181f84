// Package reconcile merges freshly fetched feed items into the display queue.
package reconcile

import (
	"time"

	"feed_kiosk/internal/model"
)

// Result is the outcome of a single reconciliation pass.
type Result struct {
	// Queue is New followed by the already seen posts, in feed order.
	Queue []model.Post
	// Seen is the updated seen-set. The input set is left unchanged.
	Seen model.SeenSet
	// New holds the posts discovered in this pass.
	New []model.Post
}

// Reconcile partitions items into new and existing posts.
//
// Items without an ID are dropped and duplicate IDs keep their first
// occurrence. New posts are stamped with now as their discovery time.
// Any post stamped in previous keeps that discovery time, so a post keeps
// its discovery priority across passes, including a post that reached the
// queue but not the seen-set.
func Reconcile(items []model.Post, seen model.SeenSet, previous []model.Post, now time.Time) Result {
	stamps := make(map[string]float64, len(previous))
	for _, p := range previous {
		if p.DiscoveredAt > 0 {
			stamps[p.ID] = p.DiscoveredAt
		}
	}

	res := Result{Seen: seen.Clone()}
	if res.Seen == nil {
		res.Seen = model.SeenSet{}
	}

	var existing []model.Post
	dup := make(map[string]struct{}, len(items))
	for _, item := range items {
		if item.ID == "" {
			continue
		}
		if _, ok := dup[item.ID]; ok {
			continue
		}
		dup[item.ID] = struct{}{}

		if at, ok := stamps[item.ID]; ok {
			item.DiscoveredAt = at
		}
		if !res.Seen.Has(item.ID) {
			if item.DiscoveredAt == 0 {
				item.DiscoveredAt = model.UnixSeconds(now)
			}
			res.New = append(res.New, item)
			res.Seen.Add(item.ID)
			continue
		}
		existing = append(existing, item)
	}

	res.Queue = make([]model.Post, 0, len(res.New)+len(existing))
	res.Queue = append(res.Queue, res.New...)
	res.Queue = append(res.Queue, existing...)
	return res
}
