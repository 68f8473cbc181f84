package selection

import (
	"math"
	"time"

	"feed_kiosk/internal/model"
)

// Weight tuning constants.
const (
	// MinWeight keeps every candidate drawable.
	MinWeight = 0.01
	// MaxFreshness caps the freshness term, reached after 10 hours off screen.
	MaxFreshness = 10.0
	// NeverShownFreshness is the freshness term of a post with no history.
	NeverShownFreshness = 1.0
)

// RecencyPolicy maps a post's age in whole days to a recency weight.
type RecencyPolicy struct {
	// Buckets[d] is the weight for a post d days old.
	Buckets []float64
	// Tail applies to posts older than the last bucket.
	Tail float64
	// Unknown applies when the modification date is missing or unparseable.
	Unknown float64
}

// DefaultRecency halves the weight every 30 days over a 0..30 day staircase.
func DefaultRecency() RecencyPolicy {
	buckets := make([]float64, 31)
	for d := range buckets {
		buckets[d] = math.Exp2(-float64(d) / 30)
	}
	return RecencyPolicy{
		Buckets: buckets,
		Tail:    0.25,
		Unknown: 0.1,
	}
}

// Weight returns the recency weight for a post with the given modification time.
func (p RecencyPolicy) Weight(modified time.Time, ok bool, now time.Time) float64 {
	if !ok {
		return p.Unknown
	}
	days := AgeDays(modified, now)
	if days >= len(p.Buckets) {
		return p.Tail
	}
	return p.Buckets[days]
}

// AgeDays returns the whole days elapsed between t and now.
// Future timestamps count as zero days old.
func AgeDays(t, now time.Time) int {
	d := now.Sub(t)
	if d <= 0 {
		return 0
	}
	return int(d / (24 * time.Hour))
}

// Freshness returns the display-freshness term for a post last shown at
// lastShown. A post that was never shown scores NeverShownFreshness.
func Freshness(lastShown time.Time, shown bool, now time.Time) float64 {
	if !shown {
		return NeverShownFreshness
	}
	minutes := now.Sub(lastShown).Minutes()
	if minutes < 0 {
		minutes = 0
	}
	return math.Min(minutes/60, MaxFreshness)
}

// Combine joins both terms into a selection weight floored at MinWeight.
func Combine(recency, freshness float64) float64 {
	return math.Max(recency*(1+freshness), MinWeight)
}

// Candidates restricts queue to the posts discovered within window of now.
// When no such post exists, the whole queue is returned.
func Candidates(queue []model.Post, now time.Time, window time.Duration) ([]model.Post, bool) {
	var fresh []model.Post
	for _, p := range queue {
		if p.DiscoveredWithin(now, window) {
			fresh = append(fresh, p)
		}
	}
	if len(fresh) == 0 {
		return queue, false
	}
	return fresh, true
}
