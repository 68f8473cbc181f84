// Package selection picks the next post to display using weighted random sampling.
package selection

import (
	"math/rand/v2"
	"sort"
	"sync"
	"time"

	"feed_kiosk/internal/model"
)

// DefaultDiscoveryWindow is how long a newly discovered post keeps exclusive priority.
const DefaultDiscoveryWindow = 10 * time.Minute

// Scored is a candidate together with its weight breakdown.
type Scored struct {
	Post      model.Post `json:"post"`
	Recency   float64    `json:"recency"`
	Freshness float64    `json:"freshness"`
	Weight    float64    `json:"weight"`
	// Priority is set when the post is inside the discovery window.
	Priority bool `json:"priority"`
}

// Option configures an Engine.
type Option func(*Engine)

// WithRand sets the random source used for draws.
func WithRand(r *rand.Rand) Option {
	return func(e *Engine) { e.rng = r }
}

// WithRecency overrides the recency policy.
func WithRecency(p RecencyPolicy) Option {
	return func(e *Engine) { e.recency = p }
}

// WithDiscoveryWindow overrides the discovery-priority window.
func WithDiscoveryWindow(d time.Duration) Option {
	return func(e *Engine) { e.window = d }
}

// Engine selects posts and owns the in-memory display history.
// It is safe for concurrent use.
type Engine struct {
	mu      sync.Mutex
	history map[string]time.Time
	rng     *rand.Rand
	recency RecencyPolicy
	window  time.Duration
}

// New creates an Engine with an empty display history.
func New(opts ...Option) *Engine {
	e := &Engine{
		history: make(map[string]time.Time),
		rng:     rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())), //nolint:gosec // selection is not security sensitive
		recency: DefaultRecency(),
		window:  DefaultDiscoveryWindow,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// DiscoveryWindow returns the configured discovery-priority window.
func (e *Engine) DiscoveryWindow() time.Duration {
	return e.window
}

// RecordShown sets the last-shown time of a post.
func (e *Engine) RecordShown(id string, at time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.history[id] = at
}

// LastShown returns when the post was last shown in this process.
func (e *Engine) LastShown(id string) (time.Time, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	at, ok := e.history[id]
	return at, ok
}

// Score returns the weight breakdown of every candidate in queue.
func (e *Engine) Score(queue []model.Post, now time.Time) []Scored {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.score(queue, now)
}

// Select draws the next post with probability proportional to its weight.
// It returns false only for an empty queue.
func (e *Engine) Select(queue []model.Post, now time.Time) (model.Post, bool) {
	if len(queue) == 0 {
		return model.Post{}, false
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	scored := e.score(queue, now)
	cum := make([]float64, len(scored))
	total := 0.0
	for i, s := range scored {
		total += s.Weight
		cum[i] = total
	}

	x := e.rng.Float64() * total
	i := sort.Search(len(cum), func(i int) bool { return cum[i] > x })
	if i == len(cum) {
		i = len(cum) - 1
	}
	return scored[i].Post, true
}

func (e *Engine) score(queue []model.Post, now time.Time) []Scored {
	candidates, priority := Candidates(queue, now, e.window)
	out := make([]Scored, 0, len(candidates))
	for _, p := range candidates {
		modified, ok := p.Modified()
		recency := e.recency.Weight(modified, ok, now)
		last, shown := e.history[p.ID]
		fresh := Freshness(last, shown, now)
		out = append(out, Scored{
			Post:      p,
			Recency:   recency,
			Freshness: fresh,
			Weight:    Combine(recency, fresh),
			Priority:  priority,
		})
	}
	return out
}
