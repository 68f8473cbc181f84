// Package display drives the kiosk screen: it reloads the queue, asks the
// selection engine for the next post and keeps it on screen until the dwell
// time elapses or a skip is requested.
package display

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"feed_kiosk/internal/filter"
	"feed_kiosk/internal/metrics"
	"feed_kiosk/internal/model"
	"feed_kiosk/internal/selection"
)

// Candidate pool labels.
const (
	PoolDiscovery = "discovery"
	PoolWeighted  = "weighted"
)

// QueueLoader reads the persisted display queue.
type QueueLoader interface {
	LoadQueue(ctx context.Context) ([]model.Post, error)
}

// Driver runs the display loop. Current, Queue, Snapshot and RequestSkip are
// safe to call while Run is active.
type Driver struct {
	loader QueueLoader
	engine *selection.Engine
	screen Screen
	rules  []filter.Rule
	log    *slog.Logger
	dwell  time.Duration
	poll   time.Duration
	now    func() time.Time

	skip chan struct{}

	mu      sync.RWMutex
	queue   []model.Post
	current model.Post
	since   time.Time
	showing bool
}

// NewDriver creates a Driver that keeps each post on screen for dwell and
// reloads the queue every poll.
func NewDriver(loader QueueLoader, engine *selection.Engine, screen Screen, rules []filter.Rule, dwell, poll time.Duration, log *slog.Logger) *Driver {
	return &Driver{
		loader: loader,
		engine: engine,
		screen: screen,
		rules:  rules,
		log:    log,
		dwell:  dwell,
		poll:   poll,
		now:    time.Now,
		skip:   make(chan struct{}, 1),
	}
}

// Run blocks until ctx is cancelled.
func (d *Driver) Run(ctx context.Context) error {
	d.log.Info("display started", "dwell", d.dwell, "poll", d.poll, "filters", len(d.rules))

	poll := time.NewTicker(d.poll)
	defer poll.Stop()

	d.reload(ctx)
	for {
		post, ok := d.engine.Select(d.Queue(), d.now())
		if !ok {
			d.log.Info("waiting for posts to appear in queue")
			select {
			case <-ctx.Done():
				return nil
			case <-poll.C:
				d.reload(ctx)
			}
			continue
		}

		d.show(ctx, post)
		if !d.dwellOn(ctx, poll.C) {
			d.log.Info("display stopped")
			return nil
		}
	}
}

// dwellOn waits until the current post should be replaced. It returns false
// when ctx is cancelled.
func (d *Driver) dwellOn(ctx context.Context, poll <-chan time.Time) bool {
	timer := time.NewTimer(d.dwell)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return false
		case <-timer.C:
			return true
		case <-d.skip:
			metrics.SkipsTotal.Inc()
			d.log.Info("skip requested")
			return true
		case <-poll:
			d.reload(ctx)
		}
	}
}

func (d *Driver) show(ctx context.Context, post model.Post) {
	now := d.now()

	pool := PoolWeighted
	if post.DiscoveredWithin(now, d.engine.DiscoveryWindow()) {
		pool = PoolDiscovery
	}
	metrics.SelectionsTotal.WithLabelValues(pool).Inc()

	d.mu.Lock()
	d.current, d.since, d.showing = post, now, true
	d.mu.Unlock()

	d.engine.RecordShown(post.ID, now)

	if err := d.screen.Show(ctx, post); err != nil {
		metrics.ScreenErrorsTotal.Inc()
		d.log.Warn("show post", "id", post.ID, "error", err)
	}
}

// reload replaces the queue when the persisted one differs in size or ids.
// Load errors and empty results keep the last good queue.
func (d *Driver) reload(ctx context.Context) {
	loaded, err := d.loader.LoadQueue(ctx)
	if err != nil {
		metrics.StateErrorsTotal.WithLabelValues("load_queue").Inc()
		d.log.Warn("load queue, keeping current", "error", err)
		return
	}
	loaded = filter.Apply(loaded, d.rules)
	if len(loaded) == 0 {
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if !changed(d.queue, loaded) {
		return
	}
	d.log.Info("queue updated", "posts", len(loaded), "previous", len(d.queue))
	d.queue = loaded
}

func changed(old, loaded []model.Post) bool {
	if len(old) != len(loaded) {
		return true
	}
	ids := make(map[string]struct{}, len(old))
	for _, p := range old {
		ids[p.ID] = struct{}{}
	}
	for _, p := range loaded {
		if _, ok := ids[p.ID]; !ok {
			return true
		}
	}
	return false
}

// RequestSkip asks the loop to move to the next post. Requests made while a
// skip is already pending are merged.
func (d *Driver) RequestSkip() {
	select {
	case d.skip <- struct{}{}:
	default:
	}
}

// Current returns the post on screen and when it was shown.
func (d *Driver) Current() (model.Post, time.Time, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.current, d.since, d.showing
}

// Queue returns a copy of the adopted queue.
func (d *Driver) Queue() []model.Post {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return slices.Clone(d.queue)
}

// Snapshot returns the weight breakdown of the current candidates.
func (d *Driver) Snapshot(now time.Time) []selection.Scored {
	return d.engine.Score(d.Queue(), now)
}
