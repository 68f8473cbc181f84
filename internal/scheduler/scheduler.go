// Package scheduler runs the feed monitor: it periodically fetches the feed,
// reconciles it against the seen-set and persists the display queue.
package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"feed_kiosk/internal/fetcher"
	"feed_kiosk/internal/metrics"
	"feed_kiosk/internal/model"
	"feed_kiosk/internal/reconcile"
	"feed_kiosk/internal/storage"
)

// Notifier is told about newly discovered posts.
type Notifier interface {
	Notify(ctx context.Context, posts []model.Post)
}

// Monitor periodically checks the feed and rebuilds the queue.
type Monitor struct {
	store    storage.Storage
	fetcher  *fetcher.Fetcher
	notifier Notifier
	log      *slog.Logger
	feedURL  string
	tick     time.Duration
	now      func() time.Time

	loaded    bool
	seen      model.SeenSet
	queue     []model.Post
	seenDirty bool
}

// New creates a Monitor with the default HTTP client. notifier may be nil.
func New(store storage.Storage, feedURL string, notifier Notifier, log *slog.Logger) *Monitor {
	return NewWithFetcher(store, fetcher.New(http.DefaultClient), feedURL, notifier, log)
}

// NewWithFetcher creates a Monitor with a custom fetcher (useful for testing).
func NewWithFetcher(store storage.Storage, f *fetcher.Fetcher, feedURL string, notifier Notifier, log *slog.Logger) *Monitor {
	return &Monitor{
		store:    store,
		fetcher:  f,
		notifier: notifier,
		log:      log,
		feedURL:  feedURL,
		tick:     30 * time.Second,
		now:      time.Now,
	}
}

// SetTickInterval overrides the default 30-second check interval.
func (m *Monitor) SetTickInterval(d time.Duration) {
	m.tick = d
}

// SetFetchTimeout bounds each feed request.
func (m *Monitor) SetFetchTimeout(d time.Duration) {
	m.fetcher.SetTimeout(d)
}

// Run starts the monitor loop, blocking until ctx is cancelled.
func (m *Monitor) Run(ctx context.Context) {
	m.log.Info("feed monitor started", "feed_url", m.feedURL, "interval", m.tick)

	m.check(ctx)

	ticker := time.NewTicker(m.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.flush()
			m.log.Info("feed monitor stopped", "queue", len(m.queue), "seen", len(m.seen))
			return
		case <-ticker.C:
			m.check(ctx)
		}
	}
}

// loadState reads the persisted seen-set and queue once. A seen-set that
// cannot be read skips the pass so it is never mistaken for an empty one.
// An unreadable queue only loses carried-forward stamps and is replaced on
// the next save.
func (m *Monitor) loadState(ctx context.Context) bool {
	if m.loaded {
		return true
	}

	seen, err := m.store.LoadSeen(ctx)
	if err != nil {
		metrics.StateErrorsTotal.WithLabelValues("load_seen").Inc()
		m.log.Error("load seen posts", "error", err)
		return false
	}
	queue, err := m.store.LoadQueue(ctx)
	if err != nil {
		metrics.StateErrorsTotal.WithLabelValues("load_queue").Inc()
		m.log.Warn("load queue, starting from an empty queue", "error", err)
		queue = nil
	}

	m.seen, m.queue, m.loaded = seen, queue, true
	m.log.Info("loaded state", "seen", len(seen), "queue", len(queue))
	return true
}

func (m *Monitor) check(ctx context.Context) {
	if ctx.Err() != nil || !m.loadState(ctx) {
		return
	}

	start := time.Now()
	res, err := m.fetcher.Fetch(ctx, m.feedURL)
	metrics.FeedFetchDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.FeedFetchTotal.WithLabelValues(metrics.StatusError).Inc()
		if errors.Is(err, fetcher.ErrMissingItems) {
			m.log.Warn("invalid feed structure, keeping current queue", "url", m.feedURL)
		} else {
			m.log.Error("fetch feed", "url", m.feedURL, "error", err)
		}
		return
	}
	metrics.FeedFetchTotal.WithLabelValues(metrics.StatusOK).Inc()
	m.log.Debug("feed downloaded", "items", len(res.Items))
	if res.Dropped > 0 {
		m.log.Warn("skipped undecodable feed items", "count", res.Dropped, "url", m.feedURL)
	}

	r := reconcile.Reconcile(res.Items, m.seen, m.queue, m.now())
	m.queue, m.seen = r.Queue, r.Seen
	if len(r.New) > 0 {
		m.seenDirty = true
	}

	// Seen-set before queue: every persisted queue id must already be seen.
	m.saveSeen(ctx)
	if err := m.store.SaveQueue(ctx, m.queue); err != nil {
		metrics.StateErrorsTotal.WithLabelValues("save_queue").Inc()
		m.log.Error("save queue", "error", err)
	}

	metrics.QueueSize.Set(float64(len(m.queue)))
	metrics.SeenPosts.Set(float64(len(m.seen)))

	if len(r.New) == 0 {
		m.log.Debug("no new posts", "queue", len(m.queue), "seen", len(m.seen))
		return
	}

	metrics.PostsDiscoveredTotal.Add(float64(len(r.New)))
	m.log.Info("found new posts", "count", len(r.New), "queue", len(m.queue), "seen", len(m.seen))
	for _, p := range r.New {
		m.log.Info("new post", "id", p.ID, "title", p.DisplayTitle(), "author", p.AuthorName())
	}

	if m.notifier != nil {
		m.notifier.Notify(ctx, r.New)
	}
}

func (m *Monitor) saveSeen(ctx context.Context) {
	if !m.seenDirty {
		return
	}
	if err := m.store.SaveSeen(ctx, m.seen); err != nil {
		metrics.StateErrorsTotal.WithLabelValues("save_seen").Inc()
		m.log.Error("save seen posts, will retry", "error", err)
		return
	}
	m.seenDirty = false
}

// flush persists a seen-set whose last save failed.
func (m *Monitor) flush() {
	if !m.seenDirty {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	m.saveSeen(ctx)
}
