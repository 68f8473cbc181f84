// Package model defines the domain types used across the application.
package model

import (
	"math"
	"sort"
	"strings"
	"time"
)

// Display defaults for posts with missing metadata.
const (
	DefaultTitle  = "Untitled"
	DefaultAuthor = "Unknown"
)

// Author is the author block of a feed item.
type Author struct {
	Name string `json:"name,omitempty"`
	URL  string `json:"url,omitempty"`
}

// Post is a single feed item as stored in the display queue.
type Post struct {
	ID            string  `json:"id"`
	URL           string  `json:"url,omitempty"`
	Title         string  `json:"title,omitempty"`
	Summary       string  `json:"summary,omitempty"`
	Image         string  `json:"image,omitempty"`
	Author        *Author `json:"author,omitempty"`
	DatePublished string  `json:"date_published,omitempty"`
	DateModified  string  `json:"date_modified,omitempty"`
	// DiscoveredAt is a unix timestamp in seconds, zero when unknown.
	DiscoveredAt float64 `json:"discovered_at,omitempty"`
}

// DisplayTitle returns the title, or DefaultTitle when it is empty.
func (p Post) DisplayTitle() string {
	if t := strings.TrimSpace(p.Title); t != "" {
		return t
	}
	return DefaultTitle
}

// AuthorName returns the author's name, or DefaultAuthor when it is empty.
func (p Post) AuthorName() string {
	if p.Author != nil {
		if n := strings.TrimSpace(p.Author.Name); n != "" {
			return n
		}
	}
	return DefaultAuthor
}

// Discovered returns the discovery time and whether one was recorded.
func (p Post) Discovered() (time.Time, bool) {
	if p.DiscoveredAt <= 0 {
		return time.Time{}, false
	}
	sec, frac := math.Modf(p.DiscoveredAt)
	return time.Unix(int64(sec), int64(frac*1e9)), true
}

// DiscoveredWithin reports whether the post was discovered less than window before now.
func (p Post) DiscoveredWithin(now time.Time, window time.Duration) bool {
	at, ok := p.Discovered()
	if !ok {
		return false
	}
	return now.Sub(at) < window
}

// Modified parses DateModified. The Z suffix, explicit offsets and
// offset-less timestamps (read as local time) are accepted.
func (p Post) Modified() (time.Time, bool) {
	s := strings.TrimSpace(p.DateModified)
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, true
	}
	for _, layout := range []string{"2006-01-02T15:04:05.999999999", "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// UnixSeconds converts t to the fractional unix timestamp stored in DiscoveredAt.
func UnixSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / 1e9
}

// SeenSet is the set of post IDs ever observed in the feed.
type SeenSet map[string]struct{}

// NewSeenSet builds a set from ids.
func NewSeenSet(ids ...string) SeenSet {
	s := make(SeenSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// Has reports whether id was seen.
func (s SeenSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// Add marks id as seen.
func (s SeenSet) Add(id string) {
	s[id] = struct{}{}
}

// Clone returns an independent copy of the set.
func (s SeenSet) Clone() SeenSet {
	c := make(SeenSet, len(s))
	for id := range s {
		c[id] = struct{}{}
	}
	return c
}

// Sorted returns the IDs in ascending order, the persisted form of the set.
func (s SeenSet) Sorted() []string {
	ids := make([]string, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
