package model

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestDisplayDefaults(t *testing.T) {
	tests := []struct {
		name       string
		post       Post
		wantTitle  string
		wantAuthor string
	}{
		{
			name:       "all present",
			post:       Post{Title: "Hello", Author: &Author{Name: "Ann"}},
			wantTitle:  "Hello",
			wantAuthor: "Ann",
		},
		{
			name:       "missing everything",
			post:       Post{},
			wantTitle:  DefaultTitle,
			wantAuthor: DefaultAuthor,
		},
		{
			name:       "blank values",
			post:       Post{Title: "  ", Author: &Author{Name: ""}},
			wantTitle:  DefaultTitle,
			wantAuthor: DefaultAuthor,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.wantTitle, tt.post.DisplayTitle()); diff != "" {
				t.Errorf("DisplayTitle() mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tt.wantAuthor, tt.post.AuthorName()); diff != "" {
				t.Errorf("AuthorName() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestModified(t *testing.T) {
	tests := []struct {
		name   string
		value  string
		want   time.Time
		wantOK bool
	}{
		{
			name:   "z suffix",
			value:  "2025-11-03T10:00:00Z",
			want:   time.Date(2025, 11, 3, 10, 0, 0, 0, time.UTC),
			wantOK: true,
		},
		{
			name:   "explicit offset",
			value:  "2025-11-03T10:00:00.250+02:00",
			want:   time.Date(2025, 11, 3, 8, 0, 0, 250_000_000, time.UTC),
			wantOK: true,
		},
		{
			name:   "no offset is local",
			value:  "2025-11-03T10:00:00",
			want:   time.Date(2025, 11, 3, 10, 0, 0, 0, time.Local),
			wantOK: true,
		},
		{name: "empty", value: ""},
		{name: "garbage", value: "last tuesday"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Post{DateModified: tt.value}.Modified()
			if ok != tt.wantOK {
				t.Fatalf("Modified() ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && !got.Equal(tt.want) {
				t.Errorf("Modified() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDiscoveredWithin(t *testing.T) {
	now := time.Date(2025, 11, 3, 12, 0, 0, 0, time.UTC)
	window := 10 * time.Minute

	tests := []struct {
		name string
		post Post
		want bool
	}{
		{name: "never stamped", post: Post{}, want: false},
		{name: "five minutes ago", post: Post{DiscoveredAt: UnixSeconds(now.Add(-5 * time.Minute))}, want: true},
		{name: "just past window", post: Post{DiscoveredAt: UnixSeconds(now.Add(-window - time.Second))}, want: false},
		{name: "an hour ago", post: Post{DiscoveredAt: UnixSeconds(now.Add(-time.Hour))}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, tt.post.DiscoveredWithin(now, window)); diff != "" {
				t.Errorf("DiscoveredWithin() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSeenSet(t *testing.T) {
	s := NewSeenSet("b", "a")
	c := s.Clone()
	c.Add("c")

	if s.Has("c") {
		t.Error("clone shares storage with original")
	}
	if diff := cmp.Diff([]string{"a", "b", "c"}, c.Sorted()); diff != "" {
		t.Errorf("Sorted() mismatch (-want +got):\n%s", diff)
	}
}
