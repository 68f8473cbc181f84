package fetcher

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"testing"

	"github.com/google/go-cmp/cmp"
	gofeedjson "github.com/mmcdole/gofeed/json"

	"feed_kiosk/internal/model"
)

type mockTransport struct {
	body       string
	statusCode int
	err        error
	gotReq     *http.Request
}

func (m *mockTransport) Do(req *http.Request) (*http.Response, error) {
	m.gotReq = req
	if m.err != nil {
		return nil, m.err
	}
	return &http.Response{
		StatusCode: m.statusCode,
		Body:       io.NopCloser(bytes.NewBufferString(m.body)),
	}, nil
}

func loadFixture(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path) //nolint:gosec // test-only fixture loading
	if err != nil {
		t.Fatalf("read fixture %s: %v", path, err)
	}
	return string(data)
}

func TestFetch(t *testing.T) {
	feed := loadFixture(t, "../../testdata/feed.json")

	tests := []struct {
		name      string
		transport *mockTransport
		wantTitle string
		wantIDs   []string
		wantDrop  int
		wantErr   error
		anyErr    bool
	}{
		{
			name:      "successful fetch",
			transport: &mockTransport{body: feed, statusCode: 200},
			wantTitle: "Inkhaven",
			wantIDs: []string{
				"https://www.inkhaven.blog/p/on-drafts",
				"https://www.inkhaven.blog/p/thirty-days",
				"",
				"https://www.inkhaven.blog/p/untitled",
			},
		},
		{
			name:      "empty items",
			transport: &mockTransport{body: `{"version":"1.1","items":[]}`, statusCode: 200},
			wantIDs:   []string{},
		},
		{
			name:      "numeric id coerced",
			transport: &mockTransport{body: `{"items":[{"id":"a","title":"A"},{"id":42,"title":"B"},{"id":-7.5}]}`, statusCode: 200},
			wantIDs:   []string{"a", "42", "-7.5"},
		},
		{
			name: "undecodable items dropped",
			transport: &mockTransport{
				body:       `{"title":"T","items":[{"id":"a"},{"id":"b","title":5},{"id":"c","author":"Ann"},null,"text",{"id":"d"}]}`,
				statusCode: 200,
			},
			wantTitle: "T",
			wantIDs:   []string{"a", "d"},
			wantDrop:  3,
		},
		{
			name:      "null items",
			transport: &mockTransport{body: `{"version":"1.1","items":null}`, statusCode: 200},
			wantErr:   ErrMissingItems,
		},
		{
			name:      "missing items field",
			transport: &mockTransport{body: `{"version":"1.1","title":"x"}`, statusCode: 200},
			wantErr:   ErrMissingItems,
		},
		{
			name:      "http error status",
			transport: &mockTransport{body: "not found", statusCode: 404},
			anyErr:    true,
		},
		{
			name:      "network error",
			transport: &mockTransport{err: io.ErrUnexpectedEOF},
			anyErr:    true,
		},
		{
			name:      "invalid json",
			transport: &mockTransport{body: "<rss></rss>", statusCode: 200},
			anyErr:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := New(tt.transport)
			res, err := f.Fetch(context.Background(), "https://example.com/feed.json")

			if tt.wantErr != nil || tt.anyErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
					t.Fatalf("error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if diff := cmp.Diff(tt.wantTitle, res.Title); diff != "" {
				t.Errorf("title mismatch (-want +got):\n%s", diff)
			}
			gotIDs := []string{}
			for _, p := range res.Items {
				gotIDs = append(gotIDs, p.ID)
			}
			if diff := cmp.Diff(tt.wantIDs, gotIDs); diff != "" {
				t.Errorf("item ids mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tt.wantDrop, res.Dropped); diff != "" {
				t.Errorf("dropped mismatch (-want +got):\n%s", diff)
			}
			if ua := tt.transport.gotReq.Header.Get("User-Agent"); ua == "" {
				t.Error("expected User-Agent header")
			}
		})
	}
}

func TestToPost(t *testing.T) {
	tests := []struct {
		name string
		item *gofeedjson.Item
		want model.Post
	}{
		{
			name: "single author",
			item: &gofeedjson.Item{
				ID:           " a ",
				URL:          "https://example.com/a",
				Title:        "A",
				DateModified: "2025-11-02T10:30:00Z",
				Author:       &gofeedjson.Author{Name: "Ann"},
			},
			want: model.Post{
				ID:           "a",
				URL:          "https://example.com/a",
				Title:        "A",
				DateModified: "2025-11-02T10:30:00Z",
				Author:       &model.Author{Name: "Ann"},
			},
		},
		{
			name: "authors list and external url",
			item: &gofeedjson.Item{
				ID:          "b",
				ExternalURL: "https://elsewhere.example.com/b",
				Authors:     []*gofeedjson.Author{{Name: "Bo", URL: "https://bo.example.com"}, {Name: "Cy"}},
			},
			want: model.Post{
				ID:     "b",
				URL:    "https://elsewhere.example.com/b",
				Author: &model.Author{Name: "Bo", URL: "https://bo.example.com"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, ToPost(tt.item)); diff != "" {
				t.Errorf("ToPost() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
