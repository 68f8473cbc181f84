// Package fetcher handles JSON feed downloading and parsing.
package fetcher

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	gofeedjson "github.com/mmcdole/gofeed/json"

	"feed_kiosk/internal/model"
)

// ErrMissingItems is returned when the feed document has no items field.
var ErrMissingItems = errors.New("feed has no items field")

const maxBodySize = 5 * 1024 * 1024

var codec = jsoniter.ConfigCompatibleWithStandardLibrary

// HTTPClient is the interface for performing HTTP requests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Result holds a fetched feed.
type Result struct {
	Title string
	Items []model.Post
	// Dropped counts items that could not be decoded.
	Dropped int
}

// Fetcher downloads and parses JSON feeds.
type Fetcher struct {
	client  HTTPClient
	parser  *gofeedjson.Parser
	timeout time.Duration
}

// New creates a Fetcher with the given HTTP client.
func New(client HTTPClient) *Fetcher {
	return &Fetcher{
		client:  client,
		parser:  &gofeedjson.Parser{},
		timeout: 30 * time.Second,
	}
}

// SetTimeout overrides the default 30-second request timeout.
func (f *Fetcher) SetTimeout(d time.Duration) {
	f.timeout = d
}

// Fetch downloads and parses the JSON feed at url.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*Result, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "FeedKiosk/1.0")
	req.Header.Set("Accept", "application/feed+json, application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http get: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	var doc map[string]jsoniter.RawMessage
	if err := codec.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}
	var rawItems []jsoniter.RawMessage
	if raw, ok := doc["items"]; ok {
		if err := codec.Unmarshal(raw, &rawItems); err != nil {
			return nil, fmt.Errorf("parse items: %w", err)
		}
	}
	if rawItems == nil {
		return nil, ErrMissingItems
	}

	// Feed metadata goes through the parser on its own so a bad item
	// cannot reject the document.
	delete(doc, "items")
	meta, err := codec.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode feed metadata: %w", err)
	}
	feed, err := f.parser.Parse(bytes.NewReader(meta))
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	res := &Result{Title: feed.Title, Items: make([]model.Post, 0, len(rawItems))}
	for _, raw := range rawItems {
		item, err := decodeItem(raw)
		if err != nil {
			res.Dropped++
			continue
		}
		if item == nil {
			continue
		}
		res.Items = append(res.Items, ToPost(item))
	}
	return res, nil
}

// decodeItem decodes a single feed item. Numeric ids are read as strings.
// A null item decodes to nil.
func decodeItem(raw jsoniter.RawMessage) (*gofeedjson.Item, error) {
	raw = bytes.TrimSpace(raw)
	if bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}

	var fields map[string]jsoniter.RawMessage
	if err := codec.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("decode item: %w", err)
	}
	if id := bytes.TrimSpace(fields["id"]); len(id) > 0 && (id[0] == '-' || (id[0] >= '0' && id[0] <= '9')) {
		fields["id"] = jsoniter.RawMessage(strconv.Quote(string(id)))
		coerced, err := codec.Marshal(fields)
		if err != nil {
			return nil, fmt.Errorf("encode item: %w", err)
		}
		raw = coerced
	}

	var item gofeedjson.Item
	if err := codec.Unmarshal(raw, &item); err != nil {
		return nil, fmt.Errorf("decode item: %w", err)
	}
	return &item, nil
}

// ToPost converts a JSON feed item into a queue post.
func ToPost(item *gofeedjson.Item) model.Post {
	p := model.Post{
		ID:            strings.TrimSpace(item.ID),
		URL:           item.URL,
		Title:         item.Title,
		Summary:       item.Summary,
		Image:         item.Image,
		DatePublished: item.DatePublished,
		DateModified:  item.DateModified,
	}
	if p.URL == "" {
		p.URL = item.ExternalURL
	}

	author := item.Author
	if author == nil && len(item.Authors) > 0 {
		author = item.Authors[0]
	}
	if author != nil {
		p.Author = &model.Author{Name: author.Name, URL: author.URL}
	}
	return p
}
