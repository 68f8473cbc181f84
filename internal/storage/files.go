package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	jsoniter "github.com/json-iterator/go"

	"feed_kiosk/internal/model"
)

var codec = jsoniter.ConfigCompatibleWithStandardLibrary

// Files implements Storage with two JSON files: the queue as an array of
// posts and the seen-set as a sorted array of IDs.
type Files struct {
	queuePath string
	seenPath  string
}

// NewFiles returns a Files store. Parent directories are created on demand.
func NewFiles(queuePath, seenPath string) *Files {
	return &Files{queuePath: queuePath, seenPath: seenPath}
}

// Close is a no-op; files are only held open while reading or writing.
func (f *Files) Close() error {
	return nil
}

// LoadQueue reads the queue file. A missing file yields an empty queue.
func (f *Files) LoadQueue(_ context.Context) ([]model.Post, error) {
	var queue []model.Post
	if err := readJSON(f.queuePath, &queue); err != nil {
		return nil, fmt.Errorf("load queue: %w", err)
	}
	return queue, nil
}

// SaveQueue replaces the queue file.
func (f *Files) SaveQueue(_ context.Context, queue []model.Post) error {
	if queue == nil {
		queue = []model.Post{}
	}
	if err := writeJSON(f.queuePath, queue); err != nil {
		return fmt.Errorf("save queue: %w", err)
	}
	return nil
}

// LoadSeen reads the seen-set file. A missing file yields an empty set.
func (f *Files) LoadSeen(_ context.Context) (model.SeenSet, error) {
	var ids []string
	if err := readJSON(f.seenPath, &ids); err != nil {
		return nil, fmt.Errorf("load seen: %w", err)
	}
	return model.NewSeenSet(ids...), nil
}

// SaveSeen replaces the seen-set file with the sorted IDs.
func (f *Files) SaveSeen(_ context.Context, seen model.SeenSet) error {
	if err := writeJSON(f.seenPath, seen.Sorted()); err != nil {
		return fmt.Errorf("save seen: %w", err)
	}
	return nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from configuration
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := codec.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

// writeJSON writes to a temporary file in the target directory and renames
// it over path, so readers see either the old or the new content.
func writeJSON(path string, v any) error {
	data, err := codec.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write %s: %w", tmp.Name(), err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename to %s: %w", path, err)
	}
	return nil
}
