package storage

import (
	"fmt"
	"os"
	"path/filepath"

	"feed_kiosk/internal/config"
)

// Open returns the Storage selected by cfg.StorageBackend.
func Open(cfg *config.Config) (Storage, error) {
	switch cfg.StorageBackend {
	case config.BackendJSON:
		return NewFiles(cfg.QueueFile, cfg.SeenFile), nil
	case config.BackendSQLite:
		if dir := filepath.Dir(cfg.DatabasePath); dir != "." {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return nil, fmt.Errorf("create data directory %s: %w", dir, err)
			}
		}
		return NewSQLite(cfg.DatabasePath)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
}
