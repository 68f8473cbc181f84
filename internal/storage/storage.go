// Package storage defines the persistence interface and its implementations.
package storage

import (
	"context"

	"feed_kiosk/internal/model"
)

// Storage is the interface for queue and seen-set persistence.
// Loading state that was never saved returns an empty result, not an error.
type Storage interface {
	LoadQueue(ctx context.Context) ([]model.Post, error)
	SaveQueue(ctx context.Context, queue []model.Post) error

	LoadSeen(ctx context.Context) (model.SeenSet, error)
	SaveSeen(ctx context.Context, seen model.SeenSet) error

	Close() error
}
