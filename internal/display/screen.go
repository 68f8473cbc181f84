package display

import (
	"context"
	"log/slog"

	"feed_kiosk/internal/model"
)

// Screen presents a post to the viewer.
type Screen interface {
	Show(ctx context.Context, post model.Post) error
}

// LogScreen writes every shown post to the log. It is the screen used when
// no browser is attached to the kiosk.
type LogScreen struct {
	Log *slog.Logger
}

// Show logs the post.
func (s LogScreen) Show(_ context.Context, post model.Post) error {
	s.Log.Info("showing post",
		"id", post.ID,
		"title", post.DisplayTitle(),
		"author", post.AuthorName(),
		"url", post.URL,
	)
	return nil
}
