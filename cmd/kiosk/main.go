package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"feed_kiosk/internal/config"
	"feed_kiosk/internal/metrics"
	"feed_kiosk/internal/storage"
)

// app carries what every subcommand needs once the root has loaded it.
type app struct {
	cfg *config.Config
	log *slog.Logger
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		slog.Error("kiosk failed", "error", err)
		cancel()
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "kiosk",
		Short: "Feed kiosk: monitors a JSON feed and rotates its posts on a screen",
		Long: `kiosk watches a JSON Feed for new posts and drives an unattended display.

Run the two halves as separate processes sharing the same storage:
  kiosk monitor     # fetch the feed and maintain the display queue
  kiosk display     # rotate posts on screen and serve the control API
  kiosk status      # print the queue with its current selection weights`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			a.cfg = cfg
			a.log = newLogger(cfg.LogLevel)
			return nil
		},
	}

	root.AddCommand(
		newMonitorCommand(a),
		newDisplayCommand(a),
		newStatusCommand(a),
	)
	return root
}

func (a *app) openStorage() (storage.Storage, error) {
	store, err := storage.Open(a.cfg)
	if err != nil {
		return nil, fmt.Errorf("open %s storage: %w", a.cfg.StorageBackend, err)
	}
	return store, nil
}

func (a *app) closeStorage(store storage.Storage) {
	if err := store.Close(); err != nil {
		a.log.Error("close storage", "error", err)
	}
}

func newRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics.MustRegister(reg)
	return reg
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
