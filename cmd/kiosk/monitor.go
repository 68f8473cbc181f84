package main

import (
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"feed_kiosk/internal/notify"
	"feed_kiosk/internal/scheduler"
	"feed_kiosk/internal/server"
)

func newMonitorCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "monitor",
		Short: "Fetch the feed periodically and maintain the display queue",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runMonitor(cmd)
		},
	}
}

func (a *app) runMonitor(cmd *cobra.Command) error {
	store, err := a.openStorage()
	if err != nil {
		return err
	}
	defer a.closeStorage(store)

	var notifier scheduler.Notifier
	if a.cfg.NotifyEnabled() {
		tg, err := notify.NewTelegram(a.cfg.TelegramBotToken, a.cfg.TelegramChatID, a.log)
		if err != nil {
			return err
		}
		notifier = tg
		a.log.Info("telegram notifications enabled", "chat_id", a.cfg.TelegramChatID)
	}

	mon := scheduler.New(store, a.cfg.FeedURL, notifier, a.log)
	mon.SetTickInterval(a.cfg.FetchInterval)
	mon.SetFetchTimeout(a.cfg.FetchTimeout)

	g, ctx := errgroup.WithContext(cmd.Context())
	g.Go(func() error {
		mon.Run(ctx)
		return nil
	})

	if a.cfg.MetricsAddr != "" {
		srv := server.New(a.cfg.MetricsAddr, nil, newRegistry(), a.log)
		g.Go(func() error { return srv.Run(ctx) })
	}

	a.log.Info("starting monitor", "backend", a.cfg.StorageBackend)
	err = g.Wait()
	a.log.Info("monitor stopped")
	return err
}
