package main

import (
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"feed_kiosk/internal/display"
	"feed_kiosk/internal/selection"
	"feed_kiosk/internal/server"
)

func newDisplayCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "display",
		Short: "Rotate queued posts on screen and serve the control API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runDisplay(cmd)
		},
	}
}

func (a *app) runDisplay(cmd *cobra.Command) error {
	rules, err := a.cfg.FilterRules()
	if err != nil {
		return err
	}

	store, err := a.openStorage()
	if err != nil {
		return err
	}
	defer a.closeStorage(store)

	engine := selection.New(selection.WithDiscoveryWindow(a.cfg.DiscoveryWindow))
	screen := display.LogScreen{Log: a.log}
	driver := display.NewDriver(store, engine, screen, rules, a.cfg.DisplayDuration(), a.cfg.QueuePollInterval, a.log)
	srv := server.New(a.cfg.HTTPAddr, driver, newRegistry(), a.log)

	g, ctx := errgroup.WithContext(cmd.Context())
	g.Go(func() error { return driver.Run(ctx) })
	g.Go(func() error { return srv.Run(ctx) })

	a.log.Info("starting display",
		"backend", a.cfg.StorageBackend,
		"post_duration", a.cfg.DisplayDuration(),
		"discovery_window", a.cfg.DiscoveryWindow,
	)
	err = g.Wait()
	a.log.Info("display stopped")
	return err
}
