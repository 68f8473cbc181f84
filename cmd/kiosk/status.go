package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"

	"feed_kiosk/internal/filter"
	"feed_kiosk/internal/selection"
)

// firstSeener is implemented by backends that record discovery times.
type firstSeener interface {
	FirstSeen(ctx context.Context, id string) (time.Time, error)
}

func newStatusCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Print the queue with the weights a fresh display would use",
		RunE: func(cmd *cobra.Command, _ []string) error {
			asJSON, _ := cmd.Flags().GetBool("json")
			return a.runStatus(cmd, asJSON)
		},
	}
	cmd.Flags().Bool("json", false, "output as JSON")
	return cmd
}

func (a *app) runStatus(cmd *cobra.Command, asJSON bool) error {
	rules, err := a.cfg.FilterRules()
	if err != nil {
		return err
	}

	store, err := a.openStorage()
	if err != nil {
		return err
	}
	defer a.closeStorage(store)

	ctx := cmd.Context()
	queue, err := store.LoadQueue(ctx)
	if err != nil {
		return fmt.Errorf("load queue: %w", err)
	}
	seen, err := store.LoadSeen(ctx)
	if err != nil {
		return fmt.Errorf("load seen posts: %w", err)
	}

	now := time.Now()
	engine := selection.New(selection.WithDiscoveryWindow(a.cfg.DiscoveryWindow))
	scored := engine.Score(filter.Apply(queue, rules), now)

	out := cmd.OutOrStdout()
	if asJSON {
		enc := jsoniter.ConfigCompatibleWithStandardLibrary.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{
			"queue":      len(queue),
			"seen":       len(seen),
			"candidates": scored,
		})
	}

	fmt.Fprintf(out, "queue: %d posts, seen: %d ids, candidates: %d\n", len(queue), len(seen), len(scored))
	if fs, ok := store.(firstSeener); ok && len(queue) > 0 {
		if at, err := fs.FirstSeen(ctx, queue[0].ID); err == nil {
			fmt.Fprintf(out, "queue head first seen: %s\n", at.Local().Format(time.DateTime))
		}
	}
	fmt.Fprintln(out)
	return writeStatus(out, scored, now)
}

// writeStatus prints one row per candidate with its share of the total weight.
func writeStatus(w io.Writer, scored []selection.Scored, now time.Time) error {
	total := 0.0
	for _, s := range scored {
		total += s.Weight
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TITLE\tAUTHOR\tAGE\tRECENCY\tWEIGHT\tCHANCE\tPRIORITY")
	for _, s := range scored {
		age := "-"
		if t, ok := s.Post.Modified(); ok {
			age = fmt.Sprintf("%dd", selection.AgeDays(t, now))
		}
		chance := 0.0
		if total > 0 {
			chance = s.Weight / total * 100
		}
		priority := ""
		if s.Priority {
			priority = "new"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%.3f\t%.3f\t%.1f%%\t%s\n",
			truncate(s.Post.DisplayTitle(), 48), s.Post.AuthorName(), age, s.Recency, s.Weight, chance, priority)
	}
	return tw.Flush()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
