package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/aretw0/outline/pkg/adapters/lifecycle"
	"github.com/aretw0/outline/pkg/core"
)

var watchCmd = &cobra.Command{
	Use:   "watch [pattern]",
	Short: "Re-validate pages whenever they change",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pattern := "**"
		if len(args) == 1 {
			pattern = args[0]
		}
		_, svc, err := openGraph(cmd)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		events, err := svc.Watch(ctx, pattern)
		if err != nil {
			return err
		}
		src := lifecycle.NewSource(events, core.EventCreate, core.EventModify)
		if err := src.Start(ctx); err != nil {
			return err
		}
		slog.Info("watching graph", "pattern", pattern)

		out := cmd.OutOrStdout()
		for ev := range src.Events() {
			e, ok := ev.(core.Event)
			if !ok {
				continue
			}
			page, err := svc.GetPage(ctx, e.ID)
			if errors.Is(err, core.ErrPageNotFound) {
				continue
			}
			if err == nil {
				err = page.Verify()
			}
			if err != nil {
				fmt.Fprintf(out, "FAIL %s: %v\n", e.ID, err)
				continue
			}
			fmt.Fprintf(out, "ok   %s\n", e.ID)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
