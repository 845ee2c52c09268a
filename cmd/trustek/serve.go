package main

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/stake-plus/trustek/src/actions"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and, when configured, the Discord bot",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rt, err := actions.Bootstrap(ctx, cfg, slog.Default())
	if err != nil {
		return err
	}
	defer rt.Close()

	// Settings rows may have replaced validated values.
	if err := cfg.Validate(); err != nil {
		return err
	}

	manager, err := actions.StartAll(ctx, rt)
	if err != nil {
		return err
	}

	<-ctx.Done()
	slog.Info("Received signal, shutting down...")
	manager.Stop(context.Background())
	return nil
}
