package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/0xcro3dile/docqa-go/internal/adapters/filewatcher"
	"github.com/0xcro3dile/docqa-go/internal/app"
	server "github.com/0xcro3dile/docqa-go/internal/infrastructure/http"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP chat server",
	Long: `Builds the fragment index from the configured document and serves
POST /chat and GET /health until interrupted.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg, nil)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("startup_failed", "error", err)
		return err
	}
	defer a.Close()

	srv := server.NewServer(a, server.Options{
		Addr:      cfg.Addr(),
		RateLimit: cfg.Server.RateLimit,
		RateBurst: cfg.Server.RateBurst,
		Logger:    logger,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Start(gctx)
	})

	if path, ok := a.WatchPath(); ok {
		watcher, err := filewatcher.NewFSNotifyWatcher(logger)
		if err != nil {
			logger.Warn("watcher_unavailable", "error", err)
		} else {
			defer watcher.Stop()
			events, err := watcher.Watch(gctx, path)
			if err != nil {
				logger.Warn("watcher_unavailable", "path", path, "error", err)
			} else {
				g.Go(func() error {
					filewatcher.Notify(gctx, events, logger)
					return nil
				})
			}
		}
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
