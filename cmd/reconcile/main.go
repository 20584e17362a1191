package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"besaha/internal/app"
	"besaha/internal/config"
	"besaha/internal/pkg/logger"
)

// reconcile runs a single re-drive sweep over pending and failed reviews.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	zlog, err := logger.New(cfg.AppEnv)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, zlog)
	if err != nil {
		zlog.Fatalw("startup failed", "error", err)
	}
	defer a.Close()

	// the bus runs so verdicts still invalidate the restaurant cache
	if err := a.Start(ctx, false); err != nil {
		zlog.Fatalw("start event bus", "error", err)
	}

	n, err := a.Reconciler.RunOnce(ctx)
	if err != nil {
		zlog.Errorw("reconcile sweep failed", "redriven", n, "error", err)
		a.Close()
		os.Exit(1)
	}
	zlog.Infow("reconcile sweep finished", "redriven", n)
}
