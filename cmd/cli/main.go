package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/myvaultapp/myvault/internal/cli"
	"github.com/myvaultapp/myvault/internal/config"
	"github.com/myvaultapp/myvault/internal/localcache"
	"github.com/myvaultapp/myvault/internal/logging"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log := logging.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := localcache.Open(ctx, cfg.CacheDSN)
	if err != nil {
		return err
	}
	defer db.Close()

	app := cli.NewApp(cfg, log, localcache.NewSQLiteRepository(db))
	return app.Run(ctx)
}
