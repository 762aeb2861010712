package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"duetrack/internal/assignment"
	"duetrack/internal/config"
	"duetrack/internal/log"
	"duetrack/internal/quote"
	"duetrack/internal/storage"
	"duetrack/internal/ui"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "duetrack: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := config.ResolveConfigPath()
	cfg, err := config.LoadOrCreate(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := log.Init(cfg.Log); err != nil {
		return fmt.Errorf("failed to init logging: %w", err)
	}
	defer log.Close()
	logger := log.NewModuleLogger("main", "startup")
	logger.Info("starting", "config", configPath, "storage", cfg.Storage)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := []assignment.Option{assignment.WithOptions(cfg.StoreOptions())}
	if cfg.Storage == config.StorageSQLite {
		db, err := storage.Open(cfg.DBPath)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()
		opts = append(opts, assignment.WithMirror(db))
	}

	store := assignment.NewStore(opts...)
	if err := store.Load(ctx); err != nil {
		return err
	}

	var feed ui.QuoteFeed
	if cfg.Quote.Enabled {
		client := quote.NewClient(cfg.Quote.RelayURL, cfg.Quote.SourceURL, cfg.QuoteTimeout())
		fetcher := quote.NewFetcher(client, cfg.FetcherConfig())
		go fetcher.Run(ctx)
		feed = fetcher
	}

	if err := ui.Run(ctx, store, feed, cfg); err != nil {
		return fmt.Errorf("error running program: %w", err)
	}
	logger.Info("stopped")
	return nil
}
