package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"positionScope/internal/config"
	"positionScope/internal/model"
	"positionScope/internal/positions"
	"positionScope/internal/storage"
	"positionScope/internal/storage/postgres"
	"positionScope/internal/view"
)

func runShow(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadShow(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	chainClient, loader, err := connect(ctx, cfg.Chain, logger)
	if err != nil {
		return err
	}
	defer chainClient.Close()

	rendered, err := loader.Render(ctx, cfg.TokenID, cfg.Classification.Table(), view.Options{Invert: cfg.Invert})
	if err != nil {
		return err
	}

	return writeView(os.Stdout, cfg.Format, rendered)
}

func runList(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadList(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	chainClient, loader, err := connect(ctx, cfg.Chain, logger)
	if err != nil {
		return err
	}
	defer chainClient.Close()

	sinks := []storage.Storage{storage.NewJsonlStorage(cfg.Out)}
	if cfg.PGDSN != "" {
		store, err := postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer store.Close()
		if err := store.EnsureSchema(ctx); err != nil {
			return err
		}
		sinks = append(sinks, store)
	}

	logger.Info("list start",
		zap.String("owner", cfg.Owner),
		zap.String("out", cfg.Out),
		zap.String("pg_dsn", redactDSN(cfg.PGDSN)),
	)

	var ids []string
	page := positions.Page{}
	for {
		owned, err := loader.ListOwner(ctx, cfg.Owner, page)
		if err != nil {
			return err
		}
		ids = append(ids, owned.IDs...)
		if owned.Next == 0 {
			break
		}
		page.Offset = owned.Next
	}

	table := cfg.Classification.Table()
	views := make([]model.PositionView, 0, len(ids))
	for _, id := range ids {
		rendered, err := loader.Render(ctx, id, table, view.Options{Invert: cfg.Invert})
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logger.Warn("position skipped", zap.String("token_id", id), zap.Error(err))
			continue
		}
		views = append(views, rendered)
	}

	for _, sink := range sinks {
		if err := sink.PutViews(views); err != nil {
			return fmt.Errorf("write views: %w", err)
		}
	}

	logger.Info("list done",
		zap.Int("owned", len(ids)),
		zap.Int("rendered", len(views)),
	)
	return nil
}

func runReplay(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadReplay(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	views, err := storage.ReadViews(cfg.In)
	if err != nil {
		return err
	}

	store, err := postgres.NewStore(ctx, cfg.PGDSN)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer store.Close()
	if err := store.EnsureSchema(ctx); err != nil {
		return err
	}

	logger.Info("replay start",
		zap.String("in", cfg.In),
		zap.String("pg_dsn", redactDSN(cfg.PGDSN)),
		zap.Int("views", len(views)),
	)

	for start := 0; start < len(views); start += cfg.BatchSize {
		end := start + cfg.BatchSize
		if end > len(views) {
			end = len(views)
		}
		if err := store.UpsertPositionViews(ctx, views[start:end]); err != nil {
			return fmt.Errorf("replay views %d-%d: %w", start, end, err)
		}
	}

	logger.Info("replay done", zap.Int("views", len(views)))
	return nil
}
