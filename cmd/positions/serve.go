package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"positionScope/internal/api"
	"positionScope/internal/config"
	"positionScope/internal/storage/postgres"
)

var _ api.ViewCache = (*postgres.Store)(nil)

func runServe(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadServe(cfgFile, cmd.Flags())
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

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	opts := api.Options{
		Table:          cfg.Classification.Table(),
		AllowedOrigins: cfg.AllowedOrigins,
		RequestTimeout: cfg.RequestTimeout,
		Registry:       registry,
		Logger:         logger,
	}

	if cfg.PGDSN != "" {
		store, err := postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer store.Close()
		if err := store.EnsureSchema(ctx); err != nil {
			return err
		}
		opts.Sink = store
		opts.Cache = store
	}
	opts.ChainID = loader.ChainID()

	stables, bases := opts.Table.Counts()
	logger.Info("serve start",
		zap.String("listen", cfg.Listen),
		zap.Strings("allowed_origins", cfg.AllowedOrigins),
		zap.Duration("request_timeout", cfg.RequestTimeout),
		zap.String("pg_dsn", redactDSN(cfg.PGDSN)),
		zap.Int("stables", stables),
		zap.Int("bases", bases),
	)

	return api.NewServer(loader, opts).Start(ctx, cfg.Listen)
}
