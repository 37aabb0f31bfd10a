package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"positionScope/internal/chain"
	"positionScope/internal/config"
	"positionScope/internal/positions"
)

func main() {
	root := &cobra.Command{
		Use:          "positions",
		Short:        "Concentrated liquidity position viewer",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")
	root.PersistentFlags().String("env-file", ".env", "dotenv file loaded before env lookup")

	resolveCmd := &cobra.Command{
		Use:   "resolve",
		Short: "Resolve display ordering for a pair and tick range without RPC",
		RunE:  runResolve,
	}

	resolveCmd.Flags().String("token-a", "", "first token address")
	resolveCmd.Flags().String("token-b", "", "second token address")
	resolveCmd.Flags().String("symbol-a", "", "first token symbol")
	resolveCmd.Flags().String("symbol-b", "", "second token symbol")
	resolveCmd.Flags().Uint("decimals-a", 18, "first token decimals")
	resolveCmd.Flags().Uint("decimals-b", 18, "second token decimals")
	resolveCmd.Flags().Uint32("fee", 3000, "fee tier in hundredths of a bip (100, 500, 3000, 10000)")
	resolveCmd.Flags().Int32("tick-lower", 0, "lower tick")
	resolveCmd.Flags().Int32("tick-upper", 0, "upper tick")
	resolveCmd.Flags().Int32("tick-current", 0, "current pool tick, defaults to tick-lower")
	resolveCmd.Flags().String("liquidity", "0", "position liquidity")
	resolveCmd.Flags().Bool("invert", false, "swap base and quote after resolution")
	resolveCmd.Flags().String("format", "json", "output format (json, text)")
	addClassificationFlags(resolveCmd)
	resolveCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(resolveCmd)

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Render one position from chain",
		RunE:  runShow,
	}

	addChainFlags(showCmd)
	showCmd.Flags().String("token-id", "", "position NFT token id")
	showCmd.Flags().Bool("invert", false, "swap base and quote after resolution")
	showCmd.Flags().String("format", "json", "output format (json, text)")
	addClassificationFlags(showCmd)
	showCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(showCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "Render every position of an owner into JSONL and optionally Postgres",
		RunE:  runList,
	}

	addChainFlags(listCmd)
	listCmd.Flags().String("owner", "", "owner address")
	listCmd.Flags().String("out", "./data/positions.jsonl", "output JSONL path")
	listCmd.Flags().String("pg-dsn", "", "Postgres DSN (optional)")
	listCmd.Flags().Bool("invert", false, "swap base and quote after resolution")
	addClassificationFlags(listCmd)
	listCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(listCmd)

	replayCmd := &cobra.Command{
		Use:   "replay",
		Short: "Load rendered views from a JSONL file into Postgres",
		RunE:  runReplay,
	}

	replayCmd.Flags().String("in", "./data/positions.jsonl", "input JSONL path")
	replayCmd.Flags().String("pg-dsn", "", "Postgres DSN")
	replayCmd.Flags().Int("batch-size", 500, "views per upsert batch")
	replayCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(replayCmd)

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the position HTTP API",
		RunE:  runServe,
	}

	addChainFlags(serveCmd)
	serveCmd.Flags().String("listen", ":8080", "listen address")
	serveCmd.Flags().StringSlice("allowed-origins", []string{"*"}, "CORS allowed origins")
	serveCmd.Flags().Duration("request-timeout", 15*time.Second, "per-request RPC timeout")
	serveCmd.Flags().String("pg-dsn", "", "Postgres DSN for recording served views (optional)")
	addClassificationFlags(serveCmd)
	serveCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(serveCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func addChainFlags(cmd *cobra.Command) {
	cmd.Flags().String("rpc", "", "JSON-RPC URL")
	cmd.Flags().String("position-manager", "", "NonfungiblePositionManager address")
	cmd.Flags().String("factory", "", "V3 factory address")
	cmd.Flags().String("init-code-hash", "", "pool init code hash, empty string forces factory lookups")
	cmd.Flags().Int("max-retries", 5, "maximum retry attempts")
	cmd.Flags().Duration("retry-backoff", 500*time.Millisecond, "initial retry backoff")
}

func addClassificationFlags(cmd *cobra.Command) {
	cmd.Flags().StringSlice("stables", nil, "stablecoin addresses, replaces the built-in list")
	cmd.Flags().StringSlice("bases", nil, "base asset addresses, replaces the built-in list")
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}

// connect dials the RPC and builds a loader bound to the remote chain id.
func connect(ctx context.Context, cfg config.ChainConfig, logger *zap.Logger) (*chain.Client, *positions.Loader, error) {
	chainClient, err := chain.NewClient(ctx, cfg.RPCURL)
	if err != nil {
		return nil, nil, fmt.Errorf("connect rpc: %w", err)
	}

	chainID, err := chainClient.GetChainID(ctx)
	if err != nil {
		chainClient.Close()
		return nil, nil, fmt.Errorf("get chain id: %w", err)
	}
	if !chainID.IsUint64() {
		chainClient.Close()
		return nil, nil, fmt.Errorf("chain id does not fit in uint64: %s", chainID)
	}

	loaderCfg, err := loaderConfig(chainID.Uint64(), cfg)
	if err != nil {
		chainClient.Close()
		return nil, nil, err
	}

	logger.Info("connected",
		zap.Uint64("chain_id", loaderCfg.ChainID),
		zap.String("position_manager", loaderCfg.PositionManager.Hex()),
		zap.String("factory", loaderCfg.Factory.Hex()),
	)

	return chainClient, positions.NewLoader(chainClient, loaderCfg, logger), nil
}

func loaderConfig(chainID uint64, cfg config.ChainConfig) (positions.Config, error) {
	out := positions.DefaultConfig(chainID)
	if cfg.PositionManager != "" {
		if !common.IsHexAddress(cfg.PositionManager) {
			return positions.Config{}, fmt.Errorf("invalid position manager %q", cfg.PositionManager)
		}
		out.PositionManager = common.HexToAddress(cfg.PositionManager)
	}
	if cfg.Factory != "" {
		if !common.IsHexAddress(cfg.Factory) {
			return positions.Config{}, fmt.Errorf("invalid factory %q", cfg.Factory)
		}
		out.Factory = common.HexToAddress(cfg.Factory)
	}
	out.InitCodeHash = common.HexToHash(cfg.InitCodeHash)
	out.MaxRetries = cfg.MaxRetries
	out.RetryBackoff = cfg.RetryBackoff
	return out, nil
}

func redactDSN(dsn string) string {
	if dsn == "" {
		return dsn
	}
	return "***"
}
