package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"

	"positionScope/internal/dex"
	"positionScope/internal/model"
)

func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}

func showFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	flags := pflag.NewFlagSet("show", pflag.ContinueOnError)
	flags.String("rpc", "", "")
	flags.String("token-id", "", "")
	flags.Bool("invert", false, "")
	flags.StringSlice("stables", nil, "")
	flags.String("env-file", "", "")
	require.NoError(t, flags.Parse(args))
	return flags
}

func TestLoadShowFromFlags(t *testing.T) {
	chdir(t, t.TempDir())
	cfg, err := LoadShow("", showFlags(t, "--rpc", "http://localhost:8545", "--token-id", "42", "--invert"))
	require.NoError(t, err)
	require.Equal(t, "http://localhost:8545", cfg.Chain.RPCURL)
	require.Equal(t, "42", cfg.TokenID)
	require.True(t, cfg.Invert)
	require.Equal(t, dex.DefaultPositionManager, cfg.Chain.PositionManager)
	require.Equal(t, 5, cfg.Chain.MaxRetries)
	require.Equal(t, 500*time.Millisecond, cfg.Chain.RetryBackoff)
	require.Equal(t, "info", cfg.LogLevel)
	require.Nil(t, cfg.Classification.Stables)
}

func TestLoadShowFromEnv(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("POSITIONS_RPC", "http://env:8545")
	t.Setenv("POSITIONS_TOKEN_ID", "7")
	t.Setenv("POSITIONS_BASES", "0xaaaa, 0xbbbb")

	cfg, err := LoadShow("", showFlags(t))
	require.NoError(t, err)
	require.Equal(t, "http://env:8545", cfg.Chain.RPCURL)
	require.Equal(t, "7", cfg.TokenID)
	require.Equal(t, []string{"0xaaaa", "0xbbbb"}, cfg.Classification.Bases)
}

func TestLoadShowRequiresTokenID(t *testing.T) {
	chdir(t, t.TempDir())
	_, err := LoadShow("", showFlags(t, "--rpc", "http://localhost:8545"))
	require.ErrorContains(t, err, "token-id")
}

func TestLoadShowDotEnv(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	envFile := filepath.Join(dir, "custom.env")
	require.NoError(t, os.WriteFile(envFile, []byte("POSITIONS_RPC=http://dotenv:8545\nPOSITIONS_TOKEN_ID=99\n"), 0o644))
	t.Cleanup(func() {
		os.Unsetenv("POSITIONS_RPC")
		os.Unsetenv("POSITIONS_TOKEN_ID")
	})

	cfg, err := LoadShow("", showFlags(t, "--env-file", envFile))
	require.NoError(t, err)
	require.Equal(t, "http://dotenv:8545", cfg.Chain.RPCURL)
	require.Equal(t, "99", cfg.TokenID)
}

func TestLoadServeConfigFile(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	path := filepath.Join(dir, "positions.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
rpc: http://file:8545
listen: ":9090"
allowed-origins:
  - https://app.example
stables:
  - "0x1111111111111111111111111111111111111111"
`), 0o644))

	flags := pflag.NewFlagSet("serve", pflag.ContinueOnError)
	flags.String("listen", ":8080", "")

	cfg, err := LoadServe(path, flags)
	require.NoError(t, err)
	require.Equal(t, "http://file:8545", cfg.Chain.RPCURL)
	require.Equal(t, ":9090", cfg.Listen)
	require.Equal(t, []string{"https://app.example"}, cfg.AllowedOrigins)
	require.Equal(t, 15*time.Second, cfg.RequestTimeout)

	table := cfg.Classification.Table()
	require.True(t, table.IsStable(model.TokenMeta{Address: "0x1111111111111111111111111111111111111111"}))
	require.False(t, table.IsStable(model.TokenMeta{Address: "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48"}))
	require.True(t, table.IsBase(model.TokenMeta{Address: "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2"}))
}

func TestLoadResolve(t *testing.T) {
	chdir(t, t.TempDir())
	flags := pflag.NewFlagSet("resolve", pflag.ContinueOnError)
	flags.String("token-a", "", "")
	flags.String("token-b", "", "")
	flags.Uint("decimals-a", 18, "")
	flags.Int32("tick-lower", 0, "")
	flags.Int32("tick-upper", 0, "")
	require.NoError(t, flags.Parse([]string{
		"--token-a", "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48",
		"--token-b", "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2",
		"--decimals-a", "6",
		"--tick-lower", "-887220",
		"--tick-upper", "887220",
	}))

	cfg, err := LoadResolve("", flags)
	require.NoError(t, err)
	require.Equal(t, uint8(6), cfg.TokenA.Decimals)
	require.Equal(t, uint8(18), cfg.TokenB.Decimals)
	require.Equal(t, uint32(3000), cfg.Fee)
	require.Equal(t, int32(-887220), cfg.TickLower)
	require.Equal(t, int32(887220), cfg.TickUpper)
	require.Equal(t, "0", cfg.Liquidity)

	_, err = LoadResolve("", pflag.NewFlagSet("empty", pflag.ContinueOnError))
	require.Error(t, err)
}

func TestClassificationDefaults(t *testing.T) {
	stables, bases := ClassificationConfig{}.Table().Counts()
	require.Equal(t, 3, stables)
	require.Equal(t, 6, bases)
}

func TestLoadResolveTickCurrent(t *testing.T) {
	chdir(t, t.TempDir())
	flags := pflag.NewFlagSet("resolve", pflag.ContinueOnError)
	flags.String("token-a", "0x1111111111111111111111111111111111111111", "")
	flags.String("token-b", "0x2222222222222222222222222222222222222222", "")
	flags.Int32("tick-current", 0, "")

	cfg, err := LoadResolve("", flags)
	require.NoError(t, err)
	require.Nil(t, cfg.TickCurrent)
	require.Equal(t, "json", cfg.Format)

	require.NoError(t, flags.Parse([]string{"--tick-current", "-60"}))
	cfg, err = LoadResolve("", flags)
	require.NoError(t, err)
	require.NotNil(t, cfg.TickCurrent)
	require.Equal(t, int32(-60), *cfg.TickCurrent)
}

func TestLoadReplay(t *testing.T) {
	chdir(t, t.TempDir())
	flags := pflag.NewFlagSet("replay", pflag.ContinueOnError)
	flags.String("in", "./data/positions.jsonl", "")
	flags.String("pg-dsn", "", "")
	flags.Int("batch-size", 500, "")

	_, err := LoadReplay("", flags)
	require.ErrorContains(t, err, "pg-dsn")

	t.Setenv("POSITIONS_PG_DSN", "postgres://localhost/positions")
	cfg, err := LoadReplay("", flags)
	require.NoError(t, err)
	require.Equal(t, "./data/positions.jsonl", cfg.In)
	require.Equal(t, 500, cfg.BatchSize)

	require.NoError(t, flags.Parse([]string{"--batch-size", "0"}))
	_, err = LoadReplay("", flags)
	require.Error(t, err)
}
