package config

import (
	"fmt"

	"github.com/spf13/pflag"
)

// ShowConfig holds configuration for rendering a single position.
type ShowConfig struct {
	Chain          ChainConfig
	TokenID        string
	Invert         bool
	Format         string
	LogLevel       string
	Classification ClassificationConfig
}

// LoadShow merges config file, environment variables, and flags into ShowConfig.
func LoadShow(cfgFile string, flags *pflag.FlagSet) (ShowConfig, error) {
	v, err := newViper(cfgFile, flags, chainDefaults(map[string]interface{}{
		"format": "json",
	}))
	if err != nil {
		return ShowConfig{}, err
	}

	cfg := ShowConfig{
		Chain:          readChain(v),
		TokenID:        v.GetString("token-id"),
		Invert:         v.GetBool("invert"),
		Format:         v.GetString("format"),
		LogLevel:       v.GetString("log-level"),
		Classification: readClassification(v),
	}
	if cfg.Chain.RPCURL == "" {
		return ShowConfig{}, fmt.Errorf("rpc is required")
	}
	if cfg.TokenID == "" {
		return ShowConfig{}, fmt.Errorf("token-id is required")
	}
	return cfg, nil
}

// ListConfig holds configuration for rendering every position of an owner.
type ListConfig struct {
	Chain          ChainConfig
	Owner          string
	Out            string
	PGDSN          string
	Invert         bool
	LogLevel       string
	Classification ClassificationConfig
}

// LoadList merges config file, environment variables, and flags into ListConfig.
func LoadList(cfgFile string, flags *pflag.FlagSet) (ListConfig, error) {
	v, err := newViper(cfgFile, flags, chainDefaults(map[string]interface{}{
		"out": "./data/positions.jsonl",
	}))
	if err != nil {
		return ListConfig{}, err
	}

	cfg := ListConfig{
		Chain:          readChain(v),
		Owner:          v.GetString("owner"),
		Out:            v.GetString("out"),
		PGDSN:          v.GetString("pg-dsn"),
		Invert:         v.GetBool("invert"),
		LogLevel:       v.GetString("log-level"),
		Classification: readClassification(v),
	}
	if cfg.Chain.RPCURL == "" {
		return ListConfig{}, fmt.Errorf("rpc is required")
	}
	if cfg.Owner == "" {
		return ListConfig{}, fmt.Errorf("owner is required")
	}
	return cfg, nil
}

// ReplayConfig holds configuration for loading a JSONL file of views into Postgres.
type ReplayConfig struct {
	In        string
	PGDSN     string
	BatchSize int
	LogLevel  string
}

// LoadReplay merges config file, environment variables, and flags into ReplayConfig.
func LoadReplay(cfgFile string, flags *pflag.FlagSet) (ReplayConfig, error) {
	v, err := newViper(cfgFile, flags, map[string]interface{}{
		"in":         "./data/positions.jsonl",
		"batch-size": 500,
	})
	if err != nil {
		return ReplayConfig{}, err
	}

	cfg := ReplayConfig{
		In:        v.GetString("in"),
		PGDSN:     v.GetString("pg-dsn"),
		BatchSize: v.GetInt("batch-size"),
		LogLevel:  v.GetString("log-level"),
	}
	if cfg.In == "" {
		return ReplayConfig{}, fmt.Errorf("in is required")
	}
	if cfg.PGDSN == "" {
		return ReplayConfig{}, fmt.Errorf("pg-dsn is required")
	}
	if cfg.BatchSize <= 0 {
		return ReplayConfig{}, fmt.Errorf("batch-size must be positive")
	}
	return cfg, nil
}
