package config

import (
	"fmt"

	"github.com/spf13/pflag"
)

// TokenConfig describes one side of an offline pair.
type TokenConfig struct {
	Address  string
	Symbol   string
	Decimals uint8
}

// ResolveConfig holds configuration for offline resolution.
type ResolveConfig struct {
	TokenA         TokenConfig
	TokenB         TokenConfig
	Fee            uint32
	TickLower      int32
	TickUpper      int32
	TickCurrent    *int32
	Liquidity      string
	Invert         bool
	Format         string
	LogLevel       string
	Classification ClassificationConfig
}

// LoadResolve merges config file, environment variables, and flags into ResolveConfig.
func LoadResolve(cfgFile string, flags *pflag.FlagSet) (ResolveConfig, error) {
	v, err := newViper(cfgFile, flags, map[string]interface{}{
		"fee":        3000,
		"decimals-a": 18,
		"decimals-b": 18,
		"liquidity":  "0",
		"format":     "json",
	})
	if err != nil {
		return ResolveConfig{}, err
	}

	decimalsA := v.GetUint("decimals-a")
	decimalsB := v.GetUint("decimals-b")
	if decimalsA > 255 || decimalsB > 255 {
		return ResolveConfig{}, fmt.Errorf("decimals must fit in uint8")
	}

	cfg := ResolveConfig{
		TokenA: TokenConfig{
			Address:  v.GetString("token-a"),
			Symbol:   v.GetString("symbol-a"),
			Decimals: uint8(decimalsA),
		},
		TokenB: TokenConfig{
			Address:  v.GetString("token-b"),
			Symbol:   v.GetString("symbol-b"),
			Decimals: uint8(decimalsB),
		},
		Fee:            v.GetUint32("fee"),
		TickLower:      v.GetInt32("tick-lower"),
		TickUpper:      v.GetInt32("tick-upper"),
		Liquidity:      v.GetString("liquidity"),
		Invert:         v.GetBool("invert"),
		Format:         v.GetString("format"),
		LogLevel:       v.GetString("log-level"),
		Classification: readClassification(v),
	}

	if v.IsSet("tick-current") {
		tick := v.GetInt32("tick-current")
		cfg.TickCurrent = &tick
	}

	if cfg.TokenA.Address == "" || cfg.TokenB.Address == "" {
		return ResolveConfig{}, fmt.Errorf("token-a and token-b are required")
	}
	return cfg, nil
}
