package config

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"
)

// ServeConfig holds configuration for the HTTP API.
type ServeConfig struct {
	Chain          ChainConfig
	Listen         string
	AllowedOrigins []string
	RequestTimeout time.Duration
	PGDSN          string
	LogLevel       string
	Classification ClassificationConfig
}

// LoadServe merges config file, environment variables, and flags into ServeConfig.
func LoadServe(cfgFile string, flags *pflag.FlagSet) (ServeConfig, error) {
	v, err := newViper(cfgFile, flags, chainDefaults(map[string]interface{}{
		"listen":          ":8080",
		"allowed-origins": "*",
		"request-timeout": 15 * time.Second,
	}))
	if err != nil {
		return ServeConfig{}, err
	}

	cfg := ServeConfig{
		Chain:          readChain(v),
		Listen:         v.GetString("listen"),
		AllowedOrigins: getStringSlice(v, "allowed-origins"),
		RequestTimeout: v.GetDuration("request-timeout"),
		PGDSN:          v.GetString("pg-dsn"),
		LogLevel:       v.GetString("log-level"),
		Classification: readClassification(v),
	}
	if cfg.Chain.RPCURL == "" {
		return ServeConfig{}, fmt.Errorf("rpc is required")
	}
	return cfg, nil
}
