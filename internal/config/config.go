package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"positionScope/internal/dex"
	"positionScope/internal/ordering"
)

const envPrefix = "POSITIONS"

// ChainConfig holds RPC and contract settings shared by on-chain commands.
type ChainConfig struct {
	RPCURL          string
	PositionManager string
	Factory         string
	InitCodeHash    string
	MaxRetries      int
	RetryBackoff    time.Duration
}

// ClassificationConfig overrides the stablecoin and base-asset tables.
// Empty lists keep the built-in defaults.
type ClassificationConfig struct {
	Stables []string
	Bases   []string
}

// Table returns the classification table the resolver consumes.
func (c ClassificationConfig) Table() ordering.Classification {
	stables := c.Stables
	if len(stables) == 0 {
		stables = ordering.DefaultStables
	}
	bases := c.Bases
	if len(bases) == 0 {
		bases = ordering.DefaultBases
	}
	return ordering.NewClassification(stables, bases)
}

// newViper merges .env, config file, environment variables and flags.
func newViper(cfgFile string, flags *pflag.FlagSet, defaults map[string]interface{}) (*viper.Viper, error) {
	if err := loadDotEnv(flags); err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("log-level", "info")
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	return v, nil
}

// loadDotEnv reads the file named by --env-file (default .env) into the
// process environment. Variables already set win; a missing file is fine.
func loadDotEnv(flags *pflag.FlagSet) error {
	path := ".env"
	if flags != nil {
		if f := flags.Lookup("env-file"); f != nil && f.Value.String() != "" {
			path = f.Value.String()
		}
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load env file: %w", err)
	}
	return nil
}

func chainDefaults(defaults map[string]interface{}) map[string]interface{} {
	if defaults == nil {
		defaults = make(map[string]interface{})
	}
	defaults["position-manager"] = dex.DefaultPositionManager
	defaults["factory"] = dex.DefaultFactory
	defaults["init-code-hash"] = dex.PoolInitCodeHash
	defaults["max-retries"] = 5
	defaults["retry-backoff"] = 500 * time.Millisecond
	return defaults
}

func readChain(v *viper.Viper) ChainConfig {
	return ChainConfig{
		RPCURL:          v.GetString("rpc"),
		PositionManager: v.GetString("position-manager"),
		Factory:         v.GetString("factory"),
		InitCodeHash:    v.GetString("init-code-hash"),
		MaxRetries:      v.GetInt("max-retries"),
		RetryBackoff:    v.GetDuration("retry-backoff"),
	}
}

func readClassification(v *viper.Viper) ClassificationConfig {
	return ClassificationConfig{
		Stables: getStringSlice(v, "stables"),
		Bases:   getStringSlice(v, "bases"),
	}
}

func getStringSlice(v *viper.Viper, key string) []string {
	if !v.IsSet(key) {
		return nil
	}

	val := v.Get(key)
	switch typed := val.(type) {
	case []string:
		return splitAndClean(strings.Join(typed, ","))
	case string:
		return splitAndClean(typed)
	case []interface{}:
		items := make([]string, 0, len(typed))
		for _, item := range typed {
			items = append(items, fmt.Sprintf("%v", item))
		}
		return cleanStrings(items)
	default:
		return nil
	}
}

func splitAndClean(input string) []string {
	if input == "" {
		return nil
	}
	parts := strings.Split(input, ",")
	return cleanStrings(parts)
}

func cleanStrings(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		out = append(out, item)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
