package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const envPrefix = "POOLFILTER"

// Config holds the filter command configuration loaded from flags, env, or config file.
type Config struct {
	RPCURL            string
	In                string
	Out               string
	PGDSN             string
	ReferenceAsset    string
	Dexes             []string
	BlacklistTokens   []string
	BlacklistPools    []string
	BlacklistFile     string
	MinValue          string
	MinLiquidity      string
	FiatPool          string
	FiatPoolVariant   string
	FiatThreshold     string
	Strategy          string
	BatchSize         int
	BatchCode         string
	Concurrency       int
	RequestsPerSecond float64
	MaxRetries        int
	RetryBackoff      time.Duration
	MetricsAddr       string
	LogLevel          string
}

// Load merges config file, environment variables, and flags into Config.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v, err := newViper(cfgFile, flags, map[string]interface{}{
		"out":                 "./data/filtered_pools.jsonl",
		"min-value":           "0",
		"min-liquidity":       "0",
		"fiat-pool-variant":   "v2",
		"strategy":            "batch",
		"batch-size":          300,
		"concurrency":         8,
		"requests-per-second": 0.0,
		"max-retries":         5,
		"retry-backoff":       500 * time.Millisecond,
		"log-level":           "info",
	})
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		RPCURL:            v.GetString("rpc"),
		In:                v.GetString("in"),
		Out:               v.GetString("out"),
		PGDSN:             v.GetString("pg-dsn"),
		ReferenceAsset:    v.GetString("reference-asset"),
		Dexes:             getStringSlice(v, "dex"),
		BlacklistTokens:   getStringSlice(v, "blacklist-tokens"),
		BlacklistPools:    getStringSlice(v, "blacklist-pools"),
		BlacklistFile:     v.GetString("blacklist-file"),
		MinValue:          v.GetString("min-value"),
		MinLiquidity:      v.GetString("min-liquidity"),
		FiatPool:          v.GetString("fiat-pool"),
		FiatPoolVariant:   v.GetString("fiat-pool-variant"),
		FiatThreshold:     v.GetString("fiat-threshold"),
		Strategy:          strings.ToLower(v.GetString("strategy")),
		BatchSize:         v.GetInt("batch-size"),
		BatchCode:         v.GetString("batch-code"),
		Concurrency:       v.GetInt("concurrency"),
		RequestsPerSecond: v.GetFloat64("requests-per-second"),
		MaxRetries:        v.GetInt("max-retries"),
		RetryBackoff:      v.GetDuration("retry-backoff"),
		MetricsAddr:       v.GetString("metrics-addr"),
		LogLevel:          v.GetString("log-level"),
	}

	return cfg, cfg.Validate()
}

// Validate checks the settings that do not need the network.
func (c Config) Validate() error {
	switch c.Strategy {
	case StrategyBatch:
		if c.BatchSize <= 0 {
			return fmt.Errorf("batch-size must be > 0")
		}
	case StrategyDirect:
		if c.Concurrency <= 0 {
			return fmt.Errorf("concurrency must be > 0")
		}
	default:
		return fmt.Errorf("unknown strategy %q (want %s or %s)", c.Strategy, StrategyBatch, StrategyDirect)
	}
	if c.RequestsPerSecond < 0 {
		return fmt.Errorf("requests-per-second must be >= 0")
	}
	return nil
}

const (
	StrategyBatch  = "batch"
	StrategyDirect = "direct"
)

func newViper(cfgFile string, flags *pflag.FlagSet, defaults map[string]interface{}) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

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

func getStringSlice(v *viper.Viper, key string) []string {
	if !v.IsSet(key) {
		return nil
	}

	val := v.Get(key)
	switch typed := val.(type) {
	case []string:
		return cleanStrings(typed)
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
	return out
}
