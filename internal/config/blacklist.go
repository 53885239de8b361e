package config

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
)

// Blacklist modes select which addresses of a pool are checked.
const (
	ModeTokens    = "tokens"
	ModePools     = "pools"
	ModeAddresses = "addresses"
)

// BlacklistConfig holds configuration for the blacklist command.
type BlacklistConfig struct {
	In              string
	Out             string
	Mode            string
	BlacklistTokens []string
	BlacklistPools  []string
	BlacklistFile   string
	LogLevel        string
}

// LoadBlacklist merges config file, environment variables, and flags into BlacklistConfig.
func LoadBlacklist(cfgFile string, flags *pflag.FlagSet) (BlacklistConfig, error) {
	v, err := newViper(cfgFile, flags, map[string]interface{}{
		"out":       "./data/blacklisted_pools.jsonl",
		"mode":      ModeAddresses,
		"log-level": "info",
	})
	if err != nil {
		return BlacklistConfig{}, err
	}

	cfg := BlacklistConfig{
		In:              v.GetString("in"),
		Out:             v.GetString("out"),
		Mode:            strings.ToLower(v.GetString("mode")),
		BlacklistTokens: getStringSlice(v, "blacklist-tokens"),
		BlacklistPools:  getStringSlice(v, "blacklist-pools"),
		BlacklistFile:   v.GetString("blacklist-file"),
		LogLevel:        v.GetString("log-level"),
	}

	switch cfg.Mode {
	case ModeTokens, ModePools, ModeAddresses:
	default:
		return BlacklistConfig{}, fmt.Errorf("unknown blacklist mode %q", cfg.Mode)
	}
	return cfg, nil
}
