package main

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"poolFilter/internal/config"
	"poolFilter/internal/filter"
	"poolFilter/internal/model"
	"poolFilter/internal/pool"
)

func runBlacklist(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadBlacklist(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.Out == "" {
		return fmt.Errorf("output path is required")
	}

	pools, records, err := loadPools(cfg.In)
	if err != nil {
		return err
	}

	tokenList, poolList, err := loadBlacklists(cfg.BlacklistTokens, cfg.BlacklistPools, cfg.BlacklistFile)
	if err != nil {
		return err
	}

	var kept []pool.Pool
	switch cfg.Mode {
	case config.ModeTokens:
		kept = filter.FilterBlacklistedTokens(pools, tokenList)
	case config.ModePools:
		kept = filter.FilterBlacklistedPools(pools, poolList)
	default:
		kept = filter.FilterBlacklistedAddresses(pools, tokenList.Union(poolList))
	}

	byAddress := make(map[common.Address]model.PoolRecord, len(records))
	for i, p := range pools {
		byAddress[p.Address()] = records[i]
	}

	out, err := newJSONLWriter(cfg.Out)
	if err != nil {
		return err
	}
	for _, p := range kept {
		if err := out.Write(byAddress[p.Address()]); err != nil {
			out.Close()
			return err
		}
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("close output: %w", err)
	}

	logger.Info("blacklist complete",
		zap.String("mode", cfg.Mode),
		zap.String("in", cfg.In),
		zap.String("out", cfg.Out),
		zap.Int("total", len(pools)),
		zap.Int("kept", len(kept)),
		zap.Int("blacklisted_tokens", tokenList.Cardinality()),
		zap.Int("blacklisted_pools", poolList.Cardinality()),
	)
	return nil
}
