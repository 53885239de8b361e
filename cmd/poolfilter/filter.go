package main

import (
	"context"
	"fmt"
	"math/big"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"poolFilter/internal/batch"
	"poolFilter/internal/chain"
	"poolFilter/internal/config"
	"poolFilter/internal/dex"
	"poolFilter/internal/filter"
	"poolFilter/internal/metrics"
	"poolFilter/internal/model"
	"poolFilter/internal/pool"
	"poolFilter/internal/price"
	"poolFilter/internal/storage"
	"poolFilter/internal/storage/postgres"
)

func runFilter(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.RPCURL == "" {
		return fmt.Errorf("rpc url is required")
	}
	reference, err := config.ParseAddress("reference-asset", cfg.ReferenceAsset)
	if err != nil {
		return err
	}
	specs, err := dex.ParseSpecs(cfg.Dexes)
	if err != nil {
		return err
	}
	if len(specs) == 0 {
		return fmt.Errorf("at least one dex is required")
	}
	minLiquidity, err := uint256.FromDecimal(cfg.MinLiquidity)
	if err != nil {
		return fmt.Errorf("invalid min-liquidity: %w", err)
	}
	minValue, err := decimal.NewFromString(cfg.MinValue)
	if err != nil {
		return fmt.Errorf("invalid min-value: %w", err)
	}

	pools, records, err := loadPools(cfg.In)
	if err != nil {
		return err
	}

	var fiatAddr common.Address
	var fiatVariant pool.Variant
	var fiatThreshold decimal.Decimal
	if cfg.FiatPool != "" {
		if fiatAddr, err = config.ParseAddress("fiat-pool", cfg.FiatPool); err != nil {
			return err
		}
		if fiatVariant, err = pool.ParseVariant(cfg.FiatPoolVariant); err != nil {
			return fmt.Errorf("invalid fiat-pool-variant: %w", err)
		}
		if fiatThreshold, err = decimal.NewFromString(cfg.FiatThreshold); err != nil {
			return fmt.Errorf("invalid fiat-threshold: %w", err)
		}
	}

	tokenList, poolList, err := loadBlacklists(cfg.BlacklistTokens, cfg.BlacklistPools, cfg.BlacklistFile)
	if err != nil {
		return err
	}
	candidates := filter.FilterBlacklistedPools(filter.FilterBlacklistedTokens(pools, tokenList), poolList)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	m := metrics.NewMetrics(reg, "poolfilter")
	if cfg.MetricsAddr != "" {
		stopMetrics := serveMetrics(cfg.MetricsAddr, reg, logger)
		defer stopMetrics()
	}

	chainClient, err := chain.NewClient(ctx, cfg.RPCURL, chain.Options{
		MaxRetries:   cfg.MaxRetries,
		RetryBackoff: cfg.RetryBackoff,
		Logger:       logger,
	})
	if err != nil {
		return fmt.Errorf("connect rpc: %w", err)
	}
	defer chainClient.Close()

	chainID, err := chainClient.GetChainID(ctx)
	if err != nil {
		return fmt.Errorf("chain id: %w", err)
	}
	block, err := chainClient.LatestBlockNumber(ctx)
	if err != nil {
		return fmt.Errorf("latest block: %w", err)
	}

	var fiatPool pool.Pool
	if cfg.FiatPool != "" {
		fiatPool, err = loadFiatPool(ctx, chainClient, fiatAddr, fiatVariant, block, pools, logger)
		if err != nil {
			return err
		}
		if !pool.HasToken(fiatPool, reference) {
			return fmt.Errorf("fiat pool %s does not hold the reference asset", fiatAddr.Hex())
		}
	}

	dexes, err := dex.Build(specs, chainClient, logger)
	if err != nil {
		return err
	}

	valuer, err := newValuer(cfg, chainClient, block, logger, m)
	if err != nil {
		return err
	}
	pipeline, err := filter.NewPipeline(valuer, logger, m)
	if err != nil {
		return err
	}

	sinks := []storage.Sink{storage.NewJsonlStorage(cfg.Out)}
	if cfg.PGDSN != "" {
		store, err := postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer store.Close()
		if err := store.EnsureSchema(ctx); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
		sinks = append(sinks, store)
	}

	query := pool.ValueQuery{Dexes: dexes, Reference: reference, MinLiquidity: minLiquidity}
	started := time.Now().UTC()
	run := model.FilterRun{
		ID:             fmt.Sprintf("run-%d", started.UnixNano()),
		ChainID:        chainID.Uint64(),
		BlockNumber:    block,
		Strategy:       cfg.Strategy,
		ReferenceAsset: reference.Hex(),
		Stage:          "reference",
		Threshold:      minValue.String(),
		InputPools:     len(candidates),
		StartedAt:      started,
	}

	logger.Info("filter start",
		zap.String("run", run.ID),
		zap.String("rpc", cfg.RPCURL),
		zap.Uint64("chain_id", run.ChainID),
		zap.Uint64("block", block),
		zap.String("in", cfg.In),
		zap.Int("pools", len(pools)),
		zap.Int("after_blacklist", len(candidates)),
		zap.Int("dexes", len(dexes)),
		zap.String("strategy", cfg.Strategy),
		zap.String("reference", reference.Hex()),
		zap.String("pg_dsn", redactDSN(cfg.PGDSN)),
	)

	var kept []filter.Valued
	if fiatPool != nil {
		run.Stage = "fiat"
		run.Threshold = fiatThreshold.String()
		kept, err = pipeline.FiatValued(ctx, candidates, query, fiatPool, fiatThreshold)
	} else {
		kept, err = pipeline.ReferenceValued(ctx, candidates, query, minValue)
	}
	if err != nil {
		return err
	}

	run.KeptPools = len(kept)
	run.FinishedAt = time.Now().UTC()
	factories := factoriesOf(pools, records)
	results := make([]model.FilteredPool, len(kept))
	for i, v := range kept {
		results[i] = filteredPool(run.ID, v, factories[v.Pool.Address()], run.Stage == "fiat")
	}
	for _, sink := range sinks {
		if err := sink.PutFilterRun(ctx, run, results); err != nil {
			return fmt.Errorf("store results: %w", err)
		}
	}

	logger.Info("filter complete",
		zap.String("run", run.ID),
		zap.Int("kept", run.KeptPools),
		zap.Int("dropped", run.InputPools-run.KeptPools),
		zap.Duration("elapsed", run.FinishedAt.Sub(run.StartedAt)),
		zap.String("out", cfg.Out),
	)
	return nil
}

func newValuer(cfg config.Config, client *chain.Client, block uint64, logger *zap.Logger, m *metrics.Metrics) (filter.Valuer, error) {
	switch cfg.Strategy {
	case config.StrategyDirect:
		return price.NewDirectValuer(cfg.Concurrency, price.NewThrottle(cfg.RequestsPerSecond), logger, m), nil
	case config.StrategyBatch:
		initCode, err := hexutil.Decode(cfg.BatchCode)
		if err != nil {
			return nil, fmt.Errorf("invalid batch-code: %w", err)
		}
		codec, err := batch.NewDeployCodec(initCode)
		if err != nil {
			return nil, err
		}
		return batch.NewClient(client, codec, batch.Options{
			BatchSize:   cfg.BatchSize,
			BlockNumber: new(big.Int).SetUint64(block),
			Logger:      logger,
			Metrics:     m,
		})
	default:
		return nil, fmt.Errorf("unknown strategy %q", cfg.Strategy)
	}
}

// loadFiatPool reads the fiat pool at block and falls back to the snapshot copy.
func loadFiatPool(ctx context.Context, caller dex.Caller, address common.Address, variant pool.Variant, block uint64, snapshot []pool.Pool, logger *zap.Logger) (pool.Pool, error) {
	live, err := dex.LoadPool(ctx, caller, address, variant, new(big.Int).SetUint64(block), logger)
	if err == nil {
		return live, nil
	}
	if fallback := findPool(snapshot, address); fallback != nil {
		logger.Warn("fiat pool load failed, using snapshot", zap.String("pool", address.Hex()), zap.Error(err))
		return fallback, nil
	}
	return nil, fmt.Errorf("load fiat pool %s: %w", address.Hex(), err)
}

func filteredPool(runID string, v filter.Valued, factory string, fiat bool) model.FilteredPool {
	token0, token1 := v.Pool.Tokens()
	out := model.FilteredPool{
		RunID:          runID,
		Address:        v.Pool.Address().Hex(),
		Variant:        v.Pool.Variant().String(),
		Factory:        factory,
		Token0:         token0.Hex(),
		Token1:         token1.Hex(),
		ReferenceValue: v.ReferenceValue.String(),
	}
	if fiat {
		out.FiatValue = v.FiatValue.String()
	}
	return out
}
