package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	root := &cobra.Command{
		Use:          "poolfilter",
		Short:        "Filter synced liquidity pools by blacklist and value",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	filterCmd := &cobra.Command{
		Use:   "filter",
		Short: "Keep pools worth at least a reference or fiat threshold",
		RunE:  runFilter,
	}

	filterCmd.Flags().String("rpc", "", "RPC URL")
	filterCmd.Flags().String("in", "", "input pool snapshot JSONL")
	filterCmd.Flags().String("out", "./data/filtered_pools.jsonl", "output JSONL path")
	filterCmd.Flags().String("pg-dsn", "", "optional Postgres DSN for run results")
	filterCmd.Flags().String("reference-asset", "", "reference asset address (e.g. WETH)")
	filterCmd.Flags().StringSlice("dex", nil, "exchanges as variant:factory (comma-separated)")
	filterCmd.Flags().StringSlice("blacklist-tokens", nil, "blacklisted token addresses (comma-separated)")
	filterCmd.Flags().StringSlice("blacklist-pools", nil, "blacklisted pool addresses (comma-separated)")
	filterCmd.Flags().String("blacklist-file", "", "YAML address list")
	filterCmd.Flags().String("min-value", "0", "minimum pool value in whole reference units")
	filterCmd.Flags().String("min-liquidity", "0", "minimum raw reference reserve of a price source pool")
	filterCmd.Flags().String("fiat-pool", "", "pool pairing the reference asset with a fiat stable token; enables the fiat filter")
	filterCmd.Flags().String("fiat-pool-variant", "v2", "AMM family of the fiat pool (v2, v3)")
	filterCmd.Flags().String("fiat-threshold", "", "minimum pool value in fiat units")
	filterCmd.Flags().String("strategy", "batch", "valuation strategy (batch, direct)")
	filterCmd.Flags().Int("batch-size", 300, "pools per batch query")
	filterCmd.Flags().String("batch-code", "", "hex init code of the batch value program")
	filterCmd.Flags().Int("concurrency", 8, "pools valued at once by the direct strategy")
	filterCmd.Flags().Float64("requests-per-second", 0, "price resolutions per second, 0 means unthrottled")
	filterCmd.Flags().Int("max-retries", 5, "maximum retry attempts")
	filterCmd.Flags().Duration("retry-backoff", 500*time.Millisecond, "initial retry backoff")
	filterCmd.Flags().String("metrics-addr", "", "serve Prometheus metrics on this address")
	filterCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(filterCmd)

	blacklistCmd := &cobra.Command{
		Use:   "blacklist",
		Short: "Drop pools touching blacklisted addresses",
		RunE:  runBlacklist,
	}

	blacklistCmd.Flags().String("in", "", "input pool snapshot JSONL")
	blacklistCmd.Flags().String("out", "./data/blacklisted_pools.jsonl", "output pool snapshot JSONL")
	blacklistCmd.Flags().String("mode", "addresses", "what to check (tokens, pools, addresses)")
	blacklistCmd.Flags().StringSlice("blacklist-tokens", nil, "blacklisted token addresses (comma-separated)")
	blacklistCmd.Flags().StringSlice("blacklist-pools", nil, "blacklisted pool addresses (comma-separated)")
	blacklistCmd.Flags().String("blacklist-file", "", "YAML address list")
	blacklistCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(blacklistCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
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

// serveMetrics exposes reg on addr until the returned stop func is called.
func serveMetrics(addr string, reg *prometheus.Registry, logger *zap.Logger) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("metrics server stopped", zap.Error(err))
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}

func redactDSN(dsn string) string {
	if dsn == "" {
		return dsn
	}
	return "***"
}
