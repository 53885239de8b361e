package price

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"poolFilter/internal/metrics"
	"poolFilter/internal/pool"
)

// DefaultConcurrency bounds the pools valued at once by a DirectValuer.
const DefaultConcurrency = 8

// DirectValuer values pools by resolving each token price against the exchanges
// from this process, one resolution per distinct token.
type DirectValuer struct {
	concurrency int
	throttle    Throttle
	logger      *zap.Logger
	metrics     *metrics.Metrics
}

func NewDirectValuer(concurrency int, throttle Throttle, logger *zap.Logger, m *metrics.Metrics) *DirectValuer {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DirectValuer{concurrency: concurrency, throttle: throttle, logger: logger, metrics: m}
}

// ReferenceValues returns the value of each pool in whole reference units, in input
// order. A pool holding a token without a reference pool is worth zero. Each call
// uses its own price cache.
func (v *DirectValuer) ReferenceValues(ctx context.Context, pools []pool.Pool, query pool.ValueQuery) ([]decimal.Decimal, error) {
	values := make([]decimal.Decimal, len(pools))
	if len(pools) == 0 {
		return values, nil
	}
	defer v.metrics.ObserveStage("direct_valuation", time.Now())

	resolver := NewResolver(query, v.throttle, v.logger, v.metrics)
	cache := NewCache(resolver.Resolve, v.metrics)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(v.concurrency)
	for i, p := range pools {
		i, p := i, p
		g.Go(func() error {
			value, err := PoolValue(gctx, p, cache.GetOrResolve)
			if err != nil {
				return fmt.Errorf("value pool %s: %w", p.Address().Hex(), err)
			}
			values[i] = value
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	v.logger.Debug("direct valuation done", zap.Int("pools", len(pools)), zap.Int("tokens", cache.Len()))
	return values, nil
}

// PoolValue sums both reserves of p converted to whole reference units with the
// prices returned by rate.
func PoolValue(ctx context.Context, p pool.Pool, rate ResolveFunc) (decimal.Decimal, error) {
	tokenA, tokenB := p.Tokens()
	reserveA, reserveB := p.Reserves()
	decimalsA, decimalsB := p.Decimals()

	total := decimal.Zero
	for _, side := range []struct {
		token    common.Address
		reserve  *uint256.Int
		decimals uint8
	}{
		{tokenA, reserveA, decimalsA},
		{tokenB, reserveB, decimalsB},
	} {
		price, err := rate(ctx, side.token)
		if err != nil {
			if errors.Is(err, ErrNoReferencePool) {
				return decimal.Zero, nil
			}
			return decimal.Zero, err
		}
		if math.IsInf(price, 0) || math.IsNaN(price) {
			return decimal.Zero, fmt.Errorf("price of %s: %w", side.token.Hex(), pool.ErrPriceOutOfRange)
		}
		total = total.Add(WholeUnits(side.reserve, side.decimals).Mul(decimal.NewFromFloat(price)))
	}
	return total, nil
}

// WholeUnits converts a raw token amount to whole units.
func WholeUnits(raw *uint256.Int, decimals uint8) decimal.Decimal {
	if raw == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(raw.ToBig(), -int32(decimals))
}
