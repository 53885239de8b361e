// Package price discovers reference-asset prices for tokens and values pools with them.
package price

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"poolFilter/internal/chain"
	"poolFilter/internal/metrics"
	"poolFilter/internal/pool"
)

// Resolve returns how many whole units of reference one whole unit of token is worth.
//
// Every dex is asked for its best pool pairing token with reference; the candidate
// holding the largest reference reserve wins. A contract-level rejection from an
// adapter means that adapter has no pool. Any other adapter error aborts. When the
// winner holds less than minLiquidity of the reference asset, or no adapter has a
// pool at all, a *NoReferencePoolError is returned.
func Resolve(ctx context.Context, token, reference common.Address, dexes []pool.Dex, minLiquidity *uint256.Int) (float64, error) {
	if token == reference {
		return 1, nil
	}

	var best pool.Pool
	var bestReserve *uint256.Int
	for _, d := range dexes {
		candidate, err := d.BestLiquidityPool(ctx, token, reference)
		if err != nil {
			if chain.IsContractError(err) {
				continue
			}
			return 0, fmt.Errorf("best pool on %s: %w", d.Factory().Hex(), err)
		}
		if candidate == nil || !pool.HasToken(candidate, token) {
			continue
		}
		reserve, _, err := pool.ReserveOf(candidate, reference)
		if err != nil {
			continue
		}
		if best == nil || reserve.Gt(bestReserve) {
			best = candidate
			bestReserve = reserve
		}
	}

	noPool := &NoReferencePoolError{Token: token, Reference: reference}
	if best == nil {
		return 0, noPool
	}
	if minLiquidity != nil && bestReserve.Lt(minLiquidity) {
		return 0, noPool
	}

	rate, err := best.PriceOf(token)
	if err != nil {
		if errors.Is(err, pool.ErrEmptyReserves) || errors.Is(err, pool.ErrPriceOutOfRange) {
			return 0, noPool
		}
		return 0, fmt.Errorf("price %s in %s: %w", token.Hex(), best.Address().Hex(), err)
	}
	return rate, nil
}

// Resolver binds a ValueQuery to Resolve and consults an optional throttle before
// each resolution.
type Resolver struct {
	query    pool.ValueQuery
	throttle Throttle
	logger   *zap.Logger
	metrics  *metrics.Metrics
}

func NewResolver(query pool.ValueQuery, throttle Throttle, logger *zap.Logger, m *metrics.Metrics) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{query: query, throttle: throttle, logger: logger, metrics: m}
}

// Resolve prices token against the query's reference asset.
func (r *Resolver) Resolve(ctx context.Context, token common.Address) (float64, error) {
	if token != r.query.Reference && r.throttle != nil {
		if err := r.throttle.Wait(ctx); err != nil {
			return 0, fmt.Errorf("throttle: %w", err)
		}
	}

	rate, err := Resolve(ctx, token, r.query.Reference, r.query.Dexes, r.query.MinLiquidity)
	switch {
	case err == nil:
		r.metrics.Resolution("found")
	case errors.Is(err, ErrNoReferencePool):
		r.metrics.Resolution("no_pool")
		r.logger.Debug("no reference pool", zap.String("token", token.Hex()), zap.String("reference", r.query.Reference.Hex()))
	default:
		r.metrics.Resolution("error")
	}
	return rate, err
}
