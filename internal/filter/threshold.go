package filter

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"poolFilter/internal/metrics"
	"poolFilter/internal/pool"
)

// Valuer returns the value of each pool in whole reference units, in input order.
// price.DirectValuer and batch.Client implement it.
type Valuer interface {
	ReferenceValues(ctx context.Context, pools []pool.Pool, query pool.ValueQuery) ([]decimal.Decimal, error)
}

// Valued is a retained pool with the values it was judged by. FiatValue is zero
// for reference value filters.
type Valued struct {
	Pool           pool.Pool
	ReferenceValue decimal.Decimal
	FiatValue      decimal.Decimal
}

// Pools strips the values from a filter result.
func Pools(valued []Valued) []pool.Pool {
	out := make([]pool.Pool, len(valued))
	for i, v := range valued {
		out[i] = v.Pool
	}
	return out
}

// Pipeline applies value thresholds using a Valuer.
type Pipeline struct {
	valuer  Valuer
	logger  *zap.Logger
	metrics *metrics.Metrics
}

func NewPipeline(valuer Valuer, logger *zap.Logger, m *metrics.Metrics) (*Pipeline, error) {
	if valuer == nil {
		return nil, errors.New("valuer is nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{valuer: valuer, logger: logger, metrics: m}, nil
}

// FilterByReferenceValue keeps the pools worth at least minValue reference units.
func (p *Pipeline) FilterByReferenceValue(ctx context.Context, pools []pool.Pool, query pool.ValueQuery, minValue decimal.Decimal) ([]pool.Pool, error) {
	valued, err := p.ReferenceValued(ctx, pools, query, minValue)
	if err != nil {
		return nil, err
	}
	return Pools(valued), nil
}

// FilterByFiatValue keeps the pools worth at least minValue in the fiat unit priced
// by fiatPool, a pool pairing the reference asset with a fiat stable token.
func (p *Pipeline) FilterByFiatValue(ctx context.Context, pools []pool.Pool, query pool.ValueQuery, fiatPool pool.Pool, minValue decimal.Decimal) ([]pool.Pool, error) {
	valued, err := p.FiatValued(ctx, pools, query, fiatPool, minValue)
	if err != nil {
		return nil, err
	}
	return Pools(valued), nil
}

// ReferenceValued is FilterByReferenceValue returning the values alongside the pools.
func (p *Pipeline) ReferenceValued(ctx context.Context, pools []pool.Pool, query pool.ValueQuery, minValue decimal.Decimal) ([]Valued, error) {
	const stage = "reference"
	defer p.metrics.ObserveStage(stage, time.Now())

	values, err := p.values(ctx, pools, query)
	if err != nil {
		return nil, err
	}

	out := make([]Valued, 0, len(pools))
	for i, value := range values {
		if value.GreaterThanOrEqual(minValue) {
			out = append(out, Valued{Pool: pools[i], ReferenceValue: value})
		}
	}
	p.report(stage, len(pools), len(out), minValue)
	return out, nil
}

// FiatValued is FilterByFiatValue returning the values alongside the pools.
func (p *Pipeline) FiatValued(ctx context.Context, pools []pool.Pool, query pool.ValueQuery, fiatPool pool.Pool, minValue decimal.Decimal) ([]Valued, error) {
	const stage = "fiat"
	defer p.metrics.ObserveStage(stage, time.Now())

	if len(pools) == 0 {
		p.report(stage, 0, 0, minValue)
		return []Valued{}, nil
	}

	rate, err := FiatRate(fiatPool, query)
	if err != nil {
		return nil, err
	}

	values, err := p.values(ctx, pools, query)
	if err != nil {
		return nil, err
	}

	out := make([]Valued, 0, len(pools))
	for i, value := range values {
		fiat := value.Mul(rate)
		if fiat.GreaterThanOrEqual(minValue) {
			out = append(out, Valued{Pool: pools[i], ReferenceValue: value, FiatValue: fiat})
		}
	}
	p.report(stage, len(pools), len(out), minValue)
	return out, nil
}

// FiatRate returns the fiat price of one whole reference unit from fiatPool.
func FiatRate(fiatPool pool.Pool, query pool.ValueQuery) (decimal.Decimal, error) {
	if fiatPool == nil {
		return decimal.Zero, errors.New("fiat reference pool is nil")
	}
	rate, err := fiatPool.PriceOf(query.Reference)
	if err != nil {
		return decimal.Zero, fmt.Errorf("fiat rate from %s: %w", fiatPool.Address().Hex(), err)
	}
	if math.IsInf(rate, 0) || math.IsNaN(rate) {
		return decimal.Zero, fmt.Errorf("fiat rate from %s: %w", fiatPool.Address().Hex(), pool.ErrPriceOutOfRange)
	}
	return decimal.NewFromFloat(rate), nil
}

func (p *Pipeline) values(ctx context.Context, pools []pool.Pool, query pool.ValueQuery) ([]decimal.Decimal, error) {
	if len(pools) == 0 {
		return nil, nil
	}
	values, err := p.valuer.ReferenceValues(ctx, pools, query)
	if err != nil {
		p.metrics.Error("valuation")
		return nil, fmt.Errorf("value pools: %w", err)
	}
	if len(values) != len(pools) {
		return nil, fmt.Errorf("valuer returned %d values for %d pools", len(values), len(pools))
	}
	return values, nil
}

func (p *Pipeline) report(stage string, total, kept int, threshold decimal.Decimal) {
	p.metrics.Evaluated(stage, kept, total-kept)
	p.logger.Info("value filter done",
		zap.String("stage", stage),
		zap.Int("pools", total),
		zap.Int("kept", kept),
		zap.String("threshold", threshold.String()),
	)
}
