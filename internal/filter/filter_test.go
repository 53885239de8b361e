package filter

import (
	"context"
	"errors"
	"math/big"
	"math/rand"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"poolFilter/internal/chain"
	"poolFilter/internal/pool"
)

var (
	reference = common.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2")
	usdc      = common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48")
)

func addr(n int64) common.Address {
	return common.BigToAddress(big.NewInt(n))
}

func testPool(address, tokenA, tokenB common.Address) pool.Pool {
	return pool.NewConstantProductPool(address, tokenA, tokenB, 18, 18, uint256.NewInt(1), uint256.NewInt(1))
}

func addresses(pools []pool.Pool) []common.Address {
	out := make([]common.Address, len(pools))
	for i, p := range pools {
		out[i] = p.Address()
	}
	return out
}

func TestBlacklistFilters(t *testing.T) {
	pools := []pool.Pool{
		testPool(addr(100), addr(1), addr(2)),
		testPool(addr(101), addr(2), addr(3)),
		testPool(addr(102), addr(3), addr(4)),
		testPool(addr(103), addr(4), addr(5)),
	}
	blacklist := NewBlacklist(addr(2), addr(103))

	assert.Equal(t, []common.Address{addr(102), addr(103)}, addresses(FilterBlacklistedTokens(pools, blacklist)))
	assert.Equal(t, []common.Address{addr(100), addr(101), addr(102)}, addresses(FilterBlacklistedPools(pools, blacklist)))
	assert.Equal(t, []common.Address{addr(102)}, addresses(FilterBlacklistedAddresses(pools, blacklist)))

	assert.Len(t, FilterBlacklistedAddresses(pools, nil), len(pools))
	assert.Empty(t, FilterBlacklistedTokens(nil, blacklist))
}

func TestBlacklistProperties(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for round := 0; round < 50; round++ {
		pools := make([]pool.Pool, 20)
		for i := range pools {
			pools[i] = testPool(addr(int64(100+rng.Intn(30))), addr(int64(1+rng.Intn(10))), addr(int64(1+rng.Intn(10))))
		}
		blacklist := NewBlacklist()
		for i := 0; i < 4; i++ {
			blacklist.Add(addr(int64(1 + rng.Intn(10))))
			blacklist.Add(addr(int64(100 + rng.Intn(30))))
		}

		byToken := FilterBlacklistedTokens(pools, blacklist)
		var want []common.Address
		for _, p := range pools {
			a, b := p.Tokens()
			if !blacklist.Contains(a) && !blacklist.Contains(b) {
				want = append(want, p.Address())
			}
		}
		assert.Equal(t, len(want), len(byToken))
		if len(want) > 0 {
			assert.Equal(t, want, addresses(byToken))
		}

		byPool := FilterBlacklistedPools(pools, blacklist)
		combined := FilterBlacklistedAddresses(pools, blacklist)
		for _, p := range combined {
			assert.Contains(t, byToken, p)
			assert.Contains(t, byPool, p)
		}
	}
}

// fixedValuer values pools from a table keyed by pool address.
type fixedValuer struct {
	values map[common.Address]decimal.Decimal
	err    error
	calls  int
}

func (v *fixedValuer) ReferenceValues(_ context.Context, pools []pool.Pool, _ pool.ValueQuery) ([]decimal.Decimal, error) {
	v.calls++
	if v.err != nil {
		return nil, v.err
	}
	out := make([]decimal.Decimal, len(pools))
	for i, p := range pools {
		out[i] = v.values[p.Address()]
	}
	return out, nil
}

// fiatPool prices one reference unit at 2000 fiat units.
func fiatPool() pool.Pool {
	return pool.NewConstantProductPool(addr(900), usdc, reference, 6, 18,
		uint256.MustFromDecimal("20000000000"), uint256.MustFromDecimal("10000000000000000000"))
}

func TestFilterByFiatValue(t *testing.T) {
	p := testPool(addr(100), addr(1), reference)
	valuer := &fixedValuer{values: map[common.Address]decimal.Decimal{p.Address(): decimal.NewFromInt(10)}}
	pipeline, err := NewPipeline(valuer, nil, nil)
	require.NoError(t, err)
	query := pool.ValueQuery{Reference: reference}

	rate, err := FiatRate(fiatPool(), query)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(2000).Equal(rate), rate.String())

	kept, err := pipeline.FilterByFiatValue(context.Background(), []pool.Pool{p}, query, fiatPool(), decimal.NewFromInt(15000))
	require.NoError(t, err)
	assert.Len(t, kept, 1)

	kept, err = pipeline.FilterByFiatValue(context.Background(), []pool.Pool{p}, query, fiatPool(), decimal.NewFromInt(25000))
	require.NoError(t, err)
	assert.Empty(t, kept)

	valued, err := pipeline.FiatValued(context.Background(), []pool.Pool{p}, query, fiatPool(), decimal.NewFromInt(20000))
	require.NoError(t, err)
	require.Len(t, valued, 1)
	assert.True(t, decimal.NewFromInt(20000).Equal(valued[0].FiatValue))
	assert.True(t, decimal.NewFromInt(10).Equal(valued[0].ReferenceValue))
}

func TestFiatRateOutOfRange(t *testing.T) {
	extreme := pool.NewConstantProductPool(addr(901), usdc, reference, 0, 255,
		new(uint256.Int).SetAllOne(), uint256.NewInt(1))

	_, err := FiatRate(extreme, pool.ValueQuery{Reference: reference})
	assert.ErrorIs(t, err, pool.ErrPriceOutOfRange)
}

func TestFilterByFiatValueEmptyInput(t *testing.T) {
	valuer := &fixedValuer{}
	pipeline, err := NewPipeline(valuer, nil, nil)
	require.NoError(t, err)

	// The fiat pool is not consulted when there is nothing to value.
	kept, err := pipeline.FilterByFiatValue(context.Background(), nil, pool.ValueQuery{Reference: reference}, nil, decimal.NewFromInt(1))
	require.NoError(t, err)
	assert.NotNil(t, kept)
	assert.Empty(t, kept)
	assert.Zero(t, valuer.calls)
}

func TestFilterByReferenceValue(t *testing.T) {
	threshold := decimal.RequireFromString("5")
	epsilon := decimal.New(1, -18)

	pools := []pool.Pool{
		testPool(addr(100), addr(1), reference),
		testPool(addr(101), addr(2), reference),
		testPool(addr(102), addr(3), reference),
		testPool(addr(103), addr(4), reference),
	}
	valuer := &fixedValuer{values: map[common.Address]decimal.Decimal{
		addr(100): decimal.NewFromInt(9),
		addr(101): threshold.Sub(epsilon),
		addr(102): threshold,
		// addr(103) has no reference pool and is valued at zero
	}}
	pipeline, err := NewPipeline(valuer, nil, nil)
	require.NoError(t, err)

	kept, err := pipeline.FilterByReferenceValue(context.Background(), pools, pool.ValueQuery{Reference: reference}, threshold)
	require.NoError(t, err)
	assert.Equal(t, []common.Address{addr(100), addr(102)}, addresses(kept))
}

func TestFilterEmptyInput(t *testing.T) {
	valuer := &fixedValuer{}
	pipeline, err := NewPipeline(valuer, nil, nil)
	require.NoError(t, err)

	kept, err := pipeline.FilterByReferenceValue(context.Background(), nil, pool.ValueQuery{Reference: reference}, decimal.NewFromInt(1))
	require.NoError(t, err)
	assert.NotNil(t, kept)
	assert.Empty(t, kept)
	assert.Zero(t, valuer.calls)
}

func TestFilterErrorsReturnNoPools(t *testing.T) {
	valuer := &fixedValuer{err: &chain.TransportError{Method: "eth_call", Err: errors.New("connection reset")}}
	pipeline, err := NewPipeline(valuer, nil, nil)
	require.NoError(t, err)

	pools := []pool.Pool{testPool(addr(100), addr(1), reference)}
	kept, err := pipeline.FilterByReferenceValue(context.Background(), pools, pool.ValueQuery{Reference: reference}, decimal.Zero)
	require.Error(t, err)
	assert.Nil(t, kept)
	assert.True(t, chain.IsTransportError(err))

	_, err = pipeline.FilterByFiatValue(context.Background(), pools, pool.ValueQuery{Reference: reference}, nil, decimal.Zero)
	assert.Error(t, err)

	_, err = NewPipeline(nil, nil, nil)
	assert.Error(t, err)
}
