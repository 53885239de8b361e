package pool

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	poolAddr = common.HexToAddress("0x1111111111111111111111111111111111111111")
	tokenA   = common.HexToAddress("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	tokenB   = common.HexToAddress("0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")
	stranger = common.HexToAddress("0xcccccccccccccccccccccccccccccccccccccccc")
)

func units(n uint64, dec uint8) *uint256.Int {
	v, _ := uint256.FromBig(new(big.Int).Mul(new(big.Int).SetUint64(n), ScaledDecimal(dec)))
	return v
}

func TestParseVariant(t *testing.T) {
	for _, input := range []string{"v2", "UniswapV2", " constant-product "} {
		v, err := ParseVariant(input)
		require.NoError(t, err)
		assert.Equal(t, ConstantProduct, v)
	}
	for _, input := range []string{"v3", "uniswap-v3", "concentrated-liquidity"} {
		v, err := ParseVariant(input)
		require.NoError(t, err)
		assert.Equal(t, ConcentratedLiquidity, v)
	}
	_, err := ParseVariant("curve")
	assert.Error(t, err)
}

func TestConstantProductPriceOf(t *testing.T) {
	// 10 A (18 decimals) against 20000 B (6 decimals): 1 A = 2000 B.
	p := NewConstantProductPool(poolAddr, tokenA, tokenB, 18, 6, units(10, 18), units(20000, 6))

	priceA, err := p.PriceOf(tokenA)
	require.NoError(t, err)
	assert.InDelta(t, 2000.0, priceA, 1e-9)

	priceB, err := p.PriceOf(tokenB)
	require.NoError(t, err)
	assert.InDelta(t, 0.0005, priceB, 1e-12)

	_, err = p.PriceOf(stranger)
	assert.ErrorIs(t, err, ErrTokenNotInPool)
}

func TestConstantProductEmptyReserves(t *testing.T) {
	p := NewConstantProductPool(poolAddr, tokenA, tokenB, 18, 18, nil, units(1, 18))
	_, err := p.PriceOf(tokenA)
	assert.ErrorIs(t, err, ErrEmptyReserves)
}

func TestConstantProductReservesAreCopies(t *testing.T) {
	p := NewConstantProductPool(poolAddr, tokenA, tokenB, 18, 18, units(1, 18), units(2, 18))
	r0, _ := p.Reserves()
	r0.SetUint64(0)

	again, _ := p.Reserves()
	assert.False(t, again.IsZero())
}

func TestConcentratedPriceAndVirtualReserves(t *testing.T) {
	// sqrtPriceX96 = 2 * 2^96 means price0 = 4 with equal decimals.
	sqrtPrice, _ := uint256.FromBig(new(big.Int).Lsh(big.NewInt(2), 96))
	liquidity := uint256.NewInt(1_000_000)
	p := NewConcentratedPool(poolAddr, tokenA, tokenB, 18, 18, 3000, sqrtPrice, liquidity)

	price0, err := p.PriceOf(tokenA)
	require.NoError(t, err)
	assert.InDelta(t, 4.0, price0, 1e-12)

	price1, err := p.PriceOf(tokenB)
	require.NoError(t, err)
	assert.InDelta(t, 0.25, price1, 1e-12)

	x, y := p.Reserves()
	assert.Equal(t, uint64(500_000), x.Uint64())
	assert.Equal(t, uint64(2_000_000), y.Uint64())
	assert.Equal(t, uint32(3000), p.Fee())
}

func TestConcentratedEmpty(t *testing.T) {
	p := NewConcentratedPool(poolAddr, tokenA, tokenB, 18, 18, 500, nil, nil)
	x, y := p.Reserves()
	assert.True(t, x.IsZero())
	assert.True(t, y.IsZero())

	_, err := p.PriceOf(tokenA)
	assert.ErrorIs(t, err, ErrEmptyReserves)
}

func TestReserveOf(t *testing.T) {
	p := NewConstantProductPool(poolAddr, tokenA, tokenB, 18, 6, units(3, 18), units(7, 6))

	r, dec, err := ReserveOf(p, tokenB)
	require.NoError(t, err)
	assert.Equal(t, uint8(6), dec)
	assert.Equal(t, units(7, 6), r)

	_, _, err = ReserveOf(p, stranger)
	assert.ErrorIs(t, err, ErrTokenNotInPool)

	assert.True(t, HasToken(p, tokenA))
	assert.False(t, HasToken(p, stranger))
	assert.Equal(t, []common.Address{tokenA, tokenB}, TokensOf(p))
}

func TestScaledDecimal(t *testing.T) {
	assert.Equal(t, "1000000", ScaledDecimal(6).String())
	assert.Equal(t, "1000000000000000000000", ScaledDecimal(21).String())
}

func TestPriceOutOfRange(t *testing.T) {
	// 2^256-1 whole B against 10^-255 A overflows float64.
	cp := NewConstantProductPool(poolAddr, tokenA, tokenB, 255, 0, uint256.NewInt(1), new(uint256.Int).SetAllOne())
	_, err := cp.PriceOf(tokenA)
	assert.ErrorIs(t, err, ErrPriceOutOfRange)

	priceB, err := cp.PriceOf(tokenB)
	require.NoError(t, err)
	assert.Zero(t, priceB)

	sqrtPrice, _ := uint256.FromBig(new(big.Int).Lsh(big.NewInt(1), 200))
	cl := NewConcentratedPool(poolAddr, tokenA, tokenB, 255, 0, 3000, sqrtPrice, uint256.NewInt(1))
	_, err = cl.PriceOf(tokenA)
	assert.ErrorIs(t, err, ErrPriceOutOfRange)
}
