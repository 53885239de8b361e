package pool

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// ConcentratedPool is a Uniswap V3 style pool snapshot at its current tick.
type ConcentratedPool struct {
	address      common.Address
	token0       common.Address
	token1       common.Address
	decimals0    uint8
	decimals1    uint8
	fee          uint32
	sqrtPriceX96 *uint256.Int
	liquidity    *uint256.Int
}

func NewConcentratedPool(address, token0, token1 common.Address, decimals0, decimals1 uint8, fee uint32, sqrtPriceX96, liquidity *uint256.Int) *ConcentratedPool {
	return &ConcentratedPool{
		address:      address,
		token0:       token0,
		token1:       token1,
		decimals0:    decimals0,
		decimals1:    decimals1,
		fee:          fee,
		sqrtPriceX96: orZero(sqrtPriceX96),
		liquidity:    orZero(liquidity),
	}
}

func (p *ConcentratedPool) Address() common.Address { return p.address }

func (p *ConcentratedPool) Variant() Variant { return ConcentratedLiquidity }

func (p *ConcentratedPool) Tokens() (common.Address, common.Address) {
	return p.token0, p.token1
}

func (p *ConcentratedPool) Decimals() (uint8, uint8) {
	return p.decimals0, p.decimals1
}

// Fee is the pool fee in hundredths of a basis point.
func (p *ConcentratedPool) Fee() uint32 { return p.fee }

// Reserves returns virtual reserves x = L*2^96/sqrtP and y = L*sqrtP/2^96.
func (p *ConcentratedPool) Reserves() (*uint256.Int, *uint256.Int) {
	if p.sqrtPriceX96.IsZero() || p.liquidity.IsZero() {
		return new(uint256.Int), new(uint256.Int)
	}
	liq := p.liquidity.ToBig()
	sqrtPrice := p.sqrtPriceX96.ToBig()

	x := new(big.Int).Mul(liq, q96)
	x.Quo(x, sqrtPrice)
	y := new(big.Int).Mul(liq, sqrtPrice)
	y.Quo(y, q96)

	return saturate(x), saturate(y)
}

// PriceOf derives the price from sqrtPriceX96: token0 in token1 is (sqrtP/2^96)^2
// scaled by 10^(decimals0-decimals1); token1 is the reciprocal.
func (p *ConcentratedPool) PriceOf(token common.Address) (float64, error) {
	if token != p.token0 && token != p.token1 {
		return 0, fmt.Errorf("%w: %s in %s", ErrTokenNotInPool, token.Hex(), p.address.Hex())
	}
	if p.sqrtPriceX96.IsZero() {
		return 0, fmt.Errorf("%w: %s", ErrEmptyReserves, p.address.Hex())
	}

	ratio := new(big.Float).SetInt(p.sqrtPriceX96.ToBig())
	ratio.Quo(ratio, new(big.Float).SetInt(q96))
	price0 := new(big.Float).Mul(ratio, ratio)
	price0.Mul(price0, new(big.Float).SetInt(ScaledDecimal(p.decimals0)))
	price0.Quo(price0, new(big.Float).SetInt(ScaledDecimal(p.decimals1)))

	if token == p.token0 {
		return finitePrice(price0, p.address)
	}
	if price0.Sign() == 0 {
		return 0, fmt.Errorf("%w: %s", ErrEmptyReserves, p.address.Hex())
	}
	return finitePrice(new(big.Float).Quo(big.NewFloat(1), price0), p.address)
}

func saturate(v *big.Int) *uint256.Int {
	out, overflow := uint256.FromBig(v)
	if overflow {
		return new(uint256.Int).SetAllOne()
	}
	return out
}
