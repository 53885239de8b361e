package pool

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// ConstantProductPool is a Uniswap V2 style pair snapshot.
type ConstantProductPool struct {
	address   common.Address
	token0    common.Address
	token1    common.Address
	decimals0 uint8
	decimals1 uint8
	reserve0  *uint256.Int
	reserve1  *uint256.Int
}

// NewConstantProductPool builds a pair snapshot. Nil reserves are treated as zero.
func NewConstantProductPool(address, token0, token1 common.Address, decimals0, decimals1 uint8, reserve0, reserve1 *uint256.Int) *ConstantProductPool {
	return &ConstantProductPool{
		address:   address,
		token0:    token0,
		token1:    token1,
		decimals0: decimals0,
		decimals1: decimals1,
		reserve0:  orZero(reserve0),
		reserve1:  orZero(reserve1),
	}
}

func (p *ConstantProductPool) Address() common.Address { return p.address }

func (p *ConstantProductPool) Variant() Variant { return ConstantProduct }

func (p *ConstantProductPool) Tokens() (common.Address, common.Address) {
	return p.token0, p.token1
}

func (p *ConstantProductPool) Decimals() (uint8, uint8) {
	return p.decimals0, p.decimals1
}

func (p *ConstantProductPool) Reserves() (*uint256.Int, *uint256.Int) {
	return p.reserve0.Clone(), p.reserve1.Clone()
}

// PriceOf returns reserveOther/reserveToken, both normalized by their decimals.
func (p *ConstantProductPool) PriceOf(token common.Address) (float64, error) {
	var base, quote *uint256.Int
	var baseDec, quoteDec uint8
	switch token {
	case p.token0:
		base, quote = p.reserve0, p.reserve1
		baseDec, quoteDec = p.decimals0, p.decimals1
	case p.token1:
		base, quote = p.reserve1, p.reserve0
		baseDec, quoteDec = p.decimals1, p.decimals0
	default:
		return 0, fmt.Errorf("%w: %s in %s", ErrTokenNotInPool, token.Hex(), p.address.Hex())
	}
	if base.IsZero() || quote.IsZero() {
		return 0, fmt.Errorf("%w: %s", ErrEmptyReserves, p.address.Hex())
	}

	price := new(big.Float).Quo(WholeUnits(quote.ToBig(), quoteDec), WholeUnits(base.ToBig(), baseDec))
	return finitePrice(price, p.address)
}

func orZero(v *uint256.Int) *uint256.Int {
	if v == nil {
		return new(uint256.Int)
	}
	return v.Clone()
}
