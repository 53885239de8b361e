// Package pool describes the liquidity pools and exchanges the filters operate on.
//
// A Pool is an immutable snapshot taken by the upstream sync. A Dex is an exchange
// factory able to look up the deepest pool between two tokens.
package pool

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Variant identifies the AMM formula family of a pool or exchange.
type Variant uint8

const (
	// ConstantProduct is the Uniswap V2 style x*y=k family.
	ConstantProduct Variant = iota
	// ConcentratedLiquidity is the Uniswap V3 style tick range family.
	ConcentratedLiquidity
)

func (v Variant) String() string {
	switch v {
	case ConstantProduct:
		return "v2"
	case ConcentratedLiquidity:
		return "v3"
	default:
		return fmt.Sprintf("variant(%d)", uint8(v))
	}
}

// ParseVariant accepts the names used in config files and snapshot records.
func ParseVariant(input string) (Variant, error) {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "v2", "uniswapv2", "uniswap-v2", "constant-product":
		return ConstantProduct, nil
	case "v3", "uniswapv3", "uniswap-v3", "concentrated-liquidity":
		return ConcentratedLiquidity, nil
	default:
		return 0, fmt.Errorf("unsupported pool variant: %q", input)
	}
}

var (
	// ErrTokenNotInPool is returned when a pool is asked about a token it does not hold.
	ErrTokenNotInPool = errors.New("token not in pool")
	// ErrEmptyReserves is returned when a price is requested from a pool with no liquidity.
	ErrEmptyReserves = errors.New("pool has empty reserves")
	// ErrPriceOutOfRange is returned when a price does not fit a finite float64.
	ErrPriceOutOfRange = errors.New("pool price out of float64 range")
)

// Pool is a two-token liquidity venue.
type Pool interface {
	Address() common.Address
	Variant() Variant
	Tokens() (common.Address, common.Address)
	Decimals() (uint8, uint8)
	// Reserves returns raw reserves, or virtual reserves for concentrated liquidity.
	Reserves() (*uint256.Int, *uint256.Int)
	// PriceOf returns how many whole units of the other token one whole token buys.
	PriceOf(token common.Address) (float64, error)
}

// Dex is an exchange factory of a single AMM family.
type Dex interface {
	Factory() common.Address
	Variant() Variant
	// BestLiquidityPool returns the deepest pool pairing tokenA and tokenB, or nil when
	// the exchange has none.
	BestLiquidityPool(ctx context.Context, tokenA, tokenB common.Address) (Pool, error)
}

// TokensOf returns both pool tokens as a slice.
func TokensOf(p Pool) []common.Address {
	a, b := p.Tokens()
	return []common.Address{a, b}
}

// HasToken reports whether token is one of the pool's tokens.
func HasToken(p Pool, token common.Address) bool {
	a, b := p.Tokens()
	return token == a || token == b
}

// ReserveOf returns the reserve and decimals held on the side of token.
func ReserveOf(p Pool, token common.Address) (*uint256.Int, uint8, error) {
	a, b := p.Tokens()
	r0, r1 := p.Reserves()
	d0, d1 := p.Decimals()
	switch token {
	case a:
		return r0, d0, nil
	case b:
		return r1, d1, nil
	default:
		return nil, 0, fmt.Errorf("%w: %s in %s", ErrTokenNotInPool, token.Hex(), p.Address().Hex())
	}
}
