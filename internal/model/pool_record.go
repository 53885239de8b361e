package model

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"poolFilter/internal/pool"
)

// PoolRecord is one synced pool snapshot, as read from the input JSONL.
// Concentrated liquidity pools carry sqrt price and liquidity instead of reserves.
// Factory is the exchange that created the pool; it is optional and is copied to
// the filter output.
type PoolRecord struct {
	Address      string `json:"address"`
	Variant      string `json:"variant"`
	Factory      string `json:"factory,omitempty"`
	Token0       string `json:"token0"`
	Token1       string `json:"token1"`
	Decimals0    uint8  `json:"decimals0"`
	Decimals1    uint8  `json:"decimals1"`
	Reserve0     string `json:"reserve0,omitempty"`
	Reserve1     string `json:"reserve1,omitempty"`
	Fee          uint32 `json:"fee,omitempty"`
	SqrtPriceX96 string `json:"sqrt_price_x96,omitempty"`
	Liquidity    string `json:"liquidity,omitempty"`
}

// ToPool converts the record into a pool snapshot.
func (r PoolRecord) ToPool() (pool.Pool, error) {
	variant, err := pool.ParseVariant(r.Variant)
	if err != nil {
		return nil, err
	}
	address, err := parseAddress("address", r.Address)
	if err != nil {
		return nil, err
	}
	token0, err := parseAddress("token0", r.Token0)
	if err != nil {
		return nil, err
	}
	token1, err := parseAddress("token1", r.Token1)
	if err != nil {
		return nil, err
	}
	if r.Factory != "" {
		if _, err := parseAddress("factory", r.Factory); err != nil {
			return nil, err
		}
	}

	switch variant {
	case pool.ConstantProduct:
		reserve0, err := parseUint256("reserve0", r.Reserve0)
		if err != nil {
			return nil, err
		}
		reserve1, err := parseUint256("reserve1", r.Reserve1)
		if err != nil {
			return nil, err
		}
		return pool.NewConstantProductPool(address, token0, token1, r.Decimals0, r.Decimals1, reserve0, reserve1), nil
	case pool.ConcentratedLiquidity:
		sqrtPrice, err := parseUint256("sqrt_price_x96", r.SqrtPriceX96)
		if err != nil {
			return nil, err
		}
		liquidity, err := parseUint256("liquidity", r.Liquidity)
		if err != nil {
			return nil, err
		}
		return pool.NewConcentratedPool(address, token0, token1, r.Decimals0, r.Decimals1, r.Fee, sqrtPrice, liquidity), nil
	default:
		return nil, fmt.Errorf("unsupported pool variant: %s", variant)
	}
}

func parseAddress(field, value string) (common.Address, error) {
	value = strings.TrimSpace(value)
	if !common.IsHexAddress(value) {
		return common.Address{}, fmt.Errorf("invalid %s address: %q", field, value)
	}
	return common.HexToAddress(value), nil
}

// parseUint256 accepts decimal or 0x-prefixed hex. Empty means zero.
func parseUint256(field, value string) (*uint256.Int, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return new(uint256.Int), nil
	}
	if strings.HasPrefix(value, "0x") || strings.HasPrefix(value, "0X") {
		out, err := uint256.FromHex(value)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", field, err)
		}
		return out, nil
	}
	out, err := uint256.FromDecimal(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", field, err)
	}
	return out, nil
}
