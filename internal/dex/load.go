package dex

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"poolFilter/internal/pool"
)

// LoadPool reads the live state of the pool at address, pinned to blockNumber when
// it is non-nil. The pool's own token0/token1 are used, so no factory is needed.
func LoadPool(ctx context.Context, caller Caller, address common.Address, variant pool.Variant, blockNumber *big.Int, logger *zap.Logger) (pool.Pool, error) {
	if caller == nil {
		return nil, fmt.Errorf("chain caller is nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	var parsed abi.ABI
	var err error
	switch variant {
	case pool.ConstantProduct:
		parsed, err = V2PairABI()
	case pool.ConcentratedLiquidity:
		parsed, err = V3PoolABI()
	default:
		return nil, fmt.Errorf("unsupported pool variant: %s", variant)
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s pool abi: %w", variant, err)
	}

	token0, err := callAddress(ctx, caller, blockNumber, address, parsed, "token0")
	if err != nil {
		return nil, err
	}
	token1, err := callAddress(ctx, caller, blockNumber, address, parsed, "token1")
	if err != nil {
		return nil, err
	}
	decimals0, err := TokenDecimals(ctx, caller, token0, nil, logger)
	if err != nil {
		return nil, fmt.Errorf("token0 decimals: %w", err)
	}
	decimals1, err := TokenDecimals(ctx, caller, token1, nil, logger)
	if err != nil {
		return nil, fmt.Errorf("token1 decimals: %w", err)
	}

	if variant == pool.ConstantProduct {
		values, err := callMethodAt(ctx, caller, blockNumber, address, parsed, "getReserves")
		if err != nil {
			return nil, err
		}
		if len(values) < 2 {
			return nil, fmt.Errorf("getReserves on %s: %d values", address.Hex(), len(values))
		}
		reserve0, err := asUint256(values[0])
		if err != nil {
			return nil, fmt.Errorf("reserve0: %w", err)
		}
		reserve1, err := asUint256(values[1])
		if err != nil {
			return nil, fmt.Errorf("reserve1: %w", err)
		}
		return pool.NewConstantProductPool(address, token0, token1, decimals0, decimals1, reserve0, reserve1), nil
	}

	values, err := callMethodAt(ctx, caller, blockNumber, address, parsed, "fee")
	if err != nil {
		return nil, err
	}
	fee, err := asBigInt(values[0])
	if err != nil {
		return nil, fmt.Errorf("fee: %w", err)
	}
	values, err = callMethodAt(ctx, caller, blockNumber, address, parsed, "slot0")
	if err != nil {
		return nil, err
	}
	sqrtPrice, err := asUint256(values[0])
	if err != nil {
		return nil, fmt.Errorf("slot0 sqrt price: %w", err)
	}
	values, err = callMethodAt(ctx, caller, blockNumber, address, parsed, "liquidity")
	if err != nil {
		return nil, err
	}
	liquidity, err := asUint256(values[0])
	if err != nil {
		return nil, fmt.Errorf("liquidity: %w", err)
	}
	return pool.NewConcentratedPool(address, token0, token1, decimals0, decimals1, uint32(fee.Uint64()), sqrtPrice, liquidity), nil
}

func callAddress(ctx context.Context, caller Caller, blockNumber *big.Int, to common.Address, parsed abi.ABI, method string) (common.Address, error) {
	values, err := callMethodAt(ctx, caller, blockNumber, to, parsed, method)
	if err != nil {
		return common.Address{}, err
	}
	addr, err := asAddress(values[0])
	if err != nil {
		return common.Address{}, fmt.Errorf("%s: %w", method, err)
	}
	return addr, nil
}
