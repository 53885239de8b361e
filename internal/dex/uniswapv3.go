package dex

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"poolFilter/internal/chain"
	"poolFilter/internal/pool"
)

// DefaultFeeTiers are the Uniswap V3 fee tiers checked when none are configured.
var DefaultFeeTiers = []uint32{100, 500, 3000, 10000}

// UniswapV3 looks up concentrated liquidity pools through a Uniswap V3 style factory.
type UniswapV3 struct {
	factory  common.Address
	caller   Caller
	tokens   *TokenMetaCache
	feeTiers []uint32
	logger   *zap.Logger
}

func NewUniswapV3(factory common.Address, caller Caller, tokens *TokenMetaCache, feeTiers []uint32, logger *zap.Logger) *UniswapV3 {
	if logger == nil {
		logger = zap.NewNop()
	}
	if tokens == nil {
		tokens = NewTokenMetaCache()
	}
	if len(feeTiers) == 0 {
		feeTiers = DefaultFeeTiers
	}
	return &UniswapV3{factory: factory, caller: caller, tokens: tokens, feeTiers: feeTiers, logger: logger}
}

func (d *UniswapV3) Factory() common.Address { return d.factory }

func (d *UniswapV3) Variant() pool.Variant { return pool.ConcentratedLiquidity }

// BestLiquidityPool checks every fee tier and keeps the pool holding the largest
// virtual reserve of tokenB. A tier whose pool rejects a call is skipped.
func (d *UniswapV3) BestLiquidityPool(ctx context.Context, tokenA, tokenB common.Address) (pool.Pool, error) {
	token0, token1 := SortTokens(tokenA, tokenB)

	var best pool.Pool
	var bestReserve *uint256.Int
	for _, fee := range d.feeTiers {
		candidate, err := d.poolForFee(ctx, token0, token1, fee)
		if err != nil {
			if chain.IsContractError(err) {
				d.logger.Debug("v3 fee tier skipped", zap.String("factory", d.factory.Hex()), zap.Uint32("fee", fee), zap.Error(err))
				continue
			}
			return nil, err
		}
		if candidate == nil {
			continue
		}

		reserve, _, err := pool.ReserveOf(candidate, tokenB)
		if err != nil {
			return nil, err
		}
		if best == nil || reserve.Gt(bestReserve) {
			best = candidate
			bestReserve = reserve
		}
	}

	return best, nil
}

func (d *UniswapV3) poolForFee(ctx context.Context, token0, token1 common.Address, fee uint32) (pool.Pool, error) {
	factoryABI, err := V3FactoryABI()
	if err != nil {
		return nil, fmt.Errorf("parse v3 factory abi: %w", err)
	}
	poolABI, err := V3PoolABI()
	if err != nil {
		return nil, fmt.Errorf("parse v3 pool abi: %w", err)
	}

	values, err := callMethod(ctx, d.caller, d.factory, factoryABI, "getPool", token0, token1, bigFee(fee))
	if err != nil {
		return nil, err
	}
	poolAddr, err := asAddress(values[0])
	if err != nil {
		return nil, fmt.Errorf("getPool: %w", err)
	}
	if poolAddr == (common.Address{}) {
		return nil, nil
	}

	values, err = callMethod(ctx, d.caller, poolAddr, poolABI, "slot0")
	if err != nil {
		return nil, err
	}
	sqrtPrice, err := asUint256(values[0])
	if err != nil {
		return nil, fmt.Errorf("slot0 sqrt price: %w", err)
	}

	values, err = callMethod(ctx, d.caller, poolAddr, poolABI, "liquidity")
	if err != nil {
		return nil, err
	}
	liquidity, err := asUint256(values[0])
	if err != nil {
		return nil, fmt.Errorf("liquidity: %w", err)
	}

	decimals0, err := TokenDecimals(ctx, d.caller, token0, d.tokens, d.logger)
	if err != nil {
		return nil, fmt.Errorf("token0 decimals: %w", err)
	}
	decimals1, err := TokenDecimals(ctx, d.caller, token1, d.tokens, d.logger)
	if err != nil {
		return nil, fmt.Errorf("token1 decimals: %w", err)
	}

	return pool.NewConcentratedPool(poolAddr, token0, token1, decimals0, decimals1, fee, sqrtPrice, liquidity), nil
}

func bigFee(fee uint32) *big.Int {
	return new(big.Int).SetUint64(uint64(fee))
}
