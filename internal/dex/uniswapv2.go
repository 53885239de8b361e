package dex

import (
	"bytes"
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"poolFilter/internal/pool"
)

// UniswapV2 looks up constant product pairs through a Uniswap V2 style factory.
type UniswapV2 struct {
	factory common.Address
	caller  Caller
	tokens  *TokenMetaCache
	logger  *zap.Logger
}

// NewUniswapV2 builds an adapter for factory. tokens may be shared between adapters.
func NewUniswapV2(factory common.Address, caller Caller, tokens *TokenMetaCache, logger *zap.Logger) *UniswapV2 {
	if logger == nil {
		logger = zap.NewNop()
	}
	if tokens == nil {
		tokens = NewTokenMetaCache()
	}
	return &UniswapV2{factory: factory, caller: caller, tokens: tokens, logger: logger}
}

func (d *UniswapV2) Factory() common.Address { return d.factory }

func (d *UniswapV2) Variant() pool.Variant { return pool.ConstantProduct }

// BestLiquidityPool returns the factory's only pair for the two tokens, or nil when
// the factory has not created one.
func (d *UniswapV2) BestLiquidityPool(ctx context.Context, tokenA, tokenB common.Address) (pool.Pool, error) {
	factoryABI, err := V2FactoryABI()
	if err != nil {
		return nil, fmt.Errorf("parse v2 factory abi: %w", err)
	}
	pairABI, err := V2PairABI()
	if err != nil {
		return nil, fmt.Errorf("parse v2 pair abi: %w", err)
	}

	values, err := callMethod(ctx, d.caller, d.factory, factoryABI, "getPair", tokenA, tokenB)
	if err != nil {
		return nil, err
	}
	pairAddr, err := asAddress(values[0])
	if err != nil {
		return nil, fmt.Errorf("getPair: %w", err)
	}
	if pairAddr == (common.Address{}) {
		return nil, nil
	}

	values, err = callMethod(ctx, d.caller, pairAddr, pairABI, "getReserves")
	if err != nil {
		return nil, err
	}
	if len(values) < 2 {
		return nil, fmt.Errorf("getReserves on %s: %d values", pairAddr.Hex(), len(values))
	}
	reserve0, err := asUint256(values[0])
	if err != nil {
		return nil, fmt.Errorf("reserve0: %w", err)
	}
	reserve1, err := asUint256(values[1])
	if err != nil {
		return nil, fmt.Errorf("reserve1: %w", err)
	}

	token0, token1 := SortTokens(tokenA, tokenB)
	decimals0, err := TokenDecimals(ctx, d.caller, token0, d.tokens, d.logger)
	if err != nil {
		return nil, fmt.Errorf("token0 decimals: %w", err)
	}
	decimals1, err := TokenDecimals(ctx, d.caller, token1, d.tokens, d.logger)
	if err != nil {
		return nil, fmt.Errorf("token1 decimals: %w", err)
	}

	return pool.NewConstantProductPool(pairAddr, token0, token1, decimals0, decimals1, reserve0, reserve1), nil
}

// SortTokens orders two tokens the way Uniswap factories assign token0 and token1.
func SortTokens(tokenA, tokenB common.Address) (common.Address, common.Address) {
	if bytes.Compare(tokenA.Bytes(), tokenB.Bytes()) < 0 {
		return tokenA, tokenB
	}
	return tokenB, tokenA
}

func asUint256(value interface{}) (*uint256.Int, error) {
	b, err := asBigInt(value)
	if err != nil {
		return nil, err
	}
	if b.Sign() < 0 {
		return nil, fmt.Errorf("negative value %s", b.String())
	}
	out, overflow := uint256.FromBig(b)
	if overflow {
		return nil, fmt.Errorf("value overflows uint256: %s", b.String())
	}
	return out, nil
}
