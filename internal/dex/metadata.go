package dex

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"poolFilter/internal/chain"
)

// Caller performs read-only contract calls. *chain.Client implements it.
type Caller interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// TokenMeta is the ERC20 metadata price discovery needs.
type TokenMeta struct {
	Address  string `json:"address"`
	Decimals uint8  `json:"decimals"`
}

// TokenMetaCache caches token metadata by address.
type TokenMetaCache struct {
	mu   sync.RWMutex
	data map[common.Address]TokenMeta
}

func NewTokenMetaCache() *TokenMetaCache {
	return &TokenMetaCache{data: make(map[common.Address]TokenMeta)}
}

func (c *TokenMetaCache) Get(address common.Address) (TokenMeta, bool) {
	c.mu.RLock()
	meta, ok := c.data[address]
	c.mu.RUnlock()
	return meta, ok
}

func (c *TokenMetaCache) Set(address common.Address, meta TokenMeta) {
	c.mu.Lock()
	c.data[address] = meta
	c.mu.Unlock()
}

// TokenDecimals returns token decimals, consulting cache first when it is non-nil.
func TokenDecimals(ctx context.Context, caller Caller, token common.Address, cache *TokenMetaCache, logger *zap.Logger) (uint8, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cache != nil {
		if meta, ok := cache.Get(token); ok {
			return meta.Decimals, nil
		}
	}
	meta, err := FetchTokenMeta(ctx, caller, token)
	if err != nil {
		return 0, err
	}
	logger.Debug("token decimals loaded", zap.String("token", token.Hex()), zap.Uint8("decimals", meta.Decimals))
	if cache != nil {
		cache.Set(token, meta)
	}
	return meta.Decimals, nil
}

// FetchTokenMeta loads token metadata with a single decimals() call.
func FetchTokenMeta(ctx context.Context, caller Caller, token common.Address) (TokenMeta, error) {
	meta := TokenMeta{Address: token.Hex()}
	if caller == nil {
		return meta, fmt.Errorf("chain caller is nil")
	}

	erc20, err := erc20ABI.get()
	if err != nil {
		return meta, fmt.Errorf("parse erc20 abi: %w", err)
	}
	values, err := callMethod(ctx, caller, token, erc20, "decimals")
	if err != nil {
		return meta, err
	}
	decimals, err := asUint8(values[0])
	if err != nil {
		return meta, err
	}
	meta.Decimals = decimals
	return meta, nil
}

// callMethod packs, calls and unpacks a view method at the latest block.
func callMethod(ctx context.Context, caller Caller, to common.Address, parsed abi.ABI, method string, args ...interface{}) ([]interface{}, error) {
	return callMethodAt(ctx, caller, nil, to, parsed, method, args...)
}

// callMethodAt is callMethod pinned to blockNumber; nil means latest. An empty
// return means the target has no such code and is reported as a contract-level
// rejection.
func callMethodAt(ctx context.Context, caller Caller, blockNumber *big.Int, to common.Address, parsed abi.ABI, method string, args ...interface{}) ([]interface{}, error) {
	data, err := parsed.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}
	msg := ethereum.CallMsg{To: &to, Data: data}
	resp, err := caller.CallContract(ctx, msg, blockNumber)
	if err != nil {
		return nil, fmt.Errorf("call %s on %s: %w", method, to.Hex(), err)
	}
	if len(resp) == 0 {
		return nil, fmt.Errorf("call %s on %s: empty return: %w", method, to.Hex(), chain.ErrContractCall)
	}
	values, err := parsed.Unpack(method, resp)
	if err != nil {
		return nil, fmt.Errorf("unpack %s on %s: %w", method, to.Hex(), chain.ErrContractCall)
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("unpack %s on %s: no values: %w", method, to.Hex(), chain.ErrContractCall)
	}
	return values, nil
}

func asAddress(value interface{}) (common.Address, error) {
	switch v := value.(type) {
	case common.Address:
		return v, nil
	case *common.Address:
		return *v, nil
	default:
		return common.Address{}, fmt.Errorf("unsupported address type %T", value)
	}
}

func asBigInt(value interface{}) (*big.Int, error) {
	switch v := value.(type) {
	case *big.Int:
		return new(big.Int).Set(v), nil
	case big.Int:
		return new(big.Int).Set(&v), nil
	case uint8:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint16:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint32:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint64:
		return new(big.Int).SetUint64(v), nil
	default:
		return nil, fmt.Errorf("unsupported int type %T", value)
	}
}

func asUint8(value interface{}) (uint8, error) {
	switch v := value.(type) {
	case uint8:
		return v, nil
	case *big.Int:
		return uint8(v.Uint64()), nil
	default:
		return 0, fmt.Errorf("unsupported uint8 type %T", value)
	}
}
