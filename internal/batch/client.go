package batch

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"poolFilter/internal/metrics"
	"poolFilter/internal/pool"
)

// ValueDecimals is the fixed point precision of the values returned by the batch program.
const ValueDecimals = 18

// Caller executes a read-only call. *chain.Client implements it.
type Caller interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

type Options struct {
	// BatchSize caps the pools per round trip. Defaults to DefaultBatchSize.
	BatchSize int
	// BlockNumber pins every group to one block. Nil means latest.
	BlockNumber *big.Int
	Logger      *zap.Logger
	Metrics     *metrics.Metrics
}

// Client pages pools through a Codec, one round trip per group, and stitches the
// results back together in input order.
type Client struct {
	caller    Caller
	codec     Codec
	batchSize int
	block     *big.Int
	logger    *zap.Logger
	metrics   *metrics.Metrics
}

func NewClient(caller Caller, codec Codec, opts Options) (*Client, error) {
	if caller == nil {
		return nil, fmt.Errorf("batch caller is nil")
	}
	if codec == nil {
		return nil, fmt.Errorf("batch codec is nil")
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Client{
		caller:    caller,
		codec:     codec,
		batchSize: opts.BatchSize,
		block:     opts.BlockNumber,
		logger:    opts.Logger,
		metrics:   opts.Metrics,
	}, nil
}

// Values returns one raw value per pool address. A pool whose tokens cannot be
// priced comes back as zero. No values are returned when any group fails.
func (c *Client) Values(ctx context.Context, pools []common.Address, query pool.ValueQuery) ([]*big.Int, error) {
	groups, err := SplitGroups(len(pools), c.batchSize)
	if err != nil {
		return nil, err
	}

	out := make([]*big.Int, 0, len(pools))
	for i, group := range groups {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		req := Request{
			Pools:        pools[group.From:group.To],
			Dexes:        query.Dexes,
			Reference:    query.Reference,
			MinLiquidity: query.MinLiquidity,
		}
		msg, err := c.codec.Encode(req)
		if err != nil {
			return nil, fmt.Errorf("encode batch group %d: %w", i, err)
		}

		c.logger.Debug("batch round trip", zap.Int("group", i), zap.Int("from", group.From), zap.Int("to", group.To))
		c.metrics.RoundTrip()
		resp, err := c.caller.CallContract(ctx, msg, c.block)
		if err != nil {
			return nil, fmt.Errorf("batch group %d: %w", i, err)
		}

		values, err := c.codec.Decode(req, resp)
		if err != nil {
			return nil, &DecodeError{Group: i, Err: err}
		}
		out = append(out, values...)
	}

	return out, nil
}

// ReferenceValues values pools in whole reference units, in input order.
func (c *Client) ReferenceValues(ctx context.Context, pools []pool.Pool, query pool.ValueQuery) ([]decimal.Decimal, error) {
	values := make([]decimal.Decimal, len(pools))
	if len(pools) == 0 {
		return values, nil
	}
	defer c.metrics.ObserveStage("batch_valuation", time.Now())

	addresses := make([]common.Address, len(pools))
	for i, p := range pools {
		addresses[i] = p.Address()
	}

	raw, err := c.Values(ctx, addresses, query)
	if err != nil {
		return nil, err
	}
	for i, v := range raw {
		values[i] = decimal.NewFromBigInt(v, -ValueDecimals)
	}
	return values, nil
}
