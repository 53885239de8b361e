// Package batch values many pools per node round trip.
package batch

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"poolFilter/internal/pool"
)

// Request is one group of pools to value.
type Request struct {
	Pools        []common.Address
	Dexes        []pool.Dex
	Reference    common.Address
	MinLiquidity *uint256.Int
}

// Encoder turns a request into the call sent to the node.
type Encoder interface {
	Encode(req Request) (ethereum.CallMsg, error)
}

// Decoder turns the node's answer into one raw value per requested pool, in order.
type Decoder interface {
	Decode(req Request, data []byte) ([]*big.Int, error)
}

// Codec is an Encoder and Decoder for the same wire format.
type Codec interface {
	Encoder
	Decoder
}

var (
	constructorArgs = abi.Arguments{
		{Name: "pools", Type: mustType("address[]")},
		{Name: "factories", Type: mustType("address[]")},
		{Name: "isConcentrated", Type: mustType("bool[]")},
		{Name: "reference", Type: mustType("address")},
		{Name: "minLiquidity", Type: mustType("uint256")},
	}
	returnArgs = abi.Arguments{
		{Name: "values", Type: mustType("uint256[]")},
	}
)

func mustType(t string) abi.Type {
	typ, err := abi.NewType(t, "", nil)
	if err != nil {
		panic(err)
	}
	return typ
}

// DeployCodec runs the batch program as contract creation code inside eth_call.
// The constructor computes the values and returns them as its runtime code, so
// nothing is ever deployed.
type DeployCodec struct {
	initCode []byte
}

func NewDeployCodec(initCode []byte) (*DeployCodec, error) {
	if len(initCode) == 0 {
		return nil, errors.New("batch program init code is empty")
	}
	return &DeployCodec{initCode: append([]byte(nil), initCode...)}, nil
}

// Encode appends the ABI encoded constructor arguments to the init code. Each dex
// contributes its factory and whether it is a concentrated liquidity exchange.
func (c *DeployCodec) Encode(req Request) (ethereum.CallMsg, error) {
	factories := make([]common.Address, len(req.Dexes))
	concentrated := make([]bool, len(req.Dexes))
	for i, d := range req.Dexes {
		factories[i] = d.Factory()
		switch d.Variant() {
		case pool.ConstantProduct:
			concentrated[i] = false
		case pool.ConcentratedLiquidity:
			concentrated[i] = true
		default:
			return ethereum.CallMsg{}, fmt.Errorf("unsupported dex variant %s for %s", d.Variant(), d.Factory().Hex())
		}
	}

	minLiquidity := new(big.Int)
	if req.MinLiquidity != nil {
		minLiquidity = req.MinLiquidity.ToBig()
	}
	pools := req.Pools
	if pools == nil {
		pools = []common.Address{}
	}

	args, err := constructorArgs.Pack(pools, factories, concentrated, req.Reference, minLiquidity)
	if err != nil {
		return ethereum.CallMsg{}, fmt.Errorf("pack batch arguments: %w", err)
	}

	data := make([]byte, 0, len(c.initCode)+len(args))
	data = append(data, c.initCode...)
	data = append(data, args...)
	return ethereum.CallMsg{Data: data}, nil
}

// Decode unpacks a uint256[] holding exactly one value per requested pool.
func (c *DeployCodec) Decode(req Request, data []byte) ([]*big.Int, error) {
	if len(data) == 0 {
		return nil, errors.New("empty response")
	}
	values, err := returnArgs.Unpack(data)
	if err != nil {
		return nil, fmt.Errorf("unpack values: %w", err)
	}
	if len(values) != 1 {
		return nil, fmt.Errorf("unexpected return count %d", len(values))
	}
	out, ok := values[0].([]*big.Int)
	if !ok {
		return nil, fmt.Errorf("unexpected return type %T", values[0])
	}
	if len(out) != len(req.Pools) {
		return nil, fmt.Errorf("got %d values for %d pools", len(out), len(req.Pools))
	}
	return out, nil
}
