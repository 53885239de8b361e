// Package dex implements the exchange adapters used for price discovery.
package dex

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"poolFilter/internal/pool"
)

// Spec names an exchange factory and its AMM family, as written in config.
type Spec struct {
	Variant pool.Variant
	Factory common.Address
}

// ParseSpec parses "variant:factory", e.g. "v2:0x5C69bEe701ef814a2B6a3EDD4B1652CB9cc5aA6f".
func ParseSpec(input string) (Spec, error) {
	parts := strings.SplitN(strings.TrimSpace(input), ":", 2)
	if len(parts) != 2 {
		return Spec{}, fmt.Errorf("invalid dex %q: expected variant:factory", input)
	}
	variant, err := pool.ParseVariant(parts[0])
	if err != nil {
		return Spec{}, err
	}
	factory := strings.TrimSpace(parts[1])
	if !common.IsHexAddress(factory) {
		return Spec{}, fmt.Errorf("invalid dex factory address: %s", factory)
	}
	return Spec{Variant: variant, Factory: common.HexToAddress(factory)}, nil
}

// ParseSpecs parses a list of dex entries.
func ParseSpecs(inputs []string) ([]Spec, error) {
	specs := make([]Spec, 0, len(inputs))
	for _, input := range inputs {
		spec, err := ParseSpec(input)
		if err != nil {
			return nil, err
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

// Build returns the adapters for specs, sharing one token metadata cache.
func Build(specs []Spec, caller Caller, logger *zap.Logger) ([]pool.Dex, error) {
	tokens := NewTokenMetaCache()
	dexes := make([]pool.Dex, 0, len(specs))
	for _, spec := range specs {
		switch spec.Variant {
		case pool.ConstantProduct:
			dexes = append(dexes, NewUniswapV2(spec.Factory, caller, tokens, logger))
		case pool.ConcentratedLiquidity:
			dexes = append(dexes, NewUniswapV3(spec.Factory, caller, tokens, nil, logger))
		default:
			return nil, fmt.Errorf("unsupported dex variant: %s", spec.Variant)
		}
	}
	return dexes, nil
}
