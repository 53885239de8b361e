package pool

import (
	"fmt"
	"math"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

var (
	ten = big.NewInt(10)

	// q96 is 2^96, the fixed point base of sqrtPriceX96.
	q96 = new(big.Int).Lsh(big.NewInt(1), 96)

	// precomputed 10^dec for typical ERC20 decimals (0..18)
	precomputedScales [19]*big.Int
)

func init() {
	precomputedScales[0] = big.NewInt(1)
	for i := 1; i < len(precomputedScales); i++ {
		precomputedScales[i] = new(big.Int).Mul(precomputedScales[i-1], ten)
	}
}

// ScaledDecimal returns 10^dec. The returned value MUST NOT be modified.
func ScaledDecimal(dec uint8) *big.Int {
	if int(dec) < len(precomputedScales) {
		return precomputedScales[dec]
	}
	return new(big.Int).Exp(ten, big.NewInt(int64(dec)), nil)
}

// WholeUnits converts a raw token amount into whole token units.
func WholeUnits(raw *big.Int, dec uint8) *big.Float {
	if raw == nil {
		return new(big.Float)
	}
	out := new(big.Float).SetInt(raw)
	return out.Quo(out, new(big.Float).SetInt(ScaledDecimal(dec)))
}

// finitePrice converts price to float64. Prices that overflow it are rejected.
func finitePrice(price *big.Float, address common.Address) (float64, error) {
	out, _ := price.Float64()
	if math.IsInf(out, 0) || math.IsNaN(out) {
		return 0, fmt.Errorf("%w: %s", ErrPriceOutOfRange, address.Hex())
	}
	return out, nil
}
