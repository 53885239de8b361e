package pool

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// ValueQuery carries the inputs shared by every pool valued in one filter pass.
type ValueQuery struct {
	Dexes     []Dex
	Reference common.Address
	// MinLiquidity is the smallest raw reference reserve a price source may hold.
	// Nil disables the gate.
	MinLiquidity *uint256.Int
}
