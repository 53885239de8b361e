package price

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// ErrNoReferencePool matches every *NoReferencePoolError via errors.Is.
var ErrNoReferencePool = errors.New("no reference pool")

// NoReferencePoolError reports that no exchange holds a pool pairing Token with
// Reference deep enough to price it.
type NoReferencePoolError struct {
	Token     common.Address
	Reference common.Address
}

func (e *NoReferencePoolError) Error() string {
	return fmt.Sprintf("no reference pool for token %s against %s", e.Token.Hex(), e.Reference.Hex())
}

func (e *NoReferencePoolError) Is(target error) bool {
	return target == ErrNoReferencePool
}
