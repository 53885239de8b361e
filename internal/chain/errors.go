package chain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/rpc"
)

// ErrContractCall marks a call rejected by the contract itself (a revert or a call
// into an address without the expected code), as opposed to a node failure.
var ErrContractCall = errors.New("contract call rejected")

// revertErrorCode is the JSON-RPC code geth uses for execution reverted.
const revertErrorCode = 3

// TransportError is a node or network failure after retries were exhausted.
type TransportError struct {
	Method string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport %s: %v", e.Method, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsContractError reports whether err is a contract-level rejection.
func IsContractError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrContractCall) {
		return true
	}

	var rpcErr rpc.Error
	if errors.As(err, &rpcErr) && rpcErr.ErrorCode() == revertErrorCode {
		return true
	}
	var dataErr rpc.DataError
	if errors.As(err, &dataErr) && dataErr.ErrorData() != nil {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "execution reverted")
}

// IsTransportError reports whether err came from the transport layer.
func IsTransportError(err error) bool {
	var transportErr *TransportError
	return errors.As(err, &transportErr)
}
