package batch

import "fmt"

// DecodeError reports a batch response that does not have the expected shape.
// The whole pass is aborted when one is returned.
type DecodeError struct {
	Group int
	Err   error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode batch group %d: %v", e.Group, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}
