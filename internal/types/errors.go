package types

import (
	"errors"
	"fmt"
)

// InputError reports malformed caller input: a bad amount string, address or
// hex value. It is raised before any network access and retrying without
// changing the input will fail the same way.
type InputError struct {
	Reason string
}

func NewInputError(format string, args ...any) *InputError {
	return &InputError{Reason: fmt.Sprintf(format, args...)}
}

func (e *InputError) Error() string {
	return "invalid input: " + e.Reason
}

// EncodingError reports a failure while building transaction bytes. It is
// fatal to the preparation attempt; no partial output is ever emitted.
type EncodingError struct {
	Reason string
}

func NewEncodingError(format string, args ...any) *EncodingError {
	return &EncodingError{Reason: fmt.Sprintf(format, args...)}
}

func (e *EncodingError) Error() string {
	return "encoding failed: " + e.Reason
}

// NetworkError wraps a failed or nonsensical chain data query. Op names the
// query so the caller can tell which step broke. A fresh attempt may succeed.
type NetworkError struct {
	Op  string
	Err error
}

func NewNetworkError(op string, err error) *NetworkError {
	return &NetworkError{Op: op, Err: err}
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// InsufficientFundsError reports that the sender's spendable balance cannot
// cover the transfer amount plus the fee at the computed input count. Both
// totals are carried so the caller can explain the shortfall.
type InsufficientFundsError struct {
	AvailableSat uint64
	RequiredSat  uint64
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf(
		"insufficient funds: have %d sat, need %d sat",
		e.AvailableSat,
		e.RequiredSat,
	)
}

// IsRetryable reports whether a preparation failure is worth retrying with
// fresh network data. Only network and data errors qualify; input, encoding
// and insufficiency failures are deterministic.
func IsRetryable(err error) bool {
	var netErr *NetworkError
	return errors.As(err, &netErr)
}
