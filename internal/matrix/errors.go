package matrix

import (
	"errors"
	"fmt"
)

var (
	// ErrUnreachable signals a transport-level failure: connection refused,
	// DNS failure, or the configured timeout expiring.
	ErrUnreachable = errors.New("matrix unreachable")
	// ErrBadStatus signals the device answered with a non-2xx HTTP status.
	ErrBadStatus = errors.New("matrix returned error status")
	// ErrParse signals the device answered 2xx but the body did not match
	// the expected text layout. Kept distinct from ErrUnreachable so callers
	// can tell "device gone" from "device changed its format".
	ErrParse = errors.New("unexpected matrix response format")
)

// badStatus wraps ErrBadStatus with the offending status code.
func badStatus(code int) error {
	return fmt.Errorf("%w: HTTP %d", ErrBadStatus, code)
}

// unreachable wraps ErrUnreachable with the transport error detail.
func unreachable(err error) error {
	return fmt.Errorf("%w: %v", ErrUnreachable, err)
}
