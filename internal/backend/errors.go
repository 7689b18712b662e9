package backend

import (
	"errors"
	"fmt"
)

var (
	// ErrRejected marks a backend that answered with a non-2xx status.
	ErrRejected = errors.New("backend rejected request")
	// ErrTransport marks a request that never got a usable answer: the
	// connection failed, the breaker was open, or the body did not decode.
	ErrTransport = errors.New("backend transport failure")
)

// StatusError is returned for non-2xx responses. Code and Detail are
// diagnostics read from the body and must not be shown to shoppers.
type StatusError struct {
	Op         string
	StatusCode int
	Code       string
	Detail     string
}

func (e *StatusError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s: backend returned status %d (%s)", e.Op, e.StatusCode, e.Code)
	}
	return fmt.Sprintf("%s: backend returned status %d", e.Op, e.StatusCode)
}

func (e *StatusError) Unwrap() error {
	return ErrRejected
}

func transportError(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrTransport, err)
}
