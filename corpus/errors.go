package corpus

import (
	"errors"
	"fmt"
)

var ErrTransport = errors.New("corpus transport failure")

var (
	ErrNotCacheable = errors.New("location may not be cached")
	ErrOutsideRoot  = errors.New("location is outside the documentation root")
	ErrTooLarge     = errors.New("asset exceeds the size limit")
)

// TransportError covers network, HTTP status and decode failures of a corpus fetch.
type TransportError struct {
	Location   string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetching corpus %s: status %d", e.Location, e.StatusCode)
	}
	return fmt.Sprintf("fetching corpus %s: %s", e.Location, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

func (e *TransportError) Is(target error) bool {
	return target == ErrTransport
}
