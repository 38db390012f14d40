package database

import (
	"context"
	"errors"
	"fmt"
	"net"
)

var (
	// ErrDuplicateKey is returned when an identity key is already enrolled.
	ErrDuplicateKey = errors.New("identity key already exists")
	// ErrStoreUnavailable marks failures to reach the backing store.
	ErrStoreUnavailable = errors.New("identity store unavailable")
)

// Unavailable wraps err so that errors.Is(err, ErrStoreUnavailable) holds.
func Unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrStoreUnavailable, err)
}

// IsConnectionError reports errors that mean the store could not be reached,
// as opposed to a rejected query.
func IsConnectionError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
