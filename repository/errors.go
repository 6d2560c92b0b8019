package repository

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"

	"gorm.io/gorm"
)

var (
	// ErrStorageUnavailable is returned when there is no usable connection to the store.
	ErrStorageUnavailable = errors.New("storage unavailable")
	// ErrDuplicateKey is returned when an insert collides with an existing primary key.
	ErrDuplicateKey = errors.New("duplicate key")
)

// classify wraps a driver error, tagging connectivity failures and key collisions.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%w: %s: %v", ErrDuplicateKey, op, err)
	case isConnectionError(err):
		return fmt.Errorf("%w: %s: %v", ErrStorageUnavailable, op, err)
	default:
		return fmt.Errorf("failed to %s: %w", op, err)
	}
}

func isConnectionError(err error) bool {
	if errors.Is(err, ErrStorageUnavailable) ||
		errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, sql.ErrConnDone) ||
		errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
