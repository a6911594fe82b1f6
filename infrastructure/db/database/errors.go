package database

import "github.com/pkg/errors"

// ErrNotFound denotes that a requested key or value was not found.
var ErrNotFound = errors.New("not found")

// IsNotFoundError checks whether err is, or wraps, ErrNotFound.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}
