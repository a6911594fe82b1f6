package utxosnapshot

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrorCode identifies the kind of a snapshot error.
type ErrorCode int

const (
	// ErrInvalidParameter indicates that the requested snapshot target is
	// malformed or cannot be reached.
	ErrInvalidParameter ErrorCode = iota

	// ErrAlreadyExists indicates that the destination file already exists.
	ErrAlreadyExists

	// ErrIO indicates a failure to write the snapshot, or to restore the
	// chain after a rollback.
	ErrIO

	// numErrorCodes is the maximum error code number used in tests.
	numErrorCodes
)

var errorCodeStrings = map[ErrorCode]string{
	ErrInvalidParameter: "ErrInvalidParameter",
	ErrAlreadyExists:    "ErrAlreadyExists",
	ErrIO:               "ErrIO",
}

// String returns the ErrorCode as a human-readable name.
func (e ErrorCode) String() string {
	if s := errorCodeStrings[e]; s != "" {
		return s
	}
	return fmt.Sprintf("Unknown ErrorCode (%d)", int(e))
}

// Error is returned by all failing snapshot operations. Description is meant
// to be shown to the RPC caller as is.
type Error struct {
	ErrorCode   ErrorCode
	Description string

	// Err is the underlying cause, if any.
	Err error
}

func (e Error) Error() string {
	return e.Description
}

// Unwrap returns the underlying cause.
func (e Error) Unwrap() error {
	return e.Err
}

func newError(c ErrorCode, description string, cause error) error {
	return errors.WithStack(Error{ErrorCode: c, Description: description, Err: cause})
}

// IsErrorCode reports whether err is a snapshot Error with the given code.
func IsErrorCode(err error, c ErrorCode) bool {
	var snapshotErr Error
	return errors.As(err, &snapshotErr) && snapshotErr.ErrorCode == c
}

// AsError extracts the snapshot Error from err's chain.
func AsError(err error) (Error, bool) {
	var snapshotErr Error
	ok := errors.As(err, &snapshotErr)
	return snapshotErr, ok
}
