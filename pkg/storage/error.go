package storage

import (
	"errors"
	"fmt"
)

// ErrClosed indicates the driver has been closed.
var ErrClosed = errors.New("storage driver closed")

// ErrNilRecord indicates a nil record was passed to Append.
var ErrNilRecord = errors.New("nil record")

// CorruptError is returned when log replay encounters a record that cannot
// be applied (invalid reference, malformed payload). It is fatal for the
// store instance; no partial recovery is attempted.
type CorruptError struct {
	// Seq is the sequence number of the offending record, if known.
	Seq int64

	// Reason describes the integrity violation.
	Reason string

	// Err is the typed cause, when the violation has one.
	Err error
}

func (e CorruptError) Unwrap() error {
	return e.Err
}

func (e CorruptError) Error() string {
	if e.Seq > 0 {
		return fmt.Sprintf("corrupt store at record %d: %s", e.Seq, e.Reason)
	}
	return "corrupt store: " + e.Reason
}
