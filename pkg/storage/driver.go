// Package storage defines the append-only record log that backs the message
// graph. Every mutation of a graph (node creation, edge insertion, slot
// version change) is written to the log before it becomes visible in memory,
// and a graph is reconstructed by replaying the log in order.
package storage

import "context"

// Driver persists and replays graph records.
// Implementations must be safe for concurrent use.
type Driver interface {
	// Append durably persists a record and assigns its sequence number.
	// The record must not be considered committed by callers until Append
	// returns nil. Appending to a closed driver returns ErrClosed.
	Append(ctx context.Context, rec *Record) error

	// Replay invokes fn for every record in append order. Replay stops at
	// the first error returned by fn and propagates it.
	Replay(ctx context.Context, fn func(*Record) error) error

	// Close releases any resources (connections, files).
	Close() error
}
