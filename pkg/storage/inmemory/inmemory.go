// Package inmemory provides a slice-backed log driver for tests and
// throwaway sessions.
package inmemory

import (
	"context"
	"sync"

	"github.com/papercomputeco/spool/pkg/storage"
)

// Driver implements storage.Driver using an in-memory slice.
type Driver struct {
	// mu guards records and closed
	mu sync.RWMutex

	// records is the log in append order; Seq is index + 1
	records []*storage.Record

	closed bool
}

// NewDriver creates a new in-memory log driver.
func NewDriver() *Driver {
	return &Driver{
		records: make([]*storage.Record, 0),
	}
}

// Append assigns the next sequence number and appends the record.
func (d *Driver) Append(_ context.Context, rec *storage.Record) error {
	if rec == nil {
		return storage.ErrNilRecord
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return storage.ErrClosed
	}

	rec.Seq = int64(len(d.records)) + 1
	d.records = append(d.records, rec)
	return nil
}

// Replay invokes fn for every record in append order.
func (d *Driver) Replay(ctx context.Context, fn func(*storage.Record) error) error {
	d.mu.RLock()
	if d.closed {
		d.mu.RUnlock()
		return storage.ErrClosed
	}
	// Copy the slice header so fn may append concurrently without racing.
	records := make([]*storage.Record, len(d.records))
	copy(records, d.records)
	d.mu.RUnlock()

	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(rec); err != nil {
			return err
		}
	}
	return nil
}

// Close marks the driver closed. Further appends and replays fail.
func (d *Driver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.closed = true
	return nil
}

// Len returns the number of records in the log.
func (d *Driver) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return len(d.records)
}

// Ensure Driver implements storage.Driver
var _ storage.Driver = (*Driver)(nil)
