// Package sqlite provides a SQLite-backed log driver.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"

	_ "github.com/mattn/go-sqlite3" // register the sqlite3 driver

	"github.com/papercomputeco/spool/pkg/storage"
)

// Driver implements storage.Driver using a single append-only SQLite table.
type Driver struct {
	db *sql.DB

	mu     sync.RWMutex
	closed bool
}

// NewDriver creates a new SQLite-backed log driver.
// The dbPath can be a file path or ":memory:" for an in-memory database.
func NewDriver(dbPath string) (*Driver, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// WAL mode allows concurrent readers alongside the single writer.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	d := &Driver{db: db}

	if err := d.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return d, nil
}

// migrate creates the records table if it doesn't exist.
func (d *Driver) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS records (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		graph_id TEXT NOT NULL,
		kind TEXT NOT NULL,
		payload TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_records_graph_id ON records(graph_id);
	`

	_, err := d.db.Exec(schema)
	return err
}

// Append persists the record and assigns its sequence number.
func (d *Driver) Append(ctx context.Context, rec *storage.Record) error {
	if rec == nil {
		return storage.ErrNilRecord
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return storage.ErrClosed
	}

	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}

	res, err := d.db.ExecContext(ctx,
		`INSERT INTO records (graph_id, kind, payload) VALUES (?, ?, ?)`,
		rec.GraphID, string(rec.Kind), string(payload),
	)
	if err != nil {
		return fmt.Errorf("failed to insert record: %w", err)
	}

	seq, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read sequence: %w", err)
	}
	rec.Seq = seq

	return nil
}

// Replay invokes fn for every record in sequence order.
func (d *Driver) Replay(ctx context.Context, fn func(*storage.Record) error) error {
	d.mu.RLock()
	if d.closed {
		d.mu.RUnlock()
		return storage.ErrClosed
	}
	d.mu.RUnlock()

	rows, err := d.db.QueryContext(ctx, `SELECT seq, payload FROM records ORDER BY seq`)
	if err != nil {
		return fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			seq     int64
			payload string
		)
		if err := rows.Scan(&seq, &payload); err != nil {
			return fmt.Errorf("failed to scan record: %w", err)
		}

		var rec storage.Record
		if err := json.Unmarshal([]byte(payload), &rec); err != nil {
			return storage.CorruptError{Seq: seq, Reason: "malformed payload: " + err.Error()}
		}
		rec.Seq = seq

		if err := fn(&rec); err != nil {
			return err
		}
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating records: %w", err)
	}

	return nil
}

// Close closes the database connection.
func (d *Driver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil
	}

	d.closed = true
	return d.db.Close()
}

// Ensure Driver implements storage.Driver
var _ storage.Driver = (*Driver)(nil)
