package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Keys of the metadata table.
const lastIndexRunKey = "last_index_run"

// GetMetadata returns the value stored under key, or ErrNotFound.
func (d *Database) GetMetadata(ctx context.Context, key string) (value string, err error) {
	start := time.Now()
	defer func() { recordQuery("get_metadata", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	err = d.db.QueryRowContext(ctx, `SELECT value FROM metadata WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("metadata %q: %w", key, ErrNotFound)
	}
	return value, err
}

// SetMetadata stores value under key, replacing any previous value.
func (d *Database) SetMetadata(ctx context.Context, key, value string) (err error) {
	start := time.Now()
	defer func() { recordQuery("set_metadata", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err = d.db.ExecContext(ctx,
		`INSERT INTO metadata (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	return err
}

// GetLastIndexRun returns when the indexer last completed, or the zero time
// if it never has. The value survives restarts.
func (d *Database) GetLastIndexRun(ctx context.Context) (time.Time, error) {
	value, err := d.GetMetadata(ctx, lastIndexRunKey)
	switch {
	case errors.Is(err, ErrNotFound):
		return time.Time{}, nil
	case err != nil:
		return time.Time{}, err
	case value == "":
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339Nano, value)
}

// SetLastIndexRun records when the indexer last completed.
func (d *Database) SetLastIndexRun(ctx context.Context, t time.Time) error {
	value := ""
	if !t.IsZero() {
		value = t.UTC().Format(time.RFC3339Nano)
	}
	return d.SetMetadata(ctx, lastIndexRunKey, value)
}
