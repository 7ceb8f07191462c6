package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"iter"
	"strings"
	"time"

	"media-bridge/internal/mediatypes"
)

// assetPageSize bounds how many rows one read holds the store lock for.
const assetPageSize = 256

const assetColumns = `a.id, a.path, a.filename, a.kind, a.width, a.height, a.duration, a.orientation,
	a.created_at, a.latitude, a.longitude, a.hidden, a.size, a.mod_time`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAsset(row rowScanner) (Asset, error) {
	var a Asset
	var kind string
	var createdAt, modTime int64
	var lat, lon sql.NullFloat64
	var hidden int

	err := row.Scan(&a.ID, &a.Path, &a.Filename, &kind, &a.Width, &a.Height, &a.Duration, &a.Orientation,
		&createdAt, &lat, &lon, &hidden, &a.Size, &modTime)
	if err != nil {
		return Asset{}, err
	}

	a.Kind = mediatypes.FileType(kind)
	a.CreatedAt = time.UnixMilli(createdAt)
	a.ModTime = time.UnixMilli(modTime)
	a.Hidden = hidden != 0
	if lat.Valid && lon.Valid {
		a.Latitude = &lat.Float64
		a.Longitude = &lon.Float64
	}
	return a, nil
}

// Assets enumerates assets matching q, newest first with ties broken by ID.
// Rows are read in pages so the store is not locked while the caller
// processes them. Hidden assets are included. A read error is yielded once
// and ends the sequence.
func (d *Database) Assets(ctx context.Context, q AssetQuery) iter.Seq2[Asset, error] {
	return func(yield func(Asset, error) bool) {
		var cursor *Asset
		remaining := q.Limit

		for {
			size := assetPageSize
			if q.Limit > 0 && remaining < size {
				size = remaining
			}

			page, err := d.assetPage(ctx, q, cursor, size)
			if err != nil {
				yield(Asset{}, err)
				return
			}

			for i := range page {
				if !yield(page[i], nil) {
					return
				}
			}

			if len(page) < size {
				return
			}
			if q.Limit > 0 {
				remaining -= len(page)
				if remaining <= 0 {
					return
				}
			}
			cursor = &page[len(page)-1]
		}
	}
}

func (d *Database) assetPage(ctx context.Context, q AssetQuery, after *Asset, size int) ([]Asset, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("assets", start, err) }()

	var sb strings.Builder
	var args []any

	sb.WriteString("SELECT ")
	sb.WriteString(assetColumns)
	sb.WriteString(" FROM assets a")
	if q.CollectionID != "" {
		sb.WriteString(" JOIN collection_assets ca ON ca.asset_id = a.id AND ca.collection_id = ?")
		args = append(args, q.CollectionID)
	}
	sb.WriteString(" WHERE 1 = 1")
	if q.Kind != "" {
		sb.WriteString(" AND a.kind = ?")
		args = append(args, string(q.Kind))
	}
	if after != nil {
		ts := after.CreatedAt.UnixMilli()
		sb.WriteString(" AND (a.created_at < ? OR (a.created_at = ? AND a.id > ?))")
		args = append(args, ts, ts, after.ID)
	}
	sb.WriteString(" ORDER BY a.created_at DESC, a.id ASC LIMIT ?")
	args = append(args, size)

	d.mu.RLock()
	defer d.mu.RUnlock()

	rows, err := d.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	page := make([]Asset, 0, size)
	for rows.Next() {
		var a Asset
		a, err = scanAsset(rows)
		if err != nil {
			return nil, err
		}
		page = append(page, a)
	}
	err = rows.Err()
	return page, err
}

// AssetByID returns the asset with the given ID, or ErrNotFound.
func (d *Database) AssetByID(ctx context.Context, id string) (Asset, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("assets_by_id", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	row := d.db.QueryRowContext(ctx, "SELECT "+assetColumns+" FROM assets a WHERE a.id = ?", id)
	a, err := scanAsset(row)
	if errors.Is(err, sql.ErrNoRows) {
		err = nil
		return Asset{}, fmt.Errorf("asset %s: %w", id, ErrNotFound)
	}
	return a, err
}

// Fingerprints returns size and modification time of every indexed path so
// the indexer can skip metadata extraction for unchanged files.
func (d *Database) Fingerprints(ctx context.Context) (map[string]Fingerprint, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	rows, err := d.db.QueryContext(ctx, "SELECT path, size, mod_time FROM assets")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]Fingerprint)
	for rows.Next() {
		var path string
		var size, modTime int64
		if err := rows.Scan(&path, &size, &modTime); err != nil {
			return nil, err
		}
		out[path] = Fingerprint{Size: size, ModTime: time.UnixMilli(modTime)}
	}
	return out, rows.Err()
}

// UpsertAsset inserts or replaces an asset row and marks it as seen by the
// current index run.
func (d *Database) UpsertAsset(b *Batch, a *Asset) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("upsert_asset", start, err) }()

	var lat, lon sql.NullFloat64
	if a.HasLocation() {
		lat = sql.NullFloat64{Float64: *a.Latitude, Valid: true}
		lon = sql.NullFloat64{Float64: *a.Longitude, Valid: true}
	}
	hidden := 0
	if a.Hidden {
		hidden = 1
	}

	_, err = b.tx.Exec(`
	INSERT INTO assets (id, path, filename, kind, width, height, duration, orientation,
		created_at, latitude, longitude, hidden, size, mod_time, indexed_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(path) DO UPDATE SET
		filename = excluded.filename,
		kind = excluded.kind,
		width = excluded.width,
		height = excluded.height,
		duration = excluded.duration,
		orientation = excluded.orientation,
		created_at = excluded.created_at,
		latitude = excluded.latitude,
		longitude = excluded.longitude,
		hidden = excluded.hidden,
		size = excluded.size,
		mod_time = excluded.mod_time,
		indexed_at = excluded.indexed_at
	`,
		a.ID, a.Path, a.Filename, string(a.Kind), a.Width, a.Height, a.Duration, a.Orientation,
		a.CreatedAt.UnixMilli(), lat, lon, hidden, a.Size, a.ModTime.UnixMilli(), b.start.UnixMilli(),
	)
	return err
}

// TouchAsset marks an unchanged asset as seen by the current index run.
func (d *Database) TouchAsset(b *Batch, path string) error {
	_, err := b.tx.Exec("UPDATE assets SET indexed_at = ? WHERE path = ?", b.start.UnixMilli(), path)
	return err
}

// DeleteMissingAssets removes assets that were not seen since cutoff. An
// asset counts as seen at the start time of the batch that last wrote it.
func (d *Database) DeleteMissingAssets(b *Batch, cutoff time.Time) (int64, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("delete_missing_assets", start, err) }()

	result, err := b.tx.Exec("DELETE FROM assets WHERE indexed_at < ?", cutoff.UnixMilli())
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
