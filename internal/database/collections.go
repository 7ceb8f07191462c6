package database

import (
	"context"
	"database/sql"
	"strings"
	"time"
)

const collectionColumns = `c.id, c.kind, c.subtype, c.title, c.parent_id, c.start_date, c.end_date, c.sort_order,
	(SELECT COUNT(*) FROM collection_assets ca WHERE ca.collection_id = c.id)`

// Collections orders by sort_order, then newest moment first, then title.
const collectionOrder = ` ORDER BY c.sort_order ASC, COALESCE(c.start_date, 0) DESC, COALESCE(c.title, '') COLLATE NOCASE, c.id`

func scanCollection(row rowScanner) (Collection, error) {
	var c Collection
	var kind string
	var title sql.NullString
	var startDate, endDate sql.NullInt64

	err := row.Scan(&c.ID, &kind, &c.Subtype, &title, &c.ParentID, &startDate, &endDate, &c.SortOrder, &c.EstimatedCount)
	if err != nil {
		return Collection{}, err
	}
	c.Kind = CollectionKind(kind)
	c.Title = title.String
	if startDate.Valid {
		c.StartDate = time.UnixMilli(startDate.Int64)
	}
	if endDate.Valid {
		c.EndDate = time.UnixMilli(endDate.Int64)
	}
	return c, nil
}

// Collections returns the collections selected by q. Folders are included;
// callers that want asset-bearing collections filter with CanContainAssets.
func (d *Database) Collections(ctx context.Context, q CollectionQuery) ([]Collection, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("collections", start, err) }()

	var sb strings.Builder
	var args []any

	sb.WriteString("SELECT ")
	sb.WriteString(collectionColumns)
	sb.WriteString(" FROM collections c WHERE 1 = 1")
	if len(q.Kinds) > 0 {
		sb.WriteString(" AND c.kind IN (")
		for i, k := range q.Kinds {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString("?")
			args = append(args, string(k))
		}
		sb.WriteString(")")
	}
	if q.Subtype != "" {
		sb.WriteString(" AND c.subtype = ?")
		args = append(args, q.Subtype)
	}
	if q.TopLevel {
		sb.WriteString(" AND c.parent_id = ''")
	}
	sb.WriteString(collectionOrder)

	var out []Collection
	out, err = d.queryCollections(ctx, sb.String(), args...)
	return out, err
}

// CollectionsByID returns the collections with the given IDs in the order
// requested. Unknown IDs are dropped and duplicates collapse to their first
// occurrence.
func (d *Database) CollectionsByID(ctx context.Context, ids []string) ([]Collection, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("collections_by_id", start, err) }()

	unique := make([]string, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			unique = append(unique, id)
		}
	}
	if len(unique) == 0 {
		return nil, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(unique)), ", ")
	args := make([]any, len(unique))
	for i, id := range unique {
		args[i] = id
	}

	var found []Collection
	found, err = d.queryCollections(ctx, "SELECT "+collectionColumns+" FROM collections c WHERE c.id IN ("+placeholders+")", args...)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]Collection, len(found))
	for _, c := range found {
		byID[c.ID] = c
	}

	out := make([]Collection, 0, len(found))
	for _, id := range unique {
		if c, ok := byID[id]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

func (d *Database) queryCollections(ctx context.Context, query string, args ...any) ([]Collection, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Collection
	for rows.Next() {
		c, err := scanCollection(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// ReplaceCollections swaps the full collection set for records in a single
// transaction. Readers see either the old or the new set.
func (d *Database) ReplaceCollections(ctx context.Context, records []CollectionRecord) (err error) {
	start := time.Now()
	defer func() { recordQuery("rebuild_collections", start, err) }()

	b, err := d.BeginBatch(ctx)
	if err != nil {
		return err
	}
	defer func() { err = d.EndBatch(b, err) }()

	if _, err = b.tx.ExecContext(ctx, "DELETE FROM collections"); err != nil {
		return err
	}

	insertCollection, err := b.tx.PrepareContext(ctx, `
	INSERT INTO collections (id, kind, subtype, title, parent_id, start_date, end_date, sort_order)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer insertCollection.Close()

	insertMember, err := b.tx.PrepareContext(ctx, `INSERT OR IGNORE INTO collection_assets (collection_id, asset_id) VALUES (?, ?)`)
	if err != nil {
		return err
	}
	defer insertMember.Close()

	for _, r := range records {
		_, err = insertCollection.ExecContext(ctx, r.ID, string(r.Kind), r.Subtype,
			nullString(r.Title), r.ParentID, nullMillis(r.StartDate), nullMillis(r.EndDate), r.SortOrder)
		if err != nil {
			return err
		}
		for _, assetID := range r.AssetIDs {
			if _, err = insertMember.ExecContext(ctx, r.ID, assetID); err != nil {
				return err
			}
		}
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullMillis(t time.Time) sql.NullInt64 {
	if t.IsZero() {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.UnixMilli(), Valid: true}
}
