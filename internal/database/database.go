package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite3 driver

	"media-bridge/internal/logging"
	"media-bridge/internal/metrics"
)

// Default timeout for database operations
const defaultTimeout = 5 * time.Second

// ErrNotFound is returned by single-row lookups that match nothing.
var ErrNotFound = errors.New("not found")

// Database is the SQLite-backed asset store.
type Database struct {
	db      *sql.DB
	dbPath  string
	mu      sync.RWMutex
	stats   IndexStats
	statsMu sync.RWMutex
}

// sqlitePragmas are applied to every connection through the DSN.
var sqlitePragmas = []string{
	"_journal_mode=WAL",
	"_synchronous=NORMAL",
	"_cache_size=10000",
	"_temp_store=MEMORY",
	"_busy_timeout=5000",
	"_foreign_keys=on",
}

// New opens (and if needed creates) the asset store at dbPath. Its parent
// directory must already exist and be writable.
func New(ctx context.Context, dbPath string) (*Database, error) {
	if err := diagnoseDatabasePermissions(dbPath); err != nil {
		logging.Warn("Database permission diagnostics: %v", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?"+strings.Join(sqlitePragmas, "&"))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(time.Hour)

	d := &Database{db: db, dbPath: dbPath}
	if err := d.open(ctx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logging.Error("failed to close database %s: %v", dbPath, closeErr)
		}
		return nil, err
	}

	logging.Info("Database ready at %s", dbPath)
	return d, nil
}

// open checks the connection and applies the schema.
func (d *Database) open(ctx context.Context) error {
	pingCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if err := d.db.PingContext(pingCtx); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := d.initialize(ctx); err != nil {
		return fmt.Errorf("failed to initialize database schema: %w", err)
	}
	return nil
}

func (d *Database) initialize(ctx context.Context) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("initialize_schema", start, err) }()

	schema := `
	-- Indexed media files. created_at and mod_time are unix milliseconds.
	CREATE TABLE IF NOT EXISTS assets (
		id TEXT PRIMARY KEY,
		path TEXT NOT NULL UNIQUE,
		filename TEXT NOT NULL,
		kind TEXT NOT NULL,
		width INTEGER NOT NULL DEFAULT 0,
		height INTEGER NOT NULL DEFAULT 0,
		duration REAL NOT NULL DEFAULT 0,
		orientation INTEGER NOT NULL DEFAULT 0,
		created_at INTEGER NOT NULL,
		latitude REAL,
		longitude REAL,
		hidden INTEGER NOT NULL DEFAULT 0,
		size INTEGER NOT NULL DEFAULT 0,
		mod_time INTEGER NOT NULL,
		indexed_at INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_assets_created ON assets(created_at DESC, id);
	CREATE INDEX IF NOT EXISTS idx_assets_kind_created ON assets(kind, created_at DESC, id);
	CREATE INDEX IF NOT EXISTS idx_assets_indexed ON assets(indexed_at);

	-- Collections are rebuilt by the indexer after every run.
	CREATE TABLE IF NOT EXISTS collections (
		id TEXT PRIMARY KEY,
		kind TEXT NOT NULL,
		subtype TEXT NOT NULL DEFAULT '',
		title TEXT,
		parent_id TEXT NOT NULL DEFAULT '',
		start_date INTEGER,
		end_date INTEGER,
		sort_order INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_collections_kind ON collections(kind, subtype);

	CREATE TABLE IF NOT EXISTS collection_assets (
		collection_id TEXT NOT NULL,
		asset_id TEXT NOT NULL,
		PRIMARY KEY (collection_id, asset_id),
		FOREIGN KEY (collection_id) REFERENCES collections(id) ON DELETE CASCADE,
		FOREIGN KEY (asset_id) REFERENCES assets(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_collection_assets_asset ON collection_assets(asset_id);

	CREATE TABLE IF NOT EXISTS metadata (
		key TEXT PRIMARY KEY,
		value TEXT
	);
	`

	_, err = d.db.ExecContext(ctx, schema)
	return err
}

// Close closes the database connection.
func (d *Database) Close() error {
	return d.db.Close()
}

// Batch is an indexer write transaction. Create one with BeginBatch and
// finish it with EndBatch.
type Batch struct {
	tx    *sql.Tx
	start time.Time
}

// BeginBatch starts a transaction for indexer writes.
func (d *Database) BeginBatch(ctx context.Context) (*Batch, error) {
	d.mu.Lock()
	tx, err := d.db.BeginTx(ctx, nil)
	d.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return &Batch{tx: tx, start: time.Now()}, nil
}

// EndBatch commits the batch, or rolls it back when err is non-nil.
func (d *Database) EndBatch(b *Batch, err error) error {
	duration := time.Since(b.start).Seconds()

	if err != nil {
		metrics.DBTransactionDuration.WithLabelValues("rollback").Observe(duration)
		if rbErr := b.tx.Rollback(); rbErr != nil {
			return errors.Join(err, fmt.Errorf("rollback also failed: %w", rbErr))
		}
		return err
	}

	metrics.DBTransactionDuration.WithLabelValues("commit").Observe(duration)
	return b.tx.Commit()
}

// UpdateStats updates the cached statistics.
func (d *Database) UpdateStats(stats IndexStats) {
	d.statsMu.Lock()
	defer d.statsMu.Unlock()
	d.stats = stats
}

// GetStats returns the current index statistics.
func (d *Database) GetStats() IndexStats {
	d.statsMu.RLock()
	defer d.statsMu.RUnlock()
	return d.stats
}

// LibraryStats adapts the cached statistics for the metrics collector.
func (d *Database) LibraryStats() metrics.Stats {
	d.UpdateDBMetrics()
	stats := d.GetStats()
	return metrics.Stats{
		AssetsByKind:      stats.AssetsByKind,
		CollectionsByKind: stats.CollectionsByKind,
	}
}

// CalculateStats counts assets and collections by kind.
func (d *Database) CalculateStats(ctx context.Context) (IndexStats, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("calculate_stats", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	stats := IndexStats{
		AssetsByKind:      map[string]int{},
		CollectionsByKind: map[string]int{},
	}

	groups := []struct {
		query string
		dest  map[string]int
	}{
		{"SELECT kind, COUNT(*) FROM assets GROUP BY kind", stats.AssetsByKind},
		{"SELECT kind, COUNT(*) FROM collections GROUP BY kind", stats.CollectionsByKind},
	}

	for _, g := range groups {
		if err = d.countGroups(ctx, g.query, g.dest); err != nil {
			return stats, err
		}
	}

	for _, n := range stats.AssetsByKind {
		stats.TotalAssets += n
	}
	return stats, nil
}

func (d *Database) countGroups(ctx context.Context, query string, dest map[string]int) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rows, err := d.db.QueryContext(ctx, query)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var kind string
		var n int
		if err := rows.Scan(&kind, &n); err != nil {
			return err
		}
		dest[kind] = n
	}
	return rows.Err()
}

// recordQuery records database query metrics
func recordQuery(operation string, start time.Time, err error) {
	duration := time.Since(start).Seconds()
	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.DBQueryTotal.WithLabelValues(operation, status).Inc()
	metrics.DBQueryDuration.WithLabelValues(operation).Observe(duration)
}

// UpdateDBMetrics updates database connection metrics
func (d *Database) UpdateDBMetrics() {
	stats := d.db.Stats()
	metrics.DBConnectionsOpen.Set(float64(stats.OpenConnections))
}

// diagnoseDatabasePermissions checks database directory and file permissions
func diagnoseDatabasePermissions(dbPath string) error {
	dir := filepath.Dir(dbPath)

	dirInfo, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("cannot stat database directory: %w", err)
	}

	logging.Debug("Database directory: %s (mode: %v)", dir, dirInfo.Mode())

	testFile := filepath.Join(dir, ".perm-test")
	if err := os.WriteFile(testFile, []byte("test"), 0o600); err != nil {
		return fmt.Errorf("database directory not writable: %w", err)
	}
	_ = os.Remove(testFile)

	for _, suffix := range []string{"", "-wal", "-shm"} {
		p := dbPath + suffix
		info, err := os.Stat(p)
		if err != nil {
			continue
		}
		logging.Debug("Database file exists: %s (mode: %v, size: %d bytes)", p, info.Mode(), info.Size())
		if info.Mode().Perm()&0o200 != 0 {
			continue
		}
		logging.Warn("Database file %s is read-only (mode %v), writes will fail", p, info.Mode())
		if suffix == "" {
			continue
		}
		if chmodErr := os.Chmod(p, 0o600); chmodErr != nil {
			logging.Error("Failed to fix %s permissions: %v", p, chmodErr)
		} else {
			logging.Info("Fixed %s permissions", p)
		}
	}

	return nil
}
