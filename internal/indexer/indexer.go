package indexer

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"media-bridge/internal/database"
	"media-bridge/internal/logging"
	"media-bridge/internal/metrics"
)

// batchPause yields the database to request handlers between write batches.
const batchPause = 10 * time.Millisecond

// Indexer keeps the asset store in sync with the media directory.
type Indexer struct {
	db            *database.Database
	mediaDir      string
	indexInterval time.Duration
	walkerConfig  ParallelWalkerConfig
	startTime     time.Time

	ctx      context.Context
	cancel   context.CancelFunc
	stopOnce sync.Once

	state struct {
		mu         sync.Mutex
		running    bool
		ready      bool // set after the first run, successful or not
		lastRun    time.Time
		initialErr error
	}

	filesIndexed atomic.Int64
	filesChanged atomic.Int64
	progress     atomic.Pointer[IndexProgress]

	onIndexComplete func()
}

// IndexProgress is a snapshot of the current or last run.
type IndexProgress struct {
	FilesIndexed int64     `json:"filesIndexed"`
	FilesChanged int64     `json:"filesChanged"`
	IsIndexing   bool      `json:"isIndexing"`
	StartedAt    time.Time `json:"startedAt,omitempty"`
}

// HealthStatus is what the health endpoints report about indexing.
type HealthStatus struct {
	Ready             bool           `json:"ready"`
	Indexing          bool           `json:"indexing"`
	StartTime         time.Time      `json:"startTime"`
	Uptime            string         `json:"uptime"`
	LastIndexed       time.Time      `json:"lastIndexed,omitempty"`
	InitialIndexError string         `json:"initialIndexError,omitempty"`
	FilesIndexed      int64          `json:"filesIndexed"`
	IndexProgress     *IndexProgress `json:"indexProgress,omitempty"`
}

// New creates a new Indexer. workers is the number of metadata extraction
// workers; an interval of zero disables periodic re-indexing.
func New(db *database.Database, mediaDir string, indexInterval time.Duration, workers int) *Indexer {
	ctx, cancel := context.WithCancel(context.Background())
	idx := &Indexer{
		db:            db,
		mediaDir:      mediaDir,
		indexInterval: indexInterval,
		walkerConfig:  DefaultParallelWalkerConfig(workers),
		startTime:     time.Now(),
		ctx:           ctx,
		cancel:        cancel,
	}
	idx.progress.Store(&IndexProgress{})
	return idx
}

// SetOnIndexComplete registers a callback run after every successful index.
func (idx *Indexer) SetOnIndexComplete(callback func()) {
	idx.onIndexComplete = callback
}

// Start restores the last run time recorded by a previous process, runs the
// initial index in the background and schedules periodic re-indexing.
func (idx *Indexer) Start() error {
	if last, err := idx.db.GetLastIndexRun(idx.ctx); err != nil {
		logging.Warn("Could not read last index run: %v", err)
	} else if !last.IsZero() {
		idx.state.mu.Lock()
		idx.state.lastRun = last
		idx.state.mu.Unlock()
		logging.Info("Previous index completed %s", last.Format(time.RFC3339))
	}

	go func() {
		logging.Info("Starting initial index of %s", idx.mediaDir)
		if err := idx.Index(idx.ctx); err != nil {
			logging.Error("Initial index error: %v", err)
			idx.state.mu.Lock()
			idx.state.initialErr = err
			idx.state.mu.Unlock()
		}
	}()

	if idx.indexInterval > 0 {
		go idx.periodicIndex()
	}
	return nil
}

// Stop cancels any running index and stops periodic re-indexing.
func (idx *Indexer) Stop() {
	idx.stopOnce.Do(idx.cancel)
}

// IsReady reports whether the first index run has finished.
func (idx *Indexer) IsReady() bool {
	idx.state.mu.Lock()
	defer idx.state.mu.Unlock()
	return idx.state.ready
}

// IsIndexing reports whether a run is in progress.
func (idx *Indexer) IsIndexing() bool {
	idx.state.mu.Lock()
	defer idx.state.mu.Unlock()
	return idx.state.running
}

// LastIndexTime returns when the last successful run finished.
func (idx *Indexer) LastIndexTime() time.Time {
	idx.state.mu.Lock()
	defer idx.state.mu.Unlock()
	return idx.state.lastRun
}

// GetProgress returns the current indexing progress.
func (idx *Indexer) GetProgress() IndexProgress {
	return *idx.progress.Load()
}

// GetHealthStatus returns detailed health information.
func (idx *Indexer) GetHealthStatus() HealthStatus {
	idx.state.mu.Lock()
	defer idx.state.mu.Unlock()

	status := HealthStatus{
		Ready:        idx.state.ready,
		Indexing:     idx.state.running,
		StartTime:    idx.startTime,
		Uptime:       time.Since(idx.startTime).Round(time.Second).String(),
		LastIndexed:  idx.state.lastRun,
		FilesIndexed: idx.filesIndexed.Load(),
	}
	if idx.state.running {
		p := idx.GetProgress()
		status.IndexProgress = &p
	}
	if idx.state.initialErr != nil {
		status.InitialIndexError = idx.state.initialErr.Error()
	}
	return status
}

// Index performs a full index of the media directory. It returns nil
// without doing anything when an index is already running.
func (idx *Indexer) Index(ctx context.Context) error {
	if !idx.tryStartIndexing() {
		logging.Info("Index already in progress, skipping")
		return nil
	}
	defer idx.finishIndexing()

	metrics.IndexerIsRunning.Set(1)
	defer metrics.IndexerIsRunning.Set(0)
	metrics.IndexerRunsTotal.Inc()

	start := time.Now()
	idx.filesIndexed.Store(0)
	idx.filesChanged.Store(0)
	idx.progress.Store(&IndexProgress{IsIndexing: true, StartedAt: start})
	logging.Info("Indexing %s with %d workers", idx.mediaDir, idx.walkerConfig.NumWorkers)

	if err := idx.run(ctx, start); err != nil {
		metrics.IndexerErrors.Inc()
		return err
	}
	return nil
}

func (idx *Indexer) run(ctx context.Context, start time.Time) error {
	fingerprints, err := idx.db.Fingerprints(ctx)
	if err != nil {
		return fmt.Errorf("failed to load fingerprints: %w", err)
	}

	walker := NewParallelWalker(idx.mediaDir, idx.walkerConfig, fingerprints)
	results, err := walker.Walk(ctx)
	if err != nil {
		return fmt.Errorf("walk error: %w", err)
	}

	files, changed, folders := walker.Stats()
	idx.filesIndexed.Store(files)
	idx.filesChanged.Store(changed)
	idx.progress.Store(&IndexProgress{FilesIndexed: files, FilesChanged: changed, IsIndexing: true, StartedAt: start})
	logging.Info("Walk found %d files in %d folders, %d new or changed", files, folders, changed)

	if err := idx.writeResults(ctx, results); err != nil {
		return err
	}

	// A cancelled run must not prune assets it never got to touch.
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := idx.removeMissing(ctx, start); err != nil {
		return err
	}
	if err := idx.rebuildCollections(ctx); err != nil {
		return err
	}

	idx.complete(ctx, start, files, changed)
	return nil
}

// writeResults stores walk results in batches, one transaction each.
// Changed assets are upserted; unchanged ones are only marked as seen.
func (idx *Indexer) writeResults(ctx context.Context, results []walkResult) error {
	size := idx.walkerConfig.BatchSize

	for i := 0; i < len(results); i += size {
		if err := ctx.Err(); err != nil {
			return err
		}

		batch := results[i:min(i+size, len(results))]
		tx, err := idx.db.BeginBatch(ctx)
		if err != nil {
			return fmt.Errorf("failed to begin batch transaction: %w", err)
		}
		for j := range batch {
			r := &batch[j]
			var werr error
			if r.changed {
				werr = idx.db.UpsertAsset(tx, &r.asset)
			} else {
				werr = idx.db.TouchAsset(tx, r.asset.Path)
			}
			if werr != nil {
				logging.Warn("Error writing asset %s: %v", r.asset.Path, werr)
			}
		}
		if err := idx.db.EndBatch(tx, nil); err != nil {
			return fmt.Errorf("failed to commit batch: %w", err)
		}

		written := i + len(batch)
		if written == len(results) || (written/size)%10 == 0 {
			logging.Info("Database write progress: %d/%d assets", written, len(results))
		}
		time.Sleep(batchPause)
	}
	return nil
}

// removeMissing deletes assets not seen since cutoff.
func (idx *Indexer) removeMissing(ctx context.Context, cutoff time.Time) error {
	tx, err := idx.db.BeginBatch(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin cleanup transaction: %w", err)
	}

	deleted, err := idx.db.DeleteMissingAssets(tx, cutoff)
	if err := idx.db.EndBatch(tx, err); err != nil {
		return fmt.Errorf("failed to remove missing assets: %w", err)
	}
	if deleted > 0 {
		logging.Info("Removed %d missing assets from index", deleted)
	}
	return nil
}

// rebuildCollections derives all collections from the stored assets, so
// unchanged assets keep their memberships.
func (idx *Indexer) rebuildCollections(ctx context.Context) error {
	var assets []database.Asset
	for a, err := range idx.db.Assets(ctx, database.AssetQuery{}) {
		if err != nil {
			return fmt.Errorf("failed to read assets: %w", err)
		}
		assets = append(assets, a)
	}

	records := buildCollections(assets, time.Now())
	if err := idx.db.ReplaceCollections(ctx, records); err != nil {
		return fmt.Errorf("failed to replace collections: %w", err)
	}

	logging.Debug("Rebuilt %d collections from %d assets", len(records), len(assets))
	return nil
}

func (idx *Indexer) tryStartIndexing() bool {
	idx.state.mu.Lock()
	defer idx.state.mu.Unlock()

	if idx.state.running {
		return false
	}
	idx.state.running = true
	return true
}

func (idx *Indexer) finishIndexing() {
	idx.state.mu.Lock()
	defer idx.state.mu.Unlock()

	idx.state.running = false
	idx.state.ready = true
}

// complete records a successful run: cached stats, the persisted run time
// and metrics.
func (idx *Indexer) complete(ctx context.Context, start time.Time, files, changed int64) {
	now := time.Now()
	duration := now.Sub(start)

	idx.state.mu.Lock()
	idx.state.lastRun = now
	idx.state.mu.Unlock()
	idx.progress.Store(&IndexProgress{FilesIndexed: files, FilesChanged: changed})

	stats, err := idx.db.CalculateStats(ctx)
	if err != nil {
		logging.Warn("Failed to calculate stats: %v", err)
	}
	stats.LastIndexed = now
	stats.IndexDuration = duration.String()
	idx.db.UpdateStats(stats)

	if err := idx.db.SetLastIndexRun(ctx, now); err != nil {
		logging.Warn("Failed to record last index run: %v", err)
	}

	metrics.IndexerLastRunTimestamp.Set(float64(now.Unix()))
	metrics.IndexerLastRunDuration.Set(duration.Seconds())
	metrics.IndexerAssetsProcessed.Add(float64(files))
	logging.Info("Index complete: %d assets in %v", files, duration)

	if idx.onIndexComplete != nil {
		idx.onIndexComplete()
	}
}

func (idx *Indexer) periodicIndex() {
	ticker := time.NewTicker(idx.indexInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			logging.Debug("Periodic re-index triggered")
			if err := idx.Index(idx.ctx); err != nil {
				logging.Error("periodic re-index failed: %v", err)
			}
		case <-idx.ctx.Done():
			return
		}
	}
}

// TriggerIndex starts a re-index in the background. It returns false when
// an index is already running.
func (idx *Indexer) TriggerIndex() bool {
	if idx.IsIndexing() {
		return false
	}
	go func() {
		if err := idx.Index(idx.ctx); err != nil {
			logging.Error("manually triggered re-index failed: %v", err)
		}
	}()
	return true
}
