package indexer

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"media-bridge/internal/database"
	"media-bridge/internal/logging"
	"media-bridge/internal/mediatypes"
)

// ParallelWalkerConfig configures the parallel directory walker
type ParallelWalkerConfig struct {
	// NumWorkers is the number of metadata extraction workers
	NumWorkers int
	// BatchSize is the number of assets written per transaction
	BatchSize int
	// ChannelBuffer is the size of the work channel buffer
	ChannelBuffer int
}

// DefaultParallelWalkerConfig returns defaults for numWorkers workers.
func DefaultParallelWalkerConfig(numWorkers int) ParallelWalkerConfig {
	if numWorkers < 1 {
		numWorkers = 1
	}
	return ParallelWalkerConfig{
		NumWorkers:    numWorkers,
		BatchSize:     500,
		ChannelBuffer: 1000,
	}
}

// fileJob is a media file found by the walk
type fileJob struct {
	path    string
	relPath string
	info    os.FileInfo
	kind    mediatypes.FileType
}

// walkResult is a processed media file. Unchanged files carry only their
// path and are not re-extracted.
type walkResult struct {
	asset   database.Asset
	changed bool
}

// ParallelWalker walks the media directory and extracts metadata for files
// whose fingerprint differs from the stored one.
type ParallelWalker struct {
	config       ParallelWalkerConfig
	mediaDir     string
	fingerprints map[string]database.Fingerprint

	jobs    chan fileJob
	results chan walkResult
	wg      sync.WaitGroup

	filesSeen    atomic.Int64
	filesChanged atomic.Int64
	foldersSeen  atomic.Int64
}

// NewParallelWalker creates a walker. fingerprints holds the stored state
// of every indexed path and may be nil.
func NewParallelWalker(mediaDir string, config ParallelWalkerConfig, fingerprints map[string]database.Fingerprint) *ParallelWalker {
	return &ParallelWalker{
		config:       config,
		mediaDir:     mediaDir,
		fingerprints: fingerprints,
		jobs:         make(chan fileJob, config.ChannelBuffer),
		results:      make(chan walkResult, config.ChannelBuffer),
	}
}

// Walk returns every media file below the media directory. Cancelling ctx
// stops the walk and returns ctx.Err().
func (pw *ParallelWalker) Walk(ctx context.Context) ([]walkResult, error) {
	startTime := time.Now()

	for i := 0; i < pw.config.NumWorkers; i++ {
		pw.wg.Add(1)
		go pw.worker(ctx, i)
	}

	var all []walkResult
	collected := make(chan struct{})
	go func() {
		defer close(collected)
		for r := range pw.results {
			all = append(all, r)
		}
	}()

	err := pw.walkAndEnqueue(ctx)
	close(pw.jobs)
	pw.wg.Wait()
	close(pw.results)
	<-collected

	logging.Info("Walk complete: %d files (%d new or changed), %d folders in %v",
		pw.filesSeen.Load(), pw.filesChanged.Load(), pw.foldersSeen.Load(), time.Since(startTime))

	if err != nil {
		return nil, err
	}
	return all, ctx.Err()
}

// walkAndEnqueue walks the directory tree and sends media files to workers
func (pw *ParallelWalker) walkAndEnqueue(ctx context.Context) error {
	return filepath.WalkDir(pw.mediaDir, func(path string, d fs.DirEntry, err error) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		if err != nil {
			if path == pw.mediaDir {
				return err
			}
			logging.Warn("Error accessing path %s: %v", path, err)
			return nil
		}

		if d.IsDir() {
			if path != pw.mediaDir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			pw.foldersSeen.Add(1)
			return nil
		}

		kind := mediatypes.GetFileType(strings.ToLower(filepath.Ext(d.Name())))
		if kind == mediatypes.FileTypeOther {
			return nil
		}

		relPath, err := filepath.Rel(pw.mediaDir, path)
		if err != nil {
			//nolint:nilerr // skip this file but keep walking
			return nil
		}

		info, err := d.Info()
		if err != nil {
			logging.Warn("Error getting info for %s: %v", path, err)
			return nil
		}

		select {
		case pw.jobs <- fileJob{path: path, relPath: filepath.ToSlash(relPath), info: info, kind: kind}:
		case <-ctx.Done():
			return ctx.Err()
		}
		return nil
	})
}

// worker processes files from the jobs channel
func (pw *ParallelWalker) worker(ctx context.Context, id int) {
	defer pw.wg.Done()

	logging.Debug("Index worker %d started", id)

	for job := range pw.jobs {
		if ctx.Err() != nil {
			continue
		}
		pw.filesSeen.Add(1)

		result := pw.processFile(ctx, job)
		if result.changed {
			pw.filesChanged.Add(1)
		}
		pw.results <- result
	}

	logging.Debug("Index worker %d finished", id)
}

// processFile compares the file with its stored fingerprint and extracts
// metadata when it is new or changed.
func (pw *ParallelWalker) processFile(ctx context.Context, job fileJob) walkResult {
	if fp, ok := pw.fingerprints[job.relPath]; ok &&
		fp.Size == job.info.Size() && fp.ModTime.Equal(job.info.ModTime().Truncate(time.Millisecond)) {
		return walkResult{asset: database.Asset{Path: job.relPath}}
	}

	asset := database.Asset{
		ID:       database.AssetID(job.relPath),
		Path:     job.relPath,
		Filename: job.info.Name(),
		Kind:     job.kind,
		Hidden:   strings.HasPrefix(job.info.Name(), "."),
		Size:     job.info.Size(),
		ModTime:  job.info.ModTime(),
	}
	extractMetadata(ctx, job.path, &asset)
	return walkResult{asset: asset, changed: true}
}

// Stats returns the number of media files, changed files and folders seen
func (pw *ParallelWalker) Stats() (files, changed, folders int64) {
	return pw.filesSeen.Load(), pw.filesChanged.Load(), pw.foldersSeen.Load()
}
