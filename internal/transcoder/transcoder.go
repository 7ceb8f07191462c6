package transcoder

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"media-bridge/internal/database"
	"media-bridge/internal/filesystem"
	"media-bridge/internal/logging"
	"media-bridge/internal/media"
	"media-bridge/internal/metrics"

	"github.com/google/uuid"
)

// Exporter runs video exports into a private directory and owns the
// resulting files until they are released or expire.
type Exporter struct {
	mediaDir  string
	exportDir string
	retention time.Duration
	slots     chan struct{}

	mu       sync.Mutex
	running  map[string]*Job
	retained map[string]retainedFile

	stopOnce sync.Once
	stop     chan struct{}
	wg       sync.WaitGroup
}

type retainedFile struct {
	path    string
	expires time.Time
}

// New creates an Exporter. workers bounds concurrent ffmpeg processes and
// retention is how long a completed file is kept when nobody releases it.
func New(mediaDir, exportDir string, workers int, retention time.Duration) *Exporter {
	if workers < 1 {
		workers = 1
	}
	return &Exporter{
		mediaDir:  mediaDir,
		exportDir: exportDir,
		retention: retention,
		slots:     make(chan struct{}, workers),
		running:   make(map[string]*Job),
		retained:  make(map[string]retainedFile),
		stop:      make(chan struct{}),
	}
}

// IsEnabled reports whether the export directory is usable.
func (e *Exporter) IsEnabled() bool {
	return e.exportDir != ""
}

// Export starts exporting a video asset. Probe, output type and output path
// problems are returned directly; everything after ffmpeg starts is reported
// on the job's event channel. Cancelling ctx cancels the export.
func (e *Exporter) Export(ctx context.Context, asset database.Asset) (*Job, error) {
	if !e.IsEnabled() {
		return nil, fmt.Errorf("%w: export directory not configured", ErrExportFailed)
	}

	source := filepath.Join(e.mediaDir, filepath.FromSlash(asset.Path))
	if info, err := filesystem.StatWithRetry(source, filesystem.DefaultRetryConfig()); err != nil || info.Size() == 0 {
		return nil, media.ErrNoMediaData
	}

	probe, err := media.ProbeVideo(ctx, source)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExportFailed, err)
	}

	ext, err := ChooseOutputType(SupportedOutputTypes(probe.Codec))
	if err != nil {
		return nil, fmt.Errorf("%w: codec %q", err, probe.Codec)
	}

	token := uuid.NewString()
	output := e.outputPath(token, asset.ID, ext)
	if err := os.MkdirAll(filepath.Dir(output), 0o755); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExportFailed, err)
	}
	if err := os.Remove(output); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: removing previous export: %v", ErrExportFailed, err)
	}

	jobCtx, cancel := context.WithCancel(ctx)
	job := newJob(asset.ID, output, token, cancel)

	e.mu.Lock()
	e.running[job.Token] = job
	e.mu.Unlock()

	logging.Info("Exporting %s (%s) to %s", asset.Path, probe.Codec, filepath.Base(output))

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		defer cancel()
		e.run(jobCtx, job, source, ext, probe.Duration)
	}()

	return job, nil
}

// outputPath places every job in a directory named after its token, so two
// exports of the same asset never share a file.
func (e *Exporter) outputPath(token, assetID, ext string) string {
	return filepath.Join(e.exportDir, token, exportFileName(assetID, ext))
}

func (e *Exporter) run(ctx context.Context, job *Job, source, ext string, duration float64) {
	start := time.Now()

	select {
	case e.slots <- struct{}{}:
	case <-ctx.Done():
		e.complete(job, StatusCancelled, nil, start)
		return
	}
	defer func() { <-e.slots }()

	metrics.ExportJobsInFlight.Inc()
	err := e.copyStreams(ctx, job, source, ext, duration)
	metrics.ExportJobsInFlight.Dec()

	switch {
	case ctx.Err() != nil:
		e.complete(job, StatusCancelled, nil, start)
	case err != nil:
		e.complete(job, StatusFailed, err, start)
	default:
		e.complete(job, StatusCompleted, nil, start)
	}
}

// copyStreams remuxes source into the job's output path without re-encoding.
func (e *Exporter) copyStreams(ctx context.Context, job *Job, source, ext string, duration float64) error {
	args := []string{
		"-v", "error",
		"-y",
		"-i", source,
		"-map", "0:v:0",
		"-map", "0:a?",
		"-c", "copy",
		"-map_metadata", "0",
	}
	args = append(args, muxerArgs(ext)...)
	args = append(args, "-progress", "pipe:1", "-nostats", job.OutputPath)

	cmd := exec.CommandContext(ctx, "ffmpeg", args...)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("failed to create stdout pipe: %w", err)
	}
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start ffmpeg: %w", err)
	}

	if err := parseProgress(stdout, duration, job.reportProgress); err != nil {
		logging.Debug("reading ffmpeg progress for %s: %v", job.AssetID, err)
	}

	if err := cmd.Wait(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return errors.New(msg)
		}
		return err
	}
	return nil
}

// complete records the outcome, cleans up partial output and emits the
// terminal event.
func (e *Exporter) complete(job *Job, status Status, cause error, start time.Time) {
	ev := Event{Status: status}
	label := string(status)

	switch status {
	case StatusCompleted:
		ev.Location = job.OutputPath
		ev.Token = job.Token
	case StatusFailed:
		ev.Err = fmt.Errorf("%w: %v", ErrExportFailed, cause)
	case StatusCancelled:
		ev.Err = ErrExportCancelled
	default:
		label = "unexpected"
		ev.Status = StatusFailed
		ev.Err = fmt.Errorf("%w: unexpected status %q", ErrExportFailed, status)
	}

	e.mu.Lock()
	delete(e.running, job.Token)
	if ev.Status == StatusCompleted {
		e.retained[job.Token] = retainedFile{path: job.OutputPath, expires: time.Now().Add(e.retention)}
		metrics.ExportFilesRetained.Set(float64(len(e.retained)))
	}
	e.mu.Unlock()

	if ev.Status != StatusCompleted {
		e.removeExport(job.OutputPath)
		logging.Warn("Export of %s %s: %v", job.AssetID, label, ev.Err)
	} else {
		logging.Info("Export of %s completed in %v", job.AssetID, time.Since(start).Round(time.Millisecond))
	}

	metrics.ExportJobsTotal.WithLabelValues(label).Inc()
	metrics.ExportDuration.Observe(time.Since(start).Seconds())

	job.finish(ev)
}

// Lookup returns the path of a retained export.
func (e *Exporter) Lookup(token string) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	f, ok := e.retained[token]
	if !ok {
		return "", ErrUnknownExport
	}
	return f.path, nil
}

// Release deletes a completed export and forgets its token.
func (e *Exporter) Release(token string) error {
	e.mu.Lock()
	f, ok := e.retained[token]
	delete(e.retained, token)
	metrics.ExportFilesRetained.Set(float64(len(e.retained)))
	e.mu.Unlock()

	if !ok {
		return ErrUnknownExport
	}
	e.removeExport(f.path)
	logging.Debug("Released export %s", filepath.Base(f.path))
	return nil
}

// Start runs the janitor that removes exports nobody released.
func (e *Exporter) Start() {
	interval := e.retention / 2
	if interval < time.Second {
		interval = time.Second
	}

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				e.sweep(time.Now())
			case <-e.stop:
				return
			}
		}
	}()
}

// sweep removes retained files that expired before now.
func (e *Exporter) sweep(now time.Time) int {
	e.mu.Lock()
	var expired []string
	for token, f := range e.retained {
		if now.After(f.expires) {
			expired = append(expired, f.path)
			delete(e.retained, token)
		}
	}
	metrics.ExportFilesRetained.Set(float64(len(e.retained)))
	e.mu.Unlock()

	for _, path := range expired {
		e.removeExport(path)
	}
	if len(expired) > 0 {
		logging.Info("Removed %d expired export(s)", len(expired))
	}
	return len(expired)
}

// Cleanup cancels running exports, waits for them and removes every retained
// file.
func (e *Exporter) Cleanup() {
	e.stopOnce.Do(func() { close(e.stop) })

	e.mu.Lock()
	for token, job := range e.running {
		logging.Info("Cancelling export of %s", job.AssetID)
		job.Cancel()
		delete(e.running, token)
	}
	e.mu.Unlock()

	e.wg.Wait()

	e.mu.Lock()
	files := make([]string, 0, len(e.retained))
	for token, f := range e.retained {
		files = append(files, f.path)
		delete(e.retained, token)
	}
	metrics.ExportFilesRetained.Set(0)
	e.mu.Unlock()

	for _, path := range files {
		e.removeExport(path)
	}
}

// ClearExports removes files left behind in the export directory by a
// previous process and returns the number of bytes freed.
func (e *Exporter) ClearExports() (int64, error) {
	if e.exportDir == "" {
		return 0, nil
	}

	entries, err := os.ReadDir(e.exportDir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read export directory: %w", err)
	}

	var freedBytes int64
	for _, entry := range entries {
		path := filepath.Join(e.exportDir, entry.Name())
		size, err := diskUsage(path)
		if err != nil {
			logging.Warn("failed to get info for %s: %v", path, err)
			continue
		}
		if err := os.RemoveAll(path); err != nil {
			logging.Warn("failed to remove %s: %v", path, err)
			continue
		}
		freedBytes += size
	}

	if freedBytes > 0 {
		logging.Info("Cleared stale exports: freed %d bytes", freedBytes)
	}
	return freedBytes, nil
}

// diskUsage sums the sizes of the regular files under path.
func diskUsage(path string) (int64, error) {
	var total int64
	err := filepath.WalkDir(path, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() {
			info, err := d.Info()
			if err != nil {
				return err
			}
			total += info.Size()
		}
		return nil
	})
	return total, err
}

// removeExport deletes an export file and its per-job directory.
func (e *Exporter) removeExport(path string) {
	removeFile(path)
	if dir := filepath.Dir(path); dir != filepath.Clean(e.exportDir) {
		removeFile(dir)
	}
}

func removeFile(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		logging.Warn("failed to remove export %s: %v", path, err)
	}
}
