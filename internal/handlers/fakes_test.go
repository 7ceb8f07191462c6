package handlers

import (
	"context"
	"sync"
	"time"

	"media-bridge/internal/database"
	"media-bridge/internal/indexer"
	"media-bridge/internal/library"
	"media-bridge/internal/media"
	"media-bridge/internal/permission"
	"media-bridge/internal/transcoder"
)

// fakeLibrary records calls and returns canned results.
type fakeLibrary struct {
	mu sync.Mutex

	status     permission.Status
	err        error
	collection []library.CollectionDescriptor
	records    []library.AssetRecord
	data       []byte
	cancelled  bool

	gotMode     string
	gotOpts     library.ListOptions
	gotKind     string
	gotID       string
	gotThumb    media.ThumbnailOptions
	released    []string
	releaseErr  error
	requestSeen bool
}

func (f *fakeLibrary) Authorization(context.Context) (permission.Status, error) {
	return f.status, f.err
}

func (f *fakeLibrary) RequestAuthorization(context.Context) (permission.Status, error) {
	f.requestSeen = true
	return f.status, f.err
}

func (f *fakeLibrary) Collections(_ context.Context, mode string) ([]library.CollectionDescriptor, error) {
	f.gotMode = mode
	return f.collection, f.err
}

func (f *fakeLibrary) Photos(_ context.Context, opts library.ListOptions) ([]library.AssetRecord, error) {
	f.gotKind, f.gotOpts = "photos", opts
	return f.records, f.err
}

func (f *fakeLibrary) Videos(_ context.Context, opts library.ListOptions) ([]library.AssetRecord, error) {
	f.gotKind, f.gotOpts = "videos", opts
	return f.records, f.err
}

func (f *fakeLibrary) Cancel() bool {
	return f.cancelled
}

func (f *fakeLibrary) Thumbnail(_ context.Context, id string, opts media.ThumbnailOptions) ([]byte, error) {
	f.gotID, f.gotThumb = id, opts
	return f.data, f.err
}

func (f *fakeLibrary) Image(_ context.Context, id string) ([]byte, error) {
	f.gotID = id
	return f.data, f.err
}

func (f *fakeLibrary) ExportVideo(_ context.Context, id string) (*transcoder.Job, error) {
	f.gotID = id
	return nil, f.err
}

func (f *fakeLibrary) ReleaseExport(token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.released = append(f.released, token)
	return f.releaseErr
}

func (f *fakeLibrary) releasedTokens() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.released...)
}

// fakeExports maps tokens to files.
type fakeExports map[string]string

func (f fakeExports) Lookup(token string) (string, error) {
	path, ok := f[token]
	if !ok {
		return "", transcoder.ErrUnknownExport
	}
	return path, nil
}

// fakeIndexer reports a fixed health status.
type fakeIndexer struct {
	status    indexer.HealthStatus
	indexing  bool
	triggered int
}

func newFakeIndexer(ready bool) *fakeIndexer {
	return &fakeIndexer{status: indexer.HealthStatus{
		Ready:     ready,
		StartTime: time.Now(),
		Uptime:    "1m0s",
	}}
}

func (f *fakeIndexer) IsReady() bool                         { return f.status.Ready }
func (f *fakeIndexer) IsIndexing() bool                      { return f.indexing }
func (f *fakeIndexer) GetHealthStatus() indexer.HealthStatus { return f.status }

func (f *fakeIndexer) TriggerIndex() bool {
	if f.indexing {
		return false
	}
	f.triggered++
	return true
}

// fakeStats returns fixed index statistics.
type fakeStats database.IndexStats

func (f fakeStats) GetStats() database.IndexStats {
	return database.IndexStats(f)
}
