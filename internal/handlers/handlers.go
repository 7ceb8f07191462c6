package handlers

import (
	"context"
	"time"

	"media-bridge/internal/database"
	"media-bridge/internal/indexer"
	"media-bridge/internal/library"
	"media-bridge/internal/media"
	"media-bridge/internal/permission"
	"media-bridge/internal/streaming"
	"media-bridge/internal/transcoder"
)

// Library is the subset of library.Service the handlers call.
type Library interface {
	Authorization(ctx context.Context) (permission.Status, error)
	RequestAuthorization(ctx context.Context) (permission.Status, error)
	Collections(ctx context.Context, mode string) ([]library.CollectionDescriptor, error)
	Photos(ctx context.Context, opts library.ListOptions) ([]library.AssetRecord, error)
	Videos(ctx context.Context, opts library.ListOptions) ([]library.AssetRecord, error)
	Cancel() bool
	Thumbnail(ctx context.Context, id string, opts media.ThumbnailOptions) ([]byte, error)
	Image(ctx context.Context, id string) ([]byte, error)
	ExportVideo(ctx context.Context, id string) (*transcoder.Job, error)
	ReleaseExport(token string) error
}

// ExportLocator maps export tokens to retained files.
type ExportLocator interface {
	Lookup(token string) (string, error)
}

// IndexerStatus reports and controls the background indexer.
type IndexerStatus interface {
	IsReady() bool
	IsIndexing() bool
	GetHealthStatus() indexer.HealthStatus
	TriggerIndex() bool
}

// StatsProvider returns cached index statistics.
type StatsProvider interface {
	GetStats() database.IndexStats
}

type Handlers struct {
	library      Library
	exports      ExportLocator
	indexer      IndexerStatus
	stats        StatsProvider
	writeTimeout time.Duration
}

func New(lib Library, exports ExportLocator, idx IndexerStatus, stats StatsProvider) *Handlers {
	return &Handlers{
		library:      lib,
		exports:      exports,
		indexer:      idx,
		stats:        stats,
		writeTimeout: streaming.DefaultWriteTimeout,
	}
}
