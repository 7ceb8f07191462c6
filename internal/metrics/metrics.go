package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_bridge_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_bridge_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_bridge_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)
)

// Database metrics
var (
	DBQueryTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_bridge_db_queries_total",
			Help: "Total number of database queries",
		},
		[]string{"operation", "status"},
	)

	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_bridge_db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"operation"},
	)

	DBTransactionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_bridge_db_transaction_duration_seconds",
			Help:    "Duration of database transactions by outcome",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30},
		},
		[]string{"outcome"},
	)

	DBConnectionsOpen = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_bridge_db_connections_open",
			Help: "Number of open database connections",
		},
	)
)

// Indexer metrics
var (
	IndexerRunsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_bridge_indexer_runs_total",
			Help: "Total number of indexer runs",
		},
	)

	IndexerLastRunTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_bridge_indexer_last_run_timestamp",
			Help: "Timestamp of the last indexer run",
		},
	)

	IndexerLastRunDuration = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_bridge_indexer_last_run_duration_seconds",
			Help: "Duration of the last indexer run in seconds",
		},
	)

	IndexerAssetsProcessed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_bridge_indexer_assets_processed_total",
			Help: "Total number of assets processed by the indexer",
		},
	)

	IndexerMetadataErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_bridge_indexer_metadata_errors_total",
			Help: "Metadata extraction failures by source",
		},
		[]string{"source"}, // "exif", "ffprobe", "config"
	)

	IndexerErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_bridge_indexer_errors_total",
			Help: "Total number of indexer errors",
		},
	)

	IndexerIsRunning = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_bridge_indexer_running",
			Help: "Whether the indexer is currently running (1 = running, 0 = idle)",
		},
	)
)

// Listing metrics
var (
	ListingsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_bridge_listings_total",
			Help: "Asset listing calls by media type and outcome",
		},
		[]string{"media_type", "status"}, // status: "complete", "cancelled", "busy", "error"
	)

	ListingDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_bridge_listing_duration_seconds",
			Help:    "Time spent enumerating assets",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"media_type"},
	)

	ListingAssetsEmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_bridge_listing_assets_emitted_total",
			Help: "Asset records returned to callers",
		},
		[]string{"media_type"},
	)

	ListingAssetsSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_bridge_listing_assets_skipped_total",
			Help: "Assets skipped because their filename could not be classified",
		},
		[]string{"media_type"},
	)

	ListingCancellations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_bridge_listing_cancellations_total",
			Help: "Number of running listings stopped by a cancel request",
		},
	)
)

// Thumbnail metrics
var (
	ThumbnailGenerationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_bridge_thumbnail_generations_total",
			Help: "Thumbnail renders by asset type and outcome",
		},
		[]string{"type", "status"},
	)

	ThumbnailGenerationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_bridge_thumbnail_generation_duration_seconds",
			Help:    "Thumbnail render duration by asset type",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"type"},
	)

	ThumbnailFFmpegDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "media_bridge_thumbnail_ffmpeg_duration_seconds",
			Help:    "Time spent in ffmpeg extracting the first video frame",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
	)
)

// Export metrics
var (
	ExportJobsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_bridge_export_jobs_total",
			Help: "Video export jobs by terminal status",
		},
		[]string{"status"}, // "completed", "failed", "cancelled", "unexpected"
	)

	ExportDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "media_bridge_export_duration_seconds",
			Help:    "Duration of video export jobs",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		},
	)

	ExportJobsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_bridge_export_jobs_in_flight",
			Help: "Number of video exports currently running",
		},
	)

	ExportFilesRetained = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_bridge_export_files_retained",
			Help: "Completed export files waiting to be released",
		},
	)
)

// Library contents
var (
	LibraryAssetsTotal = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "media_bridge_library_assets_total",
			Help: "Indexed assets by store kind",
		},
		[]string{"kind"},
	)

	LibraryCollectionsTotal = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "media_bridge_library_collections_total",
			Help: "Materialized collections by kind",
		},
		[]string{"kind"},
	)
)

// Filesystem metrics
var (
	FilesystemStaleErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_bridge_filesystem_stale_errors_total",
			Help: "NFS stale file handle errors by operation",
		},
		[]string{"operation"}, // "stat", "open"
	)

	FilesystemRetryFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_bridge_filesystem_retry_failures_total",
			Help: "Filesystem operations that still failed after all retries",
		},
		[]string{"operation"},
	)
)
