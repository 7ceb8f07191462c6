// Package metrics provides Prometheus instrumentation for the media bridge.
//
// All metrics are prefixed with "media_bridge_" and registered through
// promauto, so importing the package is enough to expose them on the
// promhttp handler.
//
// # Metric Categories
//
// ## HTTP Metrics
//
//   - HTTPRequestsTotal: requests by method, path template and status
//   - HTTPRequestDuration: request duration by method and path template
//   - HTTPRequestsInFlight: requests currently being served
//
// ## Database Metrics
//
//   - DBQueryTotal, DBQueryDuration: per store operation
//   - DBTransactionDuration: indexer batches by commit/rollback
//   - DBConnectionsOpen: open SQLite connections
//
// ## Indexer Metrics
//
//   - IndexerRunsTotal, IndexerLastRunTimestamp, IndexerLastRunDuration
//   - IndexerAssetsProcessed, IndexerErrors, IndexerIsRunning
//   - IndexerMetadataErrors: EXIF, ffprobe and image header failures
//
// ## Listing Metrics
//
//   - ListingsTotal: photos/videos calls by outcome (complete, cancelled, busy, error)
//   - ListingDuration: enumeration time
//   - ListingAssetsEmitted, ListingAssetsSkipped: per media type
//   - ListingCancellations: listings stopped by a cancel request
//
// ## Thumbnail and Export Metrics
//
//   - ThumbnailGenerationsTotal, ThumbnailGenerationDuration, ThumbnailFFmpegDuration
//   - ExportJobsTotal, ExportDuration, ExportJobsInFlight, ExportFilesRetained
//
// ## Library Metrics
//
// Refreshed by Collector from the store:
//   - LibraryAssetsTotal: assets by store kind
//   - LibraryCollectionsTotal: collections by kind
package metrics
