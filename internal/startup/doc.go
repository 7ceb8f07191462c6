// Package startup handles application initialization, configuration loading,
// and startup/shutdown logging.
//
// # Configuration
//
// All configuration is loaded from environment variables via [LoadConfig]:
//
//   - MEDIA_DIR: Path to the media library (default: /media)
//   - MEDIA_DIR_CREATE: Allow an authorization request to create MEDIA_DIR (default: false)
//   - CACHE_DIR: Path to the cache directory holding video exports (default: /cache)
//   - DATABASE_DIR: Path to database directory (default: /database)
//   - PORT: HTTP server port (default: 8080)
//   - METRICS_PORT: Prometheus metrics server port (default: 9090)
//   - METRICS_ENABLED: Enable or disable metrics server (default: true)
//   - INDEX_INTERVAL: Full re-index interval as Go duration, 0 disables (default: 30m)
//   - INDEX_WORKERS: Metadata extraction workers, 0 for automatic (default: 0)
//   - EXPORT_RETENTION: How long an unreleased export file is kept (default: 10m)
//   - EXPORT_WORKERS: Concurrent video exports, 0 for automatic (default: 0)
//   - LOG_LEVEL: Logging level - debug, info, warn, error (default: info)
//   - LOG_RENDITIONS: Log thumbnail and image requests (default: false)
//   - LOG_HEALTH_CHECKS: Log health check requests (default: true)
//
// # Directory Setup
//
// The database directory is created when missing and must be writable.
// The export directory below CACHE_DIR is optional; when it cannot be
// created or written, video export is disabled. The media directory is only
// inspected, never created here.
package startup
