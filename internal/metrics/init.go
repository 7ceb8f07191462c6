package metrics

// InitializeMetrics pre-populates all expected label combinations so that
// every metric is exported from the first Prometheus scrape.
// Call this once at startup after metric registration.
func InitializeMetrics() {
	for _, mt := range []string{"image", "video"} {
		for _, status := range []string{"complete", "cancelled", "busy", "error"} {
			ListingsTotal.WithLabelValues(mt, status)
		}
		ListingDuration.WithLabelValues(mt)
		ListingAssetsEmitted.WithLabelValues(mt)
		ListingAssetsSkipped.WithLabelValues(mt)

		for _, status := range []string{"success", "error_no_data", "error_encode", "error"} {
			ThumbnailGenerationsTotal.WithLabelValues(mt, status)
		}
		ThumbnailGenerationDuration.WithLabelValues(mt)
	}

	for _, status := range []string{"completed", "failed", "cancelled", "unexpected"} {
		ExportJobsTotal.WithLabelValues(status)
	}

	for _, source := range []string{"exif", "ffprobe", "config"} {
		IndexerMetadataErrors.WithLabelValues(source)
	}

	for _, kind := range []string{"image", "video", "audio", "other"} {
		LibraryAssetsTotal.WithLabelValues(kind)
	}
	for _, kind := range []string{"smart", "album", "folder", "moment"} {
		LibraryCollectionsTotal.WithLabelValues(kind)
	}

	for _, op := range []string{"initialize_schema", "upsert_asset", "delete_missing_assets",
		"collections", "collections_by_id", "assets", "assets_by_id", "rebuild_collections", "calculate_stats"} {
		DBQueryTotal.WithLabelValues(op, "success")
		DBQueryTotal.WithLabelValues(op, "error")
		DBQueryDuration.WithLabelValues(op)
	}

	for _, op := range []string{"stat", "open"} {
		FilesystemStaleErrors.WithLabelValues(op)
		FilesystemRetryFailures.WithLabelValues(op)
	}

	for _, outcome := range []string{"commit", "rollback"} {
		DBTransactionDuration.WithLabelValues(outcome)
	}
}
