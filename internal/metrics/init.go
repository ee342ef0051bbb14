package metrics

// InitializeMetrics pre-populates all expected label combinations so that
// every metric is exported from the first Prometheus scrape.
// Call this once at startup after metric registration.
func InitializeMetrics() {
	for _, kind := range []string{"track", "release"} {
		for _, source := range []string{"cache", "embedded", "directory", "default"} {
			CoverResolutionsTotal.WithLabelValues(kind, source)
		}
	}

	for _, source := range []string{"embedded", "directory", "default"} {
		CoverTranscodeDuration.WithLabelValues(source)
		CoverTranscodeErrors.WithLabelValues(source)
	}

	IndexerRunsTotal.WithLabelValues("success")
	IndexerRunsTotal.WithLabelValues("error")

	volumes := []string{"media", "default", "unknown"}
	for _, vol := range volumes {
		for _, op := range []string{"stat", "read", "readdir"} {
			FilesystemOperationDuration.WithLabelValues(vol, op)
			FilesystemOperationErrors.WithLabelValues(vol, op)
		}
		for _, op := range []string{"stat", "open", "readdir"} {
			FilesystemRetryAttempts.WithLabelValues(op, vol)
			FilesystemRetrySuccess.WithLabelValues(op, vol)
			FilesystemRetryFailures.WithLabelValues(op, vol)
			FilesystemStaleErrors.WithLabelValues(op, vol)
			FilesystemRetryDuration.WithLabelValues(op, vol)
		}
	}

	for _, op := range []string{"initialize_schema", "get_track", "release_first_track",
		"upsert_release", "upsert_track", "list_releases", "list_tracks",
		"get_metadata", "set_metadata"} {
		DBQueryTotal.WithLabelValues(op, "success")
		DBQueryTotal.WithLabelValues(op, "error")
		DBQueryDuration.WithLabelValues(op)
	}
}
