package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coverart_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "coverart_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "coverart_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)
)

// Database metrics
var (
	DBQueryTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coverart_db_queries_total",
			Help: "Total number of database queries",
		},
		[]string{"operation", "status"},
	)

	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "coverart_db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"operation"},
	)

	DBConnectionsOpen = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "coverart_db_connections_open",
			Help: "Number of open database connections",
		},
	)

	DBSizeBytes = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "coverart_db_size_bytes",
			Help: "Size of the library database files in bytes",
		},
		[]string{"file"}, // main, wal, shm
	)
)

// Cover cache metrics
var (
	CoverCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "coverart_cache_hits_total",
			Help: "Total number of cover cache hits",
		},
	)

	CoverCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "coverart_cache_misses_total",
			Help: "Total number of cover cache misses",
		},
	)

	CoverCacheEvictions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "coverart_cache_evictions_total",
			Help: "Total number of covers evicted to stay within the cache size bound",
		},
	)

	CoverCacheFlushes = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "coverart_cache_flushes_total",
			Help: "Total number of explicit cache flushes",
		},
	)

	CoverCacheSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "coverart_cache_size_bytes",
			Help: "Total payload size of cached covers in bytes",
		},
	)

	CoverCacheEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "coverart_cache_entries",
			Help: "Number of covers in the cache",
		},
	)

	CoverCacheMaxSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "coverart_cache_max_size_bytes",
			Help: "Configured maximum cumulative size of the cover cache",
		},
	)

	CoverDefaultEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "coverart_default_cache_entries",
			Help: "Number of default cover renditions held in memory",
		},
	)
)

// Library indexer metrics
var (
	IndexerRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coverart_indexer_runs_total",
			Help: "Total number of library index runs",
		},
		[]string{"status"}, // success, error
	)

	IndexerLastRunDuration = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "coverart_indexer_last_run_duration_seconds",
			Help: "Duration of the last library index run",
		},
	)

	IndexerTracksIndexed = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "coverart_indexer_tracks_indexed",
			Help: "Number of tracks seen by the last library index run",
		},
	)

	IndexerWorkers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "coverart_indexer_workers",
			Help: "Number of workers probing tracks for embedded covers",
		},
	)
)

// Cover pipeline metrics
var (
	CoverResolutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coverart_resolutions_total",
			Help: "Total number of cover requests by the source that satisfied them",
		},
		[]string{"kind", "source"}, // kind: track/release; source: cache/embedded/directory/default
	)

	CoverTranscodeDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "coverart_transcode_duration_seconds",
			Help:    "Time spent decoding, scaling and encoding a cover",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"source"},
	)

	CoverTranscodeErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coverart_transcode_errors_total",
			Help: "Total number of cover sources that could not be decoded",
		},
		[]string{"source"},
	)

	CoverCandidatesScanned = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "coverart_directory_candidates",
			Help:    "Number of candidate image files found per directory scan",
			Buckets: []float64{0, 1, 2, 3, 5, 10, 25, 50},
		},
	)

	CoverSourceTooLarge = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "coverart_directory_files_too_large_total",
			Help: "Total number of directory cover files skipped for exceeding the size limit",
		},
	)
)

// Filesystem metrics
var (
	FilesystemOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "coverart_filesystem_operation_duration_seconds",
			Help:    "Duration of filesystem operations by volume and operation",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
		[]string{"volume", "operation"},
	)

	FilesystemOperationErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coverart_filesystem_operation_errors_total",
			Help: "Total number of failed filesystem operations",
		},
		[]string{"volume", "operation"},
	)

	FilesystemRetryAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coverart_filesystem_retry_attempts_total",
			Help: "Total number of filesystem retry attempts after stale file handle errors",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetrySuccess = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coverart_filesystem_retry_success_total",
			Help: "Total number of filesystem operations that succeeded after retrying",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetryFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coverart_filesystem_retry_failures_total",
			Help: "Total number of filesystem operations that failed after all retries",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "coverart_filesystem_retry_duration_seconds",
			Help:    "Total duration of retried filesystem operations including backoff",
			Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2},
		},
		[]string{"operation", "volume"},
	)

	FilesystemStaleErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coverart_filesystem_stale_errors_total",
			Help: "Total number of NFS stale file handle errors",
		},
		[]string{"operation", "volume"},
	)
)

// Memory metrics
var (
	GoMemAllocBytes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "coverart_go_memalloc_bytes",
			Help: "Current heap allocation in bytes",
		},
	)

	GoMemSysBytes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "coverart_go_memsys_bytes",
			Help: "Total memory obtained from the OS in bytes",
		},
	)

	GoGCRuns = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "coverart_go_gc_runs_total",
			Help: "Total number of completed GC cycles",
		},
	)

	MemoryLimitBytes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "coverart_memory_limit_bytes",
			Help: "Configured Go soft memory limit in bytes (0 if unset)",
		},
	)

	MemoryUsageRatio = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "coverart_memory_usage_ratio",
			Help: "Heap allocation as a fraction of the memory limit",
		},
	)

	MemoryPaused = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "coverart_memory_paused",
			Help: "Whether batch work is paused due to memory pressure (1 = paused)",
		},
	)

	MemoryGCPauses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "coverart_memory_gc_pauses_total",
			Help: "Number of times batch work was paused for memory pressure",
		},
	)
)

// Application info metric
var (
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "coverart_app_info",
			Help: "Application information",
		},
		[]string{"version", "commit", "go_version"},
	)
)

// SetAppInfo sets the application info metric
func SetAppInfo(version, commit, goVersion string) {
	AppInfo.WithLabelValues(version, commit, goVersion).Set(1)
}
