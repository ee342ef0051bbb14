// Package metrics provides Prometheus instrumentation for the cover art service.
//
// All metrics are registered with the default registry through promauto and
// are prefixed with "coverart_".
//
// # Metric Categories
//
// ## HTTP Metrics
//
//   - HTTPRequestsTotal: Counter of total requests by method, path, and status
//   - HTTPRequestDuration: Histogram of request duration by method and path
//   - HTTPRequestsInFlight: Gauge of currently processing requests
//
// ## Database Metrics
//
//   - DBQueryTotal: Counter of queries by operation and status
//   - DBQueryDuration: Histogram of query duration by operation
//   - DBConnectionsOpen: Gauge of open database connections
//   - DBSizeBytes: Gauge of database file sizes (main, WAL, SHM)
//
// ## Cover Cache Metrics
//
//   - CoverCacheHits / CoverCacheMisses: Counters incremented on every store lookup
//   - CoverCacheEvictions: Counter of entries evicted by the size bound
//   - CoverCacheFlushes: Counter of explicit flushes
//   - CoverCacheSize / CoverCacheEntries / CoverCacheMaxSize: Gauges of cache occupancy
//   - CoverDefaultEntries: Gauge of default cover renditions held in memory
//
// ## Cover Pipeline Metrics
//
//   - CoverResolutionsTotal: Counter by entity kind and the source that answered
//     (cache, embedded, directory, default)
//   - CoverTranscodeDuration: Histogram of decode/scale/encode time by source
//   - CoverTranscodeErrors: Counter of undecodable sources
//   - CoverCandidatesScanned: Histogram of image candidates per directory scan
//   - CoverSourceTooLarge: Counter of directory images skipped for size
//
// ## Indexer Metrics
//
//   - IndexerRunsTotal: Counter of library index runs by status
//   - IndexerLastRunDuration / IndexerTracksIndexed / IndexerWorkers: Gauges describing the last run
//
// ## Memory Metrics
//
//   - GoMemAllocBytes / GoMemSysBytes / GoGCRuns: Runtime statistics refreshed by the Collector
//   - MemoryLimitBytes: The soft memory limit applied at startup
//   - MemoryUsageRatio / MemoryPaused / MemoryGCPauses: Backpressure state of batch work
//
// ## Filesystem Metrics
//
// Recorded through the [filesystem.Observer] returned by NewFilesystemObserver,
// which keeps the filesystem package free of Prometheus imports.
//
// # Collector
//
// [Collector] periodically polls a [StatsProvider] and refreshes the cache
// occupancy gauges, database file sizes and Go memory statistics:
//
//	collector := metrics.NewCollector(grabber, dbPath, time.Minute)
//	collector.Start()
//	defer collector.Stop()
//
// # Prometheus Queries
//
// Cover cache hit rate:
//
//	rate(coverart_cache_hits_total[5m]) /
//	(rate(coverart_cache_hits_total[5m]) + rate(coverart_cache_misses_total[5m]))
//
// Share of requests answered by the default cover:
//
//	sum(rate(coverart_resolutions_total{source="default"}[5m])) /
//	sum(rate(coverart_resolutions_total[5m]))
//
// P95 transcode time by source:
//
//	histogram_quantile(0.95, sum(rate(coverart_transcode_duration_seconds_bucket[5m])) by (le, source))
package metrics
