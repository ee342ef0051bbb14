package metrics

import (
	"os"
	"runtime"
	"sync"
	"time"

	"coverart/internal/logging"
)

// StatsProvider interface for collecting stats
type StatsProvider interface {
	CacheStats() Stats
}

// Stats holds the current cover cache occupancy. Hit, miss and eviction
// counters are incremented at the source and are not polled.
type Stats struct {
	Entries   int
	ByteTotal int64
	MaxBytes  int64
	Defaults  int
}

// Collector periodically collects and updates metrics
type Collector struct {
	statsProvider StatsProvider
	dbPath        string
	interval      time.Duration
	stopChan      chan struct{}
	stopOnce      sync.Once
	lastGCCount   uint32
}

// NewCollector creates a new metrics collector
func NewCollector(provider StatsProvider, dbPath string, interval time.Duration) *Collector {
	return &Collector{
		statsProvider: provider,
		dbPath:        dbPath,
		interval:      interval,
		stopChan:      make(chan struct{}),
	}
}

// Start begins the metrics collection loop
func (c *Collector) Start() {
	go c.collectLoop()
}

// Stop stops the metrics collection. Safe to call more than once.
func (c *Collector) Stop() {
	c.stopOnce.Do(func() { close(c.stopChan) })
}

func (c *Collector) collectLoop() {
	// Collect immediately on start
	c.collect()
	c.collectDBSize()
	c.collectMemoryMetrics()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.collect()
			c.collectDBSize()
			c.collectMemoryMetrics()
		case <-c.stopChan:
			return
		}
	}
}

func (c *Collector) collect() {
	if c.statsProvider == nil {
		return
	}

	stats := c.statsProvider.CacheStats()

	CoverCacheEntries.Set(float64(stats.Entries))
	CoverCacheSize.Set(float64(stats.ByteTotal))
	CoverCacheMaxSize.Set(float64(stats.MaxBytes))
	CoverDefaultEntries.Set(float64(stats.Defaults))

	logging.Debug("Metrics collected: entries=%d, bytes=%d, defaults=%d",
		stats.Entries, stats.ByteTotal, stats.Defaults)
}

func (c *Collector) collectDBSize() {
	if c.dbPath == "" {
		return
	}

	files := map[string]string{
		"main": c.dbPath,
		"wal":  c.dbPath + "-wal",
		"shm":  c.dbPath + "-shm",
	}
	for label, path := range files {
		info, err := os.Stat(path)
		if err != nil {
			DBSizeBytes.WithLabelValues(label).Set(0)
			continue
		}
		DBSizeBytes.WithLabelValues(label).Set(float64(info.Size()))
	}
}

func (c *Collector) collectMemoryMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	GoMemAllocBytes.Set(float64(m.Alloc))
	GoMemSysBytes.Set(float64(m.Sys))

	if m.NumGC > c.lastGCCount {
		GoGCRuns.Add(float64(m.NumGC - c.lastGCCount))
	}
	c.lastGCCount = m.NumGC
}
