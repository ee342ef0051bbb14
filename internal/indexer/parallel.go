package indexer

import (
	"context"
	"errors"
	"os"
	"strconv"
	"sync/atomic"

	"coverart/internal/logging"
	"coverart/internal/media"
	"coverart/internal/metrics"
	"coverart/internal/workers"
)

// Config configures the indexer.
type Config struct {
	// NumWorkers is the number of goroutines probing tracks for embedded
	// pictures.
	NumWorkers int
	// SkipHidden skips files and directories starting with "."
	SkipHidden bool
}

// DefaultConfig sizes the probe pool for I/O-bound work. INDEX_WORKERS
// overrides the count.
func DefaultConfig() Config {
	numWorkers := workers.ForIO(8)
	if override := os.Getenv("INDEX_WORKERS"); override != "" {
		if count, err := strconv.Atoi(override); err == nil && count > 0 {
			numWorkers = count
		}
	}

	return Config{
		NumWorkers: numWorkers,
		SkipHidden: true,
	}
}

// probeCovers records on every job whether its file carries embedded
// pictures and returns how many do.
func (idx *Indexer) probeCovers(ctx context.Context, jobs []*trackJob) (int, error) {
	if idx.pictures == nil {
		return 0, nil
	}

	metrics.IndexerWorkers.Set(float64(idx.config.NumWorkers))

	var withCover atomic.Int64
	err := workers.Run(ctx, idx.config.NumWorkers, jobs, func(_ context.Context, t *trackJob) {
		if idx.throttle != nil && !idx.throttle.WaitIfPaused() {
			return
		}
		_, err := idx.pictures.ExtractPictures(t.path)
		switch {
		case err == nil:
			t.hasCover = true
			withCover.Add(1)
		case errors.Is(err, media.ErrNoPictures):
		default:
			logging.Debug("Cannot read tags of %s: %v", t.path, err)
		}
	})
	return int(withCover.Load()), err
}
