package indexer

import (
	"context"
	"errors"
	"io/fs"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"coverart/internal/database"
	"coverart/internal/logging"
	"coverart/internal/media"
	"coverart/internal/metrics"
)

// ErrAlreadyIndexing is returned when Index is called while a run is active.
var ErrAlreadyIndexing = errors.New("indexing already in progress")

// discDirPattern matches per-disc folders such as "CD1", "Disc 2" or "disk-03".
var discDirPattern = regexp.MustCompile(`(?i)^(?:cd|disc|disk)[\s_-]*(\d+)$`)

// leadingNumber matches the track number prefix of names like "01 - Intro.flac".
var leadingNumber = regexp.MustCompile(`^(\d+)`)

// Result summarizes an index run.
type Result struct {
	Releases  int           `json:"releases"`
	Tracks    int           `json:"tracks"`
	WithCover int           `json:"withCover"`
	Errors    int           `json:"errors"`
	Duration  time.Duration `json:"duration"`
}

// Indexer walks a media directory and records its releases and tracks in the
// library database. Every directory holding audio files is a release; disc
// folders are folded into their parent.
type Indexer struct {
	db       *database.Database
	mediaDir string
	pictures media.PictureSource
	config   Config
	throttle Throttle

	mu         sync.Mutex
	isIndexing bool
}

type trackJob struct {
	path     string
	disc     int
	number   int
	hasCover bool
}

type releaseJob struct {
	dir    string
	tracks []*trackJob
}

// New creates an Indexer. pictures is used to record which tracks carry
// embedded artwork.
func New(db *database.Database, mediaDir string, pictures media.PictureSource) *Indexer {
	return &Indexer{
		db:       db,
		mediaDir: mediaDir,
		pictures: pictures,
		config:   DefaultConfig(),
	}
}

// Throttle pauses batch work under memory pressure. *memory.Monitor
// satisfies it.
type Throttle interface {
	WaitIfPaused() bool
}

// SetThrottle makes the probe workers wait on t before each file.
func (idx *Indexer) SetThrottle(t Throttle) {
	idx.throttle = t
}

// SetConfig replaces the walker configuration.
func (idx *Indexer) SetConfig(config Config) {
	idx.config = config
}

// Index walks the media directory once and upserts everything it finds.
func (idx *Indexer) Index(ctx context.Context) (result Result, err error) {
	idx.mu.Lock()
	if idx.isIndexing {
		idx.mu.Unlock()
		return Result{}, ErrAlreadyIndexing
	}
	idx.isIndexing = true
	idx.mu.Unlock()

	start := time.Now()
	defer func() {
		idx.mu.Lock()
		idx.isIndexing = false
		idx.mu.Unlock()

		result.Duration = time.Since(start)
		status := "success"
		if err != nil {
			status = "error"
		}
		metrics.IndexerRunsTotal.WithLabelValues(status).Inc()
		metrics.IndexerLastRunDuration.Set(result.Duration.Seconds())
		metrics.IndexerTracksIndexed.Set(float64(result.Tracks))
	}()

	logging.Info("Indexing %s with %d workers", idx.mediaDir, idx.config.NumWorkers)

	releases, err := idx.walk(ctx)
	if err != nil {
		return result, err
	}

	var all []*trackJob
	for _, r := range releases {
		all = append(all, r.tracks...)
	}
	result.Tracks = len(all)

	withCover, err := idx.probeCovers(ctx, all)
	if err != nil {
		return result, err
	}
	result.WithCover = withCover

	for _, r := range releases {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if err := idx.store(ctx, r); err != nil {
			logging.Warn("Failed to store release %s: %v", r.dir, err)
			result.Errors++
			continue
		}
		result.Releases++
	}

	logging.Info("Index complete: %d releases, %d tracks (%d with embedded cover) in %v",
		result.Releases, result.Tracks, result.WithCover, time.Since(start))
	return result, nil
}

// walk collects the audio files under the media directory grouped by release,
// sorted by release directory and then by disc and track number.
func (idx *Indexer) walk(ctx context.Context) ([]*releaseJob, error) {
	byDir := make(map[string]*releaseJob)

	err := filepath.WalkDir(idx.mediaDir, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			logging.Warn("Error accessing path %s: %v", path, err)
			return nil
		}

		name := d.Name()
		if idx.config.SkipHidden && path != idx.mediaDir && strings.HasPrefix(name, ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !media.IsAudioFile(name) {
			return nil
		}

		dir, disc := releaseDir(filepath.Dir(path))
		r, ok := byDir[dir]
		if !ok {
			r = &releaseJob{dir: dir}
			byDir[dir] = r
		}
		r.tracks = append(r.tracks, &trackJob{path: path, disc: disc})
		return nil
	})
	if err != nil {
		return nil, err
	}

	releases := make([]*releaseJob, 0, len(byDir))
	for _, r := range byDir {
		numberTracks(r.tracks)
		releases = append(releases, r)
	}
	sort.Slice(releases, func(i, j int) bool { return releases[i].dir < releases[j].dir })
	return releases, nil
}

// releaseDir maps a track's directory to its release directory and disc
// number.
func releaseDir(dir string) (string, int) {
	if m := discDirPattern.FindStringSubmatch(filepath.Base(dir)); m != nil {
		if disc, err := strconv.Atoi(m[1]); err == nil && disc > 0 {
			return filepath.Dir(dir), disc
		}
	}
	return dir, 1
}

// numberTracks sorts tracks by disc and file name and assigns track numbers
// from the file name prefix, falling back to the position on the disc.
func numberTracks(tracks []*trackJob) {
	sort.Slice(tracks, func(i, j int) bool {
		if tracks[i].disc != tracks[j].disc {
			return tracks[i].disc < tracks[j].disc
		}
		return tracks[i].path < tracks[j].path
	})

	pos := 0
	for i, t := range tracks {
		if i == 0 || tracks[i-1].disc != t.disc {
			pos = 0
		}
		pos++
		t.number = pos
		if m := leadingNumber.FindString(filepath.Base(t.path)); m != "" {
			if n, err := strconv.Atoi(m); err == nil {
				t.number = n
			}
		}
	}
}

func (idx *Indexer) store(ctx context.Context, r *releaseJob) error {
	discs := 1
	for _, t := range r.tracks {
		discs = max(discs, t.disc)
	}

	releaseID, err := idx.db.UpsertRelease(ctx, database.Release{
		Name:       filepath.Base(r.dir),
		Path:       r.dir,
		TotalDiscs: discs,
	})
	if err != nil {
		return err
	}

	for _, t := range r.tracks {
		_, err := idx.db.UpsertTrack(ctx, database.Track{
			ReleaseID:   releaseID,
			Path:        t.path,
			DiscNumber:  t.disc,
			TrackNumber: t.number,
			HasCover:    t.hasCover,
		})
		if err != nil {
			return err
		}
	}
	return nil
}
