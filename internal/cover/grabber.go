package cover

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"time"

	"coverart/internal/filesystem"
	"coverart/internal/logging"
	"coverart/internal/media"
	"coverart/internal/metrics"

	"github.com/dustin/go-humanize"
)

var log = logging.For("cover")

// Sources a cover is served from, as reported by GetWithSource and in
// metrics.
const (
	SourceCache     = "cache"
	SourceEmbedded  = "embedded"
	SourceDirectory = "directory"
	SourceDefault   = "default"
)

// TrackInfo is what the Grabber needs to know about a track.
type TrackInfo struct {
	Path             string
	HasCover         bool // the library saw embedded pictures when scanning
	ReleaseDiscCount int
}

// Library resolves tracks and releases to media files.
type Library interface {
	Track(ctx context.Context, id int64) (TrackInfo, error)
	// ReleaseFirstTrack returns the release's first track in disc, track
	// number, id order.
	ReleaseFirstTrack(ctx context.Context, releaseID int64) (int64, error)
}

// Config holds the Grabber settings. They are fixed for its lifetime.
type Config struct {
	DefaultCoverPath string
	MaxCacheBytes    int64
	MaxFileSize      int64
	JPEGQuality      int
	PreferredNames   []string

	// IgnoreHasCover probes every track for embedded pictures instead of
	// trusting TrackInfo.HasCover.
	IgnoreHasCover bool
}

// Grabber retrieves covers for tracks and releases, falling back from
// embedded pictures to image files next to the track and finally to the
// default cover. Every rendition, including the default, is cached per
// entity and width. A Grabber is safe for concurrent use.
type Grabber struct {
	cfg      Config
	library  Library
	pictures media.PictureSource
	codec    media.Codec
	scanner  *Scanner
	store    *Store
	defaults *defaultCovers
}

// New creates a Grabber. A nil pictures uses media.TagPictureSource and a nil
// codec uses media.ImagingCodec at cfg.JPEGQuality. The default cover is read
// and rendered once; if that fails New returns an error wrapping
// ErrDefaultCover.
func New(cfg Config, library Library, pictures media.PictureSource, codec media.Codec) (*Grabber, error) {
	if library == nil {
		return nil, errors.New("cover: nil library")
	}
	if pictures == nil {
		pictures = media.NewTagPictureSource()
	}
	if codec == nil {
		codec = media.NewImagingCodec(cfg.JPEGQuality)
	}
	cfg.JPEGQuality = media.ClampQuality(cfg.JPEGQuality)
	if len(cfg.PreferredNames) == 0 {
		cfg.PreferredNames = DefaultPreferredNames
	}

	log.Info("Default cover path = '%s'", cfg.DefaultCoverPath)
	log.Info("Max cache size = %s", humanize.IBytes(uint64(max(cfg.MaxCacheBytes, 0))))
	log.Info("Max file size = %s", humanize.IBytes(uint64(max(cfg.MaxFileSize, 0))))
	log.Info("JPEG export quality = %d", cfg.JPEGQuality)
	log.Info("Preferred cover names = %s", strings.Join(cfg.PreferredNames, ", "))

	defaults, err := loadDefaultCovers(cfg.DefaultCoverPath, codec)
	if err != nil {
		return nil, err
	}

	metrics.CoverCacheMaxSize.Set(float64(cfg.MaxCacheBytes))

	return &Grabber{
		cfg:      cfg,
		library:  library,
		pictures: pictures,
		codec:    codec,
		scanner:  NewScanner(cfg.PreferredNames, cfg.MaxFileSize),
		store:    NewStore(cfg.MaxCacheBytes),
		defaults: defaults,
	}, nil
}

// Get dispatches on kind to GetFromTrack or GetFromRelease.
func (g *Grabber) Get(ctx context.Context, kind EntityKind, id int64, width int) (*EncodedImage, error) {
	img, _, err := g.GetWithSource(ctx, kind, id, width)
	return img, err
}

// GetWithSource is Get that also reports where the cover came from: one of
// SourceCache, SourceEmbedded, SourceDirectory or SourceDefault.
func (g *Grabber) GetWithSource(ctx context.Context, kind EntityKind, id int64, width int) (*EncodedImage, string, error) {
	switch kind {
	case KindTrack:
		return g.fromTrack(ctx, id, width)
	case KindRelease:
		return g.fromRelease(ctx, id, width)
	default:
		return nil, "", ErrInvalidKind
	}
}

// GetFromTrack returns the cover of a track at the given width. The only
// errors are ErrInvalidWidth; missing art yields the default cover.
func (g *Grabber) GetFromTrack(ctx context.Context, trackID int64, width int) (*EncodedImage, error) {
	img, _, err := g.fromTrack(ctx, trackID, width)
	return img, err
}

// GetFromRelease returns the cover of a release's first track at the given
// width, cached under the release as well.
func (g *Grabber) GetFromRelease(ctx context.Context, releaseID int64, width int) (*EncodedImage, error) {
	img, _, err := g.fromRelease(ctx, releaseID, width)
	return img, err
}

func (g *Grabber) fromTrack(ctx context.Context, trackID int64, width int) (*EncodedImage, string, error) {
	if err := checkWidth(width); err != nil {
		return nil, "", err
	}
	img, source, _ := g.track(ctx, trackID, width)
	metrics.CoverResolutionsTotal.WithLabelValues(KindTrack.String(), source).Inc()
	return img, source, nil
}

func (g *Grabber) fromRelease(ctx context.Context, releaseID int64, width int) (*EncodedImage, string, error) {
	if err := checkWidth(width); err != nil {
		return nil, "", err
	}

	key := Key{Kind: KindRelease, ID: releaseID, Width: width}
	if img, ok := g.store.Lookup(key); ok {
		metrics.CoverResolutionsTotal.WithLabelValues(KindRelease.String(), SourceCache).Inc()
		return img, SourceCache, nil
	}

	trackID, err := g.library.ReleaseFirstTrack(ctx, releaseID)
	if err != nil {
		log.Debug("Cannot resolve first track of release %d: %v", releaseID, err)
		metrics.CoverResolutionsTotal.WithLabelValues(KindRelease.String(), SourceDefault).Inc()
		return g.defaultCover(width), SourceDefault, nil
	}

	img, source, cacheable := g.track(ctx, trackID, width)
	if cacheable {
		img = g.store.Insert(key, img)
	}
	metrics.CoverResolutionsTotal.WithLabelValues(KindRelease.String(), source).Inc()
	return img, source, nil
}

// FlushCache empties the cover cache and resets its counters. Default covers
// are kept.
func (g *Grabber) FlushCache() {
	s := g.store.Stats()
	log.Debug("Cache stats: hits = %d, misses = %d, nb entries = %d, size = %d",
		s.Hits, s.Misses, s.Entries, s.ByteTotal)
	g.store.Flush()
	metrics.CoverCacheFlushes.Inc()
}

// Stats returns a snapshot of the cache.
func (g *Grabber) Stats() Stats {
	s := g.store.Stats()
	s.DefaultEntries = g.defaults.count()
	return s
}

// CacheStats implements metrics.StatsProvider.
func (g *Grabber) CacheStats() metrics.Stats {
	s := g.Stats()
	return metrics.Stats{
		Entries:   s.Entries,
		ByteTotal: s.ByteTotal,
		MaxBytes:  s.MaxBytes,
		Defaults:  s.DefaultEntries,
	}
}

// Scanner returns the directory scanner used by the Grabber.
func (g *Grabber) Scanner() *Scanner {
	return g.scanner
}

// track resolves, caches and returns a track cover. cacheable is false when
// the track could not be resolved and the result was not cached.
func (g *Grabber) track(ctx context.Context, trackID int64, width int) (img *EncodedImage, source string, cacheable bool) {
	key := Key{Kind: KindTrack, ID: trackID, Width: width}
	if img, ok := g.store.Lookup(key); ok {
		return img, SourceCache, true
	}

	info, err := g.library.Track(ctx, trackID)
	if err == nil && info.Path == "" {
		err = errors.New("no path recorded")
	}
	if err != nil {
		log.Debug("Cannot resolve track %d: %v", trackID, err)
		return g.defaultCover(width), SourceDefault, false
	}

	img, source = g.resolve(info, width)
	return g.store.Insert(key, img), source, true
}

func (g *Grabber) resolve(info TrackInfo, width int) (*EncodedImage, string) {
	if info.HasCover || g.cfg.IgnoreHasCover {
		if img := g.fromMediaFile(info.Path, width); img != nil {
			return img, SourceEmbedded
		}
	}

	dir := filepath.Dir(info.Path)
	stem := strings.TrimSuffix(filepath.Base(info.Path), filepath.Ext(info.Path))
	if img := g.fromDirectory(dir, width, stem); img != nil {
		return img, SourceDirectory
	}

	// Multi-disc releases usually keep the cover next to the disc folders.
	if info.ReleaseDiscCount > 1 {
		if parent := filepath.Dir(dir); parent != dir {
			if img := g.fromDirectory(parent, width); img != nil {
				return img, SourceDirectory
			}
		}
	}

	return g.defaultCover(width), SourceDefault
}

func (g *Grabber) fromMediaFile(path string, width int) *EncodedImage {
	pics, err := g.pictures.ExtractPictures(path)
	if err != nil {
		if errors.Is(err, media.ErrNoPictures) {
			log.Debug("No embedded cover in '%s'", path)
		} else {
			log.Error("Cannot get covers from track '%s': %v", path, err)
		}
		return nil
	}

	for _, raw := range pics {
		img, err := g.transcode(raw, width, SourceEmbedded)
		if err != nil {
			log.Error("Cannot read embedded cover in '%s': %v", path, err)
			continue
		}
		return img
	}
	return nil
}

func (g *Grabber) fromDirectory(dir string, width int, extraPreferred ...string) *EncodedImage {
	for _, c := range g.scanner.Scan(dir, extraPreferred...) {
		raw, err := filesystem.ReadFileWithRetry(c.Path, filesystem.DefaultRetryConfig())
		if err != nil {
			log.Error("Cannot read cover file '%s': %v", c.Path, err)
			continue
		}
		img, err := g.transcode(raw, width, SourceDirectory)
		if err != nil {
			log.Error("Cannot read cover in file '%s': %v", c.Path, err)
			continue
		}
		return img
	}
	return nil
}

func (g *Grabber) transcode(raw []byte, width int, source string) (*EncodedImage, error) {
	start := time.Now()
	out, err := g.codec.Transcode(raw, width)
	if err != nil {
		metrics.CoverTranscodeErrors.WithLabelValues(source).Inc()
		return nil, err
	}
	metrics.CoverTranscodeDuration.WithLabelValues(source).Observe(time.Since(start).Seconds())
	return NewEncodedImage(out.Data, out.MimeType), nil
}

// defaultCover returns the default cover at width. If that rendition cannot
// be produced the file is served as is.
func (g *Grabber) defaultCover(width int) *EncodedImage {
	img, err := g.defaults.get(width)
	if err != nil {
		log.Error("Cannot render default cover at width %d: %v", width, err)
		return g.defaults.original()
	}
	return img
}
