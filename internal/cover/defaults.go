package cover

import (
	"fmt"
	"sync"
	"time"

	"coverart/internal/filesystem"
	"coverart/internal/media"
	"coverart/internal/metrics"
)

// defaultWarmWidth is rendered at construction so a broken default cover
// fails startup instead of the first request.
const defaultWarmWidth = 512

// defaultCovers holds the default cover rendered at each requested width.
// The set of widths is small and caller-controlled, so it is never evicted.
type defaultCovers struct {
	path  string
	raw   []byte
	codec media.Codec

	mu      sync.RWMutex
	byWidth map[int]*EncodedImage
}

func loadDefaultCovers(path string, codec media.Codec) (*defaultCovers, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: no default cover path configured", ErrDefaultCover)
	}

	raw, err := filesystem.ReadFileWithRetry(path, filesystem.DefaultRetryConfig())
	if err != nil {
		return nil, fmt.Errorf("%w: cannot read '%s': %v", ErrDefaultCover, path, err)
	}

	d := &defaultCovers{
		path:    path,
		raw:     raw,
		codec:   codec,
		byWidth: make(map[int]*EncodedImage),
	}
	if _, err := d.get(defaultWarmWidth); err != nil {
		return nil, fmt.Errorf("%w: cannot decode '%s': %v", ErrDefaultCover, path, err)
	}
	return d, nil
}

// get returns the default cover at width, rendering it on first use.
func (d *defaultCovers) get(width int) (*EncodedImage, error) {
	d.mu.RLock()
	img, ok := d.byWidth[width]
	d.mu.RUnlock()
	if ok {
		return img, nil
	}

	start := time.Now()
	out, err := d.codec.Transcode(d.raw, width)
	if err != nil {
		metrics.CoverTranscodeErrors.WithLabelValues(SourceDefault).Inc()
		return nil, err
	}
	metrics.CoverTranscodeDuration.WithLabelValues(SourceDefault).Observe(time.Since(start).Seconds())

	d.mu.Lock()
	defer d.mu.Unlock()
	if existing, ok := d.byWidth[width]; ok {
		return existing, nil
	}
	img = NewEncodedImage(out.Data, out.MimeType)
	d.byWidth[width] = img
	log.Debug("Default cache entries = %d", len(d.byWidth))
	return img, nil
}

// original returns the default cover file as read from disk.
func (d *defaultCovers) original() *EncodedImage {
	return NewEncodedImage(d.raw, media.DetectMimeType(d.raw))
}

func (d *defaultCovers) count() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.byWidth)
}
