package vips

import (
	"fmt"
	"sync"

	"coverart/internal/logging"
	"coverart/internal/media"

	libvips "github.com/davidbyttow/govips/v2/vips"
)

var (
	initialized bool
	initMutex   sync.Mutex
)

// Init starts libvips once per process, routing its log output through the
// application logger at a verbosity matching the current log level.
func Init() {
	initMutex.Lock()
	defer initMutex.Unlock()

	if initialized {
		return
	}

	// Configure vips logging BEFORE Startup() so LOG_LEVEL is respected
	level, handler := logSettings(logging.GetLevel())
	libvips.LoggingSettings(handler, level)

	libvips.Startup(&libvips.Config{
		ConcurrencyLevel: 1,                // Process one image at a time to control memory
		MaxCacheMem:      50 * 1024 * 1024, // 50MB cache
		MaxCacheSize:     100,              // Max 100 operations cached
		ReportLeaks:      false,
		CacheTrace:       false,
		CollectStats:     false,
	})

	initialized = true
	logging.Info("libvips initialized successfully (version: %s)", libvips.Version)
}

// Shutdown releases libvips resources. libvips cannot be restarted afterwards.
func Shutdown() {
	initMutex.Lock()
	defer initMutex.Unlock()

	if initialized {
		libvips.Shutdown()
		initialized = false
		logging.Info("libvips shutdown complete")
	}
}

// IsAvailable returns whether libvips is initialized.
func IsAvailable() bool {
	initMutex.Lock()
	defer initMutex.Unlock()
	return initialized
}

func logSettings(appLevel logging.LogLevel) (libvips.LogLevel, libvips.LoggingHandlerFunction) {
	forward := func(min libvips.LogLevel) libvips.LoggingHandlerFunction {
		return func(domain string, level libvips.LogLevel, msg string) {
			if level > min {
				return
			}
			switch level {
			case libvips.LogLevelError, libvips.LogLevelCritical:
				logging.Error("[%s] %s", domain, msg)
			case libvips.LogLevelWarning:
				logging.Warn("[%s] %s", domain, msg)
			default:
				logging.Debug("[%s] %s", domain, msg)
			}
		}
	}

	// glib levels grow more verbose as their value increases
	switch appLevel {
	case logging.LevelDebug:
		return libvips.LogLevelInfo, forward(libvips.LogLevelDebug)
	case logging.LevelInfo:
		return libvips.LogLevelWarning, forward(libvips.LogLevelWarning)
	default:
		// ERROR sorts below CRITICAL in glib, so this keeps both
		return libvips.LogLevelCritical, forward(libvips.LogLevelCritical)
	}
}

// Codec is a media.Codec backed by libvips. It shrinks JPEGs during decode,
// which keeps memory flat for very large embedded artwork.
type Codec struct {
	quality int
}

// NewCodec initializes libvips if needed and returns a Codec encoding at the
// given JPEG quality.
func NewCodec(quality int) *Codec {
	Init()
	return &Codec{quality: media.ClampQuality(quality)}
}

// Transcode implements media.Codec with the same contract as
// media.ImagingCodec: fit inside width×width, never upscale, always JPEG.
func (c *Codec) Transcode(raw []byte, width int) (*media.Image, error) {
	if width < 1 {
		return nil, fmt.Errorf("invalid target width %d", width)
	}

	format, _, ok := media.DetectFormat(raw)
	if !ok {
		return nil, &media.DecodeError{Format: "unknown", Err: media.ErrUnsupportedFormat}
	}

	ref, err := libvips.NewImageFromBuffer(raw)
	if err != nil {
		return nil, &media.DecodeError{Format: format, Err: err}
	}
	defer ref.Close()

	if ref.Width()*ref.Height() > media.MaxImagePixels {
		return nil, &media.DecodeError{Format: format, Err: media.ErrImageTooLarge}
	}

	if err := ref.AutoRotate(); err != nil {
		return nil, &media.DecodeError{Format: format, Err: err}
	}

	if ref.Width() > width || ref.Height() > width {
		origW, origH := ref.Width(), ref.Height()
		if err := ref.Thumbnail(width, width, libvips.InterestingNone); err != nil {
			return nil, fmt.Errorf("vips resize failed: %w", err)
		}
		logging.Debug("Vips scaled %s cover %dx%d -> %dx%d", format, origW, origH, ref.Width(), ref.Height())
	}

	if ref.HasAlpha() {
		if err := ref.Flatten(&libvips.Color{R: 255, G: 255, B: 255}); err != nil {
			return nil, fmt.Errorf("vips flatten failed: %w", err)
		}
	}

	data, _, err := ref.ExportJpeg(&libvips.JpegExportParams{
		Quality:        c.quality,
		StripMetadata:  true,
		OptimizeCoding: true,
	})
	if err != nil {
		return nil, fmt.Errorf("vips export failed: %w", err)
	}

	return &media.Image{
		Data:     data,
		MimeType: "image/jpeg",
		Width:    ref.Width(),
		Height:   ref.Height(),
	}, nil
}
