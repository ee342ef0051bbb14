package media

import (
	"bytes"
	"fmt"
	"image"
	"image/color"

	"coverart/internal/logging"

	// Image format decoders
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"  // BMP format support
	_ "golang.org/x/image/webp" // WebP format support
)

const (
	// MaxImageDimension is the largest cover width a caller may request.
	MaxImageDimension = 4096

	// MaxImagePixels is the maximum total pixels (width * height) we'll decode.
	// A 50MP image would be ~50,000,000 pixels, which uses ~200MB in RGBA.
	MaxImagePixels = 40_000_000

	// DefaultJPEGQuality is used when a codec is built with quality 0.
	DefaultJPEGQuality = 75
)

// Codec turns raw image bytes into a JPEG that fits inside a width×width box.
type Codec interface {
	Transcode(raw []byte, width int) (*Image, error)
}

// ClampQuality forces q into the valid JPEG quality range 1..100.
// Zero selects DefaultJPEGQuality.
func ClampQuality(q int) int {
	switch {
	case q == 0:
		return DefaultJPEGQuality
	case q < 1:
		return 1
	case q > 100:
		return 100
	}
	return q
}

// ImagingCodec is the pure-Go Codec built on disintegration/imaging.
type ImagingCodec struct {
	quality int
}

// NewImagingCodec creates an ImagingCodec encoding at the given JPEG quality.
func NewImagingCodec(quality int) *ImagingCodec {
	return &ImagingCodec{quality: ClampQuality(quality)}
}

// Quality returns the JPEG quality the codec encodes with.
func (c *ImagingCodec) Quality() int {
	return c.quality
}

// Transcode decodes raw (honoring EXIF orientation), shrinks it to fit inside
// width×width preserving aspect ratio and re-encodes it as JPEG. Images that
// already fit are re-encoded at their own size and never upscaled.
func (c *ImagingCodec) Transcode(raw []byte, width int) (*Image, error) {
	if width < 1 {
		return nil, fmt.Errorf("invalid target width %d", width)
	}

	format, _, ok := DetectFormat(raw)
	if !ok {
		return nil, &DecodeError{Format: "unknown", Err: ErrUnsupportedFormat}
	}
	if !decodableFormats[format] {
		return nil, &DecodeError{Format: format, Err: ErrUnsupportedFormat}
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		return nil, &DecodeError{Format: format, Err: err}
	}
	if cfg.Width*cfg.Height > MaxImagePixels {
		return nil, &DecodeError{Format: format, Err: ErrImageTooLarge}
	}

	img, err := imaging.Decode(bytes.NewReader(raw), imaging.AutoOrientation(true))
	if err != nil {
		return nil, &DecodeError{Format: format, Err: err}
	}

	b := img.Bounds()
	if b.Dx() > width || b.Dy() > width {
		img = imaging.Fit(img, width, width, imaging.Lanczos)
		logging.Debug("Scaled %s cover %dx%d -> %dx%d", format, b.Dx(), b.Dy(), img.Bounds().Dx(), img.Bounds().Dy())
	}
	img = flatten(img)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(c.quality)); err != nil {
		return nil, fmt.Errorf("failed to encode cover: %w", err)
	}

	return &Image{
		Data:     buf.Bytes(),
		MimeType: "image/jpeg",
		Width:    img.Bounds().Dx(),
		Height:   img.Bounds().Dy(),
	}, nil
}

// flatten composites images with transparency onto a white background,
// since JPEG has no alpha channel.
func flatten(img image.Image) image.Image {
	if o, ok := img.(interface{ Opaque() bool }); ok && o.Opaque() {
		return img
	}
	b := img.Bounds()
	bg := imaging.New(b.Dx(), b.Dy(), color.White)
	return imaging.Overlay(bg, img, image.Pt(0, 0), 1.0)
}
