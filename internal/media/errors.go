package media

import (
	"errors"
	"fmt"
)

var (
	// ErrNoPictures is returned by a PictureSource when the file carries no
	// embedded pictures.
	ErrNoPictures = errors.New("no embedded pictures")

	// ErrUnsupportedFormat means the bytes are not an image format the codec
	// can decode.
	ErrUnsupportedFormat = errors.New("unsupported image format")

	// ErrImageTooLarge means the source image exceeds MaxImagePixels.
	ErrImageTooLarge = errors.New("image exceeds pixel limit")
)

// DecodeError reports a source image the codec could not turn into a cover.
type DecodeError struct {
	Format string // detected format, "unknown" if none matched
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s image: %v", e.Format, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}
