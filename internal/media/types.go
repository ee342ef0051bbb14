package media

import (
	"path/filepath"
	"strings"

	"github.com/h2non/filetype"
)

// Image is an encoded picture produced by a Codec.
type Image struct {
	Data     []byte
	MimeType string
	Width    int
	Height   int
}

// ImageExtensions maps lowercase file extensions to whether they are accepted
// as directory cover images.
var ImageExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true,
	".bmp": true, ".gif": true, ".webp": true,
}

// IsImageFile reports whether name has an accepted image extension.
// The comparison is case-insensitive.
func IsImageFile(name string) bool {
	return ImageExtensions[strings.ToLower(filepath.Ext(name))]
}

// AudioExtensions maps lowercase file extensions to whether they are indexed
// as tracks.
var AudioExtensions = map[string]bool{
	".flac": true, ".mp3": true, ".m4a": true,
	".ogg": true, ".opus": true, ".wav": true,
}

// IsAudioFile reports whether name has an indexed audio extension.
func IsAudioFile(name string) bool {
	return AudioExtensions[strings.ToLower(filepath.Ext(name))]
}

// decodableFormats are the formats registered with the image package by this
// package's imports, keyed by the extension filetype reports.
var decodableFormats = map[string]bool{
	"jpg": true, "png": true, "gif": true, "bmp": true, "webp": true,
}

// DetectFormat sniffs the magic bytes of data and returns the image format
// extension (e.g. "jpg", "png") and its MIME type. ok is false when the data
// is not a recognized image.
func DetectFormat(data []byte) (format, mimeType string, ok bool) {
	kind, err := filetype.Image(data)
	if err != nil || kind == filetype.Unknown {
		return "", "", false
	}
	return kind.Extension, kind.MIME.Value, true
}

// DetectMimeType returns the MIME type of an image payload, falling back to
// application/octet-stream.
func DetectMimeType(data []byte) string {
	if _, mime, ok := DetectFormat(data); ok {
		return mime
	}
	return "application/octet-stream"
}
