// Package vips provides a media.Codec backed by libvips through govips.
//
// libvips shrinks JPEG sources while decoding, so large embedded artwork is
// scaled without materializing the full-size bitmap. The package needs cgo
// and libvips at build time, which is why it lives apart from package media.
// Select it with COVER_CODEC=vips.
package vips
