// Package media provides the image and audio-tag plumbing behind cover art
// retrieval.
//
// A [Codec] turns raw image bytes into a JPEG that fits a square box:
//   - [ImagingCodec]: pure Go, built on disintegration/imaging with
//     golang.org/x/image decoders for BMP and WebP
//   - the libvips codec in package coverart/internal/vips, for decode-time shrinking
//
// A [PictureSource] pulls the pictures embedded in audio files. The
// [TagPictureSource] reads FLAC PICTURE blocks, ID3v2 APIC frames and, for
// other containers, whatever dhowden/tag understands.
//
// Decode failures are reported as *[DecodeError]; use errors.As to inspect
// the detected format and errors.Is against [ErrUnsupportedFormat] or
// [ErrImageTooLarge] for the cause.
package media
