// Package cover retrieves and caches cover art for tracks and releases.
//
// A [Grabber] answers GetFromTrack and GetFromRelease by trying, in order:
//
//  1. the in-memory [Store], keyed by entity kind, id and width
//  2. pictures embedded in the track's media file
//  3. image files next to the track, ranked by [Scanner] (the track's own
//     file name first, then the preferred names such as "cover" and "front",
//     then any other image in name order)
//  4. for multi-disc releases, image files in the parent directory
//  5. the default cover
//
// Whatever is found, the default cover included, is cached under the
// requested key so a track without artwork is not rescanned until the next
// FlushCache. Every rendition is re-encoded to JPEG and never upscaled.
//
// The Store is bounded by total payload size and evicts in insertion order.
// Only invalid widths and entity kinds are reported as errors.
package cover
