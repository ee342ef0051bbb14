// Package indexer populates the library database from a media directory.
//
// Every directory holding audio files becomes a release named after the
// directory. Folders named like "CD1" or "Disc 2" are folded into their
// parent release with the matching disc number. Track numbers come from the
// leading digits of the file name, or the file's position on its disc.
//
// Tracks are probed for embedded pictures by a bounded worker pool so the
// cover service can skip the tag read for tracks known to have none.
package indexer
