// Package database provides the SQLite music library the cover service
// resolves ids against.
//
// It stores releases and their tracks (media file path, disc and track
// numbers, and whether the scanner saw embedded pictures), plus a small
// key/value metadata table. [Database] implements cover.Library.
//
// The database uses WAL mode for concurrent reads and creates its schema on
// open.
package database
