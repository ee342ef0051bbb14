package cover

import "errors"

// Only caller mistakes are reported as errors by the Grabber. Missing or
// broken artwork always degrades to the default cover.
var (
	ErrInvalidWidth = errors.New("invalid cover width")
	ErrInvalidKind  = errors.New("invalid entity kind")

	// ErrDefaultCover is returned by New when the default cover cannot be
	// read or decoded. It is a fatal configuration error.
	ErrDefaultCover = errors.New("default cover unavailable")
)
