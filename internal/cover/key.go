package cover

import (
	"fmt"

	"coverart/internal/media"
)

// MaxWidth is the largest rendition width a caller may request.
const MaxWidth = media.MaxImageDimension

// EntityKind identifies what a cover belongs to.
type EntityKind uint8

const (
	// KindTrack is a single track's cover.
	KindTrack EntityKind = iota + 1
	// KindRelease is a release's cover, taken from its first track.
	KindRelease
)

func (k EntityKind) String() string {
	switch k {
	case KindTrack:
		return "track"
	case KindRelease:
		return "release"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Valid reports whether k is one of the declared kinds.
func (k EntityKind) Valid() bool {
	return k == KindTrack || k == KindRelease
}

// ParseKind maps "track" or "release" to its EntityKind.
func ParseKind(s string) (EntityKind, error) {
	switch s {
	case "track":
		return KindTrack, nil
	case "release":
		return KindRelease, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidKind, s)
}

// Key identifies one cached rendition. It is comparable and used directly as
// a map key.
type Key struct {
	Kind  EntityKind
	ID    int64
	Width int
}

func (k Key) String() string {
	return fmt.Sprintf("%s/%d@%d", k.Kind, k.ID, k.Width)
}

func checkWidth(width int) error {
	if width < 1 || width > MaxWidth {
		return fmt.Errorf("%w: %d (must be 1..%d)", ErrInvalidWidth, width, MaxWidth)
	}
	return nil
}
