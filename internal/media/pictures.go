package media

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"coverart/internal/filesystem"
	"coverart/internal/logging"

	"github.com/bogem/id3v2"
	"github.com/dhowden/tag"
	"github.com/go-flac/flacpicture"
	flac "github.com/go-flac/go-flac"
)

// PictureSource extracts the pictures embedded in a media file.
type PictureSource interface {
	// ExtractPictures returns the embedded pictures of the file at path,
	// front covers first. It returns ErrNoPictures when the file has none.
	ExtractPictures(path string) ([][]byte, error)
}

// picture is an embedded image with its declared role.
type picture struct {
	data       []byte
	frontCover bool
}

// TagPictureSource reads embedded pictures from audio file tags. FLAC files
// are read through their PICTURE metadata blocks, MP3 files through their
// ID3v2 APIC frames and everything else through dhowden/tag.
type TagPictureSource struct {
	retry filesystem.RetryConfig
}

// NewTagPictureSource creates a TagPictureSource.
func NewTagPictureSource() *TagPictureSource {
	return &TagPictureSource{retry: filesystem.DefaultRetryConfig()}
}

// ExtractPictures implements PictureSource.
func (s *TagPictureSource) ExtractPictures(path string) ([][]byte, error) {
	var (
		pics []picture
		err  error
	)

	switch strings.ToLower(filepath.Ext(path)) {
	case ".flac":
		pics, err = flacPictures(path)
	case ".mp3":
		pics, err = id3Pictures(path)
	default:
		pics, err = s.genericPictures(path)
	}
	if err != nil {
		return nil, err
	}
	if len(pics) == 0 {
		return nil, ErrNoPictures
	}

	// Front covers first, then the remaining pictures in tag order.
	sort.SliceStable(pics, func(i, j int) bool {
		return pics[i].frontCover && !pics[j].frontCover
	})

	out := make([][]byte, 0, len(pics))
	for _, p := range pics {
		out = append(out, p.data)
	}
	logging.Debug("Found %d embedded picture(s) in %s", len(out), path)
	return out, nil
}

func flacPictures(path string) ([]picture, error) {
	f, err := flac.ParseFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to parse flac %s: %w", path, err)
	}

	var pics []picture
	for _, block := range f.Meta {
		if block.Type != flac.Picture {
			continue
		}
		pic, err := flacpicture.ParseFromMetaDataBlock(*block)
		if err != nil {
			logging.Debug("Skipping malformed flac picture block in %s: %v", path, err)
			continue
		}
		if len(pic.ImageData) == 0 {
			continue
		}
		pics = append(pics, picture{
			data:       pic.ImageData,
			frontCover: pic.PictureType == flacpicture.PictureTypeFrontCover,
		})
	}
	return pics, nil
}

func id3Pictures(path string) ([]picture, error) {
	t, err := id3v2.Open(path, id3v2.Options{Parse: true, ParseFrames: []string{"Attached picture"}})
	if err != nil {
		return nil, fmt.Errorf("failed to open id3 tag %s: %w", path, err)
	}
	defer t.Close()

	var pics []picture
	for _, f := range t.GetFrames(t.CommonID("Attached picture")) {
		pf, ok := f.(id3v2.PictureFrame)
		if !ok || len(pf.Picture) == 0 {
			continue
		}
		pics = append(pics, picture{
			data:       pf.Picture,
			frontCover: pf.PictureType == id3v2.PTFrontCover,
		})
	}
	return pics, nil
}

func (s *TagPictureSource) genericPictures(path string) ([]picture, error) {
	f, err := filesystem.OpenWithRetry(path, s.retry)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	m, err := tag.ReadFrom(f)
	if err != nil {
		if errors.Is(err, tag.ErrNoTagsFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read tags from %s: %w", path, err)
	}

	pic := m.Picture()
	if pic == nil || len(pic.Data) == 0 {
		return nil, nil
	}
	return []picture{{data: pic.Data, frontCover: true}}, nil
}
