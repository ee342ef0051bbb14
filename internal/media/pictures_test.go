package media

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/bogem/id3v2"
	"github.com/go-flac/flacpicture"
	flac "github.com/go-flac/go-flac"
)

type testPicture struct {
	data  []byte
	front bool
}

// writeTestFLAC writes a metadata-only FLAC file carrying the given pictures.
func writeTestFLAC(t *testing.T, path string, pics ...testPicture) {
	t.Helper()

	f := &flac.File{
		Meta: []*flac.MetaDataBlock{
			{Type: flac.StreamInfo, Data: make([]byte, 34)},
		},
	}
	for i, p := range pics {
		pt := flacpicture.PictureTypeBackCover
		if p.front {
			pt = flacpicture.PictureTypeFrontCover
		}
		pic, err := flacpicture.NewFromImageData(pt, "picture", p.data, "image/jpeg")
		if err != nil {
			t.Fatalf("picture %d: %v", i, err)
		}
		block := pic.Marshal()
		f.Meta = append(f.Meta, &block)
	}

	if err := f.Save(path); err != nil {
		t.Fatalf("Failed to write test flac: %v", err)
	}
}

// writeTestID3 writes an ID3v2 tag carrying the given pictures followed by
// some filler standing in for audio frames.
func writeTestID3(t *testing.T, path string, pics ...testPicture) {
	t.Helper()

	tag := id3v2.NewEmptyTag()
	for i, p := range pics {
		var pt byte = id3v2.PTBackCover
		if p.front {
			pt = id3v2.PTFrontCover
		}
		tag.AddAttachedPicture(id3v2.PictureFrame{
			Encoding:    id3v2.EncodingUTF8,
			MimeType:    "image/jpeg",
			PictureType: pt,
			Description: string(rune('a' + i)),
			Picture:     p.data,
		})
	}

	var buf bytes.Buffer
	if _, err := tag.WriteTo(&buf); err != nil {
		t.Fatalf("Failed to encode id3 tag: %v", err)
	}
	buf.Write(bytes.Repeat([]byte{0xFF, 0xFB, 0x90, 0x00}, 64))

	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("Failed to write test mp3: %v", err)
	}
}

func TestTagPictureSourceFLAC(t *testing.T) {
	dir := t.TempDir()
	back := encodeTestImage(t, 20, 20, "jpeg")
	front := encodeTestImage(t, 30, 30, "jpeg")

	path := filepath.Join(dir, "01 - Track.flac")
	writeTestFLAC(t, path, testPicture{back, false}, testPicture{front, true})

	pics, err := NewTagPictureSource().ExtractPictures(path)
	if err != nil {
		t.Fatalf("ExtractPictures() error = %v", err)
	}
	if len(pics) != 2 {
		t.Fatalf("got %d pictures, want 2", len(pics))
	}
	if !bytes.Equal(pics[0], front) {
		t.Error("front cover should be returned first")
	}
	if !bytes.Equal(pics[1], back) {
		t.Error("back cover should follow the front cover")
	}
}

func TestTagPictureSourceFLACWithoutPictures(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bare.flac")
	writeTestFLAC(t, path)

	_, err := NewTagPictureSource().ExtractPictures(path)
	if !errors.Is(err, ErrNoPictures) {
		t.Errorf("ExtractPictures() error = %v, want ErrNoPictures", err)
	}
}

func TestTagPictureSourceMP3(t *testing.T) {
	dir := t.TempDir()
	back := encodeTestImage(t, 16, 16, "jpeg")
	front := encodeTestImage(t, 24, 24, "jpeg")

	path := filepath.Join(dir, "track.MP3")
	writeTestID3(t, path, testPicture{back, false}, testPicture{front, true})

	pics, err := NewTagPictureSource().ExtractPictures(path)
	if err != nil {
		t.Fatalf("ExtractPictures() error = %v", err)
	}
	if len(pics) != 2 {
		t.Fatalf("got %d pictures, want 2", len(pics))
	}
	if !bytes.Equal(pics[0], front) {
		t.Error("front cover should be returned first")
	}
}

func TestTagPictureSourceGenericTags(t *testing.T) {
	dir := t.TempDir()
	cover := encodeTestImage(t, 16, 16, "jpeg")

	// Not .mp3, so the generic tag reader handles the ID3 header.
	path := filepath.Join(dir, "track.wav")
	writeTestID3(t, path, testPicture{cover, true})

	pics, err := NewTagPictureSource().ExtractPictures(path)
	if err != nil {
		t.Fatalf("ExtractPictures() error = %v", err)
	}
	if len(pics) != 1 || !bytes.Equal(pics[0], cover) {
		t.Errorf("got %d pictures, want the embedded cover", len(pics))
	}
}

func TestTagPictureSourceNoTags(t *testing.T) {
	path := filepath.Join(t.TempDir(), "track.ogg")
	if err := os.WriteFile(path, []byte("this is not an audio file at all"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := NewTagPictureSource().ExtractPictures(path)
	if !errors.Is(err, ErrNoPictures) {
		t.Errorf("ExtractPictures() error = %v, want ErrNoPictures", err)
	}
}

func TestTagPictureSourceMissingFile(t *testing.T) {
	dir := t.TempDir()

	for _, name := range []string{"gone.flac", "gone.mp3", "gone.m4a"} {
		t.Run(name, func(t *testing.T) {
			_, err := NewTagPictureSource().ExtractPictures(filepath.Join(dir, name))
			if err == nil {
				t.Fatal("ExtractPictures() on a missing file should fail")
			}
			if errors.Is(err, ErrNoPictures) {
				t.Error("missing file must not be reported as ErrNoPictures")
			}
		})
	}
}

func TestTagPictureSourceInterface(_ *testing.T) {
	var _ PictureSource = (*TagPictureSource)(nil)
}
