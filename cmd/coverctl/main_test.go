package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"coverart/internal/cover"
)

func writeJPEG(t *testing.T, path string, w, h int) {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{B: 180, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
}

// setupCLIEnv points the configuration at a temporary library with one
// release whose cover.jpg is 200x100, and returns the media directory.
func setupCLIEnv(t *testing.T) string {
	t.Helper()

	root := t.TempDir()
	mediaDir := filepath.Join(root, "media")
	defaultCover := filepath.Join(root, "default.jpg")

	writeJPEG(t, defaultCover, 100, 100)
	writeJPEG(t, filepath.Join(mediaDir, "Album", "cover.jpg"), 200, 100)
	if err := os.WriteFile(filepath.Join(mediaDir, "Album", "01 - Intro.flac"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	for key, value := range map[string]string{
		"CONFIG_FILE":           "",
		"LOG_LEVEL":             "",
		"DEBUG":                 "",
		"MEDIA_DIR":             mediaDir,
		"DATABASE_PATH":         filepath.Join(root, "db", "library.db"),
		"COVER_DEFAULT_PATH":    defaultCover,
		"COVER_CODEC":           "imaging",
		"COVER_PREFERRED_NAMES": "",
		"COVER_WORKERS":         "2",
		"INDEX_WORKERS":         "2",
	} {
		t.Setenv(key, value)
	}
	return mediaDir
}

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	cmd := newRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func mustRun(t *testing.T, args ...string) string {
	t.Helper()

	out, err := runCommand(t, args...)
	if err != nil {
		t.Fatalf("coverctl %s: %v\n%s", strings.Join(args, " "), err, out)
	}
	return out
}

func TestVersionCommand(t *testing.T) {
	out := mustRun(t, "version")
	if !strings.HasPrefix(out, "coverctl dev") {
		t.Errorf("version output = %q", out)
	}
}

func TestIndexGetWarmStats(t *testing.T) {
	setupCLIEnv(t)
	workDir := t.TempDir()

	out := mustRun(t, "index")
	if !strings.Contains(out, "Releases") {
		t.Errorf("index output = %q", out)
	}

	out = mustRun(t, "stats")
	if !strings.Contains(out, "never") {
		t.Errorf("stats before warm should report no warm run:\n%s", out)
	}

	target := filepath.Join(workDir, "release.jpg")
	out = mustRun(t, "get", "release", "1", "--size", "50", "-o", target)
	if !strings.Contains(out, "source: directory") {
		t.Errorf("get output = %q", out)
	}
	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatal(err)
	}
	img, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("written cover is not a JPEG: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 50 || b.Dy() != 25 {
		t.Errorf("cover = %dx%d, want 50x25", b.Dx(), b.Dy())
	}

	stdout := mustRun(t, "get", "track", "999", "-s", "16", "-o", "-")
	if _, err := jpeg.Decode(strings.NewReader(stdout)); err != nil {
		t.Errorf("default cover on stdout is not a JPEG: %v", err)
	}

	out = mustRun(t, "warm", "--sizes", "32,64")
	if !strings.Contains(out, "Warmed 1 releases at 2 sizes") || !strings.Contains(out, "directory") {
		t.Errorf("warm output = %q", out)
	}

	out = mustRun(t, "stats")
	if strings.Contains(out, "never") {
		t.Errorf("stats after warm still reports no warm run:\n%s", out)
	}
}

func TestGetCommandErrors(t *testing.T) {
	setupCLIEnv(t)

	tests := []struct {
		name string
		args []string
		is   error
	}{
		{"unknown kind", []string{"get", "artist", "1"}, cover.ErrInvalidKind},
		{"bad id", []string{"get", "track", "one"}, nil},
		{"bad size", []string{"get", "track", "1", "--size", "0"}, cover.ErrInvalidWidth},
		{"missing id", []string{"get", "track"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runCommand(t, tt.args...)
			if err == nil {
				t.Fatal("expected an error")
			}
			if tt.is != nil && !errors.Is(err, tt.is) {
				t.Errorf("error = %v, want %v", err, tt.is)
			}
		})
	}
}

func TestWarmRejectsBadSize(t *testing.T) {
	setupCLIEnv(t)

	if _, err := runCommand(t, "warm", "--sizes", "64,0"); err == nil {
		t.Error("warm accepted a zero size")
	}
}

func TestScanCommand(t *testing.T) {
	mediaDir := setupCLIEnv(t)
	dir := filepath.Join(mediaDir, "Album")
	writeJPEG(t, filepath.Join(dir, "front.jpg"), 10, 10)
	writeJPEG(t, filepath.Join(dir, "booklet.jpg"), 10, 10)

	out := mustRun(t, "scan", dir)

	order := []string{"cover.jpg", "front.jpg", "booklet.jpg"}
	last := -1
	for _, name := range order {
		i := strings.Index(out, name)
		if i < 0 {
			t.Fatalf("scan output is missing %s:\n%s", name, out)
		}
		if i < last {
			t.Errorf("%s listed out of order:\n%s", name, out)
		}
		last = i
	}

	out = mustRun(t, "scan", "--prefer", "booklet", dir)
	if strings.Index(out, "booklet.jpg") > strings.Index(out, "cover.jpg") {
		t.Errorf("--prefer did not move booklet.jpg first:\n%s", out)
	}

	out = mustRun(t, "scan", t.TempDir())
	if !strings.Contains(out, "No cover candidates") {
		t.Errorf("empty scan output = %q", out)
	}
}

func TestWarmAndStatsAgainstServer(t *testing.T) {
	setupCLIEnv(t)
	mustRun(t, "index")

	var (
		mu       sync.Mutex
		requests []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		requests = append(requests, r.URL.RequestURI())
		mu.Unlock()

		switch {
		case r.URL.Path == "/api/cover/stats":
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(cover.Stats{Entries: 7, Hits: 3, MaxBytes: 1 << 20})
		case strings.HasPrefix(r.URL.Path, "/api/cover/release/"):
			w.Header().Set("X-Cover-Source", cover.SourceEmbedded)
			_, _ = w.Write([]byte("jpeg"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	out := mustRun(t, "warm", "--server", srv.URL, "--sizes", "100,200")
	if !strings.Contains(out, cover.SourceEmbedded) {
		t.Errorf("warm output = %q", out)
	}

	mu.Lock()
	got := append([]string(nil), requests...)
	mu.Unlock()
	for _, want := range []string{"/api/cover/release/1?size=100", "/api/cover/release/1?size=200", "/api/cover/stats"} {
		found := false
		for _, r := range got {
			if r == want {
				found = true
			}
		}
		if !found {
			t.Errorf("server never saw %s (requests %v)", want, got)
		}
	}

	out = mustRun(t, "stats", "--server", srv.URL)
	if !strings.Contains(out, "Entries") || !strings.Contains(out, fmt.Sprint(7)) {
		t.Errorf("stats output = %q", out)
	}
}

func TestRemoteClientReportsHTTPErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadRequest)
	}))
	defer srv.Close()

	client := newRemoteClient(srv.URL + "/")
	if _, err := client.cover(context.Background(), cover.KindTrack, 1, 10); err == nil || !strings.Contains(err.Error(), "400") {
		t.Errorf("cover() error = %v, want a 400 error", err)
	}
}
