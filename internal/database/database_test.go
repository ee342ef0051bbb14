package database

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"coverart/internal/metrics"
)

// setupTestDB creates a database in a temp directory.
func setupTestDB(t testing.TB) *Database {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := New(context.Background(), dbPath)
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func mustUpsertRelease(t *testing.T, db *Database, r Release) int64 {
	t.Helper()
	id, err := db.UpsertRelease(context.Background(), r)
	if err != nil {
		t.Fatalf("UpsertRelease(%+v) error = %v", r, err)
	}
	return id
}

func mustUpsertTrack(t *testing.T, db *Database, tr Track) int64 {
	t.Helper()
	id, err := db.UpsertTrack(context.Background(), tr)
	if err != nil {
		t.Fatalf("UpsertTrack(%+v) error = %v", tr, err)
	}
	return id
}

func TestNewDatabase(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "library.db")

	db, err := New(context.Background(), dbPath)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	defer db.Close()

	if _, err := os.Stat(dbPath); err != nil {
		t.Errorf("database file was not created: %v", err)
	}
	if db.Path() != dbPath {
		t.Errorf("Path() = %q, want %q", db.Path(), dbPath)
	}
	if err := db.Ping(context.Background()); err != nil {
		t.Errorf("ping failed: %v", err)
	}
}

func TestNewDatabaseReopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "library.db")

	db, err := New(context.Background(), dbPath)
	if err != nil {
		t.Fatal(err)
	}
	id := mustUpsertTrack(t, db, Track{Path: "/music/a.flac"})
	db.Close()

	db, err = New(context.Background(), dbPath)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer db.Close()

	info, err := db.Track(context.Background(), id)
	if err != nil || info.Path != "/music/a.flac" {
		t.Errorf("Track() after reopen = %+v, %v", info, err)
	}
}

func TestNewDatabaseMissingDirectory(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "missing", "library.db")
	if _, err := New(context.Background(), dbPath); err == nil {
		t.Error("New() succeeded in a missing directory")
	}
}

func TestTrack(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	single := mustUpsertRelease(t, db, Release{Name: "Single"})
	double := mustUpsertRelease(t, db, Release{Name: "Double", TotalDiscs: 2})
	undeclared := mustUpsertRelease(t, db, Release{Name: "Box"})

	tests := []struct {
		name      string
		track     Track
		wantDiscs int
	}{
		{"single disc", Track{ReleaseID: single, Path: "/m/s/01.flac", TrackNumber: 1, HasCover: true}, 1},
		{"declared discs", Track{ReleaseID: double, Path: "/m/d/CD1/01.flac", TrackNumber: 1}, 2},
		{"discs from tracks", Track{ReleaseID: undeclared, Path: "/m/b/CD3/01.flac", DiscNumber: 3}, 3},
		{"no release", Track{Path: "/m/loose.mp3"}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id := mustUpsertTrack(t, db, tt.track)

			info, err := db.Track(ctx, id)
			if err != nil {
				t.Fatalf("Track() error = %v", err)
			}
			if info.Path != tt.track.Path {
				t.Errorf("Path = %q, want %q", info.Path, tt.track.Path)
			}
			if info.HasCover != tt.track.HasCover {
				t.Errorf("HasCover = %v, want %v", info.HasCover, tt.track.HasCover)
			}
			if info.ReleaseDiscCount != tt.wantDiscs {
				t.Errorf("ReleaseDiscCount = %d, want %d", info.ReleaseDiscCount, tt.wantDiscs)
			}
		})
	}
}

func TestTrackNotFound(t *testing.T) {
	db := setupTestDB(t)

	_, err := db.Track(context.Background(), 12345)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Track() error = %v, want ErrNotFound", err)
	}
}

func TestReleaseFirstTrack(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	rel := mustUpsertRelease(t, db, Release{Name: "Album", TotalDiscs: 2})
	mustUpsertTrack(t, db, Track{ReleaseID: rel, Path: "/m/CD2/01.flac", DiscNumber: 2, TrackNumber: 1})
	mustUpsertTrack(t, db, Track{ReleaseID: rel, Path: "/m/CD1/03.flac", DiscNumber: 1, TrackNumber: 3})
	first := mustUpsertTrack(t, db, Track{ReleaseID: rel, Path: "/m/CD1/01.flac", DiscNumber: 1, TrackNumber: 1})
	mustUpsertTrack(t, db, Track{ReleaseID: rel, Path: "/m/CD1/01b.flac", DiscNumber: 1, TrackNumber: 1})

	got, err := db.ReleaseFirstTrack(ctx, rel)
	if err != nil {
		t.Fatalf("ReleaseFirstTrack() error = %v", err)
	}
	if got != first {
		t.Errorf("ReleaseFirstTrack() = %d, want %d", got, first)
	}

	tracks, err := db.ListTracks(ctx, rel)
	if err != nil {
		t.Fatalf("ListTracks() error = %v", err)
	}
	wantPaths := []string{"/m/CD1/01.flac", "/m/CD1/01b.flac", "/m/CD1/03.flac", "/m/CD2/01.flac"}
	if len(tracks) != len(wantPaths) {
		t.Fatalf("ListTracks() returned %d tracks, want %d", len(tracks), len(wantPaths))
	}
	for i, tr := range tracks {
		if tr.Path != wantPaths[i] {
			t.Errorf("track %d path = %q, want %q", i, tr.Path, wantPaths[i])
		}
	}
}

func TestReleaseFirstTrackEmpty(t *testing.T) {
	db := setupTestDB(t)
	rel := mustUpsertRelease(t, db, Release{Name: "Empty"})

	for _, id := range []int64{rel, 999} {
		if _, err := db.ReleaseFirstTrack(context.Background(), id); !errors.Is(err, ErrNotFound) {
			t.Errorf("ReleaseFirstTrack(%d) error = %v, want ErrNotFound", id, err)
		}
	}
}

func TestUpsertTrackUpdatesInPlace(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	id := mustUpsertTrack(t, db, Track{Path: "/m/a.flac", HasCover: false})
	again := mustUpsertTrack(t, db, Track{Path: "/m/a.flac", HasCover: true, TrackNumber: 4})
	if id != again {
		t.Fatalf("upsert changed the id: %d -> %d", id, again)
	}

	info, err := db.Track(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if !info.HasCover {
		t.Error("HasCover was not updated")
	}
}

func TestUpsertTrackRequiresPath(t *testing.T) {
	db := setupTestDB(t)
	if _, err := db.UpsertTrack(context.Background(), Track{}); err == nil {
		t.Error("UpsertTrack() without path succeeded")
	}
}

func TestUpsertReleaseWithID(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	id := mustUpsertRelease(t, db, Release{ID: 42, Name: "First"})
	if id != 42 {
		t.Fatalf("UpsertRelease() id = %d, want 42", id)
	}
	mustUpsertRelease(t, db, Release{ID: 42, Name: "Renamed", TotalDiscs: 3})
	mustUpsertTrack(t, db, Track{ReleaseID: 42, Path: "/m/x.flac"})

	releases, err := db.ListReleases(ctx)
	if err != nil {
		t.Fatalf("ListReleases() error = %v", err)
	}
	if len(releases) != 1 {
		t.Fatalf("ListReleases() returned %d releases, want 1", len(releases))
	}
	want := Release{ID: 42, Name: "Renamed", TotalDiscs: 3, TrackCount: 1}
	if releases[0] != want {
		t.Errorf("release = %+v, want %+v", releases[0], want)
	}
}

func TestUpsertReleaseByPath(t *testing.T) {
	db := setupTestDB(t)

	id := mustUpsertRelease(t, db, Release{Name: "Album", Path: "/m/Album"})
	again := mustUpsertRelease(t, db, Release{Name: "Album (Remaster)", Path: "/m/Album", TotalDiscs: 2})
	if id != again {
		t.Fatalf("release matched by path got a new id: %d -> %d", id, again)
	}
	other := mustUpsertRelease(t, db, Release{Name: "Album"})
	if other == id {
		t.Error("release without path reused an existing id")
	}

	releases, err := db.ListReleases(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(releases) != 2 {
		t.Fatalf("ListReleases() returned %d releases, want 2", len(releases))
	}
	want := Release{ID: id, Name: "Album (Remaster)", Path: "/m/Album", TotalDiscs: 2}
	if releases[0] != want {
		t.Errorf("release = %+v, want %+v", releases[0], want)
	}
}

func TestListReleasesOrder(t *testing.T) {
	db := setupTestDB(t)

	a := mustUpsertRelease(t, db, Release{Name: "A"})
	b := mustUpsertRelease(t, db, Release{Name: "B"})

	releases, err := db.ListReleases(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(releases) != 2 || releases[0].ID != a || releases[1].ID != b {
		t.Errorf("ListReleases() = %+v", releases)
	}
	if releases[0].TrackCount != 0 {
		t.Errorf("empty release track count = %d", releases[0].TrackCount)
	}
}

func TestMetadata(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	if _, err := db.GetMetadata(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetMetadata(missing) error = %v, want ErrNotFound", err)
	}

	if err := db.SetMetadata(ctx, "k", "v1"); err != nil {
		t.Fatal(err)
	}
	if err := db.SetMetadata(ctx, "k", "v2"); err != nil {
		t.Fatal(err)
	}
	if v, err := db.GetMetadata(ctx, "k"); err != nil || v != "v2" {
		t.Errorf("GetMetadata(k) = %q, %v", v, err)
	}
}

func TestLastWarmRun(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	got, err := db.GetLastWarmRun(ctx)
	if err != nil || !got.IsZero() {
		t.Fatalf("GetLastWarmRun() on fresh db = %v, %v", got, err)
	}

	now := time.Now().Truncate(time.Second)
	if err := db.SetLastWarmRun(ctx, now); err != nil {
		t.Fatal(err)
	}
	got, err = db.GetLastWarmRun(ctx)
	if err != nil || !got.Equal(now) {
		t.Errorf("GetLastWarmRun() = %v, %v; want %v", got, err, now)
	}

	if err := db.SetLastWarmRun(ctx, time.Time{}); err != nil {
		t.Fatal(err)
	}
	if got, _ := db.GetLastWarmRun(ctx); !got.IsZero() {
		t.Errorf("GetLastWarmRun() after clear = %v", got)
	}
}

func TestRecordQuery(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status string
	}{
		{"success", nil, "success"},
		{"not found counts as success", ErrNotFound, "success"},
		{"failure", errors.New("boom"), "error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			op := "test_" + tt.status
			before := testutil.ToFloat64(metrics.DBQueryTotal.WithLabelValues(op, tt.status))
			recordQuery(op, time.Now(), tt.err)
			after := testutil.ToFloat64(metrics.DBQueryTotal.WithLabelValues(op, tt.status))
			if after-before != 1 {
				t.Errorf("DBQueryTotal{%s,%s} grew by %v, want 1", op, tt.status, after-before)
			}
		})
	}
}

func TestUpdateDBMetrics(t *testing.T) {
	db := setupTestDB(t)
	db.UpdateDBMetrics()
	if v := testutil.ToFloat64(metrics.DBConnectionsOpen); v < 0 {
		t.Errorf("DBConnectionsOpen = %v", v)
	}
}
