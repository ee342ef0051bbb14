package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"coverart/internal/cover"
)

// Track implements cover.Library. The disc count is the release's declared
// total, or the highest disc number seen on its tracks when that is larger.
func (d *Database) Track(ctx context.Context, id int64) (info cover.TrackInfo, err error) {
	start := time.Now()
	defer func() { recordQuery("get_track", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	query := `
	SELECT t.path, t.has_cover,
		COALESCE(MAX(r.total_discs,
			(SELECT MAX(disc_number) FROM tracks t2 WHERE t2.release_id = t.release_id)), 1)
	FROM tracks t
	LEFT JOIN releases r ON r.id = t.release_id
	WHERE t.id = ?
	`

	err = d.db.QueryRowContext(ctx, query, id).Scan(&info.Path, &info.HasCover, &info.ReleaseDiscCount)
	if errors.Is(err, sql.ErrNoRows) {
		return cover.TrackInfo{}, fmt.Errorf("track %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return cover.TrackInfo{}, err
	}
	return info, nil
}

// ReleaseFirstTrack implements cover.Library: the first track by disc
// number, then track number, then id.
func (d *Database) ReleaseFirstTrack(ctx context.Context, releaseID int64) (id int64, err error) {
	start := time.Now()
	defer func() { recordQuery("release_first_track", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	query := `
	SELECT id FROM tracks
	WHERE release_id = ?
	ORDER BY disc_number, track_number, id
	LIMIT 1
	`

	err = d.db.QueryRowContext(ctx, query, releaseID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("release %d has no tracks: %w", releaseID, ErrNotFound)
	}
	return id, err
}

// UpsertRelease stores r and returns its id. A release with an ID is created
// or updated under that id; otherwise a release with a Path is matched on its
// directory, and one with neither is always created.
func (d *Database) UpsertRelease(ctx context.Context, r Release) (id int64, err error) {
	start := time.Now()
	defer func() { recordQuery("upsert_release", start, err) }()

	if r.TotalDiscs < 1 {
		r.TotalDiscs = 1
	}
	path := sql.NullString{String: r.Path, Valid: r.Path != ""}

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	switch {
	case r.ID != 0:
		_, err = d.db.ExecContext(ctx, `
			INSERT INTO releases (id, name, path, total_discs) VALUES (?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				name = excluded.name,
				path = excluded.path,
				total_discs = excluded.total_discs
		`, r.ID, r.Name, path, r.TotalDiscs)
		if err != nil {
			return 0, err
		}
		return r.ID, nil

	case path.Valid:
		_, err = d.db.ExecContext(ctx, `
			INSERT INTO releases (name, path, total_discs) VALUES (?, ?, ?)
			ON CONFLICT(path) DO UPDATE SET
				name = excluded.name,
				total_discs = excluded.total_discs
		`, r.Name, path, r.TotalDiscs)
		if err != nil {
			return 0, err
		}
		err = d.db.QueryRowContext(ctx, "SELECT id FROM releases WHERE path = ?", path).Scan(&id)
		return id, err

	default:
		var res sql.Result
		res, err = d.db.ExecContext(ctx,
			"INSERT INTO releases (name, total_discs) VALUES (?, ?)", r.Name, r.TotalDiscs)
		if err != nil {
			return 0, err
		}
		return res.LastInsertId()
	}
}

// UpsertTrack creates or updates the track stored at t.Path and returns its
// id. A zero ReleaseID leaves the track without a release.
func (d *Database) UpsertTrack(ctx context.Context, t Track) (id int64, err error) {
	start := time.Now()
	defer func() { recordQuery("upsert_track", start, err) }()

	if t.Path == "" {
		return 0, errors.New("track path is required")
	}
	if t.DiscNumber < 1 {
		t.DiscNumber = 1
	}

	var releaseID sql.NullInt64
	if t.ReleaseID != 0 {
		releaseID = sql.NullInt64{Int64: t.ReleaseID, Valid: true}
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err = d.db.ExecContext(ctx, `
		INSERT INTO tracks (release_id, path, disc_number, track_number, has_cover, updated_at)
		VALUES (?, ?, ?, ?, ?, strftime('%s', 'now'))
		ON CONFLICT(path) DO UPDATE SET
			release_id = excluded.release_id,
			disc_number = excluded.disc_number,
			track_number = excluded.track_number,
			has_cover = excluded.has_cover,
			updated_at = strftime('%s', 'now')
	`, releaseID, t.Path, t.DiscNumber, t.TrackNumber, t.HasCover)
	if err != nil {
		return 0, err
	}

	// LastInsertId is not reliable after the update branch of an upsert.
	err = d.db.QueryRowContext(ctx, "SELECT id FROM tracks WHERE path = ?", t.Path).Scan(&id)
	return id, err
}

// ListReleases returns every release with its track count, ordered by id.
func (d *Database) ListReleases(ctx context.Context) (releases []Release, err error) {
	start := time.Now()
	defer func() { recordQuery("list_releases", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rows, err := d.db.QueryContext(ctx, `
		SELECT r.id, r.name, COALESCE(r.path, ''), r.total_discs, COUNT(t.id)
		FROM releases r
		LEFT JOIN tracks t ON t.release_id = r.id
		GROUP BY r.id
		ORDER BY r.id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var r Release
		if err = rows.Scan(&r.ID, &r.Name, &r.Path, &r.TotalDiscs, &r.TrackCount); err != nil {
			return nil, err
		}
		releases = append(releases, r)
	}
	err = rows.Err()
	return releases, err
}

// ListTracks returns the tracks of a release in playback order.
func (d *Database) ListTracks(ctx context.Context, releaseID int64) (tracks []Track, err error) {
	start := time.Now()
	defer func() { recordQuery("list_tracks", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rows, err := d.db.QueryContext(ctx, `
		SELECT id, path, disc_number, track_number, has_cover, updated_at
		FROM tracks
		WHERE release_id = ?
		ORDER BY disc_number, track_number, id
	`, releaseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		t := Track{ReleaseID: releaseID}
		var updated int64
		if err = rows.Scan(&t.ID, &t.Path, &t.DiscNumber, &t.TrackNumber, &t.HasCover, &updated); err != nil {
			return nil, err
		}
		t.UpdatedAt = time.Unix(updated, 0)
		tracks = append(tracks, t)
	}
	err = rows.Err()
	return tracks, err
}
