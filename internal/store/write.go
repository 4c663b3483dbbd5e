package store

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/ademuri/spotify-export-tools/internal/analysis"
	"github.com/avast/retry-go"
	"github.com/mattn/go-sqlite3"
)

// The synthetic pair Spotify uses for unattributable plays. It maps to a
// NULL track reference instead of materializing an "Unknown Artist" row.
const (
	unknownArtistName = "Unknown Artist"
	unknownTrackName  = "Unknown Track"
)

// ReplaceListens rewrites a project's canonical listen table from the
// deduplicated sequence, resolving each (artist, track) name pair to a
// track id on the way. Runs in a single transaction, so readers never see a
// partially written table.
func (s *Store) ReplaceListens(project int64, listens []analysis.Listen) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM Listen WHERE project = ?", project); err != nil {
		return fmt.Errorf("clearing listens: %w", err)
	}

	type nameKey struct{ artist, track string }
	resolved := make(map[nameKey]sql.NullInt64)

	for _, l := range listens {
		k := nameKey{l.ArtistName, l.TrackName}
		track, ok := resolved[k]
		if !ok {
			track, err = resolveTrack(tx, project, l.ArtistName, l.TrackName)
			if err != nil {
				return err
			}
			resolved[k] = track
		}

		_, err := tx.Exec(
			"INSERT INTO Listen (project, position, end_time, track, ms_played) VALUES (?, ?, ?, ?, ?)",
			project, l.Position, l.EndTime, track, l.MsPlayed)
		if err != nil {
			return fmt.Errorf("inserting listen %d: %w", l.Position, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// resolveTrack returns the track id for a name pair, creating Artist and
// Track rows the first time a name is seen. The synthetic unknown pair
// resolves to a null reference. Resolution is idempotent; a lost insert
// race surfaces as a unique-constraint error and is retried as a fetch.
func resolveTrack(tx *sql.Tx, project int64, artistName, trackName string) (sql.NullInt64, error) {
	if artistName == unknownArtistName && trackName == unknownTrackName {
		return sql.NullInt64{}, nil
	}

	var trackID int64
	err := retry.Do(
		func() error {
			artistID, err := insertOrFetchArtist(tx, project, artistName)
			if err != nil {
				return err
			}
			trackID, err = insertOrFetchTrack(tx, artistID, trackName)
			return err
		},
		retry.RetryIf(isConstraintErr),
		retry.Attempts(3),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return sql.NullInt64{}, fmt.Errorf("resolving track %q by %q: %w", trackName, artistName, err)
	}
	return sql.NullInt64{Int64: trackID, Valid: true}, nil
}

func insertOrFetchArtist(tx *sql.Tx, project int64, name string) (int64, error) {
	var id int64
	err := tx.QueryRow("SELECT id FROM Artist WHERE project = ? AND name = ?", project, name).Scan(&id)
	if err == nil {
		return id, nil
	}
	if err != sql.ErrNoRows {
		return 0, fmt.Errorf("checking artist %q: %w", name, err)
	}

	res, err := tx.Exec("INSERT INTO Artist (project, name) VALUES (?, ?)", project, name)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func insertOrFetchTrack(tx *sql.Tx, artist int64, name string) (int64, error) {
	var id int64
	err := tx.QueryRow("SELECT id FROM Track WHERE artist = ? AND name = ?", artist, name).Scan(&id)
	if err == nil {
		return id, nil
	}
	if err != sql.ErrNoRows {
		return 0, fmt.Errorf("checking track %q: %w", name, err)
	}

	res, err := tx.Exec("INSERT INTO Track (artist, name) VALUES (?, ?)", artist, name)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func isConstraintErr(err error) bool {
	var serr sqlite3.Error
	if errors.As(err, &serr) {
		return serr.Code == sqlite3.ErrConstraint
	}
	return false
}

// ReplaceDurationStats rewrites the project's duration buckets in a single
// transaction.
func (s *Store) ReplaceDurationStats(project int64, stats []analysis.DurationStat) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		DELETE FROM TrackDuration
		WHERE track IN (
			SELECT Track.id FROM Track
			JOIN Artist ON Track.artist = Artist.id
			WHERE Artist.project = ?
		)`, project)
	if err != nil {
		return fmt.Errorf("clearing duration stats: %w", err)
	}

	insert, err := tx.Prepare(
		"INSERT INTO TrackDuration (track, ms_played, frequency, percent_listens, skip) VALUES (?, ?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("preparing duration insert: %w", err)
	}
	defer insert.Close()

	for _, d := range stats {
		if _, err := insert.Exec(d.Track, d.MsPlayed, d.Frequency, d.PercentListens, int(d.Skip)); err != nil {
			return fmt.Errorf("inserting duration stat (track %d, %d ms): %w", d.Track, d.MsPlayed, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// UpdateSkipLabels writes the classifier's labels for every given bucket in
// a single transaction, so a half-labeled project is never visible.
func (s *Store) UpdateSkipLabels(stats []analysis.DurationStat) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	update, err := tx.Prepare("UPDATE TrackDuration SET skip = ? WHERE track = ? AND ms_played = ?")
	if err != nil {
		return fmt.Errorf("preparing label update: %w", err)
	}
	defer update.Close()

	for _, d := range stats {
		if _, err := update.Exec(int(d.Skip), d.Track, d.MsPlayed); err != nil {
			return fmt.Errorf("labeling (track %d, %d ms): %w", d.Track, d.MsPlayed, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// ReplaceCalendar rewrites the project's coverage calendar in a single
// transaction.
func (s *Store) ReplaceCalendar(project int64, days []analysis.Day) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM ListenDate WHERE project = ?", project); err != nil {
		return fmt.Errorf("clearing calendar: %w", err)
	}

	insert, err := tx.Prepare(
		"INSERT INTO ListenDate (project, day, has_listen, is_missing) VALUES (?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("preparing calendar insert: %w", err)
	}
	defer insert.Close()

	for _, d := range days {
		if _, err := insert.Exec(project, d.Date.Format("2006-01-02"), d.HasListen, d.IsMissing); err != nil {
			return fmt.Errorf("inserting calendar day %s: %w", d.Date.Format("2006-01-02"), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}
