package store

import (
	"database/sql"
	"fmt"
	"time"
)

type Download struct {
	ID          int64
	Path        string
	Name        string
	RequestDate string // yyyy-mm-dd, already corrected at load time
	StartTime   time.Time
}

// RawListenImport is one parsed streaming history record, ready to insert.
type RawListenImport struct {
	Position   int
	EndTime    time.Time
	ArtistName string
	TrackName  string
	MsPlayed   int64
}

// AddDownload records one export download and its raw listens in a single
// transaction. The download's path must be unique within the project.
func (s *Store) AddDownload(project int64, d Download, listens []RawListenImport) (int64, error) {
	var dummy int64
	err := s.db.QueryRow("SELECT id FROM Download WHERE project = ? AND path = ?",
		project, d.Path).Scan(&dummy)
	if err == nil {
		return 0, fmt.Errorf("download %q was already imported", d.Path)
	}
	if err != sql.ErrNoRows {
		return 0, fmt.Errorf("checking download %q: %w", d.Path, err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(
		"INSERT INTO Download (project, path, name, request_date, start_time) VALUES (?, ?, ?, ?, ?)",
		project, d.Path, d.Name, d.RequestDate, d.StartTime)
	if err != nil {
		return 0, fmt.Errorf("inserting download %q: %w", d.Path, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("inserting download %q: %w", d.Path, err)
	}

	insert, err := tx.Prepare(
		"INSERT INTO RawListen (download, position, end_time, artist_name, track_name, ms_played) VALUES (?, ?, ?, ?, ?, ?)")
	if err != nil {
		return 0, fmt.Errorf("preparing raw listen insert: %w", err)
	}
	defer insert.Close()

	for _, l := range listens {
		_, err := insert.Exec(id, l.Position, l.EndTime, l.ArtistName, l.TrackName, l.MsPlayed)
		if err != nil {
			return 0, fmt.Errorf("inserting raw listen %d: %w", l.Position, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing transaction: %w", err)
	}
	return id, nil
}

func (s *Store) ListDownloads(project int64) ([]Download, error) {
	rows, err := s.db.Query(
		"SELECT id, path, name, request_date, start_time FROM Download WHERE project = ? ORDER BY id",
		project)
	if err != nil {
		return nil, fmt.Errorf("listing downloads: %w", err)
	}
	defer rows.Close()

	var downloads []Download
	for rows.Next() {
		var d Download
		var requestDate sql.NullString
		var startTime sql.NullTime
		if err := rows.Scan(&d.ID, &d.Path, &d.Name, &requestDate, &startTime); err != nil {
			return nil, err
		}
		d.RequestDate = requestDate.String
		d.StartTime = startTime.Time
		downloads = append(downloads, d)
	}
	return downloads, rows.Err()
}

// DownloadEndDates returns the corrected request date of every download in
// the project. Each of these dates ends a one-year coverage window.
func (s *Store) DownloadEndDates(project int64) ([]time.Time, error) {
	rows, err := s.db.Query(
		"SELECT request_date FROM Download WHERE project = ? AND request_date IS NOT NULL AND request_date != ''",
		project)
	if err != nil {
		return nil, fmt.Errorf("querying download dates: %w", err)
	}
	defer rows.Close()

	var dates []time.Time
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		d, err := time.ParseInLocation("2006-01-02", raw, time.UTC)
		if err != nil {
			return nil, fmt.Errorf("parsing download date %q: %w", raw, err)
		}
		dates = append(dates, d)
	}
	return dates, rows.Err()
}
