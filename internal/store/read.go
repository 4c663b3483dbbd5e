package store

import (
	"fmt"
	"time"

	"github.com/ademuri/spotify-export-tools/internal/analysis"
)

// ReadRawListens returns every raw listen in the project in
// batch-processing order (download, then position within the download),
// the order the deduplicator expects.
func (s *Store) ReadRawListens(project int64) ([]analysis.RawListen, error) {
	rows, err := s.db.Query(`
		SELECT r.end_time, r.artist_name, r.track_name, r.ms_played
		FROM RawListen r
		JOIN Download d ON r.download = d.id
		WHERE d.project = ?
		ORDER BY r.download, r.position`, project)
	if err != nil {
		return nil, fmt.Errorf("querying raw listens: %w", err)
	}
	defer rows.Close()

	var listens []analysis.RawListen
	for rows.Next() {
		var l analysis.RawListen
		if err := rows.Scan(&l.EndTime, &l.ArtistName, &l.TrackName, &l.MsPlayed); err != nil {
			return nil, err
		}
		listens = append(listens, l)
	}
	return listens, rows.Err()
}

// TrackListenDurations groups the project's canonical listens by track id.
// Listens with a null track reference have no identity to aggregate under
// and are excluded.
func (s *Store) TrackListenDurations(project int64) (map[int64][]int64, error) {
	rows, err := s.db.Query(
		"SELECT track, ms_played FROM Listen WHERE project = ? AND track IS NOT NULL ORDER BY track",
		project)
	if err != nil {
		return nil, fmt.Errorf("querying listen durations: %w", err)
	}
	defer rows.Close()

	groups := make(map[int64][]int64)
	for rows.Next() {
		var track, ms int64
		if err := rows.Scan(&track, &ms); err != nil {
			return nil, err
		}
		groups[track] = append(groups[track], ms)
	}
	return groups, rows.Err()
}

// ListenDates returns the distinct calendar days bearing at least one
// canonical listen, in ascending order.
func (s *Store) ListenDates(project int64) ([]time.Time, error) {
	rows, err := s.db.Query(
		"SELECT DISTINCT date(end_time) FROM Listen WHERE project = ? ORDER BY date(end_time)",
		project)
	if err != nil {
		return nil, fmt.Errorf("querying listen dates: %w", err)
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
			return nil, fmt.Errorf("parsing listen date %q: %w", raw, err)
		}
		dates = append(dates, d)
	}
	return dates, rows.Err()
}

// ReadCalendar returns the project's coverage calendar in day order.
func (s *Store) ReadCalendar(project int64) ([]analysis.Day, error) {
	rows, err := s.db.Query(
		"SELECT day, has_listen, is_missing FROM ListenDate WHERE project = ? ORDER BY day",
		project)
	if err != nil {
		return nil, fmt.Errorf("querying calendar: %w", err)
	}
	defer rows.Close()

	var days []analysis.Day
	for rows.Next() {
		var raw string
		var d analysis.Day
		if err := rows.Scan(&raw, &d.HasListen, &d.IsMissing); err != nil {
			return nil, err
		}
		day, err := time.ParseInLocation("2006-01-02", raw, time.UTC)
		if err != nil {
			return nil, fmt.Errorf("parsing calendar day %q: %w", raw, err)
		}
		d.Date = day
		days = append(days, d)
	}
	return days, rows.Err()
}

// ReadDurationStats returns the project's duration buckets grouped by track.
func (s *Store) ReadDurationStats(project int64) (map[int64][]analysis.DurationStat, error) {
	rows, err := s.db.Query(`
		SELECT td.track, td.ms_played, td.frequency, td.percent_listens, td.skip
		FROM TrackDuration td
		JOIN Track t ON td.track = t.id
		JOIN Artist a ON t.artist = a.id
		WHERE a.project = ?
		ORDER BY td.track, td.ms_played DESC`, project)
	if err != nil {
		return nil, fmt.Errorf("querying duration stats: %w", err)
	}
	defer rows.Close()

	groups := make(map[int64][]analysis.DurationStat)
	for rows.Next() {
		var d analysis.DurationStat
		var skip int
		if err := rows.Scan(&d.Track, &d.MsPlayed, &d.Frequency, &d.PercentListens, &skip); err != nil {
			return nil, err
		}
		d.Skip = analysis.SkipLabel(skip)
		groups[d.Track] = append(groups[d.Track], d)
	}
	return groups, rows.Err()
}
