package store

import (
	"database/sql"
	"fmt"
)

// Summary holds the per-project statistics computed over the normalized
// tables. These are plain queries; all decision logic happens during
// processing.
type Summary struct {
	Project              string  `yaml:"project"`
	Artists              int64   `yaml:"artist_count"`
	Tracks               int64   `yaml:"track_count"`
	Listens              int64   `yaml:"listen_count"`
	HoursTotal           float64 `yaml:"hours_total"`
	AvgListenSeconds     float64 `yaml:"avg_listen_time_sec"`
	AvgFullListenSeconds float64 `yaml:"avg_full_listen_time_sec"`
	FirstListen          string  `yaml:"first_listen"`
	LastListen           string  `yaml:"last_listen"`
	DaysInRange          int64   `yaml:"days_in_range"`
	DaysWithListens      int64   `yaml:"days_with_listens"`
	DaysMissing          int64   `yaml:"days_missing"`
	SkipDurations        int64   `yaml:"skip_durations"`
	NonSkipDurations     int64   `yaml:"non_skip_durations"`
}

// Summarize computes the summary statistics for one project. Averages are
// zero for an empty project rather than an error.
func (s *Store) Summarize(project int64, name string) (*Summary, error) {
	sum := &Summary{Project: name}

	counts := []struct {
		dest  *int64
		query string
	}{
		{&sum.Artists, "SELECT COUNT(*) FROM Artist WHERE project = ?"},
		{&sum.Tracks, `SELECT COUNT(*) FROM Track
			JOIN Artist ON Track.artist = Artist.id WHERE Artist.project = ?`},
		{&sum.Listens, "SELECT COUNT(*) FROM Listen WHERE project = ?"},
		{&sum.DaysInRange, "SELECT COUNT(*) FROM ListenDate WHERE project = ?"},
		{&sum.DaysWithListens, "SELECT COUNT(*) FROM ListenDate WHERE project = ? AND has_listen"},
		{&sum.DaysMissing, "SELECT COUNT(*) FROM ListenDate WHERE project = ? AND is_missing"},
		{&sum.SkipDurations, skipCountQuery(1)},
		{&sum.NonSkipDurations, skipCountQuery(2)},
	}
	for _, c := range counts {
		if err := s.db.QueryRow(c.query, project).Scan(c.dest); err != nil {
			return nil, fmt.Errorf("summarizing project %q: %w", name, err)
		}
	}

	var ms sql.NullFloat64
	if err := s.db.QueryRow("SELECT SUM(ms_played) FROM Listen WHERE project = ?", project).Scan(&ms); err != nil {
		return nil, fmt.Errorf("summing listen time: %w", err)
	}
	sum.HoursTotal = ms.Float64 / (1000 * 60 * 60)

	var avg sql.NullFloat64
	if err := s.db.QueryRow("SELECT AVG(ms_played) FROM Listen WHERE project = ?", project).Scan(&avg); err != nil {
		return nil, fmt.Errorf("averaging listen time: %w", err)
	}
	sum.AvgListenSeconds = avg.Float64 / 1000

	// Average over listens whose (track, duration) bucket was accepted as
	// a genuine listen.
	err := s.db.QueryRow(`
		SELECT AVG(l.ms_played)
		FROM Listen l
		JOIN TrackDuration td ON td.track = l.track AND td.ms_played = l.ms_played
		WHERE l.project = ? AND td.skip = 2`, project).Scan(&avg)
	if err != nil {
		return nil, fmt.Errorf("averaging non-skip listen time: %w", err)
	}
	sum.AvgFullListenSeconds = avg.Float64 / 1000

	var first, last sql.NullString
	err = s.db.QueryRow(
		"SELECT MIN(date(end_time)), MAX(date(end_time)) FROM Listen WHERE project = ?",
		project).Scan(&first, &last)
	if err != nil {
		return nil, fmt.Errorf("querying listen date range: %w", err)
	}
	sum.FirstListen = first.String
	sum.LastListen = last.String

	return sum, nil
}

func skipCountQuery(label int) string {
	return fmt.Sprintf(`SELECT COUNT(*) FROM TrackDuration td
		JOIN Track t ON td.track = t.id
		JOIN Artist a ON t.artist = a.id
		WHERE a.project = ? AND td.skip = %d`, label)
}
