package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/ademuri/spotify-export-tools/internal/analysis"
)

func createTestDb(t *testing.T) *Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "spotify.db")

	store, err := New(dbPath)
	if err != nil {
		t.Fatalf("New(%s) error: %v", dbPath, err)
	}

	return store
}

func createTestProject(t *testing.T, s *Store) int64 {
	t.Helper()
	id, err := s.CreateProject("testproject", analysis.DefaultConfig())
	if err != nil {
		t.Fatalf("CreateProject: %v", err)
	}
	return id
}

func listenAt(t *testing.T, position int, end string, artist, track string, ms int64) analysis.Listen {
	t.Helper()
	endTime, err := time.ParseInLocation("2006-01-02 15:04", end, time.UTC)
	if err != nil {
		t.Fatalf("parsing %q: %v", end, err)
	}
	return analysis.Listen{
		Position:   position,
		EndTime:    endTime,
		ArtistName: artist,
		TrackName:  track,
		MsPlayed:   ms,
	}
}

func TestCreateProject(t *testing.T) {
	s := createTestDb(t)
	defer s.Close()

	id, err := s.CreateProject("testproject", analysis.DefaultConfig())
	if err != nil {
		t.Fatalf("CreateProject error: %v", err)
	}

	// Idempotency: creating again returns the same id.
	again, err := s.CreateProject("testproject", analysis.DefaultConfig())
	if err != nil {
		t.Fatalf("CreateProject (repeat) error: %v", err)
	}
	if again != id {
		t.Errorf("second CreateProject returned id %d, expected %d", again, id)
	}

	found, err := s.ProjectID("testproject")
	if err != nil {
		t.Fatalf("ProjectID: %v", err)
	}
	if found != id {
		t.Errorf("ProjectID = %d, expected %d", found, id)
	}
}

func TestProjectIDMissing(t *testing.T) {
	s := createTestDb(t)
	defer s.Close()

	if _, err := s.ProjectID("nope"); err == nil {
		t.Error("ProjectID for missing project succeeded, expected error")
	}
}

func TestConfigSeedAndSet(t *testing.T) {
	s := createTestDb(t)
	defer s.Close()
	project := createTestProject(t, s)

	values, err := s.GetConfig(project)
	if err != nil {
		t.Fatalf("GetConfig: %v", err)
	}
	for name, want := range analysis.DefaultConfig() {
		if values[name] != want {
			t.Errorf("config %s = %q, expected %q", name, values[name], want)
		}
	}

	if err := s.SetConfig(project, analysis.SkipDurationErrorMargin, "0.05"); err != nil {
		t.Fatalf("SetConfig: %v", err)
	}
	values, err = s.GetConfig(project)
	if err != nil {
		t.Fatalf("GetConfig after set: %v", err)
	}
	if values[analysis.SkipDurationErrorMargin] != "0.05" {
		t.Errorf("config %s = %q after set, expected 0.05",
			analysis.SkipDurationErrorMargin, values[analysis.SkipDurationErrorMargin])
	}

	// Re-creating the project must not clobber the changed value.
	if _, err := s.CreateProject("testproject", analysis.DefaultConfig()); err != nil {
		t.Fatalf("CreateProject (repeat): %v", err)
	}
	values, err = s.GetConfig(project)
	if err != nil {
		t.Fatalf("GetConfig after re-create: %v", err)
	}
	if values[analysis.SkipDurationErrorMargin] != "0.05" {
		t.Errorf("re-creating the project reset config %s to %q",
			analysis.SkipDurationErrorMargin, values[analysis.SkipDurationErrorMargin])
	}
}

func TestAddDownload(t *testing.T) {
	s := createTestDb(t)
	defer s.Close()
	project := createTestProject(t, s)

	end := time.Date(2021, 1, 1, 10, 0, 0, 0, time.UTC)
	listens := []RawListenImport{
		{Position: 0, EndTime: end, ArtistName: "Artist A", TrackName: "Track 1", MsPlayed: 180000},
		{Position: 1, EndTime: end.Add(3 * time.Minute), ArtistName: "Artist A", TrackName: "Track 2", MsPlayed: 200000},
	}
	d := Download{Path: "/exports/my_spotify_data", Name: "first", RequestDate: "2021-06-01", StartTime: end}

	if _, err := s.AddDownload(project, d, listens); err != nil {
		t.Fatalf("AddDownload: %v", err)
	}

	// Same path again is rejected.
	if _, err := s.AddDownload(project, d, listens); err == nil {
		t.Error("AddDownload with duplicate path succeeded, expected error")
	}

	downloads, err := s.ListDownloads(project)
	if err != nil {
		t.Fatalf("ListDownloads: %v", err)
	}
	if len(downloads) != 1 {
		t.Fatalf("ListDownloads returned %d downloads, expected 1", len(downloads))
	}
	if downloads[0].RequestDate != "2021-06-01" {
		t.Errorf("download request_date = %q, expected 2021-06-01", downloads[0].RequestDate)
	}

	raw, err := s.ReadRawListens(project)
	if err != nil {
		t.Fatalf("ReadRawListens: %v", err)
	}
	if len(raw) != 2 {
		t.Fatalf("ReadRawListens returned %d records, expected 2", len(raw))
	}
	if raw[0].TrackName != "Track 1" || raw[1].TrackName != "Track 2" {
		t.Errorf("raw listens out of batch order: %q then %q", raw[0].TrackName, raw[1].TrackName)
	}
}

func TestDownloadEndDates(t *testing.T) {
	s := createTestDb(t)
	defer s.Close()
	project := createTestProject(t, s)

	downloads := []Download{
		{Path: "/exports/a", Name: "a", RequestDate: "2020-06-01"},
		{Path: "/exports/b", Name: "b", RequestDate: "2021-06-01"},
		{Path: "/exports/c", Name: "c", RequestDate: ""},
	}
	for _, d := range downloads {
		if _, err := s.AddDownload(project, d, nil); err != nil {
			t.Fatalf("AddDownload(%s): %v", d.Path, err)
		}
	}

	dates, err := s.DownloadEndDates(project)
	if err != nil {
		t.Fatalf("DownloadEndDates: %v", err)
	}
	// The dateless download contributes no coverage window.
	if len(dates) != 2 {
		t.Fatalf("DownloadEndDates returned %d dates, expected 2", len(dates))
	}
}

func TestReplaceListens(t *testing.T) {
	s := createTestDb(t)
	defer s.Close()
	project := createTestProject(t, s)

	listens := []analysis.Listen{
		listenAt(t, 0, "2021-01-01 10:00", "Artist A", "Track 1", 180000),
		listenAt(t, 1, "2021-01-01 10:03", "Artist A", "Track 2", 200000),
		listenAt(t, 2, "2021-01-01 10:07", "Artist B", "Track 1", 120000),
		listenAt(t, 3, "2021-01-01 10:09", "Artist A", "Track 1", 180000),
	}
	if err := s.ReplaceListens(project, listens); err != nil {
		t.Fatalf("ReplaceListens: %v", err)
	}

	var artists, tracks, rows int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM Artist WHERE project = ?", project).Scan(&artists); err != nil {
		t.Fatalf("counting artists: %v", err)
	}
	if artists != 2 {
		t.Errorf("got %d artists, expected 2", artists)
	}
	if err := s.db.QueryRow("SELECT COUNT(*) FROM Track").Scan(&tracks); err != nil {
		t.Fatalf("counting tracks: %v", err)
	}
	// "Track 1" under two different artists is two tracks.
	if tracks != 3 {
		t.Errorf("got %d tracks, expected 3", tracks)
	}
	if err := s.db.QueryRow("SELECT COUNT(*) FROM Listen WHERE project = ?", project).Scan(&rows); err != nil {
		t.Fatalf("counting listens: %v", err)
	}
	if rows != 4 {
		t.Errorf("got %d listens, expected 4", rows)
	}

	// Replacing again must not duplicate identities or rows.
	if err := s.ReplaceListens(project, listens); err != nil {
		t.Fatalf("ReplaceListens (repeat): %v", err)
	}
	if err := s.db.QueryRow("SELECT COUNT(*) FROM Artist WHERE project = ?", project).Scan(&artists); err != nil {
		t.Fatalf("counting artists: %v", err)
	}
	if artists != 2 {
		t.Errorf("got %d artists after replace, expected 2", artists)
	}
	if err := s.db.QueryRow("SELECT COUNT(*) FROM Listen WHERE project = ?", project).Scan(&rows); err != nil {
		t.Fatalf("counting listens: %v", err)
	}
	if rows != 4 {
		t.Errorf("got %d listens after replace, expected 4", rows)
	}
}

func TestReplaceListensUnknownTrack(t *testing.T) {
	s := createTestDb(t)
	defer s.Close()
	project := createTestProject(t, s)

	listens := []analysis.Listen{
		listenAt(t, 0, "2021-01-01 10:00", "Unknown Artist", "Unknown Track", 30000),
		listenAt(t, 1, "2021-01-01 10:03", "Artist A", "Track 1", 180000),
	}
	if err := s.ReplaceListens(project, listens); err != nil {
		t.Fatalf("ReplaceListens: %v", err)
	}

	var nullTracks, artists int
	if err := s.db.QueryRow(
		"SELECT COUNT(*) FROM Listen WHERE project = ? AND track IS NULL", project).Scan(&nullTracks); err != nil {
		t.Fatalf("counting null-track listens: %v", err)
	}
	if nullTracks != 1 {
		t.Errorf("got %d null-track listens, expected 1", nullTracks)
	}
	if err := s.db.QueryRow("SELECT COUNT(*) FROM Artist WHERE project = ?", project).Scan(&artists); err != nil {
		t.Fatalf("counting artists: %v", err)
	}
	// No "Unknown Artist" row is materialized.
	if artists != 1 {
		t.Errorf("got %d artists, expected 1", artists)
	}

	// The null-track listen has no identity to aggregate under.
	groups, err := s.TrackListenDurations(project)
	if err != nil {
		t.Fatalf("TrackListenDurations: %v", err)
	}
	if len(groups) != 1 {
		t.Errorf("got %d track groups, expected 1", len(groups))
	}
}

func TestDurationStatsRoundtrip(t *testing.T) {
	s := createTestDb(t)
	defer s.Close()
	project := createTestProject(t, s)

	listens := []analysis.Listen{
		listenAt(t, 0, "2021-01-01 10:00", "Artist A", "Track 1", 180000),
		listenAt(t, 1, "2021-01-01 10:03", "Artist A", "Track 1", 180000),
		listenAt(t, 2, "2021-01-01 10:07", "Artist A", "Track 1", 3000),
	}
	if err := s.ReplaceListens(project, listens); err != nil {
		t.Fatalf("ReplaceListens: %v", err)
	}

	groups, err := s.TrackListenDurations(project)
	if err != nil {
		t.Fatalf("TrackListenDurations: %v", err)
	}
	if len(groups) != 1 {
		t.Fatalf("got %d track groups, expected 1", len(groups))
	}

	var flat []analysis.DurationStat
	for track, durations := range groups {
		flat = append(flat, analysis.AggregateDurations(track, durations)...)
	}
	if err := s.ReplaceDurationStats(project, flat); err != nil {
		t.Fatalf("ReplaceDurationStats: %v", err)
	}

	stats, err := s.ReadDurationStats(project)
	if err != nil {
		t.Fatalf("ReadDurationStats: %v", err)
	}
	if len(stats) != 1 {
		t.Fatalf("ReadDurationStats returned %d tracks, expected 1", len(stats))
	}
	for track, buckets := range stats {
		if len(buckets) != 2 {
			t.Fatalf("track %d has %d buckets, expected 2", track, len(buckets))
		}
		if buckets[0].MsPlayed != 180000 || buckets[0].Frequency != 2 {
			t.Errorf("first bucket = (%d ms, freq %d), expected (180000, 2)",
				buckets[0].MsPlayed, buckets[0].Frequency)
		}
		if buckets[0].Skip != analysis.LabelUnset {
			t.Errorf("fresh bucket labeled %v, expected UNSET", buckets[0].Skip)
		}

		// Label and read back.
		labeled := make([]analysis.DurationStat, len(buckets))
		copy(labeled, buckets)
		labeled[0].Skip = analysis.LabelNonSkip
		labeled[1].Skip = analysis.LabelSkip
		if err := s.UpdateSkipLabels(labeled); err != nil {
			t.Fatalf("UpdateSkipLabels: %v", err)
		}
	}

	stats, err = s.ReadDurationStats(project)
	if err != nil {
		t.Fatalf("ReadDurationStats after labeling: %v", err)
	}
	for track, buckets := range stats {
		if buckets[0].Skip != analysis.LabelNonSkip {
			t.Errorf("track %d bucket %d ms labeled %v, expected NON_SKIP",
				track, buckets[0].MsPlayed, buckets[0].Skip)
		}
		if buckets[1].Skip != analysis.LabelSkip {
			t.Errorf("track %d bucket %d ms labeled %v, expected SKIP",
				track, buckets[1].MsPlayed, buckets[1].Skip)
		}
	}
}

func TestCalendarRoundtrip(t *testing.T) {
	s := createTestDb(t)
	defer s.Close()
	project := createTestProject(t, s)

	days := []analysis.Day{
		{Date: time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC), HasListen: true},
		{Date: time.Date(2021, 1, 2, 0, 0, 0, 0, time.UTC), IsMissing: true},
		{Date: time.Date(2021, 1, 3, 0, 0, 0, 0, time.UTC), HasListen: true},
	}
	if err := s.ReplaceCalendar(project, days); err != nil {
		t.Fatalf("ReplaceCalendar: %v", err)
	}

	got, err := s.ReadCalendar(project)
	if err != nil {
		t.Fatalf("ReadCalendar: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("ReadCalendar returned %d days, expected 3", len(got))
	}
	for i := range days {
		if !got[i].Date.Equal(days[i].Date) || got[i].HasListen != days[i].HasListen ||
			got[i].IsMissing != days[i].IsMissing {
			t.Errorf("day %d = %+v, expected %+v", i, got[i], days[i])
		}
	}

	// Replace with a shorter calendar; the old rows go away.
	if err := s.ReplaceCalendar(project, days[:1]); err != nil {
		t.Fatalf("ReplaceCalendar (shorter): %v", err)
	}
	got, err = s.ReadCalendar(project)
	if err != nil {
		t.Fatalf("ReadCalendar after replace: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("ReadCalendar returned %d days after replace, expected 1", len(got))
	}
}

func TestListenDates(t *testing.T) {
	s := createTestDb(t)
	defer s.Close()
	project := createTestProject(t, s)

	listens := []analysis.Listen{
		listenAt(t, 0, "2021-01-05 10:00", "Artist A", "Track 1", 180000),
		listenAt(t, 1, "2021-01-05 23:59", "Artist A", "Track 2", 200000),
		listenAt(t, 2, "2021-01-01 08:00", "Artist A", "Track 1", 180000),
	}
	if err := s.ReplaceListens(project, listens); err != nil {
		t.Fatalf("ReplaceListens: %v", err)
	}

	dates, err := s.ListenDates(project)
	if err != nil {
		t.Fatalf("ListenDates: %v", err)
	}
	if len(dates) != 2 {
		t.Fatalf("ListenDates returned %d dates, expected 2", len(dates))
	}
	if !dates[0].Equal(time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("first date = %v, expected 2021-01-01", dates[0])
	}
	if !dates[1].Equal(time.Date(2021, 1, 5, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("second date = %v, expected 2021-01-05", dates[1])
	}
}

func TestProjectsAreIsolated(t *testing.T) {
	s := createTestDb(t)
	defer s.Close()

	a, err := s.CreateProject("a", analysis.DefaultConfig())
	if err != nil {
		t.Fatalf("CreateProject(a): %v", err)
	}
	b, err := s.CreateProject("b", analysis.DefaultConfig())
	if err != nil {
		t.Fatalf("CreateProject(b): %v", err)
	}

	listens := []analysis.Listen{
		listenAt(t, 0, "2021-01-01 10:00", "Artist A", "Track 1", 180000),
	}
	if err := s.ReplaceListens(a, listens); err != nil {
		t.Fatalf("ReplaceListens(a): %v", err)
	}

	groups, err := s.TrackListenDurations(b)
	if err != nil {
		t.Fatalf("TrackListenDurations(b): %v", err)
	}
	if len(groups) != 0 {
		t.Errorf("project b sees %d track groups from project a", len(groups))
	}
}
