package analysis

import (
	"testing"
	"time"
)

func day(s string) time.Time {
	t, err := time.ParseInLocation("2006-01-02", s, time.UTC)
	if err != nil {
		panic(err)
	}
	return t
}

func TestBuildCalendarCoveredGap(t *testing.T) {
	// Listens on Jan 1 and Jan 5, with a download requested June 1. Its
	// one-year window covers the whole gap, so nothing is missing.
	listens := []time.Time{day("2021-01-01"), day("2021-01-05")}
	downloads := []time.Time{day("2021-06-01")}

	got := BuildCalendar(listens, downloads)
	if len(got) != 5 {
		t.Fatalf("BuildCalendar returned %d days, expected 5", len(got))
	}
	if !got[0].Date.Equal(day("2021-01-01")) || !got[4].Date.Equal(day("2021-01-05")) {
		t.Fatalf("calendar range [%v, %v], expected [2021-01-01, 2021-01-05]",
			got[0].Date, got[4].Date)
	}

	for _, d := range got {
		wantListen := d.Date.Equal(day("2021-01-01")) || d.Date.Equal(day("2021-01-05"))
		if d.HasListen != wantListen {
			t.Errorf("%s has_listen = %t, expected %t", d.Date.Format("2006-01-02"),
				d.HasListen, wantListen)
		}
		if d.IsMissing {
			t.Errorf("%s marked missing inside a coverage window", d.Date.Format("2006-01-02"))
		}
	}
}

func TestBuildCalendarUncoveredGap(t *testing.T) {
	// The gap falls more than a year before the download's request date,
	// so the silent days are genuinely missing.
	listens := []time.Time{day("2020-01-01"), day("2020-01-04")}
	downloads := []time.Time{day("2021-06-01")}

	got := BuildCalendar(listens, downloads)
	if len(got) != 4 {
		t.Fatalf("BuildCalendar returned %d days, expected 4", len(got))
	}
	for _, d := range got {
		wantMissing := !d.HasListen
		if d.IsMissing != wantMissing {
			t.Errorf("%s is_missing = %t, expected %t", d.Date.Format("2006-01-02"),
				d.IsMissing, wantMissing)
		}
	}
}

func TestBuildCalendarWindowBounds(t *testing.T) {
	// A window ending 2021-06-01 covers [2020-06-01, 2021-06-01],
	// inclusive on both ends.
	listens := []time.Time{day("2020-05-30"), day("2020-06-03")}
	downloads := []time.Time{day("2021-06-01")}

	got := BuildCalendar(listens, downloads)
	byDate := make(map[string]Day, len(got))
	for _, d := range got {
		byDate[d.Date.Format("2006-01-02")] = d
	}

	if d := byDate["2020-05-31"]; !d.IsMissing {
		t.Errorf("2020-05-31 before the window start should be missing")
	}
	if d := byDate["2020-06-01"]; d.IsMissing {
		t.Errorf("2020-06-01 is the window start and should not be missing")
	}
	if d := byDate["2020-06-02"]; d.IsMissing {
		t.Errorf("2020-06-02 inside the window should not be missing")
	}
}

func TestBuildCalendarListenNeverMissing(t *testing.T) {
	// A listen outside every coverage window is still a listen.
	listens := []time.Time{day("2018-01-01"), day("2018-01-02")}
	downloads := []time.Time{day("2021-06-01")}

	got := BuildCalendar(listens, downloads)
	for _, d := range got {
		if d.HasListen && d.IsMissing {
			t.Errorf("%s both has_listen and is_missing", d.Date.Format("2006-01-02"))
		}
	}
}

func TestBuildCalendarNoDownloads(t *testing.T) {
	listens := []time.Time{day("2021-01-01"), day("2021-01-03")}

	got := BuildCalendar(listens, nil)
	byDate := make(map[string]Day, len(got))
	for _, d := range got {
		byDate[d.Date.Format("2006-01-02")] = d
	}
	if d := byDate["2021-01-02"]; !d.IsMissing {
		t.Errorf("with no coverage windows, a silent day should be missing")
	}
}

func TestBuildCalendarEmpty(t *testing.T) {
	if got := BuildCalendar(nil, []time.Time{day("2021-06-01")}); got != nil {
		t.Errorf("BuildCalendar with no listens = %v, expected nil", got)
	}
}
