package analysis

import "time"

// BuildCalendar enumerates every day from the earliest to the latest listen
// date, inclusive, and flags each one. A day has a listen if it appears in
// listenDays. A day is missing if it has no listen AND falls outside the
// coverage window of every download; each download covers the year ending
// on its corrected request date, inclusive on both ends. A day with a
// listen is never missing, even inside a coverage gap.
//
// With no listens at all there is no date range, and the calendar is empty.
func BuildCalendar(listenDays, downloadEnds []time.Time) []Day {
	if len(listenDays) == 0 {
		return nil
	}

	hasListen := make(map[time.Time]bool, len(listenDays))
	first := DateOnly(listenDays[0])
	last := first
	for _, d := range listenDays {
		day := DateOnly(d)
		hasListen[day] = true
		if day.Before(first) {
			first = day
		}
		if day.After(last) {
			last = day
		}
	}

	ends := make([]time.Time, len(downloadEnds))
	for i, e := range downloadEnds {
		ends[i] = DateOnly(e)
	}

	var days []Day
	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		listened := hasListen[d]
		days = append(days, Day{
			Date:      d,
			HasListen: listened,
			IsMissing: !listened && !covered(d, ends),
		})
	}
	return days
}

func covered(day time.Time, ends []time.Time) bool {
	for _, end := range ends {
		start := end.AddDate(-1, 0, 0)
		if !day.Before(start) && !day.After(end) {
			return true
		}
	}
	return false
}

// DateOnly truncates a timestamp to its calendar day, in UTC.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
