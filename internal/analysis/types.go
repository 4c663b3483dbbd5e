package analysis

import "time"

// SkipLabel classifies one (track, duration) pair. The numeric values are
// what gets stored in the TrackDuration.skip column.
type SkipLabel int

const (
	LabelUnset SkipLabel = iota
	LabelSkip
	LabelNonSkip
)

func (l SkipLabel) String() string {
	switch l {
	case LabelSkip:
		return "SKIP"
	case LabelNonSkip:
		return "NON_SKIP"
	default:
		return "UNSET"
	}
}

// RawListen is one record from a streaming history file, before
// deduplication. The same event may appear in several downloads whose
// export windows overlap.
type RawListen struct {
	EndTime    time.Time
	ArtistName string
	TrackName  string
	MsPlayed   int64
}

// Listen is one row of the canonical, deduplicated listen table.
type Listen struct {
	Position   int
	EndTime    time.Time
	ArtistName string
	TrackName  string
	MsPlayed   int64
}

// DurationStat is one (track, duration) bucket: how many times the track
// was played for exactly MsPlayed milliseconds, and what share of the
// track's total listens that represents.
type DurationStat struct {
	Track          int64
	MsPlayed       int64
	Frequency      int
	PercentListens float64
	Skip           SkipLabel
}

// Day is one row of the coverage calendar.
type Day struct {
	Date      time.Time
	HasListen bool
	IsMissing bool
}
