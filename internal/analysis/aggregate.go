package analysis

import "sort"

// AggregateDurations buckets one track's canonical listen durations by
// exact millisecond value. Each bucket records its frequency and the share
// of the track's total listens it represents; labels start out unset. The
// result is ordered longest duration first.
func AggregateDurations(track int64, durations []int64) []DurationStat {
	if len(durations) == 0 {
		return nil
	}

	freq := make(map[int64]int, len(durations))
	for _, d := range durations {
		freq[d]++
	}

	total := float64(len(durations))
	stats := make([]DurationStat, 0, len(freq))
	for ms, f := range freq {
		stats = append(stats, DurationStat{
			Track:          track,
			MsPlayed:       ms,
			Frequency:      f,
			PercentListens: float64(f) / total,
			Skip:           LabelUnset,
		})
	}

	sort.Slice(stats, func(i, j int) bool {
		return stats[i].MsPlayed > stats[j].MsPlayed
	})
	return stats
}
