package analysis

import "sort"

// ClassifySkips labels every duration bucket of one track as a skip or a
// genuine listen. It is a pure function of the track's duration stats and
// the thresholds: the input is left unchanged and the returned slice is a
// copy, ordered longest duration first.
//
// Stages run in order, and a later stage can only promote a bucket to
// NON_SKIP, never demote one:
//
//  1. Frequency: a duration repeated AbsoluteNonSkipFrequency times always
//     qualifies; repeated MinNonSkipFrequency times it qualifies when it
//     also makes up MinNonSkipFrequencyPercent of the track's listens.
//  2. Fallback: if nothing qualified, the longest duration qualifies when
//     it reaches MinNonSkipTrackLength.
//  3. Proximity: anything within SkipDurationErrorMargin of the shortest
//     accepted duration qualifies (the missing tail is negligible).
//  4. Everything still unset is a skip.
//
// All comparisons are inclusive.
func ClassifySkips(stats []DurationStat, t Thresholds) []DurationStat {
	if len(stats) == 0 {
		return nil
	}

	out := make([]DurationStat, len(stats))
	copy(out, stats)
	// The fallback stage needs the longest duration first. Sort here
	// rather than trusting the caller's order.
	sort.Slice(out, func(i, j int) bool {
		return out[i].MsPlayed > out[j].MsPlayed
	})

	anyNonSkip := false
	for i := range out {
		if qualifiesByFrequency(out[i], t) {
			out[i].Skip = LabelNonSkip
			anyNonSkip = true
		}
	}

	// Absent repetition evidence, trust the longest play if it clears the
	// minimum bar. Otherwise the track ends up entirely SKIP.
	if !anyNonSkip && out[0].MsPlayed >= t.MinNonSkipTrackLength {
		out[0].Skip = LabelNonSkip
	}

	shortest, haveNonSkip := shortestNonSkip(out)
	if haveNonSkip {
		cutoff := float64(shortest) * (1 - t.SkipDurationErrorMargin)
		for i := range out {
			if out[i].Skip != LabelNonSkip && float64(out[i].MsPlayed) >= cutoff {
				out[i].Skip = LabelNonSkip
			}
		}
	}

	for i := range out {
		if out[i].Skip != LabelNonSkip {
			out[i].Skip = LabelSkip
		}
	}
	return out
}

func qualifiesByFrequency(d DurationStat, t Thresholds) bool {
	if d.Frequency >= t.AbsoluteNonSkipFrequency {
		return true
	}
	return d.Frequency >= t.MinNonSkipFrequency &&
		d.PercentListens >= t.MinNonSkipFrequencyPercent
}

func shortestNonSkip(stats []DurationStat) (int64, bool) {
	var shortest int64
	found := false
	for _, d := range stats {
		if d.Skip != LabelNonSkip {
			continue
		}
		if !found || d.MsPlayed < shortest {
			shortest = d.MsPlayed
			found = true
		}
	}
	return shortest, found
}
