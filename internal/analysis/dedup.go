package analysis

import "sort"

type dedupKey struct {
	end    int64
	artist string
	track  string
	ms     int64
}

// Deduplicate merges the raw listens from every download into the canonical
// listen sequence: sorted by end time, exact duplicates collapsed, dense
// positions assigned from zero. The input must be in batch-processing order
// (download, then position within the download) so that listens sharing an
// end timestamp keep their original relative order.
//
// The result is a set union: two downloads with overlapping export windows
// contribute each distinct event once, no matter how the downloads were
// ordered. A track genuinely played twice to the same millisecond timestamp
// with the same duration is indistinguishable from a duplicated export
// record and collapses to one event.
func Deduplicate(raw []RawListen) []Listen {
	sorted := make([]RawListen, len(raw))
	copy(sorted, raw)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].EndTime.Before(sorted[j].EndTime)
	})

	seen := make(map[dedupKey]bool, len(sorted))
	listens := make([]Listen, 0, len(sorted))
	for _, r := range sorted {
		k := dedupKey{r.EndTime.UnixNano(), r.ArtistName, r.TrackName, r.MsPlayed}
		if seen[k] {
			continue
		}
		seen[k] = true

		listens = append(listens, Listen{
			Position:   len(listens),
			EndTime:    r.EndTime,
			ArtistName: r.ArtistName,
			TrackName:  r.TrackName,
			MsPlayed:   r.MsPlayed,
		})
	}
	return listens
}
