// Package ingest reads Spotify export download directories into raw listen
// records, validating them on the way in.
package ingest

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	json "github.com/goccy/go-json"
	"golang.org/x/time/rate"
)

// endTimeLayout is the timestamp format streaming history files use,
// minute resolution, no zone.
const endTimeLayout = "2006-01-02 15:04"

// Record is one validated listen from a streaming history file. Position
// is the record's index within the whole download, counting across its
// streaming files in name order.
type Record struct {
	Position   int
	EndTime    time.Time
	ArtistName string
	TrackName  string
	MsPlayed   int64
}

// Download is one indexed and parsed export directory.
type Download struct {
	Path           string
	Name           string
	StreamingFiles []string
	Records        []Record
}

type rawRecord struct {
	EndTime    string `json:"endTime"`
	ArtistName string `json:"artistName"`
	TrackName  string `json:"trackName"`
	MsPlayed   int64  `json:"msPlayed"`
}

// ScanDownload indexes an export directory and parses its streaming
// history files. A directory containing no recognized export file is not a
// download, and an error is returned.
func ScanDownload(path string) (*Download, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("reading download directory: %w", err)
	}

	d := &Download{
		Path: path,
		Name: filepath.Base(path),
	}

	recognized := false
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		t := DetectFileType(e.Name())
		if t != FileUnknown {
			recognized = true
		}
		if t == FileStreaming {
			d.StreamingFiles = append(d.StreamingFiles, e.Name())
		}
	}
	if !recognized {
		return nil, fmt.Errorf("%q is not a Spotify download: no recognized files", path)
	}
	sort.Strings(d.StreamingFiles)

	progress := rate.Sometimes{Interval: time.Second}
	for _, name := range d.StreamingFiles {
		records, err := parseStreamingFile(filepath.Join(path, name), len(d.Records))
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", name, err)
		}
		d.Records = append(d.Records, records...)
		progress.Do(func() {
			fmt.Printf("  parsed %d records...\n", len(d.Records))
		})
	}

	return d, nil
}

func parseStreamingFile(path string, offset int) ([]Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var raw []rawRecord
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decoding JSON: %w", err)
	}

	records := make([]Record, 0, len(raw))
	for i, r := range raw {
		end, err := time.ParseInLocation(endTimeLayout, r.EndTime, time.UTC)
		if err != nil {
			return nil, fmt.Errorf("record %d: bad endTime %q: %w", i, r.EndTime, err)
		}
		if r.MsPlayed < 0 {
			return nil, fmt.Errorf("record %d: negative msPlayed %d", i, r.MsPlayed)
		}
		records = append(records, Record{
			Position:   offset + i,
			EndTime:    end,
			ArtistName: r.ArtistName,
			TrackName:  r.TrackName,
			MsPlayed:   r.MsPlayed,
		})
	}
	return records, nil
}

// StartTime returns the earliest listen timestamp in the download, or the
// zero time if it has no listens.
func (d *Download) StartTime() time.Time {
	var earliest time.Time
	for _, r := range d.Records {
		if earliest.IsZero() || r.EndTime.Before(earliest) {
			earliest = r.EndTime
		}
	}
	return earliest
}

// LatestListen returns the latest listen timestamp in the download, or the
// zero time if it has no listens.
func (d *Download) LatestListen() time.Time {
	var latest time.Time
	for _, r := range d.Records {
		if r.EndTime.After(latest) {
			latest = r.EndTime
		}
	}
	return latest
}

// CorrectRequestDate reconciles a user-declared request date with the
// listening evidence. The declared date is never silently trusted: when the
// latest listen postdates it (or no date was declared), the date of the
// latest listen wins.
func CorrectRequestDate(declared time.Time, latestListen time.Time) time.Time {
	evidence := time.Date(latestListen.Year(), latestListen.Month(), latestListen.Day(),
		0, 0, 0, 0, time.UTC)
	if declared.IsZero() || declared.Before(evidence) {
		return evidence
	}
	return declared
}
