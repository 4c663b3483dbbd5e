package ingest

import "regexp"

// FileType is what a file in an export download is recognized as, based on
// its name.
type FileType int

const (
	FileUnknown FileType = iota
	FileStreaming
	FilePlaylist
	FileIdentity
	FileLibrary
)

var (
	streamingRe = regexp.MustCompile(`^StreamingHistory\d+\.json$`)
	playlistRe  = regexp.MustCompile(`^Playlist\d+\.json$`)
	identityRe  = regexp.MustCompile(`^Identity\.json$`)
	libraryRe   = regexp.MustCompile(`^YourLibrary\.json$`)
)

func DetectFileType(name string) FileType {
	switch {
	case streamingRe.MatchString(name):
		return FileStreaming
	case playlistRe.MatchString(name):
		return FilePlaylist
	case identityRe.MatchString(name):
		return FileIdentity
	case libraryRe.MatchString(name):
		return FileLibrary
	default:
		return FileUnknown
	}
}
