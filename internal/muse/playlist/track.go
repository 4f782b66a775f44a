package playlist

import (
	"path/filepath"
	"strings"
	"time"
)

// Track is a single playable item. URI is anything mpv can load: a local path
// or a stream URL.
type Track struct {
	ID        string
	Title     string
	Artists   []Artist
	Album     *Album
	Length    time.Duration
	URI       string
	Thumbnail string
}

type Artist struct {
	ID   string
	Name string
}

type Album struct {
	ID    string
	Title string
}

// MediaID returns the track's ID, falling back to its URI for local tracks
// that have none.
func (t Track) MediaID() string {
	if t.ID != "" {
		return t.ID
	}
	return t.URI
}

// Same returns true if both tracks are the same media. IDs are compared when
// both tracks have one; tracks read back from playlist files only have their
// URI.
func (t Track) Same(other Track) bool {
	if t.ID != "" && other.ID != "" {
		return t.ID == other.ID
	}
	return t.URI != "" && t.URI == other.URI
}

// ArtistNames joins the artist names with commas.
func (t Track) ArtistNames() string {
	names := make([]string, len(t.Artists))
	for i, artist := range t.Artists {
		names[i] = artist.Name
	}
	return strings.Join(names, ", ")
}

// TitleFromPath makes a track title out of a path by dropping the directory
// and the extension.
func TitleFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
