package playlist

import (
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// ErrUnknownFormat is returned when no reader is registered for a playlist's
// file extension.
var ErrUnknownFormat = errors.New("unknown playlist format")

type (
	Reader func(path string) (*Playlist, error)
	Writer func(pl *Playlist) error
)

type format struct {
	read  Reader
	write Writer
}

var formats = map[string]format{}

// Register registers a reader and writer for the given file extension,
// including the dot.
func Register(fileExt string, r Reader, w Writer) {
	formats[fileExt] = format{r, w}
}

func SupportedExtensions() []string {
	var exts = make([]string, 0, len(formats))
	for ext := range formats {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// ParseFile parses the playlist at path using the reader registered for its
// extension.
func ParseFile(path string) (*Playlist, error) {
	f, ok := formats[filepath.Ext(path)]
	if !ok {
		return nil, ErrUnknownFormat
	}

	return f.read(path)
}

// Playlist is a named list of tracks backed by a file.
type Playlist struct {
	Name        string
	Path        string
	Tracks      []Track
	LastUpdated time.Time
}

// IndexOf returns the index of the first track with the given ID, or -1.
func (pl *Playlist) IndexOf(id string) int {
	for i, track := range pl.Tracks {
		if track.MediaID() == id {
			return i
		}
	}
	return -1
}

// Save writes the playlist back to its path using the registered writer.
func (pl *Playlist) Save() error {
	f, ok := formats[filepath.Ext(pl.Path)]
	if !ok {
		return ErrUnknownFormat
	}

	return f.write(pl)
}

// NameFromPath returns the playlist name implied by a file path: the base name
// without its extension.
func NameFromPath(path string) string {
	name := filepath.Base(path)
	return name[:len(name)-len(filepath.Ext(name))]
}

// SanitizeFilename makes a playlist name safe to use as a file name.
func SanitizeFilename(name string) string {
	name = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|', 0:
			return '_'
		}
		return r
	}, name)

	name = strings.TrimSpace(name)
	if name == "" || name == "." || name == ".." {
		return "playlist"
	}
	return name
}
