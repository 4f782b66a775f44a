package playlist

import (
	"os"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/dhowden/tag"
	"github.com/pkg/errors"
)

// NewLocalTrack creates a track for a local file, titled after the file name
// until it's probed.
func NewLocalTrack(path string) Track {
	return Track{
		Title: TitleFromPath(path),
		URI:   path,
	}
}

// IsRemote returns true if the track's URI is a URL rather than a local path.
func (t Track) IsRemote() bool {
	return strings.Contains(t.URI, "://")
}

// Probe fills the track's title, artists and album from the file's tags.
// Remote tracks are left untouched.
func (t *Track) Probe() error {
	if t.IsRemote() {
		return nil
	}

	f, err := os.Open(t.URI)
	if err != nil {
		return errors.Wrap(err, "failed to open file")
	}
	defer f.Close()

	// Use a 1 minute timeout.
	f.SetDeadline(time.Now().Add(time.Minute))

	m, err := tag.ReadFrom(f)
	if err != nil {
		return errors.Wrap(err, "failed to read tag")
	}

	t.Title = stringOr(m.Title(), t.Title)

	if artist := m.Artist(); artist != "" {
		t.Artists = []Artist{{Name: artist}}
	}

	if album := m.Album(); album != "" {
		t.Album = &Album{Title: album}
	}

	return nil
}

var maxJobs = runtime.GOMAXPROCS(-1)

// BatchProbe probes the given tracks in parallel. The probed callback is
// called with the index and a probed copy of each track; it may be called from
// multiple goroutines at once.
func BatchProbe(tracks []Track, probed func(i int, t Track, err error)) {
	type job struct {
		i int
		t Track
	}

	queue := make(chan job, maxJobs)
	waitg := sync.WaitGroup{}
	waitg.Add(maxJobs)

	for i := 0; i < maxJobs; i++ {
		go func() {
			defer waitg.Done()

			for j := range queue {
				err := j.t.Probe()
				probed(j.i, j.t, err)
			}
		}()
	}

	for i, track := range tracks {
		queue <- job{i, track}
	}

	close(queue)
	waitg.Wait()
}

func stringOr(str, or string) string {
	if str != "" {
		return str
	}
	return or
}
