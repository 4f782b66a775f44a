package playlist

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/go-test/deep"
)

func TestNewLocalTrack(t *testing.T) {
	track := NewLocalTrack("/music/Aqours/01 Aozora Jumping Heart.flac")

	expect := Track{
		Title: "01 Aozora Jumping Heart",
		URI:   "/music/Aqours/01 Aozora Jumping Heart.flac",
	}

	if ineqs := deep.Equal(track, expect); ineqs != nil {
		t.Error("unexpected track:", ineqs)
	}

	if track.IsRemote() {
		t.Error("Expected local track")
	}
	if !(Track{URI: "https://example.com/a.mp3"}).IsRemote() {
		t.Error("Expected remote track")
	}
}

func TestProbeRemote(t *testing.T) {
	track := Track{Title: "stream", URI: "https://example.com/a.mp3"}
	if err := track.Probe(); err != nil {
		t.Fatal("Probe failed:", err)
	}
	if track.Title != "stream" {
		t.Errorf("Expected title to be untouched, got %q", track.Title)
	}
}

func TestBatchProbe(t *testing.T) {
	dir := t.TempDir()

	// Neither file has tags, so every probe fails and the tracks keep their
	// file names.
	var tracks []Track
	for _, name := range []string{"a.mp3", "b.mp3", "c.mp3"} {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte("not audio"), 0644); err != nil {
			t.Fatal(err)
		}
		tracks = append(tracks, NewLocalTrack(path))
	}
	tracks = append(tracks, NewLocalTrack(filepath.Join(dir, "missing.mp3")))

	var mu sync.Mutex
	var got = make([]Track, len(tracks))
	var errs int

	BatchProbe(tracks, func(i int, track Track, err error) {
		mu.Lock()
		defer mu.Unlock()

		got[i] = track
		if err != nil {
			errs++
		}
	})

	if errs != len(tracks) {
		t.Errorf("Expected %d errors, got %d", len(tracks), errs)
	}

	if ineqs := deep.Equal(got, tracks); ineqs != nil {
		t.Error("unexpected tracks:", ineqs)
	}
}
