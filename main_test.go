package main

import (
	"path/filepath"
	"testing"

	"github.com/diamondburned/nowplaying/internal/muse/playlist"
	"github.com/diamondburned/nowplaying/internal/muse/playlist/m3u"
	"github.com/diamondburned/nowplaying/internal/state"
	"github.com/go-test/deep"
)

func uris(tracks []playlist.Track) []string {
	uris := make([]string, len(tracks))
	for i, track := range tracks {
		uris[i] = track.URI
	}
	return uris
}

func TestQueueArgs(t *testing.T) {
	dir := t.TempDir()

	mix := filepath.Join(dir, "Mix.m3u")
	err := m3u.Write(&playlist.Playlist{
		Name: "Mix",
		Path: mix,
		Tracks: []playlist.Track{
			{Title: "x", URI: "https://example.com/x.opus"},
			{Title: "y", URI: "https://example.com/y.opus"},
		},
	})
	if err != nil {
		t.Fatal(err)
	}

	st := state.NewState("")
	queued := queueArgs(st, []string{
		"https://example.com/a.opus",
		"/music/b.flac",
		automixFlag,
		mix,
	})

	if !queued {
		t.Error("Expected the queue to be replaced")
	}

	queue, _ := st.Queue()
	if ineqs := deep.Equal(uris(queue), []string{"https://example.com/a.opus", "/music/b.flac"}); ineqs != nil {
		t.Error("Unexpected queue:", ineqs)
	}

	if queue[1].Title != "b" {
		t.Errorf("Expected local track to be titled after its file, got %q", queue[1].Title)
	}

	automix := st.AutomixItems()
	if ineqs := deep.Equal(uris(automix), []string{"https://example.com/x.opus", "https://example.com/y.opus"}); ineqs != nil {
		t.Error("Unexpected automix:", ineqs)
	}

	if _, ok := st.Playlist("Mix"); !ok {
		t.Error("Expected the playlist to be known")
	}
}

func TestQueueArgsAutomixOnly(t *testing.T) {
	st := state.NewState("")
	st.SetQueue([]playlist.Track{{ID: "saved", URI: "/music/saved.flac"}}, 0)

	if queueArgs(st, []string{automixFlag, "https://example.com/x.opus"}) {
		t.Error("Expected the saved queue to be kept")
	}

	if queue, _ := st.Queue(); len(queue) != 1 || queue[0].ID != "saved" {
		t.Errorf("Unexpected queue %v", queue)
	}

	if automix := st.AutomixItems(); len(automix) != 1 {
		t.Errorf("Expected one automix item, got %v", automix)
	}

	if queueArgs(st, nil) {
		t.Error("Expected no arguments to keep the queue")
	}
}
