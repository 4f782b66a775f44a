package mpris

import (
	"testing"
	"time"

	"github.com/diamondburned/nowplaying/internal/muse"
	"github.com/diamondburned/nowplaying/internal/muse/playlist"
	"github.com/diamondburned/nowplaying/internal/sheet"
	"github.com/diamondburned/nowplaying/internal/state"
	"github.com/go-test/deep"
)

func newTestPlayer() *player {
	return &player{
		propQ: make(chan propChange, 64),
		stop:  make(chan struct{}),
	}
}

func drain(p *player) map[string]interface{} {
	props := map[string]interface{}{}
	for {
		select {
		case c := <-p.propQ:
			props[c.n] = c.v
		default:
			return props
		}
	}
}

func TestUpdate(t *testing.T) {
	p := newTestPlayer()

	track := &playlist.Track{
		ID:        "a",
		Title:     "Song",
		Artists:   []playlist.Artist{{Name: "One"}, {Name: "Two"}},
		Album:     &playlist.Album{Title: "Album"},
		URI:       "https://example.com/a.opus",
		Thumbnail: "https://example.com/a.jpg",
	}

	snap := sheet.Snapshot{
		Track:       track,
		QueueIndex:  2,
		State:       muse.StateReady,
		Playing:     true,
		Position:    time.Second,
		Duration:    time.Minute,
		CanSkipNext: true,
		Repeat:      state.RepeatSingle,
	}

	p.update(snap)
	props := drain(p)

	want := map[string]interface{}{
		"mpris:trackid": trackID(2),
		"mpris:length":  time.Minute.Microseconds(),
		"mpris:artUrl":  "https://example.com/a.jpg",
		"xesam:title":   "Song",
		"xesam:url":     "https://example.com/a.opus",
		"xesam:artist":  []string{"One", "Two"},
		"xesam:album":   "Album",
	}

	if diff := deep.Equal(props["Metadata"], want); diff != nil {
		t.Error("Unexpected metadata:", diff)
	}

	if props["PlaybackStatus"] != "Playing" || props["LoopStatus"] != "Track" || props["CanGoNext"] != true {
		t.Errorf("Unexpected props: %v", props)
	}

	// Only the position changed.
	snap.Position = 2 * time.Second
	p.update(snap)

	if diff := deep.Equal(drain(p), map[string]interface{}{"Position": int64(2000000)}); diff != nil {
		t.Error("Unexpected props after a position change:", diff)
	}

	snap.Track = nil
	snap.QueueIndex = -1
	p.update(snap)

	props = drain(p)
	if diff := deep.Equal(props["Metadata"], noTrackMetadata); diff != nil {
		t.Error("Expected no track metadata:", diff)
	}
	if props["PlaybackStatus"] != "Stopped" {
		t.Errorf("Expected Stopped, got %v", props["PlaybackStatus"])
	}
}

func TestUpdateLength(t *testing.T) {
	p := newTestPlayer()

	// Right after the file starts, mpv doesn't know the duration yet.
	snap := sheet.Snapshot{
		Track:      &playlist.Track{ID: "a", Length: 3 * time.Minute},
		QueueIndex: 0,
		State:      muse.StateBuffering,
		Duration:   muse.TimeUnset,
	}

	p.update(snap)
	md := drain(p)["Metadata"].(map[string]interface{})
	if md["mpris:length"] != (3 * time.Minute).Microseconds() {
		t.Errorf("Expected the track length, got %v", md["mpris:length"])
	}

	snap.State = muse.StateReady
	snap.Duration = 3*time.Minute + 5*time.Second
	p.update(snap)

	props := drain(p)
	md, ok := props["Metadata"].(map[string]interface{})
	if !ok {
		t.Fatalf("Expected metadata to be sent again, got %v", props)
	}
	if md["mpris:length"] != snap.Duration.Microseconds() {
		t.Errorf("Expected the player duration, got %v", md["mpris:length"])
	}

	// Nothing changed, nothing is sent.
	p.update(snap)
	if props := drain(p); len(props) != 0 {
		t.Errorf("Expected no props, got %v", props)
	}
}

func TestPlaybackStatus(t *testing.T) {
	track := &playlist.Track{ID: "a"}

	tests := []struct {
		snap   sheet.Snapshot
		status string
	}{
		{sheet.Snapshot{}, "Stopped"},
		{sheet.Snapshot{Track: track, State: muse.StateReady, Playing: true}, "Playing"},
		{sheet.Snapshot{Track: track, State: muse.StateBuffering, Playing: true}, "Playing"},
		{sheet.Snapshot{Track: track, State: muse.StateReady}, "Paused"},
		{sheet.Snapshot{Track: track, State: muse.StateEnded, Playing: true}, "Paused"},
	}

	for _, test := range tests {
		if status := playbackStatus(test.snap); status != test.status {
			t.Errorf("Expected %s for %+v, got %s", test.status, test.snap, status)
		}
	}
}

func TestTrackURL(t *testing.T) {
	if u := trackURL("/music/a b.flac"); u != "file:///music/a%20b.flac" {
		t.Errorf("Unexpected file URL %q", u)
	}
	if u := trackURL("https://example.com/a"); u != "https://example.com/a" {
		t.Errorf("Unexpected URL %q", u)
	}
}
