package state

import (
	"path/filepath"
	"testing"

	"github.com/diamondburned/nowplaying/internal/muse/playlist"
	"github.com/diamondburned/nowplaying/internal/muse/playlist/m3u"
	"github.com/go-test/deep"
)

func tracks(ids ...string) []playlist.Track {
	var tracks = make([]playlist.Track, len(ids))
	for i, id := range ids {
		tracks[i] = playlist.Track{ID: id, Title: "Track " + id, URI: "/music/" + id + ".flac"}
	}
	return tracks
}

func queueIDs(s *State) []string {
	q, _ := s.Queue()
	ids := make([]string, len(q))
	for i, track := range q {
		ids[i] = track.ID
	}
	return ids
}

func TestQueueNavigation(t *testing.T) {
	s := NewState("")
	s.SetQueue(tracks("a", "b", "c"), 1)

	if !s.CanSkipNext() || !s.CanSkipPrevious() {
		t.Fatal("middle of the queue should be skippable both ways")
	}

	if i, track := s.Next(); i != 2 || track.ID != "c" {
		t.Fatalf("Next = (%d, %v), expected (2, c)", i, track)
	}

	if s.CanSkipNext() {
		t.Error("last track with RepeatNone should not be skippable")
	}

	if i, track := s.Next(); i != -1 || track != nil {
		t.Errorf("Next past the end = (%d, %v), expected nothing", i, track)
	}

	s.SetRepeatMode(RepeatAll)
	if !s.CanSkipNext() {
		t.Error("RepeatAll should wrap around")
	}

	s.SetRepeatMode(RepeatSingle)
	if i, track := s.AutoNext(); i != 2 || track.ID != "c" {
		t.Errorf("AutoNext in RepeatSingle = (%d, %v), expected (2, c)", i, track)
	}

	if i, track := s.Next(); i != 0 || track.ID != "a" {
		t.Errorf("forced Next in RepeatSingle = (%d, %v), expected (0, a)", i, track)
	}
}

func TestEmptyQueue(t *testing.T) {
	s := NewState("")

	if s.CanSkipNext() || s.CanSkipPrevious() {
		t.Error("empty queue should not be skippable")
	}

	if i, track := s.NowPlaying(); i != -1 || track != nil {
		t.Errorf("NowPlaying on empty queue = (%d, %v)", i, track)
	}
}

func TestAddToQueueAutomix(t *testing.T) {
	s := NewState("")
	s.SetQueue(tracks("a"), 0)
	s.SetAutomix(tracks("x", "y"))

	var updates int
	s.OnUpdate(func(*State) { updates++ })

	automix := s.AutomixItems()
	if !s.AddToQueueAutomix(automix[0], 0) {
		t.Fatal("AddToQueueAutomix refused a valid item")
	}

	if ineqs := deep.Equal(queueIDs(s), []string{"a", "x"}); ineqs != nil {
		t.Error("unexpected queue:", ineqs)
	}

	if left := s.AutomixItems(); len(left) != 1 || left[0].ID != "y" {
		t.Errorf("unexpected automix leftovers: %v", left)
	}

	// Stale position: x is gone, so it shouldn't be appended twice.
	if s.AddToQueueAutomix(automix[0], 0) {
		t.Error("AddToQueueAutomix accepted a stale item")
	}

	if updates != 1 {
		t.Errorf("expected 1 update, got %d", updates)
	}

	s.ClearAutomix()
	if len(s.AutomixItems()) != 0 {
		t.Error("ClearAutomix left items behind")
	}
}

func TestTransaction(t *testing.T) {
	dir := t.TempDir()

	s := NewState("")
	s.AddPlaylist(&playlist.Playlist{
		Name:   "Favorites",
		Path:   filepath.Join(dir, "Favorites.m3u"),
		Tracks: tracks("a"),
	})

	err := s.Transaction(func(tx *Tx) error {
		if n := tx.CheckInPlaylist("Favorites", tracks("b")[0]); n != 0 {
			t.Errorf("b already in playlist %d times", n)
		}
		return tx.Insert("Favorites", tracks("b")[0])
	})
	if err != nil {
		t.Fatal("Transaction failed:", err)
	}

	pl, _ := s.Playlist("Favorites")
	if len(pl.Tracks) != 2 || pl.LastUpdated.IsZero() {
		t.Errorf("insert not committed: %+v", pl)
	}

	onDisk, err := m3u.Parse(pl.Path)
	if err != nil {
		t.Fatal("failed to parse saved playlist:", err)
	}

	if len(onDisk.Tracks) != 2 {
		t.Errorf("expected 2 tracks on disk, got %d", len(onDisk.Tracks))
	}

	// m3u drops IDs, so reloaded tracks are matched by URI.
	reloaded := NewState("")
	reloaded.AddPlaylist(onDisk)
	reloaded.Transaction(func(tx *Tx) error {
		if n := tx.CheckInPlaylist("Favorites", tracks("b")[0]); n != 1 {
			t.Errorf("expected reloaded b once, got %d", n)
		}
		return nil
	})

	// A failing transaction must not leak its changes.
	errAbort := ErrNoSuchPlaylist
	err = s.Transaction(func(tx *Tx) error {
		tx.Insert("Favorites", tracks("c")[0])
		return errAbort
	})
	if err != errAbort {
		t.Fatalf("expected abort error, got %v", err)
	}

	pl, _ = s.Playlist("Favorites")
	if len(pl.Tracks) != 2 {
		t.Errorf("aborted transaction leaked: %d tracks", len(pl.Tracks))
	}

	err = s.Transaction(func(tx *Tx) error {
		return tx.Insert("Nope", tracks("c")[0])
	})
	if err != ErrNoSuchPlaylist {
		t.Errorf("expected ErrNoSuchPlaylist, got %v", err)
	}
}

func TestFindPlaylists(t *testing.T) {
	s := NewState("")
	for _, name := range []string{"Road Trip", "Rainy Days", "Workout"} {
		s.AddPlaylist(&playlist.Playlist{Name: name})
	}

	if found := s.FindPlaylists(""); len(found) != 3 {
		t.Errorf("empty query returned %v", found)
	}

	found := s.FindPlaylists("ROAD")
	if ineqs := deep.Equal(found, []string{"Road Trip"}); ineqs != nil {
		t.Error("unexpected matches:", ineqs)
	}

	if found := s.FindPlaylists("zzz"); len(found) != 0 {
		t.Errorf("expected no matches, got %v", found)
	}
}

func TestSaveAndRead(t *testing.T) {
	dir := t.TempDir()
	plPath := filepath.Join(dir, "Mix.m3u")

	if err := m3u.Write(&playlist.Playlist{Name: "Mix", Path: plPath, Tracks: tracks("m")}); err != nil {
		t.Fatal(err)
	}

	pl, err := m3u.Parse(plPath)
	if err != nil {
		t.Fatal(err)
	}

	s := NewState(dir)
	s.AddPlaylist(pl)
	s.SetQueue(tracks("a", "b"), 1)
	s.SetAutomix(tracks("x", "y"))
	s.SetRepeatMode(RepeatAll)

	if err := s.SaveAll(); err != nil {
		t.Fatal("SaveAll failed:", err)
	}

	read, err := ReadFromFile(dir)
	if err != nil {
		t.Fatal("ReadFromFile failed:", err)
	}

	if ineqs := deep.Equal(queueIDs(read), []string{"a", "b"}); ineqs != nil {
		t.Error("queue differs:", ineqs)
	}

	if ineqs := deep.Equal(read.AutomixItems(), tracks("x", "y")); ineqs != nil {
		t.Error("automix differs:", ineqs)
	}

	if i, _ := read.NowPlaying(); i != 1 {
		t.Errorf("expected queue position 1, got %d", i)
	}

	if read.RepeatMode() != RepeatAll {
		t.Errorf("expected RepeatAll, got %v", read.RepeatMode())
	}

	if names := read.PlaylistNames(); len(names) != 1 || names[0] != "Mix" {
		t.Errorf("unexpected playlists %v", names)
	}
}
