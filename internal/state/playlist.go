package state

import (
	"time"

	"github.com/diamondburned/nowplaying/internal/muse/playlist"
	"github.com/pkg/errors"
)

// Tx is a playlist transaction. Changes are made to copies of the playlists
// and only become visible, and get written to disk, when the transaction
// function returns nil.
type Tx struct {
	state   *State
	pending map[string]*playlist.Playlist
	now     time.Time
}

// Transaction runs fn inside a playlist transaction. Transactions are
// serialized against each other.
func (s *State) Transaction(fn func(tx *Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &Tx{
		state:   s,
		pending: make(map[string]*playlist.Playlist),
		now:     time.Now(),
	}

	if err := fn(tx); err != nil {
		return err
	}

	for name, pl := range tx.pending {
		if err := pl.Save(); err != nil {
			return errors.Wrapf(err, "failed to save playlist %q", name)
		}
	}

	for name, pl := range tx.pending {
		s.playlists[name] = pl
	}

	return nil
}

func (tx *Tx) get(name string) (*playlist.Playlist, error) {
	if pl, ok := tx.pending[name]; ok {
		return pl, nil
	}

	pl, ok := tx.state.playlists[name]
	if !ok {
		return nil, ErrNoSuchPlaylist
	}

	cpy := clonePlaylist(pl)
	tx.pending[name] = &cpy

	return &cpy, nil
}

// CheckInPlaylist returns how many times the track is in the named playlist.
func (tx *Tx) CheckInPlaylist(name string, track playlist.Track) int {
	pl, ok := tx.pending[name]
	if !ok {
		pl, ok = tx.state.playlists[name]
	}
	if !ok {
		return 0
	}

	var n int
	for _, t := range pl.Tracks {
		if t.Same(track) {
			n++
		}
	}

	return n
}

// Insert appends the track to the named playlist and bumps its last update
// time.
func (tx *Tx) Insert(name string, track playlist.Track) error {
	pl, err := tx.get(name)
	if err != nil {
		return err
	}

	pl.Tracks = append(pl.Tracks, track)
	pl.LastUpdated = tx.now

	return nil
}
