package state

import (
	"sort"
	"sync"

	"github.com/diamondburned/nowplaying/internal/muse/playlist"
	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// ErrNoSuchPlaylist is returned when a playlist name is not known.
var ErrNoSuchPlaylist = errors.New("no such playlist")

// State holds the play queue, the automix continuation queue and the known
// playlists. It is safe for concurrent use.
type State struct {
	mu sync.Mutex
	// onUpdate is called outside the lock every time the queue changes.
	onUpdate []func(s *State)

	playlistNames []string
	playlists     map[string]*playlist.Playlist

	queue struct {
		Tracks []playlist.Track
		Pos    int
	}

	automix   []playlist.Track
	repeating RepeatMode

	dataDir string
	saving  chan struct{}
	unsaved bool
}

// NewState creates an empty state that saves itself into dataDir. An empty
// dataDir disables saving.
func NewState(dataDir string) *State {
	return &State{
		dataDir:   dataDir,
		saving:    make(chan struct{}, 1),
		playlists: make(map[string]*playlist.Playlist),
	}
}

// OnUpdate adds a callback that is triggered when the queue is changed.
func (s *State) OnUpdate(fn func(*State)) {
	s.mu.Lock()
	s.onUpdate = append(s.onUpdate, fn)
	s.mu.Unlock()
}

// update must be called without the lock held.
func (s *State) update() {
	s.mu.Lock()
	s.unsaved = true
	fns := s.onUpdate
	s.mu.Unlock()

	for _, fn := range fns {
		fn(s)
	}
}

// SetQueue replaces the play queue and moves to pos.
func (s *State) SetQueue(tracks []playlist.Track, pos int) {
	s.mu.Lock()
	s.queue.Tracks = append([]playlist.Track(nil), tracks...)
	s.queue.Pos = clampIndex(pos, len(tracks))
	s.mu.Unlock()

	s.update()
}

// AddToQueue appends tracks to the end of the play queue.
func (s *State) AddToQueue(tracks ...playlist.Track) {
	if len(tracks) == 0 {
		return
	}

	s.mu.Lock()
	s.queue.Tracks = append(s.queue.Tracks, tracks...)
	s.mu.Unlock()

	s.update()
}

// ClearQueue empties the play queue.
func (s *State) ClearQueue() {
	s.mu.Lock()
	s.queue.Tracks = nil
	s.queue.Pos = 0
	s.mu.Unlock()

	s.update()
}

// Queue returns a copy of the play queue and the current position.
func (s *State) Queue() ([]playlist.Track, int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]playlist.Track(nil), s.queue.Tracks...), s.queue.Pos
}

// NowPlaying returns the current queue position and a copy of its track. If
// the queue is empty, then (-1, nil) is returned.
func (s *State) NowPlaying() (int, *playlist.Track) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.nowPlaying()
}

func (s *State) nowPlaying() (int, *playlist.Track) {
	if len(s.queue.Tracks) == 0 {
		return -1, nil
	}

	track := s.queue.Tracks[s.queue.Pos]
	return s.queue.Pos, &track
}

// CanSkipNext returns true if Next would move to another track.
func (s *State) CanSkipNext() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, _ := s.peek(true, true)
	return next >= 0
}

// CanSkipPrevious returns true if Previous would move to another track.
func (s *State) CanSkipPrevious() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, _ := s.peek(false, true)
	return prev >= 0
}

// RepeatMode returns the current repeat mode.
func (s *State) RepeatMode() RepeatMode {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.repeating
}

// SetRepeatMode sets the current repeat mode.
func (s *State) SetRepeatMode(mode RepeatMode) {
	s.mu.Lock()
	if s.repeating == mode {
		s.mu.Unlock()
		return
	}
	s.repeating = mode
	s.mu.Unlock()

	s.update()
}

// Previous returns the previous track, similarly to Next. Nil is returned if
// there is no previous track.
func (s *State) Previous() (int, *playlist.Track) {
	return s.move(false, true)
}

// Next returns the next track from the queue. Nil is returned if there is no
// next track.
func (s *State) Next() (int, *playlist.Track) {
	return s.move(true, true)
}

// AutoNext returns the next track, unless we're in RepeatSingle mode, then it
// returns the same track. Use this to cycle across the queue.
func (s *State) AutoNext() (int, *playlist.Track) {
	return s.move(true, false)
}

// Peek returns the next track without changing the state. It basically
// emulates AutoNext.
func (s *State) Peek() (int, *playlist.Track) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.peek(true, false)
}

// move is an abstracted function used by Prev, Next and AutoNext.
func (s *State) move(forward, force bool) (int, *playlist.Track) {
	s.mu.Lock()
	next, track := s.peek(forward, force)
	if track != nil {
		s.queue.Pos = next
	}
	s.mu.Unlock()

	if track != nil {
		s.update()
	}

	return next, track
}

func (s *State) peek(forward, force bool) (int, *playlist.Track) {
	if len(s.queue.Tracks) == 0 {
		return -1, nil
	}

	if !force && s.repeating == RepeatSingle {
		return s.nowPlaying()
	}

	next, oob := spinIndex(forward, s.queue.Pos, len(s.queue.Tracks))

	if oob && s.repeating == RepeatNone {
		return -1, nil
	}

	track := s.queue.Tracks[next]
	return next, &track
}

// spinIndex spins the index. It returns the newly spun index and whether it
// was spun back.
func spinIndex(fwd bool, i, max int) (int, bool) {
	if fwd {
		i++

		if i >= max {
			return 0, true
		}
	} else {
		i--

		if i < 0 {
			return max - 1, true
		}
	}

	return i, false
}

func clampIndex(i, n int) int {
	if i < 0 || n == 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

// SetAutomix replaces the automix candidates.
func (s *State) SetAutomix(tracks []playlist.Track) {
	s.mu.Lock()
	s.automix = append([]playlist.Track(nil), tracks...)
	s.mu.Unlock()

	s.update()
}

// AutomixItems returns a copy of the automix candidates.
func (s *State) AutomixItems() []playlist.Track {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]playlist.Track(nil), s.automix...)
}

// AddToQueueAutomix moves the automix candidate at pos onto the end of the
// play queue. The candidate must still be at pos; if the automix queue has
// changed underneath the caller, then nothing is done and false is returned.
func (s *State) AddToQueueAutomix(item playlist.Track, pos int) bool {
	s.mu.Lock()

	if pos < 0 || pos >= len(s.automix) || s.automix[pos].MediaID() != item.MediaID() {
		s.mu.Unlock()
		return false
	}

	s.automix = append(s.automix[:pos:pos], s.automix[pos+1:]...)
	s.queue.Tracks = append(s.queue.Tracks, item)
	s.mu.Unlock()

	log.Debug().Str("id", item.MediaID()).Msg("Queued automix item")

	s.update()
	return true
}

// ClearAutomix drops all automix candidates.
func (s *State) ClearAutomix() {
	s.mu.Lock()
	s.automix = nil
	s.mu.Unlock()

	s.update()
}

// AddPlaylist adds a playlist. If a playlist with the same name is added, then
// the function does nothing and returns false.
func (s *State) AddPlaylist(p *playlist.Playlist) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.playlists[p.Name]; ok {
		log.Warn().Str("name", p.Name).Msg("Playlist collision while adding")
		return false
	}

	s.playlists[p.Name] = p
	s.playlistNames = append(s.playlistNames, p.Name)
	s.unsaved = true

	return true
}

// Playlist returns a copy of the playlist with the given name.
func (s *State) Playlist(name string) (playlist.Playlist, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pl, ok := s.playlists[name]
	if !ok {
		return playlist.Playlist{}, false
	}

	return clonePlaylist(pl), true
}

// PlaylistNames returns the playlist names in insertion order.
func (s *State) PlaylistNames() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]string(nil), s.playlistNames...)
}

// FindPlaylists returns the playlist names that fuzzily match query, best
// match first. An empty query returns every playlist.
func (s *State) FindPlaylists(query string) []string {
	names := s.PlaylistNames()
	if query == "" {
		return names
	}

	ranks := fuzzy.RankFindFold(query, names)
	sort.Stable(ranks)

	matches := make([]string, len(ranks))
	for i, rank := range ranks {
		matches[i] = rank.Target
	}

	return matches
}

func clonePlaylist(pl *playlist.Playlist) playlist.Playlist {
	cpy := *pl
	cpy.Tracks = append([]playlist.Track(nil), pl.Tracks...)
	return cpy
}
