package state

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/diamondburned/nowplaying/internal/muse/playlist"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const stateFileName = "state.json"

type jsonState struct {
	Playlists []string         `json:"playlist_paths"`
	Queue     []playlist.Track `json:"queue,omitempty"`
	QueuePos  int              `json:"queue_pos,omitempty"`
	Automix   []playlist.Track `json:"automix,omitempty"`
	Repeating RepeatMode       `json:"repeating"`
}

func fileJSONState(file string) (jsonState, error) {
	var jsonState jsonState

	f, err := os.Open(file)
	if err != nil {
		return jsonState, err
	}
	f.SetDeadline(time.Now().Add(10 * time.Second))
	defer f.Close()

	if err := json.NewDecoder(f).Decode(&jsonState); err != nil {
		return jsonState, err
	}

	return jsonState, nil
}

// makeJSONState must be called with the lock held.
func makeJSONState(s *State) jsonState {
	var paths = make([]string, 0, len(s.playlistNames))
	for _, name := range s.playlistNames {
		paths = append(paths, s.playlists[name].Path)
	}

	return jsonState{
		Playlists: paths,
		Queue:     s.queue.Tracks,
		QueuePos:  s.queue.Pos,
		Automix:   s.automix,
		Repeating: s.repeating,
	}
}

func makeStateFromJSON(dataDir string, jsonState jsonState) *State {
	state := NewState(dataDir)
	state.repeating = jsonState.Repeating
	state.queue.Tracks = jsonState.Queue
	state.queue.Pos = clampIndex(jsonState.QueuePos, len(jsonState.Queue))
	state.automix = jsonState.Automix

	// Load playlists multithreaded.
	playlists := make([]*playlist.Playlist, len(jsonState.Playlists))
	waitGroup := sync.WaitGroup{}
	waitGroup.Add(len(jsonState.Playlists))

	for i, path := range jsonState.Playlists {
		go func(i int, path string) {
			defer waitGroup.Done()

			p, err := playlist.ParseFile(path)
			if err != nil {
				log.Warn().Err(err).Str("path", path).Msg("Ignoring erroneous playlist")
				return
			}

			playlists[i] = p
		}(i, path)
	}

	waitGroup.Wait()

	for _, pl := range playlists {
		if pl != nil {
			state.AddPlaylist(pl)
		}
	}

	state.unsaved = false
	return state
}

// ReadFromFile reads the state saved in dataDir.
func ReadFromFile(dataDir string) (*State, error) {
	s, err := fileJSONState(filepath.Join(dataDir, stateFileName))
	if err != nil {
		return nil, errors.Wrap(err, "failed to read state file")
	}

	return makeStateFromJSON(dataDir, s), nil
}

// SaveState saves the state. It is non-blocking, but the JSON is marshaled in
// the same goroutine as the caller.
func (s *State) SaveState() {
	if s.dataDir == "" {
		return
	}

	s.mu.Lock()
	if !s.unsaved {
		s.mu.Unlock()
		return
	}

	select {
	case s.saving <- struct{}{}:
		// success
	default:
		s.mu.Unlock()
		return
	}

	b, err := json.Marshal(makeJSONState(s))
	if err != nil {
		s.mu.Unlock()
		<-s.saving
		log.Error().Err(err).Msg("Failed to JSON marshal state")
		return
	}

	s.unsaved = false
	s.mu.Unlock()

	go func() {
		if err := writeStateFile(s.dataDir, b); err != nil {
			log.Error().Err(err).Msg("Failed to save JSON state")
		}

		<-s.saving
	}()
}

// SaveAll saves the state and blocks until it's written.
func (s *State) SaveAll() error {
	if s.dataDir == "" {
		return nil
	}

	s.mu.Lock()
	b, err := json.Marshal(makeJSONState(s))
	s.unsaved = false
	s.mu.Unlock()

	if err != nil {
		return errors.Wrap(err, "failed to JSON marshal state")
	}

	// Wait for any SaveState in flight.
	s.saving <- struct{}{}
	defer func() { <-s.saving }()

	return writeStateFile(s.dataDir, b)
}

func writeStateFile(dataDir string, b []byte) error {
	if err := os.MkdirAll(dataDir, os.ModePerm); err != nil {
		return errors.Wrap(err, "failed to make data directory")
	}

	return os.WriteFile(filepath.Join(dataDir, stateFileName), b, 0o644)
}
