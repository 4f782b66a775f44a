package muse

import (
	"os/exec"
	"strings"
	"time"

	"github.com/DexterLB/mpvipc"
	"github.com/pkg/errors"
)

// ErrNotStarted is returned by playback calls made before Start.
var ErrNotStarted = errors.New("session not started")

type Session struct {
	Playback  *mpvipc.Connection
	PlayState *PlayState
	Command   *exec.Cmd

	// OnAsyncError is called with errors that happen in the event loop.
	OnAsyncError func(error)

	handlers   []EventHandler
	socketPath string
	started    bool
}

func NewSession(opts Options) (*Session, error) {
	return newMpv(opts)
}

// AddHandler adds an event handler. It must be called before Start.
func (s *Session) AddHandler(h EventHandler) {
	s.handlers = append(s.handlers, h)
}

// PlayTrack replaces whatever is playing with the given URI and unpauses.
func (s *Session) PlayTrack(uri string) error {
	if !s.started {
		return ErrNotStarted
	}

	if _, err := s.Playback.Call("loadfile", uri, "replace"); err != nil {
		return errors.Wrap(err, "failed to load file")
	}

	return s.SetPlay(true)
}

// Seek seeks to the given absolute position.
func (s *Session) Seek(pos time.Duration) error {
	if pos < 0 {
		pos = 0
	}
	return s.Playback.Set("time-pos", pos.Seconds())
}

func (s *Session) SetPlay(playing bool) error {
	return s.Playback.Set("pause", !playing)
}

// TogglePlay flips the pause state.
func (s *Session) TogglePlay() error {
	return s.SetPlay(!s.PlayState.IsPlaying())
}

// StopPlayback stops and unloads the current file. The mpv process keeps
// running.
func (s *Session) StopPlayback() error {
	_, err := s.Playback.Call("stop")
	return err
}

// SetLoopFile toggles looping the current file, which is how single-track
// repeat is done without going through the queue.
func (s *Session) SetLoopFile(loop bool) error {
	loopFile := "no"
	if loop {
		loopFile = "inf"
	}

	return makeBatchErrors(
		s.Playback.Set("loop-playlist", "no"),
		s.Playback.Set("loop-file", loopFile),
	)
}

// Position returns the last observed playback position.
func (s *Session) Position() time.Duration { return s.PlayState.Position() }

// Duration returns the last observed duration, or TimeUnset.
func (s *Session) Duration() time.Duration { return s.PlayState.Duration() }

// State returns the current playback state.
func (s *Session) State() PlaybackState { return s.PlayState.State() }

// IsPlaying returns true if the player is not paused.
func (s *Session) IsPlaying() bool { return s.PlayState.IsPlaying() }

type batchErrors []error

func makeBatchErrors(errs ...error) error {
	var nonNils = errs[:0]
	for _, err := range errs {
		if err != nil {
			nonNils = append(nonNils, err)
		}
	}

	if len(nonNils) == 0 {
		return nil
	}

	return batchErrors(nonNils)
}

func (b batchErrors) Error() string {
	var errors = make([]string, len(b))
	for i, err := range b {
		errors[i] = err.Error()
	}

	// English moment.
	return strings.Join(errors, ", and ")
}
