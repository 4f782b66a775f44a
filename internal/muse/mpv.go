package muse

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"time"

	"github.com/DexterLB/mpvipc"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

type mpvEvent uint

const (
	allEvent mpvEvent = iota
	pauseEvent
	bitrateEvent
	timePositionEvent
	durationEvent
	idleEvent
	bufferingEvent
	eofEvent
	audioDeviceEvent
)

var propertyMap = map[mpvEvent]string{
	pauseEvent:        "pause",
	bitrateEvent:      "audio-bitrate",
	timePositionEvent: "time-pos",
	durationEvent:     "duration",
	idleEvent:         "idle-active",
	bufferingEvent:    "paused-for-cache",
	eofEvent:          "eof-reached",
	audioDeviceEvent:  "audio-device",
}

var events = []string{
	"start-file",
	"end-file",
}

// EventHandler methods are called from the mpv event goroutine.
type EventHandler interface {
	OnPlaybackState(state PlaybackState)
	OnPauseUpdate(pause bool)
	// OnSongFinish is called when the current file reaches its end.
	OnSongFinish()
}

// Options configures the mpv child process.
type Options struct {
	// SocketDir is where the IPC socket is created. It defaults to a
	// directory inside os.TempDir().
	SocketDir string
	// Scripts are passed to mpv as --script arguments, e.g. mpv-mpris.
	Scripts []string
}

func newMpv(opts Options) (*Session, error) {
	if opts.SocketDir == "" {
		opts.SocketDir = filepath.Join(os.TempDir(), "nowplaying", "mpv")
	}

	sockPath := filepath.Join(opts.SocketDir, "mpv.sock")

	if err := os.MkdirAll(filepath.Dir(sockPath), os.ModePerm); err != nil {
		return nil, errors.Wrap(err, "failed to make socket directory")
	}

	if err := os.RemoveAll(sockPath); err != nil {
		return nil, errors.Wrap(err, "failed to clean up socket")
	}

	args := []string{
		"--idle",
		"--quiet",
		"--pause",
		"--keep-open=yes",
		"--no-input-terminal",
		"--loop-playlist=no",
		"--gapless-audio=weak",
		"--replaygain=track",
		"--replaygain-clip=no",
		"--input-ipc-server=" + sockPath,
		"--volume=100",
		"--volume-max=100",
		"--no-video",
	}

	for _, script := range opts.Scripts {
		args = append(args, "--script="+script)
	}

	cmd := exec.Command("mpv", args...)
	cmd.Env = os.Environ()

	conn := mpvipc.NewConnection(sockPath)

	if err := cmd.Start(); err != nil {
		return nil, errors.Wrap(err, "failed to start mpv")
	}

	// Give us a 5-second period timeout.
	ctx, cancel := context.WithTimeout(context.TODO(), 5*time.Second)
	defer cancel()

	// Spin until we can connect.
	var err error
RetryOpen:
	for {
		err = conn.Open()
		if err == nil {
			break RetryOpen
		}
		select {
		case <-ctx.Done():
			break RetryOpen
		default:
			runtime.Gosched()
		}
	}

	if err != nil {
		cmd.Process.Kill()
		return nil, errors.Wrap(err, "failed to open connection")
	}

	for _, event := range events {
		if _, err := conn.Call("enable_event", event); err != nil {
			return nil, errors.Wrapf(err, "failed to enable event %q", event)
		}
	}

	for id, property := range propertyMap {
		if _, err := conn.Call("observe_property", id, property); err != nil {
			return nil, errors.Wrapf(err, "failed to observe property %q", property)
		}
	}

	return &Session{
		Playback:   conn,
		PlayState:  newPlayState(),
		Command:    cmd,
		socketPath: sockPath,
		OnAsyncError: func(err error) {
			if err != nil {
				log.Error().Err(err).Msg("mpv async error")
			}
		},
	}, nil
}

// Start starts all the event listeners in background goroutines. As such, it
// is non-blocking.
func (s *Session) Start() {
	// Copy the handlers so the caller cannot change them.
	var handlers = append([]EventHandler(nil), s.handlers...)
	s.started = true

	s.Playback.ListenForEvents(func(event *mpvipc.Event) {
		if event.Error != "" {
			s.OnAsyncError(errors.New(event.Error))
		}

		if mpvEvent(event.ID) == allEvent {
			s.handleNamedEvent(event.Name, handlers)
			return
		}

		before := s.PlayState.State()
		finished := s.PlayState.apply(mpvEvent(event.ID), event.Data)

		if mpvEvent(event.ID) == pauseEvent {
			pause := !s.PlayState.IsPlaying()
			for _, h := range handlers {
				h.OnPauseUpdate(pause)
			}
		}

		if mpvEvent(event.ID) == audioDeviceEvent {
			log.Info().Interface("device", event.Data).Msg("Audio device changed")
		}

		if after := s.PlayState.State(); after != before {
			for _, h := range handlers {
				h.OnPlaybackState(after)
			}
		}

		if finished {
			for _, h := range handlers {
				h.OnSongFinish()
			}
		}
	})
}

func (s *Session) handleNamedEvent(name string, handlers []EventHandler) {
	switch name {
	case "start-file":
		before := s.PlayState.State()
		s.PlayState.reset()

		if after := s.PlayState.State(); after != before {
			for _, h := range handlers {
				h.OnPlaybackState(after)
			}
		}

	case "end-file":
		log.Debug().Msg("mpv file unloaded")
	}
}

// Stop stops the mpv session. A stopped session cannot be reused.
func (s *Session) Stop() {
	s.Playback.Close()

	if err := s.Command.Process.Signal(os.Interrupt); err != nil {
		log.Warn().Err(err).Msg("Attempted to send SIGINT failed, killing anyway")

		if err = s.Command.Process.Kill(); err != nil {
			log.Error().Err(err).Msg("Failed to kill mpv")
		}
	} else {
		// Wait for mpv to finish up.
		s.Command.Wait()
	}

	if err := os.Remove(s.socketPath); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Msg("Failed to clean up socket")
	}
}
