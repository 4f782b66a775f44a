package sheet

import (
	"time"

	"github.com/diamondburned/nowplaying/internal/download"
	"github.com/diamondburned/nowplaying/internal/muse"
	"github.com/diamondburned/nowplaying/internal/muse/playlist"
	"github.com/diamondburned/nowplaying/internal/state"
	"github.com/diamondburned/nowplaying/internal/theme"
	"github.com/lucasb-eyer/go-colorful"
)

// Snapshot is an immutable copy of everything the sheet draws.
type Snapshot struct {
	Track      *playlist.Track
	QueueIndex int

	State   muse.PlaybackState
	Playing bool

	// Position is the slider value: the dragged position while dragging,
	// otherwise the sampled one.
	Position time.Duration
	Duration time.Duration
	Dragging bool

	CanSkipNext     bool
	CanSkipPrevious bool
	Repeat          state.RepeatMode

	SleepTimerActive bool
	// SleepTimerEndOfSong is true if the timer pauses at the end of the song.
	SleepTimerEndOfSong bool
	// SleepTimerRemaining is muse.TimeUnset if unknown.
	SleepTimerRemaining time.Duration

	Download download.State

	Preferences Preferences
	Palette     theme.Palette
	// Gradient has either zero or two stops. Zero stops means a flat
	// background.
	Gradient      []colorful.Color
	Foreground    colorful.Color
	OverrideColor bool
}

// SliderMax returns the upper bound of the position slider.
func (snap Snapshot) SliderMax() time.Duration {
	if snap.Duration == muse.TimeUnset {
		return 0
	}
	return snap.Duration
}

// Background returns the flat background colour used when there's no
// gradient.
func (snap Snapshot) Background() colorful.Color {
	return snap.Palette.Background
}

// Snapshot copies the current state of the sheet.
func (s *Sheet) Snapshot() Snapshot {
	i, track := s.state.NowPlaying()

	snap := Snapshot{
		Track:           track,
		QueueIndex:      i,
		Playing:         s.player.IsPlaying(),
		CanSkipNext:     s.state.CanSkipNext(),
		CanSkipPrevious: s.state.CanSkipPrevious(),
		Repeat:          s.state.RepeatMode(),
	}

	if s.timer != nil && s.timer.IsActive() {
		snap.SleepTimerActive = true
		snap.SleepTimerEndOfSong = s.timer.PauseWhenSongEnd()
	}

	if s.downloads != nil && track != nil {
		snap.Download = s.downloads.Lookup(track.MediaID())
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snap.State = s.playState
	snap.Position = s.position
	snap.Duration = s.duration
	snap.Dragging = s.dragging
	if s.dragging {
		snap.Position = s.dragPos
	}

	snap.SleepTimerRemaining = s.remaining
	if !snap.SleepTimerActive {
		snap.SleepTimerRemaining = muse.TimeUnset
	}

	snap.Preferences = s.prefs
	snap.Palette = theme.DefaultPalette(s.prefs.Dark)
	if theme.ForcesBlack(s.prefs.Dark, s.prefs.PureBlack, s.prefs.Background) {
		snap.Palette.Background = theme.Black
	}

	snap.Gradient = append([]colorful.Color(nil), s.gradient...)
	snap.Foreground, snap.OverrideColor = Foreground(snap.Gradient, s.prefs.Background, snap.Palette)

	return snap
}
