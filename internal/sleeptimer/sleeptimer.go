// Package sleeptimer pauses playback after a set number of minutes or when
// the current song ends.
package sleeptimer

import (
	"math"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// EndOfSong is the Start argument that pauses playback when the current song
// ends instead of after a fixed duration.
const EndOfSong = -1

const (
	MinMinutes     = 5
	MaxMinutes     = 120
	StepMinutes    = 5
	DefaultMinutes = 30
)

// ErrInvalidDuration is returned by Start for durations outside of
// [MinMinutes, MaxMinutes] that aren't EndOfSong.
var ErrInvalidDuration = errors.New("sleep timer duration out of range")

// Pauser is the part of the player the timer needs.
type Pauser interface {
	SetPlay(playing bool) error
}

// Clock abstracts time so the timer can be driven by tests.
type Clock interface {
	Now() time.Time
	// AfterFunc calls f after d in its own goroutine. The returned function
	// cancels the call.
	AfterFunc(d time.Duration, f func()) (stop func() bool)
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) AfterFunc(d time.Duration, f func()) func() bool {
	return time.AfterFunc(d, f).Stop
}

// Timer is the sleep timer. It is safe for concurrent use.
type Timer struct {
	mu     sync.Mutex
	player Pauser
	clock  Clock

	triggerTime      time.Time
	pauseWhenSongEnd bool
	stop             func() bool
	generation       uint64

	listeners []func()
}

// New creates an inactive sleep timer that pauses p.
func New(p Pauser) *Timer {
	return NewWithClock(p, realClock{})
}

// NewWithClock creates an inactive sleep timer running on the given clock.
func NewWithClock(p Pauser, clock Clock) *Timer {
	return &Timer{
		player: p,
		clock:  clock,
	}
}

// OnChange adds a callback that is called after the timer starts or clears.
func (t *Timer) OnChange(fn func()) {
	t.mu.Lock()
	t.listeners = append(t.listeners, fn)
	t.mu.Unlock()
}

func (t *Timer) notify() {
	t.mu.Lock()
	listeners := t.listeners
	t.mu.Unlock()

	for _, fn := range listeners {
		fn()
	}
}

// Start starts the timer, replacing any running one. minutes is either within
// [MinMinutes, MaxMinutes] or EndOfSong.
func (t *Timer) Start(minutes int) error {
	if minutes != EndOfSong && (minutes < MinMinutes || minutes > MaxMinutes) {
		return ErrInvalidDuration
	}

	t.mu.Lock()
	t.reset()

	if minutes == EndOfSong {
		t.pauseWhenSongEnd = true
	} else {
		d := time.Duration(minutes) * time.Minute
		gen := t.generation
		t.triggerTime = t.clock.Now().Add(d)
		t.stop = t.clock.AfterFunc(d, func() { t.fire(gen) })
	}
	t.mu.Unlock()

	log.Debug().Int("minutes", minutes).Msg("Sleep timer started")

	t.notify()
	return nil
}

// Clear cancels the timer. It does nothing if the timer isn't active.
func (t *Timer) Clear() {
	t.mu.Lock()
	if !t.isActive() {
		t.mu.Unlock()
		return
	}
	t.reset()
	t.mu.Unlock()

	log.Debug().Msg("Sleep timer cleared")

	t.notify()
}

// reset must be called with the lock held.
func (t *Timer) reset() {
	if t.stop != nil {
		t.stop()
		t.stop = nil
	}

	t.generation++
	t.triggerTime = time.Time{}
	t.pauseWhenSongEnd = false
}

func (t *Timer) isActive() bool {
	return t.pauseWhenSongEnd || !t.triggerTime.IsZero()
}

// IsActive returns true if the timer is counting down or waiting for the end
// of the song.
func (t *Timer) IsActive() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.isActive()
}

// TriggerTime returns when the timer fires. It is zero when the timer is
// inactive or in EndOfSong mode.
func (t *Timer) TriggerTime() time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.triggerTime
}

// PauseWhenSongEnd returns true if the timer is in EndOfSong mode.
func (t *Timer) PauseWhenSongEnd() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.pauseWhenSongEnd
}

// OnSongTransition must be called when the current song finishes. In EndOfSong
// mode, it pauses the player and clears the timer.
func (t *Timer) OnSongTransition() {
	t.mu.Lock()
	if !t.pauseWhenSongEnd {
		t.mu.Unlock()
		return
	}
	t.reset()
	t.mu.Unlock()

	t.pause()
	t.notify()
}

func (t *Timer) fire(gen uint64) {
	t.mu.Lock()
	if gen != t.generation || t.triggerTime.IsZero() {
		t.mu.Unlock()
		return
	}
	t.reset()
	t.mu.Unlock()

	t.pause()
	t.notify()
}

func (t *Timer) pause() {
	log.Info().Msg("Sleep timer fired, pausing")

	if err := t.player.SetPlay(false); err != nil {
		log.Error().Err(err).Msg("Sleep timer failed to pause")
	}
}

// SnapMinutes rounds a slider value to the nearest valid step.
func SnapMinutes(v float64) int {
	steps := math.Round((v - MinMinutes) / StepMinutes)
	m := MinMinutes + int(steps)*StepMinutes

	if m < MinMinutes {
		return MinMinutes
	}
	if m > MaxMinutes {
		return MaxMinutes
	}
	return m
}
