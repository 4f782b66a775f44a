package sleeptimer

import (
	"sync"
	"testing"
	"time"
)

type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

type fakeTimer struct {
	at      time.Time
	f       func()
	stopped bool
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2021, 3, 29, 22, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) func() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	timer := &fakeTimer{at: c.now.Add(d), f: f}
	c.timers = append(c.timers, timer)

	return func() bool {
		c.mu.Lock()
		defer c.mu.Unlock()
		wasRunning := !timer.stopped
		timer.stopped = true
		return wasRunning
	}
}

// Advance moves the clock forward and runs due timers synchronously.
func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)

	var due []func()
	for _, timer := range c.timers {
		if !timer.stopped && !timer.at.After(c.now) {
			timer.stopped = true
			due = append(due, timer.f)
		}
	}
	c.mu.Unlock()

	for _, f := range due {
		f()
	}
}

type fakePlayer struct {
	pauses int
}

func (p *fakePlayer) SetPlay(playing bool) error {
	if !playing {
		p.pauses++
	}
	return nil
}

func TestStartRange(t *testing.T) {
	timer := NewWithClock(&fakePlayer{}, newFakeClock())

	for _, minutes := range []int{0, 4, 121, -2} {
		if err := timer.Start(minutes); err != ErrInvalidDuration {
			t.Errorf("Start(%d) = %v, expected ErrInvalidDuration", minutes, err)
		}
	}

	if timer.IsActive() {
		t.Error("timer active after invalid starts")
	}

	for _, minutes := range []int{MinMinutes, 30, MaxMinutes, EndOfSong} {
		if err := timer.Start(minutes); err != nil {
			t.Errorf("Start(%d) failed: %v", minutes, err)
		}
	}
}

func TestTriggerTime(t *testing.T) {
	clock := newFakeClock()
	player := &fakePlayer{}
	timer := NewWithClock(player, clock)

	var changes int
	timer.OnChange(func() { changes++ })

	start := clock.Now()
	if err := timer.Start(10); err != nil {
		t.Fatal(err)
	}

	if !timer.IsActive() || timer.PauseWhenSongEnd() {
		t.Fatal("expected an active absolute timer")
	}

	if tt := timer.TriggerTime(); !tt.Equal(start.Add(10 * time.Minute)) {
		t.Errorf("unexpected trigger time %v", tt)
	}

	clock.Advance(9 * time.Minute)
	if player.pauses != 0 {
		t.Fatal("paused too early")
	}

	clock.Advance(time.Minute)
	if player.pauses != 1 {
		t.Errorf("expected 1 pause, got %d", player.pauses)
	}

	if timer.IsActive() {
		t.Error("timer still active after firing")
	}

	if changes != 2 {
		t.Errorf("expected 2 change notifications, got %d", changes)
	}
}

func TestRestartCancelsPrevious(t *testing.T) {
	clock := newFakeClock()
	player := &fakePlayer{}
	timer := NewWithClock(player, clock)

	timer.Start(5)
	timer.Start(20)

	clock.Advance(5 * time.Minute)
	if player.pauses != 0 {
		t.Error("replaced timer still fired")
	}

	timer.Clear()
	clock.Advance(time.Hour)
	if player.pauses != 0 {
		t.Error("cleared timer still fired")
	}
}

func TestEndOfSong(t *testing.T) {
	player := &fakePlayer{}
	timer := NewWithClock(player, newFakeClock())

	timer.OnSongTransition()
	if player.pauses != 0 {
		t.Fatal("inactive timer paused on song transition")
	}

	timer.Start(EndOfSong)
	if !timer.PauseWhenSongEnd() || !timer.TriggerTime().IsZero() {
		t.Fatal("expected end of song mode without a trigger time")
	}

	timer.OnSongTransition()
	if player.pauses != 1 {
		t.Errorf("expected 1 pause, got %d", player.pauses)
	}

	if timer.IsActive() {
		t.Error("timer still active after the song ended")
	}
}

func TestSnapMinutes(t *testing.T) {
	var tests = []struct {
		in  float64
		out int
	}{
		{0, MinMinutes},
		{5, 5},
		{7.4, 5},
		{7.6, 10},
		{30, 30},
		{118, 120},
		{500, MaxMinutes},
	}

	for _, test := range tests {
		if got := SnapMinutes(test.in); got != test.out {
			t.Errorf("SnapMinutes(%v) = %d, expected %d", test.in, got, test.out)
		}
	}
}
