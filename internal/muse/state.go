package muse

import (
	"math"
	"sync/atomic"
	"time"
)

// TimeUnset is the duration reported while the current file has no known
// length.
const TimeUnset time.Duration = -1

// PlaybackState is the coarse player state.
type PlaybackState uint8

const (
	StateIdle PlaybackState = iota
	StateBuffering
	StateReady
	StateEnded
)

func (s PlaybackState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateBuffering:
		return "buffering"
	case StateReady:
		return "ready"
	case StateEnded:
		return "ended"
	default:
		return "unknown"
	}
}

const (
	flagIdle uint32 = 1 << iota
	flagBuffering
	flagEOF
	flagPaused
)

// PlayState wraps the current playback state. All fields are accessed
// atomically.
type PlayState struct {
	btr   uint64
	pos   uint64
	dur   uint64
	flags uint32
}

func newPlayState() *PlayState {
	ps := &PlayState{}
	ps.flags = flagIdle | flagPaused
	ps.storeFloat(&ps.dur, -1)
	return ps
}

func (ps *PlayState) storeFloat(addr *uint64, v float64) {
	atomic.StoreUint64(addr, math.Float64bits(v))
}

func (ps *PlayState) loadFloat(addr *uint64) float64 {
	return math.Float64frombits(atomic.LoadUint64(addr))
}

func (ps *PlayState) setFlag(flag uint32, on bool) (changed bool) {
	for {
		old := atomic.LoadUint32(&ps.flags)
		next := old &^ flag
		if on {
			next |= flag
		}
		if atomic.CompareAndSwapUint32(&ps.flags, old, next) {
			return old != next
		}
	}
}

func (ps *PlayState) hasFlag(flag uint32) bool {
	return atomic.LoadUint32(&ps.flags)&flag != 0
}

// apply applies an observed property change. It returns true if the change
// marks the end of the current file.
func (ps *PlayState) apply(ev mpvEvent, data interface{}) (finished bool) {
	switch ev {
	case pauseEvent:
		b, _ := data.(bool)
		ps.setFlag(flagPaused, b)

	case bitrateEvent:
		f, _ := data.(float64)
		ps.storeFloat(&ps.btr, f)

	case timePositionEvent:
		f, _ := data.(float64)
		ps.storeFloat(&ps.pos, f)

	case durationEvent:
		f, ok := data.(float64)
		if !ok {
			f = -1
		}
		ps.storeFloat(&ps.dur, f)

	case idleEvent:
		b, _ := data.(bool)
		ps.setFlag(flagIdle, b)

	case bufferingEvent:
		b, _ := data.(bool)
		ps.setFlag(flagBuffering, b)

	case eofEvent:
		b, _ := data.(bool)
		return ps.setFlag(flagEOF, b) && b
	}

	return false
}

// reset is called when a new file starts loading.
func (ps *PlayState) reset() {
	ps.storeFloat(&ps.pos, 0)
	ps.storeFloat(&ps.dur, -1)
	ps.storeFloat(&ps.btr, 0)
	ps.setFlag(flagEOF, false)
	ps.setFlag(flagIdle, false)
	ps.setFlag(flagBuffering, true)
}

// State derives the playback state from the observed flags.
func (ps *PlayState) State() PlaybackState {
	flags := atomic.LoadUint32(&ps.flags)

	switch {
	case flags&flagEOF != 0:
		return StateEnded
	case flags&flagIdle != 0:
		return StateIdle
	case flags&flagBuffering != 0:
		return StateBuffering
	default:
		return StateReady
	}
}

// IsPlaying returns true if playback is not paused.
func (ps *PlayState) IsPlaying() bool {
	return !ps.hasFlag(flagPaused)
}

// Bitrate reads the bitrate atomically.
func (ps *PlayState) Bitrate() float64 {
	return ps.loadFloat(&ps.btr)
}

// Position reads the playback position atomically.
func (ps *PlayState) Position() time.Duration {
	return secondsToDuration(ps.loadFloat(&ps.pos))
}

// Duration reads the file duration atomically. TimeUnset is returned if mpv
// doesn't know it.
func (ps *PlayState) Duration() time.Duration {
	dur := ps.loadFloat(&ps.dur)
	if dur < 0 {
		return TimeUnset
	}
	return secondsToDuration(dur)
}

func secondsToDuration(secs float64) time.Duration {
	return time.Duration(math.Round(secs * float64(time.Second)))
}
