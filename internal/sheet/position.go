package sheet

import (
	"context"
	"time"

	"github.com/diamondburned/nowplaying/internal/muse"
	"github.com/rs/zerolog/log"
)

// PositionInterval is how often the position is sampled while playing.
const PositionInterval = 100 * time.Millisecond

// relaunchPosition re-keys the sampler on the playback state. The position is
// read once for every state, then polled for as long as the state is Ready.
func (s *Sheet) relaunchPosition(ps muse.PlaybackState) {
	s.scope.launch("position", ps, func(ctx context.Context) {
		s.samplePosition(ctx)

		if ps != muse.StateReady {
			return
		}

		for s.clock.Sleep(ctx, PositionInterval) == nil {
			s.samplePosition(ctx)
		}
	})
}

func (s *Sheet) samplePosition(ctx context.Context) {
	pos := s.player.Position()
	dur := s.player.Duration()

	s.mu.Lock()
	if ctx.Err() != nil {
		s.mu.Unlock()
		return
	}
	s.position = pos
	s.duration = dur
	s.mu.Unlock()

	s.notify()
}

// Drag moves the slider to pos without seeking. The displayed position stays
// at pos until Release.
func (s *Sheet) Drag(pos time.Duration) {
	s.mu.Lock()
	s.dragging = true
	s.dragPos = clampPosition(pos, s.duration)
	s.mu.Unlock()

	s.notify()
}

// DragBy moves the slider relative to its current value.
func (s *Sheet) DragBy(delta time.Duration) {
	s.mu.Lock()
	pos := s.position
	if s.dragging {
		pos = s.dragPos
	}
	s.mu.Unlock()

	s.Drag(pos + delta)
}

// Release ends a drag by seeking to the dragged position. It does nothing if
// the slider isn't being dragged.
func (s *Sheet) Release() {
	s.mu.Lock()
	if !s.dragging {
		s.mu.Unlock()
		return
	}
	pos := s.dragPos
	s.dragging = false
	s.position = pos
	s.mu.Unlock()

	if err := s.player.Seek(pos); err != nil {
		log.Error().Err(err).Dur("pos", pos).Msg("Failed to seek")
	}

	s.notify()
}

// Seek seeks to pos directly. A drag in progress is cancelled.
func (s *Sheet) Seek(pos time.Duration) {
	s.mu.Lock()
	pos = clampPosition(pos, s.duration)
	s.dragging = false
	s.position = pos
	s.mu.Unlock()

	if err := s.player.Seek(pos); err != nil {
		log.Error().Err(err).Dur("pos", pos).Msg("Failed to seek")
	}

	s.notify()
}

// CancelDrag ends a drag without seeking.
func (s *Sheet) CancelDrag() {
	s.mu.Lock()
	s.dragging = false
	s.mu.Unlock()

	s.notify()
}

func clampPosition(pos, dur time.Duration) time.Duration {
	if pos < 0 {
		return 0
	}
	if dur == muse.TimeUnset {
		return 0
	}
	if pos > dur {
		return dur
	}
	return pos
}
