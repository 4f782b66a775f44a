package sheet

import (
	"context"
	"time"

	"github.com/diamondburned/nowplaying/internal/muse"
)

// CountdownInterval is how often the sleep timer's remaining time is
// recomputed.
const CountdownInterval = time.Second

type timerKey struct {
	active    bool
	endOfSong bool
	trigger   time.Time
}

func (s *Sheet) relaunchCountdown() {
	var key timerKey
	if s.timer != nil && s.timer.IsActive() {
		key = timerKey{
			active:    true,
			endOfSong: s.timer.PauseWhenSongEnd(),
			trigger:   s.timer.TriggerTime(),
		}
	}

	s.scope.launch("countdown", key, func(ctx context.Context) {
		if !key.active {
			s.setRemaining(ctx, muse.TimeUnset)
			return
		}

		for {
			s.setRemaining(ctx, s.remainingFor(key))

			if s.clock.Sleep(ctx, CountdownInterval) != nil {
				return
			}
		}
	})
}

func (s *Sheet) remainingFor(key timerKey) time.Duration {
	if key.endOfSong {
		dur := s.player.Duration()
		if dur == muse.TimeUnset {
			return muse.TimeUnset
		}
		return dur - s.player.Position()
	}

	return key.trigger.Sub(s.clock.Now())
}

func (s *Sheet) setRemaining(ctx context.Context, remaining time.Duration) {
	s.mu.Lock()
	if ctx.Err() != nil {
		s.mu.Unlock()
		return
	}
	s.remaining = remaining
	s.mu.Unlock()

	s.notify()
}
