package sheet

import (
	"context"
	"time"
)

// Clock is the time source of the sheet's polling loops.
type Clock interface {
	Now() time.Time
	// Sleep blocks for d or until ctx is done, in which case ctx's error is
	// returned.
	Sleep(ctx context.Context, d time.Duration) error
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
