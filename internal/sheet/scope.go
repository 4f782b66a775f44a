package sheet

import (
	"context"
	"sync"
)

// scope runs named effects in background goroutines. Each effect is keyed:
// launching a name with a different key cancels the running effect first,
// while launching it with the same key is a no-op. Closing the scope cancels
// everything.
type scope struct {
	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	effects map[string]*effect
	wg      sync.WaitGroup
}

type effect struct {
	key    interface{}
	cancel context.CancelFunc
}

func newScope() *scope {
	ctx, cancel := context.WithCancel(context.Background())
	return &scope{
		ctx:     ctx,
		cancel:  cancel,
		effects: make(map[string]*effect),
	}
}

// launch starts fn under name if key differs from the running effect's key.
// It returns false if nothing was started. The key must be comparable.
func (s *scope) launch(name string, key interface{}, fn func(ctx context.Context)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ctx.Err() != nil {
		return false
	}

	if old, ok := s.effects[name]; ok {
		if old.key == key {
			return false
		}
		old.cancel()
	}

	ctx, cancel := context.WithCancel(s.ctx)
	s.effects[name] = &effect{key: key, cancel: cancel}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		fn(ctx)
	}()

	return true
}

// close cancels all effects and waits for them to return.
func (s *scope) close() {
	s.mu.Lock()
	s.cancel()
	s.effects = map[string]*effect{}
	s.mu.Unlock()

	s.wg.Wait()
}

// closed returns true once close has been called.
func (s *scope) closed() bool {
	return s.ctx.Err() != nil
}
