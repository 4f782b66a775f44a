package download

import (
	"sync"
	"time"

	"github.com/diamondburned/nowplaying/internal/muse/playlist"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

var (
	ErrAlreadyDownloaded = errors.New("track is already downloaded or queued")
	ErrNotDownloaded     = errors.New("track is not downloaded")
)

// State is the download state of a single track.
type State uint8

const (
	StateNone State = iota
	StateQueued
	StateDownloading
	StateCompleted
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateNone:
		return "none"
	case StateQueued:
		return "queued"
	case StateDownloading:
		return "downloading"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// IsActive returns true if the download is queued or in progress.
func (s State) IsActive() bool {
	return s == StateQueued || s == StateDownloading
}

type IntentKind uint8

const (
	IntentAdd IntentKind = iota
	IntentRemove
)

// Intent is a request sent to the download worker.
type Intent struct {
	ID        uuid.UUID
	Kind      IntentKind
	MediaID   string
	Track     playlist.Track
	CreatedAt time.Time
}

// Service keeps the download state lookup and emits intents.
type Service struct {
	mu       sync.RWMutex
	states   map[string]State
	onIntent func(Intent)
	onUpdate func(mediaID string, state State)
}

var _ Downloader = (*Service)(nil)

// NewService creates a new download service with nothing downloaded.
func NewService() *Service {
	return &Service{
		states: make(map[string]State),
	}
}

// SetIntentCallback sets the function intents are delivered to.
func (s *Service) SetIntentCallback(fn func(Intent)) {
	s.mu.Lock()
	s.onIntent = fn
	s.mu.Unlock()
}

// SetUpdateCallback sets the function called on every state change.
func (s *Service) SetUpdateCallback(fn func(mediaID string, state State)) {
	s.mu.Lock()
	s.onUpdate = fn
	s.mu.Unlock()
}

// Lookup returns the download state of the given media ID.
func (s *Service) Lookup(mediaID string) State {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.states[mediaID]
}

// Add queues the track for download. Tracks that are queued, downloading or
// completed are rejected with ErrAlreadyDownloaded.
func (s *Service) Add(track playlist.Track) (Intent, error) {
	id := track.MediaID()

	s.mu.Lock()
	if state := s.states[id]; state.IsActive() || state == StateCompleted {
		s.mu.Unlock()
		return Intent{}, ErrAlreadyDownloaded
	}
	s.states[id] = StateQueued
	s.mu.Unlock()

	intent := Intent{
		ID:        uuid.New(),
		Kind:      IntentAdd,
		MediaID:   id,
		Track:     track,
		CreatedAt: time.Now(),
	}

	s.notifyUpdate(id, StateQueued)
	s.emit(intent)

	return intent, nil
}

// Remove removes a download. Failed and in-flight downloads can be removed as
// well; the worker is expected to cancel them.
func (s *Service) Remove(mediaID string) (Intent, error) {
	s.mu.Lock()
	if s.states[mediaID] == StateNone {
		s.mu.Unlock()
		return Intent{}, ErrNotDownloaded
	}
	delete(s.states, mediaID)
	s.mu.Unlock()

	intent := Intent{
		ID:        uuid.New(),
		Kind:      IntentRemove,
		MediaID:   mediaID,
		CreatedAt: time.Now(),
	}

	s.notifyUpdate(mediaID, StateNone)
	s.emit(intent)

	return intent, nil
}

// SetState is called by the worker to report progress. Updates for media IDs
// that were removed in the meantime are dropped.
func (s *Service) SetState(mediaID string, state State) {
	s.mu.Lock()
	if _, ok := s.states[mediaID]; !ok {
		s.mu.Unlock()
		return
	}
	s.states[mediaID] = state
	s.mu.Unlock()

	s.notifyUpdate(mediaID, state)
}

// MarkCompleted marks a track as downloaded without going through an intent.
// It is used to restore state from files already on disk.
func (s *Service) MarkCompleted(mediaID string) {
	s.mu.Lock()
	s.states[mediaID] = StateCompleted
	s.mu.Unlock()

	s.notifyUpdate(mediaID, StateCompleted)
}

func (s *Service) emit(intent Intent) {
	s.mu.RLock()
	fn := s.onIntent
	s.mu.RUnlock()

	if fn != nil {
		fn(intent)
	}
}

func (s *Service) notifyUpdate(mediaID string, state State) {
	s.mu.RLock()
	fn := s.onUpdate
	s.mu.RUnlock()

	if fn != nil {
		fn(mediaID, state)
	}
}
