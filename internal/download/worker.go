package download

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// DefaultMaxParallel is the number of downloads a Worker runs at once.
const DefaultMaxParallel = 2

// Worker executes intents: it fetches remote tracks into Dir and deletes them
// again on removal.
type Worker struct {
	Dir    string
	Client *http.Client

	service *Service
	wake    chan struct{}
	slots   chan struct{}

	mu      sync.Mutex
	pending []Intent
	jobs    map[string]*job
	wg      sync.WaitGroup
}

type job struct {
	cancel context.CancelFunc
}

// NewWorker creates a worker that reports progress to s.
func NewWorker(s *Service, dir string, maxParallel int) *Worker {
	if maxParallel < 1 {
		maxParallel = 1
	}

	return &Worker{
		Dir:     dir,
		Client:  &http.Client{Timeout: 10 * time.Minute},
		service: s,
		wake:    make(chan struct{}, 1),
		slots:   make(chan struct{}, maxParallel),
		jobs:    make(map[string]*job),
	}
}

// Handle queues an intent. It never blocks the caller, and intents are run in
// the order they were handled. Intents handled after Run returns are dropped.
func (w *Worker) Handle(intent Intent) {
	w.mu.Lock()
	w.pending = append(w.pending, intent)
	w.mu.Unlock()

	select {
	case w.wake <- struct{}{}:
	default:
	}
}

func (w *Worker) takePending() []Intent {
	w.mu.Lock()
	defer w.mu.Unlock()

	pending := w.pending
	w.pending = nil
	return pending
}

// Path returns where the given media ID is stored.
func (w *Worker) Path(mediaID string) string {
	return filepath.Join(w.Dir, url.PathEscape(mediaID))
}

// Scan marks every file already in Dir as completed.
func (w *Worker) Scan() error {
	entries, err := os.ReadDir(w.Dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errors.Wrap(err, "failed to read download directory")
	}

	for _, entry := range entries {
		if entry.IsDir() || strings.HasSuffix(entry.Name(), ".part") {
			continue
		}

		id, err := url.PathUnescape(entry.Name())
		if err != nil {
			continue
		}

		w.service.MarkCompleted(id)
	}

	return nil
}

// Run processes intents until ctx is cancelled, then waits for in-flight
// downloads to stop.
func (w *Worker) Run(ctx context.Context) {
	defer w.wg.Wait()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.wake:
			for _, intent := range w.takePending() {
				switch intent.Kind {
				case IntentAdd:
					w.start(ctx, intent)
				case IntentRemove:
					w.remove(intent.MediaID)
				}
			}
		}
	}
}

func (w *Worker) start(ctx context.Context, intent Intent) {
	ctx, cancel := context.WithCancel(ctx)
	j := &job{cancel}

	w.mu.Lock()
	if old, ok := w.jobs[intent.MediaID]; ok {
		old.cancel()
	}
	w.jobs[intent.MediaID] = j
	w.mu.Unlock()

	w.wg.Add(1)

	go func() {
		defer w.wg.Done()
		defer w.finish(intent.MediaID, j)

		select {
		case w.slots <- struct{}{}:
			defer func() { <-w.slots }()
		case <-ctx.Done():
			return
		}

		w.service.SetState(intent.MediaID, StateDownloading)

		if err := w.fetch(ctx, intent); err != nil {
			if ctx.Err() == nil {
				log.Error().Err(err).Str("id", intent.MediaID).Msg("Download failed")
				w.service.SetState(intent.MediaID, StateFailed)
			}
			return
		}

		w.service.SetState(intent.MediaID, StateCompleted)
	}()
}

func (w *Worker) finish(mediaID string, j *job) {
	j.cancel()

	w.mu.Lock()
	if w.jobs[mediaID] == j {
		delete(w.jobs, mediaID)
	}
	w.mu.Unlock()
}

func (w *Worker) fetch(ctx context.Context, intent Intent) error {
	uri := intent.Track.URI

	// Local tracks are already where they need to be.
	if !strings.HasPrefix(uri, "http://") && !strings.HasPrefix(uri, "https://") {
		if _, err := os.Stat(uri); err != nil {
			return errors.Wrap(err, "local track is missing")
		}
		return nil
	}

	if err := os.MkdirAll(w.Dir, os.ModePerm); err != nil {
		return errors.Wrap(err, "failed to make download directory")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return errors.Wrap(err, "failed to create request")
	}

	resp, err := w.Client.Do(req)
	if err != nil {
		return errors.Wrap(err, "failed to get track")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return errors.Errorf("unexpected status %s", resp.Status)
	}

	dst := w.Path(intent.MediaID)
	tmp := dst + ".part"

	f, err := os.Create(tmp)
	if err != nil {
		return errors.Wrap(err, "failed to create file")
	}

	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		os.Remove(tmp)
		return errors.Wrap(err, "failed to write track")
	}

	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return errors.Wrap(err, "failed to close file")
	}

	return errors.Wrap(os.Rename(tmp, dst), "failed to move download into place")
}

func (w *Worker) remove(mediaID string) {
	w.mu.Lock()
	if j, ok := w.jobs[mediaID]; ok {
		j.cancel()
	}
	w.mu.Unlock()

	if err := os.Remove(w.Path(mediaID)); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Str("id", mediaID).Msg("Failed to delete download")
	}
}
