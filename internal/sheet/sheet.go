// Package sheet implements the "now playing" player sheet: it keeps the
// sheet's transient state in sync with the player, the play queue and the
// sleep timer, and publishes immutable snapshots for rendering.
package sheet

import (
	"context"
	"image"
	"sync"
	"time"

	"github.com/diamondburned/nowplaying/internal/download"
	"github.com/diamondburned/nowplaying/internal/muse"
	"github.com/diamondburned/nowplaying/internal/muse/albumart"
	"github.com/diamondburned/nowplaying/internal/muse/playlist"
	"github.com/diamondburned/nowplaying/internal/state"
	"github.com/diamondburned/nowplaying/internal/theme"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

var (
	// ErrNoTrack is returned by actions that need a current track.
	ErrNoTrack = errors.New("nothing is playing")
	// ErrAlreadyInPlaylist is returned by AddToPlaylist if the playlist
	// already has the current track.
	ErrAlreadyInPlaylist = errors.New("already in playlist")
)

// Player is the playback engine the sheet drives. *muse.Session implements
// it.
type Player interface {
	Position() time.Duration
	Duration() time.Duration
	State() muse.PlaybackState
	IsPlaying() bool

	PlayTrack(uri string) error
	Seek(pos time.Duration) error
	SetPlay(playing bool) error
	TogglePlay() error
	StopPlayback() error
	SetLoopFile(loop bool) error
}

var _ Player = (*muse.Session)(nil)

// SleepTimer is the sleep timer the sheet counts down. *sleeptimer.Timer
// implements it.
type SleepTimer interface {
	Start(minutes int) error
	Clear()
	IsActive() bool
	TriggerTime() time.Time
	PauseWhenSongEnd() bool
	OnSongTransition()
	OnChange(fn func())
}

// ThumbnailLoader fetches and decodes a thumbnail.
type ThumbnailLoader func(ctx context.Context, src string) (image.Image, error)

// LoadThumbnail is the default ThumbnailLoader. It goes through albumart.Fetch.
func LoadThumbnail(ctx context.Context, src string) (image.Image, error) {
	f, err := albumart.Fetch(ctx, src)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return theme.Decode(f)
}

// Preferences are the user settings that change how the sheet looks.
type Preferences struct {
	// Dark is the effective theme, after resolving "follow system".
	Dark       bool
	PureBlack  bool
	Background theme.BackgroundStyle
}

// Options configures a new Sheet. Player and State are required.
type Options struct {
	Player     Player
	State      *state.State
	SleepTimer SleepTimer
	Downloads  download.Downloader

	// Navigate is called with routes such as "artist/<id>" or "album/<id>".
	Navigate func(route string)

	Clock         Clock
	LoadThumbnail ThumbnailLoader
	Preferences   Preferences
}

// Sheet is the player sheet. All methods are safe to call from any goroutine.
type Sheet struct {
	player    Player
	state     *state.State
	timer     SleepTimer
	downloads download.Downloader
	navigate  func(string)
	clock     Clock
	loadThumb ThumbnailLoader
	scope     *scope

	mu       sync.Mutex
	onChange func(Snapshot)
	prefs    Preferences

	playState muse.PlaybackState
	position  time.Duration
	duration  time.Duration

	dragging bool
	dragPos  time.Duration

	remaining time.Duration

	gradientKey gradientKey
	gradient    []colorful.Color
}

// New creates a sheet and starts reconciling it against its collaborators.
// Close must be called to stop the background effects.
func New(opts Options) *Sheet {
	if opts.Clock == nil {
		opts.Clock = realClock{}
	}
	if opts.LoadThumbnail == nil {
		opts.LoadThumbnail = LoadThumbnail
	}
	if opts.Navigate == nil {
		opts.Navigate = func(route string) {
			log.Debug().Str("route", route).Msg("No navigator, route dropped")
		}
	}

	s := &Sheet{
		player:    opts.Player,
		state:     opts.State,
		timer:     opts.SleepTimer,
		downloads: opts.Downloads,
		navigate:  opts.Navigate,
		clock:     opts.Clock,
		loadThumb: opts.LoadThumbnail,
		scope:     newScope(),
		prefs:     opts.Preferences,
		playState: opts.Player.State(),
		position:  0,
		duration:  muse.TimeUnset,
		remaining: muse.TimeUnset,
	}

	s.state.OnUpdate(func(*state.State) { s.onQueueUpdate() })
	if s.timer != nil {
		s.timer.OnChange(s.relaunchCountdown)
	}

	s.relaunchPosition(s.playState)
	s.relaunchCountdown()
	s.onQueueUpdate()

	return s
}

// Close stops all background effects. The sheet ignores further events.
func (s *Sheet) Close() {
	s.scope.close()
}

// SetOnChange sets the function called with a new snapshot every time the
// sheet changes. It is called from background goroutines.
func (s *Sheet) SetOnChange(fn func(Snapshot)) {
	s.mu.Lock()
	s.onChange = fn
	s.mu.Unlock()
}

// Refresh publishes a new snapshot, e.g. after a download state change.
func (s *Sheet) Refresh() {
	s.notify()
}

func (s *Sheet) notify() {
	if s.scope.closed() {
		return
	}

	s.mu.Lock()
	fn := s.onChange
	s.mu.Unlock()

	if fn != nil {
		fn(s.Snapshot())
	}
}

// SetPreferences changes the appearance settings.
func (s *Sheet) SetPreferences(prefs Preferences) {
	s.mu.Lock()
	s.prefs = prefs
	s.mu.Unlock()

	s.relaunchGradient()
	s.notify()
}

// Preferences returns the current appearance settings.
func (s *Sheet) Preferences() Preferences {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.prefs
}

func (s *Sheet) onQueueUpdate() {
	if s.scope.closed() {
		return
	}

	s.relaunchGradient()
	s.continueAutomix()
	s.notify()
}

// EventHandler methods, called from the player's event goroutine.

var _ muse.EventHandler = (*Sheet)(nil)

func (s *Sheet) OnPlaybackState(ps muse.PlaybackState) {
	s.mu.Lock()
	s.playState = ps
	s.mu.Unlock()

	s.relaunchPosition(ps)
	s.notify()
}

func (s *Sheet) OnPauseUpdate(pause bool) {
	s.notify()
}

func (s *Sheet) OnSongFinish() {
	if s.scope.closed() {
		return
	}

	if _, track := s.state.AutoNext(); track != nil {
		s.playTrack(track)
	}

	if s.timer != nil {
		s.timer.OnSongTransition()
	}
}

// Actions.

// TogglePlay pauses or resumes playback. An ended track is restarted.
func (s *Sheet) TogglePlay() {
	if s.player.State() == muse.StateEnded {
		if err := s.player.Seek(0); err != nil {
			log.Error().Err(err).Msg("Failed to seek to start")
			return
		}
		if err := s.player.SetPlay(true); err != nil {
			log.Error().Err(err).Msg("Failed to play")
		}
		return
	}

	if err := s.player.TogglePlay(); err != nil {
		log.Error().Err(err).Msg("Failed to toggle playback")
	}
}

// SetPlay pauses or resumes playback.
func (s *Sheet) SetPlay(playing bool) {
	if err := s.player.SetPlay(playing); err != nil {
		log.Error().Err(err).Bool("playing", playing).Msg("Failed to set playback")
	}
}

// Next skips to the next track in the queue, if there is one.
func (s *Sheet) Next() {
	if !s.state.CanSkipNext() {
		return
	}
	if _, track := s.state.Next(); track != nil {
		s.playTrack(track)
	}
}

// Previous goes back to the previous track in the queue, if there is one.
func (s *Sheet) Previous() {
	if !s.state.CanSkipPrevious() {
		return
	}
	if _, track := s.state.Previous(); track != nil {
		s.playTrack(track)
	}
}

// CycleRepeat switches to the next repeat mode.
func (s *Sheet) CycleRepeat() {
	mode := s.state.RepeatMode().Cycle()
	s.state.SetRepeatMode(mode)

	if err := s.player.SetLoopFile(mode == state.RepeatSingle); err != nil {
		log.Error().Err(err).Msg("Failed to set loop mode")
	}

	s.notify()
}

// Dismiss closes the player: the automix queue is dropped, playback stops and
// the queue is cleared.
func (s *Sheet) Dismiss() {
	s.state.ClearAutomix()

	if err := s.player.StopPlayback(); err != nil {
		log.Error().Err(err).Msg("Failed to stop playback")
	}

	s.state.ClearQueue()
}

// AddToPlaylist adds the current track to the named playlist.
// ErrAlreadyInPlaylist is returned if it's already there.
func (s *Sheet) AddToPlaylist(name string) error {
	_, track := s.state.NowPlaying()
	if track == nil {
		return ErrNoTrack
	}

	return s.state.Transaction(func(tx *state.Tx) error {
		if tx.CheckInPlaylist(name, *track) > 0 {
			return ErrAlreadyInPlaylist
		}
		return tx.Insert(name, *track)
	})
}

// ToggleDownload deletes the current track's download if it's complete, or
// requests one otherwise.
func (s *Sheet) ToggleDownload() error {
	if s.downloads == nil {
		return nil
	}

	_, track := s.state.NowPlaying()
	if track == nil {
		return ErrNoTrack
	}

	var err error
	if s.downloads.Lookup(track.MediaID()) == download.StateCompleted {
		_, err = s.downloads.Remove(track.MediaID())
	} else {
		_, err = s.downloads.Add(*track)
		if errors.Is(err, download.ErrAlreadyDownloaded) {
			err = nil
		}
	}

	s.notify()
	return err
}

// StartSleepTimer starts the sleep timer; see sleeptimer.Timer.Start.
func (s *Sheet) StartSleepTimer(minutes int) error {
	if s.timer == nil {
		return nil
	}
	return s.timer.Start(minutes)
}

// ClearSleepTimer cancels the sleep timer.
func (s *Sheet) ClearSleepTimer() {
	if s.timer != nil {
		s.timer.Clear()
	}
}

// NavigateArtist asks to show the given artist of the current track.
func (s *Sheet) NavigateArtist(i int) bool {
	_, track := s.state.NowPlaying()
	if track == nil || i < 0 || i >= len(track.Artists) || track.Artists[i].ID == "" {
		return false
	}

	s.navigate("artist/" + track.Artists[i].ID)
	return true
}

// NavigateAlbum asks to show the album of the current track.
func (s *Sheet) NavigateAlbum() bool {
	_, track := s.state.NowPlaying()
	if track == nil || track.Album == nil || track.Album.ID == "" {
		return false
	}

	s.navigate("album/" + track.Album.ID)
	return true
}

func (s *Sheet) playTrack(track *playlist.Track) {
	if err := s.player.PlayTrack(track.URI); err != nil {
		log.Error().Err(err).Str("uri", track.URI).Msg("Failed to play track")
	}
}
