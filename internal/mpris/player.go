package mpris

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/diamondburned/nowplaying/internal/muse"
	"github.com/diamondburned/nowplaying/internal/muse/playlist"
	"github.com/diamondburned/nowplaying/internal/sheet"
	"github.com/diamondburned/nowplaying/internal/state"
	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/prop"
	"github.com/rs/zerolog/log"
)

// Controller is what MPRIS method calls are forwarded to. The sheet provides
// everything except Quit.
type Controller interface {
	Snapshot() sheet.Snapshot
	TogglePlay()
	SetPlay(playing bool)
	Next()
	Previous()
	Seek(pos time.Duration)
	Quit()
}

type microsecond = int64

func trackID(trackIx int) dbus.ObjectPath {
	if trackIx < 0 {
		return dbus.ObjectPath("/org/mpris/MediaPlayer2/TrackList/NoTrack")
	}
	const trackIDfmt = tracksPath + "/%d"
	return dbus.ObjectPath(fmt.Sprintf(trackIDfmt, trackIx))
}

type player struct {
	c     Controller
	props *prop.Properties
	propQ chan propChange
	stop  chan struct{}
	once  sync.Once

	mu   sync.Mutex
	last sentState
}

// sentState is what was last sent, so unchanged props aren't re-emitted on
// every position sample.
type sentState struct {
	trackID  dbus.ObjectPath
	mediaID  string
	length   microsecond
	status   string
	loop     string
	canNext  bool
	canPrev  bool
	position microsecond
}

type propChange struct {
	n string
	v interface{}
}

func newPlayer(c Controller, props *prop.Properties) *player {
	p := &player{
		c:     c,
		props: props,
		propQ: make(chan propChange, 10),
		stop:  make(chan struct{}),
	}

	go func() {
		for {
			select {
			case <-p.stop:
				return
			case send := <-p.propQ:
				if err := props.Set(playerID, send.n, dbus.MakeVariant(send.v)); err != nil {
					log.Warn().Err(err).Str("prop", send.n).Msg("MPRIS set prop failed")
				}
			}
		}
	}()

	return p
}

// Destroy stops background workers.
func (p *player) Destroy() {
	p.once.Do(func() { close(p.stop) })
}

// sendProp queues the prop to be sent through DBus. It pops off the first item
// of the queue if it's full.
func (p *player) sendProp(n string, v interface{}) {
	prop := propChange{n, v}

	for {
		select {
		case <-p.stop:
			return
		case p.propQ <- prop:
			return
		default:
			log.Debug().Msg("MPRIS prop send buffer overflow")

			// Try and pop the earliest prop out.
			select {
			case <-p.propQ:
			default:
			}
		}
	}
}

var noTrackMetadata = map[string]interface{}{
	"mpris:trackid": trackID(-1),
}

func playbackStatus(snap sheet.Snapshot) string {
	switch {
	case snap.Track == nil || snap.State == muse.StateIdle:
		return "Stopped"
	case snap.Playing && snap.State != muse.StateEnded:
		return "Playing"
	default:
		return "Paused"
	}
}

func loopStatus(mode state.RepeatMode) string {
	switch mode {
	case state.RepeatAll:
		return "Playlist"
	case state.RepeatSingle:
		return "Track"
	default:
		return "None"
	}
}

func metadata(id dbus.ObjectPath, track *playlist.Track, length time.Duration) map[string]interface{} {
	if track == nil {
		return noTrackMetadata
	}

	md := map[string]interface{}{
		"mpris:trackid": id,
		"mpris:length":  trackLength(track, length).Microseconds(),
		"xesam:title":   track.Title,
		"xesam:url":     trackURL(track.URI),
	}

	if len(track.Artists) > 0 {
		artists := make([]string, len(track.Artists))
		for i, artist := range track.Artists {
			artists[i] = artist.Name
		}
		md["xesam:artist"] = artists
	}

	if track.Album != nil {
		md["xesam:album"] = track.Album.Title
	}

	if track.Thumbnail != "" {
		md["mpris:artUrl"] = trackURL(track.Thumbnail)
	}

	return md
}

// trackLength prefers the player's duration, which is only known some time
// after the file starts, over the track's own length.
func trackLength(track *playlist.Track, duration time.Duration) time.Duration {
	if duration == muse.TimeUnset {
		return track.Length
	}
	return duration
}

// trackURL turns local paths into file:// URLs.
func trackURL(uri string) string {
	if strings.Contains(uri, "://") {
		return uri
	}

	abs, err := filepath.Abs(uri)
	if err != nil {
		abs = uri
	}

	return (&url.URL{Scheme: "file", Path: abs}).String()
}

// Update sends the properties that changed since the last update.
func (c *Conn) Update(snap sheet.Snapshot) {
	c.player.update(snap)
}

func (p *player) update(snap sheet.Snapshot) {
	next := sentState{
		trackID:  trackID(snap.QueueIndex),
		status:   playbackStatus(snap),
		loop:     loopStatus(snap.Repeat),
		canNext:  snap.CanSkipNext,
		canPrev:  snap.CanSkipPrevious,
		position: snap.Position.Microseconds(),
	}
	if snap.Track != nil {
		next.mediaID = snap.Track.MediaID()
		next.length = trackLength(snap.Track, snap.Duration).Microseconds()
	} else {
		next.trackID = trackID(-1)
	}

	p.mu.Lock()
	last := p.last
	p.last = next
	p.mu.Unlock()

	if next.trackID != last.trackID || next.mediaID != last.mediaID || next.length != last.length {
		p.sendProp("Metadata", metadata(next.trackID, snap.Track, snap.Duration))
	}
	if next.status != last.status {
		p.sendProp("PlaybackStatus", next.status)
	}
	if next.loop != last.loop {
		p.sendProp("LoopStatus", next.loop)
	}
	if next.canNext != last.canNext {
		p.sendProp("CanGoNext", next.canNext)
	}
	if next.canPrev != last.canPrev {
		p.sendProp("CanGoPrevious", next.canPrev)
	}
	if next.position != last.position {
		p.sendProp("Position", next.position)
	}
}

func (p *player) currentTrackID() dbus.ObjectPath {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.last.trackID
}

// DBus methods.

func (p *player) Next() *dbus.Error {
	p.c.Next()
	return nil
}

func (p *player) Previous() *dbus.Error {
	p.c.Previous()
	return nil
}

func (p *player) Pause() *dbus.Error {
	p.c.SetPlay(false)
	return nil
}

func (p *player) Play() *dbus.Error {
	p.c.SetPlay(true)
	return nil
}

func (p *player) Stop() *dbus.Error {
	return errUnimplemented
}

func (p *player) PlayPause() *dbus.Error {
	p.c.TogglePlay()
	return nil
}

func (p *player) OpenUri(uri string) *dbus.Error {
	return errUnimplemented
}

func (p *player) Seek(us microsecond) *dbus.Error {
	pos := p.c.Snapshot().Position + time.Duration(us)*time.Microsecond
	p.c.Seek(pos)
	return nil
}

func (p *player) SetPosition(id dbus.ObjectPath, us microsecond) *dbus.Error {
	// Seek if our trackID is not stale.
	if p.currentTrackID() == id {
		p.c.Seek(time.Duration(us) * time.Microsecond)
	}
	return nil
}
