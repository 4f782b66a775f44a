package sheet

import (
	"context"
	"strings"

	"github.com/diamondburned/nowplaying/internal/muse/playlist"
	"github.com/diamondburned/nowplaying/internal/theme"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/rs/zerolog/log"
)

type gradientKey struct {
	thumbnail  string
	style      theme.BackgroundStyle
	dark       bool
	forceBlack bool
}

// thumbnailSource returns where the track's artwork comes from. Local files
// without a thumbnail are searched for cover art.
func thumbnailSource(track *playlist.Track) string {
	if track == nil {
		return ""
	}
	if track.Thumbnail != "" {
		return track.Thumbnail
	}
	if track.URI != "" && !strings.Contains(track.URI, "://") {
		return track.URI
	}
	return ""
}

func (s *Sheet) relaunchGradient() {
	_, track := s.state.NowPlaying()

	s.mu.Lock()
	prefs := s.prefs
	s.mu.Unlock()

	key := gradientKey{
		thumbnail:  thumbnailSource(track),
		style:      prefs.Background,
		dark:       prefs.Dark,
		forceBlack: theme.ForcesBlack(prefs.Dark, prefs.PureBlack, prefs.Background),
	}

	s.scope.launch("gradient", key, func(ctx context.Context) {
		s.extractGradient(ctx, key)
	})
}

func (s *Sheet) extractGradient(ctx context.Context, key gradientKey) {
	var initial []colorful.Color
	if key.forceBlack {
		initial = []colorful.Color{theme.Black, theme.Black}
	}

	if !s.setGradient(ctx, key, initial, true) {
		return
	}

	if key.forceBlack || key.style != theme.BackgroundGradient || key.thumbnail == "" {
		return
	}

	img, err := s.loadThumb(ctx, key.thumbnail)
	if err != nil {
		if ctx.Err() == nil {
			log.Debug().Err(err).Str("src", key.thumbnail).Msg("Failed to load thumbnail")
		}
		return
	}

	colors := theme.ExtractGradient(img, key.dark)
	s.setGradient(ctx, key, colors, false)
}

// setGradient publishes colors if key is still the current key. With rekey,
// key becomes the current key instead.
func (s *Sheet) setGradient(ctx context.Context, key gradientKey, colors []colorful.Color, rekey bool) bool {
	s.mu.Lock()
	if ctx.Err() != nil || (!rekey && s.gradientKey != key) {
		s.mu.Unlock()
		return false
	}
	s.gradientKey = key
	s.gradient = colors
	s.mu.Unlock()

	s.notify()
	return true
}
