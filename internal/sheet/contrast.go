package sheet

import (
	"github.com/diamondburned/nowplaying/internal/theme"
	"github.com/lucasb-eyer/go-colorful"
)

// Contrast thresholds of the first and last gradient stops against the default
// foreground colour.
const (
	FirstStopThreshold = 2.0
	LastStopThreshold  = 2.0
)

// Foreground picks the text colour drawn over the background. override is true
// when the sheet should force its own colour onto the controls instead of the
// theme's surface colours.
func Foreground(gradient []colorful.Color, style theme.BackgroundStyle, p theme.Palette) (fg colorful.Color, override bool) {
	if style == theme.BackgroundDefault {
		return p.OnBackground, false
	}

	first, last := FirstStopThreshold, LastStopThreshold
	if len(gradient) >= 2 {
		first = theme.Contrast(gradient[0], p.OnBackground)
		last = theme.Contrast(gradient[len(gradient)-1], p.OnBackground)
	}

	// Only one end of the gradient is too close to the default colour.
	if (first < FirstStopThreshold && last > LastStopThreshold) ||
		(first > FirstStopThreshold && last < LastStopThreshold) {
		return p.OnBackground, true
	}

	return p.OnSurface, false
}
