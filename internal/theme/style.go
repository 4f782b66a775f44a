package theme

import (
	"strings"

	"github.com/pkg/errors"
)

// BackgroundStyle is how the player sheet paints its background.
type BackgroundStyle uint8

const (
	// BackgroundDefault is the flat theme background, or pure black when the
	// user asked for it in a dark theme.
	BackgroundDefault BackgroundStyle = iota
	// BackgroundGradient paints a gradient extracted from the album art.
	BackgroundGradient
)

func (s BackgroundStyle) String() string {
	switch s {
	case BackgroundGradient:
		return "gradient"
	default:
		return "default"
	}
}

// ParseBackgroundStyle parses the output of BackgroundStyle.String.
func ParseBackgroundStyle(s string) (BackgroundStyle, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "default":
		return BackgroundDefault, nil
	case "gradient":
		return BackgroundGradient, nil
	default:
		return BackgroundDefault, errors.Errorf("unknown background style %q", s)
	}
}

// ForcesBlack returns true if the background must be drawn pure black.
func ForcesBlack(dark, pureBlack bool, style BackgroundStyle) bool {
	return dark && pureBlack && style == BackgroundDefault
}
