package sheet

import (
	"testing"

	"github.com/diamondburned/nowplaying/internal/theme"
	"github.com/lucasb-eyer/go-colorful"
)

func TestForeground(t *testing.T) {
	p := theme.DefaultPalette(true)

	// Both are against the dark palette's light foreground.
	light := theme.MustHex("#f0f0f0")
	dark := theme.MustHex("#101010")

	tests := []struct {
		name     string
		gradient []colorful.Color
		style    theme.BackgroundStyle
		fg       colorful.Color
		override bool
	}{
		{"default style", []colorful.Color{light, dark}, theme.BackgroundDefault, p.OnBackground, false},
		{"first stop low contrast", []colorful.Color{light, dark}, theme.BackgroundGradient, p.OnBackground, true},
		{"last stop low contrast", []colorful.Color{dark, light}, theme.BackgroundGradient, p.OnBackground, true},
		{"both readable", []colorful.Color{dark, dark}, theme.BackgroundGradient, p.OnSurface, false},
		{"both low contrast", []colorful.Color{light, light}, theme.BackgroundGradient, p.OnSurface, false},
		{"no gradient", nil, theme.BackgroundGradient, p.OnSurface, false},
		{"forced black", []colorful.Color{theme.Black, theme.Black}, theme.BackgroundDefault, p.OnBackground, false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			fg, override := Foreground(test.gradient, test.style, p)
			if fg != test.fg || override != test.override {
				t.Errorf("Expected (%s, %v), got (%s, %v)", test.fg.Hex(), test.override, fg.Hex(), override)
			}
		})
	}
}
