package theme

import (
	"github.com/lucasb-eyer/go-colorful"
)

var (
	Black = colorful.Color{R: 0, G: 0, B: 0}
	White = colorful.Color{R: 1, G: 1, B: 1}
)

// MustHex parses a #rrggbb colour and panics on failure. It is meant for
// package-level colour tables.
func MustHex(s string) colorful.Color {
	c, err := colorful.Hex(s)
	if err != nil {
		panic(err)
	}
	return c
}

// Luminance returns the relative luminance of c as defined by WCAG 2.
func Luminance(c colorful.Color) float64 {
	r, g, b := c.Clamped().LinearRgb()
	return 0.2126*r + 0.7152*g + 0.0722*b
}

// Contrast returns the WCAG contrast ratio between two colours, from 1 (no
// contrast) to 21 (black on white). The order of the arguments doesn't matter.
func Contrast(a, b colorful.Color) float64 {
	la := Luminance(a) + 0.05
	lb := Luminance(b) + 0.05

	if la < lb {
		la, lb = lb, la
	}

	return la / lb
}

// Palette is the set of theme colours the sheet draws with.
type Palette struct {
	Background   colorful.Color
	Surface      colorful.Color
	OnBackground colorful.Color
	OnSurface    colorful.Color
	Primary      colorful.Color
}

var (
	darkPalette = Palette{
		Background:   MustHex("#1c1b1f"),
		Surface:      MustHex("#211f26"),
		OnBackground: MustHex("#e6e1e5"),
		OnSurface:    MustHex("#ffffff"),
		Primary:      MustHex("#d0bcff"),
	}
	lightPalette = Palette{
		Background:   MustHex("#fffbfe"),
		Surface:      MustHex("#f3edf7"),
		OnBackground: MustHex("#1c1b1f"),
		OnSurface:    MustHex("#000000"),
		Primary:      MustHex("#6750a4"),
	}
)

// DefaultPalette returns the built-in palette for the given theme.
func DefaultPalette(dark bool) Palette {
	if dark {
		return darkPalette
	}
	return lightPalette
}
