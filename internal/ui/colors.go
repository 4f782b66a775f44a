package ui

import (
	"github.com/gdamore/tcell/v2"
	"github.com/lucasb-eyer/go-colorful"
)

func toTcell(c colorful.Color) tcell.Color {
	r, g, b := c.Clamped().RGB255()
	return tcell.NewRGBColor(int32(r), int32(g), int32(b))
}

// rowColor returns the background colour of row y out of height rows. With
// fewer than two stops, flat is used.
func rowColor(stops []colorful.Color, flat colorful.Color, y, height int) colorful.Color {
	if len(stops) < 2 {
		return flat
	}
	if height <= 1 {
		return stops[0]
	}

	t := float64(y) / float64(height-1)
	return stops[0].BlendLab(stops[len(stops)-1], t).Clamped()
}
