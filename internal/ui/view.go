package ui

import (
	"strings"
	"sync"
	"time"

	"github.com/diamondburned/nowplaying/internal/download"
	"github.com/diamondburned/nowplaying/internal/durafmt"
	"github.com/diamondburned/nowplaying/internal/muse"
	"github.com/diamondburned/nowplaying/internal/sheet"
	"github.com/diamondburned/nowplaying/internal/state"
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"github.com/rivo/uniseg"
)

const helpText = "space play  n/p skip  ←/→ seek  enter release  s sleep  c clear  a playlist  d download  r repeat  t theme  b background  q quit"

// sheetView draws a snapshot of the player sheet.
type sheetView struct {
	*tview.Box

	mu      sync.Mutex
	snap    sheet.Snapshot
	flash   string
	flashAt time.Time
}

func newSheetView() *sheetView {
	return &sheetView{Box: tview.NewBox()}
}

func (v *sheetView) setSnapshot(snap sheet.Snapshot) {
	v.mu.Lock()
	v.snap = snap
	v.mu.Unlock()
}

func (v *sheetView) setFlash(msg string) {
	v.mu.Lock()
	v.flash = msg
	v.flashAt = time.Now()
	v.mu.Unlock()
}

const flashDuration = 4 * time.Second

// line is a row of the sheet. Any of the three parts may be empty.
type line struct {
	left, center, right string
	attrs               tcell.AttrMask
	// accent draws the center part in the accent colour up to accentLen
	// cells.
	accentLen int
}

func (v *sheetView) Draw(screen tcell.Screen) {
	v.Box.DrawForSubclass(screen, v)
	x, y, width, height := v.GetInnerRect()
	if width <= 0 || height <= 0 {
		return
	}

	v.mu.Lock()
	snap := v.snap
	flash := v.flash
	if time.Since(v.flashAt) > flashDuration {
		flash = ""
	}
	v.mu.Unlock()

	fg := toTcell(snap.Foreground)
	accent := toTcell(snap.Palette.Primary)
	if snap.OverrideColor {
		accent = fg
	}

	rowStyle := func(row int) tcell.Style {
		bg := toTcell(rowColor(snap.Gradient, snap.Background(), row, height))
		return tcell.StyleDefault.Background(bg).Foreground(fg)
	}

	for row := 0; row < height; row++ {
		style := rowStyle(row)
		for col := 0; col < width; col++ {
			screen.SetContent(x+col, y+row, ' ', nil, style)
		}
	}

	const padding = 2
	inner := width - 2*padding
	if inner <= 0 {
		return
	}

	lines := sheetLines(snap, inner, flash)
	top := (height - len(lines) - 1) / 2
	if top < 0 {
		top = 0
	}

	for i, l := range lines {
		row := top + i
		if row >= height-1 {
			break
		}

		style := rowStyle(row).Attributes(l.attrs)
		drawText(screen, l.left, x+padding, y+row, inner, tview.AlignLeft, style)
		drawText(screen, l.right, x+padding, y+row, inner, tview.AlignRight, style)

		if l.accentLen > 0 {
			accented, rest := splitCells(l.center, l.accentLen)
			start := x + padding + (inner-uniseg.StringWidth(l.center))/2
			drawText(screen, accented, start, y+row, inner, tview.AlignLeft, style.Foreground(accent))
			drawText(screen, rest, start+l.accentLen, y+row, inner, tview.AlignLeft, style)
		} else {
			drawText(screen, l.center, x+padding, y+row, inner, tview.AlignCenter, style)
		}
	}

	drawText(screen, helpText, x+padding, y+height-1, inner, tview.AlignCenter, rowStyle(height-1).Dim(true))
}

func sheetLines(snap sheet.Snapshot, width int, flash string) []line {
	if snap.Track == nil {
		return []line{
			{center: "Nothing is playing", attrs: tcell.AttrBold},
			{},
			{center: flash},
		}
	}

	elapsed, remaining := sliderBar(snap.Position, snap.SliderMax(), width)

	lines := []line{
		{center: snap.Track.Title, attrs: tcell.AttrBold},
		{center: snap.Track.ArtistNames()},
	}

	if snap.Track.Album != nil && snap.Track.Album.Title != "" {
		lines = append(lines, line{center: snap.Track.Album.Title, attrs: tcell.AttrDim})
	}

	lines = append(lines,
		line{},
		line{center: elapsed + remaining, accentLen: uniseg.StringWidth(elapsed)},
		line{left: durafmt.Format(snap.Position), right: durafmt.Format(snap.Duration)},
		line{},
		line{center: controls(snap), attrs: tcell.AttrBold},
		line{},
		line{center: status(snap)},
		line{center: flash, attrs: tcell.AttrItalic},
	)

	return lines
}

// sliderBar renders the position slider as the elapsed and remaining parts.
func sliderBar(pos, max time.Duration, width int) (elapsed, remaining string) {
	if width < 1 {
		return "", ""
	}

	if max <= 0 {
		return "", strings.Repeat("─", width)
	}

	if pos < 0 {
		pos = 0
	}
	if pos > max {
		pos = max
	}

	filled := int(float64(width-1) * float64(pos) / float64(max))
	return strings.Repeat("━", filled) + "●", strings.Repeat("─", width-filled-1)
}

func controls(snap sheet.Snapshot) string {
	prev, next := "⏮", "⏭"
	if !snap.CanSkipPrevious {
		prev = " "
	}
	if !snap.CanSkipNext {
		next = " "
	}

	play := "▶"
	switch {
	case snap.State == muse.StateEnded:
		play = "↻"
	case snap.State == muse.StateBuffering:
		play = "…"
	case snap.Playing:
		play = "⏸"
	}

	return prev + "   " + play + "   " + next
}

func status(snap sheet.Snapshot) string {
	var parts []string

	switch snap.Repeat {
	case state.RepeatAll:
		parts = append(parts, "repeat all")
	case state.RepeatSingle:
		parts = append(parts, "repeat one")
	}

	switch snap.Download {
	case download.StateQueued:
		parts = append(parts, "download queued")
	case download.StateDownloading:
		parts = append(parts, "downloading")
	case download.StateCompleted:
		parts = append(parts, "downloaded")
	case download.StateFailed:
		parts = append(parts, "download failed")
	}

	if label := sleepLabel(snap); label != "" {
		parts = append(parts, label)
	}

	return strings.Join(parts, " · ")
}

func sleepLabel(snap sheet.Snapshot) string {
	if !snap.SleepTimerActive {
		return ""
	}

	if snap.SleepTimerRemaining == muse.TimeUnset {
		return "sleep at end of song"
	}

	remaining := snap.SleepTimerRemaining
	if remaining < 0 {
		remaining = 0
	}

	return "sleep in " + durafmt.Format(remaining.Round(time.Second))
}

// drawText draws s within maxWidth cells starting at x. Text that doesn't fit
// is truncated with an ellipsis.
func drawText(screen tcell.Screen, s string, x, y, maxWidth, align int, style tcell.Style) {
	if s == "" || maxWidth <= 0 {
		return
	}

	w := uniseg.StringWidth(s)
	if w > maxWidth {
		s, _ = splitCells(s, maxWidth-1)
		s += "…"
		w = uniseg.StringWidth(s)
	}

	switch align {
	case tview.AlignCenter:
		x += (maxWidth - w) / 2
	case tview.AlignRight:
		x += maxWidth - w
	}

	g := uniseg.NewGraphemes(s)
	for g.Next() {
		runes := g.Runes()
		cw := g.Width()
		if cw == 0 {
			continue
		}

		screen.SetContent(x, y, runes[0], runes[1:], style)
		x += cw
	}
}

// splitCells splits s after at most n cells.
func splitCells(s string, n int) (head, tail string) {
	var width int

	g := uniseg.NewGraphemes(s)
	for g.Next() {
		if width+g.Width() > n {
			from, _ := g.Positions()
			return s[:from], s[from:]
		}
		width += g.Width()
	}

	return s, ""
}
