package ui

import (
	"strings"
	"testing"
	"time"

	"github.com/diamondburned/nowplaying/internal/download"
	"github.com/diamondburned/nowplaying/internal/muse"
	"github.com/diamondburned/nowplaying/internal/muse/playlist"
	"github.com/diamondburned/nowplaying/internal/sheet"
	"github.com/diamondburned/nowplaying/internal/state"
	"github.com/gdamore/tcell/v2"
	"github.com/go-test/deep"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/rivo/tview"
)

func TestSliderBar(t *testing.T) {
	var tests = []struct {
		name      string
		pos, max  time.Duration
		width     int
		elapsed   string
		remaining string
	}{
		{"start", 0, time.Minute, 5, "●", "────"},
		{"half", 30 * time.Second, time.Minute, 5, "━━●", "──"},
		{"end", time.Minute, time.Minute, 5, "━━━━●", ""},
		{"past end", 2 * time.Minute, time.Minute, 5, "━━━━●", ""},
		{"negative", -time.Second, time.Minute, 5, "●", "────"},
		{"no duration", 10 * time.Second, 0, 3, "", "───"},
		{"no width", 0, time.Minute, 0, "", ""},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			elapsed, remaining := sliderBar(test.pos, test.max, test.width)
			if elapsed != test.elapsed || remaining != test.remaining {
				t.Errorf("Expected %q+%q, got %q+%q", test.elapsed, test.remaining, elapsed, remaining)
			}
		})
	}
}

func TestSleepLabel(t *testing.T) {
	var tests = []struct {
		snap  sheet.Snapshot
		label string
	}{
		{sheet.Snapshot{}, ""},
		{sheet.Snapshot{
			SleepTimerActive:    true,
			SleepTimerEndOfSong: true,
			SleepTimerRemaining: muse.TimeUnset,
		}, "sleep at end of song"},
		{sheet.Snapshot{
			SleepTimerActive:    true,
			SleepTimerEndOfSong: true,
			SleepTimerRemaining: 95 * time.Second,
		}, "sleep in 01:35"},
		{sheet.Snapshot{
			SleepTimerActive:    true,
			SleepTimerRemaining: 29*time.Minute + 59*time.Second + 600*time.Millisecond,
		}, "sleep in 30:00"},
		{sheet.Snapshot{
			SleepTimerActive:    true,
			SleepTimerRemaining: -time.Second,
		}, "sleep in 00:00"},
	}

	for _, test := range tests {
		if label := sleepLabel(test.snap); label != test.label {
			t.Errorf("Expected label %q, got %q", test.label, label)
		}
	}
}

func TestStatus(t *testing.T) {
	snap := sheet.Snapshot{
		Repeat:              state.RepeatSingle,
		Download:            download.StateDownloading,
		SleepTimerActive:    true,
		SleepTimerRemaining: 5 * time.Minute,
	}

	if s := status(snap); s != "repeat one · downloading · sleep in 05:00" {
		t.Errorf("Unexpected status %q", s)
	}

	if s := status(sheet.Snapshot{}); s != "" {
		t.Errorf("Expected empty status, got %q", s)
	}
}

func TestControls(t *testing.T) {
	var tests = []struct {
		name string
		snap sheet.Snapshot
		out  string
	}{
		{"paused", sheet.Snapshot{State: muse.StateReady}, "    ▶    "},
		{"playing", sheet.Snapshot{
			State:           muse.StateReady,
			Playing:         true,
			CanSkipNext:     true,
			CanSkipPrevious: true,
		}, "⏮   ⏸   ⏭"},
		{"ended", sheet.Snapshot{State: muse.StateEnded, Playing: true, CanSkipPrevious: true}, "⏮   ↻    "},
		{"buffering", sheet.Snapshot{State: muse.StateBuffering, CanSkipNext: true}, "    …   ⏭"},
	}

	for _, test := range tests {
		if out := controls(test.snap); out != test.out {
			t.Errorf("%s: expected %q, got %q", test.name, test.out, out)
		}
	}
}

func TestSheetLines(t *testing.T) {
	empty := sheetLines(sheet.Snapshot{}, 20, "hi")
	if empty[0].center != "Nothing is playing" || empty[2].center != "hi" {
		t.Errorf("Unexpected empty sheet lines: %#v", empty)
	}

	snap := sheet.Snapshot{
		Track: &playlist.Track{
			Title:   "Aozora Jumping Heart",
			Artists: []playlist.Artist{{Name: "Aqours"}},
			Album:   &playlist.Album{Title: "Aozora Jumping Heart"},
		},
		State:    muse.StateReady,
		Position: 30 * time.Second,
		Duration: time.Minute,
	}

	lines := sheetLines(snap, 21, "")

	var centers []string
	for _, l := range lines {
		centers = append(centers, l.center)
	}

	expect := []string{
		"Aozora Jumping Heart",
		"Aqours",
		"Aozora Jumping Heart",
		"",
		"━━━━━━━━━━●──────────",
		"",
		"",
		"    ▶    ",
		"",
		"",
		"",
	}

	if ineqs := deep.Equal(centers, expect); ineqs != nil {
		t.Error("Unexpected lines:", ineqs)
	}

	if lines[4].accentLen != 11 {
		t.Errorf("Expected 11 accented cells, got %d", lines[4].accentLen)
	}
	if lines[5].left != "00:30" || lines[5].right != "01:00" {
		t.Errorf("Unexpected times %q %q", lines[5].left, lines[5].right)
	}
}

func TestSplitCells(t *testing.T) {
	var tests = []struct {
		in         string
		n          int
		head, tail string
	}{
		{"hello", 3, "hel", "lo"},
		{"hello", 10, "hello", ""},
		{"日本語", 3, "日", "本語"},
		{"日本語", 4, "日本", "語"},
		{"", 2, "", ""},
	}

	for _, test := range tests {
		head, tail := splitCells(test.in, test.n)
		if head != test.head || tail != test.tail {
			t.Errorf("splitCells(%q, %d) = %q, %q; expected %q, %q",
				test.in, test.n, head, tail, test.head, test.tail)
		}
	}
}

func newTestScreen(t *testing.T, width, height int) tcell.Screen {
	t.Helper()

	screen := tcell.NewSimulationScreen("")
	if err := screen.Init(); err != nil {
		t.Fatal("Failed to init screen:", err)
	}
	t.Cleanup(screen.Fini)

	screen.SetSize(width, height)
	return screen
}

func rowText(screen tcell.Screen, y, width int) string {
	var b strings.Builder
	for x := 0; x < width; x++ {
		r, _, _, w := screen.GetContent(x, y)
		if w == 0 {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func TestDrawText(t *testing.T) {
	const width = 10
	screen := newTestScreen(t, width, 3)

	drawText(screen, "Hello", 0, 0, width, tview.AlignCenter, tcell.StyleDefault)
	drawText(screen, "Hello world", 0, 1, 5, tview.AlignLeft, tcell.StyleDefault)
	drawText(screen, "abc", 0, 2, width, tview.AlignRight, tcell.StyleDefault)

	var tests = []struct {
		y    int
		text string
	}{
		{0, "  Hello   "},
		{1, "Hell…     "},
		{2, "       abc"},
	}

	for _, test := range tests {
		if text := rowText(screen, test.y, width); text != test.text {
			t.Errorf("Row %d: expected %q, got %q", test.y, test.text, text)
		}
	}
}

func TestRowColor(t *testing.T) {
	top, _ := colorful.Hex("#ff0000")
	bottom, _ := colorful.Hex("#0000ff")
	flat, _ := colorful.Hex("#121212")

	if c := rowColor(nil, flat, 3, 10); c != flat {
		t.Errorf("Expected flat colour, got %s", c.Hex())
	}

	stops := []colorful.Color{top, bottom}

	if c := rowColor(stops, flat, 0, 10); c.Hex() != top.Hex() {
		t.Errorf("Expected top colour at row 0, got %s", c.Hex())
	}
	if c := rowColor(stops, flat, 9, 10); c.Hex() != bottom.Hex() {
		t.Errorf("Expected bottom colour at the last row, got %s", c.Hex())
	}
	if c := rowColor(stops, flat, 0, 1); c.Hex() != top.Hex() {
		t.Errorf("Expected top colour for a single row, got %s", c.Hex())
	}
}

func TestToTcell(t *testing.T) {
	c, _ := colorful.Hex("#102030")
	if got := toTcell(c); got != tcell.NewRGBColor(0x10, 0x20, 0x30) {
		t.Errorf("Unexpected colour %v", got)
	}
}
