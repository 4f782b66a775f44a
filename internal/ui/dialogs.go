package ui

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/diamondburned/nowplaying/internal/muse/playlist"
	"github.com/diamondburned/nowplaying/internal/sheet"
	"github.com/diamondburned/nowplaying/internal/sleeptimer"
	"github.com/gdamore/tcell/v2"
	"github.com/pkg/errors"
	"github.com/rivo/tview"
	"github.com/rs/zerolog/log"
)

const (
	pageSheet     = "sheet"
	pageSleep     = "sleep"
	pagePlaylists = "playlists"
	pageMessage   = "message"
)

func (a *App) closeDialog(name string) {
	a.pages.RemovePage(name)
	a.app.SetFocus(a.view)
}

func (a *App) showMessage(title, text string) {
	modal := tview.NewModal().
		SetText(title + "\n\n" + text).
		AddButtons([]string{"OK"}).
		SetDoneFunc(func(int, string) { a.closeDialog(pageMessage) })

	a.pages.AddPage(pageMessage, modal, true, true)
	a.app.SetFocus(modal)
}

// showSleepTimer shows the sleep timer dialog. The duration moves in steps
// between the timer's bounds; "End of song" arms the timer for the current
// song instead.
func (a *App) showSleepTimer() {
	minutes := a.settings.SleepTimerDefault()

	text := func() string {
		return fmt.Sprintf("Sleep timer\n\n%d minutes", minutes)
	}

	modal := tview.NewModal().SetText(text())
	modal.AddButtons([]string{"−", "+", "Start", "End of song", "Cancel"})
	modal.SetDoneFunc(func(_ int, label string) {
		switch label {
		case "−":
			minutes = sleeptimer.SnapMinutes(float64(minutes - sleeptimer.StepMinutes))
			modal.SetText(text())
			return
		case "+":
			minutes = sleeptimer.SnapMinutes(float64(minutes + sleeptimer.StepMinutes))
			modal.SetText(text())
			return
		case "Start":
			a.startSleepTimer(minutes)
			a.settings.SetSleepTimerDefault(minutes)
			a.saveSettings()
		case "End of song":
			a.startSleepTimer(sleeptimer.EndOfSong)
		}

		a.closeDialog(pageSleep)
	})

	a.pages.AddPage(pageSleep, modal, true, true)
	a.app.SetFocus(modal)
}

func (a *App) startSleepTimer(minutes int) {
	if err := a.sheet.StartSleepTimer(minutes); err != nil {
		log.Error().Err(err).Int("minutes", minutes).Msg("Failed to start sleep timer")
		a.flash("Failed to start sleep timer")
	}
}

// showPlaylists shows the add to playlist picker. The input fuzzily filters
// the playlists; a name that matches nothing can be created.
func (a *App) showPlaylists() {
	if snap := a.sheet.Snapshot(); snap.Track == nil {
		a.flash("Nothing is playing")
		return
	}

	input := tview.NewInputField().SetLabel("Playlist: ")
	list := tview.NewList().ShowSecondaryText(false)

	var refresh func(query string)
	refresh = func(query string) {
		list.Clear()

		for _, name := range a.state.FindPlaylists(query) {
			name := name
			list.AddItem(name, "", 0, func() { a.addToPlaylist(name) })
		}

		if query = strings.TrimSpace(query); query != "" && !a.hasPlaylist(query) {
			list.AddItem(fmt.Sprintf("Create %q", query), "", 0, func() {
				a.createPlaylist(query)
			})
		}
	}

	input.SetChangedFunc(refresh)
	input.SetDoneFunc(func(key tcell.Key) {
		switch key {
		case tcell.KeyEscape:
			a.closeDialog(pagePlaylists)
		case tcell.KeyEnter, tcell.KeyDown, tcell.KeyTab:
			if list.GetItemCount() > 0 {
				a.app.SetFocus(list)
			}
		}
	})

	list.SetDoneFunc(func() { a.closeDialog(pagePlaylists) })
	list.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if event.Key() == tcell.KeyUp && list.GetCurrentItem() == 0 {
			a.app.SetFocus(input)
			return nil
		}
		return event
	})

	refresh("")

	frame := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(input, 1, 0, true).
		AddItem(list, 0, 1, false)
	frame.SetBorder(true).SetTitle(" Add to playlist ")

	a.pages.AddPage(pagePlaylists, centered(frame, 50, 15), true, true)
	a.app.SetFocus(input)
}

func (a *App) hasPlaylist(name string) bool {
	_, ok := a.state.Playlist(name)
	return ok
}

func (a *App) addToPlaylist(name string) {
	a.closeDialog(pagePlaylists)

	switch err := a.sheet.AddToPlaylist(name); {
	case err == nil:
		a.flash("Added to " + name)
	case errors.Is(err, sheet.ErrAlreadyInPlaylist):
		a.showMessage("Already in playlist", fmt.Sprintf("This song is already in %s.", name))
	default:
		log.Error().Err(err).Str("playlist", name).Msg("Failed to add to playlist")
		a.flash("Failed to add to " + name)
	}
}

func (a *App) createPlaylist(name string) {
	pl := &playlist.Playlist{
		Name: name,
		Path: filepath.Join(a.playlistDir, playlist.SanitizeFilename(name)+".m3u"),
	}

	if !a.state.AddPlaylist(pl) {
		a.flash("Playlist " + name + " already exists")
		return
	}

	a.addToPlaylist(name)
}

// centered wraps p so that it's drawn in the middle of the screen.
func centered(p tview.Primitive, width, height int) tview.Primitive {
	return tview.NewFlex().
		AddItem(nil, 0, 1, false).
		AddItem(tview.NewFlex().SetDirection(tview.FlexRow).
			AddItem(nil, 0, 1, false).
			AddItem(p, height, 1, true).
			AddItem(nil, 0, 1, false), width, 1, true).
		AddItem(nil, 0, 1, false)
}
