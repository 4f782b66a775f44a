package ui

import (
	"sync"
	"time"

	"github.com/diamondburned/nowplaying/internal/config"
	"github.com/diamondburned/nowplaying/internal/sheet"
	"github.com/diamondburned/nowplaying/internal/state"
	"github.com/diamondburned/nowplaying/internal/theme"
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"github.com/rs/zerolog/log"
)

// dragStep is how far the arrow keys move the slider.
const dragStep = 5 * time.Second

// Options configures the terminal UI. All fields are required.
type Options struct {
	Sheet    *sheet.Sheet
	State    *state.State
	Settings *config.Settings
	// PlaylistDir is where new playlists are created.
	PlaylistDir string
}

// App is the terminal player sheet.
type App struct {
	app   *tview.Application
	pages *tview.Pages
	view  *sheetView

	sheet       *sheet.Sheet
	state       *state.State
	settings    *config.Settings
	playlistDir string

	dirty chan struct{}
	done  chan struct{}
	once  sync.Once
}

// New creates the UI. Snapshots must be passed to Update for it to redraw.
func New(opts Options) *App {
	a := &App{
		app:         tview.NewApplication(),
		pages:       tview.NewPages(),
		view:        newSheetView(),
		sheet:       opts.Sheet,
		state:       opts.State,
		settings:    opts.Settings,
		playlistDir: opts.PlaylistDir,
		dirty:       make(chan struct{}, 1),
		done:        make(chan struct{}),
	}

	a.view.setSnapshot(opts.Sheet.Snapshot())
	a.pages.AddPage(pageSheet, a.view, true, true)

	a.app.SetRoot(a.pages, true)
	a.app.SetFocus(a.view)
	a.app.SetInputCapture(a.handleKey)

	return a
}

// Preferences returns the sheet preferences from the user settings.
func Preferences(s *config.Settings) sheet.Preferences {
	return sheet.Preferences{
		Dark:       s.IsDark(),
		PureBlack:  s.PureBlack(),
		Background: s.PlayerBackground(),
	}
}

// Run runs the UI until Quit is called or the terminal is closed.
func (a *App) Run() error {
	go a.redrawLoop()
	defer a.stop()

	return a.app.Run()
}

// Quit stops the UI. It's safe to call from any goroutine.
func (a *App) Quit() {
	a.stop()
	a.app.Stop()
}

func (a *App) stop() {
	a.once.Do(func() { close(a.done) })
}

// Update hands a new snapshot to the UI. It never blocks, so it can be called
// from the sheet's change callback.
func (a *App) Update(snap sheet.Snapshot) {
	a.view.setSnapshot(snap)
	a.redraw()
}

func (a *App) redraw() {
	select {
	case a.dirty <- struct{}{}:
	default:
	}
}

// redrawLoop coalesces redraws. QueueUpdateDraw blocks until the draw is done,
// so it's never called from the goroutines that publish snapshots.
func (a *App) redrawLoop() {
	for {
		select {
		case <-a.done:
			return
		case <-a.dirty:
			a.app.QueueUpdateDraw(func() {})
		}
	}
}

// Navigate is the sheet's navigator. The terminal has no library pages, so the
// route is only shown.
func (a *App) Navigate(route string) {
	log.Info().Str("route", route).Msg("Navigation requested")
	a.flash("Go to " + route)
}

func (a *App) flash(msg string) {
	a.view.setFlash(msg)
	a.redraw()
	time.AfterFunc(flashDuration+100*time.Millisecond, a.redraw)
}

func (a *App) saveSettings() {
	if err := a.settings.Save(); err != nil {
		log.Error().Err(err).Msg("Failed to save settings")
		a.flash("Failed to save settings")
	}
}

func (a *App) applySettings() {
	a.saveSettings()
	a.sheet.SetPreferences(Preferences(a.settings))
}

func (a *App) handleKey(event *tcell.EventKey) *tcell.EventKey {
	if front, _ := a.pages.GetFrontPage(); front != pageSheet {
		return event
	}

	switch event.Key() {
	case tcell.KeyLeft:
		a.sheet.DragBy(-dragStep)
		return nil
	case tcell.KeyRight:
		a.sheet.DragBy(dragStep)
		return nil
	case tcell.KeyEnter:
		a.sheet.Release()
		return nil
	case tcell.KeyEscape:
		a.sheet.CancelDrag()
		return nil
	case tcell.KeyRune:
	default:
		return event
	}

	switch event.Rune() {
	case ' ':
		a.sheet.TogglePlay()
	case 'n':
		a.sheet.Next()
	case 'p':
		a.sheet.Previous()
	case 'r':
		a.sheet.CycleRepeat()
	case 's':
		a.showSleepTimer()
	case 'c':
		a.sheet.ClearSleepTimer()
		a.flash("Sleep timer cleared")
	case 'a':
		a.showPlaylists()
	case 'd':
		a.toggleDownload()
	case 'g':
		if !a.sheet.NavigateAlbum() {
			a.flash("No album")
		}
	case 'i':
		if !a.sheet.NavigateArtist(0) {
			a.flash("No artist")
		}
	case 't':
		mode := a.settings.CycleDarkMode()
		a.applySettings()
		a.flash("Dark mode: " + string(mode))
	case 'b':
		style := theme.BackgroundGradient
		if a.settings.PlayerBackground() == theme.BackgroundGradient {
			style = theme.BackgroundDefault
		}
		a.settings.SetPlayerBackground(style)
		a.applySettings()
		a.flash("Background: " + style.String())
	case 'k':
		a.settings.SetPureBlack(!a.settings.PureBlack())
		a.applySettings()
	case 'x':
		a.sheet.Dismiss()
	case 'q':
		a.Quit()
	default:
		return event
	}

	return nil
}

func (a *App) toggleDownload() {
	if err := a.sheet.ToggleDownload(); err != nil {
		log.Error().Err(err).Msg("Failed to toggle download")
		a.flash("Download failed: " + err.Error())
	}
}
