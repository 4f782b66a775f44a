package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/diamondburned/nowplaying/internal/config"
	"github.com/diamondburned/nowplaying/internal/download"
	"github.com/diamondburned/nowplaying/internal/mpris"
	"github.com/diamondburned/nowplaying/internal/muse"
	"github.com/diamondburned/nowplaying/internal/muse/playlist"
	"github.com/diamondburned/nowplaying/internal/sheet"
	"github.com/diamondburned/nowplaying/internal/sleeptimer"
	"github.com/diamondburned/nowplaying/internal/state"
	"github.com/diamondburned/nowplaying/internal/ui"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	_ "github.com/diamondburned/nowplaying/internal/muse/playlist/m3u"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	logFile := setupLogger(cfg)
	if logFile != nil {
		defer logFile.Close()
	}

	s, err := muse.NewSession(muse.Options{
		SocketDir: cfg.MpvSocketDir,
		Scripts:   cfg.MpvScripts,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create mpv session")
	}

	st, err := state.ReadFromFile(cfg.DataDir)
	if err != nil {
		if !os.IsNotExist(errors.Cause(err)) {
			log.Warn().Err(err).Msg("Failed to restore state, starting fresh")
		}
		st = state.NewState(cfg.DataDir)
	}

	queued := queueArgs(st, os.Args[1:])

	st.OnUpdate(func(st *state.State) { st.SaveState() })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	downloads := download.NewService()
	worker := download.NewWorker(downloads, cfg.DownloadDir, cfg.Settings.MaxParallelDownloads())
	if err := worker.Scan(); err != nil {
		log.Warn().Err(err).Msg("Failed to scan downloads")
	}
	downloads.SetIntentCallback(worker.Handle)
	go worker.Run(ctx)

	timer := sleeptimer.New(s)

	var app *ui.App

	sh := sheet.New(sheet.Options{
		Player:      s,
		State:       st,
		SleepTimer:  timer,
		Downloads:   downloads,
		Navigate:    func(route string) { app.Navigate(route) },
		Preferences: ui.Preferences(cfg.Settings),
	})
	defer sh.Close()

	downloads.SetUpdateCallback(func(mediaID string, state download.State) {
		log.Debug().Str("media", mediaID).Stringer("state", state).Msg("Download state changed")
		sh.Refresh()
	})

	app = ui.New(ui.Options{
		Sheet:       sh,
		State:       st,
		Settings:    cfg.Settings,
		PlaylistDir: filepath.Join(cfg.DataDir, "playlists"),
	})

	listeners := []func(sheet.Snapshot){app.Update}

	if cfg.MPRIS {
		conn, err := mpris.New(controller{sh, app})
		if err != nil {
			log.Warn().Err(err).Msg("Failed to export MPRIS, continuing without it")
		} else {
			defer conn.Close()
			listeners = append(listeners, conn.Update)
		}
	}

	sh.SetOnChange(func(snap sheet.Snapshot) {
		for _, fn := range listeners {
			fn(snap)
		}
	})

	s.AddHandler(sh)
	s.Start()
	defer s.Stop()

	// Resume where we left off, paused.
	if _, track := st.NowPlaying(); track != nil {
		if err := s.PlayTrack(track.URI); err != nil {
			log.Error().Err(err).Msg("Failed to load track")
		} else if !queued {
			if err := s.SetPlay(false); err != nil {
				log.Error().Err(err).Msg("Failed to pause restored track")
			}
		}
	}

	if err := app.Run(); err != nil {
		log.Error().Err(err).Msg("UI failed")
	}

	if err := st.SaveAll(); err != nil {
		log.Error().Err(err).Msg("Failed to save state")
	}
}

// controller adds quitting to the sheet for MPRIS.
type controller struct {
	*sheet.Sheet
	app *ui.App
}

func (c controller) Quit() { c.app.Quit() }

func setupLogger(cfg *config.Config) *os.File {
	zerolog.SetGlobalLevel(cfg.LogLevel)

	if err := os.MkdirAll(filepath.Dir(cfg.LogFile), os.ModePerm); err != nil {
		log.Logger = zerolog.Nop()
		return nil
	}

	// The terminal belongs to the UI, so logs go to a file.
	f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		log.Logger = zerolog.Nop()
		return nil
	}

	log.Logger = zerolog.New(f).With().Timestamp().Logger()
	return f
}

// automixFlag separates the queue from the automix candidates on the command
// line.
const automixFlag = "--automix"

// queueArgs replaces the queue with the files, URLs and playlists given before
// automixFlag, and the automix candidates with the ones given after it. It
// returns true if the queue was replaced.
func queueArgs(st *state.State, args []string) (queued bool) {
	queue, automix := args, []string(nil)
	for i, arg := range args {
		if arg == automixFlag {
			queue, automix = args[:i], args[i+1:]
			break
		}
	}

	if len(automix) > 0 {
		st.SetAutomix(resolveArgs(st, automix))
	}

	if len(queue) > 0 {
		st.SetQueue(resolveArgs(st, queue), 0)
		return true
	}

	return false
}

// resolveArgs turns arguments into probed tracks. Playlist files are expanded
// and added to the known playlists.
func resolveArgs(st *state.State, args []string) []playlist.Track {
	var tracks []playlist.Track

	for _, arg := range args {
		if isPlaylist(arg) {
			pl, err := playlist.ParseFile(arg)
			if err != nil {
				log.Error().Err(err).Str("path", arg).Msg("Failed to read playlist")
				continue
			}

			st.AddPlaylist(pl)
			tracks = append(tracks, pl.Tracks...)
			continue
		}

		if strings.Contains(arg, "://") {
			tracks = append(tracks, playlist.Track{Title: arg, URI: arg})
			continue
		}

		if abs, err := filepath.Abs(arg); err == nil {
			arg = abs
		}
		tracks = append(tracks, playlist.NewLocalTrack(arg))
	}

	var mu sync.Mutex
	playlist.BatchProbe(tracks, func(i int, t playlist.Track, err error) {
		if err != nil {
			log.Debug().Err(err).Str("uri", t.URI).Msg("Failed to probe track")
			return
		}

		mu.Lock()
		tracks[i] = t
		mu.Unlock()
	})

	return tracks
}

func isPlaylist(path string) bool {
	ext := filepath.Ext(path)
	for _, supported := range playlist.SupportedExtensions() {
		if ext == supported {
			return true
		}
	}
	return false
}
