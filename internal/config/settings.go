package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/diamondburned/nowplaying/internal/sleeptimer"
	"github.com/diamondburned/nowplaying/internal/theme"
	"github.com/pkg/errors"
)

const settingsFileName = "prefs.json"

// DarkMode is the theme preference.
type DarkMode string

const (
	DarkModeAuto DarkMode = "auto"
	DarkModeOn   DarkMode = "on"
	DarkModeOff  DarkMode = "off"
)

// Default values
const (
	DefaultDarkMode    = DarkModeAuto
	DefaultMaxParallel = 2
	maxParallelLimit   = 10
)

type settingsFile struct {
	DarkMode          DarkMode `json:"dark_mode"`
	PureBlack         bool     `json:"pure_black"`
	PlayerBackground  string   `json:"player_background"`
	SleepTimerDefault int      `json:"sleep_timer_default"`
	MaxParallel       int      `json:"max_parallel_downloads"`
}

// Settings manages the user preferences. Setters clamp their values and write
// the file through Save.
type Settings struct {
	mu   sync.Mutex
	path string
	file settingsFile
	// getenv is swapped out in tests.
	getenv func(string) string
}

// LoadSettings reads the preferences at path. A missing file gives the
// defaults.
func LoadSettings(path string) (*Settings, error) {
	s := &Settings{path: path, getenv: os.Getenv}

	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			s.normalize()
			return s, nil
		}
		return nil, errors.Wrap(err, "failed to read preferences")
	}

	if err := json.Unmarshal(b, &s.file); err != nil {
		return nil, errors.Wrapf(err, "failed to parse %s", path)
	}

	s.normalize()
	return s, nil
}

func (s *Settings) normalize() {
	f := &s.file

	switch f.DarkMode {
	case DarkModeAuto, DarkModeOn, DarkModeOff:
	default:
		f.DarkMode = DefaultDarkMode
	}

	if _, err := theme.ParseBackgroundStyle(f.PlayerBackground); err != nil {
		f.PlayerBackground = theme.BackgroundDefault.String()
	}

	f.SleepTimerDefault = clampSleepTimer(f.SleepTimerDefault)
	f.MaxParallel = clampParallel(f.MaxParallel)
}

func clampSleepTimer(minutes int) int {
	if minutes == 0 {
		return sleeptimer.DefaultMinutes
	}
	return sleeptimer.SnapMinutes(float64(minutes))
}

func clampParallel(n int) int {
	if n <= 0 {
		return DefaultMaxParallel
	}
	if n > maxParallelLimit {
		return maxParallelLimit
	}
	return n
}

// Save writes the preferences file.
func (s *Settings) Save() error {
	s.mu.Lock()
	b, err := json.MarshalIndent(s.file, "", "\t")
	s.mu.Unlock()

	if err != nil {
		return errors.Wrap(err, "failed to marshal preferences")
	}

	if err := os.MkdirAll(filepath.Dir(s.path), os.ModePerm); err != nil {
		return errors.Wrap(err, "failed to make config directory")
	}

	return errors.Wrap(os.WriteFile(s.path, b, 0644), "failed to write preferences")
}

// DarkMode returns the theme preference.
func (s *Settings) DarkMode() DarkMode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.file.DarkMode
}

// SetDarkMode sets the theme preference. Unknown values become auto.
func (s *Settings) SetDarkMode(mode DarkMode) {
	s.mu.Lock()
	s.file.DarkMode = mode
	s.normalize()
	s.mu.Unlock()
}

// CycleDarkMode switches auto → on → off → auto.
func (s *Settings) CycleDarkMode() DarkMode {
	next := map[DarkMode]DarkMode{
		DarkModeAuto: DarkModeOn,
		DarkModeOn:   DarkModeOff,
		DarkModeOff:  DarkModeAuto,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.file.DarkMode = next[s.file.DarkMode]
	return s.file.DarkMode
}

// IsDark resolves the theme preference. In auto mode, the terminal's
// background colour from $COLORFGBG is used if it's set, otherwise the theme
// is dark.
func (s *Settings) IsDark() bool {
	switch s.DarkMode() {
	case DarkModeOn:
		return true
	case DarkModeOff:
		return false
	}

	fgbg := s.getenv("COLORFGBG")
	if fgbg == "" {
		return true
	}

	parts := strings.Split(fgbg, ";")
	bg, err := strconv.Atoi(parts[len(parts)-1])
	if err != nil {
		return true
	}

	// The 16 ANSI colours: 7 and 9-15 are the light ones.
	return !(bg == 7 || (bg >= 9 && bg <= 15))
}

// PureBlack returns whether dark themes draw pure black backgrounds.
func (s *Settings) PureBlack() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.file.PureBlack
}

// SetPureBlack sets the pure black preference.
func (s *Settings) SetPureBlack(pureBlack bool) {
	s.mu.Lock()
	s.file.PureBlack = pureBlack
	s.mu.Unlock()
}

// PlayerBackground returns the player sheet background style.
func (s *Settings) PlayerBackground() theme.BackgroundStyle {
	s.mu.Lock()
	defer s.mu.Unlock()

	style, _ := theme.ParseBackgroundStyle(s.file.PlayerBackground)
	return style
}

// SetPlayerBackground sets the player sheet background style.
func (s *Settings) SetPlayerBackground(style theme.BackgroundStyle) {
	s.mu.Lock()
	s.file.PlayerBackground = style.String()
	s.mu.Unlock()
}

// SleepTimerDefault returns the initial value of the sleep timer dialog.
func (s *Settings) SleepTimerDefault() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.file.SleepTimerDefault
}

// SetSleepTimerDefault sets the initial value of the sleep timer dialog,
// snapped to the dialog's steps.
func (s *Settings) SetSleepTimerDefault(minutes int) {
	s.mu.Lock()
	s.file.SleepTimerDefault = clampSleepTimer(minutes)
	s.mu.Unlock()
}

// MaxParallelDownloads returns the maximum number of parallel downloads.
func (s *Settings) MaxParallelDownloads() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.file.MaxParallel
}

// SetMaxParallelDownloads sets the maximum number of parallel downloads.
func (s *Settings) SetMaxParallelDownloads(n int) {
	if n < 1 {
		n = 1
	}

	s.mu.Lock()
	s.file.MaxParallel = clampParallel(n)
	s.mu.Unlock()
}
