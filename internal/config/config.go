// Package config loads the program's configuration: paths and logging from
// the environment (optionally through a .env file), and the user preferences
// from a JSON file in the config directory.
package config

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const appName = "nowplaying"

// Environment variables.
const (
	EnvDataDir     = "NOWPLAYING_DATA_DIR"
	EnvCacheDir    = "NOWPLAYING_CACHE_DIR"
	EnvConfigDir   = "NOWPLAYING_CONFIG_DIR"
	EnvDownloadDir = "NOWPLAYING_DOWNLOAD_DIR"
	EnvLogLevel    = "NOWPLAYING_LOG_LEVEL"
	EnvMpvScripts  = "NOWPLAYING_MPV_SCRIPTS"
	EnvMpvSocket   = "NOWPLAYING_MPV_SOCKET_DIR"
	EnvMPRIS       = "NOWPLAYING_MPRIS"
)

// Config holds application configuration.
type Config struct {
	DataDir     string
	CacheDir    string
	ConfigDir   string
	DownloadDir string

	LogLevel zerolog.Level
	LogFile  string

	// MpvScripts are passed to mpv with --script.
	MpvScripts   []string
	MpvSocketDir string

	// MPRIS exports the player on the session bus.
	MPRIS bool

	Settings *Settings
}

// Load reads configuration from the .env file or system environment variables
// and then the preferences file.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file found, using system environment variables")
	}

	cfg := Config{
		LogLevel:     zerolog.InfoLevel,
		MpvSocketDir: os.Getenv(EnvMpvSocket),
		MPRIS:        true,
	}

	var err error

	if cfg.ConfigDir, err = userDir(EnvConfigDir, os.UserConfigDir); err != nil {
		return nil, err
	}
	if cfg.CacheDir, err = userDir(EnvCacheDir, os.UserCacheDir); err != nil {
		return nil, err
	}

	// Data lives next to the config unless asked otherwise, as there's no
	// portable user data directory.
	cfg.DataDir = os.Getenv(EnvDataDir)
	if cfg.DataDir == "" {
		cfg.DataDir = cfg.ConfigDir
	}

	cfg.DownloadDir = os.Getenv(EnvDownloadDir)
	if cfg.DownloadDir == "" {
		cfg.DownloadDir = filepath.Join(cfg.DataDir, "downloads")
	}

	cfg.LogFile = filepath.Join(cfg.CacheDir, appName+".log")

	if v := os.Getenv(EnvLogLevel); v != "" {
		lvl, err := zerolog.ParseLevel(v)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid %s", EnvLogLevel)
		}
		cfg.LogLevel = lvl
	}

	if v := os.Getenv(EnvMpvScripts); v != "" {
		cfg.MpvScripts = filepath.SplitList(v)
	}

	if v := os.Getenv(EnvMPRIS); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.MPRIS = b
		}
	}

	cfg.Settings, err = LoadSettings(filepath.Join(cfg.ConfigDir, settingsFileName))
	if err != nil {
		return nil, err
	}

	return &cfg, nil
}

func userDir(env string, base func() (string, error)) (string, error) {
	if dir := os.Getenv(env); dir != "" {
		return dir, nil
	}

	dir, err := base()
	if err != nil {
		return "", errors.Wrapf(err, "failed to find directory (set %s)", env)
	}

	return filepath.Join(dir, appName), nil
}
