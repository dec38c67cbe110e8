package config

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/nibzard/tasklist-go/internal/appdir"
	"github.com/nibzard/tasklist-go/internal/storage"
)

// findProjectConfigFile returns the absolute path of tasklist.toml or
// .tasklist.toml in the working directory, or "".
func findProjectConfigFile() string {
	path := firstExisting(appdir.ConfigFile, appdir.HiddenConfigFile)
	if path == "" {
		return ""
	}
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}

// findUserConfigFile returns the first user config file that exists, or "".
func findUserConfigFile() string {
	return firstExisting(userConfigCandidates()...)
}

// userConfigCandidates lists user config locations in lookup order:
// ~/.tasklist/tasklist.toml, then <os config dir>/tasklist/tasklist.toml.
func userConfigCandidates() []string {
	var paths []string
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, appdir.ConfigPath(home))
	}
	if cfgDir := osUserConfigDir(); cfgDir != "" {
		paths = append(paths, filepath.Join(cfgDir, "tasklist", appdir.ConfigFile))
	}
	return paths
}

func firstExisting(paths ...string) string {
	for _, p := range paths {
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p
		}
	}
	return ""
}

// osUserConfigDir returns the OS-specific user config directory.
// Returns empty string if the directory cannot be determined.
func osUserConfigDir() string {
	switch runtime.GOOS {
	case "windows":
		if appdata := os.Getenv("APPDATA"); appdata != "" {
			return appdata
		}
	case "darwin":
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, "Library", "Application Support")
		}
	case "linux", "openbsd", "freebsd", "netbsd":
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return xdg
		}
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, ".config")
		}
	}
	return ""
}

// setDefaults applies default values to the config.
func setDefaults(cfg *Config) {
	cfg.Storage = DefaultStorage
	cfg.DataDir = DefaultDataDir
	cfg.StorageKey = DefaultKey
	cfg.MaxBytes = DefaultMaxBytes
	cfg.SortOnLoad = false
	cfg.Listen = DefaultListen
	cfg.LogDir = DefaultLogDir
	cfg.LogLevel = DefaultLogLevel
	cfg.LogFormat = DefaultLogFormat
	cfg.MySQL.Table = storage.DefaultMySQLTable
}
