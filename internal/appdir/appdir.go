// Package appdir provides constants and utilities for the .tasklist directory structure.
package appdir

import "path/filepath"

const (
	// Dir is the name of the tasklist state directory.
	Dir = ".tasklist"

	// ConfigFile is the config file name, both inside Dir and in a project root.
	ConfigFile = "tasklist.toml"

	// HiddenConfigFile is the alternative project config file name.
	HiddenConfigFile = ".tasklist.toml"

	// DataDir is the slot directory name of the file backend (inside Dir).
	DataDir = "data"

	// LogDir is the activity journal directory name (inside Dir).
	LogDir = "logs"
)

// DirPath returns the full path to the .tasklist directory within base.
func DirPath(base string) string {
	if base == "." || base == "" {
		return Dir
	}
	return filepath.Join(base, Dir)
}

// ConfigPath returns the path to the config file inside the .tasklist
// directory of base.
func ConfigPath(base string) string {
	return filepath.Join(DirPath(base), ConfigFile)
}
