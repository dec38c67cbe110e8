package utils

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

// WindowsExecutableExtensions returns lowercase executable extensions (with
// leading dot) parsed from PATHEXT, or a default set if PATHEXT is unset.
func WindowsExecutableExtensions() map[string]bool {
	exts := map[string]bool{}
	pathext := os.Getenv("PATHEXT")
	if pathext == "" {
		pathext = ".COM;.EXE;.BAT;.CMD"
	}
	for _, ext := range strings.Split(pathext, ";") {
		ext = strings.TrimSpace(ext)
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		exts[strings.ToLower(ext)] = true
	}
	return exts
}

// IsExecutable reports whether info describes a file the current platform
// would run.
func IsExecutable(path string, info os.FileInfo) bool {
	if info == nil || info.IsDir() {
		return false
	}
	if runtime.GOOS == "windows" {
		return WindowsExecutableExtensions()[strings.ToLower(filepath.Ext(path))]
	}
	return info.Mode()&0o111 != 0
}

// ResolveCommand finds the executable for a hook command. Paths containing a
// separator are checked directly; bare names are searched in PATH.
func ResolveCommand(command string) (string, error) {
	command = strings.TrimSpace(command)
	if command == "" {
		return "", fmt.Errorf("command is empty")
	}
	if strings.ContainsRune(command, '/') || strings.ContainsRune(command, filepath.Separator) {
		info, err := os.Stat(command)
		if err != nil {
			return "", err
		}
		if !IsExecutable(command, info) {
			return "", fmt.Errorf("%s is not executable", command)
		}
		return command, nil
	}
	return exec.LookPath(command)
}
