package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// resolveDir expands p and anchors a relative result at root.
func resolveDir(root, p string) string {
	p = expandPath(strings.TrimSpace(p))
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(root, p)
}

// resolveCommand expands a hook command. Commands given as a relative path
// ("./hooks/notify.sh") are anchored at root; bare names are left for PATH
// lookup.
func resolveCommand(root, command string) string {
	command = expandPath(strings.TrimSpace(command))
	if command == "" || filepath.IsAbs(command) {
		return command
	}
	if strings.ContainsRune(command, '/') || strings.ContainsRune(command, filepath.Separator) {
		return filepath.Join(root, command)
	}
	return command
}

// expandPath expands a leading ~ and environment variables ($VAR, and
// %VAR% on Windows).
func expandPath(p string) string {
	if p == "" {
		return p
	}

	expanded := expandEnv(p)
	if expanded != "~" && !hasHomePrefix(expanded) {
		return expanded
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return expanded
	}
	if expanded == "~" {
		return home
	}
	return filepath.Join(home, expanded[2:])
}

func hasHomePrefix(p string) bool {
	if strings.HasPrefix(p, "~/") {
		return true
	}
	return runtime.GOOS == "windows" && strings.HasPrefix(p, `~\`)
}

func expandEnv(p string) string {
	expanded := os.ExpandEnv(p)
	if runtime.GOOS == "windows" {
		return expandWindowsEnv(expanded)
	}
	return expanded
}

// expandWindowsEnv replaces %VAR% with its value. Unknown variables and a
// lone % are kept as written.
func expandWindowsEnv(p string) string {
	var b strings.Builder
	for {
		start := strings.IndexByte(p, '%')
		if start < 0 {
			b.WriteString(p)
			return b.String()
		}
		end := strings.IndexByte(p[start+1:], '%')
		if end < 0 {
			b.WriteString(p)
			return b.String()
		}
		b.WriteString(p[:start])
		key := p[start+1 : start+1+end]
		switch val, ok := os.LookupEnv(key); {
		case key == "":
			b.WriteByte('%')
			p = p[start+1:]
			continue
		case ok:
			b.WriteString(val)
		default:
			b.WriteString(p[start : start+end+2])
		}
		p = p[start+end+2:]
	}
}
