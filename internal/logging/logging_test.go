// Package logging provides tests for the console logger and the journal.
package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  log.Level
	}{
		{"debug", log.DebugLevel},
		{"INFO", log.InfoLevel},
		{"warn", log.WarnLevel},
		{"warning", log.WarnLevel},
		{"error", log.ErrorLevel},
		{"", log.InfoLevel},
		{"loud", log.InfoLevel},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ParseLevel(tt.input); got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseFormatter(t *testing.T) {
	tests := []struct {
		input string
		want  log.Formatter
	}{
		{"json", log.JSONFormatter},
		{"logfmt", log.LogfmtFormatter},
		{"text", log.TextFormatter},
		{"", log.TextFormatter},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ParseFormatter(tt.input); got != tt.want {
				t.Errorf("ParseFormatter(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestNewConsoleFromConfig(t *testing.T) {
	var buf bytes.Buffer
	logger := NewConsoleFromConfig(&buf, "warn", "json", false, false)

	logger.Info("hidden")
	logger.Warn("storage unavailable", "key", "tasks")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info message logged at warn level: %q", out)
	}
	var line map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(out)), &line); err != nil {
		t.Fatalf("output is not JSON: %q: %v", out, err)
	}
	if line["msg"] != "storage unavailable" || line["key"] != "tasks" {
		t.Errorf("unexpected log line: %v", line)
	}
	if prefix, _ := line["prefix"].(string); !strings.Contains(prefix, Prefix) {
		t.Errorf("prefix = %v, want %q", line["prefix"], Prefix)
	}
}

func TestJournalRecord(t *testing.T) {
	t.Run("lazily creates file and appends lines", func(t *testing.T) {
		j, err := NewJournal(t.TempDir(), t.TempDir())
		if err != nil {
			t.Fatalf("NewJournal: %v", err)
		}
		defer j.Close()

		if _, err := os.Stat(j.Path); !os.IsNotExist(err) {
			t.Fatalf("journal file exists before first record: %v", err)
		}

		fixed := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
		j.now = func() time.Time { return fixed }
		if err := j.Record(Entry{Op: "add", TaskID: "a", Text: "buy milk"}); err != nil {
			t.Fatalf("Record: %v", err)
		}
		if err := j.Record(Entry{Op: "toggle", TaskID: "a", Text: "buy milk", Completed: true, Warning: "disk full"}); err != nil {
			t.Fatalf("Record: %v", err)
		}

		entries, err := ReadEntries(j.Path)
		if err != nil {
			t.Fatalf("ReadEntries: %v", err)
		}
		if len(entries) != 2 {
			t.Fatalf("got %d entries, want 2", len(entries))
		}
		if !entries[0].Time.Equal(fixed) || entries[0].Op != "add" {
			t.Errorf("first entry = %+v", entries[0])
		}
		if !entries[1].Completed || entries[1].Warning != "disk full" {
			t.Errorf("second entry = %+v", entries[1])
		}
	})

	t.Run("nil journal is a no-op", func(t *testing.T) {
		var j *Journal
		if err := j.Record(Entry{Op: "add"}); err != nil {
			t.Errorf("Record on nil journal: %v", err)
		}
		if err := j.Close(); err != nil {
			t.Errorf("Close on nil journal: %v", err)
		}
	})

	t.Run("empty base dir returns error", func(t *testing.T) {
		_, err := NewJournal("", t.TempDir())
		if err == nil || !strings.Contains(err.Error(), "empty") {
			t.Fatalf("expected empty dir error, got %v", err)
		}
	})

	t.Run("concurrent records", func(t *testing.T) {
		j, err := NewJournal(t.TempDir(), t.TempDir())
		if err != nil {
			t.Fatal(err)
		}
		defer j.Close()

		var wg sync.WaitGroup
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				j.Record(Entry{Op: "add", TaskID: "x"})
			}()
		}
		wg.Wait()
		entries, err := ReadEntries(j.Path)
		if err != nil {
			t.Fatal(err)
		}
		if len(entries) != 20 {
			t.Errorf("got %d entries, want 20", len(entries))
		}
	})
}

func TestFindDir(t *testing.T) {
	base := t.TempDir()
	work := t.TempDir()

	dir, err := FindDir(base, work)
	if err != nil {
		t.Fatalf("FindDir: %v", err)
	}
	if filepath.Dir(dir) != base {
		t.Errorf("FindDir = %q, want a child of %q", dir, base)
	}
	again, _ := FindDir(base, work)
	if again != dir {
		t.Errorf("FindDir not stable: %q vs %q", dir, again)
	}
	other, _ := FindDir(base, t.TempDir())
	if other == dir {
		t.Error("different work dirs should map to different journal dirs")
	}

	rel, err := FindDir("logs", work)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(rel, filepath.Join(work, "logs")) {
		t.Errorf("relative base dir should resolve under work dir, got %q", rel)
	}
}

func TestFindLatest(t *testing.T) {
	t.Run("missing dir", func(t *testing.T) {
		got, err := FindLatest(filepath.Join(t.TempDir(), "missing"))
		if err != nil || got != "" {
			t.Errorf("FindLatest = %q, %v, want empty, nil", got, err)
		}
	})

	t.Run("picks newest jsonl", func(t *testing.T) {
		dir := t.TempDir()
		older := filepath.Join(dir, "older.jsonl")
		newer := filepath.Join(dir, "newer.jsonl")
		other := filepath.Join(dir, "notes.txt")
		for _, p := range []string{older, newer, other} {
			if err := os.WriteFile(p, []byte("{}\n"), 0o644); err != nil {
				t.Fatal(err)
			}
		}
		past := time.Now().Add(-time.Hour)
		os.Chtimes(older, past, past)
		os.Chtimes(other, time.Now().Add(time.Hour), time.Now().Add(time.Hour))

		got, err := FindLatest(dir)
		if err != nil {
			t.Fatal(err)
		}
		if got != newer {
			t.Errorf("FindLatest = %q, want %q", got, newer)
		}
	})
}

func writeLines(t *testing.T, n int, trailingNewline bool) string {
	t.Helper()
	var b strings.Builder
	for i := 1; i <= n; i++ {
		b.WriteString(strings.Repeat("x", i%7))
		b.WriteString("line")
		b.WriteString(string(rune('0' + i%10)))
		if i < n || trailingNewline {
			b.WriteByte('\n')
		}
	}
	path := filepath.Join(t.TempDir(), "session.jsonl")
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestTail(t *testing.T) {
	tests := []struct {
		name     string
		lines    int
		trailing bool
		n        int
		want     int
	}{
		{"last three", 10, true, 3, 3},
		{"more than available", 4, true, 10, 4},
		{"all lines", 5, true, 0, 5},
		{"no trailing newline", 6, false, 2, 2},
		{"large file", 5000, true, 7, 7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeLines(t, tt.lines, tt.trailing)
			var buf bytes.Buffer
			if err := Tail(context.Background(), &buf, path, tt.n, false); err != nil {
				t.Fatalf("Tail: %v", err)
			}
			got := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
			if len(got) != tt.want {
				t.Fatalf("got %d lines, want %d: %q", len(got), tt.want, buf.String())
			}
			if !strings.HasSuffix(got[len(got)-1], "line"+string(rune('0'+tt.lines%10))) {
				t.Errorf("last line = %q", got[len(got)-1])
			}
		})
	}

	t.Run("empty file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "empty.jsonl")
		os.WriteFile(path, nil, 0o644)
		var buf bytes.Buffer
		if err := Tail(context.Background(), &buf, path, 5, false); err != nil {
			t.Fatalf("Tail: %v", err)
		}
		if buf.Len() != 0 {
			t.Errorf("got %q, want empty output", buf.String())
		}
	})

	t.Run("missing file", func(t *testing.T) {
		err := Tail(context.Background(), &bytes.Buffer{}, filepath.Join(t.TempDir(), "nope"), 5, false)
		if err == nil {
			t.Fatal("expected error for missing file")
		}
	})
}

// syncBuffer guards a bytes.Buffer shared between the follower and the test.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestTailFollow(t *testing.T) {
	path := writeLines(t, 2, true)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var out syncBuffer
	done := make(chan error, 1)
	go func() {
		done <- Tail(ctx, &out, path, 0, true)
	}()

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatal(err)
	}
	f.WriteString("appended\n")
	f.Close()

	deadline := time.Now().Add(5 * time.Second)
	for !strings.Contains(out.String(), "appended") {
		if time.Now().After(deadline) {
			t.Fatalf("follow did not pick up appended line: %q", out.String())
		}
		time.Sleep(20 * time.Millisecond)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Tail returned %v after cancel", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Tail did not return after cancel")
	}
}

func TestReadEntriesSkipsMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "s.jsonl")
	content := `{"time":"2024-01-01T00:00:00Z","op":"add","task_id":"a","text":"x","completed":false}
not json
{"time":"2024-01-01T00:00:01Z","op":"remove","task_id":"a","text":"x","completed":false}
`
	os.WriteFile(path, []byte(content), 0o644)
	entries, err := ReadEntries(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 || entries[1].Op != "remove" {
		t.Errorf("entries = %+v", entries)
	}
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"my-project", "my-project"},
		{"My Project!", "My_Project"},
		{"  ", "project"},
		{"***", "project"},
		{"a//b", "a_b"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := slugify(tt.input); got != tt.want {
				t.Errorf("slugify(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestHashPath(t *testing.T) {
	a := hashPath("/a")
	if len(a) != 8 {
		t.Errorf("hashPath length = %d, want 8", len(a))
	}
	if a == hashPath("/b") {
		t.Error("different paths should hash differently")
	}
}
