// Package todo owns the task list and its persisted mirror.
package todo

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrEmptyText is returned by NewTask for blank text.
	ErrEmptyText = errors.New("task text is empty")

	// ErrEmptyID is returned by NewTask for a blank id.
	ErrEmptyID = errors.New("task id is empty")
)

// Timestamp is a creation time that serializes as milliseconds since the
// Unix epoch. The zero value encodes as 0.
type Timestamp struct {
	time.Time
}

// NewTimestamp truncates t to millisecond precision so it survives a
// save/load round trip unchanged.
func NewTimestamp(t time.Time) Timestamp {
	if t.IsZero() {
		return Timestamp{}
	}
	return Timestamp{Time: t.UTC().Truncate(time.Millisecond)}
}

// MarshalJSON encodes the timestamp as integer milliseconds.
func (ts Timestamp) MarshalJSON() ([]byte, error) {
	if ts.IsZero() {
		return []byte("0"), nil
	}
	return strconv.AppendInt(nil, ts.UnixMilli(), 10), nil
}

// UnmarshalJSON accepts null, a JSON number of milliseconds, a numeric
// string, or an RFC 3339 string.
func (ts *Timestamp) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*ts = Timestamp{}
		return nil
	}
	if data[0] == '"' {
		s, err := strconv.Unquote(string(data))
		if err != nil {
			return fmt.Errorf("createdAt: %w", err)
		}
		return ts.parseString(s)
	}
	ms, err := parseMillis(string(data))
	if err != nil {
		return fmt.Errorf("createdAt: %w", err)
	}
	*ts = fromMillis(ms)
	return nil
}

func (ts *Timestamp) parseString(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		*ts = Timestamp{}
		return nil
	}
	if ms, err := parseMillis(s); err == nil {
		*ts = fromMillis(ms)
		return nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return fmt.Errorf("createdAt: unrecognized time %q", s)
	}
	*ts = NewTimestamp(t)
	return nil
}

func parseMillis(s string) (int64, error) {
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return ms, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || f >= math.MaxInt64 || f <= math.MinInt64 {
		return 0, fmt.Errorf("time %s out of range", s)
	}
	return int64(f), nil
}

func fromMillis(ms int64) Timestamp {
	if ms == 0 {
		return Timestamp{}
	}
	return Timestamp{Time: time.UnixMilli(ms).UTC()}
}

// Task is a single to-do item.
type Task struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Completed bool      `json:"completed"`
	CreatedAt Timestamp `json:"createdAt"`
}

// NewTask builds a validated task. Text is trimmed; blank text or a blank id
// is rejected.
func NewTask(id, text string, createdAt time.Time) (Task, error) {
	if strings.TrimSpace(id) == "" {
		return Task{}, ErrEmptyID
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return Task{}, ErrEmptyText
	}
	return Task{
		ID:        id,
		Text:      text,
		CreatedAt: NewTimestamp(createdAt),
	}, nil
}

// Collection is an ordered list of tasks. Order is display order.
type Collection []Task

// Index returns the position of the task with id, or -1.
func (c Collection) Index(id string) int {
	for i := range c {
		if c[i].ID == id {
			return i
		}
	}
	return -1
}

// Get returns the task with id.
func (c Collection) Get(id string) (Task, bool) {
	if i := c.Index(id); i >= 0 {
		return c[i], true
	}
	return Task{}, false
}

// Clone returns a copy that shares no backing array with c. A nil
// collection clones to an empty one.
func (c Collection) Clone() Collection {
	out := make(Collection, len(c))
	copy(out, c)
	return out
}

// SortByCreatedAt stably orders tasks by creation time, oldest first.
// Tasks without a creation time sort first, keeping their relative order.
func (c Collection) SortByCreatedAt() {
	sort.SliceStable(c, func(i, j int) bool {
		return c[i].CreatedAt.Before(c[j].CreatedAt.Time)
	})
}

// Dedupe keeps the first task for each id and returns the ids of dropped
// records in the order they were seen.
func (c Collection) Dedupe() (Collection, []string) {
	seen := make(map[string]bool, len(c))
	out := make(Collection, 0, len(c))
	var dropped []string
	for _, t := range c {
		if seen[t.ID] {
			dropped = append(dropped, t.ID)
			continue
		}
		seen[t.ID] = true
		out = append(out, t)
	}
	return out, dropped
}

// DuplicateID returns the first id that appears more than once, or "".
func (c Collection) DuplicateID() string {
	seen := make(map[string]bool, len(c))
	for _, t := range c {
		if seen[t.ID] {
			return t.ID
		}
		seen[t.ID] = true
	}
	return ""
}

// Filter selects tasks by completion state.
type Filter string

const (
	FilterAll  Filter = "all"
	FilterOpen Filter = "open"
	FilterDone Filter = "done"
)

// ParseFilter maps user input to a Filter. Empty input selects FilterAll.
func ParseFilter(s string) (Filter, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all":
		return FilterAll, nil
	case "open", "active", "todo":
		return FilterOpen, nil
	case "done", "completed":
		return FilterDone, nil
	default:
		return "", fmt.Errorf("invalid filter %q, must be one of: all, open, done", s)
	}
}

// Match reports whether t passes the filter.
func (f Filter) Match(t Task) bool {
	switch f {
	case FilterOpen:
		return !t.Completed
	case FilterDone:
		return t.Completed
	default:
		return true
	}
}

// Filter returns the tasks that pass f, preserving order.
func (c Collection) Filter(f Filter) Collection {
	out := make(Collection, 0, len(c))
	for _, t := range c {
		if f.Match(t) {
			out = append(out, t)
		}
	}
	return out
}

// Counts returns the number of open and completed tasks.
func (c Collection) Counts() (open, done int) {
	for _, t := range c {
		if t.Completed {
			done++
		} else {
			open++
		}
	}
	return open, done
}
