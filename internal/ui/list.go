package ui

import (
	"fmt"
	"io"
	"os"

	"github.com/nibzard/tasklist-go/internal/todo"
	"github.com/nibzard/tasklist-go/internal/utils"
)

// ShortIDLen is the number of trailing id characters shown in listings.
const ShortIDLen = 8

// ShortID returns the displayed form of a task id: its last ShortIDLen
// characters.
func ShortID(id string) string {
	if len(id) <= ShortIDLen {
		return id
	}
	return id[len(id)-ShortIDLen:]
}

// Checkbox returns "[x]" for completed tasks and "[ ]" otherwise.
func Checkbox(t todo.Task) string {
	if t.Completed {
		return "[x]"
	}
	return "[ ]"
}

// FormatTask renders one listing line. pos is the 1-based position in the
// full collection.
func FormatTask(pos int, t todo.Task) string {
	return fmt.Sprintf("%3d. %s %s  (%s)", pos, Checkbox(t), utils.SingleLine(t.Text), ShortID(t.ID))
}

// WriteList prints the tasks matching filter, numbered by their position in
// the full collection, followed by a summary line.
func WriteList(w io.Writer, tasks todo.Collection, filter todo.Filter) {
	if len(tasks) == 0 {
		fmt.Fprintln(w, "No tasks yet.")
		return
	}
	shown := 0
	for i, t := range tasks {
		if !filter.Match(t) {
			continue
		}
		fmt.Fprintln(w, FormatTask(i+1, t))
		shown++
	}
	if shown == 0 {
		fmt.Fprintf(w, "No %s tasks.\n", filter)
	}
	open, done := tasks.Counts()
	fmt.Fprintf(w, "\n%d open, %d done\n", open, done)
}

// IsTTY returns true if w is a terminal.
func IsTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
