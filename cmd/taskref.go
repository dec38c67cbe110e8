package cmd

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/nibzard/tasklist-go/internal/todo"
)

// minRefLen is the shortest id fragment accepted as a reference.
const minRefLen = 4

// ErrTaskRefRequired indicates no task reference was provided.
var ErrTaskRefRequired = errors.New("task reference required")

// resolveTaskRef finds the task named by ref and returns it with its 1-based
// position.
//
// Resolution order:
// 1. exact id
// 2. all digits: position in the list
// 3. unique id prefix or suffix of at least minRefLen characters
func resolveTaskRef(tasks todo.Collection, ref string) (int, todo.Task, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return 0, todo.Task{}, ErrTaskRefRequired
	}

	if i := tasks.Index(ref); i >= 0 {
		return i + 1, tasks[i], nil
	}

	if isAllDigits(ref) {
		pos, err := strconv.Atoi(ref)
		if err != nil || pos < 1 || pos > len(tasks) {
			return 0, todo.Task{}, fmt.Errorf("no task at position %s (list has %d)", ref, len(tasks))
		}
		return pos, tasks[pos-1], nil
	}

	if len(ref) < minRefLen {
		return 0, todo.Task{}, fmt.Errorf("invalid task reference: %s (use a position or at least %d id characters)", ref, minRefLen)
	}

	match := -1
	for i, t := range tasks {
		if !strings.HasPrefix(t.ID, ref) && !strings.HasSuffix(t.ID, ref) {
			continue
		}
		if match >= 0 {
			return 0, todo.Task{}, fmt.Errorf("ambiguous task reference: %s", ref)
		}
		match = i
	}
	if match < 0 {
		return 0, todo.Task{}, fmt.Errorf("no task matches %s", ref)
	}
	return match + 1, tasks[match], nil
}

// isAllDigits returns true if s consists only of ASCII digits and is non-empty.
func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r > unicode.MaxASCII || !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
