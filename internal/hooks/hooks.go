// Package hooks invokes external commands after task list changes.
package hooks

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"time"

	"github.com/charmbracelet/log"

	"github.com/nibzard/tasklist-go/internal/todo"
)

// DefaultTimeout bounds a single hook run.
const DefaultTimeout = 30 * time.Second

// Options configures a hook invocation.
type Options struct {
	Command string
	Op      todo.Op
	Task    todo.Task
	Key     string
	WorkDir string
	Timeout time.Duration

	// Stdout and Stderr receive the hook's output. Nil selects os.Stderr.
	Stdout io.Writer
	Stderr io.Writer
}

// Result captures the outcome of a hook invocation.
type Result struct {
	Ran      bool
	Command  []string
	ExitCode int
}

// Invoke runs the hook command as `<command> <op> <task-id> <storage-key>`
// with the task JSON on stdin. An empty command is a no-op.
func Invoke(ctx context.Context, opts Options) (Result, error) {
	if opts.Command == "" {
		return Result{}, nil
	}
	if opts.Op == "" || opts.Task.ID == "" {
		return Result{}, fmt.Errorf("hook invocation needs an op and a task id")
	}

	payload, err := json.Marshal(opts.Task)
	if err != nil {
		return Result{}, fmt.Errorf("marshal hook payload: %w", err)
	}

	if ctx == nil {
		ctx = context.Background()
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	args := []string{string(opts.Op), opts.Task.ID, opts.Key}
	cmd := exec.CommandContext(ctx, opts.Command, args...)
	if opts.WorkDir != "" {
		cmd.Dir = opts.WorkDir
	}
	cmd.Stdin = bytes.NewReader(payload)
	cmd.Stdout = writerOr(opts.Stdout, os.Stderr)
	cmd.Stderr = writerOr(opts.Stderr, os.Stderr)
	cmd.Env = append(os.Environ(),
		"TASKLIST_HOOK_OP="+string(opts.Op),
		"TASKLIST_HOOK_TASK_ID="+opts.Task.ID,
		"TASKLIST_HOOK_KEY="+opts.Key,
	)

	err = cmd.Run()
	result := Result{
		Ran:      true,
		Command:  cmd.Args,
		ExitCode: exitCodeFromError(err),
	}
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return result, fmt.Errorf("hook command timed out after %s", timeout)
		}
		return result, fmt.Errorf("hook command failed: %w", err)
	}
	return result, nil
}

// ChangeHook returns a todo.ChangeFunc that runs command for every change.
// Failures are logged and never propagate to the store.
func ChangeHook(command, key, workDir string, out io.Writer, logger *log.Logger) todo.ChangeFunc {
	if command == "" {
		return nil
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return func(ctx context.Context, change todo.Change) {
		result, err := Invoke(ctx, Options{
			Command: command,
			Op:      change.Op,
			Task:    change.Task,
			Key:     key,
			WorkDir: workDir,
			Stdout:  out,
			Stderr:  out,
		})
		if err != nil {
			logger.Warn("hook failed", "command", command, "op", change.Op, "task", change.Task.ID, "exit", result.ExitCode, "err", err)
			return
		}
		logger.Debug("hook ran", "command", command, "op", change.Op, "task", change.Task.ID)
	}
}

func writerOr(w, fallback io.Writer) io.Writer {
	if w == nil {
		return fallback
	}
	return w
}

func exitCodeFromError(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}
