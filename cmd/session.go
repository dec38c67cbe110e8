package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"

	"github.com/nibzard/tasklist-go/internal/config"
	"github.com/nibzard/tasklist-go/internal/hooks"
	"github.com/nibzard/tasklist-go/internal/logging"
	"github.com/nibzard/tasklist-go/internal/storage"
	"github.com/nibzard/tasklist-go/internal/todo"
)

// session is one command's view of the configured task list.
type session struct {
	cfg     *config.Config
	slot    storage.Storage
	store   *todo.Store
	logger  *log.Logger
	journal *logging.Journal
}

// sessionOptions controls where a session writes its side output.
type sessionOptions struct {
	// LogOutput receives console logs. Defaults to stderr.
	LogOutput io.Writer
	// HookOutput receives hook stdout and stderr. Defaults to stderr.
	HookOutput io.Writer
	// StoreOptions are appended after the config-derived options.
	StoreOptions []todo.Option
}

// openSession opens the slot backend and creates the store. A backend that
// cannot be opened leaves the store without storage so it runs in memory and
// reports the failure on Load.
func openSession(ctx context.Context, cfg *config.Config, opts sessionOptions) *session {
	logOut := opts.LogOutput
	if logOut == nil {
		logOut = os.Stderr
	}
	hookOut := opts.HookOutput
	if hookOut == nil {
		hookOut = os.Stderr
	}
	logger := logging.NewConsoleFromConfig(logOut, cfg.LogLevel, cfg.LogFormat, cfg.LogTimestamps, cfg.LogCaller)

	s := &session{cfg: cfg, logger: logger}

	slot, err := storage.Open(ctx, cfg.StorageOptions())
	if err != nil {
		logger.Warn("storage backend unavailable", "storage", cfg.Storage, "err", err)
	} else {
		s.slot = slot
	}

	journal, err := logging.NewJournal(cfg.LogDir, cfg.ProjectRoot)
	if err != nil {
		logger.Warn("activity journal disabled", "err", err)
	} else {
		s.journal = journal
	}

	hook := hooks.ChangeHook(cfg.HookCommand, cfg.StorageKey, cfg.ProjectRoot, hookOut, logger)

	storeOpts := append(cfg.StoreOptions(),
		todo.WithLogger(logger),
		todo.WithChangeHook(s.onChange(hook)),
	)
	storeOpts = append(storeOpts, opts.StoreOptions...)
	s.store = todo.New(s.slot, storeOpts...)
	return s
}

// onChange records every change in the journal and then runs hook.
func (s *session) onChange(hook todo.ChangeFunc) todo.ChangeFunc {
	return func(ctx context.Context, change todo.Change) {
		entry := logging.Entry{
			Op:        string(change.Op),
			TaskID:    change.Task.ID,
			Text:      change.Task.Text,
			Completed: change.Task.Completed,
			Warning:   todo.UserMessage(change.Err),
		}
		if err := s.journal.Record(entry); err != nil {
			s.logger.Warn("journal write failed", "err", err)
		}
		if hook != nil {
			hook(ctx, change)
		}
	}
}

// load reads the persisted list, printing a warning when it is unavailable
// or corrupt.
func (s *session) load(ctx context.Context) todo.Collection {
	tasks, err := s.store.Load(ctx)
	warn(err)
	return tasks
}

// storageLocation describes where the list is kept.
func storageLocation(cfg *config.Config) string {
	switch cfg.Storage {
	case storage.BackendFile:
		return cfg.DataDir
	case storage.BackendMySQL:
		return "mysql table " + cfg.MySQL.Table
	case storage.BackendNeo4j:
		return cfg.Neo4j.URI
	default:
		return cfg.Storage
	}
}

func (s *session) Close() {
	if err := s.journal.Close(); err != nil {
		s.logger.Warn("closing journal", "err", err)
	}
	if s.slot != nil {
		if err := s.slot.Close(); err != nil {
			s.logger.Warn("closing storage", "err", err)
		}
	}
}

// warn prints the user message of a storage error to stderr.
func warn(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "warning: %s\n", todo.UserMessage(err))
}
