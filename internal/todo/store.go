package todo

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/nibzard/tasklist-go/internal/storage"
)

// DefaultKey is the slot key used when none is configured.
const DefaultKey = "tasks"

// maxIDAttempts bounds regeneration after an id collision.
const maxIDAttempts = 8

// Op names a store mutation.
type Op string

const (
	OpAdd    Op = "add"
	OpToggle Op = "toggle"
	OpRemove Op = "remove"
)

// Change describes one applied mutation. Err carries the persistence
// outcome; the mutation was applied in memory either way.
type Change struct {
	Op   Op
	Task Task
	Err  error
}

// RenderFunc receives a copy of the collection after Load and after every
// mutation.
type RenderFunc func(Collection)

// ChangeFunc is called once per applied mutation, after rendering.
type ChangeFunc func(ctx context.Context, change Change)

// Store owns a task collection and mirrors it to a storage slot.
// A Store is not safe for concurrent use; callers that share one across
// goroutines must serialize access.
type Store struct {
	storage    storage.Storage
	key        string
	sortOnLoad bool
	now        func() time.Time
	newID      func() (string, error)
	logger     *log.Logger
	render     RenderFunc
	onChange   ChangeFunc

	tasks Collection
	err   error
	// unread is set while the last Load could not reach the slot. Writes
	// are held back so the empty in-memory list cannot replace stored tasks.
	unread bool
}

// Option configures a Store.
type Option func(*Store)

// WithKey sets the slot key.
func WithKey(key string) Option {
	return func(s *Store) {
		if strings.TrimSpace(key) != "" {
			s.key = key
		}
	}
}

// WithSortOnLoad sorts the collection by creation time after each Load.
func WithSortOnLoad(enabled bool) Option {
	return func(s *Store) {
		s.sortOnLoad = enabled
	}
}

// WithClock overrides time.Now for task creation.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIDGenerator overrides NewID.
func WithIDGenerator(gen func() (string, error)) Option {
	return func(s *Store) {
		if gen != nil {
			s.newID = gen
		}
	}
}

// WithLogger sets the logger for corrupt payloads and failed writes.
func WithLogger(logger *log.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithRender registers the view's render callback.
func WithRender(fn RenderFunc) Option {
	return func(s *Store) {
		s.render = fn
	}
}

// WithChangeHook registers a callback invoked for every applied mutation.
func WithChangeHook(fn ChangeFunc) Option {
	return func(s *Store) {
		s.onChange = fn
	}
}

// New creates a store over slot. The collection starts empty; call Load to
// read the persisted list.
func New(slot storage.Storage, opts ...Option) *Store {
	s := &Store{
		storage: slot,
		key:     DefaultKey,
		now:     time.Now,
		newID:   NewID,
		logger:  log.New(io.Discard),
		tasks:   Collection{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Key returns the slot key.
func (s *Store) Key() string {
	return s.key
}

// Tasks returns a copy of the current collection.
func (s *Store) Tasks() Collection {
	return s.tasks.Clone()
}

// Get returns the task with id.
func (s *Store) Get(id string) (Task, bool) {
	return s.tasks.Get(id)
}

// Err returns the last storage error from Load or a write, or nil once a
// write succeeds.
func (s *Store) Err() error {
	return s.err
}

// Load replaces the in-memory collection with the persisted one and renders
// it. The returned error is informational: the collection is always usable.
func (s *Store) Load(ctx context.Context) (Collection, error) {
	tasks, err := s.read(ctx)
	s.tasks = tasks
	s.err = err
	s.unread = IsKind(err, KindUnavailable)
	s.emitRender()
	return s.Tasks(), err
}

func (s *Store) read(ctx context.Context) (Collection, error) {
	if s.storage == nil {
		return Collection{}, &StorageError{Kind: KindUnavailable, Op: "load", Key: s.key, Err: storage.ErrUnavailable}
	}

	data, err := s.storage.Get(ctx, s.key)
	if errors.Is(err, storage.ErrNotFound) {
		return Collection{}, nil
	}
	if err != nil {
		s.logger.Warn("task storage is unavailable", "key", s.key, "err", err)
		return Collection{}, &StorageError{Kind: KindUnavailable, Op: "load", Key: s.key, Err: err}
	}

	tasks, err := Decode(data)
	if err != nil {
		s.logger.Error("stored task list is corrupt, starting empty", "key", s.key, "err", err)
		return Collection{}, &StorageError{Kind: KindReadCorrupt, Op: "load", Key: s.key, Err: err}
	}

	tasks, dropped := tasks.Dedupe()
	for _, id := range dropped {
		s.logger.Warn("dropped task with duplicate id", "key", s.key, "id", id)
	}
	if s.sortOnLoad {
		tasks.SortByCreatedAt()
	}
	return tasks, nil
}

// Save makes tasks the current collection and writes it to the slot. The
// collection is kept in memory even when the write fails. Save replaces the
// whole list, so it is written even after a Load that could not read the slot.
func (s *Store) Save(ctx context.Context, tasks Collection) error {
	if dup := tasks.DuplicateID(); dup != "" {
		return fmt.Errorf("%w: %s", ErrDuplicateID, dup)
	}
	s.tasks = tasks.Clone()
	s.unread = false
	err := s.persist(ctx)
	s.emitRender()
	return err
}

func (s *Store) persist(ctx context.Context) error {
	data, err := Encode(s.tasks)
	if err != nil {
		s.err = &StorageError{Kind: KindWriteFailure, Op: "save", Key: s.key, Err: err}
		return s.err
	}
	if s.storage == nil || s.unread {
		s.err = &StorageError{Kind: KindUnavailable, Op: "save", Key: s.key, Err: storage.ErrUnavailable}
		return s.err
	}
	if err := s.storage.Set(ctx, s.key, data); err != nil {
		kind := KindWriteFailure
		if errors.Is(err, storage.ErrUnavailable) {
			kind = KindUnavailable
		}
		s.logger.Warn("task list not persisted", "key", s.key, "kind", kind, "err", err)
		s.err = &StorageError{Kind: kind, Op: "save", Key: s.key, Err: err}
		return s.err
	}
	s.err = nil
	return nil
}

// Add appends a task with the trimmed text. Blank text is ignored and
// returns nil, nil. A non-nil task with a non-nil error means the task was
// added in memory but not persisted.
func (s *Store) Add(ctx context.Context, text string) (*Task, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}
	id, err := s.uniqueID()
	if err != nil {
		return nil, err
	}
	task, err := NewTask(id, text, s.now())
	if err != nil {
		return nil, err
	}

	s.tasks = append(s.tasks, task)
	err = s.persist(ctx)
	s.changed(ctx, OpAdd, task, err)
	return &task, err
}

// Toggle flips the completed flag of the task with id. It returns false for
// an unknown id.
func (s *Store) Toggle(ctx context.Context, id string) (bool, error) {
	i := s.tasks.Index(id)
	if i < 0 {
		return false, nil
	}
	s.tasks[i].Completed = !s.tasks[i].Completed
	task := s.tasks[i]

	err := s.persist(ctx)
	s.changed(ctx, OpToggle, task, err)
	return true, err
}

// Remove deletes the task with id. It returns false for an unknown id.
func (s *Store) Remove(ctx context.Context, id string) (bool, error) {
	i := s.tasks.Index(id)
	if i < 0 {
		return false, nil
	}
	task := s.tasks[i]
	next := make(Collection, 0, len(s.tasks)-1)
	next = append(next, s.tasks[:i]...)
	next = append(next, s.tasks[i+1:]...)
	s.tasks = next

	err := s.persist(ctx)
	s.changed(ctx, OpRemove, task, err)
	return true, err
}

// RemoveCompleted deletes every completed task with a single write and
// returns how many were removed.
func (s *Store) RemoveCompleted(ctx context.Context) (int, error) {
	removed := s.tasks.Filter(FilterDone)
	if len(removed) == 0 {
		return 0, nil
	}
	s.tasks = s.tasks.Filter(FilterOpen)

	err := s.persist(ctx)
	s.emitRender()
	if s.onChange != nil {
		for _, task := range removed {
			s.onChange(ctx, Change{Op: OpRemove, Task: task, Err: err})
		}
	}
	return len(removed), err
}

func (s *Store) uniqueID() (string, error) {
	for attempt := 0; attempt < maxIDAttempts; attempt++ {
		id, err := s.newID()
		if err != nil {
			return "", fmt.Errorf("generate task id: %w", err)
		}
		if strings.TrimSpace(id) != "" && s.tasks.Index(id) < 0 {
			return id, nil
		}
	}
	return "", fmt.Errorf("generate task id: no unique id after %d attempts", maxIDAttempts)
}

func (s *Store) changed(ctx context.Context, op Op, task Task, err error) {
	s.emitRender()
	if s.onChange != nil {
		s.onChange(ctx, Change{Op: op, Task: task, Err: err})
	}
}

func (s *Store) emitRender() {
	if s.render != nil {
		s.render(s.Tasks())
	}
}
