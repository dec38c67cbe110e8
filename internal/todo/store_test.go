package todo

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/nibzard/tasklist-go/internal/storage"
)

func newTestStore(t *testing.T, slot storage.Storage, opts ...Option) *Store {
	t.Helper()
	n := 0
	base := []Option{
		WithIDGenerator(func() (string, error) {
			n++
			return fmt.Sprintf("id-%03d", n), nil
		}),
		WithClock(func() time.Time {
			return time.UnixMilli(1700000000000 + int64(n)*1000)
		}),
	}
	return New(slot, append(base, opts...)...)
}

func assertUniqueIDs(t *testing.T, c Collection) {
	t.Helper()
	if dup := c.DuplicateID(); dup != "" {
		t.Fatalf("collection has duplicate id %q", dup)
	}
}

func TestStoreLoadMissingKey(t *testing.T) {
	s := newTestStore(t, storage.NewMemoryStorage())
	tasks, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if tasks == nil || len(tasks) != 0 {
		t.Errorf("Load() = %#v, want empty collection", tasks)
	}
}

func TestStoreAddBlankText(t *testing.T) {
	ctx := context.Background()
	slot := storage.NewMemoryStorage()
	s := newTestStore(t, slot)

	for _, text := range []string{"", "   ", "\t\n"} {
		task, err := s.Add(ctx, text)
		if err != nil {
			t.Fatalf("Add(%q) error = %v", text, err)
		}
		if task != nil {
			t.Errorf("Add(%q) = %+v, want nil", text, task)
		}
	}
	if got := len(s.Tasks()); got != 0 {
		t.Errorf("len(Tasks()) = %d, want 0", got)
	}
	if slot.Keys() != 0 {
		t.Error("blank add should not write to storage")
	}
}

func TestStoreAddThenReload(t *testing.T) {
	ctx := context.Background()
	slot := storage.NewMemoryStorage()

	s := newTestStore(t, slot)
	task, err := s.Add(ctx, "  buy milk ")
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if task == nil || task.Text != "buy milk" || task.Completed {
		t.Fatalf("Add() = %+v", task)
	}

	reloaded := New(slot)
	tasks, err := reloaded.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(tasks) != 1 {
		t.Fatalf("len(tasks) = %d, want 1", len(tasks))
	}
	if tasks[0].Text != "buy milk" || tasks[0].Completed {
		t.Errorf("reloaded task = %+v", tasks[0])
	}
	if tasks[0].ID != task.ID {
		t.Errorf("reloaded id = %q, want %q", tasks[0].ID, task.ID)
	}
	if !tasks[0].CreatedAt.Equal(task.CreatedAt.Time) {
		t.Errorf("reloaded createdAt = %v, want %v", tasks[0].CreatedAt.Time, task.CreatedAt.Time)
	}
}

func TestStoreToggle(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, storage.NewMemoryStorage())
	task, _ := s.Add(ctx, "a")

	ok, err := s.Toggle(ctx, task.ID)
	if !ok || err != nil {
		t.Fatalf("Toggle() = %v, %v", ok, err)
	}
	if got, _ := s.Get(task.ID); !got.Completed {
		t.Error("first toggle should complete the task")
	}

	ok, err = s.Toggle(ctx, task.ID)
	if !ok || err != nil {
		t.Fatalf("Toggle() = %v, %v", ok, err)
	}
	if got, _ := s.Get(task.ID); got.Completed {
		t.Error("second toggle should restore the original state")
	}

	before := s.Tasks()
	ok, err = s.Toggle(ctx, "unknown")
	if ok || err != nil {
		t.Errorf("Toggle(unknown) = %v, %v, want false, nil", ok, err)
	}
	after := s.Tasks()
	if len(after) != len(before) || after[0] != before[0] {
		t.Error("Toggle(unknown) changed the collection")
	}
}

func TestStoreRemoveTwice(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, storage.NewMemoryStorage())
	a, _ := s.Add(ctx, "a")
	s.Add(ctx, "b")
	s.Add(ctx, "c")

	ok, err := s.Remove(ctx, a.ID)
	if !ok || err != nil {
		t.Fatalf("Remove() = %v, %v", ok, err)
	}
	if got := len(s.Tasks()); got != 2 {
		t.Fatalf("len after remove = %d, want 2", got)
	}

	ok, err = s.Remove(ctx, a.ID)
	if ok || err != nil {
		t.Errorf("second Remove() = %v, %v, want false, nil", ok, err)
	}
	if got := s.Tasks(); !equalIDs(got, "id-002", "id-003") {
		t.Errorf("ids = %v, want [id-002 id-003]", ids(got))
	}
}

func TestStoreScenario(t *testing.T) {
	ctx := context.Background()
	slot := storage.NewMemoryStorage()
	s := newTestStore(t, slot)

	a, _ := s.Add(ctx, "a")
	b, _ := s.Add(ctx, "b")
	if _, err := s.Toggle(ctx, a.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Remove(ctx, b.ID); err != nil {
		t.Fatal(err)
	}

	check := func(label string, tasks Collection) {
		t.Helper()
		if len(tasks) != 1 {
			t.Fatalf("%s: len = %d, want 1", label, len(tasks))
		}
		if tasks[0].Text != "a" || !tasks[0].Completed {
			t.Errorf("%s: task = %+v, want {text:a completed:true}", label, tasks[0])
		}
	}
	check("in memory", s.Tasks())

	tasks, err := New(slot).Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	check("reloaded", tasks)
}

func TestStoreSaveLoadRoundTripIsByteIdentical(t *testing.T) {
	ctx := context.Background()
	slot := storage.NewMemoryStorage()
	s := newTestStore(t, slot)
	s.Add(ctx, "one")
	s.Add(ctx, "two")
	s.Toggle(ctx, "id-001")

	var payloads [][]byte
	for i := 0; i < 2; i++ {
		tasks, err := s.Load(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if err := s.Save(ctx, tasks); err != nil {
			t.Fatal(err)
		}
		data, err := slot.Get(ctx, DefaultKey)
		if err != nil {
			t.Fatal(err)
		}
		payloads = append(payloads, data)
	}
	if !bytes.Equal(payloads[0], payloads[1]) {
		t.Errorf("payloads differ:\n%s\n%s", payloads[0], payloads[1])
	}
}

func TestStoreIDsStayUnique(t *testing.T) {
	ctx := context.Background()
	slot := storage.NewMemoryStorage()
	s := New(slot)

	for i := 0; i < 50; i++ {
		task, err := s.Add(ctx, fmt.Sprintf("task %d", i))
		if err != nil {
			t.Fatal(err)
		}
		switch i % 3 {
		case 1:
			s.Toggle(ctx, task.ID)
		case 2:
			s.Remove(ctx, task.ID)
		}
		assertUniqueIDs(t, s.Tasks())
	}

	// A reload followed by more adds must not reuse ids.
	s = New(slot)
	if _, err := s.Load(ctx); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 10; i++ {
		s.Add(ctx, "after reload")
	}
	assertUniqueIDs(t, s.Tasks())
}

func TestStoreRegeneratesCollidingID(t *testing.T) {
	ctx := context.Background()
	seq := []string{"dup", "dup", "dup", "fresh"}
	s := New(storage.NewMemoryStorage(), WithIDGenerator(func() (string, error) {
		id := seq[0]
		seq = seq[1:]
		return id, nil
	}))

	first, _ := s.Add(ctx, "first")
	second, err := s.Add(ctx, "second")
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if first.ID != "dup" || second.ID != "fresh" {
		t.Errorf("ids = %q, %q, want dup, fresh", first.ID, second.ID)
	}
}

func TestStoreIDGeneratorExhausted(t *testing.T) {
	ctx := context.Background()
	s := New(storage.NewMemoryStorage(), WithIDGenerator(func() (string, error) {
		return "same", nil
	}))
	if _, err := s.Add(ctx, "first"); err != nil {
		t.Fatal(err)
	}
	task, err := s.Add(ctx, "second")
	if err == nil || task != nil {
		t.Errorf("Add() = %+v, %v, want error", task, err)
	}
	if got := len(s.Tasks()); got != 1 {
		t.Errorf("len(Tasks()) = %d, want 1", got)
	}
}

func TestStoreLoadErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("corrupt payload", func(t *testing.T) {
		slot := storage.NewMemoryStorage()
		slot.Set(ctx, DefaultKey, []byte("{definitely not a task list"))
		var logs bytes.Buffer
		s := New(slot, WithLogger(log.New(&logs)))

		tasks, err := s.Load(ctx)
		if !IsKind(err, KindReadCorrupt) {
			t.Fatalf("Load() error = %v, want read-corrupt", err)
		}
		if len(tasks) != 0 {
			t.Errorf("len(tasks) = %d, want 0", len(tasks))
		}
		if !strings.Contains(logs.String(), "corrupt") {
			t.Errorf("expected corrupt payload to be logged, got %q", logs.String())
		}
	})

	t.Run("invalid records", func(t *testing.T) {
		slot := storage.NewMemoryStorage()
		slot.Set(ctx, DefaultKey, []byte(`[{"id":"a","text":""}]`))
		_, err := New(slot).Load(ctx)
		if !IsKind(err, KindReadCorrupt) {
			t.Fatalf("Load() error = %v, want read-corrupt", err)
		}
		var ve *ValidationError
		if !errors.As(err, &ve) {
			t.Errorf("error %v should wrap a *ValidationError", err)
		}
	})

	t.Run("unavailable", func(t *testing.T) {
		slot := &storage.MemoryStorage{Disabled: true}
		tasks, err := New(slot).Load(ctx)
		if !IsKind(err, KindUnavailable) {
			t.Fatalf("Load() error = %v, want unavailable", err)
		}
		if !errors.Is(err, storage.ErrUnavailable) {
			t.Errorf("error %v should wrap storage.ErrUnavailable", err)
		}
		if len(tasks) != 0 {
			t.Errorf("len(tasks) = %d, want 0", len(tasks))
		}
	})

	t.Run("nil storage", func(t *testing.T) {
		_, err := New(nil).Load(ctx)
		if !IsKind(err, KindUnavailable) {
			t.Fatalf("Load() error = %v, want unavailable", err)
		}
	})
}

func TestStoreWriteFailureKeepsMutation(t *testing.T) {
	ctx := context.Background()

	t.Run("quota exceeded", func(t *testing.T) {
		slot := &storage.MemoryStorage{Quota: 10}
		s := newTestStore(t, slot)

		task, err := s.Add(ctx, "a task too large for the quota")
		if !IsKind(err, KindWriteFailure) {
			t.Fatalf("Add() error = %v, want write-failure", err)
		}
		if !errors.Is(err, storage.ErrQuotaExceeded) {
			t.Errorf("error %v should wrap storage.ErrQuotaExceeded", err)
		}
		if task == nil {
			t.Fatal("Add() should return the task even when the write fails")
		}
		if got := len(s.Tasks()); got != 1 {
			t.Errorf("len(Tasks()) = %d, want 1", got)
		}
		if s.Err() == nil {
			t.Error("Err() should report the failed write")
		}
	})

	t.Run("unavailable", func(t *testing.T) {
		slot := &storage.MemoryStorage{Disabled: true}
		s := newTestStore(t, slot)
		s.Load(ctx)

		task, err := s.Add(ctx, "offline")
		if !IsKind(err, KindUnavailable) {
			t.Fatalf("Add() error = %v, want unavailable", err)
		}
		ok, err := s.Toggle(ctx, task.ID)
		if !ok || !IsKind(err, KindUnavailable) {
			t.Errorf("Toggle() = %v, %v", ok, err)
		}
		if got, _ := s.Get(task.ID); !got.Completed {
			t.Error("toggle should apply in memory while storage is down")
		}
		ok, err = s.Remove(ctx, task.ID)
		if !ok || !IsKind(err, KindUnavailable) {
			t.Errorf("Remove() = %v, %v", ok, err)
		}
		if got := len(s.Tasks()); got != 0 {
			t.Errorf("len(Tasks()) = %d, want 0", got)
		}
	})

	t.Run("recovers after storage returns", func(t *testing.T) {
		slot := storage.NewMemoryStorage()
		s := newTestStore(t, slot)
		slot.Disabled = true
		s.Add(ctx, "queued")
		if s.Err() == nil {
			t.Fatal("Err() should be set while storage is disabled")
		}
		slot.Disabled = false
		s.Add(ctx, "flushed")
		if s.Err() != nil {
			t.Errorf("Err() = %v, want nil after a successful write", s.Err())
		}
		tasks, _ := New(slot).Load(ctx)
		if len(tasks) != 2 {
			t.Errorf("reloaded %d tasks, want 2", len(tasks))
		}
	})
}

// readFailingStorage refuses reads while writes still go through.
type readFailingStorage struct {
	*storage.MemoryStorage
	failReads bool
}

func (s *readFailingStorage) Get(ctx context.Context, key string) ([]byte, error) {
	if s.failReads {
		return nil, storage.ErrUnavailable
	}
	return s.MemoryStorage.Get(ctx, key)
}

func TestStoreUnreadableSlotIsNotOverwritten(t *testing.T) {
	ctx := context.Background()
	slot := &readFailingStorage{MemoryStorage: storage.NewMemoryStorage()}
	seed := newTestStore(t, slot)
	for _, text := range []string{"one", "two", "three"} {
		if _, err := seed.Add(ctx, text); err != nil {
			t.Fatalf("seed Add(%q) error = %v", text, err)
		}
	}
	stored, _ := slot.MemoryStorage.Get(ctx, DefaultKey)

	slot.failReads = true
	s := newTestStore(t, slot)
	if _, err := s.Load(ctx); !IsKind(err, KindUnavailable) {
		t.Fatalf("Load() error = %v, want unavailable", err)
	}

	task, err := s.Add(ctx, "four")
	if !IsKind(err, KindUnavailable) {
		t.Fatalf("Add() error = %v, want unavailable", err)
	}
	if task == nil || len(s.Tasks()) != 1 {
		t.Fatalf("Add() should still apply in memory, tasks = %+v", s.Tasks())
	}
	s.Toggle(ctx, task.ID)
	s.RemoveCompleted(ctx)

	after, _ := slot.MemoryStorage.Get(ctx, DefaultKey)
	if !bytes.Equal(after, stored) {
		t.Errorf("slot payload changed after failed load:\n got %s\nwant %s", after, stored)
	}

	slot.failReads = false
	tasks, err := s.Load(ctx)
	if err != nil || len(tasks) != 3 {
		t.Fatalf("reload = %d tasks, %v; want 3, nil", len(tasks), err)
	}
	if _, err := s.Add(ctx, "four"); err != nil {
		t.Fatalf("Add() after recovery error = %v", err)
	}
	if tasks, _ := New(slot).Load(ctx); len(tasks) != 4 {
		t.Errorf("persisted %d tasks after recovery, want 4", len(tasks))
	}
}

func TestStoreSave(t *testing.T) {
	ctx := context.Background()
	slot := storage.NewMemoryStorage()
	s := newTestStore(t, slot)

	tasks := Collection{{ID: "x", Text: "one"}, {ID: "y", Text: "two"}}
	if err := s.Save(ctx, tasks); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	tasks[0].Text = "mutated by caller"
	if got, _ := s.Get("x"); got.Text != "one" {
		t.Error("Save should copy the collection")
	}

	err := s.Save(ctx, Collection{{ID: "x", Text: "a"}, {ID: "x", Text: "b"}})
	if !errors.Is(err, ErrDuplicateID) {
		t.Errorf("Save(duplicates) error = %v, want ErrDuplicateID", err)
	}
	if got := s.Tasks(); !equalIDs(got, "x", "y") {
		t.Errorf("rejected Save changed the collection: %v", ids(got))
	}
}

func TestStoreDuplicateIDsOnLoad(t *testing.T) {
	ctx := context.Background()
	slot := storage.NewMemoryStorage()
	slot.Set(ctx, DefaultKey, []byte(`[{"id":"a","text":"one"},{"id":"a","text":"two"},{"id":"b","text":"three"}]`))
	var logs bytes.Buffer
	s := New(slot, WithLogger(log.New(&logs)))

	tasks, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !equalIDs(tasks, "a", "b") || tasks[0].Text != "one" {
		t.Errorf("Load() = %+v", tasks)
	}
	if !strings.Contains(logs.String(), "duplicate") {
		t.Errorf("expected duplicate id warning, got %q", logs.String())
	}
}

func TestStoreSortOnLoad(t *testing.T) {
	ctx := context.Background()
	payload := []byte(`[{"id":"late","text":"late","createdAt":3000},{"id":"early","text":"early","createdAt":"1970-01-01T00:00:01Z"},{"id":"mid","text":"mid","createdAt":2000}]`)

	tests := []struct {
		sort bool
		want []string
	}{
		{false, []string{"late", "early", "mid"}},
		{true, []string{"early", "mid", "late"}},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("sort=%v", tt.sort), func(t *testing.T) {
			slot := storage.NewMemoryStorage()
			slot.Set(ctx, DefaultKey, payload)
			tasks, err := New(slot, WithSortOnLoad(tt.sort)).Load(ctx)
			if err != nil {
				t.Fatal(err)
			}
			if !equalIDs(tasks, tt.want...) {
				t.Errorf("ids = %v, want %v", ids(tasks), tt.want)
			}
		})
	}
}

func TestStoreKey(t *testing.T) {
	ctx := context.Background()
	slot := storage.NewMemoryStorage()
	s := newTestStore(t, slot, WithKey("todoAppTasks"))
	if s.Key() != "todoAppTasks" {
		t.Errorf("Key() = %q", s.Key())
	}
	s.Add(ctx, "keyed")
	if _, err := slot.Get(ctx, "todoAppTasks"); err != nil {
		t.Errorf("payload not written under custom key: %v", err)
	}
	if _, err := slot.Get(ctx, DefaultKey); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("default key should be untouched, got %v", err)
	}

	if got := New(slot, WithKey("  ")).Key(); got != DefaultKey {
		t.Errorf("blank WithKey: Key() = %q, want %q", got, DefaultKey)
	}
}

func TestStoreRenderAndChangeHooks(t *testing.T) {
	ctx := context.Background()
	var events []string
	s := newTestStore(t, storage.NewMemoryStorage(),
		WithRender(func(c Collection) {
			events = append(events, fmt.Sprintf("render:%d", len(c)))
		}),
		WithChangeHook(func(_ context.Context, ch Change) {
			events = append(events, fmt.Sprintf("%s:%s", ch.Op, ch.Task.ID))
		}),
	)

	s.Load(ctx)
	a, _ := s.Add(ctx, "a")
	s.Add(ctx, "   ")
	s.Toggle(ctx, a.ID)
	s.Toggle(ctx, "missing")
	s.Remove(ctx, a.ID)

	want := []string{
		"render:0",
		"render:1", "add:id-001",
		"render:1", "toggle:id-001",
		"render:0", "remove:id-001",
	}
	if strings.Join(events, " ") != strings.Join(want, " ") {
		t.Errorf("events = %v\nwant %v", events, want)
	}
}

func TestStoreChangeHookSeesWriteError(t *testing.T) {
	ctx := context.Background()
	var got []Change
	s := newTestStore(t, &storage.MemoryStorage{Disabled: true},
		WithChangeHook(func(_ context.Context, ch Change) { got = append(got, ch) }),
	)
	s.Add(ctx, "a")
	if len(got) != 1 || !IsKind(got[0].Err, KindUnavailable) {
		t.Errorf("changes = %+v", got)
	}
}

func TestStoreRemoveCompleted(t *testing.T) {
	ctx := context.Background()
	slot := storage.NewMemoryStorage()
	var removed []string
	s := newTestStore(t, slot, WithChangeHook(func(_ context.Context, ch Change) {
		if ch.Op == OpRemove {
			removed = append(removed, ch.Task.ID)
		}
	}))
	s.Add(ctx, "a")
	s.Add(ctx, "b")
	s.Add(ctx, "c")
	s.Toggle(ctx, "id-001")
	s.Toggle(ctx, "id-003")

	n, err := s.RemoveCompleted(ctx)
	if err != nil || n != 2 {
		t.Fatalf("RemoveCompleted() = %d, %v, want 2, nil", n, err)
	}
	if got := s.Tasks(); !equalIDs(got, "id-002") {
		t.Errorf("ids = %v, want [id-002]", ids(got))
	}
	if strings.Join(removed, ",") != "id-001,id-003" {
		t.Errorf("removed = %v", removed)
	}

	n, err = s.RemoveCompleted(ctx)
	if n != 0 || err != nil {
		t.Errorf("second RemoveCompleted() = %d, %v, want 0, nil", n, err)
	}
}

func TestStoreTasksIsCopy(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, storage.NewMemoryStorage())
	s.Add(ctx, "a")
	tasks := s.Tasks()
	tasks[0].Text = "changed"
	if got, _ := s.Get("id-001"); got.Text != "a" {
		t.Error("Tasks() exposes internal state")
	}
}

func TestNewIDIsUUIDv7(t *testing.T) {
	a, err := NewID()
	if err != nil {
		t.Fatal(err)
	}
	b, _ := NewID()
	if a == b {
		t.Errorf("NewID() returned %q twice", a)
	}
	if len(a) != 36 || a[14] != '7' {
		t.Errorf("NewID() = %q, want a version 7 UUID", a)
	}
}
