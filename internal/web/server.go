// Package web serves the task list over HTTP as JSON.
package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/mux"

	"github.com/nibzard/tasklist-go/internal/export"
	"github.com/nibzard/tasklist-go/internal/storage"
	"github.com/nibzard/tasklist-go/internal/todo"
)

// WarningHeader carries the storage warning of a response.
const WarningHeader = "X-Tasklist-Warning"

// maxBodyBytes limits request bodies.
const maxBodyBytes = 64 << 10

// Server exposes a todo.Store over HTTP. Requests are serialized because
// the store is single-threaded.
type Server struct {
	mu     sync.Mutex
	store  *todo.Store
	slot   storage.Storage
	logger *log.Logger
}

// NewServer creates a server over store. slot is probed by /healthz and may
// be nil.
func NewServer(store *todo.Store, slot storage.Storage, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Server{store: store, slot: slot, logger: logger}
}

type listResponse struct {
	Tasks   todo.Collection `json:"tasks"`
	Warning string          `json:"warning,omitempty"`
}

type taskResponse struct {
	Task    todo.Task `json:"task"`
	Warning string    `json:"warning,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type healthResponse struct {
	Status  string `json:"status"`
	Key     string `json:"key"`
	Tasks   int    `json:"tasks"`
	Warning string `json:"warning,omitempty"`
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	router := mux.NewRouter()
	router.Use(s.logRequests)
	router.HandleFunc("/tasks", s.listTasks).Methods(http.MethodGet)
	router.HandleFunc("/tasks", s.createTask).Methods(http.MethodPost)
	router.HandleFunc("/tasks/completed", s.clearCompleted).Methods(http.MethodDelete)
	router.HandleFunc("/tasks/{id}", s.getTask).Methods(http.MethodGet)
	router.HandleFunc("/tasks/{id}", s.deleteTask).Methods(http.MethodDelete)
	router.HandleFunc("/tasks/{id}/toggle", s.toggleTask).Methods(http.MethodPost)
	router.HandleFunc("/export", s.exportTasks).Methods(http.MethodGet)
	router.HandleFunc("/reload", s.reload).Methods(http.MethodPost)
	router.HandleFunc("/healthz", s.health).Methods(http.MethodGet)
	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})
	return router
}

// ListenAndServe serves on addr until ctx is done, then shuts down
// gracefully. ready, if non-nil, receives the bound address.
func (s *Server) ListenAndServe(ctx context.Context, addr string, ready func(net.Addr)) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	if ready != nil {
		ready(ln.Addr())
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	}
}

func (s *Server) listTasks(w http.ResponseWriter, r *http.Request) {
	filter, err := todo.ParseFilter(r.URL.Query().Get("filter"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.mu.Lock()
	tasks := s.store.Tasks().Filter(filter)
	warning := todo.UserMessage(s.store.Err())
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, warning, listResponse{Tasks: tasks, Warning: warning})
}

func (s *Server) getTask(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	s.mu.Lock()
	task, ok := s.store.Get(id)
	s.mu.Unlock()

	if !ok {
		writeError(w, http.StatusNotFound, "task not found")
		return
	}
	writeJSON(w, http.StatusOK, "", taskResponse{Task: task})
}

func (s *Server) createTask(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	s.mu.Lock()
	task, err := s.store.Add(r.Context(), req.Text)
	s.mu.Unlock()

	if task == nil {
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeError(w, http.StatusUnprocessableEntity, "task text is empty")
		return
	}
	warning := todo.UserMessage(err)
	writeJSON(w, http.StatusCreated, warning, taskResponse{Task: *task, Warning: warning})
}

func (s *Server) toggleTask(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	s.mu.Lock()
	ok, err := s.store.Toggle(r.Context(), id)
	task, _ := s.store.Get(id)
	s.mu.Unlock()

	if !ok {
		writeError(w, http.StatusNotFound, "task not found")
		return
	}
	warning := todo.UserMessage(err)
	writeJSON(w, http.StatusOK, warning, taskResponse{Task: task, Warning: warning})
}

func (s *Server) deleteTask(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	s.mu.Lock()
	ok, err := s.store.Remove(r.Context(), id)
	s.mu.Unlock()

	if !ok {
		writeError(w, http.StatusNotFound, "task not found")
		return
	}
	if err != nil {
		w.Header().Set(WarningHeader, todo.UserMessage(err))
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) clearCompleted(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	n, err := s.store.RemoveCompleted(r.Context())
	s.mu.Unlock()

	warning := todo.UserMessage(err)
	writeJSON(w, http.StatusOK, warning, struct {
		Removed int    `json:"removed"`
		Warning string `json:"warning,omitempty"`
	}{n, warning})
}

func (s *Server) exportTasks(w http.ResponseWriter, r *http.Request) {
	format, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.mu.Lock()
	tasks := s.store.Tasks()
	s.mu.Unlock()

	var buf bytes.Buffer
	if err := export.Write(&buf, tasks, format); err != nil {
		s.logger.Error("export failed", "format", format, "err", err)
		writeError(w, http.StatusInternalServerError, "export failed")
		return
	}
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "tasks."+string(format)))
	w.Write(buf.Bytes())
}

func (s *Server) reload(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	tasks, err := s.store.Load(r.Context())
	s.mu.Unlock()

	warning := todo.UserMessage(err)
	writeJSON(w, http.StatusOK, warning, listResponse{Tasks: tasks, Warning: warning})
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	resp := healthResponse{
		Status: "ok",
		Key:    s.store.Key(),
		Tasks:  len(s.store.Tasks()),
	}
	s.mu.Unlock()

	status := http.StatusOK
	if err := storage.Probe(r.Context(), s.slot); err != nil {
		resp.Status = "degraded"
		resp.Warning = err.Error()
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp.Warning, resp)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Debug("request", "method", r.Method, "path", r.URL.Path, "status", rec.status, "duration", time.Since(start))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func writeJSON(w http.ResponseWriter, status int, warning string, v any) {
	w.Header().Set("Content-Type", "application/json")
	if warning != "" {
		w.Header().Set(WarningHeader, warning)
	}
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, "", errorResponse{Error: msg})
}
