package todo

import (
	"errors"
	"fmt"
)

// ErrDuplicateID is returned by Save for a collection that repeats an id.
var ErrDuplicateID = errors.New("duplicate task id")

// ErrorKind classifies storage failures.
type ErrorKind string

const (
	// KindUnavailable means the slot cannot be used at all.
	KindUnavailable ErrorKind = "unavailable"
	// KindWriteFailure means a write was rejected, e.g. over quota.
	KindWriteFailure ErrorKind = "write-failure"
	// KindReadCorrupt means the stored payload is not a valid task list.
	KindReadCorrupt ErrorKind = "read-corrupt"
)

// StorageError reports a failed slot read or write. The store keeps running
// in memory after any StorageError.
type StorageError struct {
	Kind ErrorKind
	Op   string // "load" or "save"
	Key  string
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s %q: %s: %v", e.Op, e.Key, e.Kind, e.Err)
}

// Unwrap returns the underlying error.
func (e *StorageError) Unwrap() error {
	return e.Err
}

// Message returns a short sentence suitable for showing to a user.
func (e *StorageError) Message() string {
	switch e.Kind {
	case KindUnavailable:
		return "Storage is unavailable. Changes are kept for this session only."
	case KindWriteFailure:
		return "Unable to save tasks. Storage may be full or read-only; changes are kept for this session only."
	case KindReadCorrupt:
		return "Saved tasks could not be read and were ignored. Starting with an empty list."
	default:
		return e.Error()
	}
}

// IsKind reports whether err is a StorageError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var se *StorageError
	return errors.As(err, &se) && se.Kind == kind
}

// UserMessage returns the presentation text for err: the StorageError
// message when err is one, otherwise err.Error().
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var se *StorageError
	if errors.As(err, &se) {
		return se.Message()
	}
	return err.Error()
}

// ValidationError represents a validation error with context.
type ValidationError struct {
	Path string // path to the offending value, e.g. "[0].text"
	Err  error
}

func (e *ValidationError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s", e.Path, e.Err)
	}
	return e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *ValidationError) Unwrap() error {
	return e.Err
}
