// Package storage provides key-value slots that hold serialized task lists.
//
// A slot backend stores opaque byte payloads under string keys. The todo
// package keeps exactly one key per list; backends never inspect the payload.
//
// Backends:
//   - file: one file per key inside a data directory (default)
//   - memory: process-local map, lost at exit
//   - mysql: a key/value table in a MySQL database
//   - neo4j: one :Slot node per key in a Neo4j database
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors shared by all backends. Backends wrap them so callers can
// use errors.Is.
var (
	// ErrNotFound reports that the key has never been written.
	ErrNotFound = errors.New("key not found")

	// ErrUnavailable reports that the backend cannot be used at all.
	ErrUnavailable = errors.New("storage unavailable")

	// ErrQuotaExceeded reports that a write was rejected for lack of space.
	ErrQuotaExceeded = errors.New("storage quota exceeded")
)

// ProbeKey is the key written and removed by Probe.
const ProbeKey = "__tasklist_probe__"

// Storage is a persistent key-value slot backend.
type Storage interface {
	// Get returns the payload stored under key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set replaces the payload stored under key.
	Set(ctx context.Context, key string, value []byte) error

	// Remove deletes key. Removing a missing key is not an error.
	Remove(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// Backend names accepted by Open.
const (
	BackendFile   = "file"
	BackendMemory = "memory"
	BackendMySQL  = "mysql"
	BackendNeo4j  = "neo4j"
)

// Options selects and configures a backend for Open.
type Options struct {
	Backend string

	// File backend
	Dir      string
	MaxBytes int64

	// MySQL backend
	MySQLDSN   string
	MySQLTable string

	// Neo4j backend
	Neo4jURI      string
	Neo4jUser     string
	Neo4jPassword string
	Neo4jDatabase string
}

// Open creates the backend named by opts.Backend.
func Open(ctx context.Context, opts Options) (Storage, error) {
	switch NormalizeBackend(opts.Backend) {
	case BackendFile:
		return NewFileStorage(opts.Dir, opts.MaxBytes)
	case BackendMemory:
		return NewMemoryStorage(), nil
	case BackendMySQL:
		return OpenMySQL(ctx, opts.MySQLDSN, opts.MySQLTable)
	case BackendNeo4j:
		return OpenNeo4j(ctx, Neo4jOptions{
			URI:      opts.Neo4jURI,
			Username: opts.Neo4jUser,
			Password: opts.Neo4jPassword,
			Database: opts.Neo4jDatabase,
		})
	default:
		return nil, fmt.Errorf("unknown storage backend %q (expected file|memory|mysql|neo4j)", opts.Backend)
	}
}

// NormalizeBackend lowercases and trims a backend name. An empty name
// selects the file backend.
func NormalizeBackend(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return BackendFile
	}
	return name
}

// Probe checks that s accepts writes by storing and removing ProbeKey.
func Probe(ctx context.Context, s Storage) error {
	if s == nil {
		return ErrUnavailable
	}
	if err := s.Set(ctx, ProbeKey, []byte("probe")); err != nil {
		if errors.Is(err, ErrUnavailable) {
			return err
		}
		return fmt.Errorf("%w: probe write: %v", ErrUnavailable, err)
	}
	if err := s.Remove(ctx, ProbeKey); err != nil {
		return fmt.Errorf("%w: probe remove: %v", ErrUnavailable, err)
	}
	return nil
}

// ValidateKey rejects keys that no backend can store.
func ValidateKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return fmt.Errorf("storage key is empty")
	}
	if len(key) > 255 {
		return fmt.Errorf("storage key is longer than 255 bytes")
	}
	return nil
}
