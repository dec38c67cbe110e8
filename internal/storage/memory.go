package storage

import (
	"context"
	"fmt"
	"sync"
)

// MemoryStorage is a process-local backend. Quota and Disabled let callers
// reproduce the failure modes of real storage.
type MemoryStorage struct {
	mu       sync.Mutex
	slots    map[string][]byte
	Quota    int  // total bytes across all keys; <= 0 disables the quota
	Disabled bool // every call fails with ErrUnavailable
}

// NewMemoryStorage returns an empty in-memory backend.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{slots: make(map[string][]byte)}
}

// Get returns a copy of the payload under key.
func (m *MemoryStorage) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Disabled {
		return nil, ErrUnavailable
	}
	v, ok := m.slots[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

// Set stores a copy of value under key.
func (m *MemoryStorage) Set(ctx context.Context, key string, value []byte) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Disabled {
		return ErrUnavailable
	}
	if m.Quota > 0 {
		used := 0
		for k, v := range m.slots {
			if k != key {
				used += len(v)
			}
		}
		if used+len(value) > m.Quota {
			return fmt.Errorf("%w: %d of %d bytes", ErrQuotaExceeded, used+len(value), m.Quota)
		}
	}
	if m.slots == nil {
		m.slots = make(map[string][]byte)
	}
	m.slots[key] = append([]byte(nil), value...)
	return nil
}

// Remove deletes key.
func (m *MemoryStorage) Remove(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Disabled {
		return ErrUnavailable
	}
	delete(m.slots, key)
	return nil
}

// Close is a no-op.
func (m *MemoryStorage) Close() error {
	return nil
}

// Keys returns the number of stored keys.
func (m *MemoryStorage) Keys() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.slots)
}
