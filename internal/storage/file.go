package storage

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"syscall"
)

// DefaultMaxBytes mirrors the usual browser local storage allowance.
const DefaultMaxBytes int64 = 5 << 20

const slotExt = ".slot"

// FileStorage keeps one file per key inside Dir.
type FileStorage struct {
	Dir      string
	MaxBytes int64 // total bytes across all slots; <= 0 disables the quota
}

// NewFileStorage returns a file backend rooted at dir. The directory is
// created on the first write.
func NewFileStorage(dir string, maxBytes int64) (*FileStorage, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("file storage dir is empty")
	}
	return &FileStorage{Dir: filepath.Clean(dir), MaxBytes: maxBytes}, nil
}

// Path returns the file that holds key.
func (f *FileStorage) Path(key string) string {
	name := url.PathEscape(key)
	if strings.HasPrefix(name, ".") {
		name = "%2E" + name[1:]
	}
	return filepath.Join(f.Dir, name+slotExt)
}

// Get reads the payload stored under key.
func (f *FileStorage) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ValidateKey(key); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(f.Path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: read slot %q: %v", ErrUnavailable, key, err)
	}
	return data, nil
}

// Set writes value under key through a temp file and rename so readers
// never observe a partial payload.
func (f *FileStorage) Set(ctx context.Context, key string, value []byte) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	if err := os.MkdirAll(f.Dir, 0o755); err != nil {
		return fmt.Errorf("%w: create data dir: %v", ErrUnavailable, err)
	}
	if err := f.checkQuota(key, int64(len(value))); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(f.Dir, ".slot-*")
	if err != nil {
		return fmt.Errorf("%w: create temp file: %v", ErrUnavailable, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(value); err != nil {
		tmp.Close()
		return writeError(key, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return writeError(key, err)
	}
	if err := tmp.Close(); err != nil {
		return writeError(key, err)
	}
	if err := os.Rename(tmpName, f.Path(key)); err != nil {
		return writeError(key, err)
	}
	return nil
}

// Remove deletes the file for key.
func (f *FileStorage) Remove(ctx context.Context, key string) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	if err := os.Remove(f.Path(key)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove slot %q: %w", key, err)
	}
	return nil
}

// Close is a no-op for the file backend.
func (f *FileStorage) Close() error {
	return nil
}

// Usage returns the number of bytes held by all slots except skipKey.
func (f *FileStorage) Usage(skipKey string) (int64, error) {
	entries, err := os.ReadDir(f.Dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}
	skip := filepath.Base(f.Path(skipKey))
	var total int64
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, slotExt) || name == skip {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		total += info.Size()
	}
	return total, nil
}

func (f *FileStorage) checkQuota(key string, size int64) error {
	if f.MaxBytes <= 0 {
		return nil
	}
	used, err := f.Usage(key)
	if err != nil {
		return fmt.Errorf("%w: measure data dir: %v", ErrUnavailable, err)
	}
	if used+size > f.MaxBytes {
		return fmt.Errorf("%w: writing %d bytes to %q would use %d of %d bytes",
			ErrQuotaExceeded, size, key, used+size, f.MaxBytes)
	}
	return nil
}

func writeError(key string, err error) error {
	if errors.Is(err, syscall.ENOSPC) {
		return fmt.Errorf("%w: write slot %q: %v", ErrQuotaExceeded, key, err)
	}
	return fmt.Errorf("write slot %q: %w", key, err)
}
