package kvstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/starford/planthub/internal/apperr"
	"github.com/starford/planthub/internal/checksum"
)

const fileExt = ".json"

// FS implements Provider with one JSON file per key under a root directory.
type FS struct {
	root string // absolute path to data directory

	mu      sync.Mutex
	written map[string]string // key -> checksum of our last write
}

// NewFS creates a new FS provider rooted at the given directory.
// The directory must already exist.
func NewFS(root string) (*FS, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("kvstore: resolve root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("kvstore: stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("kvstore: root is not a directory: %s", abs)
	}
	return &FS{root: abs, written: make(map[string]string)}, nil
}

// Root returns the absolute data directory.
func (f *FS) Root() string { return f.root }

// PathFor returns the file backing key.
func (f *FS) PathFor(key string) (string, error) {
	if err := ValidateKey(key); err != nil {
		return "", err
	}
	return filepath.Join(f.root, key+fileExt), nil
}

// KeyForPath maps a file path inside the root back to its key.
func (f *FS) KeyForPath(path string) (string, bool) {
	if filepath.Dir(path) != f.root {
		return "", false
	}
	name := filepath.Base(path)
	if !strings.HasSuffix(name, fileExt) {
		return "", false
	}
	key := strings.TrimSuffix(name, fileExt)
	if ValidateKey(key) != nil {
		return "", false
	}
	return key, true
}

// LastWritten returns the checksum of the last value this process wrote
// under key, or "" if it has not written it.
func (f *FS) LastWritten(key string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.written[key]
}

// Get reads the file backing key.
func (f *FS) Get(_ context.Context, key string) ([]byte, error) {
	p, err := f.PathFor(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("kvstore: %s: %w", key, apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("kvstore: read %s: %w", key, err)
	}
	return data, nil
}

// Put atomically writes value: tmp file → fsync → rename.
func (f *FS) Put(_ context.Context, key string, value []byte) error {
	p, err := f.PathFor(key)
	if err != nil {
		return err
	}

	// Record before the rename so a watcher event racing the write
	// already sees it as ours.
	f.mu.Lock()
	prev, had := f.written[key]
	f.written[key] = checksum.Sum(value)
	f.mu.Unlock()

	if err := writeAtomic(f.root, p, value); err != nil {
		f.mu.Lock()
		if had {
			f.written[key] = prev
		} else {
			delete(f.written, key)
		}
		f.mu.Unlock()
		return err
	}
	return nil
}

func writeAtomic(dir, dst string, content []byte) error {
	tmp, err := os.CreateTemp(dir, ".planthub-tmp-*")
	if err != nil {
		return fmt.Errorf("kvstore: create temp: %w", err)
	}
	tmpName := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(content); err != nil {
		return fmt.Errorf("kvstore: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("kvstore: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("kvstore: close temp: %w", err)
	}
	if err := os.Rename(tmpName, dst); err != nil {
		return fmt.Errorf("kvstore: rename: %w", err)
	}
	success = true
	return nil
}

// Delete removes the file backing key.
func (f *FS) Delete(_ context.Context, key string) error {
	p, err := f.PathFor(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("kvstore: delete %s: %w", key, err)
	}
	f.mu.Lock()
	delete(f.written, key)
	f.mu.Unlock()
	return nil
}

// Keys lists the keys with a backing file in the root directory.
func (f *FS) Keys(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(f.root)
	if err != nil {
		return nil, fmt.Errorf("kvstore: list: %w", err)
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if key, ok := f.KeyForPath(filepath.Join(f.root, e.Name())); ok {
			out = append(out, key)
		}
	}
	sort.Strings(out)
	return out, nil
}

// Close is a no-op for the file system backend.
func (f *FS) Close() error { return nil }
