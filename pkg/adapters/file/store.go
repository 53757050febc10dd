// Package file implements the durable store on the local filesystem, one
// JSON file per key. Writes are atomic: temp file in the same directory,
// fsync, then rename.
package file

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/draftbench/draftbench/pkg/domain"
)

const extension = ".json"

// Store keeps each key as a file under a base directory.
type Store struct {
	dir string
}

// New creates a store rooted at dir. An empty dir defaults to
// ".draftbench/state".
func New(dir string) *Store {
	if dir == "" {
		dir = filepath.Join(".draftbench", "state")
	}
	return &Store{dir: dir}
}

// Get reads the value for key.
func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	data, err := os.ReadFile(s.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.ErrKeyNotFound
		}
		return nil, fmt.Errorf("failed to read state file: %w", err)
	}
	return data, nil
}

// Set writes the value atomically: temp file in the same directory (rename
// across filesystems is not atomic), fsync for durability, then rename over
// the destination.
func (s *Store) Set(_ context.Context, key string, value []byte) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("failed to ensure state directory: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, "tmp-*"+extension)
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmp.Write(value); err != nil {
		if errors.Is(err, syscall.ENOSPC) {
			return domain.ErrQuotaExceeded
		}
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("failed to fsync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, s.path(key)); err != nil {
		return fmt.Errorf("failed to move state file into place: %w", err)
	}
	return nil
}

// Delete removes the key's file. Absent files are a no-op.
func (s *Store) Delete(_ context.Context, key string) error {
	err := os.Remove(s.path(key))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete state file: %w", err)
	}
	return nil
}

// Keys lists all stored keys.
func (s *Store) Keys(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to list state directory: %w", err)
	}

	keys := make([]string, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, extension) || strings.HasPrefix(name, "tmp-") {
			continue
		}
		key, err := url.QueryUnescape(strings.TrimSuffix(name, extension))
		if err != nil {
			continue
		}
		keys = append(keys, key)
	}
	return keys, nil
}

// Clear removes every stored key.
func (s *Store) Clear(ctx context.Context) error {
	keys, err := s.Keys(ctx)
	if err != nil {
		return err
	}
	for _, key := range keys {
		if err := s.Delete(ctx, key); err != nil {
			return err
		}
	}
	return nil
}

// Available reports whether the base directory can be created.
func (s *Store) Available() bool {
	return os.MkdirAll(s.dir, 0o755) == nil
}

// path maps a key to a filename. Keys may contain characters that are not
// filename-safe (the default key has a colon), so they are query-escaped.
func (s *Store) path(key string) string {
	return filepath.Join(s.dir, url.QueryEscape(key)+extension)
}
