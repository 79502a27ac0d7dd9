package storage

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"yd-go/internal/yd"
)

const itemExt = ".json"

// FileSystemStorage keeps one file per key:
//
//	<root>/
//	  <escaped key>.json
//
// Writes go through a temp file and a rename so a crash never leaves a
// half-written library behind.
type FileSystemStorage struct {
	root string
}

// NewFileSystemStorage creates a store rooted at the given directory.
func NewFileSystemStorage(root string) (*FileSystemStorage, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &FileSystemStorage{root: root}, nil
}

func (s *FileSystemStorage) path(key string) string {
	return filepath.Join(s.root, url.PathEscape(key)+itemExt)
}

func (s *FileSystemStorage) GetItem(key string) (string, bool, error) {
	data, err := os.ReadFile(s.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to read item %q: %w", key, err)
	}
	return string(data), true, nil
}

func (s *FileSystemStorage) SetItem(key, value string) error {
	return s.writeFile(s.path(key), value)
}

func (s *FileSystemStorage) RemoveItem(key string) error {
	if err := os.Remove(s.path(key)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove item %q: %w", key, err)
	}
	return nil
}

func (s *FileSystemStorage) Keys() ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("failed to list storage directory: %w", err)
	}

	var keys []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".tmp-") || !strings.HasSuffix(name, itemExt) {
			continue
		}
		key, err := url.PathUnescape(strings.TrimSuffix(name, itemExt))
		if err != nil {
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys, nil
}

// writeFile writes value to destPath using atomic write (temp file + rename).
func (s *FileSystemStorage) writeFile(destPath, value string) error {
	tmpFile, err := os.CreateTemp(s.root, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	written, err := tmpFile.WriteString(value)
	if err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to write data: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if written != len(value) {
		return fmt.Errorf("size mismatch: expected %d bytes, got %d", len(value), written)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	success = true
	return nil
}

var _ yd.Storage = (*FileSystemStorage)(nil)
