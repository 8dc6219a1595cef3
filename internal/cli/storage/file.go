package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/afero"
)

// File stores all keys in a single JSON object on disk. It is used where no
// OS keychain is available (CI, containers) and, over a memory filesystem, in
// tests.
type File struct {
	fs   afero.Fs
	path string
	mu   sync.Mutex
}

// NewFile returns a file storage at path on fs
func NewFile(fs afero.Fs, path string) *File {
	return &File{fs: fs, path: path}
}

// NewMemory returns a storage that lives only in memory
func NewMemory() *File {
	return NewFile(afero.NewMemMapFs(), "/session.json")
}

func (f *File) load() (map[string]string, error) {
	data, err := afero.ReadFile(f.fs, f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("failed to read storage file: %w", err)
	}

	values := map[string]string{}
	if len(data) == 0 {
		return values, nil
	}
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("failed to parse storage file: %w", err)
	}
	return values, nil
}

func (f *File) save(values map[string]string) error {
	if err := f.fs.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return fmt.Errorf("failed to create storage directory: %w", err)
	}

	data, err := json.MarshalIndent(values, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal storage: %w", err)
	}

	// Tokens live here, so keep the file private to the user
	if err := afero.WriteFile(f.fs, f.path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write storage file: %w", err)
	}
	return nil
}

// Get returns the value stored under key
func (f *File) Get(key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	values, err := f.load()
	if err != nil {
		return "", err
	}

	value, ok := values[key]
	if !ok {
		return "", ErrNotFound
	}
	return value, nil
}

// Set stores value under key
func (f *File) Set(key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	values, err := f.load()
	if err != nil {
		return err
	}

	values[key] = value
	return f.save(values)
}

// Delete removes key; deleting a missing key is not an error
func (f *File) Delete(key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	values, err := f.load()
	if err != nil {
		return err
	}

	if _, ok := values[key]; !ok {
		return nil
	}

	delete(values, key)
	return f.save(values)
}
