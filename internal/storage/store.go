// Package storage keeps the currently uploaded image on disk together with
// the artifacts produced while detecting objects on it.
package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
)

var (
	ErrEmptyFilename       = errors.New("no selected file")
	ErrExtensionNotAllowed = errors.New("file type not allowed")
	ErrNotFound            = errors.New("image not found")
)

// Invalidator is notified whenever stored images are replaced or cleaned up.
// Generation must change on every Clear.
type Invalidator interface {
	Clear()
	Generation() uint64
}

// Snapshot is a stored image together with the invalidation generation that
// was current when its bytes were read.
type Snapshot struct {
	Key        string
	Data       []byte
	Generation uint64
}

// Store holds a single active image. Uploading a new one replaces the old
// image, removes its artifacts and invalidates derived state.
type Store struct {
	mu           sync.Mutex
	uploadDir    string
	artifactsDir string
	invalidator  Invalidator
	current      string
}

// NewStore creates the upload and artifact directories if needed.
func NewStore(uploadDir, artifactsDir string, inv Invalidator) (*Store, error) {
	for _, dir := range []string{uploadDir, artifactsDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating directory %s: %w", dir, err)
		}
	}
	return &Store{
		uploadDir:    uploadDir,
		artifactsDir: artifactsDir,
		invalidator:  inv,
	}, nil
}

// Current returns the key of the active image, if any.
func (s *Store) Current() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Replace validates filename, drops the previous image and its artifacts,
// invalidates derived state and stores src under the sanitized name, which is
// returned as the image key.
func (s *Store) Replace(filename string, src io.Reader) (string, error) {
	if filename == "" {
		return "", ErrEmptyFilename
	}
	if !AllowedFile(filename) {
		return "", ErrExtensionNotAllowed
	}
	key := SecureFilename(filename)
	if key == "" || !AllowedFile(key) {
		return "", ErrExtensionNotAllowed
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := clearDir(s.uploadDir); err != nil {
		return "", fmt.Errorf("removing previous image: %w", err)
	}
	s.current = ""
	if _, err := clearDir(s.artifactsDir); err != nil {
		return "", fmt.Errorf("removing artifacts: %w", err)
	}
	if s.invalidator != nil {
		s.invalidator.Clear()
	}

	path := filepath.Join(s.uploadDir, key)
	out, err := os.Create(path) //nolint:gosec // key sanitized via SecureFilename
	if err != nil {
		return "", fmt.Errorf("creating %s: %w", key, err)
	}
	if _, err := io.Copy(out, src); err != nil {
		out.Close()
		os.Remove(path)
		return "", fmt.Errorf("saving %s: %w", key, err)
	}
	if err := out.Close(); err != nil {
		return "", fmt.Errorf("saving %s: %w", key, err)
	}

	s.current = key
	return key, nil
}

// Read returns the bytes of a stored image.
func (s *Store) Read(key string) ([]byte, error) {
	snap, err := s.Load(key)
	if err != nil {
		return nil, err
	}
	return snap.Data, nil
}

// Load reads a stored image and the generation it belongs to. Both are taken
// under the store lock, so a concurrent Replace is either fully before or
// fully after the snapshot.
func (s *Store) Load(key string) (Snapshot, error) {
	if key == "" || SecureFilename(key) != key {
		return Snapshot{}, ErrNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(filepath.Join(s.uploadDir, key))
	if errors.Is(err, os.ErrNotExist) {
		return Snapshot{}, ErrNotFound
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("reading %s: %w", key, err)
	}
	snap := Snapshot{Key: key, Data: data}
	if s.invalidator != nil {
		snap.Generation = s.invalidator.Generation()
	}
	return snap, nil
}

// Cleanup invalidates derived state and removes every artifact. It returns
// the number of removed artifact entries.
func (s *Store) Cleanup() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.invalidator != nil {
		s.invalidator.Clear()
	}
	n, err := clearDir(s.artifactsDir)
	if err != nil {
		return n, fmt.Errorf("removing artifacts: %w", err)
	}
	return n, nil
}

// Purge removes the stored images as well as the artifacts.
func (s *Store) Purge() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.invalidator != nil {
		s.invalidator.Clear()
	}
	s.current = ""
	images, err := clearDir(s.uploadDir)
	if err != nil {
		return images, fmt.Errorf("removing images: %w", err)
	}
	artifacts, err := clearDir(s.artifactsDir)
	if err != nil {
		return images + artifacts, fmt.Errorf("removing artifacts: %w", err)
	}
	return images + artifacts, nil
}

// clearDir removes the contents of dir, keeping dir itself.
func clearDir(dir string) (int, error) {
	if dir == "" {
		return 0, nil
	}
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, e := range entries {
		if err := os.RemoveAll(filepath.Join(dir, e.Name())); err != nil {
			return removed, err
		}
		removed++
	}
	return removed, nil
}
