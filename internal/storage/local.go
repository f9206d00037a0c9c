package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// LocalStore keeps images in a directory on the local filesystem.
type LocalStore struct {
	root string
	now  func() time.Time
}

// NewLocalStore creates a store rooted at dir. Relative paths resolve against the working directory.
func NewLocalStore(dir string) (*LocalStore, error) {
	root, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("storage/local: resolve %s: %w", dir, err)
	}
	return &LocalStore{root: root, now: time.Now}, nil
}

func (s *LocalStore) Save(_ context.Context, originalName string, r io.Reader) (string, error) {
	if err := os.MkdirAll(s.root, 0o755); err != nil {
		return "", fmt.Errorf("storage/local: mkdir: %w", err)
	}

	name := FileName(originalName, s.now())
	f, err := s.create(name)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		_ = os.Remove(f.Name())
		return "", fmt.Errorf("storage/local: write %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("storage/local: close %s: %w", name, err)
	}
	return ImagePath(filepath.Base(f.Name())), nil
}

// create opens a new file exclusively, suffixing the name if a concurrent upload already took it.
func (s *LocalStore) create(name string) (*os.File, error) {
	candidate := name
	for attempt := 1; ; attempt++ {
		f, err := os.OpenFile(filepath.Join(s.root, candidate), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err == nil {
			return f, nil
		}
		if !os.IsExist(err) || attempt >= 100 {
			return nil, fmt.Errorf("storage/local: create %s: %w", candidate, err)
		}
		prefix, rest, _ := strings.Cut(name, "_")
		candidate = fmt.Sprintf("%s-%d_%s", prefix, attempt, rest)
	}
}

func (s *LocalStore) Open(_ context.Context, name string) (io.ReadCloser, error) {
	f, err := os.Open(s.abs(name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotExist
		}
		return nil, fmt.Errorf("storage/local: open %s: %w", name, err)
	}
	return f, nil
}

func (s *LocalStore) Delete(_ context.Context, imagePath string) (bool, error) {
	err := os.Remove(s.abs(NameFromPath(imagePath)))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("storage/local: delete %s: %w", imagePath, err)
	}
	return true, nil
}

// abs confines name to the upload directory.
func (s *LocalStore) abs(name string) string {
	return filepath.Join(s.root, baseName(name))
}
