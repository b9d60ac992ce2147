package state

import (
	"context"
	"fmt"
	"os"
)

// FileStore keeps the value as the raw contents of a file.
type FileStore struct {
	path string
}

func NewFileStore(path string) FileStore {
	return FileStore{path: path}
}

func (s FileStore) Path() string {
	return s.path
}

func (s FileStore) Read(ctx context.Context) (string, bool, error) {
	contents, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("%w: %w", ErrRead, err)
	}
	return string(contents), true, nil
}

func (s FileStore) Write(ctx context.Context, value string) error {
	err := os.WriteFile(s.path, []byte(value), 0644)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}
	return nil
}

func (s FileStore) Clear(ctx context.Context) error {
	err := os.Remove(s.path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}
	return nil
}
