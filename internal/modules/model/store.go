package model

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrArtifactNotFound is returned when no artifact has been saved yet.
// Callers treat it as "no model available", not as a failure.
var ErrArtifactNotFound = errors.New("model artifact not found")

// ArtifactStore is the narrow persistence collaborator for the serialized
// model artifact. The core never depends on what is inside the bytes.
type ArtifactStore interface {
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, data []byte) error
}

// FileStore persists the artifact as a single file under the data directory.
type FileStore struct {
	path string
}

// NewFileStore creates a file-backed artifact store.
func NewFileStore(dataDir string) *FileStore {
	return &FileStore{
		path: filepath.Join(dataDir, "model.msgpack"),
	}
}

// Load reads the artifact file.
func (s *FileStore) Load(_ context.Context) ([]byte, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrArtifactNotFound
		}
		return nil, fmt.Errorf("failed to read model artifact: %w", err)
	}
	return data, nil
}

// Save writes the artifact atomically (write-then-rename).
func (s *FileStore) Save(_ context.Context, data []byte) error {
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write model artifact: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace model artifact: %w", err)
	}
	return nil
}
