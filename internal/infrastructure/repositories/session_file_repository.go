package repositories

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/you/taskconsole/domain"
	"github.com/you/taskconsole/internal/session"
)

// FileSessionRepository implements domain.SessionStore as a single JSON file.
// It is the one process-wide slot used by the CLI.
type FileSessionRepository struct {
	path string
}

// NewFileSessionRepository creates a session store persisted at path
func NewFileSessionRepository(path string) *FileSessionRepository {
	return &FileSessionRepository{path: path}
}

// Path returns the file backing the store
func (r *FileSessionRepository) Path() string {
	return r.path
}

// Save implements domain.SessionStore.
// The file is replaced atomically so a crash never leaves half a session behind.
func (r *FileSessionRepository) Save(ctx context.Context, s *domain.Session) error {
	data, err := session.Encode(s)
	if err != nil {
		return err
	}
	dir := filepath.Dir(r.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("failed to create session dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".session-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp session file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write session: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to chmod session file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close session file: %w", err)
	}
	if err := os.Rename(tmp.Name(), r.path); err != nil {
		return fmt.Errorf("failed to replace session file: %w", err)
	}
	return nil
}

// Load implements domain.SessionStore
func (r *FileSessionRepository) Load(ctx context.Context) (*domain.Session, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to read session: %w", err)
	}

	res := session.Decode(data)
	if res.Status == session.OK {
		return res.Session, nil
	}
	if res.Status == session.Corrupt {
		slog.Default().WarnContext(ctx, "discarding corrupt session file", "path", r.path)
	}
	if err := r.Clear(ctx); err != nil {
		slog.Default().ErrorContext(ctx, "failed to remove session file", "path", r.path, "error", err)
	}
	return nil, domain.ErrSessionNotFound
}

// Clear implements domain.SessionStore
func (r *FileSessionRepository) Clear(ctx context.Context) error {
	if err := os.Remove(r.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove session: %w", err)
	}
	return nil
}
