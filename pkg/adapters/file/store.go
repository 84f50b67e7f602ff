package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aretw0/canvass/pkg/domain"
)

const ext = ".json"

// Store implements ports.SessionStore using the local filesystem.
// Sessions live at <BasePath>/<survey>/<session>.json.
type Store struct {
	BasePath string
}

// New creates a new Store with the given base path.
// If basePath is empty, it defaults to ".canvass/sessions".
func New(basePath string) *Store {
	if basePath == "" {
		basePath = filepath.Join(".canvass", "sessions")
	}
	return &Store{BasePath: basePath}
}

func (s *Store) path(key domain.SessionKey) (string, error) {
	if err := key.Validate(); err != nil {
		return "", err
	}
	for _, part := range []string{key.SurveyID, key.SessionID} {
		if part == "." || part == ".." || strings.ContainsAny(part, `\`) {
			return "", fmt.Errorf("%w: %q is not a valid path component", domain.ErrInvalidSessionKey, part)
		}
	}
	return filepath.Join(s.BasePath, key.SurveyID, key.SessionID+ext), nil
}

// Save persists the session state to a JSON file atomically.
// It writes to a temporary file in the same directory, fsyncs it, and renames it over the destination.
func (s *Store) Save(ctx context.Context, key domain.SessionKey, state *domain.SessionState) error {
	destPath, err := s.path(key)
	if err != nil {
		return err
	}
	dir := filepath.Dir(destPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to ensure session directory: %w", err)
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	tmpFile, err := os.CreateTemp(dir, "tmp-"+key.SessionID+"-*"+ext)
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath) // no-op once renamed
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("failed to write to temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("failed to fsync temp file: %w", err)
	}
	// Windows cannot rename an open file.
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	// Windows refuses to rename over an existing file.
	if _, err := os.Stat(destPath); err == nil {
		if err := os.Remove(destPath); err != nil {
			return fmt.Errorf("failed to remove existing session file for overwrite: %w", err)
		}
	}
	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("failed to rename temp file to session file: %w", err)
	}
	return nil
}

// Load retrieves the session state from its JSON file.
func (s *Store) Load(ctx context.Context, key domain.SessionKey) (*domain.SessionState, error) {
	filePath, err := s.path(key)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}

	var state domain.SessionState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session state: %w", err)
	}
	return &state, nil
}

// Delete removes the session file. Missing sessions are not an error.
func (s *Store) Delete(ctx context.Context, key domain.SessionKey) error {
	filePath, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(filePath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete session file: %w", err)
	}
	return nil
}

// List walks the survey directories and returns every stored session key.
func (s *Store) List(ctx context.Context) ([]domain.SessionKey, error) {
	surveys, err := os.ReadDir(s.BasePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []domain.SessionKey{}, nil
		}
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	keys := []domain.SessionKey{}
	for _, dir := range surveys {
		if !dir.IsDir() {
			continue
		}
		entries, err := os.ReadDir(filepath.Join(s.BasePath, dir.Name()))
		if err != nil {
			return nil, fmt.Errorf("failed to list sessions of %s: %w", dir.Name(), err)
		}
		for _, entry := range entries {
			name := entry.Name()
			if entry.IsDir() || filepath.Ext(name) != ext || strings.HasPrefix(name, "tmp-") {
				continue
			}
			keys = append(keys, domain.SessionKey{
				SurveyID:  dir.Name(),
				SessionID: strings.TrimSuffix(name, ext),
			})
		}
	}

	sort.Slice(keys, func(i, j int) bool {
		return keys[i].String() < keys[j].String()
	})
	return keys, nil
}
