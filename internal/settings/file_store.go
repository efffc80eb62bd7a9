package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/devilmonastery/procorepress/internal/pkg/metrics"
)

// FileStore keeps the settings record in a JSON file readable only by its owner
type FileStore struct {
	path string
}

// NewFileStore creates a file store at path, creating the parent directory if needed
func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		return nil, errors.New("settings file path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("failed to create settings directory: %w", err)
	}
	return &FileStore{path: path}, nil
}

// DefaultFilePath returns ~/.config/procorepress/settings.json
func DefaultFilePath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "procorepress", "settings.json"), nil
}

// Path returns the file location
func (f *FileStore) Path() string {
	return f.path
}

// Load reads the settings file
func (f *FileStore) Load(_ context.Context) (s Settings, err error) {
	defer func() { metrics.RecordStoreOperation("file", "load", ignoreNotFound(err)) }()

	slog.Debug("loading settings from file",
		slog.String("component", "settings"),
		slog.String("path", f.path))

	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Settings{}, ErrNotFound
		}
		return Settings{}, fmt.Errorf("failed to read settings: %w", err)
	}

	if err := json.Unmarshal(data, &s); err != nil {
		return Settings{}, fmt.Errorf("failed to parse settings: %w", err)
	}
	return s, nil
}

// Save writes the whole record to a temp file and renames it into place
func (f *FileStore) Save(_ context.Context, s Settings) (err error) {
	defer func() { metrics.RecordStoreOperation("file", "save", err) }()

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(f.path), ".settings-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp settings file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			_ = os.Remove(tmpName)
		}
	}()

	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to set settings permissions: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write settings: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write settings: %w", err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		return fmt.Errorf("failed to replace settings file: %w", err)
	}
	return nil
}

// Close is a no-op
func (f *FileStore) Close() error {
	return nil
}

func ignoreNotFound(err error) error {
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	return err
}
