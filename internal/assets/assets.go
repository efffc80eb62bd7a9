// Package assets holds the default stylesheet and prepares the on-disk asset layout.
package assets

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
)

// StylesheetName is the served and installed stylesheet file name
const StylesheetName = "procore-integration.css"

//go:embed css/procore-integration.css
var defaultStylesheet []byte

// layoutDirs are created under the root on activation
var layoutDirs = []string{
	"assets",
	filepath.Join("assets", "css"),
}

// DefaultStylesheet returns the embedded stylesheet
func DefaultStylesheet() []byte {
	return defaultStylesheet
}

// StylesheetPath returns where the stylesheet lives under root
func StylesheetPath(root string) string {
	return filepath.Join(root, "assets", "css", StylesheetName)
}

// EnsureLayout creates the asset directories under root and installs the default
// stylesheet when none exists. An existing stylesheet is never overwritten.
// It reports whether the stylesheet was written.
func EnsureLayout(root string) (bool, error) {
	for _, dir := range layoutDirs {
		if err := os.MkdirAll(filepath.Join(root, dir), 0o755); err != nil {
			return false, fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}

	path := StylesheetPath(root)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			slog.Debug("stylesheet already present", slog.String("component", "assets"), slog.String("path", path))
			return false, nil
		}
		return false, fmt.Errorf("failed to create stylesheet: %w", err)
	}
	if _, err := f.Write(defaultStylesheet); err != nil {
		_ = f.Close()
		return false, fmt.Errorf("failed to write stylesheet: %w", err)
	}
	if err := f.Close(); err != nil {
		return false, fmt.Errorf("failed to write stylesheet: %w", err)
	}

	slog.Info("installed default stylesheet", slog.String("component", "assets"), slog.String("path", path))
	return true, nil
}

// LoadStylesheet returns the installed stylesheet under root, or the embedded
// default when root has none
func LoadStylesheet(root string) ([]byte, error) {
	data, err := os.ReadFile(StylesheetPath(root))
	if err == nil {
		return data, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return defaultStylesheet, nil
	}
	return nil, err
}
