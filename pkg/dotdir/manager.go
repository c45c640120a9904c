// Package dotdir manages the .chatcore/ and ~/.chatcore directories.
//
// The directory holds config.toml, the optional models.toml overrides
// file, the default SQLite database, and the persisted chat session
// state used for resuming conversations.
package dotdir

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

const (
	// dirName is the name of the chatcore directory.
	dirName = ".chatcore"
)

type Manager struct{}

func NewManager() *Manager {
	return &Manager{}
}

// Target returns the target absolute path to a .chatcore/ directory.
// Order of precedence is as follows:
//  1. Provided override (created if missing)
//  2. Local ./.chatcore/ dir
//  3. Home ~/.chatcore/ dir
//
// Returns an empty string with no error when no override is given and
// neither a local nor a home directory exists.
func (m *Manager) Target(overrideDir string) (string, error) {
	if overrideDir != "" {
		if err := os.MkdirAll(overrideDir, 0o755); err != nil {
			return "", fmt.Errorf("creating chatcore directory %s: %w", overrideDir, err)
		}
		return filepath.Abs(overrideDir)
	}

	if dir, ok := m.localDir(); ok {
		return filepath.Abs(dir)
	}

	if dir, ok := m.homeDir(); ok {
		return filepath.Abs(dir)
	}

	return "", nil
}

// Ensure behaves like Target but never returns empty: when nothing is
// found it creates and returns ~/.chatcore.
func (m *Manager) Ensure(overrideDir string) (string, error) {
	dir, err := m.Target(overrideDir)
	if err != nil || dir != "" {
		return dir, err
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}

	dir = filepath.Join(home, dirName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating chatcore directory %s: %w", dir, err)
	}

	return filepath.Abs(dir)
}

// localDir reports the ./.chatcore directory if it exists.
func (m *Manager) localDir() (string, bool) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", false
	}

	dir := filepath.Join(cwd, dirName)
	if info, err := os.Stat(dir); err == nil && info.IsDir() {
		return dir, true
	}
	return "", false
}

// homeDir reports the ~/.chatcore directory if it exists.
func (m *Manager) homeDir() (string, bool) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", false
	}

	dir := filepath.Join(home, dirName)
	info, err := os.Stat(dir)
	if errors.Is(err, os.ErrNotExist) || (err == nil && !info.IsDir()) {
		return "", false
	}
	if err != nil {
		return "", false
	}
	return dir, true
}
