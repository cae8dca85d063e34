// Package focusstate persists the external window the user paired with
// Lighthouse, so the pairing survives a restart.
package focusstate

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// FileName is the state file inside the app data directory.
const FileName = "focus_state.json"

// WindowInfo identifies an external application window.
//
// WindowID is a synthetic id, process id * 1000 + 1-based window index. It is
// only stable while the owning app keeps its window order.
type WindowInfo struct {
	OwnerName  string `json:"owner_name"`
	WindowName string `json:"window_name"`
	WindowID   int64  `json:"window_id"`
	ProcessID  int32  `json:"process_id"`
}

// Index returns the 1-based window index encoded in WindowID, never below 1.
func (w WindowInfo) Index() int64 {
	idx := w.WindowID % 1000
	if idx < 1 {
		return 1
	}
	return idx
}

type Store struct {
	path string
}

// NewStore keeps the state file in dir.
func NewStore(dir string) *Store {
	return &Store{path: filepath.Join(dir, FileName)}
}

func (s *Store) Path() string { return s.path }

// Load returns the saved window, or nil when nothing was saved.
func (s *Store) Load() (*WindowInfo, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read focus state: %w", err)
	}
	var info WindowInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("failed to parse focus state: %w", err)
	}
	return &info, nil
}

// Save overwrites the state file, creating the directory when needed.
func (s *Store) Save(info WindowInfo) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create data dir: %w", err)
	}
	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize focus state: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write focus state: %w", err)
	}
	return nil
}

// Clear removes the state file. A missing file is not an error.
func (s *Store) Clear() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove focus state: %w", err)
	}
	return nil
}
