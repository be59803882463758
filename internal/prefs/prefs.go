// Package prefs persists the widget's small key-value preferences as a
// JSON file with debounced writes.
package prefs

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const defaultDebounce = 1 * time.Second

// Preference keys.
const (
	// KeyMoreMinimized is whether the "more chats" overflow list is
	// minimized. The only piece of slot-related layout that survives a
	// restart.
	KeyMoreMinimized = "more_minimized"

	// KeyLastVisited is when the user last opened the widget; drives the
	// click-to-chat login mode.
	KeyLastVisited = "last_visited"
)

type fileState struct {
	Version int                        `json:"version"`
	Values  map[string]json.RawMessage `json:"values,omitempty"`
}

// Store is a file-backed preference store. An empty path keeps everything
// in memory, which tests and embedded hosts use.
type Store struct {
	path string

	mu       sync.Mutex
	values   map[string]json.RawMessage
	dirty    bool
	timer    *time.Timer
	debounce time.Duration
}

// New creates a store persisting to path.
func New(path string) *Store {
	return &Store{
		path:     path,
		values:   make(map[string]json.RawMessage),
		debounce: defaultDebounce,
	}
}

// Load reads the preference file. A missing file is not an error.
func (s *Store) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.path == "" {
		return nil
	}

	payload, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}

	var state fileState
	if err := json.Unmarshal(payload, &state); err != nil {
		return err
	}
	if state.Values == nil {
		state.Values = make(map[string]json.RawMessage)
	}
	s.values = state.Values
	s.dirty = false
	return nil
}

// GetBool returns the boolean stored under key; ok is false when absent or
// not a boolean.
func (s *Store) GetBool(key string) (value, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	raw, exists := s.values[key]
	if !exists {
		return false, false
	}
	if err := json.Unmarshal(raw, &value); err != nil {
		return false, false
	}
	return value, true
}

// SetBool stores a boolean under key.
func (s *Store) SetBool(key string, value bool) {
	raw, _ := json.Marshal(value)
	s.set(key, raw)
}

// GetTime returns the timestamp stored under key.
func (s *Store) GetTime(key string) (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	raw, exists := s.values[key]
	if !exists {
		return time.Time{}, false
	}
	var value time.Time
	if err := json.Unmarshal(raw, &value); err != nil {
		return time.Time{}, false
	}
	return value, true
}

// SetTime stores a timestamp under key.
func (s *Store) SetTime(key string, value time.Time) {
	raw, _ := json.Marshal(value.UTC())
	s.set(key, raw)
}

func (s *Store) set(key string, raw json.RawMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = raw
	s.markDirtyLocked()
}

func (s *Store) markDirtyLocked() {
	s.dirty = true
	if s.path == "" {
		return
	}
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.debounce, func() {
		_ = s.SaveNow()
	})
}

// SaveNow writes the preferences immediately if dirty.
func (s *Store) SaveNow() error {
	s.mu.Lock()
	if !s.dirty || s.path == "" {
		s.mu.Unlock()
		return nil
	}
	state := fileState{Version: 1, Values: make(map[string]json.RawMessage, len(s.values))}
	for k, v := range s.values {
		state.Values[k] = v
	}
	path := s.path
	s.dirty = false
	s.mu.Unlock()

	return writeAtomicJSON(path, state)
}

// Close flushes any pending write.
func (s *Store) Close() error {
	s.mu.Lock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.mu.Unlock()
	return s.SaveNow()
}

func writeAtomicJSON(path string, state fileState) error {
	payload, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, payload, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
