// Package session persists source state between runs so that restored
// metadata overrides survive the automatic load that follows a restore.
package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/alexisbeaulieu97/volsource/internal/volume"
)

const fileVersion = "1.0"

// DefaultName is the entry used when no session name is configured.
const DefaultName = "default"

// State is the persisted form of one source.
type State struct {
	Mode         string           `json:"mode"`
	File         string           `json:"file,omitempty"`
	Folder       string           `json:"folder,omitempty"`
	Filter       string           `json:"filter,omitempty"`
	MirrorRanges bool             `json:"mirror_ranges,omitempty"`
	Metadata     *volume.Metadata `json:"metadata,omitempty"`
	SavedAt      time.Time        `json:"saved_at"`
}

type stateFile struct {
	Version string           `json:"version"`
	States  map[string]State `json:"states"`
}

// Store keeps named states in a single JSON file.
type Store struct {
	path    string
	mu      sync.RWMutex
	version string
	states  map[string]State
}

// Open loads the store at path, starting empty when the file does not exist.
func Open(path string) (*Store, error) {
	s := &Store{
		path:    path,
		version: fileVersion,
		states:  make(map[string]State),
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create session directory: %w", err)
	}

	if err := s.Load(); err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	return s, nil
}

// Path returns the backing file.
func (s *Store) Path() string {
	return s.path
}

// Load reads the store from disk, replacing the in-memory states.
func (s *Store) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		return err
	}

	var file stateFile
	if err := json.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to parse session file: %w", err)
	}

	s.version = file.Version
	s.states = file.States
	if s.states == nil {
		s.states = make(map[string]State)
	}
	return nil
}

// Save writes the store to disk atomically.
func (s *Store) Save() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := json.MarshalIndent(stateFile{Version: s.version, States: s.states}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal session file: %w", err)
	}

	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write temporary file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to rename temporary file: %w", err)
	}
	return nil
}

// Get returns the state stored under name.
func (s *Store) Get(name string) (State, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.states[name]
	return st, ok
}

// Put stores st under name, stamping SavedAt when it is unset.
func (s *Store) Put(name string, st State) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if st.SavedAt.IsZero() {
		st.SavedAt = time.Now().UTC()
	}
	s.states[name] = st
}

// Delete removes name and reports whether it existed.
func (s *Store) Delete(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.states[name]
	delete(s.states, name)
	return ok
}

// Names lists stored entries alphabetically.
func (s *Store) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.states))
	for name := range s.states {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
