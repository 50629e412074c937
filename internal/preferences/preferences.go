// Package preferences persists the small amount of front-end state that
// outlives a session: the selected profile and the resetUnplugged mirror.
package preferences

import (
	"sync"

	"git.home.luguber.info/inful/accctl/internal/foundation/errors"
	"git.home.luguber.info/inful/accctl/internal/fsutil"
)

// Preferences is the persisted document.
type Preferences struct {
	SelectedProfile *string `json:"selectedProfile"`
	ResetUnplugged  bool    `json:"resetUnplugged"`
}

// Store reads and writes preferences.
type Store interface {
	Get() Preferences
	SetSelectedProfile(name *string) error
	SetResetUnplugged(v bool) error
}

// JSONStore keeps preferences in memory and mirrors them to a JSON file.
// An empty path keeps them in memory only.
type JSONStore struct {
	mu    sync.RWMutex
	path  string
	prefs Preferences
}

// Open loads preferences from path, starting empty if the file is absent.
func Open(path string) (*JSONStore, error) {
	s := &JSONStore{path: path}
	if path == "" {
		return s, nil
	}
	if _, err := fsutil.ReadJSON(path, &s.prefs); err != nil {
		return nil, errors.WrapError(err, errors.CategoryStorage, "load preferences").
			WithContext("path", path).Build()
	}
	return s, nil
}

// NewMemory returns a store that never touches disk.
func NewMemory() *JSONStore {
	return &JSONStore{}
}

// Get returns a copy of the current preferences.
func (s *JSONStore) Get() Preferences {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p := s.prefs
	if p.SelectedProfile != nil {
		name := *p.SelectedProfile
		p.SelectedProfile = &name
	}
	return p
}

// SetSelectedProfile records the active profile; nil means none.
func (s *JSONStore) SetSelectedProfile(name *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if name != nil {
		v := *name
		name = &v
	}
	s.prefs.SelectedProfile = name
	return s.saveLocked()
}

// SetResetUnplugged mirrors the live resetUnplugged toggle.
func (s *JSONStore) SetResetUnplugged(v bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prefs.ResetUnplugged = v
	return s.saveLocked()
}

func (s *JSONStore) saveLocked() error {
	if s.path == "" {
		return nil
	}
	if err := fsutil.WriteJSONAtomic(s.path, s.prefs); err != nil {
		return errors.WrapError(err, errors.CategoryStorage, "save preferences").
			WithContext("path", s.path).Build()
	}
	return nil
}
