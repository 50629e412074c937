package profile

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"git.home.luguber.info/inful/accctl/internal/acc"
	"git.home.luguber.info/inful/accctl/internal/foundation/errors"
	"git.home.luguber.info/inful/accctl/internal/fsutil"
)

const (
	indexFileName  = "profiles.json"
	snapshotSuffix = ".profile"
)

// FSStore keeps the index in profiles.json and each snapshot in <name>.profile.
type FSStore struct {
	mu  sync.Mutex
	dir string
}

// NewFSStore creates the directory if needed.
func NewFSStore(dir string) (*FSStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "create profile directory").
			WithContext("path", dir).Build()
	}
	return &FSStore{dir: dir}, nil
}

// Dir returns the backing directory.
func (s *FSStore) Dir() string { return s.dir }

func (s *FSStore) indexPath() string { return filepath.Join(s.dir, indexFileName) }

func (s *FSStore) snapshotPath(name string) string {
	return filepath.Join(s.dir, name+snapshotSuffix)
}

func (s *FSStore) List(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readIndexLocked()
}

func (s *FSStore) Read(_ context.Context, name string) (acc.Config, error) {
	if err := ValidateName(name); err != nil {
		return acc.Config{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var cfg acc.Config
	found, err := fsutil.ReadJSON(s.snapshotPath(name), &cfg)
	if err != nil {
		return acc.Config{}, errors.WrapError(err, errors.CategoryStorage, "read profile snapshot").
			WithContext("name", name).Build()
	}
	if !found {
		return acc.Config{}, notFound(name)
	}
	return cfg, nil
}

func (s *FSStore) Write(_ context.Context, names []string) error {
	if err := validateNames(names); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, n := range names {
		if _, err := os.Stat(s.snapshotPath(n)); err != nil {
			if os.IsNotExist(err) {
				return notFound(n)
			}
			return errors.WrapError(err, errors.CategoryStorage, "stat profile snapshot").
				WithContext("name", n).Build()
		}
	}
	old, err := s.readIndexLocked()
	if err != nil {
		return err
	}
	if err := s.writeIndexLocked(names); err != nil {
		return err
	}
	for _, n := range droppedNames(old, names) {
		if err := s.removeSnapshotLocked(n); err != nil {
			return err
		}
	}
	return nil
}

func (s *FSStore) Create(_ context.Context, name string, cfg acc.Config) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	index, err := s.readIndexLocked()
	if err != nil {
		return err
	}
	if !slices.Contains(index, name) {
		if err := s.writeIndexLocked(append(index, name)); err != nil {
			return err
		}
	}
	return s.writeSnapshotLocked(name, cfg)
}

func (s *FSStore) Update(_ context.Context, name string, cfg acc.Config) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	index, err := s.readIndexLocked()
	if err != nil {
		return err
	}
	if !slices.Contains(index, name) {
		return notFound(name)
	}
	return s.writeSnapshotLocked(name, cfg)
}

func (s *FSStore) Rename(_ context.Context, oldName, newName string) error {
	if err := ValidateName(newName); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	index, err := s.readIndexLocked()
	if err != nil {
		return err
	}
	next, err := renameInIndex(index, oldName, newName)
	if err != nil {
		return err
	}
	if err := s.writeIndexLocked(next); err != nil {
		return err
	}
	if err := os.Rename(s.snapshotPath(oldName), s.snapshotPath(newName)); err != nil {
		return errors.WrapError(err, errors.CategoryStorage, "move profile snapshot").
			WithContext("from", oldName).WithContext("to", newName).Build()
	}
	return nil
}

func (s *FSStore) Delete(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	index, err := s.readIndexLocked()
	if err != nil {
		return err
	}
	next, ok := removeFromIndex(index, name)
	if !ok {
		return notFound(name)
	}
	if err := s.writeIndexLocked(next); err != nil {
		return err
	}
	return s.removeSnapshotLocked(name)
}

func (s *FSStore) Close() error { return nil }

func (s *FSStore) removeSnapshotLocked(name string) error {
	if err := os.Remove(s.snapshotPath(name)); err != nil && !os.IsNotExist(err) {
		return errors.WrapError(err, errors.CategoryStorage, "remove profile snapshot").
			WithContext("name", name).Build()
	}
	return nil
}

func (s *FSStore) readIndexLocked() ([]string, error) {
	var names []string
	if _, err := fsutil.ReadJSON(s.indexPath(), &names); err != nil {
		return nil, errors.WrapError(err, errors.CategoryStorage, "read profile index").
			WithContext("path", s.indexPath()).Build()
	}
	if names == nil {
		names = []string{}
	}
	return names, nil
}

func (s *FSStore) writeIndexLocked(names []string) error {
	if names == nil {
		names = []string{}
	}
	if err := fsutil.WriteJSONAtomic(s.indexPath(), names); err != nil {
		return errors.WrapError(err, errors.CategoryStorage, "write profile index").
			WithContext("path", s.indexPath()).Build()
	}
	return nil
}

func (s *FSStore) writeSnapshotLocked(name string, cfg acc.Config) error {
	if err := fsutil.WriteJSONAtomic(s.snapshotPath(name), cfg); err != nil {
		return errors.WrapError(err, errors.CategoryStorage, "write profile snapshot").
			WithContext("name", name).Build()
	}
	return nil
}
