package profile

import (
	"context"
	"regexp"
	"slices"

	"git.home.luguber.info/inful/accctl/internal/acc"
	"git.home.luguber.info/inful/accctl/internal/foundation/errors"
)

// namePattern rejects characters that are unsafe in file names.
var namePattern = regexp.MustCompile(`^[^\\/:*?"<>|]+$`)

// Profile is a named config snapshot.
type Profile struct {
	Name   string     `json:"name"`
	Config acc.Config `json:"config"`
}

// Store is implemented by every profile backend.
type Store interface {
	// List returns profile names in index order.
	List(ctx context.Context) ([]string, error)
	// Read returns the snapshot stored under name.
	Read(ctx context.Context, name string) (acc.Config, error)
	// Write replaces the whole index. Every name must already have a
	// snapshot; snapshots of names left out are deleted after the index.
	Write(ctx context.Context, names []string) error
	// Create appends name to the index if absent and stores cfg under it.
	Create(ctx context.Context, name string, cfg acc.Config) error
	// Update replaces the snapshot of an existing profile.
	Update(ctx context.Context, name string, cfg acc.Config) error
	// Rename moves a profile to a name that is not in use yet.
	Rename(ctx context.Context, oldName, newName string) error
	// Delete removes name from the index and drops its snapshot.
	Delete(ctx context.Context, name string) error
	Close() error
}

// ValidateName checks that name can be used as a profile identifier.
func ValidateName(name string) error {
	if !namePattern.MatchString(name) {
		return errors.ValidationError("invalid profile name").WithContext("name", name).Build()
	}
	return nil
}

func validateNames(names []string) error {
	seen := make(map[string]struct{}, len(names))
	for _, n := range names {
		if err := ValidateName(n); err != nil {
			return err
		}
		if _, dup := seen[n]; dup {
			return errors.ValidationError("duplicate profile name in index").WithContext("name", n).Build()
		}
		seen[n] = struct{}{}
	}
	return nil
}

// droppedNames returns the names of old that next no longer lists.
func droppedNames(old, next []string) []string {
	var out []string
	for _, n := range old {
		if !slices.Contains(next, n) {
			out = append(out, n)
		}
	}
	return out
}

func notFound(name string) error {
	return errors.NotFoundError("profile").WithContext("name", name).Build()
}

func alreadyExists(name string) error {
	return errors.AlreadyExistsError("profile").WithContext("name", name).Build()
}

// renameInIndex replaces oldName with newName in place, keeping the order.
func renameInIndex(index []string, oldName, newName string) ([]string, error) {
	if slices.Contains(index, newName) {
		return nil, alreadyExists(newName)
	}
	pos := slices.Index(index, oldName)
	if pos < 0 {
		return nil, notFound(oldName)
	}
	out := slices.Clone(index)
	out[pos] = newName
	return out, nil
}

func removeFromIndex(index []string, name string) ([]string, bool) {
	pos := slices.Index(index, name)
	if pos < 0 {
		return index, false
	}
	return slices.Delete(slices.Clone(index), pos, pos+1), true
}

// ReadAll loads every profile in index order, skipping names whose snapshot is gone.
func ReadAll(ctx context.Context, s Store) ([]Profile, error) {
	names, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Profile, 0, len(names))
	for _, n := range names {
		cfg, err := s.Read(ctx, n)
		if err != nil {
			if errors.HasCategory(err, errors.CategoryNotFound) {
				continue
			}
			return nil, err
		}
		out = append(out, Profile{Name: n, Config: cfg})
	}
	return out, nil
}
