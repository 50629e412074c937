// Package normalization maps loosely written strings from config files and
// command lines onto typed enums.
package normalization

import (
	"slices"
	"strings"

	"git.home.luguber.info/inful/accctl/internal/foundation/errors"
)

// Enum recognises the accepted spellings of one enum. Spellings are matched
// after trimming and lower-casing.
type Enum[T comparable] struct {
	name       string
	lookup     map[string]T
	accepted   []string
	fallback   T
	hasDefault bool
}

// New builds an Enum called name. Without a default, empty input is rejected.
func New[T comparable](name string, spellings map[string]T) *Enum[T] {
	e := &Enum[T]{name: name, lookup: make(map[string]T, len(spellings))}
	for raw, v := range spellings {
		key := fold(raw)
		e.lookup[key] = v
		e.accepted = append(e.accepted, key)
	}
	slices.Sort(e.accepted)
	return e
}

// WithDefault makes empty input resolve to v.
func (e *Enum[T]) WithDefault(v T) *Enum[T] {
	e.fallback = v
	e.hasDefault = true
	return e
}

// Lookup reports the value spelled by raw.
func (e *Enum[T]) Lookup(raw string) (T, bool) {
	key := fold(raw)
	if key == "" && e.hasDefault {
		return e.fallback, true
	}
	v, ok := e.lookup[key]
	return v, ok
}

// Parse is Lookup with a validation error naming the accepted spellings.
func (e *Enum[T]) Parse(raw string) (T, error) {
	if v, ok := e.Lookup(raw); ok {
		return v, nil
	}
	var zero T
	return zero, errors.ValidationError("invalid "+e.name).
		WithContext("value", raw).
		WithContext("accepted", strings.Join(e.accepted, ", ")).
		Build()
}

// Or returns the value spelled by raw, or the default when raw is unknown.
func (e *Enum[T]) Or(raw string) T {
	if v, ok := e.Lookup(raw); ok {
		return v
	}
	return e.fallback
}

// Accepted lists the recognised spellings in sorted order.
func (e *Enum[T]) Accepted() []string {
	return slices.Clone(e.accepted)
}

func fold(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
