// Package session owns the live configuration and the selected-profile state.
//
// Any edit made through a Set* method, ApplyConfig or WriteRawConfig clears the selected
// profile, because the live config no longer matches a stored snapshot.
// Only ApplyProfile records a selection.
package session

import (
	"context"
	"log/slog"
	"sync"

	"git.home.luguber.info/inful/accctl/internal/acc"
	"git.home.luguber.info/inful/accctl/internal/accd"
	"git.home.luguber.info/inful/accctl/internal/logfields"
	"git.home.luguber.info/inful/accctl/internal/metrics"
	"git.home.luguber.info/inful/accctl/internal/preferences"
	"git.home.luguber.info/inful/accctl/internal/profile"
)

// Daemon is the subset of the daemon client a session drives.
type Daemon interface {
	ReadConfig(ctx context.Context) (acc.Config, error)
	Run(ctx context.Context, command string) bool
	ApplyConfig(ctx context.Context, cfg acc.Config) accd.ApplyResult
	WriteRawConfig(lines []string) (bool, error)
}

// Session holds the current config and routes edits to the daemon.
type Session struct {
	mu       sync.RWMutex
	daemon   Daemon
	profiles profile.Store
	prefs    preferences.Store
	recorder metrics.Recorder
	logger   *slog.Logger
	current  acc.Config
	fallback bool
}

// Option configures a Session.
type Option func(*Session)

func WithRecorder(r metrics.Recorder) Option {
	return func(s *Session) {
		if r != nil {
			s.recorder = r
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

// New creates a Session holding acc.DefaultConfig until Load is called.
func New(daemon Daemon, profiles profile.Store, prefs preferences.Store, opts ...Option) *Session {
	s := &Session{
		daemon:   daemon,
		profiles: profiles,
		prefs:    prefs,
		recorder: metrics.NoopRecorder{},
		logger:   slog.Default(),
		current:  acc.DefaultConfig(),
		fallback: true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load reads the live config. When it cannot be read or parsed the session
// keeps a renderable acc.DefaultConfig and reports fallback=true.
func (s *Session) Load(ctx context.Context) (cfg acc.Config, fallback bool) {
	cfg, err := s.daemon.ReadConfig(ctx)
	if err != nil {
		s.logger.Warn("Falling back to default config", logfields.Error(err))
		cfg, fallback = acc.DefaultConfig(), true
	}
	s.mu.Lock()
	s.current, s.fallback = cfg, fallback
	s.mu.Unlock()
	return cfg, fallback
}

// Config returns the config last loaded or pushed.
func (s *Session) Config() acc.Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// UsingFallback reports whether the current config is the built-in default.
func (s *Session) UsingFallback() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fallback
}

// SelectedProfile returns the active profile name, or nil for a custom config.
func (s *Session) SelectedProfile() *string {
	return s.prefs.Get().SelectedProfile
}

// Profiles exposes the profile store backing this session.
func (s *Session) Profiles() profile.Store {
	return s.profiles
}

// WriteRawConfig replaces config.txt and reloads it. It returns false when
// the file does not exist; the selection is cleared only after a write.
func (s *Session) WriteRawConfig(ctx context.Context, lines []string) (bool, error) {
	written, err := s.daemon.WriteRawConfig(lines)
	if err != nil || !written {
		return false, err
	}
	s.clearSelection()
	s.Load(ctx)
	return true, nil
}

// clearSelection marks the live config as not matching any stored profile.
func (s *Session) clearSelection() {
	if err := s.prefs.SetSelectedProfile(nil); err != nil {
		s.logger.Error("Failed to clear selected profile", logfields.Error(err))
	}
}

// edit runs one group command, clears the selection, and on success folds
// the change into the current config.
func (s *Session) edit(ctx context.Context, group, command string, update func(*acc.Config)) bool {
	ok := s.daemon.Run(ctx, command)
	s.clearSelection()
	if !ok {
		s.logger.Warn("Live edit failed", logfields.Group(group), logfields.Command(command))
		return false
	}
	s.mu.Lock()
	update(&s.current)
	s.mu.Unlock()
	return true
}
