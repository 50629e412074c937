package schedule

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"git.home.luguber.info/inful/accctl/internal/acc"
	"git.home.luguber.info/inful/accctl/internal/executor"
	"git.home.luguber.info/inful/accctl/internal/logfields"
	"git.home.luguber.info/inful/accctl/internal/metrics"
)

// CommandSeparator joins several daemon commands into one job.
const CommandSeparator = "; "

// Manager lists and mutates djs jobs and keeps a cache of the last listing.
type Manager struct {
	exec     executor.Executor
	recorder metrics.Recorder
	logger   *slog.Logger

	mu    sync.RWMutex
	cache []Schedule
}

// Option configures a Manager.
type Option func(*Manager)

func WithRecorder(r metrics.Recorder) Option {
	return func(m *Manager) {
		if r != nil {
			m.recorder = r
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// NewManager creates a Manager with an empty cache.
func NewManager(exec executor.Executor, opts ...Option) *Manager {
	m := &Manager{
		exec:     exec,
		recorder: metrics.NoopRecorder{},
		logger:   slog.Default(),
		cache:    []Schedule{},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// List returns the jobs of one class in the order djs prints them.
func (m *Manager) List(ctx context.Context, once bool) []Schedule {
	return parseList(once, m.exec.Execute(ctx, listCommand(once)).Output)
}

// ListAll returns one-shot jobs followed by daily jobs.
func (m *Manager) ListAll(ctx context.Context) []Schedule {
	return append(m.List(ctx, true), m.List(ctx, false)...)
}

// Refresh re-lists both classes into the cache and returns it.
func (m *Manager) Refresh(ctx context.Context) []Schedule {
	all := m.ListAll(ctx)
	m.mu.Lock()
	m.cache = all
	m.mu.Unlock()
	return slices.Clone(all)
}

// Cached returns the last listing without contacting djs.
func (m *Manager) Cached() []Schedule {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.cache)
}

// Find looks a job up in the cache.
func (m *Manager) Find(once bool, id string) (Schedule, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, s := range m.cache {
		if s.ExecuteOnce == once && s.ID == id {
			return s, true
		}
	}
	return Schedule{}, false
}

// Add creates a job. An existing job with the same class and time is
// silently replaced by djs; no collision check happens here.
func (m *Manager) Add(ctx context.Context, once bool, hour, minute int, command string) (bool, error) {
	if err := validateTime(hour, minute); err != nil {
		return false, err
	}
	ok := m.run(ctx, "add", addCommand(once, hour, minute, command), ID(hour, minute), once)
	m.Refresh(ctx)
	return ok, nil
}

// AddCommands schedules several daemon commands as one job.
func (m *Manager) AddCommands(ctx context.Context, once bool, hour, minute int, commands []string) (bool, error) {
	return m.Add(ctx, once, hour, minute, strings.Join(commands, CommandSeparator))
}

// AddConfig schedules the full push sequence of cfg.
func (m *Manager) AddConfig(ctx context.Context, once bool, hour, minute int, cfg acc.Config) (bool, error) {
	return m.AddCommands(ctx, once, hour, minute, acc.Commands(cfg))
}

// Delete cancels a job.
func (m *Manager) Delete(ctx context.Context, once bool, id string) (bool, error) {
	if err := validateID(id); err != nil {
		return false, err
	}
	ok := m.run(ctx, "delete", cancelCommand(once, id), id, once)
	m.Refresh(ctx)
	return ok, nil
}

// EditCommand replaces the command text of an existing job. The id does not
// change, so the cache is patched locally instead of re-listed.
func (m *Manager) EditCommand(ctx context.Context, s Schedule, command string) (bool, error) {
	if err := validateTime(s.Hour, s.Minute); err != nil {
		return false, err
	}
	ok := m.run(ctx, "edit", addCommand(s.ExecuteOnce, s.Hour, s.Minute, command), s.ID, s.ExecuteOnce)
	if !ok {
		return false, nil
	}
	m.mu.Lock()
	for i := range m.cache {
		if m.cache[i].ExecuteOnce == s.ExecuteOnce && m.cache[i].ID == s.ID {
			m.cache[i].Command = command
		}
	}
	m.mu.Unlock()
	return true, nil
}

func (m *Manager) run(ctx context.Context, op, command, id string, once bool) bool {
	res := m.exec.Execute(ctx, command)
	m.recorder.IncScheduleMutation(op, res.Success)
	if !res.Success {
		m.logger.Warn("Schedule change failed",
			slog.String("op", op),
			logfields.ScheduleID(id),
			logfields.JobClass(ClassName(once)),
			logfields.ExitCode(res.ExitCode))
	}
	return res.Success
}
