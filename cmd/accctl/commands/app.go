package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/accctl/internal/accd"
	"git.home.luguber.info/inful/accctl/internal/config"
	"git.home.luguber.info/inful/accctl/internal/executor"
	"git.home.luguber.info/inful/accctl/internal/metrics"
	"git.home.luguber.info/inful/accctl/internal/preferences"
	"git.home.luguber.info/inful/accctl/internal/profile"
	"git.home.luguber.info/inful/accctl/internal/schedule"
	"git.home.luguber.info/inful/accctl/internal/session"
)

// app is the wired set of components a command works against.
type app struct {
	cfg       *config.Config
	logger    *slog.Logger
	registry  *prom.Registry
	recorder  *metrics.PrometheusRecorder
	client    *accd.Client
	profiles  profile.Store
	prefs     *preferences.JSONStore
	session   *session.Session
	schedules *schedule.Manager
}

// openApp loads the configuration and wires the daemon client, stores and
// session. The live acc config is read once before returning.
func openApp(ctx context.Context, g *Global, root *CLI) (*app, error) {
	cfg, err := config.LoadOptional(root.Config)
	if err != nil {
		return nil, err
	}

	logger := cfg.Logging.NewLogger(os.Stderr, root.Verbose)
	if g != nil && g.Logger != nil {
		logger = g.Logger
	}
	slog.SetDefault(logger)

	registry := prom.NewRegistry()
	recorder := metrics.NewPrometheusRecorder(registry)

	var exec executor.Executor
	if g != nil && g.Executor != nil {
		exec = g.Executor
	} else {
		exec = executor.NewShell(cfg.Executor.Shell, cfg.Executor.Env...)
	}
	exec = executor.NewInstrumented(exec, recorder, logger)

	profiles, err := openProfileStore(cfg.Profiles)
	if err != nil {
		return nil, err
	}
	prefs, err := preferences.Open(cfg.Preferences.Path)
	if err != nil {
		_ = profiles.Close()
		return nil, err
	}

	client := accd.New(exec, cfg.ACC.ConfigPath, accd.WithLogger(logger))
	sess := session.New(client, profiles, prefs,
		session.WithRecorder(recorder),
		session.WithLogger(logger))
	if _, fallback := sess.Load(ctx); fallback {
		logger.Debug("Using default acc config", slog.String("path", cfg.ACC.ConfigPath))
	}

	return &app{
		cfg:       cfg,
		logger:    logger,
		registry:  registry,
		recorder:  recorder,
		client:    client,
		profiles:  profiles,
		prefs:     prefs,
		session:   sess,
		schedules: schedule.NewManager(exec, schedule.WithRecorder(recorder), schedule.WithLogger(logger)),
	}, nil
}

func openProfileStore(cfg config.ProfilesConfig) (profile.Store, error) {
	if cfg.Backend == config.ProfileBackendSQLite {
		if err := os.MkdirAll(filepath.Dir(cfg.SQLitePath), 0o755); err != nil {
			return nil, fmt.Errorf("create profile database directory: %w", err)
		}
		store, err := profile.NewSQLiteStore(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return store, nil
	}
	store, err := profile.NewFSStore(cfg.Directory)
	if err != nil {
		return nil, err
	}
	return store, nil
}

func (a *app) Close() error {
	return a.profiles.Close()
}

// withApp opens the app, runs fn and closes the app again.
func withApp(g *Global, root *CLI, fn func(ctx context.Context, a *app) error) error {
	ctx := context.Background()
	a, err := openApp(ctx, g, root)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := a.Close(); cerr != nil {
			a.logger.Warn("Failed to close stores", slog.String("error", cerr.Error()))
		}
	}()
	return fn(ctx, a)
}
