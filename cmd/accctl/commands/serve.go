package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"git.home.luguber.info/inful/accctl/internal/logfields"
	"git.home.luguber.info/inful/accctl/internal/poller"
	"git.home.luguber.info/inful/accctl/internal/publish"
	"git.home.luguber.info/inful/accctl/internal/server"
	"git.home.luguber.info/inful/accctl/internal/watcher"
	"git.home.luguber.info/inful/accctl/internal/worker"
)

// ServeCmd implements the 'serve' command.
type ServeCmd struct {
	Addr string `help:"Listen address, overrides http.addr"`
}

func (s *ServeCmd) Run(g *Global, root *CLI) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a, err := openApp(ctx, g, root)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	addr := a.cfg.HTTP.Addr
	if s.Addr != "" {
		addr = s.Addr
	}
	return a.serve(ctx, addr)
}

// serve runs the API until ctx is cancelled, then shuts everything down
// within the configured timeout.
func (a *app) serve(ctx context.Context, addr string) error {
	pub, err := a.openPublisher()
	if err != nil {
		return err
	}
	defer func() {
		if cerr := pub.Close(); cerr != nil {
			a.logger.Warn("Failed to close publisher", logfields.Error(cerr))
		}
	}()

	p, err := poller.New(a.client,
		poller.WithInterval(a.cfg.PollInterval()),
		poller.WithRecorder(a.recorder),
		poller.WithLogger(a.logger))
	if err != nil {
		return fmt.Errorf("create poller: %w", err)
	}
	unsubscribe := p.Subscribe(func(snap poller.Snapshot) {
		if perr := pub.PublishSnapshot(ctx, snap); perr != nil {
			a.logger.Warn("Failed to publish telemetry", logfields.Error(perr))
		}
	})
	defer unsubscribe()
	if err := p.Resume(); err != nil {
		return fmt.Errorf("start poller: %w", err)
	}

	if a.cfg.Watch.Enabled {
		w, werr := watcher.New(a.client.ConfigPath(), a.reloadConfig(pub),
			watcher.WithDebounce(a.cfg.WatchDebounce()),
			watcher.WithLogger(a.logger))
		if werr != nil {
			return werr
		}
		if werr := w.Start(ctx); werr != nil {
			// The daemon may not be installed yet; the API still works without live reloads.
			a.logger.Warn("Config watcher disabled", logfields.Error(werr))
		}
		defer w.Stop()
	}

	jobs := worker.NewDispatcher(worker.WithLogger(a.logger))
	srv := server.New(server.Deps{
		Session:   a.session,
		Client:    a.client,
		Schedules: a.schedules,
		Poller:    p,
		Jobs:      jobs,
		Registry:  a.registry,
		Logger:    a.logger,
	})
	if err := srv.Start(ctx, addr); err != nil {
		_ = p.Stop()
		return err
	}

	<-ctx.Done()
	a.logger.Info("Shutdown signal received, stopping server")

	stopCtx, stopCancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout())
	defer stopCancel()

	var firstErr error
	if err := srv.Stop(stopCtx); err != nil {
		firstErr = err
	}
	if err := jobs.Shutdown(stopCtx); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := p.Stop(); err != nil && firstErr == nil {
		firstErr = err
	}
	if firstErr != nil {
		return firstErr
	}
	a.logger.Info("Server stopped")
	return nil
}

func (a *app) openPublisher() (publish.Publisher, error) {
	if !a.cfg.NATS.Enabled {
		return publish.Noop{}, nil
	}
	pub, err := publish.NewNATSPublisher(publish.NATSConfig{
		URL:     a.cfg.NATS.URL,
		Subject: a.cfg.NATS.Subject,
		Name:    "accctl",
	}, a.logger)
	if err != nil {
		return nil, err
	}
	return pub, nil
}

// reloadConfig re-reads config.txt after an external change and announces it.
func (a *app) reloadConfig(pub publish.Publisher) watcher.ChangeFunc {
	return func(ctx context.Context) {
		cfg, fallback := a.session.Load(ctx)
		a.recorder.IncConfigReload()
		a.logger.Info("Reloaded acc config", logfields.Path(a.client.ConfigPath()), slog.Bool("fallback", fallback))
		if err := pub.PublishConfigChange(ctx, publish.ConfigChange{Source: "watcher", Config: cfg, Fallback: fallback}); err != nil {
			a.logger.Warn("Failed to publish config change", logfields.Error(err))
		}
	}
}
