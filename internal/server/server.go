// Package server wires the accctl HTTP API.
package server

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/accctl/internal/accd"
	"git.home.luguber.info/inful/accctl/internal/foundation/errors"
	"git.home.luguber.info/inful/accctl/internal/metrics"
	"git.home.luguber.info/inful/accctl/internal/poller"
	"git.home.luguber.info/inful/accctl/internal/schedule"
	"git.home.luguber.info/inful/accctl/internal/server/handlers"
	smw "git.home.luguber.info/inful/accctl/internal/server/middleware"
	"git.home.luguber.info/inful/accctl/internal/session"
	"git.home.luguber.info/inful/accctl/internal/worker"
)

// Deps are the components the API exposes. Poller and Registry may be nil.
type Deps struct {
	Session   *session.Session
	Client    *accd.Client
	Schedules *schedule.Manager
	Poller    *poller.Poller
	Jobs      *worker.Dispatcher
	Registry  *prom.Registry
	Logger    *slog.Logger
}

// Server owns the HTTP listener and router.
type Server struct {
	deps         Deps
	logger       *slog.Logger
	errorAdapter *errors.HTTPErrorAdapter
	router       chi.Router
	httpServer   *http.Server
	startTime    time.Time
}

// New builds the router. Call Start to listen.
func New(deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		deps:         deps,
		logger:       logger,
		errorAdapter: errors.NewHTTPErrorAdapter(logger),
		startTime:    time.Now(),
	}
	s.router = s.routes()
	return s
}

// Handler returns the root handler, for tests and embedding.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) routes() chi.Router {
	monitoring := handlers.NewMonitoringHandlers(s.startTime, s.errorAdapter)
	cfg := handlers.NewConfigHandlers(s.deps.Session, s.deps.Client, s.deps.Jobs, s.errorAdapter)
	daemon := handlers.NewDaemonHandlers(s.deps.Client, s.deps.Poller, s.deps.Jobs, s.errorAdapter)
	profiles := handlers.NewProfileHandlers(s.deps.Session, s.deps.Jobs, s.errorAdapter)
	schedules := handlers.NewScheduleHandlers(s.deps.Schedules, s.errorAdapter)
	jobs := handlers.NewJobHandlers(s.deps.Jobs, s.errorAdapter)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(smw.Chain(s.logger, s.errorAdapter))

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		s.errorAdapter.WriteErrorResponse(w, req, errors.NotFoundError("route").WithContext("path", req.URL.Path).Build())
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		s.errorAdapter.WriteErrorResponse(w, req, errors.ValidationError("invalid HTTP method").
			WithContext("method", req.Method).
			WithContext("path", req.URL.Path).
			Build())
	})

	r.Get("/healthz", monitoring.HandleHealthCheck)
	if s.deps.Registry != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler(s.deps.Registry))
	}

	r.Route("/api", func(r chi.Router) {
		r.Route("/config", func(r chi.Router) {
			r.Get("/", cfg.HandleGet)
			r.Put("/", cfg.HandleApply)
			r.Get("/raw", cfg.HandleGetRaw)
			r.Put("/raw", cfg.HandlePutRaw)
			r.Put("/{group}", cfg.HandleUpdateGroup)
		})

		r.Get("/telemetry", daemon.HandleTelemetry)
		r.Get("/daemon", daemon.HandleStatus)
		r.Post("/daemon/{action}", daemon.HandleAction)
		r.Post("/visibility", daemon.HandleVisibility)
		r.Get("/switches", daemon.HandleSwitches)
		r.Post("/switches/test", daemon.HandleTestSwitch)
		r.Get("/volt-files", daemon.HandleVoltFiles)
		r.Post("/charge-once", daemon.HandleChargeOnce)
		r.Post("/reset-stats", daemon.HandleResetStats)

		r.Route("/profiles", func(r chi.Router) {
			r.Get("/", profiles.HandleList)
			r.Post("/", profiles.HandleCreate)
			r.Get("/{name}", profiles.HandleGet)
			r.Put("/{name}", profiles.HandleUpdate)
			r.Delete("/{name}", profiles.HandleDelete)
			r.Post("/{name}/rename", profiles.HandleRename)
			r.Post("/{name}/apply", profiles.HandleApply)
		})
		r.Get("/selection", profiles.HandleSelection)

		r.Get("/schedules", schedules.HandleList)
		r.Post("/schedules", schedules.HandleCreate)
		r.Put("/schedules/{class}/{id}", schedules.HandleUpdate)
		r.Delete("/schedules/{class}/{id}", schedules.HandleDelete)

		r.Get("/jobs/{id}", jobs.HandleGet)
	})
	return r
}

// Start binds addr and serves in the background. Bind errors are returned immediately.
func (s *Server) Start(ctx context.Context, addr string) error {
	lc := net.ListenConfig{}
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("http startup failed: %w", err)
	}

	s.httpServer = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	go func() {
		if err := s.httpServer.Serve(ln); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			s.logger.Error("HTTP server stopped", slog.String("error", err.Error()))
		}
	}()
	s.logger.Info("HTTP API started", slog.String("addr", ln.Addr().String()))
	return nil
}

// Stop gracefully shuts down the listener.
func (s *Server) Stop(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	return nil
}
