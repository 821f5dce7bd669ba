package server

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"design-drop/internal/config"
	"design-drop/internal/logging"
	"design-drop/internal/logstore"
	"design-drop/internal/model"
)

// ShutdownTimeout bounds how long Run waits for in-flight requests.
const ShutdownTimeout = 5 * time.Second

// Server is the HTTP front of the upload pipeline.
type Server struct {
	cfg        *config.Config
	store      logstore.Store
	notifier   Notifier
	clock      model.Clock
	limiter    *rateLimiter
	handler    http.Handler
	httpServer *http.Server
}

// New wires the routes and middleware. clock may be nil.
func New(cfg *config.Config, store logstore.Store, notifier Notifier, clock model.Clock) *Server {
	if clock == nil {
		clock = model.RealClock{}
	}
	s := &Server{
		cfg:      cfg,
		store:    store,
		notifier: notifier,
		clock:    clock,
	}
	if cfg.RateLimit.Requests > 0 {
		s.limiter = newRateLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window)
	}
	s.handler = s.routes()

	s.httpServer = &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           s.handler,
		ReadHeaderTimeout: cfg.HTTP.ReadHeaderTimeout,
	}
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware)
	r.Use(securityHeadersMiddleware(s.cfg.IsProduction()))
	if len(s.cfg.CORS.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: s.cfg.CORS.AllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodHead, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
			ExposedHeaders: []string{"X-Request-Id"},
			MaxAge:         300,
		}))
	}
	if s.limiter != nil {
		r.Use(s.limiter.middleware)
	}

	r.Post("/upload", s.handleUpload)
	r.Handle("/metrics", metricsHandler())

	r.Group(func(r chi.Router) {
		r.Use(CompressionMiddleware)
		r.Get("/admin", s.handleAdmin)
		r.Get("/health", s.HandleLive)
		r.Get("/ready", s.HandleReady)
	})

	if dir := s.cfg.HTTP.StaticDir; dir != "" {
		r.NotFound(spaHandler(dir))
	}

	return r
}

// Handler returns the fully wrapped router.
func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return err
	}
	return s.httpServer.Serve(ln)
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.limiter != nil {
		s.limiter.Stop()
	}
	return s.httpServer.Shutdown(ctx)
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		logging.Info("server starting", map[string]any{
			"addr":    s.httpServer.Addr,
			"version": s.cfg.App.Version,
		})
		errCh <- s.Start()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		logging.Info("shutting down", nil)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		if err := s.Shutdown(shutdownCtx); err != nil {
			return err
		}
		logging.Info("shutdown complete", nil)
		return nil
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
