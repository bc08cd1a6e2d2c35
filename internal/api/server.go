// ABOUTME: Development backend HTTP server wiring store, auth, tutor and metrics
// ABOUTME: Builds the chi router for /api/v1 and runs it with graceful shutdown

package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/singleflight"

	"github.com/yopuedo360/yopuedo-chat/internal/auth"
	"github.com/yopuedo360/yopuedo-chat/internal/chat"
	"github.com/yopuedo360/yopuedo-chat/internal/config"
	"github.com/yopuedo360/yopuedo-chat/internal/dedupe"
	"github.com/yopuedo360/yopuedo-chat/internal/metrics"
	"github.com/yopuedo360/yopuedo-chat/internal/store"
)

// Prefix is the path every REST endpoint lives under.
const Prefix = "/api/v1"

const (
	defaultHistoryLimit = 100
	maxHistoryLimit     = 500
	maxBodyBytes        = 1 << 20
)

// Server is the development backend.
type Server struct {
	config  *config.Config
	store   store.Store
	tokens  *auth.JWTIssuer
	replies *dedupe.Cache[chat.Message]
	// inflight collapses concurrent sends that share an idempotency key.
	inflight singleflight.Group
	limiter  *limiterPool
	metrics  *metrics.Metrics
	logger   *slog.Logger
	now      func() time.Time

	httpServer *http.Server
}

// New creates a server over an open store. The server owns the store from
// here on and closes it on Shutdown.
func New(cfg *config.Config, st store.Store, logger *slog.Logger) (*Server, error) {
	if err := cfg.ValidateServer(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		config:  cfg,
		store:   st,
		tokens:  auth.NewJWTIssuer([]byte(cfg.Auth.JWTSecret), cfg.Auth.AccessTTL, cfg.Auth.RefreshTTL),
		replies: dedupe.New[chat.Message](cfg.Dedupe.TTL, cfg.Dedupe.MaxSize),
		limiter: newLimiterPool(cfg.Limits.RPS, cfg.Limits.Burst, 10*time.Minute),
		metrics: metrics.New(),
		logger:  logger.With("component", "api"),
		now:     time.Now,
	}
	go s.limiter.cleanupLoop(time.Minute)

	s.httpServer = &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)
	if s.config.Metrics.Enabled {
		r.Use(s.metrics.Middleware)
		r.Method(http.MethodGet, s.config.Metrics.Path, s.metrics.Handler())
	}

	r.Get("/health", s.handleHealth)

	r.Route(Prefix, func(r chi.Router) {
		r.Post("/auth/login", s.handleLogin)
		r.Post("/auth/refresh", s.handleRefresh)

		r.Group(func(r chi.Router) {
			r.Use(auth.HTTPAuthMiddleware(s.tokens))
			r.Use(s.rateLimit)

			r.Get("/users/me", s.handleMe)
			r.Post("/translate", s.handleTranslate)
			r.Post("/correct", s.handleCorrect)
			r.Post("/feedback", s.handleFeedback)

			r.Route("/users/{uid}", func(r chi.Router) {
				r.Use(auth.RequireSelf(func(r *http.Request) string { return chi.URLParam(r, "uid") }))

				r.Get("/ai-friends", s.handleListPartners)
				r.Delete("/ai-friends/{fid}", s.handleDeletePartner)
				r.Get("/ai-friends/{fid}/messages", s.handleListMessages)
				r.Post("/ai-friends/{fid}/messages", s.handleSendMessage)
				r.Post("/conversations/{fid}/read", s.handleMarkRead)
			})
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		s.sendJSONError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		s.sendJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
	})
	return r
}

// logRequests writes one debug line per request.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

// Run serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.Server.HTTPAddr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.config.Server.HTTPAddr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.logger.Info("starting dev server", "http_addr", ln.Addr().String())

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	var serverErr error
	select {
	case <-ctx.Done():
		s.logger.Info("shutdown signal received")
	case err, ok := <-errCh:
		if ok {
			serverErr = fmt.Errorf("http server: %w", err)
		}
	}

	shutdownErr := s.gracefulShutdown()
	if serverErr != nil {
		return serverErr
	}
	return shutdownErr
}

// gracefulShutdown performs shutdown with a fresh context and timeout.
func (s *Server) gracefulShutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.Shutdown(ctx)
}

// Shutdown stops the HTTP server and releases the cache, limiter and store.
func (s *Server) Shutdown(ctx context.Context) error {
	var errs []error
	if err := s.httpServer.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("http shutdown: %w", err))
	}
	s.replies.Close()
	s.limiter.Close()
	if err := s.store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("store close: %w", err))
	}
	return errors.Join(errs...)
}

// handleHealth returns 200 OK if the server is alive.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}
