package server

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
	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/randalmurphal/enrich/auth"
	"github.com/randalmurphal/enrich/enhancer"
)

// Defaults.
const (
	DefaultRequestTimeout  = 30 * time.Second
	DefaultMaxBodyBytes    = 1 << 20
	DefaultShutdownTimeout = 10 * time.Second
)

// Token scopes checked per route.
const (
	ScopeEnrich   = "enrich"
	ScopeValidate = "validate"
)

// Server exposes an enhancer pipeline over HTTP.
type Server struct {
	pipeline *enhancer.Pipeline
	logger   *slog.Logger
	tokens   *auth.TokenService
	keys     *auth.KeySet
	gatherer prometheus.Gatherer
	requests *prometheus.CounterVec

	timeout  time.Duration
	maxBody  int64
	shutdown time.Duration
	newID    func() (string, error)

	router chi.Router
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request and error logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithTokens enables bearer-token authentication.
func WithTokens(ts *auth.TokenService) Option {
	return func(s *Server) { s.tokens = ts }
}

// WithAPIKeys enables X-API-Key authentication.
func WithAPIKeys(ks *auth.KeySet) Option {
	return func(s *Server) { s.keys = ks }
}

// WithRegistry serves reg on /metrics and registers the request counter
// with it.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(s *Server) {
		if reg == nil {
			return
		}
		s.gatherer = reg
		s.requests = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "enrich",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route and status code.",
		}, []string{"route", "code"})
		reg.MustRegister(s.requests)
	}
}

// WithRequestTimeout bounds each pipeline run.
func WithRequestTimeout(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithMaxBodyBytes limits request bodies.
func WithMaxBodyBytes(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxBody = n
		}
	}
}

// WithSessionIDs replaces the generator used for requests without a session.
func WithSessionIDs(fn func() (string, error)) Option {
	return func(s *Server) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// New builds a Server around p.
func New(p *enhancer.Pipeline, opts ...Option) *Server {
	s := &Server{
		pipeline: p,
		logger:   slog.Default(),
		gatherer: prometheus.DefaultGatherer,
		timeout:  DefaultRequestTimeout,
		maxBody:  DefaultMaxBodyBytes,
		shutdown: DefaultShutdownTimeout,
		newID:    func() (string, error) { return gonanoid.New() },
	}
	for _, opt := range opts {
		opt(s)
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.health)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))

	r.Route("/v1", func(r chi.Router) {
		r.With(s.authenticate(ScopeEnrich)).Post("/enrich", s.enrich)
		r.With(s.authenticate(ScopeValidate)).Post("/validate", s.validate)
	})

	return r
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe listens on addr and serves until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is done, then shuts down
// gracefully. It returns nil after a clean shutdown.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ErrorLog:          slog.NewLogLogger(s.logger.Handler(), slog.LevelError),
	}

	errc := make(chan error, 1)
	go func() {
		errc <- srv.Serve(ln)
	}()
	s.logger.Info("server listening", "addr", ln.Addr().String())

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdown)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	s.logger.Info("server stopped")
	return nil
}
