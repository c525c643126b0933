// Package http serves the subscription JSON API.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"subwise/internal/core"
	"subwise/internal/log"
	"subwise/internal/metrics"
	"subwise/internal/middleware/ratelimit"
	"subwise/internal/middleware/security"
	"subwise/internal/middleware/trace"
)

const (
	defaultRenewalWindow = 7
	maxBodyBytes         = 64 << 10
)

// SubscriptionStore is the part of the store the API needs.
type SubscriptionStore interface {
	Add(ctx context.Context, f core.Fields) (core.Subscription, error)
	Get(ctx context.Context, id string) (core.Subscription, error)
	List(ctx context.Context) ([]core.Subscription, error)
	Update(ctx context.Context, id string, p core.Patch) (core.Subscription, error)
	Cancel(ctx context.Context, id string) (core.Subscription, error)
	Delete(ctx context.Context, id string) error
	Snapshot() []core.Subscription
	Today() core.Date
}

type Server struct {
	http.Server
	store         SubscriptionStore
	logger        *log.Logger
	detector      *security.Detector
	rateLimiter   *ratelimit.Limiter
	rateConfig    ratelimit.Config
	renewalWindow int
	ready         func(context.Context) error
	serveMetrics  bool

	shutdownOnce sync.Once
}

type Option func(*Server)

func WithLogger(l *log.Logger) Option { return func(s *Server) { s.logger = l } }

// WithRateLimit sets the per-client budget.
func WithRateLimit(rps float64, burst int) Option {
	return func(s *Server) {
		s.rateConfig.RequestsPerSecond = rps
		s.rateConfig.Burst = burst
	}
}

// WithRenewalWindow sets the default days for the renewal endpoints.
func WithRenewalWindow(days int) Option { return func(s *Server) { s.renewalWindow = days } }

// WithReadiness installs the /readyz probe.
func WithReadiness(check func(context.Context) error) Option {
	return func(s *Server) { s.ready = check }
}

// WithMetricsEndpoint mounts /metrics on the API listener.
func WithMetricsEndpoint() Option { return func(s *Server) { s.serveMetrics = true } }

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, store SubscriptionStore, opts ...Option) *Server {
	s := &Server{
		Server: http.Server{
			Addr:              addr,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      15 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		store:         store,
		detector:      security.NewDetector(),
		rateConfig:    ratelimit.DefaultConfig(),
		renewalWindow: defaultRenewalWindow,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = log.New(log.DefaultConfig())
	}
	s.rateLimiter = ratelimit.NewLimiter(s.rateConfig)

	mux := http.NewServeMux()
	s.routes(mux)

	var h http.Handler = mux
	h = s.rateLimiter.Middleware(s.detector.ExtractClientIP, s.handleRateLimited)(h)
	h = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(h)
	h = s.detector.Middleware(s.logger.WithComponent(log.ComponentSecurity).Logger)(h)
	h = trace.NewMiddleware(s.logger, s.detector.ExtractClientIP).Middleware(h)
	s.Handler = h

	return s
}

func (s *Server) routes(mux *http.ServeMux) {
	s.handle(mux, "GET /healthz", handleHealth)
	s.handle(mux, "GET /readyz", s.handleReady)
	if s.serveMetrics {
		s.handle(mux, "GET /metrics", metrics.Handler().ServeHTTP)
	}

	s.handle(mux, "GET /api/subscriptions", s.handleListSubscriptions)
	s.handle(mux, "POST /api/subscriptions", s.handleCreateSubscription)
	s.handle(mux, "GET /api/subscriptions/{id}", s.handleGetSubscription)
	s.handle(mux, "PATCH /api/subscriptions/{id}", s.handleUpdateSubscription)
	s.handle(mux, "DELETE /api/subscriptions/{id}", s.handleDeleteSubscription)
	s.handle(mux, "POST /api/subscriptions/{id}/cancel", s.handleCancelSubscription)

	s.handle(mux, "GET /api/insights/monthly-spend", s.handleMonthlySpend)
	s.handle(mux, "GET /api/insights/categories", s.handleCategories)
	s.handle(mux, "GET /api/insights/renewals", s.handleRenewals)
	s.handle(mux, "GET /api/insights/overview", s.handleOverview)
	s.handle(mux, "GET /api/insights/calendar", s.handleCalendar)
}

// handle registers h and records its pattern for the request metrics.
func (s *Server) handle(mux *http.ServeMux, pattern string, h http.HandlerFunc) {
	mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
		trace.SetRoute(r.Context(), r.Pattern)
		h(w, r)
	})
}

// Shutdown gracefully shuts down the server and the limiter cleanup.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func (s *Server) handleRateLimited(w http.ResponseWriter, r *http.Request) {
	log.FromContext(r.Context()).WarnContext(r.Context(), "rate limit exceeded",
		log.FieldClientIP, s.detector.ExtractClientIP(r),
		log.FieldPath, r.URL.Path)
	writeJSON(w, http.StatusTooManyRequests, errorResponse{Error: "rate limit exceeded"})
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.ready(ctx); err != nil {
			log.FromContext(r.Context()).WarnContext(r.Context(), "readiness check failed", log.FieldError, err)
			http.Error(w, "not ready", http.StatusServiceUnavailable)
			return
		}
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ready"))
}
