// Package httpapi serves the JSON API over chi.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	domaincatalog "appcatalog/internal/domain/catalog"
	"appcatalog/internal/errs"
	"appcatalog/internal/metrics"
	"appcatalog/internal/ports"
	"appcatalog/internal/usecase/account"
)

type CatalogService interface {
	ListApps(ctx context.Context) ([]ports.App, error)
	GetApp(ctx context.Context, id string) (ports.App, error)
	CreateApp(ctx context.Context, input domaincatalog.Input) (ports.App, error)
	BulkCreateApps(ctx context.Context, inputs []domaincatalog.Input) ([]ports.App, error)
	PatchApp(ctx context.Context, id string, patch domaincatalog.PatchInput) (ports.App, error)
	DeleteApp(ctx context.Context, id string) error
}

type AccountService interface {
	ListUsers(ctx context.Context) ([]ports.User, error)
	GetUser(ctx context.Context, id string) (ports.User, bool, error)
	SignUp(ctx context.Context, email string, password string) (account.SignUpResult, error)
	CompleteVerification(ctx context.Context, token string) (account.VerificationResult, error)
	PatchUser(ctx context.Context, id string, input account.PatchUserInput) (ports.User, error)
	RequestPasswordChange(ctx context.Context, user ports.User, password string) error
	Login(ctx context.Context, email string, password string) (account.Session, error)
	Logout(ctx context.Context, token string) error
	Authenticate(ctx context.Context, token string) (ports.User, error)
}

type Options struct {
	// RateLimitRPS <= 0 disables rate limiting.
	RateLimitRPS   float64
	RateLimitBurst int
}

// Server is the API http.Handler.
type Server struct {
	router   chi.Router
	catalog  CatalogService
	accounts AccountService
	limiter  *rateLimiter
}

func NewServer(catalog CatalogService, accounts AccountService, m *metrics.Metrics, opts Options) (*Server, error) {
	if catalog == nil {
		return nil, errors.New("catalog service is required")
	}
	if accounts == nil {
		return nil, errors.New("account service is required")
	}
	if m == nil {
		m = metrics.New()
	}

	s := &Server{
		router:   chi.NewRouter(),
		catalog:  catalog,
		accounts: accounts,
	}
	if opts.RateLimitRPS > 0 {
		s.limiter = newRateLimiter(opts.RateLimitRPS, opts.RateLimitBurst)
	}

	r := s.router
	r.Use(middleware.RequestID)
	r.Use(requestLogger)
	r.Use(recoverer)
	r.Use(m.Instrument)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeSuccess(w)
	})
	r.Method(http.MethodGet, "/metrics", m.Handler())

	r.Route("/api", func(r chi.Router) {
		if s.limiter != nil {
			r.Use(s.limiter.handler)
		}
		r.Use(authenticate(accounts))

		r.Route("/apps", s.appRoutes)
		r.Route("/users", s.userRoutes)
		r.Route("/session", s.sessionRoutes)
		r.Get("/verify/{token}", s.handleVerify)
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeKey(w, errs.KeyNotFound)
	})
	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// SweepIdleClients forgets rate limit state of clients idle for longer than idle.
func (s *Server) SweepIdleClients(idle time.Duration) int {
	if s.limiter == nil {
		return 0
	}
	return s.limiter.sweep(idle, time.Now())
}
