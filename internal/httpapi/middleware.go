package httpapi

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/time/rate"

	"appcatalog/internal/bootstrap/logging"
	domainaccount "appcatalog/internal/domain/account"
	"appcatalog/internal/errs"
	"appcatalog/internal/ports"
)

// requestLogger installs a request-scoped logger and logs each request.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := logging.WithRequest(r.Context(), middleware.GetReqID(r.Context()), r.Method, r.URL.Path)
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r.WithContext(ctx))

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		logging.Info(ctx, "http request",
			slog.Int("status", status),
			slog.Int("bytes", ww.BytesWritten()),
			slog.Duration("elapsed", time.Since(start)),
		)
	})
}

// recoverer turns a handler panic into an internal error envelope.
func recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			logging.Error(r.Context(), "handler panic",
				slog.Any("panic", rec),
				slog.String("stack", string(debug.Stack())),
			)
			writeKey(w, errs.KeyInternal)
		}()
		next.ServeHTTP(w, r)
	})
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// rateLimiter keeps one token bucket per client address.
type rateLimiter struct {
	rate  rate.Limit
	burst int

	mu      sync.Mutex
	clients map[string]*clientLimiter
}

func newRateLimiter(rps float64, burst int) *rateLimiter {
	if burst <= 0 {
		burst = 1
	}
	return &rateLimiter{
		rate:    rate.Limit(rps),
		burst:   burst,
		clients: make(map[string]*clientLimiter),
	}
}

func (rl *rateLimiter) allow(key string, now time.Time) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	client, ok := rl.clients[key]
	if !ok {
		client = &clientLimiter{limiter: rate.NewLimiter(rl.rate, rl.burst)}
		rl.clients[key] = client
	}
	client.lastSeen = now
	return client.limiter.AllowN(now, 1)
}

// sweep drops clients idle for longer than idle and returns how many were dropped.
func (rl *rateLimiter) sweep(idle time.Duration, now time.Time) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	dropped := 0
	for key, client := range rl.clients {
		if now.Sub(client.lastSeen) > idle {
			delete(rl.clients, key)
			dropped++
		}
	}
	return dropped
}

func (rl *rateLimiter) handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := clientAddr(r)
		if !rl.allow(key, time.Now()) {
			logging.Warn(r.Context(), "rate limit exceeded", slog.String("client", key))
			writeKey(w, errs.KeyRateLimited)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientAddr(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

type userKey struct{}
type tokenKey struct{}

// currentUser returns the authenticated user of the request, if any.
func currentUser(ctx context.Context) (ports.User, bool) {
	user, ok := ctx.Value(userKey{}).(ports.User)
	return user, ok
}

func currentToken(ctx context.Context) string {
	token, _ := ctx.Value(tokenKey{}).(string)
	return token
}

func bearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// authenticate resolves the bearer token, when present, to a user. Requests
// with a missing or stale token continue anonymously.
func authenticate(accounts AccountService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			user, err := accounts.Authenticate(r.Context(), token)
			if err != nil {
				if key, ok := errs.KeyOf(err); !ok || key != errs.KeyUnauthorized {
					writeError(w, r, err)
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), userKey{}, user)
			ctx = context.WithValue(ctx, tokenKey{}, token)
			ctx = logging.WithAttrs(ctx, slog.String("user_id", user.ID))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Access requirement of a route.
type access string

const (
	accessLoggedIn  access = "loggedIn"
	accessLoggedOut access = "loggedOut"
	accessEditor    access = "editor"
	accessAdmin     access = "admin"
)

func requireAuth(level access) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, loggedIn := currentUser(r.Context())

			switch level {
			case accessLoggedOut:
				if loggedIn {
					writeKey(w, errs.KeyForbidden)
					return
				}
			case accessLoggedIn:
				if !loggedIn {
					writeKey(w, errs.KeyUnauthorized)
					return
				}
			case accessEditor, accessAdmin:
				if !loggedIn {
					writeKey(w, errs.KeyUnauthorized)
					return
				}
				role := domainaccount.RoleEditor
				if level == accessAdmin {
					role = domainaccount.RoleAdmin
				}
				if !domainaccount.Satisfies(user.IsEditor, user.IsAdmin, role) {
					writeKey(w, errs.KeyForbidden)
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
