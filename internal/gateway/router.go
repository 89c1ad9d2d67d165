package gateway

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/imamhossain-git/e-commerce/internal/httpx"
	"github.com/imamhossain-git/e-commerce/internal/logging"
	"github.com/imamhossain-git/e-commerce/internal/session"
)

// NewRouter assembles the gateway pipeline: request id, recovery, timeout,
// then rate limiting and session resolution for proxied routes only.
func NewRouter(p *Proxy, sessions *session.Store, limiter *RateLimiter, requestTimeout time.Duration, secureCookies bool, log *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(requestTimeout))
	r.Use(middleware.Compress(5))
	r.Use(requestLogger(log))

	// health stays outside the rate-limit and session chain: load balancer
	// checks must not mint sessions or burn request budget
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httpx.RespondJSON(w, http.StatusOK, map[string]string{
			"status":  "ok",
			"service": "api-gateway",
		})
	})

	// everything else goes through the routing table; the proxy answers 404
	// for paths outside the registered prefixes
	proxied := limiter.Middleware(SessionMiddleware(sessions, secureCookies, log)(p))
	r.NotFound(proxied.ServeHTTP)

	return r
}

// requestLogger stows a request-scoped logger in the context so downstream
// log lines carry the request id.
func requestLogger(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqLog := log.With("request_id", middleware.GetReqID(r.Context()))
			next.ServeHTTP(w, r.WithContext(logging.WithCtx(r.Context(), reqLog)))
		})
	}
}
