package gateway

import (
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/imamhossain-git/e-commerce/internal/httpx"
)

// RateLimiter enforces a fixed-window request budget per client IP, counted
// in Redis so all gateway replicas share one budget.
type RateLimiter struct {
	client *redis.Client
	max    int
	window time.Duration
	log    *slog.Logger
}

func NewRateLimiter(client *redis.Client, max int, window time.Duration, log *slog.Logger) *RateLimiter {
	if max <= 0 {
		max = 1000
	}
	if window <= 0 {
		window = 15 * time.Minute
	}
	return &RateLimiter{client: client, max: max, window: window, log: log}
}

func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := fmt.Sprintf("ratelimit:%s", clientIP(r))

		// EXPIRE NX rides the same pipeline as INCR: the counter can never
		// exist without a deadline, even if the process dies mid-request
		pipe := rl.client.TxPipeline()
		incr := pipe.Incr(r.Context(), key)
		pipe.ExpireNX(r.Context(), key, rl.window)
		if _, err := pipe.Exec(r.Context()); err != nil {
			// fail open: losing rate limiting beats dropping traffic
			rl.log.Warn("rate limit counter unavailable", "error", err)
			next.ServeHTTP(w, r)
			return
		}
		if incr.Val() > int64(rl.max) {
			httpx.RespondError(w, http.StatusTooManyRequests, "rate_limit_exceeded", "too many requests")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	// chi's RealIP middleware rewrites RemoteAddr from X-Forwarded-For
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
