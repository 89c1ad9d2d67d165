package gateway

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/imamhossain-git/e-commerce/internal/httpx"
	"github.com/imamhossain-git/e-commerce/internal/logging"
	"github.com/imamhossain-git/e-commerce/internal/session"
)

// backendError is the 503 body; Backend names the failing service so clients
// and dashboards can tell outages apart.
type backendError struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Backend string `json:"backend"`
}

// Backend is one entry of the routing table, fixed at startup. Each backend
// owns its HTTP client and circuit breaker so a dead backend cannot starve
// requests routed to a healthy one.
type Backend struct {
	Name   string
	Prefix string
	Target *url.URL

	client  *http.Client
	breaker *gobreaker.CircuitBreaker[*http.Response]
}

// Proxy forwards inbound requests to the owning backend by path prefix,
// stripping the prefix and attaching the trusted session header.
type Proxy struct {
	backends []*Backend
	log      *slog.Logger
}

// NewProxy builds the routing table from {prefix -> target URL}. The backend
// name is derived from the last prefix segment ("/api/orders" -> "orders").
func NewProxy(routes map[string]string, timeout time.Duration, log *slog.Logger) (*Proxy, error) {
	p := &Proxy{log: log}
	for prefix, target := range routes {
		u, err := url.Parse(target)
		if err != nil {
			return nil, err
		}
		name := prefix[strings.LastIndex(prefix, "/")+1:]
		b := &Backend{
			Name:   name,
			Prefix: strings.TrimSuffix(prefix, "/"),
			Target: u,
			client: &http.Client{
				Timeout:   timeout,
				Transport: &http.Transport{MaxIdleConnsPerHost: 32},
			},
		}
		b.breaker = gobreaker.NewCircuitBreaker[*http.Response](gobreaker.Settings{
			Name:    name,
			Timeout: 10 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
		})
		p.backends = append(p.backends, b)
	}
	// longest prefix first so "/api/orders" wins over "/api"
	sort.Slice(p.backends, func(i, j int) bool {
		return len(p.backends[i].Prefix) > len(p.backends[j].Prefix)
	})
	return p, nil
}

func (p *Proxy) match(path string) *Backend {
	for _, b := range p.backends {
		if path == b.Prefix || strings.HasPrefix(path, b.Prefix+"/") {
			return b
		}
	}
	return nil
}

func (p *Proxy) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b := p.match(r.URL.Path)
	if b == nil {
		httpx.RespondError(w, http.StatusNotFound, "route_not_found", "route not found")
		return
	}

	start := time.Now()
	sid := session.FromContext(r.Context())

	resp, err := p.forward(r.Context(), b, r, sid)
	if err != nil {
		outcome := "backend_unavailable"
		if errors.Is(err, gobreaker.ErrOpenState) {
			outcome = "circuit_open"
		}
		p.logRequest(r, b, sid, outcome, http.StatusServiceUnavailable, start)
		httpx.RespondJSON(w, http.StatusServiceUnavailable, backendError{
			Error:   b.Name + " service unavailable",
			Code:    "backend_unavailable",
			Backend: b.Name,
		})
		return
	}
	defer resp.Body.Close()

	copyHeaders(w.Header(), resp.Header)
	w.WriteHeader(resp.StatusCode)
	if _, err := io.Copy(w, resp.Body); err != nil {
		p.log.Warn("copying backend response", "backend", b.Name, "error", err)
	}
	p.logRequest(r, b, sid, "forwarded", resp.StatusCode, start)
}

// forward re-issues the request to the backend with the prefix stripped.
// Retries are a client decision; one attempt only.
func (p *Proxy) forward(ctx context.Context, b *Backend, r *http.Request, sid string) (*http.Response, error) {
	out := *b.Target
	out.Path = strings.TrimPrefix(r.URL.Path, b.Prefix)
	if out.Path == "" {
		out.Path = "/"
	}
	out.RawQuery = r.URL.RawQuery

	req, err := http.NewRequestWithContext(ctx, r.Method, out.String(), r.Body)
	if err != nil {
		return nil, err
	}
	copyHeaders(req.Header, r.Header)

	// the forwarding header is trusted-only: whatever the client sent is
	// dropped, and the gateway-resolved identity is set when known
	req.Header.Del(session.Header)
	if sid != "" {
		req.Header.Set(session.Header, sid)
	}

	return b.breaker.Execute(func() (*http.Response, error) {
		return b.client.Do(req)
	})
}

func (p *Proxy) logRequest(r *http.Request, b *Backend, sid, outcome string, status int, start time.Time) {
	logging.FromCtx(r.Context()).LogAttrs(r.Context(), slog.LevelInfo, "proxied request",
		slog.String("backend", b.Name),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("session_id", sid),
		slog.String("outcome", outcome),
		slog.Int("status", status),
		slog.Duration("duration", time.Since(start)),
	)
}

var hopByHop = []string{
	"Connection", "Keep-Alive", "Proxy-Authenticate", "Proxy-Authorization",
	"Te", "Trailer", "Transfer-Encoding", "Upgrade",
}

func copyHeaders(dst, src http.Header) {
	for k, vv := range src {
		for _, v := range vv {
			dst.Add(k, v)
		}
	}
	for _, h := range hopByHop {
		dst.Del(h)
	}
}
