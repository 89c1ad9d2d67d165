// Package session owns shopper session identities. The gateway is the only
// component that mints or validates tokens; backends receive them verbatim
// through the x-session-id header.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Header carries the session identity between the gateway and backends.
const Header = "x-session-id"

// CookieName is the client-facing session cookie.
const CookieName = "session_id"

var ErrSessionMissing = errors.New("session missing")

// Store keeps session tokens in Redis with a sliding TTL.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

func NewStore(client *redis.Client, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Store{client: client, ttl: ttl}
}

// Mint creates a new opaque session token and registers it.
func (s *Store) Mint(ctx context.Context) (string, error) {
	token := uuid.NewString()
	if err := s.client.Set(ctx, sessionKey(token), time.Now().UTC().Format(time.RFC3339), s.ttl).Err(); err != nil {
		return "", fmt.Errorf("redis set session: %w", err)
	}
	return token, nil
}

// Validate reports whether token is a live session and refreshes its TTL.
func (s *Store) Validate(ctx context.Context, token string) (bool, error) {
	if token == "" {
		return false, nil
	}
	ok, err := s.client.Expire(ctx, sessionKey(token), s.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis expire session: %w", err)
	}
	return ok, nil
}

// TTL returns the configured session lifetime; the gateway uses it for the
// cookie Max-Age so cookie and server-side session expire together.
func (s *Store) TTL() time.Duration {
	return s.ttl
}

func sessionKey(token string) string {
	return fmt.Sprintf("session:%s", token)
}

type ctxKey struct{}

// WithSession stores the session identity in the request context.
func WithSession(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, ctxKey{}, token)
}

// FromContext returns the session identity or "" when no session exists.
func FromContext(ctx context.Context) string {
	token, _ := ctx.Value(ctxKey{}).(string)
	return token
}
