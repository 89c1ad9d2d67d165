package gateway

import (
	"log/slog"
	"net/http"

	"github.com/imamhossain-git/e-commerce/internal/session"
)

// SessionMiddleware resolves the session identity from the client cookie,
// minting a fresh one when the cookie is absent or no longer live. The
// resolved identity rides the request context; the proxy turns it into the
// internal forwarding header. Tokens are never rewritten once issued.
func SessionMiddleware(store *session.Store, secureCookies bool, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var token string
			if c, err := r.Cookie(session.CookieName); err == nil {
				token = c.Value
			}

			ok, err := store.Validate(r.Context(), token)
			if err != nil {
				// session store down: degrade to a sessionless request
				// rather than failing the whole gateway
				log.Warn("session store unavailable", "error", err)
				next.ServeHTTP(w, r)
				return
			}

			if !ok {
				token, err = store.Mint(r.Context())
				if err != nil {
					log.Warn("minting session failed", "error", err)
					next.ServeHTTP(w, r)
					return
				}
				// host-only cookie: no Domain attribute on purpose
				http.SetCookie(w, &http.Cookie{
					Name:     session.CookieName,
					Value:    token,
					Path:     "/",
					MaxAge:   int(store.TTL().Seconds()),
					HttpOnly: true,
					Secure:   secureCookies,
					SameSite: http.SameSiteLaxMode,
				})
			}

			next.ServeHTTP(w, r.WithContext(session.WithSession(r.Context(), token)))
		})
	}
}
