package auth

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/pixelfolio/pixelfolio/internal/authz"
	"github.com/pixelfolio/pixelfolio/internal/platform/httpx"
	"github.com/pixelfolio/pixelfolio/internal/shared"
)

// Authenticator resolves the caller from the request credential and stores
// it in the request context. The cookie is consulted first, then the
// Authorization bearer header.
type Authenticator struct {
	Service    *Service
	CookieName string
	Logger     *slog.Logger
}

func (a Authenticator) token(r *http.Request) string {
	if cookie, err := r.Cookie(a.CookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	return ""
}

// Require rejects requests without a resolvable caller.
func (a Authenticator) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := a.token(r)
		if token == "" {
			httpx.RespondError(w, shared.ErrUnauthenticated)
			return
		}
		account, err := a.Service.ResolveCaller(r.Context(), token)
		if err != nil {
			if a.Logger != nil {
				a.Logger.Warn("resolve caller", slog.Any("error", err), slog.String("path", r.URL.Path))
			}
			httpx.RespondError(w, err)
			return
		}
		ctx := authz.ContextWithCaller(r.Context(), account.Caller())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Optional resolves the caller when a valid credential is present and
// otherwise lets the request through anonymously. Used on public listings
// where owners see more of their own content.
func (a Authenticator) Optional(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if token := a.token(r); token != "" {
			if account, err := a.Service.ResolveCaller(r.Context(), token); err == nil {
				r = r.WithContext(authz.ContextWithCaller(r.Context(), account.Caller()))
			}
		}
		next.ServeHTTP(w, r)
	})
}
