package authz

import (
	"log/slog"
	"net/http"

	"github.com/pixelfolio/pixelfolio/internal/platform/httpx"
	"github.com/pixelfolio/pixelfolio/internal/shared"
)

// Middleware wires role and permission checks for HTTP handlers. Both checks
// are read-only and assume an authenticator has already placed the caller in
// the request context.
type Middleware struct {
	Logger *slog.Logger
}

// RequireRole ensures the caller's role is one of the allowed roles.
func (m Middleware) RequireRole(roles ...Role) func(http.Handler) http.Handler {
	allowed := make(map[Role]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			caller := CallerFromContext(r.Context())
			if caller == nil {
				httpx.RespondError(w, shared.ErrUnauthenticated)
				return
			}
			if _, ok := allowed[caller.Role]; !ok {
				httpx.RespondError(w, shared.ErrForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequirePermission ensures the caller's role grants the permission. A role
// with no table entry is a misconfiguration; it is logged and surfaced to the
// caller as a plain forbidden.
func (m Middleware) RequirePermission(perm string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			caller := CallerFromContext(r.Context())
			if caller == nil {
				httpx.RespondError(w, shared.ErrUnauthenticated)
				return
			}
			granted := PermissionsFor(caller.Role)
			if len(granted) == 0 && m.Logger != nil {
				m.Logger.Error("role has no permission entry",
					slog.String("role", string(caller.Role)),
					slog.Int64("account_id", caller.ID))
			}
			if !HasPermission(caller.Role, perm) {
				httpx.RespondError(w, shared.ErrForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
