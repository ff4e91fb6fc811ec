package middleware

import (
	"net/http"
	"slices"

	"github.com/gosuda/newsroom/internal/auth"
)

// Roles carried in access tokens. Every registered user is a reader; admins
// can also force a feed refresh.
const (
	RoleAdmin  = auth.RoleAdmin
	RoleReader = auth.RoleReader
)

// RequireRole lets a request through only when the role set by Auth is one of
// roles. A request with no role is 401, a mismatched role is 403.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role, ok := RoleFromContext(r.Context())
			switch {
			case !ok || role == "":
				writeProblem(w, http.StatusUnauthorized, "authentication required")
			case !slices.Contains(roles, role):
				writeProblem(w, http.StatusForbidden, "insufficient permissions")
			default:
				next.ServeHTTP(w, r)
			}
		})
	}
}

// RequireAdmin is RequireRole(RoleAdmin).
func RequireAdmin() func(http.Handler) http.Handler {
	return RequireRole(RoleAdmin)
}
