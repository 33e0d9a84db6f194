package auth

import (
	"net/http"
	"slices"
)

const (
	RoleOperator = "operator"
	RoleAdmin    = "admin"
)

// RequireRole rejects requests whose token carries none of roles. It must
// run after Authenticate.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := ClaimsFromContext(r.Context())
			if claims == nil {
				writeError(w, http.StatusForbidden, "no claims in context")
				return
			}
			if !slices.Contains(roles, claims.Role) {
				writeError(w, http.StatusForbidden, "insufficient permissions")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
