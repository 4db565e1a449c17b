package auth

import (
	"net/http"
	"strings"

	"github.com/example/fritter/internal/platform/api"
	"github.com/example/fritter/internal/platform/httpserver"
)

// RequireRole admits the request when RequireUser injected one of roles.
// Roles compare case-insensitively.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role, _ := RoleFromContext(r.Context())
			role = strings.TrimSpace(role)
			for _, want := range roles {
				if role != "" && strings.EqualFold(role, want) {
					next.ServeHTTP(w, r)
					return
				}
			}
			api.Forbidden(w, "FORBIDDEN", "role "+strings.Join(roles, "|")+" required", httpserver.RequestIDFromContext(r.Context()))
		})
	}
}

// RequireAdmin guards the post directory and other operator routes.
var RequireAdmin = RequireRole("admin")
