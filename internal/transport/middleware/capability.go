package middleware

import (
	"log/slog"
	"net/http"

	"github.com/peoplehub/hr-backoffice/internal/auth"
)

// RequireCapabilities gates a route on the actor holding at least one of the
// listed capabilities. The workflow executor re-checks capability on every
// transition; this is the cheap outer gate.
func RequireCapabilities(capabilities ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := auth.UserFromContext(r.Context())
			if !ok || user == nil {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			hasCapability := user.HasCapability(auth.CapAdmin)
			if !hasCapability {
				for _, required := range capabilities {
					if user.HasCapability(required) {
						hasCapability = true
						break
					}
				}
			}

			if !hasCapability {
				slog.Warn("access denied: user lacks required capabilities",
					"user_id", user.ID,
					"required_capabilities", capabilities,
					"user_capabilities", user.Capabilities)
				http.Error(w, "Forbidden: insufficient capabilities", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
