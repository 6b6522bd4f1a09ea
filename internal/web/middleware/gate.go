package middleware

import (
	"net/http"

	"github.com/daap14/secrets/internal/session"
)

// LoginPath is where anonymous visitors of protected routes are sent.
const LoginPath = "/login"

// RequireAuth returns middleware that redirects requests without an
// authenticated principal to the login page. The wrapped handler is not
// invoked for them.
func RequireAuth(mgr *session.Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !mgr.IsAuthenticated(r) {
				http.Redirect(w, r, LoginPath, http.StatusFound)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
