package middleware

import (
	"net/http"

	"github.com/daap14/secrets/internal/session"
)

// Session resolves the request's session cookie and attaches the principal
// to the context. Requests without a live session continue anonymously; a
// failing session store is logged and also treated as anonymous.
func Session(mgr *session.Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, err := mgr.Resolve(r)
			if err != nil {
				Logger(r.Context()).Error("failed to load session", "error", err)
				next.ServeHTTP(w, r)
				return
			}
			if p == nil {
				next.ServeHTTP(w, r)
				return
			}

			ctx := session.WithPrincipal(r.Context(), p)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
