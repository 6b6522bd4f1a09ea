package middleware

import (
	"net/http"
)

// ErrorRenderer writes a user-facing error page.
type ErrorRenderer interface {
	Error(w http.ResponseWriter, status int, message string)
}

// Recovery is middleware that recovers from panics and renders a generic
// 500 page. http.ErrAbortHandler is re-raised so the server can drop the
// connection.
func Recovery(pages ErrorRenderer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					if err == http.ErrAbortHandler {
						panic(err)
					}
					Logger(r.Context()).Error("panic recovered", "error", err, "path", r.URL.Path)
					pages.Error(w, http.StatusInternalServerError, "An unexpected error occurred. Please try again.")
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
