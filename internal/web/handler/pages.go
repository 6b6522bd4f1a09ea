package handler

import (
	"errors"
	"net/http"

	"github.com/daap14/secrets/internal/auth"
	"github.com/daap14/secrets/internal/session"
	"github.com/daap14/secrets/internal/web/middleware"
	"github.com/daap14/secrets/internal/web/view"
)

const tryAgainMessage = "Something went wrong on our side. Please try again in a moment."

// unavailable logs err with the request id and renders the generic 503 page.
func unavailable(w http.ResponseWriter, r *http.Request, views *view.Renderer, msg string, err error) {
	middleware.Logger(r.Context()).Error(msg, "error", err)
	views.Error(w, http.StatusServiceUnavailable, tryAgainMessage)
}

// page returns a view.Page for the current request.
func page(r *http.Request, title string) view.Page {
	return view.Page{
		Title:     title,
		Principal: session.PrincipalFrom(r.Context()),
	}
}

// isStoreFailure reports whether err came from the user or session store
// rather than from the caller's input.
func isStoreFailure(err error) bool {
	return errors.Is(err, auth.ErrStoreUnavailable)
}

// HomeHandler serves the landing page.
type HomeHandler struct {
	views *view.Renderer
}

// NewHomeHandler creates a new HomeHandler.
func NewHomeHandler(views *view.Renderer) *HomeHandler {
	return &HomeHandler{views: views}
}

// ServeHTTP handles GET /.
func (h *HomeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.views.Render(w, http.StatusOK, "home", page(r, "Secrets"))
}

// NotFound renders the generic 404 page.
func NotFound(views *view.Renderer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		views.Error(w, http.StatusNotFound, "The page you are looking for does not exist.")
	}
}
