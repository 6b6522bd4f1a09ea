package handler

import (
	"errors"
	"net/http"

	"github.com/daap14/secrets/internal/metrics"
	"github.com/daap14/secrets/internal/session"
	"github.com/daap14/secrets/internal/user"
	"github.com/daap14/secrets/internal/web/middleware"
	"github.com/daap14/secrets/internal/web/validation"
	"github.com/daap14/secrets/internal/web/view"
)

// SecretsHandler lists secrets and stores the principal's own.
type SecretsHandler struct {
	users    user.Repository
	sessions *session.Manager
	views    *view.Renderer
	metrics  *metrics.Metrics
}

// NewSecretsHandler creates a new SecretsHandler.
func NewSecretsHandler(users user.Repository, sessions *session.Manager, views *view.Renderer, m *metrics.Metrics) *SecretsHandler {
	return &SecretsHandler{
		users:    users,
		sessions: sessions,
		views:    views,
		metrics:  m,
	}
}

// List handles GET /secrets.
func (h *SecretsHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.ListWithSecrets(r.Context())
	if err != nil {
		unavailable(w, r, h.views, "failed to list secrets", err)
		return
	}

	p := page(r, "Secrets")
	p.Secrets = make([]string, 0, len(users))
	for i := range users {
		p.Secrets = append(p.Secrets, users[i].SecretText())
	}
	h.views.Render(w, http.StatusOK, "secrets", p)
}

// SubmitForm handles GET /submit.
func (h *SecretsHandler) SubmitForm(w http.ResponseWriter, r *http.Request) {
	h.views.Render(w, http.StatusOK, "submit", page(r, "Submit a secret"))
}

// Submit handles POST /submit. The route is gated, so a principal is present.
func (h *SecretsHandler) Submit(w http.ResponseWriter, r *http.Request) {
	principal := session.PrincipalFrom(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		p := page(r, "Submit a secret")
		p.Notice = "The form could not be read."
		h.views.Render(w, http.StatusBadRequest, "submit", p)
		return
	}
	secret := r.PostFormValue("secret")

	if errs := validation.ValidateSecret(secret); len(errs) > 0 {
		p := page(r, "Submit a secret")
		p.Secret = secret
		p.Errors = validation.Messages(errs)
		h.views.Render(w, http.StatusBadRequest, "submit", p)
		return
	}

	if err := h.users.SetSecret(r.Context(), principal.ID, secret); err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			// The session outlived its user record.
			middleware.Logger(r.Context()).Warn("session principal has no user record", "userId", principal.ID)
			if lerr := h.sessions.Logout(w, r); lerr != nil {
				middleware.Logger(r.Context()).Warn("failed to delete session", "error", lerr)
			}
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		unavailable(w, r, h.views, "failed to store secret", err)
		return
	}
	h.metrics.Submissions.Inc()

	http.Redirect(w, r, "/secrets", http.StatusSeeOther)
}
