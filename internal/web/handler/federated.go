package handler

import (
	"net/http"

	"github.com/daap14/secrets/internal/auth"
	"github.com/daap14/secrets/internal/metrics"
	"github.com/daap14/secrets/internal/oauth"
	"github.com/daap14/secrets/internal/session"
	"github.com/daap14/secrets/internal/web/middleware"
	"github.com/daap14/secrets/internal/web/view"
)

// FederatedHandler handles the Google sign-in redirect and callback.
type FederatedHandler struct {
	flow        *oauth.Flow
	authService *auth.Service
	sessions    *session.Manager
	views       *view.Renderer
	metrics     *metrics.Metrics
}

// NewFederatedHandler creates a new FederatedHandler. A nil flow means
// federated login is not configured.
func NewFederatedHandler(flow *oauth.Flow, authService *auth.Service, sessions *session.Manager, views *view.Renderer, m *metrics.Metrics) *FederatedHandler {
	return &FederatedHandler{
		flow:        flow,
		authService: authService,
		sessions:    sessions,
		views:       views,
		metrics:     m,
	}
}

func (h *FederatedHandler) notConfigured(w http.ResponseWriter) {
	h.views.Error(w, http.StatusServiceUnavailable, "Sign in with Google is not available on this server.")
}

// Begin handles GET /auth/google.
func (h *FederatedHandler) Begin(w http.ResponseWriter, r *http.Request) {
	if h.flow == nil {
		h.notConfigured(w)
		return
	}
	if err := h.flow.Begin(w, r); err != nil {
		middleware.Logger(r.Context()).Error("failed to start federated login", "error", err)
		h.views.Error(w, http.StatusInternalServerError, tryAgainMessage)
	}
}

// Callback handles GET /auth/google/secrets.
func (h *FederatedHandler) Callback(w http.ResponseWriter, r *http.Request) {
	if h.flow == nil {
		h.notConfigured(w)
		return
	}
	log := middleware.Logger(r.Context())

	identity, err := h.flow.Complete(w, r)
	if err != nil {
		h.metrics.AuthAttempts.WithLabelValues(string(auth.MethodFederated), metrics.OutcomeRejected).Inc()
		log.Warn("federated login failed", "provider", h.flow.Provider().Name(), "error", err)
		http.Redirect(w, r, "/login", http.StatusFound)
		return
	}
	log.Info("federated identity verified", "provider", identity.Provider, "subject", identity.Subject)

	u, err := h.authService.Authenticate(r.Context(), auth.FederatedCredential{
		Provider: identity.Provider,
		Subject:  identity.Subject,
	})
	if err != nil {
		h.metrics.AuthAttempts.WithLabelValues(string(auth.MethodFederated), metrics.OutcomeError).Inc()
		unavailable(w, r, h.views, "failed to resolve federated user", err)
		return
	}
	h.metrics.AuthAttempts.WithLabelValues(string(auth.MethodFederated), metrics.OutcomeSuccess).Inc()

	p := session.Serialize(u)
	if p.Username == "" {
		p.Username = identity.Name
	}
	p.Picture = identity.Picture
	if err := h.sessions.Login(w, r, p); err != nil {
		unavailable(w, r, h.views, "failed to start session", err)
		return
	}
	http.Redirect(w, r, "/secrets", http.StatusFound)
}
