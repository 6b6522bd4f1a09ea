package handler

import (
	"errors"
	"net/http"

	"github.com/daap14/secrets/internal/auth"
	"github.com/daap14/secrets/internal/metrics"
	"github.com/daap14/secrets/internal/session"
	"github.com/daap14/secrets/internal/web/middleware"
	"github.com/daap14/secrets/internal/web/validation"
	"github.com/daap14/secrets/internal/web/view"
)

const maxFormBytes = 16 << 10

// Query values of /register?error=...
const (
	registerErrTaken   = "taken"
	registerErrInvalid = "invalid"
)

var registerNotices = map[string]string{
	registerErrTaken:   "That username is already registered. Please choose another one.",
	registerErrInvalid: "Please provide a username and a password.",
}

const loginFailedMessage = "Invalid username or password."

// AccountHandler handles local registration, login and logout.
type AccountHandler struct {
	authService *auth.Service
	sessions    *session.Manager
	views       *view.Renderer
	metrics     *metrics.Metrics
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(authService *auth.Service, sessions *session.Manager, views *view.Renderer, m *metrics.Metrics) *AccountHandler {
	return &AccountHandler{
		authService: authService,
		sessions:    sessions,
		views:       views,
		metrics:     m,
	}
}

func readCredentials(w http.ResponseWriter, r *http.Request) (validation.CredentialsForm, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		return validation.CredentialsForm{}, err
	}
	return validation.CredentialsForm{
		Username: r.PostFormValue("username"),
		Password: r.PostFormValue("password"),
	}, nil
}

// RegisterForm handles GET /register.
func (h *AccountHandler) RegisterForm(w http.ResponseWriter, r *http.Request) {
	p := page(r, "Register")
	p.Notice = registerNotices[r.URL.Query().Get("error")]
	h.views.Render(w, http.StatusOK, "register", p)
}

// Register handles POST /register.
func (h *AccountHandler) Register(w http.ResponseWriter, r *http.Request) {
	form, err := readCredentials(w, r)
	if err != nil || len(validation.ValidateCredentialsForm(form)) > 0 {
		h.metrics.Registrations.WithLabelValues(metrics.OutcomeRejected).Inc()
		http.Redirect(w, r, "/register?error="+registerErrInvalid, http.StatusSeeOther)
		return
	}

	u, err := h.authService.RegisterLocal(r.Context(), form.Username, form.Password)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrDuplicateUsername):
			h.metrics.Registrations.WithLabelValues(metrics.OutcomeRejected).Inc()
			http.Redirect(w, r, "/register?error="+registerErrTaken, http.StatusSeeOther)
		case errors.Is(err, auth.ErrInvalidInput):
			h.metrics.Registrations.WithLabelValues(metrics.OutcomeRejected).Inc()
			http.Redirect(w, r, "/register?error="+registerErrInvalid, http.StatusSeeOther)
		default:
			h.metrics.Registrations.WithLabelValues(metrics.OutcomeError).Inc()
			unavailable(w, r, h.views, "failed to register user", err)
		}
		return
	}
	h.metrics.Registrations.WithLabelValues(metrics.OutcomeSuccess).Inc()

	if err := h.sessions.Login(w, r, session.Serialize(u)); err != nil {
		unavailable(w, r, h.views, "failed to start session after registration", err)
		return
	}
	http.Redirect(w, r, "/secrets", http.StatusSeeOther)
}

// LoginForm handles GET /login.
func (h *AccountHandler) LoginForm(w http.ResponseWriter, r *http.Request) {
	h.views.Render(w, http.StatusOK, "login", page(r, "Login"))
}

// Login handles POST /login.
func (h *AccountHandler) Login(w http.ResponseWriter, r *http.Request) {
	form, err := readCredentials(w, r)
	if err != nil {
		h.metrics.AuthAttempts.WithLabelValues(string(auth.MethodLocal), metrics.OutcomeRejected).Inc()
		p := page(r, "Login")
		p.Notice = "The form could not be read."
		h.views.Render(w, http.StatusBadRequest, "login", p)
		return
	}

	if errs := validation.ValidateCredentialsForm(form); len(errs) > 0 {
		h.metrics.AuthAttempts.WithLabelValues(string(auth.MethodLocal), metrics.OutcomeRejected).Inc()
		p := page(r, "Login")
		p.Username = form.Username
		p.Errors = validation.Messages(errs)
		h.views.Render(w, http.StatusBadRequest, "login", p)
		return
	}

	u, err := h.authService.Authenticate(r.Context(), auth.LocalCredential{
		Username: form.Username,
		Password: form.Password,
	})
	if err != nil {
		if isStoreFailure(err) {
			h.metrics.AuthAttempts.WithLabelValues(string(auth.MethodLocal), metrics.OutcomeError).Inc()
			unavailable(w, r, h.views, "failed to authenticate user", err)
			return
		}
		// Unknown user and wrong password look the same to the visitor.
		h.metrics.AuthAttempts.WithLabelValues(string(auth.MethodLocal), metrics.OutcomeRejected).Inc()
		p := page(r, "Login")
		p.Username = form.Username
		p.Notice = loginFailedMessage
		h.views.Render(w, http.StatusUnauthorized, "login", p)
		return
	}
	h.metrics.AuthAttempts.WithLabelValues(string(auth.MethodLocal), metrics.OutcomeSuccess).Inc()

	if err := h.sessions.Login(w, r, session.Serialize(u)); err != nil {
		unavailable(w, r, h.views, "failed to start session", err)
		return
	}
	http.Redirect(w, r, "/secrets", http.StatusSeeOther)
}

// Logout handles GET /logout. It is safe for anonymous visitors.
func (h *AccountHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Logout(w, r); err != nil {
		middleware.Logger(r.Context()).Warn("failed to delete session", "error", err)
	}
	http.Redirect(w, r, "/", http.StatusFound)
}
