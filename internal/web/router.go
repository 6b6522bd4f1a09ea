package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/daap14/secrets/internal/auth"
	"github.com/daap14/secrets/internal/metrics"
	"github.com/daap14/secrets/internal/oauth"
	"github.com/daap14/secrets/internal/session"
	"github.com/daap14/secrets/internal/user"
	"github.com/daap14/secrets/internal/web/handler"
	"github.com/daap14/secrets/internal/web/middleware"
	"github.com/daap14/secrets/internal/web/view"
)

// RouterDeps holds all dependencies needed by the router.
type RouterDeps struct {
	Users       user.Repository
	StoreDriver string
	Auth        *auth.Service
	Sessions    *session.Manager
	// Flow is nil when federated login is not configured.
	Flow    *oauth.Flow
	Metrics *metrics.Metrics
	Views   *view.Renderer
	Version string
}

// NewRouter creates and configures a Chi router with all middleware and routes.
func NewRouter(deps RouterDeps) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery(deps.Views))
	r.Use(chimiddleware.Logger)
	r.Use(deps.Metrics.Instrument)

	healthHandler := handler.NewHealthHandler(deps.Users, deps.StoreDriver, deps.Version)
	r.Get("/health", healthHandler.ServeHTTP)
	r.Method(http.MethodGet, "/metrics", deps.Metrics.Handler())
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(view.Static()))))

	home := handler.NewHomeHandler(deps.Views)
	account := handler.NewAccountHandler(deps.Auth, deps.Sessions, deps.Views, deps.Metrics)
	federated := handler.NewFederatedHandler(deps.Flow, deps.Auth, deps.Sessions, deps.Views, deps.Metrics)
	secrets := handler.NewSecretsHandler(deps.Users, deps.Sessions, deps.Views, deps.Metrics)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Session(deps.Sessions))

		r.Get("/", home.ServeHTTP)
		r.Get("/register", account.RegisterForm)
		r.Post("/register", account.Register)
		r.Get("/login", account.LoginForm)
		r.Post("/login", account.Login)
		r.Get("/logout", account.Logout)

		r.Get("/auth/google", federated.Begin)
		r.Get("/auth/google/secrets", federated.Callback)

		r.Get("/secrets", secrets.List)

		gated := r.With(middleware.RequireAuth(deps.Sessions))
		gated.Get("/submit", secrets.SubmitForm)
		gated.Post("/submit", secrets.Submit)
	})

	r.NotFound(handler.NotFound(deps.Views))

	return r
}
