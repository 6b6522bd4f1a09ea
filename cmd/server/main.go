package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/daap14/secrets/internal/auth"
	"github.com/daap14/secrets/internal/config"
	"github.com/daap14/secrets/internal/metrics"
	"github.com/daap14/secrets/internal/oauth"
	"github.com/daap14/secrets/internal/session"
	"github.com/daap14/secrets/internal/sweeper"
	"github.com/daap14/secrets/internal/web"
	"github.com/daap14/secrets/internal/web/view"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Error("failed to read .env file", "error", err)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	setupLogger(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	backend, err := openStores(ctx, cfg)
	if err != nil {
		slog.Error("failed to initialize stores", "driver", cfg.StoreDriver, "error", err)
		os.Exit(1)
	}
	defer backend.Close()

	if backend.pruner != nil {
		go sweeper.New(backend.pruner, cfg.SweepInterval).Start(ctx)
	}

	var flow *oauth.Flow
	if cfg.GoogleEnabled() {
		google, err := oauth.NewGoogle(ctx, cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleCallbackURL)
		if err != nil {
			slog.Error("failed to initialize google provider", "error", err)
			os.Exit(1)
		}
		flow = oauth.NewFlow(google, oauth.NewStateCodec([]byte(cfg.SessionSecret)), cfg.CookieSecure)
	} else {
		slog.Warn("google sign-in disabled; GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET are not set")
	}

	views, err := view.New(flow != nil)
	if err != nil {
		slog.Error("failed to load templates", "error", err)
		os.Exit(1)
	}

	sessions := session.NewManager(backend.sessions,
		session.WithCookieName(cfg.SessionCookie),
		session.WithTTL(cfg.SessionTTL),
		session.WithSecureCookie(cfg.CookieSecure),
	)

	router := web.NewRouter(web.RouterDeps{
		Users:       backend.users,
		StoreDriver: cfg.StoreDriver,
		Auth:        auth.NewService(backend.users, cfg.BcryptCost),
		Sessions:    sessions,
		Flow:        flow,
		Metrics:     metrics.New(),
		Views:       views,
		Version:     cfg.Version,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("starting secrets server",
			"port", cfg.Port,
			"version", cfg.Version,
			"store", cfg.StoreDriver,
			"sessionStore", cfg.SessionStore,
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		slog.Info("shutting down server")
	case err := <-serverErr:
		slog.Error("server error", "error", err)
		backend.Close()
		os.Exit(1)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		backend.Close()
		os.Exit(1)
	}

	slog.Info("server stopped gracefully")
}

func setupLogger(level string) {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})
	slog.SetDefault(slog.New(handler))
}
