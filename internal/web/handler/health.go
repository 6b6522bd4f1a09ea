package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/daap14/secrets/internal/web/middleware"
	"github.com/daap14/secrets/internal/web/response"
)

const pingTimeout = 2 * time.Second

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler handles the GET /health endpoint.
type HealthHandler struct {
	store   Pinger
	driver  string
	version string
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(store Pinger, driver, version string) *HealthHandler {
	return &HealthHandler{
		store:   store,
		driver:  driver,
		version: version,
	}
}

type storeStatus struct {
	Driver    string `json:"driver"`
	Connected bool   `json:"connected"`
}

type healthData struct {
	Status  string      `json:"status"`
	Version string      `json:"version"`
	Store   storeStatus `json:"store"`
}

// ServeHTTP handles the health check request.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), pingTimeout)
	defer cancel()

	status := "healthy"
	connected := true
	if err := h.store.Ping(ctx); err != nil {
		middleware.Logger(r.Context()).Warn("store ping failed", "driver", h.driver, "error", err)
		status = "degraded"
		connected = false
	}

	response.Success(w, http.StatusOK, healthData{
		Status:  status,
		Version: h.version,
		Store: storeStatus{
			Driver:    h.driver,
			Connected: connected,
		},
	}, middleware.GetRequestID(r.Context()))
}
