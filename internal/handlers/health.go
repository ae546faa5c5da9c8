package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/vidtube/backend/internal/apierror"
	"github.com/vidtube/backend/internal/response"
)

const healthPingTimeout = 2 * time.Second

// HealthHandler responds with service health information.
type HealthHandler struct {
	DB      HealthChecker
	Version string
}

// Handle implements GET /api/v1/healthcheck.
func (h HealthHandler) Handle(w http.ResponseWriter, r *http.Request) error {
	database := "disabled"
	if h.DB != nil {
		ctx, cancel := context.WithTimeout(r.Context(), healthPingTimeout)
		defer cancel()

		if err := h.DB.Ping(ctx); err != nil {
			return apierror.Wrap(http.StatusServiceUnavailable, "Database unavailable", fmt.Errorf("ping database: %w", err))
		}
		database = "ok"
	}

	response.OK(r.Context(), w, "Health check passed", map[string]string{
		"status":   "ok",
		"version":  h.Version,
		"database": database,
	})
	return nil
}
