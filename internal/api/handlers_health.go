// handlers_health.go - Health check handlers
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

const upstreamCheckTimeout = 3 * time.Second

// HealthHandlerImpl implements the HealthHandler interface
type HealthHandlerImpl struct {
	version  string
	upstream UpstreamChecker
}

// NewHealthHandler creates a new health handler. upstream may be nil.
func NewHealthHandler(version string, upstream UpstreamChecker) HealthHandler {
	return &HealthHandlerImpl{
		version:  version,
		upstream: upstream,
	}
}

// HandleHealth returns server health status and whether the inference service answers.
// An unreachable upstream is reported, not treated as a failure of this server.
func (h *HealthHandlerImpl) HandleHealth(c echo.Context) error {
	resp := map[string]interface{}{
		"status":  "ok",
		"version": h.version,
	}

	if h.upstream != nil {
		ctx, cancel := context.WithTimeout(c.Request().Context(), upstreamCheckTimeout)
		defer cancel()

		upstream := map[string]interface{}{"reachable": true}
		if status, err := h.upstream.Health(ctx); err != nil {
			upstream["reachable"] = false
			upstream["error"] = err.Error()
			resp["status"] = "degraded"
		} else {
			upstream["status"] = status
		}
		resp["upstream"] = upstream
	}

	return c.JSON(http.StatusOK, resp)
}
