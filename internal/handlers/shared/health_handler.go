package handlers

import (
	"context"
	"net/http"
	"time"

	"bakehouse/internal/utils"

	"github.com/gin-gonic/gin"
)

// HealthCheck is a named dependency probe.
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

type HealthHandler struct {
	checks  []HealthCheck
	version string
	timeout time.Duration
}

func NewHealthHandler(version string, checks ...HealthCheck) *HealthHandler {
	return &HealthHandler{
		checks:  checks,
		version: version,
		timeout: 2 * time.Second,
	}
}

// Health reports the status of every dependency. Any failing check turns
// the response into a 503.
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	status := "ok"
	results := make(map[string]string, len(h.checks))
	for _, check := range h.checks {
		if err := check.Check(ctx); err != nil {
			results[check.Name] = err.Error()
			status = "degraded"
			continue
		}
		results[check.Name] = "ok"
	}

	body := gin.H{
		"status":    status,
		"version":   h.version,
		"checks":    results,
		"timestamp": time.Now().UTC(),
	}
	if status != "ok" {
		c.JSON(http.StatusServiceUnavailable, utils.APIResponse{
			Status:    utils.StatusError,
			Message:   "Service degraded",
			Data:      body,
			Error:     &utils.APIError{Code: utils.CodeServiceUnavailable, Message: "One or more dependencies are unavailable"},
			Timestamp: time.Now().UTC(),
		})
		return
	}
	utils.SuccessResponse(c, "Service healthy", body)
}
