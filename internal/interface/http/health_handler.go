package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-user-directory/pkg/response"
)

// CheckFunc reports whether a dependency is reachable.
type CheckFunc func(ctx context.Context) error

// HealthCheck is a named dependency probe.
type HealthCheck struct {
	Name  string
	Check CheckFunc
}

type HealthHandler struct {
	Checks  []HealthCheck
	Timeout time.Duration
	Logger  *logrus.Logger
}

func NewHealthHandler(logger *logrus.Logger, checks ...HealthCheck) *HealthHandler {
	return &HealthHandler{Checks: checks, Timeout: 2 * time.Second, Logger: logger}
}

// Health runs every check and answers 503 if any of them fails.
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.Timeout)
	defer cancel()

	status := make(map[string]string, len(h.Checks))
	healthy := true
	for _, chk := range h.Checks {
		if err := chk.Check(ctx); err != nil {
			healthy = false
			status[chk.Name] = "down"
			if h.Logger != nil {
				h.Logger.WithError(err).WithField("check", chk.Name).Warn("health check failed")
			}
			continue
		}
		status[chk.Name] = "up"
	}

	if !healthy {
		response.Error[any](c, http.StatusServiceUnavailable, "unhealthy", status)
		return
	}
	response.Success(c, http.StatusOK, status, "healthy", nil)
}
