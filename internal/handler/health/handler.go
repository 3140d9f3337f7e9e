package health

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Checker is one readiness dependency.
type Checker interface {
	Ready(ctx context.Context) error
}

// CheckFunc adapts a function to Checker.
type CheckFunc func(ctx context.Context) error

func (f CheckFunc) Ready(ctx context.Context) error {
	return f(ctx)
}

type Handler struct {
	checks map[string]Checker
}

func NewHandler(checks map[string]Checker) *Handler {
	return &Handler{
		checks: checks,
	}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	health := r.Group("/health")
	{
		health.GET("/live", h.LivenessCheck)
		health.GET("/ready", h.ReadinessCheck)
	}
}

func (h *Handler) LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "UP"})
}

func (h *Handler) ReadinessCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	components := make(map[string]string, len(h.checks))
	down := false
	for name, check := range h.checks {
		if err := check.Ready(ctx); err != nil {
			components[name] = "DOWN"
			down = true
			continue
		}
		components[name] = "UP"
	}

	if down {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":     "DOWN",
			"components": components,
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "UP", "components": components})
}
