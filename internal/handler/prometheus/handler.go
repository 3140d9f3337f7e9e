package prometheus

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler exposes a registry that holds the application metrics plus the
// Go runtime and process collectors.
type Handler struct {
	registry *prometheus.Registry
}

func New() *Handler {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return &Handler{registry: registry}
}

// Registerer is where application metrics should be registered.
func (h *Handler) Registerer() prometheus.Registerer {
	return h.registry
}

func (h *Handler) Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.HandlerFor(h.registry, promhttp.HandlerOpts{}))
}
