package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/medilens/medilens-api/internal/handler/prometheus"
	"github.com/medilens/medilens-api/internal/middleware"
	"github.com/medilens/medilens-api/pkg/metrics"
)

const APIVersion = "1.0"

type Handler interface {
	RegisterRoutes(*gin.RouterGroup)
}

// Handlers groups the route owners mounted under /api/v1.
type Handlers struct {
	Analysis Handler
	History  Handler
	Corpus   Handler
	Health   Handler
}

type RouterConfig struct {
	Logger         zerolog.Logger
	Metrics        *metrics.Metrics
	RequestTimeout time.Duration
	MaxBodyBytes   int64
	RateLimit      rate.Limit
	RateBurst      int
	CORSConfig     middleware.CORSConfig
}

type Router struct {
	engine     *gin.Engine
	auth       *middleware.AuthMiddleware
	handlers   Handlers
	prometheus *prometheus.Handler
}

func NewRouter(
	auth *middleware.AuthMiddleware,
	handlers Handlers,
	prom *prometheus.Handler,
	config RouterConfig,
) *Router {
	engine := gin.New()

	r := &Router{
		engine:     engine,
		auth:       auth,
		handlers:   handlers,
		prometheus: prom,
	}

	timeout := middleware.DefaultTimeoutConfig()
	if config.RequestTimeout > 0 {
		timeout.Duration = config.RequestTimeout
	}
	sizeLimit := middleware.DefaultSizeLimitConfig()
	if config.MaxBodyBytes > 0 {
		sizeLimit.MaxBodySize = config.MaxBodyBytes
	}

	// Core middlewares. Logging and metrics wrap ErrorHandler so they see the
	// status it renders.
	engine.Use(
		middleware.Recovery(config.Logger),
		middleware.RequestID(),
		middleware.Logger(config.Logger),
	)
	if config.Metrics != nil {
		engine.Use(middleware.Metrics(config.Metrics))
	}
	engine.Use(
		middleware.ErrorHandler(config.Logger),
		middleware.Timeout(timeout),
		middleware.CORS(config.CORSConfig),
		middleware.SecurityHeaders(middleware.DefaultSecurityConfig()),
	)

	if config.RateLimit > 0 {
		rateLimiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
			Rate:  config.RateLimit,
			Burst: config.RateBurst,
		})
		engine.Use(rateLimiter.RateLimit())
	}

	engine.Use(middleware.SizeLimit(sizeLimit))

	return r
}

func (r *Router) Setup() {
	if r.prometheus != nil {
		r.engine.GET("/metrics", r.prometheus.Handler())
	}

	api := r.engine.Group("/api/v1")

	// Add version header
	api.Use(func(c *gin.Context) {
		c.Header("X-API-Version", APIVersion)
		c.Next()
	})

	if r.handlers.Health != nil {
		r.handlers.Health.RegisterRoutes(api)
	}

	// Public routes. Identity is optional so signed-in callers can save.
	public := api.Group("")
	public.Use(r.auth.Optional())
	r.setupPublicRoutes(public)

	// Protected routes
	protected := api.Group("")
	protected.Use(r.auth.Authenticate())
	r.setupProtectedRoutes(protected)
}

func (r *Router) setupPublicRoutes(rg *gin.RouterGroup) {
	if r.handlers.Analysis != nil {
		r.handlers.Analysis.RegisterRoutes(rg)
	}
	if r.handlers.Corpus != nil {
		corpus := rg.Group("")
		corpus.Use(middleware.Cache(middleware.CacheConfig{
			MaxAge: 300,
			Vary:   []string{"Accept"},
		}))
		r.handlers.Corpus.RegisterRoutes(corpus)
	}
}

func (r *Router) setupProtectedRoutes(rg *gin.RouterGroup) {
	if r.handlers.History != nil {
		r.handlers.History.RegisterRoutes(rg)
	}
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}
