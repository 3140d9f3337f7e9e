package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	engine "github.com/medilens/medilens-api/internal/analysis"
	"github.com/medilens/medilens-api/internal/config"
	"github.com/medilens/medilens-api/internal/corpus"
	analysisHandler "github.com/medilens/medilens-api/internal/handler/analysis"
	corpusHandler "github.com/medilens/medilens-api/internal/handler/corpus"
	healthHandler "github.com/medilens/medilens-api/internal/handler/health"
	historyHandler "github.com/medilens/medilens-api/internal/handler/history"
	"github.com/medilens/medilens-api/internal/handler/prometheus"
	"github.com/medilens/medilens-api/internal/middleware"
	"github.com/medilens/medilens-api/internal/repository/postgres"
	"github.com/medilens/medilens-api/internal/router"
	analysisService "github.com/medilens/medilens-api/internal/service/analysis"
	"github.com/medilens/medilens-api/pkg/auth"
	"github.com/medilens/medilens-api/pkg/cache"
	"github.com/medilens/medilens-api/pkg/logger"
	"github.com/medilens/medilens-api/pkg/messaging/redis"
	"github.com/medilens/medilens-api/pkg/metrics"
	"github.com/medilens/medilens-api/pkg/security"
)

func main() {
	// Load configuration
	cfg, err := config.Load(os.Getenv("MEDILENS_CONFIG_FILE"))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	// Initialize logger
	appLogger := logger.NewLogger(&logger.Config{
		Level:  logger.ParseLevel(cfg.Log.Level),
		Pretty: cfg.Log.Pretty,
	})
	log.Logger = appLogger.Zerolog()
	gin.SetMode(cfg.Server.Mode)

	if err := middleware.RegisterValidation(middleware.DefaultValidationConfig()); err != nil {
		log.Fatal().Err(err).Msg("failed to register validators")
	}

	// Metrics share one registry with the Go and process collectors
	prom := prometheus.New()
	appMetrics := metrics.NewMetrics("medilens", prom.Registerer())

	// Analysis engine
	trainingData := corpus.NewLoader(log.Logger, cfg.CorpusPaths()...).Load()
	analyzer := engine.NewAnalyzer(trainingData, engine.WithLogger(log.Logger))

	opts := []analysisService.Option{
		analysisService.WithMetrics(appMetrics),
		analysisService.WithLogger(appLogger),
	}
	checks := map[string]healthHandler.Checker{}

	ctx := context.Background()

	// Report cache: memory, backed by redis when enabled
	memory := cache.NewMemory(cfg.Cache.TTL, cfg.Cache.CleanupInterval)
	var reportCache cache.Cache = memory
	var redisClient *goredis.Client
	if cfg.Redis.Enabled {
		redisClient, err = redis.NewClient(ctx, cfg.Redis.ToBrokerConfig())
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to Redis")
		}
		defer redisClient.Close()

		reportCache = cache.NewTiered(memory, cache.NewRedis(redisClient, cfg.Redis.KeyPrefix, log.Logger), cfg.Cache.TTL)
		checks["redis"] = healthHandler.CheckFunc(func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})
	}
	opts = append(opts, analysisService.WithCache(reportCache, cfg.Cache.TTL))

	// Analysis history
	var db *sqlx.DB
	if cfg.Database.Enabled {
		db, err = postgres.NewDB(ctx, cfg.Database)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to database")
		}
		defer db.Close()

		sealer, err := security.NewAESSealer([]byte(cfg.Security.EncryptionKey))
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create text sealer")
		}

		baseRepo := postgres.NewBaseRepository(db)
		opts = append(opts, analysisService.WithHistory(postgres.NewAnalysisRepository(baseRepo), sealer))
	}

	svc := analysisService.NewService(analyzer, opts...)
	if svc.HistoryEnabled() {
		checks["database"] = svc
	}

	// Token verification
	var tokens middleware.TokenVerifier
	if cfg.JWT.Secret != "" {
		tokenManager, err := auth.NewTokenManager(cfg.JWT.Secret, cfg.JWT.Issuer)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create token manager")
		}
		tokens = tokenManager
	} else {
		log.Warn().Msg("jwt.secret is not set; authenticated routes will reject every request")
	}

	var limit rate.Limit
	if cfg.RateLimit.Enabled {
		limit = rate.Limit(cfg.RateLimit.RequestsPerSecond)
	}
	cors := middleware.DefaultCORSConfig()
	cors.AllowOrigins = cfg.Security.AllowedOrigins

	// Setup router
	r := router.NewRouter(
		middleware.NewAuthMiddleware(tokens),
		router.Handlers{
			Analysis: analysisHandler.NewHandler(svc),
			History:  historyHandler.NewHandler(svc),
			Corpus:   corpusHandler.NewHandler(svc),
			Health:   healthHandler.NewHandler(checks),
		},
		prom,
		router.RouterConfig{
			Logger:         log.Logger,
			Metrics:        appMetrics,
			RequestTimeout: cfg.Server.RequestTimeout,
			MaxBodyBytes:   cfg.Server.MaxBodyBytes,
			RateLimit:      limit,
			RateBurst:      cfg.RateLimit.Burst,
			CORSConfig:     cors,
		},
	)
	r.Setup()

	// Create server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r.Engine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server
	go func() {
		log.Info().
			Int("port", cfg.Server.Port).
			Bool("history", svc.HistoryEnabled()).
			Bool("redis", cfg.Redis.Enabled).
			Int("corpus_examples", trainingData.Len()).
			Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server...")

	shutdownTimeout := cfg.Server.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = 5 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited properly")
}
