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

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/medilens/medilens-api/internal/config"
	"github.com/medilens/medilens-api/internal/repository/postgres"
	historyWorker "github.com/medilens/medilens-api/internal/worker"
	"github.com/medilens/medilens-api/pkg/logger"
	"github.com/medilens/medilens-api/pkg/messaging/redis"
	"github.com/medilens/medilens-api/pkg/metrics"
	"github.com/medilens/medilens-api/pkg/worker"
)

func setupHealthCheck(port int, registry *prometheus.Registry, ready func(context.Context) error) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/health/live", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	mux.HandleFunc("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := ready(ctx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("Health check server failed")
			os.Exit(1)
		}
	}()
	return srv
}

func main() {
	// Load config
	cfg, err := config.Load(os.Getenv("MEDILENS_CONFIG_FILE"))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	// Initialize logger
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}
	appLogger := logger.NewLogger(&logger.Config{
		Level:  logger.ParseLevel(cfg.Log.Level),
		Pretty: cfg.Log.Pretty,
	}).WithFields(map[string]interface{}{"worker_id": fmt.Sprintf("worker-%s-%d", hostname, os.Getpid())})
	log.Logger = appLogger.Zerolog()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize database
	db, err := postgres.NewDB(ctx, cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	// Initialize Redis broker
	broker, err := redis.NewRedisBroker(ctx, cfg.Redis.ToBrokerConfig(), &log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create Redis broker")
	}
	defer broker.Close()

	// Initialize repositories
	baseRepo := postgres.NewBaseRepository(db)
	outboxRepo := postgres.NewOutboxRepository(baseRepo)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	// Initialize and start outbox processor
	processor, err := worker.NewOutboxProcessor(
		outboxRepo,
		broker,
		cfg.Outbox.ToWorkerConfig(),
		appLogger,
		metrics.NewMetrics("medilens_outbox", registry),
	)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid outbox configuration")
	}

	// Setup health check endpoints
	health := setupHealthCheck(cfg.Outbox.HealthPort, registry, db.PingContext)

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Info().Msg("Shutting down...")
		cancel()
	}()

	purge := historyWorker.NewHistoryPurgeWorker(
		postgres.NewAnalysisRepository(baseRepo),
		cfg.History.Retention,
		cfg.History.PurgeInterval,
		appLogger,
	)
	go purge.Start(ctx)

	processor.Start(ctx)

	shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
	defer stop()
	if err := health.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Health check server forced to shutdown")
	}
}
