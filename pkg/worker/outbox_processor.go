package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/medilens/medilens-api/internal/model"
	"github.com/medilens/medilens-api/internal/repository"
	"github.com/medilens/medilens-api/pkg/logger"
	"github.com/medilens/medilens-api/pkg/messaging"
	"github.com/medilens/medilens-api/pkg/metrics"
)

type OutboxProcessorConfig struct {
	BatchSize     int
	PollInterval  time.Duration
	RetryAttempts int
	RetryDelay    time.Duration
	// MaxDeliveries is how many polls may fail before an event is marked failed.
	MaxDeliveries int
	// Retention is how long processed events are kept; zero disables cleanup.
	Retention       time.Duration
	CleanupInterval time.Duration
}

type OutboxProcessor struct {
	repo    repository.OutboxRepository
	broker  messaging.Broker
	config  OutboxProcessorConfig
	logger  *logger.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewOutboxProcessor(
	repo repository.OutboxRepository,
	broker messaging.Broker,
	config OutboxProcessorConfig,
	logger *logger.Logger,
	metrics *metrics.Metrics,
) (*OutboxProcessor, error) {
	if config.BatchSize <= 0 {
		return nil, errors.New("BatchSize must be greater than 0")
	}
	if config.PollInterval <= 0 {
		return nil, errors.New("PollInterval must be greater than 0")
	}
	if config.RetryAttempts <= 0 {
		return nil, errors.New("RetryAttempts must be greater than 0")
	}
	if config.RetryDelay <= 0 {
		return nil, errors.New("RetryDelay must be greater than 0")
	}
	if config.MaxDeliveries <= 0 {
		config.MaxDeliveries = 5
	}
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = time.Hour
	}

	return &OutboxProcessor{
		repo:    repo,
		broker:  broker,
		config:  config,
		logger:  logger,
		metrics: metrics,
		now:     time.Now,
	}, nil
}

// Start polls until ctx is cancelled.
func (p *OutboxProcessor) Start(ctx context.Context) {
	ticker := time.NewTicker(p.config.PollInterval)
	defer ticker.Stop()
	cleanup := time.NewTicker(p.config.CleanupInterval)
	defer cleanup.Stop()

	p.logger.Info("Starting outbox processor",
		"batch_size", p.config.BatchSize,
		"poll_interval", p.config.PollInterval.String())

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("Shutting down outbox processor")
			return
		case <-ticker.C:
			if err := p.processEvents(ctx); err != nil {
				p.logger.Error(err, "Failed to process events")
			}
		case <-cleanup.C:
			if _, err := p.cleanup(ctx); err != nil {
				p.logger.Error(err, "Failed to clean up processed events")
			}
		}
	}
}

func (p *OutboxProcessor) processEvents(ctx context.Context) error {
	timer := prometheus.NewTimer(p.metrics.OutboxProcessingLatency)
	defer timer.ObserveDuration()

	events, err := p.repo.GetPendingEventsWithLock(ctx, p.config.BatchSize)
	if err != nil {
		p.metrics.DatabaseOperations.WithLabelValues("get_pending_events", "error").Inc()
		return fmt.Errorf("failed to get pending events: %w", err)
	}
	p.metrics.DatabaseOperations.WithLabelValues("get_pending_events", "success").Inc()

	for _, event := range events {
		if err := p.processEvent(ctx, event); err != nil {
			p.logger.Error(err, "Failed to process event",
				"event_id", event.ID.String(),
				"event_type", event.EventType)
			continue
		}
	}

	if pending, err := p.repo.CountPending(ctx); err == nil {
		p.metrics.OutboxQueueSize.Set(float64(pending))
	}

	return nil
}

func (p *OutboxProcessor) processEvent(ctx context.Context, event *model.OutboxEvent) error {
	msg := messaging.Message{
		ID:      event.ID.String(),
		Type:    event.EventType,
		Payload: event.Payload,
	}

	attempt := 0
	err := retry(ctx, p.config.RetryAttempts, p.config.RetryDelay, func() error {
		if attempt > 0 {
			p.metrics.OutboxRetries.WithLabelValues(event.EventType).Inc()
		}
		attempt++
		return p.broker.Publish(ctx, event.EventType, msg)
	})

	if err != nil {
		errStr := err.Error()
		status := model.OutboxStatusRetry
		var retryAt *time.Time
		if event.RetryCount+1 >= p.config.MaxDeliveries {
			status = model.OutboxStatusFailed
			p.metrics.OutboxEventsFailed.Inc()
		} else {
			at := p.now().Add(backoff(p.config.RetryDelay, event.RetryCount+1))
			retryAt = &at
		}
		if updateErr := p.repo.UpdateStatus(ctx, event.ID, status, &errStr, retryAt); updateErr != nil {
			p.logger.Error(updateErr, "Failed to update event status", "event_id", event.ID.String())
		}
		return err
	}

	p.metrics.OutboxEventsProcessed.Inc()
	if err := p.repo.UpdateStatus(ctx, event.ID, model.OutboxStatusProcessed, nil, nil); err != nil {
		p.logger.Error(err, "Failed to update event status", "event_id", event.ID.String())
		return err
	}

	return nil
}

func (p *OutboxProcessor) cleanup(ctx context.Context) (int64, error) {
	if p.config.Retention <= 0 {
		return 0, nil
	}
	deleted, err := p.repo.DeleteProcessedBefore(ctx, p.now().Add(-p.config.Retention))
	if err != nil {
		p.metrics.DatabaseOperations.WithLabelValues("delete_processed_events", "error").Inc()
		return 0, err
	}
	p.metrics.DatabaseOperations.WithLabelValues("delete_processed_events", "success").Inc()
	if deleted > 0 {
		p.logger.Info("Deleted processed outbox events", "count", deleted)
	}
	return deleted, nil
}

// backoff doubles delay per failed delivery, capped at one hour.
func backoff(delay time.Duration, deliveries int) time.Duration {
	d := delay
	for i := 1; i < deliveries && d < time.Hour; i++ {
		d *= 2
	}
	if d > time.Hour {
		d = time.Hour
	}
	return d
}

// Helper retry function
func retry(ctx context.Context, attempts int, delay time.Duration, fn func() error) error {
	var err error
	for i := 0; i < attempts; i++ {
		if err = fn(); err == nil {
			return nil
		}
		if i < attempts-1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}
	return err
}
