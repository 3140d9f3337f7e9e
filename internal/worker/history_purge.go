package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/medilens/medilens-api/internal/repository"
	"github.com/medilens/medilens-api/pkg/logger"
)

// HistoryPurgeWorker permanently removes analyses that users deleted more
// than retention ago. Until then a deleted analysis is only hidden.
type HistoryPurgeWorker struct {
	repo          repository.AnalysisRepository
	retention     time.Duration
	purgeInterval time.Duration
	logger        *logger.Logger
	now           func() time.Time
}

func NewHistoryPurgeWorker(repo repository.AnalysisRepository, retention, purgeInterval time.Duration, logger *logger.Logger) *HistoryPurgeWorker {
	return &HistoryPurgeWorker{
		repo:          repo,
		retention:     retention,
		purgeInterval: purgeInterval,
		logger:        logger,
		now:           time.Now,
	}
}

// Start purges on every tick until ctx is cancelled. A zero retention or
// interval disables the worker.
func (w *HistoryPurgeWorker) Start(ctx context.Context) {
	if w.retention <= 0 || w.purgeInterval <= 0 {
		w.logger.Info("History purge disabled")
		return
	}

	ticker := time.NewTicker(w.purgeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := w.purge(ctx); err != nil {
				w.logger.Error(err, "Failed to purge deleted analyses")
			}
		}
	}
}

func (w *HistoryPurgeWorker) purge(ctx context.Context) (int64, error) {
	cutoff := w.now().Add(-w.retention)

	rows, err := w.repo.PurgeDeletedBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to purge deleted analyses: %w", err)
	}

	if rows > 0 {
		w.logger.Info("Purged deleted analyses", "count", rows, "cutoff", cutoff.Format(time.RFC3339))
	}
	return rows, nil
}
