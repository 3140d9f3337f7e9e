package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/medilens/medilens-api/internal/model"
)

// ErrNotFound is returned when a record does not exist or is not visible to the caller.
var ErrNotFound = errors.New("record not found")

type (
	AnalysisRepository interface {
		// CreateWithEvent stores the analysis and its outbox event atomically.
		CreateWithEvent(ctx context.Context, analysis *model.Analysis, event *model.OutboxEvent) error
		Get(ctx context.Context, id uuid.UUID, userID string) (*model.Analysis, error)
		List(ctx context.Context, userID string, filters *model.AnalysisFilters) ([]*model.Analysis, error)
		Count(ctx context.Context, userID string, filters *model.AnalysisFilters) (int64, error)
		MarkSentToChat(ctx context.Context, id uuid.UUID, userID string, event *model.OutboxEvent) error
		Delete(ctx context.Context, id uuid.UUID, userID string, event *model.OutboxEvent) error
		// PurgeDeletedBefore permanently removes analyses soft-deleted before the cutoff.
		PurgeDeletedBefore(ctx context.Context, before time.Time) (int64, error)
		Ping(ctx context.Context) error
	}

	OutboxRepository interface {
		Create(ctx context.Context, event *model.OutboxEvent) error
		GetPendingEventsWithLock(ctx context.Context, limit int) ([]*model.OutboxEvent, error)
		UpdateStatus(ctx context.Context, id uuid.UUID, status model.OutboxStatus, errorMessage *string, retryAt *time.Time) error
		DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error)
		CountPending(ctx context.Context) (int64, error)
	}
)
