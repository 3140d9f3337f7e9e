package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/medilens/medilens-api/internal/model"
	"github.com/medilens/medilens-api/internal/repository"
)

// claimLease hides claimed events from other workers until they are settled.
const claimLease = time.Minute

type outboxRepository struct {
	BaseRepository
}

func NewOutboxRepository(base BaseRepository) repository.OutboxRepository {
	return &outboxRepository{base}
}

func (r *outboxRepository) Create(ctx context.Context, event *model.OutboxEvent) error {
	if event == nil {
		return fmt.Errorf("event cannot be nil")
	}
	if event.Payload == nil {
		return fmt.Errorf("event payload cannot be nil")
	}

	query := `
		INSERT INTO outbox_events (
			id, event_type, payload, status, retry_count, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, 0, $5, $6
		)
	`
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	event.CreatedAt = time.Now().UTC()
	event.UpdatedAt = event.CreatedAt
	event.Status = string(model.OutboxStatusPending)

	_, err := r.db.ExecContext(ctx, query,
		event.ID,
		event.EventType,
		event.Payload,
		event.Status,
		event.CreatedAt,
		event.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create outbox event: %w", err)
	}
	return nil
}

// GetPendingEventsWithLock claims up to limit due events. Rows locked by
// another worker are skipped, and claimed rows get a short retry_at lease
// so a concurrent poll does not pick them up again.
func (r *outboxRepository) GetPendingEventsWithLock(ctx context.Context, limit int) ([]*model.OutboxEvent, error) {
	query := `
		WITH claimed AS (
			SELECT id FROM outbox_events
			WHERE status IN ('pending', 'retry')
			AND (retry_at IS NULL OR retry_at <= NOW())
			ORDER BY created_at ASC
			LIMIT $1
			FOR UPDATE SKIP LOCKED
		)
		UPDATE outbox_events e
		SET retry_at = NOW() + $2 * INTERVAL '1 second', updated_at = NOW()
		FROM claimed
		WHERE e.id = claimed.id
		RETURNING e.id, e.event_type, e.payload, e.status, e.error_message,
			e.created_at, e.processed_at, e.updated_at, e.retry_count, e.retry_at
	`
	var events []*model.OutboxEvent
	if err := r.db.SelectContext(ctx, &events, query, limit, int(claimLease.Seconds())); err != nil {
		return nil, fmt.Errorf("failed to claim outbox events: %w", err)
	}
	return events, nil
}

func (r *outboxRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.OutboxStatus, errorMessage *string, retryAt *time.Time) error {
	query := `
		UPDATE outbox_events
		SET status = $1,
			error_message = $2,
			retry_at = $4,
			retry_count = CASE WHEN $1 = 'processed' THEN retry_count ELSE retry_count + 1 END,
			processed_at = CASE WHEN $1 = 'processed' THEN NOW() ELSE processed_at END,
			updated_at = NOW()
		WHERE id = $3
	`
	result, err := r.db.ExecContext(ctx, query, string(status), errorMessage, id, retryAt)
	if err != nil {
		return fmt.Errorf("failed to update outbox event: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *outboxRepository) DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error) {
	query := `
		DELETE FROM outbox_events
		WHERE status = 'processed'
		AND processed_at < $1
	`
	result, err := r.db.ExecContext(ctx, query, before)
	if err != nil {
		return 0, fmt.Errorf("failed to delete processed events: %w", err)
	}

	return result.RowsAffected()
}

func (r *outboxRepository) CountPending(ctx context.Context) (int64, error) {
	var count int64
	query := `SELECT COUNT(*) FROM outbox_events WHERE status IN ('pending', 'retry')`
	if err := r.db.GetContext(ctx, &count, query); err != nil {
		return 0, fmt.Errorf("failed to count pending events: %w", err)
	}
	return count, nil
}
