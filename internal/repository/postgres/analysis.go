package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/medilens/medilens-api/internal/model"
	"github.com/medilens/medilens-api/internal/repository"
)

const analysisColumns = `
	id, user_id, text_hash, encrypted_text, report, medicines,
	medication_count, patient_name, doctor_name, sent_to_chat,
	created_at, updated_at, deleted_at`

type analysisRepository struct {
	BaseRepository
}

func NewAnalysisRepository(base BaseRepository) repository.AnalysisRepository {
	return &analysisRepository{base}
}

func (r *analysisRepository) CreateWithEvent(ctx context.Context, analysis *model.Analysis, event *model.OutboxEvent) error {
	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		query := `
			INSERT INTO analyses (
				id, user_id, text_hash, encrypted_text, report, medicines,
				medication_count, patient_name, doctor_name, sent_to_chat,
				created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		`
		_, err := tx.ExecContext(ctx, query,
			analysis.ID,
			analysis.UserID,
			analysis.TextHash,
			analysis.EncryptedText,
			analysis.Report,
			analysis.Medicines,
			analysis.MedicationCount,
			analysis.PatientName,
			analysis.DoctorName,
			analysis.SentToChat,
			analysis.CreatedAt,
			analysis.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to create analysis: %w", err)
		}

		if event == nil {
			return nil
		}
		return insertOutboxEvent(ctx, tx, event)
	})
}

func (r *analysisRepository) Get(ctx context.Context, id uuid.UUID, userID string) (*model.Analysis, error) {
	query := `SELECT` + analysisColumns + `
		FROM analyses
		WHERE id = $1 AND user_id = $2 AND deleted_at IS NULL
	`
	var analysis model.Analysis
	if err := r.GetDB().GetContext(ctx, &analysis, query, id, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get analysis: %w", err)
	}
	return &analysis, nil
}

func (r *analysisRepository) List(ctx context.Context, userID string, filters *model.AnalysisFilters) ([]*model.Analysis, error) {
	where, args := analysisWhere(userID, filters)
	query := `SELECT` + analysisColumns + `
		FROM analyses` + where + `
		ORDER BY created_at DESC`

	if filters != nil && filters.PageSize > 0 {
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
		args = append(args, filters.PageSize, filters.Offset())
	}

	analyses := []*model.Analysis{}
	if err := r.GetDB().SelectContext(ctx, &analyses, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list analyses: %w", err)
	}
	return analyses, nil
}

func (r *analysisRepository) Count(ctx context.Context, userID string, filters *model.AnalysisFilters) (int64, error) {
	where, args := analysisWhere(userID, filters)
	var count int64
	if err := r.GetDB().GetContext(ctx, &count, `SELECT COUNT(*) FROM analyses`+where, args...); err != nil {
		return 0, fmt.Errorf("failed to count analyses: %w", err)
	}
	return count, nil
}

func analysisWhere(userID string, filters *model.AnalysisFilters) (string, []interface{}) {
	where := " WHERE user_id = $1 AND deleted_at IS NULL"
	args := []interface{}{userID}
	if filters == nil {
		return where, args
	}

	if filters.SentToChat != nil {
		where += fmt.Sprintf(" AND sent_to_chat = $%d", len(args)+1)
		args = append(args, *filters.SentToChat)
	}

	if !filters.StartDate.IsZero() {
		where += fmt.Sprintf(" AND created_at >= $%d", len(args)+1)
		args = append(args, filters.StartDate)
	}

	if !filters.EndDate.IsZero() {
		// inclusive of the whole end day
		where += fmt.Sprintf(" AND created_at < $%d", len(args)+1)
		args = append(args, filters.EndDate.Add(24*time.Hour))
	}

	return where, args
}

func (r *analysisRepository) MarkSentToChat(ctx context.Context, id uuid.UUID, userID string, event *model.OutboxEvent) error {
	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		query := `
			UPDATE analyses
			SET sent_to_chat = TRUE, updated_at = NOW()
			WHERE id = $1 AND user_id = $2 AND deleted_at IS NULL
		`
		if err := execOne(ctx, tx, query, id, userID); err != nil {
			return fmt.Errorf("failed to mark analysis sent: %w", err)
		}
		if event == nil {
			return nil
		}
		return insertOutboxEvent(ctx, tx, event)
	})
}

func (r *analysisRepository) Delete(ctx context.Context, id uuid.UUID, userID string, event *model.OutboxEvent) error {
	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		query := `
			UPDATE analyses
			SET deleted_at = NOW(), updated_at = NOW()
			WHERE id = $1 AND user_id = $2 AND deleted_at IS NULL
		`
		if err := execOne(ctx, tx, query, id, userID); err != nil {
			return fmt.Errorf("failed to delete analysis: %w", err)
		}
		if event == nil {
			return nil
		}
		return insertOutboxEvent(ctx, tx, event)
	})
}

func (r *analysisRepository) PurgeDeletedBefore(ctx context.Context, before time.Time) (int64, error) {
	query := `DELETE FROM analyses WHERE deleted_at IS NOT NULL AND deleted_at < $1`
	result, err := r.GetDB().ExecContext(ctx, query, before)
	if err != nil {
		return 0, fmt.Errorf("failed to purge deleted analyses: %w", err)
	}
	return result.RowsAffected()
}

func (r *analysisRepository) Ping(ctx context.Context) error {
	return r.GetDB().PingContext(ctx)
}

// execOne runs a statement that must touch exactly one visible row.
func execOne(ctx context.Context, tx *sqlx.Tx, query string, args ...interface{}) error {
	result, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}
