package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/medilens/medilens-api/internal/model"
	"github.com/medilens/medilens-api/pkg/logger"
)

type mockAnalysisRepo struct {
	mock.Mock
}

func (m *mockAnalysisRepo) CreateWithEvent(context.Context, *model.Analysis, *model.OutboxEvent) error {
	return nil
}

func (m *mockAnalysisRepo) Get(context.Context, uuid.UUID, string) (*model.Analysis, error) {
	return nil, nil
}

func (m *mockAnalysisRepo) List(context.Context, string, *model.AnalysisFilters) ([]*model.Analysis, error) {
	return nil, nil
}

func (m *mockAnalysisRepo) Count(context.Context, string, *model.AnalysisFilters) (int64, error) {
	return 0, nil
}

func (m *mockAnalysisRepo) MarkSentToChat(context.Context, uuid.UUID, string, *model.OutboxEvent) error {
	return nil
}

func (m *mockAnalysisRepo) Delete(context.Context, uuid.UUID, string, *model.OutboxEvent) error {
	return nil
}

func (m *mockAnalysisRepo) PurgeDeletedBefore(ctx context.Context, before time.Time) (int64, error) {
	args := m.Called(ctx, before)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockAnalysisRepo) Ping(context.Context) error {
	return nil
}

func TestHistoryPurgeCutoff(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	repo := new(mockAnalysisRepo)
	repo.On("PurgeDeletedBefore", mock.Anything, now.Add(-30*24*time.Hour)).Return(int64(3), nil)

	w := NewHistoryPurgeWorker(repo, 30*24*time.Hour, time.Hour, logger.Nop())
	w.now = func() time.Time { return now }

	rows, err := w.purge(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), rows)
	repo.AssertExpectations(t)
}

func TestHistoryPurgeError(t *testing.T) {
	repo := new(mockAnalysisRepo)
	repo.On("PurgeDeletedBefore", mock.Anything, mock.Anything).Return(int64(0), errors.New("connection reset"))

	w := NewHistoryPurgeWorker(repo, time.Hour, time.Hour, logger.Nop())

	_, err := w.purge(context.Background())
	assert.ErrorContains(t, err, "connection reset")
}

func TestHistoryPurgeDisabled(t *testing.T) {
	repo := new(mockAnalysisRepo)
	w := NewHistoryPurgeWorker(repo, 0, time.Hour, logger.Nop())

	done := make(chan struct{})
	go func() {
		w.Start(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("disabled worker did not return")
	}
	repo.AssertNotCalled(t, "PurgeDeletedBefore", mock.Anything, mock.Anything)
}
