package worker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/medilens/medilens-api/internal/model"
	"github.com/medilens/medilens-api/pkg/logger"
	"github.com/medilens/medilens-api/pkg/messaging"
	"github.com/medilens/medilens-api/pkg/metrics"
)

type mockOutboxRepo struct {
	mock.Mock
}

func (m *mockOutboxRepo) Create(ctx context.Context, event *model.OutboxEvent) error {
	return m.Called(ctx, event).Error(0)
}

func (m *mockOutboxRepo) GetPendingEventsWithLock(ctx context.Context, limit int) ([]*model.OutboxEvent, error) {
	args := m.Called(ctx, limit)
	events, _ := args.Get(0).([]*model.OutboxEvent)
	return events, args.Error(1)
}

func (m *mockOutboxRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status model.OutboxStatus, errorMessage *string, retryAt *time.Time) error {
	return m.Called(ctx, id, status, errorMessage, retryAt).Error(0)
}

func (m *mockOutboxRepo) DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error) {
	args := m.Called(ctx, before)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockOutboxRepo) CountPending(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

type mockBroker struct {
	mock.Mock
}

func (m *mockBroker) Publish(ctx context.Context, channel string, message interface{}) error {
	return m.Called(ctx, channel, message).Error(0)
}

func (m *mockBroker) Subscribe(ctx context.Context, channel string) (<-chan []byte, error) {
	args := m.Called(ctx, channel)
	ch, _ := args.Get(0).(<-chan []byte)
	return ch, args.Error(1)
}

func (m *mockBroker) Close() error {
	return m.Called().Error(0)
}

func testConfig() OutboxProcessorConfig {
	return OutboxProcessorConfig{
		BatchSize:     10,
		PollInterval:  time.Second,
		RetryAttempts: 2,
		RetryDelay:    time.Millisecond,
		MaxDeliveries: 3,
		Retention:     24 * time.Hour,
	}
}

func newEvent(t *testing.T, retries int) *model.OutboxEvent {
	t.Helper()
	event, err := model.NewOutboxEvent(model.EventAnalysisCreated, model.AnalysisEvent{
		AnalysisID:      uuid.New(),
		UserID:          "user-1",
		MedicationCount: 2,
	})
	require.NoError(t, err)
	event.RetryCount = retries
	return event
}

func TestNewOutboxProcessorValidatesConfig(t *testing.T) {
	cfg := testConfig()
	cfg.BatchSize = 0
	_, err := NewOutboxProcessor(&mockOutboxRepo{}, &mockBroker{}, cfg, logger.Nop(), metrics.New("test"))
	assert.Error(t, err)

	p, err := NewOutboxProcessor(&mockOutboxRepo{}, &mockBroker{}, testConfig(), logger.Nop(), metrics.New("test"))
	require.NoError(t, err)
	assert.Equal(t, time.Hour, p.config.CleanupInterval)
}

func TestProcessEventsPublishesAndMarksProcessed(t *testing.T) {
	repo := &mockOutboxRepo{}
	broker := &mockBroker{}
	event := newEvent(t, 0)

	repo.On("GetPendingEventsWithLock", mock.Anything, 10).Return([]*model.OutboxEvent{event}, nil)
	broker.On("Publish", mock.Anything, model.EventAnalysisCreated, mock.MatchedBy(func(msg messaging.Message) bool {
		var payload model.AnalysisEvent
		raw, ok := msg.Payload.(json.RawMessage)
		return ok && msg.ID == event.ID.String() && json.Unmarshal(raw, &payload) == nil && payload.UserID == "user-1"
	})).Return(nil).Once()
	repo.On("UpdateStatus", mock.Anything, event.ID, model.OutboxStatusProcessed, (*string)(nil), (*time.Time)(nil)).Return(nil).Once()
	repo.On("CountPending", mock.Anything).Return(int64(0), nil)

	p, err := NewOutboxProcessor(repo, broker, testConfig(), logger.Nop(), metrics.New("test"))
	require.NoError(t, err)

	require.NoError(t, p.processEvents(context.Background()))
	repo.AssertExpectations(t)
	broker.AssertExpectations(t)
}

func TestProcessEventSchedulesRetry(t *testing.T) {
	repo := &mockOutboxRepo{}
	broker := &mockBroker{}
	event := newEvent(t, 0)
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	broker.On("Publish", mock.Anything, event.EventType, mock.Anything).Return(errors.New("connection refused")).Twice()
	repo.On("UpdateStatus", mock.Anything, event.ID, model.OutboxStatusRetry,
		mock.MatchedBy(func(msg *string) bool { return msg != nil && *msg == "connection refused" }),
		mock.MatchedBy(func(at *time.Time) bool { return at != nil && at.Equal(now.Add(time.Millisecond)) }),
	).Return(nil).Once()

	p, err := NewOutboxProcessor(repo, broker, testConfig(), logger.Nop(), metrics.New("test"))
	require.NoError(t, err)
	p.now = func() time.Time { return now }

	assert.Error(t, p.processEvent(context.Background(), event))
	repo.AssertExpectations(t)
	broker.AssertExpectations(t)
}

func TestProcessEventGivesUpAfterMaxDeliveries(t *testing.T) {
	repo := &mockOutboxRepo{}
	broker := &mockBroker{}
	event := newEvent(t, 2)

	broker.On("Publish", mock.Anything, event.EventType, mock.Anything).Return(errors.New("circuit breaker is open"))
	repo.On("UpdateStatus", mock.Anything, event.ID, model.OutboxStatusFailed, mock.Anything, (*time.Time)(nil)).Return(nil).Once()

	p, err := NewOutboxProcessor(repo, broker, testConfig(), logger.Nop(), metrics.New("test"))
	require.NoError(t, err)

	assert.Error(t, p.processEvent(context.Background(), event))
	repo.AssertExpectations(t)
}

func TestCleanupDeletesProcessedEvents(t *testing.T) {
	repo := &mockOutboxRepo{}
	now := time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)
	repo.On("DeleteProcessedBefore", mock.Anything, now.Add(-24*time.Hour)).Return(int64(4), nil).Once()

	p, err := NewOutboxProcessor(repo, &mockBroker{}, testConfig(), logger.Nop(), metrics.New("test"))
	require.NoError(t, err)
	p.now = func() time.Time { return now }

	deleted, err := p.cleanup(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(4), deleted)
	repo.AssertExpectations(t)
}

func TestBackoff(t *testing.T) {
	assert.Equal(t, time.Second, backoff(time.Second, 1))
	assert.Equal(t, 4*time.Second, backoff(time.Second, 3))
	assert.Equal(t, time.Hour, backoff(time.Minute, 20))
}
