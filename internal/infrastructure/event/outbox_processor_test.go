package event

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/marketplace/backend/internal/domain/order"
	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/marketplace/backend/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type recordingObserver struct {
	mu       sync.Mutex
	statuses []shared.OutboxStatus
}

func (o *recordingObserver) RecordOutboxDelivery(_ context.Context, _ string, status shared.OutboxStatus) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.statuses = append(o.statuses, status)
}

type pipeline struct {
	db        *gorm.DB
	repo      *GormOutboxRepository
	publisher *OutboxPublisher
	bus       *InMemoryEventBus
	processor *OutboxProcessor
	observer  *recordingObserver
}

func newPipeline(t *testing.T, maxRetries int) *pipeline {
	db := testutil.NewSQLiteDB(t)
	serializer := NewEventSerializer()
	RegisterAllEvents(serializer)

	p := &pipeline{
		db:        db,
		repo:      NewGormOutboxRepository(db),
		publisher: NewOutboxPublisher(serializer, maxRetries),
		bus:       NewInMemoryEventBus(zap.NewNop()),
		observer:  &recordingObserver{},
	}
	cfg := DefaultOutboxProcessorConfig()
	cfg.PollInterval = 10 * time.Millisecond
	p.processor = NewOutboxProcessor(p.repo, p.bus, serializer, cfg, zap.NewNop(), WithDeliveryObserver(p.observer))
	return p
}

func (p *pipeline) record(t *testing.T, events ...shared.DomainEvent) {
	err := p.db.Transaction(func(tx *gorm.DB) error {
		return p.publisher.Recorder(tx).Record(context.Background(), events...)
	})
	require.NoError(t, err)
}

func TestOutboxProcessor_DeliversRecordedEvents(t *testing.T) {
	p := newPipeline(t, 0)
	handler := testutil.NewMockEventHandler(order.EventTypeOrderCreated)
	p.bus.Subscribe(handler)

	o := newTestOrder(t)
	p.record(t, o.GetDomainEvents()...)

	assert.Equal(t, 1, p.processor.ProcessOnce(context.Background()))
	require.Equal(t, 1, handler.HandledCount())
	delivered, ok := handler.Handled()[0].(*order.OrderCreatedEvent)
	require.True(t, ok)
	assert.Equal(t, o.ID, delivered.OrderID)

	counts, err := p.repo.CountByStatus(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), counts[shared.OutboxStatusSent])
	assert.Equal(t, []shared.OutboxStatus{shared.OutboxStatusSent}, p.observer.statuses)

	assert.Zero(t, p.processor.ProcessOnce(context.Background()), "sent entries are not redelivered")
}

func TestOutboxProcessor_RolledBackTransactionLeavesNoEntry(t *testing.T) {
	p := newPipeline(t, 0)
	boom := errors.New("boom")

	err := p.db.Transaction(func(tx *gorm.DB) error {
		require.NoError(t, p.publisher.Recorder(tx).Record(context.Background(), newTestOrder(t).GetDomainEvents()...))
		return boom
	})
	require.ErrorIs(t, err, boom)

	pending, err := p.repo.FindPending(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestOutboxProcessor_FailuresBackOffThenDeadLetter(t *testing.T) {
	p := newPipeline(t, 2)
	handler := testutil.NewMockEventHandler(order.EventTypeOrderCreated)
	handler.SetError(errors.New("downstream unavailable"))
	p.bus.Subscribe(handler)
	ctx := context.Background()

	p.record(t, newTestOrder(t).GetDomainEvents()...)

	require.Equal(t, 1, p.processor.ProcessOnce(ctx))
	pending, err := p.repo.FindPending(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)

	retryable, err := p.repo.FindRetryable(ctx, time.Now().Add(time.Minute), 10)
	require.NoError(t, err)
	require.Len(t, retryable, 1)
	assert.Equal(t, shared.OutboxStatusFailed, retryable[0].Status)
	assert.Equal(t, "downstream unavailable", retryable[0].LastError)
	require.NotNil(t, retryable[0].NextRetryAt)
	assert.True(t, retryable[0].NextRetryAt.After(time.Now()), "retry is scheduled in the future")

	assert.Zero(t, p.processor.ProcessOnce(ctx), "not yet due")

	past := time.Now().Add(-time.Second)
	retryable[0].NextRetryAt = &past
	require.NoError(t, p.repo.Update(ctx, retryable[0]))
	require.Equal(t, 1, p.processor.ProcessOnce(ctx))

	dead, total, err := p.repo.FindDead(ctx, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, 2, dead[0].RetryCount)
	assert.Equal(t, 2, handler.HandledCount())
}

func TestOutboxProcessor_UnknownEventTypeFails(t *testing.T) {
	p := newPipeline(t, 0)
	ctx := context.Background()

	entry := shared.NewOutboxEntry(testutil.NewTestEvent("Unregistered"), []byte(`{}`))
	require.NoError(t, p.repo.Save(ctx, entry))

	require.Equal(t, 1, p.processor.ProcessOnce(ctx))
	loaded, err := p.repo.FindByID(ctx, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, shared.OutboxStatusFailed, loaded.Status)
	assert.Contains(t, loaded.LastError, "unknown event type")
}

func TestOutboxProcessor_StartStop(t *testing.T) {
	p := newPipeline(t, 0)
	handler := testutil.NewMockEventHandler(order.EventTypeOrderCreated)
	p.bus.Subscribe(handler)
	p.record(t, newTestOrder(t).GetDomainEvents()...)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, p.processor.Start(ctx))

	assert.True(t, testutil.WaitForCondition(t, func() bool {
		return handler.HandledCount() == 1
	}, 2*time.Second, 10*time.Millisecond))

	stopCtx, stopCancel := context.WithTimeout(context.Background(), time.Second)
	defer stopCancel()
	require.NoError(t, p.processor.Stop(stopCtx))
}
