package event

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/marketplace/backend/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type memoryStore struct {
	mu       sync.Mutex
	keys     map[string]bool
	checkErr error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{keys: make(map[string]bool)}
}

func (s *memoryStore) MarkProcessed(_ context.Context, key string, _ time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.keys[key] {
		return false, nil
	}
	s.keys[key] = true
	return true, nil
}

func (s *memoryStore) IsProcessed(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.checkErr != nil {
		return false, s.checkErr
	}
	return s.keys[key], nil
}

func (s *memoryStore) Close() error { return nil }

type outcomeRecorder struct {
	mu       sync.Mutex
	outcomes []string
}

func (r *outcomeRecorder) RecordHandlerOutcome(_ context.Context, _ string, outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, outcome)
}

func TestIdempotentHandler_SkipsCompletedEvents(t *testing.T) {
	inner := testutil.NewMockEventHandler("OrderCreated")
	outcomes := &outcomeRecorder{}
	h := NewIdempotentHandler(inner, newMemoryStore(), zap.NewNop(), WithHandlerObserver(outcomes))
	event := testutil.NewTestEvent("OrderCreated")

	require.NoError(t, h.Handle(context.Background(), event))
	require.NoError(t, h.Handle(context.Background(), event))

	assert.Equal(t, 1, inner.HandledCount())
	assert.Equal(t, []string{OutcomeProcessed, OutcomeDuplicate}, outcomes.outcomes)
	assert.Equal(t, []string{"OrderCreated"}, h.EventTypes())
}

func TestIdempotentHandler_FailedAttemptIsRetried(t *testing.T) {
	inner := testutil.NewMockEventHandler("OrderCreated")
	inner.SetError(errors.New("temporary"))
	outcomes := &outcomeRecorder{}
	h := NewIdempotentHandler(inner, newMemoryStore(), zap.NewNop(), WithHandlerObserver(outcomes))
	event := testutil.NewTestEvent("OrderCreated")

	require.Error(t, h.Handle(context.Background(), event))
	inner.SetError(nil)
	require.NoError(t, h.Handle(context.Background(), event))

	assert.Equal(t, 2, inner.HandledCount())
	assert.Equal(t, []string{OutcomeFailed, OutcomeProcessed}, outcomes.outcomes)
}

func TestIdempotentHandler_HandlersSharingAStoreAreIndependent(t *testing.T) {
	store := newMemoryStore()
	first := testutil.NewMockEventHandler("OrderCreated")
	second := &otherHandler{MockEventHandler: testutil.NewMockEventHandler("OrderCreated")}
	event := testutil.NewTestEvent("OrderCreated")

	require.NoError(t, NewIdempotentHandler(first, store, zap.NewNop()).Handle(context.Background(), event))
	require.NoError(t, NewIdempotentHandler(second, store, zap.NewNop()).Handle(context.Background(), event))

	assert.Equal(t, 1, first.HandledCount())
	assert.Equal(t, 1, second.HandledCount())
}

type otherHandler struct {
	*testutil.MockEventHandler
}

func TestIdempotentHandler_StoreErrorStillProcesses(t *testing.T) {
	store := newMemoryStore()
	store.checkErr = errors.New("redis down")
	inner := testutil.NewMockEventHandler("OrderCreated")
	h := NewIdempotentHandler(inner, store, zap.NewNop())

	require.NoError(t, h.Handle(context.Background(), testutil.NewTestEvent("OrderCreated")))
	assert.Equal(t, 1, inner.HandledCount())
}

func TestIdempotentHandler_Disabled(t *testing.T) {
	inner := testutil.NewMockEventHandler("OrderCreated")
	h := NewIdempotentHandler(inner, newMemoryStore(), zap.NewNop(),
		WithIdempotencyConfig(shared.IdempotencyConfig{Enabled: false}))
	event := testutil.NewTestEvent("OrderCreated")

	require.NoError(t, h.Handle(context.Background(), event))
	require.NoError(t, h.Handle(context.Background(), event))
	assert.Equal(t, 2, inner.HandledCount())
}
