package event

import (
	"context"
	"fmt"

	"github.com/marketplace/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// Handler outcomes reported to a HandlerObserver
const (
	OutcomeProcessed = "processed"
	OutcomeDuplicate = "duplicate"
	OutcomeFailed    = "failed"
)

// HandlerObserver is told how each delivery to a wrapped handler ended
type HandlerObserver interface {
	RecordHandlerOutcome(ctx context.Context, eventType, outcome string)
}

// IdempotentHandler keeps outbox redelivery from notifying a vendor twice.
// A key is stored only after the wrapped handler succeeds, so failures are
// retried. Two concurrent deliveries may still both run; the notification
// writes are keyed on the event ID to absorb that.
type IdempotentHandler struct {
	handler  shared.EventHandler
	store    shared.IdempotencyStore
	config   shared.IdempotencyConfig
	logger   *zap.Logger
	observer HandlerObserver
}

type IdempotentHandlerOption func(*IdempotentHandler)

func WithIdempotencyConfig(config shared.IdempotencyConfig) IdempotentHandlerOption {
	return func(h *IdempotentHandler) { h.config = config }
}

func WithHandlerObserver(o HandlerObserver) IdempotentHandlerOption {
	return func(h *IdempotentHandler) { h.observer = o }
}

func NewIdempotentHandler(
	handler shared.EventHandler,
	store shared.IdempotencyStore,
	logger *zap.Logger,
	opts ...IdempotentHandlerOption,
) *IdempotentHandler {
	h := &IdempotentHandler{
		handler: handler,
		store:   store,
		config:  shared.DefaultIdempotencyConfig(),
		logger:  logger,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *IdempotentHandler) EventTypes() []string {
	return h.handler.EventTypes()
}

// key includes the wrapped handler's type so two handlers sharing a store
// each get to see the event once
func (h *IdempotentHandler) key(event shared.DomainEvent) string {
	return fmt.Sprintf("%T:%s", h.handler, event.EventID())
}

func (h *IdempotentHandler) report(ctx context.Context, event shared.DomainEvent, outcome string) {
	if h.observer != nil {
		h.observer.RecordHandlerOutcome(ctx, event.EventType(), outcome)
	}
}

func (h *IdempotentHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	if !h.config.Enabled {
		return h.handler.Handle(ctx, event)
	}

	key := h.key(event)
	done, err := h.store.IsProcessed(ctx, key)
	switch {
	case err != nil:
		// a duplicate notification beats a lost one
		h.logger.Warn("idempotency check failed, handling anyway",
			zap.String("event_id", event.EventID().String()), zap.Error(err))
	case done:
		h.report(ctx, event, OutcomeDuplicate)
		h.logger.Debug("skipping already handled event",
			zap.String("event_id", event.EventID().String()),
			zap.String("event_type", event.EventType()))
		return nil
	}

	if err := h.handler.Handle(ctx, event); err != nil {
		h.report(ctx, event, OutcomeFailed)
		return err
	}
	h.report(ctx, event, OutcomeProcessed)

	if _, err := h.store.MarkProcessed(ctx, key, h.config.TTL); err != nil {
		h.logger.Warn("failed to remember handled event",
			zap.String("event_id", event.EventID().String()), zap.Error(err))
	}
	return nil
}

var _ shared.EventHandler = (*IdempotentHandler)(nil)
