package event

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// OutboxProcessorConfig holds configuration for the outbox processor
type OutboxProcessorConfig struct {
	BatchSize        int
	PollInterval     time.Duration
	CleanupEnabled   bool
	CleanupRetention time.Duration
	CleanupInterval  time.Duration
	// StuckAfter is how long an entry may stay PROCESSING before it is
	// handed back to the queue
	StuckAfter time.Duration
}

// DefaultOutboxProcessorConfig returns default configuration
func DefaultOutboxProcessorConfig() OutboxProcessorConfig {
	return OutboxProcessorConfig{
		BatchSize:        100,
		PollInterval:     2 * time.Second,
		CleanupEnabled:   true,
		CleanupRetention: 7 * 24 * time.Hour,
		CleanupInterval:  time.Hour,
		StuckAfter:       5 * time.Minute,
	}
}

// DeliveryObserver is notified of every delivery attempt
type DeliveryObserver interface {
	RecordOutboxDelivery(ctx context.Context, eventType string, status shared.OutboxStatus)
}

// OutboxProcessor delivers outbox entries to the event bus in the background
type OutboxProcessor struct {
	repo       shared.OutboxRepository
	eventBus   shared.EventPublisher
	serializer *EventSerializer
	config     OutboxProcessorConfig
	logger     *zap.Logger
	observer   DeliveryObserver

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// OutboxProcessorOption configures optional collaborators
type OutboxProcessorOption func(*OutboxProcessor)

// WithDeliveryObserver reports delivery outcomes, e.g. to metrics
func WithDeliveryObserver(o DeliveryObserver) OutboxProcessorOption {
	return func(p *OutboxProcessor) {
		p.observer = o
	}
}

// NewOutboxProcessor creates a new outbox processor
func NewOutboxProcessor(
	repo shared.OutboxRepository,
	eventBus shared.EventPublisher,
	serializer *EventSerializer,
	config OutboxProcessorConfig,
	logger *zap.Logger,
	opts ...OutboxProcessorOption,
) *OutboxProcessor {
	p := &OutboxProcessor{
		repo:       repo,
		eventBus:   eventBus,
		serializer: serializer,
		config:     config,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Start launches the polling loop and, if enabled, the cleanup loop
func (p *OutboxProcessor) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel

	p.wg.Add(1)
	go p.processLoop(ctx)

	if p.config.CleanupEnabled {
		p.wg.Add(1)
		go p.cleanupLoop(ctx)
	}

	p.logger.Info("outbox processor started",
		zap.Int("batch_size", p.config.BatchSize),
		zap.Duration("poll_interval", p.config.PollInterval),
	)
	return nil
}

// Stop cancels the loops and waits for the in-flight batch
func (p *OutboxProcessor) Stop(ctx context.Context) error {
	if p.cancel != nil {
		p.cancel()
	}

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.logger.Info("outbox processor stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *OutboxProcessor) processLoop(ctx context.Context) {
	defer p.wg.Done()

	ticker := time.NewTicker(p.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// a full batch means a checkout burst; keep draining until the
			// queue is short instead of waiting a whole interval per batch
			for ctx.Err() == nil {
				if p.ProcessOnce(ctx) < p.config.BatchSize {
					break
				}
			}
		}
	}
}

// ProcessOnce claims and delivers the entries that are due now, pending
// ones first. It returns the number of entries this processor claimed.
func (p *OutboxProcessor) ProcessOnce(ctx context.Context) int {
	now := time.Now()

	pending, err := p.repo.FindPending(ctx, p.config.BatchSize)
	if err != nil {
		p.logger.Error("failed to load pending outbox entries", zap.Error(err))
		return 0
	}
	due := pending
	if room := p.config.BatchSize - len(pending); room > 0 {
		retryable, err := p.repo.FindRetryable(ctx, now, room)
		if err != nil {
			p.logger.Error("failed to load retryable outbox entries", zap.Error(err))
		}
		due = append(due, retryable...)
	}

	ids := make([]uuid.UUID, 0, len(due))
	for _, e := range due {
		if e.Due(now) {
			ids = append(ids, e.ID)
		}
	}
	if len(ids) == 0 {
		return 0
	}

	claimed, err := p.repo.MarkProcessing(ctx, ids)
	if err != nil {
		p.logger.Error("failed to claim outbox entries", zap.Error(err))
		return 0
	}
	for _, entry := range claimed {
		p.processEntry(ctx, entry)
	}
	return len(claimed)
}

func (p *OutboxProcessor) processEntry(ctx context.Context, entry *shared.OutboxEntry) {
	log := p.logger.With(
		zap.String("event_id", entry.EventID.String()),
		zap.String("event_type", entry.EventType),
	)

	event, err := p.serializer.Deserialize(entry.EventType, entry.Payload)
	if err == nil {
		err = p.eventBus.Publish(ctx, event)
	}
	if err != nil {
		log.Error("failed to deliver event", zap.Int("attempt", entry.RetryCount+1), zap.Error(err))
		entry.MarkFailed(err.Error())
		if entry.IsDead() {
			log.Warn("event moved to dead letter queue",
				zap.String("aggregate_type", entry.AggregateType),
				zap.String("aggregate_id", entry.AggregateID.String()),
				zap.Int("retry_count", entry.RetryCount),
			)
		}
	} else {
		entry.MarkSent()
	}

	if err := p.repo.Update(ctx, entry); err != nil {
		log.Error("failed to update outbox entry", zap.Error(err))
		return
	}
	if p.observer != nil {
		p.observer.RecordOutboxDelivery(ctx, entry.EventType, entry.Status)
	}
	if entry.Status == shared.OutboxStatusSent {
		log.Debug("event delivered")
	}
}

func (p *OutboxProcessor) cleanupLoop(ctx context.Context) {
	defer p.wg.Done()

	ticker := time.NewTicker(p.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.Cleanup(ctx)
		}
	}
}

// Cleanup deletes sent entries past retention and requeues stuck ones
func (p *OutboxProcessor) Cleanup(ctx context.Context) {
	cutoff := time.Now().Add(-p.config.CleanupRetention)
	deleted, err := p.repo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		p.logger.Error("failed to cleanup old entries", zap.Error(err))
	} else if deleted > 0 {
		p.logger.Info("cleaned up old outbox entries",
			zap.Int64("deleted", deleted),
			zap.Time("cutoff", cutoff),
		)
	}

	if p.config.StuckAfter <= 0 {
		return
	}
	released, err := p.repo.ReleaseStuck(ctx, time.Now().Add(-p.config.StuckAfter))
	if err != nil {
		p.logger.Error("failed to release stuck entries", zap.Error(err))
	} else if released > 0 {
		p.logger.Warn("released stuck outbox entries", zap.Int64("released", released))
	}
}
