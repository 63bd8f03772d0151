package event

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// requeueBatch bounds how many dead entries RequeueAll resets per query
const requeueBatch = 100

// OutboxService is the admin side of event delivery. Every method requires
// an administrator.
type OutboxService struct {
	repo   shared.OutboxRepository
	logger *zap.Logger
}

func NewOutboxService(repo shared.OutboxRepository, logger *zap.Logger) *OutboxService {
	return &OutboxService{repo: repo, logger: logger.Named("outbox")}
}

type OutboxEntryResponse struct {
	ID            uuid.UUID  `json:"id"`
	EventID       uuid.UUID  `json:"event_id"`
	EventType     string     `json:"event_type"`
	AggregateID   uuid.UUID  `json:"aggregate_id"`
	AggregateType string     `json:"aggregate_type"`
	Status        string     `json:"status"`
	RetryCount    int        `json:"retry_count"`
	MaxRetries    int        `json:"max_retries"`
	LastError     string     `json:"last_error,omitempty"`
	NextRetryAt   *time.Time `json:"next_retry_at,omitempty"`
	ProcessedAt   *time.Time `json:"processed_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

type OutboxFilter struct {
	Page     int `form:"page" binding:"omitempty,min=1"`
	PageSize int `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// OutboxStatsResponse counts entries per status. Backlog is what the
// processor still has to deliver: pending plus failed awaiting retry.
type OutboxStatsResponse struct {
	Pending    int64 `json:"pending"`
	Processing int64 `json:"processing"`
	Sent       int64 `json:"sent"`
	Failed     int64 `json:"failed"`
	Dead       int64 `json:"dead"`
	Backlog    int64 `json:"backlog"`
	Total      int64 `json:"total"`
}

type RequeueResult struct {
	Requeued int64 `json:"requeued"`
}

func requireAdmin(id shared.Identity) error {
	if !id.IsAdmin() {
		return shared.ErrForbidden.WithMessage("Only administrators can manage event delivery")
	}
	return nil
}

func (s *OutboxService) Stats(ctx context.Context, id shared.Identity) (*OutboxStatsResponse, error) {
	if err := requireAdmin(id); err != nil {
		return nil, err
	}
	counts, err := s.repo.CountByStatus(ctx)
	if err != nil {
		s.logger.Error("Failed to count outbox entries", zap.Error(err))
		return nil, err
	}

	stats := &OutboxStatsResponse{
		Pending:    counts[shared.OutboxStatusPending],
		Processing: counts[shared.OutboxStatusProcessing],
		Sent:       counts[shared.OutboxStatusSent],
		Failed:     counts[shared.OutboxStatusFailed],
		Dead:       counts[shared.OutboxStatusDead],
	}
	stats.Backlog = stats.Pending + stats.Failed
	for _, n := range counts {
		stats.Total += n
	}
	return stats, nil
}

// DeadLetters pages through entries that used up their attempts, most
// recently failed first
func (s *OutboxService) DeadLetters(ctx context.Context, id shared.Identity, filter OutboxFilter) (shared.Paginated[OutboxEntryResponse], error) {
	var page shared.Paginated[OutboxEntryResponse]
	if err := requireAdmin(id); err != nil {
		return page, err
	}
	f := shared.DefaultFilter().WithPage(filter.Page, filter.PageSize)

	entries, total, err := s.repo.FindDead(ctx, f.Page, f.PageSize)
	if err != nil {
		s.logger.Error("Failed to list dead letters", zap.Error(err))
		return page, err
	}
	items := make([]OutboxEntryResponse, 0, len(entries))
	for _, e := range entries {
		items = append(items, entryResponse(e))
	}
	return shared.NewPaginated(items, total, f.Page, f.PageSize), nil
}

func (s *OutboxService) Entry(ctx context.Context, id shared.Identity, entryID uuid.UUID) (*OutboxEntryResponse, error) {
	if err := requireAdmin(id); err != nil {
		return nil, err
	}
	entry, err := s.load(ctx, entryID)
	if err != nil {
		return nil, err
	}
	resp := entryResponse(entry)
	return &resp, nil
}

// Requeue gives one dead entry a fresh set of attempts
func (s *OutboxService) Requeue(ctx context.Context, id shared.Identity, entryID uuid.UUID) (*OutboxEntryResponse, error) {
	if err := requireAdmin(id); err != nil {
		return nil, err
	}
	entry, err := s.load(ctx, entryID)
	if err != nil {
		return nil, err
	}
	if err := entry.ResetForRetry(); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, entry); err != nil {
		s.logger.Error("Failed to requeue outbox entry", zap.Error(err), zap.Stringer("entry_id", entryID))
		return nil, err
	}

	s.logger.Info("Outbox entry requeued",
		zap.Stringer("entry_id", entryID),
		zap.String("event_type", entry.EventType),
		zap.Stringer("requested_by", id.UserID),
	)
	resp := entryResponse(entry)
	return &resp, nil
}

// RequeueAll resets every dead entry. A reset entry leaves the dead set, so
// the first page is reread until it is empty or no entry could be reset.
func (s *OutboxService) RequeueAll(ctx context.Context, id shared.Identity) (*RequeueResult, error) {
	if err := requireAdmin(id); err != nil {
		return nil, err
	}

	var requeued int64
	for {
		batch, _, err := s.repo.FindDead(ctx, 1, requeueBatch)
		if err != nil {
			s.logger.Error("Failed to list dead letters", zap.Error(err))
			return nil, err
		}

		var reset int64
		for _, entry := range batch {
			if entry.ResetForRetry() != nil {
				continue
			}
			if err := s.repo.Update(ctx, entry); err != nil {
				s.logger.Warn("Skipping outbox entry", zap.Error(err), zap.Stringer("entry_id", entry.ID))
				continue
			}
			reset++
		}
		requeued += reset
		if reset == 0 || len(batch) < requeueBatch {
			break
		}
	}

	s.logger.Info("Dead letters requeued", zap.Int64("count", requeued), zap.Stringer("requested_by", id.UserID))
	return &RequeueResult{Requeued: requeued}, nil
}

func (s *OutboxService) load(ctx context.Context, entryID uuid.UUID) (*shared.OutboxEntry, error) {
	entry, err := s.repo.FindByID(ctx, entryID)
	switch {
	case errors.Is(err, shared.ErrNotFound):
		return nil, shared.ErrNotFound.WithMessage("Outbox entry not found")
	case err != nil:
		s.logger.Error("Failed to load outbox entry", zap.Error(err), zap.Stringer("entry_id", entryID))
		return nil, err
	}
	return entry, nil
}

func entryResponse(e *shared.OutboxEntry) OutboxEntryResponse {
	return OutboxEntryResponse{
		ID:            e.ID,
		EventID:       e.EventID,
		EventType:     e.EventType,
		AggregateID:   e.AggregateID,
		AggregateType: e.AggregateType,
		Status:        string(e.Status),
		RetryCount:    e.RetryCount,
		MaxRetries:    e.MaxRetries,
		LastError:     e.LastError,
		NextRetryAt:   e.NextRetryAt,
		ProcessedAt:   e.ProcessedAt,
		CreatedAt:     e.CreatedAt,
		UpdatedAt:     e.UpdatedAt,
	}
}
