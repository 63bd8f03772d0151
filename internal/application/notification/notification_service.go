package notification

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/notification"
	"github.com/marketplace/backend/internal/domain/shared"
)

// NotificationResponse represents a notification in API responses
type NotificationResponse struct {
	ID            uuid.UUID  `json:"id"`
	RecipientKind string     `json:"recipient_kind"`
	RecipientID   *uuid.UUID `json:"recipient_id,omitempty"`
	Type          string     `json:"type"`
	Title         string     `json:"title"`
	Body          string     `json:"body"`
	Read          bool       `json:"read"`
	ReadAt        *time.Time `json:"read_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

// NotificationListFilter represents filter options for the inbox
type NotificationListFilter struct {
	UnreadOnly bool `form:"unread"`
	Page       int  `form:"page" binding:"omitempty,min=1"`
	PageSize   int  `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// ToNotificationResponse converts a domain Notification
func ToNotificationResponse(n *notification.Notification) NotificationResponse {
	return NotificationResponse{
		ID:            n.ID,
		RecipientKind: string(n.RecipientKind),
		RecipientID:   n.RecipientID,
		Type:          n.Type,
		Title:         n.Title,
		Body:          n.Body,
		Read:          n.IsRead(),
		ReadAt:        n.ReadAt,
		CreatedAt:     n.CreatedAt,
	}
}

// NotificationService serves the inbox of the authenticated caller
type NotificationService struct {
	repo notification.Repository
}

// NewNotificationService creates a new NotificationService
func NewNotificationService(repo notification.Repository) *NotificationService {
	return &NotificationService{repo: repo}
}

// List returns the notifications addressed to the caller, newest first
func (s *NotificationService) List(ctx context.Context, id shared.Identity, filter NotificationListFilter) (shared.Paginated[NotificationResponse], error) {
	if id.UserID == uuid.Nil {
		return shared.Paginated[NotificationResponse]{}, shared.ErrUnauthorized
	}
	f := shared.DefaultFilter()
	f = f.WithPage(filter.Page, filter.PageSize)

	rows, total, err := s.repo.FindForAudiences(ctx, notification.AudiencesFor(id), filter.UnreadOnly, f)
	if err != nil {
		return shared.Paginated[NotificationResponse]{}, err
	}
	items := make([]NotificationResponse, len(rows))
	for i := range rows {
		items[i] = ToNotificationResponse(&rows[i])
	}
	return shared.NewPaginated(items, total, f.Page, f.PageSize), nil
}

// MarkRead marks one of the caller's notifications as read. Notifications
// addressed to someone else are reported as not found.
func (s *NotificationService) MarkRead(ctx context.Context, id shared.Identity, notificationID uuid.UUID) (*NotificationResponse, error) {
	n, err := s.repo.FindByID(ctx, notificationID)
	if err != nil {
		return nil, err
	}
	if !addressedTo(n, id) {
		return nil, shared.ErrNotFound
	}
	if !n.IsRead() {
		n.MarkRead()
		if err := s.repo.MarkRead(ctx, n.ID, *n.ReadAt); err != nil {
			return nil, err
		}
	}
	resp := ToNotificationResponse(n)
	return &resp, nil
}

func addressedTo(n *notification.Notification, id shared.Identity) bool {
	for _, a := range notification.AudiencesFor(id) {
		if a.Kind != n.RecipientKind {
			continue
		}
		if a.RecipientID == nil || (n.RecipientID != nil && *a.RecipientID == *n.RecipientID) {
			return true
		}
	}
	return false
}
