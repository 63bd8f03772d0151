package notification

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/shared"
)

// RecipientKind says who a notification is addressed to
type RecipientKind string

const (
	RecipientVendor RecipientKind = "vendor"
	RecipientUser   RecipientKind = "user"
	// RecipientAdmins addresses every admin; RecipientID is nil
	RecipientAdmins RecipientKind = "admins"
)

// Notification is an in-app message produced from domain events
type Notification struct {
	shared.BaseEntity
	RecipientKind RecipientKind
	RecipientID   *uuid.UUID
	Type          string
	Title         string
	Body          string
	// SourceEventID makes delivery idempotent per recipient
	SourceEventID uuid.UUID
	ReadAt        *time.Time
}

// New creates an unread notification
func New(kind RecipientKind, recipientID *uuid.UUID, typ, title, body string, sourceEventID uuid.UUID) *Notification {
	return &Notification{
		BaseEntity:    shared.NewBaseEntity(),
		RecipientKind: kind,
		RecipientID:   recipientID,
		Type:          typ,
		Title:         title,
		Body:          body,
		SourceEventID: sourceEventID,
	}
}

// MarkRead records the first time the recipient opened it
func (n *Notification) MarkRead() {
	if n.ReadAt != nil {
		return
	}
	now := time.Now()
	n.ReadAt = &now
	n.UpdatedAt = now
}

// IsRead reports whether the notification was opened
func (n *Notification) IsRead() bool {
	return n.ReadAt != nil
}

// Audience selects the notifications an identity may see
type Audience struct {
	Kind        RecipientKind
	RecipientID *uuid.UUID
}

// AudiencesFor returns every audience the identity belongs to
func AudiencesFor(id shared.Identity) []Audience {
	userID := id.UserID
	audiences := []Audience{{Kind: RecipientUser, RecipientID: &userID}}
	if id.VendorID != nil {
		audiences = append(audiences, Audience{Kind: RecipientVendor, RecipientID: id.VendorID})
	}
	if id.IsAdmin() {
		audiences = append(audiences, Audience{Kind: RecipientAdmins})
	}
	return audiences
}

// Repository persists notifications
type Repository interface {
	// Create ignores a notification whose (source event, recipient) pair was already stored
	Create(ctx context.Context, notifications ...*Notification) error
	FindByID(ctx context.Context, id uuid.UUID) (*Notification, error)
	FindForAudiences(ctx context.Context, audiences []Audience, unreadOnly bool, filter shared.Filter) ([]Notification, int64, error)
	MarkRead(ctx context.Context, id uuid.UUID, at time.Time) error
}
