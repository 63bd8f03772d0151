package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/notification"
)

// NotificationModel is the persistence model for a notification. The unique
// index on (source event, recipient) makes redelivered events harmless.
type NotificationModel struct {
	BaseModel
	RecipientKind notification.RecipientKind `gorm:"type:varchar(20);not null;index:idx_notification_recipient,priority:1;uniqueIndex:idx_notification_source,priority:2"`
	RecipientID   *uuid.UUID                 `gorm:"type:uuid;index:idx_notification_recipient,priority:2"`
	RecipientKey  string                     `gorm:"type:varchar(64);not null;uniqueIndex:idx_notification_source,priority:3"`
	Type          string                     `gorm:"type:varchar(100);not null"`
	Title         string                     `gorm:"type:varchar(255);not null"`
	Body          string                     `gorm:"type:text"`
	SourceEventID uuid.UUID                  `gorm:"type:uuid;not null;uniqueIndex:idx_notification_source,priority:1"`
	ReadAt        *time.Time
}

// TableName returns the table name for GORM
func (NotificationModel) TableName() string {
	return "notifications"
}

// RecipientKey collapses an optional recipient id into a non-null key so the
// uniqueness constraint also covers the admins audience.
func RecipientKey(kind notification.RecipientKind, id *uuid.UUID) string {
	if id == nil {
		return string(kind)
	}
	return id.String()
}

// ToDomain converts the persistence model to a domain Notification
func (m *NotificationModel) ToDomain() *notification.Notification {
	return &notification.Notification{
		BaseEntity:    m.BaseModel.ToDomain(),
		RecipientKind: m.RecipientKind,
		RecipientID:   m.RecipientID,
		Type:          m.Type,
		Title:         m.Title,
		Body:          m.Body,
		SourceEventID: m.SourceEventID,
		ReadAt:        m.ReadAt,
	}
}

// NotificationModelFromDomain creates a persistence model from a domain Notification
func NotificationModelFromDomain(n *notification.Notification) *NotificationModel {
	m := &NotificationModel{
		RecipientKind: n.RecipientKind,
		RecipientID:   n.RecipientID,
		RecipientKey:  RecipientKey(n.RecipientKind, n.RecipientID),
		Type:          n.Type,
		Title:         n.Title,
		Body:          n.Body,
		SourceEventID: n.SourceEventID,
		ReadAt:        n.ReadAt,
	}
	m.FromDomainBaseEntity(n.BaseEntity)
	return m
}
