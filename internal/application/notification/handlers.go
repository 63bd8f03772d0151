package notification

import (
	"context"
	"fmt"

	"github.com/marketplace/backend/internal/domain/notification"
	"github.com/marketplace/backend/internal/domain/onboarding"
	"github.com/marketplace/backend/internal/domain/order"
	"github.com/marketplace/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// FanOutHandler turns committed domain events into in-app notifications.
// It runs behind the outbox processor, so a failure here never affects the
// transaction that raised the event; returning an error schedules a retry.
type FanOutHandler struct {
	repo   notification.Repository
	logger *zap.Logger
}

// NewFanOutHandler creates a new FanOutHandler
func NewFanOutHandler(repo notification.Repository, logger *zap.Logger) *FanOutHandler {
	return &FanOutHandler{repo: repo, logger: logger}
}

// EventTypes returns the event types this handler is interested in
func (h *FanOutHandler) EventTypes() []string {
	return []string{
		order.EventTypeOrderCreated,
		order.EventTypeOrderStatusChanged,
		onboarding.EventTypeVendorApplicationCreated,
		onboarding.EventTypeVendorApplicationReviewed,
	}
}

// Handle builds the notifications for one event and stores them. Storing
// the same event twice is harmless: rows are unique per event and recipient.
func (h *FanOutHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	var notifications []*notification.Notification

	switch e := event.(type) {
	case *order.OrderCreatedEvent:
		notifications = orderCreated(e)
	case *order.OrderStatusChangedEvent:
		notifications = orderStatusChanged(e)
	case *onboarding.VendorApplicationCreatedEvent:
		notifications = applicationCreated(e)
	case *onboarding.VendorApplicationReviewedEvent:
		notifications = applicationReviewed(e)
	default:
		h.logger.Error("unexpected event type", zap.String("actual", event.EventType()))
		return fmt.Errorf("unexpected event type: %s", event.EventType())
	}

	if len(notifications) == 0 {
		return nil
	}
	if err := h.repo.Create(ctx, notifications...); err != nil {
		return fmt.Errorf("store notifications for %s: %w", event.EventType(), err)
	}
	h.logger.Debug("notifications stored",
		zap.String("event_type", event.EventType()),
		zap.String("event_id", event.EventID().String()),
		zap.Int("count", len(notifications)))
	return nil
}

// orderCreated tells the vendor and the admins about a new order
func orderCreated(e *order.OrderCreatedEvent) []*notification.Notification {
	vendorID := e.VendorID
	title := fmt.Sprintf("New order %s", e.OrderNumber)
	body := fmt.Sprintf("%s placed a %s order of %d item(s), total %s.",
		e.CustomerName, e.OrderType, len(e.Items), e.Total.StringFixed(2))
	return []*notification.Notification{
		notification.New(notification.RecipientVendor, &vendorID, e.EventType(), title, body, e.EventID()),
		notification.New(notification.RecipientAdmins, nil, e.EventType(), title,
			body+fmt.Sprintf(" Platform commission %s.", e.PlatformCommission.StringFixed(2)), e.EventID()),
	}
}

// orderStatusChanged tells a registered customer where their order is.
// Guest orders have nobody to notify.
func orderStatusChanged(e *order.OrderStatusChangedEvent) []*notification.Notification {
	if e.CustomerID == nil {
		return nil
	}
	customerID := *e.CustomerID
	return []*notification.Notification{
		notification.New(notification.RecipientUser, &customerID, e.EventType(),
			fmt.Sprintf("Order %s is %s", e.OrderNumber, e.To),
			fmt.Sprintf("Your order %s moved from %s to %s.", e.OrderNumber, e.From, e.To),
			e.EventID()),
	}
}

func applicationCreated(e *onboarding.VendorApplicationCreatedEvent) []*notification.Notification {
	return []*notification.Notification{
		notification.New(notification.RecipientAdmins, nil, e.EventType(),
			fmt.Sprintf("New vendor application: %s", e.StoreName),
			fmt.Sprintf("%s applied to open %s and is waiting for review.", e.ContactEmail, e.StoreName),
			e.EventID()),
	}
}

func applicationReviewed(e *onboarding.VendorApplicationReviewedEvent) []*notification.Notification {
	applicantID := e.ApplicantID
	title := fmt.Sprintf("Your application for %s was %s", e.StoreName, e.Status)
	body := "Sign in again to manage your store."
	if e.Status == onboarding.ApplicationRejected {
		body = fmt.Sprintf("Reason: %s", e.Reason)
	}
	return []*notification.Notification{
		notification.New(notification.RecipientUser, &applicantID, e.EventType(), title, body, e.EventID()),
	}
}

var _ shared.EventHandler = (*FanOutHandler)(nil)
