package event

import (
	"github.com/marketplace/backend/internal/domain/onboarding"
	"github.com/marketplace/backend/internal/domain/order"
	"github.com/marketplace/backend/internal/domain/shared"
)

// RegisterAllEvents binds every event type the services record
func RegisterAllEvents(serializer *EventSerializer) {
	serializer.Register(order.EventTypeOrderCreated, func() shared.DomainEvent { return &order.OrderCreatedEvent{} })
	serializer.Register(order.EventTypeOrderStatusChanged, func() shared.DomainEvent { return &order.OrderStatusChangedEvent{} })
	serializer.Register(onboarding.EventTypeVendorApplicationCreated, func() shared.DomainEvent {
		return &onboarding.VendorApplicationCreatedEvent{}
	})
	serializer.Register(onboarding.EventTypeVendorApplicationReviewed, func() shared.DomainEvent {
		return &onboarding.VendorApplicationReviewedEvent{}
	})
}
