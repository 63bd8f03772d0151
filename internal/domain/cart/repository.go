package cart

import (
	"context"

	"github.com/google/uuid"
)

// Repository persists carts with their lines
type Repository interface {
	// FindByOwner returns shared.ErrNotFound when the owner has no cart yet
	FindByOwner(ctx context.Context, owner Owner) (*Cart, error)
	// Save writes the cart and replaces its line set. Existing carts are
	// checked against their version; a stale cart yields ErrConcurrencyConflict.
	Save(ctx context.Context, cart *Cart) error
	Delete(ctx context.Context, id uuid.UUID) error
}
