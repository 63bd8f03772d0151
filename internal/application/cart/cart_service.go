package cart

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/application/txn"
	"github.com/marketplace/backend/internal/domain/cart"
	"github.com/marketplace/backend/internal/domain/catalog"
	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/marketplace/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// CartService manages the basket of a user or an anonymous session.
// Every mutation reads the variant, applies the change to the cart and
// saves it in one transaction; the cart version check rejects a write
// based on a stale read.
type CartService struct {
	scope  txn.Scope
	logger *zap.Logger
}

// NewCartService creates a new CartService
func NewCartService(scope txn.Scope, logger *zap.Logger) *CartService {
	return &CartService{scope: scope, logger: logger}
}

// ResolveOwner picks the cart owner for a request: the authenticated user
// when there is one, otherwise the anonymous session key
func ResolveOwner(userID uuid.UUID, sessionKey string) (cart.Owner, error) {
	if userID != uuid.Nil {
		return cart.UserOwner(userID)
	}
	if sessionKey == "" {
		return cart.Owner{}, shared.ErrUnauthorized.WithMessage("Sign in or send a session key to use the cart")
	}
	return cart.SessionOwner(sessionKey)
}

func findOrCreate(ctx context.Context, repos txn.Repositories, owner cart.Owner) (*cart.Cart, error) {
	c, err := repos.Carts().FindByOwner(ctx, owner)
	if errors.Is(err, shared.ErrNotFound) {
		return cart.NewCart(owner)
	}
	return c, err
}

func snapshotsFor(ctx context.Context, repos txn.Repositories, c *cart.Cart) (map[uuid.UUID]catalog.VariantSnapshot, error) {
	ids := make([]uuid.UUID, len(c.Items))
	for i, item := range c.Items {
		ids[i] = item.VariantID
	}
	return repos.Stock().GetSnapshots(ctx, ids)
}

// AddItem adds qty units of a variant, creating the cart on first use.
// Adding a variant that is already in the cart increases that line.
func (s *CartService) AddItem(ctx context.Context, owner cart.Owner, req AddItemRequest) (*CartResponse, error) {
	var resp CartResponse
	err := s.scope.Execute(ctx, func(repos txn.Repositories) error {
		c, err := findOrCreate(ctx, repos, owner)
		if err != nil {
			return err
		}
		snap, err := repos.Stock().GetSnapshot(ctx, req.VariantID)
		if err != nil {
			return err
		}
		if _, err := c.AddItem(*snap, req.Quantity); err != nil {
			return err
		}
		if err := repos.Carts().Save(ctx, c); err != nil {
			return err
		}
		snaps, err := snapshotsFor(ctx, repos, c)
		if err != nil {
			return err
		}
		resp = ToCartResponse(c, snaps)
		return nil
	})
	if err != nil {
		logger.Enrich(ctx, s.logger).Debug("add to cart rejected",
			zap.String("variant_id", req.VariantID.String()),
			zap.Int("quantity", req.Quantity),
			zap.Error(err))
		return nil, err
	}
	return &resp, nil
}

// UpdateItem sets a line's quantity after checking current stock
func (s *CartService) UpdateItem(ctx context.Context, owner cart.Owner, itemID uuid.UUID, req UpdateItemRequest) (*CartResponse, error) {
	if req.Quantity < 1 {
		return nil, shared.ErrInvalidQuantity
	}
	var resp CartResponse
	err := s.scope.Execute(ctx, func(repos txn.Repositories) error {
		c, err := s.existing(ctx, repos, owner, itemID)
		if err != nil {
			return err
		}
		item := c.Item(itemID)
		if item == nil {
			return shared.ErrItemNotFound.WithDetails(map[string]any{"item_id": itemID.String()})
		}
		snap, err := repos.Stock().GetSnapshot(ctx, item.VariantID)
		if err != nil {
			return err
		}
		if _, err := c.UpdateItem(itemID, req.Quantity, *snap); err != nil {
			return err
		}
		if err := repos.Carts().Save(ctx, c); err != nil {
			return err
		}
		snaps, err := snapshotsFor(ctx, repos, c)
		if err != nil {
			return err
		}
		resp = ToCartResponse(c, snaps)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// RemoveItem deletes a line that belongs to the owner's cart
func (s *CartService) RemoveItem(ctx context.Context, owner cart.Owner, itemID uuid.UUID) (*CartResponse, error) {
	var resp CartResponse
	err := s.scope.Execute(ctx, func(repos txn.Repositories) error {
		c, err := s.existing(ctx, repos, owner, itemID)
		if err != nil {
			return err
		}
		if err := c.RemoveItem(itemID); err != nil {
			return err
		}
		if err := repos.Carts().Save(ctx, c); err != nil {
			return err
		}
		snaps, err := snapshotsFor(ctx, repos, c)
		if err != nil {
			return err
		}
		resp = ToCartResponse(c, snaps)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// Clear removes every line. Clearing a cart that does not exist is a no-op.
func (s *CartService) Clear(ctx context.Context, owner cart.Owner) error {
	return s.scope.Execute(ctx, func(repos txn.Repositories) error {
		c, err := repos.Carts().FindByOwner(ctx, owner)
		if errors.Is(err, shared.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		c.Clear()
		return repos.Carts().Save(ctx, c)
	})
}

// Totals returns the item count and subtotal of the owner's cart
func (s *CartService) Totals(ctx context.Context, owner cart.Owner) (*TotalsResponse, error) {
	var resp TotalsResponse
	err := s.scope.Execute(ctx, func(repos txn.Repositories) error {
		c, err := repos.Carts().FindByOwner(ctx, owner)
		if errors.Is(err, shared.ErrNotFound) {
			resp = TotalsResponse{Subtotal: emptyCartResponse().Subtotal}
			return nil
		}
		if err != nil {
			return err
		}
		t := c.Totals()
		resp = TotalsResponse{ItemCount: t.ItemCount, Subtotal: t.Subtotal}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetCart returns the owner's cart with the current catalog state of each
// line. An owner without a cart gets an empty one.
func (s *CartService) GetCart(ctx context.Context, owner cart.Owner) (*CartResponse, error) {
	var resp CartResponse
	err := s.scope.Execute(ctx, func(repos txn.Repositories) error {
		c, err := repos.Carts().FindByOwner(ctx, owner)
		if errors.Is(err, shared.ErrNotFound) {
			resp = emptyCartResponse()
			return nil
		}
		if err != nil {
			return err
		}
		snaps, err := snapshotsFor(ctx, repos, c)
		if err != nil {
			return err
		}
		resp = ToCartResponse(c, snaps)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// MergeSessionCart moves the lines of an anonymous session cart into the
// user's cart after sign-in. Quantities accumulate and are capped by the
// current stock; lines that are no longer purchasable, or that belong to
// a different vendor than the user's cart, are dropped. The session cart
// is deleted.
func (s *CartService) MergeSessionCart(ctx context.Context, sessionKey string, userID uuid.UUID) (*MergeResponse, error) {
	sessionOwner, err := cart.SessionOwner(sessionKey)
	if err != nil {
		return nil, err
	}
	userOwner, err := cart.UserOwner(userID)
	if err != nil {
		return nil, err
	}

	var resp MergeResponse
	err = s.scope.Execute(ctx, func(repos txn.Repositories) error {
		sessionCart, err := repos.Carts().FindByOwner(ctx, sessionOwner)
		if errors.Is(err, shared.ErrNotFound) {
			userCart, err := repos.Carts().FindByOwner(ctx, userOwner)
			if errors.Is(err, shared.ErrNotFound) {
				resp.Cart = emptyCartResponse()
				return nil
			}
			if err != nil {
				return err
			}
			snaps, err := snapshotsFor(ctx, repos, userCart)
			if err != nil {
				return err
			}
			resp.Cart = ToCartResponse(userCart, snaps)
			return nil
		}
		if err != nil {
			return err
		}
		userCart, err := findOrCreate(ctx, repos, userOwner)
		if err != nil {
			return err
		}

		snaps, err := snapshotsFor(ctx, repos, sessionCart)
		if err != nil {
			return err
		}
		for _, line := range sessionCart.Items {
			snap, ok := snaps[line.VariantID]
			if ok && userCart.Absorb(line, snap) {
				resp.MergedLines++
			} else {
				resp.DroppedLines++
			}
		}

		if err := repos.Carts().Save(ctx, userCart); err != nil {
			return err
		}
		if err := repos.Carts().Delete(ctx, sessionCart.ID); err != nil {
			return err
		}
		if snaps, err = snapshotsFor(ctx, repos, userCart); err != nil {
			return err
		}
		resp.Cart = ToCartResponse(userCart, snaps)
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Enrich(ctx, s.logger).Info("session cart merged",
		zap.String("user_id", userID.String()),
		zap.Int("merged_lines", resp.MergedLines),
		zap.Int("dropped_lines", resp.DroppedLines))
	return &resp, nil
}

// existing loads the owner's cart; a missing cart means the item cannot
// belong to it
func (s *CartService) existing(ctx context.Context, repos txn.Repositories, owner cart.Owner, itemID uuid.UUID) (*cart.Cart, error) {
	c, err := repos.Carts().FindByOwner(ctx, owner)
	if errors.Is(err, shared.ErrNotFound) {
		return nil, shared.ErrItemNotFound.WithDetails(map[string]any{"item_id": itemID.String()})
	}
	return c, err
}
