package cart

import (
	"testing"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/catalog"
	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func snapshot(vendorID uuid.UUID, stock int, price int64) catalog.VariantSnapshot {
	return catalog.VariantSnapshot{
		VariantID:        uuid.New(),
		ProductID:        uuid.New(),
		VendorID:         vendorID,
		BasePrice:        decimal.NewFromInt(price),
		StockQuantity:    stock,
		VariantAvailable: true,
		ProductActive:    true,
		VendorActive:     true,
	}
}

func newUserCart(t *testing.T) *Cart {
	t.Helper()
	owner, err := UserOwner(uuid.New())
	require.NoError(t, err)
	c, err := NewCart(owner)
	require.NoError(t, err)
	return c
}

func TestOwner(t *testing.T) {
	t.Run("user owner", func(t *testing.T) {
		id := uuid.New()
		o, err := UserOwner(id)
		require.NoError(t, err)
		got, ok := o.UserID()
		assert.True(t, ok)
		assert.Equal(t, id, got)
		_, ok = o.SessionKey()
		assert.False(t, ok)
	})

	t.Run("session owner", func(t *testing.T) {
		o, err := SessionOwner("abc123")
		require.NoError(t, err)
		key, ok := o.SessionKey()
		assert.True(t, ok)
		assert.Equal(t, "abc123", key)
		_, ok = o.UserID()
		assert.False(t, ok)
	})

	t.Run("rejects empty halves", func(t *testing.T) {
		_, err := UserOwner(uuid.Nil)
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
		_, err = SessionOwner("   ")
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
	})

	t.Run("zero owner cannot own a cart", func(t *testing.T) {
		_, err := NewCart(Owner{})
		assert.Error(t, err)
	})
}

func TestCart_AddItem(t *testing.T) {
	vendorID := uuid.New()

	t.Run("snapshots the final price", func(t *testing.T) {
		c := newUserCart(t)
		snap := snapshot(vendorID, 5, 100)
		override := decimal.RequireFromString("89.50")
		snap.PriceOverride = &override

		item, err := c.AddItem(snap, 2)
		require.NoError(t, err)
		assert.True(t, override.Equal(item.Price))
		assert.Equal(t, c.ID, item.CartID)
		assert.Equal(t, vendorID, item.VendorID)
	})

	t.Run("same variant twice accumulates on one line", func(t *testing.T) {
		c := newUserCart(t)
		snap := snapshot(vendorID, 5, 100)

		_, err := c.AddItem(snap, 2)
		require.NoError(t, err)

		// price change after the first add must not affect the line
		snap.BasePrice = decimal.NewFromInt(150)
		_, err = c.AddItem(snap, 1)
		require.NoError(t, err)

		require.Len(t, c.Items, 1)
		assert.Equal(t, 3, c.Items[0].Quantity)
		assert.Equal(t, "100", c.Items[0].Price.String())
	})

	t.Run("accumulated quantity is checked against stock", func(t *testing.T) {
		c := newUserCart(t)
		snap := snapshot(vendorID, 3, 10)
		_, err := c.AddItem(snap, 2)
		require.NoError(t, err)

		_, err = c.AddItem(snap, 2)
		require.ErrorIs(t, err, shared.ErrInsufficientStock)
		de, _ := shared.IsDomainError(err)
		assert.Equal(t, 4, de.Details["requested"])
		assert.Equal(t, 3, de.Details["available"])
		assert.Equal(t, 2, c.Items[0].Quantity)
	})

	t.Run("rejects invalid quantity", func(t *testing.T) {
		c := newUserCart(t)
		_, err := c.AddItem(snapshot(vendorID, 5, 10), 0)
		assert.ErrorIs(t, err, shared.ErrInvalidQuantity)
	})

	t.Run("rejects variant that is out of stock", func(t *testing.T) {
		c := newUserCart(t)
		_, err := c.AddItem(snapshot(vendorID, 0, 10), 1)
		assert.ErrorIs(t, err, shared.ErrVariantNotPurchasable)
		assert.True(t, c.IsEmpty())
	})

	t.Run("rejects variants from a second vendor", func(t *testing.T) {
		c := newUserCart(t)
		_, err := c.AddItem(snapshot(vendorID, 5, 10), 1)
		require.NoError(t, err)

		_, err = c.AddItem(snapshot(uuid.New(), 5, 10), 1)
		assert.ErrorIs(t, err, shared.ErrVendorMismatch)
		assert.Len(t, c.Items, 1)
	})
}

func TestCart_UpdateItem(t *testing.T) {
	c := newUserCart(t)
	snap := snapshot(uuid.New(), 4, 25)
	item, err := c.AddItem(snap, 1)
	require.NoError(t, err)
	itemID := item.ID

	snap.BasePrice = decimal.NewFromInt(30)
	updated, err := c.UpdateItem(itemID, 4, snap)
	require.NoError(t, err)
	assert.Equal(t, 4, updated.Quantity)
	assert.Equal(t, "25", updated.Price.String())

	_, err = c.UpdateItem(itemID, 5, snap)
	assert.ErrorIs(t, err, shared.ErrInsufficientStock)

	_, err = c.UpdateItem(itemID, 0, snap)
	assert.ErrorIs(t, err, shared.ErrInvalidQuantity)

	_, err = c.UpdateItem(uuid.New(), 1, snap)
	assert.ErrorIs(t, err, shared.ErrItemNotFound)
}

func TestCart_RemoveAndClear(t *testing.T) {
	c := newUserCart(t)
	vendorID := uuid.New()
	a, err := c.AddItem(snapshot(vendorID, 5, 10), 1)
	require.NoError(t, err)
	aID := a.ID
	_, err = c.AddItem(snapshot(vendorID, 5, 10), 1)
	require.NoError(t, err)

	require.NoError(t, c.RemoveItem(aID))
	assert.Len(t, c.Items, 1)
	assert.ErrorIs(t, c.RemoveItem(aID), shared.ErrItemNotFound)

	c.Clear()
	assert.True(t, c.IsEmpty())
	_, hasVendor := c.VendorID()
	assert.False(t, hasVendor)
}

func TestCart_Totals(t *testing.T) {
	c := newUserCart(t)
	vendorID := uuid.New()

	empty := c.Totals()
	assert.Zero(t, empty.ItemCount)
	assert.True(t, empty.Subtotal.IsZero())

	a := snapshot(vendorID, 10, 0)
	a.BasePrice = decimal.RequireFromString("0.10")
	b := snapshot(vendorID, 10, 0)
	b.BasePrice = decimal.RequireFromString("0.20")

	_, err := c.AddItem(a, 3)
	require.NoError(t, err)
	_, err = c.AddItem(b, 1)
	require.NoError(t, err)

	totals := c.Totals()
	assert.Equal(t, 4, totals.ItemCount)
	assert.True(t, decimal.RequireFromString("0.50").Equal(totals.Subtotal))
}

func TestCart_Absorb(t *testing.T) {
	vendorID := uuid.New()
	user := newUserCart(t)
	snap := snapshot(vendorID, 3, 40)
	_, err := user.AddItem(snap, 2)
	require.NoError(t, err)

	line := CartItem{VariantID: snap.VariantID, VendorID: vendorID, Quantity: 2, Price: decimal.NewFromInt(35)}
	assert.True(t, user.Absorb(line, snap))
	assert.Equal(t, 3, user.Items[0].Quantity)

	other := snapshot(uuid.New(), 3, 10)
	assert.False(t, user.Absorb(CartItem{VariantID: other.VariantID, Quantity: 1}, other))
}
