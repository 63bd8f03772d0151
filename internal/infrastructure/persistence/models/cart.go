package models

import (
	"encoding/hex"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/cart"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/blake2b"
)

// CartModel is the persistence model for the Cart aggregate. Exactly one of
// UserID and SessionKeyHash is set; raw session keys are never stored.
type CartModel struct {
	AggregateModel
	UserID         *uuid.UUID      `gorm:"type:uuid;uniqueIndex;check:chk_cart_single_owner,(user_id IS NULL) <> (session_key_hash IS NULL)"`
	SessionKeyHash *string         `gorm:"type:varchar(64);uniqueIndex"`
	Items          []CartItemModel `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM
func (CartModel) TableName() string {
	return "carts"
}

// HashSessionKey returns the hex blake2b-256 digest stored for a session key
func HashSessionKey(key string) string {
	sum := blake2b.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}

// ToDomain converts the persistence model to a domain Cart. The owner is
// supplied by the caller because the session key cannot be recovered from
// its hash.
func (m *CartModel) ToDomain(owner cart.Owner) *cart.Cart {
	c := &cart.Cart{
		BaseAggregateRoot: m.ToAggregateRoot(),
		Owner:             owner,
		Items:             make([]cart.CartItem, len(m.Items)),
	}
	for i := range m.Items {
		c.Items[i] = m.Items[i].ToDomain()
	}
	return c
}

// CartModelFromDomain creates a persistence model from a domain Cart
func CartModelFromDomain(c *cart.Cart) *CartModel {
	m := &CartModel{Items: make([]CartItemModel, len(c.Items))}
	m.FromDomainAggregateRoot(c.BaseAggregateRoot)
	if userID, ok := c.Owner.UserID(); ok {
		m.UserID = &userID
	}
	if key, ok := c.Owner.SessionKey(); ok {
		hash := HashSessionKey(key)
		m.SessionKeyHash = &hash
	}
	for i := range c.Items {
		m.Items[i] = *CartItemModelFromDomain(c.ID, &c.Items[i])
	}
	return m
}

// CartItemModel is the persistence model for a cart line.
type CartItemModel struct {
	BaseModel
	CartID    uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_cart_item_variant,priority:1"`
	VariantID uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_cart_item_variant,priority:2"`
	VendorID  uuid.UUID       `gorm:"type:uuid;not null"`
	Quantity  int             `gorm:"not null;check:chk_cart_item_quantity_positive,quantity >= 1"`
	Price     decimal.Decimal `gorm:"type:decimal(18,2);not null"`
}

// TableName returns the table name for GORM
func (CartItemModel) TableName() string {
	return "cart_items"
}

// ToDomain converts the persistence model to a domain CartItem
func (m *CartItemModel) ToDomain() cart.CartItem {
	return cart.CartItem{
		BaseEntity: m.BaseModel.ToDomain(),
		CartID:     m.CartID,
		VariantID:  m.VariantID,
		VendorID:   m.VendorID,
		Quantity:   m.Quantity,
		Price:      m.Price,
	}
}

// CartItemModelFromDomain creates a persistence model from a domain CartItem
func CartItemModelFromDomain(cartID uuid.UUID, item *cart.CartItem) *CartItemModel {
	m := &CartItemModel{
		CartID:    cartID,
		VariantID: item.VariantID,
		VendorID:  item.VendorID,
		Quantity:  item.Quantity,
		Price:     item.Price,
	}
	m.FromDomainBaseEntity(item.BaseEntity)
	return m
}
