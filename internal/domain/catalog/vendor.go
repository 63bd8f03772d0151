package catalog

import (
	"strings"
	"unicode"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var maxCommissionRate = decimal.NewFromInt(100)

// Vendor is a store selling on the marketplace. Its commission rate is read
// when an order is created and copied onto the order.
type Vendor struct {
	shared.BaseAggregateRoot
	Name           string
	Slug           string
	ContactEmail   string
	CommissionRate decimal.Decimal
	IsActive       bool
	OwnerUserID    *uuid.UUID
}

// NewVendor creates an active vendor. An empty slug is derived from the name.
func NewVendor(name, slug string, commissionRate decimal.Decimal) (*Vendor, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Vendor name cannot be empty")
	}
	if len(name) > 200 {
		return nil, shared.NewDomainError("INVALID_NAME", "Vendor name cannot exceed 200 characters")
	}
	if err := ValidateCommissionRate(commissionRate); err != nil {
		return nil, err
	}
	if slug == "" {
		slug = Slugify(name)
	}
	if slug == "" {
		return nil, shared.NewDomainError("INVALID_SLUG", "Vendor slug cannot be empty")
	}

	return &Vendor{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              name,
		Slug:              slug,
		CommissionRate:    commissionRate,
		IsActive:          true,
	}, nil
}

// SetCommissionRate changes the rate applied to future orders
func (v *Vendor) SetCommissionRate(rate decimal.Decimal) error {
	if err := ValidateCommissionRate(rate); err != nil {
		return err
	}
	v.CommissionRate = rate
	v.Touch()
	v.IncrementVersion()
	return nil
}

// Activate allows the vendor's products to be purchased
func (v *Vendor) Activate() {
	v.IsActive = true
	v.Touch()
	v.IncrementVersion()
}

// Deactivate hides every product of the vendor from purchase
func (v *Vendor) Deactivate() {
	v.IsActive = false
	v.Touch()
	v.IncrementVersion()
}

// AssignOwner links the user that manages this vendor
func (v *Vendor) AssignOwner(userID uuid.UUID) {
	v.OwnerUserID = &userID
	v.Touch()
	v.IncrementVersion()
}

// ValidateCommissionRate checks that rate is a percentage in [0, 100]
func ValidateCommissionRate(rate decimal.Decimal) error {
	if rate.IsNegative() || rate.GreaterThan(maxCommissionRate) {
		return shared.NewDomainError("INVALID_COMMISSION_RATE", "Commission rate must be between 0 and 100").
			WithDetails(map[string]any{"commission_rate": rate.String()})
	}
	return nil
}

// Slugify builds a URL-safe slug, folding accented letters to ASCII
func Slugify(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}

	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(folded) {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
