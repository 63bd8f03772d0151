package catalog

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/catalog"
	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestVendorService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("admin creates vendor with derived slug", func(t *testing.T) {
		repo := new(MockVendorRepository)
		svc := NewVendorService(repo, zap.NewNop())
		repo.On("ExistsByName", ctx, "Café Münster").Return(false, nil)
		repo.On("ExistsBySlug", ctx, "cafe-munster").Return(false, nil)
		repo.On("Save", ctx, mock.AnythingOfType("*catalog.Vendor")).Return(nil)

		resp, err := svc.Create(ctx, adminIdentity(), CreateVendorRequest{
			Name:           "Café Münster",
			CommissionRate: decimal.RequireFromString("12.5"),
		})
		require.NoError(t, err)
		assert.Equal(t, "cafe-munster", resp.Slug)
		assert.True(t, resp.IsActive)
		repo.AssertExpectations(t)
	})

	t.Run("non admin is forbidden", func(t *testing.T) {
		repo := new(MockVendorRepository)
		svc := NewVendorService(repo, zap.NewNop())
		_, err := svc.Create(ctx, vendorIdentity(uuid.New()), CreateVendorRequest{Name: "X"})
		assert.ErrorIs(t, err, shared.ErrForbidden)
	})

	t.Run("duplicate name", func(t *testing.T) {
		repo := new(MockVendorRepository)
		svc := NewVendorService(repo, zap.NewNop())
		repo.On("ExistsByName", ctx, "Taken").Return(true, nil)
		_, err := svc.Create(ctx, adminIdentity(), CreateVendorRequest{Name: "Taken"})
		assert.ErrorIs(t, err, shared.ErrAlreadyExists)
	})

	t.Run("commission above 100", func(t *testing.T) {
		repo := new(MockVendorRepository)
		svc := NewVendorService(repo, zap.NewNop())
		_, err := svc.Create(ctx, adminIdentity(), CreateVendorRequest{Name: "Greedy", CommissionRate: decimal.NewFromInt(101)})
		de, ok := shared.IsDomainError(err)
		require.True(t, ok)
		assert.Equal(t, "INVALID_COMMISSION_RATE", de.Code)
	})
}

func TestVendorService_Update(t *testing.T) {
	ctx := context.Background()
	repo := new(MockVendorRepository)
	svc := NewVendorService(repo, zap.NewNop())

	vendor, err := catalog.NewVendor("Corner Shop", "", decimal.NewFromInt(10))
	require.NoError(t, err)
	repo.On("FindByID", ctx, vendor.ID).Return(vendor, nil)
	repo.On("Save", ctx, vendor).Return(nil)

	rate := decimal.NewFromInt(15)
	inactive := false
	resp, err := svc.Update(ctx, adminIdentity(), vendor.ID, UpdateVendorRequest{CommissionRate: &rate, IsActive: &inactive})
	require.NoError(t, err)
	assert.True(t, rate.Equal(resp.CommissionRate))
	assert.False(t, resp.IsActive)
	assert.Equal(t, 3, vendor.Version)
}

func TestVendorService_Visibility(t *testing.T) {
	ctx := context.Background()
	repo := new(MockVendorRepository)
	svc := NewVendorService(repo, zap.NewNop())

	vendor, err := catalog.NewVendor("Closed Shop", "", decimal.Zero)
	require.NoError(t, err)
	vendor.Deactivate()
	repo.On("FindBySlug", ctx, "closed-shop").Return(vendor, nil)

	_, err = svc.GetBySlug(ctx, shared.Identity{}, "closed-shop")
	assert.ErrorIs(t, err, shared.ErrNotFound)

	resp, err := svc.GetBySlug(ctx, vendorIdentity(vendor.ID), "closed-shop")
	require.NoError(t, err)
	assert.Equal(t, vendor.ID, resp.ID)

	repo.On("FindAll", ctx, mock.MatchedBy(func(f shared.Filter) bool {
		return f.Filters["is_active"] == true && f.OrderBy == "name"
	})).Return([]catalog.Vendor{}, int64(0), nil)
	page, err := svc.List(ctx, shared.Identity{}, VendorListFilter{})
	require.NoError(t, err)
	assert.Empty(t, page.Items)
}

func TestVendorService_OwnedActiveVendor(t *testing.T) {
	ctx := context.Background()
	owner := uuid.New()
	ownedBy := mock.MatchedBy(func(f shared.Filter) bool {
		return f.Filters["owner_user_id"] == owner && f.Filters["is_active"] == true
	})

	t.Run("returns the owned store", func(t *testing.T) {
		repo := new(MockVendorRepository)
		svc := NewVendorService(repo, zap.NewNop())
		vendor, err := catalog.NewVendor("Corner Shop", "corner-shop", decimal.NewFromInt(10))
		require.NoError(t, err)
		vendor.AssignOwner(owner)
		repo.On("FindAll", ctx, ownedBy).Return([]catalog.Vendor{*vendor}, int64(1), nil)

		resp, err := svc.OwnedActiveVendor(ctx, owner)
		require.NoError(t, err)
		assert.Equal(t, vendor.ID, resp.ID)
	})

	t.Run("no store", func(t *testing.T) {
		repo := new(MockVendorRepository)
		svc := NewVendorService(repo, zap.NewNop())
		repo.On("FindAll", ctx, ownedBy).Return([]catalog.Vendor{}, int64(0), nil)

		_, err := svc.OwnedActiveVendor(ctx, owner)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}
