package catalog

import (
	"context"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/catalog"
	"github.com/marketplace/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// VendorService handles vendor administration and the public vendor listing
type VendorService struct {
	vendorRepo catalog.VendorRepository
	logger     *zap.Logger
}

// NewVendorService creates a new VendorService
func NewVendorService(vendorRepo catalog.VendorRepository, logger *zap.Logger) *VendorService {
	return &VendorService{vendorRepo: vendorRepo, logger: logger}
}

// Create registers a vendor. Only admins may create vendors directly;
// everyone else goes through a vendor application.
func (s *VendorService) Create(ctx context.Context, id shared.Identity, req CreateVendorRequest) (*VendorResponse, error) {
	if !id.IsAdmin() {
		return nil, shared.ErrForbidden
	}

	vendor, err := catalog.NewVendor(req.Name, req.Slug, req.CommissionRate)
	if err != nil {
		return nil, err
	}
	vendor.ContactEmail = req.ContactEmail
	if req.OwnerUserID != nil {
		vendor.AssignOwner(*req.OwnerUserID)
	}

	if exists, err := s.vendorRepo.ExistsByName(ctx, vendor.Name); err != nil {
		return nil, err
	} else if exists {
		return nil, shared.ErrAlreadyExists.WithMessage("Vendor %q already exists", vendor.Name)
	}
	if exists, err := s.vendorRepo.ExistsBySlug(ctx, vendor.Slug); err != nil {
		return nil, err
	} else if exists {
		return nil, shared.ErrAlreadyExists.WithMessage("Vendor slug %q is already taken", vendor.Slug)
	}

	if err := s.vendorRepo.Save(ctx, vendor); err != nil {
		return nil, err
	}
	s.logger.Info("vendor created",
		zap.String("vendor_id", vendor.ID.String()),
		zap.String("slug", vendor.Slug))

	resp := ToVendorResponse(vendor)
	return &resp, nil
}

// Update changes commission, activation and ownership. Commission changes
// only affect orders placed afterwards.
func (s *VendorService) Update(ctx context.Context, id shared.Identity, vendorID uuid.UUID, req UpdateVendorRequest) (*VendorResponse, error) {
	if !id.IsAdmin() {
		return nil, shared.ErrForbidden
	}
	vendor, err := s.vendorRepo.FindByID(ctx, vendorID)
	if err != nil {
		return nil, err
	}

	if req.CommissionRate != nil {
		if err := vendor.SetCommissionRate(*req.CommissionRate); err != nil {
			return nil, err
		}
	}
	if req.IsActive != nil {
		if *req.IsActive {
			vendor.Activate()
		} else {
			vendor.Deactivate()
		}
	}
	if req.OwnerUserID != nil {
		vendor.AssignOwner(*req.OwnerUserID)
	}

	if err := s.vendorRepo.Save(ctx, vendor); err != nil {
		return nil, err
	}
	resp := ToVendorResponse(vendor)
	return &resp, nil
}

// GetByID returns a vendor. Inactive vendors are hidden from the public.
func (s *VendorService) GetByID(ctx context.Context, id shared.Identity, vendorID uuid.UUID) (*VendorResponse, error) {
	vendor, err := s.vendorRepo.FindByID(ctx, vendorID)
	if err != nil {
		return nil, err
	}
	return s.visible(id, vendor)
}

// GetBySlug returns a vendor by its URL slug
func (s *VendorService) GetBySlug(ctx context.Context, id shared.Identity, slug string) (*VendorResponse, error) {
	vendor, err := s.vendorRepo.FindBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	return s.visible(id, vendor)
}

func (s *VendorService) visible(id shared.Identity, vendor *catalog.Vendor) (*VendorResponse, error) {
	if !vendor.IsActive && !id.IsAdmin() && !id.OwnsVendor(vendor.ID) {
		return nil, shared.ErrNotFound
	}
	resp := ToVendorResponse(vendor)
	return &resp, nil
}

// List returns vendors; non-admins only see active ones
func (s *VendorService) List(ctx context.Context, id shared.Identity, filter VendorListFilter) (shared.Paginated[VendorResponse], error) {
	f := shared.DefaultFilter()
	f.OrderBy, f.OrderDir = "name", "asc"
	f.Search = filter.Search
	f = f.WithPage(filter.Page, filter.PageSize)
	if !id.IsAdmin() {
		f.Filters["is_active"] = true
	}

	vendors, total, err := s.vendorRepo.FindAll(ctx, f)
	if err != nil {
		return shared.Paginated[VendorResponse]{}, err
	}
	items := make([]VendorResponse, len(vendors))
	for i := range vendors {
		items[i] = ToVendorResponse(&vendors[i])
	}
	return shared.NewPaginated(items, total, f.Page, f.PageSize), nil
}

// OwnedActiveVendor returns the active vendor owned by userID, or
// ErrNotFound when the user runs no store. Token refresh uses it to grant
// the vendor role.
func (s *VendorService) OwnedActiveVendor(ctx context.Context, userID uuid.UUID) (*VendorResponse, error) {
	f := shared.DefaultFilter()
	f.PageSize = 1
	f.OrderBy, f.OrderDir = "created_at", "asc"
	f.Filters["owner_user_id"] = userID
	f.Filters["is_active"] = true

	vendors, _, err := s.vendorRepo.FindAll(ctx, f)
	if err != nil {
		return nil, err
	}
	if len(vendors) == 0 {
		return nil, shared.ErrNotFound.WithMessage("User owns no active vendor")
	}
	resp := ToVendorResponse(&vendors[0])
	return &resp, nil
}
