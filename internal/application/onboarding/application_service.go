package onboarding

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/application/txn"
	"github.com/marketplace/backend/internal/domain/catalog"
	"github.com/marketplace/backend/internal/domain/onboarding"
	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/marketplace/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// ApplicationService handles vendor applications: users apply, admins
// approve or reject. Approval creates the vendor in the same transaction.
type ApplicationService struct {
	scope  txn.Scope
	logger *zap.Logger
}

// NewApplicationService creates a new ApplicationService
func NewApplicationService(scope txn.Scope, logger *zap.Logger) *ApplicationService {
	return &ApplicationService{scope: scope, logger: logger}
}

// Submit records a pending application for the caller. A user can only
// have one pending application at a time.
func (s *ApplicationService) Submit(ctx context.Context, id shared.Identity, req SubmitApplicationRequest) (*ApplicationResponse, error) {
	if id.UserID == uuid.Nil {
		return nil, shared.ErrUnauthorized
	}
	if id.Role == shared.RoleVendor {
		return nil, shared.ErrInvalidState.WithMessage("Account already manages a vendor")
	}

	var resp ApplicationResponse
	err := s.scope.Execute(ctx, func(repos txn.Repositories) error {
		pending, err := repos.Applications().HasPending(ctx, id.UserID)
		if err != nil {
			return err
		}
		if pending {
			return shared.ErrAlreadyExists.WithMessage("An application is already awaiting review")
		}

		app, err := onboarding.NewVendorApplication(id.UserID, req.StoreName, req.ContactEmail, req.Phone, req.Description)
		if err != nil {
			return err
		}
		if err := repos.Applications().Save(ctx, app); err != nil {
			return err
		}
		if err := repos.Events().Record(ctx, app.GetDomainEvents()...); err != nil {
			return err
		}
		app.ClearDomainEvents()
		resp = ToApplicationResponse(app)
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Enrich(ctx, s.logger).Info("vendor application submitted",
		zap.String("application_id", resp.ID.String()),
		zap.String("store_name", resp.StoreName))
	return &resp, nil
}

// Approve creates the vendor for a pending application and links the
// applicant as its owner
func (s *ApplicationService) Approve(ctx context.Context, id shared.Identity, applicationID uuid.UUID, req ApproveApplicationRequest) (*ApplicationResponse, error) {
	if !id.IsAdmin() {
		return nil, shared.ErrForbidden
	}

	var resp ApplicationResponse
	err := s.scope.Execute(ctx, func(repos txn.Repositories) error {
		app, err := repos.Applications().FindByID(ctx, applicationID)
		if err != nil {
			return err
		}
		if app.Status != onboarding.ApplicationPending {
			return shared.ErrInvalidState.WithMessage("Application has already been %s", app.Status)
		}

		// Create the vendor
		vendor, err := catalog.NewVendor(app.StoreName, strings.TrimSpace(req.Slug), req.CommissionRate)
		if err != nil {
			return err
		}
		exists, err := repos.Vendors().ExistsByName(ctx, vendor.Name)
		if err != nil {
			return err
		}
		if exists {
			return shared.ErrAlreadyExists.WithMessage("Vendor name already exists")
		}
		if exists, err = repos.Vendors().ExistsBySlug(ctx, vendor.Slug); err != nil {
			return err
		}
		if exists {
			return shared.ErrAlreadyExists.WithMessage("Vendor slug already exists").WithDetails(map[string]any{"slug": vendor.Slug})
		}
		vendor.ContactEmail = app.ContactEmail
		vendor.AssignOwner(app.ApplicantID)
		if err := repos.Vendors().Save(ctx, vendor); err != nil {
			return err
		}

		if err := app.Approve(id.UserID, vendor.ID); err != nil {
			return err
		}
		if err := repos.Applications().Save(ctx, app); err != nil {
			return err
		}
		if err := repos.Events().Record(ctx, app.GetDomainEvents()...); err != nil {
			return err
		}
		app.ClearDomainEvents()
		resp = ToApplicationResponse(app)
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Enrich(ctx, s.logger).Info("vendor application approved",
		zap.String("application_id", applicationID.String()),
		zap.Stringer("vendor_id", resp.VendorID))
	return &resp, nil
}

// Reject closes a pending application with a reason
func (s *ApplicationService) Reject(ctx context.Context, id shared.Identity, applicationID uuid.UUID, req RejectApplicationRequest) (*ApplicationResponse, error) {
	if !id.IsAdmin() {
		return nil, shared.ErrForbidden
	}

	var resp ApplicationResponse
	err := s.scope.Execute(ctx, func(repos txn.Repositories) error {
		app, err := repos.Applications().FindByID(ctx, applicationID)
		if err != nil {
			return err
		}
		if err := app.Reject(id.UserID, req.Reason); err != nil {
			return err
		}
		if err := repos.Applications().Save(ctx, app); err != nil {
			return err
		}
		if err := repos.Events().Record(ctx, app.GetDomainEvents()...); err != nil {
			return err
		}
		app.ClearDomainEvents()
		resp = ToApplicationResponse(app)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// Get returns an application to its applicant or an admin
func (s *ApplicationService) Get(ctx context.Context, id shared.Identity, applicationID uuid.UUID) (*ApplicationResponse, error) {
	var resp ApplicationResponse
	err := s.scope.Execute(ctx, func(repos txn.Repositories) error {
		app, err := repos.Applications().FindByID(ctx, applicationID)
		if err != nil {
			return err
		}
		if !id.IsAdmin() && app.ApplicantID != id.UserID {
			return shared.ErrNotFound
		}
		resp = ToApplicationResponse(app)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// List returns every application for admins and the caller's own
// applications for everyone else
func (s *ApplicationService) List(ctx context.Context, id shared.Identity, filter ApplicationListFilter) (shared.Paginated[ApplicationResponse], error) {
	if id.UserID == uuid.Nil && !id.IsAdmin() {
		return shared.Paginated[ApplicationResponse]{}, shared.ErrUnauthorized
	}

	f := shared.DefaultFilter()
	f = f.WithPage(filter.Page, filter.PageSize)
	if filter.OrderBy != "" {
		f.OrderBy = filter.OrderBy
	}
	if filter.OrderDir != "" {
		f.OrderDir = filter.OrderDir
	}
	if filter.Status != "" {
		f.Filters["status"] = filter.Status
	}
	if !id.IsAdmin() {
		f.Filters["applicant_id"] = id.UserID
	}

	var page shared.Paginated[ApplicationResponse]
	err := s.scope.Execute(ctx, func(repos txn.Repositories) error {
		apps, total, err := repos.Applications().FindAll(ctx, f)
		if err != nil {
			return err
		}
		items := make([]ApplicationResponse, len(apps))
		for i := range apps {
			items[i] = ToApplicationResponse(&apps[i])
		}
		page = shared.NewPaginated(items, total, f.Page, f.PageSize)
		return nil
	})
	return page, err
}
