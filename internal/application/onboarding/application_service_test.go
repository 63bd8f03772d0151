package onboarding_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	apponboarding "github.com/marketplace/backend/internal/application/onboarding"
	"github.com/marketplace/backend/internal/domain/onboarding"
	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/marketplace/backend/internal/infrastructure/event"
	"github.com/marketplace/backend/internal/infrastructure/persistence"
	"github.com/marketplace/backend/internal/infrastructure/persistence/models"
	"github.com/marketplace/backend/tests/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newApplicationService(t *testing.T) (*apponboarding.ApplicationService, *gorm.DB) {
	t.Helper()
	db := testutil.NewSQLiteDB(t)
	serializer := event.NewEventSerializer()
	event.RegisterAllEvents(serializer)
	scope := persistence.NewGormTransactionScope(db, event.NewOutboxPublisher(serializer, 3).Recorder)
	return apponboarding.NewApplicationService(scope, zap.NewNop()), db
}

func outboxCount(t *testing.T, db *gorm.DB, eventType string) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&models.OutboxEntryModel{}).Where("event_type = ?", eventType).Count(&n).Error)
	return n
}

func applicant() shared.Identity {
	return shared.Identity{UserID: uuid.New(), Role: shared.RoleCustomer}
}

func reviewer() shared.Identity {
	return shared.Identity{UserID: uuid.New(), Role: shared.RoleAdmin}
}

func submitRequest(store string) apponboarding.SubmitApplicationRequest {
	return apponboarding.SubmitApplicationRequest{
		StoreName:    store,
		ContactEmail: "owner@example.com",
		Phone:        "555-0100",
		Description:  "Handmade ceramics",
	}
}

func TestApplicationService_Submit(t *testing.T) {
	svc, db := newApplicationService(t)
	ctx := context.Background()
	user := applicant()

	resp, err := svc.Submit(ctx, user, submitRequest("Clay Corner"))
	require.NoError(t, err)
	assert.Equal(t, string(onboarding.ApplicationPending), resp.Status)
	assert.Equal(t, user.UserID, resp.ApplicantID)
	assert.Equal(t, int64(1), outboxCount(t, db, onboarding.EventTypeVendorApplicationCreated))

	_, err = svc.Submit(ctx, user, submitRequest("Clay Corner Two"))
	assert.ErrorIs(t, err, shared.ErrAlreadyExists, "one pending application per user")

	_, err = svc.Submit(ctx, shared.Identity{}, submitRequest("Anonymous"))
	assert.ErrorIs(t, err, shared.ErrUnauthorized)

	vendorID := uuid.New()
	_, err = svc.Submit(ctx, shared.Identity{UserID: uuid.New(), Role: shared.RoleVendor, VendorID: &vendorID}, submitRequest("Second Store"))
	assert.ErrorIs(t, err, shared.ErrInvalidState)

	bad := submitRequest("Bad Email")
	bad.ContactEmail = "not-an-email"
	_, err = svc.Submit(ctx, applicant(), bad)
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
	assert.Equal(t, int64(1), outboxCount(t, db, onboarding.EventTypeVendorApplicationCreated))
}

func TestApplicationService_Approve(t *testing.T) {
	svc, db := newApplicationService(t)
	ctx := context.Background()
	user := applicant()

	submitted, err := svc.Submit(ctx, user, submitRequest("Atelier Éclat"))
	require.NoError(t, err)

	_, err = svc.Approve(ctx, user, submitted.ID, apponboarding.ApproveApplicationRequest{CommissionRate: decimal.NewFromInt(8)})
	assert.ErrorIs(t, err, shared.ErrForbidden)

	admin := reviewer()
	resp, err := svc.Approve(ctx, admin, submitted.ID, apponboarding.ApproveApplicationRequest{CommissionRate: decimal.NewFromInt(8)})
	require.NoError(t, err)
	assert.Equal(t, string(onboarding.ApplicationApproved), resp.Status)
	require.NotNil(t, resp.VendorID)
	assert.Equal(t, &admin.UserID, resp.ReviewedBy)

	var vendor models.VendorModel
	require.NoError(t, db.First(&vendor, "id = ?", *resp.VendorID).Error)
	assert.Equal(t, "Atelier Éclat", vendor.Name)
	assert.Equal(t, "atelier-eclat", vendor.Slug)
	assert.Equal(t, "owner@example.com", vendor.ContactEmail)
	require.NotNil(t, vendor.OwnerUserID)
	assert.Equal(t, user.UserID, *vendor.OwnerUserID)
	assert.True(t, decimal.NewFromInt(8).Equal(vendor.CommissionRate))
	assert.Equal(t, int64(1), outboxCount(t, db, onboarding.EventTypeVendorApplicationReviewed))

	_, err = svc.Approve(ctx, admin, submitted.ID, apponboarding.ApproveApplicationRequest{})
	assert.ErrorIs(t, err, shared.ErrInvalidState, "decided applications cannot be decided again")

	t.Run("store name already taken", func(t *testing.T) {
		dup, err := svc.Submit(ctx, applicant(), submitRequest("Atelier Éclat"))
		require.NoError(t, err)
		_, err = svc.Approve(ctx, admin, dup.ID, apponboarding.ApproveApplicationRequest{})
		assert.ErrorIs(t, err, shared.ErrAlreadyExists)

		got, err := svc.Get(ctx, admin, dup.ID)
		require.NoError(t, err)
		assert.Equal(t, string(onboarding.ApplicationPending), got.Status, "failed approval leaves the application pending")
	})

	t.Run("commission out of range", func(t *testing.T) {
		pending, err := svc.Submit(ctx, applicant(), submitRequest("Greedy Goods"))
		require.NoError(t, err)
		_, err = svc.Approve(ctx, admin, pending.ID, apponboarding.ApproveApplicationRequest{CommissionRate: decimal.NewFromInt(150)})
		de, ok := shared.IsDomainError(err)
		require.True(t, ok)
		assert.Equal(t, "INVALID_COMMISSION_RATE", de.Code)
	})
}

func TestApplicationService_RejectAndList(t *testing.T) {
	svc, _ := newApplicationService(t)
	ctx := context.Background()
	alice, bob := applicant(), applicant()
	admin := reviewer()

	fromAlice, err := svc.Submit(ctx, alice, submitRequest("Alice Antiques"))
	require.NoError(t, err)
	_, err = svc.Submit(ctx, bob, submitRequest("Bob Books"))
	require.NoError(t, err)

	_, err = svc.Reject(ctx, admin, fromAlice.ID, apponboarding.RejectApplicationRequest{Reason: " "})
	assert.ErrorIs(t, err, shared.ErrInvalidInput)

	rejected, err := svc.Reject(ctx, admin, fromAlice.ID, apponboarding.RejectApplicationRequest{Reason: "Incomplete details"})
	require.NoError(t, err)
	assert.Equal(t, string(onboarding.ApplicationRejected), rejected.Status)
	assert.Equal(t, "Incomplete details", rejected.RejectionReason)
	assert.Nil(t, rejected.VendorID)

	// A rejected applicant may apply again
	_, err = svc.Submit(ctx, alice, submitRequest("Alice Antiques"))
	require.NoError(t, err)

	page, err := svc.List(ctx, alice, apponboarding.ApplicationListFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.Total)
	for _, app := range page.Items {
		assert.Equal(t, alice.UserID, app.ApplicantID)
	}

	page, err = svc.List(ctx, admin, apponboarding.ApplicationListFilter{Status: "pending"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.Total)

	_, err = svc.Get(ctx, bob, fromAlice.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	_, err = svc.List(ctx, shared.Identity{}, apponboarding.ApplicationListFilter{})
	assert.ErrorIs(t, err, shared.ErrUnauthorized)
}
