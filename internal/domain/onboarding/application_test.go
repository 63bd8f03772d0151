package onboarding

import (
	"testing"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newApplication(t *testing.T) *VendorApplication {
	t.Helper()
	app, err := NewVendorApplication(uuid.New(), "Green Grocer", "owner@grocer.test", "555-0101", "Fresh produce")
	require.NoError(t, err)
	return app
}

func TestNewVendorApplication(t *testing.T) {
	app := newApplication(t)
	assert.Equal(t, ApplicationPending, app.Status)

	events := app.GetDomainEvents()
	require.Len(t, events, 1)
	created, ok := events[0].(*VendorApplicationCreatedEvent)
	require.True(t, ok)
	assert.Equal(t, app.ID, created.ApplicationID)
	assert.Equal(t, "Green Grocer", created.StoreName)

	_, err := NewVendorApplication(uuid.New(), "Shop", "not-an-email", "", "")
	assert.ErrorIs(t, err, shared.ErrInvalidInput)

	_, err = NewVendorApplication(uuid.New(), " ", "a@b.test", "", "")
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestVendorApplication_Review(t *testing.T) {
	reviewer := uuid.New()

	t.Run("approve links the vendor", func(t *testing.T) {
		app := newApplication(t)
		vendorID := uuid.New()
		require.NoError(t, app.Approve(reviewer, vendorID))
		assert.Equal(t, ApplicationApproved, app.Status)
		assert.Equal(t, vendorID, *app.VendorID)
		assert.NotNil(t, app.ReviewedAt)

		assert.ErrorIs(t, app.Reject(reviewer, "late"), shared.ErrInvalidState)
	})

	t.Run("reject requires a reason", func(t *testing.T) {
		app := newApplication(t)
		assert.ErrorIs(t, app.Reject(reviewer, ""), shared.ErrInvalidInput)
		require.NoError(t, app.Reject(reviewer, "incomplete documents"))
		assert.Equal(t, ApplicationRejected, app.Status)
		assert.ErrorIs(t, app.Approve(reviewer, uuid.New()), shared.ErrInvalidState)
	})
}
