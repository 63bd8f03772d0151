package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/marketplace/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestJWTService() *JWTService {
	return NewJWTService(config.JWTConfig{
		Secret:                "test-secret-key-at-least-32-chars",
		AccessTokenExpiration: 15 * time.Minute,
		Issuer:                "marketplace-test",
	})
}

func TestJWTService_IssueAndValidate(t *testing.T) {
	svc := newTestJWTService()

	t.Run("customer", func(t *testing.T) {
		userID := uuid.New()
		tok, err := svc.Issue(shared.Identity{UserID: userID, Role: shared.RoleCustomer})
		require.NoError(t, err)
		assert.Equal(t, "Bearer", tok.TokenType)

		claims, err := svc.Validate(tok.AccessToken)
		require.NoError(t, err)
		assert.NotEmpty(t, claims.ID)
		assert.Equal(t, userID.String(), claims.Subject)

		id, err := claims.Identity()
		require.NoError(t, err)
		assert.Equal(t, userID, id.UserID)
		assert.Equal(t, shared.RoleCustomer, id.Role)
		assert.Nil(t, id.VendorID)
	})

	t.Run("vendor carries vendor id", func(t *testing.T) {
		vendorID := uuid.New()
		tok, err := svc.Issue(shared.Identity{UserID: uuid.New(), Role: shared.RoleVendor, VendorID: &vendorID})
		require.NoError(t, err)

		claims, err := svc.Validate(tok.AccessToken)
		require.NoError(t, err)
		id, err := claims.Identity()
		require.NoError(t, err)
		require.NotNil(t, id.VendorID)
		assert.Equal(t, vendorID, *id.VendorID)
		assert.True(t, id.OwnsVendor(vendorID))
	})

	t.Run("rejects unknown role", func(t *testing.T) {
		_, err := svc.Issue(shared.Identity{UserID: uuid.New(), Role: "root"})
		assert.ErrorIs(t, err, ErrInvalidClaims)
	})
}

func TestJWTService_Validate_Failures(t *testing.T) {
	svc := newTestJWTService()
	tok, err := svc.Issue(shared.Identity{UserID: uuid.New(), Role: shared.RoleAdmin})
	require.NoError(t, err)

	t.Run("expired", func(t *testing.T) {
		later := newTestJWTService()
		later.now = func() time.Time { return time.Now().Add(time.Hour) }
		_, err := later.Validate(tok.AccessToken)
		assert.ErrorIs(t, err, ErrExpiredToken)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := NewJWTService(config.JWTConfig{Secret: "another-secret-key-at-least-32-chars", Issuer: "marketplace-test"})
		_, err := other.Validate(tok.AccessToken)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		other := NewJWTService(config.JWTConfig{Secret: "test-secret-key-at-least-32-chars", Issuer: "someone-else"})
		_, err := other.Validate(tok.AccessToken)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := svc.Validate("not.a.token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("none algorithm", func(t *testing.T) {
		unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{UserID: uuid.NewString(), Role: "admin"})
		s, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)
		_, err = svc.Validate(s)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestClaims_Identity(t *testing.T) {
	tests := []struct {
		name    string
		claims  Claims
		wantErr bool
	}{
		{"valid customer", Claims{UserID: uuid.NewString(), Role: "customer"}, false},
		{"bad user id", Claims{UserID: "nope", Role: "customer"}, true},
		{"unknown role", Claims{UserID: uuid.NewString(), Role: "owner"}, true},
		{"vendor without vendor id", Claims{UserID: uuid.NewString(), Role: "vendor"}, true},
		{"bad vendor id", Claims{UserID: uuid.NewString(), Role: "vendor", VendorID: "x"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.claims.Identity()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidClaims)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestClaims_RemainingTTL(t *testing.T) {
	c := Claims{}
	assert.Zero(t, c.RemainingTTL())

	c.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))
	assert.Zero(t, c.RemainingTTL())

	c.ExpiresAt = jwt.NewNumericDate(time.Now().Add(10 * time.Minute))
	assert.InDelta(t, (10 * time.Minute).Seconds(), c.RemainingTTL().Seconds(), 2)
}
