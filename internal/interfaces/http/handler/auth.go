package handler

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	appcatalog "github.com/marketplace/backend/internal/application/catalog"
	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/marketplace/backend/internal/infrastructure/auth"
	"github.com/marketplace/backend/internal/infrastructure/logger"
	"github.com/marketplace/backend/internal/interfaces/http/middleware"
	"go.uber.org/zap"
)

// VendorOwnership resolves the store a user runs
type VendorOwnership interface {
	OwnedActiveVendor(ctx context.Context, userID uuid.UUID) (*appcatalog.VendorResponse, error)
}

// AuthHandler handles token refresh and logout. Users are authenticated
// upstream; this service only reissues and revokes its own tokens.
type AuthHandler struct {
	BaseHandler
	jwtService *auth.JWTService
	blacklist  auth.TokenBlacklist
	vendors    VendorOwnership
}

// NewAuthHandler creates a new auth handler. blacklist may be nil, in which
// case logout is a no-op on the server side.
func NewAuthHandler(jwtService *auth.JWTService, blacklist auth.TokenBlacklist, vendors VendorOwnership) *AuthHandler {
	return &AuthHandler{jwtService: jwtService, blacklist: blacklist, vendors: vendors}
}

// CurrentIdentityResponse describes the caller as the API sees it
type CurrentIdentityResponse struct {
	UserID   uuid.UUID  `json:"user_id"`
	Role     string     `json:"role"`
	VendorID *uuid.UUID `json:"vendor_id,omitempty"`
}

// Me returns the identity carried by the bearer token
func (h *AuthHandler) Me(c *gin.Context) {
	id := identity(c)
	h.Success(c, CurrentIdentityResponse{UserID: id.UserID, Role: string(id.Role), VendorID: id.VendorID})
}

// Refresh reissues the caller's token. Customers and vendors have their
// role recomputed from store ownership, so an approved applicant becomes a
// vendor and a deactivated vendor falls back to customer. The old token is
// revoked when a blacklist is configured.
func (h *AuthHandler) Refresh(c *gin.Context) {
	ctx := c.Request.Context()
	id := identity(c)

	if !id.IsAdmin() {
		vendor, err := h.vendors.OwnedActiveVendor(ctx, id.UserID)
		switch {
		case err == nil:
			id.Role, id.VendorID = shared.RoleVendor, &vendor.ID
		case errors.Is(err, shared.ErrNotFound):
			id.Role, id.VendorID = shared.RoleCustomer, nil
		default:
			h.HandleError(c, err)
			return
		}
	}

	token, err := h.jwtService.Issue(id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.revokeCurrent(c)
	h.Success(c, token)
}

// Logout revokes the current token for the rest of its lifetime
func (h *AuthHandler) Logout(c *gin.Context) {
	h.revokeCurrent(c)
	h.NoContent(c)
}

func (h *AuthHandler) revokeCurrent(c *gin.Context) {
	claims := middleware.GetJWTClaims(c)
	if h.blacklist == nil || claims == nil || claims.ID == "" {
		return
	}
	ttl := claims.RemainingTTL()
	if ttl <= 0 {
		return
	}
	if err := h.blacklist.Revoke(c.Request.Context(), claims.ID, ttl); err != nil {
		// the token stays valid until it expires
		logger.L(c.Request.Context()).Error("Failed to revoke token", zap.String("jti", claims.ID), zap.Error(err))
	}
}
