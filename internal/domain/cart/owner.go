package cart

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/shared"
)

// OwnerKind tells which half of Owner is set
type OwnerKind string

const (
	OwnerKindUser    OwnerKind = "user"
	OwnerKindSession OwnerKind = "session"
)

// Owner identifies whose cart it is: an authenticated user or an anonymous
// session, never both. The zero value is invalid; use UserOwner or SessionOwner.
type Owner struct {
	kind       OwnerKind
	userID     uuid.UUID
	sessionKey string
}

// UserOwner builds an owner for an authenticated user
func UserOwner(userID uuid.UUID) (Owner, error) {
	if userID == uuid.Nil {
		return Owner{}, shared.ErrInvalidInput.WithMessage("Cart owner user ID is required")
	}
	return Owner{kind: OwnerKindUser, userID: userID}, nil
}

// SessionOwner builds an owner for an anonymous session key
func SessionOwner(key string) (Owner, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return Owner{}, shared.ErrInvalidInput.WithMessage("Cart session key is required")
	}
	if len(key) > 128 {
		return Owner{}, shared.ErrInvalidInput.WithMessage("Cart session key cannot exceed 128 characters")
	}
	return Owner{kind: OwnerKindSession, sessionKey: key}, nil
}

func (o Owner) Kind() OwnerKind { return o.kind }

// IsZero reports whether the owner was never constructed
func (o Owner) IsZero() bool { return o.kind == "" }

// UserID returns the user half
func (o Owner) UserID() (uuid.UUID, bool) {
	return o.userID, o.kind == OwnerKindUser
}

// SessionKey returns the session half
func (o Owner) SessionKey() (string, bool) {
	return o.sessionKey, o.kind == OwnerKindSession
}

func (o Owner) String() string {
	switch o.kind {
	case OwnerKindUser:
		return fmt.Sprintf("user:%s", o.userID)
	case OwnerKindSession:
		return "session"
	}
	return "none"
}
