package middleware

import (
	"encoding/hex"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/marketplace/backend/internal/infrastructure/logger"
	"github.com/marketplace/backend/internal/interfaces/http/dto"
	"golang.org/x/crypto/blake2b"
)

// SessionKeyHeader identifies an anonymous shopper's cart
const SessionKeyHeader = "X-Session-Key"

const sessionKeyContextKey = "session_key"

// SessionKey reads the optional X-Session-Key header. A malformed key is
// rejected with 400; a valid one is stored for the cart handlers and tagged
// on the request logger by a short digest, never in clear.
func SessionKey() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader(SessionKeyHeader)
		if key == "" {
			c.Next()
			return
		}
		if !ValidSessionKey(key) {
			resp := dto.NewErrorResponse(dto.ErrCodeInvalidInput, "Invalid "+SessionKeyHeader+" header")
			resp.Error.RequestID = logger.GetRequestID(c.Request.Context())
			c.AbortWithStatusJSON(http.StatusBadRequest, resp)
			return
		}

		c.Set(sessionKeyContextKey, key)

		ctx := c.Request.Context()
		actor, _ := logger.GetActor(ctx)
		actor.Session = sessionTag(key)
		c.Request = c.Request.WithContext(logger.WithActor(ctx, actor))
		c.Next()
	}
}

// GetSessionKey returns the validated session key, or "" when absent
func GetSessionKey(c *gin.Context) string {
	return c.GetString(sessionKeyContextKey)
}

func sessionTag(key string) string {
	sum := blake2b.Sum256([]byte(key))
	return hex.EncodeToString(sum[:4])
}
