package middleware

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// frozenLimiter returns a limiter whose clock only moves when advance is called
func frozenLimiter(limit int, window time.Duration) (*RateLimiter, func(time.Duration)) {
	rl := NewRateLimiter(limit, window)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }
	return rl, func(d time.Duration) { now = now.Add(d) }
}

func TestRateLimiter_Allow(t *testing.T) {
	tests := []struct {
		name    string
		limit   int
		calls   []string
		allowed []bool
	}{
		{
			name:    "burst up to the limit",
			limit:   3,
			calls:   []string{"a", "a", "a", "a"},
			allowed: []bool{true, true, true, false},
		},
		{
			name:    "keys are independent",
			limit:   1,
			calls:   []string{"a", "b", "a", "b", "c"},
			allowed: []bool{true, true, false, false, true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rl, _ := frozenLimiter(tt.limit, time.Minute)
			for i, key := range tt.calls {
				assert.Equal(t, tt.allowed[i], rl.Allow(key), "call %d for %s", i, key)
			}
		})
	}
}

func TestRateLimiter_RefillAndRetryAfter(t *testing.T) {
	rl, advance := frozenLimiter(4, time.Minute)
	for range 4 {
		require.True(t, rl.Allow("k"))
	}
	assert.False(t, rl.Allow("k"))
	assert.Equal(t, 0, rl.Remaining("k"))
	assert.Equal(t, 15*time.Second, rl.RetryAfter("k"))

	advance(10 * time.Second)
	assert.InDelta(t, float64(5*time.Second), float64(rl.RetryAfter("k")), float64(time.Millisecond))
	assert.False(t, rl.Allow("k"))

	advance(6 * time.Second)
	assert.True(t, rl.Allow("k"))
	assert.Zero(t, rl.RetryAfter("unknown"))
	assert.Equal(t, 4, rl.Remaining("unknown"))
}

func TestRateLimiter_ForgetsIdleKeys(t *testing.T) {
	rl, advance := frozenLimiter(2, time.Minute)
	rl.Allow("idle")
	advance(3 * time.Minute)
	rl.Allow("active")

	rl.mu.Lock()
	defer rl.mu.Unlock()
	assert.NotContains(t, rl.visitors, "idle")
	assert.Contains(t, rl.visitors, "active")
}

func TestRateLimiter_ConcurrentCallersShareOneBucket(t *testing.T) {
	rl, _ := frozenLimiter(40, time.Minute)
	var (
		wg      sync.WaitGroup
		allowed atomic.Int32
	)
	for range 100 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if rl.Allow("shared") {
				allowed.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(40), allowed.Load())
}

func TestRateLimit_Middleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rl, _ := frozenLimiter(2, time.Minute)

	engine := gin.New()
	engine.Use(RateLimit(rl))
	engine.GET("/products", func(c *gin.Context) { c.Status(http.StatusOK) })

	do := func() *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/products", nil))
		return w
	}

	first := do()
	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, "2", first.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "1", first.Header().Get("X-RateLimit-Remaining"))

	assert.Equal(t, http.StatusOK, do().Code)

	limited := do()
	assert.Equal(t, http.StatusTooManyRequests, limited.Code)
	assert.Equal(t, "30", limited.Header().Get("Retry-After"))
	assert.Contains(t, limited.Body.String(), "RATE_LIMITED")
}

func TestCallerKey_Precedence(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Request.RemoteAddr = "10.0.0.1:1234"
	assert.Equal(t, "ip:10.0.0.1", callerKey(c))

	c.Set(sessionKeyContextKey, "anon-session-key-123")
	assert.Equal(t, "session:anon-session-key-123", callerKey(c))

	userID := uuid.New()
	c.Set(identityContextKey, shared.Identity{UserID: userID, Role: shared.RoleCustomer})
	assert.Equal(t, "user:"+userID.String(), callerKey(c))
}
