package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func newTracedRouter(t *testing.T, chain ...gin.HandlerFunc) (*gin.Engine, *tracetest.SpanRecorder) {
	t.Helper()

	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	t.Cleanup(func() {
		_ = tp.Shutdown(t.Context())
	})

	router := gin.New()
	router.Use(RequestID())
	router.Use(TracingWithConfig(TracingConfig{Enabled: true, ServiceName: "test-service", TracerProvider: tp}))
	router.Use(SpanErrorMarker())
	router.Use(chain...)
	router.Use(TracingAttributeInjector())
	return router, sr
}

func findSpan(t *testing.T, sr *tracetest.SpanRecorder, name string) sdktrace.ReadOnlySpan {
	t.Helper()
	for _, span := range sr.Ended() {
		if span.Name() == name {
			return span
		}
	}
	require.Failf(t, "span not found", "no ended span named %q", name)
	return nil
}

func spanAttrs(span sdktrace.ReadOnlySpan) map[attribute.Key]attribute.Value {
	out := make(map[attribute.Key]attribute.Value)
	for _, kv := range span.Attributes() {
		out[kv.Key] = kv.Value
	}
	return out
}

func TestTracingWithConfig_Disabled(t *testing.T) {
	router := gin.New()
	router.Use(TracingWithConfig(TracingConfig{Enabled: false}))
	router.GET("/test", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestTracing_SpanPerRoute(t *testing.T) {
	router, sr := newTracedRouter(t)
	router.GET("/api/v1/orders/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/"+uuid.NewString(), nil)
	req.Header.Set(RequestIDHeader, "trace-me-123")
	router.ServeHTTP(httptest.NewRecorder(), req)

	span := findSpan(t, sr, "GET /api/v1/orders/:id")
	assert.Equal(t, "trace-me-123", spanAttrs(span)["request_id"].AsString())
	assert.NotEqual(t, codes.Error, span.Status().Code)
}

func TestTracingAttributeInjector_Identity(t *testing.T) {
	vendorID := uuid.New()
	id := shared.Identity{UserID: uuid.New(), Role: shared.RoleVendor, VendorID: &vendorID}
	router, sr := newTracedRouter(t, func(c *gin.Context) {
		c.Set(identityContextKey, id)
		c.Next()
	})
	router.GET("/test", func(c *gin.Context) { c.Status(http.StatusOK) })

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/test", nil))

	attrs := spanAttrs(findSpan(t, sr, "GET /test"))
	assert.Equal(t, id.UserID.String(), attrs["user_id"].AsString())
	assert.Equal(t, "vendor", attrs["role"].AsString())
	assert.Equal(t, vendorID.String(), attrs["vendor_id"].AsString())
}

func TestTracingAttributeInjector_GuestSession(t *testing.T) {
	router, sr := newTracedRouter(t, SessionKey())
	router.GET("/test", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set(SessionKeyHeader, "guest-session-0001")
	router.ServeHTTP(httptest.NewRecorder(), req)

	attrs := spanAttrs(findSpan(t, sr, "GET /test"))
	assert.True(t, attrs["guest_session"].AsBool())
	_, hasUser := attrs["user_id"]
	assert.False(t, hasUser)
}

func TestSpanErrorMarker(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		isErr    bool
		wantDesc string
	}{
		{"ok", http.StatusOK, false, ""},
		{"conflict", http.StatusConflict, true, "Conflict"},
		{"unauthorized", http.StatusUnauthorized, true, "Unauthorized"},
		// otelgin sets the 5xx status itself once the marker has returned
		{"server error", http.StatusInternalServerError, true, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, sr := newTracedRouter(t)
			router.GET("/test", func(c *gin.Context) { c.Status(tt.status) })

			router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/test", nil))

			span := findSpan(t, sr, "GET /test")
			if tt.isErr {
				assert.Equal(t, codes.Error, span.Status().Code)
				assert.Equal(t, tt.wantDesc, span.Status().Description)
			} else {
				assert.NotEqual(t, codes.Error, span.Status().Code)
			}
		})
	}
}

func TestSpanErrorMarker_WithNoSpan(t *testing.T) {
	router := gin.New()
	router.Use(SpanErrorMarker(), TracingAttributeInjector())
	router.GET("/test", func(c *gin.Context) { c.Status(http.StatusBadRequest) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
