// Package middleware provides the gin middleware chain of the marketplace API.
package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracingConfig holds configuration for the tracing middleware.
type TracingConfig struct {
	ServiceName string
	Enabled     bool
	// TracerProvider defaults to the global provider
	TracerProvider trace.TracerProvider
}

// TracingWithConfig starts one server span per request through otelgin.
// The span is named after the route pattern, e.g. "GET /api/v1/orders/:id".
// Caller attributes are added later by TracingAttributeInjector, once
// authentication has run.
func TracingWithConfig(cfg TracingConfig) gin.HandlerFunc {
	if !cfg.Enabled {
		return func(c *gin.Context) {
			c.Next()
		}
	}
	var opts []otelgin.Option
	if cfg.TracerProvider != nil {
		opts = append(opts, otelgin.WithTracerProvider(cfg.TracerProvider))
	}
	return otelgin.Middleware(cfg.ServiceName, opts...)
}

// TracingAttributeInjector tags the current span with the request id and
// the caller's user, role and vendor. Place it after Authenticate.
func TracingAttributeInjector() gin.HandlerFunc {
	return func(c *gin.Context) {
		span := trace.SpanFromContext(c.Request.Context())
		if span.IsRecording() {
			if requestID := c.GetString("request_id"); requestID != "" {
				span.SetAttributes(attribute.String("request_id", requestID))
			}
			if id, ok := GetIdentity(c); ok {
				span.SetAttributes(
					attribute.String("user_id", id.UserID.String()),
					attribute.String("role", string(id.Role)),
				)
				if id.VendorID != nil {
					span.SetAttributes(attribute.String("vendor_id", id.VendorID.String()))
				}
			} else if GetSessionKey(c) != "" {
				span.SetAttributes(attribute.Bool("guest_session", true))
			}
		}
		c.Next()
	}
}

// SpanErrorMarker marks the span as failed for 4xx responses, which otelgin
// leaves unset. Place it after TracingWithConfig. For 5xx otelgin sets the
// error status after this returns, replacing the description with "".
func SpanErrorMarker() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		span := trace.SpanFromContext(c.Request.Context())
		if !span.IsRecording() {
			return
		}
		status := c.Writer.Status()
		if status < http.StatusBadRequest {
			return
		}
		span.SetStatus(codes.Error, http.StatusText(status))
		span.SetAttributes(attribute.Int("http.status_code", status))
		if len(c.Errors) > 0 {
			span.SetAttributes(attribute.String("error.message", c.Errors.Last().Error()))
		}
	}
}
