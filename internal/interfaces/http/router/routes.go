package router

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/marketplace/backend/internal/infrastructure/config"
	"github.com/marketplace/backend/internal/infrastructure/logger"
	"github.com/marketplace/backend/internal/infrastructure/telemetry"
	"github.com/marketplace/backend/internal/interfaces/http/dto"
	"github.com/marketplace/backend/internal/interfaces/http/handler"
	"github.com/marketplace/backend/internal/interfaces/http/middleware"
	"go.uber.org/zap"
)

// EngineConfig carries what the middleware chain needs
type EngineConfig struct {
	Logger  *zap.Logger
	HTTP    config.HTTPConfig
	Auth    middleware.JWTMiddlewareConfig
	Tracing middleware.TracingConfig
	// Meter may be nil when metrics are off
	Meter *telemetry.MeterProvider
}

// NewEngine builds a gin engine with the global middleware chain. Routes
// are added afterwards through a Router.
func NewEngine(cfg EngineConfig) (*gin.Engine, error) {
	middleware.SetupValidator()

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		return nil, fmt.Errorf("trusted proxies: %w", err)
	}
	engine.HandleMethodNotAllowed = true

	engine.Use(
		logger.Recovery(cfg.Logger),
		middleware.RequestID(),
		logger.GinMiddleware(cfg.Logger),
		middleware.TracingWithConfig(cfg.Tracing),
		middleware.SpanErrorMarker(),
		middleware.HTTPMetrics(cfg.Meter, cfg.Logger),
		middleware.Secure(),
		middleware.CORSWithConfig(middleware.CORSConfigFromHTTP(cfg.HTTP)),
		middleware.BodyLimit(cfg.HTTP.MaxBodySize),
		middleware.SessionKey(),
		middleware.Authenticate(cfg.Auth),
		middleware.TracingAttributeInjector(),
	)
	if cfg.HTTP.RateLimitRequests > 0 {
		engine.Use(middleware.RateLimit(middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)))
	}

	engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, dto.NewErrorResponse(dto.ErrCodeNotFound, "Route not found"))
	})
	engine.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, dto.NewErrorResponse(dto.ErrCodeBadRequest, "Method not allowed"))
	})
	return engine, nil
}

// Handlers holds every API handler
type Handlers struct {
	Health       *handler.HealthHandler
	Auth         *handler.AuthHandler
	Vendor       *handler.VendorHandler
	Product      *handler.ProductHandler
	Cart         *handler.CartHandler
	Order        *handler.OrderHandler
	Application  *handler.ApplicationHandler
	Notification *handler.NotificationHandler
	Outbox       *handler.OutboxHandler
}

// Mount registers the health probe and the versioned API on engine and
// returns the API routes it added
func Mount(engine *gin.Engine, h Handlers) []Route {
	engine.GET("/health", h.Health.Health)

	r := NewRouter(engine, WithAPIVersion("v1"))
	var mounted []Route
	for _, g := range Groups(h) {
		r.Register(g)
		for _, route := range g.Routes() {
			route.Path = joinPath(r.BasePath(), route.Path)
			mounted = append(mounted, route)
		}
	}
	r.Setup()
	return mounted
}

// Groups returns the API route groups. Public groups rely on the services
// to scope data to the caller; the rest gate access by role up front.
func Groups(h Handlers) []*DomainGroup {
	vendorOrAdmin := middleware.RequireRole(shared.RoleVendor, shared.RoleAdmin)
	adminOnly := middleware.RequireRole(shared.RoleAdmin)

	authRoutes := NewDomainGroup("auth", "/auth").Use(middleware.RequireAuth())
	authRoutes.GET("/me", h.Auth.Me)
	authRoutes.POST("/refresh", h.Auth.Refresh)
	authRoutes.POST("/logout", h.Auth.Logout)

	vendorRoutes := NewDomainGroup("vendors", "/vendors")
	vendorRoutes.GET("", h.Vendor.List)
	vendorRoutes.GET("/:id", h.Vendor.GetByID)
	vendorRoutes.GET("/slug/:slug", h.Vendor.GetBySlug)

	productRoutes := NewDomainGroup("products", "/products")
	productRoutes.GET("", h.Product.List)
	productRoutes.GET("/:id", h.Product.GetByID)

	variantRoutes := NewDomainGroup("variants", "/variants")
	variantRoutes.GET("/:id/availability", h.Product.Availability)
	variantRoutes.GET("/:id/price", h.Product.Price)
	variantRoutes.GET("/:id/purchasable", h.Product.Purchasable)

	vendorPortal := NewDomainGroup("vendor-portal", "/vendor").Use(vendorOrAdmin)
	vendorPortal.POST("/products", h.Product.Create)
	vendorPortal.PATCH("/products/:id", h.Product.Update)
	vendorPortal.POST("/products/:id/variants", h.Product.AddVariant)
	vendorPortal.PATCH("/products/:id/variants/:variantId", h.Product.UpdateVariant)
	vendorPortal.POST("/products/:id/variants/:variantId/stock", h.Product.AdjustStock)

	cartRoutes := NewDomainGroup("cart", "/cart")
	cartRoutes.GET("", h.Cart.Get)
	cartRoutes.DELETE("", h.Cart.Clear)
	cartRoutes.GET("/totals", h.Cart.Totals)
	cartRoutes.POST("/items", h.Cart.AddItem)
	cartRoutes.PATCH("/items/:itemId", h.Cart.UpdateItem)
	cartRoutes.DELETE("/items/:itemId", h.Cart.RemoveItem)
	cartRoutes.POST("/merge", middleware.RequireAuth(), h.Cart.Merge)

	orderRoutes := NewDomainGroup("orders", "/orders")
	orderRoutes.POST("", h.Order.Create)
	orderRoutes.GET("", middleware.RequireAuth(), h.Order.List)
	orderRoutes.GET("/:id", middleware.RequireAuth(), h.Order.Get)
	orderRoutes.PATCH("/:id/status", vendorOrAdmin, h.Order.UpdateStatus)
	orderRoutes.POST("/bulk-status", vendorOrAdmin, h.Order.BulkUpdateStatus)

	reportRoutes := NewDomainGroup("reports", "/reports").Use(vendorOrAdmin)
	reportRoutes.GET("/vendor-summary", h.Order.VendorSummary)

	applicationRoutes := NewDomainGroup("vendor-applications", "/vendor-applications").Use(middleware.RequireAuth())
	applicationRoutes.POST("", h.Application.Submit)
	applicationRoutes.GET("", h.Application.List)
	applicationRoutes.GET("/:id", h.Application.Get)

	notificationRoutes := NewDomainGroup("notifications", "/notifications").Use(middleware.RequireAuth())
	notificationRoutes.GET("", h.Notification.List)
	notificationRoutes.POST("/:id/read", h.Notification.MarkRead)

	adminRoutes := NewDomainGroup("admin", "/admin").Use(adminOnly)
	adminRoutes.POST("/vendors", h.Vendor.Create)
	adminRoutes.PATCH("/vendors/:id", h.Vendor.Update)
	adminRoutes.PATCH("/orders/:id/notes", h.Order.UpdateNotes)
	adminRoutes.POST("/vendor-applications/:id/approve", h.Application.Approve)
	adminRoutes.POST("/vendor-applications/:id/reject", h.Application.Reject)

	outboxRoutes := adminRoutes.Group("outbox", "/outbox")
	outboxRoutes.GET("/stats", h.Outbox.Stats)
	outboxRoutes.GET("/dead", h.Outbox.DeadLetters)
	outboxRoutes.GET("/:id", h.Outbox.Get)
	outboxRoutes.POST("/:id/retry", h.Outbox.Retry)
	outboxRoutes.POST("/retry-all", h.Outbox.RetryAll)

	return []*DomainGroup{
		authRoutes,
		vendorRoutes,
		productRoutes,
		variantRoutes,
		vendorPortal,
		cartRoutes,
		orderRoutes,
		reportRoutes,
		applicationRoutes,
		notificationRoutes,
		adminRoutes,
	}
}
