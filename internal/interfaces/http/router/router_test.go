package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func reply(body string) gin.HandlerFunc {
	return func(c *gin.Context) { c.String(http.StatusOK, body) }
}

func serve(engine *gin.Engine, method, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(method, target, nil))
	return w
}

func TestRouter_Version(t *testing.T) {
	assert.Equal(t, "/api/v1", NewRouter(gin.New()).BasePath())
	assert.Equal(t, "/api/v2", NewRouter(gin.New(), WithAPIVersion("v2")).BasePath())
}

func TestRouter_MountsGroupsAndMethods(t *testing.T) {
	engine := gin.New()

	catalog := NewDomainGroup("catalog", "/catalog")
	catalog.Group("products", "/products").
		GET("", reply("list")).
		POST("", reply("create")).
		PATCH("/:id", reply("patch")).
		DELETE("/:id", reply("delete"))
	catalog.Group("vendors", "/vendors").GET("/:id", reply("vendor"))
	orders := NewDomainGroup("orders", "/orders").GET("/mine", reply("mine"))

	NewRouter(engine).Register(catalog, orders).Setup()

	tests := []struct {
		method, path, body string
	}{
		{http.MethodGet, "/api/v1/catalog/products", "list"},
		{http.MethodPost, "/api/v1/catalog/products", "create"},
		{http.MethodPatch, "/api/v1/catalog/products/7", "patch"},
		{http.MethodDelete, "/api/v1/catalog/products/7", "delete"},
		{http.MethodGet, "/api/v1/catalog/vendors/3", "vendor"},
		{http.MethodGet, "/api/v1/orders/mine", "mine"},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			w := serve(engine, tt.method, tt.path)
			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, tt.body, w.Body.String())
		})
	}
}

func TestDomainGroup_MiddlewareScope(t *testing.T) {
	engine := gin.New()
	deny := func(c *gin.Context) { c.AbortWithStatus(http.StatusForbidden) }
	tag := func(c *gin.Context) {
		c.Header("X-Area", "cart")
		c.Next()
	}

	admin := NewDomainGroup("admin", "/admin").Use(deny)
	admin.Group("outbox", "/outbox").GET("/stats", reply("stats"))
	open := NewDomainGroup("open", "/open")
	open.GET("/free", reply("free"))
	open.GET("/gated", deny, reply("gated"))
	cart := NewDomainGroup("cart", "/cart").Use(tag).GET("", reply("cart"))

	NewRouter(engine).Register(admin, open, cart).Setup()

	tests := []struct {
		path string
		code int
	}{
		{"/api/v1/admin/outbox/stats", http.StatusForbidden},
		{"/api/v1/open/free", http.StatusOK},
		{"/api/v1/open/gated", http.StatusForbidden},
		{"/api/v1/cart", http.StatusOK},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.code, serve(engine, http.MethodGet, tt.path).Code, tt.path)
	}
	assert.Equal(t, "cart", serve(engine, http.MethodGet, "/api/v1/cart").Header().Get("X-Area"))
	assert.Empty(t, serve(engine, http.MethodGet, "/api/v1/open/free").Header().Get("X-Area"))
}

func TestDomainGroup_Routes(t *testing.T) {
	admin := NewDomainGroup("admin", "/admin")
	admin.PATCH("/orders/:id/notes", reply(""))
	admin.Group("outbox", "/outbox").
		GET("/stats", reply("")).
		POST("/:id/retry", reply(""))
	cart := NewDomainGroup("cart", "/cart").GET("", reply(""))

	assert.Equal(t, []Route{
		{http.MethodPatch, "/admin/orders/:id/notes"},
		{http.MethodGet, "/admin/outbox/stats"},
		{http.MethodPost, "/admin/outbox/:id/retry"},
	}, admin.Routes())
	assert.Equal(t, []Route{{http.MethodGet, "/cart"}}, cart.Routes())
}
