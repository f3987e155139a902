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

func serve(engine *gin.Engine, method, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(method, target, nil))
	return w
}

func TestNewRouter(t *testing.T) {
	r := NewRouter(gin.New())

	assert.Equal(t, "v1", r.apiVersion)
	assert.Empty(t, r.registrars)
	assert.Empty(t, r.middleware)
}

func TestRouterOptions(t *testing.T) {
	noop := func(c *gin.Context) { c.Next() }
	r := NewRouter(gin.New(), WithAPIVersion("v2"), WithAPIMiddleware(noop, noop))

	assert.Equal(t, "v2", r.apiVersion)
	assert.Len(t, r.middleware, 2)
}

func TestRouterSetup(t *testing.T) {
	engine := gin.New()
	engine.GET("/health", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	r := NewRouter(engine, WithAPIMiddleware(func(c *gin.Context) {
		c.Header("X-Api", "1")
		c.Next()
	}))
	group := NewDomainGroup("test", "/test")
	group.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	r.Register(group)
	r.Setup()

	w := serve(engine, http.MethodGet, "/api/v1/test/ping")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pong", w.Body.String())
	assert.Equal(t, "1", w.Header().Get("X-Api"))

	// engine-level routes skip API middleware
	w = serve(engine, http.MethodGet, "/health")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("X-Api"))
}

func TestDomainGroup(t *testing.T) {
	t.Run("name and prefix", func(t *testing.T) {
		g := NewDomainGroup("catalog", "/catalog")
		assert.Equal(t, "catalog", g.Name())
		assert.Equal(t, "/catalog", g.Prefix())
	})

	t.Run("registers each method", func(t *testing.T) {
		engine := gin.New()
		g := NewDomainGroup("cart", "/cart")
		ok := func(c *gin.Context) { c.String(http.StatusOK, c.Request.Method) }
		g.GET("", ok).
			DELETE("", ok).
			POST("/items", ok).
			PUT("/items/:product_id", ok).
			DELETE("/items/:product_id", ok)
		g.RegisterRoutes(engine.Group("/api/v1"))

		tests := []struct {
			method string
			path   string
		}{
			{http.MethodGet, "/api/v1/cart"},
			{http.MethodDelete, "/api/v1/cart"},
			{http.MethodPost, "/api/v1/cart/items"},
			{http.MethodPut, "/api/v1/cart/items/7"},
			{http.MethodDelete, "/api/v1/cart/items/7"},
		}
		for _, tt := range tests {
			w := serve(engine, tt.method, tt.path)
			assert.Equal(t, http.StatusOK, w.Code, tt.method+" "+tt.path)
			assert.Equal(t, tt.method, w.Body.String())
		}
	})

	t.Run("match registers several methods", func(t *testing.T) {
		engine := gin.New()
		g := NewDomainGroup("checkout", "/checkout")
		g.Match([]string{http.MethodGet, http.MethodPost}, "/confirm", func(c *gin.Context) {
			c.Status(http.StatusNoContent)
		})
		g.RegisterRoutes(engine.Group("/api/v1"))

		assert.Equal(t, http.StatusNoContent, serve(engine, http.MethodGet, "/api/v1/checkout/confirm").Code)
		assert.Equal(t, http.StatusNoContent, serve(engine, http.MethodPost, "/api/v1/checkout/confirm").Code)
		assert.Equal(t, http.StatusNotFound, serve(engine, http.MethodPut, "/api/v1/checkout/confirm").Code)
	})

	t.Run("group middleware runs in order", func(t *testing.T) {
		engine := gin.New()
		var order []string
		g := NewDomainGroup("test", "/test").
			Use(func(c *gin.Context) { order = append(order, "first"); c.Next() }).
			Use(func(c *gin.Context) { order = append(order, "second"); c.Next() })
		g.GET("/x", func(c *gin.Context) {
			order = append(order, "handler")
			c.Status(http.StatusOK)
		})
		g.RegisterRoutes(engine.Group("/api/v1"))

		serve(engine, http.MethodGet, "/api/v1/test/x")
		assert.Equal(t, []string{"first", "second", "handler"}, order)
	})
}
