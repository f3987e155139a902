package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jhk/storefront/internal/infrastructure/logger"
	"github.com/jhk/storefront/internal/interfaces/http/handler"
	"github.com/jhk/storefront/internal/interfaces/http/middleware"
	"go.uber.org/zap"
)

// Handlers are the storefront endpoints mounted by NewStorefront
type Handlers struct {
	Cart     *handler.CartHandler
	Catalog  *handler.CatalogHandler
	Checkout *handler.CheckoutHandler
	Health   *handler.HealthHandler
}

// StorefrontConfig configures the middleware chain of the storefront engine
type StorefrontConfig struct {
	ServiceName    string
	TracingEnabled bool
	CORS           middleware.CORSConfig
	Security       middleware.SecurityConfig
	MaxBodyBytes   int64
	Session        middleware.CartSessionConfig
	// CheckoutLimiter throttles checkout starts per client; nil disables it
	CheckoutLimiter *middleware.RateLimiter
	// Metrics records HTTP metrics and serves /metrics; nil disables both
	Metrics *middleware.HTTPMetrics
	Logger  *zap.Logger
}

// NewStorefront builds the gin engine serving the storefront API.
//
// Every request gets a request id, a server span and an access log line.
// Routes under /api/v1 additionally resolve the shopper's cart session.
func NewStorefront(cfg StorefrontConfig, h Handlers) *gin.Engine {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	middleware.SetupValidator()

	engine := gin.New()
	engine.Use(
		logger.Recovery(cfg.Logger),
		middleware.RequestID(),
		middleware.Tracing(middleware.TracingConfig{
			ServiceName: cfg.ServiceName,
			Enabled:     cfg.TracingEnabled,
		}),
		logger.GinMiddleware(cfg.Logger),
	)
	if cfg.Metrics != nil {
		engine.Use(cfg.Metrics.Middleware())
	}
	engine.Use(
		middleware.Secure(cfg.Security),
		middleware.CORSWithConfig(cfg.CORS),
		middleware.BodyLimit(cfg.MaxBodyBytes),
		middleware.SpanErrorMarker(),
	)

	engine.NoRoute(func(c *gin.Context) {
		new(handler.BaseHandler).NotFound(c, "Route not found")
	})

	if h.Health != nil {
		engine.GET("/health", h.Health.Health)
	}
	if cfg.Metrics != nil {
		engine.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	r := NewRouter(engine,
		WithAPIVersion("v1"),
		WithAPIMiddleware(
			middleware.CartSession(cfg.Session),
			middleware.SpanAttributes(),
		),
	)

	cartRoutes := NewDomainGroup("cart", "/cart")
	cartRoutes.GET("", h.Cart.Get)
	cartRoutes.DELETE("", h.Cart.Clear)
	cartRoutes.POST("/items", h.Cart.AddItem)
	cartRoutes.PUT("/items/:product_id", h.Cart.UpdateItem)
	cartRoutes.DELETE("/items/:product_id", h.Cart.RemoveItem)
	cartRoutes.POST("/toggle", h.Cart.Toggle)
	cartRoutes.POST("/open", h.Cart.Open)
	cartRoutes.POST("/close", h.Cart.Close)
	cartRoutes.GET("/stream", h.Cart.Stream)

	catalogRoutes := NewDomainGroup("catalog", "/catalog")
	catalogRoutes.GET("/products", h.Catalog.ListProducts)
	catalogRoutes.GET("/products/:id", h.Catalog.GetProduct)

	checkoutRoutes := NewDomainGroup("checkout", "/checkout")
	begin := []gin.HandlerFunc{h.Checkout.Begin}
	if cfg.CheckoutLimiter != nil {
		begin = append([]gin.HandlerFunc{middleware.RateLimit(cfg.CheckoutLimiter)}, begin...)
	}
	checkoutRoutes.POST("", begin...)
	checkoutRoutes.Match([]string{http.MethodGet, http.MethodPost}, "/confirm", h.Checkout.Confirm)
	checkoutRoutes.GET("/orders/:number", h.Checkout.GetOrder)

	r.Register(cartRoutes).
		Register(catalogRoutes).
		Register(checkoutRoutes)
	r.Setup()

	cfg.Logger.Info("Storefront routes registered",
		zap.Int("routes", len(engine.Routes())),
	)
	return engine
}
