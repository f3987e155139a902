package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	cartapp "github.com/jhk/storefront/internal/application/cart"
	catalogapp "github.com/jhk/storefront/internal/application/catalog"
	checkoutapp "github.com/jhk/storefront/internal/application/checkout"
	"github.com/jhk/storefront/internal/domain/cart"
	"github.com/jhk/storefront/internal/domain/checkout"
	"github.com/jhk/storefront/internal/infrastructure/auth"
	"github.com/jhk/storefront/internal/infrastructure/cache"
	"github.com/jhk/storefront/internal/infrastructure/config"
	"github.com/jhk/storefront/internal/infrastructure/event"
	"github.com/jhk/storefront/internal/infrastructure/logger"
	"github.com/jhk/storefront/internal/infrastructure/messaging"
	"github.com/jhk/storefront/internal/infrastructure/payment"
	"github.com/jhk/storefront/internal/infrastructure/persistence"
	"github.com/jhk/storefront/internal/infrastructure/scheduler"
	"github.com/jhk/storefront/internal/infrastructure/storage"
	"github.com/jhk/storefront/internal/infrastructure/telemetry"
	"github.com/jhk/storefront/internal/interfaces/http/handler"
	"github.com/jhk/storefront/internal/interfaces/http/middleware"
	"github.com/jhk/storefront/internal/interfaces/http/router"
	"go.uber.org/zap"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

const logTimeFormat = "2006-01-02T15:04:05.000Z07:00"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	logCfg := &logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: logTimeFormat,
	}
	log, err := logger.New(logCfg)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx := context.Background()

	// OpenTelemetry: traces, metrics and logs share the collector endpoint
	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}

	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ExportInterval:    cfg.Telemetry.MetricsExportInterval,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}

	loggerProvider, err := telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{
		Enabled:           cfg.Telemetry.Enabled && cfg.Telemetry.LogsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize logger provider", zap.Error(err))
	}
	if loggerProvider.IsEnabled() {
		// Rebuild the logger so every entry is also exported
		otelCore := telemetry.NewZapOTELCore(loggerProvider, cfg.Telemetry.ServiceName, logger.ParseLevel(cfg.Log.Level))
		log, err = logger.New(logCfg, otelCore)
		if err != nil {
			panic("Failed to initialize logger: " + err.Error())
		}
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	profiler, err := telemetry.NewProfiler(telemetry.ProfilerConfig{
		Enabled:           cfg.Telemetry.ProfilingEnabled,
		ServerAddress:     cfg.Telemetry.PyroscopeEndpoint,
		ApplicationName:   cfg.Telemetry.ServiceName,
		ProfileGoroutines: true,
		ProfileMutex:      true,
	}, log)
	if err != nil {
		log.Fatal("Failed to start profiler", zap.Error(err))
	}
	if profiler.IsEnabled() && tracerProvider.IsEnabled() {
		if err := tracerProvider.EnableSpanProfiles(); err != nil {
			log.Warn("Span profiles unavailable", zap.Error(err))
		}
	}

	log.Info("Starting storefront",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	// Database
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	db, err := persistence.NewDatabaseWithCustomLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	if db.IsSQLite() {
		// postgres schemas come from migrations/
		if err := db.AutoMigrate(); err != nil {
			log.Fatal("Failed to migrate sqlite schema", zap.Error(err))
		}
	}
	if err := telemetry.RegisterDBTracing(db.DB, telemetry.DBTracingConfig{
		Enabled:  cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		DBSystem: db.Driver,
	}, log); err != nil {
		log.Warn("Database tracing unavailable", zap.Error(err))
	}
	log.Info("Database connected successfully", zap.String("driver", db.Driver))

	productRepo := persistence.NewGormProductRepository(db.DB)
	orderRepo := persistence.NewGormOrderRepository(db.DB)
	transactionRepo := persistence.NewGormTransactionRepository(db.DB)

	// Cart snapshots
	gormSnapshots := persistence.NewGormCartSnapshotStore(db.DB)
	snapshots, snapshotCloser := newSnapshotStore(ctx, cfg, gormSnapshots, log)
	defer func() {
		if err := snapshotCloser.Close(); err != nil {
			log.Error("Error closing cart snapshot store", zap.Error(err))
		}
	}()

	// Event bus
	eventBus := event.NewInMemoryEventBus(log)
	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}

	cartMetrics, err := telemetry.NewCartMetrics(meterProvider.Meter("storefront/cart"), cfg.Cart.SnapshotBackend)
	if err != nil {
		log.Fatal("Failed to create cart metrics", zap.Error(err))
	}
	eventBus.Subscribe(cartMetrics)

	orderPublisher, err := messaging.NewKafkaOrderPublisher(cfg.Kafka,
		messaging.WithPublisherLogger(log),
		messaging.WithWriteTimeout(cfg.Kafka.WriteTimeout),
	)
	switch {
	case errors.Is(err, messaging.ErrPublisherDisabled):
		log.Info("Kafka order publishing disabled")
	case err != nil:
		log.Fatal("Failed to create Kafka order publisher", zap.Error(err))
	default:
		eventBus.Subscribe(orderPublisher)
		log.Info("Publishing paid orders to Kafka",
			zap.Strings("brokers", cfg.Kafka.Brokers),
			zap.String("topic", cfg.Kafka.Topic),
		)
	}

	// Application services
	registry := cartapp.NewRegistry(snapshots,
		cartapp.WithPublisher(eventBus),
		cartapp.WithKeyPrefix(cfg.Cart.SnapshotKeyPrefix),
		cartapp.WithIdleTimeout(cfg.Cart.SessionIdleTimeout),
		cartapp.WithRegistryLogger(log),
		cartapp.WithPersistFailureHook(cartMetrics.RecordPersistFailure),
	)
	productService := catalogapp.NewProductService(productRepo, log)
	cartService := cartapp.NewCartService(registry, productService,
		cartapp.WithSubscriber(eventBus),
		cartapp.WithLogger(log),
	)

	gateway, err := newPaymentGateway(cfg, log)
	if err != nil {
		log.Fatal("Failed to configure payment gateway", zap.Error(err))
	}
	checkoutService := checkoutapp.NewCheckoutService(cartService, orderRepo, transactionRepo, gateway,
		checkoutapp.URLs{
			Return:  cfg.Checkout.ReturnURL,
			Success: cfg.Checkout.SuccessURL,
			Failure: cfg.Checkout.FailureURL,
		},
		checkoutapp.WithPublisher(eventBus),
		checkoutapp.WithLogger(log),
	)

	// HTTP
	tokens, err := auth.NewSessionTokenService(cfg.Cart.SessionSecret, cfg.Cart.SessionTTL)
	if err != nil {
		log.Fatal("Failed to create session token service", zap.Error(err))
	}
	if cfg.Cart.SessionSecret == "" {
		log.Warn("No cart session secret configured, sessions will not survive a restart")
	}

	var checkoutLimiter *middleware.RateLimiter
	if cfg.Checkout.RateLimit >= 0 {
		checkoutLimiter = middleware.NewRateLimiter(cfg.Checkout.RateLimit, cfg.Checkout.RateWindow)
		log.Info("Checkout rate limiting enabled",
			zap.Int("requests", cfg.Checkout.RateLimit),
			zap.Duration("window", cfg.Checkout.RateWindow),
		)
	}

	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	corsConfig.AllowMethods = cfg.HTTP.CORSAllowMethods
	corsConfig.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	securityConfig := middleware.DefaultSecurityConfig()
	securityConfig.HSTSEnabled = cfg.Cart.CookieSecure

	engine := router.NewStorefront(router.StorefrontConfig{
		ServiceName:    cfg.Telemetry.ServiceName,
		TracingEnabled: cfg.Telemetry.Enabled,
		CORS:           corsConfig,
		Security:       securityConfig,
		MaxBodyBytes:   cfg.HTTP.MaxBodySize,
		Session: middleware.CartSessionConfig{
			Tokens:       tokens,
			CookieName:   cfg.Cart.SessionCookie,
			HeaderName:   cfg.Cart.SessionHeader,
			CookieSecure: cfg.Cart.CookieSecure,
			Logger:       log,
		},
		CheckoutLimiter: checkoutLimiter,
		Metrics:         middleware.NewHTTPMetrics(),
		Logger:          log,
	}, router.Handlers{
		Cart:     handler.NewCartHandler(cartService),
		Catalog:  handler.NewCatalogHandler(productService),
		Checkout: handler.NewCheckoutHandler(checkoutService),
		Health:   handler.NewHealthHandler(db, version),
	})
	if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		log.Fatal("Invalid trusted proxies", zap.Error(err))
	}

	// Maintenance tasks
	sched := scheduler.NewScheduler(log)
	addTask := func(task scheduler.Task) {
		if err := sched.Add(task); err != nil {
			log.Fatal("Failed to schedule task", zap.String("task", task.Name), zap.Error(err))
		}
	}
	addTask(scheduler.Task{
		Name:     "evict-idle-carts",
		Interval: time.Minute,
		Timeout:  10 * time.Second,
		Run: func(ctx context.Context) error {
			if n := registry.EvictIdle(); n > 0 {
				log.Debug("Evicted idle carts", zap.Int("count", n))
			}
			cartMetrics.RecordActiveCarts(ctx, registry.Len())
			return nil
		},
	})
	if cfg.Cart.SnapshotBackend == config.SnapshotBackendDatabase {
		addTask(scheduler.Task{
			Name:     "purge-cart-snapshots",
			Interval: time.Hour,
			Timeout:  time.Minute,
			Run: func(ctx context.Context) error {
				n, err := gormSnapshots.DeleteOlderThan(ctx, time.Now().Add(-cfg.Cart.SnapshotTTL))
				if err != nil {
					return err
				}
				if n > 0 {
					log.Info("Purged stale cart snapshots", zap.Int64("count", n))
				}
				return nil
			},
		})
	}
	if checkoutLimiter != nil {
		addTask(scheduler.Task{
			Name:     "prune-rate-limiter",
			Interval: 5 * time.Minute,
			Timeout:  10 * time.Second,
			Run: func(context.Context) error {
				checkoutLimiter.Prune()
				return nil
			},
		})
	}
	if err := sched.Start(ctx); err != nil {
		log.Fatal("Failed to start scheduler", zap.Error(err))
	}

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := sched.Stop(shutdownCtx); err != nil {
		log.Error("Error stopping scheduler", zap.Error(err))
	}
	if err := eventBus.Stop(shutdownCtx); err != nil {
		log.Error("Error stopping event bus", zap.Error(err))
	}
	if orderPublisher != nil {
		if err := orderPublisher.Close(); err != nil {
			log.Error("Error closing Kafka order publisher", zap.Error(err))
		}
	}
	if err := profiler.Stop(); err != nil {
		log.Error("Error stopping profiler", zap.Error(err))
	}
	if err := meterProvider.Shutdown(shutdownCtx); err != nil {
		log.Error("Error shutting down meter provider", zap.Error(err))
	}
	if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
		log.Error("Error shutting down tracer provider", zap.Error(err))
	}
	log.Info("Server exited gracefully")
	if err := loggerProvider.Shutdown(shutdownCtx); err != nil {
		log.Error("Error shutting down logger provider", zap.Error(err))
	}
}

// newSnapshotStore picks the cart snapshot backend from configuration.
// An unreachable backend degrades to the in-memory store.
func newSnapshotStore(ctx context.Context, cfg *config.Config, gormStore *persistence.GormCartSnapshotStore, log *zap.Logger) (cart.SnapshotStore, io.Closer) {
	factory := cache.NewSnapshotStoreFactory(cfg.Cart, cfg.Redis,
		cache.WithLogger(log),
		cache.WithProvider(config.SnapshotBackendDatabase, func() (cart.SnapshotStore, io.Closer, error) {
			return gormStore, nil, nil
		}),
		cache.WithProvider(config.SnapshotBackendS3, func() (cart.SnapshotStore, io.Closer, error) {
			store, err := storage.NewS3SnapshotStore(&cfg.Storage, storage.WithLogger(log))
			if err != nil {
				return nil, nil, err
			}
			ensureCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			if err := store.EnsureBucket(ensureCtx); err != nil {
				return nil, nil, err
			}
			return store, nil, nil
		}),
	)

	store, closer, err := factory.CreateStore()
	if err != nil {
		log.Fatal("Failed to create cart snapshot store", zap.Error(err))
	}
	return store, closer
}

func newPaymentGateway(cfg *config.Config, log *zap.Logger) (checkout.PaymentGateway, error) {
	if cfg.Checkout.Gateway != config.GatewayWebpay {
		log.Warn("Using simulated payment gateway, no real payments are taken")
		return payment.NewSimulatedGateway(log), nil
	}

	baseURL := cfg.Webpay.BaseURL
	if baseURL == "" {
		baseURL = payment.IntegrationBaseURL
	}
	adapter, err := payment.NewWebpayAdapter(&payment.WebpayConfig{
		BaseURL:      baseURL,
		CommerceCode: cfg.Webpay.CommerceCode,
		APIKey:       cfg.Webpay.APIKey,
		Timeout:      cfg.Webpay.Timeout,
	}, payment.WithLogger(log))
	if err != nil {
		return nil, err
	}
	log.Info("Using Webpay Plus payment gateway", zap.String("base_url", baseURL))
	return adapter, nil
}
