package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	shippingapp "github.com/retailcore/shipping/internal/application/shipping"
	"github.com/retailcore/shipping/internal/domain/shared"
	"github.com/retailcore/shipping/internal/infrastructure/cache"
	"github.com/retailcore/shipping/internal/infrastructure/carrier"
	"github.com/retailcore/shipping/internal/infrastructure/config"
	"github.com/retailcore/shipping/internal/infrastructure/logger"
	"github.com/retailcore/shipping/internal/infrastructure/persistence"
	"github.com/retailcore/shipping/internal/interfaces/http/handler"
	"github.com/retailcore/shipping/internal/interfaces/http/middleware"
	"github.com/retailcore/shipping/internal/interfaces/http/router"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting shipping gateway",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Create GORM logger backed by zap
	gormLogLevel := logger.MapGormLogLevel(cfg.Log.Level)
	gormLog := logger.NewGormLogger(log, gormLogLevel)

	// Initialize database connection with custom logger
	db, err := persistence.NewDatabaseWithCustomLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Initialize repositories
	orderRepo := persistence.NewGormShippingOrderRepository(db.DB)
	eventRepo := persistence.NewGormShippingEventRepository(db.DB)

	// Carrier API client
	gateway, err := carrier.NewClient(&carrier.Config{
		BaseURL:        cfg.Carrier.BaseURL,
		Token:          cfg.Carrier.Token,
		PartnerCode:    cfg.Carrier.PartnerCode,
		TimeoutSeconds: cfg.Carrier.TimeoutSeconds,
		MaxRetries:     cfg.Carrier.MaxRetries,
		RetryBaseDelay: time.Duration(cfg.Carrier.RetryBaseDelayMS) * time.Millisecond,
	}, log)
	if err != nil {
		log.Fatal("Failed to create carrier client", zap.Error(err))
	}

	// Webhook idempotency store. Production deployments must not silently
	// degrade to a per-process store, so the fallback is disabled there.
	storeFactory := cache.NewIdempotencyStoreFactory(cfg.Redis,
		cache.WithLogger(log),
		cache.WithInMemoryFallback(cfg.App.Env != "production"),
	)
	webhookStore, err := createIdempotencyStore(cfg, storeFactory)
	if err != nil {
		log.Fatal("Failed to create idempotency store", zap.Error(err))
	}

	// Initialize application services
	shipmentService := shippingapp.NewShipmentService(shippingapp.ShipmentServiceConfig{
		OrderRepo: orderRepo,
		EventRepo: eventRepo,
		Gateway:   gateway,
		Logger:    log,
	})
	webhookService := shippingapp.NewWebhookService(shippingapp.WebhookServiceConfig{
		Secret:      cfg.Webhook.Secret,
		Idempotency: webhookStore,
		TTL:         cfg.Webhook.IdempotencyTTL,
		OrderRepo:   orderRepo,
		EventRepo:   eventRepo,
		Logger:      log,
	})

	// Initialize HTTP handlers
	shipmentHandler := handler.NewShipmentHandler(shipmentService)
	webhookHandler := handler.NewWebhookHandler(webhookService)
	geoHandler := handler.NewGeoHandler()
	systemHandler := handler.NewSystemHandler(shipmentService)

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup validation
	middleware.SetupValidator()

	// Initialize router with custom middleware
	engine := gin.New()

	// Configure trusted proxies
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Apply middleware stack in order:
	// 1. RequestID - Generate/propagate request ID
	// 2. Recovery - Catch panics
	// 3. Logger - Log requests
	// 4. Security - Add security headers
	// 5. CORS - Handle cross-origin requests
	// 6. BodyLimit - Limit request body size
	// 7. RateLimit - Apply rate limiting (if enabled)
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())

	// Configure CORS from config
	corsConfig := middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	engine.Use(middleware.CORSWithConfig(corsConfig))

	// Body size limit
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	// Rate limiting (if enabled)
	if cfg.HTTP.RateLimitEnabled {
		rateLimiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		engine.Use(middleware.RateLimit(rateLimiter))
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
		)
	}

	// Health check endpoint (outside API versioning)
	engine.GET("/health", healthHandler(db, log))

	// Setup API routes using router
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	r.Register(shipmentHandler).
		Register(webhookHandler).
		Register(geoHandler).
		Register(systemHandler)
	r.Setup()

	// Also keep a simple ping at root API level for basic health checks
	engine.GET("/api/v1/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	// Create HTTP server with config
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
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

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// createIdempotencyStore selects the webhook idempotency backend. "memory"
// is explicit opt-in; "redis" tries Redis and may fall back per the factory.
func createIdempotencyStore(cfg *config.Config, factory *cache.IdempotencyStoreFactory) (shared.IdempotencyStore, error) {
	if cfg.Webhook.IdempotencyBackend == "memory" {
		return factory.CreateInMemoryStore(), nil
	}
	return factory.CreateStore()
}

// healthHandler returns a handler for health check endpoints
func healthHandler(db *persistence.Database, _ *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		reqLog := logger.GetGinLogger(c)
		if err := db.Ping(); err != nil {
			reqLog.Warn("Health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"time":     time.Now().Format(time.RFC3339),
				"database": "error",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":   "healthy",
			"time":     time.Now().Format(time.RFC3339),
			"database": "ok",
		})
	}
}
