package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	constructionapp "github.com/realtyerp/backend/internal/application/construction"
	paymentapp "github.com/realtyerp/backend/internal/application/payment"
	planapp "github.com/realtyerp/backend/internal/application/plan"
	salesapp "github.com/realtyerp/backend/internal/application/sales"
	"github.com/realtyerp/backend/internal/infrastructure/cache"
	"github.com/realtyerp/backend/internal/infrastructure/config"
	"github.com/realtyerp/backend/internal/infrastructure/drafting"
	"github.com/realtyerp/backend/internal/infrastructure/event"
	"github.com/realtyerp/backend/internal/infrastructure/logger"
	"github.com/realtyerp/backend/internal/infrastructure/persistence"
	"github.com/realtyerp/backend/internal/infrastructure/scheduler"
	"github.com/realtyerp/backend/internal/interfaces/http/handler"
	"github.com/realtyerp/backend/internal/interfaces/http/middleware"
	"github.com/realtyerp/backend/internal/interfaces/http/router"
)

//	@title			RealtyERP Backend API
//	@version		1.0
//	@description	Property sales ERP - milestone-driven payment plans, construction progress tracking and demand draft generation

//	@contact.name	API Support
//	@contact.url	https://github.com/realtyerp/backend

//	@license.name	Apache 2.0
//	@license.url	http://www.apache.org/licenses/LICENSE-2.0.html

//	@host		localhost:8080
//	@BasePath	/api/v1

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

	log.Info("Starting RealtyERP Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Create GORM logger backed by zap
	gormLogLevel := logger.MapGormLogLevel(cfg.Log.Level)
	gormLog := logger.NewGormLogger(log, gormLogLevel)

	// Initialize database connection with custom logger
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
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
	planRepo := persistence.NewGormPlanRepository(db.DB)
	templateRepo := persistence.NewGormPlanTemplateRepository(db.DB)
	draftRepo := persistence.NewGormDemandDraftRepository(db.DB)
	progressRepo := persistence.NewGormProgressRepository(db.DB)
	flatRepo := persistence.NewGormFlatRepository(db.DB)
	bookingRepo := persistence.NewGormBookingRepository(db.DB)
	customerRepo := persistence.NewGormCustomerRepository(db.DB)
	paymentRepo := persistence.NewGormPaymentRepository(db.DB)

	// Initialize event bus and the audit trail handler
	eventBus := event.NewInMemoryEventBus(log)
	auditHandler := event.NewAuditHandler(log)
	eventBus.Subscribe(auditHandler)
	log.Info("Event handlers registered",
		zap.Strings("audit_events", auditHandler.EventTypes()),
	)

	if err := eventBus.Start(context.Background()); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()

	// Draft generation guard (Redis when configured, in-memory otherwise)
	draftGuard := cache.NewDraftGuard(cfg, log)

	// Demand draft letter composer and PDF renderer
	composer, err := drafting.NewTemplateComposer(cfg.Draft.TemplatePath)
	if err != nil {
		log.Fatal("Failed to load draft template", zap.Error(err))
	}
	pdfRenderer := drafting.NewPDFRenderer(cfg.App.Name)

	// Initialize application services
	templateService := planapp.NewTemplateService(templateRepo, log)
	planService := planapp.NewPlanService(planRepo, templateRepo, bookingRepo, eventBus, log)
	draftService := planapp.NewDraftService(
		draftRepo, planRepo, flatRepo, customerRepo,
		composer, draftGuard, eventBus, log,
	)
	draftService.SetDueDateOffset(time.Duration(cfg.Draft.DueDateOffsetDays) * 24 * time.Hour)

	orchestrator := constructionapp.NewWorkflowOrchestrator(planRepo, flatRepo, draftService, eventBus, log)
	progressService := constructionapp.NewProgressService(progressRepo, orchestrator, log)
	detectionService := constructionapp.NewDetectionService(planRepo, progressRepo, log)

	completionService := paymentapp.NewCompletionService(paymentRepo, bookingRepo, planRepo, eventBus, log)
	recordingService := paymentapp.NewRecordingService(paymentRepo, bookingRepo, completionService, log)
	directoryService := salesapp.NewDirectoryService(customerRepo, flatRepo, bookingRepo, log)

	// Milestone reconciliation scanner (if enabled)
	if cfg.Scheduler.Enabled {
		scanScheduler := scheduler.NewMilestoneScanScheduler(
			detectionService, orchestrator, log,
			scheduler.MilestoneScanSchedulerConfig{
				Enabled:      cfg.Scheduler.Enabled,
				ScanInterval: cfg.Scheduler.ScanInterval,
				ScanTimeout:  cfg.Scheduler.ScanTimeout,
				AutoTrigger:  cfg.Scheduler.AutoTrigger,
			},
		)
		if err := scanScheduler.Start(context.Background()); err != nil {
			log.Fatal("Failed to start milestone scan scheduler", zap.Error(err))
		}
		defer func() {
			if err := scanScheduler.Stop(context.Background()); err != nil {
				log.Error("Error stopping milestone scan scheduler", zap.Error(err))
			}
		}()
		log.Info("Milestone scan scheduler started",
			zap.Duration("scan_interval", cfg.Scheduler.ScanInterval),
			zap.Bool("auto_trigger", cfg.Scheduler.AutoTrigger),
		)
	}

	// Initialize HTTP handlers
	systemHandler := handler.NewSystemHandler()
	templateHandler := handler.NewTemplateHandler(templateService)
	planHandler := handler.NewPlanHandler(planService, draftService)
	constructionHandler := handler.NewConstructionHandler(progressService, detectionService)
	draftHandler := handler.NewDraftHandler(draftService, directoryService, pdfRenderer)
	directoryHandler := handler.NewDirectoryHandler(directoryService)
	paymentHandler := handler.NewPaymentHandler(recordingService, completionService)

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

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
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())

	corsConfig := middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	engine.Use(middleware.CORSWithConfig(corsConfig))

	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	// Health and readiness endpoints (outside API versioning)
	engine.GET("/health", healthHandler(db, log))
	engine.GET("/ready", readyHandler(db))

	// Setup API routes
	router.NewRouter(engine, router.WithAPIVersion("v1")).
		Register(systemHandler).
		Register(templateHandler).
		Register(planHandler).
		Register(constructionHandler).
		Register(draftHandler).
		Register(directoryHandler).
		Register(paymentHandler).
		Setup()

	// Simple ping at root API level for basic liveness checks
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

// readyHandler reports whether the service can take traffic; unlike
// /health it returns no details, only a status code for load balancers.
func readyHandler(db *persistence.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.Status(http.StatusServiceUnavailable)
			return
		}
		c.Status(http.StatusOK)
	}
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
