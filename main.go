// Package main provides the main entry point for the Piker WhatsApp messaging console
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/TecnoAcceso/Piker-sub000/app/handlers"
	"github.com/TecnoAcceso/Piker-sub000/app/middleware"
	"github.com/TecnoAcceso/Piker-sub000/app/router"
	"github.com/TecnoAcceso/Piker-sub000/app/scheduler"
	"github.com/TecnoAcceso/Piker-sub000/app/services"
	businessflow "github.com/TecnoAcceso/Piker-sub000/business_flow"
	"github.com/TecnoAcceso/Piker-sub000/config"
	"github.com/TecnoAcceso/Piker-sub000/repository"
	"github.com/gofiber/fiber/v3"
	"github.com/redis/go-redis/v9"
	"gopkg.in/natefinch/lumberjack.v2"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Application represents the main application structure
type Application struct {
	router    *router.FiberRouter
	config    *config.ProductionConfig
	server    *fiber.App
	stopFuncs []func()
}

func main() {
	log.Println("Starting Piker application...")

	// Load production configuration
	cfg, err := config.LoadProductionConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	initializeLogging(cfg.Logging)

	// Initialize application
	app, err := initializeApplication(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}

	// Setup routes
	app.router.SetupRoutes()

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Start server in goroutine
	go func() {
		address := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		log.Printf("Server starting on %s", address)

		if err := app.server.Listen(address); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for shutdown signal
	<-sigChan
	log.Println("Shutting down gracefully...")

	// Stop background workers
	for _, fn := range app.stopFuncs {
		fn()
	}

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := app.server.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("Error during shutdown: %v", err)
	}

	log.Println("Server stopped")
}

// initializeLogging routes the standard logger through a rotating file
// when configured. Rotation settings come from the Logging config section.
func initializeLogging(cfg config.LoggingConfig) {
	if cfg.Output == "stdout" || cfg.FilePath == "" {
		return
	}

	rotator := &lumberjack.Logger{
		Filename:   cfg.FilePath,
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge,
		Compress:   cfg.Compress,
	}

	var out io.Writer = rotator
	if cfg.Output == "both" {
		out = io.MultiWriter(os.Stdout, rotator)
	}
	log.SetOutput(out)
}

// initializeDatabase initializes the database connection with connection pooling
func initializeDatabase(cfg config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name, cfg.SSLMode)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Get underlying sql.DB for connection pooling configuration
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	// Configure connection pooling
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	// Test the connection
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Printf("Database connection established with %d max open connections, %d max idle connections",
		cfg.MaxOpenConns, cfg.MaxIdleConns)

	return db, nil
}

// initializeCache initializes the Redis client and verifies connectivity.
// Returns nil when caching is disabled; the duplicate guard falls back to
// database lookups in that case.
func initializeCache(cfg config.CacheConfig) (*redis.Client, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	// Override DB if provided in config
	opt.DB = cfg.RedisDB

	rc := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rc.Ping(ctx).Err(); err != nil {
		_ = rc.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	log.Printf("Redis connection established to %s (db=%d)", cfg.RedisURL, cfg.RedisDB)
	return rc, nil
}

// startCacheHealthMonitor starts a background goroutine that periodically pings Redis
// to detect connectivity issues. The returned cancel function stops the monitor.
func startCacheHealthMonitor(parent context.Context, client *redis.Client, interval time.Duration) func() {
	monitorCtx, cancel := context.WithCancel(parent)
	if interval <= 0 {
		interval = 30 * time.Second
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-monitorCtx.Done():
				return
			case <-ticker.C:
				ctx, c := context.WithTimeout(context.Background(), 3*time.Second)
				if err := client.Ping(ctx).Err(); err != nil {
					log.Printf("Redis healthcheck failed: %v", err)
				}
				c()
			}
		}
	}()
	return cancel
}

// initializeApplication initializes the main application components
func initializeApplication(cfg *config.ProductionConfig) (*Application, error) {
	var stopFuncs []func()

	// Initialize database
	db, err := initializeDatabase(cfg.Database)
	if err != nil {
		return nil, err
	}

	rc, err := initializeCache(cfg.Cache)
	if err != nil {
		return nil, err
	}

	if rc != nil {
		cancel := startCacheHealthMonitor(context.Background(), rc, 0)
		stopFuncs = append(stopFuncs, cancel)
	}

	// Initialize repositories
	profileRepo := repository.NewUserProfileRepository(db)
	licenseRepo := repository.NewLicenseRepository(db)
	templateRepo := repository.NewMessageTemplateRepository(db)
	batchRepo := repository.NewMessageBatchRepository(db)
	sentRepo := repository.NewSentMessageRepository(db)
	sessionRepo := repository.NewUserSessionRepository(db)
	auditRepo := repository.NewAuditLogRepository(db)

	// Initialize services
	whatsappService := services.NewWhatsAppService(&cfg.WhatsApp)
	emailService := services.NewEmailService(&cfg.Email)

	// Initialize token service
	tokenService, err := services.NewTokenService(
		cfg.JWT.AccessTokenTTL,
		cfg.JWT.RefreshTokenTTL,
		cfg.JWT.Issuer,
		cfg.JWT.Audience,
		cfg.JWT.UseRSAKeys,
		cfg.JWT.PrivateKey,
		cfg.JWT.PublicKey,
		cfg.JWT.SecretKey,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize token service: %w", err)
	}

	log.Printf("Token service initialized with issuer: %s, audience: %s", cfg.JWT.Issuer, cfg.JWT.Audience)

	// Initialize flows
	guard := businessflow.NewDuplicateGuard(sentRepo, rc)

	loginFlow := businessflow.NewLoginFlow(
		profileRepo,
		licenseRepo,
		sessionRepo,
		auditRepo,
		tokenService,
		emailService,
		db,
	)

	phoneFlow := businessflow.NewPhoneFlow(guard)

	batchFlow := businessflow.NewBatchFlow(
		licenseRepo,
		templateRepo,
		batchRepo,
		sentRepo,
		auditRepo,
		whatsappService,
		guard,
	)

	templateFlow := businessflow.NewTemplateFlow(templateRepo, auditRepo)

	adminUserFlow := businessflow.NewAdminUserFlow(
		profileRepo,
		licenseRepo,
		sessionRepo,
		auditRepo,
		db,
	)

	adminLicenseFlow := businessflow.NewAdminLicenseFlow(
		licenseRepo,
		profileRepo,
		auditRepo,
	)

	statsFlow := businessflow.NewStatsFlow(sentRepo, batchRepo, licenseRepo)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(loginFlow)
	phoneHandler := handlers.NewPhoneHandler(phoneFlow)
	messageHandler := handlers.NewMessageHandler(batchFlow)
	templateHandler := handlers.NewTemplateHandler(templateFlow)
	statsHandler := handlers.NewStatsHandler(statsFlow)
	adminUserHandler := handlers.NewAdminUserHandler(adminUserFlow)
	adminLicenseHandler := handlers.NewAdminLicenseHandler(adminLicenseFlow)

	// Initialize auth middleware
	authMiddleware := middleware.NewAuthMiddleware(tokenService)

	// Initialize router
	appRouter := router.NewFiberRouter(
		authMiddleware,
		authHandler,
		phoneHandler,
		messageHandler,
		templateHandler,
		statsHandler,
		adminUserHandler,
		adminLicenseHandler,
		cfg.Security.AllowedOrigins,
	)

	// Start the maintenance sweep for expired sessions and licenses
	sched := scheduler.NewMaintenanceScheduler(sessionRepo, licenseRepo, log.Default(), cfg.Security.SessionCleanupInterval)
	stopFuncs = append(stopFuncs, sched.Start(context.Background()))

	// Create application struct from FiberRouter
	fiberRouter := appRouter.(*router.FiberRouter)
	application := &Application{
		router:    fiberRouter,
		config:    cfg,
		server:    fiberRouter.GetApp(),
		stopFuncs: stopFuncs,
	}

	return application, nil
}
