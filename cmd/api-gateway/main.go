package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/venuedesk/venuedesk-api/api/swagger"
	"github.com/venuedesk/venuedesk-api/internal/handler"
	"github.com/venuedesk/venuedesk-api/internal/middleware"
	"github.com/venuedesk/venuedesk-api/internal/models"
	"github.com/venuedesk/venuedesk-api/internal/repository"
	"github.com/venuedesk/venuedesk-api/internal/service"
	"github.com/venuedesk/venuedesk-api/pkg/cache"
	"github.com/venuedesk/venuedesk-api/pkg/config"
	"github.com/venuedesk/venuedesk-api/pkg/database"
	"github.com/venuedesk/venuedesk-api/pkg/export"
	"github.com/venuedesk/venuedesk-api/pkg/jobs"
	"github.com/venuedesk/venuedesk-api/pkg/logger"
	corsmiddleware "github.com/venuedesk/venuedesk-api/pkg/middleware/cors"
	reqidmiddleware "github.com/venuedesk/venuedesk-api/pkg/middleware/requestid"
	"github.com/venuedesk/venuedesk-api/pkg/storage"
)

// @title VenueDesk API
// @version 1.0.0
// @description Venue booking administration platform
// @BasePath /api/v1
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to redis", "error", err)
	}
	defer redisClient.Close() //nolint:errcheck

	validate := validator.New()

	// Repositories.
	userRepo := repository.NewUserRepository(db)
	bookingRepo := repository.NewBookingRepository(db)
	customerRepo := repository.NewCustomerRepository(db)
	eventRepo := repository.NewEventRepository(db)
	campaignRepo := repository.NewCampaignRepository(db)
	configurationRepo := repository.NewConfigurationRepository(db)
	revenueRepo := repository.NewRevenueRepository(db)
	exportJobRepo := repository.NewExportJobRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	// Services.
	metricsService := service.NewMetricsService()
	cacheService := service.NewCacheService(cacheRepo, metricsService, cfg.Revenue.CacheTTL, logr, true)

	authService := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "venuedesk-api",
	})

	configurationService := service.NewConfigurationService(configurationRepo, userRepo, validate, logr, service.ConfigurationServiceConfig{})

	bookingService := service.NewBookingService(bookingRepo, customerRepo, configurationService, userRepo, validate, logr, service.BookingServiceConfig{
		SuggestionCount: cfg.Booking.SuggestionCount,
	})

	customerService := service.NewCustomerService(customerRepo, bookingRepo, validate, logr)

	eventService := service.NewEventService(eventRepo, validate, logr, service.EventServiceConfig{
		CalendarWindowDays: cfg.Events.CalendarWindowDays,
	})

	notificationService := service.NewNotificationService(logr)
	campaignService := service.NewCampaignService(campaignRepo, customerRepo, notificationService, userRepo, validate, logr)

	revenueService := service.NewRevenueService(revenueRepo, cacheService, metricsService, logr)

	userService := service.NewUserService(userRepo, validate, logr)

	exportStorage, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to init export storage", "error", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)

	exportService := service.NewExportService(bookingService, customerService, revenueRepo, exportStorage, signer, service.ExportConfig{
		APIPrefix: cfg.APIPrefix,
		ResultTTL: cfg.Exports.SignedURLTTL,
	}, logr, export.NewCSVExporter(), export.NewPDFExporter())

	reportWorker := service.NewReportWorker(exportJobRepo, exportService, metricsService, cfg.Exports.WorkerRetries, logr)
	exportQueue := jobs.NewQueue("exports", reportWorker.Handle, jobs.QueueConfig{
		Workers:    cfg.Exports.WorkerConcurrency,
		BufferSize: 64,
		MaxRetries: cfg.Exports.WorkerRetries,
		RetryDelay: 5 * time.Second,
		Logger:     logr,
	})
	reportService := service.NewReportService(exportJobRepo, exportQueue, exportService, metricsService, logr, service.ReportServiceConfig{
		ResultTTL:       cfg.Exports.SignedURLTTL,
		CleanupInterval: cfg.Exports.CleanupInterval,
		MaxRetries:      cfg.Exports.WorkerRetries,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Exports.Enabled {
		exportQueue.Start(ctx)
		reportService.RecoverPendingJobs(ctx)
		reportService.StartCleanup(ctx)
	}

	// Handlers.
	authHandler := handler.NewAuthHandler(authService)
	bookingHandler := handler.NewBookingHandler(bookingService, metricsService)
	customerHandler := handler.NewCustomerHandler(customerService)
	eventHandler := handler.NewEventHandler(eventService)
	campaignHandler := handler.NewCampaignHandler(campaignService)
	revenueHandler := handler.NewRevenueHandler(revenueService)
	reportHandler := handler.NewReportHandler(reportService)
	userHandler := handler.NewUserHandler(userService)
	configurationHandler := handler.NewConfigurationHandler(configurationService)
	metricsHandler := handler.NewMetricsHandler(metricsService)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsService))
	r.Use(middleware.WithResponseMeta())

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	{
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)

		authed := auth.Group("")
		authed.Use(middleware.JWT(authService))
		authed.POST("/logout", authHandler.Logout)
		authed.POST("/change-password", authHandler.ChangePassword)
		authed.GET("/me", authHandler.Me)
	}

	// Download links carry their own HMAC token; a session is optional and
	// only used to attribute the download in logs.
	api.GET("/export/:token", middleware.OptionalJWT(authService), reportHandler.Download)

	protected := api.Group("")
	protected.Use(middleware.JWT(authService))

	bookings := protected.Group("/bookings")
	{
		bookings.GET("", bookingHandler.List)
		bookings.GET("/availability", bookingHandler.CheckAvailability)
		bookings.GET("/:id", bookingHandler.Get)
		bookings.POST("", bookingHandler.Create)
		bookings.PUT("/:id", bookingHandler.Update)
		bookings.PATCH("/:id/status", bookingHandler.UpdateStatus)
		bookings.DELETE("/:id", middleware.RequireRoles(models.RoleSuperAdmin, models.RoleAdmin, models.RoleManager), bookingHandler.Delete)
	}

	events := protected.Group("/events")
	{
		events.GET("", eventHandler.List)
		events.GET("/calendar", eventHandler.Calendar)
		events.GET("/:id", eventHandler.Get)

		manage := events.Group("")
		manage.Use(middleware.RequireRoles(models.RoleSuperAdmin, models.RoleAdmin, models.RoleManager))
		manage.POST("", eventHandler.Create)
		manage.PUT("/:id", eventHandler.Update)
		manage.DELETE("/:id", eventHandler.Delete)
	}

	customers := protected.Group("/customers")
	{
		customers.GET("", customerHandler.List)
		customers.GET("/:id", customerHandler.Get)
		customers.GET("/:id/bookings", customerHandler.BookingHistory)
		customers.POST("", customerHandler.Create)
		customers.PUT("/:id", customerHandler.Update)
		customers.DELETE("/:id", middleware.RequireRoles(models.RoleSuperAdmin, models.RoleAdmin, models.RoleManager), customerHandler.Delete)
	}

	if cfg.Campaigns.Enabled {
		campaigns := protected.Group("/campaigns")
		campaigns.Use(middleware.RequireRoles(models.RoleSuperAdmin, models.RoleAdmin, models.RoleManager))
		campaigns.GET("", campaignHandler.List)
		campaigns.GET("/:id", campaignHandler.Get)
		campaigns.POST("", campaignHandler.Create)
		campaigns.PUT("/:id", campaignHandler.Update)
		campaigns.DELETE("/:id", campaignHandler.Delete)
		campaigns.POST("/:id/dispatch", campaignHandler.Dispatch)
	}

	if cfg.Revenue.Enabled {
		revenue := protected.Group("/revenue")
		revenue.Use(middleware.RequireRoles(models.RoleSuperAdmin, models.RoleAdmin, models.RoleManager))
		revenue.GET("/summary", revenueHandler.Summary)
		revenue.GET("/daily", revenueHandler.Daily)
	}

	if cfg.Exports.Enabled {
		reports := protected.Group("/reports")
		reports.POST("", middleware.Audit(userRepo, "EXPORT_REQUEST", "export_job"), reportHandler.Create)
		reports.GET("/:id", reportHandler.Status)
	}

	users := protected.Group("/users")
	{
		admins := middleware.RequireRoles(models.RoleSuperAdmin, models.RoleAdmin)
		users.GET("", admins, userHandler.List)
		users.GET("/:id", middleware.RBAC(string(models.RoleSuperAdmin), string(models.RoleAdmin), "SELF"), userHandler.Get)
		users.POST("", admins, userHandler.Create)
		users.PUT("/:id", admins, userHandler.Update)
		users.DELETE("/:id", admins, userHandler.Delete)
	}

	configuration := protected.Group("/configuration")
	{
		configuration.GET("", configurationHandler.List)
		configuration.GET("/:key", configurationHandler.Get)

		manage := configuration.Group("")
		manage.Use(middleware.RequireRoles(models.RoleSuperAdmin, models.RoleAdmin))
		manage.PUT("/bulk", configurationHandler.BulkUpdate)
		manage.PUT("/:key", configurationHandler.Update)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
	exportQueue.Stop()
}
