package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/traincheck/timetable-backend/internal/config"
	"github.com/traincheck/timetable-backend/internal/database"
	"github.com/traincheck/timetable-backend/internal/handlers"
	"github.com/traincheck/timetable-backend/internal/middleware"
	"github.com/traincheck/timetable-backend/internal/services"
	"github.com/traincheck/timetable-backend/pkg/jwt"
)

var (
	version   = "1.0.0"
	buildTime = "unknown"
)

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	logger.Info("Starting TrainCheck timetable backend")
	logger.Infof("Version: %s, Build Time: %s", version, buildTime)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	// Set log level
	logLevel, err := logrus.ParseLevel(cfg.Server.LogLevel)
	if err != nil {
		logger.Warn("Invalid log level, using INFO")
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)
	logrus.SetFormatter(&logrus.JSONFormatter{})
	logrus.SetLevel(logLevel)

	// Set Gin mode
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	catalog, err := config.LoadFeedCatalog(cfg.GTFS.FeedsFile)
	if err != nil {
		logger.Fatalf("Failed to load feed catalog: %v", err)
	}
	logger.WithField("feeds", len(catalog.Feeds)).Info("Feed catalog loaded")

	// Initialize database connection
	logger.Info("Connecting to database...")
	db, err := database.NewConnection(cfg.Database)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	logger.Info("Database connection established")

	startupCtx, cancelStartup := context.WithTimeout(context.Background(), time.Minute)
	if err := database.EnsureSchema(startupCtx, db); err != nil {
		logger.Fatalf("Failed to ensure schema: %v", err)
	}

	// Repositories
	timetableRepo := database.NewTimetableRepository(db)
	customTripRepo := database.NewCustomTripRepository(db)
	userRepo := database.NewUserRepository(db)
	statsRepo := database.NewStatsRepository(db)
	gtfsRepo := database.NewGTFSRepository(db)
	loginAttemptRepo := database.NewLoginAttemptRepository(db)

	// Services
	jwtService := jwt.NewService(cfg.JWT.Secret, cfg.JWT.AccessTokenExpiry)
	authService := services.NewAuthService(userRepo, jwtService, cfg.Security.BcryptCost, logger)
	timetableService := services.NewTimetableService(timetableRepo, cfg.Timetable, logger)
	calendarService := services.NewCalendarService(timetableRepo, logger)
	customTripService := services.NewCustomTripService(customTripRepo, cfg.Timetable.LocalTimezone, logger)
	statsService := services.NewStatsService(statsRepo, logger)
	importService := services.NewGTFSImportService(gtfsRepo, catalog, cfg.GTFS.DownloadTimeout, logger)
	rateLimitService := services.NewRateLimitService(loginAttemptRepo, services.RateLimitConfig{
		MaxUsernameAttempts: cfg.Security.LoginMaxAttempts,
		UsernameWindow:      cfg.Security.LoginWindow,
		MaxIPAttempts:       cfg.Security.LoginMaxIPAttempts,
		IPWindow:            cfg.Security.LoginIPWindow,
	}, logger)

	if cfg.Security.AdminUsername != "" {
		if err := authService.EnsureAdmin(startupCtx, cfg.Security.AdminUsername, cfg.Security.AdminPassword); err != nil {
			logger.Fatalf("Failed to ensure admin account: %v", err)
		}
	}
	cancelStartup()
	logger.Info("Services initialized")

	// Background jobs
	cronService, err := newCronService(cfg, catalog, importService, rateLimitService, logger)
	if err != nil {
		logger.Fatalf("Failed to schedule background jobs: %v", err)
	}
	cronService.Start()
	defer cronService.Stop()

	// Initialize Gin router
	router := gin.New()

	// Middleware
	router.Use(gin.Recovery())
	if cfg.Security.EnableRequestLog {
		router.Use(middleware.RequestLogger(logger))
	}

	// CORS configuration
	corsConfig := cors.Config{
		AllowOrigins:     cfg.CORS.AllowedOrigins,
		AllowMethods:     cfg.CORS.AllowedMethods,
		AllowHeaders:     cfg.CORS.AllowedHeaders,
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	router.Use(cors.New(corsConfig))

	// Health check endpoint
	router.GET("/health", healthCheckHandler(db))

	// API v1 routes
	handlers.RegisterRoutes(router.Group("/api/v1"), handlers.Set{
		Timetable: handlers.NewTimetableHandler(timetableService, calendarService, logger),
		Auth:      handlers.NewAuthHandler(authService, rateLimitService, logger),
		Stats:     handlers.NewStatsHandler(statsService, logger),
		Admin:     handlers.NewAdminHandler(customTripService, authService, importService, cronService, logger),
	}, jwtService)

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.GTFS.DownloadTimeout + 60*time.Second, // admin imports run inside the request
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Infof("Server starting on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
	}

	logger.Info("Server exited successfully")
}

// newCronService registers the jobs enabled in the scheduler configuration
func newCronService(
	cfg *config.Config,
	catalog *config.FeedCatalog,
	importer services.FeedImporter,
	cleaner services.AttemptCleaner,
	logger *logrus.Logger,
) (*services.CronService, error) {
	loc, err := time.LoadLocation(cfg.Timetable.LocalTimezone)
	if err != nil {
		return nil, err
	}
	cronService := services.NewCronService(importer, cleaner, loc, logger)

	if spec := cfg.Scheduler.FeedRefreshSchedule; spec != "" {
		if _, ok := catalog.Lookup(cfg.Scheduler.FeedRefreshFeed); !ok {
			return nil, fmt.Errorf("GTFS_REFRESH_FEED %q is not in the feed catalog", cfg.Scheduler.FeedRefreshFeed)
		}
		if err := cronService.ScheduleFeedRefresh(spec, cfg.Scheduler.FeedRefreshFeed); err != nil {
			return nil, err
		}
	}

	if spec := cfg.Scheduler.LoginCleanupSchedule; spec != "" {
		if err := cronService.ScheduleLoginCleanup(spec); err != nil {
			return nil, err
		}
	}

	return cronService, nil
}

// healthCheckHandler returns a health check endpoint
func healthCheckHandler(db database.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		if err := db.PingContext(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"database": "unhealthy",
				"error":    err.Error(),
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"database":  "healthy",
			"version":   version,
			"timestamp": time.Now().Unix(),
		})
	}
}
