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

	"github.com/securedesk/visitor-backend/internal/config"
	"github.com/securedesk/visitor-backend/internal/database"
	"github.com/securedesk/visitor-backend/internal/handlers"
	"github.com/securedesk/visitor-backend/internal/middleware"
	"github.com/securedesk/visitor-backend/internal/services"
	"github.com/securedesk/visitor-backend/pkg/jwt"
	"github.com/securedesk/visitor-backend/pkg/mailer"
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

	logger.Info("Starting SecureDesk Visitor Management Backend")
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

	// Set Gin mode
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	// Initialize database connection
	logger.Info("Connecting to database...")
	db, err := database.NewConnection(cfg.Database)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logger.Fatalf("Failed to ping database: %v", err)
	}
	logger.Info("Database connection established")

	// Initialize repositories
	visitorRepository := database.NewVisitorRepository(db)
	userRepository := database.NewUserRepository(db)
	auditLogRepository := database.NewAuditLogRepository(db)

	// Initialize services
	logger.Info("Initializing services...")
	jwtService := jwt.NewService(
		cfg.JWT.Secret,
		cfg.JWT.RefreshSecret,
		cfg.JWT.AccessTokenExpiry,
		cfg.JWT.RefreshTokenExpiry,
	)

	var mail mailer.Mailer
	if cfg.Mail.Mode == "production" {
		logger.Info("Initializing HTTP email gateway in production mode...")
		mail = mailer.NewHTTPGateway(mailer.Config{
			APIURL: cfg.Mail.APIURL,
			APIKey: cfg.Mail.APIKey,
			From:   cfg.Mail.From,
		})
	} else {
		logger.Info("Email gateway in development mode (no email will be sent)")
		mail = mailer.NewDevMailer(logger)
	}

	notificationService := services.NewNotificationService(mail, logger, cfg.Server.PublicURL)
	visitorService := services.NewVisitorService(visitorRepository, notificationService, logger, cfg.Badge.Prefix)
	dashboardService := services.NewDashboardService(visitorRepository)
	auditService := services.NewAuditService(auditLogRepository, logger, cfg.Security.EnableAuditLog)
	authService := services.NewAuthService(userRepository, jwtService, logger)
	logger.Info("Services initialized")

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService, auditService, logger)
	visitorHandler := handlers.NewVisitorHandler(visitorService, auditService, logger)
	dashboardHandler := handlers.NewDashboardHandler(dashboardService, logger)

	// Initialize Gin router
	router := gin.New()
	router.Use(gin.Recovery())
	if cfg.Security.EnableRequestLog {
		router.Use(requestLogger(logger))
	}

	// CORS configuration
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORS.AllowedOrigins,
		AllowMethods:     cfg.CORS.AllowedMethods,
		AllowHeaders:     cfg.CORS.AllowedHeaders,
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Health check endpoint
	router.GET("/health", healthCheckHandler(db))

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// Authentication routes (public)
		auth := v1.Group("/auth")
		{
			auth.POST("/login", authHandler.Login)
			auth.POST("/refresh", authHandler.Refresh)
		}

		// Visitor routes (all protected)
		visitors := v1.Group("/visitors")
		visitors.Use(middleware.AuthMiddleware(jwtService))
		{
			visitors.POST("", visitorHandler.Create)
			visitors.GET("", visitorHandler.List)
			visitors.GET("/:id", visitorHandler.Get)
			visitors.PUT("/:id/check-in", visitorHandler.CheckIn)
			visitors.PUT("/:id/check-out", visitorHandler.CheckOut)

			// Pre-approval and decisions are host/admin actions
			visitors.POST("/pre-approve", middleware.RequireRole("admin", "host"), visitorHandler.PreApprove)
			visitors.PUT("/:id/approve", middleware.RequireRole("admin", "host"), visitorHandler.Approve)
			visitors.PUT("/:id/reject", middleware.RequireRole("admin", "host"), visitorHandler.Reject)

			visitors.GET("/:id/audit", middleware.RequireRole("admin", "security"), visitorHandler.AuditTrail)
		}

		// Dashboard routes (protected)
		dashboard := v1.Group("/dashboard")
		dashboard.Use(middleware.AuthMiddleware(jwtService))
		{
			dashboard.GET("/stats", dashboardHandler.Stats)
		}
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
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

// requestLogger middleware for logging HTTP requests
func requestLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)

		fields := logrus.Fields{
			"status":     c.Writer.Status(),
			"method":     c.Request.Method,
			"path":       path,
			"query":      query,
			"ip":         c.ClientIP(),
			"latency_ms": latency.Milliseconds(),
			"user_agent": c.Request.UserAgent(),
		}

		if userCtx, exists := middleware.GetUserContext(c); exists {
			fields["user_id"] = userCtx.UserID
		}

		entry := logger.WithFields(fields)

		status := c.Writer.Status()
		switch {
		case status >= 500:
			entry.Error("Request completed with server error")
		case status >= 400:
			entry.Warn("Request completed with client error")
		default:
			entry.Info("Request completed successfully")
		}
	}
}

// healthCheckHandler returns a health check endpoint
func healthCheckHandler(db database.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := db.Ping(); err != nil {
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
