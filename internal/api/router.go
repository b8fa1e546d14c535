// Package api wires together all HTTP routes for the content lifecycle backend.
//
// Route grouping philosophy:
//   - System endpoints (/health, /ready, /version) are unauthenticated so that
//     probes and load balancers can reach them without credentials.
//   - Everything under /api/v1 requires a verified bearer token. All handlers
//     there operate on behalf of an identified actor, because every mutation
//     they perform is audit-recorded.
package api

import (
	"database/sql"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	"github.com/portfolio-cms/portfolio-cms/internal/api/admin"
	"github.com/portfolio-cms/portfolio-cms/internal/assets"
	"github.com/portfolio-cms/portfolio-cms/internal/audit"
	"github.com/portfolio-cms/portfolio-cms/internal/auth"
	"github.com/portfolio-cms/portfolio-cms/internal/config"
	"github.com/portfolio-cms/portfolio-cms/internal/content"
	"github.com/portfolio-cms/portfolio-cms/internal/db/repositories"
	"github.com/portfolio-cms/portfolio-cms/internal/export"
	"github.com/portfolio-cms/portfolio-cms/internal/middleware"
	"github.com/portfolio-cms/portfolio-cms/internal/storage"

	// Import storage backends to register them
	_ "github.com/portfolio-cms/portfolio-cms/internal/storage/azure"
	_ "github.com/portfolio-cms/portfolio-cms/internal/storage/gcs"
	_ "github.com/portfolio-cms/portfolio-cms/internal/storage/local"
	_ "github.com/portfolio-cms/portfolio-cms/internal/storage/s3"
)

// BackgroundServices holds resources that must be released during graceful
// shutdown. The caller (cmd/server) is responsible for calling Shutdown() when
// the process receives a termination signal.
type BackgroundServices struct {
	auditShipper audit.Shipper
	rateLimiters []*middleware.RateLimiter
}

// Shutdown releases background resources. It should be called after the HTTP
// server has been shut down so that in-flight requests are drained first.
func (bg *BackgroundServices) Shutdown() {
	slog.Info("stopping background services")
	if bg.auditShipper != nil {
		if err := bg.auditShipper.Close(); err != nil {
			slog.Error("failed to close audit shipper", "error", err)
		}
	}
	for _, rl := range bg.rateLimiters {
		rl.Stop()
	}
	slog.Info("all background services stopped")
}

// NewRouter creates and configures the Gin router
func NewRouter(cfg *config.Config, db *sql.DB) (*gin.Engine, *BackgroundServices) {
	router := gin.New()

	// Initialize storage backend
	storageBackend, err := storage.NewStorage(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize storage backend: %v", err)
	}
	log.Printf("Initialized storage backend: %s", cfg.Storage.DefaultBackend)

	// Initialize repositories
	auditRepo := repositories.NewAuditRepository(db)
	exportRepo := repositories.NewExportRepository(db)
	assetRepo := repositories.NewAssetRepository(db)

	// Wrap *sql.DB with sqlx for the content repository
	sqlxDB := sqlx.NewDb(db, "postgres")
	contentRepo := repositories.NewContentRepository(sqlxDB)

	// Initialize the audit recorder, with external shipping when configured
	var shipper audit.Shipper
	if cfg.Audit.Enabled && len(cfg.Audit.Shippers) > 0 {
		multi, err := audit.NewMultiShipper(shipperConfigs(cfg.Audit.Shippers))
		if err != nil {
			log.Fatalf("Failed to initialize audit shippers: %v", err)
		}
		shipper = multi
	}
	recorder := audit.NewRecorder(auditRepo, shipper)

	// Initialize domain services
	registry := assets.NewRegistry(assetRepo, assets.DefaultRelationKinds())
	manager := assets.NewManager(assetRepo, storageBackend, recorder)
	exportService := export.NewService(contentRepo, assetRepo, exportRepo, recorder, cfg.Export.PrimaryLocale)
	restorer := content.NewRestorer(contentRepo, recorder, cfg.Export.PrimaryLocale)

	// Initialize token verification
	verifier, err := auth.NewVerifier(&cfg.Auth)
	if err != nil {
		log.Fatalf("Failed to initialize token verifier: %v", err)
	}

	// Add middleware
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.MetricsMiddleware())
	router.Use(LoggerMiddleware(cfg))
	router.Use(CORSMiddleware(cfg))
	router.Use(middleware.SecurityHeadersMiddleware(middleware.APISecurityHeadersConfig()))

	// Health check endpoint
	router.GET("/health", healthCheckHandler(db))

	// Readiness check endpoint (includes storage backend probe)
	router.GET("/ready", readinessHandler(db, storageBackend))

	// API version
	router.GET("/version", versionHandler())

	// Initialize admin handlers
	exportHandlers := admin.NewExportHandlers(exportService, exportRepo, cfg.Export.HistoryPageSize)
	assetHandlers := admin.NewAssetHandlers(registry, manager)
	auditHandlers := admin.NewAuditHandlers(auditRepo)
	workHandlers := admin.NewWorkHandlers(restorer)

	// Initialize rate limiters. Export runs and bulk deletes do real work per
	// request, so they get a much tighter budget than the read endpoints.
	generalRateLimiter := middleware.NewRateLimiter(middleware.DefaultRateLimitConfig())
	expensiveOpRateLimiter := middleware.NewRateLimiter(middleware.ExpensiveOpRateLimitConfig())

	// Admin API endpoints — authenticated, rate limited, actor-scoped
	apiV1 := router.Group("/api/v1")
	apiV1.Use(middleware.RateLimitMiddleware(generalRateLimiter))
	apiV1.Use(middleware.AuthMiddleware(verifier))
	apiV1.Use(middleware.ActorMiddleware())
	{
		// Export pipeline and history
		exportsGroup := apiV1.Group("/admin/exports")
		{
			exportsGroup.POST("", middleware.RateLimitMiddleware(expensiveOpRateLimiter), exportHandlers.CreateExport)
			exportsGroup.GET("", exportHandlers.ListExports)
			exportsGroup.GET("/:id", exportHandlers.GetExport)
			exportsGroup.GET("/:id/download", exportHandlers.DownloadExport)
		}

		// Asset cleanup tooling
		assetsGroup := apiV1.Group("/admin/assets")
		{
			assetsGroup.GET("/orphans", assetHandlers.ListOrphans)
			assetsGroup.GET("/:id/references", assetHandlers.GetReferences)
			assetsGroup.DELETE("/:id", assetHandlers.DeleteAsset)
			assetsGroup.POST("/bulk-delete", middleware.RateLimitMiddleware(expensiveOpRateLimiter), assetHandlers.BulkDelete)
		}

		// Audit trail (read-only)
		auditGroup := apiV1.Group("/admin/audit-logs")
		{
			auditGroup.GET("", auditHandlers.ListAuditLogs)
			auditGroup.GET("/:id", auditHandlers.GetAuditLog)
		}

		// Snapshot restore
		apiV1.POST("/admin/works/:id/snapshots/:snapshot_id/restore", workHandlers.RestoreSnapshot)
	}

	bg := &BackgroundServices{
		auditShipper: shipper,
		rateLimiters: []*middleware.RateLimiter{generalRateLimiter, expensiveOpRateLimiter},
	}

	return router, bg
}

// shipperConfigs converts the viper-backed audit shipper configuration into the
// audit package's config types.
func shipperConfigs(configs []config.AuditShipperConfig) []audit.ShipperConfig {
	out := make([]audit.ShipperConfig, 0, len(configs))
	for _, c := range configs {
		sc := audit.ShipperConfig{
			Enabled: c.Enabled,
			Type:    c.Type,
		}
		if c.Webhook != nil {
			sc.Webhook = &audit.WebhookConfig{
				URL:     c.Webhook.URL,
				Headers: c.Webhook.Headers,
				Timeout: time.Duration(c.Webhook.TimeoutSecs) * time.Second,
			}
		}
		if c.File != nil {
			sc.File = &audit.FileConfig{
				Path:       c.File.Path,
				MaxSizeMB:  c.File.MaxSizeMB,
				MaxBackups: c.File.MaxBackups,
			}
		}
		out = append(out, sc)
	}
	return out
}

// healthCheckHandler returns the health status of the service
func healthCheckHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Check database connection
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "unhealthy",
				"error":  "database connection failed",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status": "healthy",
			"time":   time.Now().UTC().Format(time.RFC3339),
		})
	}
}

// readinessHandler returns the readiness status of the service.
// Unlike the liveness probe (/health), this also checks the storage backend so
// that a readiness gate fails when asset deletions would error.
func readinessHandler(db *sql.DB, storageBackend storage.Storage) gin.HandlerFunc {
	return func(c *gin.Context) {
		checks := gin.H{}

		// Check database connection
		if err := db.Ping(); err != nil {
			checks["database"] = "unhealthy"
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"ready":  false,
				"checks": checks,
				"error":  "database not ready",
			})
			return
		}
		checks["database"] = "healthy"

		// Check storage backend — probe with a known-absent sentinel path.
		// Exists() exercises authentication and network connectivity without
		// creating any state.
		if _, err := storageBackend.Exists(c.Request.Context(), ".readiness-probe"); err != nil {
			checks["storage"] = "unhealthy"
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"ready":  false,
				"checks": checks,
				"error":  "storage backend not ready",
			})
			return
		}
		checks["storage"] = "healthy"

		c.JSON(http.StatusOK, gin.H{
			"ready":  true,
			"checks": checks,
			"time":   time.Now().UTC().Format(time.RFC3339),
		})
	}
}

// versionHandler returns the API version
func versionHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"version":     "0.1.0",
			"api_version": "v1",
		})
	}
}

// LoggerMiddleware provides structured logging
func LoggerMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)

		requestID, _ := c.Get(middleware.RequestIDKey)
		slog.LogAttrs(
			c.Request.Context(),
			slog.LevelInfo,
			"http request",
			slog.String("method", c.Request.Method),
			slog.String("path", path),
			slog.String("query", query),
			slog.Int("status", c.Writer.Status()),
			slog.Int("size", c.Writer.Size()),
			slog.Duration("latency", latency),
			slog.String("ip", c.ClientIP()),
			slog.String("request_id", fmt.Sprintf("%v", requestID)),
			slog.String("user_agent", c.Request.UserAgent()),
		)
	}
}

// CORSMiddleware handles CORS
func CORSMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")

		// Check if origin is allowed
		allowed := false
		for _, allowedOrigin := range cfg.Security.CORS.AllowedOrigins {
			if allowedOrigin == "*" || allowedOrigin == origin {
				allowed = true
				break
			}
		}

		if allowed {
			if origin == "" {
				c.Header("Access-Control-Allow-Origin", "*")
			} else {
				c.Header("Access-Control-Allow-Origin", origin)
			}
			c.Header("Access-Control-Allow-Credentials", "true")
			c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization, X-Requested-With")
			c.Header("Access-Control-Max-Age", "3600")
		}

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
