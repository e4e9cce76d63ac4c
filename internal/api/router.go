package api

import (
	"context"
	"database/sql"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/headless-comments-api/internal/metrics"
	"github.com/headless-comments-api/internal/service"
	"github.com/rs/zerolog"
)

// BasePath is the prefix of the public comments API
const BasePath = "/headless-comments/v1"

// HealthChecker reports database health
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
	Stats() sql.DBStats
}

// NewRouter creates and configures the Gin router. db and m may be nil.
func NewRouter(services *service.Services, m *metrics.Metrics, db HealthChecker, log zerolog.Logger) *gin.Engine {
	// Set Gin mode
	if gin.Mode() != gin.TestMode {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Middleware
	router.Use(recoveryMiddleware(log))
	router.Use(requestIDMiddleware())
	router.Use(loggingMiddleware(log))
	router.Use(m.Middleware())

	commentHandler := NewCommentHandler(services, log)

	// Operational endpoints, no API key
	router.GET("/health", healthCheck(db))
	router.GET("/metrics", m.Handler())

	v1 := router.Group(BasePath)
	v1.Use(settingsMiddleware(services.Settings, log))
	v1.Use(corsMiddleware())
	{
		// Preflight is answered by corsMiddleware
		v1.OPTIONS("/posts/:post_id/comments", func(c *gin.Context) {})

		comments := v1.Group("/posts/:post_id/comments")
		comments.Use(authMiddleware())
		{
			comments.GET("", commentHandler.ListComments)
			comments.POST("", commentHandler.CreateComment)
		}
	}

	router.NoRoute(noRoute(services.Settings, log))

	return router
}

// noRoute answers unmatched requests. Paths under BasePath still get CORS headers.
func noRoute(settings service.SettingsService, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, BasePath) {
			loadSettings(c, settings, log)
			setCORSHeaders(c)
		}
		c.JSON(http.StatusNotFound, gin.H{
			"code":    "rest_no_route",
			"message": "No route was found matching the URL and request method",
			"data":    gin.H{"status": http.StatusNotFound},
		})
	}
}

// healthCheck returns the health status
func healthCheck(db HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		body := gin.H{
			"status":    "healthy",
			"timestamp": time.Now().Format(time.RFC3339),
			"service":   "headless-comments-api",
		}
		if db == nil {
			c.JSON(http.StatusOK, body)
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		stats := db.Stats()
		body["database"] = gin.H{
			"open_connections": stats.OpenConnections,
			"in_use":           stats.InUse,
			"idle":             stats.Idle,
		}
		if err := db.HealthCheck(ctx); err != nil {
			body["status"] = "unhealthy"
			body["error"] = err.Error()
			c.JSON(http.StatusServiceUnavailable, body)
			return
		}
		c.JSON(http.StatusOK, body)
	}
}
