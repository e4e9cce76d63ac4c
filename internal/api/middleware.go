package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/headless-comments-api/internal/models"
	"github.com/headless-comments-api/internal/service"
	"github.com/rs/zerolog"
)

const (
	settingsKey  = "settings"
	requestIDKey = "request_id"
)

// respondError writes the error body used by every API failure
func respondError(c *gin.Context, err error) {
	var apiErr *service.APIError
	if !errors.As(err, &apiErr) {
		apiErr = service.ErrInternal
	}
	c.AbortWithStatusJSON(apiErr.Status, gin.H{
		"code":    apiErr.Code,
		"message": apiErr.Message,
		"data":    gin.H{"status": apiErr.Status},
	})
}

// recoveryMiddleware handles panics
func recoveryMiddleware(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				log.Error().
					Interface("error", err).
					Str("request_id", c.GetString(requestIDKey)).
					Msg("Panic recovered")
				respondError(c, service.ErrInternal)
			}
		}()
		c.Next()
	}
}

// requestIDMiddleware tags each request with an id, reusing a valid incoming X-Request-ID
func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header("X-Request-ID", id)
		c.Next()
	}
}

// loggingMiddleware logs requests
func loggingMiddleware(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		duration := time.Since(start)
		statusCode := c.Writer.Status()

		event := log.Info()
		if statusCode >= 400 {
			event = log.Warn()
		}
		if statusCode >= 500 {
			event = log.Error()
		}

		event.
			Str("method", c.Request.Method).
			Str("path", path).
			Int("status", statusCode).
			Dur("duration", duration).
			Str("client_ip", clientIP(c.Request)).
			Str("request_id", c.GetString(requestIDKey)).
			Msg("Request completed")
	}
}

// settingsMiddleware loads the settings snapshot used for the rest of the request.
// A failed load leaves no snapshot; CORS then sends nothing and auth fails.
func settingsMiddleware(settings service.SettingsService, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		loadSettings(c, settings, log)
		c.Next()
	}
}

func loadSettings(c *gin.Context, settings service.SettingsService, log zerolog.Logger) {
	snap, err := settings.Snapshot(c.Request.Context())
	if err != nil {
		log.Error().Err(err).Str("request_id", c.GetString(requestIDKey)).Msg("Failed to load settings")
		return
	}
	c.Set(settingsKey, snap)
}

func snapshot(c *gin.Context) *models.Settings {
	if v, ok := c.Get(settingsKey); ok {
		return v.(*models.Settings)
	}
	return nil
}

// corsMiddleware applies the allowed-origins policy before the handler runs so the
// headers are present on error responses too. Preflight requests end here.
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		setCORSHeaders(c)

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

func setCORSHeaders(c *gin.Context) {
	snap := snapshot(c)
	if snap == nil {
		return
	}
	origin := service.ResolveOrigin(snap.AllowedOrigins, c.GetHeader("Origin"))
	if origin == "" {
		return
	}

	h := c.Writer.Header()
	h.Set("Access-Control-Allow-Origin", origin)
	h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-API-Key")
	h.Set("Access-Control-Allow-Credentials", "true")
	if origin != models.WildcardOrigin {
		h.Add("Vary", "Origin")
	}
}

// authMiddleware rejects requests without the shared API key
func authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		snap := snapshot(c)
		if snap == nil {
			respondError(c, service.ErrSettings)
			return
		}
		if !service.KeysMatch(snap.APIKey, presentedKey(c)) {
			respondError(c, service.ErrUnauthorized)
			return
		}
		c.Next()
	}
}
