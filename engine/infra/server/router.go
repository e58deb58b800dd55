package server

import (
	"net/http"
	"time"

	charmlog "github.com/charmbracelet/log"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/shadabshaukat/searchd/pkg/config"
	"github.com/shadabshaukat/searchd/pkg/logger"
)

// buildRouter assembles the gin engine with its middleware chain and the
// /api/v0 routes.
func buildRouter(cfg *config.Config, h *handlers, log *charmlog.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(loggerMiddleware(log))
	if cfg.Server.CORSEnabled {
		engine.Use(cors.New(cors.Config{
			AllowAllOrigins: true,
			AllowMethods:    []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete},
			AllowHeaders:    []string{"Origin", "Content-Type", "Accept"},
			MaxAge:          12 * time.Hour,
		}))
	}
	api := engine.Group("/api/v0")
	{
		api.GET("/health", h.health)
		api.GET("/ready", h.ready)
		api.POST("/search", h.search)
		docs := api.Group("/documents")
		{
			docs.POST("", bodySizeLimiter(uploadFormOverhead+h.maxUploadBytes), h.uploadDocuments)
			docs.GET("", h.listDocuments)
			docs.GET("/:id", h.getDocument)
			docs.PATCH("/:id/metadata", h.patchDocumentMetadata)
			docs.DELETE("/:id", h.deleteDocument)
		}
	}
	return engine
}

// uploadFormOverhead leaves room for multipart boundaries and metadata fields
// on top of the per-file byte cap, which ingestOne enforces separately.
const uploadFormOverhead = 1 << 20

// bodySizeLimiter caps the request body for a route group.
func bodySizeLimiter(limit int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		c.Next()
	}
}

// loggerMiddleware attaches the process logger to the request context and
// emits one line per request.
func loggerMiddleware(log *charmlog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		ctx := logger.ContextWithLogger(c.Request.Context(), log)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
		log.With(
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		).Debug("Request handled")
	}
}
