package v1

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jaennil/guide_helper/backend/quadtiles/internal/infrastructure/http/v1/handler"
	"github.com/jaennil/guide_helper/backend/quadtiles/internal/infrastructure/http/v1/middleware"
	"github.com/jaennil/guide_helper/backend/quadtiles/pkg/logger"
	"github.com/jaennil/guide_helper/backend/quadtiles/pkg/telemetry"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const requestIDHeader = "X-Request-ID"

type RouterConfig struct {
	ServiceName      string
	TelemetryEnabled bool
	RequestTimeout   time.Duration
	// PublicDir is served under /public when set.
	PublicDir string
}

func NewRouter(handler *handler.Handler, l logger.Logger, cfg RouterConfig) *gin.Engine {
	r := gin.New()

	r.Use(gin.Recovery())

	if cfg.TelemetryEnabled {
		r.Use(telemetry.GinMiddleware(cfg.ServiceName))
	}

	r.Use(ginZapLogger(l))
	r.Use(middleware.Timeout(cfg.RequestTimeout))

	r.GET("/tile", handler.Tile)
	if cfg.PublicDir != "" {
		r.Static("/public", cfg.PublicDir)
	}

	api := r.Group("/api")
	v1 := api.Group("/v1")

	v1.GET("/healthz", handler.Healthz)

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func ginZapLogger(l logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header(requestIDHeader, requestID)
		c.Set("request_id", requestID)

		rl := l.With("request_id", requestID)
		c.Set("logger", rl)
		c.Request = c.Request.WithContext(logger.WithLogger(c.Request.Context(), rl))

		start := time.Now()

		c.Next()

		latency := time.Since(start)

		rl.Info("request",
			"status", c.Writer.Status(),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"query", c.Request.URL.RawQuery,
			"ip", c.ClientIP(),
			"latency", latency,
			"size", c.Writer.Size(),
		)
	}
}
