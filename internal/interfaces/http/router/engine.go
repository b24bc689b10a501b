package router

import (
	"time"

	"github.com/catalogo/backend/internal/infrastructure/logger"
	"github.com/catalogo/backend/internal/interfaces/http/handler"
	"github.com/catalogo/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// EngineConfig carries the settings of the middleware chain
type EngineConfig struct {
	Mode           string
	Logger         *zap.Logger
	Tracing        middleware.TracingConfig
	Metrics        middleware.HTTPMetricsConfig
	Profiling      middleware.ProfilingConfig
	CORS           middleware.CORSConfig
	Security       middleware.SecurityConfig
	MaxBodySize    int64
	RequestTimeout time.Duration
	TrustedProxies []string
}

// NewEngine builds a gin engine with the middleware chain in its fixed order:
// recovery, request ID, access log, tracing, metrics, profiling labels,
// CORS, security headers, body limit and request timeout.
func NewEngine(cfg EngineConfig) (*gin.Engine, error) {
	if cfg.Mode != "" {
		gin.SetMode(cfg.Mode)
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		return nil, err
	}
	middleware.SetupValidator()

	engine.Use(
		logger.Recovery(log),
		middleware.RequestID(),
		logger.GinMiddleware(log),
		middleware.TracingWithConfig(cfg.Tracing),
		middleware.SpanEnricher(),
		middleware.HTTPMetrics(cfg.Metrics),
		middleware.ProfilingWithConfig(cfg.Profiling),
		middleware.CORSWithConfig(cfg.CORS),
		middleware.SecureWithConfig(cfg.Security),
	)
	if cfg.MaxBodySize > 0 {
		engine.Use(middleware.BodyLimit(cfg.MaxBodySize))
	}
	engine.Use(middleware.Timeout(cfg.RequestTimeout))

	return engine, nil
}

// RegisterHealth mounts the unversioned health endpoint
func RegisterHealth(engine *gin.Engine, h *handler.SystemHandler) {
	engine.GET("/health", h.Health)
}
