// Package middleware provides the HTTP middleware for the catalog API.
package middleware

import (
	"context"
	"strings"

	"github.com/catalogo/backend/internal/infrastructure/telemetry"
	"github.com/gin-gonic/gin"
)

// ProfilingConfig controls the profiling label middleware.
type ProfilingConfig struct {
	Enabled bool
	// SkipPaths are served without labels.
	SkipPaths []string
}

// DefaultProfilingConfig labels every route except the health probes.
func DefaultProfilingConfig() ProfilingConfig {
	return ProfilingConfig{
		Enabled:   true,
		SkipPaths: []string{"/health", "/healthz", "/ready"},
	}
}

// Profiling returns the profiling middleware with DefaultProfilingConfig.
func Profiling() gin.HandlerFunc {
	return ProfilingWithConfig(DefaultProfilingConfig())
}

// ProfilingWithConfig runs matched routes under pprof labels naming the
// handler, the route pattern and the method, so Pyroscope can split CPU and
// heap samples per endpoint. Unmatched paths run unlabeled.
func ProfilingWithConfig(cfg ProfilingConfig) gin.HandlerFunc {
	if !cfg.Enabled {
		return passThrough
	}
	skip := make(map[string]struct{}, len(cfg.SkipPaths))
	for _, p := range cfg.SkipPaths {
		skip[p] = struct{}{}
	}

	return func(c *gin.Context) {
		route := c.FullPath()
		if _, skipped := skip[c.Request.URL.Path]; skipped || route == "" {
			c.Next()
			return
		}

		labels := telemetry.HTTPRequestLabels(handlerLabel(c.HandlerName()), route, c.Request.Method)
		telemetry.WithProfilingLabels(c.Request.Context(), labels, func(ctx context.Context) {
			c.Request = c.Request.WithContext(ctx)
			c.Next()
		})
	}
}

// handlerLabel shortens a gin handler name to Type.Method, so
// ".../handler.(*ProdutoHandler).Get-fm" becomes "ProdutoHandler.Get".
func handlerLabel(name string) string {
	name = strings.TrimSuffix(name, "-fm")
	if i := strings.LastIndexByte(name, '/'); i >= 0 {
		name = name[i+1:]
	}
	if i := strings.IndexByte(name, '.'); i >= 0 {
		name = name[i+1:]
	}
	return strings.NewReplacer("(*", "", "(", "", ")", "").Replace(name)
}
