// Package router assembles the gin engine shared by every service.
package router

import (
	"github.com/gin-gonic/gin"
	"github.com/sandcastle/microservices/internal/infrastructure/logger"
	"github.com/sandcastle/microservices/internal/infrastructure/telemetry"
	"github.com/sandcastle/microservices/internal/interfaces/http/middleware"
	"go.uber.org/zap"
)

// DefaultMetricsPath is where the Prometheus registry is served
const DefaultMetricsPath = "/actuator/prometheus"

// RouteRegistrar defines the interface for registering routes
type RouteRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// EngineConfig selects the middleware of a service's engine
type EngineConfig struct {
	ServiceName      string
	Tracing          bool
	Metrics          *telemetry.Metrics
	RateLimiter      *middleware.RateLimiter
	CORSAllowOrigins []string
	MaxBodyBytes     int64
}

// NewEngine creates a gin engine with the standard middleware chain:
// recovery, request ID, tracing, request logging, metrics, CORS, body limit
// and, when a limiter is given, rate limiting.
func NewEngine(cfg EngineConfig, log *zap.Logger) *gin.Engine {
	engine := gin.New()
	engine.Use(
		logger.Recovery(log),
		middleware.RequestID(),
		middleware.Tracing(middleware.TracingConfig{ServiceName: cfg.ServiceName, Enabled: cfg.Tracing}),
		middleware.SpanEnricher(),
		logger.GinMiddleware(log),
		middleware.HTTPMetrics(cfg.Metrics),
		middleware.CORS(cfg.CORSAllowOrigins),
		middleware.BodyLimit(cfg.MaxBodyBytes),
	)
	if cfg.RateLimiter != nil {
		engine.Use(middleware.RateLimit(cfg.RateLimiter))
	}
	return engine
}

// Router manages HTTP route registration
type Router struct {
	engine      *gin.Engine
	basePath    string
	metrics     *telemetry.Metrics
	metricsPath string
	registrars  []RouteRegistrar
}

// RouterOption is a functional option for Router configuration
type RouterOption func(*Router)

// WithBasePath mounts every registrar under path (e.g. "/api")
func WithBasePath(path string) RouterOption {
	return func(r *Router) {
		r.basePath = path
	}
}

// WithMetrics serves the metrics registry at path, or at DefaultMetricsPath when path is empty
func WithMetrics(metrics *telemetry.Metrics, path string) RouterOption {
	return func(r *Router) {
		if path == "" {
			path = DefaultMetricsPath
		}
		r.metrics = metrics
		r.metricsPath = path
	}
}

// NewRouter creates a new Router instance
func NewRouter(engine *gin.Engine, opts ...RouterOption) *Router {
	r := &Router{
		engine:     engine,
		registrars: make([]RouteRegistrar, 0),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Register adds a RouteRegistrar to be registered later
func (r *Router) Register(registrar RouteRegistrar) *Router {
	r.registrars = append(r.registrars, registrar)
	return r
}

// Setup registers all routes with the engine
func (r *Router) Setup() {
	group := r.engine.Group(r.basePath)
	for _, registrar := range r.registrars {
		registrar.RegisterRoutes(group)
	}

	// The scrape endpoint stays at the root whatever the base path
	if r.metrics != nil {
		r.engine.GET(r.metricsPath, gin.WrapH(r.metrics.Handler()))
	}
}

// Engine returns the underlying gin engine
func (r *Router) Engine() *gin.Engine {
	return r.engine
}
