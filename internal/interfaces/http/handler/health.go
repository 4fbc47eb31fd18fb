package handler

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
	compositeapp "github.com/sandcastle/microservices/internal/application/composite"
	"github.com/sandcastle/microservices/internal/infrastructure/logger"
	"go.uber.org/zap"
)

const healthCheckTimeout = 3 * time.Second

// HealthCheck probes one dependency; nil means healthy
type HealthCheck func(ctx context.Context) error

// HealthHandler serves /actuator/health for a backing service
type HealthHandler struct {
	BaseHandler
	checks map[string]HealthCheck
}

// NewHealthHandler creates a handler reporting the given dependency checks
func NewHealthHandler(checks map[string]HealthCheck) *HealthHandler {
	return &HealthHandler{checks: checks}
}

// RegisterRoutes mounts the health endpoint on rg
func (h *HealthHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/actuator/health", h.Health)
}

// Health godoc
// @Summary      Service health
// @Tags         Actuator
// @Produce      json
// @Success      200 {object} compositeapp.HealthReport
// @Failure      503 {object} compositeapp.HealthReport
// @Router       /actuator/health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
	defer cancel()

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	report := compositeapp.HealthReport{
		Status:     compositeapp.StatusUp,
		Components: make(map[string]compositeapp.HealthStatus, len(names)),
	}
	for _, name := range names {
		status := compositeapp.StatusUp
		if err := h.checks[name](ctx); err != nil {
			logger.GetGinLogger(c).Warn("Health check failed", zap.String("component", name), zap.Error(err))
			status = compositeapp.StatusDown
			report.Status = compositeapp.StatusDown
		}
		report.Components[name] = status
	}
	writeHealth(c, report)
}

// CompositeHealthHandler serves /actuator/health for the composite, aggregating the backing services
type CompositeHealthHandler struct {
	BaseHandler
	service *compositeapp.Service
}

// NewCompositeHealthHandler creates a new CompositeHealthHandler
func NewCompositeHealthHandler(service *compositeapp.Service) *CompositeHealthHandler {
	return &CompositeHealthHandler{service: service}
}

// RegisterRoutes mounts the health endpoint on rg
func (h *CompositeHealthHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/actuator/health", h.Health)
}

// Health godoc
// @Summary      Composite health
// @Description  UP only when product, recommendation and review all report UP
// @Tags         Actuator
// @Produce      json
// @Success      200 {object} compositeapp.HealthReport
// @Failure      503 {object} compositeapp.HealthReport
// @Router       /actuator/health [get]
func (h *CompositeHealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
	defer cancel()

	writeHealth(c, h.service.Health(ctx))
}

func writeHealth(c *gin.Context, report compositeapp.HealthReport) {
	status := http.StatusOK
	if report.Status != compositeapp.StatusUp {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, report)
}
