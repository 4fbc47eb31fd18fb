// Package handler holds the gin handlers of every service.
package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sandcastle/microservices/internal/domain/shared"
	"github.com/sandcastle/microservices/internal/infrastructure/logger"
	"github.com/sandcastle/microservices/internal/interfaces/http/dto"
	"github.com/sandcastle/microservices/internal/interfaces/http/middleware"
	"go.uber.org/zap"
)

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// OK sends a 200 response with data
func (h *BaseHandler) OK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, data)
}

// Error sends the standard error body with statusCode
func (h *BaseHandler) Error(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, dto.NewHTTPErrorInfo(statusCode, c.Request.URL.Path, message))
}

// BadRequest sends a 400 bad request response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, http.StatusBadRequest, message)
}

// BindError reports a request body that could not be decoded or failed validation
func (h *BaseHandler) BindError(c *gin.Context, err error) {
	_ = c.Error(err)
	h.BadRequest(c, middleware.ValidationMessage(err))
}

// HandleError maps err to a status through its domain code and writes the error body.
// Errors without a domain code are reported as 500 without leaking their text.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)

	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		h.Error(c, dto.StatusForCode(domainErr.Code), domainErr.Message)
		return
	}

	logger.GetGinLogger(c).Error("Unhandled error", zap.Error(err))
	h.Error(c, http.StatusInternalServerError, "An unexpected error occurred")
}

// pathProductID parses the productId path parameter, answering 400 when it is not a number
func (h *BaseHandler) pathProductID(c *gin.Context) (int, bool) {
	return h.parseProductID(c, c.Param("productId"))
}

// queryProductID parses the productId query parameter, answering 400 when it is missing or not a number
func (h *BaseHandler) queryProductID(c *gin.Context) (int, bool) {
	raw, ok := c.GetQuery("productId")
	if !ok {
		h.BadRequest(c, "Required query parameter 'productId' is not present")
		return 0, false
	}
	return h.parseProductID(c, raw)
}

func (h *BaseHandler) parseProductID(c *gin.Context, raw string) (int, bool) {
	id, err := strconv.Atoi(raw)
	if err != nil {
		h.BadRequest(c, "Type mismatch: productId must be an integer")
		return 0, false
	}
	return id, true
}
