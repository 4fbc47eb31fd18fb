package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	reviewapp "github.com/sandcastle/microservices/internal/application/review"
	"github.com/sandcastle/microservices/internal/interfaces/http/dto"
)

// ReviewHandler serves the review API
type ReviewHandler struct {
	BaseHandler
	service *reviewapp.Service
}

// NewReviewHandler creates a new ReviewHandler
func NewReviewHandler(service *reviewapp.Service) *ReviewHandler {
	return &ReviewHandler{service: service}
}

// RegisterRoutes mounts the review endpoints on rg
func (h *ReviewHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/review", h.List)
	rg.POST("/review", h.Create)
	rg.PUT("/review", h.Update)
	rg.DELETE("/review", h.Delete)
}

// List godoc
// @Summary      List the reviews of a product
// @Tags         Review
// @Produce      json
// @Param        productId query int true "Product ID"
// @Success      200 {array} review.Review
// @Failure      400 {object} dto.HTTPErrorInfo
// @Failure      422 {object} dto.HTTPErrorInfo
// @Router       /review [get]
func (h *ReviewHandler) List(c *gin.Context) {
	productID, ok := h.queryProductID(c)
	if !ok {
		return
	}

	reviews, err := h.service.List(c.Request.Context(), productID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.OK(c, reviews)
}

// Create godoc
// @Summary      Create a review
// @Tags         Review
// @Accept       json
// @Produce      json
// @Param        request body dto.ReviewRequest true "Review"
// @Success      200 {object} review.Review
// @Failure      422 {object} dto.HTTPErrorInfo
// @Router       /review [post]
func (h *ReviewHandler) Create(c *gin.Context) {
	var req dto.ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	rev, err := h.service.Create(c.Request.Context(), req.ToDomain())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.OK(c, rev)
}

// Update godoc
// @Summary      Update a review
// @Description  The request must carry the version last read; a stale version yields 409
// @Tags         Review
// @Accept       json
// @Produce      json
// @Param        request body dto.ReviewRequest true "Review"
// @Success      200 {object} review.Review
// @Failure      404 {object} dto.HTTPErrorInfo
// @Failure      409 {object} dto.HTTPErrorInfo
// @Router       /review [put]
func (h *ReviewHandler) Update(c *gin.Context) {
	var req dto.ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	rev, err := h.service.Update(c.Request.Context(), req.ToDomain())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.OK(c, rev)
}

// Delete godoc
// @Summary      Delete the reviews of a product
// @Tags         Review
// @Param        productId query int true "Product ID"
// @Success      200
// @Failure      400 {object} dto.HTTPErrorInfo
// @Failure      422 {object} dto.HTTPErrorInfo
// @Router       /review [delete]
func (h *ReviewHandler) Delete(c *gin.Context) {
	productID, ok := h.queryProductID(c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), productID); err != nil {
		h.HandleError(c, err)
		return
	}
	c.Status(http.StatusOK)
}
