package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	recommendationapp "github.com/sandcastle/microservices/internal/application/recommendation"
	"github.com/sandcastle/microservices/internal/interfaces/http/dto"
)

// RecommendationHandler serves the recommendation API
type RecommendationHandler struct {
	BaseHandler
	service *recommendationapp.Service
}

// NewRecommendationHandler creates a new RecommendationHandler
func NewRecommendationHandler(service *recommendationapp.Service) *RecommendationHandler {
	return &RecommendationHandler{service: service}
}

// RegisterRoutes mounts the recommendation endpoints on rg
func (h *RecommendationHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/recommendation", h.List)
	rg.POST("/recommendation", h.Create)
	rg.PUT("/recommendation", h.Update)
	rg.DELETE("/recommendation", h.Delete)
}

// List godoc
// @Summary      List the recommendations of a product
// @Tags         Recommendation
// @Produce      json
// @Param        productId query int true "Product ID"
// @Success      200 {array} recommendation.Recommendation
// @Failure      400 {object} dto.HTTPErrorInfo
// @Failure      422 {object} dto.HTTPErrorInfo
// @Router       /recommendation [get]
func (h *RecommendationHandler) List(c *gin.Context) {
	productID, ok := h.queryProductID(c)
	if !ok {
		return
	}

	recs, err := h.service.List(c.Request.Context(), productID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.OK(c, recs)
}

// Create godoc
// @Summary      Create a recommendation
// @Tags         Recommendation
// @Accept       json
// @Produce      json
// @Param        request body dto.RecommendationRequest true "Recommendation"
// @Success      200 {object} recommendation.Recommendation
// @Failure      422 {object} dto.HTTPErrorInfo
// @Router       /recommendation [post]
func (h *RecommendationHandler) Create(c *gin.Context) {
	var req dto.RecommendationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	rec, err := h.service.Create(c.Request.Context(), req.ToDomain())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.OK(c, rec)
}

// Update godoc
// @Summary      Update a recommendation
// @Description  The request must carry the version last read; a stale version yields 409
// @Tags         Recommendation
// @Accept       json
// @Produce      json
// @Param        request body dto.RecommendationRequest true "Recommendation"
// @Success      200 {object} recommendation.Recommendation
// @Failure      404 {object} dto.HTTPErrorInfo
// @Failure      409 {object} dto.HTTPErrorInfo
// @Router       /recommendation [put]
func (h *RecommendationHandler) Update(c *gin.Context) {
	var req dto.RecommendationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	rec, err := h.service.Update(c.Request.Context(), req.ToDomain())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.OK(c, rec)
}

// Delete godoc
// @Summary      Delete the recommendations of a product
// @Tags         Recommendation
// @Param        productId query int true "Product ID"
// @Success      200
// @Failure      400 {object} dto.HTTPErrorInfo
// @Failure      422 {object} dto.HTTPErrorInfo
// @Router       /recommendation [delete]
func (h *RecommendationHandler) Delete(c *gin.Context) {
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
