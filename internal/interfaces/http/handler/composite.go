package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	compositeapp "github.com/sandcastle/microservices/internal/application/composite"
	"github.com/sandcastle/microservices/internal/domain/composite"
)

// CompositeHandler serves the product-composite API
type CompositeHandler struct {
	BaseHandler
	service *compositeapp.Service
}

// NewCompositeHandler creates a new CompositeHandler
func NewCompositeHandler(service *compositeapp.Service) *CompositeHandler {
	return &CompositeHandler{service: service}
}

// RegisterRoutes mounts the composite endpoints on rg
func (h *CompositeHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/product-composite/:productId", h.GetProduct)
	rg.POST("/product-composite", h.CreateProduct)
	rg.DELETE("/product-composite/:productId", h.DeleteProduct)
}

// GetProduct godoc
// @Summary      Get a composite product
// @Description  Returns the product with its recommendations and reviews. Recommendations and reviews are empty when their service does not answer.
// @Tags         ProductComposite
// @Produce      json
// @Param        productId path int true "Product ID"
// @Success      200 {object} composite.ProductAggregate
// @Failure      400 {object} dto.HTTPErrorInfo
// @Failure      404 {object} dto.HTTPErrorInfo
// @Failure      422 {object} dto.HTTPErrorInfo
// @Failure      503 {object} dto.HTTPErrorInfo
// @Router       /product-composite/{productId} [get]
func (h *CompositeHandler) GetProduct(c *gin.Context) {
	productID, ok := h.pathProductID(c)
	if !ok {
		return
	}

	agg, err := h.service.GetProduct(c.Request.Context(), productID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.OK(c, agg)
}

// CreateProduct godoc
// @Summary      Create a composite product
// @Description  Publishes create events for the product, its recommendations and its reviews
// @Tags         ProductComposite
// @Accept       json
// @Param        request body composite.ProductAggregate true "Composite product"
// @Success      202
// @Failure      400 {object} dto.HTTPErrorInfo
// @Failure      422 {object} dto.HTTPErrorInfo
// @Failure      503 {object} dto.HTTPErrorInfo
// @Router       /product-composite [post]
func (h *CompositeHandler) CreateProduct(c *gin.Context) {
	var body composite.ProductAggregate
	if err := c.ShouldBindJSON(&body); err != nil {
		h.BindError(c, err)
		return
	}

	if err := h.service.CreateProduct(c.Request.Context(), &body); err != nil {
		h.HandleError(c, err)
		return
	}
	c.Status(http.StatusAccepted)
}

// DeleteProduct godoc
// @Summary      Delete a composite product
// @Description  Publishes delete events for the product, its recommendations and its reviews. Deleting a missing product succeeds.
// @Tags         ProductComposite
// @Param        productId path int true "Product ID"
// @Success      202
// @Failure      400 {object} dto.HTTPErrorInfo
// @Failure      422 {object} dto.HTTPErrorInfo
// @Failure      503 {object} dto.HTTPErrorInfo
// @Router       /product-composite/{productId} [delete]
func (h *CompositeHandler) DeleteProduct(c *gin.Context) {
	productID, ok := h.pathProductID(c)
	if !ok {
		return
	}

	if err := h.service.DeleteProduct(c.Request.Context(), productID); err != nil {
		h.HandleError(c, err)
		return
	}
	c.Status(http.StatusAccepted)
}
