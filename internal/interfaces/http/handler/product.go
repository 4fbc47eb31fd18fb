package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	productapp "github.com/sandcastle/microservices/internal/application/product"
	"github.com/sandcastle/microservices/internal/interfaces/http/dto"
)

// ProductHandler serves the product API
type ProductHandler struct {
	BaseHandler
	service *productapp.Service
}

// NewProductHandler creates a new ProductHandler
func NewProductHandler(service *productapp.Service) *ProductHandler {
	return &ProductHandler{service: service}
}

// RegisterRoutes mounts the product endpoints on rg
func (h *ProductHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/product/:productId", h.Get)
	rg.POST("/product", h.Create)
	rg.PUT("/product/:productId", h.Update)
	rg.DELETE("/product/:productId", h.Delete)
}

// Get godoc
// @Summary      Get a product
// @Tags         Product
// @Produce      json
// @Param        productId path int true "Product ID"
// @Success      200 {object} product.Product
// @Failure      404 {object} dto.HTTPErrorInfo
// @Failure      422 {object} dto.HTTPErrorInfo
// @Router       /product/{productId} [get]
func (h *ProductHandler) Get(c *gin.Context) {
	productID, ok := h.pathProductID(c)
	if !ok {
		return
	}

	p, err := h.service.Get(c.Request.Context(), productID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.OK(c, p)
}

// Create godoc
// @Summary      Create a product
// @Tags         Product
// @Accept       json
// @Produce      json
// @Param        request body dto.ProductRequest true "Product"
// @Success      200 {object} product.Product
// @Failure      422 {object} dto.HTTPErrorInfo
// @Router       /product [post]
func (h *ProductHandler) Create(c *gin.Context) {
	var req dto.ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	p, err := h.service.Create(c.Request.Context(), req.ToDomain())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.OK(c, p)
}

// Update godoc
// @Summary      Update a product
// @Description  The request must carry the version last read; a stale version yields 409
// @Tags         Product
// @Accept       json
// @Produce      json
// @Param        productId path int true "Product ID"
// @Param        request body dto.ProductRequest true "Product"
// @Success      200 {object} product.Product
// @Failure      404 {object} dto.HTTPErrorInfo
// @Failure      409 {object} dto.HTTPErrorInfo
// @Router       /product/{productId} [put]
func (h *ProductHandler) Update(c *gin.Context) {
	productID, ok := h.pathProductID(c)
	if !ok {
		return
	}

	var req dto.ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	req.ProductID = productID

	p, err := h.service.Update(c.Request.Context(), req.ToDomain())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.OK(c, p)
}

// Delete godoc
// @Summary      Delete a product
// @Description  Deleting a missing product succeeds
// @Tags         Product
// @Param        productId path int true "Product ID"
// @Success      200
// @Failure      422 {object} dto.HTTPErrorInfo
// @Router       /product/{productId} [delete]
func (h *ProductHandler) Delete(c *gin.Context) {
	productID, ok := h.pathProductID(c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), productID); err != nil {
		h.HandleError(c, err)
		return
	}
	c.Status(http.StatusOK)
}
