package dto

import (
	"github.com/sandcastle/microservices/internal/domain/product"
	"github.com/sandcastle/microservices/internal/domain/recommendation"
	"github.com/sandcastle/microservices/internal/domain/review"
)

// ProductRequest is the body of product create and update calls.
// productId is checked by the service so that a bad id yields 422, not 400.
type ProductRequest struct {
	ProductID int    `json:"productId" example:"1"`
	Name      string `json:"name" binding:"max=255" example:"Sample Product"`
	Weight    int    `json:"weight" binding:"gte=0" example:"100"`
	Version   int    `json:"version" binding:"gte=0" example:"0"`
}

// ToDomain converts the request into a product entity
func (r ProductRequest) ToDomain() *product.Product {
	return &product.Product{
		ProductID: r.ProductID,
		Name:      r.Name,
		Weight:    r.Weight,
		Version:   r.Version,
	}
}

// RecommendationRequest is the body of recommendation create and update calls
type RecommendationRequest struct {
	ProductID        int    `json:"productId" example:"1"`
	RecommendationID int    `json:"recommendationId" binding:"gte=0" example:"1"`
	Author           string `json:"author" binding:"max=255" example:"author 1"`
	Rate             int    `json:"rate" example:"5"`
	Content          string `json:"content" binding:"max=4000" example:"content 1"`
	Version          int    `json:"version" binding:"gte=0" example:"0"`
}

// ToDomain converts the request into a recommendation entity
func (r RecommendationRequest) ToDomain() *recommendation.Recommendation {
	return &recommendation.Recommendation{
		ProductID:        r.ProductID,
		RecommendationID: r.RecommendationID,
		Author:           r.Author,
		Rate:             r.Rate,
		Content:          r.Content,
		Version:          r.Version,
	}
}

// ReviewRequest is the body of review create and update calls
type ReviewRequest struct {
	ProductID int    `json:"productId" example:"1"`
	ReviewID  int    `json:"reviewId" binding:"gte=0" example:"1"`
	Author    string `json:"author" binding:"max=255" example:"author 1"`
	Subject   string `json:"subject" binding:"max=255" example:"subject 1"`
	Content   string `json:"content" binding:"max=4000" example:"content 1"`
	Version   int    `json:"version" binding:"gte=0" example:"0"`
}

// ToDomain converts the request into a review entity
func (r ReviewRequest) ToDomain() *review.Review {
	return &review.Review{
		ProductID: r.ProductID,
		ReviewID:  r.ReviewID,
		Author:    r.Author,
		Subject:   r.Subject,
		Content:   r.Content,
		Version:   r.Version,
	}
}
