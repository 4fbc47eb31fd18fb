// Package composite holds the product aggregate served by the composite service.
package composite

import (
	"github.com/sandcastle/microservices/internal/domain/product"
	"github.com/sandcastle/microservices/internal/domain/recommendation"
	"github.com/sandcastle/microservices/internal/domain/review"
)

// ProductAggregate is the merged view of a product with its recommendations and reviews.
// It lives for one request and is never stored.
type ProductAggregate struct {
	ProductID        int                     `json:"productId"`
	Name             string                  `json:"name"`
	Weight           int                     `json:"weight"`
	Recommendations  []RecommendationSummary `json:"recommendations"`
	Reviews          []ReviewSummary         `json:"reviews"`
	ServiceAddresses *ServiceAddresses       `json:"serviceAddresses,omitempty"`
}

// RecommendationSummary is the part of a recommendation shown in the aggregate
type RecommendationSummary struct {
	RecommendationID int    `json:"recommendationId"`
	Author           string `json:"author"`
	Rate             int    `json:"rate"`
	Content          string `json:"content"`
}

// ReviewSummary is the part of a review shown in the aggregate
type ReviewSummary struct {
	ReviewID int    `json:"reviewId"`
	Author   string `json:"author"`
	Subject  string `json:"subject"`
	Content  string `json:"content"`
}

// ServiceAddresses records which instance answered each part of the aggregate.
// An address is empty when that service returned nothing.
type ServiceAddresses struct {
	Composite      string `json:"cmp"`
	Product        string `json:"pro"`
	Review         string `json:"rev"`
	Recommendation string `json:"rec"`
}

// NewProductAggregate assembles an aggregate. A nil recommendations or reviews
// slice yields a nil summary slice; an empty one yields an empty summary slice.
func NewProductAggregate(
	p *product.Product,
	recommendations []recommendation.Recommendation,
	reviews []review.Review,
	compositeAddress string,
) *ProductAggregate {
	addresses := &ServiceAddresses{
		Composite: compositeAddress,
		Product:   p.ServiceAddress,
	}
	if len(recommendations) > 0 {
		addresses.Recommendation = recommendations[0].ServiceAddress
	}
	if len(reviews) > 0 {
		addresses.Review = reviews[0].ServiceAddress
	}

	return &ProductAggregate{
		ProductID:        p.ProductID,
		Name:             p.Name,
		Weight:           p.Weight,
		Recommendations:  summarizeRecommendations(recommendations),
		Reviews:          summarizeReviews(reviews),
		ServiceAddresses: addresses,
	}
}

func summarizeRecommendations(in []recommendation.Recommendation) []RecommendationSummary {
	if in == nil {
		return nil
	}
	out := make([]RecommendationSummary, 0, len(in))
	for _, r := range in {
		out = append(out, RecommendationSummary{
			RecommendationID: r.RecommendationID,
			Author:           r.Author,
			Rate:             r.Rate,
			Content:          r.Content,
		})
	}
	return out
}

func summarizeReviews(in []review.Review) []ReviewSummary {
	if in == nil {
		return nil
	}
	out := make([]ReviewSummary, 0, len(in))
	for _, r := range in {
		out = append(out, ReviewSummary{
			ReviewID: r.ReviewID,
			Author:   r.Author,
			Subject:  r.Subject,
			Content:  r.Content,
		})
	}
	return out
}

// Product returns the product part of the aggregate as a backing-service entity
func (a *ProductAggregate) Product() product.Product {
	return product.Product{
		ProductID: a.ProductID,
		Name:      a.Name,
		Weight:    a.Weight,
	}
}

// RecommendationEntities expands the summaries into entities keyed by the aggregate's productId
func (a *ProductAggregate) RecommendationEntities() []recommendation.Recommendation {
	if a.Recommendations == nil {
		return nil
	}
	out := make([]recommendation.Recommendation, 0, len(a.Recommendations))
	for _, s := range a.Recommendations {
		out = append(out, recommendation.Recommendation{
			ProductID:        a.ProductID,
			RecommendationID: s.RecommendationID,
			Author:           s.Author,
			Rate:             s.Rate,
			Content:          s.Content,
		})
	}
	return out
}

// ReviewEntities expands the summaries into entities keyed by the aggregate's productId
func (a *ProductAggregate) ReviewEntities() []review.Review {
	if a.Reviews == nil {
		return nil
	}
	out := make([]review.Review, 0, len(a.Reviews))
	for _, s := range a.Reviews {
		out = append(out, review.Review{
			ProductID: a.ProductID,
			ReviewID:  s.ReviewID,
			Author:    s.Author,
			Subject:   s.Subject,
			Content:   s.Content,
		})
	}
	return out
}
