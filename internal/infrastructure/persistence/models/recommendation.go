package models

import (
	"github.com/sandcastle/microservices/internal/domain/recommendation"
)

// RecommendationModel is the persistence model for the Recommendation entity.
type RecommendationModel struct {
	VersionedModel
	ProductID        int    `gorm:"not null;uniqueIndex:idx_recommendations_product_rec,priority:1"`
	RecommendationID int    `gorm:"not null;uniqueIndex:idx_recommendations_product_rec,priority:2"`
	Author           string `gorm:"type:varchar(200);not null"`
	Rate             int    `gorm:"not null;default:0"`
	Content          string `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (RecommendationModel) TableName() string {
	return "recommendations"
}

// ToDomain converts the persistence model to a domain Recommendation.
func (m *RecommendationModel) ToDomain() recommendation.Recommendation {
	return recommendation.Recommendation{
		ProductID:        m.ProductID,
		RecommendationID: m.RecommendationID,
		Author:           m.Author,
		Rate:             m.Rate,
		Content:          m.Content,
		Version:          m.Version,
	}
}

// RecommendationModelFromDomain creates a persistence model from a domain Recommendation.
func RecommendationModelFromDomain(r *recommendation.Recommendation) *RecommendationModel {
	m := &RecommendationModel{
		ProductID:        r.ProductID,
		RecommendationID: r.RecommendationID,
		Author:           r.Author,
		Rate:             r.Rate,
		Content:          r.Content,
	}
	m.Version = r.Version
	return m
}
