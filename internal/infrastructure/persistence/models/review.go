package models

import (
	"github.com/sandcastle/microservices/internal/domain/review"
)

// ReviewModel is the persistence model for the Review entity.
type ReviewModel struct {
	VersionedModel
	ProductID int    `gorm:"not null;uniqueIndex:idx_reviews_product_review,priority:1"`
	ReviewID  int    `gorm:"not null;uniqueIndex:idx_reviews_product_review,priority:2"`
	Author    string `gorm:"type:varchar(200);not null"`
	Subject   string `gorm:"type:varchar(200);not null"`
	Content   string `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (ReviewModel) TableName() string {
	return "reviews"
}

// ToDomain converts the persistence model to a domain Review.
func (m *ReviewModel) ToDomain() review.Review {
	return review.Review{
		ProductID: m.ProductID,
		ReviewID:  m.ReviewID,
		Author:    m.Author,
		Subject:   m.Subject,
		Content:   m.Content,
		Version:   m.Version,
	}
}

// ReviewModelFromDomain creates a persistence model from a domain Review.
func ReviewModelFromDomain(r *review.Review) *ReviewModel {
	m := &ReviewModel{
		ProductID: r.ProductID,
		ReviewID:  r.ReviewID,
		Author:    r.Author,
		Subject:   r.Subject,
		Content:   r.Content,
	}
	m.Version = r.Version
	return m
}
