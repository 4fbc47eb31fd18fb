// Package models contains GORM-specific persistence models that map to database tables.
// These models are separate from domain entities to keep the domain layer free
// from ORM concerns.
//
// Structure:
// - base.go: BaseModel and VersionedModel
// - product.go, recommendation.go, review.go: one table per backing store
//
// The service address is never persisted; each service stamps its own on read.
package models
