package models

import (
	"time"
)

// BaseModel provides the surrogate key and timestamps for all models.
type BaseModel struct {
	ID        uint      `gorm:"primaryKey;autoIncrement"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// VersionedModel adds the optimistic locking counter.
type VersionedModel struct {
	BaseModel
	Version int `gorm:"not null;default:0"`
}
