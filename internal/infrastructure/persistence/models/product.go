package models

import (
	"github.com/sandcastle/microservices/internal/domain/product"
)

// ProductModel is the persistence model for the Product entity.
type ProductModel struct {
	VersionedModel
	ProductID int    `gorm:"not null;uniqueIndex:idx_products_product_id"`
	Name      string `gorm:"type:varchar(200);not null"`
	Weight    int    `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (ProductModel) TableName() string {
	return "products"
}

// ToDomain converts the persistence model to a domain Product.
func (m *ProductModel) ToDomain() *product.Product {
	return &product.Product{
		ProductID: m.ProductID,
		Name:      m.Name,
		Weight:    m.Weight,
		Version:   m.Version,
	}
}

// ProductModelFromDomain creates a persistence model from a domain Product.
func ProductModelFromDomain(p *product.Product) *ProductModel {
	m := &ProductModel{
		ProductID: p.ProductID,
		Name:      p.Name,
		Weight:    p.Weight,
	}
	m.Version = p.Version
	return m
}
