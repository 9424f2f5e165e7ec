package models

import (
	"time"

	"gorm.io/datatypes"
)

// Product is a sellable plan. An empty PolarProductID means the product is
// local-only and not linked to the provider.
type Product struct {
	ID             string                      `gorm:"column:id;type:uuid;primary_key" json:"id"`
	PolarProductID string                      `gorm:"column:polar_product_id;type:varchar(64);not null;default:'';uniqueIndex:idx_products_polar_product_id,where:polar_product_id <> ''" json:"polar_product_id"`
	Name           string                      `gorm:"column:name;type:varchar(255);not null;uniqueIndex" json:"name"`
	Description    string                      `gorm:"column:description;type:text" json:"description"`
	Category       string                      `gorm:"column:category;type:varchar(64)" json:"category"`
	Features       datatypes.JSONSlice[string] `gorm:"column:features;type:jsonb" json:"features"`
	IsActive       bool                        `gorm:"column:is_active;not null" json:"is_active"`
	// Metadata holds admin data and, under "lastSync", the latest provider snapshot.
	Metadata  datatypes.JSONMap `gorm:"column:metadata;type:jsonb" json:"metadata"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

func (Product) TableName() string { return "products" }

// Linked reports whether the product is tied to a provider product.
func (p *Product) Linked() bool { return p != nil && p.PolarProductID != "" }
