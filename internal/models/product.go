package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID             uint            `gorm:"primaryKey"`
	Name           string          `gorm:"size:150;not null;uniqueIndex"`
	Unit           string          `gorm:"size:20;not null"`
	Cost           decimal.Decimal `gorm:"type:decimal(14,2);not null"` // also the sale unit price
	Stock          int             `gorm:"not null;default:0"`
	ProductionTime int             `gorm:"not null;default:0"` // days
	CreatedAt      time.Time
	UpdatedAt      time.Time

	BillOfMaterials []BillOfMaterial `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
}

// BillOfMaterial is the raw material quantity needed for one unit of product.
type BillOfMaterial struct {
	ID            uint `gorm:"primaryKey"`
	ProductID     uint `gorm:"index;not null"`
	RawMaterialID uint `gorm:"index;not null"`
	RawMaterial   *RawMaterial
	Quantity      int `gorm:"not null"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
