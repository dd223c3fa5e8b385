package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type RawMaterial struct {
	ID            uint            `gorm:"primaryKey"`
	Name          string          `gorm:"size:150;not null;uniqueIndex"`
	Unit          string          `gorm:"size:20;not null"`
	Stock         int             `gorm:"not null;default:0"`
	ReservedStock int             `gorm:"not null;default:0"` // ordered from suppliers, not received yet
	StockMin      int             `gorm:"not null;default:0"` // reorder threshold
	UnitPrice     decimal.Decimal `gorm:"type:decimal(14,2);not null"`
	SupplierID    *uint           `gorm:"index"`
	Supplier      *Supplier
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Available returns on-hand stock not already spoken for by open supply orders.
func (m *RawMaterial) Available() int {
	return m.Stock - m.ReservedStock
}

// NeedsReorder reports whether available stock dropped under the threshold.
func (m *RawMaterial) NeedsReorder() bool {
	return m.Available() < m.StockMin
}
