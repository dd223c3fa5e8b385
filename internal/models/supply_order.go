package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type SupplyOrderStatus string

const (
	SupplyOrderPending    SupplyOrderStatus = "PENDING"
	SupplyOrderInProgress SupplyOrderStatus = "IN_PROGRESS"
	SupplyOrderReceived   SupplyOrderStatus = "RECEIVED"
)

func (s SupplyOrderStatus) Valid() bool {
	switch s {
	case SupplyOrderPending, SupplyOrderInProgress, SupplyOrderReceived:
		return true
	}
	return false
}

// SupplyOrder is a replenishment order sent to a supplier.
type SupplyOrder struct {
	ID          uint              `gorm:"primaryKey"`
	OrderNumber string            `gorm:"size:50;uniqueIndex;not null"`
	SupplierID  uint              `gorm:"index;not null"`
	Supplier    *Supplier
	OrderDate   time.Time         `gorm:"not null"`
	Status      SupplyOrderStatus `gorm:"size:20;not null"`
	TotalAmount decimal.Decimal   `gorm:"type:decimal(14,2);not null"`
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Lines []SupplyOrderLine `gorm:"foreignKey:SupplyOrderID;constraint:OnDelete:CASCADE"`
}

type SupplyOrderLine struct {
	ID            uint            `gorm:"primaryKey"`
	SupplyOrderID uint            `gorm:"index;not null"`
	RawMaterialID uint            `gorm:"index;not null"`
	RawMaterial   *RawMaterial
	Quantity      int             `gorm:"not null"`
	UnitPrice     decimal.Decimal `gorm:"type:decimal(14,2);not null"`
	TotalPrice    decimal.Decimal `gorm:"type:decimal(14,2);not null"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
