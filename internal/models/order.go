package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderPreparing OrderStatus = "PREPARING"
	OrderEnRoute   OrderStatus = "EN_ROUTE"
	OrderDelivered OrderStatus = "DELIVERED"
	OrderCancelled OrderStatus = "CANCELLED"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderPreparing, OrderEnRoute, OrderDelivered, OrderCancelled:
		return true
	}
	return false
}

// Order is a customer sales order.
type Order struct {
	ID          uint            `gorm:"primaryKey"`
	CustomerID  uint            `gorm:"index;not null"`
	Customer    *Customer
	OrderDate   time.Time       `gorm:"not null"`
	Status      OrderStatus     `gorm:"size:20;not null;index"`
	TotalAmount decimal.Decimal `gorm:"type:decimal(14,2);not null"`
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Lines    []ProductOrder `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Delivery *Delivery      `gorm:"foreignKey:OrderID"`
}

// ProductOrder is one line of a sales order.
type ProductOrder struct {
	ID         uint            `gorm:"primaryKey"`
	OrderID    uint            `gorm:"index;not null"`
	ProductID  uint            `gorm:"index;not null"`
	Product    *Product
	Quantity   int             `gorm:"not null"`
	UnitPrice  decimal.Decimal `gorm:"type:decimal(14,2);not null"`
	TotalPrice decimal.Decimal `gorm:"type:decimal(14,2);not null"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
