package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type DeliveryStatus string

const (
	DeliveryPlanned    DeliveryStatus = "PLANNED"
	DeliveryInProgress DeliveryStatus = "IN_PROGRESS"
	DeliveryDelivered  DeliveryStatus = "DELIVERED"
)

func (s DeliveryStatus) Valid() bool {
	switch s {
	case DeliveryPlanned, DeliveryInProgress, DeliveryDelivered:
		return true
	}
	return false
}

// OrderStatus returns the status the parent order moves to.
func (s DeliveryStatus) OrderStatus() (OrderStatus, bool) {
	switch s {
	case DeliveryPlanned:
		return OrderPreparing, true
	case DeliveryInProgress:
		return OrderEnRoute, true
	case DeliveryDelivered:
		return OrderDelivered, true
	}
	return "", false
}

type Delivery struct {
	ID              uint            `gorm:"primaryKey"`
	OrderID         uint            `gorm:"uniqueIndex;not null"`
	DeliveryAddress string          `gorm:"size:255;not null"`
	DeliveryDate    *time.Time
	DeliveryCost    decimal.Decimal `gorm:"type:decimal(14,2);not null"`
	Driver          string          `gorm:"size:100"`
	Vehicle         string          `gorm:"size:100"`
	Status          DeliveryStatus  `gorm:"size:20;not null"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
