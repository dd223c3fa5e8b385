package models

import "time"

type ProductionOrderStatus string

const (
	ProductionPending      ProductionOrderStatus = "PENDING"
	ProductionInProduction ProductionOrderStatus = "IN_PRODUCTION"
	ProductionCompleted    ProductionOrderStatus = "COMPLETED"
	ProductionBlocked      ProductionOrderStatus = "BLOCKED"
	ProductionCancelled    ProductionOrderStatus = "CANCELLED"
)

func (s ProductionOrderStatus) Valid() bool {
	switch s {
	case ProductionPending, ProductionInProduction, ProductionCompleted, ProductionBlocked, ProductionCancelled:
		return true
	}
	return false
}

type ProductionPriority string

const (
	PriorityStandard ProductionPriority = "STANDARD"
	PriorityUrgent   ProductionPriority = "URGENT"
)

type ProductionOrder struct {
	ID          uint                  `gorm:"primaryKey"`
	OrderNumber string                `gorm:"size:50;uniqueIndex;not null"`
	ProductID   uint                  `gorm:"index;not null"`
	Product     *Product
	Quantity    int                   `gorm:"not null"`
	Status      ProductionOrderStatus `gorm:"size:20;not null;index"`
	Priority    ProductionPriority    `gorm:"size:20;not null;default:STANDARD"`
	StartDate   *time.Time
	EndDate     *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
