package models

import "time"

type Role string

const (
	RoleAdmin                Role = "ADMIN"
	RoleSupplyManager        Role = "SUPPLY_MANAGER"
	RolePurchasingManager    Role = "PURCHASING_MANAGER"
	RoleLogisticsSupervisor  Role = "LOGISTICS_SUPERVISOR"
	RoleProductionManager    Role = "PRODUCTION_MANAGER"
	RolePlanner              Role = "PLANNER"
	RoleProductionSupervisor Role = "PRODUCTION_SUPERVISOR"
	RoleSalesManager         Role = "SALES_MANAGER"
	RoleLogisticsManager     Role = "LOGISTICS_MANAGER"
	RoleDeliverySupervisor   Role = "DELIVERY_SUPERVISOR"
)

var knownRoles = map[Role]bool{
	RoleAdmin:                true,
	RoleSupplyManager:        true,
	RolePurchasingManager:    true,
	RoleLogisticsSupervisor:  true,
	RoleProductionManager:    true,
	RolePlanner:              true,
	RoleProductionSupervisor: true,
	RoleSalesManager:         true,
	RoleLogisticsManager:     true,
	RoleDeliverySupervisor:   true,
}

func (r Role) Valid() bool { return knownRoles[r] }

type User struct {
	ID           uint   `gorm:"primaryKey"`
	FirstName    string `gorm:"size:100;not null"`
	LastName     string `gorm:"size:100;not null"`
	Email        string `gorm:"size:150;uniqueIndex;not null"`
	PasswordHash string `gorm:"size:255;not null"`
	Role         Role   `gorm:"size:40;not null"`
	CreatedAt    time.Time
	UpdatedAt    time.Time

	RefreshToken *RefreshToken `gorm:"constraint:OnDelete:CASCADE"`
}
