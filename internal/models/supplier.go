package models

import "time"

type Supplier struct {
	ID        uint    `gorm:"primaryKey"`
	Name      string  `gorm:"size:150;not null;index"`
	Contact   string  `gorm:"size:150"`
	Email     string  `gorm:"size:150;uniqueIndex;not null"`
	Phone     string  `gorm:"size:30"`
	LeadTime  int     `gorm:"not null;default:0"` // days
	Rating    float64 `gorm:"not null;default:0"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
