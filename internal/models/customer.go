package models

import "time"

type Customer struct {
	ID        uint   `gorm:"primaryKey"`
	Name      string `gorm:"size:150;not null;index"`
	Email     string `gorm:"size:150;uniqueIndex;not null"`
	Phone     string `gorm:"size:30"`
	Address   string `gorm:"size:255"`
	City      string `gorm:"size:100"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
