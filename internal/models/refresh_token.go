package models

import "time"

// RefreshToken is kept one per user and rotated on every login.
type RefreshToken struct {
	ID         uint      `gorm:"primaryKey"`
	UserID     uint      `gorm:"uniqueIndex;not null"`
	Token      string    `gorm:"size:64;uniqueIndex;not null"`
	ExpiryDate time.Time `gorm:"not null"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (t *RefreshToken) Expired(now time.Time) bool {
	return t.ExpiryDate.Before(now)
}
