package models

import (
	"time"
)

// User model
type User struct {
	ID             uint `gorm:"primaryKey"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
	Username       string `gorm:"size:255;not null;unique"`
	HashedPassword []byte `gorm:"not null"`
	// Protected marks the seeded super-account that can never be deleted.
	// Deletion rules key off this flag, not off the username string.
	Protected bool  `gorm:"default:false;not null"`
	RoleID    *uint `gorm:"index"`
	Role      Role  `gorm:"foreignKey:RoleID;references:ID"`
}
