package models

import "time"

// Expense is a recorded business cost belonging to the user who entered it.
type Expense struct {
	ID          uint `gorm:"primaryKey"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Description string `gorm:"size:255;not null"`
	// AmountCents stores the amount in the smallest currency unit.
	AmountCents int64     `gorm:"not null"`
	Date        time.Time `gorm:"index;not null"` // ledger event time
	OwnerUserID *uint     `gorm:"index"`          // weak reference, nil = unattributed
}
