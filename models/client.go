package models

import "time"

// Client is an informational reference entity used to pre-fill receipt forms.
// It carries no aggregation semantics.
type Client struct {
	ID        uint `gorm:"primaryKey"`
	CreatedAt time.Time
	UpdatedAt time.Time
	Name      string     `gorm:"size:255;not null"`
	Type      string     `gorm:"size:64"`
	Address   string     `gorm:"size:512"`
	StartDate time.Time  `gorm:"not null"`
	EndDate   *time.Time // nil while the engagement is ongoing
	// Fees in the smallest currency unit, consistent with Receipt and Expense.
	InstallationFeeCents int64
	MonthlyPaymentCents  int64
	Status               string `gorm:"size:32;default:active"`
}
