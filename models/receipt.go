package models

import "time"

// Receipt is a numbered payment receipt. ReceiptNumber is assigned once at
// issuance and never changes afterwards; the unique index is the enforcement
// point for concurrent issuers racing for the same token.
type Receipt struct {
	ID            uint `gorm:"primaryKey"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
	ReceiptNumber string `gorm:"size:64;not null;uniqueIndex"`
	CustomerName  string `gorm:"size:255;not null"`
	Description   string `gorm:"size:255;not null"`
	PaymentType   string `gorm:"size:32;not null"` // recurring_monthly or one_time
	PaymentReason string `gorm:"size:255"`         // only meaningful for one_time
	// PriceCents stores the amount in the smallest currency unit.
	PriceCents    int64     `gorm:"not null"`
	AmountInWords string    `gorm:"size:255;not null"`
	Date          time.Time `gorm:"index;not null"` // ledger event time
	// OwnerUserID is a weak reference: nil means unattributed (e.g. rows that
	// predate per-user ownership, or whose owner was deleted).
	OwnerUserID *uint `gorm:"index"`
}
