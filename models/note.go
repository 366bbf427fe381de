package models

import "time"

// CreditNote is one submitted NOI document. Rows are append-only: the portal
// never updates or deletes them, so there is no DeletedAt column.
type CreditNote struct {
	ID           uint      `gorm:"primaryKey"`
	CreatedAt    time.Time // persistence timestamp (submitted_at)
	SerialNo     string    `gorm:"size:64;uniqueIndex"` // rendered identifier, filled after insert
	Date         time.Time `gorm:"not null"`            // receiving date
	SupplierCode string    `gorm:"size:64;not null"`
	SupplierName string    `gorm:"size:255;not null"`
	InvoiceRef   string    `gorm:"size:128;not null"`
	Amount       int64     `gorm:"not null"` // smallest currency unit (e.g. cents)
	Type         string    `gorm:"size:64;not null"`
	Comment      string    `gorm:"size:1024"`
	InvoiceFile  string    `gorm:"size:255;not null"` // stored attachment filename
	SubmittedBy  string    `gorm:"size:255;index"`
}
