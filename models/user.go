package models

import (
	"time"
)

// User is a portal account permitted to submit credit notes. A user's
// submissions are tied to it by username (CreditNote.SubmittedBy), not by
// foreign key, so the record log stays meaningful if accounts are reorganized.
type User struct {
	ID             uint `gorm:"primaryKey"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
	DeletedAt      *time.Time `gorm:"index"`
	Username       string     `gorm:"size:255;not null;unique"`
	HashedPassword []byte     `gorm:"not null"`
	RoleID         *uint      `gorm:"index"`
	Role           Role       `gorm:"foreignKey:RoleID;references:ID"`
}
