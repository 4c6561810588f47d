package models

import (
	"gorm.io/gorm"
)

// CreditBalance backs the increment-credits operation; one row per user,
// created on first grant.
type CreditBalance struct {
	gorm.Model

	UserID  string `gorm:"notnull;uniqueIndex"`
	Balance int64
}
