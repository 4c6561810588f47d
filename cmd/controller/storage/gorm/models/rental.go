package models

import (
	"fmt"
	"strings"
	"time"

	uuid "github.com/satori/go.uuid"
	"gorm.io/gorm"
)

type RentalStatus int

const (
	RentalStatusUnknown RentalStatus = iota
	RentalStatusActive
	RentalStatusCompleted
	RentalStatusCanceled
)

var (
	rentalStatusMappings = map[string]RentalStatus{
		"unknown":   RentalStatusUnknown,
		"active":    RentalStatusActive,
		"completed": RentalStatusCompleted,
		"canceled":  RentalStatusCanceled,
	}
)

func RentalStatusFromString(value string) RentalStatus {
	status, ok := rentalStatusMappings[strings.ToLower(value)]
	if !ok {
		return RentalStatusUnknown
	}
	return status
}

func (rs RentalStatus) String() string {
	switch rs {
	case RentalStatusUnknown:
		return "unknown"
	case RentalStatusActive:
		return "active"
	case RentalStatusCompleted:
		return "completed"
	case RentalStatusCanceled:
		return "canceled"
	}
	panic(fmt.Sprintf("invalid RentalStatus, %d", rs))
}

// Rental references the GPU by its external id rather than a foreign key
// because curated platform units have no Gpu row.
type Rental struct {
	gorm.Model

	UUID uuid.UUID `gorm:"type:uuid;notnull;unique"`

	GpuID     string `gorm:"notnull;index"`
	RenterID  string `gorm:"notnull;index"`
	OwnerID   string `gorm:"notnull"`
	StartTime time.Time
	Hours     int
	TotalCost float64
	Status    RentalStatus
}
