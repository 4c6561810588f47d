package models

import (
	"fmt"
	"strings"
	"time"

	uuid "github.com/satori/go.uuid"
	"gorm.io/gorm"
)

type GpuStatus int

const (
	GpuStatusUnknown GpuStatus = iota
	GpuStatusIdle
	GpuStatusAvailableForRent
	GpuStatusRentedOut
	GpuStatusActiveTraining
)

var (
	gpuStatusMappings = map[string]GpuStatus{
		"unknown":            GpuStatusUnknown,
		"idle":               GpuStatusIdle,
		"available-for-rent": GpuStatusAvailableForRent,
		"rented-out":         GpuStatusRentedOut,
		"active-training":    GpuStatusActiveTraining,
	}
)

func GpuStatusFromString(value string) GpuStatus {
	status, ok := gpuStatusMappings[strings.ToLower(value)]
	if !ok {
		return GpuStatusUnknown
	}
	return status
}

func (gs GpuStatus) String() string {
	switch gs {
	case GpuStatusUnknown:
		return "unknown"
	case GpuStatusIdle:
		return "idle"
	case GpuStatusAvailableForRent:
		return "available-for-rent"
	case GpuStatusRentedOut:
		return "rented-out"
	case GpuStatusActiveTraining:
		return "active-training"
	}
	panic(fmt.Sprintf("invalid GpuStatus, %d", gs))
}

type Gpu struct {
	gorm.Model

	UUID uuid.UUID `gorm:"type:uuid;notnull;unique"`

	OwnerID          string `gorm:"notnull;index"`
	Name             string
	ModelName        string
	Vram             string
	PowerScore       float64
	RentalRateHourly float64
	Status           GpuStatus `gorm:"index"`
	PurchasedAt      time.Time
}
