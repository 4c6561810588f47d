package models

import (
	"fmt"
	"strings"

	uuid "github.com/satori/go.uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type JobStatus int

const (
	JobStatusUnknown JobStatus = iota
	JobStatusQueued
	JobStatusRunning
	JobStatusCompleted
	JobStatusFailed
)

var (
	jobStatusMappings = map[string]JobStatus{
		"unknown":   JobStatusUnknown,
		"queued":    JobStatusQueued,
		"running":   JobStatusRunning,
		"completed": JobStatusCompleted,
		"failed":    JobStatusFailed,
	}
)

func JobStatusFromString(value string) JobStatus {
	status, ok := jobStatusMappings[strings.ToLower(value)]
	if !ok {
		return JobStatusUnknown
	}
	return status
}

func (js JobStatus) String() string {
	switch js {
	case JobStatusUnknown:
		return "unknown"
	case JobStatusQueued:
		return "queued"
	case JobStatusRunning:
		return "running"
	case JobStatusCompleted:
		return "completed"
	case JobStatusFailed:
		return "failed"
	}
	panic(fmt.Sprintf("invalid JobStatus, %d", js))
}

type TrainingJob struct {
	gorm.Model

	UUID uuid.UUID `gorm:"type:uuid;notnull;unique"`

	UserID       string `gorm:"notnull;index"`
	PipelineName string
	JobName      string
	Config       datatypes.JSON
	Status       JobStatus
	Progress     int
	GpuID        string
	RentalID     string
}
