/*
 *  Copyright (c) 2025 Trainava Labs, Inc. All Rights Reserved.
 */
package restapi

import (
	"fmt"
	"time"
)

const (
	GpuIdle             = "idle"
	GpuAvailableForRent = "available-for-rent"
	GpuRentedOut        = "rented-out"
	GpuActiveTraining   = "active-training"
)

const (
	RentalActive    = "active"
	RentalCompleted = "completed"
	RentalCanceled  = "canceled"
)

const (
	JobQueued    = "queued"
	JobRunning   = "running"
	JobCompleted = "completed"
	JobFailed    = "failed"
)

const (
	BotLive    = "live"
	BotStopped = "stopped"
)

// PlatformOwnerId identifies rentals of curated platform units, which have
// no per-user GPU record behind them.
const PlatformOwnerId = "trainava-platform"

type Gpu struct {
	Id               string    `json:"id"`
	OwnerId          string    `json:"ownerId,omitempty"`
	Name             string    `json:"name"`
	Model            string    `json:"model"`
	Vram             string    `json:"vram"`
	PowerScore       float64   `json:"powerScore"`
	RentalRateHourly float64   `json:"rentalRateHourly"`
	Status           string    `json:"status"`
	Curated          bool      `json:"curated,omitempty"`
	RentalCount      int       `json:"rentalCount,omitempty"`
	PurchasedAt      time.Time `json:"purchasedAt,omitempty"`
}

type Rental struct {
	Id        string    `json:"id"`
	GpuId     string    `json:"gpuId"`
	RenterId  string    `json:"renterId"`
	OwnerId   string    `json:"ownerId"`
	StartTime time.Time `json:"startTime"`
	Hours     int       `json:"hours"`
	TotalCost float64   `json:"totalCost"`
	Status    string    `json:"status"`
}

type TrainingJob struct {
	Id           string            `json:"id"`
	UserId       string            `json:"userId"`
	PipelineName string            `json:"pipelineName"`
	JobName      string            `json:"jobName"`
	Config       map[string]string `json:"config,omitempty"`
	Status       string            `json:"status"`
	Progress     int               `json:"progress"`
	GpuId        string            `json:"gpuId,omitempty"`
	RentalId     string            `json:"rentalId,omitempty"`
	CreatedAt    time.Time         `json:"createdAt"`
}

type Bot struct {
	Id                string    `json:"id"`
	UserId            string    `json:"userId"`
	BotName           string    `json:"botName"`
	BotType           string    `json:"botType"`
	TelegramTokenHint string    `json:"telegramTokenHint"`
	Model             string    `json:"model"`
	Status            string    `json:"status"`
	CreatedAt         time.Time `json:"createdAt"`
}

// BotDeployment is what the client submits; the raw Telegram token never
// leaves this request, only its hint is stored.
type BotDeployment struct {
	UserId        string `json:"userId"`
	BotName       string `json:"botName"`
	BotType       string `json:"botType"`
	TelegramToken string `json:"telegramToken"`
	Model         string `json:"model"`
}

type GpuPackage struct {
	Id         string  `json:"id"`
	Name       string  `json:"name"`
	Price      float64 `json:"price"`
	GpuModel   string  `json:"gpuModel"`
	Vram       string  `json:"vram"`
	PowerScore float64 `json:"powerScore"`
	Credits    int64   `json:"credits"`
}

type PurchaseRequest struct {
	UserId    string `json:"userId"`
	PackageId string `json:"packageId"`
}

type AiTemplate struct {
	Id          string `json:"id"`
	Name        string `json:"name"`
	Category    string `json:"category"`
	Description string `json:"description"`
	BaseModel   string `json:"baseModel"`
}

type GpuStatusUpdate struct {
	Status string `json:"status"`
}

type RentalSettingsUpdate struct {
	RentalRateHourly float64 `json:"rentalRateHourly"`
}

type CreditsUpdate struct {
	Amount int64 `json:"amount"`
}

type CreditsBalance struct {
	UserId  string `json:"userId"`
	Balance int64  `json:"balance"`
}

type Status struct {
	State    string `json:"state"`
	Version  string `json:"version"`
	Hostname string `json:"hostname"`
}

// TokenHint reduces a Telegram bot token to the redacted form shown in
// dashboards. Tokens shorter than the visible window are passed through.
func TokenHint(token string) string {
	if len(token) <= 14 {
		return token
	}

	return fmt.Sprint(token[:10], "...", token[len(token)-4:])
}
