/*
 *  Copyright (c) 2025 Trainava Labs, Inc. All Rights Reserved.
 */
package frontend

import (
	"flag"
	"os"
	"time"

	"github.com/trainava-labs/trainava/cmd/controller/storage"
	"github.com/trainava-labs/trainava/pkg/errors"
	"github.com/trainava-labs/trainava/pkg/restapi"
	"github.com/trainava-labs/trainava/pkg/server"
	"github.com/trainava-labs/trainava/pkg/task"
)

var (
	overrideHostname = flag.String("override-hostname", "", "")
)

var (
	ErrInvalidHours   = errors.New("rental duration must be between 1 and 24 hours")
	ErrUnknownPackage = errors.New("unknown gpu package")
	ErrMissingFields  = errors.New("required fields are missing")
)

// gpuPackages is the purchase catalog. Buying a package creates the GPU
// under the buyer's account and grants the bundled platform credits.
var gpuPackages = []restapi.GpuPackage{
	{
		Id:         "starter",
		Name:       "Starter Rig",
		Price:      99,
		GpuModel:   "RTX 3070",
		Vram:       "8GB GDDR6",
		PowerScore: 9500,
		Credits:    10000,
	},
	{
		Id:         "pro",
		Name:       "Pro Rig",
		Price:      249,
		GpuModel:   "RTX 4090",
		Vram:       "24GB GDDR6X",
		PowerScore: 14500,
		Credits:    25000,
	},
	{
		Id:         "ultra",
		Name:       "Ultra Rig",
		Price:      499,
		GpuModel:   "A100",
		Vram:       "80GB HBM2e",
		PowerScore: 13500,
		Credits:    60000,
	},
}

var aiTemplates = []restapi.AiTemplate{
	{
		Id:          "tpl-image-studio",
		Name:        "Image Studio",
		Category:    "image",
		Description: "Text-to-image generation tuned on your own style.",
		BaseModel:   "sdxl-1.0",
	},
	{
		Id:          "tpl-voice-twin",
		Name:        "Voice Twin",
		Category:    "audio",
		Description: "Natural sounding voice clone from short samples.",
		BaseModel:   "trainava-tts-2",
	},
	{
		Id:          "tpl-support-agent",
		Name:        "Support Agent",
		Category:    "chat",
		Description: "Customer support chatbot grounded in your docs.",
		BaseModel:   "trainava-chat-7b",
	},
	{
		Id:          "tpl-code-helper",
		Name:        "Code Helper",
		Category:    "chat",
		Description: "Coding assistant tuned on your repositories.",
		BaseModel:   "trainava-code-13b",
	},
}

type Frontend struct {
	startTime time.Time

	hostname string

	storage storage.Storage
}

func NewFrontend(server *server.Server, storage storage.Storage) (*Frontend, error) {
	hostname := *overrideHostname
	if hostname == "" {
		hostname_, err := os.Hostname()
		if err != nil {
			return nil, err
		}

		hostname = hostname_
	}

	frontend := &Frontend{
		startTime: time.Now(),
		hostname:  hostname,
		storage:   storage,
	}

	frontend.initializeEndpoints(server)

	return frontend, nil
}

func (frontend *Frontend) Run(group task.Group) error {
	return nil
}

func findPackage(id string) (restapi.GpuPackage, bool) {
	for _, gpuPackage := range gpuPackages {
		if gpuPackage.Id == id {
			return gpuPackage, true
		}
	}

	return restapi.GpuPackage{}, false
}

func (frontend *Frontend) purchaseGpu(purchase restapi.PurchaseRequest) (restapi.Gpu, error) {
	if purchase.UserId == "" {
		return restapi.Gpu{}, ErrMissingFields
	}

	gpuPackage, ok := findPackage(purchase.PackageId)
	if !ok {
		return restapi.Gpu{}, ErrUnknownPackage
	}

	return frontend.storage.PurchaseGpu(restapi.Gpu{
		OwnerId:     purchase.UserId,
		Name:        gpuPackage.Name,
		Model:       gpuPackage.GpuModel,
		Vram:        gpuPackage.Vram,
		PowerScore:  gpuPackage.PowerScore,
		Status:      restapi.GpuIdle,
		PurchasedAt: time.Now().UTC(),
	}, gpuPackage.Credits)
}

func (frontend *Frontend) createRental(rental restapi.Rental) (restapi.Rental, error) {
	if rental.GpuId == "" || rental.RenterId == "" || rental.OwnerId == "" {
		return restapi.Rental{}, ErrMissingFields
	}

	if rental.Hours < 1 || rental.Hours > 24 {
		return restapi.Rental{}, ErrInvalidHours
	}

	if rental.StartTime.IsZero() {
		rental.StartTime = time.Now().UTC()
	}

	rental.Status = restapi.RentalActive
	return frontend.storage.CreateRental(rental)
}

func (frontend *Frontend) createTrainingJob(job restapi.TrainingJob) (restapi.TrainingJob, error) {
	if job.UserId == "" || job.PipelineName == "" || job.JobName == "" {
		return restapi.TrainingJob{}, ErrMissingFields
	}

	job.Status = restapi.JobQueued
	job.Progress = 0
	return frontend.storage.CreateTrainingJob(job)
}

func (frontend *Frontend) deployBot(deployment restapi.BotDeployment) (restapi.Bot, error) {
	if deployment.UserId == "" || deployment.BotName == "" || deployment.TelegramToken == "" {
		return restapi.Bot{}, ErrMissingFields
	}

	// Only the redacted hint is ever persisted.
	return frontend.storage.DeployBot(restapi.Bot{
		UserId:            deployment.UserId,
		BotName:           deployment.BotName,
		BotType:           deployment.BotType,
		TelegramTokenHint: restapi.TokenHint(deployment.TelegramToken),
		Model:             deployment.Model,
		Status:            restapi.BotLive,
	})
}
