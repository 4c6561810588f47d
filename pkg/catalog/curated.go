/*
 *  Copyright (c) 2025 Trainava Labs, Inc. All Rights Reserved.
 */
package catalog

import (
	"github.com/trainava-labs/trainava/pkg/restapi"
)

// curatedTemplate is the fixed set of platform-operated units shown on the
// curated tab. Rental counts are simulated and only ever change in memory.
var curatedTemplate = []restapi.Gpu{
	{
		Id:               "trainava-gpu-rtx4090-01",
		OwnerId:          restapi.PlatformOwnerId,
		Name:             "Trainava Titan RTX 4090",
		Model:            "RTX 4090",
		Vram:             "24GB GDDR6X",
		PowerScore:       14500,
		RentalRateHourly: 1.50,
		Status:           restapi.GpuAvailableForRent,
		Curated:          true,
		RentalCount:      3,
	},
	{
		Id:               "trainava-gpu-a100-01",
		OwnerId:          restapi.PlatformOwnerId,
		Name:             "Trainava Pro A100",
		Model:            "A100",
		Vram:             "80GB HBM2e",
		PowerScore:       13500,
		RentalRateHourly: 2.00,
		Status:           restapi.GpuAvailableForRent,
		Curated:          true,
		RentalCount:      1,
	},
	{
		Id:               "trainava-gpu-rtx3070-01",
		OwnerId:          restapi.PlatformOwnerId,
		Name:             "Trainava Swift RTX 3070",
		Model:            "RTX 3070",
		Vram:             "8GB GDDR6",
		PowerScore:       9500,
		RentalRateHourly: 0.75,
		Status:           restapi.GpuAvailableForRent,
		Curated:          true,
		RentalCount:      5,
	},
}

// CuratedGpus returns a fresh copy of the curated units so every load
// starts from the template counts.
func CuratedGpus() []restapi.Gpu {
	gpus := make([]restapi.Gpu, len(curatedTemplate))
	copy(gpus, curatedTemplate)
	return gpus
}
