/*
 *  Copyright (c) 2025 Trainava Labs, Inc. All Rights Reserved.
 */
package rental

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/trainava-labs/trainava/pkg/catalog"
	"github.com/trainava-labs/trainava/pkg/errors"
	"github.com/trainava-labs/trainava/pkg/logger"
	"github.com/trainava-labs/trainava/pkg/restapi"
	"github.com/trainava-labs/trainava/pkg/training"
)

const (
	MinimumHours = 1
	MaximumHours = 24
)

var (
	ErrNotRentable = errors.New("rental: gpu is not available for rent")
	ErrNoSelection = errors.New("rental: no gpu selected")
	ErrBusy        = errors.New("rental: a rental is already being submitted")
)

type State int

const (
	StateIdle State = iota
	StateConfirmationPending
	StateSubmitting
	StateCompleted
)

func (state State) String() string {
	switch state {
	case StateIdle:
		return "idle"
	case StateConfirmationPending:
		return "confirmation-pending"
	case StateSubmitting:
		return "submitting"
	case StateCompleted:
		return "completed"
	}
	panic(fmt.Sprintf("invalid State, %d", state))
}

// Store is the slice of the controller API the coordinator needs.
type Store interface {
	CreateRentalWithContext(ctx context.Context, rental restapi.Rental) (restapi.Rental, error)
}

// Coordinator owns the select-confirm-submit flow of renting a GPU. When
// the flow was entered from the training page it carries a draft id and
// produces a Handoff on completion so the deferred job can resume.
type Coordinator struct {
	mutex sync.Mutex

	store    Store
	catalog  *catalog.Catalog
	drafts   *training.DraftStore
	renterId string

	state   State
	gpu     restapi.Gpu
	hours   int
	draftId string
}

func NewCoordinator(store Store, catalog *catalog.Catalog, drafts *training.DraftStore, renterId string) *Coordinator {
	return &Coordinator{
		store:    store,
		catalog:  catalog,
		drafts:   drafts,
		renterId: renterId,
		state:    StateIdle,
	}
}

func (coordinator *Coordinator) State() State {
	coordinator.mutex.Lock()
	defer coordinator.mutex.Unlock()

	return coordinator.state
}

// AttachDraft links a deferred training job to the next completed rental.
func (coordinator *Coordinator) AttachDraft(draftId string) {
	coordinator.mutex.Lock()
	defer coordinator.mutex.Unlock()

	coordinator.draftId = draftId
}

// Select opens the confirmation step for a GPU. Units that are rented out
// or busy training are rejected.
func (coordinator *Coordinator) Select(gpu restapi.Gpu) error {
	if gpu.Status == restapi.GpuRentedOut || gpu.Status == restapi.GpuActiveTraining {
		return ErrNotRentable
	}

	coordinator.mutex.Lock()
	defer coordinator.mutex.Unlock()

	if coordinator.state == StateSubmitting {
		return ErrBusy
	}

	coordinator.state = StateConfirmationPending
	coordinator.gpu = gpu
	coordinator.hours = MinimumHours
	return nil
}

// SetHours sets the rental duration, clamped to the allowed range, and
// returns the applied value.
func (coordinator *Coordinator) SetHours(hours int) int {
	if hours < MinimumHours {
		hours = MinimumHours
	} else if hours > MaximumHours {
		hours = MaximumHours
	}

	coordinator.mutex.Lock()
	defer coordinator.mutex.Unlock()

	if coordinator.state == StateConfirmationPending {
		coordinator.hours = hours
	}

	return hours
}

func (coordinator *Coordinator) Hours() int {
	coordinator.mutex.Lock()
	defer coordinator.mutex.Unlock()

	return coordinator.hours
}

// EstimatedCost is the fixed total the renter will be charged: hourly rate
// times the selected duration.
func (coordinator *Coordinator) EstimatedCost() float64 {
	coordinator.mutex.Lock()
	defer coordinator.mutex.Unlock()

	if coordinator.state != StateConfirmationPending {
		return 0
	}

	return coordinator.gpu.RentalRateHourly * float64(coordinator.hours)
}

// Cancel abandons the confirmation step.
func (coordinator *Coordinator) Cancel() {
	coordinator.mutex.Lock()
	defer coordinator.mutex.Unlock()

	if coordinator.state == StateConfirmationPending {
		coordinator.state = StateIdle
		coordinator.gpu = restapi.Gpu{}
		coordinator.hours = 0
	}
}

// Confirm submits the rental. On success the marketplace collections are
// refreshed and, when a draft is attached, the returned Handoff resumes
// the deferred training job. Without a draft the Handoff is nil.
func (coordinator *Coordinator) Confirm(ctx context.Context) (*training.Handoff, error) {
	coordinator.mutex.Lock()
	if coordinator.state != StateConfirmationPending {
		state := coordinator.state
		coordinator.mutex.Unlock()

		if state == StateSubmitting {
			return nil, ErrBusy
		}
		return nil, ErrNoSelection
	}

	coordinator.state = StateSubmitting
	gpu := coordinator.gpu
	hours := coordinator.hours
	coordinator.mutex.Unlock()

	ownerId := gpu.OwnerId
	if gpu.Curated || ownerId == "" {
		ownerId = restapi.PlatformOwnerId
	}

	rental, err := coordinator.store.CreateRentalWithContext(ctx, restapi.Rental{
		GpuId:     gpu.Id,
		RenterId:  coordinator.renterId,
		OwnerId:   ownerId,
		StartTime: time.Now().UTC(),
		Hours:     hours,
		TotalCost: gpu.RentalRateHourly * float64(hours),
		Status:    restapi.RentalActive,
	})
	if err != nil {
		// A failed submit ends the attempt. Renting again starts over
		// from selection.
		coordinator.mutex.Lock()
		coordinator.state = StateIdle
		coordinator.gpu = restapi.Gpu{}
		coordinator.hours = 0
		coordinator.mutex.Unlock()
		return nil, err
	}

	if gpu.Curated {
		coordinator.catalog.IncrementCuratedRentalCount(gpu.Id)
	} else {
		// Community listings changed on the server, reload them. The
		// curated collection is static and keeps its counters.
		if err := coordinator.catalog.Fetch(ctx, catalog.CollectionMarketplace); err != nil {
			logger.Warningf("failed to refresh marketplace after rental: %v", err)
		}
		if err := coordinator.catalog.Fetch(ctx, catalog.CollectionOwned); err != nil {
			logger.Warningf("failed to refresh owned listings after rental: %v", err)
		}
	}

	gpuName := gpu.Name
	if gpuName == "" {
		gpuName = gpu.Model
	}

	var handoff *training.Handoff

	coordinator.mutex.Lock()
	draftId := coordinator.draftId
	coordinator.draftId = ""
	coordinator.state = StateCompleted
	coordinator.gpu = restapi.Gpu{}
	coordinator.hours = 0
	coordinator.mutex.Unlock()

	if draftId != "" {
		if draft, ok := coordinator.drafts.Take(draftId); ok {
			handoff = &training.Handoff{
				DraftId:        draftId,
				RentedGpuId:    rental.Id,
				RentedGpuName:  gpuName,
				RentalDuration: hours,
				Draft:          draft,
			}
		} else {
			logger.Warningf("draft %s is gone, rental %s completes without a handoff", draftId, rental.Id)
		}
	}

	logger.Infof("rental %s confirmed for gpu %s (%d hours)", rental.Id, gpu.Id, hours)
	return handoff, nil
}

// Reset returns a completed coordinator to idle so another rental can
// start.
func (coordinator *Coordinator) Reset() {
	coordinator.mutex.Lock()
	defer coordinator.mutex.Unlock()

	if coordinator.state == StateCompleted {
		coordinator.state = StateIdle
	}
}
