/*
 *  Copyright (c) 2025 Trainava Labs, Inc. All Rights Reserved.
 */
package rental

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trainava-labs/trainava/pkg/catalog"
	"github.com/trainava-labs/trainava/pkg/errors"
	"github.com/trainava-labs/trainava/pkg/restapi"
	"github.com/trainava-labs/trainava/pkg/training"
)

type fakeStore struct {
	rentals []restapi.Rental
	fail    error
}

func (store *fakeStore) CreateRentalWithContext(ctx context.Context, rental restapi.Rental) (restapi.Rental, error) {
	if store.fail != nil {
		return restapi.Rental{}, store.fail
	}

	rental.Id = "rental-1"
	store.rentals = append(store.rentals, rental)
	return rental, nil
}

type fakeSource struct {
	calls int
}

func (source *fakeSource) GetAvailableGpusWithContext(ctx context.Context, excludeOwnerId string) ([]restapi.Gpu, error) {
	source.calls++
	return nil, nil
}

func (source *fakeSource) GetOwnedAvailableGpusWithContext(ctx context.Context, ownerId string) ([]restapi.Gpu, error) {
	source.calls++
	return nil, nil
}

func newCoordinator() (*Coordinator, *fakeStore, *fakeSource, *training.DraftStore) {
	store := &fakeStore{}
	source := &fakeSource{}
	drafts := training.NewDraftStore()
	cat := catalog.New(source, catalog.NewCriteria(0, 10), "renter-1")
	return NewCoordinator(store, cat, drafts, "renter-1"), store, source, drafts
}

func ownedGpu() restapi.Gpu {
	return restapi.Gpu{
		Id:               "gpu-1",
		OwnerId:          "owner-1",
		Name:             "Community RTX 4090",
		Model:            "RTX 4090",
		RentalRateHourly: 1.50,
		Status:           restapi.GpuAvailableForRent,
	}
}

func TestSelectRejectsBusyUnits(t *testing.T) {
	coordinator, _, _, _ := newCoordinator()

	gpu := ownedGpu()
	gpu.Status = restapi.GpuRentedOut
	require.ErrorIs(t, coordinator.Select(gpu), ErrNotRentable)

	gpu.Status = restapi.GpuActiveTraining
	require.ErrorIs(t, coordinator.Select(gpu), ErrNotRentable)

	assert.Equal(t, StateIdle, coordinator.State())
}

func TestSelectDefaultsToOneHour(t *testing.T) {
	coordinator, _, _, _ := newCoordinator()

	require.NoError(t, coordinator.Select(ownedGpu()))
	assert.Equal(t, StateConfirmationPending, coordinator.State())
	assert.Equal(t, 1, coordinator.Hours())
	assert.Equal(t, 1.50, coordinator.EstimatedCost())
}

func TestSetHoursClamps(t *testing.T) {
	coordinator, _, _, _ := newCoordinator()
	require.NoError(t, coordinator.Select(ownedGpu()))

	assert.Equal(t, 1, coordinator.SetHours(0))
	assert.Equal(t, 1, coordinator.SetHours(-5))
	assert.Equal(t, 24, coordinator.SetHours(30))
	assert.Equal(t, 24, coordinator.Hours())
	assert.Equal(t, 12, coordinator.SetHours(12))
}

func TestConfirmOwnedGpu(t *testing.T) {
	coordinator, store, source, _ := newCoordinator()

	require.NoError(t, coordinator.Select(ownedGpu()))
	coordinator.SetHours(3)
	assert.Equal(t, 4.50, coordinator.EstimatedCost())

	handoff, err := coordinator.Confirm(context.Background())
	require.NoError(t, err)
	assert.Nil(t, handoff)
	assert.Equal(t, StateCompleted, coordinator.State())

	require.Len(t, store.rentals, 1)
	rental := store.rentals[0]
	assert.Equal(t, "gpu-1", rental.GpuId)
	assert.Equal(t, "renter-1", rental.RenterId)
	assert.Equal(t, "owner-1", rental.OwnerId)
	assert.Equal(t, 3, rental.Hours)
	assert.Equal(t, 4.50, rental.TotalCost)
	assert.Equal(t, restapi.RentalActive, rental.Status)

	// Community listings are reloaded after the rental.
	assert.Equal(t, 2, source.calls)

	coordinator.Reset()
	assert.Equal(t, StateIdle, coordinator.State())
}

func TestConfirmCuratedGpu(t *testing.T) {
	coordinator, store, source, _ := newCoordinator()
	require.NoError(t, coordinator.catalog.Fetch(context.Background(), catalog.CollectionCurated))

	curated := coordinator.catalog.Gpus(catalog.CollectionCurated)[0]
	before, ok := coordinator.catalog.CuratedRentalCount(curated.Id)
	require.True(t, ok)

	require.NoError(t, coordinator.Select(curated))
	_, err := coordinator.Confirm(context.Background())
	require.NoError(t, err)

	require.Len(t, store.rentals, 1)
	assert.Equal(t, restapi.PlatformOwnerId, store.rentals[0].OwnerId)

	after, ok := coordinator.catalog.CuratedRentalCount(curated.Id)
	require.True(t, ok)
	assert.Equal(t, before+1, after)

	// Curated rentals touch nothing on the server side of the catalog.
	assert.Equal(t, 0, source.calls)
}

func TestConfirmWithDraftProducesHandoff(t *testing.T) {
	coordinator, _, _, drafts := newCoordinator()

	draftId := drafts.Put(training.JobDraft{
		PipelineId:   "img-gen",
		PipelineName: "Image Generation Fine-Tune",
		JobName:      "my-style-model",
		Config:       map[string]string{"baseModel": "sdxl-1.0"},
	})
	coordinator.AttachDraft(draftId)

	require.NoError(t, coordinator.Select(ownedGpu()))
	coordinator.SetHours(2)

	handoff, err := coordinator.Confirm(context.Background())
	require.NoError(t, err)
	require.NotNil(t, handoff)

	assert.Equal(t, draftId, handoff.DraftId)
	assert.Equal(t, "rental-1", handoff.RentedGpuId)
	assert.Equal(t, "Community RTX 4090", handoff.RentedGpuName)
	assert.Equal(t, 2, handoff.RentalDuration)
	assert.Equal(t, "my-style-model", handoff.Draft.JobName)

	// The draft is consumed by the handoff.
	assert.Equal(t, 0, drafts.Len())
}

func TestConfirmFailureReturnsToIdle(t *testing.T) {
	coordinator, store, _, _ := newCoordinator()
	store.fail = errors.New("connection refused")

	require.NoError(t, coordinator.Select(ownedGpu()))
	coordinator.SetHours(4)

	_, err := coordinator.Confirm(context.Background())
	require.Error(t, err)

	// The attempt is over, the selection is gone.
	assert.Equal(t, StateIdle, coordinator.State())
	assert.Equal(t, 0, coordinator.Hours())

	_, err = coordinator.Confirm(context.Background())
	require.ErrorIs(t, err, ErrNoSelection)

	// Renting again starts a fresh attempt from selection.
	store.fail = nil
	require.NoError(t, coordinator.Select(ownedGpu()))
	coordinator.SetHours(4)
	_, err = coordinator.Confirm(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, store.rentals[0].Hours)
}

func TestConfirmWithoutSelection(t *testing.T) {
	coordinator, _, _, _ := newCoordinator()

	_, err := coordinator.Confirm(context.Background())
	require.ErrorIs(t, err, ErrNoSelection)
}

func TestCancelReturnsToIdle(t *testing.T) {
	coordinator, store, _, _ := newCoordinator()

	require.NoError(t, coordinator.Select(ownedGpu()))
	coordinator.Cancel()

	assert.Equal(t, StateIdle, coordinator.State())
	assert.Empty(t, store.rentals)

	_, err := coordinator.Confirm(context.Background())
	require.ErrorIs(t, err, ErrNoSelection)
}
