/*
 *  Copyright (c) 2025 Trainava Labs, Inc. All Rights Reserved.
 */
package catalog

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trainava-labs/trainava/pkg/restapi"
)

func gpu(id string, name string, model string, rate float64, power float64) restapi.Gpu {
	return restapi.Gpu{
		Id:               id,
		Name:             name,
		Model:            model,
		RentalRateHourly: rate,
		PowerScore:       power,
		Status:           restapi.GpuAvailableForRent,
	}
}

func TestCriteriaApplyIsPure(t *testing.T) {
	criteria := NewCriteria(0, 10)
	criteria.SetSearchTerm("rtx")

	input := []restapi.Gpu{
		gpu("a", "Trainava Titan RTX 4090", "RTX 4090", 1.50, 14500),
		gpu("b", "Pro A100", "A100", 2.00, 13500),
		gpu("c", "Swift RTX 3070", "RTX 3070", 0.75, 9500),
	}
	snapshot := make([]restapi.Gpu, len(input))
	copy(snapshot, input)

	matches := criteria.Apply(input)

	require.Len(t, matches, 2)
	assert.Equal(t, "a", matches[0].Id)
	assert.Equal(t, "c", matches[1].Id)
	assert.Equal(t, snapshot, input, "Apply must not modify its input")
}

func TestCriteriaSearchIsCaseInsensitive(t *testing.T) {
	criteria := NewCriteria(0, 10)
	criteria.SetSearchTerm("A100")

	matches := criteria.Apply([]restapi.Gpu{
		gpu("a", "pro a100", "a100", 2.00, 13500),
		gpu("b", "", "", 1.00, 0),
	})

	require.Len(t, matches, 1)
	assert.Equal(t, "a", matches[0].Id)
}

func TestCriteriaPriceBoundsAreInclusive(t *testing.T) {
	criteria := NewCriteria(0.1, 1.0)

	matches := criteria.Apply([]restapi.Gpu{
		gpu("low", "Low", "L", 0.1, 0),
		gpu("high", "High", "H", 1.0, 0),
		gpu("above", "Above", "A", 2.00, 0),
		gpu("below", "Below", "B", 0.05, 0),
	})

	require.Len(t, matches, 2)
	assert.Equal(t, "low", matches[0].Id)
	assert.Equal(t, "high", matches[1].Id)
}

func TestCriteriaMinPowerScore(t *testing.T) {
	criteria := NewCriteria(0, 10)
	criteria.SetMinPowerScore(10000)

	matches := criteria.Apply([]restapi.Gpu{
		gpu("strong", "Strong", "S", 1.00, 14500),
		gpu("weak", "Weak", "W", 1.00, 9500),
		gpu("unscored", "Unscored", "U", 1.00, 0),
	})

	require.Len(t, matches, 1)
	assert.Equal(t, "strong", matches[0].Id)

	// Zero means no floor at all.
	criteria.SetMinPowerScore(0)
	assert.Len(t, criteria.Apply([]restapi.Gpu{gpu("unscored", "Unscored", "U", 1.00, 0)}), 1)
}

func TestCriteriaSwapsInvertedRange(t *testing.T) {
	criteria := NewCriteria(0, 10)
	criteria.SetPriceRange(5, 1)

	_, minimum, maximum, _ := criteria.Snapshot()
	assert.Equal(t, 1.0, minimum)
	assert.Equal(t, 5.0, maximum)
}

type fakeSource struct {
	mutex sync.Mutex

	available [][]restapi.Gpu
	owned     []restapi.Gpu
	calls     int

	// When set, the first call reports on started and stalls until release.
	started chan struct{}
	release chan struct{}
}

func (source *fakeSource) GetAvailableGpusWithContext(ctx context.Context, excludeOwnerId string) ([]restapi.Gpu, error) {
	source.mutex.Lock()
	source.calls++
	call := source.calls

	var gpus []restapi.Gpu
	if len(source.available) > 0 {
		gpus = source.available[0]
		if len(source.available) > 1 {
			source.available = source.available[1:]
		}
	}
	source.mutex.Unlock()

	if call == 1 && source.started != nil {
		source.started <- struct{}{}
		<-source.release
	}

	return gpus, nil
}

func (source *fakeSource) GetOwnedAvailableGpusWithContext(ctx context.Context, ownerId string) ([]restapi.Gpu, error) {
	return source.owned, nil
}

func TestFetchPopulatesCollections(t *testing.T) {
	source := &fakeSource{
		available: [][]restapi.Gpu{{gpu("a", "A", "A", 1.00, 100)}},
		owned:     []restapi.Gpu{gpu("b", "B", "B", 2.00, 200)},
	}

	cat := New(source, NewCriteria(0, 10), "user-1")
	require.NoError(t, cat.FetchAll(context.Background()))

	assert.Len(t, cat.Gpus(CollectionCurated), 3)
	assert.Len(t, cat.Gpus(CollectionMarketplace), 1)
	assert.Len(t, cat.Gpus(CollectionOwned), 1)
	assert.False(t, cat.Loading(CollectionMarketplace))
}

func TestFetchLastRequestWins(t *testing.T) {
	source := &fakeSource{
		available: [][]restapi.Gpu{
			{gpu("stale", "Stale", "S", 1.00, 100)},
			{gpu("fresh", "Fresh", "F", 2.00, 200)},
		},
		started: make(chan struct{}),
		release: make(chan struct{}),
	}

	cat := New(source, NewCriteria(0, 10), "user-1")

	// The first fetch stalls in flight.
	var wait sync.WaitGroup
	wait.Add(1)
	go func() {
		defer wait.Done()
		cat.Fetch(context.Background(), CollectionMarketplace)
	}()
	<-source.started

	// The second fetch completes while the first is still in flight.
	require.NoError(t, cat.Fetch(context.Background(), CollectionMarketplace))

	// Now let the first, stale response arrive.
	source.release <- struct{}{}

	wait.Wait()

	// The stale first response must not have overwritten the fresh one.
	gpus := cat.Gpus(CollectionMarketplace)
	require.Len(t, gpus, 1)
	assert.Equal(t, "fresh", gpus[0].Id)
	assert.False(t, cat.Loading(CollectionMarketplace))
}

func TestRefreshFilteredIsLocal(t *testing.T) {
	source := &fakeSource{
		available: [][]restapi.Gpu{{
			gpu("cheap", "Cheap", "C", 0.75, 100),
			gpu("pricey", "Pricey", "P", 2.00, 200),
		}},
	}

	criteria := NewCriteria(0, 10)
	cat := New(source, criteria, "user-1")
	require.NoError(t, cat.Fetch(context.Background(), CollectionMarketplace))
	require.Len(t, cat.Gpus(CollectionMarketplace), 2)

	calls := source.calls
	criteria.SetPriceRange(0.1, 1.0)
	cat.RefreshFiltered()

	gpus := cat.Gpus(CollectionMarketplace)
	require.Len(t, gpus, 1)
	assert.Equal(t, "cheap", gpus[0].Id)
	assert.Equal(t, calls, source.calls, "refiltering must not hit the network")
}

func TestCuratedRentalCounter(t *testing.T) {
	cat := New(&fakeSource{}, NewCriteria(0, 10), "user-1")
	require.NoError(t, cat.Fetch(context.Background(), CollectionCurated))

	before, ok := cat.CuratedRentalCount("trainava-gpu-rtx4090-01")
	require.True(t, ok)

	cat.IncrementCuratedRentalCount("trainava-gpu-rtx4090-01")
	cat.IncrementCuratedRentalCount("trainava-gpu-rtx4090-01")

	after, ok := cat.CuratedRentalCount("trainava-gpu-rtx4090-01")
	require.True(t, ok)
	assert.Equal(t, before+2, after)

	// Unknown ids change nothing.
	cat.IncrementCuratedRentalCount("no-such-gpu")
	_, ok = cat.CuratedRentalCount("no-such-gpu")
	assert.False(t, ok)

	// A fresh fetch clones the template again.
	require.NoError(t, cat.Fetch(context.Background(), CollectionCurated))
	reset, ok := cat.CuratedRentalCount("trainava-gpu-rtx4090-01")
	require.True(t, ok)
	assert.Equal(t, before, reset)
}

func TestCuratedGpusAreCopies(t *testing.T) {
	first := CuratedGpus()
	first[0].RentalCount += 10

	second := CuratedGpus()
	assert.NotEqual(t, first[0].RentalCount, second[0].RentalCount)
}
