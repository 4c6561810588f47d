/*
 *  Copyright (c) 2025 Trainava Labs, Inc. All Rights Reserved.
 */
package catalog

import (
	"context"
	"sync"

	"github.com/trainava-labs/trainava/pkg/errors"
	"github.com/trainava-labs/trainava/pkg/restapi"
)

var (
	ErrUnknownCollection = errors.New("catalog: unknown collection")
)

type Collection string

const (
	CollectionCurated     Collection = "curated"
	CollectionMarketplace Collection = "marketplace"
	CollectionOwned       Collection = "owned"
)

var collections = []Collection{CollectionCurated, CollectionMarketplace, CollectionOwned}

// Source provides the community listings. The curated collection never
// touches the source.
type Source interface {
	GetAvailableGpusWithContext(ctx context.Context, excludeOwnerId string) ([]restapi.Gpu, error)
	GetOwnedAvailableGpusWithContext(ctx context.Context, ownerId string) ([]restapi.Gpu, error)
}

// Catalog holds the three GPU collections a user browses for rent: the
// curated platform units, the community marketplace and their own listed
// hardware. Each collection keeps both the raw fetch result and the view
// filtered through the shared Criteria.
type Catalog struct {
	mutex sync.Mutex

	source   Source
	criteria *Criteria
	userId   string

	raw      map[Collection][]restapi.Gpu
	filtered map[Collection][]restapi.Gpu
	loading  map[Collection]bool

	// sequence numbers make overlapping fetches safe: a response only
	// lands if no newer fetch for the same collection was issued.
	sequence map[Collection]uint64
}

func New(source Source, criteria *Criteria, userId string) *Catalog {
	return &Catalog{
		source:   source,
		criteria: criteria,
		userId:   userId,
		raw:      map[Collection][]restapi.Gpu{},
		filtered: map[Collection][]restapi.Gpu{},
		loading:  map[Collection]bool{},
		sequence: map[Collection]uint64{},
	}
}

// Fetch reloads one collection. When fetches overlap, the one issued last
// wins and earlier in-flight results are discarded on arrival.
func (catalog *Catalog) Fetch(ctx context.Context, collection Collection) error {
	catalog.mutex.Lock()
	catalog.sequence[collection]++
	sequence := catalog.sequence[collection]
	catalog.loading[collection] = true
	catalog.mutex.Unlock()

	var gpus []restapi.Gpu
	var err error

	switch collection {
	case CollectionCurated:
		gpus = CuratedGpus()
	case CollectionMarketplace:
		gpus, err = catalog.source.GetAvailableGpusWithContext(ctx, catalog.userId)
	case CollectionOwned:
		gpus, err = catalog.source.GetOwnedAvailableGpusWithContext(ctx, catalog.userId)
	default:
		catalog.mutex.Lock()
		catalog.loading[collection] = false
		catalog.mutex.Unlock()
		return ErrUnknownCollection
	}

	catalog.mutex.Lock()
	defer catalog.mutex.Unlock()

	if catalog.sequence[collection] != sequence {
		// A newer fetch was issued for this collection, this result is stale.
		return nil
	}

	catalog.loading[collection] = false

	if err != nil {
		catalog.raw[collection] = nil
		catalog.filtered[collection] = nil
		return err
	}

	catalog.raw[collection] = gpus
	catalog.filtered[collection] = catalog.criteria.Apply(gpus)
	return nil
}

// FetchAll reloads every collection and reports all failures.
func (catalog *Catalog) FetchAll(ctx context.Context) error {
	var errs []error
	for _, collection := range collections {
		if err := catalog.Fetch(ctx, collection); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// Gpus returns the filtered view of a collection.
func (catalog *Catalog) Gpus(collection Collection) []restapi.Gpu {
	catalog.mutex.Lock()
	defer catalog.mutex.Unlock()

	gpus := make([]restapi.Gpu, len(catalog.filtered[collection]))
	copy(gpus, catalog.filtered[collection])
	return gpus
}

func (catalog *Catalog) Loading(collection Collection) bool {
	catalog.mutex.Lock()
	defer catalog.mutex.Unlock()

	return catalog.loading[collection]
}

// RefreshFiltered reapplies the criteria to the already fetched raw lists.
// No network traffic happens, so criteria changes are instant.
func (catalog *Catalog) RefreshFiltered() {
	catalog.mutex.Lock()
	defer catalog.mutex.Unlock()

	for _, collection := range collections {
		if catalog.raw[collection] != nil {
			catalog.filtered[collection] = catalog.criteria.Apply(catalog.raw[collection])
		}
	}
}

// IncrementCuratedRentalCount bumps the simulated rental counter of a
// curated unit. Unknown ids are ignored.
func (catalog *Catalog) IncrementCuratedRentalCount(id string) {
	catalog.mutex.Lock()
	defer catalog.mutex.Unlock()

	for index := range catalog.raw[CollectionCurated] {
		if catalog.raw[CollectionCurated][index].Id == id {
			catalog.raw[CollectionCurated][index].RentalCount++
		}
	}

	for index := range catalog.filtered[CollectionCurated] {
		if catalog.filtered[CollectionCurated][index].Id == id {
			catalog.filtered[CollectionCurated][index].RentalCount++
		}
	}
}

// CuratedRentalCount reports the current simulated counter of a curated
// unit from the raw collection.
func (catalog *Catalog) CuratedRentalCount(id string) (int, bool) {
	catalog.mutex.Lock()
	defer catalog.mutex.Unlock()

	for _, gpu := range catalog.raw[CollectionCurated] {
		if gpu.Id == id {
			return gpu.RentalCount, true
		}
	}

	return 0, false
}
