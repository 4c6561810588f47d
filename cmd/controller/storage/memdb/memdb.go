/*
 *  Copyright (c) 2025 Trainava Labs, Inc. All Rights Reserved.
 */
package memdb

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-memdb"

	"github.com/trainava-labs/trainava/cmd/controller/storage"
	"github.com/trainava-labs/trainava/pkg/restapi"
	"github.com/trainava-labs/trainava/pkg/utilities"
)

type Gpu struct {
	restapi.Gpu

	Created int64
}

type Rental struct {
	restapi.Rental

	Created int64
}

type TrainingJob struct {
	restapi.TrainingJob

	Created int64
}

type Bot struct {
	restapi.Bot

	Created int64
}

type CreditBalance struct {
	UserId  string
	Balance int64
}

type storageDriver struct {
	ctx context.Context
	db  *memdb.MemDB
}

func OpenStorage(ctx context.Context) (storage.Storage, error) {
	schema := &memdb.DBSchema{
		Tables: map[string]*memdb.TableSchema{
			"gpus": {
				Name: "gpus",
				Indexes: map[string]*memdb.IndexSchema{
					"id": {
						Name:    "id",
						Unique:  true,
						Indexer: &memdb.StringFieldIndex{Field: "Id"},
					},
					"owner": {
						Name:    "owner",
						Unique:  false,
						Indexer: &memdb.StringFieldIndex{Field: "OwnerId"},
					},
					"status": {
						Name:    "status",
						Unique:  false,
						Indexer: &memdb.StringFieldIndex{Field: "Status"},
					},
				},
			},
			"rentals": {
				Name: "rentals",
				Indexes: map[string]*memdb.IndexSchema{
					"id": {
						Name:    "id",
						Unique:  true,
						Indexer: &memdb.StringFieldIndex{Field: "Id"},
					},
					"renter": {
						Name:    "renter",
						Unique:  false,
						Indexer: &memdb.StringFieldIndex{Field: "RenterId"},
					},
				},
			},
			"jobs": {
				Name: "jobs",
				Indexes: map[string]*memdb.IndexSchema{
					"id": {
						Name:    "id",
						Unique:  true,
						Indexer: &memdb.StringFieldIndex{Field: "Id"},
					},
					"user": {
						Name:    "user",
						Unique:  false,
						Indexer: &memdb.StringFieldIndex{Field: "UserId"},
					},
				},
			},
			"bots": {
				Name: "bots",
				Indexes: map[string]*memdb.IndexSchema{
					"id": {
						Name:    "id",
						Unique:  true,
						Indexer: &memdb.StringFieldIndex{Field: "Id"},
					},
					"user": {
						Name:    "user",
						Unique:  false,
						Indexer: &memdb.StringFieldIndex{Field: "UserId"},
					},
				},
			},
			"credits": {
				Name: "credits",
				Indexes: map[string]*memdb.IndexSchema{
					"id": {
						Name:    "id",
						Unique:  true,
						Indexer: &memdb.StringFieldIndex{Field: "UserId"},
					},
				},
			},
		},
	}

	db, err := memdb.NewMemDB(schema)
	if err != nil {
		return nil, err
	}

	return &storageDriver{
		ctx: ctx,
		db:  db,
	}, nil
}

func (driver *storageDriver) Close() error {
	return nil
}

func (driver *storageDriver) AggregateData() (storage.AggregatedData, error) {
	data := storage.AggregatedData{
		GpusByStatus:         map[string]int{},
		RentalsByStatus:      map[string]int{},
		TrainingJobsByStatus: map[string]int{},
		BotsByStatus:         map[string]int{},
	}

	txn := driver.db.Txn(false)
	defer txn.Abort()

	iterator, err := txn.Get("gpus", "id")
	if err != nil {
		return storage.AggregatedData{}, err
	}
	for obj := iterator.Next(); obj != nil; obj = iterator.Next() {
		gpu := utilities.Require[*Gpu](obj)
		data.Gpus++
		data.GpusByStatus[gpu.Status]++
	}

	iterator, err = txn.Get("rentals", "id")
	if err != nil {
		return storage.AggregatedData{}, err
	}
	for obj := iterator.Next(); obj != nil; obj = iterator.Next() {
		rental := utilities.Require[*Rental](obj)
		data.Rentals++
		data.RentalsByStatus[rental.Status]++
	}

	iterator, err = txn.Get("jobs", "id")
	if err != nil {
		return storage.AggregatedData{}, err
	}
	for obj := iterator.Next(); obj != nil; obj = iterator.Next() {
		job := utilities.Require[*TrainingJob](obj)
		data.TrainingJobs++
		data.TrainingJobsByStatus[job.Status]++
	}

	iterator, err = txn.Get("bots", "id")
	if err != nil {
		return storage.AggregatedData{}, err
	}
	for obj := iterator.Next(); obj != nil; obj = iterator.Next() {
		bot := utilities.Require[*Bot](obj)
		data.Bots++
		data.BotsByStatus[bot.Status]++
	}

	iterator, err = txn.Get("credits", "id")
	if err != nil {
		return storage.AggregatedData{}, err
	}
	for obj := iterator.Next(); obj != nil; obj = iterator.Next() {
		data.CreditsIssued += utilities.Require[*CreditBalance](obj).Balance
	}

	return data, nil
}

func (driver *storageDriver) PurchaseGpu(gpu restapi.Gpu, credits int64) (restapi.Gpu, error) {
	gpu.Id = uuid.NewString()
	if gpu.Status == "" {
		gpu.Status = restapi.GpuIdle
	}
	if gpu.PurchasedAt.IsZero() {
		gpu.PurchasedAt = time.Now().UTC()
	}

	txn := driver.db.Txn(true)
	defer txn.Abort()

	err := txn.Insert("gpus", &Gpu{
		Gpu:     gpu,
		Created: time.Now().UnixNano(),
	})
	if err != nil {
		return restapi.Gpu{}, err
	}

	if credits != 0 {
		if _, err = incrementCredits(txn, gpu.OwnerId, credits); err != nil {
			return restapi.Gpu{}, err
		}
	}

	txn.Commit()
	return gpu, nil
}

func getGpu(txn *memdb.Txn, id string) (*Gpu, error) {
	obj, err := txn.First("gpus", "id", id)
	if err != nil {
		return nil, err
	}

	if obj == nil {
		return nil, storage.ErrNotFound
	}

	return utilities.Require[*Gpu](obj), nil
}

func (driver *storageDriver) GetGpuById(id string) (restapi.Gpu, error) {
	txn := driver.db.Txn(false)
	defer txn.Abort()

	gpu, err := getGpu(txn, id)
	if err != nil {
		return restapi.Gpu{}, err
	}

	return gpu.Gpu, nil
}

func collectGpus(iterator memdb.ResultIterator, match func(*Gpu) bool) []*Gpu {
	var gpus []*Gpu
	for obj := iterator.Next(); obj != nil; obj = iterator.Next() {
		gpu := utilities.Require[*Gpu](obj)
		if match == nil || match(gpu) {
			gpus = append(gpus, gpu)
		}
	}

	return gpus
}

func byCreatedDescending(gpus []*Gpu) []restapi.Gpu {
	sort.Slice(gpus, func(x, y int) bool {
		return gpus[x].Created > gpus[y].Created
	})

	results := make([]restapi.Gpu, 0, len(gpus))
	for _, gpu := range gpus {
		results = append(results, gpu.Gpu)
	}

	return results
}

func byRateAscending(gpus []*Gpu) []restapi.Gpu {
	sort.Slice(gpus, func(x, y int) bool {
		return gpus[x].RentalRateHourly < gpus[y].RentalRateHourly
	})

	results := make([]restapi.Gpu, 0, len(gpus))
	for _, gpu := range gpus {
		results = append(results, gpu.Gpu)
	}

	return results
}

func (driver *storageDriver) GetGpusByOwner(ownerId string) (storage.Iterator[restapi.Gpu], error) {
	txn := driver.db.Txn(false)
	defer txn.Abort()

	iterator, err := txn.Get("gpus", "owner", ownerId)
	if err != nil {
		return nil, err
	}

	return storage.NewDefaultIterator(byCreatedDescending(collectGpus(iterator, nil))), nil
}

func (driver *storageDriver) GetAvailableGpus(excludeOwnerId string) (storage.Iterator[restapi.Gpu], error) {
	txn := driver.db.Txn(false)
	defer txn.Abort()

	iterator, err := txn.Get("gpus", "status", restapi.GpuAvailableForRent)
	if err != nil {
		return nil, err
	}

	gpus := collectGpus(iterator, func(gpu *Gpu) bool {
		return gpu.OwnerId != excludeOwnerId
	})

	return storage.NewDefaultIterator(byRateAscending(gpus)), nil
}

func (driver *storageDriver) GetOwnedAvailableGpus(ownerId string) (storage.Iterator[restapi.Gpu], error) {
	txn := driver.db.Txn(false)
	defer txn.Abort()

	iterator, err := txn.Get("gpus", "owner", ownerId)
	if err != nil {
		return nil, err
	}

	gpus := collectGpus(iterator, func(gpu *Gpu) bool {
		return gpu.Status == restapi.GpuAvailableForRent
	})

	return storage.NewDefaultIterator(byRateAscending(gpus)), nil
}

func (driver *storageDriver) GetTrainableGpus(ownerId string) (storage.Iterator[restapi.Gpu], error) {
	txn := driver.db.Txn(false)
	defer txn.Abort()

	iterator, err := txn.Get("gpus", "owner", ownerId)
	if err != nil {
		return nil, err
	}

	gpus := collectGpus(iterator, func(gpu *Gpu) bool {
		return gpu.Status == restapi.GpuIdle || gpu.Status == restapi.GpuAvailableForRent
	})

	return storage.NewDefaultIterator(byCreatedDescending(gpus)), nil
}

func (driver *storageDriver) UpdateGpuStatus(id string, status string) error {
	txn := driver.db.Txn(true)
	defer txn.Abort()

	gpu, err := getGpu(txn, id)
	if err != nil {
		return err
	}

	updated := *gpu
	updated.Status = status
	if err = txn.Insert("gpus", &updated); err != nil {
		return err
	}

	txn.Commit()
	return nil
}

func (driver *storageDriver) SetGpuRentalSettings(id string, hourlyRate float64) error {
	txn := driver.db.Txn(true)
	defer txn.Abort()

	gpu, err := getGpu(txn, id)
	if err != nil {
		return err
	}

	// Setting a rate is listing the unit, the status flips with it.
	updated := *gpu
	updated.RentalRateHourly = hourlyRate
	updated.Status = restapi.GpuAvailableForRent
	if err = txn.Insert("gpus", &updated); err != nil {
		return err
	}

	txn.Commit()
	return nil
}

func (driver *storageDriver) DeleteGpu(id string) error {
	txn := driver.db.Txn(true)
	defer txn.Abort()

	gpu, err := getGpu(txn, id)
	if err != nil {
		return err
	}

	if err = txn.Delete("gpus", gpu); err != nil {
		return err
	}

	txn.Commit()
	return nil
}

func (driver *storageDriver) CreateRental(rental restapi.Rental) (restapi.Rental, error) {
	rental.Id = uuid.NewString()
	if rental.Status == "" {
		rental.Status = restapi.RentalActive
	}

	txn := driver.db.Txn(true)
	defer txn.Abort()

	if rental.OwnerId != restapi.PlatformOwnerId {
		gpu, err := getGpu(txn, rental.GpuId)
		if err != nil {
			return restapi.Rental{}, err
		}

		if gpu.Status != restapi.GpuAvailableForRent {
			return restapi.Rental{}, storage.ErrNotRentable
		}

		updated := *gpu
		updated.Status = restapi.GpuRentedOut
		if err = txn.Insert("gpus", &updated); err != nil {
			return restapi.Rental{}, err
		}
	}

	err := txn.Insert("rentals", &Rental{
		Rental:  rental,
		Created: time.Now().UnixNano(),
	})
	if err != nil {
		return restapi.Rental{}, err
	}

	txn.Commit()
	return rental, nil
}

func (driver *storageDriver) GetRentalById(id string) (restapi.Rental, error) {
	txn := driver.db.Txn(false)
	defer txn.Abort()

	obj, err := txn.First("rentals", "id", id)
	if err != nil {
		return restapi.Rental{}, err
	}

	if obj == nil {
		return restapi.Rental{}, storage.ErrNotFound
	}

	return utilities.Require[*Rental](obj).Rental, nil
}

func (driver *storageDriver) GetRentalsByRenter(renterId string) (storage.Iterator[restapi.Rental], error) {
	txn := driver.db.Txn(false)
	defer txn.Abort()

	iterator, err := txn.Get("rentals", "renter", renterId)
	if err != nil {
		return nil, err
	}

	var rentals []*Rental
	for obj := iterator.Next(); obj != nil; obj = iterator.Next() {
		rentals = append(rentals, utilities.Require[*Rental](obj))
	}

	sort.Slice(rentals, func(x, y int) bool {
		return rentals[x].Created > rentals[y].Created
	})

	results := make([]restapi.Rental, 0, len(rentals))
	for _, rental := range rentals {
		results = append(results, rental.Rental)
	}

	return storage.NewDefaultIterator(results), nil
}

func (driver *storageDriver) CreateTrainingJob(job restapi.TrainingJob) (restapi.TrainingJob, error) {
	job.Id = uuid.NewString()
	if job.Status == "" {
		job.Status = restapi.JobQueued
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now().UTC()
	}

	txn := driver.db.Txn(true)
	defer txn.Abort()

	if job.GpuId != "" {
		gpu, err := getGpu(txn, job.GpuId)
		if err != nil {
			return restapi.TrainingJob{}, err
		}

		if gpu.Status != restapi.GpuIdle && gpu.Status != restapi.GpuAvailableForRent {
			return restapi.TrainingJob{}, storage.ErrNotTrainable
		}

		updated := *gpu
		updated.Status = restapi.GpuActiveTraining
		if err = txn.Insert("gpus", &updated); err != nil {
			return restapi.TrainingJob{}, err
		}
	}

	err := txn.Insert("jobs", &TrainingJob{
		TrainingJob: job,
		Created:     time.Now().UnixNano(),
	})
	if err != nil {
		return restapi.TrainingJob{}, err
	}

	txn.Commit()
	return job, nil
}

func (driver *storageDriver) GetTrainingJobsByUser(userId string, limit int) (storage.Iterator[restapi.TrainingJob], error) {
	txn := driver.db.Txn(false)
	defer txn.Abort()

	iterator, err := txn.Get("jobs", "user", userId)
	if err != nil {
		return nil, err
	}

	var jobs []*TrainingJob
	for obj := iterator.Next(); obj != nil; obj = iterator.Next() {
		jobs = append(jobs, utilities.Require[*TrainingJob](obj))
	}

	sort.Slice(jobs, func(x, y int) bool {
		return jobs[x].Created > jobs[y].Created
	})

	if limit > 0 && len(jobs) > limit {
		jobs = jobs[:limit]
	}

	results := make([]restapi.TrainingJob, 0, len(jobs))
	for _, job := range jobs {
		results = append(results, job.TrainingJob)
	}

	return storage.NewDefaultIterator(results), nil
}

func (driver *storageDriver) DeployBot(bot restapi.Bot) (restapi.Bot, error) {
	bot.Id = uuid.NewString()
	if bot.Status == "" {
		bot.Status = restapi.BotLive
	}
	if bot.CreatedAt.IsZero() {
		bot.CreatedAt = time.Now().UTC()
	}

	txn := driver.db.Txn(true)
	defer txn.Abort()

	err := txn.Insert("bots", &Bot{
		Bot:     bot,
		Created: time.Now().UnixNano(),
	})
	if err != nil {
		return restapi.Bot{}, err
	}

	txn.Commit()
	return bot, nil
}

func (driver *storageDriver) GetBotsByUser(userId string) (storage.Iterator[restapi.Bot], error) {
	txn := driver.db.Txn(false)
	defer txn.Abort()

	iterator, err := txn.Get("bots", "user", userId)
	if err != nil {
		return nil, err
	}

	var bots []*Bot
	for obj := iterator.Next(); obj != nil; obj = iterator.Next() {
		bots = append(bots, utilities.Require[*Bot](obj))
	}

	sort.Slice(bots, func(x, y int) bool {
		return bots[x].Created > bots[y].Created
	})

	results := make([]restapi.Bot, 0, len(bots))
	for _, bot := range bots {
		results = append(results, bot.Bot)
	}

	return storage.NewDefaultIterator(results), nil
}

func (driver *storageDriver) DeleteBot(id string) error {
	txn := driver.db.Txn(true)
	defer txn.Abort()

	obj, err := txn.First("bots", "id", id)
	if err != nil {
		return err
	}

	if obj == nil {
		return storage.ErrNotFound
	}

	if err = txn.Delete("bots", obj); err != nil {
		return err
	}

	txn.Commit()
	return nil
}

func incrementCredits(txn *memdb.Txn, userId string, amount int64) (int64, error) {
	balance := int64(0)

	obj, err := txn.First("credits", "id", userId)
	if err != nil {
		return 0, err
	}

	if obj != nil {
		balance = utilities.Require[*CreditBalance](obj).Balance
	}

	balance += amount
	err = txn.Insert("credits", &CreditBalance{
		UserId:  userId,
		Balance: balance,
	})
	if err != nil {
		return 0, err
	}

	return balance, nil
}

func (driver *storageDriver) IncrementUserCredits(userId string, amount int64) (int64, error) {
	txn := driver.db.Txn(true)
	defer txn.Abort()

	balance, err := incrementCredits(txn, userId, amount)
	if err != nil {
		return 0, err
	}

	txn.Commit()
	return balance, nil
}

func (driver *storageDriver) GetUserCredits(userId string) (int64, error) {
	txn := driver.db.Txn(false)
	defer txn.Abort()

	obj, err := txn.First("credits", "id", userId)
	if err != nil {
		return 0, err
	}

	if obj == nil {
		return 0, nil
	}

	return utilities.Require[*CreditBalance](obj).Balance, nil
}
