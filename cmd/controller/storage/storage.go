/*
 *  Copyright (c) 2025 Trainava Labs, Inc. All Rights Reserved.
 */
package storage

import (
	"errors"

	"github.com/trainava-labs/trainava/pkg/restapi"
)

type AggregatedData struct {
	Gpus                 int
	GpusByStatus         map[string]int
	Rentals              int
	RentalsByStatus      map[string]int
	TrainingJobs         int
	TrainingJobsByStatus map[string]int
	Bots                 int
	BotsByStatus         map[string]int
	CreditsIssued        int64
}

type Iterator[T any] interface {
	Next() bool
	Value() T
}

type DefaultIterator[T any] struct {
	index   int
	objects []T
}

func NewDefaultIterator[T any](objects []T) *DefaultIterator[T] {
	return &DefaultIterator[T]{
		index:   -1,
		objects: objects,
	}
}

func (iterator *DefaultIterator[T]) Next() bool {
	index := iterator.index + 1
	if index >= len(iterator.objects) {
		return false
	}

	iterator.index = index
	return true
}

func (iterator *DefaultIterator[T]) Value() T {
	return iterator.objects[iterator.index]
}

type Storage interface {
	Close() error

	AggregateData() (AggregatedData, error)

	// PurchaseGpu inserts the GPU and grants the package credits to its
	// owner in a single transaction.
	PurchaseGpu(gpu restapi.Gpu, credits int64) (restapi.Gpu, error)
	GetGpuById(id string) (restapi.Gpu, error)
	GetGpusByOwner(ownerId string) (Iterator[restapi.Gpu], error)
	GetAvailableGpus(excludeOwnerId string) (Iterator[restapi.Gpu], error)
	GetOwnedAvailableGpus(ownerId string) (Iterator[restapi.Gpu], error)
	GetTrainableGpus(ownerId string) (Iterator[restapi.Gpu], error)
	UpdateGpuStatus(id string, status string) error

	// SetGpuRentalSettings sets the hourly rate and lists the unit by
	// flipping its status to available-for-rent in the same write.
	SetGpuRentalSettings(id string, hourlyRate float64) error
	DeleteGpu(id string) error

	// CreateRental inserts the rental and, for rentals of user-owned
	// hardware, marks the GPU rented-out in the same transaction. Rentals
	// of curated platform units only insert the record.
	CreateRental(rental restapi.Rental) (restapi.Rental, error)
	GetRentalById(id string) (restapi.Rental, error)
	GetRentalsByRenter(renterId string) (Iterator[restapi.Rental], error)

	// CreateTrainingJob inserts the job and, when it targets an owned GPU,
	// marks that GPU active-training in the same transaction.
	CreateTrainingJob(job restapi.TrainingJob) (restapi.TrainingJob, error)
	GetTrainingJobsByUser(userId string, limit int) (Iterator[restapi.TrainingJob], error)

	DeployBot(bot restapi.Bot) (restapi.Bot, error)
	GetBotsByUser(userId string) (Iterator[restapi.Bot], error)
	DeleteBot(id string) error

	IncrementUserCredits(userId string, amount int64) (int64, error)
	GetUserCredits(userId string) (int64, error)
}

var (
	ErrNotFound = errors.New("object not found")

	// ErrNotRentable is returned by CreateRental when the targeted GPU is
	// not available-for-rent at commit time.
	ErrNotRentable = errors.New("gpu is not available for rent")

	// ErrNotTrainable is returned by CreateTrainingJob when the targeted
	// GPU is neither idle nor available-for-rent at commit time.
	ErrNotTrainable = errors.New("gpu is not available for training")
)

func Collect[T any](iterator Iterator[T], err error) ([]T, error) {
	if err != nil {
		return nil, err
	}

	var objects []T
	for iterator.Next() {
		objects = append(objects, iterator.Value())
	}

	return objects, nil
}
