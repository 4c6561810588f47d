/*
 *  Copyright (c) 2025 Trainava Labs, Inc. All Rights Reserved.
 */
package tests

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"reflect"
	"testing"
	"time"

	"github.com/trainava-labs/trainava/cmd/controller/storage"
	"github.com/trainava-labs/trainava/cmd/controller/storage/gorm"
	"github.com/trainava-labs/trainava/cmd/controller/storage/memdb"
	"github.com/trainava-labs/trainava/cmd/controller/storage/postgres"
	"github.com/trainava-labs/trainava/pkg/restapi"
)

func openMemdb(t *testing.T) storage.Storage {
	db, err := memdb.OpenStorage(context.Background())
	if err != nil {
		t.Log(err)
		t.FailNow()
	}
	return db
}

func openSqlite(t *testing.T) storage.Storage {
	db, err := gorm.OpenStorage(context.Background(), "sqlite", ":memory:")
	if err != nil {
		t.Log(err)
		t.FailNow()
	}
	return db
}

func openPostgres(t *testing.T) storage.Storage {
	connection := os.Getenv("TRAINAVA_TEST_POSTGRES")
	if connection == "" {
		t.Skip("TRAINAVA_TEST_POSTGRES is not set")
	}

	db, err := postgres.OpenStorage(context.Background(), connection)
	if err != nil {
		t.Log(err)
		t.FailNow()
	}
	return db
}

func runAgainstDrivers(t *testing.T, run func(t *testing.T, db storage.Storage)) {
	t.Run("memdb", func(t *testing.T) {
		db := openMemdb(t)
		defer db.Close()
		run(t, db)
	})

	t.Run("sqlite", func(t *testing.T) {
		db := openSqlite(t)
		defer db.Close()
		run(t, db)
	})

	t.Run("postgresql", func(t *testing.T) {
		db := openPostgres(t)
		defer db.Close()
		run(t, db)
	})
}

func defaultGpu(ownerId string, rate float64) restapi.Gpu {
	return restapi.Gpu{
		OwnerId:          ownerId,
		Name:             "Test GPU",
		Model:            "RTX 4090",
		Vram:             "24GB GDDR6X",
		PowerScore:       14500,
		RentalRateHourly: rate,
		Status:           restapi.GpuIdle,
		PurchasedAt:      time.Now().UTC().Truncate(time.Second),
	}
}

func compare[T any](t *testing.T, check T, against T, err error) {
	t.Helper()

	if err != nil {
		t.Error(err)
	}

	if !reflect.DeepEqual(check, against) {
		var checkStr, againstStr string

		bytes, err := json.Marshal(check)
		if err == nil {
			checkStr = string(bytes)
		} else {
			checkStr = err.Error()
		}

		bytes, err = json.Marshal(against)
		if err == nil {
			againstStr = string(bytes)
		} else {
			againstStr = err.Error()
		}

		t.Errorf("objects do not match\ncheck:\n%s\n====\nagainst:\n%s", checkStr, againstStr)
	}
}

func checkGpu(t *testing.T, db storage.Storage, check restapi.Gpu) {
	t.Helper()
	against, err := db.GetGpuById(check.Id)

	// Timestamp round-trips lose precision depending on the driver.
	against.PurchasedAt = check.PurchasedAt
	compare(t, check, against, err)
}

func purchaseGpu(t *testing.T, db storage.Storage, gpu restapi.Gpu, credits int64) restapi.Gpu {
	t.Helper()
	created, err := db.PurchaseGpu(gpu, credits)
	if err != nil {
		t.Log(err)
		t.FailNow()
	}

	gpu.Id = created.Id
	checkGpu(t, db, gpu)

	return created
}

func checkNotFound(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Error("expected storage.ErrNotFound, instead did not receive an error")
	} else if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected storage.ErrNotFound, instead received %s", err)
	}
}

func TestGpuLifecycle(t *testing.T) {
	runAgainstDrivers(t, func(t *testing.T, db storage.Storage) {
		gpu := purchaseGpu(t, db, defaultGpu("owner-1", 1.50), 14500)

		balance, err := db.GetUserCredits("owner-1")
		if err != nil {
			t.Fatal(err)
		}
		if balance != 14500 {
			t.Errorf("expected 14500 credits after purchase, received %d", balance)
		}

		// Listing the unit for rent sets the rate and flips the status in
		// the same write.
		if err = db.SetGpuRentalSettings(gpu.Id, 2.25); err != nil {
			t.Fatal(err)
		}
		gpu.RentalRateHourly = 2.25
		gpu.Status = restapi.GpuAvailableForRent
		checkGpu(t, db, gpu)

		if err = db.UpdateGpuStatus(gpu.Id, restapi.GpuIdle); err != nil {
			t.Fatal(err)
		}
		gpu.Status = restapi.GpuIdle
		checkGpu(t, db, gpu)

		owned, err := storage.Collect(db.GetGpusByOwner("owner-1"))
		if err != nil {
			t.Fatal(err)
		}
		if len(owned) != 1 || owned[0].Id != gpu.Id {
			t.Errorf("expected exactly the purchased gpu, received %d gpus", len(owned))
		}

		if err = db.DeleteGpu(gpu.Id); err != nil {
			t.Fatal(err)
		}

		_, err = db.GetGpuById(gpu.Id)
		checkNotFound(t, err)

		checkNotFound(t, db.DeleteGpu(gpu.Id))
		checkNotFound(t, db.UpdateGpuStatus(gpu.Id, restapi.GpuIdle))
	})
}

func TestMarketplaceQueries(t *testing.T) {
	runAgainstDrivers(t, func(t *testing.T, db storage.Storage) {
		cheap := defaultGpu("owner-1", 0.75)
		cheap.Status = restapi.GpuAvailableForRent
		cheap = purchaseGpu(t, db, cheap, 0)

		pricey := defaultGpu("owner-2", 2.00)
		pricey.Status = restapi.GpuAvailableForRent
		pricey = purchaseGpu(t, db, pricey, 0)

		idle := defaultGpu("owner-2", 1.00)
		purchaseGpu(t, db, idle, 0)

		available, err := storage.Collect(db.GetAvailableGpus("owner-3"))
		if err != nil {
			t.Fatal(err)
		}
		if len(available) != 2 {
			t.Fatalf("expected 2 available gpus, received %d", len(available))
		}
		if available[0].RentalRateHourly > available[1].RentalRateHourly {
			t.Error("expected available gpus ordered by ascending hourly rate")
		}

		// A renter never sees their own hardware in the marketplace.
		available, err = storage.Collect(db.GetAvailableGpus("owner-2"))
		if err != nil {
			t.Fatal(err)
		}
		if len(available) != 1 || available[0].Id != cheap.Id {
			t.Error("expected the marketplace to exclude the requesting owner")
		}

		rentable, err := storage.Collect(db.GetOwnedAvailableGpus("owner-2"))
		if err != nil {
			t.Fatal(err)
		}
		if len(rentable) != 1 || rentable[0].Id != pricey.Id {
			t.Error("expected only the listed gpu to be rentable")
		}

		trainable, err := storage.Collect(db.GetTrainableGpus("owner-2"))
		if err != nil {
			t.Fatal(err)
		}
		if len(trainable) != 2 {
			t.Errorf("expected idle and listed gpus to be trainable, received %d", len(trainable))
		}
	})
}

func TestRentals(t *testing.T) {
	runAgainstDrivers(t, func(t *testing.T, db storage.Storage) {
		gpu := defaultGpu("owner-1", 1.50)
		gpu.Status = restapi.GpuAvailableForRent
		gpu = purchaseGpu(t, db, gpu, 0)

		rental, err := db.CreateRental(restapi.Rental{
			GpuId:     gpu.Id,
			RenterId:  "renter-1",
			OwnerId:   "owner-1",
			StartTime: time.Now().UTC().Truncate(time.Second),
			Hours:     3,
			TotalCost: 4.50,
			Status:    restapi.RentalActive,
		})
		if err != nil {
			t.Fatal(err)
		}

		stored, err := db.GetRentalById(rental.Id)
		if err != nil {
			t.Fatal(err)
		}
		stored.StartTime = rental.StartTime
		compare(t, rental, stored, nil)

		gpu.Status = restapi.GpuRentedOut
		checkGpu(t, db, gpu)

		// Now rented-out, a second rental must fail and change nothing.
		_, err = db.CreateRental(restapi.Rental{
			GpuId:    gpu.Id,
			RenterId: "renter-2",
			OwnerId:  "owner-1",
			Hours:    1,
		})
		if !errors.Is(err, storage.ErrNotRentable) {
			t.Errorf("expected storage.ErrNotRentable, received %v", err)
		}

		rentals, err := storage.Collect(db.GetRentalsByRenter("renter-1"))
		if err != nil {
			t.Fatal(err)
		}
		if len(rentals) != 1 {
			t.Errorf("expected 1 rental, received %d", len(rentals))
		}
	})
}

func TestPlatformRentals(t *testing.T) {
	runAgainstDrivers(t, func(t *testing.T, db storage.Storage) {
		// Curated units have no gpu row; the rental insert must not touch
		// the gpus table.
		rental, err := db.CreateRental(restapi.Rental{
			GpuId:     "trainava-gpu-rtx4090-01",
			RenterId:  "renter-1",
			OwnerId:   restapi.PlatformOwnerId,
			StartTime: time.Now().UTC(),
			Hours:     2,
			TotalCost: 3.00,
			Status:    restapi.RentalActive,
		})
		if err != nil {
			t.Fatal(err)
		}

		stored, err := db.GetRentalById(rental.Id)
		if err != nil {
			t.Fatal(err)
		}
		if stored.OwnerId != restapi.PlatformOwnerId {
			t.Errorf("expected platform owner, received %s", stored.OwnerId)
		}
	})
}

func TestTrainingJobs(t *testing.T) {
	runAgainstDrivers(t, func(t *testing.T, db storage.Storage) {
		gpu := purchaseGpu(t, db, defaultGpu("user-1", 1.50), 0)

		job, err := db.CreateTrainingJob(restapi.TrainingJob{
			UserId:       "user-1",
			PipelineName: "Image Generation Fine-Tune",
			JobName:      "my-style-model",
			Config: map[string]string{
				"baseModel":      "sdxl-1.0",
				"trainingImages": "200",
			},
			GpuId: gpu.Id,
		})
		if err != nil {
			t.Fatal(err)
		}

		if job.Status != restapi.JobQueued {
			t.Errorf("expected a new job to be queued, received %s", job.Status)
		}

		gpu.Status = restapi.GpuActiveTraining
		checkGpu(t, db, gpu)

		// The gpu is busy training, a second job on it must fail.
		_, err = db.CreateTrainingJob(restapi.TrainingJob{
			UserId:       "user-1",
			PipelineName: "Chatbot Personality Tune",
			JobName:      "second",
			GpuId:        gpu.Id,
		})
		if !errors.Is(err, storage.ErrNotTrainable) {
			t.Errorf("expected storage.ErrNotTrainable, received %v", err)
		}

		// Jobs on rented hardware reference the rental instead of a gpu row.
		_, err = db.CreateTrainingJob(restapi.TrainingJob{
			UserId:       "user-1",
			PipelineName: "Voice Clone Studio",
			JobName:      "narrator",
			RentalId:     "rental-1",
		})
		if err != nil {
			t.Fatal(err)
		}

		jobs, err := storage.Collect(db.GetTrainingJobsByUser("user-1", 10))
		if err != nil {
			t.Fatal(err)
		}
		if len(jobs) != 2 {
			t.Fatalf("expected 2 jobs, received %d", len(jobs))
		}
		if jobs[0].JobName != "narrator" {
			t.Error("expected jobs ordered newest first")
		}

		jobs, err = storage.Collect(db.GetTrainingJobsByUser("user-1", 1))
		if err != nil {
			t.Fatal(err)
		}
		if len(jobs) != 1 {
			t.Errorf("expected the limit to apply, received %d jobs", len(jobs))
		}
	})
}

func TestBots(t *testing.T) {
	runAgainstDrivers(t, func(t *testing.T, db storage.Storage) {
		bot, err := db.DeployBot(restapi.Bot{
			UserId:            "user-1",
			BotName:           "support-bot",
			BotType:           "customer-support",
			TelegramTokenHint: restapi.TokenHint("7201394857:AAHkz83hFN02mdz0aPxWQi7cB2l19Xknm2E"),
			Model:             "trainava-chat-7b",
		})
		if err != nil {
			t.Fatal(err)
		}

		if bot.Status != restapi.BotLive {
			t.Errorf("expected a deployed bot to be live, received %s", bot.Status)
		}
		if bot.TelegramTokenHint != "7201394857...nm2E" {
			t.Errorf("unexpected token hint %s", bot.TelegramTokenHint)
		}

		bots, err := storage.Collect(db.GetBotsByUser("user-1"))
		if err != nil {
			t.Fatal(err)
		}
		if len(bots) != 1 {
			t.Fatalf("expected 1 bot, received %d", len(bots))
		}

		if err = db.DeleteBot(bot.Id); err != nil {
			t.Fatal(err)
		}

		checkNotFound(t, db.DeleteBot(bot.Id))
	})
}

func TestCredits(t *testing.T) {
	runAgainstDrivers(t, func(t *testing.T, db storage.Storage) {
		balance, err := db.GetUserCredits("user-1")
		if err != nil {
			t.Fatal(err)
		}
		if balance != 0 {
			t.Errorf("expected an unknown user to have 0 credits, received %d", balance)
		}

		balance, err = db.IncrementUserCredits("user-1", 9500)
		if err != nil {
			t.Fatal(err)
		}
		if balance != 9500 {
			t.Errorf("expected balance 9500, received %d", balance)
		}

		balance, err = db.IncrementUserCredits("user-1", -500)
		if err != nil {
			t.Fatal(err)
		}
		if balance != 9000 {
			t.Errorf("expected balance 9000, received %d", balance)
		}
	})
}

func TestAggregateData(t *testing.T) {
	runAgainstDrivers(t, func(t *testing.T, db storage.Storage) {
		gpu := defaultGpu("owner-1", 1.50)
		gpu.Status = restapi.GpuAvailableForRent
		gpu = purchaseGpu(t, db, gpu, 9500)
		purchaseGpu(t, db, defaultGpu("owner-2", 1.00), 0)

		_, err := db.CreateRental(restapi.Rental{
			GpuId:    gpu.Id,
			RenterId: "renter-1",
			OwnerId:  "owner-1",
			Hours:    1,
		})
		if err != nil {
			t.Fatal(err)
		}

		data, err := db.AggregateData()
		if err != nil {
			t.Fatal(err)
		}

		if data.Gpus != 2 {
			t.Errorf("expected 2 gpus, received %d", data.Gpus)
		}
		if data.GpusByStatus[restapi.GpuRentedOut] != 1 {
			t.Errorf("expected 1 rented-out gpu, received %d", data.GpusByStatus[restapi.GpuRentedOut])
		}
		if data.Rentals != 1 {
			t.Errorf("expected 1 rental, received %d", data.Rentals)
		}
		if data.CreditsIssued != 9500 {
			t.Errorf("expected 9500 credits issued, received %d", data.CreditsIssued)
		}
	})
}
