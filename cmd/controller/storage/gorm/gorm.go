package gorm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	uuid "github.com/satori/go.uuid"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	glogger "gorm.io/gorm/logger"

	"github.com/trainava-labs/trainava/cmd/controller/storage"
	"github.com/trainava-labs/trainava/cmd/controller/storage/gorm/models"
	"github.com/trainava-labs/trainava/pkg/restapi"
)

type gormDriver struct {
	db *gorm.DB
}

func mapError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		err = errors.Join(storage.ErrNotFound, err)
	}
	return err
}

func restGpuFromGpu(dbGpu models.Gpu) restapi.Gpu {
	return restapi.Gpu{
		Id:               dbGpu.UUID.String(),
		OwnerId:          dbGpu.OwnerID,
		Name:             dbGpu.Name,
		Model:            dbGpu.ModelName,
		Vram:             dbGpu.Vram,
		PowerScore:       dbGpu.PowerScore,
		RentalRateHourly: dbGpu.RentalRateHourly,
		Status:           dbGpu.Status.String(),
		PurchasedAt:      dbGpu.PurchasedAt,
	}
}

func restRentalFromRental(dbRental models.Rental) restapi.Rental {
	return restapi.Rental{
		Id:        dbRental.UUID.String(),
		GpuId:     dbRental.GpuID,
		RenterId:  dbRental.RenterID,
		OwnerId:   dbRental.OwnerID,
		StartTime: dbRental.StartTime,
		Hours:     dbRental.Hours,
		TotalCost: dbRental.TotalCost,
		Status:    dbRental.Status.String(),
	}
}

func restJobFromJob(dbJob models.TrainingJob) (restapi.TrainingJob, error) {
	job := restapi.TrainingJob{
		Id:           dbJob.UUID.String(),
		UserId:       dbJob.UserID,
		PipelineName: dbJob.PipelineName,
		JobName:      dbJob.JobName,
		Status:       dbJob.Status.String(),
		Progress:     dbJob.Progress,
		GpuId:        dbJob.GpuID,
		RentalId:     dbJob.RentalID,
		CreatedAt:    dbJob.CreatedAt,
	}

	if len(dbJob.Config) > 0 {
		if err := json.Unmarshal(dbJob.Config, &job.Config); err != nil {
			return restapi.TrainingJob{}, err
		}
	}

	return job, nil
}

func restBotFromBot(dbBot models.Bot) restapi.Bot {
	return restapi.Bot{
		Id:                dbBot.UUID.String(),
		UserId:            dbBot.UserID,
		BotName:           dbBot.BotName,
		BotType:           dbBot.BotType,
		TelegramTokenHint: dbBot.TelegramTokenHint,
		Model:             dbBot.UnderlyingModel,
		Status:            dbBot.Status.String(),
		CreatedAt:         dbBot.CreatedAt,
	}
}

func OpenStorage(ctx context.Context, driver string, dsn string) (storage.Storage, error) {

	var db *gorm.DB
	var err error

	config := &gorm.Config{
		Logger: NewLogger(glogger.Config{
			LogLevel: glogger.Warn,
		}),
	}

	switch driver {
	case "sqlite":
		db, err = gorm.Open(sqlite.Open(dsn), config)
	case "postgres":
		db, err = gorm.Open(postgres.Open(dsn), config)
	default:
		err = fmt.Errorf("invalid GORM driver specified, %s", driver)
	}

	if err != nil {
		return nil, mapError(err)
	}

	err = db.AutoMigrate(
		&models.Gpu{},
		&models.Rental{},
		&models.TrainingJob{},
		&models.Bot{},
		&models.CreditBalance{},
	)

	if err != nil {
		return nil, mapError(err)
	}

	return &gormDriver{
		db: db,
	}, err
}

func (g *gormDriver) Close() error {
	return nil
}

type statusCount struct {
	Status int
	Count  int
}

func (g *gormDriver) AggregateData() (storage.AggregatedData, error) {
	data := storage.AggregatedData{
		GpusByStatus:         map[string]int{},
		RentalsByStatus:      map[string]int{},
		TrainingJobsByStatus: map[string]int{},
		BotsByStatus:         map[string]int{},
	}

	var counts []statusCount
	if err := g.db.Model(&models.Gpu{}).Select("status, count(*) as count").Group("status").Scan(&counts).Error; err != nil {
		return storage.AggregatedData{}, mapError(err)
	}
	for _, row := range counts {
		data.Gpus += row.Count
		data.GpusByStatus[models.GpuStatus(row.Status).String()] = row.Count
	}

	counts = nil
	if err := g.db.Model(&models.Rental{}).Select("status, count(*) as count").Group("status").Scan(&counts).Error; err != nil {
		return storage.AggregatedData{}, mapError(err)
	}
	for _, row := range counts {
		data.Rentals += row.Count
		data.RentalsByStatus[models.RentalStatus(row.Status).String()] = row.Count
	}

	counts = nil
	if err := g.db.Model(&models.TrainingJob{}).Select("status, count(*) as count").Group("status").Scan(&counts).Error; err != nil {
		return storage.AggregatedData{}, mapError(err)
	}
	for _, row := range counts {
		data.TrainingJobs += row.Count
		data.TrainingJobsByStatus[models.JobStatus(row.Status).String()] = row.Count
	}

	counts = nil
	if err := g.db.Model(&models.Bot{}).Select("status, count(*) as count").Group("status").Scan(&counts).Error; err != nil {
		return storage.AggregatedData{}, mapError(err)
	}
	for _, row := range counts {
		data.Bots += row.Count
		data.BotsByStatus[models.BotStatus(row.Status).String()] = row.Count
	}

	if err := g.db.Model(&models.CreditBalance{}).Select("coalesce(sum(balance), 0)").Scan(&data.CreditsIssued).Error; err != nil {
		return storage.AggregatedData{}, mapError(err)
	}

	return data, nil
}

func (g *gormDriver) PurchaseGpu(gpu restapi.Gpu, credits int64) (restapi.Gpu, error) {
	dbGpu := models.Gpu{
		UUID:             uuid.NewV4(),
		OwnerID:          gpu.OwnerId,
		Name:             gpu.Name,
		ModelName:        gpu.Model,
		Vram:             gpu.Vram,
		PowerScore:       gpu.PowerScore,
		RentalRateHourly: gpu.RentalRateHourly,
		Status:           models.GpuStatusFromString(gpu.Status),
		PurchasedAt:      gpu.PurchasedAt,
	}

	if dbGpu.Status == models.GpuStatusUnknown {
		dbGpu.Status = models.GpuStatusIdle
	}

	err := g.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&dbGpu).Error; err != nil {
			return err
		}

		if credits == 0 {
			return nil
		}

		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{"balance": gorm.Expr("balance + ?", credits)}),
		}).Create(&models.CreditBalance{
			UserID:  gpu.OwnerId,
			Balance: credits,
		}).Error
	})

	if err != nil {
		return restapi.Gpu{}, mapError(err)
	}

	return restGpuFromGpu(dbGpu), nil
}

func (g *gormDriver) GetGpuById(id string) (restapi.Gpu, error) {
	dbGpu := models.Gpu{
		UUID: uuid.FromStringOrNil(id),
	}

	result := g.db.Where(&dbGpu, "UUID").First(&dbGpu)
	if err := result.Error; err != nil {
		return restapi.Gpu{}, mapError(err)
	}

	return restGpuFromGpu(dbGpu), nil
}

func (g *gormDriver) gpusFromQuery(query *gorm.DB) (storage.Iterator[restapi.Gpu], error) {
	var dbGpus []models.Gpu
	if err := query.Find(&dbGpus).Error; err != nil {
		return nil, mapError(err)
	}

	gpus := make([]restapi.Gpu, 0, len(dbGpus))
	for _, dbGpu := range dbGpus {
		gpus = append(gpus, restGpuFromGpu(dbGpu))
	}

	return storage.NewDefaultIterator(gpus), nil
}

func (g *gormDriver) GetGpusByOwner(ownerId string) (storage.Iterator[restapi.Gpu], error) {
	return g.gpusFromQuery(g.db.Where("owner_id = ?", ownerId).Order("created_at desc"))
}

func (g *gormDriver) GetAvailableGpus(excludeOwnerId string) (storage.Iterator[restapi.Gpu], error) {
	return g.gpusFromQuery(g.db.
		Where("status = ?", models.GpuStatusAvailableForRent).
		Where("owner_id <> ?", excludeOwnerId).
		Order("rental_rate_hourly asc"))
}

func (g *gormDriver) GetOwnedAvailableGpus(ownerId string) (storage.Iterator[restapi.Gpu], error) {
	return g.gpusFromQuery(g.db.
		Where("status = ?", models.GpuStatusAvailableForRent).
		Where("owner_id = ?", ownerId).
		Order("rental_rate_hourly asc"))
}

func (g *gormDriver) GetTrainableGpus(ownerId string) (storage.Iterator[restapi.Gpu], error) {
	return g.gpusFromQuery(g.db.
		Where("owner_id = ?", ownerId).
		Where("status IN ?", []models.GpuStatus{models.GpuStatusIdle, models.GpuStatusAvailableForRent}).
		Order("created_at desc"))
}

func (g *gormDriver) UpdateGpuStatus(id string, status string) error {
	result := g.db.Model(&models.Gpu{}).
		Where("uuid = ?", uuid.FromStringOrNil(id)).
		Update("status", models.GpuStatusFromString(status))

	if result.Error != nil {
		return mapError(result.Error)
	}

	if result.RowsAffected == 0 {
		return storage.ErrNotFound
	}

	return nil
}

func (g *gormDriver) SetGpuRentalSettings(id string, hourlyRate float64) error {
	// Setting a rate is listing the unit, the status flips with it.
	result := g.db.Model(&models.Gpu{}).
		Where("uuid = ?", uuid.FromStringOrNil(id)).
		Updates(map[string]any{
			"rental_rate_hourly": hourlyRate,
			"status":             models.GpuStatusAvailableForRent,
		})

	if result.Error != nil {
		return mapError(result.Error)
	}

	if result.RowsAffected == 0 {
		return storage.ErrNotFound
	}

	return nil
}

func (g *gormDriver) DeleteGpu(id string) error {
	result := g.db.Where("uuid = ?", uuid.FromStringOrNil(id)).Delete(&models.Gpu{})
	if result.Error != nil {
		return mapError(result.Error)
	}

	if result.RowsAffected == 0 {
		return storage.ErrNotFound
	}

	return nil
}

func (g *gormDriver) CreateRental(rental restapi.Rental) (restapi.Rental, error) {
	dbRental := models.Rental{
		UUID:      uuid.NewV4(),
		GpuID:     rental.GpuId,
		RenterID:  rental.RenterId,
		OwnerID:   rental.OwnerId,
		StartTime: rental.StartTime,
		Hours:     rental.Hours,
		TotalCost: rental.TotalCost,
		Status:    models.RentalStatusFromString(rental.Status),
	}

	if dbRental.Status == models.RentalStatusUnknown {
		dbRental.Status = models.RentalStatusActive
	}

	err := g.db.Transaction(func(tx *gorm.DB) error {
		if rental.OwnerId != restapi.PlatformOwnerId {
			dbGpu := models.Gpu{
				UUID: uuid.FromStringOrNil(rental.GpuId),
			}

			if err := tx.Where(&dbGpu, "UUID").First(&dbGpu).Error; err != nil {
				return err
			}

			if dbGpu.Status != models.GpuStatusAvailableForRent {
				return storage.ErrNotRentable
			}

			if err := tx.Model(&dbGpu).Update("status", models.GpuStatusRentedOut).Error; err != nil {
				return err
			}
		}

		return tx.Create(&dbRental).Error
	})

	if err != nil {
		return restapi.Rental{}, mapError(err)
	}

	return restRentalFromRental(dbRental), nil
}

func (g *gormDriver) GetRentalById(id string) (restapi.Rental, error) {
	dbRental := models.Rental{
		UUID: uuid.FromStringOrNil(id),
	}

	result := g.db.Where(&dbRental, "UUID").First(&dbRental)
	if err := result.Error; err != nil {
		return restapi.Rental{}, mapError(err)
	}

	return restRentalFromRental(dbRental), nil
}

func (g *gormDriver) GetRentalsByRenter(renterId string) (storage.Iterator[restapi.Rental], error) {
	var dbRentals []models.Rental
	result := g.db.Where("renter_id = ?", renterId).Order("created_at desc").Find(&dbRentals)
	if err := result.Error; err != nil {
		return nil, mapError(err)
	}

	rentals := make([]restapi.Rental, 0, len(dbRentals))
	for _, dbRental := range dbRentals {
		rentals = append(rentals, restRentalFromRental(dbRental))
	}

	return storage.NewDefaultIterator(rentals), nil
}

func (g *gormDriver) CreateTrainingJob(job restapi.TrainingJob) (restapi.TrainingJob, error) {
	config, err := json.Marshal(job.Config)
	if err != nil {
		return restapi.TrainingJob{}, err
	}

	dbJob := models.TrainingJob{
		UUID:         uuid.NewV4(),
		UserID:       job.UserId,
		PipelineName: job.PipelineName,
		JobName:      job.JobName,
		Config:       config,
		Status:       models.JobStatusFromString(job.Status),
		Progress:     job.Progress,
		GpuID:        job.GpuId,
		RentalID:     job.RentalId,
	}

	if dbJob.Status == models.JobStatusUnknown {
		dbJob.Status = models.JobStatusQueued
	}

	err = g.db.Transaction(func(tx *gorm.DB) error {
		if job.GpuId != "" {
			dbGpu := models.Gpu{
				UUID: uuid.FromStringOrNil(job.GpuId),
			}

			if err := tx.Where(&dbGpu, "UUID").First(&dbGpu).Error; err != nil {
				return err
			}

			if dbGpu.Status != models.GpuStatusIdle && dbGpu.Status != models.GpuStatusAvailableForRent {
				return storage.ErrNotTrainable
			}

			if err := tx.Model(&dbGpu).Update("status", models.GpuStatusActiveTraining).Error; err != nil {
				return err
			}
		}

		return tx.Create(&dbJob).Error
	})

	if err != nil {
		return restapi.TrainingJob{}, mapError(err)
	}

	return restJobFromJob(dbJob)
}

func (g *gormDriver) GetTrainingJobsByUser(userId string, limit int) (storage.Iterator[restapi.TrainingJob], error) {
	query := g.db.Where("user_id = ?", userId).Order("created_at desc")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var dbJobs []models.TrainingJob
	if err := query.Find(&dbJobs).Error; err != nil {
		return nil, mapError(err)
	}

	jobs := make([]restapi.TrainingJob, 0, len(dbJobs))
	for _, dbJob := range dbJobs {
		job, err := restJobFromJob(dbJob)
		if err != nil {
			return nil, err
		}

		jobs = append(jobs, job)
	}

	return storage.NewDefaultIterator(jobs), nil
}

func (g *gormDriver) DeployBot(bot restapi.Bot) (restapi.Bot, error) {
	dbBot := models.Bot{
		UUID:              uuid.NewV4(),
		UserID:            bot.UserId,
		BotName:           bot.BotName,
		BotType:           bot.BotType,
		TelegramTokenHint: bot.TelegramTokenHint,
		UnderlyingModel:   bot.Model,
		Status:            models.BotStatusFromString(bot.Status),
	}

	if dbBot.Status == models.BotStatusUnknown {
		dbBot.Status = models.BotStatusLive
	}

	if err := g.db.Create(&dbBot).Error; err != nil {
		return restapi.Bot{}, mapError(err)
	}

	return restBotFromBot(dbBot), nil
}

func (g *gormDriver) GetBotsByUser(userId string) (storage.Iterator[restapi.Bot], error) {
	var dbBots []models.Bot
	result := g.db.Where("user_id = ?", userId).Order("created_at desc").Find(&dbBots)
	if err := result.Error; err != nil {
		return nil, mapError(err)
	}

	bots := make([]restapi.Bot, 0, len(dbBots))
	for _, dbBot := range dbBots {
		bots = append(bots, restBotFromBot(dbBot))
	}

	return storage.NewDefaultIterator(bots), nil
}

func (g *gormDriver) DeleteBot(id string) error {
	result := g.db.Where("uuid = ?", uuid.FromStringOrNil(id)).Delete(&models.Bot{})
	if result.Error != nil {
		return mapError(result.Error)
	}

	if result.RowsAffected == 0 {
		return storage.ErrNotFound
	}

	return nil
}

func (g *gormDriver) IncrementUserCredits(userId string, amount int64) (int64, error) {
	var balance int64
	err := g.db.Transaction(func(tx *gorm.DB) error {
		dbBalance := models.CreditBalance{
			UserID: userId,
		}

		result := tx.Where(&dbBalance, "UserID").First(&dbBalance)
		if result.Error != nil {
			if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
				return result.Error
			}

			dbBalance.Balance = amount
			if err := tx.Create(&dbBalance).Error; err != nil {
				return err
			}

			balance = dbBalance.Balance
			return nil
		}

		dbBalance.Balance += amount
		if err := tx.Model(&dbBalance).Update("balance", dbBalance.Balance).Error; err != nil {
			return err
		}

		balance = dbBalance.Balance
		return nil
	})

	if err != nil {
		return 0, mapError(err)
	}

	return balance, nil
}

func (g *gormDriver) GetUserCredits(userId string) (int64, error) {
	dbBalance := models.CreditBalance{
		UserID: userId,
	}

	result := g.db.Where(&dbBalance, "UserID").First(&dbBalance)
	if err := result.Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}

		return 0, mapError(err)
	}

	return dbBalance.Balance, nil
}
