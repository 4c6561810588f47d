/*
 *  Copyright (c) 2025 Trainava Labs, Inc. All Rights Reserved.
 */
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	_ "github.com/lib/pq"

	"github.com/trainava-labs/trainava/cmd/controller/storage"
	"github.com/trainava-labs/trainava/pkg/restapi"
)

type storageDriver struct {
	ctx context.Context
	db  *sql.DB
}

type sqlRow interface {
	Scan(dest ...any) error
}

const schema = `
CREATE TABLE IF NOT EXISTS gpus (
	id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	owner_id TEXT NOT NULL,
	name TEXT NOT NULL DEFAULT '',
	model TEXT NOT NULL DEFAULT '',
	vram TEXT NOT NULL DEFAULT '',
	power_score DOUBLE PRECISION NOT NULL DEFAULT 0,
	rental_rate_hourly DOUBLE PRECISION NOT NULL DEFAULT 0,
	status TEXT NOT NULL DEFAULT 'idle',
	purchased_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS gpus_owner_id ON gpus (owner_id);
CREATE INDEX IF NOT EXISTS gpus_status ON gpus (status);

CREATE TABLE IF NOT EXISTS rentals (
	id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	gpu_id TEXT NOT NULL,
	renter_id TEXT NOT NULL,
	owner_id TEXT NOT NULL,
	start_time TIMESTAMPTZ NOT NULL DEFAULT now(),
	hours INTEGER NOT NULL,
	total_cost DOUBLE PRECISION NOT NULL,
	status TEXT NOT NULL DEFAULT 'active',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS rentals_renter_id ON rentals (renter_id);

CREATE TABLE IF NOT EXISTS training_jobs (
	id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	user_id TEXT NOT NULL,
	pipeline_name TEXT NOT NULL,
	job_name TEXT NOT NULL,
	config JSONB,
	status TEXT NOT NULL DEFAULT 'queued',
	progress INTEGER NOT NULL DEFAULT 0,
	gpu_id TEXT NOT NULL DEFAULT '',
	rental_id TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS training_jobs_user_id ON training_jobs (user_id);

CREATE TABLE IF NOT EXISTS bots (
	id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	user_id TEXT NOT NULL,
	bot_name TEXT NOT NULL,
	bot_type TEXT NOT NULL,
	telegram_token_hint TEXT NOT NULL,
	model TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL DEFAULT 'live',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS bots_user_id ON bots (user_id);

CREATE TABLE IF NOT EXISTS credit_balances (
	user_id TEXT PRIMARY KEY,
	balance BIGINT NOT NULL DEFAULT 0
);
`

func OpenStorage(ctx context.Context, connection string) (storage.Storage, error) {
	db, err := sql.Open("postgres", connection)
	if err != nil {
		return nil, err
	}

	if err = db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}

	if _, err = db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, err
	}

	return &storageDriver{
		ctx: ctx,
		db:  db,
	}, nil
}

func (driver *storageDriver) Close() error {
	return driver.db.Close()
}

func mapError(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		err = errors.Join(storage.ErrNotFound, err)
	}
	return err
}

const selectGpus = `SELECT id, owner_id, name, model, vram, power_score, rental_rate_hourly, status, purchased_at FROM gpus`

func unmarshalGpu(row sqlRow) (restapi.Gpu, error) {
	var gpu restapi.Gpu
	err := row.Scan(&gpu.Id, &gpu.OwnerId, &gpu.Name, &gpu.Model, &gpu.Vram,
		&gpu.PowerScore, &gpu.RentalRateHourly, &gpu.Status, &gpu.PurchasedAt)
	if err != nil {
		return restapi.Gpu{}, mapError(err)
	}

	return gpu, nil
}

func (driver *storageDriver) queryGpus(query string, args ...any) (storage.Iterator[restapi.Gpu], error) {
	rows, err := driver.db.QueryContext(driver.ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	gpus := make([]restapi.Gpu, 0)
	for rows.Next() {
		gpu, err := unmarshalGpu(rows)
		if err != nil {
			return nil, err
		}

		gpus = append(gpus, gpu)
	}

	return storage.NewDefaultIterator(gpus), rows.Err()
}

func (driver *storageDriver) AggregateData() (storage.AggregatedData, error) {
	data := storage.AggregatedData{
		GpusByStatus:         map[string]int{},
		RentalsByStatus:      map[string]int{},
		TrainingJobsByStatus: map[string]int{},
		BotsByStatus:         map[string]int{},
	}

	type tally struct {
		table string
		total *int
		byKey map[string]int
	}

	tallies := []tally{
		{"gpus", &data.Gpus, data.GpusByStatus},
		{"rentals", &data.Rentals, data.RentalsByStatus},
		{"training_jobs", &data.TrainingJobs, data.TrainingJobsByStatus},
		{"bots", &data.Bots, data.BotsByStatus},
	}

	for _, tally := range tallies {
		rows, err := driver.db.QueryContext(driver.ctx, "SELECT status, count(*) FROM "+tally.table+" GROUP BY status")
		if err != nil {
			return storage.AggregatedData{}, mapError(err)
		}

		for rows.Next() {
			var status string
			var count int
			if err = rows.Scan(&status, &count); err != nil {
				rows.Close()
				return storage.AggregatedData{}, err
			}

			*tally.total += count
			tally.byKey[status] = count
		}

		rows.Close()
		if err = rows.Err(); err != nil {
			return storage.AggregatedData{}, err
		}
	}

	err := driver.db.QueryRowContext(driver.ctx, "SELECT coalesce(sum(balance), 0) FROM credit_balances").Scan(&data.CreditsIssued)
	if err != nil {
		return storage.AggregatedData{}, mapError(err)
	}

	return data, nil
}

func (driver *storageDriver) PurchaseGpu(gpu restapi.Gpu, credits int64) (restapi.Gpu, error) {
	if gpu.Status == "" {
		gpu.Status = restapi.GpuIdle
	}
	if gpu.PurchasedAt.IsZero() {
		gpu.PurchasedAt = time.Now().UTC()
	}

	tx, err := driver.db.BeginTx(driver.ctx, nil)
	if err != nil {
		return restapi.Gpu{}, mapError(err)
	}
	defer tx.Rollback()

	err = tx.QueryRowContext(driver.ctx, "INSERT INTO gpus ("+
		"owner_id, name, model, vram, power_score, rental_rate_hourly, status, purchased_at"+
		") VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id",
		gpu.OwnerId, gpu.Name, gpu.Model, gpu.Vram, gpu.PowerScore,
		gpu.RentalRateHourly, gpu.Status, gpu.PurchasedAt).Scan(&gpu.Id)
	if err != nil {
		return restapi.Gpu{}, mapError(err)
	}

	if credits != 0 {
		_, err = tx.ExecContext(driver.ctx, "INSERT INTO credit_balances (user_id, balance) VALUES ($1, $2) "+
			"ON CONFLICT (user_id) DO UPDATE SET balance = credit_balances.balance + $2",
			gpu.OwnerId, credits)
		if err != nil {
			return restapi.Gpu{}, mapError(err)
		}
	}

	if err = tx.Commit(); err != nil {
		return restapi.Gpu{}, mapError(err)
	}

	return gpu, nil
}

func (driver *storageDriver) GetGpuById(id string) (restapi.Gpu, error) {
	return unmarshalGpu(driver.db.QueryRowContext(driver.ctx, selectGpus+" WHERE id = $1", id))
}

func (driver *storageDriver) GetGpusByOwner(ownerId string) (storage.Iterator[restapi.Gpu], error) {
	return driver.queryGpus(selectGpus+" WHERE owner_id = $1 ORDER BY created_at DESC", ownerId)
}

func (driver *storageDriver) GetAvailableGpus(excludeOwnerId string) (storage.Iterator[restapi.Gpu], error) {
	return driver.queryGpus(selectGpus+" WHERE status = 'available-for-rent' AND owner_id <> $1 ORDER BY rental_rate_hourly ASC", excludeOwnerId)
}

func (driver *storageDriver) GetOwnedAvailableGpus(ownerId string) (storage.Iterator[restapi.Gpu], error) {
	return driver.queryGpus(selectGpus+" WHERE status = 'available-for-rent' AND owner_id = $1 ORDER BY rental_rate_hourly ASC", ownerId)
}

func (driver *storageDriver) GetTrainableGpus(ownerId string) (storage.Iterator[restapi.Gpu], error) {
	return driver.queryGpus(selectGpus+" WHERE owner_id = $1 AND status IN ('idle', 'available-for-rent') ORDER BY created_at DESC", ownerId)
}

func (driver *storageDriver) UpdateGpuStatus(id string, status string) error {
	result, err := driver.db.ExecContext(driver.ctx, "UPDATE gpus SET status = $1 WHERE id = $2", status, id)
	if err != nil {
		return mapError(err)
	}

	if count, err := result.RowsAffected(); err == nil && count == 0 {
		return storage.ErrNotFound
	}

	return nil
}

func (driver *storageDriver) SetGpuRentalSettings(id string, hourlyRate float64) error {
	result, err := driver.db.ExecContext(driver.ctx, "UPDATE gpus SET rental_rate_hourly = $1, status = $2 WHERE id = $3",
		hourlyRate, restapi.GpuAvailableForRent, id)
	if err != nil {
		return mapError(err)
	}

	if count, err := result.RowsAffected(); err == nil && count == 0 {
		return storage.ErrNotFound
	}

	return nil
}

func (driver *storageDriver) DeleteGpu(id string) error {
	result, err := driver.db.ExecContext(driver.ctx, "DELETE FROM gpus WHERE id = $1", id)
	if err != nil {
		return mapError(err)
	}

	if count, err := result.RowsAffected(); err == nil && count == 0 {
		return storage.ErrNotFound
	}

	return nil
}

const selectRentals = `SELECT id, gpu_id, renter_id, owner_id, start_time, hours, total_cost, status FROM rentals`

func unmarshalRental(row sqlRow) (restapi.Rental, error) {
	var rental restapi.Rental
	err := row.Scan(&rental.Id, &rental.GpuId, &rental.RenterId, &rental.OwnerId,
		&rental.StartTime, &rental.Hours, &rental.TotalCost, &rental.Status)
	if err != nil {
		return restapi.Rental{}, mapError(err)
	}

	return rental, nil
}

func (driver *storageDriver) CreateRental(rental restapi.Rental) (restapi.Rental, error) {
	if rental.Status == "" {
		rental.Status = restapi.RentalActive
	}
	if rental.StartTime.IsZero() {
		rental.StartTime = time.Now().UTC()
	}

	tx, err := driver.db.BeginTx(driver.ctx, nil)
	if err != nil {
		return restapi.Rental{}, mapError(err)
	}
	defer tx.Rollback()

	if rental.OwnerId != restapi.PlatformOwnerId {
		var status string
		err = tx.QueryRowContext(driver.ctx, "SELECT status FROM gpus WHERE id = $1 FOR UPDATE", rental.GpuId).Scan(&status)
		if err != nil {
			return restapi.Rental{}, mapError(err)
		}

		if status != restapi.GpuAvailableForRent {
			return restapi.Rental{}, storage.ErrNotRentable
		}

		_, err = tx.ExecContext(driver.ctx, "UPDATE gpus SET status = 'rented-out' WHERE id = $1", rental.GpuId)
		if err != nil {
			return restapi.Rental{}, mapError(err)
		}
	}

	err = tx.QueryRowContext(driver.ctx, "INSERT INTO rentals ("+
		"gpu_id, renter_id, owner_id, start_time, hours, total_cost, status"+
		") VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id",
		rental.GpuId, rental.RenterId, rental.OwnerId, rental.StartTime,
		rental.Hours, rental.TotalCost, rental.Status).Scan(&rental.Id)
	if err != nil {
		return restapi.Rental{}, mapError(err)
	}

	if err = tx.Commit(); err != nil {
		return restapi.Rental{}, mapError(err)
	}

	return rental, nil
}

func (driver *storageDriver) GetRentalById(id string) (restapi.Rental, error) {
	return unmarshalRental(driver.db.QueryRowContext(driver.ctx, selectRentals+" WHERE id = $1", id))
}

func (driver *storageDriver) GetRentalsByRenter(renterId string) (storage.Iterator[restapi.Rental], error) {
	rows, err := driver.db.QueryContext(driver.ctx, selectRentals+" WHERE renter_id = $1 ORDER BY created_at DESC", renterId)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	rentals := make([]restapi.Rental, 0)
	for rows.Next() {
		rental, err := unmarshalRental(rows)
		if err != nil {
			return nil, err
		}

		rentals = append(rentals, rental)
	}

	return storage.NewDefaultIterator(rentals), rows.Err()
}

const selectJobs = `SELECT id, user_id, pipeline_name, job_name, config, status, progress, gpu_id, rental_id, created_at FROM training_jobs`

func unmarshalJob(row sqlRow) (restapi.TrainingJob, error) {
	var job restapi.TrainingJob
	var config []byte
	err := row.Scan(&job.Id, &job.UserId, &job.PipelineName, &job.JobName, &config,
		&job.Status, &job.Progress, &job.GpuId, &job.RentalId, &job.CreatedAt)
	if err != nil {
		return restapi.TrainingJob{}, mapError(err)
	}

	if len(config) > 0 {
		if err = json.Unmarshal(config, &job.Config); err != nil {
			return restapi.TrainingJob{}, err
		}
	}

	return job, nil
}

func (driver *storageDriver) CreateTrainingJob(job restapi.TrainingJob) (restapi.TrainingJob, error) {
	if job.Status == "" {
		job.Status = restapi.JobQueued
	}

	config, err := json.Marshal(job.Config)
	if err != nil {
		return restapi.TrainingJob{}, err
	}

	tx, err := driver.db.BeginTx(driver.ctx, nil)
	if err != nil {
		return restapi.TrainingJob{}, mapError(err)
	}
	defer tx.Rollback()

	if job.GpuId != "" {
		var status string
		err = tx.QueryRowContext(driver.ctx, "SELECT status FROM gpus WHERE id = $1 FOR UPDATE", job.GpuId).Scan(&status)
		if err != nil {
			return restapi.TrainingJob{}, mapError(err)
		}

		if status != restapi.GpuIdle && status != restapi.GpuAvailableForRent {
			return restapi.TrainingJob{}, storage.ErrNotTrainable
		}

		_, err = tx.ExecContext(driver.ctx, "UPDATE gpus SET status = 'active-training' WHERE id = $1", job.GpuId)
		if err != nil {
			return restapi.TrainingJob{}, mapError(err)
		}
	}

	err = tx.QueryRowContext(driver.ctx, "INSERT INTO training_jobs ("+
		"user_id, pipeline_name, job_name, config, status, progress, gpu_id, rental_id"+
		") VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id, created_at",
		job.UserId, job.PipelineName, job.JobName, config, job.Status,
		job.Progress, job.GpuId, job.RentalId).Scan(&job.Id, &job.CreatedAt)
	if err != nil {
		return restapi.TrainingJob{}, mapError(err)
	}

	if err = tx.Commit(); err != nil {
		return restapi.TrainingJob{}, mapError(err)
	}

	return job, nil
}

func (driver *storageDriver) GetTrainingJobsByUser(userId string, limit int) (storage.Iterator[restapi.TrainingJob], error) {
	query := selectJobs + " WHERE user_id = $1 ORDER BY created_at DESC"
	args := []any{userId}
	if limit > 0 {
		query += " LIMIT $2"
		args = append(args, limit)
	}

	rows, err := driver.db.QueryContext(driver.ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	jobs := make([]restapi.TrainingJob, 0)
	for rows.Next() {
		job, err := unmarshalJob(rows)
		if err != nil {
			return nil, err
		}

		jobs = append(jobs, job)
	}

	return storage.NewDefaultIterator(jobs), rows.Err()
}

const selectBots = `SELECT id, user_id, bot_name, bot_type, telegram_token_hint, model, status, created_at FROM bots`

func unmarshalBot(row sqlRow) (restapi.Bot, error) {
	var bot restapi.Bot
	err := row.Scan(&bot.Id, &bot.UserId, &bot.BotName, &bot.BotType,
		&bot.TelegramTokenHint, &bot.Model, &bot.Status, &bot.CreatedAt)
	if err != nil {
		return restapi.Bot{}, mapError(err)
	}

	return bot, nil
}

func (driver *storageDriver) DeployBot(bot restapi.Bot) (restapi.Bot, error) {
	if bot.Status == "" {
		bot.Status = restapi.BotLive
	}

	err := driver.db.QueryRowContext(driver.ctx, "INSERT INTO bots ("+
		"user_id, bot_name, bot_type, telegram_token_hint, model, status"+
		") VALUES ($1, $2, $3, $4, $5, $6) RETURNING id, created_at",
		bot.UserId, bot.BotName, bot.BotType, bot.TelegramTokenHint,
		bot.Model, bot.Status).Scan(&bot.Id, &bot.CreatedAt)
	if err != nil {
		return restapi.Bot{}, mapError(err)
	}

	return bot, nil
}

func (driver *storageDriver) GetBotsByUser(userId string) (storage.Iterator[restapi.Bot], error) {
	rows, err := driver.db.QueryContext(driver.ctx, selectBots+" WHERE user_id = $1 ORDER BY created_at DESC", userId)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	bots := make([]restapi.Bot, 0)
	for rows.Next() {
		bot, err := unmarshalBot(rows)
		if err != nil {
			return nil, err
		}

		bots = append(bots, bot)
	}

	return storage.NewDefaultIterator(bots), rows.Err()
}

func (driver *storageDriver) DeleteBot(id string) error {
	result, err := driver.db.ExecContext(driver.ctx, "DELETE FROM bots WHERE id = $1", id)
	if err != nil {
		return mapError(err)
	}

	if count, err := result.RowsAffected(); err == nil && count == 0 {
		return storage.ErrNotFound
	}

	return nil
}

func (driver *storageDriver) IncrementUserCredits(userId string, amount int64) (int64, error) {
	var balance int64
	err := driver.db.QueryRowContext(driver.ctx, "INSERT INTO credit_balances (user_id, balance) VALUES ($1, $2) "+
		"ON CONFLICT (user_id) DO UPDATE SET balance = credit_balances.balance + $2 RETURNING balance",
		userId, amount).Scan(&balance)
	if err != nil {
		return 0, mapError(err)
	}

	return balance, nil
}

func (driver *storageDriver) GetUserCredits(userId string) (int64, error) {
	var balance int64
	err := driver.db.QueryRowContext(driver.ctx, "SELECT balance FROM credit_balances WHERE user_id = $1", userId).Scan(&balance)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}

		return 0, mapError(err)
	}

	return balance, nil
}
