/*
 *  Copyright (c) 2025 Trainava Labs, Inc. All Rights Reserved.
 */
package frontend

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/trainava-labs/trainava/cmd/controller/storage"
	"github.com/trainava-labs/trainava/cmd/internal/build"
	"github.com/trainava-labs/trainava/pkg/errors"
	"github.com/trainava-labs/trainava/pkg/logger"
	"github.com/trainava-labs/trainava/pkg/middleware"
	pkgnet "github.com/trainava-labs/trainava/pkg/net"
	"github.com/trainava-labs/trainava/pkg/restapi"
	"github.com/trainava-labs/trainava/pkg/server"
)

func (frontend *Frontend) initializeEndpoints(server *server.Server) {
	ensure := middleware.EnsureValidToken()

	server.AddEndpointFunc("GET", "/v1/status", frontend.getStatusEp)
	server.AddEndpointFunc("GET", "/v1/packages", frontend.getPackagesEp)
	server.AddEndpointFunc("GET", "/v1/templates", frontend.getTemplatesEp)
	server.AddEndpointFunc("GET", "/v1/gpus/available", frontend.getAvailableGpusEp)
	server.AddEndpointFunc("GET", "/v1/gpu/{id}", frontend.getGpuEp)
	server.AddEndpointFunc("GET", "/v1/user/{id}/gpus", frontend.getOwnedGpusEp)
	server.AddEndpointFunc("GET", "/v1/user/{id}/gpus/rentable", frontend.getOwnedAvailableGpusEp)
	server.AddEndpointFunc("GET", "/v1/user/{id}/gpus/trainable", frontend.getTrainableGpusEp)
	server.AddEndpointFunc("GET", "/v1/rental/{id}", frontend.getRentalEp)
	server.AddEndpointFunc("GET", "/v1/user/{id}/rentals", frontend.getRentalsEp)
	server.AddEndpointFunc("GET", "/v1/user/{id}/jobs", frontend.getTrainingJobsEp)
	server.AddEndpointFunc("GET", "/v1/user/{id}/bots", frontend.getBotsEp)
	server.AddEndpointFunc("GET", "/v1/user/{id}/credits", frontend.getCreditsEp)

	server.AddEndpointHandler("POST", "/v1/purchase/gpu", ensure(http.HandlerFunc(frontend.purchaseGpuEp)))
	server.AddEndpointHandler("PUT", "/v1/gpu/{id}/status", ensure(http.HandlerFunc(frontend.updateGpuStatusEp)))
	server.AddEndpointHandler("PUT", "/v1/gpu/{id}/rental-settings", ensure(http.HandlerFunc(frontend.setRentalSettingsEp)))
	server.AddEndpointHandler("DELETE", "/v1/gpu/{id}", ensure(http.HandlerFunc(frontend.deleteGpuEp)))
	server.AddEndpointHandler("POST", "/v1/rentals", ensure(http.HandlerFunc(frontend.createRentalEp)))
	server.AddEndpointHandler("POST", "/v1/jobs", ensure(http.HandlerFunc(frontend.createTrainingJobEp)))
	server.AddEndpointHandler("POST", "/v1/bots", ensure(http.HandlerFunc(frontend.deployBotEp)))
	server.AddEndpointHandler("DELETE", "/v1/bot/{id}", ensure(http.HandlerFunc(frontend.deleteBotEp)))
	server.AddEndpointHandler("POST", "/v1/user/{id}/credits", ensure(http.HandlerFunc(frontend.incrementCreditsEp)))
}

func respondWithError(w http.ResponseWriter, err error) {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, storage.ErrNotFound):
		code = http.StatusNotFound
	case errors.Is(err, storage.ErrNotRentable), errors.Is(err, storage.ErrNotTrainable):
		code = http.StatusConflict
	case errors.Is(err, ErrInvalidHours), errors.Is(err, ErrUnknownPackage), errors.Is(err, ErrMissingFields):
		code = http.StatusBadRequest
	}

	err = errors.Join(err, pkgnet.RespondWithString(w, code, err.Error()))
	logger.Error(err)
}

func (frontend *Frontend) getStatusEp(w http.ResponseWriter, r *http.Request) {
	err := pkgnet.Respond(w, http.StatusOK, restapi.Status{
		State:    "Active",
		Version:  build.Version,
		Hostname: frontend.hostname,
	})

	if err != nil {
		respondWithError(w, err)
	}
}

func (frontend *Frontend) getPackagesEp(w http.ResponseWriter, r *http.Request) {
	pkgnet.Respond(w, http.StatusOK, gpuPackages)
}

func (frontend *Frontend) getTemplatesEp(w http.ResponseWriter, r *http.Request) {
	pkgnet.Respond(w, http.StatusOK, aiTemplates)
}

func (frontend *Frontend) purchaseGpuEp(w http.ResponseWriter, r *http.Request) {
	purchase, err := pkgnet.ReadRequestBody[restapi.PurchaseRequest](r)
	if err != nil {
		respondWithError(w, err)
		return
	}

	gpu, err := frontend.purchaseGpu(purchase)
	if err != nil {
		respondWithError(w, err)
		return
	}

	pkgnet.Respond(w, http.StatusOK, gpu)
}

func (frontend *Frontend) getAvailableGpusEp(w http.ResponseWriter, r *http.Request) {
	gpus, err := storage.Collect(frontend.storage.GetAvailableGpus(r.URL.Query().Get("exclude")))
	if err != nil {
		respondWithError(w, err)
		return
	}

	pkgnet.Respond(w, http.StatusOK, gpus)
}

func (frontend *Frontend) getGpuEp(w http.ResponseWriter, r *http.Request) {
	gpu, err := frontend.storage.GetGpuById(mux.Vars(r)["id"])
	if err != nil {
		respondWithError(w, err)
		return
	}

	pkgnet.Respond(w, http.StatusOK, gpu)
}

func (frontend *Frontend) getOwnedGpusEp(w http.ResponseWriter, r *http.Request) {
	gpus, err := storage.Collect(frontend.storage.GetGpusByOwner(mux.Vars(r)["id"]))
	if err != nil {
		respondWithError(w, err)
		return
	}

	pkgnet.Respond(w, http.StatusOK, gpus)
}

func (frontend *Frontend) getOwnedAvailableGpusEp(w http.ResponseWriter, r *http.Request) {
	gpus, err := storage.Collect(frontend.storage.GetOwnedAvailableGpus(mux.Vars(r)["id"]))
	if err != nil {
		respondWithError(w, err)
		return
	}

	pkgnet.Respond(w, http.StatusOK, gpus)
}

func (frontend *Frontend) getTrainableGpusEp(w http.ResponseWriter, r *http.Request) {
	gpus, err := storage.Collect(frontend.storage.GetTrainableGpus(mux.Vars(r)["id"]))
	if err != nil {
		respondWithError(w, err)
		return
	}

	pkgnet.Respond(w, http.StatusOK, gpus)
}

func (frontend *Frontend) updateGpuStatusEp(w http.ResponseWriter, r *http.Request) {
	update, err := pkgnet.ReadRequestBody[restapi.GpuStatusUpdate](r)
	if err != nil {
		respondWithError(w, err)
		return
	}

	if err = frontend.storage.UpdateGpuStatus(mux.Vars(r)["id"], update.Status); err != nil {
		respondWithError(w, err)
		return
	}

	pkgnet.RespondEmpty(w, http.StatusOK)
}

func (frontend *Frontend) setRentalSettingsEp(w http.ResponseWriter, r *http.Request) {
	update, err := pkgnet.ReadRequestBody[restapi.RentalSettingsUpdate](r)
	if err != nil {
		respondWithError(w, err)
		return
	}

	if err = frontend.storage.SetGpuRentalSettings(mux.Vars(r)["id"], update.RentalRateHourly); err != nil {
		respondWithError(w, err)
		return
	}

	pkgnet.RespondEmpty(w, http.StatusOK)
}

func (frontend *Frontend) deleteGpuEp(w http.ResponseWriter, r *http.Request) {
	if err := frontend.storage.DeleteGpu(mux.Vars(r)["id"]); err != nil {
		respondWithError(w, err)
		return
	}

	pkgnet.RespondEmpty(w, http.StatusOK)
}

func (frontend *Frontend) createRentalEp(w http.ResponseWriter, r *http.Request) {
	rental, err := pkgnet.ReadRequestBody[restapi.Rental](r)
	if err != nil {
		respondWithError(w, err)
		return
	}

	created, err := frontend.createRental(rental)
	if err != nil {
		respondWithError(w, err)
		return
	}

	pkgnet.Respond(w, http.StatusOK, created)
}

func (frontend *Frontend) getRentalEp(w http.ResponseWriter, r *http.Request) {
	rental, err := frontend.storage.GetRentalById(mux.Vars(r)["id"])
	if err != nil {
		respondWithError(w, err)
		return
	}

	pkgnet.Respond(w, http.StatusOK, rental)
}

func (frontend *Frontend) getRentalsEp(w http.ResponseWriter, r *http.Request) {
	rentals, err := storage.Collect(frontend.storage.GetRentalsByRenter(mux.Vars(r)["id"]))
	if err != nil {
		respondWithError(w, err)
		return
	}

	pkgnet.Respond(w, http.StatusOK, rentals)
}

func (frontend *Frontend) createTrainingJobEp(w http.ResponseWriter, r *http.Request) {
	job, err := pkgnet.ReadRequestBody[restapi.TrainingJob](r)
	if err != nil {
		respondWithError(w, err)
		return
	}

	created, err := frontend.createTrainingJob(job)
	if err != nil {
		respondWithError(w, err)
		return
	}

	pkgnet.Respond(w, http.StatusOK, created)
}

func (frontend *Frontend) getTrainingJobsEp(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if value := r.URL.Query().Get("limit"); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			respondWithError(w, errors.Join(ErrMissingFields, err))
			return
		}
		limit = parsed
	}

	jobs, err := storage.Collect(frontend.storage.GetTrainingJobsByUser(mux.Vars(r)["id"], limit))
	if err != nil {
		respondWithError(w, err)
		return
	}

	pkgnet.Respond(w, http.StatusOK, jobs)
}

func (frontend *Frontend) deployBotEp(w http.ResponseWriter, r *http.Request) {
	deployment, err := pkgnet.ReadRequestBody[restapi.BotDeployment](r)
	if err != nil {
		respondWithError(w, err)
		return
	}

	bot, err := frontend.deployBot(deployment)
	if err != nil {
		respondWithError(w, err)
		return
	}

	pkgnet.Respond(w, http.StatusOK, bot)
}

func (frontend *Frontend) getBotsEp(w http.ResponseWriter, r *http.Request) {
	bots, err := storage.Collect(frontend.storage.GetBotsByUser(mux.Vars(r)["id"]))
	if err != nil {
		respondWithError(w, err)
		return
	}

	pkgnet.Respond(w, http.StatusOK, bots)
}

func (frontend *Frontend) deleteBotEp(w http.ResponseWriter, r *http.Request) {
	if err := frontend.storage.DeleteBot(mux.Vars(r)["id"]); err != nil {
		respondWithError(w, err)
		return
	}

	pkgnet.RespondEmpty(w, http.StatusOK)
}

func (frontend *Frontend) incrementCreditsEp(w http.ResponseWriter, r *http.Request) {
	update, err := pkgnet.ReadRequestBody[restapi.CreditsUpdate](r)
	if err != nil {
		respondWithError(w, err)
		return
	}

	userId := mux.Vars(r)["id"]
	balance, err := frontend.storage.IncrementUserCredits(userId, update.Amount)
	if err != nil {
		respondWithError(w, err)
		return
	}

	pkgnet.Respond(w, http.StatusOK, restapi.CreditsBalance{
		UserId:  userId,
		Balance: balance,
	})
}

func (frontend *Frontend) getCreditsEp(w http.ResponseWriter, r *http.Request) {
	userId := mux.Vars(r)["id"]
	balance, err := frontend.storage.GetUserCredits(userId)
	if err != nil {
		respondWithError(w, err)
		return
	}

	pkgnet.Respond(w, http.StatusOK, restapi.CreditsBalance{
		UserId:  userId,
		Balance: balance,
	})
}
