/*
 *  Copyright (c) 2025 Trainava Labs, Inc. All Rights Reserved.
 */
package restapi

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

type RestApi struct {
	Client  *http.Client
	Scheme  string
	Address string

	// AccessToken, when set, is attached to every request as a bearer token.
	AccessToken string
}

func (api RestApi) do(ctx context.Context, method string, path string, query url.Values, body io.Reader) (*http.Response, error) {
	url := url.URL{
		Scheme: api.Scheme,
		Host:   api.Address,
		Path:   path,
	}

	if query != nil {
		url.RawQuery = query.Encode()
	}

	request, err := http.NewRequestWithContext(ctx, method, url.String(), body)
	if err != nil {
		return nil, err
	}

	if body != nil {
		request.Header.Set("Content-Type", "application/json")
	}

	if api.AccessToken != "" {
		request.Header.Set("Authorization", fmt.Sprint("Bearer ", api.AccessToken))
	}

	return api.Client.Do(request)
}

func (api RestApi) get(ctx context.Context, path string, query url.Values) (*http.Response, error) {
	return api.do(ctx, "GET", path, query, nil)
}

func (api RestApi) post(ctx context.Context, path string, body io.Reader) (*http.Response, error) {
	return api.do(ctx, "POST", path, nil, body)
}

func (api RestApi) put(ctx context.Context, path string, body io.Reader) (*http.Response, error) {
	return api.do(ctx, "PUT", path, nil, body)
}

func (api RestApi) delete(ctx context.Context, path string) (*http.Response, error) {
	return api.do(ctx, "DELETE", path, nil, nil)
}

func (api RestApi) Status() (Status, error) {
	return api.StatusWithContext(context.Background())
}

func (api RestApi) StatusWithContext(ctx context.Context) (Status, error) {
	response, err := api.get(ctx, "/v1/status", nil)
	if err != nil {
		return Status{}, err
	}
	defer response.Body.Close()

	return parseJsonResponse[Status](response)
}

func (api RestApi) GetPackages() ([]GpuPackage, error) {
	return api.GetPackagesWithContext(context.Background())
}

func (api RestApi) GetPackagesWithContext(ctx context.Context) ([]GpuPackage, error) {
	response, err := api.get(ctx, "/v1/packages", nil)
	if err != nil {
		return nil, err
	}
	defer response.Body.Close()

	return parseJsonResponse[[]GpuPackage](response)
}

func (api RestApi) GetTemplates() ([]AiTemplate, error) {
	return api.GetTemplatesWithContext(context.Background())
}

func (api RestApi) GetTemplatesWithContext(ctx context.Context) ([]AiTemplate, error) {
	response, err := api.get(ctx, "/v1/templates", nil)
	if err != nil {
		return nil, err
	}
	defer response.Body.Close()

	return parseJsonResponse[[]AiTemplate](response)
}

func (api RestApi) PurchaseGpu(purchase PurchaseRequest) (Gpu, error) {
	return api.PurchaseGpuWithContext(context.Background(), purchase)
}

func (api RestApi) PurchaseGpuWithContext(ctx context.Context, purchase PurchaseRequest) (Gpu, error) {
	body, err := jsonReaderFromObject(purchase)
	if err != nil {
		return Gpu{}, err
	}

	response, err := api.post(ctx, "/v1/purchase/gpu", body)
	if err != nil {
		return Gpu{}, err
	}
	defer response.Body.Close()

	return parseJsonResponse[Gpu](response)
}

func (api RestApi) GetGpu(id string) (Gpu, error) {
	return api.GetGpuWithContext(context.Background(), id)
}

func (api RestApi) GetGpuWithContext(ctx context.Context, id string) (Gpu, error) {
	response, err := api.get(ctx, fmt.Sprint("/v1/gpu/", id), nil)
	if err != nil {
		return Gpu{}, err
	}
	defer response.Body.Close()

	return parseJsonResponse[Gpu](response)
}

func (api RestApi) GetAvailableGpus(excludeOwnerId string) ([]Gpu, error) {
	return api.GetAvailableGpusWithContext(context.Background(), excludeOwnerId)
}

func (api RestApi) GetAvailableGpusWithContext(ctx context.Context, excludeOwnerId string) ([]Gpu, error) {
	query := url.Values{}
	if excludeOwnerId != "" {
		query.Set("exclude", excludeOwnerId)
	}

	response, err := api.get(ctx, "/v1/gpus/available", query)
	if err != nil {
		return nil, err
	}
	defer response.Body.Close()

	return parseJsonResponse[[]Gpu](response)
}

func (api RestApi) GetOwnedGpus(ownerId string) ([]Gpu, error) {
	return api.GetOwnedGpusWithContext(context.Background(), ownerId)
}

func (api RestApi) GetOwnedGpusWithContext(ctx context.Context, ownerId string) ([]Gpu, error) {
	response, err := api.get(ctx, fmt.Sprint("/v1/user/", ownerId, "/gpus"), nil)
	if err != nil {
		return nil, err
	}
	defer response.Body.Close()

	return parseJsonResponse[[]Gpu](response)
}

func (api RestApi) GetOwnedAvailableGpus(ownerId string) ([]Gpu, error) {
	return api.GetOwnedAvailableGpusWithContext(context.Background(), ownerId)
}

func (api RestApi) GetOwnedAvailableGpusWithContext(ctx context.Context, ownerId string) ([]Gpu, error) {
	response, err := api.get(ctx, fmt.Sprint("/v1/user/", ownerId, "/gpus/rentable"), nil)
	if err != nil {
		return nil, err
	}
	defer response.Body.Close()

	return parseJsonResponse[[]Gpu](response)
}

func (api RestApi) GetTrainableGpus(ownerId string) ([]Gpu, error) {
	return api.GetTrainableGpusWithContext(context.Background(), ownerId)
}

func (api RestApi) GetTrainableGpusWithContext(ctx context.Context, ownerId string) ([]Gpu, error) {
	response, err := api.get(ctx, fmt.Sprint("/v1/user/", ownerId, "/gpus/trainable"), nil)
	if err != nil {
		return nil, err
	}
	defer response.Body.Close()

	return parseJsonResponse[[]Gpu](response)
}

func (api RestApi) UpdateGpuStatus(id string, status string) error {
	return api.UpdateGpuStatusWithContext(context.Background(), id, status)
}

func (api RestApi) UpdateGpuStatusWithContext(ctx context.Context, id string, status string) error {
	body, err := jsonReaderFromObject(GpuStatusUpdate{Status: status})
	if err != nil {
		return err
	}

	response, err := api.put(ctx, fmt.Sprint("/v1/gpu/", id, "/status"), body)
	if err != nil {
		return err
	}
	defer response.Body.Close()

	return validateResponse(response)
}

func (api RestApi) SetGpuRentalSettings(id string, hourlyRate float64) error {
	return api.SetGpuRentalSettingsWithContext(context.Background(), id, hourlyRate)
}

func (api RestApi) SetGpuRentalSettingsWithContext(ctx context.Context, id string, hourlyRate float64) error {
	body, err := jsonReaderFromObject(RentalSettingsUpdate{RentalRateHourly: hourlyRate})
	if err != nil {
		return err
	}

	response, err := api.put(ctx, fmt.Sprint("/v1/gpu/", id, "/rental-settings"), body)
	if err != nil {
		return err
	}
	defer response.Body.Close()

	return validateResponse(response)
}

func (api RestApi) DeleteGpu(id string) error {
	return api.DeleteGpuWithContext(context.Background(), id)
}

func (api RestApi) DeleteGpuWithContext(ctx context.Context, id string) error {
	response, err := api.delete(ctx, fmt.Sprint("/v1/gpu/", id))
	if err != nil {
		return err
	}
	defer response.Body.Close()

	return validateResponse(response)
}

func (api RestApi) CreateRental(rental Rental) (Rental, error) {
	return api.CreateRentalWithContext(context.Background(), rental)
}

func (api RestApi) CreateRentalWithContext(ctx context.Context, rental Rental) (Rental, error) {
	body, err := jsonReaderFromObject(rental)
	if err != nil {
		return Rental{}, err
	}

	response, err := api.post(ctx, "/v1/rentals", body)
	if err != nil {
		return Rental{}, err
	}
	defer response.Body.Close()

	return parseJsonResponse[Rental](response)
}

func (api RestApi) GetRental(id string) (Rental, error) {
	return api.GetRentalWithContext(context.Background(), id)
}

func (api RestApi) GetRentalWithContext(ctx context.Context, id string) (Rental, error) {
	response, err := api.get(ctx, fmt.Sprint("/v1/rental/", id), nil)
	if err != nil {
		return Rental{}, err
	}
	defer response.Body.Close()

	return parseJsonResponse[Rental](response)
}

func (api RestApi) GetRentals(renterId string) ([]Rental, error) {
	return api.GetRentalsWithContext(context.Background(), renterId)
}

func (api RestApi) GetRentalsWithContext(ctx context.Context, renterId string) ([]Rental, error) {
	response, err := api.get(ctx, fmt.Sprint("/v1/user/", renterId, "/rentals"), nil)
	if err != nil {
		return nil, err
	}
	defer response.Body.Close()

	return parseJsonResponse[[]Rental](response)
}

func (api RestApi) CreateTrainingJob(job TrainingJob) (TrainingJob, error) {
	return api.CreateTrainingJobWithContext(context.Background(), job)
}

func (api RestApi) CreateTrainingJobWithContext(ctx context.Context, job TrainingJob) (TrainingJob, error) {
	body, err := jsonReaderFromObject(job)
	if err != nil {
		return TrainingJob{}, err
	}

	response, err := api.post(ctx, "/v1/jobs", body)
	if err != nil {
		return TrainingJob{}, err
	}
	defer response.Body.Close()

	return parseJsonResponse[TrainingJob](response)
}

func (api RestApi) GetTrainingJobs(userId string, limit int) ([]TrainingJob, error) {
	return api.GetTrainingJobsWithContext(context.Background(), userId, limit)
}

func (api RestApi) GetTrainingJobsWithContext(ctx context.Context, userId string, limit int) ([]TrainingJob, error) {
	query := url.Values{}
	if limit > 0 {
		query.Set("limit", fmt.Sprint(limit))
	}

	response, err := api.get(ctx, fmt.Sprint("/v1/user/", userId, "/jobs"), query)
	if err != nil {
		return nil, err
	}
	defer response.Body.Close()

	return parseJsonResponse[[]TrainingJob](response)
}

func (api RestApi) DeployBot(deployment BotDeployment) (Bot, error) {
	return api.DeployBotWithContext(context.Background(), deployment)
}

func (api RestApi) DeployBotWithContext(ctx context.Context, deployment BotDeployment) (Bot, error) {
	body, err := jsonReaderFromObject(deployment)
	if err != nil {
		return Bot{}, err
	}

	response, err := api.post(ctx, "/v1/bots", body)
	if err != nil {
		return Bot{}, err
	}
	defer response.Body.Close()

	return parseJsonResponse[Bot](response)
}

func (api RestApi) GetBots(userId string) ([]Bot, error) {
	return api.GetBotsWithContext(context.Background(), userId)
}

func (api RestApi) GetBotsWithContext(ctx context.Context, userId string) ([]Bot, error) {
	response, err := api.get(ctx, fmt.Sprint("/v1/user/", userId, "/bots"), nil)
	if err != nil {
		return nil, err
	}
	defer response.Body.Close()

	return parseJsonResponse[[]Bot](response)
}

func (api RestApi) DeleteBot(id string) error {
	return api.DeleteBotWithContext(context.Background(), id)
}

func (api RestApi) DeleteBotWithContext(ctx context.Context, id string) error {
	response, err := api.delete(ctx, fmt.Sprint("/v1/bot/", id))
	if err != nil {
		return err
	}
	defer response.Body.Close()

	return validateResponse(response)
}

func (api RestApi) IncrementCredits(userId string, amount int64) (CreditsBalance, error) {
	return api.IncrementCreditsWithContext(context.Background(), userId, amount)
}

func (api RestApi) IncrementCreditsWithContext(ctx context.Context, userId string, amount int64) (CreditsBalance, error) {
	body, err := jsonReaderFromObject(CreditsUpdate{Amount: amount})
	if err != nil {
		return CreditsBalance{}, err
	}

	response, err := api.post(ctx, fmt.Sprint("/v1/user/", userId, "/credits"), body)
	if err != nil {
		return CreditsBalance{}, err
	}
	defer response.Body.Close()

	return parseJsonResponse[CreditsBalance](response)
}

func (api RestApi) GetCredits(userId string) (CreditsBalance, error) {
	return api.GetCreditsWithContext(context.Background(), userId)
}

func (api RestApi) GetCreditsWithContext(ctx context.Context, userId string) (CreditsBalance, error) {
	response, err := api.get(ctx, fmt.Sprint("/v1/user/", userId, "/credits"), nil)
	if err != nil {
		return CreditsBalance{}, err
	}
	defer response.Body.Close()

	return parseJsonResponse[CreditsBalance](response)
}
