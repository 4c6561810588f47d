/*
 *  Copyright (c) 2025 Trainava Labs, Inc. All Rights Reserved.
 */
package prometheus

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/trainava-labs/trainava/cmd/controller/storage"
	"github.com/trainava-labs/trainava/pkg/server"
	"github.com/trainava-labs/trainava/pkg/task"
)

type Frontend struct {
	sync.Mutex

	storage storage.Storage

	gpus            prometheus.Gauge
	gpusByStatus    *prometheus.GaugeVec
	rentals         prometheus.Gauge
	rentalsByStatus *prometheus.GaugeVec
	jobs            prometheus.Gauge
	jobsByStatus    *prometheus.GaugeVec
	bots            prometheus.Gauge
	botsByStatus    *prometheus.GaugeVec
	creditsIssued   prometheus.Gauge
}

func NewFrontend(server *server.Server, storage storage.Storage) (*Frontend, error) {
	frontend := &Frontend{
		storage: storage,

		gpus: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "trainava_gpus",
			Help: "Number of GPU listings",
		}),
		gpusByStatus: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "trainava_gpus_by_status",
			Help: "Number of GPU listings by status",
		}, []string{"status"}),
		rentals: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "trainava_rentals",
			Help: "Number of rentals",
		}),
		rentalsByStatus: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "trainava_rentals_by_status",
			Help: "Number of rentals by status",
		}, []string{"status"}),
		jobs: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "trainava_training_jobs",
			Help: "Number of training jobs",
		}),
		jobsByStatus: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "trainava_training_jobs_by_status",
			Help: "Number of training jobs by status",
		}, []string{"status"}),
		bots: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "trainava_bots",
			Help: "Number of deployed bots",
		}),
		botsByStatus: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "trainava_bots_by_status",
			Help: "Number of deployed bots by status",
		}, []string{"status"}),
		creditsIssued: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "trainava_credits_issued",
			Help: "Total platform credits issued",
		}),
	}

	prometheus.MustRegister(frontend)

	server.AddEndpointHandler("GET", "/metrics", promhttp.Handler())

	return frontend, nil
}

func (frontend *Frontend) Run(group task.Group) error {
	var err error

	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()

	for err == nil {
		select {
		case <-group.Ctx().Done():
			return err

		case <-ticker.C:
			err = frontend.update()
		}
	}

	return err
}

func (frontend *Frontend) update() error {
	data, err := frontend.storage.AggregateData()
	if err != nil {
		return err
	}

	frontend.Lock()
	defer frontend.Unlock()

	frontend.gpus.Set(float64(data.Gpus))
	frontend.gpusByStatus.Reset()
	for key, value := range data.GpusByStatus {
		frontend.gpusByStatus.WithLabelValues(key).Set(float64(value))
	}

	frontend.rentals.Set(float64(data.Rentals))
	frontend.rentalsByStatus.Reset()
	for key, value := range data.RentalsByStatus {
		frontend.rentalsByStatus.WithLabelValues(key).Set(float64(value))
	}

	frontend.jobs.Set(float64(data.TrainingJobs))
	frontend.jobsByStatus.Reset()
	for key, value := range data.TrainingJobsByStatus {
		frontend.jobsByStatus.WithLabelValues(key).Set(float64(value))
	}

	frontend.bots.Set(float64(data.Bots))
	frontend.botsByStatus.Reset()
	for key, value := range data.BotsByStatus {
		frontend.botsByStatus.WithLabelValues(key).Set(float64(value))
	}

	frontend.creditsIssued.Set(float64(data.CreditsIssued))

	return err
}

func (frontend *Frontend) Describe(ch chan<- *prometheus.Desc) {
	frontend.gpus.Describe(ch)
	frontend.gpusByStatus.Describe(ch)
	frontend.rentals.Describe(ch)
	frontend.rentalsByStatus.Describe(ch)
	frontend.jobs.Describe(ch)
	frontend.jobsByStatus.Describe(ch)
	frontend.bots.Describe(ch)
	frontend.botsByStatus.Describe(ch)
	frontend.creditsIssued.Describe(ch)
}

func (frontend *Frontend) Collect(ch chan<- prometheus.Metric) {
	frontend.Lock()
	defer frontend.Unlock()

	frontend.gpus.Collect(ch)
	frontend.gpusByStatus.Collect(ch)
	frontend.rentals.Collect(ch)
	frontend.rentalsByStatus.Collect(ch)
	frontend.jobs.Collect(ch)
	frontend.jobsByStatus.Collect(ch)
	frontend.bots.Collect(ch)
	frontend.botsByStatus.Collect(ch)
	frontend.creditsIssued.Collect(ch)
}
