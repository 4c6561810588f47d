/*
 *  Copyright (c) 2025 Trainava Labs, Inc. All Rights Reserved.
 */
package training

import (
	"context"

	"github.com/trainava-labs/trainava/pkg/errors"
	"github.com/trainava-labs/trainava/pkg/logger"
	"github.com/trainava-labs/trainava/pkg/restapi"
)

var (
	ErrUnknownPipeline = errors.New("training: unknown pipeline")
	ErrMissingJobName  = errors.New("training: job name is required")
	ErrNoGpuSelected   = errors.New("training: no gpu selected")
	ErrUnknownDraft    = errors.New("training: unknown draft")
)

type GpuSelectionMode string

const (
	// SelectOwned runs the job on hardware the user owns.
	SelectOwned GpuSelectionMode = "owned"
	// SelectRented runs the job on an already rented unit.
	SelectRented GpuSelectionMode = "rented"
	// SelectRentLater defers the job until a rental completes.
	SelectRentLater GpuSelectionMode = "rent-later"
)

// Store is the slice of the controller API the launcher needs.
type Store interface {
	GetTrainableGpusWithContext(ctx context.Context, ownerId string) ([]restapi.Gpu, error)
	CreateTrainingJobWithContext(ctx context.Context, job restapi.TrainingJob) (restapi.TrainingJob, error)
	GetTrainingJobsWithContext(ctx context.Context, userId string, limit int) ([]restapi.TrainingJob, error)
}

type LaunchRequest struct {
	PipelineId string
	JobName    string
	Config     map[string]string

	Mode     GpuSelectionMode
	GpuId    string
	RentalId string
}

// Launcher drives the training setup flow: configure a pipeline, pick
// hardware, submit. Jobs without hardware are stashed as drafts and
// resumed when a rental hands back.
type Launcher struct {
	store  Store
	drafts *DraftStore
	userId string
}

func NewLauncher(store Store, drafts *DraftStore, userId string) *Launcher {
	return &Launcher{
		store:  store,
		drafts: drafts,
		userId: userId,
	}
}

// TrainableGpus lists the user's hardware that can take a job right now.
func (launcher *Launcher) TrainableGpus(ctx context.Context) ([]restapi.Gpu, error) {
	return launcher.store.GetTrainableGpusWithContext(ctx, launcher.userId)
}

// RecentJobs returns the user's latest training jobs, newest first.
func (launcher *Launcher) RecentJobs(ctx context.Context) ([]restapi.TrainingJob, error) {
	return launcher.store.GetTrainingJobsWithContext(ctx, launcher.userId, 10)
}

func (launcher *Launcher) validate(request LaunchRequest) (Pipeline, error) {
	pipeline, ok := FindPipeline(request.PipelineId)
	if !ok {
		return Pipeline{}, ErrUnknownPipeline
	}

	if request.JobName == "" {
		return Pipeline{}, ErrMissingJobName
	}

	return pipeline, nil
}

// Launch submits a configured job on the selected hardware.
func (launcher *Launcher) Launch(ctx context.Context, request LaunchRequest) (restapi.TrainingJob, error) {
	pipeline, err := launcher.validate(request)
	if err != nil {
		return restapi.TrainingJob{}, err
	}

	job := restapi.TrainingJob{
		UserId:       launcher.userId,
		PipelineName: pipeline.Name,
		JobName:      request.JobName,
		Config:       request.Config,
		Status:       restapi.JobQueued,
	}

	switch request.Mode {
	case SelectOwned:
		if request.GpuId == "" {
			return restapi.TrainingJob{}, ErrNoGpuSelected
		}
		job.GpuId = request.GpuId

	case SelectRented:
		if request.RentalId == "" {
			return restapi.TrainingJob{}, ErrNoGpuSelected
		}
		job.RentalId = request.RentalId

	default:
		return restapi.TrainingJob{}, ErrNoGpuSelected
	}

	created, err := launcher.store.CreateTrainingJobWithContext(ctx, job)
	if err != nil {
		return restapi.TrainingJob{}, err
	}

	logger.Infof("launched training job %s (%s)", created.Id, created.PipelineName)
	return created, nil
}

// Defer validates the job and stashes it as a draft to be resumed once a
// rental completes. Returns the draft id to attach to the rental flow.
func (launcher *Launcher) Defer(request LaunchRequest) (string, error) {
	pipeline, err := launcher.validate(request)
	if err != nil {
		return "", err
	}

	return launcher.drafts.Put(JobDraft{
		PipelineId:   pipeline.Id,
		PipelineName: pipeline.Name,
		JobName:      request.JobName,
		Config:       request.Config,
	}), nil
}

// Resume launches the draft carried by a completed rental on the rented
// unit. The draft's pipeline, name and configuration are used untouched.
func (launcher *Launcher) Resume(ctx context.Context, handoff Handoff) (restapi.TrainingJob, error) {
	draft := handoff.Draft
	if draft.PipelineId == "" {
		stashed, ok := launcher.drafts.Take(handoff.DraftId)
		if !ok {
			return restapi.TrainingJob{}, ErrUnknownDraft
		}
		draft = stashed
	}

	return launcher.Launch(ctx, LaunchRequest{
		PipelineId: draft.PipelineId,
		JobName:    draft.JobName,
		Config:     draft.Config,
		Mode:       SelectRented,
		RentalId:   handoff.RentedGpuId,
	})
}
