/*
 *  Copyright (c) 2025 Trainava Labs, Inc. All Rights Reserved.
 */
package training

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trainava-labs/trainava/pkg/restapi"
)

type fakeStore struct {
	trainable []restapi.Gpu
	jobs      []restapi.TrainingJob
}

func (store *fakeStore) GetTrainableGpusWithContext(ctx context.Context, ownerId string) ([]restapi.Gpu, error) {
	return store.trainable, nil
}

func (store *fakeStore) CreateTrainingJobWithContext(ctx context.Context, job restapi.TrainingJob) (restapi.TrainingJob, error) {
	job.Id = "job-1"
	store.jobs = append(store.jobs, job)
	return job, nil
}

func (store *fakeStore) GetTrainingJobsWithContext(ctx context.Context, userId string, limit int) ([]restapi.TrainingJob, error) {
	if limit > 0 && len(store.jobs) > limit {
		return store.jobs[:limit], nil
	}
	return store.jobs, nil
}

func newLauncher() (*Launcher, *fakeStore, *DraftStore) {
	store := &fakeStore{}
	drafts := NewDraftStore()
	return NewLauncher(store, drafts, "user-1"), store, drafts
}

func TestDraftStoreIsKeyed(t *testing.T) {
	drafts := NewDraftStore()

	first := drafts.Put(JobDraft{JobName: "first"})
	second := drafts.Put(JobDraft{JobName: "second"})
	require.NotEqual(t, first, second)

	// Taking one draft leaves the other untouched.
	draft, ok := drafts.Take(second)
	require.True(t, ok)
	assert.Equal(t, "second", draft.JobName)
	assert.Equal(t, 1, drafts.Len())

	draft, ok = drafts.Get(first)
	require.True(t, ok)
	assert.Equal(t, "first", draft.JobName)

	// A draft can only be consumed once.
	_, ok = drafts.Take(second)
	assert.False(t, ok)
}

func TestDraftStorePendingOrder(t *testing.T) {
	drafts := NewDraftStore()

	first := drafts.Put(JobDraft{JobName: "first"})
	second := drafts.Put(JobDraft{JobName: "second"})
	third := drafts.Put(JobDraft{JobName: "third"})

	assert.Equal(t, []string{first, second, third}, drafts.Pending())

	drafts.Take(second)
	assert.Equal(t, []string{first, third}, drafts.Pending())
}

func TestLaunchValidation(t *testing.T) {
	launcher, _, _ := newLauncher()

	_, err := launcher.Launch(context.Background(), LaunchRequest{
		PipelineId: "no-such-pipeline",
		JobName:    "job",
		Mode:       SelectOwned,
		GpuId:      "gpu-1",
	})
	require.ErrorIs(t, err, ErrUnknownPipeline)

	_, err = launcher.Launch(context.Background(), LaunchRequest{
		PipelineId: "img-gen",
		Mode:       SelectOwned,
		GpuId:      "gpu-1",
	})
	require.ErrorIs(t, err, ErrMissingJobName)

	_, err = launcher.Launch(context.Background(), LaunchRequest{
		PipelineId: "img-gen",
		JobName:    "job",
		Mode:       SelectOwned,
	})
	require.ErrorIs(t, err, ErrNoGpuSelected)

	_, err = launcher.Launch(context.Background(), LaunchRequest{
		PipelineId: "img-gen",
		JobName:    "job",
		Mode:       SelectRentLater,
	})
	require.ErrorIs(t, err, ErrNoGpuSelected)
}

func TestLaunchOnOwnedGpu(t *testing.T) {
	launcher, store, _ := newLauncher()

	job, err := launcher.Launch(context.Background(), LaunchRequest{
		PipelineId: "img-gen",
		JobName:    "my-style-model",
		Config:     map[string]string{"baseModel": "sdxl-1.0"},
		Mode:       SelectOwned,
		GpuId:      "gpu-1",
	})
	require.NoError(t, err)

	assert.Equal(t, "Image Generation Fine-Tune", job.PipelineName)
	assert.Equal(t, restapi.JobQueued, job.Status)
	assert.Equal(t, "gpu-1", job.GpuId)
	assert.Empty(t, job.RentalId)
	require.Len(t, store.jobs, 1)
}

func TestDeferAndResumeKeepsConfiguration(t *testing.T) {
	launcher, store, drafts := newLauncher()

	request := LaunchRequest{
		PipelineId: "voice-clone",
		JobName:    "narrator",
		Config: map[string]string{
			"sampleMinutes": "30",
			"language":      "en",
		},
		Mode: SelectRentLater,
	}

	draftId, err := launcher.Defer(request)
	require.NoError(t, err)
	assert.Equal(t, 1, drafts.Len())

	draft, ok := drafts.Take(draftId)
	require.True(t, ok)

	job, err := launcher.Resume(context.Background(), Handoff{
		DraftId:        draftId,
		RentedGpuId:    "rental-1",
		RentedGpuName:  "Trainava Titan RTX 4090",
		RentalDuration: 3,
		Draft:          draft,
	})
	require.NoError(t, err)

	// The resumed job matches the deferred configuration exactly.
	assert.Equal(t, "Voice Clone Studio", job.PipelineName)
	assert.Equal(t, "narrator", job.JobName)
	assert.Equal(t, request.Config, job.Config)
	assert.Equal(t, "rental-1", job.RentalId)
	assert.Empty(t, job.GpuId)
	require.Len(t, store.jobs, 1)
}

func TestResumeTakesStashedDraft(t *testing.T) {
	launcher, store, drafts := newLauncher()

	draftId, err := launcher.Defer(LaunchRequest{
		PipelineId: "chatbot-tune",
		JobName:    "support-bot",
		Mode:       SelectRentLater,
	})
	require.NoError(t, err)

	job, err := launcher.Resume(context.Background(), Handoff{
		DraftId:     draftId,
		RentedGpuId: "rental-1",
	})
	require.NoError(t, err)

	assert.Equal(t, "Chatbot Personality Tune", job.PipelineName)
	assert.Equal(t, 0, drafts.Len())
	require.Len(t, store.jobs, 1)

	_, err = launcher.Resume(context.Background(), Handoff{
		DraftId:     draftId,
		RentedGpuId: "rental-2",
	})
	require.ErrorIs(t, err, ErrUnknownDraft)
}

func TestRecentJobs(t *testing.T) {
	launcher, store, _ := newLauncher()

	for index := 0; index < 12; index++ {
		store.jobs = append(store.jobs, restapi.TrainingJob{Id: "job", UserId: "user-1"})
	}

	jobs, err := launcher.RecentJobs(context.Background())
	require.NoError(t, err)
	assert.Len(t, jobs, 10)
}

func TestPipelines(t *testing.T) {
	all := Pipelines()
	require.Len(t, all, 4)

	pipeline, ok := FindPipeline("custom-model")
	require.True(t, ok)
	assert.Equal(t, "Custom Model Training", pipeline.Name)
	assert.NotEmpty(t, pipeline.Fields)

	_, ok = FindPipeline("nope")
	assert.False(t, ok)
}
