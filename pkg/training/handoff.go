/*
 *  Copyright (c) 2025 Trainava Labs, Inc. All Rights Reserved.
 */
package training

import (
	"sync"

	"github.com/google/uuid"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// JobDraft is a fully configured training job waiting on hardware.
type JobDraft struct {
	PipelineId   string            `json:"pipelineId"`
	PipelineName string            `json:"pipelineName"`
	JobName      string            `json:"jobName"`
	Config       map[string]string `json:"config,omitempty"`
}

// Handoff carries a completed rental back into the training flow together
// with the draft that deferred to it.
type Handoff struct {
	DraftId        string
	RentedGpuId    string
	RentedGpuName  string
	RentalDuration int
	Draft          JobDraft
}

// DraftStore keeps deferred job drafts keyed by draft id. Several drafts
// may be pending at once; each rental resumes exactly the draft it was
// started for. Insertion order is preserved for listing.
type DraftStore struct {
	mutex  sync.Mutex
	drafts *orderedmap.OrderedMap[string, JobDraft]
}

func NewDraftStore() *DraftStore {
	return &DraftStore{
		drafts: orderedmap.New[string, JobDraft](),
	}
}

// Put stashes a draft and returns its id.
func (store *DraftStore) Put(draft JobDraft) string {
	store.mutex.Lock()
	defer store.mutex.Unlock()

	id := uuid.NewString()
	store.drafts.Set(id, draft)
	return id
}

// Get returns a draft without consuming it.
func (store *DraftStore) Get(id string) (JobDraft, bool) {
	store.mutex.Lock()
	defer store.mutex.Unlock()

	return store.drafts.Get(id)
}

// Take removes and returns a draft. A draft can only be consumed once.
func (store *DraftStore) Take(id string) (JobDraft, bool) {
	store.mutex.Lock()
	defer store.mutex.Unlock()

	draft, ok := store.drafts.Get(id)
	if ok {
		store.drafts.Delete(id)
	}

	return draft, ok
}

// Pending returns the ids of stashed drafts, oldest first.
func (store *DraftStore) Pending() []string {
	store.mutex.Lock()
	defer store.mutex.Unlock()

	ids := make([]string, 0, store.drafts.Len())
	for pair := store.drafts.Oldest(); pair != nil; pair = pair.Next() {
		ids = append(ids, pair.Key)
	}

	return ids
}

func (store *DraftStore) Len() int {
	store.mutex.Lock()
	defer store.mutex.Unlock()

	return store.drafts.Len()
}
