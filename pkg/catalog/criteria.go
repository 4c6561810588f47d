/*
 *  Copyright (c) 2025 Trainava Labs, Inc. All Rights Reserved.
 */
package catalog

import (
	"strings"
	"sync"

	"github.com/trainava-labs/trainava/pkg/restapi"
)

// Criteria is the shared filter state for the marketplace views. A single
// instance is passed by reference to every component that filters GPU
// listings so that all of them always agree on what matches.
type Criteria struct {
	mutex sync.Mutex

	searchTerm    string
	priceMinimum  float64
	priceMaximum  float64
	minPowerScore float64
}

func NewCriteria(priceMinimum float64, priceMaximum float64) *Criteria {
	if priceMaximum < priceMinimum {
		priceMinimum, priceMaximum = priceMaximum, priceMinimum
	}

	return &Criteria{
		priceMinimum: priceMinimum,
		priceMaximum: priceMaximum,
	}
}

func (criteria *Criteria) SetSearchTerm(term string) {
	criteria.mutex.Lock()
	defer criteria.mutex.Unlock()

	criteria.searchTerm = term
}

func (criteria *Criteria) SetPriceRange(minimum float64, maximum float64) {
	if maximum < minimum {
		minimum, maximum = maximum, minimum
	}

	criteria.mutex.Lock()
	defer criteria.mutex.Unlock()

	criteria.priceMinimum = minimum
	criteria.priceMaximum = maximum
}

func (criteria *Criteria) SetMinPowerScore(score float64) {
	if score < 0 {
		score = 0
	}

	criteria.mutex.Lock()
	defer criteria.mutex.Unlock()

	criteria.minPowerScore = score
}

func (criteria *Criteria) Snapshot() (string, float64, float64, float64) {
	criteria.mutex.Lock()
	defer criteria.mutex.Unlock()

	return criteria.searchTerm, criteria.priceMinimum, criteria.priceMaximum, criteria.minPowerScore
}

// Apply returns the GPUs matching the current criteria in their original
// order. The input slice is never modified.
func (criteria *Criteria) Apply(gpus []restapi.Gpu) []restapi.Gpu {
	term, priceMinimum, priceMaximum, minPowerScore := criteria.Snapshot()
	term = strings.ToLower(strings.TrimSpace(term))

	matches := make([]restapi.Gpu, 0, len(gpus))
	for _, gpu := range gpus {
		if term != "" {
			name := strings.ToLower(gpu.Name)
			model := strings.ToLower(gpu.Model)
			if !strings.Contains(name, term) && !strings.Contains(model, term) {
				continue
			}
		}

		if gpu.RentalRateHourly < priceMinimum || gpu.RentalRateHourly > priceMaximum {
			continue
		}

		if minPowerScore > 0 && gpu.PowerScore < minPowerScore {
			continue
		}

		matches = append(matches, gpu)
	}

	return matches
}
