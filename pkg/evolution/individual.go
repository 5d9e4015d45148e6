// Package evolution implements the genetic search over scheduling
// parameter vectors: population management, generation stepping with
// elitism, and the worker-pool fabric used for batched fitness
// evaluation.
package evolution

import (
	"time"

	"github.com/google/uuid"

	"github.com/schedgov/schedgov/pkg/core"
)

// Individual is one candidate scheduling strategy. Each individual is
// exclusively owned by its population slot and mutated only by the
// evolver (fitness fields excepted, which batch workers write through
// their disjoint index).
type Individual struct {
	ID                   string               `json:"id"`
	Parameters           core.ParameterVector `json:"parameters"`
	Fitness              float64              `json:"fitness"`
	PerformanceComponent float64              `json:"performance_component"`
	EfficiencyComponent  float64              `json:"efficiency_component"`
	EnergyCost           float64              `json:"energy_cost"`
	Generation           int                  `json:"generation"`
	Valid                bool                 `json:"valid"`
	UpdateCount          int                  `json:"update_count"`
	CreatedAt            time.Time            `json:"created_at"`
	UpdatedAt            time.Time            `json:"updated_at"`
}

// newIndividual creates a valid individual with the given parameters.
func newIndividual(params core.ParameterVector, generation int) *Individual {
	now := time.Now()
	return &Individual{
		ID:         uuid.New().String(),
		Parameters: params,
		Generation: generation,
		Valid:      true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// clone deep-copies an individual under a fresh ID.
func (ind *Individual) clone(generation int) *Individual {
	cp := *ind
	cp.ID = uuid.New().String()
	cp.Parameters = ind.Parameters.Clone()
	cp.Generation = generation
	cp.CreatedAt = time.Now()
	cp.UpdatedAt = cp.CreatedAt
	return &cp
}

// carry copies an individual unchanged into the next generation,
// preserving its identity. Used for the elite slot.
func (ind *Individual) carry(generation int) *Individual {
	cp := *ind
	cp.Parameters = ind.Parameters.Clone()
	cp.Generation = generation
	return &cp
}

// Population is a fixed-size ordered set of individuals plus a
// generation counter. Structural replacement happens only inside one
// evolution step.
type Population struct {
	Individuals []*Individual `json:"individuals"`
	Generation  int           `json:"generation"`
}

// Size returns the population's fixed size.
func (p *Population) Size() int {
	return len(p.Individuals)
}
