package evolution

import (
	"math/rand"
	"sync"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/schedgov/schedgov/pkg/core"
	"github.com/schedgov/schedgov/pkg/fitness"
)

const (
	// mutationStep bounds a single parameter perturbation.
	mutationStep = 0.1
	paramMin     = 0.0
	paramMax     = 1.0
)

// Config drives one evolver instance.
type Config struct {
	PopulationSize int
	MaxGenerations int
	MutationRate   float64
	CrossoverRate  float64
}

// Evolver runs the genetic algorithm over scheduling parameter vectors.
// Structural population changes happen only inside EvolveGeneration;
// external readers get copies.
type Evolver struct {
	mu sync.Mutex

	config     Config
	population *Population
	evaluator  *fitness.Evaluator
	fabric     *Fabric
	rng        *rand.Rand

	converged bool
}

// NewEvolver wires an evolver to its fitness evaluator and fabric. A nil
// fabric degrades to serial evaluation.
func NewEvolver(cfg Config, evaluator *fitness.Evaluator, fabric *Fabric, seed int64) *Evolver {
	if fabric == nil {
		fabric = NewFabric(1)
	}
	return &Evolver{
		config:    cfg,
		evaluator: evaluator,
		fabric:    fabric,
		rng:       rand.New(rand.NewSource(seed)),
	}
}

// InitializePopulation creates PopulationSize individuals with
// independent uniform parameter draws.
func (e *Evolver) InitializePopulation() {
	e.mu.Lock()
	defer e.mu.Unlock()

	individuals := make([]*Individual, e.config.PopulationSize)
	for i := range individuals {
		params := make(core.ParameterVector, core.ParameterDim)
		for d := range params {
			params[d] = e.rng.Float64()
		}
		individuals[i] = newIndividual(params, 0)
	}
	e.population = &Population{Individuals: individuals}
	e.converged = false
}

// EvolveGeneration runs one evaluate-then-evolve cycle against the given
// snapshot. skip, when non-nil, lets the adaptive controller shed
// individual fitness recomputations; skipped individuals keep their
// previously stored fitness.
func (e *Evolver) EvolveGeneration(snap core.PerformanceSnapshot, skip func() bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.population == nil || e.population.Size() == 0 {
		return
	}

	e.evaluateAll(snap, skip)

	pop := e.population
	nextGen := pop.Generation + 1
	next := make([]*Individual, 0, pop.Size())

	// Elitism: the current best survives unchanged, so best fitness
	// never regresses between generations.
	elite := bestOf(pop.Individuals)
	if elite != nil {
		next = append(next, elite.carry(nextGen))
	}

	for len(next) < pop.Size() {
		p1 := e.selectParent(pop.Individuals)
		p2 := e.selectParent(pop.Individuals)

		var child *Individual
		if e.rng.Float64() < e.config.CrossoverRate {
			child = e.crossover(p1, p2, nextGen)
		} else {
			child = p1.clone(nextGen)
		}
		e.mutate(child)
		next = append(next, child)
	}

	e.population = &Population{Individuals: next, Generation: nextGen}
}

// evaluateAll refreshes fitness for every valid individual through the
// fabric. Caller holds e.mu.
func (e *Evolver) evaluateAll(snap core.PerformanceSnapshot, skip func() bool) {
	e.fabric.EvaluateBatch(e.population.Individuals, func(_ int, ind *Individual) {
		if !ind.Valid {
			return
		}
		if skip != nil && skip() && ind.UpdateCount > 0 {
			// Load shedding: reuse the previously stored fitness.
			return
		}
		ind.Fitness = e.evaluator.Evaluate(snap, ind.Parameters)
		ind.PerformanceComponent = e.evaluator.PerformanceComponent(snap, ind.Parameters)
		ind.EfficiencyComponent = e.evaluator.EfficiencyComponent(snap, ind.Parameters)
		ind.EnergyCost = e.evaluator.EnergyCost(snap)
		ind.UpdateCount++
		ind.UpdatedAt = time.Now()
	})
}

// selectParent samples an individual with probability proportional to its
// shifted-positive fitness. Ties collapse to a uniform random choice.
// Caller holds e.mu.
func (e *Evolver) selectParent(individuals []*Individual) *Individual {
	valid := make([]*Individual, 0, len(individuals))
	minFit := 0.0
	for _, ind := range individuals {
		if !ind.Valid {
			continue
		}
		if len(valid) == 0 || ind.Fitness < minFit {
			minFit = ind.Fitness
		}
		valid = append(valid, ind)
	}
	if len(valid) == 0 {
		return individuals[e.rng.Intn(len(individuals))]
	}

	const epsilon = 1e-9
	total := 0.0
	for _, ind := range valid {
		total += ind.Fitness - minFit + epsilon
	}

	target := e.rng.Float64() * total
	acc := 0.0
	for _, ind := range valid {
		acc += ind.Fitness - minFit + epsilon
		if target <= acc {
			return ind
		}
	}
	return valid[len(valid)-1]
}

// crossover blends the two parents' parameter vectors.
func (e *Evolver) crossover(p1, p2 *Individual, generation int) *Individual {
	scratch := e.fabric.Allocator().Get()
	defer e.fabric.Allocator().Put(scratch)

	for d := 0; d < core.ParameterDim; d++ {
		var a, b float64
		if d < len(p1.Parameters) {
			a = p1.Parameters[d]
		}
		if d < len(p2.Parameters) {
			b = p2.Parameters[d]
		}
		scratch[d] = (a + b) / 2.0
	}
	return newIndividual(scratch.Clone(), generation)
}

// mutate perturbs each parameter independently with probability
// MutationRate, clamped to the valid range.
func (e *Evolver) mutate(ind *Individual) {
	for d := range ind.Parameters {
		if e.rng.Float64() >= e.config.MutationRate {
			continue
		}
		v := ind.Parameters[d] + (e.rng.Float64()*2-1)*mutationStep
		if v < paramMin {
			v = paramMin
		}
		if v > paramMax {
			v = paramMax
		}
		ind.Parameters[d] = v
	}
}

// Best returns a copy of the fittest valid individual.
func (e *Evolver) Best() (Individual, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.population == nil {
		return Individual{}, false
	}
	best := bestOf(e.population.Individuals)
	if best == nil {
		return Individual{}, false
	}
	cp := *best
	cp.Parameters = best.Parameters.Clone()
	return cp, true
}

// AverageFitness reports the mean fitness over valid individuals.
func (e *Evolver) AverageFitness() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.population == nil {
		return 0
	}
	total, count := 0.0, 0
	for _, ind := range e.population.Individuals {
		if ind.Valid {
			total += ind.Fitness
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return total / float64(count)
}

// Diversity reports the mean per-parameter sample variance across the
// parameter dimensions, over valid individuals.
func (e *Evolver) Diversity() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.population == nil {
		return 0
	}

	total := 0.0
	for d := 0; d < core.ParameterDim; d++ {
		values := make([]float64, 0, e.population.Size())
		for _, ind := range e.population.Individuals {
			if ind.Valid && d < len(ind.Parameters) {
				values = append(values, ind.Parameters[d])
			}
		}
		if len(values) > 1 {
			total += stat.Variance(values, nil)
		}
	}
	return total / float64(core.ParameterDim)
}

// Generation returns the current generation counter.
func (e *Evolver) Generation() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.population == nil {
		return 0
	}
	return e.population.Generation
}

// Snapshot returns copies of the current individuals.
func (e *Evolver) Snapshot() []Individual {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.population == nil {
		return nil
	}
	out := make([]Individual, e.population.Size())
	for i, ind := range e.population.Individuals {
		cp := *ind
		cp.Parameters = ind.Parameters.Clone()
		out[i] = cp
	}
	return out
}

// SignalConvergence marks the search converged; ShouldTerminate turns
// true on the next check.
func (e *Evolver) SignalConvergence() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.converged = true
}

// ShouldTerminate reports whether the generation cap was reached or
// convergence was signaled externally.
func (e *Evolver) ShouldTerminate() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.converged {
		return true
	}
	return e.population != nil && e.population.Generation >= e.config.MaxGenerations
}

// bestOf returns the fittest valid individual, or nil when none is valid.
func bestOf(individuals []*Individual) *Individual {
	var best *Individual
	for _, ind := range individuals {
		if !ind.Valid {
			continue
		}
		if best == nil || ind.Fitness > best.Fitness {
			best = ind
		}
	}
	return best
}
