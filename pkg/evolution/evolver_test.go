package evolution

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schedgov/schedgov/pkg/core"
	"github.com/schedgov/schedgov/pkg/fitness"
)

func testSnapshot() core.PerformanceSnapshot {
	return core.PerformanceSnapshot{
		CPUUsage:       45,
		MemoryUsage:    60,
		ThermalScore:   30,
		BatteryLevel:   80,
		Responsiveness: 70,
		Fluency:        65,
		Efficiency:     75,
	}
}

func testEvolver(t *testing.T, popSize int) *Evolver {
	t.Helper()
	eval := fitness.NewEvaluator(0.4, 0.3, 0.3, 100)
	cfg := Config{
		PopulationSize: popSize,
		MaxGenerations: 1000,
		MutationRate:   0.1,
		CrossoverRate:  0.8,
	}
	return NewEvolver(cfg, eval, NewFabric(4), 42)
}

func TestInitializePopulation(t *testing.T) {
	e := testEvolver(t, 50)
	e.InitializePopulation()

	individuals := e.Snapshot()
	require.Len(t, individuals, 50)
	seen := make(map[string]bool)
	for _, ind := range individuals {
		assert.True(t, ind.Valid)
		assert.Equal(t, 0, ind.Generation)
		assert.False(t, seen[ind.ID], "IDs must be unique")
		seen[ind.ID] = true
		require.Len(t, ind.Parameters, core.ParameterDim)
		for _, v := range ind.Parameters {
			assert.GreaterOrEqual(t, v, 0.0)
			assert.LessOrEqual(t, v, 1.0)
		}
	}
}

func TestBestFitnessNeverRegresses(t *testing.T) {
	e := testEvolver(t, 30)
	e.InitializePopulation()
	snap := testSnapshot()

	prev := -1e18
	for gen := 0; gen < 25; gen++ {
		e.EvolveGeneration(snap, nil)
		best, ok := e.Best()
		require.True(t, ok)
		assert.GreaterOrEqual(t, best.Fitness, prev,
			"elitism keeps the best individual across generations")
		prev = best.Fitness
	}
	assert.Equal(t, 25, e.Generation())
}

func TestPopulationSizeIsStable(t *testing.T) {
	e := testEvolver(t, 20)
	e.InitializePopulation()
	snap := testSnapshot()

	for gen := 0; gen < 10; gen++ {
		e.EvolveGeneration(snap, nil)
		assert.Len(t, e.Snapshot(), 20)
	}
}

func TestParametersStayBounded(t *testing.T) {
	e := testEvolver(t, 20)
	e.InitializePopulation()
	snap := testSnapshot()

	for gen := 0; gen < 15; gen++ {
		e.EvolveGeneration(snap, nil)
	}
	for _, ind := range e.Snapshot() {
		for _, v := range ind.Parameters {
			assert.GreaterOrEqual(t, v, 0.0)
			assert.LessOrEqual(t, v, 1.0)
		}
	}
}

func TestDiversityOfUniformPopulationIsZero(t *testing.T) {
	e := testEvolver(t, 10)
	e.mu.Lock()
	individuals := make([]*Individual, 10)
	for i := range individuals {
		params := make(core.ParameterVector, core.ParameterDim)
		for d := range params {
			params[d] = 0.5
		}
		individuals[i] = newIndividual(params, 0)
	}
	e.population = &Population{Individuals: individuals}
	e.mu.Unlock()

	assert.Equal(t, 0.0, e.Diversity())
}

func TestDiversityPositiveForSpreadPopulation(t *testing.T) {
	e := testEvolver(t, 40)
	e.InitializePopulation()
	assert.Greater(t, e.Diversity(), 0.0)
}

func TestSkipReusesStoredFitness(t *testing.T) {
	e := testEvolver(t, 10)
	e.InitializePopulation()
	snap := testSnapshot()

	// First generation evaluates everyone.
	e.EvolveGeneration(snap, nil)

	before := make(map[string]int)
	for _, ind := range e.Snapshot() {
		before[ind.ID] = ind.UpdateCount
	}

	e.EvolveGeneration(snap, func() bool { return true })

	// The carried elite must not have been re-evaluated.
	for _, ind := range e.Snapshot() {
		if prev, ok := before[ind.ID]; ok {
			assert.Equal(t, prev, ind.UpdateCount,
				"skipped individuals keep their stored fitness")
		}
	}
}

func TestShouldTerminateOnGenerationCap(t *testing.T) {
	eval := fitness.NewEvaluator(0.4, 0.3, 0.3, 100)
	e := NewEvolver(Config{
		PopulationSize: 5,
		MaxGenerations: 3,
		MutationRate:   0.1,
		CrossoverRate:  0.8,
	}, eval, nil, 7)
	e.InitializePopulation()
	snap := testSnapshot()

	assert.False(t, e.ShouldTerminate())
	for i := 0; i < 3; i++ {
		e.EvolveGeneration(snap, nil)
	}
	assert.True(t, e.ShouldTerminate())
}

func TestShouldTerminateOnConvergenceSignal(t *testing.T) {
	e := testEvolver(t, 5)
	e.InitializePopulation()
	assert.False(t, e.ShouldTerminate())
	e.SignalConvergence()
	assert.True(t, e.ShouldTerminate())
}

func TestBestOnEmptyEvolver(t *testing.T) {
	e := testEvolver(t, 5)
	_, ok := e.Best()
	assert.False(t, ok)
	assert.Equal(t, 0.0, e.AverageFitness())
	assert.Equal(t, 0.0, e.Diversity())
}
