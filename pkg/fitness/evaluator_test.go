package fitness

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schedgov/schedgov/pkg/core"
)

func testSnapshot() core.PerformanceSnapshot {
	return core.PerformanceSnapshot{
		CPUUsage:       40,
		MemoryUsage:    55,
		ThermalScore:   25,
		BatteryLevel:   80,
		Responsiveness: 60,
		Fluency:        75,
		Efficiency:     45,
	}
}

func testParams() core.ParameterVector {
	return core.ParameterVector{0.3, 0.3, 0.2, 0.2, 0.0}
}

func TestEvaluateBlendsComponents(t *testing.T) {
	e := NewEvaluator(0.4, 0.3, 0.3, 10)
	snap := testSnapshot()
	params := testParams()

	got := e.Evaluate(snap, params)

	perf := (0.3*60 + 0.3*75) / 100.0
	eff := (0.2*45 + 0.2*(100-25)) / 100.0
	cost := (0.5*40 + 0.3*(100-80) + 0.2*25) / 100.0
	assert.InDelta(t, 0.4*perf+0.3*eff-0.3*cost, got, 1e-12)
}

func TestHigherPerformanceRaisesFitness(t *testing.T) {
	e := NewEvaluator(0.4, 0.3, 0.3, 10)
	params := testParams()

	low := testSnapshot()
	high := low
	high.Responsiveness = 95
	high.Fluency = 95

	assert.Greater(t, e.Evaluate(high, params), e.Evaluate(low, params))
}

func TestHigherEnergyCostLowersFitness(t *testing.T) {
	e := NewEvaluator(0.4, 0.3, 0.3, 10)
	params := testParams()

	cool := testSnapshot()
	hot := cool
	hot.CPUUsage = 95
	hot.ThermalScore = 90
	hot.BatteryLevel = 10

	assert.Less(t, e.Evaluate(hot, params), e.Evaluate(cool, params))
}

func TestCacheHitReturnsIdenticalFitness(t *testing.T) {
	e := NewEvaluator(0.4, 0.3, 0.3, 10)
	snap := testSnapshot()
	params := testParams()

	first := e.Evaluate(snap, params)
	statsAfterFirst := e.Stats()
	second := e.Evaluate(snap, params)
	statsAfterSecond := e.Stats()

	assert.Equal(t, first, second)
	assert.Equal(t, statsAfterFirst.CacheMisses, statsAfterSecond.CacheMisses)
	assert.Equal(t, statsAfterFirst.CacheHits+1, statsAfterSecond.CacheHits)
	assert.Equal(t, uint64(2), statsAfterSecond.TotalEvaluations)
}

func TestCacheEvictsOldestOnOverflow(t *testing.T) {
	e := NewEvaluator(0.4, 0.3, 0.3, 2)
	params := testParams()

	snapA := testSnapshot()
	snapB := testSnapshot()
	snapB.CPUUsage = 41
	snapC := testSnapshot()
	snapC.CPUUsage = 42

	e.Evaluate(snapA, params) // fills slot 0
	e.Evaluate(snapB, params) // fills slot 1
	e.Evaluate(snapC, params) // evicts snapA

	before := e.Stats().CacheMisses
	e.Evaluate(snapA, params)
	assert.Equal(t, before+1, e.Stats().CacheMisses, "oldest entry should have been evicted")

	hitsBefore := e.Stats().CacheHits
	e.Evaluate(snapC, params)
	assert.Equal(t, hitsBefore+1, e.Stats().CacheHits, "recent entry should still be cached")
}

func TestClearCacheInvalidatesEntries(t *testing.T) {
	e := NewEvaluator(0.4, 0.3, 0.3, 10)
	snap := testSnapshot()
	params := testParams()

	v1 := e.Evaluate(snap, params)
	e.ClearCache()
	missesBefore := e.Stats().CacheMisses
	v2 := e.Evaluate(snap, params)

	assert.Equal(t, v1, v2, "clearing must not change results")
	assert.Equal(t, missesBefore+1, e.Stats().CacheMisses)
}

func TestSetCacheSizeResets(t *testing.T) {
	e := NewEvaluator(0.4, 0.3, 0.3, 10)
	snap := testSnapshot()
	params := testParams()

	e.Evaluate(snap, params)
	e.SetCacheSize(5)

	missesBefore := e.Stats().CacheMisses
	e.Evaluate(snap, params)
	assert.Equal(t, missesBefore+1, e.Stats().CacheMisses)
}

func TestConcurrentEvaluationsConsistent(t *testing.T) {
	e := NewEvaluator(0.4, 0.3, 0.3, 10)
	snap := testSnapshot()
	params := testParams()
	want := e.Evaluate(snap, params)

	const workers = 16
	const perWorker = 50
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				assert.Equal(t, want, e.Evaluate(snap, params))
			}
		}()
	}
	wg.Wait()

	stats := e.Stats()
	assert.Equal(t, uint64(workers*perWorker+1), stats.TotalEvaluations)
	assert.Equal(t, stats.TotalEvaluations, stats.CacheHits+stats.CacheMisses)
}

func TestNegativeWeightsClamped(t *testing.T) {
	e := NewEvaluator(-1, 0.3, -0.5, 10)
	alpha, beta, gamma := e.Weights()
	assert.Equal(t, 0.0, alpha)
	assert.Equal(t, 0.3, beta)
	assert.Equal(t, 0.0, gamma)
}

func TestContentHashDistinguishesInputs(t *testing.T) {
	snap := testSnapshot()
	params := testParams()

	h1 := contentHash(snap, params)

	other := snap
	other.CPUUsage += 0.0001
	require.NotEqual(t, h1, contentHash(other, params))

	p2 := params.Clone()
	p2[4] = 0.9
	require.NotEqual(t, h1, contentHash(snap, p2))
	require.Equal(t, h1, contentHash(snap, params.Clone()))
}
