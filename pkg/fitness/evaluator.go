// Package fitness scores scheduling parameter vectors against device
// performance snapshots. Results are memoized in a bounded cache keyed by
// a content hash of the (snapshot, parameters) pair.
package fitness

import (
	"context"
	"sync"
	"time"

	"github.com/schedgov/schedgov/pkg/core"
	"github.com/schedgov/schedgov/pkg/logging"
)

// Evaluator computes fitness = alpha*performance + beta*efficiency -
// gamma*energyCost. The weights are externally tunable and are not
// required to sum to 1; the result is not clamped.
type Evaluator struct {
	mu sync.Mutex

	alpha float64
	beta  float64
	gamma float64

	cache      []cacheEntry
	cacheIndex int

	stats Stats
}

// Stats exposes cumulative evaluation diagnostics.
type Stats struct {
	TotalEvaluations uint64
	CacheHits        uint64
	CacheMisses      uint64
	AvgComputeTime   time.Duration
	LastReset        time.Time
}

// NewEvaluator builds an evaluator with the given weights and cache
// capacity. Negative weights are clamped to zero with a warning.
func NewEvaluator(alpha, beta, gamma float64, cacheSize int) *Evaluator {
	e := &Evaluator{
		stats: Stats{LastReset: time.Now()},
	}
	e.SetWeights(alpha, beta, gamma)
	if cacheSize < 1 {
		cacheSize = defaultCacheSize
	}
	e.cache = make([]cacheEntry, cacheSize)
	return e
}

// SetWeights reconfigures the blend weights. Negative values are clamped
// to zero and logged.
func (e *Evaluator) SetWeights(alpha, beta, gamma float64) {
	logger := logging.GetLogger()
	if alpha < 0 || beta < 0 || gamma < 0 {
		logger.Warn(context.Background(),
			"negative fitness weights clamped: alpha=%.3f beta=%.3f gamma=%.3f", alpha, beta, gamma)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.alpha = max(alpha, 0)
	e.beta = max(beta, 0)
	e.gamma = max(gamma, 0)
}

// Weights returns the current blend weights.
func (e *Evaluator) Weights() (alpha, beta, gamma float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.alpha, e.beta, e.gamma
}

// Evaluate scores a parameter vector against a snapshot, consulting the
// cache before computing. The lock covers only cache and stats access;
// the computation itself runs unlocked so batched evaluations proceed in
// parallel. Concurrent misses on the same key may compute twice, both
// arriving at the same value.
func (e *Evaluator) Evaluate(snap core.PerformanceSnapshot, params core.ParameterVector) float64 {
	key := contentHash(snap, params)

	e.mu.Lock()
	e.stats.TotalEvaluations++
	if entry, ok := e.lookup(key); ok {
		e.stats.CacheHits++
		e.mu.Unlock()
		return entry.fitness
	}
	e.stats.CacheMisses++
	alpha, beta, gamma := e.alpha, e.beta, e.gamma
	e.mu.Unlock()

	start := time.Now()
	fitness := alpha*performanceComponent(snap, params) +
		beta*efficiencyComponent(snap, params) -
		gamma*energyCost(snap)
	elapsed := time.Since(start)

	e.mu.Lock()
	e.recordComputeTime(elapsed)
	e.store(key, fitness)
	e.mu.Unlock()
	return fitness
}

// PerformanceComponent exposes the raw performance sub-score.
func (e *Evaluator) PerformanceComponent(snap core.PerformanceSnapshot, params core.ParameterVector) float64 {
	return performanceComponent(snap, params)
}

// EfficiencyComponent exposes the raw efficiency sub-score.
func (e *Evaluator) EfficiencyComponent(snap core.PerformanceSnapshot, params core.ParameterVector) float64 {
	return efficiencyComponent(snap, params)
}

// EnergyCost exposes the raw energy cost sub-score.
func (e *Evaluator) EnergyCost(snap core.PerformanceSnapshot) float64 {
	return energyCost(snap)
}

// Stats returns a copy of the cumulative diagnostics.
func (e *Evaluator) Stats() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stats
}

// performanceComponent weighs responsiveness and fluency by the first two
// parameters. Higher device scores raise fitness.
func performanceComponent(snap core.PerformanceSnapshot, params core.ParameterVector) float64 {
	var wResp, wFlu float64
	if len(params) > 0 {
		wResp = params[0]
	}
	if len(params) > 1 {
		wFlu = params[1]
	}
	return (wResp*snap.Responsiveness + wFlu*snap.Fluency) / 100.0
}

// efficiencyComponent weighs the efficiency score and thermal headroom by
// the third and fourth parameters.
func efficiencyComponent(snap core.PerformanceSnapshot, params core.ParameterVector) float64 {
	var wEff, wTherm float64
	if len(params) > 2 {
		wEff = params[2]
	}
	if len(params) > 3 {
		wTherm = params[3]
	}
	return (wEff*snap.Efficiency + wTherm*(100.0-snap.ThermalScore)) / 100.0
}

// energyCost penalizes CPU load, battery drain, and heat.
func energyCost(snap core.PerformanceSnapshot) float64 {
	return (0.5*snap.CPUUsage + 0.3*(100.0-snap.BatteryLevel) + 0.2*snap.ThermalScore) / 100.0
}

func (e *Evaluator) recordComputeTime(d time.Duration) {
	computed := e.stats.CacheMisses
	if computed == 0 {
		e.stats.AvgComputeTime = d
		return
	}
	// Incremental mean over computed (non-cached) evaluations.
	prev := e.stats.AvgComputeTime
	e.stats.AvgComputeTime = prev + (d-prev)/time.Duration(computed)
}
