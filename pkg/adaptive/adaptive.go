// Package adaptive throttles the optimization loop based on recent
// device load. High load stretches the sampling interval and sheds
// fitness recomputations; a quiet device tightens the interval again.
package adaptive

import (
	"context"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/schedgov/schedgov/pkg/core"
	"github.com/schedgov/schedgov/pkg/logging"
)

const (
	// windowSize is how many recent snapshots feed the load averages.
	windowSize = 10

	reduceCPUThreshold     = 80.0
	reduceMemThreshold     = 85.0
	increaseCPUThreshold   = 20.0
	increaseMemThreshold   = 30.0
	stretchFactor          = 1.2
	tightenFactor          = 0.8
	defaultSkipProbability = 0.3
)

// Controller tracks a sliding window of load samples and derives the
// next sampling interval from it.
type Controller struct {
	mu sync.Mutex

	baseInterval time.Duration
	minInterval  time.Duration
	maxInterval  time.Duration
	current      time.Duration

	skipProbability float64
	rng             *rand.Rand

	cpu  [windowSize]float64
	mem  [windowSize]float64
	head int
	n    int
}

// NewController creates a controller starting at base and bounded by
// [min, max]. Inverted bounds are swapped.
func NewController(base, min, max time.Duration, seed int64) *Controller {
	if min > max {
		min, max = max, min
	}
	if base < min {
		base = min
	}
	if base > max {
		base = max
	}
	return &Controller{
		baseInterval:    base,
		minInterval:     min,
		maxInterval:     max,
		current:         base,
		skipProbability: defaultSkipProbability,
		rng:             rand.New(rand.NewSource(seed)),
	}
}

// Observe pushes a snapshot's CPU and memory load into the window.
func (c *Controller) Observe(snap core.PerformanceSnapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cpu[c.head] = snap.CPUUsage
	c.mem[c.head] = snap.MemoryUsage
	c.head = (c.head + 1) % windowSize
	if c.n < windowSize {
		c.n++
	}
}

// ShouldReduceSampling reports whether the device is loaded enough to
// stretch the interval.
func (c *Controller) ShouldReduceSampling() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.n == 0 {
		return false
	}
	cpu, mem := c.averagesLocked()
	return cpu > reduceCPUThreshold || mem > reduceMemThreshold
}

// ShouldIncreaseSampling reports whether the device is quiet enough to
// tighten the interval.
func (c *Controller) ShouldIncreaseSampling() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.n == 0 {
		return false
	}
	cpu, mem := c.averagesLocked()
	return cpu < increaseCPUThreshold && mem < increaseMemThreshold
}

// ShouldSkipCalculation rolls the load-shedding dice. Only consulted
// while the device is loaded; an unloaded device never sheds work.
func (c *Controller) ShouldSkipCalculation() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.n == 0 {
		return false
	}
	cpu, mem := c.averagesLocked()
	if cpu <= reduceCPUThreshold && mem <= reduceMemThreshold {
		return false
	}
	return c.rng.Float64() < c.skipProbability
}

// NextInterval advances and returns the sampling interval: stretched
// under load, tightened when quiet, held otherwise.
func (c *Controller) NextInterval() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.n == 0 {
		return c.current
	}

	cpu, mem := c.averagesLocked()
	prev := c.current
	switch {
	case cpu > reduceCPUThreshold || mem > reduceMemThreshold:
		c.current = time.Duration(math.Round(float64(c.current) * stretchFactor))
	case cpu < increaseCPUThreshold && mem < increaseMemThreshold:
		c.current = time.Duration(math.Round(float64(c.current) * tightenFactor))
	}
	if c.current < c.minInterval {
		c.current = c.minInterval
	}
	if c.current > c.maxInterval {
		c.current = c.maxInterval
	}

	if c.current != prev {
		logging.GetLogger().Debug(context.Background(),
			"sampling interval %v -> %v (avg cpu=%.1f mem=%.1f)", prev, c.current, cpu, mem)
	}
	return c.current
}

// Interval returns the current interval without advancing it.
func (c *Controller) Interval() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Reset drops the window and restores the base interval.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.head = 0
	c.n = 0
	c.current = c.baseInterval
}

// Averages reports the rolling CPU and memory means.
func (c *Controller) Averages() (cpu, mem float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.n == 0 {
		return 0, 0
	}
	return c.averagesLocked()
}

func (c *Controller) averagesLocked() (cpu, mem float64) {
	for i := 0; i < c.n; i++ {
		cpu += c.cpu[i]
		mem += c.mem[i]
	}
	return cpu / float64(c.n), mem / float64(c.n)
}
