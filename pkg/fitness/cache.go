package fitness

import (
	"math"
	"time"

	"github.com/schedgov/schedgov/pkg/core"
)

const defaultCacheSize = 100

// cacheEntry is one slot in the bounded fitness cache ring. Slots are
// overwritten oldest-first when the ring wraps.
type cacheEntry struct {
	hash     uint64
	fitness  float64
	valid    bool
	cachedAt time.Time
}

// contentHash produces an FNV-1a hash over the snapshot metrics and
// parameter vector. Identical inputs always collapse to the same key.
func contentHash(snap core.PerformanceSnapshot, params core.ParameterVector) uint64 {
	const (
		offset64 = 1469598103934665603
		prime64  = 1099511628211
	)

	h := uint64(offset64)
	mix := func(v float64) {
		bits := math.Float64bits(v)
		for i := 0; i < 8; i++ {
			h ^= bits & 0xff
			h *= prime64
			bits >>= 8
		}
	}

	mix(snap.CPUUsage)
	mix(snap.MemoryUsage)
	mix(snap.ThermalScore)
	mix(snap.BatteryLevel)
	mix(snap.Responsiveness)
	mix(snap.Fluency)
	mix(snap.Efficiency)
	for _, p := range params {
		mix(p)
	}
	return h
}

// lookup scans the ring for a valid entry with the given hash. Caller
// holds e.mu.
func (e *Evaluator) lookup(hash uint64) (cacheEntry, bool) {
	for i := range e.cache {
		if e.cache[i].valid && e.cache[i].hash == hash {
			return e.cache[i], true
		}
	}
	return cacheEntry{}, false
}

// store writes a computed fitness into the next ring slot, evicting the
// oldest entry once the ring is full. Caller holds e.mu.
func (e *Evaluator) store(hash uint64, fitness float64) {
	e.cache[e.cacheIndex] = cacheEntry{
		hash:     hash,
		fitness:  fitness,
		valid:    true,
		cachedAt: time.Now(),
	}
	e.cacheIndex = (e.cacheIndex + 1) % len(e.cache)
}

// SetCacheSize resizes the cache. All existing entries are invalidated;
// subsequent lookups recompute and repopulate.
func (e *Evaluator) SetCacheSize(size int) {
	if size < 1 {
		size = defaultCacheSize
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cache = make([]cacheEntry, size)
	e.cacheIndex = 0
}

// ClearCache invalidates every entry without resizing.
func (e *Evaluator) ClearCache() {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i := range e.cache {
		e.cache[i] = cacheEntry{}
	}
	e.cacheIndex = 0
}
