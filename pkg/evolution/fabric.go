package evolution

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/sourcegraph/conc/pool"

	"github.com/schedgov/schedgov/pkg/core"
	"github.com/schedgov/schedgov/pkg/logging"
)

// Fabric runs one fitness-evaluation task per individual with bounded
// concurrency and barrier semantics: EvaluateBatch returns only after the
// whole batch completes, so evolution never observes partial results.
// Pool size is fixed at construction; retuning means building a new
// fabric.
type Fabric struct {
	size  int
	alloc *Allocator
}

// NewFabric creates a fabric with the given worker count. Sizes below 1
// degrade to serial evaluation.
func NewFabric(size int) *Fabric {
	return &Fabric{
		size:  size,
		alloc: NewAllocator(),
	}
}

// Size returns the configured worker count.
func (f *Fabric) Size() int {
	return f.size
}

// Allocator returns the fabric's scratch-buffer allocator.
func (f *Fabric) Allocator() *Allocator {
	return f.alloc
}

// EvaluateBatch applies eval to every individual and blocks until all
// tasks finish. Each worker owns a disjoint index, so fitness writes need
// no locking. A panic inside one task marks that individual invalid and
// never aborts the batch.
func (f *Fabric) EvaluateBatch(individuals []*Individual, eval func(idx int, ind *Individual)) {
	run := func(idx int, ind *Individual) {
		defer func() {
			if r := recover(); r != nil {
				logging.GetLogger().Error(context.Background(),
					"fitness evaluation fault for individual %s: %v", ind.ID, r)
				ind.Valid = false
			}
		}()
		eval(idx, ind)
	}

	if f.size <= 1 {
		for idx, ind := range individuals {
			run(idx, ind)
		}
		return
	}

	p := pool.New().WithMaxGoroutines(f.size)
	for idx, ind := range individuals {
		idx, ind := idx, ind
		p.Go(func() {
			run(idx, ind)
		})
	}
	p.Wait()
}

// Allocator is a pooled supplier of parameter scratch buffers. It trims
// per-generation allocation churn and tracks current/peak checkout
// counts; it has no semantic effect on evolution results.
type Allocator struct {
	pool    sync.Pool
	current atomic.Int64
	peak    atomic.Int64
}

// NewAllocator creates an allocator handing out ParameterDim-sized
// buffers.
func NewAllocator() *Allocator {
	return &Allocator{
		pool: sync.Pool{
			New: func() any {
				return make(core.ParameterVector, core.ParameterDim)
			},
		},
	}
}

// Get checks out a zeroed scratch buffer.
func (a *Allocator) Get() core.ParameterVector {
	buf, ok := a.pool.Get().(core.ParameterVector)
	if !ok || len(buf) != core.ParameterDim {
		buf = make(core.ParameterVector, core.ParameterDim)
	}
	for i := range buf {
		buf[i] = 0
	}

	cur := a.current.Add(1)
	for {
		peak := a.peak.Load()
		if cur <= peak || a.peak.CompareAndSwap(peak, cur) {
			break
		}
	}
	return buf
}

// Put returns a buffer to the pool.
func (a *Allocator) Put(buf core.ParameterVector) {
	if len(buf) != core.ParameterDim {
		return
	}
	a.current.Add(-1)
	a.pool.Put(buf)
}

// Current reports buffers currently checked out.
func (a *Allocator) Current() int64 {
	return a.current.Load()
}

// Peak reports the high-water mark of concurrent checkouts.
func (a *Allocator) Peak() int64 {
	return a.peak.Load()
}

// String summarizes allocator usage for diagnostics.
func (a *Allocator) String() string {
	return fmt.Sprintf("allocator{current=%d peak=%d}", a.Current(), a.Peak())
}
