package evolution

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schedgov/schedgov/pkg/core"
)

func makeIndividuals(n int) []*Individual {
	out := make([]*Individual, n)
	for i := range out {
		params := make(core.ParameterVector, core.ParameterDim)
		out[i] = newIndividual(params, 0)
	}
	return out
}

func TestEvaluateBatchVisitsEveryIndividual(t *testing.T) {
	fabric := NewFabric(4)
	individuals := makeIndividuals(32)

	var visited atomic.Int64
	fabric.EvaluateBatch(individuals, func(_ int, ind *Individual) {
		ind.Fitness = 1.0
		visited.Add(1)
	})

	assert.Equal(t, int64(32), visited.Load())
	for _, ind := range individuals {
		assert.Equal(t, 1.0, ind.Fitness)
	}
}

func TestEvaluateBatchSerialFallback(t *testing.T) {
	fabric := NewFabric(0)
	individuals := makeIndividuals(8)

	order := make([]int, 0, 8)
	fabric.EvaluateBatch(individuals, func(idx int, _ *Individual) {
		order = append(order, idx)
	})

	require.Len(t, order, 8)
	for i, idx := range order {
		assert.Equal(t, i, idx, "serial fallback preserves order")
	}
}

func TestEvaluateBatchIsolatesPanics(t *testing.T) {
	fabric := NewFabric(3)
	individuals := makeIndividuals(10)

	fabric.EvaluateBatch(individuals, func(idx int, ind *Individual) {
		if idx == 4 {
			panic("induced fault")
		}
		ind.Fitness = 2.0
	})

	for idx, ind := range individuals {
		if idx == 4 {
			assert.False(t, ind.Valid, "faulted individual is marked invalid")
			assert.Equal(t, 0.0, ind.Fitness)
			continue
		}
		assert.True(t, ind.Valid)
		assert.Equal(t, 2.0, ind.Fitness)
	}
}

func TestAllocatorReuseAndCounters(t *testing.T) {
	alloc := NewAllocator()

	a := alloc.Get()
	b := alloc.Get()
	require.Len(t, a, core.ParameterDim)
	require.Len(t, b, core.ParameterDim)
	assert.Equal(t, int64(2), alloc.Current())
	assert.Equal(t, int64(2), alloc.Peak())

	a[0] = 9.9
	alloc.Put(a)
	alloc.Put(b)
	assert.Equal(t, int64(0), alloc.Current())
	assert.Equal(t, int64(2), alloc.Peak(), "peak is a high-water mark")

	c := alloc.Get()
	for _, v := range c {
		assert.Equal(t, 0.0, v, "buffers are zeroed on checkout")
	}
	alloc.Put(c)
}

func TestAllocatorRejectsForeignBuffers(t *testing.T) {
	alloc := NewAllocator()
	alloc.Put(make(core.ParameterVector, core.ParameterDim+3))
	assert.Equal(t, int64(0), alloc.Current())
}
