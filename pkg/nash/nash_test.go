package nash

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSolveConvergesToDistribution(t *testing.T) {
	eq := Solve([][]float64{{3, 1}, {0, 2}})

	require.Len(t, eq.Strategies, 2)

	sum := eq.Strategies[0] + eq.Strategies[1]
	assert.InDelta(t, 1.0, sum, 1e-6, "strategies must form a distribution")

	for _, s := range eq.Strategies {
		assert.GreaterOrEqual(t, s, 0.0)
	}

	// Utility must equal sᵀ·M·s for the returned distribution.
	m := [][]float64{{3, 1}, {0, 2}}
	want := 0.0
	for i := range m {
		for j := range m[i] {
			want += eq.Strategies[i] * eq.Strategies[j] * m[i][j]
		}
	}
	assert.InDelta(t, want, eq.Utility, 1e-9)
}

func TestSolveEmptyMatrix(t *testing.T) {
	eq := Solve(nil)
	assert.Empty(t, eq.Strategies)
	assert.Equal(t, 0.0, eq.Utility)
}

func TestSolveSingleStrategy(t *testing.T) {
	eq := Solve([][]float64{{4}})
	require.Len(t, eq.Strategies, 1)
	assert.InDelta(t, 1.0, eq.Strategies[0], 1e-9)
	assert.InDelta(t, 4.0, eq.Utility, 1e-9)
}

func TestSolveAllNegativePayoffsHoldsUniform(t *testing.T) {
	// Every expected payoff clamps to zero, so the solver keeps the
	// uniform initial distribution.
	eq := Solve([][]float64{{-1, -2}, {-3, -4}})
	require.Len(t, eq.Strategies, 2)
	assert.InDelta(t, 0.5, eq.Strategies[0], 1e-9)
	assert.InDelta(t, 0.5, eq.Strategies[1], 1e-9)
}

func TestSolveDistributionStable(t *testing.T) {
	// Re-solving the same matrix is deterministic.
	a := Solve([][]float64{{3, 1}, {0, 2}})
	b := Solve([][]float64{{3, 1}, {0, 2}})
	for i := range a.Strategies {
		assert.True(t, math.Abs(a.Strategies[i]-b.Strategies[i]) < 1e-12)
	}
}
