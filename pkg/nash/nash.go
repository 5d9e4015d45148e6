// Package nash implements a heuristic fixed-point solver over payoff
// matrices.
//
// The solver iterates the best-response map e = M·s, clamping negative
// expected payoffs to zero and renormalizing, until the distribution
// stops moving. The fixed point it finds is NOT a verified Nash
// equilibrium; callers should treat the result as a scheduling heuristic,
// not a game-theoretic guarantee.
package nash

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

const (
	maxIterations        = 100
	convergenceThreshold = 1e-6
)

// Equilibrium holds the converged strategy distribution and its utility
// sᵀ·M·s.
type Equilibrium struct {
	Strategies []float64
	Utility    float64
}

// Solve runs the iterative solver on an N×N payoff matrix. An empty
// matrix yields an empty equilibrium with zero utility.
func Solve(payoff [][]float64) Equilibrium {
	n := len(payoff)
	if n == 0 {
		return Equilibrium{Strategies: []float64{}}
	}

	m := mat.NewDense(n, n, nil)
	for i, row := range payoff {
		for j, v := range row {
			m.Set(i, j, v)
		}
	}

	// Uniform initial distribution.
	strategies := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		strategies.SetVec(i, 1.0/float64(n))
	}

	expected := mat.NewVecDense(n, nil)
	for iter := 0; iter < maxIterations; iter++ {
		expected.MulVec(m, strategies)

		sum := 0.0
		for i := 0; i < n; i++ {
			v := math.Max(0, expected.AtVec(i))
			expected.SetVec(i, v)
			sum += v
		}
		if sum == 0 {
			// Degenerate payoffs; hold the previous distribution.
			break
		}

		maxDelta := 0.0
		for i := 0; i < n; i++ {
			next := expected.AtVec(i) / sum
			if d := math.Abs(next - strategies.AtVec(i)); d > maxDelta {
				maxDelta = d
			}
			strategies.SetVec(i, next)
		}

		if maxDelta < convergenceThreshold {
			break
		}
	}

	out := make([]float64, n)
	copy(out, strategies.RawVector().Data)

	return Equilibrium{
		Strategies: out,
		Utility:    utility(m, strategies),
	}
}

// utility computes sᵀ·M·s for the converged distribution.
func utility(m *mat.Dense, s *mat.VecDense) float64 {
	n := s.Len()
	ms := mat.NewVecDense(n, nil)
	ms.MulVec(m, s)
	return mat.Dot(s, ms)
}
