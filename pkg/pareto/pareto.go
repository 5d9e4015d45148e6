// Package pareto computes non-dominated frontiers over scheduling
// outcomes and picks scene-weighted optima from them.
package pareto

import (
	"github.com/schedgov/schedgov/pkg/core"
)

// Point is a transient scheduling outcome in objective space. Performance
// is maximized; power consumption and thermal impact are minimized.
type Point struct {
	Performance      float64
	PowerConsumption float64
	ThermalImpact    float64
	Parameters       core.ParameterVector
}

// Weights is a scene-dependent objective weight triple.
type Weights struct {
	Performance float64
	Power       float64
	Thermal     float64
}

// SceneWeights returns the objective weights for a scene. Game scenes
// bias toward performance, social scenes toward power.
func SceneWeights(scene core.Scene) Weights {
	switch scene {
	case core.SceneGame:
		return Weights{Performance: 0.6, Power: 0.2, Thermal: 0.2}
	case core.SceneSocial:
		return Weights{Performance: 0.3, Power: 0.4, Thermal: 0.3}
	case core.SceneMedia:
		return Weights{Performance: 0.4, Power: 0.3, Thermal: 0.3}
	case core.SceneProductivity:
		return Weights{Performance: 0.5, Power: 0.3, Thermal: 0.2}
	default:
		return Weights{Performance: 0.4, Power: 0.3, Thermal: 0.3}
	}
}

// Dominates reports whether a dominates b: not worse on all three
// objectives and strictly better on at least one. Tied points are
// mutually non-dominating.
func Dominates(a, b Point) bool {
	notWorse := a.Performance >= b.Performance &&
		a.PowerConsumption <= b.PowerConsumption &&
		a.ThermalImpact <= b.ThermalImpact
	strictlyBetter := a.Performance > b.Performance ||
		a.PowerConsumption < b.PowerConsumption ||
		a.ThermalImpact < b.ThermalImpact
	return notWorse && strictlyBetter
}

// Frontier returns every point not dominated by any other point in the
// input set. Pairwise O(n²) comparison; duplicates are all retained.
func Frontier(points []Point) []Point {
	frontier := make([]Point, 0, len(points))
	for i, p := range points {
		dominated := false
		for j, other := range points {
			if i == j {
				continue
			}
			if Dominates(other, p) {
				dominated = true
				break
			}
		}
		if !dominated {
			frontier = append(frontier, p)
		}
	}
	return frontier
}

// Score applies the weight triple to a point.
func (w Weights) Score(p Point) float64 {
	return w.Performance*p.Performance - w.Power*p.PowerConsumption - w.Thermal*p.ThermalImpact
}

// OptimalPoint selects the frontier member maximizing the weighted score.
// Ties keep the first point in scan order. Returns false for an empty
// frontier.
func OptimalPoint(frontier []Point, w Weights) (Point, bool) {
	if len(frontier) == 0 {
		return Point{}, false
	}
	best := frontier[0]
	bestScore := w.Score(best)
	for _, p := range frontier[1:] {
		if s := w.Score(p); s > bestScore {
			best = p
			bestScore = s
		}
	}
	return best, true
}
