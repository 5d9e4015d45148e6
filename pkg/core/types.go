// Package core defines the shared value types and collaborator contracts
// consumed by the scheduling governor. The governor itself never produces
// snapshots or touches the OS; those concerns live behind the interfaces
// declared here.
package core

import "time"

// ParameterDim is the fixed dimensionality of a scheduling parameter vector:
// responsiveness, fluency, efficiency, thermal, reserved.
const ParameterDim = 5

// ParameterVector is an ordered sequence of scheduling weights. No hard
// range is enforced outside of mutation clamping.
type ParameterVector []float64

// Clone returns an independent copy of the vector.
func (p ParameterVector) Clone() ParameterVector {
	out := make(ParameterVector, len(p))
	copy(out, p)
	return out
}

// PerformanceSnapshot is an immutable view of device state at a point in
// time. All usage values are percentages; ThermalScore is 0-100 where
// higher means hotter.
type PerformanceSnapshot struct {
	CPUUsage       float64   `json:"cpu_usage"`
	MemoryUsage    float64   `json:"memory_usage"`
	ThermalScore   float64   `json:"thermal_score"`
	BatteryLevel   float64   `json:"battery_level"`
	Responsiveness float64   `json:"responsiveness_score"`
	Fluency        float64   `json:"fluency_score"`
	Efficiency     float64   `json:"efficiency_score"`
	CES            float64   `json:"ces_score"`
	Timestamp      time.Time `json:"timestamp"`
}

// Scene is the externally detected usage context that biases scheduling
// weights.
type Scene int

const (
	SceneUnknown Scene = iota
	SceneGame
	SceneSocial
	SceneMedia
	SceneProductivity
)

func (s Scene) String() string {
	switch s {
	case SceneGame:
		return "game"
	case SceneSocial:
		return "social"
	case SceneMedia:
		return "media"
	case SceneProductivity:
		return "productivity"
	default:
		return "unknown"
	}
}

// ParseScene maps an app-type label to a Scene. Unrecognized labels map
// to SceneUnknown.
func ParseScene(label string) Scene {
	switch label {
	case "game":
		return SceneGame
	case "social":
		return SceneSocial
	case "media":
		return SceneMedia
	case "productivity":
		return SceneProductivity
	default:
		return SceneUnknown
	}
}

// CESWeights blend the per-dimension scores into the composite experience
// score.
type CESWeights struct {
	Responsiveness float64
	Fluency        float64
	Efficiency     float64
	Thermal        float64
}

// ComputeCES blends responsiveness, fluency and efficiency scores with a
// thermal penalty, clamped to [0, 100].
func ComputeCES(s PerformanceSnapshot, w CESWeights) float64 {
	ces := w.Responsiveness*s.Responsiveness +
		w.Fluency*s.Fluency +
		w.Efficiency*s.Efficiency -
		w.Thermal*s.ThermalScore
	if ces < 0 {
		return 0
	}
	if ces > 100 {
		return 100
	}
	return ces
}
