package game

// Strategy is a tagged variant selecting a player's per-round behavior.
type Strategy int

const (
	StrategyCooperate Strategy = iota
	StrategyDefect
	StrategyTitForTat
	StrategyGenerous
	StrategyAdaptive
)

func (s Strategy) String() string {
	switch s {
	case StrategyCooperate:
		return "cooperate"
	case StrategyDefect:
		return "defect"
	case StrategyTitForTat:
		return "tit-for-tat"
	case StrategyGenerous:
		return "generous"
	case StrategyAdaptive:
		return "adaptive"
	default:
		return "unknown"
	}
}

// Payoffs holds the four named outcome constants of a single pairwise
// interaction. The cooperator facing a defector receives SuckerPayoff.
type Payoffs struct {
	CooperationReward float64 // mutual cooperation
	Temptation        float64 // unilateral defector's gain
	MutualPunishment  float64 // mutual defection
	SuckerPayoff      float64 // cooperator against a defector
}

// DefaultPayoffs returns the classic prisoner's dilemma ordering
// T > R > P > S.
func DefaultPayoffs() Payoffs {
	return Payoffs{
		CooperationReward: 3,
		Temptation:        5,
		MutualPunishment:  1,
		SuckerPayoff:      0,
	}
}

// resolve returns the payoff pair for the two actions (true = cooperate).
func (p Payoffs) resolve(a, b bool) (float64, float64) {
	switch {
	case a && b:
		return p.CooperationReward, p.CooperationReward
	case a && !b:
		return p.SuckerPayoff, p.Temptation
	case !a && b:
		return p.Temptation, p.SuckerPayoff
	default:
		return p.MutualPunishment, p.MutualPunishment
	}
}
