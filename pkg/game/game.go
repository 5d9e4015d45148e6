// Package game simulates a repeated pairwise cooperation game among
// strategy-driven players. The orchestrator runs one round per evolution
// iteration and feeds the observed cooperation dynamics back into
// scheduling decisions.
package game

import (
	"sync"
)

// generousTolerance is how many opponent defections a generous player
// forgives before defecting itself.
const generousTolerance = 3

// Player is one participant in the repeated game. Histories grow by one
// entry per pairwise interaction and reset only on an explicit game reset.
type Player struct {
	ID               int
	Strategy         Strategy
	ActionHistory    []bool // true = cooperate
	PayoffHistory    []float64
	CumulativePayoff float64
	CooperationRate  float64

	// adopted is the behavior an adaptive player currently imitates.
	adopted Strategy
	defects int // opponent defections observed, drives generous forgiveness
}

// Simulator runs the repeated game. Safe for concurrent inspection while
// the round loop is running.
type Simulator struct {
	mu      sync.Mutex
	players []*Player
	round   int
	payoffs Payoffs
}

// NewSimulator creates a simulator with the given payoff constants.
func NewSimulator(payoffs Payoffs) *Simulator {
	return &Simulator{payoffs: payoffs}
}

// AddPlayer registers a new player with the given strategy.
func (s *Simulator) AddPlayer(id int, strategy Strategy) {
	s.mu.Lock()
	defer s.mu.Unlock()
	adopted := strategy
	if strategy == StrategyAdaptive {
		adopted = StrategyCooperate
	}
	s.players = append(s.players, &Player{
		ID:       id,
		Strategy: strategy,
		adopted:  adopted,
	})
}

// SimulateRound lets every distinct pair of players interact once, then
// updates histories, cumulative payoffs and cooperation rates.
func (s *Simulator) SimulateRound() {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.players)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			a, b := s.players[i], s.players[j]
			actA := a.selectAction(b)
			actB := b.selectAction(a)
			payA, payB := s.payoffs.resolve(actA, actB)

			a.record(actA, payA)
			b.record(actB, payB)
			if !actB {
				a.defects++
			}
			if !actA {
				b.defects++
			}
		}
	}
	s.round++
}

// UpdateStrategies re-evaluates adaptive players only; the other variants
// are static or already condition on history inside action selection.
func (s *Simulator) UpdateStrategies() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range s.players {
		if p.Strategy != StrategyAdaptive {
			continue
		}
		p.adopted = s.bestCandidate(p)
	}
}

// ResetGame clears histories and payoffs but preserves player identities
// and strategies.
func (s *Simulator) ResetGame() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range s.players {
		p.ActionHistory = nil
		p.PayoffHistory = nil
		p.CumulativePayoff = 0
		p.CooperationRate = 0
		p.defects = 0
		if p.Strategy == StrategyAdaptive {
			p.adopted = StrategyCooperate
		}
	}
	s.round = 0
}

// Payoffs returns the simulator's payoff constants.
func (s *Simulator) Payoffs() Payoffs {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.payoffs
}

// Round returns the number of completed rounds.
func (s *Simulator) Round() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.round
}

// Players returns copies of the current player states.
func (s *Simulator) Players() []Player {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Player, len(s.players))
	for i, p := range s.players {
		cp := *p
		cp.ActionHistory = append([]bool(nil), p.ActionHistory...)
		cp.PayoffHistory = append([]float64(nil), p.PayoffHistory...)
		out[i] = cp
	}
	return out
}

// AverageCooperationRate reports the mean cooperation rate across players.
func (s *Simulator) AverageCooperationRate() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.players) == 0 {
		return 0
	}
	total := 0.0
	for _, p := range s.players {
		total += p.CooperationRate
	}
	return total / float64(len(s.players))
}

// selectAction picks this player's action against the given opponent.
func (p *Player) selectAction(opponent *Player) bool {
	strategy := p.Strategy
	if strategy == StrategyAdaptive {
		strategy = p.adopted
	}

	switch strategy {
	case StrategyCooperate:
		return true
	case StrategyDefect:
		return false
	case StrategyTitForTat:
		// Mirror the opponent's most recent action; open with cooperation.
		if len(opponent.ActionHistory) == 0 {
			return true
		}
		return opponent.ActionHistory[len(opponent.ActionHistory)-1]
	case StrategyGenerous:
		return p.defects <= generousTolerance
	default:
		return true
	}
}

// record appends the action and payoff and refreshes derived fields.
func (p *Player) record(cooperated bool, payoff float64) {
	p.ActionHistory = append(p.ActionHistory, cooperated)
	p.PayoffHistory = append(p.PayoffHistory, payoff)
	p.CumulativePayoff += payoff

	coops := 0
	for _, a := range p.ActionHistory {
		if a {
			coops++
		}
	}
	p.CooperationRate = float64(coops) / float64(len(p.ActionHistory))
}

// bestCandidate estimates the expected per-interaction payoff of each
// candidate strategy against the opponents' observed cooperation rates
// and returns the argmax. Caller holds s.mu.
func (s *Simulator) bestCandidate(p *Player) Strategy {
	opponents := make([]*Player, 0, len(s.players)-1)
	for _, o := range s.players {
		if o != p {
			opponents = append(opponents, o)
		}
	}
	if len(opponents) == 0 {
		return StrategyCooperate
	}

	candidates := []Strategy{StrategyCooperate, StrategyDefect, StrategyTitForTat, StrategyGenerous}
	best := candidates[0]
	bestPayoff := s.expectedPayoff(candidates[0], opponents)
	for _, c := range candidates[1:] {
		if ep := s.expectedPayoff(c, opponents); ep > bestPayoff {
			best = c
			bestPayoff = ep
		}
	}
	return best
}

// expectedPayoff models each opponent as cooperating with probability
// equal to its observed cooperation rate.
func (s *Simulator) expectedPayoff(candidate Strategy, opponents []*Player) float64 {
	pay := s.payoffs
	total := 0.0
	for _, o := range opponents {
		q := o.CooperationRate
		if len(o.ActionHistory) == 0 {
			q = 1 // assume cooperation until observed otherwise
		}

		cooperate := q*pay.CooperationReward + (1-q)*pay.SuckerPayoff
		defect := q*pay.Temptation + (1-q)*pay.MutualPunishment

		switch candidate {
		case StrategyCooperate, StrategyGenerous:
			total += cooperate
		case StrategyDefect:
			total += defect
		case StrategyTitForTat:
			// Mirrors the opponent: cooperates with probability q.
			total += q*cooperate + (1-q)*defect
		}
	}
	return total / float64(len(opponents))
}
