// Package orchestrator runs the governor's optimization loop: sample
// device metrics, advance the genetic search and the cooperation game,
// derive Pareto and equilibrium guidance, push scheduling directives,
// and record history. The loop owns its cadence through the adaptive
// sampling controller and survives faults in any single stage.
package orchestrator

import (
	"context"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sourcegraph/conc"

	"github.com/schedgov/schedgov/pkg/adaptive"
	"github.com/schedgov/schedgov/pkg/config"
	"github.com/schedgov/schedgov/pkg/core"
	"github.com/schedgov/schedgov/pkg/errors"
	"github.com/schedgov/schedgov/pkg/evolution"
	"github.com/schedgov/schedgov/pkg/game"
	"github.com/schedgov/schedgov/pkg/logging"
	"github.com/schedgov/schedgov/pkg/nash"
	"github.com/schedgov/schedgov/pkg/pareto"
	"github.com/schedgov/schedgov/pkg/persistence"
	"github.com/schedgov/schedgov/pkg/scheduler"
)

const (
	// historyCap bounds the in-memory optimization history.
	historyCap = 100

	// convergenceLookback is how many iterations back the best fitness is
	// compared against when testing for convergence.
	convergenceLookback = 10

	// maxFaultBackoff caps the exponential backoff applied after
	// consecutive iteration faults.
	maxFaultBackoff = 5
)

// Components are the collaborators the orchestrator drives. Store may be
// nil to disable persistence.
type Components struct {
	Metrics   core.MetricsSource
	Scenes    core.SceneContext
	Evolver   *evolution.Evolver
	Simulator *game.Simulator
	Adaptive  *adaptive.Controller
	Bridge    *scheduler.Bridge
	Store     persistence.Store
}

// Status is a point-in-time view of the loop, safe to serve while it
// runs. Active tracks the loop itself; EvolutionActive reports whether
// generations are still being evolved, and turns false once the search
// converges or hits its generation cap while monitoring continues.
type Status struct {
	Active             bool
	EvolutionActive    bool
	Converged          bool
	Iterations         int
	Generation         int
	BestFitness        float64
	AverageFitness     float64
	Diversity          float64
	BestParameters     core.ParameterVector
	Scene              core.Scene
	Interval           time.Duration
	AverageCooperation float64
	Players            []game.Player
	LastSnapshot       core.PerformanceSnapshot
}

// Orchestrator coordinates one governor instance. Start and Stop pair;
// a stopped orchestrator can be started again.
type Orchestrator struct {
	mu sync.Mutex

	cfg   *config.Config
	comps Components

	history    []persistence.Record
	iterations int
	faults     int
	converged  bool
	lastSnap   core.PerformanceSnapshot
	lastScene  core.Scene

	active atomic.Bool
	cancel context.CancelFunc
	wg     *conc.WaitGroup
}

// New assembles an orchestrator from its components.
func New(cfg *config.Config, comps Components) *Orchestrator {
	return &Orchestrator{cfg: cfg, comps: comps}
}

// Start launches the loop. Restores persisted history, seeds the
// population, and returns immediately; the loop runs until ctx is
// canceled or Stop is called.
func (o *Orchestrator) Start(ctx context.Context) error {
	if !o.active.CompareAndSwap(false, true) {
		return errors.New(errors.InvalidInput, "orchestrator already running")
	}

	logger := logging.GetLogger()
	if o.comps.Store != nil {
		records, err := o.comps.Store.Load()
		if err != nil {
			logger.Warn(ctx, "history restore failed, starting fresh: %v", err)
		} else if len(records) > 0 {
			o.mu.Lock()
			o.history = trimHistory(records)
			o.mu.Unlock()
			logger.Info(ctx, "restored %d history records", len(records))
		}
	}

	o.comps.Evolver.InitializePopulation()
	o.mu.Lock()
	o.converged = false
	o.mu.Unlock()

	runCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel
	o.wg = conc.NewWaitGroup()
	o.wg.Go(func() {
		o.run(runCtx)
	})

	logger.Info(ctx, "governor loop started (population=%d, interval=%v)",
		o.cfg.Evolution.PopulationSize, o.comps.Adaptive.Interval())
	return nil
}

// Stop cancels the loop and waits for the in-flight iteration to finish.
func (o *Orchestrator) Stop() {
	if !o.active.Load() {
		return
	}
	o.cancel()
	o.wg.Wait()
	o.active.Store(false)
	logging.GetLogger().Info(context.Background(), "governor loop stopped after %d iterations", o.Iterations())
}

// Active reports whether the loop is running.
func (o *Orchestrator) Active() bool {
	return o.active.Load()
}

// Iterations reports completed loop iterations.
func (o *Orchestrator) Iterations() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.iterations
}

func (o *Orchestrator) run(ctx context.Context) {
	logger := logging.GetLogger()
	timer := time.NewTimer(o.comps.Adaptive.Interval())
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			o.persist(context.Background())
			return
		case <-timer.C:
		}

		if err := o.RunIteration(ctx); err != nil {
			o.mu.Lock()
			o.faults++
			faults := o.faults
			o.mu.Unlock()
			logger.Error(ctx, "iteration fault (%d consecutive): %v", faults, err)
		} else {
			o.mu.Lock()
			o.faults = 0
			o.mu.Unlock()
		}

		timer.Reset(o.nextDelay())
	}
}

// nextDelay asks the adaptive controller for the next interval and
// stretches it exponentially while iterations keep faulting.
func (o *Orchestrator) nextDelay() time.Duration {
	delay := o.comps.Adaptive.NextInterval()

	o.mu.Lock()
	faults := o.faults
	o.mu.Unlock()
	if faults > 0 {
		if faults > maxFaultBackoff {
			faults = maxFaultBackoff
		}
		delay *= time.Duration(1 << faults)
		if limit := o.cfg.Adaptive.MaxInterval.Std(); delay > limit {
			delay = limit
		}
	}
	return delay
}

// RunIteration executes one full optimization pass. A panic in any stage
// is converted into a ComputationFault error; the loop backs off and
// retries rather than dying.
func (o *Orchestrator) RunIteration(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.New(errors.ComputationFault, "iteration panicked")
			logging.GetLogger().Error(ctx, "iteration panic: %v", r)
		}
	}()

	snap, err := o.comps.Metrics.Snapshot()
	if err != nil {
		return errors.Wrap(err, errors.CollaboratorUnavailable, "metrics snapshot failed")
	}
	o.comps.Adaptive.Observe(snap)
	scene := o.comps.Scenes.CurrentScene()

	o.mu.Lock()
	o.lastSnap = snap
	o.lastScene = scene
	terminated := o.converged
	o.mu.Unlock()

	if o.cfg.Engine.OptimizationEnabled && !terminated && !o.comps.Evolver.ShouldTerminate() {
		o.comps.Evolver.EvolveGeneration(snap, o.comps.Adaptive.ShouldSkipCalculation)
	}

	o.comps.Simulator.SimulateRound()
	o.comps.Simulator.UpdateStrategies()

	o.updateBridge(ctx, snap, scene)
	o.recordIteration(ctx)
	o.persist(ctx)

	o.mu.Lock()
	o.iterations++
	o.mu.Unlock()
	return nil
}

// updateBridge derives the frontier optimum and equilibrium from the
// current population and game, then plans and applies directives.
func (o *Orchestrator) updateBridge(ctx context.Context, snap core.PerformanceSnapshot, scene core.Scene) {
	points := objectivePoints(o.comps.Evolver.Snapshot(), snap)
	frontier := pareto.Frontier(points)
	optimum, ok := pareto.OptimalPoint(frontier, pareto.SceneWeights(scene))
	if !ok {
		return
	}

	players := o.comps.Simulator.Players()
	eq := nash.Solve(payoffMatrix(players, o.comps.Simulator.Payoffs()))

	outcome := scheduler.Outcome{
		Equilibrium: eq,
		Optimum:     optimum,
		Scene:       scene,
	}
	if best, hasBest := o.comps.Evolver.Best(); hasBest {
		outcome.BestParameters = best.Parameters
	}
	o.comps.Bridge.SetOutcome(outcome)

	directives := o.comps.Bridge.Plan()
	applied := o.comps.Bridge.Apply(ctx, directives)
	if applied < len(directives) {
		logging.GetLogger().Warn(ctx, "applied %d of %d scheduling directives", applied, len(directives))
	}
}

// recordIteration appends a history record and runs the convergence
// check against the record from convergenceLookback iterations ago.
func (o *Orchestrator) recordIteration(ctx context.Context) {
	best, ok := o.comps.Evolver.Best()
	if !ok {
		return
	}
	record := persistence.Record{
		Generation:     o.comps.Evolver.Generation(),
		BestFitness:    best.Fitness,
		AverageFitness: o.comps.Evolver.AverageFitness(),
		DiversityScore: o.comps.Evolver.Diversity(),
		Timestamp:      persistence.Now(),
		BestParameters: best.Parameters.Clone(),
	}

	o.mu.Lock()
	o.history = trimHistory(append(o.history, record))

	idx := len(o.history) - 1 - convergenceLookback
	shouldSignal := false
	if !o.converged && idx >= 0 {
		delta := math.Abs(record.BestFitness - o.history[idx].BestFitness)
		if delta < o.cfg.Evolution.ConvergenceThreshold {
			o.converged = true
			shouldSignal = true
		}
	}
	o.mu.Unlock()

	if shouldSignal {
		o.comps.Evolver.SignalConvergence()
		logging.GetLogger().Info(ctx, "optimization converged at generation %d (best=%.6f)",
			record.Generation, record.BestFitness)
	}
}

// persist saves the history snapshot, best effort.
func (o *Orchestrator) persist(ctx context.Context) {
	if o.comps.Store == nil {
		return
	}
	o.mu.Lock()
	records := make([]persistence.Record, len(o.history))
	copy(records, o.history)
	o.mu.Unlock()

	if err := o.comps.Store.Save(records); err != nil {
		logging.GetLogger().Warn(ctx, "history save failed: %v", err)
	}
}

// History returns a copy of the recorded iterations.
func (o *Orchestrator) History() []persistence.Record {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]persistence.Record, len(o.history))
	copy(out, o.history)
	return out
}

// Status reports the loop's current state.
func (o *Orchestrator) Status() Status {
	o.mu.Lock()
	st := Status{
		Active:       o.active.Load(),
		Converged:    o.converged,
		Iterations:   o.iterations,
		Scene:        o.lastScene,
		LastSnapshot: o.lastSnap,
	}
	o.mu.Unlock()

	st.EvolutionActive = o.cfg.Engine.OptimizationEnabled && !st.Converged &&
		!o.comps.Evolver.ShouldTerminate()
	st.Generation = o.comps.Evolver.Generation()
	st.AverageFitness = o.comps.Evolver.AverageFitness()
	st.Diversity = o.comps.Evolver.Diversity()
	st.Interval = o.comps.Adaptive.Interval()
	st.AverageCooperation = o.comps.Simulator.AverageCooperationRate()
	st.Players = o.comps.Simulator.Players()
	if best, ok := o.comps.Evolver.Best(); ok {
		st.BestFitness = best.Fitness
		st.BestParameters = best.Parameters
	}
	return st
}

// trimHistory keeps the most recent historyCap records.
func trimHistory(records []persistence.Record) []persistence.Record {
	if len(records) <= historyCap {
		return records
	}
	return records[len(records)-historyCap:]
}

// objectivePoints projects the population into objective space. Each
// individual's performance and energy sub-scores become the performance
// and power axes; thermal impact scales the device's thermal score by
// how little thermal weight the individual carries.
func objectivePoints(individuals []evolution.Individual, snap core.PerformanceSnapshot) []pareto.Point {
	points := make([]pareto.Point, 0, len(individuals))
	for _, ind := range individuals {
		if !ind.Valid || ind.UpdateCount == 0 {
			continue
		}
		wTherm := 0.0
		if len(ind.Parameters) > 3 {
			wTherm = ind.Parameters[3]
		}
		points = append(points, pareto.Point{
			Performance:      ind.PerformanceComponent,
			PowerConsumption: ind.EnergyCost,
			ThermalImpact:    (1 - wTherm) * snap.ThermalScore / 100,
			Parameters:       ind.Parameters,
		})
	}
	return points
}

// payoffMatrix models pairwise expected payoffs from observed
// cooperation rates: entry (i, j) is what player i expects against
// player j when both keep their observed behavior.
func payoffMatrix(players []game.Player, payoffs game.Payoffs) [][]float64 {
	n := len(players)
	matrix := make([][]float64, n)
	for i := range matrix {
		matrix[i] = make([]float64, n)
		qi := cooperationEstimate(players[i])
		for j := range matrix[i] {
			qj := cooperationEstimate(players[j])
			matrix[i][j] = qi*qj*payoffs.CooperationReward +
				qi*(1-qj)*payoffs.SuckerPayoff +
				(1-qi)*qj*payoffs.Temptation +
				(1-qi)*(1-qj)*payoffs.MutualPunishment
		}
	}
	return matrix
}

// cooperationEstimate is the observed cooperation rate, assuming
// cooperation before any history exists.
func cooperationEstimate(p game.Player) float64 {
	if len(p.ActionHistory) == 0 {
		return 1
	}
	return p.CooperationRate
}
