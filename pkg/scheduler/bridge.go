package scheduler

import (
	"context"
	"sync"

	"github.com/schedgov/schedgov/pkg/core"
	"github.com/schedgov/schedgov/pkg/logging"
	"github.com/schedgov/schedgov/pkg/nash"
	"github.com/schedgov/schedgov/pkg/pareto"
)

// Directive is one concrete scheduling action: a priority for a PID and,
// for foreground tasks, a core binding. CoreID is -1 when no binding
// applies.
type Directive struct {
	PID      int
	Priority int
	CoreID   int
}

// Outcome is the latest optimization result feeding the bridge.
type Outcome struct {
	BestParameters core.ParameterVector
	Equilibrium    nash.Equilibrium
	Optimum        pareto.Point
	Scene          core.Scene
}

// performanceBiasThreshold separates performance-leaning optimization
// outcomes (priority boost) from power-leaning ones (priority cut).
const performanceBiasThreshold = 0.25

// Bridge converts optimization outcomes plus the registered task set into
// directives and applies them through the platform controller. Apply is
// best-effort: a failed directive is logged and the task keeps whatever
// state it had before.
type Bridge struct {
	mu sync.Mutex

	controller core.ProcessController
	registry   *Registry
	cores      int

	outcome    Outcome
	hasOutcome bool
	applied    map[int]Directive
}

// NewBridge wires the bridge to a controller and task registry. cores
// below 1 degrade to 1.
func NewBridge(controller core.ProcessController, registry *Registry, cores int) *Bridge {
	if cores < 1 {
		cores = 1
	}
	return &Bridge{
		controller: controller,
		registry:   registry,
		cores:      cores,
		applied:    make(map[int]Directive),
	}
}

// SetOutcome records the latest optimization result. Subsequent plans
// bias priorities by it.
func (b *Bridge) SetOutcome(outcome Outcome) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.outcome = outcome
	b.hasOutcome = true
}

// Outcome returns the last recorded outcome, if any.
func (b *Bridge) Outcome() (Outcome, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.outcome, b.hasOutcome
}

// Plan builds directives for every registered task. Base priority comes
// from the app-type table; a performance-leaning optimization outcome
// boosts foreground tasks by one level, a power-leaning one cuts them.
// Foreground tasks are bound to core (priority mod cores).
func (b *Bridge) Plan() []Directive {
	b.mu.Lock()
	boost := 0
	if b.hasOutcome {
		bias := b.outcome.Optimum.Performance - b.outcome.Optimum.PowerConsumption
		switch {
		case bias > performanceBiasThreshold:
			boost = 1
		case bias < -performanceBiasThreshold:
			boost = -1
		}
	}
	b.mu.Unlock()

	tasks := b.registry.ActiveTasks()
	directives := make([]Directive, 0, len(tasks))
	for _, task := range tasks {
		priority := PriorityFor(task.AppType, task.Foreground)
		coreID := -1
		if task.Foreground {
			priority = clampPriority(priority + boost)
			coreID = priority % b.cores
		}
		directives = append(directives, Directive{
			PID:      task.PID,
			Priority: priority,
			CoreID:   coreID,
		})
	}
	return directives
}

// Apply pushes directives to the platform controller and returns how many
// were applied in full. Failures are logged per directive; the previously
// applied state for that PID is retained.
func (b *Bridge) Apply(ctx context.Context, directives []Directive) int {
	logger := logging.GetLogger()
	applied := 0

	for _, d := range directives {
		if err := b.controller.ApplyPriority(d.PID, d.Priority); err != nil {
			logger.Warn(ctx, "priority %d for pid %d not applied: %v", d.Priority, d.PID, err)
			continue
		}
		if d.CoreID >= 0 {
			if err := b.controller.BindToCore(d.PID, d.CoreID); err != nil {
				logger.Warn(ctx, "core binding %d for pid %d not applied: %v", d.CoreID, d.PID, err)
				continue
			}
		}

		b.mu.Lock()
		b.applied[d.PID] = d
		b.mu.Unlock()
		applied++
	}
	return applied
}

// Applied returns a copy of the last fully applied directive per PID.
func (b *Bridge) Applied() map[int]Directive {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make(map[int]Directive, len(b.applied))
	for pid, d := range b.applied {
		out[pid] = d
	}
	return out
}

// Forget drops the applied record for a PID, typically after the task is
// removed from the registry.
func (b *Bridge) Forget(pid int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.applied, pid)
}
