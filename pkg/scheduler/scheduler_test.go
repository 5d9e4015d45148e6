package scheduler

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schedgov/schedgov/pkg/pareto"
)

// fakeController records calls and fails on demand.
type fakeController struct {
	priorities map[int]int
	bindings   map[int]int
	failPID    int
}

func newFakeController() *fakeController {
	return &fakeController{
		priorities: make(map[int]int),
		bindings:   make(map[int]int),
		failPID:    -1,
	}
}

func (f *fakeController) ApplyPriority(pid, level int) error {
	if pid == f.failPID {
		return errors.New("permission denied")
	}
	f.priorities[pid] = level
	return nil
}

func (f *fakeController) BindToCore(pid, coreID int) error {
	if pid == f.failPID {
		return errors.New("permission denied")
	}
	f.bindings[pid] = coreID
	return nil
}

func TestPriorityTable(t *testing.T) {
	assert.Equal(t, 10, PriorityFor("game", true))
	assert.Equal(t, 5, PriorityFor("game", false))
	assert.Equal(t, 8, PriorityFor("social", true))
	assert.Equal(t, 3, PriorityFor("social", false))
	assert.Equal(t, 7, PriorityFor("media", true))
	assert.Equal(t, 4, PriorityFor("media", false))
	assert.Equal(t, 9, PriorityFor("productivity", true))
	assert.Equal(t, 6, PriorityFor("productivity", false))
	assert.Equal(t, 5, PriorityFor("browser", true))
	assert.Equal(t, 5, PriorityFor("", false))
}

func TestRegistryAddRemove(t *testing.T) {
	r := NewRegistry()
	r.AddTask(Task{PID: 200, Name: "renderer", AppType: "game", Foreground: true})
	r.AddTask(Task{PID: 100, Name: "sync", AppType: "social"})

	tasks := r.ActiveTasks()
	require.Len(t, tasks, 2)
	assert.Equal(t, 100, tasks[0].PID, "tasks ordered by PID")
	assert.Equal(t, 200, tasks[1].PID)

	r.RemoveTask(100)
	r.RemoveTask(9999)
	assert.Equal(t, 1, r.Len())
}

func TestRegistrySetForeground(t *testing.T) {
	r := NewRegistry()
	r.AddTask(Task{PID: 1, AppType: "media"})

	assert.True(t, r.SetForeground(1, true))
	assert.True(t, r.ActiveTasks()[0].Foreground)
	assert.False(t, r.SetForeground(42, true))
}

func TestPlanWithoutOutcomeUsesTablePriorities(t *testing.T) {
	r := NewRegistry()
	r.AddTask(Task{PID: 1, AppType: "game", Foreground: true})
	r.AddTask(Task{PID: 2, AppType: "social", Foreground: false})
	b := NewBridge(newFakeController(), r, 4)

	directives := b.Plan()
	require.Len(t, directives, 2)

	assert.Equal(t, Directive{PID: 1, Priority: 10, CoreID: 10 % 4}, directives[0])
	assert.Equal(t, Directive{PID: 2, Priority: 3, CoreID: -1}, directives[1],
		"background tasks get no core binding")
}

func TestPlanBoostsForegroundOnPerformanceBias(t *testing.T) {
	r := NewRegistry()
	r.AddTask(Task{PID: 1, AppType: "media", Foreground: true})
	b := NewBridge(newFakeController(), r, 4)

	b.SetOutcome(Outcome{
		Optimum: pareto.Point{Performance: 0.9, PowerConsumption: 0.2},
	})

	directives := b.Plan()
	require.Len(t, directives, 1)
	assert.Equal(t, 8, directives[0].Priority, "performance bias boosts one level")
	assert.Equal(t, 8%4, directives[0].CoreID)
}

func TestPlanCutsForegroundOnPowerBias(t *testing.T) {
	r := NewRegistry()
	r.AddTask(Task{PID: 1, AppType: "game", Foreground: true})
	b := NewBridge(newFakeController(), r, 4)

	b.SetOutcome(Outcome{
		Optimum: pareto.Point{Performance: 0.1, PowerConsumption: 0.8},
	})

	directives := b.Plan()
	require.Len(t, directives, 1)
	assert.Equal(t, 9, directives[0].Priority)
}

func TestPlanClampsBoostedPriority(t *testing.T) {
	r := NewRegistry()
	r.AddTask(Task{PID: 1, AppType: "game", Foreground: true})
	b := NewBridge(newFakeController(), r, 4)

	b.SetOutcome(Outcome{
		Optimum: pareto.Point{Performance: 1.0, PowerConsumption: 0.0},
	})

	directives := b.Plan()
	assert.Equal(t, 10, directives[0].Priority, "boost never exceeds the maximum")
}

func TestApplyRecordsSuccesses(t *testing.T) {
	r := NewRegistry()
	r.AddTask(Task{PID: 1, AppType: "game", Foreground: true})
	r.AddTask(Task{PID: 2, AppType: "social", Foreground: false})
	ctrl := newFakeController()
	b := NewBridge(ctrl, r, 4)

	applied := b.Apply(context.Background(), b.Plan())
	assert.Equal(t, 2, applied)
	assert.Equal(t, 10, ctrl.priorities[1])
	assert.Equal(t, 10%4, ctrl.bindings[1])
	assert.Equal(t, 3, ctrl.priorities[2])
	_, bound := ctrl.bindings[2]
	assert.False(t, bound)
}

func TestApplyFailureRetainsPriorState(t *testing.T) {
	r := NewRegistry()
	r.AddTask(Task{PID: 1, AppType: "game", Foreground: true})
	ctrl := newFakeController()
	b := NewBridge(ctrl, r, 4)

	// First application succeeds and is recorded.
	require.Equal(t, 1, b.Apply(context.Background(), b.Plan()))
	before := b.Applied()[1]

	// Later the controller starts failing for this PID.
	ctrl.failPID = 1
	assert.Equal(t, 0, b.Apply(context.Background(), b.Plan()))
	assert.Equal(t, before, b.Applied()[1], "failed apply keeps the previous record")
}

func TestForgetDropsAppliedRecord(t *testing.T) {
	r := NewRegistry()
	r.AddTask(Task{PID: 1, AppType: "media", Foreground: false})
	b := NewBridge(newFakeController(), r, 2)

	b.Apply(context.Background(), b.Plan())
	require.Contains(t, b.Applied(), 1)

	b.Forget(1)
	assert.NotContains(t, b.Applied(), 1)
}
