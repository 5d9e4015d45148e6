// Package scheduler turns optimization results into concrete process
// scheduling directives: a registry of governed tasks, scene-based
// priority tables, and a bridge that applies priorities and core
// bindings through the platform controller.
package scheduler

import (
	"sort"
	"sync"

	"github.com/schedgov/schedgov/pkg/core"
)

// Task is one process under the governor's control.
type Task struct {
	PID        int
	Name       string
	AppType    string
	Foreground bool
}

// Registry tracks the governed task set. Safe for concurrent use.
type Registry struct {
	mu    sync.Mutex
	tasks map[int]Task
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{tasks: make(map[int]Task)}
}

// AddTask registers or replaces a task keyed by PID.
func (r *Registry) AddTask(task Task) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tasks[task.PID] = task
}

// RemoveTask forgets a task. Unknown PIDs are ignored.
func (r *Registry) RemoveTask(pid int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tasks, pid)
}

// SetForeground flips a task's foreground flag. Returns false for an
// unknown PID.
func (r *Registry) SetForeground(pid int, foreground bool) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	task, ok := r.tasks[pid]
	if !ok {
		return false
	}
	task.Foreground = foreground
	r.tasks[pid] = task
	return true
}

// ActiveTasks returns the registered tasks ordered by PID.
func (r *Registry) ActiveTasks() []Task {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Task, 0, len(r.tasks))
	for _, t := range r.tasks {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PID < out[j].PID })
	return out
}

// Len reports the number of registered tasks.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.tasks)
}

// RegistryScene derives the usage scene from the registered foreground
// task. With several foreground tasks the lowest PID wins; with none the
// scene is unknown.
type RegistryScene struct {
	registry *Registry
}

// NewRegistryScene wraps a registry as a scene source.
func NewRegistryScene(registry *Registry) *RegistryScene {
	return &RegistryScene{registry: registry}
}

// CurrentScene implements core.SceneContext.
func (s *RegistryScene) CurrentScene() core.Scene {
	for _, task := range s.registry.ActiveTasks() {
		if task.Foreground {
			return core.ParseScene(task.AppType)
		}
	}
	return core.SceneUnknown
}
