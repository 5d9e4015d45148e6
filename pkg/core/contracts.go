package core

// MetricsSource produces performance snapshots on demand. Implementations
// must be side-effect free.
type MetricsSource interface {
	Snapshot() (PerformanceSnapshot, error)
}

// ProcessController applies scheduling decisions to live processes.
// Both operations are best-effort; callers log failures and move on.
type ProcessController interface {
	ApplyPriority(pid int, level int) error
	BindToCore(pid int, coreID int) error
}

// SceneContext reports the current usage scene.
type SceneContext interface {
	CurrentScene() Scene
}
