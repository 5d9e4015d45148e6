//go:build linux

package platform

import (
	"golang.org/x/sys/unix"

	"github.com/schedgov/schedgov/pkg/errors"
)

// UnixProcessController applies scheduling decisions through setpriority
// and sched_setaffinity. Callers treat failures as non-fatal; an
// unprivileged governor simply cannot move some processes.
type UnixProcessController struct{}

// NewUnixProcessController returns the Linux controller.
func NewUnixProcessController() *UnixProcessController {
	return &UnixProcessController{}
}

// ApplyPriority translates a governor priority level into a nice value
// and applies it to the process.
func (c *UnixProcessController) ApplyPriority(pid, level int) error {
	if err := unix.Setpriority(unix.PRIO_PROCESS, pid, NiceForLevel(level)); err != nil {
		return errors.WithFields(
			errors.Wrap(err, errors.CollaboratorUnavailable, "setpriority failed"),
			errors.Fields{"pid": pid, "level": level})
	}
	return nil
}

// BindToCore pins the process to a single CPU core.
func (c *UnixProcessController) BindToCore(pid, coreID int) error {
	var set unix.CPUSet
	set.Zero()
	set.Set(coreID)
	if err := unix.SchedSetaffinity(pid, &set); err != nil {
		return errors.WithFields(
			errors.Wrap(err, errors.CollaboratorUnavailable, "sched_setaffinity failed"),
			errors.Fields{"pid": pid, "core": coreID})
	}
	return nil
}
