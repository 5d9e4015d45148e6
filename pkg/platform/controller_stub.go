//go:build !linux

package platform

import (
	"context"

	"github.com/schedgov/schedgov/pkg/logging"
)

// UnixProcessController is a no-op outside Linux; the governor still
// runs its optimization loop, it just cannot move processes.
type UnixProcessController struct{}

// NewUnixProcessController returns the no-op controller.
func NewUnixProcessController() *UnixProcessController {
	logging.GetLogger().Warn(context.Background(),
		"process control unsupported on this platform, directives will be dropped")
	return &UnixProcessController{}
}

// ApplyPriority does nothing on this platform.
func (c *UnixProcessController) ApplyPriority(pid, level int) error {
	return nil
}

// BindToCore does nothing on this platform.
func (c *UnixProcessController) BindToCore(pid, coreID int) error {
	return nil
}
