// Package platform binds the governor to Linux: performance snapshots
// sourced from /proc and sysfs, and scheduling control through
// setpriority and sched_setaffinity. Every probe degrades gracefully so
// a restricted environment yields zeroed readings instead of errors.
package platform

import (
	"bufio"
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/schedgov/schedgov/pkg/core"
	"github.com/schedgov/schedgov/pkg/logging"
)

// ProcMetricsSource samples device state from /proc and sysfs. CPU usage
// is computed from the delta between consecutive samples, so the first
// snapshot reports zero CPU.
type ProcMetricsSource struct {
	mu sync.Mutex

	procRoot string
	sysRoot  string
	weights  core.CESWeights

	prevIdle  uint64
	prevTotal uint64
	primed    bool
}

// NewProcMetricsSource creates a source reading from the real /proc and
// /sys trees, scoring CES with the given weights.
func NewProcMetricsSource(weights core.CESWeights) *ProcMetricsSource {
	return &ProcMetricsSource{
		procRoot: "/proc",
		sysRoot:  "/sys",
		weights:  weights,
	}
}

// Snapshot samples the device and derives the experience scores.
func (s *ProcMetricsSource) Snapshot() (core.PerformanceSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	logger := logging.GetLogger()
	ctx := context.Background()

	snap := core.PerformanceSnapshot{Timestamp: time.Now()}

	cpu, err := s.sampleCPU()
	if err != nil {
		logger.Debug(ctx, "cpu sample unavailable: %v", err)
	}
	snap.CPUUsage = cpu

	mem, err := s.sampleMemory()
	if err != nil {
		logger.Debug(ctx, "memory sample unavailable: %v", err)
	}
	snap.MemoryUsage = mem

	snap.ThermalScore = s.sampleThermal()
	snap.BatteryLevel = s.sampleBattery()

	// Experience scores are derived from load; a saturated device is
	// neither responsive nor fluent.
	snap.Responsiveness = clampScore(100 - snap.CPUUsage)
	snap.Fluency = clampScore(100 - 0.5*snap.CPUUsage - 0.5*snap.MemoryUsage)
	snap.Efficiency = clampScore(100 - snap.MemoryUsage)
	snap.CES = core.ComputeCES(snap, s.weights)

	return snap, nil
}

// sampleCPU reads the aggregate cpu line from /proc/stat and returns the
// busy percentage since the previous sample.
func (s *ProcMetricsSource) sampleCPU() (float64, error) {
	data, err := os.ReadFile(filepath.Join(s.procRoot, "stat"))
	if err != nil {
		return 0, err
	}

	idle, total, err := parseCPUStat(data)
	if err != nil {
		return 0, err
	}

	defer func() {
		s.prevIdle, s.prevTotal = idle, total
		s.primed = true
	}()

	if !s.primed || total <= s.prevTotal {
		return 0, nil
	}
	dTotal := float64(total - s.prevTotal)
	dIdle := float64(idle - s.prevIdle)
	return clampScore((dTotal - dIdle) / dTotal * 100), nil
}

// sampleMemory derives used-memory percentage from /proc/meminfo.
func (s *ProcMetricsSource) sampleMemory() (float64, error) {
	data, err := os.ReadFile(filepath.Join(s.procRoot, "meminfo"))
	if err != nil {
		return 0, err
	}
	return parseMemInfo(data)
}

// sampleThermal reads thermal zone 0 in millidegrees Celsius and maps it
// to a 0-100 score. Missing sensors score zero.
func (s *ProcMetricsSource) sampleThermal() float64 {
	data, err := os.ReadFile(filepath.Join(s.sysRoot, "class/thermal/thermal_zone0/temp"))
	if err != nil {
		return 0
	}
	milli, err := strconv.ParseFloat(strings.TrimSpace(string(data)), 64)
	if err != nil {
		return 0
	}
	return clampScore(milli / 1000)
}

// sampleBattery reads the first battery's capacity percentage. Devices
// without a battery report full.
func (s *ProcMetricsSource) sampleBattery() float64 {
	data, err := os.ReadFile(filepath.Join(s.sysRoot, "class/power_supply/BAT0/capacity"))
	if err != nil {
		return 100
	}
	level, err := strconv.ParseFloat(strings.TrimSpace(string(data)), 64)
	if err != nil {
		return 100
	}
	return clampScore(level)
}

// parseCPUStat extracts idle and total jiffies from the aggregate cpu
// line of /proc/stat.
func parseCPUStat(data []byte) (idle, total uint64, err error) {
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 5 || fields[0] != "cpu" {
			continue
		}
		for i, f := range fields[1:] {
			v, perr := strconv.ParseUint(f, 10, 64)
			if perr != nil {
				return 0, 0, perr
			}
			total += v
			// Fields: user nice system idle iowait ...
			if i == 3 || i == 4 {
				idle += v
			}
		}
		return idle, total, nil
	}
	return 0, 0, os.ErrNotExist
}

// parseMemInfo computes used-memory percentage from MemTotal and
// MemAvailable.
func parseMemInfo(data []byte) (float64, error) {
	var memTotal, memAvailable uint64
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 2 {
			continue
		}
		v, err := strconv.ParseUint(fields[1], 10, 64)
		if err != nil {
			continue
		}
		switch fields[0] {
		case "MemTotal:":
			memTotal = v
		case "MemAvailable:":
			memAvailable = v
		}
	}
	if memTotal == 0 {
		return 0, os.ErrNotExist
	}
	used := float64(memTotal-memAvailable) / float64(memTotal) * 100
	return clampScore(used), nil
}

func clampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
