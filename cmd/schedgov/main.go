// Command schedgov runs the adaptive scheduling governor as a daemon:
// it samples device load, evolves scheduling parameters, and applies
// priorities and core bindings until interrupted.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/schedgov/schedgov/pkg/adaptive"
	"github.com/schedgov/schedgov/pkg/config"
	"github.com/schedgov/schedgov/pkg/core"
	"github.com/schedgov/schedgov/pkg/evolution"
	"github.com/schedgov/schedgov/pkg/fitness"
	"github.com/schedgov/schedgov/pkg/game"
	"github.com/schedgov/schedgov/pkg/logging"
	"github.com/schedgov/schedgov/pkg/orchestrator"
	"github.com/schedgov/schedgov/pkg/persistence"
	"github.com/schedgov/schedgov/pkg/platform"
	"github.com/schedgov/schedgov/pkg/scheduler"
)

func main() {
	var (
		configPath  = flag.String("config", "schedgov.yaml", "path to the YAML configuration")
		historyPath = flag.String("history", "", "optimization history file (.csv or .db); empty disables persistence")
		taskSpec    = flag.String("tasks", "", "comma-separated tasks to govern, each pid:apptype[:fg]")
		statusEvery = flag.Duration("status-interval", 60*time.Second, "how often to log a status summary")
	)
	flag.Parse()

	if err := run(*configPath, *historyPath, *taskSpec, *statusEvery); err != nil {
		fmt.Fprintf(os.Stderr, "schedgov: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, historyPath, taskSpec string, statusEvery time.Duration) error {
	ctx := context.Background()

	cfg, err := config.Load(configPath)
	if err != nil {
		// Load already fell back to defaults; surface the problem and go on.
		fmt.Fprintf(os.Stderr, "schedgov: %v (continuing with defaults)\n", err)
	}
	setupLogging(cfg.Logging)
	logger := logging.GetLogger()

	if !cfg.Engine.Enabled {
		logger.Info(ctx, "governor disabled by configuration, exiting")
		return nil
	}

	store, err := openStore(historyPath)
	if err != nil {
		return err
	}
	if store != nil {
		defer store.Close()
	}

	registry := scheduler.NewRegistry()
	if err := registerTasks(registry, taskSpec); err != nil {
		return err
	}

	eval := fitness.NewEvaluator(cfg.Evolution.Alpha, cfg.Evolution.Beta, cfg.Evolution.Gamma, cfg.Evolution.CacheSize)
	evolver := evolution.NewEvolver(evolution.Config{
		PopulationSize: cfg.Evolution.PopulationSize,
		MaxGenerations: cfg.Evolution.MaxGenerations,
		MutationRate:   cfg.Evolution.MutationRate,
		CrossoverRate:  cfg.Evolution.CrossoverRate,
	}, eval, evolution.NewFabric(cfg.Fabric.PoolSize), time.Now().UnixNano())

	sim := game.NewSimulator(game.DefaultPayoffs())
	for id, strategy := range []game.Strategy{
		game.StrategyTitForTat,
		game.StrategyCooperate,
		game.StrategyGenerous,
		game.StrategyAdaptive,
	} {
		sim.AddPlayer(id+1, strategy)
	}

	weights := core.CESWeights{
		Responsiveness: cfg.CES.ResponsivenessWeight,
		Fluency:        cfg.CES.FluencyWeight,
		Efficiency:     cfg.CES.EfficiencyWeight,
		Thermal:        cfg.CES.ThermalWeight,
	}

	o := orchestrator.New(cfg, orchestrator.Components{
		Metrics:   platform.NewProcMetricsSource(weights),
		Scenes:    scheduler.NewRegistryScene(registry),
		Evolver:   evolver,
		Simulator: sim,
		Adaptive: adaptive.NewController(
			cfg.Adaptive.BaseInterval.Std(), cfg.Adaptive.MinInterval.Std(), cfg.Adaptive.MaxInterval.Std(),
			time.Now().UnixNano()),
		Bridge: scheduler.NewBridge(platform.NewUnixProcessController(), registry, runtime.NumCPU()),
		Store:  store,
	})

	if err := o.Start(ctx); err != nil {
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(statusEvery)
	defer ticker.Stop()

	for {
		select {
		case sig := <-sigCh:
			logger.Info(ctx, "received %v, shutting down", sig)
			o.Stop()
			return nil
		case <-ticker.C:
			st := o.Status()
			logger.Info(ctx,
				"status: gen=%d best=%.4f avg=%.4f diversity=%.4f scene=%s interval=%v cooperation=%.2f converged=%v",
				st.Generation, st.BestFitness, st.AverageFitness, st.Diversity,
				st.Scene, st.Interval, st.AverageCooperation, st.Converged)
		}
	}
}

// setupLogging installs the global logger from configuration. A bad file
// sink degrades to console-only logging.
func setupLogging(cfg config.LoggingConfig) {
	severity := logging.ParseSeverity(cfg.Level)
	outputs := []logging.Output{logging.NewConsoleOutput(true)}
	if cfg.File != "" {
		if out, err := logging.NewFileOutput(cfg.File); err == nil {
			outputs = append(outputs, out)
		} else {
			fmt.Fprintf(os.Stderr, "schedgov: log file unavailable: %v\n", err)
		}
	}
	logging.SetLogger(logging.NewLogger(logging.Config{
		Severity: severity,
		Outputs:  outputs,
	}))
}

// openStore picks a history backend by file extension.
func openStore(path string) (persistence.Store, error) {
	switch {
	case path == "":
		return nil, nil
	case strings.HasSuffix(path, ".db"), strings.HasSuffix(path, ".sqlite"):
		return persistence.NewSQLiteStore(path)
	default:
		return persistence.NewCSVStore(path), nil
	}
}

// registerTasks parses the -tasks flag: pid:apptype[:fg] entries joined
// by commas, e.g. "1234:game:fg,5678:social".
func registerTasks(registry *scheduler.Registry, spec string) error {
	if spec == "" {
		return nil
	}
	for _, entry := range strings.Split(spec, ",") {
		parts := strings.Split(strings.TrimSpace(entry), ":")
		if len(parts) < 2 {
			return fmt.Errorf("malformed task %q, want pid:apptype[:fg]", entry)
		}
		pid, err := strconv.Atoi(parts[0])
		if err != nil {
			return fmt.Errorf("malformed task pid %q: %w", parts[0], err)
		}
		registry.AddTask(scheduler.Task{
			PID:        pid,
			Name:       processName(pid),
			AppType:    parts[1],
			Foreground: len(parts) > 2 && parts[2] == "fg",
		})
	}
	return nil
}

// processName resolves a PID to its comm name, best effort.
func processName(pid int) string {
	procs, err := platform.ListProcesses()
	if err != nil {
		return ""
	}
	for _, p := range procs {
		if p.PID == pid {
			return p.Name
		}
	}
	return ""
}
