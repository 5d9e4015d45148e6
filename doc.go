// Package schedgov is an adaptive scheduling governor: it continuously
// tunes process priorities and core bindings from live device metrics
// using a genetic search guided by Pareto frontiers, an iterative
// equilibrium solver, and a repeated cooperation game.
//
// Key Components:
//
//   - Core: shared value types (performance snapshots, parameter
//     vectors, scenes, the composite experience score) and the
//     collaborator contracts the governor depends on.
//
//   - Fitness: scores parameter vectors against snapshots with a
//     bounded content-hash cache and tunable blend weights.
//
//   - Evolution: population management, generation stepping with
//     elitism, and a bounded worker-pool fabric for batched fitness
//     evaluation.
//
//   - Pareto: non-dominated frontiers over scheduling outcomes and
//     scene-weighted optimum selection.
//
//   - Nash: a heuristic fixed-point solver over payoff matrices.
//
//   - Game: a repeated pairwise cooperation game whose dynamics feed
//     scheduling decisions.
//
//   - Adaptive: a sampling-rate controller that stretches the loop
//     under load and sheds fitness recomputations probabilistically.
//
//   - Orchestrator: the optimization loop tying everything together,
//     with fault backoff, convergence detection, and bounded history.
//
//   - Scheduler: the task registry, scene priority tables, and the
//     bridge translating optimization outcomes into directives.
//
//   - Platform: Linux bindings, with /proc and sysfs metrics plus
//     setpriority and sched_setaffinity control.
//
//   - Persistence: CSV and SQLite history stores.
//
// The cmd/schedgov daemon wires these together; each package is also
// usable on its own.
//
// For more information and examples, visit:
// https://github.com/schedgov/schedgov
package schedgov
