// Package config loads and validates the governor's YAML configuration.
// Invalid values are clamped to safe defaults with a warning rather than
// rejected; a bad config file must never keep the governor from running.
package config

import (
	"context"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/schedgov/schedgov/pkg/errors"
	"github.com/schedgov/schedgov/pkg/logging"
)

// Duration wraps time.Duration so YAML files can say "30s" or "2m".
// Bare integers are treated as seconds.
type Duration time.Duration

// Std returns the standard library duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err == nil {
		parsed, perr := time.ParseDuration(s)
		if perr != nil {
			return perr
		}
		*d = Duration(parsed)
		return nil
	}
	var seconds int64
	if err := value.Decode(&seconds); err != nil {
		return err
	}
	*d = Duration(time.Duration(seconds) * time.Second)
	return nil
}

// Config is the complete governor configuration.
type Config struct {
	Engine    EngineConfig    `yaml:"engine" validate:"required"`
	CES       CESConfig       `yaml:"ces_calculator,omitempty"`
	Evolution EvolutionConfig `yaml:"evolution,omitempty"`
	Adaptive  AdaptiveConfig  `yaml:"adaptive_sampling,omitempty"`
	Fabric    FabricConfig    `yaml:"fabric,omitempty"`
	Logging   LoggingConfig   `yaml:"logging,omitempty"`
}

// EngineConfig holds top-level engine switches.
type EngineConfig struct {
	Enabled             bool     `yaml:"enabled"`
	SchedulingInterval  Duration `yaml:"scheduling_interval"`
	OptimizationEnabled bool     `yaml:"optimization_enabled"`
}

// CESConfig weights the composite experience score.
type CESConfig struct {
	ResponsivenessWeight float64 `yaml:"responsiveness_weight" validate:"gte=0,lte=1"`
	FluencyWeight        float64 `yaml:"fluency_weight" validate:"gte=0,lte=1"`
	EfficiencyWeight     float64 `yaml:"efficiency_weight" validate:"gte=0,lte=1"`
	ThermalWeight        float64 `yaml:"thermal_weight" validate:"gte=0,lte=1"`
}

// EvolutionConfig drives the genetic search.
type EvolutionConfig struct {
	Alpha                float64 `yaml:"alpha_weight" validate:"gte=0"`
	Beta                 float64 `yaml:"beta_weight" validate:"gte=0"`
	Gamma                float64 `yaml:"gamma_weight" validate:"gte=0"`
	PopulationSize       int     `yaml:"population_size" validate:"omitempty,min=2,max=1000"`
	MaxGenerations       int     `yaml:"max_generations" validate:"omitempty,min=1"`
	MutationRate         float64 `yaml:"mutation_rate" validate:"gte=0,lte=1"`
	CrossoverRate        float64 `yaml:"crossover_rate" validate:"gte=0,lte=1"`
	ConvergenceThreshold float64 `yaml:"convergence_threshold" validate:"gte=0"`
	CacheSize            int     `yaml:"fitness_cache_size" validate:"omitempty,min=1"`
}

// AdaptiveConfig bounds the sampling-rate controller.
type AdaptiveConfig struct {
	BaseInterval Duration `yaml:"base_sampling_interval"`
	MinInterval  Duration `yaml:"min_sampling_interval"`
	MaxInterval  Duration `yaml:"max_sampling_interval"`
}

// FabricConfig sizes the worker pool used for batched fitness evaluation.
type FabricConfig struct {
	PoolSize int `yaml:"pool_size" validate:"omitempty,min=1,max=64"`
}

// LoggingConfig selects log level and optional file sink.
type LoggingConfig struct {
	Level string `yaml:"level" validate:"omitempty,oneof=DEBUG INFO WARN ERROR FATAL"`
	File  string `yaml:"file,omitempty"`
}

// Default returns the configuration the governor runs with when no file
// is present.
func Default() *Config {
	return &Config{
		Engine: EngineConfig{
			Enabled:             true,
			SchedulingInterval:  Duration(5 * time.Second),
			OptimizationEnabled: true,
		},
		CES: CESConfig{
			ResponsivenessWeight: 0.3,
			FluencyWeight:        0.3,
			EfficiencyWeight:     0.2,
			ThermalWeight:        0.2,
		},
		Evolution: EvolutionConfig{
			Alpha:                0.4,
			Beta:                 0.3,
			Gamma:                0.3,
			PopulationSize:       50,
			MaxGenerations:       1000,
			MutationRate:         0.1,
			CrossoverRate:        0.8,
			ConvergenceThreshold: 1e-6,
			CacheSize:            100,
		},
		Adaptive: AdaptiveConfig{
			BaseInterval: Duration(30 * time.Second),
			MinInterval:  Duration(5 * time.Second),
			MaxInterval:  Duration(120 * time.Second),
		},
		Fabric: FabricConfig{
			PoolSize: 4,
		},
		Logging: LoggingConfig{
			Level: "INFO",
		},
	}
}

// Load reads a YAML config from path, merging it over defaults. A missing
// file yields the defaults; an unreadable or invalid one yields defaults
// plus a warning.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, errors.Wrap(err, errors.InvalidConfig, "config file unreadable")
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return Default(), errors.Wrap(err, errors.InvalidConfig, "config file malformed")
	}

	cfg.Sanitize()
	return cfg, nil
}

// Save writes the configuration as YAML.
func Save(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return errors.Wrap(err, errors.Unknown, "config marshal failed")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrap(err, errors.PersistenceFailed, "config write failed")
	}
	return nil
}

// Sanitize validates the configuration and clamps out-of-range fields back
// to their defaults, logging a warning for each repair.
func (c *Config) Sanitize() {
	logger := logging.GetLogger()
	ctx := context.Background()
	def := Default()

	validate := validator.New()
	if err := validate.Struct(c); err == nil {
		c.fillZeroes(def)
		return
	}

	if c.Evolution.PopulationSize < 2 || c.Evolution.PopulationSize > 1000 {
		logger.Warn(ctx, "population_size %d out of range, using %d",
			c.Evolution.PopulationSize, def.Evolution.PopulationSize)
		c.Evolution.PopulationSize = def.Evolution.PopulationSize
	}
	if c.Evolution.MutationRate < 0 || c.Evolution.MutationRate > 1 {
		logger.Warn(ctx, "mutation_rate %.3f out of range, using %.3f",
			c.Evolution.MutationRate, def.Evolution.MutationRate)
		c.Evolution.MutationRate = def.Evolution.MutationRate
	}
	if c.Evolution.CrossoverRate < 0 || c.Evolution.CrossoverRate > 1 {
		logger.Warn(ctx, "crossover_rate %.3f out of range, using %.3f",
			c.Evolution.CrossoverRate, def.Evolution.CrossoverRate)
		c.Evolution.CrossoverRate = def.Evolution.CrossoverRate
	}
	if c.Evolution.Alpha < 0 {
		logger.Warn(ctx, "alpha_weight %.3f negative, using %.3f", c.Evolution.Alpha, def.Evolution.Alpha)
		c.Evolution.Alpha = def.Evolution.Alpha
	}
	if c.Evolution.Beta < 0 {
		logger.Warn(ctx, "beta_weight %.3f negative, using %.3f", c.Evolution.Beta, def.Evolution.Beta)
		c.Evolution.Beta = def.Evolution.Beta
	}
	if c.Evolution.Gamma < 0 {
		logger.Warn(ctx, "gamma_weight %.3f negative, using %.3f", c.Evolution.Gamma, def.Evolution.Gamma)
		c.Evolution.Gamma = def.Evolution.Gamma
	}
	if c.Evolution.ConvergenceThreshold < 0 {
		c.Evolution.ConvergenceThreshold = def.Evolution.ConvergenceThreshold
	}
	if c.Fabric.PoolSize < 1 || c.Fabric.PoolSize > 64 {
		logger.Warn(ctx, "pool_size %d out of range, using %d", c.Fabric.PoolSize, def.Fabric.PoolSize)
		c.Fabric.PoolSize = def.Fabric.PoolSize
	}

	c.fillZeroes(def)
}

// fillZeroes replaces unset durations and sizes with defaults so a sparse
// YAML file still produces a runnable config.
func (c *Config) fillZeroes(def *Config) {
	if c.Engine.SchedulingInterval <= 0 {
		c.Engine.SchedulingInterval = def.Engine.SchedulingInterval
	}
	if c.Adaptive.BaseInterval <= 0 {
		c.Adaptive.BaseInterval = def.Adaptive.BaseInterval
	}
	if c.Adaptive.MinInterval <= 0 {
		c.Adaptive.MinInterval = def.Adaptive.MinInterval
	}
	if c.Adaptive.MaxInterval <= 0 {
		c.Adaptive.MaxInterval = def.Adaptive.MaxInterval
	}
	if c.Adaptive.MaxInterval < c.Adaptive.MinInterval {
		c.Adaptive.MinInterval, c.Adaptive.MaxInterval = c.Adaptive.MaxInterval, c.Adaptive.MinInterval
	}
	if c.Evolution.MaxGenerations <= 0 {
		c.Evolution.MaxGenerations = def.Evolution.MaxGenerations
	}
	if c.Evolution.CacheSize <= 0 {
		c.Evolution.CacheSize = def.Evolution.CacheSize
	}
	if c.Fabric.PoolSize <= 0 {
		c.Fabric.PoolSize = def.Fabric.PoolSize
	}
	if c.Logging.Level == "" {
		c.Logging.Level = def.Logging.Level
	}
}
