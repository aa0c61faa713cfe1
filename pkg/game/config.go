package game

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dd0wney/cluso-netsim/pkg/engine"
	"github.com/dd0wney/cluso-netsim/pkg/resources"
	"github.com/dd0wney/cluso-netsim/pkg/threat"
	"github.com/dd0wney/cluso-netsim/pkg/validation"
)

// Config holds session tuning. Zero values fall back to DefaultConfig.
type Config struct {
	TopologyFile  string  `yaml:"topologyFile"`
	BalanceFile   string  `yaml:"balanceFile"`
	HighScoreFile string  `yaml:"highScoreFile"`
	CooldownScope string  `yaml:"cooldownScope" validate:"omitempty,oneof=faction shared"`
	Regen         int     `yaml:"regen" validate:"min=0,max=100"`
	SpawnChance   float64 `yaml:"spawnChance" validate:"min=0,max=1"`
	Seed          uint64  `yaml:"seed"`
	Ticks         Ticks   `yaml:"ticks"`
}

// Ticks are the periods of the session's timer categories.
type Ticks struct {
	Threat   time.Duration `yaml:"threat"`
	Duration time.Duration `yaml:"duration"`
	Regen    time.Duration `yaml:"regen"`
	Feedback time.Duration `yaml:"feedback"`
	Cleanup  time.Duration `yaml:"cleanup"`
	Ramp     time.Duration `yaml:"ramp"`
}

// DefaultConfig returns the reference tuning.
func DefaultConfig() Config {
	return Config{
		CooldownScope: string(engine.ScopeFaction),
		Regen:         resources.DefaultRegen,
		SpawnChance:   threat.DefaultSpawnChance,
		Ticks: Ticks{
			Threat:   time.Second,
			Duration: time.Second,
			Regen:    time.Second,
			Feedback: 100 * time.Millisecond,
			Cleanup:  30 * time.Second,
			Ramp:     30 * time.Millisecond,
		},
	}
}

// Environment variables that override file values.
const (
	EnvTopology      = "NETSIM_TOPOLOGY"
	EnvBalance       = "NETSIM_BALANCE"
	EnvHighScoreFile = "NETSIM_HIGHSCORE_FILE"
	EnvCooldownScope = "NETSIM_COOLDOWN_SCOPE"
	EnvRegen         = "NETSIM_REGEN"
	EnvSpawnChance   = "NETSIM_SPAWN_CHANCE"
	EnvSeed          = "NETSIM_SEED"
)

// LoadConfig reads path (if non-empty) over the defaults, applies NETSIM_*
// environment overrides and validates the result.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	cfg.fillDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ApplyEnv overrides fields from the environment. lookup is usually os.LookupEnv.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvTopology); ok {
		c.TopologyFile = v
	}
	if v, ok := lookup(EnvBalance); ok {
		c.BalanceFile = v
	}
	if v, ok := lookup(EnvHighScoreFile); ok {
		c.HighScoreFile = v
	}
	if v, ok := lookup(EnvCooldownScope); ok {
		c.CooldownScope = v
	}
	if v, ok := lookup(EnvRegen); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvRegen, err)
		}
		c.Regen = n
	}
	if v, ok := lookup(EnvSpawnChance); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvSpawnChance, err)
		}
		c.SpawnChance = f
	}
	if v, ok := lookup(EnvSeed); ok {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvSeed, err)
		}
		c.Seed = n
	}
	return nil
}

func (c *Config) fillDefaults() {
	d := DefaultConfig()
	c.CooldownScope = validation.DefaultOr(c.CooldownScope, d.CooldownScope)
	c.Ticks.Threat = validation.DefaultOr(c.Ticks.Threat, d.Ticks.Threat)
	c.Ticks.Duration = validation.DefaultOr(c.Ticks.Duration, d.Ticks.Duration)
	c.Ticks.Regen = validation.DefaultOr(c.Ticks.Regen, d.Ticks.Regen)
	c.Ticks.Feedback = validation.DefaultOr(c.Ticks.Feedback, d.Ticks.Feedback)
	c.Ticks.Cleanup = validation.DefaultOr(c.Ticks.Cleanup, d.Ticks.Cleanup)
	c.Ticks.Ramp = validation.DefaultOr(c.Ticks.Ramp, d.Ticks.Ramp)
}

// Validate checks struct tags and tick periods, reporting every problem at once.
func (c Config) Validate() error {
	if err := validation.Struct(c); err != nil {
		return fmt.Errorf("game config: %w", err)
	}
	return validation.NewConfigValidator("game config").
		OneOf("cooldownScope", c.CooldownScope, []string{string(engine.ScopeFaction), string(engine.ScopeShared)}).
		MinDuration("ticks.threat", c.Ticks.Threat, time.Millisecond).
		MinDuration("ticks.duration", c.Ticks.Duration, time.Millisecond).
		MinDuration("ticks.regen", c.Ticks.Regen, time.Millisecond).
		MinDuration("ticks.feedback", c.Ticks.Feedback, time.Millisecond).
		MinDuration("ticks.cleanup", c.Ticks.Cleanup, time.Millisecond).
		MinDuration("ticks.ramp", c.Ticks.Ramp, time.Millisecond).
		Validate()
}
