// Package config loads simulation tuning parameters from a YAML file via
// viper, following the same load shape as the reinforcement-learning
// trainer's config loader this project is descended from.
package config

import (
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"trafficsim/internal/network"
	"trafficsim/internal/simulation"
)

// SimConfig is the on-disk shape of a simulation's tunable constants.
// Fields absent from the file keep simulation.DefaultConfig's values.
type SimConfig struct {
	TickDelta          float32 `mapstructure:"tickDelta" yaml:"tickDelta"`
	LaneDecisionPeriod uint32  `mapstructure:"laneDecisionPeriod" yaml:"laneDecisionPeriod"`
}

// FromYaml reads path (a YAML file) into a simulation.Config, applying
// simulation.DefaultConfig for any field left at its zero value.
func FromYaml(path string) (simulation.Config, error) {
	vp := viper.New()
	vp.SetConfigFile(filepath.Base(path))
	vp.SetConfigType("yaml")
	vp.AddConfigPath(filepath.Dir(path))
	if err := vp.ReadInConfig(); err != nil {
		return simulation.Config{}, err
	}

	raw := &SimConfig{}
	if err := vp.Unmarshal(raw); err != nil {
		return simulation.Config{}, err
	}

	// Re-marshal through yaml.v3 rather than trusting viper's mapstructure
	// decode directly: this keeps float32 fields (viper decodes numbers as
	// float64/int by default) going through the same strict path the
	// reinforcement trainer uses for its own nested config blocks.
	spec, err := yaml.Marshal(raw)
	if err != nil {
		return simulation.Config{}, err
	}
	final := &SimConfig{}
	if err := yaml.Unmarshal(spec, final); err != nil {
		return simulation.Config{}, err
	}

	cfg := simulation.Config{
		TickDelta:          final.TickDelta,
		LaneDecisionPeriod: final.LaneDecisionPeriod,
	}
	if cfg.TickDelta == 0 {
		cfg.TickDelta = simulation.DefaultConfig().TickDelta
	}
	if cfg.LaneDecisionPeriod == 0 {
		cfg.LaneDecisionPeriod = network.LaneDecisionPeriod
	}
	return cfg, nil
}
