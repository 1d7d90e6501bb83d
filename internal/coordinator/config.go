// Package coordinator owns concord's runtime state: the active model
// snapshot, the single training slot and the analysis entry point shared by
// the HTTP API and the CLI.
package coordinator

import (
	"fmt"

	"github.com/Veraticus/concord/internal/common"
	"github.com/Veraticus/concord/internal/engine"
	"github.com/Veraticus/concord/internal/synth"
	"github.com/Veraticus/concord/internal/training"
)

// Config holds coordinator configuration.
type Config struct {
	Synthetic synth.Config        `mapstructure:"synthetic"`
	Retry     common.RetryOptions `mapstructure:"retry"`
	Training  training.Config     `mapstructure:"training"`
	Engine    engine.Config       `mapstructure:"engine"`
	// SyntheticCount is how many synthetic couples join the real cohort.
	SyntheticCount int `mapstructure:"synthetic_count"`
	// TopUpCount is how many class-targeted couples are added for each
	// class missing from the combined cohort.
	TopUpCount int `mapstructure:"top_up_count"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Training:       training.DefaultConfig(),
		Synthetic:      synth.DefaultConfig(),
		Engine:         engine.DefaultConfig(),
		SyntheticCount: 500,
		TopUpCount:     10,
		Retry:          common.DefaultRetryOptions(),
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if err := c.Training.Validate(); err != nil {
		return err
	}
	if err := c.Synthetic.Validate(); err != nil {
		return err
	}
	if c.SyntheticCount < 0 || c.TopUpCount < 0 {
		return fmt.Errorf("%w: synthetic_count and top_up_count must not be negative", common.ErrInvalidConfig)
	}
	if c.Engine.ModeratePriority > c.Engine.HighPriority {
		return fmt.Errorf("%w: moderate priority threshold %.2f is above high %.2f",
			common.ErrInvalidConfig, c.Engine.ModeratePriority, c.Engine.HighPriority)
	}
	return nil
}
