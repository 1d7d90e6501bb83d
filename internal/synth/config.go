// Package synth generates plausible synthetic couples to fill out and balance
// a training cohort, optionally conditioned on a real cohort.
package synth

import (
	"fmt"

	"github.com/Veraticus/concord/internal/common"
	"github.com/Veraticus/concord/internal/model"
)

// Distribution is the target share of each risk class.
type Distribution struct {
	Low    float64 `mapstructure:"low" json:"low"`
	Medium float64 `mapstructure:"medium" json:"medium"`
	High   float64 `mapstructure:"high" json:"high"`
}

func (d Distribution) share(label model.RiskLabel) float64 {
	switch label {
	case model.RiskLow:
		return d.Low
	case model.RiskMedium:
		return d.Medium
	default:
		return d.High
	}
}

func (d Distribution) total() float64 {
	return d.Low + d.Medium + d.High
}

// Config tunes the generator.
type Config struct {
	Distribution Distribution `mapstructure:"distribution"`
	// ScaleFactor converts a topic's disagree share into a topic score
	// for unconditioned couples.
	ScaleFactor float64 `mapstructure:"scale_factor"`
	// ConditionedScaleFactor is the same conversion when a reference cohort is supplied.
	ConditionedScaleFactor float64 `mapstructure:"conditioned_scale_factor"`
	AgreeShare             float64 `mapstructure:"agree_share"`
	BlendShare             float64 `mapstructure:"blend_share"`
	PerturbOne             float64 `mapstructure:"perturb_one"`
	PerturbTwo             float64 `mapstructure:"perturb_two"`
	MaxAttempts            int     `mapstructure:"max_attempts"`
	// Seed fixes the random stream. Zero draws a random seed.
	Seed uint64 `mapstructure:"seed"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Distribution:           Distribution{Low: 0.33, Medium: 0.34, High: 0.33},
		ScaleFactor:            2.0,
		ConditionedScaleFactor: 2.5,
		AgreeShare:             0.6,
		BlendShare:             0.3,
		PerturbOne:             0.3,
		PerturbTwo:             0.1,
		MaxAttempts:            25,
	}
}

// Validate checks that every probability is usable.
func (c Config) Validate() error {
	if c.Distribution.Low < 0 || c.Distribution.Medium < 0 || c.Distribution.High < 0 || c.Distribution.total() <= 0 {
		return fmt.Errorf("%w: class distribution %+v", common.ErrInvalidConfig, c.Distribution)
	}
	for name, p := range map[string]float64{
		"agree_share": c.AgreeShare,
		"blend_share": c.BlendShare,
		"perturb_one": c.PerturbOne,
		"perturb_two": c.PerturbTwo,
	} {
		if p < 0 || p > 1 {
			return fmt.Errorf("%w: %s must be within [0,1], got %v", common.ErrInvalidConfig, name, p)
		}
	}
	if c.ScaleFactor <= 0 || c.ConditionedScaleFactor <= 0 {
		return fmt.Errorf("%w: scale factors must be positive", common.ErrInvalidConfig)
	}
	if c.MaxAttempts < 1 {
		return fmt.Errorf("%w: max_attempts must be at least 1", common.ErrInvalidConfig)
	}
	return nil
}
