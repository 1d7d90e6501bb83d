// Package training turns a labelled cohort into a ModelSet: it validates
// and encodes the samples, rebalances classes, grid-searches a risk
// classifier and per-topic regressors with k-fold cross-validation and refits
// the winners on the full cohort.
package training

import (
	"fmt"

	"github.com/Veraticus/concord/internal/common"
	"github.com/Veraticus/concord/internal/ml"
)

// Grid lists the forest hyperparameters to search.
type Grid struct {
	Estimators      []int `mapstructure:"estimators"`
	MaxDepth        []int `mapstructure:"max_depth"`
	MinSamplesSplit []int `mapstructure:"min_samples_split"`
}

// params expands the grid into every combination in declaration order.
func (g Grid) params(seed uint64) []ml.ForestParams {
	var out []ml.ForestParams
	for _, n := range g.Estimators {
		for _, depth := range g.MaxDepth {
			for _, split := range g.MinSamplesSplit {
				out = append(out, ml.ForestParams{
					Estimators:      n,
					MaxDepth:        depth,
					MinSamplesSplit: split,
					Seed:            seed,
				})
			}
		}
	}
	return out
}

// Config holds pipeline configuration.
type Config struct {
	ClassifierGrid Grid `mapstructure:"classifier_grid"`
	RegressorGrid  Grid `mapstructure:"regressor_grid"`
	Folds          int  `mapstructure:"folds"`
	// RebalanceThreshold is the majority/minority class ratio above which
	// the cohort is rebalanced with SMOTE-Tomek.
	RebalanceThreshold float64 `mapstructure:"rebalance_threshold"`
	SMOTENeighbours    int     `mapstructure:"smote_neighbours"`
	// ImbalanceWarning is the class ratio above which validation warns.
	ImbalanceWarning float64 `mapstructure:"imbalance_warning"`
	// OutlierFeatures is how many leading features the IQR check inspects.
	OutlierFeatures int     `mapstructure:"outlier_features"`
	OutlierShare    float64 `mapstructure:"outlier_share"`
	Seed            uint64  `mapstructure:"seed"`
}

// DefaultConfig returns the default pipeline configuration.
func DefaultConfig() Config {
	grid := Grid{
		Estimators:      []int{100, 200},
		MaxDepth:        []int{10, 15, 0},
		MinSamplesSplit: []int{2, 5},
	}
	return Config{
		ClassifierGrid:     grid,
		RegressorGrid:      grid,
		Folds:              5,
		RebalanceThreshold: 1.5,
		SMOTENeighbours:    5,
		ImbalanceWarning:   5,
		OutlierFeatures:    10,
		OutlierShare:       0.05,
		Seed:               42,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.Folds < 2 {
		return fmt.Errorf("%w: folds must be at least 2, got %d", common.ErrInvalidConfig, c.Folds)
	}
	for name, g := range map[string]Grid{"classifier_grid": c.ClassifierGrid, "regressor_grid": c.RegressorGrid} {
		if len(g.Estimators) == 0 || len(g.MaxDepth) == 0 || len(g.MinSamplesSplit) == 0 {
			return fmt.Errorf("%w: %s has an empty axis", common.ErrInvalidConfig, name)
		}
		for _, n := range g.Estimators {
			if n < 1 {
				return fmt.Errorf("%w: %s estimators must be positive", common.ErrInvalidConfig, name)
			}
		}
	}
	if c.RebalanceThreshold < 1 {
		return fmt.Errorf("%w: rebalance_threshold must be at least 1", common.ErrInvalidConfig)
	}
	return nil
}
