package engine

import (
	"github.com/Veraticus/concord/internal/features"
	"github.com/Veraticus/concord/internal/model"
)

// Snapshot is the trained model set the engine consults. Implementations must
// be safe for concurrent use and must not change once published.
type Snapshot interface {
	Layout() features.Layout
	PredictRisk(v features.Vector) (model.RiskLabel, []float64, error)
	PredictTopics(v features.Vector) ([]float64, error)
}
