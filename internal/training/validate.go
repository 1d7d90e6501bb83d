package training

import (
	"fmt"
	"math"

	"github.com/montanaflynn/stats"

	"github.com/Veraticus/concord/internal/common"
)

// ValidateDataset checks an encoded training set. Structural problems are
// returned as a TrainingData error; anything merely suspicious is returned as
// a warning.
func ValidateDataset(x [][]float64, y []int, targets [][]float64, cfg Config) ([]string, error) {
	if len(x) == 0 || len(y) == 0 || len(targets) == 0 {
		return nil, common.TrainingData("training data is empty")
	}
	if len(x) != len(y) {
		return nil, common.TrainingData("feature matrix has %d rows but %d risk labels", len(x), len(y))
	}
	if len(x) != len(targets) {
		return nil, common.TrainingData("feature matrix has %d rows but %d topic targets", len(x), len(targets))
	}

	var nans, infs int
	for _, row := range x {
		for _, v := range row {
			switch {
			case math.IsNaN(v):
				nans++
			case math.IsInf(v, 0):
				infs++
			}
		}
	}
	if nans > 0 {
		return nil, common.TrainingData("found %d NaN values in feature matrix", nans)
	}
	if infs > 0 {
		return nil, common.TrainingData("found %d infinite values in feature matrix", infs)
	}

	var warnings []string

	counts := map[int]int{}
	for _, label := range y {
		counts[label]++
	}
	if len(counts) < 3 {
		warnings = append(warnings, fmt.Sprintf("only %d risk classes found (expected 3)", len(counts)))
	}
	if ratio := imbalance(counts); ratio > cfg.ImbalanceWarning {
		warnings = append(warnings, fmt.Sprintf("class imbalance ratio %.1f:1", ratio))
	}

	width := len(x[0])
	for f := 0; f < min(cfg.OutlierFeatures, width); f++ {
		column := make(stats.Float64Data, len(x))
		for i := range x {
			column[i] = x[i][f]
		}
		q, err := stats.Quartile(column)
		if err != nil {
			continue
		}
		iqr := q.Q3 - q.Q1
		if iqr <= 0 {
			continue
		}
		lo, hi := q.Q1-3*iqr, q.Q3+3*iqr
		outliers := 0
		for _, v := range column {
			if v < lo || v > hi {
				outliers++
			}
		}
		if float64(outliers) > float64(len(x))*cfg.OutlierShare {
			warnings = append(warnings, fmt.Sprintf("feature %d has %d potential outliers (%.1f%%)",
				f, outliers, 100*float64(outliers)/float64(len(x))))
		}
	}

	return warnings, nil
}

// imbalance returns the majority/minority class ratio.
func imbalance(counts map[int]int) float64 {
	lo, hi := math.MaxInt, 0
	for _, c := range counts {
		lo = min(lo, c)
		hi = max(hi, c)
	}
	if lo == 0 || lo == math.MaxInt {
		return math.Inf(1)
	}
	return float64(hi) / float64(lo)
}
