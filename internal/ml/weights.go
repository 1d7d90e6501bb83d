package ml

import (
	"fmt"
	"slices"
)

// BalancedClassWeights returns n / (present * count_c) for each class present
// in y and 0 for absent classes.
func BalancedClassWeights(y []int, classes int) []float64 {
	counts := make([]int, classes)
	for _, label := range y {
		if label >= 0 && label < classes {
			counts[label]++
		}
	}
	present := 0
	for _, c := range counts {
		if c > 0 {
			present++
		}
	}

	weights := make([]float64, classes)
	if present == 0 {
		return weights
	}
	for label, c := range counts {
		if c > 0 {
			weights[label] = float64(len(y)) / float64(present*c)
		}
	}
	return weights
}

// LabelEncoder maps arbitrary integer labels onto 0..len(Classes)-1 in
// ascending order.
type LabelEncoder struct {
	Classes []int `json:"classes"`
}

// FitLabelEncoder collects the distinct labels of y.
func FitLabelEncoder(y []int) LabelEncoder {
	classes := slices.Clone(y)
	slices.Sort(classes)
	return LabelEncoder{Classes: slices.Compact(classes)}
}

// Transform encodes labels. Unknown labels are an error.
func (e LabelEncoder) Transform(y []int) ([]int, error) {
	out := make([]int, len(y))
	for i, label := range y {
		idx, ok := slices.BinarySearch(e.Classes, label)
		if !ok {
			return nil, fmt.Errorf("%w: unseen label %d", ErrLabelOutOfRange, label)
		}
		out[i] = idx
	}
	return out, nil
}

// Inverse decodes one encoded label.
func (e LabelEncoder) Inverse(idx int) int {
	return e.Classes[idx]
}
