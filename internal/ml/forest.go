package ml

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Fit errors.
var (
	ErrEmptyDataset    = errors.New("empty dataset")
	ErrShapeMismatch   = errors.New("shape mismatch")
	ErrLabelOutOfRange = errors.New("label out of range")
)

// ClassWeight selects per-class sample weights for a classifier.
type ClassWeight struct {
	Fixed    []float64 `json:"fixed,omitempty"`
	Balanced bool      `json:"balanced,omitempty"`
}

func (c ClassWeight) String() string {
	switch {
	case c.Balanced:
		return "balanced"
	case c.Fixed != nil:
		return fmt.Sprintf("fixed%v", c.Fixed)
	default:
		return "none"
	}
}

func (c ClassWeight) resolve(y []int, classes int) []float64 {
	switch {
	case c.Balanced:
		return BalancedClassWeights(y, classes)
	case len(c.Fixed) == classes:
		return c.Fixed
	default:
		w := make([]float64, classes)
		for i := range w {
			w[i] = 1
		}
		return w
	}
}

// ForestParams are the hyperparameters of a random forest.
type ForestParams struct {
	ClassWeight     ClassWeight `json:"class_weight"`
	Estimators      int         `json:"n_estimators"`
	MaxDepth        int         `json:"max_depth"`
	MinSamplesSplit int         `json:"min_samples_split"`
	MaxFeatures     int         `json:"max_features"`
	Seed            uint64      `json:"seed"`
}

func (p ForestParams) String() string {
	depth := "none"
	if p.MaxDepth > 0 {
		depth = fmt.Sprint(p.MaxDepth)
	}
	return fmt.Sprintf("trees=%d depth=%s min_split=%d class_weight=%s",
		p.Estimators, depth, p.MinSamplesSplit, p.ClassWeight)
}

func (p ForestParams) withDefaults(width int, classifier bool) ForestParams {
	if p.Estimators <= 0 {
		p.Estimators = 100
	}
	if p.MinSamplesSplit < 2 {
		p.MinSamplesSplit = 2
	}
	if p.MaxFeatures <= 0 {
		// Regressors consider every feature at each split.
		p.MaxFeatures = width
		if classifier {
			p.MaxFeatures = int(math.Sqrt(float64(width)))
		}
		p.MaxFeatures = max(1, p.MaxFeatures)
	}
	return p
}

// ForestClassifier is a bagged ensemble of Gini trees.
type ForestClassifier struct {
	Trees   []Tree       `json:"trees"`
	Params  ForestParams `json:"params"`
	Classes int          `json:"classes"`
	Width   int          `json:"width"`
}

// FitForestClassifier fits a forest on rows x with labels y in [0, classes).
func FitForestClassifier(ctx context.Context, x [][]float64, y []int, classes int, params ForestParams) (*ForestClassifier, error) {
	width, err := checkMatrix(x, len(y))
	if err != nil {
		return nil, err
	}
	for i, label := range y {
		if label < 0 || label >= classes {
			return nil, fmt.Errorf("%w: row %d has label %d with %d classes", ErrLabelOutOfRange, i, label, classes)
		}
	}

	params = params.withDefaults(width, true)
	classWeights := params.ClassWeight.resolve(y, classes)

	trees, err := fitTrees(ctx, params, len(x), func(rng *rand.Rand, counts []int) Tree {
		idx, weights := bootstrapWeights(counts, func(i int) float64 { return classWeights[y[i]] })
		b := newBuilder(x, weights, treeConfig{params.MaxDepth, params.MinSamplesSplit, params.MaxFeatures}, rng)
		b.labels = y
		b.classes = classes
		return b.grow(idx)
	})
	if err != nil {
		return nil, err
	}

	return &ForestClassifier{Trees: trees, Params: params, Classes: classes, Width: width}, nil
}

// PredictProba averages the leaf class distributions across trees.
func (f *ForestClassifier) PredictProba(x []float64) []float64 {
	proba := make([]float64, f.Classes)
	for i := range f.Trees {
		for c, p := range f.Trees[i].Leaf(x) {
			proba[c] += p
		}
	}
	for c := range proba {
		proba[c] /= float64(len(f.Trees))
	}
	return proba
}

// Predict returns the most probable class; ties go to the lower class.
func (f *ForestClassifier) Predict(x []float64) int {
	return argmax(f.PredictProba(x))
}

// ForestRegressor is a bagged ensemble of squared-error trees with one output.
type ForestRegressor struct {
	Trees  []Tree       `json:"trees"`
	Params ForestParams `json:"params"`
	Width  int          `json:"width"`
}

// FitForestRegressor fits a forest on rows x with targets y.
func FitForestRegressor(ctx context.Context, x [][]float64, y []float64, params ForestParams) (*ForestRegressor, error) {
	width, err := checkMatrix(x, len(y))
	if err != nil {
		return nil, err
	}

	params = params.withDefaults(width, false)
	trees, err := fitTrees(ctx, params, len(x), func(rng *rand.Rand, counts []int) Tree {
		idx, weights := bootstrapWeights(counts, func(int) float64 { return 1 })
		b := newBuilder(x, weights, treeConfig{params.MaxDepth, params.MinSamplesSplit, params.MaxFeatures}, rng)
		b.targets = y
		return b.grow(idx)
	})
	if err != nil {
		return nil, err
	}

	return &ForestRegressor{Trees: trees, Params: params, Width: width}, nil
}

// Predict averages the tree predictions.
func (f *ForestRegressor) Predict(x []float64) float64 {
	sum := 0.0
	for i := range f.Trees {
		sum += f.Trees[i].Leaf(x)[0]
	}
	return sum / float64(len(f.Trees))
}

// MultiOutputRegressor fits one independent forest per output column.
type MultiOutputRegressor struct {
	Outputs []*ForestRegressor `json:"outputs"`
}

// FitMultiOutput fits a forest per column of the n-by-k target matrix y.
func FitMultiOutput(ctx context.Context, x [][]float64, y [][]float64, params ForestParams) (*MultiOutputRegressor, error) {
	if _, err := checkMatrix(x, len(y)); err != nil {
		return nil, err
	}
	outputs, err := checkMatrix(y, len(x))
	if err != nil {
		return nil, fmt.Errorf("targets: %w", err)
	}

	m := &MultiOutputRegressor{Outputs: make([]*ForestRegressor, outputs)}
	column := make([]float64, len(y))
	for k := 0; k < outputs; k++ {
		for i := range y {
			column[i] = y[i][k]
		}
		p := params
		p.Seed = mix(params.Seed, uint64(k)+1)
		forest, err := FitForestRegressor(ctx, x, append([]float64(nil), column...), p)
		if err != nil {
			return nil, fmt.Errorf("output %d: %w", k, err)
		}
		m.Outputs[k] = forest
	}
	return m, nil
}

// Predict returns one prediction per output.
func (m *MultiOutputRegressor) Predict(x []float64) []float64 {
	out := make([]float64, len(m.Outputs))
	for k, forest := range m.Outputs {
		out[k] = forest.Predict(x)
	}
	return out
}

// fitTrees grows params.Estimators trees in parallel. Each tree gets its own
// random stream derived from params.Seed so results do not depend on scheduling.
func fitTrees(ctx context.Context, params ForestParams, n int, grow func(*rand.Rand, []int) Tree) ([]Tree, error) {
	trees := make([]Tree, params.Estimators)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for t := range trees {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			seed := mix(params.Seed, uint64(t))
			rng := rand.New(rand.NewPCG(seed, seed>>1|1))
			counts := make([]int, n)
			for i := 0; i < n; i++ {
				counts[rng.IntN(n)]++
			}
			trees[t] = grow(rng, counts)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return trees, nil
}

// bootstrapWeights turns bootstrap draw counts into the drawn rows and their
// sample weights.
func bootstrapWeights(counts []int, classWeight func(int) float64) ([]int, []float64) {
	weights := make([]float64, len(counts))
	idx := make([]int, 0, len(counts))
	for i, c := range counts {
		if c == 0 {
			continue
		}
		weights[i] = float64(c) * classWeight(i)
		idx = append(idx, i)
	}
	return idx, weights
}

func checkMatrix(x [][]float64, rows int) (int, error) {
	if len(x) == 0 {
		return 0, ErrEmptyDataset
	}
	if len(x) != rows {
		return 0, fmt.Errorf("%w: %d rows but %d targets", ErrShapeMismatch, len(x), rows)
	}
	width := len(x[0])
	if width == 0 {
		return 0, fmt.Errorf("%w: rows have no columns", ErrShapeMismatch)
	}
	for i, row := range x {
		if len(row) != width {
			return 0, fmt.Errorf("%w: row %d has %d columns, expected %d", ErrShapeMismatch, i, len(row), width)
		}
	}
	return width, nil
}

func argmax(v []float64) int {
	best := 0
	for i := 1; i < len(v); i++ {
		if v[i] > v[best] {
			best = i
		}
	}
	return best
}

// mix derives an independent 64-bit seed from seed and i (splitmix64).
func mix(seed, i uint64) uint64 {
	z := seed + (i+1)*0x9e3779b97f4a7c15
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}
