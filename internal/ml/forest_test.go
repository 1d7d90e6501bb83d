package ml

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clusters returns three well separated classes along feature 0 with a
// distinct nuisance value in feature 1.
func clusters() ([][]float64, []int) {
	var x [][]float64
	var y []int
	for i := 0; i < 60; i++ {
		class := i % 3
		x = append(x, []float64{float64(class*10) + float64(i%5)*0.2, float64(i%7) + float64(i)*0.01})
		y = append(y, class)
	}
	return x, y
}

func TestForestClassifier_Separable(t *testing.T) {
	x, y := clusters()
	f, err := FitForestClassifier(context.Background(), x, y, 3, ForestParams{Estimators: 25, MaxFeatures: 2, Seed: 1})
	require.NoError(t, err)
	assert.Len(t, f.Trees, 25)

	tests := []struct {
		point []float64
		want  int
	}{
		{[]float64{0.4, 3}, 0},
		{[]float64{10.4, 3}, 1},
		{[]float64{20.4, 3}, 2},
	}
	for _, tt := range tests {
		proba := f.PredictProba(tt.point)
		require.Len(t, proba, 3)
		assert.InDelta(t, 1.0, proba[0]+proba[1]+proba[2], 1e-9)
		assert.Equal(t, tt.want, f.Predict(tt.point))
	}

	predicted := make([]int, len(x))
	for i := range x {
		predicted[i] = f.Predict(x[i])
	}
	assert.Equal(t, 1.0, Accuracy(y, predicted))
}

func TestForestParams_Defaults(t *testing.T) {
	c := ForestParams{}.withDefaults(80, true)
	assert.Equal(t, 100, c.Estimators)
	assert.Equal(t, 2, c.MinSamplesSplit)
	assert.Equal(t, 8, c.MaxFeatures)

	r := ForestParams{}.withDefaults(2, false)
	assert.Equal(t, 2, r.MaxFeatures)
	assert.Equal(t, 80, ForestParams{}.withDefaults(80, false).MaxFeatures, "regressors split on every feature")
	assert.Equal(t, 5, ForestParams{MaxFeatures: 5}.withDefaults(80, false).MaxFeatures)
	assert.Equal(t, "trees=100 depth=none min_split=2 class_weight=none", r.String())
}

func TestForestClassifier_Deterministic(t *testing.T) {
	x, y := clusters()
	params := ForestParams{Estimators: 10, MaxDepth: 3, Seed: 9, ClassWeight: ClassWeight{Balanced: true}}

	a, err := FitForestClassifier(context.Background(), x, y, 3, params)
	require.NoError(t, err)
	b, err := FitForestClassifier(context.Background(), x, y, 3, params)
	require.NoError(t, err)

	assert.Equal(t, a.Trees, b.Trees)
	for i := range a.Trees {
		assert.LessOrEqual(t, a.Trees[i].Depth(), 3)
	}
}

func TestForestClassifier_Errors(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name    string
		x       [][]float64
		y       []int
		wantErr error
	}{
		{"empty", nil, nil, ErrEmptyDataset},
		{"row count", [][]float64{{1}, {2}}, []int{0}, ErrShapeMismatch},
		{"ragged", [][]float64{{1, 2}, {2}}, []int{0, 1}, ErrShapeMismatch},
		{"label", [][]float64{{1}, {2}}, []int{0, 3}, ErrLabelOutOfRange},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FitForestClassifier(ctx, tt.x, tt.y, 3, ForestParams{Estimators: 2})
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestForestClassifier_Canceled(t *testing.T) {
	x, y := clusters()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := FitForestClassifier(ctx, x, y, 3, ForestParams{Estimators: 5})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestForestRegressor_Linear(t *testing.T) {
	var x [][]float64
	var y []float64
	for i := 0; i < 100; i++ {
		v := float64(i) / 99
		x = append(x, []float64{v, 0.5})
		y = append(y, v)
	}

	f, err := FitForestRegressor(context.Background(), x, y, ForestParams{Estimators: 30, Seed: 3})
	require.NoError(t, err)
	for _, v := range []float64{0.1, 0.5, 0.9} {
		assert.InDelta(t, v, f.Predict([]float64{v, 0.5}), 0.08)
	}
}

func TestMultiOutputRegressor(t *testing.T) {
	var x, y [][]float64
	for i := 0; i < 80; i++ {
		v := float64(i) / 79
		x = append(x, []float64{v})
		y = append(y, []float64{v, 1 - v})
	}

	m, err := FitMultiOutput(context.Background(), x, y, ForestParams{Estimators: 20, Seed: 4})
	require.NoError(t, err)
	require.Len(t, m.Outputs, 2)

	out := m.Predict([]float64{0.25})
	require.Len(t, out, 2)
	assert.InDelta(t, 0.25, out[0], 0.08)
	assert.InDelta(t, 0.75, out[1], 0.08)

	_, err = FitMultiOutput(context.Background(), x, y[:10], ForestParams{})
	assert.ErrorIs(t, err, ErrShapeMismatch)
}

func TestTree_ConstantFeatureFallsThrough(t *testing.T) {
	// Feature 0 never varies, so every split must come from feature 1 even
	// though only one feature is sampled per node.
	x := [][]float64{{1, 0}, {1, 1}, {1, 2}, {1, 3}}
	y := []int{0, 0, 1, 1}
	f, err := FitForestClassifier(context.Background(), x, y, 2, ForestParams{Estimators: 8, MaxFeatures: 1, Seed: 2})
	require.NoError(t, err)
	assert.Equal(t, 0, f.Predict([]float64{1, 0}))
	assert.Equal(t, 1, f.Predict([]float64{1, 3}))
}
