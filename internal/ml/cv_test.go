package ml

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertPartition(t *testing.T, folds []Fold, n int) {
	t.Helper()
	seen := make([]int, n)
	for _, f := range folds {
		assert.Len(t, f.Train, n-len(f.Test))
		for _, i := range f.Test {
			seen[i]++
			assert.NotContains(t, f.Train, i)
		}
	}
	for i, c := range seen {
		assert.Equal(t, 1, c, "row %d must be tested exactly once", i)
	}
}

func TestKFold(t *testing.T) {
	folds, err := KFold(10, 3, 1)
	require.NoError(t, err)
	require.Len(t, folds, 3)
	assert.Len(t, folds[0].Test, 4)
	assert.Len(t, folds[1].Test, 3)
	assert.Len(t, folds[2].Test, 3)
	assertPartition(t, folds, 10)

	_, err = KFold(2, 3, 1)
	assert.Error(t, err)
	_, err = KFold(10, 1, 1)
	assert.Error(t, err)
}

func TestStratifiedKFold(t *testing.T) {
	var y []int
	for i := 0; i < 30; i++ {
		y = append(y, 0)
	}
	for i := 0; i < 15; i++ {
		y = append(y, 1)
	}
	for i := 0; i < 6; i++ {
		y = append(y, 2)
	}

	folds, err := StratifiedKFold(y, 3, 11)
	require.NoError(t, err)
	require.Len(t, folds, 3)
	assertPartition(t, folds, len(y))

	for _, f := range folds {
		counts := map[int]int{}
		for _, i := range f.Test {
			counts[y[i]]++
		}
		assert.Equal(t, map[int]int{0: 10, 1: 5, 2: 2}, counts)
	}

	again, err := StratifiedKFold(y, 3, 11)
	require.NoError(t, err)
	assert.Equal(t, folds, again)
}

func TestGridSearch(t *testing.T) {
	folds, err := KFold(6, 3, 1)
	require.NoError(t, err)

	candidates := []float64{0.5, 0.9, 0.9, 0.1}
	res, err := GridSearch(context.Background(), candidates, folds, func(_ context.Context, c float64, _ Fold) (float64, error) {
		return c, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Index, "ties keep the earlier candidate")
	assert.InDelta(t, 0.9, res.Mean, 1e-12)
	assert.InDelta(t, 0, res.Std, 1e-12)
	assert.Len(t, res.Scores, 3)
}

func TestGridSearch_Error(t *testing.T) {
	folds, err := KFold(4, 2, 1)
	require.NoError(t, err)
	boom := errors.New("boom")

	_, err = GridSearch(context.Background(), []int{1, 2}, folds, func(_ context.Context, c int, _ Fold) (float64, error) {
		if c == 2 {
			return 0, boom
		}
		return 1, nil
	})
	assert.ErrorIs(t, err, boom)

	_, err = GridSearch(context.Background(), []int{}, folds, func(context.Context, int, Fold) (float64, error) { return 0, nil })
	assert.ErrorIs(t, err, ErrEmptyDataset)
}

func TestMetrics(t *testing.T) {
	assert.InDelta(t, 0.75, Accuracy([]int{0, 1, 2, 2}, []int{0, 1, 2, 0}), 1e-12)
	assert.Zero(t, Accuracy(nil, nil))
	assert.InDelta(t, 0.125, MeanSquaredError([][]float64{{0, 1}, {1, 1}}, [][]float64{{0.5, 1}, {1, 1}}), 1e-12)

	m, s := MeanStd([]float64{1, 3})
	assert.InDelta(t, 2, m, 1e-12)
	assert.InDelta(t, 1, s, 1e-12)

	assert.Equal(t, []string{"c", "a"}, Rows([]string{"a", "b", "c"}, []int{2, 0}))
}

func TestBalancedClassWeights(t *testing.T) {
	w := BalancedClassWeights([]int{0, 0, 0, 1}, 3)
	assert.InDelta(t, 4.0/6, w[0], 1e-12)
	assert.InDelta(t, 2.0, w[1], 1e-12)
	assert.Zero(t, w[2])

	assert.Equal(t, []float64{0, 0}, BalancedClassWeights(nil, 2))
}

func TestLabelEncoder(t *testing.T) {
	enc := FitLabelEncoder([]int{2, 0, 2, 1})
	assert.Equal(t, []int{0, 1, 2}, enc.Classes)

	sparse := FitLabelEncoder([]int{2, 0, 2})
	got, err := sparse.Transform([]int{2, 0})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 0}, got)
	assert.Equal(t, 2, sparse.Inverse(1))

	_, err = sparse.Transform([]int{1})
	assert.ErrorIs(t, err, ErrLabelOutOfRange)
	assert.True(t, slices.IsSorted(enc.Classes))
}
