package ml

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSMOTETomek_Oversamples(t *testing.T) {
	var x [][]float64
	var y []int
	for i := 0; i < 10; i++ {
		x = append(x, []float64{float64(i % 3), float64(i / 3)})
		y = append(y, 0)
	}
	minority := [][]float64{{10, 10}, {11, 10}, {10, 11}, {11, 11}}
	for _, row := range minority {
		x = append(x, row)
		y = append(y, 1)
	}

	r, err := SMOTETomek(x, y, 2, 5, 7)
	require.NoError(t, err)
	require.Len(t, r.X, 20)
	require.Len(t, r.Y, 20)
	require.Len(t, r.Origin, 20)

	counts := map[int]int{}
	synthetic := 0
	for i, label := range r.Y {
		counts[label]++
		if r.Origin[i] < 0 {
			synthetic++
			assert.Equal(t, 1, label)
			assert.GreaterOrEqual(t, r.X[i][0], 10.0)
			assert.LessOrEqual(t, r.X[i][0], 11.0)
			assert.GreaterOrEqual(t, r.X[i][1], 10.0)
			assert.LessOrEqual(t, r.X[i][1], 11.0)
		} else {
			assert.Equal(t, y[r.Origin[i]], label)
		}
	}
	assert.Equal(t, map[int]int{0: 10, 1: 10}, counts)
	assert.Equal(t, 6, synthetic)
}

func TestSMOTETomek_RemovesTomekLinks(t *testing.T) {
	x := [][]float64{{0}, {1}, {2}, {2.1}, {5}, {5.5}}
	y := []int{0, 0, 0, 1, 1, 1}

	r, err := SMOTETomek(x, y, 2, 5, 1)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 4, 5}, r.Origin)
	assert.Equal(t, []int{0, 0, 1, 1}, r.Y)
}

func TestSMOTETomek_TooFewSamples(t *testing.T) {
	x := [][]float64{{0}, {1}, {2}, {9}}
	y := []int{0, 0, 0, 1}

	_, err := SMOTETomek(x, y, 2, 5, 1)
	assert.ErrorIs(t, err, ErrTooFewSamples)
}

func TestSMOTETomek_AbsentClassIgnored(t *testing.T) {
	x := [][]float64{{0}, {1}, {10}, {11}}
	y := []int{0, 0, 2, 2}

	r, err := SMOTETomek(x, y, 3, 5, 1)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2, 3}, r.Origin)
}
