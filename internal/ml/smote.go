package ml

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"sort"
)

// ErrTooFewSamples is returned when a class has too few rows to interpolate.
var ErrTooFewSamples = errors.New("too few samples to oversample")

// Resampled is a rebalanced dataset. Origin maps each row back to its input
// row, or -1 for interpolated rows.
type Resampled struct {
	X      [][]float64
	Y      []int
	Origin []int
}

// SMOTETomek oversamples every class up to the majority count by
// interpolating between k nearest same-class neighbours, then removes both
// rows of every Tomek link (mutual nearest neighbours with different labels).
func SMOTETomek(x [][]float64, y []int, classes, k int, seed uint64) (Resampled, error) {
	if _, err := checkMatrix(x, len(y)); err != nil {
		return Resampled{}, err
	}
	if k < 1 {
		k = 1
	}

	byClass := make([][]int, classes)
	for i, label := range y {
		if label < 0 || label >= classes {
			return Resampled{}, fmt.Errorf("%w: row %d has label %d", ErrLabelOutOfRange, i, label)
		}
		byClass[label] = append(byClass[label], i)
	}
	majority := 0
	for _, rows := range byClass {
		majority = max(majority, len(rows))
	}

	out := Resampled{
		X:      append([][]float64(nil), x...),
		Y:      append([]int(nil), y...),
		Origin: make([]int, len(x)),
	}
	for i := range out.Origin {
		out.Origin[i] = i
	}

	rng := rand.New(rand.NewPCG(seed, seed^0x2545f4914f6cdd1d))
	for label, rows := range byClass {
		need := majority - len(rows)
		if len(rows) == 0 || need == 0 {
			continue
		}
		if len(rows) < 2 {
			return Resampled{}, fmt.Errorf("%w: class %d has %d row", ErrTooFewSamples, label, len(rows))
		}

		kk := min(k, len(rows)-1)
		neighbours := make(map[int][]int, len(rows))
		for _, i := range rows {
			neighbours[i] = nearest(x, i, rows, kk)
		}

		for s := 0; s < need; s++ {
			i := rows[rng.IntN(len(rows))]
			j := neighbours[i][rng.IntN(kk)]
			gap := rng.Float64()
			row := make([]float64, len(x[i]))
			for f := range row {
				row[f] = x[i][f] + gap*(x[j][f]-x[i][f])
			}
			out.X = append(out.X, row)
			out.Y = append(out.Y, label)
			out.Origin = append(out.Origin, -1)
		}
	}

	return removeTomekLinks(out), nil
}

func removeTomekLinks(r Resampled) Resampled {
	n := len(r.X)
	all := make([]int, n)
	for i := range all {
		all[i] = i
	}
	nn := make([]int, n)
	for i := range nn {
		nn[i] = nearest(r.X, i, all, 1)[0]
	}

	drop := make([]bool, n)
	for i, j := range nn {
		if nn[j] == i && r.Y[i] != r.Y[j] {
			drop[i], drop[j] = true, true
		}
	}

	kept := Resampled{}
	for i := 0; i < n; i++ {
		if drop[i] {
			continue
		}
		kept.X = append(kept.X, r.X[i])
		kept.Y = append(kept.Y, r.Y[i])
		kept.Origin = append(kept.Origin, r.Origin[i])
	}
	return kept
}

// nearest returns the k candidates closest to row i, excluding i itself.
// Distance ties are broken by index.
func nearest(x [][]float64, i int, candidates []int, k int) []int {
	type neighbour struct {
		idx  int
		dist float64
	}
	ns := make([]neighbour, 0, len(candidates))
	for _, j := range candidates {
		if j == i {
			continue
		}
		ns = append(ns, neighbour{idx: j, dist: squaredDistance(x[i], x[j])})
	}
	sort.Slice(ns, func(a, b int) bool {
		if ns[a].dist != ns[b].dist {
			return ns[a].dist < ns[b].dist
		}
		return ns[a].idx < ns[b].idx
	})

	out := make([]int, 0, k)
	for _, n := range ns[:min(k, len(ns))] {
		out = append(out, n.idx)
	}
	return out
}

func squaredDistance(a, b []float64) float64 {
	sum := 0.0
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	if math.IsNaN(sum) {
		return math.Inf(1)
	}
	return sum
}
