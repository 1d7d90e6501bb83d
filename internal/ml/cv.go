package ml

import (
	"context"
	"fmt"
	"math/rand/v2"
	"runtime"
	"slices"

	"github.com/montanaflynn/stats"
	"golang.org/x/sync/errgroup"
)

// Fold is one train/test split of row indices.
type Fold struct {
	Train []int
	Test  []int
}

// KFold shuffles n rows with seed and splits them into k folds. The first
// n%k folds get one extra test row.
func KFold(n, k int, seed uint64) ([]Fold, error) {
	if k < 2 || k > n {
		return nil, fmt.Errorf("%w: cannot split %d rows into %d folds", ErrShapeMismatch, n, k)
	}
	perm := shuffled(n, seed)

	folds := make([]Fold, k)
	start := 0
	for f := range folds {
		size := n / k
		if f < n%k {
			size++
		}
		folds[f] = split(perm, start, start+size)
		start += size
	}
	return folds, nil
}

// StratifiedKFold splits rows into k folds that preserve class proportions.
// Rows of each class are shuffled and dealt round-robin, continuing the deal
// across classes so fold sizes stay balanced.
func StratifiedKFold(y []int, k int, seed uint64) ([]Fold, error) {
	n := len(y)
	if k < 2 || k > n {
		return nil, fmt.Errorf("%w: cannot split %d rows into %d folds", ErrShapeMismatch, n, k)
	}

	byClass := map[int][]int{}
	classes := []int{}
	for i, label := range y {
		if _, ok := byClass[label]; !ok {
			classes = append(classes, label)
		}
		byClass[label] = append(byClass[label], i)
	}
	slices.Sort(classes)

	rng := rand.New(rand.NewPCG(seed, seed^0xda3e39cb94b95bdb))
	assign := make([]int, n)
	offset := 0
	for _, c := range classes {
		rows := byClass[c]
		rng.Shuffle(len(rows), func(i, j int) { rows[i], rows[j] = rows[j], rows[i] })
		for j, row := range rows {
			assign[row] = (offset + j) % k
		}
		offset += len(rows)
	}

	folds := make([]Fold, k)
	for i, f := range assign {
		folds[f].Test = append(folds[f].Test, i)
		for g := range folds {
			if g != f {
				folds[g].Train = append(folds[g].Train, i)
			}
		}
	}
	return folds, nil
}

// Result is the outcome of a grid search.
type Result[P any] struct {
	Best   P
	Scores []float64
	Mean   float64
	Std    float64
	Index  int
}

// GridSearch evaluates every candidate on every fold in parallel and returns
// the candidate with the highest mean score. Ties keep the earlier candidate.
func GridSearch[P any](ctx context.Context, candidates []P, folds []Fold, eval func(context.Context, P, Fold) (float64, error)) (Result[P], error) {
	var zero Result[P]
	if len(candidates) == 0 || len(folds) == 0 {
		return zero, fmt.Errorf("%w: %d candidates, %d folds", ErrEmptyDataset, len(candidates), len(folds))
	}

	scores := make([][]float64, len(candidates))
	for c := range scores {
		scores[c] = make([]float64, len(folds))
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for c := range candidates {
		for f := range folds {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				s, err := eval(gctx, candidates[c], folds[f])
				if err != nil {
					return fmt.Errorf("candidate %d fold %d: %w", c, f, err)
				}
				scores[c][f] = s
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return zero, err
	}

	best := -1
	var bestMean float64
	for c := range candidates {
		m, _ := stats.Mean(scores[c])
		if best < 0 || m > bestMean {
			best, bestMean = c, m
		}
	}
	std, _ := stats.StandardDeviation(scores[best])

	return Result[P]{
		Best:   candidates[best],
		Index:  best,
		Scores: scores[best],
		Mean:   bestMean,
		Std:    std,
	}, nil
}

// MeanStd returns the mean and population standard deviation of scores.
func MeanStd(scores []float64) (float64, float64) {
	m, _ := stats.Mean(scores)
	s, _ := stats.StandardDeviation(scores)
	return m, s
}

// Accuracy returns the share of predictions equal to truth.
func Accuracy(truth, predicted []int) float64 {
	if len(truth) == 0 {
		return 0
	}
	hits := 0
	for i := range truth {
		if truth[i] == predicted[i] {
			hits++
		}
	}
	return float64(hits) / float64(len(truth))
}

// MeanSquaredError averages squared error over every row and output.
func MeanSquaredError(truth, predicted [][]float64) float64 {
	sum, count := 0.0, 0
	for i := range truth {
		for k := range truth[i] {
			d := truth[i][k] - predicted[i][k]
			sum += d * d
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}

// Rows returns the rows of x at idx without copying them.
func Rows[T any](x []T, idx []int) []T {
	out := make([]T, len(idx))
	for i, j := range idx {
		out[i] = x[j]
	}
	return out
}

func shuffled(n int, seed uint64) []int {
	rng := rand.New(rand.NewPCG(seed, seed^0xda3e39cb94b95bdb))
	return rng.Perm(n)
}

func split(perm []int, lo, hi int) Fold {
	test := append([]int(nil), perm[lo:hi]...)
	train := make([]int, 0, len(perm)-len(test))
	train = append(train, perm[:lo]...)
	train = append(train, perm[hi:]...)
	return Fold{Train: train, Test: test}
}
