// Package ml implements the estimators the training pipeline needs: CART
// decision trees, random forests for classification and regression,
// k-fold cross-validation with grid search, and SMOTE-Tomek rebalancing.
package ml

import (
	"math/rand/v2"
	"sort"
)

// Node is one decision-tree node. Leaves have Left == -1 and carry Value:
// class probabilities for classifiers, a single mean for regressors.
type Node struct {
	Value     []float64 `json:"v,omitempty"`
	Threshold float64   `json:"t"`
	Feature   int       `json:"f"`
	Left      int       `json:"l"`
	Right     int       `json:"r"`
}

// Tree is a fitted decision tree stored as a flat node array rooted at 0.
type Tree struct {
	Nodes []Node `json:"nodes"`
}

// Leaf returns the value of the leaf x falls into.
func (t *Tree) Leaf(x []float64) []float64 {
	i := 0
	for {
		n := &t.Nodes[i]
		if n.Left < 0 {
			return n.Value
		}
		if x[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}

// Depth returns the number of edges on the longest root-to-leaf path.
func (t *Tree) Depth() int {
	var walk func(i int) int
	walk = func(i int) int {
		n := t.Nodes[i]
		if n.Left < 0 {
			return 0
		}
		return 1 + max(walk(n.Left), walk(n.Right))
	}
	if len(t.Nodes) == 0 {
		return 0
	}
	return walk(0)
}

type treeConfig struct {
	maxDepth        int
	minSamplesSplit int
	maxFeatures     int
}

// builder grows one tree. Exactly one of labels or targets is set.
type builder struct {
	rng      *rand.Rand
	x        [][]float64
	labels   []int
	targets  []float64
	weights  []float64
	features []int
	nodes    []Node
	order    []int
	cfg      treeConfig
	classes  int
}

func newBuilder(x [][]float64, weights []float64, cfg treeConfig, rng *rand.Rand) *builder {
	width := len(x[0])
	features := make([]int, width)
	for i := range features {
		features[i] = i
	}
	if cfg.maxFeatures <= 0 || cfg.maxFeatures > width {
		cfg.maxFeatures = width
	}
	if cfg.minSamplesSplit < 2 {
		cfg.minSamplesSplit = 2
	}
	return &builder{x: x, weights: weights, cfg: cfg, rng: rng, features: features}
}

func (b *builder) grow(idx []int) Tree {
	b.order = make([]int, len(idx))
	b.build(idx, 0)
	return Tree{Nodes: b.nodes}
}

func (b *builder) build(idx []int, depth int) int {
	id := len(b.nodes)
	b.nodes = append(b.nodes, Node{Left: -1, Right: -1})

	value, impurity := b.summarize(idx)
	if (b.cfg.maxDepth > 0 && depth >= b.cfg.maxDepth) ||
		len(idx) < b.cfg.minSamplesSplit ||
		impurity <= 1e-12 {
		b.nodes[id].Value = value
		return id
	}

	feature, threshold, ok := b.bestSplit(idx)
	if !ok {
		b.nodes[id].Value = value
		return id
	}

	var left, right []int
	for _, i := range idx {
		if b.x[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}

	l := b.build(left, depth+1)
	r := b.build(right, depth+1)
	b.nodes[id].Feature = feature
	b.nodes[id].Threshold = threshold
	b.nodes[id].Left = l
	b.nodes[id].Right = r
	return id
}

// summarize returns the leaf value and impurity of a node.
func (b *builder) summarize(idx []int) ([]float64, float64) {
	if b.labels != nil {
		counts := make([]float64, b.classes)
		total := 0.0
		for _, i := range idx {
			counts[b.labels[i]] += b.weights[i]
			total += b.weights[i]
		}
		imp := gini(counts, total)
		if total > 0 {
			for c := range counts {
				counts[c] /= total
			}
		}
		return counts, imp
	}

	var w, sum, sq float64
	for _, i := range idx {
		w += b.weights[i]
		sum += b.weights[i] * b.targets[i]
		sq += b.weights[i] * b.targets[i] * b.targets[i]
	}
	if w == 0 {
		return []float64{0}, 0
	}
	mean := sum / w
	return []float64{mean}, sq/w - mean*mean
}

// bestSplit searches a random subset of maxFeatures features for the split
// with the lowest weighted child impurity. When none of them can split the
// node, further features are drawn until one can.
func (b *builder) bestSplit(idx []int) (int, float64, bool) {
	order := b.order[:len(idx)]
	bestCost := 0.0
	bestFeature, bestThreshold := -1, 0.0

	for i := range b.features {
		if i >= b.cfg.maxFeatures && bestFeature >= 0 {
			break
		}
		j := i + b.rng.IntN(len(b.features)-i)
		b.features[i], b.features[j] = b.features[j], b.features[i]
		f := b.features[i]

		copy(order, idx)
		sort.Slice(order, func(a, c int) bool { return b.x[order[a]][f] < b.x[order[c]][f] })

		var cost float64
		var pos int
		var found bool
		if b.labels != nil {
			cost, pos, found = b.sweepGini(order, f)
		} else {
			cost, pos, found = b.sweepVariance(order, f)
		}
		if !found {
			continue
		}
		if bestFeature < 0 || cost < bestCost {
			lo, hi := b.x[order[pos]][f], b.x[order[pos+1]][f]
			threshold := lo + (hi-lo)/2
			if threshold >= hi {
				threshold = lo
			}
			bestCost, bestFeature, bestThreshold = cost, f, threshold
		}
	}
	return bestFeature, bestThreshold, bestFeature >= 0
}

// sweepGini returns the lowest weighted Gini cost over split positions in
// sorted order; pos is the last index of the left child.
func (b *builder) sweepGini(order []int, f int) (float64, int, bool) {
	total := make([]float64, b.classes)
	totalW := 0.0
	for _, i := range order {
		total[b.labels[i]] += b.weights[i]
		totalW += b.weights[i]
	}

	left := make([]float64, b.classes)
	right := make([]float64, b.classes)
	leftW := 0.0
	best, bestPos, found := 0.0, -1, false

	for k := 0; k < len(order)-1; k++ {
		i := order[k]
		left[b.labels[i]] += b.weights[i]
		leftW += b.weights[i]
		if b.x[order[k+1]][f] <= b.x[i][f] {
			continue
		}
		for c := range right {
			right[c] = total[c] - left[c]
		}
		rightW := totalW - leftW
		cost := leftW*gini(left, leftW) + rightW*gini(right, rightW)
		if !found || cost < best {
			best, bestPos, found = cost, k, true
		}
	}
	return best, bestPos, found
}

// sweepVariance is sweepGini for squared error.
func (b *builder) sweepVariance(order []int, f int) (float64, int, bool) {
	var totalW, totalSum, totalSq float64
	for _, i := range order {
		w, y := b.weights[i], b.targets[i]
		totalW += w
		totalSum += w * y
		totalSq += w * y * y
	}

	var lw, lsum, lsq float64
	best, bestPos, found := 0.0, -1, false

	for k := 0; k < len(order)-1; k++ {
		i := order[k]
		w, y := b.weights[i], b.targets[i]
		lw += w
		lsum += w * y
		lsq += w * y * y
		if b.x[order[k+1]][f] <= b.x[i][f] {
			continue
		}
		rw, rsum, rsq := totalW-lw, totalSum-lsum, totalSq-lsq
		cost := sse(lw, lsum, lsq) + sse(rw, rsum, rsq)
		if !found || cost < best {
			best, bestPos, found = cost, k, true
		}
	}
	return best, bestPos, found
}

func gini(counts []float64, total float64) float64 {
	if total <= 0 {
		return 0
	}
	sum := 0.0
	for _, c := range counts {
		p := c / total
		sum += p * p
	}
	return 1 - sum
}

func sse(w, sum, sq float64) float64 {
	if w <= 0 {
		return 0
	}
	return sq - sum*sum/w
}
