package ml

import (
	"errors"
	"math"
	"math/rand"
	"sort"
)

// ClassificationTree is a CART-style binary classifier over continuous
// features (labels 0/1). Splits minimize weighted Gini impurity.
type ClassificationTree struct {
	MaxDepth        int
	MinSamplesSplit int
	MinSamplesLeaf  int
	MaxFeatures     int // 0 => consider all features at each split
	RandomState     int64

	Root *ClassNode
}

// ClassNode is one node of a classification tree. Fields are exported
// for gob serialization.
type ClassNode struct {
	IsLeaf    bool
	Feature   int
	Threshold float64
	Left      *ClassNode
	Right     *ClassNode
	N         int
	Proba     float64 // probability of class 1 at a leaf
}

// TreeOption is functional configuration for ClassificationTree.
type TreeOption func(*ClassificationTree)

func WithMaxDepth(d int) TreeOption        { return func(t *ClassificationTree) { t.MaxDepth = d } }
func WithMinSamplesSplit(n int) TreeOption { return func(t *ClassificationTree) { t.MinSamplesSplit = n } }
func WithMinSamplesLeaf(n int) TreeOption  { return func(t *ClassificationTree) { t.MinSamplesLeaf = n } }
func WithMaxFeatures(k int) TreeOption     { return func(t *ClassificationTree) { t.MaxFeatures = k } }
func WithRandomState(seed int64) TreeOption {
	return func(t *ClassificationTree) { t.RandomState = seed }
}

// NewClassificationTree returns a tree with sensible defaults.
func NewClassificationTree(opts ...TreeOption) *ClassificationTree {
	t := &ClassificationTree{
		MaxDepth:        0,
		MinSamplesSplit: 2,
		MinSamplesLeaf:  1,
		MaxFeatures:     0,
		RandomState:     1,
	}
	for _, o := range opts {
		o(t)
	}
	return t
}

// FitIndices trains the tree on the rows of X selected by idx. Passing
// bootstrap indices here avoids copying the dataset per tree.
func (t *ClassificationTree) FitIndices(X [][]float64, y []int, idx []int) error {
	if len(X) == 0 {
		return errors.New("tree: empty X")
	}
	if len(y) != len(X) {
		return errors.New("tree: X and y length mismatch")
	}
	if len(idx) == 0 {
		return errors.New("tree: empty index set")
	}
	p := len(X[0])
	rnd := rand.New(rand.NewSource(t.RandomState))
	t.Root = t.buildNode(X, y, idx, 0, p, rnd)
	return nil
}

// Fit trains the tree on all rows of X.
func (t *ClassificationTree) Fit(X [][]float64, y []int) error {
	idx := make([]int, len(X))
	for i := range idx {
		idx[i] = i
	}
	return t.FitIndices(X, y, idx)
}

// PredictProbaOne returns the class-1 probability for a single vector.
func (t *ClassificationTree) PredictProbaOne(x []float64) float64 {
	if t.Root == nil {
		return 0.5
	}
	node := t.Root
	for !node.IsLeaf {
		if x[node.Feature] <= node.Threshold {
			node = node.Left
		} else {
			node = node.Right
		}
	}
	return node.Proba
}

func (t *ClassificationTree) buildNode(X [][]float64, y []int, idx []int, depth, p int, rnd *rand.Rand) *ClassNode {
	node := &ClassNode{N: len(idx)}
	pos := 0
	for _, ii := range idx {
		pos += y[ii]
	}
	proba := float64(pos) / float64(len(idx))

	if pos == 0 || pos == len(idx) ||
		len(idx) < t.MinSamplesSplit ||
		(t.MaxDepth > 0 && depth >= t.MaxDepth) {
		node.IsLeaf = true
		node.Proba = proba
		return node
	}

	featIndices := make([]int, p)
	for j := 0; j < p; j++ {
		featIndices[j] = j
	}
	if t.MaxFeatures > 0 && t.MaxFeatures < p {
		rnd.Shuffle(p, func(a, b int) {
			featIndices[a], featIndices[b] = featIndices[b], featIndices[a]
		})
		featIndices = featIndices[:t.MaxFeatures]
	}

	parent := giniBinary(pos, len(idx))
	bestGain := 0.0
	bestFeature := -1
	bestThreshold := 0.0
	var bestLeft, bestRight []int

	for _, f := range featIndices {
		gain, thr, left, right := bestSplitForFeature(X, y, idx, f, parent, t.MinSamplesLeaf)
		if gain > bestGain {
			bestGain, bestFeature, bestThreshold = gain, f, thr
			bestLeft, bestRight = left, right
		}
	}

	if bestFeature == -1 {
		node.IsLeaf = true
		node.Proba = proba
		return node
	}

	node.Feature = bestFeature
	node.Threshold = bestThreshold
	node.Left = t.buildNode(X, y, bestLeft, depth+1, p, rnd)
	node.Right = t.buildNode(X, y, bestRight, depth+1, p, rnd)
	return node
}

// bestSplitForFeature scans sorted thresholds of feature f over rows idx
// and returns the split with the largest Gini gain.
func bestSplitForFeature(X [][]float64, y []int, idx []int, f int, parent float64, minLeaf int) (gain, threshold float64, left, right []int) {
	n := len(idx)
	order := make([]int, n)
	copy(order, idx)
	sortByFeature(X, order, f)

	totalPos := 0
	for _, ii := range order {
		totalPos += y[ii]
	}

	gain = 0
	leftPos := 0
	for s := 1; s < n; s++ {
		leftPos += y[order[s-1]]
		if X[order[s]][f] == X[order[s-1]][f] {
			continue
		}
		if s < minLeaf || n-s < minLeaf {
			continue
		}
		impL := giniBinary(leftPos, s)
		impR := giniBinary(totalPos-leftPos, n-s)
		weighted := float64(s)/float64(n)*impL + float64(n-s)/float64(n)*impR
		g := parent - weighted
		if g > gain {
			gain = g
			threshold = (X[order[s-1]][f] + X[order[s]][f]) / 2
			left = append([]int(nil), order[:s]...)
			right = append([]int(nil), order[s:]...)
		}
	}
	return gain, threshold, left, right
}

// sortByFeature sorts order by X[.][f] ascending.
func sortByFeature(X [][]float64, order []int, f int) {
	sort.Slice(order, func(a, b int) bool {
		return X[order[a]][f] < X[order[b]][f]
	})
}

func giniBinary(pos, n int) float64 {
	if n == 0 {
		return 0
	}
	p := float64(pos) / float64(n)
	return 2 * p * (1 - p)
}

// sigmoid is the logistic function, shared by the boosted ensemble.
func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}
