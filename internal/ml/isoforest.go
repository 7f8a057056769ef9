package ml

import (
	"errors"
	"math"
	"math/rand"

	"github.com/fairtrial-bias-server/internal/stats"
)

const (
	defaultIsoTrees     = 100
	defaultIsoSubsample = 256
)

// IsolationForest scores samples by how quickly random axis-aligned
// splits isolate them. Anomalies have short average path lengths.
// Score follows the sklearn decision_function convention: negative
// values mark outliers, positive values inliers.
type IsolationForest struct {
	NEstimators   int
	Subsample     int
	Contamination float64
	RandomState   int64

	Trees      []*IsoNode
	Offset     float64
	TrainedPsi int // effective subsample size used at fit time
}

type IsoNode struct {
	Feature   int
	Threshold float64
	Left      *IsoNode
	Right     *IsoNode
	Size      int
	Leaf      bool
}

// IsoOption configures an IsolationForest before fitting.
type IsoOption func(*IsolationForest)

func WithIsoEstimators(n int) IsoOption {
	return func(f *IsolationForest) { f.NEstimators = n }
}

func WithIsoSubsample(n int) IsoOption {
	return func(f *IsolationForest) { f.Subsample = n }
}

func WithContamination(c float64) IsoOption {
	return func(f *IsolationForest) { f.Contamination = c }
}

func WithIsoRandomState(seed int64) IsoOption {
	return func(f *IsolationForest) { f.RandomState = seed }
}

func NewIsolationForest(opts ...IsoOption) *IsolationForest {
	f := &IsolationForest{
		NEstimators:   defaultIsoTrees,
		Subsample:     defaultIsoSubsample,
		Contamination: 0.1,
		RandomState:   42,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fit builds the forest and calibrates Offset so that roughly a
// Contamination fraction of the training set scores below zero.
func (f *IsolationForest) Fit(X [][]float64) error {
	if len(X) == 0 {
		return errors.New("isolation forest: empty training set")
	}
	if f.Contamination <= 0 || f.Contamination >= 0.5 {
		return errors.New("isolation forest: contamination must be in (0, 0.5)")
	}
	psi := f.Subsample
	if psi > len(X) {
		psi = len(X)
	}
	f.TrainedPsi = psi
	maxDepth := int(math.Ceil(math.Log2(float64(psi))))
	rng := rand.New(rand.NewSource(f.RandomState))

	f.Trees = make([]*IsoNode, f.NEstimators)
	for t := 0; t < f.NEstimators; t++ {
		idx := rng.Perm(len(X))[:psi]
		f.Trees[t] = buildIsoNode(X, idx, 0, maxDepth, rng)
	}

	// Percentile calibration: the most anomalous Contamination
	// fraction of the training rows ends up below the offset.
	raws := make([]float64, len(X))
	for i, row := range X {
		raws[i] = f.rawScore(row)
	}
	f.Offset = stats.Percentile(raws, f.Contamination*100)
	return nil
}

func buildIsoNode(X [][]float64, idx []int, depth, maxDepth int, rng *rand.Rand) *IsoNode {
	if len(idx) <= 1 || depth >= maxDepth {
		return &IsoNode{Leaf: true, Size: len(idx)}
	}
	p := len(X[0])
	feature := rng.Intn(p)
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, i := range idx {
		v := X[i][feature]
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	if hi <= lo {
		return &IsoNode{Leaf: true, Size: len(idx)}
	}
	threshold := lo + rng.Float64()*(hi-lo)

	var left, right []int
	for _, i := range idx {
		if X[i][feature] < threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	if len(left) == 0 || len(right) == 0 {
		return &IsoNode{Leaf: true, Size: len(idx)}
	}
	return &IsoNode{
		Feature:   feature,
		Threshold: threshold,
		Left:      buildIsoNode(X, left, depth+1, maxDepth, rng),
		Right:     buildIsoNode(X, right, depth+1, maxDepth, rng),
	}
}

// pathLength walks x down the tree; leaves holding more than one
// sample get the average unsuccessful-search correction c(n).
func pathLength(node *IsoNode, x []float64, depth float64) float64 {
	if node.Leaf {
		return depth + avgPathCorrection(node.Size)
	}
	if x[node.Feature] < node.Threshold {
		return pathLength(node.Left, x, depth+1)
	}
	return pathLength(node.Right, x, depth+1)
}

// avgPathCorrection is c(n), the expected path length of an
// unsuccessful BST search over n points.
func avgPathCorrection(n int) float64 {
	if n <= 1 {
		return 0
	}
	fn := float64(n)
	return 2*(math.Log(fn-1)+0.5772156649) - 2*(fn-1)/fn
}

// rawScore is the negated anomaly score -s(x), so lower means more
// anomalous.
func (f *IsolationForest) rawScore(x []float64) float64 {
	sum := 0.0
	for _, tree := range f.Trees {
		sum += pathLength(tree, x, 0)
	}
	mean := sum / float64(len(f.Trees))
	s := math.Pow(2, -mean/avgPathCorrection(f.TrainedPsi))
	return -s
}

// Score returns the offset-adjusted decision value. Negative marks an
// outlier.
func (f *IsolationForest) Score(x []float64) float64 {
	if len(f.Trees) == 0 {
		return 0
	}
	return f.rawScore(x) - f.Offset
}

// IsOutlier reports whether x falls in the anomalous region.
func (f *IsolationForest) IsOutlier(x []float64) bool {
	return f.Score(x) < 0
}
