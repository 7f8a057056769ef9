package ml

import (
	"errors"
	"math"
	"math/rand"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// RandomForest is a bagged ensemble of classification trees with
// probability averaging. Each tree trains on a bootstrap sample with
// sqrt(p) feature subsampling per split.
type RandomForest struct {
	NEstimators     int
	MaxDepth        int
	MinSamplesSplit int
	Bootstrap       bool
	RandomState     int64

	Trees []*ClassificationTree
}

// ForestOption is functional configuration for RandomForest.
type ForestOption func(*RandomForest)

func WithNEstimators(n int) ForestOption { return func(rf *RandomForest) { rf.NEstimators = n } }
func WithForestMaxDepth(d int) ForestOption {
	return func(rf *RandomForest) { rf.MaxDepth = d }
}
func WithBootstrap(b bool) ForestOption { return func(rf *RandomForest) { rf.Bootstrap = b } }
func WithForestRandomState(seed int64) ForestOption {
	return func(rf *RandomForest) { rf.RandomState = seed }
}

// NewRandomForest initializes the forest with sensible defaults.
func NewRandomForest(opts ...ForestOption) *RandomForest {
	rf := &RandomForest{
		NEstimators:     100,
		MaxDepth:        0,
		MinSamplesSplit: 2,
		Bootstrap:       true,
		RandomState:     1,
	}
	for _, o := range opts {
		o(rf)
	}
	return rf
}

// Fit trains the forest. Trees fit in parallel; each tree derives its
// own seed from RandomState and its index, so results do not depend on
// goroutine scheduling.
func (rf *RandomForest) Fit(X [][]float64, y []int) error {
	if len(X) == 0 {
		return errors.New("forest: empty X")
	}
	n := len(X)
	if len(y) != n {
		return errors.New("forest: X and y length mismatch")
	}
	p := len(X[0])
	maxFeatures := int(math.Sqrt(float64(p)))
	if maxFeatures < 1 {
		maxFeatures = 1
	}

	rf.Trees = make([]*ClassificationTree, rf.NEstimators)
	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))

	for i := 0; i < rf.NEstimators; i++ {
		g.Go(func() error {
			seed := rf.RandomState + int64(i)
			treeRand := rand.New(rand.NewSource(seed))

			idx := make([]int, n)
			for j := 0; j < n; j++ {
				if rf.Bootstrap {
					idx[j] = treeRand.Intn(n)
				} else {
					idx[j] = j
				}
			}

			tree := NewClassificationTree(
				WithMaxDepth(rf.MaxDepth),
				WithMinSamplesSplit(rf.MinSamplesSplit),
				WithMaxFeatures(maxFeatures),
				WithRandomState(seed),
			)
			if err := tree.FitIndices(X, y, idx); err != nil {
				return err
			}
			rf.Trees[i] = tree
			return nil
		})
	}
	return g.Wait()
}

// PredictProbaOne averages class-1 probabilities across all trees.
func (rf *RandomForest) PredictProbaOne(x []float64) float64 {
	if len(rf.Trees) == 0 {
		return 0.5
	}
	sum := 0.0
	for _, tree := range rf.Trees {
		sum += tree.PredictProbaOne(x)
	}
	return sum / float64(len(rf.Trees))
}

// PredictProba returns class-1 probabilities for each row of X.
func (rf *RandomForest) PredictProba(X [][]float64) []float64 {
	out := make([]float64, len(X))
	for i := range X {
		out[i] = rf.PredictProbaOne(X[i])
	}
	return out
}
