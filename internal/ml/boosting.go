package ml

import (
	"errors"
	"math"
	"math/rand"
)

// GradientBoosting is a boosted ensemble of shallow regression trees
// trained with logistic loss. Each round fits a tree to the negative
// gradient and applies a Newton leaf step; validation logloss drives
// early stopping.
type GradientBoosting struct {
	NRounds       int
	LearningRate  float64
	MaxDepth      int
	Subsample     float64
	EarlyStopping int // rounds without val improvement before stopping; 0 disables
	RandomState   int64

	Prior float64 // initial log-odds
	Trees []*RegressionTree
}

// BoostingOption is functional configuration for GradientBoosting.
type BoostingOption func(*GradientBoosting)

func WithRounds(n int) BoostingOption          { return func(g *GradientBoosting) { g.NRounds = n } }
func WithLearningRate(lr float64) BoostingOption {
	return func(g *GradientBoosting) { g.LearningRate = lr }
}
func WithBoostingMaxDepth(d int) BoostingOption {
	return func(g *GradientBoosting) { g.MaxDepth = d }
}
func WithSubsample(f float64) BoostingOption { return func(g *GradientBoosting) { g.Subsample = f } }
func WithEarlyStopping(patience int) BoostingOption {
	return func(g *GradientBoosting) { g.EarlyStopping = patience }
}
func WithBoostingRandomState(seed int64) BoostingOption {
	return func(g *GradientBoosting) { g.RandomState = seed }
}

// NewGradientBoosting returns a booster with defaults mirroring the
// production training configuration.
func NewGradientBoosting(opts ...BoostingOption) *GradientBoosting {
	g := &GradientBoosting{
		NRounds:       200,
		LearningRate:  0.05,
		MaxDepth:      4,
		Subsample:     0.8,
		EarlyStopping: 20,
		RandomState:   1,
	}
	for _, o := range opts {
		o(g)
	}
	return g
}

// Fit trains the booster on (X, y) with early stopping against the
// validation split (Xval, yval). Labels are 0/1.
func (g *GradientBoosting) Fit(X [][]float64, y []int, Xval [][]float64, yval []int) error {
	n := len(X)
	if n == 0 {
		return errors.New("boosting: empty X")
	}
	if len(y) != n {
		return errors.New("boosting: X and y length mismatch")
	}

	pos := 0
	for _, lab := range y {
		pos += lab
	}
	// log-odds prior, clamped away from degenerate all-one-class fits
	p0 := (float64(pos) + 1) / (float64(n) + 2)
	g.Prior = math.Log(p0 / (1 - p0))

	raw := make([]float64, n)
	for i := range raw {
		raw[i] = g.Prior
	}
	rawVal := make([]float64, len(Xval))
	for i := range rawVal {
		rawVal[i] = g.Prior
	}

	rnd := rand.New(rand.NewSource(g.RandomState))
	sampleSize := int(g.Subsample * float64(n))
	if sampleSize < 1 || g.Subsample >= 1 {
		sampleSize = n
	}

	bestLoss := math.Inf(1)
	bestRound := 0
	g.Trees = g.Trees[:0]

	for round := 0; round < g.NRounds; round++ {
		grad := make([]float64, n)
		hess := make([]float64, n)
		for i := 0; i < n; i++ {
			p := sigmoid(raw[i])
			grad[i] = float64(y[i]) - p
			hess[i] = p * (1 - p)
		}

		idx := subsampleIndices(n, sampleSize, rnd)

		tree := newRegressionTree(g.MaxDepth)
		tree.fit(X, grad, hess, idx)
		g.Trees = append(g.Trees, tree)

		for i := 0; i < n; i++ {
			raw[i] += g.LearningRate * tree.predictOne(X[i])
		}

		if len(Xval) == 0 || g.EarlyStopping <= 0 {
			continue
		}
		for i := range Xval {
			rawVal[i] += g.LearningRate * g.Trees[round].predictOne(Xval[i])
		}
		loss := logLossRaw(rawVal, yval)
		if loss < bestLoss-1e-9 {
			bestLoss = loss
			bestRound = round + 1
		} else if round+1-bestRound >= g.EarlyStopping {
			g.Trees = g.Trees[:bestRound]
			break
		}
	}
	if len(Xval) > 0 && g.EarlyStopping > 0 && bestRound > 0 && bestRound < len(g.Trees) {
		g.Trees = g.Trees[:bestRound]
	}
	return nil
}

// PredictProbaOne returns the class-1 probability for a single vector.
func (g *GradientBoosting) PredictProbaOne(x []float64) float64 {
	raw := g.Prior
	for _, tree := range g.Trees {
		raw += g.LearningRate * tree.predictOne(x)
	}
	return sigmoid(raw)
}

// PredictProba returns class-1 probabilities for each row of X.
func (g *GradientBoosting) PredictProba(X [][]float64) []float64 {
	out := make([]float64, len(X))
	for i := range X {
		out[i] = g.PredictProbaOne(X[i])
	}
	return out
}

func subsampleIndices(n, k int, rnd *rand.Rand) []int {
	if k >= n {
		idx := make([]int, n)
		for i := range idx {
			idx[i] = i
		}
		return idx
	}
	perm := rnd.Perm(n)
	return perm[:k]
}

func logLossRaw(raw []float64, y []int) float64 {
	if len(raw) == 0 {
		return 0
	}
	const eps = 1e-15
	sum := 0.0
	for i := range raw {
		p := sigmoid(raw[i])
		if p < eps {
			p = eps
		} else if p > 1-eps {
			p = 1 - eps
		}
		if y[i] == 1 {
			sum -= math.Log(p)
		} else {
			sum -= math.Log(1 - p)
		}
	}
	return sum / float64(len(raw))
}

// RegressionTree is a depth-limited tree fit to boosting gradients.
// Leaf values are Newton steps: sum(grad)/sum(hess).
type RegressionTree struct {
	MaxDepth int
	Root     *RegNode
}

// RegNode is one node of a regression tree. Fields are exported for gob.
type RegNode struct {
	IsLeaf    bool
	Feature   int
	Threshold float64
	Left      *RegNode
	Right     *RegNode
	Value     float64
}

func newRegressionTree(maxDepth int) *RegressionTree {
	return &RegressionTree{MaxDepth: maxDepth}
}

func (t *RegressionTree) fit(X [][]float64, grad, hess []float64, idx []int) {
	t.Root = buildRegNode(X, grad, hess, idx, 0, t.MaxDepth)
}

func (t *RegressionTree) predictOne(x []float64) float64 {
	node := t.Root
	if node == nil {
		return 0
	}
	for !node.IsLeaf {
		if x[node.Feature] <= node.Threshold {
			node = node.Left
		} else {
			node = node.Right
		}
	}
	return node.Value
}

const (
	regMinLeaf    = 5
	regLambda     = 1.0 // L2 regularization on leaf weights
	regMinGain    = 1e-7
)

func buildRegNode(X [][]float64, grad, hess []float64, idx []int, depth, maxDepth int) *RegNode {
	node := &RegNode{}
	sumG, sumH := 0.0, 0.0
	for _, ii := range idx {
		sumG += grad[ii]
		sumH += hess[ii]
	}

	if depth >= maxDepth || len(idx) < 2*regMinLeaf {
		node.IsLeaf = true
		node.Value = sumG / (sumH + regLambda)
		return node
	}

	parentScore := sumG * sumG / (sumH + regLambda)
	bestGain := regMinGain
	bestFeature := -1
	bestThreshold := 0.0
	var bestLeft, bestRight []int

	p := len(X[0])
	order := make([]int, len(idx))
	for f := 0; f < p; f++ {
		copy(order, idx)
		sortByFeature(X, order, f)

		leftG, leftH := 0.0, 0.0
		for s := 1; s < len(order); s++ {
			ii := order[s-1]
			leftG += grad[ii]
			leftH += hess[ii]
			if X[order[s]][f] == X[order[s-1]][f] {
				continue
			}
			if s < regMinLeaf || len(order)-s < regMinLeaf {
				continue
			}
			rightG := sumG - leftG
			rightH := sumH - leftH
			gain := leftG*leftG/(leftH+regLambda) + rightG*rightG/(rightH+regLambda) - parentScore
			if gain > bestGain {
				bestGain = gain
				bestFeature = f
				bestThreshold = (X[order[s-1]][f] + X[order[s]][f]) / 2
				bestLeft = append([]int(nil), order[:s]...)
				bestRight = append([]int(nil), order[s:]...)
			}
		}
	}

	if bestFeature == -1 {
		node.IsLeaf = true
		node.Value = sumG / (sumH + regLambda)
		return node
	}

	node.Feature = bestFeature
	node.Threshold = bestThreshold
	node.Left = buildRegNode(X, grad, hess, bestLeft, depth+1, maxDepth)
	node.Right = buildRegNode(X, grad, hess, bestRight, depth+1, maxDepth)
	return node
}
