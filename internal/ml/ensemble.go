package ml

// VotingEnsemble blends a gradient boosting model with a random forest
// by weighted soft voting. The boosting model carries most of the
// weight; the forest tempers its variance.
type VotingEnsemble struct {
	Boosting *GradientBoosting
	Forest   *RandomForest
	BoostW   float64
	ForestW  float64
}

// NewVotingEnsemble wires two fitted models with the given weights.
// Weights are normalized at predict time, so callers can pass raw
// proportions.
func NewVotingEnsemble(gbm *GradientBoosting, rf *RandomForest, boostW, forestW float64) *VotingEnsemble {
	return &VotingEnsemble{Boosting: gbm, Forest: rf, BoostW: boostW, ForestW: forestW}
}

// PredictProbability returns the blended probability of the positive
// (biased) class for a single feature vector.
func (e *VotingEnsemble) PredictProbability(x []float64) float64 {
	total := e.BoostW + e.ForestW
	if total <= 0 {
		return 0.5
	}
	p := e.BoostW*e.Boosting.PredictProbaOne(x) + e.ForestW*e.Forest.PredictProbaOne(x)
	return p / total
}
