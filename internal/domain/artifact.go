package domain

// Scaler standardizes feature vectors into the space the models were
// trained on.
type Scaler interface {
	TransformOne(x FeatureVector) FeatureVector
}

// OutlierModel scores how typical a scaled feature vector is relative to
// the training population. Higher scores are more normal; scores below
// zero mark the vector as an outlier.
type OutlierModel interface {
	Score(x FeatureVector) float64
	IsOutlier(x FeatureVector) bool
}

// EnsembleModel estimates the probability that a scaled feature vector
// matches a learned biased-dataset pattern.
type EnsembleModel interface {
	PredictProbability(x FeatureVector) float64
}

// ModelArtifact is the durable bundle of trained model state: scaler,
// outlier detector, ensemble classifier, the feature schema they were
// trained against, and the measured test-set performance. An artifact is
// immutable once loaded; replacement happens only via a full
// retrain-and-swap.
type ModelArtifact struct {
	Scaler       Scaler
	Outlier      OutlierModel
	Ensemble     EnsembleModel
	FeatureNames []string
	Evaluation   EvaluationReport
}

// FeatureCount returns the number of features the artifact was trained
// with. Scoring must verify extracted vectors against this count before
// any model call.
func (a *ModelArtifact) FeatureCount() int {
	return len(a.FeatureNames)
}
