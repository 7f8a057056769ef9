package training

import (
	"github.com/fairtrial-bias-server/internal/domain"
	"github.com/fairtrial-bias-server/internal/ml"
)

// Result bundles the concrete trained models. It is what persistence
// serializes; Artifact exposes it to the scoring pipeline behind the
// domain interfaces.
type Result struct {
	Scaler       *ml.StandardScaler
	Outlier      *ml.IsolationForest
	Ensemble     *ml.VotingEnsemble
	FeatureNames []string
	Evaluation   domain.EvaluationReport
}

// Artifact wraps the trained models as an immutable domain artifact.
func (r *Result) Artifact() *domain.ModelArtifact {
	return &domain.ModelArtifact{
		Scaler:       scalerAdapter{r.Scaler},
		Outlier:      outlierAdapter{r.Outlier},
		Ensemble:     ensembleAdapter{r.Ensemble},
		FeatureNames: r.FeatureNames,
		Evaluation:   r.Evaluation,
	}
}

type scalerAdapter struct{ s *ml.StandardScaler }

func (a scalerAdapter) TransformOne(x domain.FeatureVector) domain.FeatureVector {
	return domain.FeatureVector(a.s.TransformOne([]float64(x)))
}

type outlierAdapter struct{ f *ml.IsolationForest }

func (a outlierAdapter) Score(x domain.FeatureVector) float64 {
	return a.f.Score([]float64(x))
}

func (a outlierAdapter) IsOutlier(x domain.FeatureVector) bool {
	return a.f.IsOutlier([]float64(x))
}

type ensembleAdapter struct{ e *ml.VotingEnsemble }

func (a ensembleAdapter) PredictProbability(x domain.FeatureVector) float64 {
	return a.e.PredictProbability([]float64(x))
}
