// Package service orchestrates the bias-detection pipeline: feature
// extraction, model inference, fairness metrics, statistical tests,
// score aggregation, and the decision policy.
package service

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/fairtrial-bias-server/internal/domain"
	"github.com/fairtrial-bias-server/internal/fairness"
	"github.com/fairtrial-bias-server/internal/features"
)

// Detector scores trial metadata against the current model artifact.
// It is stateless across calls; concurrent use is safe because the
// artifact is immutable once loaded.
type Detector struct {
	provider domain.ModelProvider
	logger   *logrus.Logger
}

// NewDetector creates a Detector backed by the given model provider.
func NewDetector(provider domain.ModelProvider, logger *logrus.Logger) *Detector {
	return &Detector{provider: provider, logger: logger}
}

var _ domain.BiasDetector = (*Detector)(nil)

// DetectBias runs the full scoring pipeline and returns a fresh
// verdict. Identical metadata scored against an unchanged artifact
// always yields an identical verdict.
func (d *Detector) DetectBias(ctx context.Context, meta *domain.TrialMetadata) (*domain.BiasVerdict, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	artifact, err := d.provider.Current()
	if err != nil {
		return nil, err
	}

	vector := features.Extract(meta)
	if err := features.CheckCount(vector, artifact); err != nil {
		d.logger.WithFields(logrus.Fields{
			"trial_id": meta.TrialID,
			"got":      len(vector),
			"want":     artifact.FeatureCount(),
		}).Error("Feature schema mismatch")
		return nil, err
	}

	scaled := artifact.Scaler.TransformOne(vector)
	outlierScore := artifact.Outlier.Score(scaled)
	isOutlier := artifact.Outlier.IsOutlier(scaled)
	biasProbability := artifact.Ensemble.PredictProbability(scaled)

	metrics := fairness.ComputeMetrics(meta)
	tests := fairness.RunStatisticalTests(meta)

	score := aggregateScore(metrics, tests, biasProbability, isOutlier)
	decision := decide(score, biasProbability, isOutlier, metrics)

	verdict := &domain.BiasVerdict{
		Decision:         decision,
		FairnessScore:    score,
		OutlierScore:     outlierScore,
		IsOutlier:        isOutlier,
		BiasProbability:  biasProbability,
		FairnessMetrics:  metrics,
		StatisticalTests: tests,
		Recommendations:  recommendations(metrics, tests, biasProbability, isOutlier, meta.SampleSize),
		RejectionSummary: rejectionSummary(decision, score, biasProbability, metrics, meta.SampleSize),
	}

	d.logger.WithFields(logrus.Fields{
		"trial_id":         meta.TrialID,
		"decision":         decision.String(),
		"fairness_score":   score,
		"bias_probability": biasProbability,
		"is_outlier":       isOutlier,
		"sample_size":      meta.SampleSize,
	}).Info("Bias detection complete")

	return verdict, nil
}
