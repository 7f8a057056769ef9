package service

import (
	"github.com/fairtrial-bias-server/internal/domain"
	"github.com/fairtrial-bias-server/internal/stats"
)

// Aggregation weights over the fairness axes and model signals. These
// encode an explicit ethical and regulatory trade-off and are policy
// constants, never derived from data.
const (
	weightParity          = 0.25
	weightDisparateImpact = 0.25
	weightOpportunity     = 0.20
	weightStatistical     = 0.20
	weightModel           = 0.10
)

// Credit tiers for the p-value-derived confidence term. A significant
// test reduces credit but never zeroes the score on its own.
const (
	pSignificant       = 0.05
	pHighlySignificant = 0.01

	creditFull    = 1.0
	creditPartial = 0.85
	creditReduced = 0.65
)

// Outlier contribution to the model term. An outlier is a mild
// population-difference signal, not automatically bias.
const (
	outlierNormInlier  = 0.7
	outlierNormOutlier = 0.5
)

// aggregateScore folds the fairness metrics, statistical evidence, and
// model signals into a single fairness score in [0,1].
func aggregateScore(metrics domain.FairnessMetrics, tests domain.StatisticalTestResult, biasProbability float64, isOutlier bool) float64 {
	statTerm := (pValueCredit(tests.PValueGender) + pValueCredit(tests.PValueEthnicity)) / 2

	outlierNorm := outlierNormInlier
	if isOutlier {
		outlierNorm = outlierNormOutlier
	}
	modelTerm := (outlierNorm + (1 - biasProbability)) / 2

	score := weightParity*metrics.DemographicParity +
		weightDisparateImpact*metrics.DisparateImpactRatio +
		weightOpportunity*metrics.EqualityOfOpportunity +
		weightStatistical*statTerm +
		weightModel*modelTerm
	return stats.Clamp(score, 0, 1)
}

func pValueCredit(p float64) float64 {
	switch {
	case p > pSignificant:
		return creditFull
	case p > pHighlySignificant:
		return creditPartial
	default:
		return creditReduced
	}
}
