package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fairtrial-bias-server/internal/domain"
)

func TestPValueCredit(t *testing.T) {
	tests := []struct {
		name string
		p    float64
		want float64
	}{
		{"not significant", 0.5, creditFull},
		{"just above significant", 0.051, creditFull},
		{"significant", 0.03, creditPartial},
		{"highly significant", 0.001, creditReduced},
		{"boundary 0.01", 0.01, creditReduced},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, pValueCredit(tt.p))
		})
	}
}

func TestAggregateScorePerfectInput(t *testing.T) {
	metrics := domain.FairnessMetrics{
		DemographicParity:     1.0,
		DisparateImpactRatio:  1.0,
		EqualityOfOpportunity: 1.0,
	}
	tests := domain.StatisticalTestResult{PValueGender: 1.0, PValueEthnicity: 1.0}

	score := aggregateScore(metrics, tests, 0.0, false)
	// 0.25 + 0.25 + 0.20 + 0.20 + 0.10*(0.7+1)/2
	assert.InDelta(t, 0.985, score, 1e-9)
}

func TestAggregateScoreAlwaysInUnitInterval(t *testing.T) {
	cases := []struct {
		metrics domain.FairnessMetrics
		tests   domain.StatisticalTestResult
		prob    float64
		outlier bool
	}{
		{domain.FairnessMetrics{}, domain.StatisticalTestResult{}, 1.0, true},
		{domain.FairnessMetrics{DemographicParity: 1, DisparateImpactRatio: 1, EqualityOfOpportunity: 1},
			domain.StatisticalTestResult{PValueGender: 1, PValueEthnicity: 1}, 0.0, false},
		{domain.FairnessMetrics{DemographicParity: 0.5}, domain.StatisticalTestResult{PValueGender: 0.04}, 0.5, true},
	}
	for _, c := range cases {
		s := aggregateScore(c.metrics, c.tests, c.prob, c.outlier)
		assert.GreaterOrEqual(t, s, 0.0)
		assert.LessOrEqual(t, s, 1.0)
	}
}

func TestAggregateScoreMonotonicInParity(t *testing.T) {
	tests := domain.StatisticalTestResult{PValueGender: 0.5, PValueEthnicity: 0.5}
	prev := -1.0
	for parity := 0.5; parity <= 1.0; parity += 0.05 {
		metrics := domain.FairnessMetrics{
			DemographicParity:     parity,
			DisparateImpactRatio:  0.6,
			EqualityOfOpportunity: 0.7,
		}
		s := aggregateScore(metrics, tests, 0.3, false)
		assert.GreaterOrEqual(t, s, prev)
		prev = s
	}
}

func TestAggregateScoreOutlierPenalty(t *testing.T) {
	metrics := domain.FairnessMetrics{
		DemographicParity:     0.8,
		DisparateImpactRatio:  0.8,
		EqualityOfOpportunity: 0.8,
	}
	tests := domain.StatisticalTestResult{PValueGender: 0.5, PValueEthnicity: 0.5}

	inlier := aggregateScore(metrics, tests, 0.3, false)
	outlier := aggregateScore(metrics, tests, 0.3, true)
	assert.Greater(t, inlier, outlier)
	// The penalty is mild: half the weight of the model term's outlier share.
	assert.InDelta(t, weightModel*(outlierNormInlier-outlierNormOutlier)/2, inlier-outlier, 1e-9)
}
