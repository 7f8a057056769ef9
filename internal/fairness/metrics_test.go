package fairness

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fairtrial-bias-server/internal/domain"
)

func TestDemographicParity(t *testing.T) {
	tests := []struct {
		name   string
		gender domain.GenderDistribution
		want   float64
	}{
		{"perfect balance", domain.GenderDistribution{Male: 0.5, Female: 0.5}, 1.0},
		{"severe imbalance", domain.GenderDistribution{Male: 0.95, Female: 0.05}, 0.1},
		{"renormalized input", domain.GenderDistribution{Male: 50, Female: 50}, 1.0},
		{"missing distribution", domain.GenderDistribution{}, 0.5},
		{"single gender", domain.GenderDistribution{Male: 1.0}, 0.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := ComputeMetrics(&domain.TrialMetadata{GenderDistribution: tt.gender})
			assert.InDelta(t, tt.want, m.DemographicParity, 1e-9)
		})
	}
}

func TestDisparateImpactRatio(t *testing.T) {
	tests := []struct {
		name string
		dist map[string]float64
		want float64
	}{
		{"uniform four", map[string]float64{"white": 0.25, "black": 0.25, "asian": 0.25, "other": 0.25}, 1.0},
		{"skewed", map[string]float64{"white": 0.8, "black": 0.2}, 0.25},
		{"single category neutral", map[string]float64{"white": 1.0}, 0.5},
		{"empty neutral", map[string]float64{}, 0.5},
		{"negligible mass ignored", map[string]float64{"white": 0.9, "black": 0.1, "noise": 1e-9}, 1.0 / 9.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := ComputeMetrics(&domain.TrialMetadata{EthnicityDistribution: tt.dist})
			assert.InDelta(t, tt.want, m.DisparateImpactRatio, 1e-9)
		})
	}
}

func TestDisparateImpactRatioScaleInvariant(t *testing.T) {
	fractions := map[string]float64{"white": 0.5, "black": 0.3, "asian": 0.2}
	percentages := map[string]float64{"white": 50, "black": 30, "asian": 20}

	a := ComputeMetrics(&domain.TrialMetadata{EthnicityDistribution: fractions})
	b := ComputeMetrics(&domain.TrialMetadata{EthnicityDistribution: percentages})
	assert.InDelta(t, a.DisparateImpactRatio, b.DisparateImpactRatio, 1e-12)
}

func TestEqualityOfOpportunity(t *testing.T) {
	tests := []struct {
		name string
		age  domain.AgeDistribution
		want float64
	}{
		{"full span", domain.AgeDistribution{Min: 18, Max: 88}, 1.0},
		{"exactly fifty", domain.AgeDistribution{Min: 20, Max: 70}, 1.0},
		{"narrow span", domain.AgeDistribution{Min: 30, Max: 40}, 0.2},
		{"missing ages neutral", domain.AgeDistribution{}, 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := ComputeMetrics(&domain.TrialMetadata{AgeDistribution: tt.age})
			assert.InDelta(t, tt.want, m.EqualityOfOpportunity, 1e-9)
		})
	}
}

func TestMetricsAlwaysInUnitInterval(t *testing.T) {
	metas := []*domain.TrialMetadata{
		{},
		{GenderDistribution: domain.GenderDistribution{Male: 3, Female: 0.1}},
		{EthnicityDistribution: map[string]float64{"a": 900, "b": 1}},
		{AgeDistribution: domain.AgeDistribution{Min: 10, Max: 200}},
	}
	for _, meta := range metas {
		m := ComputeMetrics(meta)
		assert.GreaterOrEqual(t, m.DemographicParity, 0.0)
		assert.LessOrEqual(t, m.DemographicParity, 1.0)
		assert.GreaterOrEqual(t, m.DisparateImpactRatio, 0.0)
		assert.LessOrEqual(t, m.DisparateImpactRatio, 1.0)
		assert.GreaterOrEqual(t, m.EqualityOfOpportunity, 0.0)
		assert.LessOrEqual(t, m.EqualityOfOpportunity, 1.0)
	}
}
