// Package fairness computes demographic fairness metrics and the
// chi-square tests that back the scoring pipeline's statistical term.
package fairness

import (
	"github.com/fairtrial-bias-server/internal/domain"
	"github.com/fairtrial-bias-server/internal/stats"
)

const (
	// Categories below this mass are ignored by the disparate impact
	// ratio; they represent noise, not an underrepresented group.
	negligibleFraction = 1e-6

	// neutralMetric is the value a metric takes when the metadata
	// carries no evidence for it either way.
	neutralMetric = 0.5

	// fullCreditAgeSpan is the observed age range, in years, that earns
	// full equality-of-opportunity credit.
	fullCreditAgeSpan = 50.0
)

// ComputeMetrics derives the three fairness axes from trial metadata.
// Missing distribution fields default to the neutral 0.5 rather than
// failing, so sparse but well-formed metadata still gets a verdict.
func ComputeMetrics(meta *domain.TrialMetadata) domain.FairnessMetrics {
	return domain.FairnessMetrics{
		DemographicParity:     demographicParity(meta.GenderDistribution),
		DisparateImpactRatio:  disparateImpactRatio(meta.EthnicityDistribution),
		EqualityOfOpportunity: equalityOfOpportunity(meta.AgeDistribution),
	}
}

// demographicParity is 1 - |male - female| after renormalizing the two
// fractions to sum to 1.
func demographicParity(g domain.GenderDistribution) float64 {
	if g.Male <= 0 && g.Female <= 0 {
		return neutralMetric
	}
	male, female := g.Normalized()
	diff := male - female
	if diff < 0 {
		diff = -diff
	}
	return stats.Clamp(1-diff, 0, 1)
}

// disparateImpactRatio is min/max over ethnicity fractions with
// non-negligible mass. Fewer than two such categories yields the
// neutral mid-value: a dataset legitimately reporting one category is
// not evidence of disparate impact.
func disparateImpactRatio(dist map[string]float64) float64 {
	var fractions []float64
	for _, f := range dist {
		if f > negligibleFraction {
			fractions = append(fractions, f)
		}
	}
	if len(fractions) < 2 {
		return neutralMetric
	}
	min, max := stats.MinMax(fractions)
	if max <= 0 {
		return neutralMetric
	}
	return stats.Clamp(min/max, 0, 1)
}

// equalityOfOpportunity maps the observed age span onto [0,1], with
// full credit at 50 years or wider.
func equalityOfOpportunity(a domain.AgeDistribution) float64 {
	span := a.Range()
	if a.Max <= 0 && a.Min <= 0 {
		return neutralMetric
	}
	return stats.Clamp(span/fullCreditAgeSpan, 0, 1)
}
