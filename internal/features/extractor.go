// Package features derives the fixed-length numeric vector the models
// consume. Feature order must stay identical between training and
// scoring or predictions are meaningless.
package features

import (
	"math"

	"github.com/fairtrial-bias-server/internal/domain"
	"github.com/fairtrial-bias-server/internal/fairness"
	"github.com/fairtrial-bias-server/internal/stats"
)

// Names is the published feature schema, in extraction order. It is
// persisted with every model artifact and checked before scoring.
var Names = []string{
	"age_mean",
	"age_std",
	"age_range",
	"age_skew",
	"gender_male",
	"gender_female",
	"gender_balance",
	"ethnicity_white",
	"ethnicity_black",
	"ethnicity_asian",
	"ethnicity_other",
	"ethnicity_diversity",
	"sample_size_log",
	"sample_size_norm",
	"eligibility_score",
	"eligibility_var",
	"demographic_parity",
	"disparate_impact_ratio",
	"equality_of_opportunity",
}

// sampleSizeCap is the participant count that saturates the linear
// sample-size feature.
const sampleSizeCap = 1000.0

// Extract maps trial metadata onto the published feature schema. It is
// a pure function; identical metadata always yields an identical vector.
func Extract(meta *domain.TrialMetadata) domain.FeatureVector {
	age := meta.AgeDistribution
	male, female := meta.GenderDistribution.Normalized()
	balance := 1 - math.Abs(male-female)

	white, black, asian, other, diversity := ethnicityFeatures(meta.EthnicityDistribution)

	n := float64(meta.SampleSize)
	eligibility := stats.Clamp(meta.EligibilityScore, 0, 1)
	metrics := fairness.ComputeMetrics(meta)

	return domain.FeatureVector{
		age.Mean,
		age.Std,
		age.Range(),
		ageSkewProxy(age),
		male,
		female,
		balance,
		white,
		black,
		asian,
		other,
		diversity,
		math.Log1p(n),
		math.Min(1, n/sampleSizeCap),
		eligibility,
		eligibility * (1 - eligibility),
		metrics.DemographicParity,
		metrics.DisparateImpactRatio,
		metrics.EqualityOfOpportunity,
	}
}

// CheckCount validates a vector against the artifact's declared schema
// before any model call. A mismatch is a fatal configuration bug.
func CheckCount(v domain.FeatureVector, artifact *domain.ModelArtifact) error {
	if len(v) != artifact.FeatureCount() {
		return domain.NewFeatureMismatchError(len(v), artifact.FeatureCount())
	}
	return nil
}

// ageSkewProxy signals asymmetry of the age distribution: how far the
// mean sits from the midrange, in standard-deviation units.
func ageSkewProxy(a domain.AgeDistribution) float64 {
	if a.Std <= 0 {
		return 0
	}
	mid := (a.Min + a.Max) / 2
	return (a.Mean - mid) / a.Std
}

// ethnicityFeatures renormalizes the distribution to sum to 1, buckets
// it into the major categories, and derives the diversity score
// 1 - max(fraction). Renormalization keeps the vector independent of
// unnormalized upstream totals.
func ethnicityFeatures(dist map[string]float64) (white, black, asian, other, diversity float64) {
	total := 0.0
	for _, f := range dist {
		if f > 0 {
			total += f
		}
	}
	if total <= 0 {
		return 0, 0, 0, 0, 0
	}

	maxFrac := 0.0
	for name, f := range dist {
		if f <= 0 {
			continue
		}
		frac := f / total
		if frac > maxFrac {
			maxFrac = frac
		}
		switch name {
		case "white":
			white += frac
		case "black":
			black += frac
		case "asian":
			asian += frac
		default:
			other += frac
		}
	}
	return white, black, asian, other, 1 - maxFrac
}
