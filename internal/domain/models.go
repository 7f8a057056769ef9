package domain

import (
	"fmt"
	"time"
)

// AgeDistribution summarizes the age column of a participant dataset.
type AgeDistribution struct {
	Mean float64 `json:"mean"`
	Std  float64 `json:"std"`
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
}

// Range returns the observed age span in years.
func (a AgeDistribution) Range() float64 {
	return a.Max - a.Min
}

// GenderDistribution holds male/female fractions. Upstream data is
// untrusted: the fractions may not sum to 1 and every consumer must
// renormalize before use.
type GenderDistribution struct {
	Male   float64 `json:"male"`
	Female float64 `json:"female"`
}

// Normalized returns male/female fractions rescaled to sum to 1.
// A zero total yields the neutral 50/50 split.
func (g GenderDistribution) Normalized() (male, female float64) {
	total := g.Male + g.Female
	if total <= 0 {
		return 0.5, 0.5
	}
	return g.Male / total, g.Female / total
}

// TrialMetadata is the structured demographic summary of an uploaded
// participant dataset. It is produced once at the preprocessing boundary
// and validated there; downstream components may rely on non-negative
// fractions but must tolerate unnormalized totals.
type TrialMetadata struct {
	TrialID               string             `json:"trial_id"`
	Filename              string             `json:"filename"`
	ParticipantCount      int                `json:"participant_count"`
	AgeDistribution       AgeDistribution    `json:"age_distribution"`
	GenderDistribution    GenderDistribution `json:"gender_distribution"`
	EthnicityDistribution map[string]float64 `json:"ethnicity_distribution"`
	SampleSize            int                `json:"sample_size"`
	EligibilityScore      float64            `json:"eligibility_score"`
	RawDataHash           string             `json:"raw_data_hash"`
}

// Validate ensures the metadata is safe for the scoring pipeline.
// Fractions may be unnormalized but never negative.
func (m *TrialMetadata) Validate() error {
	if m.SampleSize < 0 {
		return fmt.Errorf("trial metadata validation: sample size %d is negative", m.SampleSize)
	}
	if m.GenderDistribution.Male < 0 || m.GenderDistribution.Female < 0 {
		return fmt.Errorf("trial metadata validation: negative gender fraction")
	}
	for name, frac := range m.EthnicityDistribution {
		if frac < 0 {
			return fmt.Errorf("trial metadata validation: negative fraction for ethnicity %q", name)
		}
	}
	if m.EligibilityScore < 0 || m.EligibilityScore > 1 {
		return fmt.Errorf("trial metadata validation: eligibility score %.3f outside [0,1]", m.EligibilityScore)
	}
	if m.AgeDistribution.Max < m.AgeDistribution.Min {
		return fmt.Errorf("trial metadata validation: age max %.1f below min %.1f",
			m.AgeDistribution.Max, m.AgeDistribution.Min)
	}
	return nil
}

// FeatureVector is a fixed-length ordered numeric representation of
// TrialMetadata. Extraction order must stay byte-identical to the order
// the models were trained with.
type FeatureVector []float64

// FairnessMetrics are the three demographic fairness axes, each in [0,1].
type FairnessMetrics struct {
	DemographicParity     float64 `json:"demographic_parity"`
	DisparateImpactRatio  float64 `json:"disparate_impact_ratio"`
	EqualityOfOpportunity float64 `json:"equality_of_opportunity"`
}

// StatisticalTestResult holds chi-square goodness-of-fit statistics for
// the gender and ethnicity distributions. A p-value of 0.5 is the
// uninformative default used when a test is degenerate; it carries no
// evidence either way.
type StatisticalTestResult struct {
	Chi2Gender      float64 `json:"chi2_gender"`
	PValueGender    float64 `json:"p_value_gender"`
	Chi2Ethnicity   float64 `json:"chi2_ethnicity"`
	PValueEthnicity float64 `json:"p_value_ethnicity"`
}

// BiasVerdict is the final report of a bias-detection run. Constructed
// fresh per scoring call and never mutated after return; the caller owns
// persistence.
type BiasVerdict struct {
	Decision         Decision              `json:"decision"`
	FairnessScore    float64               `json:"fairness_score"`
	OutlierScore     float64               `json:"outlier_score"`
	IsOutlier        bool                  `json:"is_outlier"`
	BiasProbability  float64               `json:"bias_probability"`
	FairnessMetrics  FairnessMetrics       `json:"fairness_metrics"`
	StatisticalTests StatisticalTestResult `json:"statistical_tests"`
	Recommendations  []string              `json:"recommendations"`
	RejectionSummary string                `json:"rejection_summary,omitempty"`
}

// EvaluationReport records held-out test-set performance of the trained
// ensemble, stored alongside the model artifacts.
type EvaluationReport struct {
	Accuracy        float64 `json:"accuracy"`
	Precision       float64 `json:"precision"`
	Recall          float64 `json:"recall"`
	F1              float64 `json:"f1"`
	TruePositives   int     `json:"true_positives"`
	TrueNegatives   int     `json:"true_negatives"`
	FalsePositives  int     `json:"false_positives"`
	FalseNegatives  int     `json:"false_negatives"`
	TrainedAt       time.Time `json:"trained_at"`
	TrainingSamples int       `json:"training_samples"`
}

// VerdictRecord is a persisted audit row for a completed scoring call.
type VerdictRecord struct {
	ID          string      `json:"id"`
	TrialID     string      `json:"trial_id"`
	Filename    string      `json:"filename"`
	RawDataHash string      `json:"raw_data_hash"`
	Verdict     BiasVerdict `json:"verdict"`
	CreatedAt   time.Time   `json:"created_at"`
}
