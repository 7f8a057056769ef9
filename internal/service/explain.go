package service

import (
	"fmt"
	"strings"

	"github.com/fairtrial-bias-server/internal/domain"
)

// Recommendation trigger thresholds.
const (
	recParityMin          = 0.7
	recDisparateImpactMin = 0.6
	recOpportunityMin     = 0.6
	recBiasProbMax        = 0.5

	// minSampleSize is the smallest cohort considered statistically
	// meaningful for a fairness assessment.
	minSampleSize = 30
)

// recommendations produces the ordered advice list for a verdict. The
// list is never empty: a clean run gets the meets-criteria line.
func recommendations(metrics domain.FairnessMetrics, tests domain.StatisticalTestResult, biasProbability float64, isOutlier bool, sampleSize int) []string {
	var recs []string
	if metrics.DemographicParity < recParityMin {
		recs = append(recs, "Improve gender balance in participant recruitment")
	}
	if metrics.DisparateImpactRatio < recDisparateImpactMin {
		recs = append(recs, "Increase ethnic diversity to reduce disparate impact")
	}
	if metrics.EqualityOfOpportunity < recOpportunityMin {
		recs = append(recs, "Expand the age range of enrolled participants")
	}
	if tests.PValueGender < pSignificant {
		recs = append(recs, "Gender distribution deviates significantly from an even split")
	}
	if tests.PValueEthnicity < pSignificant {
		recs = append(recs, "Ethnicity distribution deviates significantly from a uniform spread")
	}
	if sampleSize < minSampleSize {
		recs = append(recs, fmt.Sprintf("Increase sample size: %d participants is below the minimum of %d", sampleSize, minSampleSize))
	}
	if isOutlier {
		recs = append(recs, "Participant demographics are unusual compared to typical trial populations")
	}
	if biasProbability > recBiasProbMax {
		recs = append(recs, "Dataset resembles known biased recruitment patterns")
	}
	if len(recs) == 0 {
		recs = append(recs, "Trial meets fairness criteria")
	}
	return recs
}

// rejectionSummary lists every concrete threshold a rejected trial
// violated, so a reviewer never has to re-derive the verdict. Empty for
// non-REJECT decisions.
func rejectionSummary(decision domain.Decision, score, biasProbability float64, metrics domain.FairnessMetrics, sampleSize int) string {
	if decision != domain.REJECT {
		return ""
	}
	var violations []string
	if score < reviewScore {
		violations = append(violations, fmt.Sprintf("fairness score %.2f below the %.2f review threshold", score, reviewScore))
	}
	if biasProbability > recBiasProbMax {
		violations = append(violations, fmt.Sprintf("bias probability %.2f above %.2f", biasProbability, recBiasProbMax))
	}
	if metrics.DemographicParity < recParityMin {
		violations = append(violations, fmt.Sprintf("gender imbalance: demographic parity %.2f below %.2f", metrics.DemographicParity, recParityMin))
	}
	if metrics.DisparateImpactRatio < recDisparateImpactMin {
		violations = append(violations, fmt.Sprintf("disparate impact ratio %.2f below %.2f", metrics.DisparateImpactRatio, recDisparateImpactMin))
	}
	if sampleSize < minSampleSize {
		violations = append(violations, fmt.Sprintf("sample size %d below the minimum of %d", sampleSize, minSampleSize))
	}
	if len(violations) == 0 {
		return "Rejected by decision policy"
	}
	return "Rejected: " + strings.Join(violations, "; ")
}
