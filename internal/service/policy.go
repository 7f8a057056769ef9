package service

import "github.com/fairtrial-bias-server/internal/domain"

// Decision policy thresholds. The tiers are evaluated strictly in
// order; the strong-balance tier deliberately outranks the raw
// aggregate score, which a high eligibility value can inflate while
// demographics stay excellent.
const (
	strongParityMin          = 0.90
	strongOpportunityMin     = 0.80
	strongDisparateImpactMin = 0.25
	strongBiasProbMax        = 0.45

	acceptHighScore   = 0.85
	acceptHighBiasMax = 0.25
	acceptScore       = 0.65
	reviewScore       = 0.60
)

// decide maps the aggregated signals onto a terminal verdict. First
// matching tier wins.
func decide(score, biasProbability float64, isOutlier bool, metrics domain.FairnessMetrics) domain.Decision {
	strongBalance := metrics.DemographicParity >= strongParityMin &&
		metrics.EqualityOfOpportunity >= strongOpportunityMin &&
		metrics.DisparateImpactRatio >= strongDisparateImpactMin &&
		!isOutlier &&
		biasProbability < strongBiasProbMax

	switch {
	case strongBalance:
		if score >= reviewScore {
			return domain.ACCEPT
		}
		return domain.REVIEW
	case score >= acceptHighScore && !isOutlier && biasProbability < acceptHighBiasMax:
		return domain.ACCEPT
	case score >= acceptScore && !isOutlier:
		return domain.ACCEPT
	case score >= reviewScore:
		return domain.REVIEW
	default:
		return domain.REJECT
	}
}
