package fairness

import (
	"github.com/fairtrial-bias-server/internal/domain"
	"github.com/fairtrial-bias-server/internal/stats"
)

// neutralPValue is returned when a test is degenerate. Callers must
// treat it as "no evidence either way", never as fair or unfair.
const neutralPValue = 0.5

// minCategoryCount floors derived counts so a zero expected count never
// breaks the test, including at sample_size = 0.
const minCategoryCount = 1.0

// RunStatisticalTests performs chi-square goodness-of-fit tests of the
// gender split against 50/50 and of the ethnicity split against a
// uniform distribution over the reported categories.
func RunStatisticalTests(meta *domain.TrialMetadata) domain.StatisticalTestResult {
	result := domain.StatisticalTestResult{
		PValueGender:    neutralPValue,
		PValueEthnicity: neutralPValue,
	}

	n := float64(meta.SampleSize)

	male, female := meta.GenderDistribution.Normalized()
	observed := []float64{
		floorCount(male * n),
		floorCount(female * n),
	}
	total := observed[0] + observed[1]
	expected := []float64{total / 2, total / 2}
	if chi2, p, err := stats.ChiSquareGoodnessOfFit(observed, expected); err == nil {
		result.Chi2Gender = chi2
		result.PValueGender = p
	}

	var ethObserved []float64
	for _, f := range meta.EthnicityDistribution {
		if f > negligibleFraction {
			ethObserved = append(ethObserved, floorCount(f*n))
		}
	}
	if len(ethObserved) >= 2 {
		ethTotal := 0.0
		for _, c := range ethObserved {
			ethTotal += c
		}
		uniform := ethTotal / float64(len(ethObserved))
		ethExpected := make([]float64, len(ethObserved))
		for i := range ethExpected {
			ethExpected[i] = uniform
		}
		if chi2, p, err := stats.ChiSquareGoodnessOfFit(ethObserved, ethExpected); err == nil {
			result.Chi2Ethnicity = chi2
			result.PValueEthnicity = p
		}
	}
	return result
}

func floorCount(c float64) float64 {
	if c < minCategoryCount {
		return minCategoryCount
	}
	return c
}
