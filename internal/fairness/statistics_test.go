package fairness

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fairtrial-bias-server/internal/domain"
)

func TestRunStatisticalTestsBalanced(t *testing.T) {
	meta := &domain.TrialMetadata{
		SampleSize:         300,
		GenderDistribution: domain.GenderDistribution{Male: 0.5, Female: 0.5},
		EthnicityDistribution: map[string]float64{
			"white": 0.25, "black": 0.25, "asian": 0.25, "other": 0.25,
		},
	}

	r := RunStatisticalTests(meta)
	assert.InDelta(t, 0, r.Chi2Gender, 1e-9)
	assert.Greater(t, r.PValueGender, 0.05)
	assert.InDelta(t, 0, r.Chi2Ethnicity, 1e-9)
	assert.Greater(t, r.PValueEthnicity, 0.05)
}

func TestRunStatisticalTestsSkewedGender(t *testing.T) {
	meta := &domain.TrialMetadata{
		SampleSize:         200,
		GenderDistribution: domain.GenderDistribution{Male: 0.9, Female: 0.1},
	}

	r := RunStatisticalTests(meta)
	assert.Greater(t, r.Chi2Gender, 100.0)
	assert.Less(t, r.PValueGender, 0.001)
}

func TestRunStatisticalTestsZeroSampleSize(t *testing.T) {
	meta := &domain.TrialMetadata{
		SampleSize:         0,
		GenderDistribution: domain.GenderDistribution{Male: 0.5, Female: 0.5},
		EthnicityDistribution: map[string]float64{
			"white": 0.5, "black": 0.5,
		},
	}

	// Counts floor at 1 per category, so no division error and the
	// result is a clean no-evidence outcome.
	r := RunStatisticalTests(meta)
	assert.InDelta(t, 0, r.Chi2Gender, 1e-9)
	assert.InDelta(t, 1.0, r.PValueGender, 1e-9)
}

func TestRunStatisticalTestsSingleEthnicityNeutral(t *testing.T) {
	meta := &domain.TrialMetadata{
		SampleSize:            100,
		GenderDistribution:    domain.GenderDistribution{Male: 0.5, Female: 0.5},
		EthnicityDistribution: map[string]float64{"white": 1.0},
	}

	r := RunStatisticalTests(meta)
	assert.InDelta(t, 0.5, r.PValueEthnicity, 1e-9)
	assert.InDelta(t, 0, r.Chi2Ethnicity, 1e-9)
}

func TestRunStatisticalTestsEmptyMetadataNeutral(t *testing.T) {
	r := RunStatisticalTests(&domain.TrialMetadata{})

	// Gender normalizes to 50/50 with floored counts, ethnicity has no
	// categories at all.
	assert.InDelta(t, 1.0, r.PValueGender, 1e-9)
	assert.InDelta(t, 0.5, r.PValueEthnicity, 1e-9)
}
