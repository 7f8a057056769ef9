// Package training generates labeled synthetic trials, fits the model
// stack, evaluates it, and owns artifact persistence and the serve-time
// model lifecycle.
package training

import (
	"fmt"
	"math/rand"

	"github.com/fairtrial-bias-server/internal/domain"
)

// Archetype mixture proportions. Balanced trials are the unbiased
// class; the other four archetypes carry label 1.
const (
	fracBalanced     = 0.40
	fracAgeSkewed    = 0.20
	fracImbalanced   = 0.20
	fracUnderpowered = 0.10
	fracSevere       = 0.10
)

// GenerateSyntheticTrials builds n labeled TrialMetadata samples across
// the five training archetypes at fixed mixture proportions. Output is
// deterministic for a given seed.
func GenerateSyntheticTrials(n int, seed int64) ([]*domain.TrialMetadata, []int) {
	rng := rand.New(rand.NewSource(seed))

	counts := []int{
		int(float64(n) * fracBalanced),
		int(float64(n) * fracAgeSkewed),
		int(float64(n) * fracImbalanced),
		int(float64(n) * fracUnderpowered),
	}
	used := 0
	for _, c := range counts {
		used += c
	}
	counts = append(counts, n-used)

	generators := []func(*rand.Rand, int) *domain.TrialMetadata{
		balancedTrial,
		ageSkewedTrial,
		imbalancedTrial,
		underpoweredTrial,
		severeBiasTrial,
	}
	labels := []int{0, 1, 1, 1, 1}

	metas := make([]*domain.TrialMetadata, 0, n)
	y := make([]int, 0, n)
	id := 0
	for g, count := range counts {
		for i := 0; i < count; i++ {
			metas = append(metas, generators[g](rng, id))
			y = append(y, labels[g])
			id++
		}
	}
	return metas, y
}

func uniform(rng *rand.Rand, lo, hi float64) float64 {
	return lo + rng.Float64()*(hi-lo)
}

func uniformInt(rng *rand.Rand, lo, hi int) int {
	return lo + rng.Intn(hi-lo+1)
}

// balancedTrial is a well-run study: even gender split, diverse
// ethnicity mix, wide age range, healthy sample size.
func balancedTrial(rng *rand.Rand, id int) *domain.TrialMetadata {
	male := uniform(rng, 0.45, 0.55)
	white := uniform(rng, 0.20, 0.30)
	black := uniform(rng, 0.18, 0.28)
	asian := uniform(rng, 0.18, 0.28)
	n := uniformInt(rng, 200, 1000)
	minAge := uniform(rng, 18, 22)
	maxAge := uniform(rng, 75, 90)
	return newSynthetic(id, domain.TrialMetadata{
		AgeDistribution: domain.AgeDistribution{
			Mean: uniform(rng, 45, 55),
			Std:  uniform(rng, 12, 18),
			Min:  minAge,
			Max:  maxAge,
		},
		GenderDistribution: domain.GenderDistribution{Male: male, Female: 1 - male},
		EthnicityDistribution: map[string]float64{
			"white": white,
			"black": black,
			"asian": asian,
			"other": 1 - white - black - asian,
		},
		SampleSize:       n,
		EligibilityScore: uniform(rng, 0.85, 0.98),
	})
}

// ageSkewedTrial clusters participants in a narrow young age band.
func ageSkewedTrial(rng *rand.Rand, id int) *domain.TrialMetadata {
	male := uniform(rng, 0.45, 0.55)
	minAge := uniform(rng, 20, 25)
	return newSynthetic(id, domain.TrialMetadata{
		AgeDistribution: domain.AgeDistribution{
			Mean: uniform(rng, 27, 34),
			Std:  uniform(rng, 2, 5),
			Min:  minAge,
			Max:  minAge + uniform(rng, 8, 18),
		},
		GenderDistribution: domain.GenderDistribution{Male: male, Female: 1 - male},
		EthnicityDistribution: map[string]float64{
			"white": 0.28, "black": 0.26, "asian": 0.24, "other": 0.22,
		},
		SampleSize:       uniformInt(rng, 150, 700),
		EligibilityScore: uniform(rng, 0.80, 0.95),
	})
}

// imbalancedTrial over-represents one gender and one ethnicity.
func imbalancedTrial(rng *rand.Rand, id int) *domain.TrialMetadata {
	male := uniform(rng, 0.75, 0.95)
	white := uniform(rng, 0.80, 0.95)
	rest := (1 - white) / 3
	minAge := uniform(rng, 20, 30)
	return newSynthetic(id, domain.TrialMetadata{
		AgeDistribution: domain.AgeDistribution{
			Mean: uniform(rng, 40, 55),
			Std:  uniform(rng, 8, 14),
			Min:  minAge,
			Max:  minAge + uniform(rng, 35, 55),
		},
		GenderDistribution: domain.GenderDistribution{Male: male, Female: 1 - male},
		EthnicityDistribution: map[string]float64{
			"white": white, "black": rest, "asian": rest, "other": rest,
		},
		SampleSize:       uniformInt(rng, 150, 800),
		EligibilityScore: uniform(rng, 0.80, 0.95),
	})
}

// underpoweredTrial is demographically reasonable but far too small.
func underpoweredTrial(rng *rand.Rand, id int) *domain.TrialMetadata {
	male := uniform(rng, 0.40, 0.60)
	minAge := uniform(rng, 18, 25)
	return newSynthetic(id, domain.TrialMetadata{
		AgeDistribution: domain.AgeDistribution{
			Mean: uniform(rng, 40, 55),
			Std:  uniform(rng, 10, 16),
			Min:  minAge,
			Max:  minAge + uniform(rng, 40, 60),
		},
		GenderDistribution: domain.GenderDistribution{Male: male, Female: 1 - male},
		EthnicityDistribution: map[string]float64{
			"white": 0.30, "black": 0.25, "asian": 0.25, "other": 0.20,
		},
		SampleSize:       uniformInt(rng, 5, 25),
		EligibilityScore: uniform(rng, 0.75, 0.95),
	})
}

// severeBiasTrial compounds every failure mode at once.
func severeBiasTrial(rng *rand.Rand, id int) *domain.TrialMetadata {
	male := uniform(rng, 0.90, 1.00)
	white := uniform(rng, 0.92, 1.00)
	minAge := uniform(rng, 25, 35)
	return newSynthetic(id, domain.TrialMetadata{
		AgeDistribution: domain.AgeDistribution{
			Mean: uniform(rng, 30, 40),
			Std:  uniform(rng, 1.5, 4),
			Min:  minAge,
			Max:  minAge + uniform(rng, 4, 12),
		},
		GenderDistribution: domain.GenderDistribution{Male: male, Female: 1 - male},
		EthnicityDistribution: map[string]float64{
			"white": white, "other": 1 - white,
		},
		SampleSize:       uniformInt(rng, 10, 40),
		EligibilityScore: uniform(rng, 0.60, 0.80),
	})
}

func newSynthetic(id int, meta domain.TrialMetadata) *domain.TrialMetadata {
	meta.TrialID = fmt.Sprintf("synthetic-%06d", id)
	meta.Filename = "synthetic"
	meta.ParticipantCount = meta.SampleSize
	return &meta
}
