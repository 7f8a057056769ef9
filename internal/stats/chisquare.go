package stats

import (
	"errors"
	"math"
)

// ErrDegenerate indicates a goodness-of-fit test could not be computed
// from the given counts (fewer than two categories, or a zero expected
// count). Callers recover with a neutral default rather than failing.
var ErrDegenerate = errors.New("stats: degenerate chi-square input")

// ChiSquareGoodnessOfFit runs Pearson's chi-square test of observed
// counts against expected counts and returns the statistic and p-value.
func ChiSquareGoodnessOfFit(observed, expected []float64) (chi2, p float64, err error) {
	if len(observed) != len(expected) || len(observed) < 2 {
		return 0, 0, ErrDegenerate
	}
	for i := range observed {
		if expected[i] <= 0 {
			return 0, 0, ErrDegenerate
		}
		d := observed[i] - expected[i]
		chi2 += d * d / expected[i]
	}
	df := len(observed) - 1
	p = ChiSquareSurvival(chi2, float64(df))
	return chi2, p, nil
}

// ChiSquareSurvival returns P(X > x) for a chi-square distribution with
// df degrees of freedom, i.e. the upper regularized incomplete gamma
// function Q(df/2, x/2).
func ChiSquareSurvival(x, df float64) float64 {
	if x <= 0 || df <= 0 {
		return 1
	}
	return regularizedGammaQ(df/2, x/2)
}

// regularizedGammaQ computes Q(a, x) = 1 - P(a, x) using the series
// expansion for x < a+1 and the continued fraction otherwise
// (Numerical Recipes 6.2).
func regularizedGammaQ(a, x float64) float64 {
	if x < 0 || a <= 0 {
		return 1
	}
	if x == 0 {
		return 1
	}
	if x < a+1 {
		return 1 - gammaPSeries(a, x)
	}
	return gammaQContinuedFraction(a, x)
}

const (
	gammaMaxIter = 500
	gammaEps     = 3e-14
)

// gammaPSeries evaluates P(a, x) by its series representation.
func gammaPSeries(a, x float64) float64 {
	lg, _ := math.Lgamma(a)
	ap := a
	sum := 1.0 / a
	del := sum
	for n := 0; n < gammaMaxIter; n++ {
		ap++
		del *= x / ap
		sum += del
		if math.Abs(del) < math.Abs(sum)*gammaEps {
			break
		}
	}
	return sum * math.Exp(-x+a*math.Log(x)-lg)
}

// gammaQContinuedFraction evaluates Q(a, x) by its continued fraction
// representation using modified Lentz's method.
func gammaQContinuedFraction(a, x float64) float64 {
	lg, _ := math.Lgamma(a)
	const fpmin = 1e-300
	b := x + 1 - a
	c := 1 / fpmin
	d := 1 / b
	h := d
	for i := 1; i <= gammaMaxIter; i++ {
		an := -float64(i) * (float64(i) - a)
		b += 2
		d = an*d + b
		if math.Abs(d) < fpmin {
			d = fpmin
		}
		c = b + an/c
		if math.Abs(c) < fpmin {
			c = fpmin
		}
		d = 1 / d
		del := d * c
		h *= del
		if math.Abs(del-1) < gammaEps {
			break
		}
	}
	return math.Exp(-x+a*math.Log(x)-lg) * h
}
