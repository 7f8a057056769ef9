// Package ml implements the trained model primitives behind bias
// detection: feature scaling, tree ensembles, gradient boosting, and
// isolation-forest outlier scoring. All models are deterministic for a
// fixed seed and serialize with encoding/gob.
package ml

import (
	"errors"
	"math"
)

// StandardScaler standardizes each feature column to zero mean and unit
// variance. Fit on training data only; the same fitted parameters must
// transform every vector scored afterwards.
type StandardScaler struct {
	Mean []float64
	Std  []float64
}

// NewStandardScaler returns an unfitted scaler.
func NewStandardScaler() *StandardScaler { return &StandardScaler{} }

// Fit estimates per-column mean and standard deviation. Zero-variance
// columns get std 1 so that transforming maps them to 0.
func (s *StandardScaler) Fit(X [][]float64) error {
	if len(X) == 0 {
		return errors.New("scaler: empty X")
	}
	r, c := len(X), len(X[0])
	s.Mean = make([]float64, c)
	s.Std = make([]float64, c)
	for j := 0; j < c; j++ {
		for i := 0; i < r; i++ {
			s.Mean[j] += X[i][j]
		}
		s.Mean[j] /= float64(r)
		v := 0.0
		for i := 0; i < r; i++ {
			d := X[i][j] - s.Mean[j]
			v += d * d
		}
		v /= float64(r)
		s.Std[j] = math.Sqrt(v)
		if s.Std[j] == 0 {
			s.Std[j] = 1
		}
	}
	return nil
}

// Transform standardizes every row of X with the fitted parameters.
func (s *StandardScaler) Transform(X [][]float64) [][]float64 {
	Y := make([][]float64, len(X))
	for i := range X {
		Y[i] = s.TransformOne(X[i])
	}
	return Y
}

// TransformOne standardizes a single vector.
func (s *StandardScaler) TransformOne(x []float64) []float64 {
	out := make([]float64, len(x))
	for j := range x {
		if j < len(s.Mean) {
			out[j] = (x[j] - s.Mean[j]) / s.Std[j]
		}
	}
	return out
}

// FitTransform fits the scaler and transforms X in one step.
func (s *StandardScaler) FitTransform(X [][]float64) ([][]float64, error) {
	if err := s.Fit(X); err != nil {
		return nil, err
	}
	return s.Transform(X), nil
}
