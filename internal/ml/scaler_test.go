package ml

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStandardScalerFitTransform(t *testing.T) {
	X := [][]float64{
		{1, 10},
		{2, 10},
		{3, 10},
	}

	s := NewStandardScaler()
	scaled, err := s.FitTransform(X)
	require.NoError(t, err)

	// First column standardizes to zero mean, unit-ish spread.
	assert.InDelta(t, 0, scaled[0][0]+scaled[1][0]+scaled[2][0], 1e-9)
	assert.Less(t, scaled[0][0], 0.0)
	assert.Greater(t, scaled[2][0], 0.0)

	// Constant column keeps std 1 so values stay finite and equal.
	assert.InDelta(t, 1.0, s.Std[1], 1e-12)
	assert.InDelta(t, 0, scaled[0][1], 1e-9)
	assert.InDelta(t, 0, scaled[2][1], 1e-9)
}

func TestStandardScalerTransformOne(t *testing.T) {
	s := NewStandardScaler()
	require.NoError(t, s.Fit([][]float64{{0}, {10}}))

	out := s.TransformOne([]float64{5})
	assert.InDelta(t, 0, out[0], 1e-9)
}

func TestStandardScalerEmptyInput(t *testing.T) {
	s := NewStandardScaler()
	assert.Error(t, s.Fit(nil))
}
