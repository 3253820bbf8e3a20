package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAverage(t *testing.T) {
	assert.Equal(t, 0.0, Average(nil))
	assert.Equal(t, 2.0, Average([]float64{1, 2, 3}))
}

func TestStandardDeviation(t *testing.T) {
	assert.Equal(t, 0.0, StandardDeviation(nil))
	assert.Equal(t, 0.0, StandardDeviation([]float64{5, 5, 5}))
	assert.InDelta(t, 2.0, StandardDeviation([]float64{2, 4, 4, 4, 5, 5, 7, 9}), 1e-9)
}

func TestQuantile(t *testing.T) {
	xs := []float64{3, 1, 4, 2, 5}

	assert.Equal(t, 0.0, Quantile(nil, 0.5))
	assert.Equal(t, 1.0, Quantile(xs, 0))
	assert.Equal(t, 5.0, Quantile(xs, 1))
	assert.Equal(t, 3.0, Quantile(xs, 0.5))
	assert.InDelta(t, 2.0, Quantile(xs, 0.25), 1e-9)
	assert.InDelta(t, 4.96, Quantile(xs, 0.99), 1e-9)

	// The input is not reordered.
	assert.Equal(t, []float64{3, 1, 4, 2, 5}, xs)
}

func TestComputeAnomalyLevelBands(t *testing.T) {
	assert.Equal(t, NO_ANOMALY, ComputeAnomalyLevel(10, 1, 10))
	assert.Equal(t, NO_ANOMALY, ComputeAnomalyLevel(12, 1, 10))
	assert.Equal(t, MEDIUM, ComputeAnomalyLevel(12.5, 1, 10))
	assert.Equal(t, ANOMALY, ComputeAnomalyLevel(14, 1, 10))
}
