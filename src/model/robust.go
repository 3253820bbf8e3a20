package model

import (
	"context"
	"fmt"
	"math"

	"github.com/vigneswarPR/iot-anomaly-detection/src/types"
	"github.com/vigneswarPR/iot-anomaly-detection/src/utils"
)

// RobustModel is a one-class outlier detector over robust-scaled vectors. Each
// dimension is centered on the training median and scaled by the training IQR;
// a vector's distance is the RMS of its scaled components, and the decision
// boundary is the (1 - contamination) quantile of the training distances.
//
// Score returns threshold - distance, so more negative means more anomalous
// and a negative score classifies as an outlier. Scoring is pure and
// deterministic for a frozen model.
type RobustModel struct {
	Center        []float64
	Scale         []float64
	Threshold     float64
	Contamination float64
}

// Train fits the model over purely normal exemplars. Every vector must have
// length dims; contamination is the assumed prior fraction of outliers in the
// corpus and sets the decision boundary, it is not learned.
func Train(corpus [][]float64, contamination float64, dims int) (*RobustModel, error) {
	if len(corpus) == 0 {
		return nil, fmt.Errorf("%w: empty corpus", ErrTrainingDataUnavailable)
	}
	if contamination <= 0 || contamination >= 0.5 {
		return nil, fmt.Errorf("contamination must be in (0, 0.5), got %g", contamination)
	}

	for i, v := range corpus {
		if len(v) != dims {
			return nil, fmt.Errorf("%w: training vector %d has %d features, expected %d",
				ErrDimensionMismatch, i, len(v), dims)
		}
	}

	// Per-dimension robust scaler: median center, IQR scale.
	center := make([]float64, dims)
	scale := make([]float64, dims)
	column := make([]float64, len(corpus))
	for d := 0; d < dims; d++ {
		for i, v := range corpus {
			column[i] = v[d]
		}
		center[d] = utils.Quantile(column, 0.5)
		scale[d] = utils.Quantile(column, 0.75) - utils.Quantile(column, 0.25)
	}

	m := &RobustModel{
		Center:        center,
		Scale:         scale,
		Contamination: contamination,
	}

	distances := make([]float64, len(corpus))
	for i, v := range corpus {
		distances[i] = m.distance(v)
	}
	m.Threshold = utils.Quantile(distances, 1-contamination)

	return m, nil
}

func (m *RobustModel) Dims() int {
	return len(m.Center)
}

func (m *RobustModel) Score(_ context.Context, vector []float64) (types.Verdict, error) {
	if len(vector) != m.Dims() {
		return types.Verdict{}, fmt.Errorf("%w: got %d features, expected %d",
			ErrDimensionMismatch, len(vector), m.Dims())
	}

	score := m.Threshold - m.distance(vector)
	return types.Verdict{
		IsAnomaly: score < 0,
		Score:     score,
	}, nil
}

// distance is the RMS of robust-scaled deviations. A zero-IQR dimension is
// only centered, matching the usual robust-scaler fallback.
func (m *RobustModel) distance(vector []float64) float64 {
	var sum float64
	for i, v := range vector {
		dev := v - m.Center[i]
		if m.Scale[i] != 0 {
			dev /= m.Scale[i]
		}
		sum += dev * dev
	}
	return math.Sqrt(sum / float64(len(vector)))
}
