package model

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// normalCorpus builds n lagged vectors jittered around the baseline
// (22C, 45%, 1013hPa) repeated across the three lag positions.
func normalCorpus(n int) [][]float64 {
	base := []float64{22, 45, 1013, 22, 45, 1013, 22, 45, 1013}
	jitter := []float64{0.5, 1.0, 0.8}

	corpus := make([][]float64, n)
	for i := 0; i < n; i++ {
		v := make([]float64, len(base))
		step := float64(i%11-5) / 5 // -1 .. 1, deterministic
		for d := range base {
			v[d] = base[d] + step*jitter[d%3]
		}
		corpus[i] = v
	}
	return corpus
}

func trainedModel(t *testing.T) *RobustModel {
	t.Helper()
	m, err := Train(normalCorpus(200), 0.01, 9)
	require.NoError(t, err)
	return m
}

func TestTrainRejectsMismatchedVectors(t *testing.T) {
	corpus := normalCorpus(10)
	corpus[4] = []float64{1, 2, 3} // wrong length

	_, err := Train(corpus, 0.01, 9)
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestTrainRejectsEmptyCorpus(t *testing.T) {
	_, err := Train(nil, 0.01, 9)
	assert.ErrorIs(t, err, ErrTrainingDataUnavailable)
}

func TestScoreDimensionMismatch(t *testing.T) {
	m := trainedModel(t)

	for _, n := range []int{0, 3, 8, 10} {
		_, err := m.Score(context.Background(), make([]float64, n))
		assert.ErrorIs(t, err, ErrDimensionMismatch, "length %d must be rejected, not truncated or padded", n)
	}
}

func TestScoreBaselineIsNormal(t *testing.T) {
	m := trainedModel(t)

	verdict, err := m.Score(context.Background(), []float64{22, 45, 1013, 22, 45, 1013, 22, 45, 1013})
	require.NoError(t, err)
	assert.False(t, verdict.IsAnomaly)
	assert.GreaterOrEqual(t, verdict.Score, 0.0, "baseline score must be on the normal side")
}

func TestScoreExtremeTemperatureIsAnomaly(t *testing.T) {
	m := trainedModel(t)

	// Current reading +80C over baseline, lags still normal.
	verdict, err := m.Score(context.Background(), []float64{102, 45, 1013, 22, 45, 1013, 22, 45, 1013})
	require.NoError(t, err)
	assert.True(t, verdict.IsAnomaly)
	assert.Less(t, verdict.Score, 0.0, "anomalous score must be negative")
}

func TestScoreDeterministic(t *testing.T) {
	m := trainedModel(t)
	vec := []float64{23, 46, 1012, 22, 45, 1013, 21.5, 44, 1014}

	first, err := m.Score(context.Background(), vec)
	require.NoError(t, err)
	second, err := m.Score(context.Background(), vec)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestContaminationMovesTheBoundary(t *testing.T) {
	corpus := normalCorpus(200)

	tight, err := Train(corpus, 0.2, 9)
	require.NoError(t, err)
	loose, err := Train(corpus, 0.01, 9)
	require.NoError(t, err)

	assert.Less(t, tight.Threshold, loose.Threshold,
		"higher contamination assumes more outliers in the corpus and tightens the boundary")
}
