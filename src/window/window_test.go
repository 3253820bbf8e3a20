package window

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vigneswarPR/iot-anomaly-detection/src/types"
)

func reading(id string, temp, hum, pres float64) types.Reading {
	return types.Reading{
		SensorID:    id,
		Temperature: temp,
		Humidity:    hum,
		Pressure:    pres,
	}
}

func TestWindowNotReadyBeforeCapacity(t *testing.T) {
	w := New(3)

	assert.False(t, w.Ready())
	_, err := w.FeatureVector()
	assert.ErrorIs(t, err, ErrInsufficientHistory)

	w.Push(reading("s1", 20, 40, 1000))
	w.Push(reading("s1", 21, 41, 1001))
	assert.False(t, w.Ready())
	assert.Equal(t, 2, w.Len())

	_, err = w.FeatureVector()
	assert.ErrorIs(t, err, ErrInsufficientHistory)
}

func TestWindowFeatureVectorNewestToOldest(t *testing.T) {
	w := New(3)
	w.Push(reading("s1", 1, 2, 3))
	w.Push(reading("s1", 4, 5, 6))
	w.Push(reading("s1", 7, 8, 9))

	require.True(t, w.Ready())
	vec, err := w.FeatureVector()
	require.NoError(t, err)

	// Newest reading first, (temperature, humidity, pressure) per reading.
	assert.Equal(t, []float64{7, 8, 9, 4, 5, 6, 1, 2, 3}, vec)
}

func TestWindowEvictsOldestOnOverflow(t *testing.T) {
	w := New(3)
	for i := 0; i < 10; i++ {
		w.Push(reading("s1", float64(i), float64(i+100), float64(i+200)))
		assert.LessOrEqual(t, w.Len(), 3, "length must never exceed capacity")
	}

	vec, err := w.FeatureVector()
	require.NoError(t, err)
	// Last three pushes were i = 7, 8, 9; newest first.
	assert.Equal(t, []float64{9, 109, 209, 8, 108, 208, 7, 107, 207}, vec)
}

func TestWindowSlidesByOne(t *testing.T) {
	w := New(3)
	for i := 1; i <= 3; i++ {
		w.Push(reading("s1", float64(i), 0, 0))
	}
	w.Push(reading("s1", 4, 0, 0))

	vec, err := w.FeatureVector()
	require.NoError(t, err)
	assert.Equal(t, []float64{4, 0, 0, 3, 0, 0, 2, 0, 0}, vec)
}

func TestFeatureVectorIdempotent(t *testing.T) {
	w := New(3)
	w.Push(reading("s1", 1, 2, 3))
	w.Push(reading("s1", 4, 5, 6))
	w.Push(reading("s1", 7, 8, 9))

	first, err := w.FeatureVector()
	require.NoError(t, err)
	second, err := w.FeatureVector()
	require.NoError(t, err)

	assert.Equal(t, first, second)
}
