package window

import (
	"errors"

	"github.com/vigneswarPR/iot-anomaly-detection/src/types"
)

// ErrInsufficientHistory is returned when a feature vector is requested from a
// window that has not yet seen enough readings.
var ErrInsufficientHistory = errors.New("insufficient history for feature vector")

// FeaturesPerReading is the number of raw fields each reading contributes to
// the feature vector, in fixed order: temperature, humidity, pressure.
const FeaturesPerReading = 3

// Window is a bounded FIFO of the most recent readings for one sensor.
// Arrival order is preserved as-is; there is no reordering or deduplication by
// timestamp. Not safe for concurrent use; Store serializes access per sensor.
type Window struct {
	capacity int
	readings []types.Reading
}

func New(capacity int) *Window {
	return &Window{
		capacity: capacity,
		readings: make([]types.Reading, 0, capacity),
	}
}

// Push appends the reading, evicting the oldest when the window is full.
func (w *Window) Push(r types.Reading) {
	if len(w.readings) == w.capacity {
		copy(w.readings, w.readings[1:])
		w.readings[len(w.readings)-1] = r
		return
	}
	w.readings = append(w.readings, r)
}

func (w *Window) Len() int {
	return len(w.readings)
}

// Ready reports whether the window holds enough readings to build a vector.
func (w *Window) Ready() bool {
	return len(w.readings) == w.capacity
}

// FeatureVector flattens the window newest-to-oldest, each reading contributing
// (temperature, humidity, pressure). Pure: no side effect, identical results
// between pushes.
func (w *Window) FeatureVector() ([]float64, error) {
	if !w.Ready() {
		return nil, ErrInsufficientHistory
	}

	features := make([]float64, 0, w.capacity*FeaturesPerReading)
	for i := len(w.readings) - 1; i >= 0; i-- {
		r := w.readings[i]
		features = append(features, r.Temperature, r.Humidity, r.Pressure)
	}
	return features, nil
}
