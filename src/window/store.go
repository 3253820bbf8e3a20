package window

import (
	"sync"

	"github.com/vigneswarPR/iot-anomaly-detection/src/types"
)

// Store owns every sensor's window. Windows are created lazily on the first
// reading for a sensor_id and live for the process lifetime.
//
// The outer RWMutex only guards the map itself, so unrelated sensors never
// serialize on each other; each slot's own mutex serializes the
// push + readiness check + vector build for that sensor.
type Store struct {
	mu    sync.RWMutex
	slots map[string]*slot

	windowSize int
}

type slot struct {
	mu     sync.Mutex
	window *Window
}

func NewStore(windowSize int) *Store {
	return &Store{
		slots:      make(map[string]*slot),
		windowSize: windowSize,
	}
}

// Update pushes the reading into its sensor's window and, when the window is
// full, returns the feature vector built under the same critical section. The
// returned slice is owned by the caller, so scoring and the ledger commit can
// run with the sensor lock already released.
func (s *Store) Update(r types.Reading) (vector []float64, ready bool) {
	sl := s.slot(r.SensorID)

	sl.mu.Lock()
	defer sl.mu.Unlock()

	sl.window.Push(r)
	if !sl.window.Ready() {
		return nil, false
	}

	vector, err := sl.window.FeatureVector()
	if err != nil {
		// Ready() just returned true under the same lock.
		return nil, false
	}
	return vector, true
}

// Len returns the current window length for a sensor, 0 if unknown.
func (s *Store) Len(sensorID string) int {
	s.mu.RLock()
	sl, ok := s.slots[sensorID]
	s.mu.RUnlock()
	if !ok {
		return 0
	}

	sl.mu.Lock()
	defer sl.mu.Unlock()
	return sl.window.Len()
}

func (s *Store) slot(sensorID string) *slot {
	s.mu.RLock()
	sl, ok := s.slots[sensorID]
	s.mu.RUnlock()
	if ok {
		return sl
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	// Re-check: another goroutine may have created it between the locks.
	if sl, ok = s.slots[sensorID]; !ok {
		sl = &slot{window: New(s.windowSize)}
		s.slots[sensorID] = sl
	}
	return sl
}
