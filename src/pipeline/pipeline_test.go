package pipeline

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vigneswarPR/iot-anomaly-detection/src/ledger"
	"github.com/vigneswarPR/iot-anomaly-detection/src/model"
	"github.com/vigneswarPR/iot-anomaly-detection/src/types"
	"github.com/vigneswarPR/iot-anomaly-detection/src/window"
)

// normalCorpus mirrors the baseline used across the scorer tests:
// (22C, 45%, 1013hPa) with small deterministic jitter.
func normalCorpus(n int) [][]float64 {
	base := []float64{22, 45, 1013, 22, 45, 1013, 22, 45, 1013}
	jitter := []float64{0.5, 1.0, 0.8}

	corpus := make([][]float64, n)
	for i := 0; i < n; i++ {
		v := make([]float64, len(base))
		step := float64(i%11-5) / 5
		for d := range base {
			v[d] = base[d] + step*jitter[d%3]
		}
		corpus[i] = v
	}
	return corpus
}

func newTestPipeline(t *testing.T) (*Pipeline, *ledger.MemoryLedger) {
	t.Helper()

	m, err := model.Train(normalCorpus(200), 0.01, 9)
	require.NoError(t, err)

	lc := ledger.NewMemoryLedger()
	p := New(window.NewStore(3), m, lc, 5*time.Second)
	return p, lc
}

func baseline(sensorID string) types.Reading {
	return types.Reading{
		SensorID:    sensorID,
		Temperature: 22,
		Humidity:    45,
		Pressure:    1013,
		ReceivedAt:  1700000000,
	}
}

func TestRejectsReadingWithoutSensorID(t *testing.T) {
	p, _ := newTestPipeline(t)

	result := p.Process(context.Background(), types.Reading{Temperature: 22, Humidity: 45, Pressure: 1013})
	assert.Equal(t, types.OutcomeRejected, result.Outcome)
	assert.ErrorIs(t, result.Err, ErrInvalidReading)

	// Rejection must not have consumed a window slot.
	r := p.Process(context.Background(), baseline("s1"))
	assert.Equal(t, types.OutcomeWarmingUp, r.Outcome)
}

func TestWarmingUpBelowWindowSize(t *testing.T) {
	p, _ := newTestPipeline(t)

	for i := 0; i < 2; i++ {
		result := p.Process(context.Background(), baseline("s1"))
		assert.Equal(t, types.OutcomeWarmingUp, result.Outcome)
		assert.Nil(t, result.Score, "no scoring may occur while warming up")
	}
}

func TestNormalReadingDoesNotTouchLedger(t *testing.T) {
	p, lc := newTestPipeline(t)

	var result Result
	for i := 0; i < 3; i++ {
		result = p.Process(context.Background(), baseline("s1"))
	}

	assert.Equal(t, types.OutcomeNormal, result.Outcome)
	require.NotNil(t, result.Score)
	assert.GreaterOrEqual(t, *result.Score, 0.0)

	records, err := lc.ListAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestAnomalyIsLoggedWithRoundedTemperature(t *testing.T) {
	p, lc := newTestPipeline(t)

	p.Process(context.Background(), baseline("s1"))
	p.Process(context.Background(), baseline("s1"))
	p.Process(context.Background(), baseline("s1"))

	spike := baseline("s1")
	spike.Temperature = 102.4 // +80C over baseline
	result := p.Process(context.Background(), spike)

	assert.Equal(t, types.OutcomeAnomalyLogged, result.Outcome)
	require.NotNil(t, result.Score)
	assert.Less(t, *result.Score, 0.0)
	require.NotNil(t, result.Position)

	records, err := lc.ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "s1", records[0].SensorID)
	assert.Equal(t, int64(102), records[0].DataValue)
	assert.Equal(t, AnomalyType, records[0].AnomalyType)
	assert.Equal(t, spike.ReceivedAt, records[0].Timestamp)
	assert.Contains(t, records[0].Explanation, "Temp=102.4")
}

func TestLedgerFailureSurfacesButPipelineStaysAlive(t *testing.T) {
	p, lc := newTestPipeline(t)

	p.Process(context.Background(), baseline("s1"))
	p.Process(context.Background(), baseline("s1"))
	p.Process(context.Background(), baseline("s1"))

	lc.FailNext(1, ledger.ErrUnavailable)
	spike := baseline("s1")
	spike.Temperature = 102
	result := p.Process(context.Background(), spike)

	assert.Equal(t, types.OutcomeAnomalyLogFailed, result.Outcome)
	assert.ErrorIs(t, result.Err, ledger.ErrUnavailable)
	assert.Nil(t, result.Position)

	records, err := lc.ListAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, records, "a failed commit must leave no record behind")

	// The reading was still consumed: the spike sits in the window as a lag,
	// so the next baseline still scores anomalous — and this time the
	// recovered ledger accepts the commit.
	next := p.Process(context.Background(), baseline("s1"))
	assert.Equal(t, types.OutcomeAnomalyLogged, next.Outcome)

	// The spike remains a lag for one more reading, then is fully flushed.
	assert.Equal(t, types.OutcomeAnomalyLogged, p.Process(context.Background(), baseline("s1")).Outcome)
	flushed := p.Process(context.Background(), baseline("s1"))
	assert.Equal(t, types.OutcomeNormal, flushed.Outcome)
}

func TestWindowSlidesAcrossVerdicts(t *testing.T) {
	p, lc := newTestPipeline(t)

	p.Process(context.Background(), baseline("s1"))
	p.Process(context.Background(), baseline("s1"))
	p.Process(context.Background(), baseline("s1"))

	spike := baseline("s1")
	spike.Temperature = 102
	assert.Equal(t, types.OutcomeAnomalyLogged, p.Process(context.Background(), spike).Outcome)

	// The spike stays in the window as a lag for the next two readings.
	assert.Equal(t, types.OutcomeAnomalyLogged, p.Process(context.Background(), baseline("s1")).Outcome)

	records, err := lc.ListAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestConcurrentSensorsKeepIndependentState(t *testing.T) {
	p, _ := newTestPipeline(t)
	const perSensor = 50

	var wg sync.WaitGroup
	var mu sync.Mutex
	outcomes := map[string]map[types.Outcome]int{
		"s1": {},
		"s2": {},
	}

	for _, id := range []string{"s1", "s2"} {
		for i := 0; i < perSensor; i++ {
			wg.Add(1)
			go func(id string) {
				defer wg.Done()
				result := p.Process(context.Background(), baseline(id))
				mu.Lock()
				outcomes[id][result.Outcome]++
				mu.Unlock()
			}(id)
		}
	}
	wg.Wait()

	for _, id := range []string{"s1", "s2"} {
		// No lost pushes: exactly W-1 readings per sensor saw a non-full window.
		assert.Equal(t, 2, outcomes[id][types.OutcomeWarmingUp], id)
		assert.Equal(t, perSensor-2, outcomes[id][types.OutcomeNormal], id)
	}
}
