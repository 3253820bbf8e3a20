package pipeline

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vigneswarPR/iot-anomaly-detection/src/ledger"
	"github.com/vigneswarPR/iot-anomaly-detection/src/model"
	"github.com/vigneswarPR/iot-anomaly-detection/src/types"
	"github.com/vigneswarPR/iot-anomaly-detection/src/window"
)

// AnomalyType is the fixed label written to every ledger record.
const AnomalyType = "Environmental Anomaly (Time Series)"

// ErrInvalidReading flags a reading rejected before any state was touched.
var ErrInvalidReading = errors.New("invalid reading")

// Result is the synchronous answer for one processed reading. Score is set
// whenever scoring occurred; Position is set on a successful commit; Err
// carries the cause for REJECTED and ANOMALY_LOG_FAILED.
type Result struct {
	Outcome   types.Outcome
	SensorID  string
	Timestamp int64
	Score     *float64
	Position  *uint64
	Err       error
}

// Pipeline drives one reading at a time through window update, scoring and,
// on a positive verdict, the ledger commit. Safe for concurrent callers:
// window mutation is serialized per sensor inside the store, scoring is pure,
// and the ledger append runs with no window lock held.
type Pipeline struct {
	store         *window.Store
	scorer        model.Scorer
	ledger        ledger.Client
	commitTimeout time.Duration
}

func New(store *window.Store, scorer model.Scorer, lc ledger.Client, commitTimeout time.Duration) *Pipeline {
	return &Pipeline{
		store:         store,
		scorer:        scorer,
		ledger:        lc,
		commitTimeout: commitTimeout,
	}
}

// Process runs the per-reading state machine to a terminal outcome. The
// reading's ReceivedAt is assigned here if unset.
func (p *Pipeline) Process(ctx context.Context, r types.Reading) Result {
	if r.ReceivedAt == 0 {
		r.ReceivedAt = time.Now().Unix()
	}

	if err := validate(r); err != nil {
		readingsTotal.WithLabelValues(string(types.OutcomeRejected)).Inc()
		return Result{
			Outcome:   types.OutcomeRejected,
			SensorID:  r.SensorID,
			Timestamp: r.ReceivedAt,
			Err:       err,
		}
	}

	// Push + readiness + vector build happen under the sensor's lock; the
	// vector comes back as a private copy so everything after this line runs
	// with the lock released.
	vector, ready := p.store.Update(r)
	if !ready {
		log.WithFields(log.Fields{
			"sensor_id": r.SensorID,
			"have":      p.store.Len(r.SensorID),
		}).Info("building history for sensor")
		readingsTotal.WithLabelValues(string(types.OutcomeWarmingUp)).Inc()
		return Result{
			Outcome:   types.OutcomeWarmingUp,
			SensorID:  r.SensorID,
			Timestamp: r.ReceivedAt,
		}
	}

	verdict, err := p.scorer.Score(ctx, vector)
	if err != nil {
		outcome := types.OutcomeRejected
		if errors.Is(err, model.ErrDimensionMismatch) {
			// Configuration bug: the window geometry and the frozen model
			// disagree. Isolate to this request, never crash the pipeline.
			log.WithError(err).Error("feature vector dimension mismatch")
		} else {
			log.WithError(err).WithField("sensor_id", r.SensorID).Error("scoring failed")
		}
		readingsTotal.WithLabelValues(string(outcome)).Inc()
		return Result{
			Outcome:   outcome,
			SensorID:  r.SensorID,
			Timestamp: r.ReceivedAt,
			Err:       err,
		}
	}

	if !verdict.IsAnomaly {
		log.WithFields(log.Fields{
			"sensor_id": r.SensorID,
			"score":     verdict.Score,
		}).Debug("normal reading")
		readingsTotal.WithLabelValues(string(types.OutcomeNormal)).Inc()
		return Result{
			Outcome:   types.OutcomeNormal,
			SensorID:  r.SensorID,
			Timestamp: r.ReceivedAt,
			Score:     &verdict.Score,
		}
	}

	record := buildRecord(r, verdict)
	log.WithFields(log.Fields{
		"sensor_id": r.SensorID,
		"score":     verdict.Score,
	}).Warn("anomaly detected, committing to ledger")

	commitCtx, cancel := context.WithTimeout(ctx, p.commitTimeout)
	defer cancel()

	start := time.Now()
	position, err := p.ledger.Append(commitCtx, record)
	appendSeconds.Observe(time.Since(start).Seconds())

	if err != nil {
		// Surfaced, never retried: a timed-out append may already be
		// committed, and a retry would duplicate the record.
		log.WithError(err).WithField("sensor_id", r.SensorID).Error("failed to log anomaly on ledger")
		readingsTotal.WithLabelValues(string(types.OutcomeAnomalyLogFailed)).Inc()
		return Result{
			Outcome:   types.OutcomeAnomalyLogFailed,
			SensorID:  r.SensorID,
			Timestamp: r.ReceivedAt,
			Score:     &verdict.Score,
			Err:       err,
		}
	}

	log.WithFields(log.Fields{
		"sensor_id": r.SensorID,
		"position":  position,
	}).Info("anomaly logged on ledger")
	readingsTotal.WithLabelValues(string(types.OutcomeAnomalyLogged)).Inc()
	return Result{
		Outcome:   types.OutcomeAnomalyLogged,
		SensorID:  r.SensorID,
		Timestamp: r.ReceivedAt,
		Score:     &verdict.Score,
		Position:  &position,
	}
}

// ListAnomalies exposes the ledger's full scan to the query boundary.
func (p *Pipeline) ListAnomalies(ctx context.Context) ([]ledger.CommittedRecord, error) {
	return p.ledger.ListAll(ctx)
}

func validate(r types.Reading) error {
	if r.SensorID == "" {
		return fmt.Errorf("%w: missing sensor_id", ErrInvalidReading)
	}
	for name, v := range map[string]float64{
		"temperature": r.Temperature,
		"humidity":    r.Humidity,
		"pressure":    r.Pressure,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %s is not a finite number", ErrInvalidReading, name)
		}
	}
	return nil
}

func buildRecord(r types.Reading, verdict types.Verdict) types.AnomalyRecord {
	explanation := fmt.Sprintf(
		"Detected via lagged-feature outlier model (Score: %.2f). Current: Temp=%g, Humidity=%g, Pressure=%g. Contextual change based on recent readings.",
		verdict.Score, r.Temperature, r.Humidity, r.Pressure,
	)
	return types.AnomalyRecord{
		Timestamp:   r.ReceivedAt,
		SensorID:    r.SensorID,
		DataValue:   int64(math.Round(r.Temperature)),
		AnomalyType: AnomalyType,
		Explanation: explanation,
	}
}
