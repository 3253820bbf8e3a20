package types

// Reading is a single multivariate sensor sample. Immutable once created.
type Reading struct {
	SensorID    string  `json:"sensor_id"`
	Temperature float64 `json:"temperature"`
	Humidity    float64 `json:"humidity"`
	Pressure    float64 `json:"pressure"`
	ReceivedAt  int64   `json:"received_at"` // Unix seconds, assigned at ingestion
}

// Verdict is the model's classification of one feature vector. Score follows
// the decision-function convention: more negative means more anomalous, and
// IsAnomaly is true iff the score falls below the model's boundary.
type Verdict struct {
	IsAnomaly bool    `json:"is_anomaly"`
	Score     float64 `json:"score"`
}

// AnomalyRecord is the 5-tuple persisted on the ledger. Immutable once
// committed; global order is ledger append order, not the Timestamp field.
type AnomalyRecord struct {
	Timestamp int64  `json:"timestamp"` // Unix seconds (the reading's ReceivedAt)
	SensorID  string `json:"sensor_id"`
	// DataValue is a single representative scalar: the triggering reading's
	// temperature rounded half away from zero. The full raw values and the
	// score are preserved in Explanation.
	DataValue   int64  `json:"data_value"`
	AnomalyType string `json:"anomaly_type"`
	Explanation string `json:"explanation"`
}

// Outcome tags the terminal state of one processed reading.
type Outcome string

const (
	OutcomeWarmingUp        Outcome = "WARMING_UP"
	OutcomeNormal           Outcome = "NORMAL"
	OutcomeAnomalyLogged    Outcome = "ANOMALY_LOGGED"
	OutcomeAnomalyLogFailed Outcome = "ANOMALY_LOG_FAILED"
	OutcomeRejected         Outcome = "REJECTED"
)
