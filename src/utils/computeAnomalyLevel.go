package utils

import "math"

type AnomalyLevel string

const (
	NO_ANOMALY AnomalyLevel = "NO_ANOMALY"
	MEDIUM     AnomalyLevel = "MEDIUM"
	ANOMALY    AnomalyLevel = "ANOMALY"
)

func (a AnomalyLevel) String() string {
	switch a {
	case NO_ANOMALY:
		return "NO_ANOMALY"
	case MEDIUM:
		return "MEDIUM"
	case ANOMALY:
		return "ANOMALY"
	default:
		return "Unknown"
	}
}

// ComputeAnomalyLevel bands a value by its deviation from the population
// average: within 2 std is NO_ANOMALY, 2-3 std is MEDIUM, beyond is ANOMALY.
func ComputeAnomalyLevel(value, std, avg float64) AnomalyLevel {
	deviation := math.Abs(value - avg)

	if deviation <= 2*std {
		return NO_ANOMALY
	}

	if deviation > 2*std && deviation <= 3*std {
		return MEDIUM
	}

	return ANOMALY
}
