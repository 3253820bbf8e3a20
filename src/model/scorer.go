package model

import (
	"context"
	"errors"

	"github.com/vigneswarPR/iot-anomaly-detection/src/types"
)

var (
	// ErrDimensionMismatch means a vector's length does not match the
	// deployed window-size x features-per-reading configuration. At training
	// or load time this is fatal; at scoring time it isolates to one request.
	ErrDimensionMismatch = errors.New("feature vector dimension mismatch")

	// ErrTrainingDataUnavailable means the normal corpus could not be loaded.
	ErrTrainingDataUnavailable = errors.New("normal training data unavailable")
)

// Scorer maps a lagged feature vector to a verdict. Implementations must be
// deterministic for a fixed frozen model and safe for concurrent use; Score
// performs no internal state mutation.
type Scorer interface {
	Score(ctx context.Context, vector []float64) (types.Verdict, error)
	Dims() int
}
