package model

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// Artifact is the frozen, versioned form of a trained RobustModel. It is the
// only thing the scorer loads at process start; no weights change at runtime.
type Artifact struct {
	Version            string    `json:"version"`
	CreatedAt          time.Time `json:"created_at"`
	WindowSize         int       `json:"window_size"`
	FeaturesPerReading int       `json:"features_per_reading"`
	Center             []float64 `json:"center"`
	Scale              []float64 `json:"scale"`
	Threshold          float64   `json:"threshold"`
	Contamination      float64   `json:"contamination"`
}

// SaveArtifact freezes a trained model to path.
func SaveArtifact(path string, m *RobustModel, windowSize, featuresPerReading int) (*Artifact, error) {
	a := &Artifact{
		Version:            uuid.NewString(),
		CreatedAt:          time.Now().UTC(),
		WindowSize:         windowSize,
		FeaturesPerReading: featuresPerReading,
		Center:             m.Center,
		Scale:              m.Scale,
		Threshold:          m.Threshold,
		Contamination:      m.Contamination,
	}

	data, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal model artifact: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return nil, fmt.Errorf("failed to write model artifact: %w", err)
	}
	return a, nil
}

// LoadArtifact reads a frozen model from path and validates it against the
// deployed window configuration. A dimension mismatch here is a configuration
// error and must be treated as fatal by the caller.
func LoadArtifact(path string, expectedDims int) (*RobustModel, *Artifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read model artifact %s: %w", path, err)
	}

	var a Artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, nil, fmt.Errorf("failed to parse model artifact %s: %w", path, err)
	}

	if len(a.Center) != expectedDims || len(a.Scale) != expectedDims {
		return nil, nil, fmt.Errorf("%w: artifact %s has %d features, deployment expects %d",
			ErrDimensionMismatch, a.Version, len(a.Center), expectedDims)
	}

	m := &RobustModel{
		Center:        a.Center,
		Scale:         a.Scale,
		Threshold:     a.Threshold,
		Contamination: a.Contamination,
	}
	return m, &a, nil
}

// TrainOrLoad loads the artifact when it exists, otherwise trains a new model
// from the normal corpus file and freezes it. Both paths end with a model
// whose dimensions match expectedDims, or an error the caller treats as fatal.
func TrainOrLoad(artifactPath, normalDataPath string, contamination float64, windowSize, featuresPerReading int) (*RobustModel, error) {
	expectedDims := windowSize * featuresPerReading

	if _, err := os.Stat(artifactPath); err == nil {
		m, a, err := LoadArtifact(artifactPath, expectedDims)
		if err != nil {
			return nil, err
		}
		log.WithFields(log.Fields{
			"path":    artifactPath,
			"version": a.Version,
		}).Info("anomaly detection model loaded")
		return m, nil
	}

	log.WithField("corpus", normalDataPath).Info("training new anomaly detection model")

	corpus, err := LoadNormalCorpus(normalDataPath)
	if err != nil {
		return nil, err
	}

	m, err := Train(corpus, contamination, expectedDims)
	if err != nil {
		return nil, err
	}

	a, err := SaveArtifact(artifactPath, m, windowSize, featuresPerReading)
	if err != nil {
		return nil, err
	}
	log.WithFields(log.Fields{
		"path":    artifactPath,
		"version": a.Version,
		"corpus":  len(corpus),
	}).Info("anomaly detection model trained and saved")
	return m, nil
}

// LoadNormalCorpus reads a JSON array of fixed-length feature vectors.
func LoadNormalCorpus(path string) ([][]float64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTrainingDataUnavailable, err)
	}

	var corpus [][]float64
	if err := json.Unmarshal(data, &corpus); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTrainingDataUnavailable, err)
	}
	return corpus, nil
}
