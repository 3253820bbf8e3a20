package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port   string
	Window WindowConfig
	Model  ModelConfig
	Ledger LedgerConfig
	MQTT   MQTTConfig
}

// WindowConfig fixes the lagged-feature geometry. The deployed model must have
// been trained with the same values; mismatches are fatal at startup.
type WindowConfig struct {
	Size               int // readings per window (current + lags)
	FeaturesPerReading int // temperature, humidity, pressure
}

// Dims is the expected feature-vector length.
func (w WindowConfig) Dims() int {
	return w.Size * w.FeaturesPerReading
}

type ModelConfig struct {
	Backend           string // "robust" or "sagemaker"
	ArtifactPath      string
	NormalDataPath    string
	Contamination     float64
	SageMakerEndpoint string
	SageMakerRegion   string
}

type LedgerConfig struct {
	Backend       string // "dynamo", "postgres" or "memory"
	TableName     string
	Region        string
	PostgresDSN   string
	CommitTimeout time.Duration
}

type MQTTConfig struct {
	BrokerURL string // empty disables the MQTT ingestion adapter
	Topic     string
}

// Load reads the environment. A malformed numeric value is an error, not a
// silent fallback: a typo must not quietly change the deployed window
// geometry or decision boundary.
func Load() (*Config, error) {
	windowSize, err := getEnvInt("WINDOW_SIZE", 3)
	if err != nil {
		return nil, err
	}
	featuresPerReading, err := getEnvInt("FEATURES_PER_READING", 3)
	if err != nil {
		return nil, err
	}
	contamination, err := getEnvFloat("CONTAMINATION", 0.01)
	if err != nil {
		return nil, err
	}
	commitTimeoutSeconds, err := getEnvInt("LEDGER_COMMIT_TIMEOUT_SECONDS", 120)
	if err != nil {
		return nil, err
	}

	return &Config{
		Port: getEnv("PORT", "5000"),
		Window: WindowConfig{
			Size:               windowSize,
			FeaturesPerReading: featuresPerReading,
		},
		Model: ModelConfig{
			Backend:           getEnv("MODEL_BACKEND", "robust"),
			ArtifactPath:      getEnv("MODEL_PATH", "anomaly_detection_model.json"),
			NormalDataPath:    getEnv("NORMAL_DATA_FILE", "normal_training_data_with_lags.json"),
			Contamination:     contamination,
			SageMakerEndpoint: getEnv("SAGEMAKER_ENDPOINT_NAME", ""),
			SageMakerRegion:   getEnv("SAGEMAKER_REGION", "eu-west-1"),
		},
		Ledger: LedgerConfig{
			Backend:       getEnv("LEDGER_BACKEND", "memory"),
			TableName:     getEnv("LEDGER_TABLE_NAME", "AnomalyLedger"),
			Region:        getEnv("LEDGER_REGION", "eu-west-1"),
			PostgresDSN:   getEnv("LEDGER_POSTGRES_DSN", ""),
			CommitTimeout: time.Duration(commitTimeoutSeconds) * time.Second,
		},
		MQTT: MQTTConfig{
			BrokerURL: getEnv("MQTT_BROKER_URL", ""),
			Topic:     getEnv("MQTT_TOPIC", "sensors/+/data"),
		},
	}, nil
}

// Validate rejects combinations the process cannot serve with.
func (c *Config) Validate() error {
	if c.Window.Size < 1 {
		return fmt.Errorf("WINDOW_SIZE must be >= 1, got %d", c.Window.Size)
	}
	if c.Window.FeaturesPerReading != 3 {
		return fmt.Errorf("FEATURES_PER_READING must be 3 (temperature, humidity, pressure), got %d", c.Window.FeaturesPerReading)
	}
	if c.Model.Contamination <= 0 || c.Model.Contamination >= 0.5 {
		return fmt.Errorf("CONTAMINATION must be in (0, 0.5), got %g", c.Model.Contamination)
	}
	switch c.Model.Backend {
	case "robust":
	case "sagemaker":
		if c.Model.SageMakerEndpoint == "" {
			return fmt.Errorf("SAGEMAKER_ENDPOINT_NAME is required for the sagemaker model backend")
		}
	default:
		return fmt.Errorf("unknown MODEL_BACKEND %q", c.Model.Backend)
	}
	switch c.Ledger.Backend {
	case "dynamo", "memory":
	case "postgres":
		if c.Ledger.PostgresDSN == "" {
			return fmt.Errorf("LEDGER_POSTGRES_DSN is required for the postgres ledger backend")
		}
	default:
		return fmt.Errorf("unknown LEDGER_BACKEND %q", c.Ledger.Backend)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return n, nil
}

func getEnvFloat(key string, defaultValue float64) (float64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return f, nil
}
