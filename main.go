package main

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vigneswarPR/iot-anomaly-detection/src/api"
	"github.com/vigneswarPR/iot-anomaly-detection/src/config"
	"github.com/vigneswarPR/iot-anomaly-detection/src/ledger"
	"github.com/vigneswarPR/iot-anomaly-detection/src/model"
	"github.com/vigneswarPR/iot-anomaly-detection/src/mqtt"
	"github.com/vigneswarPR/iot-anomaly-detection/src/pipeline"
	"github.com/vigneswarPR/iot-anomaly-detection/src/window"
)

func main() {
	log.SetFormatter(&log.JSONFormatter{})

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("invalid configuration")
	}
	if err := cfg.Validate(); err != nil {
		log.WithError(err).Fatal("invalid configuration")
	}

	startupCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// The pipeline cannot correctly serve any request without a scoring model
	// and a reachable ledger, so both failures terminate the process.
	scorer, err := buildScorer(startupCtx, cfg)
	if err != nil {
		log.WithError(err).Fatal("failed to initialize anomaly scorer")
	}

	lc, err := buildLedger(startupCtx, cfg)
	if err != nil {
		log.WithError(err).Fatal("failed to connect to anomaly ledger")
	}
	log.WithField("backend", cfg.Ledger.Backend).Info("connected to anomaly ledger")

	store := window.NewStore(cfg.Window.Size)
	p := pipeline.New(store, scorer, lc, cfg.Ledger.CommitTimeout)

	if cfg.MQTT.BrokerURL != "" {
		ing, err := mqtt.NewIngestor(cfg.MQTT.BrokerURL, cfg.MQTT.Topic, p)
		if err != nil {
			log.WithError(err).Fatal("failed to start MQTT ingestion")
		}
		defer ing.Close()
	}

	router := api.NewHandler(p).Router()
	log.WithField("port", cfg.Port).Info("starting IoT anomaly detection backend")
	if err := router.Run(":" + cfg.Port); err != nil {
		log.WithError(err).Fatal("server stopped")
	}
}

func buildScorer(ctx context.Context, cfg *config.Config) (model.Scorer, error) {
	switch cfg.Model.Backend {
	case "sagemaker":
		return model.NewSageMakerScorer(ctx, cfg.Model.SageMakerEndpoint, cfg.Model.SageMakerRegion, cfg.Window.Dims())
	default:
		return model.TrainOrLoad(
			cfg.Model.ArtifactPath,
			cfg.Model.NormalDataPath,
			cfg.Model.Contamination,
			cfg.Window.Size,
			cfg.Window.FeaturesPerReading,
		)
	}
}

func buildLedger(ctx context.Context, cfg *config.Config) (ledger.Client, error) {
	switch cfg.Ledger.Backend {
	case "dynamo":
		return ledger.NewDynamoLedger(ctx, cfg.Ledger.Region, cfg.Ledger.TableName)
	case "postgres":
		return ledger.NewPostgresLedger(cfg.Ledger.PostgresDSN)
	default:
		log.Warn("using in-memory ledger; records will not survive a restart")
		return ledger.NewMemoryLedger(), nil
	}
}
