package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	log "github.com/sirupsen/logrus"

	"github.com/vigneswarPR/iot-anomaly-detection/src/pipeline"
	"github.com/vigneswarPR/iot-anomaly-detection/src/types"
)

// Ingestor subscribes to sensor readings published over MQTT and feeds them
// through the same pipeline as the HTTP boundary. Payloads are the same JSON
// shape as POST /sensor_data.
type Ingestor struct {
	client   paho.Client
	pipeline *pipeline.Pipeline
	topic    string
}

func NewIngestor(brokerURL, topic string, p *pipeline.Pipeline) (*Ingestor, error) {
	ing := &Ingestor{pipeline: p, topic: topic}

	opts := paho.NewClientOptions()
	opts.AddBroker(brokerURL)
	opts.SetClientID(fmt.Sprintf("anomaly-ingestor-%d", time.Now().Unix()))
	opts.SetAutoReconnect(true)
	opts.OnConnect = func(client paho.Client) {
		log.WithField("topic", topic).Info("connected to MQTT broker, subscribing")
		token := client.Subscribe(topic, 1, ing.handleMessage)
		token.Wait()
		if err := token.Error(); err != nil {
			log.WithError(err).Error("MQTT subscribe failed")
		}
	}
	opts.OnConnectionLost = func(client paho.Client, err error) {
		log.WithError(err).Warn("MQTT connection lost")
	}

	client := paho.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker %s: %w", brokerURL, token.Error())
	}

	ing.client = client
	return ing, nil
}

func (i *Ingestor) handleMessage(_ paho.Client, msg paho.Message) {
	var reading types.Reading
	if err := json.Unmarshal(msg.Payload(), &reading); err != nil {
		log.WithError(err).WithField("topic", msg.Topic()).Warn("dropping unparseable MQTT reading")
		return
	}

	result := i.pipeline.Process(context.Background(), reading)
	if result.Err != nil {
		log.WithError(result.Err).WithFields(log.Fields{
			"sensor_id": reading.SensorID,
			"outcome":   result.Outcome,
		}).Warn("MQTT reading not fully processed")
	}
}

func (i *Ingestor) Close() {
	i.client.Disconnect(250)
}
