package notifier

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"passportwatch/pkg/availability"
	"passportwatch/pkg/logger"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// HitEvent is the JSON payload published for each hit
type HitEvent struct {
	RunID     string           `json:"run_id,omitempty"`
	TargetURL string           `json:"target_url"`
	Hit       availability.Hit `json:"hit"`
}

// KafkaNotifier publishes hits as events on a topic
type KafkaNotifier struct {
	writer    messageWriter
	targetURL string
}

// NewKafkaNotifier creates a publisher for broker and topic
func NewKafkaNotifier(broker, topic, targetURL string) *KafkaNotifier {
	return &KafkaNotifier{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(broker),
			Topic:                  topic,
			Balancer:               &kafka.LeastBytes{},
			AllowAutoTopicCreation: false,
		},
		targetURL: targetURL,
	}
}

func newKafkaNotifierWithWriter(writer messageWriter, targetURL string) *KafkaNotifier {
	return &KafkaNotifier{writer: writer, targetURL: targetURL}
}

// Name implements Alerter
func (k *KafkaNotifier) Name() string {
	return "kafka"
}

// Close shuts down the underlying writer
func (k *KafkaNotifier) Close() error {
	return k.writer.Close()
}

// Alert implements Alerter. Events are keyed by run id so one run's hits stay
// on one partition.
func (k *KafkaNotifier) Alert(ctx context.Context, hit availability.Hit) error {
	event := HitEvent{
		RunID:     logger.RunIDFromContext(ctx),
		TargetURL: k.targetURL,
		Hit:       hit,
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	return k.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.RunID),
		Value: payload,
		Time:  time.Now().UTC(),
	})
}
