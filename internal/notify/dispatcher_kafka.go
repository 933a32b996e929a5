package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"arida/internal/platform/kafka/producer"
)

// messageProducer is the slice of the Kafka producer the dispatcher needs.
type messageProducer interface {
	ProduceAsync(msg *producer.Message) error
}

// KafkaDispatcher publishes events onto a Kafka topic. Keyed by recipient
// so one user's notifications stay ordered.
type KafkaDispatcher struct {
	producer messageProducer
	topic    string
	logger   *slog.Logger
}

func NewKafkaDispatcher(p *producer.Producer, topic string, logger *slog.Logger) *KafkaDispatcher {
	return &KafkaDispatcher{producer: p, topic: topic, logger: logger}
}

func (d *KafkaDispatcher) Dispatch(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	if err := d.producer.ProduceAsync(&producer.Message{
		Topic: d.topic,
		Key:   []byte(event.RecipientID),
		Value: payload,
		Headers: map[string]string{
			"type": string(event.Type),
		},
	}); err != nil {
		return fmt.Errorf("dispatch notification: %w", err)
	}

	d.logger.DebugContext(ctx, "notification dispatched",
		"type", event.Type,
		"recipient_id", event.RecipientID,
	)
	return nil
}
