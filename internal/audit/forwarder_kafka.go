package audit

import (
	"encoding/json"
	"log/slog"
	"time"

	"arida/internal/platform/kafka/producer"
)

// KafkaForwarder ships persisted audit entries onto a Kafka topic for
// downstream consumers (compliance exports, SIEM). Delivery is async and
// best effort.
type KafkaForwarder struct {
	producer *producer.Producer
	topic    string
	logger   *slog.Logger
}

func NewKafkaForwarder(p *producer.Producer, topic string, logger *slog.Logger) *KafkaForwarder {
	return &KafkaForwarder{producer: p, topic: topic, logger: logger}
}

// entryPayload is the wire shape of a forwarded entry.
type entryPayload struct {
	ID         string            `json:"id"`
	Timestamp  time.Time         `json:"timestamp"`
	Action     string            `json:"action"`
	ActorID    string            `json:"actor_id"`
	ActorName  string            `json:"actor_name,omitempty"`
	ActorRole  string            `json:"actor_role,omitempty"`
	TargetType string            `json:"target_type,omitempty"`
	TargetID   string            `json:"target_id,omitempty"`
	TargetName string            `json:"target_name,omitempty"`
	Device     string            `json:"device,omitempty"`
	Details    map[string]string `json:"details,omitempty"`
}

func (f *KafkaForwarder) Forward(entry Entry) {
	payload, err := json.Marshal(entryPayload{
		ID:         entry.ID.String(),
		Timestamp:  entry.Timestamp,
		Action:     entry.Action,
		ActorID:    entry.ActorID,
		ActorName:  entry.ActorName,
		ActorRole:  entry.ActorRole,
		TargetType: entry.TargetType,
		TargetID:   entry.TargetID,
		TargetName: entry.TargetName,
		Device:     entry.Device,
		Details:    entry.Details,
	})
	if err != nil {
		f.logger.Error("marshal audit entry for kafka", "error", err)
		return
	}

	// Key by target so all actions on one petition or appeal stay ordered
	// within a partition.
	if err := f.producer.ProduceAsync(&producer.Message{
		Topic: f.topic,
		Key:   []byte(entry.TargetID),
		Value: payload,
	}); err != nil {
		f.logger.Warn("forward audit entry", "error", err)
	}
}
