package queue

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/WPMirror/internal/domain"
	"github.com/WPMirror/internal/infra/metrics"
	"github.com/segmentio/kafka-go"
)

// MessageReader is the subset of *kafka.Reader the consumer uses.
type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

type KafkaConsumer struct {
	reader      MessageReader
	dlqProducer domain.EventProducer
}

func NewKafkaConsumer(brokers []string, topic string, groupID string, dlqProducer domain.EventProducer) *KafkaConsumer {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 10e3, // 10KB
		MaxBytes: 10e6, // 10MB
	})
	slog.Info("Kafka Consumer initialized", "brokers", brokers, "topic", topic, "group", groupID)
	return &KafkaConsumer{
		reader:      r,
		dlqProducer: dlqProducer,
	}
}

func newKafkaConsumerWithReader(r MessageReader, dlqProducer domain.EventProducer) *KafkaConsumer {
	return &KafkaConsumer{reader: r, dlqProducer: dlqProducer}
}

type MessageHandler func(ctx context.Context, entry *domain.Entry) error

// Start reads until the reader fails or ctx is cancelled. Entries the
// handler rejects go to the dead letter topic.
func (c *KafkaConsumer) Start(ctx context.Context, handler MessageHandler) {
	for {
		m, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() == nil {
				slog.Error("Error reading kafka message", "error", err)
			}
			return
		}

		var entry domain.Entry
		if err := json.Unmarshal(m.Value, &entry); err != nil {
			slog.Error("Error unmarshaling entry", "error", err, "offset", m.Offset)
			continue
		}

		slog.Debug("Received entry from Kafka", "id", entry.ID, "partition", m.Partition)

		if err := handler(ctx, &entry); err != nil {
			slog.Error("Error handling entry event", "id", entry.ID, "error", err)

			if c.dlqProducer != nil {
				slog.Info("Publishing failed event to DLQ", "entry_id", entry.ID)
				if dlqErr := c.dlqProducer.Publish(ctx, &entry); dlqErr != nil {
					slog.Error("Failed to publish to DLQ", "entry_id", entry.ID, "error", dlqErr)
				} else {
					metrics.DLQMessagesPublished.WithLabelValues(entry.Site).Inc()
				}
			}
		}
	}
}

func (c *KafkaConsumer) Close() error {
	return c.reader.Close()
}
