package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/WPMirror/internal/domain"
	"github.com/segmentio/kafka-go"
)

// MessageWriter is the subset of *kafka.Writer the producer uses.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type KafkaProducer struct {
	writer MessageWriter
}

func NewKafkaProducer(brokers []string, topic string) *KafkaProducer {
	w := &kafka.Writer{
		Addr:     kafka.TCP(brokers...),
		Topic:    topic,
		Balancer: &kafka.Hash{}, // same entry id always lands on the same partition
	}
	slog.Info("Kafka Producer initialized", "brokers", brokers, "topic", topic)
	return &KafkaProducer{writer: w}
}

func newKafkaProducerWithWriter(w MessageWriter) *KafkaProducer {
	return &KafkaProducer{writer: w}
}

func (p *KafkaProducer) Publish(ctx context.Context, entry *domain.Entry) error {
	msg, err := entryMessage(entry)
	if err != nil {
		return err
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		slog.Error("Failed to write to kafka", "error", err)
		return err
	}

	slog.Debug("Published entry to Kafka", "id", entry.ID, "site", entry.Site)
	return nil
}

func (p *KafkaProducer) PublishBatch(ctx context.Context, entries []domain.Entry) error {
	if len(entries) == 0 {
		return nil
	}

	msgs := make([]kafka.Message, 0, len(entries))
	for i := range entries {
		msg, err := entryMessage(&entries[i])
		if err != nil {
			return err
		}
		msgs = append(msgs, msg)
	}

	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		slog.Error("Failed to write batch to kafka", "count", len(msgs), "error", err)
		return err
	}

	slog.Debug("Published entry batch to Kafka", "count", len(msgs))
	return nil
}

func (p *KafkaProducer) Close() error {
	return p.writer.Close()
}

func entryMessage(entry *domain.Entry) (kafka.Message, error) {
	payload, err := json.Marshal(entry)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("failed to marshal entry %s: %w", entry.ID, err)
	}
	return kafka.Message{
		Key:   []byte(entry.ID),
		Value: payload,
	}, nil
}
