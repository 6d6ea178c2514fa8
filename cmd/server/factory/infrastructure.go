// Package factory provides dependency injection constructors for the mirror service.
package factory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/WPMirror/internal/infra/queue"
	"github.com/WPMirror/pkg/config"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/fx"
)

// NewMongoClient creates a MongoDB client with lifecycle management.
func NewMongoClient(lc fx.Lifecycle, cfg *config.Config) (*mongo.Client, error) {
	if cfg.MongoURI == "" {
		return nil, errors.New("mongo URI not configured")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	opts := options.Client().
		ApplyURI(cfg.MongoURI).
		SetAppName("wp-mirror").
		SetServerSelectionTimeout(5 * time.Second)
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return client.Disconnect(ctx)
		},
	})

	return client, nil
}

// NewMainKafkaProducer creates the producer for changed entries.
func NewMainKafkaProducer(cfg *config.Config, lc fx.Lifecycle) (*queue.KafkaProducer, error) {
	return newProducer(cfg, lc, cfg.KafkaTopic)
}

// NewDLQProducer creates the producer for entries the index rejected.
func NewDLQProducer(cfg *config.Config, lc fx.Lifecycle) (*queue.KafkaProducer, error) {
	return newProducer(cfg, lc, cfg.KafkaDLQTopic)
}

func newProducer(cfg *config.Config, lc fx.Lifecycle, topic string) (*queue.KafkaProducer, error) {
	if len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("kafka brokers not configured")
	}
	if topic == "" {
		return nil, fmt.Errorf("kafka topic not configured")
	}

	producer := queue.NewKafkaProducer(cfg.KafkaBrokers, topic)
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return producer.Close()
		},
	})
	return producer, nil
}

// NewKafkaConsumer creates the entry consumer with DLQ support.
func NewKafkaConsumer(
	cfg *config.Config,
	dlqProducer *queue.KafkaProducer,
	lc fx.Lifecycle,
) (*queue.KafkaConsumer, error) {
	if len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("kafka brokers not configured")
	}
	if cfg.KafkaTopic == "" || cfg.KafkaGroupID == "" {
		return nil, errors.New("kafka topic or group not configured")
	}

	consumer := queue.NewKafkaConsumer(cfg.KafkaBrokers, cfg.KafkaTopic, cfg.KafkaGroupID, dlqProducer)
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return consumer.Close()
		},
	})
	return consumer, nil
}
