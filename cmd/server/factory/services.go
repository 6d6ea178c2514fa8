package factory

import (
	"errors"
	"fmt"

	"github.com/WPMirror/internal/app"
	"github.com/WPMirror/internal/domain"
	"github.com/WPMirror/internal/infra/gateway"
	"github.com/WPMirror/internal/infra/queue"
	"github.com/WPMirror/internal/infra/repository"
	"github.com/WPMirror/pkg/config"
	"go.mongodb.org/mongo-driver/mongo"
)

// NewMongoRepository creates a MongoDB repository.
func NewMongoRepository(client *mongo.Client, cfg *config.Config) (domain.Repository, error) {
	if cfg.MongoDBName == "" {
		return nil, errors.New("mongo database name not configured")
	}
	if cfg.MongoColl == "" {
		return nil, errors.New("mongo collection name not configured")
	}
	return repository.NewMongoRepository(client, cfg.MongoDBName, cfg.MongoColl)
}

// NewIndexGateway creates the downstream index gateway.
func NewIndexGateway() (domain.IndexGateway, error) {
	return gateway.NewLogIndexGateway(nil), nil
}

// NewEventProducer wraps the Kafka producer as an EventProducer.
func NewEventProducer(p *queue.KafkaProducer) (domain.EventProducer, error) {
	if p == nil {
		return nil, errors.New("kafka producer is nil")
	}
	return p, nil
}

// NewMirrorService creates the mirror service with validation.
func NewMirrorService(
	repo domain.Repository,
	providers []domain.Provider,
	eventProducer domain.EventProducer,
	cfg *config.Config,
) (*app.MirrorService, error) {
	if repo == nil {
		return nil, errors.New("repository is nil")
	}
	if len(providers) == 0 {
		return nil, errors.New("no providers configured")
	}
	if eventProducer == nil {
		return nil, errors.New("event producer is nil")
	}
	if cfg.PollInterval <= 0 {
		return nil, fmt.Errorf("invalid poll interval: %s", cfg.PollInterval)
	}
	if cfg.WorkerPoolSize <= 0 || cfg.WorkerPoolSize > 100 {
		return nil, fmt.Errorf("invalid worker pool size: %d (must be 1-100)", cfg.WorkerPoolSize)
	}

	return app.NewMirrorService(
		repo,
		providers,
		eventProducer,
		cfg.PollInterval,
		cfg.WorkerPoolSize,
	), nil
}

// NewIndexSyncService creates the index sync service.
func NewIndexSyncService(consumer *queue.KafkaConsumer, gateway domain.IndexGateway) (*app.IndexSyncService, error) {
	if consumer == nil {
		return nil, errors.New("kafka consumer is nil")
	}
	if gateway == nil {
		return nil, errors.New("index gateway is nil")
	}
	return app.NewIndexSyncService(consumer, gateway), nil
}
