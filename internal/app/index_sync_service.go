package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/WPMirror/internal/domain"
	"github.com/WPMirror/internal/infra/metrics"
	"github.com/WPMirror/internal/infra/queue"
)

// EntryConsumer delivers entry events to a handler until ctx ends.
type EntryConsumer interface {
	Start(ctx context.Context, handler queue.MessageHandler)
	Close() error
}

// IndexSyncService forwards published entries to the search index.
type IndexSyncService struct {
	consumer EntryConsumer
	gateway  domain.IndexGateway
}

func NewIndexSyncService(consumer EntryConsumer, gateway domain.IndexGateway) *IndexSyncService {
	return &IndexSyncService{
		consumer: consumer,
		gateway:  gateway,
	}
}

func (s *IndexSyncService) Start(ctx context.Context) {
	slog.Info("Starting index sync service (Kafka consumer)")
	go s.consumer.Start(ctx, s.handleEvent)
}

func (s *IndexSyncService) handleEvent(ctx context.Context, entry *domain.Entry) error {
	start := time.Now()
	slog.Info("Consuming event for index", "entry_id", entry.ID, "title", entry.Title)

	err := s.gateway.IndexEntry(ctx, entry)
	metrics.IndexSyncDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		slog.Error("Failed to index entry", "entry_id", entry.ID, "error", err)
		metrics.IndexSyncErrors.WithLabelValues(entry.Site).Inc()
		return err
	}

	metrics.IndexSyncSuccess.WithLabelValues(entry.Site).Inc()
	return nil
}

func (s *IndexSyncService) Stop() error {
	return s.consumer.Close()
}
