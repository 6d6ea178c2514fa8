package app

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/WPMirror/internal/domain"
	"github.com/WPMirror/internal/infra/metrics"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

// MirrorService periodically crawls every provider and stores what changed.
type MirrorService struct {
	repo            domain.Repository
	providers       []domain.Provider
	eventProducer   domain.EventProducer
	interval        time.Duration
	workerCount     int
	jobs            chan job
	wg              sync.WaitGroup
	activeProviders sync.Map // provider name -> true while a worker crawls it
}

type job struct {
	provider domain.Provider
}

func NewMirrorService(
	repo domain.Repository,
	providers []domain.Provider,
	eventProducer domain.EventProducer,
	interval time.Duration,
	workerCount int,
) *MirrorService {
	return &MirrorService{
		repo:          repo,
		providers:     providers,
		eventProducer: eventProducer,
		interval:      interval,
		workerCount:   workerCount,
		jobs:          make(chan job, workerCount*2),
	}
}

// Start blocks until ctx is cancelled and all workers have drained.
func (s *MirrorService) Start(ctx context.Context) {
	slog.Info("Starting mirror service", "interval", s.interval, "workers", s.workerCount, "providers", len(s.providers))

	for i := 0; i < s.workerCount; i++ {
		s.wg.Add(1)
		go s.worker(ctx, i)
	}

	var providersWg sync.WaitGroup
	for _, provider := range s.providers {
		slog.Info("Starting provider loop", "provider", provider.GetName())
		providersWg.Add(1)
		go s.runProviderLoop(ctx, provider, &providersWg)
	}

	<-ctx.Done()
	slog.Info("Context cancelled, stopping mirror service...")

	providersWg.Wait()
	slog.Info("All providers stopped")

	close(s.jobs)

	s.wg.Wait()
	slog.Info("All workers stopped")
}

func (s *MirrorService) runProviderLoop(ctx context.Context, p domain.Provider, wg *sync.WaitGroup) {
	defer wg.Done()

	select {
	case s.jobs <- job{provider: p}:
	case <-ctx.Done():
		return
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// Blocking send gives backpressure when all workers are busy.
			select {
			case s.jobs <- job{provider: p}:
			case <-ctx.Done():
				return
			}
		}
	}
}

func (s *MirrorService) worker(ctx context.Context, id int) {
	defer s.wg.Done()
	slog.Info("Worker started", "worker_id", id)

	for j := range s.jobs {
		// A slow crawl must not overlap with the next tick of the same provider.
		name := j.provider.GetName()
		if _, loaded := s.activeProviders.LoadOrStore(name, true); loaded {
			slog.Warn("Skipping concurrent run", "provider", name, "worker_id", id)
			continue
		}

		metrics.WorkerActiveCount.Inc()
		func() {
			defer s.activeProviders.Delete(name)
			s.processProvider(ctx, j.provider)
		}()
		metrics.WorkerActiveCount.Dec()
	}
	slog.Info("Worker stopped", "worker_id", id)
}

func (s *MirrorService) processProvider(ctx context.Context, provider domain.Provider) {
	tr := otel.Tracer("wp-mirror")
	ctx, span := tr.Start(ctx, "processProvider")
	defer span.End()

	slog.Debug("Starting crawl for provider", "provider", provider.GetName())
	span.SetAttributes(attribute.String("provider", provider.GetName()))

	handler := func(entries []domain.Entry) error {
		return s.processBatch(ctx, provider, entries)
	}

	if err := provider.Crawl(ctx, handler); err != nil {
		span.RecordError(err)
		slog.Error("Crawl failed", "provider", provider.GetName(), "error", err)
		metrics.EntriesIngested.WithLabelValues(provider.GetName(), "error_crawl").Inc()
	}
}

func (s *MirrorService) processBatch(ctx context.Context, provider domain.Provider, entries []domain.Entry) error {
	start := time.Now()
	name := provider.GetName()

	// Offset pagination can repeat an item when the site changes mid-crawl.
	unique := make([]domain.Entry, 0, len(entries))
	seenIDs := make(map[string]bool, len(entries))
	for _, e := range entries {
		if !seenIDs[e.ID] {
			seenIDs[e.ID] = true
			unique = append(unique, e)
		}
	}
	entries = unique

	if len(entries) == 0 {
		return nil
	}

	ids := make([]string, 0, len(entries))
	for i := range entries {
		entries[i].ContentHash = entries[i].ComputeHash()
		ids = append(ids, entries[i].ID)
	}

	existingHashes, err := s.repo.GetContentHashes(ctx, ids)
	if err != nil {
		return fmt.Errorf("failed to fetch hashes: %w", err)
	}

	var changed, unchanged []domain.Entry
	for _, e := range entries {
		oldHash, exists := existingHashes[e.ID]
		switch {
		case !exists:
			slog.Info("Entry New", "provider", name, "id", e.ID)
			changed = append(changed, e)
		case oldHash != e.ContentHash:
			slog.Info("Entry Changed", "provider", name, "id", e.ID)
			changed = append(changed, e)
		default:
			unchanged = append(unchanged, e)
		}
	}

	if len(unchanged) > 0 {
		metrics.EntriesUnchangedSkipped.WithLabelValues(name).Add(float64(len(unchanged)))
	}
	metrics.EntriesIngested.WithLabelValues(name, "success").Add(float64(len(entries)))

	for i := range entries {
		if published, ok := entries[i].PublishedTime(); ok {
			metrics.EntryAge.WithLabelValues(name).Observe(time.Since(published).Seconds())
		}
	}

	// Changed entries are stored only once their event is out, so a failed
	// publish leaves the old hash in place and the next crawl retries it.
	if len(changed) > 0 {
		slog.Info("Publishing changed entries", "count", len(changed), "provider", name)

		pubStart := time.Now()
		err := s.eventProducer.PublishBatch(ctx, changed)
		metrics.PublishDuration.WithLabelValues(name).Observe(time.Since(pubStart).Seconds())

		if err != nil {
			slog.Error("Error publishing entry batch", "count", len(changed), "error", err)
			metrics.PublishErrors.WithLabelValues(name).Inc()
			if len(unchanged) > 0 {
				if err := s.repo.BulkUpsert(ctx, unchanged); err != nil {
					slog.Error("Bulk upsert of unchanged entries failed", "provider", name, "error", err)
				}
			}
			return fmt.Errorf("publish failed: %w", err)
		}
		metrics.EntriesPublished.WithLabelValues(name).Add(float64(len(changed)))
	}

	if err := s.repo.BulkUpsert(ctx, entries); err != nil {
		return fmt.Errorf("bulk upsert failed: %w", err)
	}

	metrics.BatchDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
	return nil
}
