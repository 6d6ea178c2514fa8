package provider

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/WPMirror/internal/domain"
	"github.com/WPMirror/internal/infra/metrics"
	"github.com/WPMirror/pkg/logging"
	"github.com/WPMirror/pkg/wordpress"
	"github.com/sony/gobreaker"
)

const (
	defaultMaxPages           = 100
	maxConsecutiveHandlerErrs = 5
)

// CollectionClient is the part of *wordpress.Client a provider needs.
type CollectionClient interface {
	FetchCollection(ctx context.Context, coll wordpress.Collection, opts wordpress.Options) (*wordpress.Response, error)
	CountItems(ctx context.Context, coll wordpress.Collection, opts wordpress.Options) (int, error)
}

type Settings struct {
	PageSize int
	MaxPages int
	Params   map[string]any
}

// paramModifiedAfter limits a listing to items edited after the given
// site-local timestamp.
const paramModifiedAfter = "modified_after"

// WordPressProvider crawls one collection of one site using offset
// pagination.
type WordPressProvider struct {
	name       string
	site       string
	collection wordpress.Collection
	client     CollectionClient
	settings   Settings
	checkpoint domain.EntryReader
	cb         *gobreaker.CircuitBreaker
	sampler    *logging.ErrorSampler
	logger     *slog.Logger
	now        func() time.Time
}

func NewWordPressProvider(site string, collection wordpress.Collection, client CollectionClient, settings Settings) *WordPressProvider {
	name := site + "/" + string(collection)
	if settings.PageSize <= 0 {
		settings.PageSize = wordpress.DefaultPageSize
	}
	if settings.MaxPages <= 0 {
		settings.MaxPages = defaultMaxPages
	}

	cbSettings := gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			// Trip if we have 3 consecutive failures
			return counts.ConsecutiveFailures >= 3
		},
		IsSuccessful: func(err error) bool {
			// A 4xx says nothing about the health of the site.
			var statusErr *wordpress.StatusError
			if errors.As(err, &statusErr) {
				return statusErr.StatusCode < http.StatusInternalServerError
			}
			return err == nil
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			slog.Warn("CircuitBreaker state changed", "name", name, "from", from, "to", to)
		},
	}

	logger := slog.Default().With("provider", name)
	return &WordPressProvider{
		name:       name,
		site:       site,
		collection: collection,
		client:     client,
		settings:   settings,
		cb:         gobreaker.NewCircuitBreaker(cbSettings),
		sampler:    logging.NewErrorSampler(10).WithLogger(logger),
		logger:     logger,
		now:        time.Now,
	}
}

// WithCheckpoint makes crawls incremental: only items modified after the
// newest stored entry of this collection are requested.
func (p *WordPressProvider) WithCheckpoint(reader domain.EntryReader) *WordPressProvider {
	p.checkpoint = reader
	return p
}

func (p *WordPressProvider) GetName() string {
	return p.name
}

// Crawl walks the collection page by page and passes each page to handler.
// Handler errors are skipped unless maxConsecutiveHandlerErrs happen in a row.
func (p *WordPressProvider) Crawl(ctx context.Context, handler func([]domain.Entry) error) error {
	p.reportTotal(ctx)
	params := p.crawlParams(ctx)

	consecutiveErrs := 0
	page := 0
	for ; page < p.settings.MaxPages; page++ {
		opts := wordpress.Options{
			PageSize: p.settings.PageSize,
			Offset:   page * p.settings.PageSize,
			Params:   params,
		}

		start := time.Now()
		resp, err := p.fetchPage(ctx, opts)
		metrics.ProviderFetchDuration.WithLabelValues(p.name).Observe(time.Since(start).Seconds())
		if err != nil {
			metrics.ProviderFetchErrors.WithLabelValues(p.name).Inc()
			return fmt.Errorf("fetch %s page %d: %w", p.name, page, err)
		}

		if len(resp.Items) == 0 {
			slog.Debug("No entries on page, stopping", "provider", p.name, "page", page)
			return nil
		}

		fetchedAt := p.now().UTC()
		entries := make([]domain.Entry, 0, len(resp.Items))
		for _, item := range resp.Items {
			entries = append(entries, domain.NewEntry(p.site, p.collection, item, fetchedAt))
		}

		slog.Info("Fetched page",
			"provider", p.name,
			"page", page,
			"entries_on_page", len(entries),
			"total", resp.Total,
			"total_pages", resp.TotalPages)

		if err := handler(entries); err != nil {
			consecutiveErrs++
			slog.Error("Handler failed for page", "provider", p.name, "page", page, "error", err,
				"consecutive_errors", consecutiveErrs)
			if consecutiveErrs >= maxConsecutiveHandlerErrs {
				return fmt.Errorf("too many consecutive handler errors for %s: %w", p.name, err)
			}
		} else {
			consecutiveErrs = 0
		}

		if isLastPage(resp, opts, page) {
			slog.Debug("No more pages available", "provider", p.name, "page", page)
			return nil
		}
	}

	slog.Warn("Reached max pages limit", "provider", p.name, "max_pages", p.settings.MaxPages)
	return nil
}

// crawlParams adds modified_after from the checkpoint, unless the site
// configuration already sets it. A failed lookup falls back to a full crawl.
func (p *WordPressProvider) crawlParams(ctx context.Context) map[string]any {
	if p.checkpoint == nil {
		return p.settings.Params
	}
	if _, set := p.settings.Params[paramModifiedAfter]; set {
		return p.settings.Params
	}

	last, err := p.checkpoint.GetLatestModified(ctx, p.site, string(p.collection))
	if err != nil {
		p.logger.Warn("Checkpoint lookup failed, crawling everything", "error", err)
		return p.settings.Params
	}
	if last == nil || last.ModifiedAt == "" {
		return p.settings.Params
	}

	params := make(map[string]any, len(p.settings.Params)+1)
	for k, v := range p.settings.Params {
		params[k] = v
	}
	params[paramModifiedAfter] = last.ModifiedAt
	p.logger.Debug("Incremental crawl", "modified_after", last.ModifiedAt)
	return params
}

func (p *WordPressProvider) fetchPage(ctx context.Context, opts wordpress.Options) (*wordpress.Response, error) {
	result, err := p.cb.Execute(func() (interface{}, error) {
		return p.client.FetchCollection(ctx, p.collection, opts)
	})
	if err != nil {
		return nil, err
	}
	return result.(*wordpress.Response), nil
}

// reportTotal probes the collection size with a HEAD request. Failures are
// only logged; the crawl itself decides whether the site is reachable.
func (p *WordPressProvider) reportTotal(ctx context.Context) {
	total, err := p.client.CountItems(ctx, p.collection, wordpress.Options{Params: p.settings.Params})
	if err != nil {
		p.sampler.Warn(p.name+":count", "Count request failed", "error", err)
		return
	}
	if n := p.sampler.Recover(p.name + ":count"); n > 0 {
		p.logger.Info("Count request recovered", "failures", n)
	}
	if total == wordpress.Unknown {
		slog.Warn("Site did not report a total", "provider", p.name)
		return
	}
	metrics.CollectionTotal.WithLabelValues(p.site, string(p.collection)).Set(float64(total))
}

func isLastPage(resp *wordpress.Response, opts wordpress.Options, page int) bool {
	if len(resp.Items) < opts.PageSize {
		return true
	}
	if resp.TotalPages != wordpress.Unknown && page+1 >= resp.TotalPages {
		return true
	}
	if resp.Total != wordpress.Unknown && opts.Offset+len(resp.Items) >= resp.Total {
		return true
	}
	return false
}
