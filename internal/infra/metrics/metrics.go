package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	EntriesIngested = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wp_entries_ingested_total",
			Help: "The total number of entries ingested",
		},
		[]string{"provider", "status"},
	)

	EntriesUnchangedSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wp_entries_unchanged_skipped_total",
			Help: "The total number of entries not republished because their content hash is unchanged",
		},
		[]string{"provider"},
	)

	EntriesPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wp_entries_published_total",
			Help: "The total number of changed entries published to Kafka",
		},
		[]string{"provider"},
	)

	PublishErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wp_publish_errors_total",
			Help: "Total number of failed Kafka publish batches",
		},
		[]string{"provider"},
	)

	PublishDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "wp_publish_duration_seconds",
			Help:    "Duration of Kafka batch publishing",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"provider"},
	)

	ProviderFetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "wp_fetch_duration_seconds",
			Help:    "Duration of a single collection page request",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"provider"},
	)

	ProviderFetchErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wp_fetch_errors_total",
			Help: "Total number of failed collection page requests",
		},
		[]string{"provider"},
	)

	CollectionTotal = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "wordpress_collection_total",
			Help: "Item count reported by the X-WP-Total header",
		},
		[]string{"site", "collection"},
	)

	BatchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "wp_batch_duration_seconds",
			Help:    "Duration of processing one fetched page",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"provider"},
	)

	EntryAge = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "wp_entry_age_seconds",
			Help:    "Age of fetched entries based on their creation date",
			Buckets: []float64{3600, 86400, 7 * 86400, 30 * 86400, 365 * 86400},
		},
		[]string{"provider"},
	)

	WorkerActiveCount = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "wp_worker_active_count",
			Help: "Number of workers currently crawling",
		},
	)

	DLQMessagesPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wp_dlq_messages_published_total",
			Help: "Total number of messages published to DLQ",
		},
		[]string{"site"},
	)

	IndexSyncDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "wp_index_sync_duration_seconds",
			Help:    "Duration of pushing one entry to the index",
			Buckets: prometheus.DefBuckets,
		},
	)

	IndexSyncErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wp_index_sync_errors_total",
			Help: "Total number of index sync errors",
		},
		[]string{"site"},
	)

	IndexSyncSuccess = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wp_index_entries_synced_total",
			Help: "Total number of entries successfully pushed to the index",
		},
		[]string{"site"},
	)
)
