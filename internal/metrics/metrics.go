// Package metrics registers the Prometheus collectors of the sync service.
// Everything is registered on the default registry through promauto and
// exposed by the HTTP server under /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "eknihy_sync"

var (
	// RunsTotal counts finished job runs by type and status.
	RunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "runs_total",
		Help:      "Finished job runs by type and status.",
	}, []string{"type", "status"})

	// RunDuration observes job run duration.
	RunDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "run_duration_seconds",
		Help:      "Job run duration in seconds.",
		Buckets:   []float64{1, 5, 15, 60, 300, 900, 3600, 4 * 3600},
	}, []string{"type"})

	// HarvestPagesTotal counts fetched ListRecords pages.
	HarvestPagesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "harvest_pages_total",
		Help:      "OAI-PMH ListRecords pages fetched.",
	})

	// HarvestRecordsTotal counts harvested records by outcome: accepted or a
	// rejection reason.
	HarvestRecordsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "harvest_records_total",
		Help:      "Harvested records by outcome.",
	}, []string{"outcome"})

	// ImportedBooksTotal counts import outcomes.
	ImportedBooksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "import_books_total",
		Help:      "Book import outcomes.",
	}, []string{"outcome"})

	// ImportedByCategory counts created books per category.
	ImportedByCategory = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "import_category_total",
		Help:      "Created books per category.",
	}, []string{"category"})

	// CacheLookupsTotal counts author/category cache lookups.
	CacheLookupsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cache_lookups_total",
		Help:      "Author and category cache lookups by result.",
	}, []string{"cache", "result"})

	// LastSuccessTimestamp is the unix time of the last successful run.
	LastSuccessTimestamp = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "last_success_timestamp_seconds",
		Help:      "Unix time of the last successful run per type.",
	}, []string{"type"})
)
