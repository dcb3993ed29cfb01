// Package metrics exposes the Prometheus collectors used by the API server.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	EntriesCreated      prometheus.Counter
	EntryCreateFailures prometheus.Counter
	PendingSubmissions  prometheus.Gauge
	InvalidEntryDates   prometheus.Counter
	JournalCacheLookups *prometheus.CounterVec
}

// New registers all collectors on a fresh registry, so several instances
// (tests) never collide.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		EntriesCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "worklog_entries_created_total",
			Help: "Journal entries persisted through the create endpoint.",
		}),
		EntryCreateFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "worklog_entry_create_failures_total",
			Help: "Create submissions that settled without being persisted.",
		}),
		PendingSubmissions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "worklog_pending_submissions",
			Help: "Create submissions currently in flight.",
		}),
		InvalidEntryDates: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "worklog_invalid_entry_dates_total",
			Help: "Entries left out of a journal view because their date or type could not be used.",
		}),
		JournalCacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "worklog_journal_cache_lookups_total",
			Help: "Persisted entry list cache lookups by result.",
		}, []string{"result"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.EntriesCreated,
		m.EntryCreateFailures,
		m.PendingSubmissions,
		m.InvalidEntryDates,
		m.JournalCacheLookups,
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
