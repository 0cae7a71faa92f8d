// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Pipeline metrics
	RecordsFetched  prometheus.Counter
	RecordsAccepted prometheus.Counter
	RecordsRejected *prometheus.CounterVec
	RunDuration     prometheus.Histogram
	RunsTotal       *prometheus.CounterVec

	// QA metrics
	QAEntriesWritten    *prometheus.CounterVec
	QAAppendsFailed     prometheus.Counter
	QASerializationErrs prometheus.Counter

	// Alert metrics
	PriceAlertsFired prometheus.Counter
	DailyQAAlerts    prometheus.Counter

	// Health metrics
	LastSuccessfulRun prometheus.Gauge
}

// NewMetrics creates a Metrics instance registered on the default registry.
func NewMetrics(namespace string) *Metrics {
	return newMetrics(prometheus.DefaultRegisterer, namespace)
}

// NewTestMetrics creates a Metrics instance on a private registry so tests
// can instantiate it any number of times.
func NewTestMetrics() *Metrics {
	return newMetrics(prometheus.NewRegistry(), "test")
}

func newMetrics(reg prometheus.Registerer, namespace string) *Metrics {
	if namespace == "" {
		namespace = "crypto_pipeline"
	}
	factory := promauto.With(reg)

	return &Metrics{
		RecordsFetched: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_fetched_total",
			Help:      "Raw records received from the market source.",
		}),
		RecordsAccepted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_accepted_total",
			Help:      "Records that passed validation, dedup and coercion.",
		}),
		RecordsRejected: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_rejected_total",
			Help:      "Records rejected by the pipeline, by classification.",
		}, []string{"classification"}),
		RunDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of a full pipeline run.",
			Buckets:   prometheus.DefBuckets,
		}),
		RunsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Pipeline runs, by outcome.",
		}, []string{"outcome"}),
		QAEntriesWritten: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "qa_entries_written_total",
			Help:      "QA entries appended, by classification.",
		}, []string{"classification"}),
		QAAppendsFailed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "qa_appends_failed_total",
			Help:      "QA appends that failed and were swallowed.",
		}),
		QASerializationErrs: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "qa_serialization_errors_total",
			Help:      "QA payloads that could not be serialized.",
		}),
		PriceAlertsFired: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "price_alerts_fired_total",
			Help:      "Price-change alerts emitted.",
		}),
		DailyQAAlerts: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "daily_qa_alerts_fired_total",
			Help:      "Daily QA-count alerts emitted.",
		}),
		LastSuccessfulRun: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_successful_run_timestamp_seconds",
			Help:      "Unix time of the last pipeline run that completed.",
		}),
	}
}

// Handler returns the HTTP handler serving the metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
