package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "solar_eda"

// Metrics holds the Prometheus counters, histograms, and gauges for the dashboard.
type Metrics struct {
	Uploads        *prometheus.CounterVec // labels: outcome={success,error}
	DatasetsLoaded prometheus.Gauge
	DatasetRows    prometheus.Histogram

	// Chart rendering metrics.
	ChartsRendered *prometheus.CounterVec   // labels: kind, format
	ChartDuration  *prometheus.HistogramVec // labels: kind
	ChartErrors    *prometheus.CounterVec   // labels: kind

	OutliersClipped prometheus.Counter
	EventsPublished *prometheus.CounterVec // labels: outcome={success,error}
}

// NewMetrics creates and registers all dashboard metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := NewMetricsForTesting()
	prometheus.MustRegister(
		m.Uploads,
		m.DatasetsLoaded,
		m.DatasetRows,
		m.ChartsRendered,
		m.ChartDuration,
		m.ChartErrors,
		m.OutliersClipped,
		m.EventsPublished,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, so tests can
// build as many instances as they need.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		Uploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "uploads_total",
			Help:      "Uploaded files by parse outcome.",
		}, []string{"outcome"}),
		DatasetsLoaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "datasets_loaded",
			Help:      "Datasets currently held in memory.",
		}),
		DatasetRows: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "dataset_rows",
			Help:      "Row count of successfully parsed datasets.",
			Buckets:   prometheus.ExponentialBuckets(100, 4, 8),
		}),
		ChartsRendered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "charts_rendered_total",
			Help:      "Charts rendered by kind and output format.",
		}, []string{"kind", "format"}),
		ChartDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "chart_render_duration_seconds",
			Help:      "Time spent building and encoding a chart.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"kind"}),
		ChartErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chart_errors_total",
			Help:      "Chart requests that failed to render.",
		}, []string{"kind"}),
		OutliersClipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "outliers_clipped_total",
			Help:      "Values changed by outlier clipping.",
		}),
		EventsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_published_total",
			Help:      "Analysis events published by outcome.",
		}, []string{"outcome"}),
	}
}
