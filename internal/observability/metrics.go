package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the composite pipeline.
type Metrics struct {
	RequestsConsumed   prometheus.Counter
	CompositesProduced prometheus.Counter
	TransformErrors    prometheus.Counter
	LoadRetries        prometheus.Counter
	PipelineRunning    prometheus.Gauge

	// Batch processing metrics.
	BatchSize               prometheus.Histogram
	BatchProcessingDuration prometheus.Histogram

	// Composite metrics.
	CompositeDuration *prometheus.HistogramVec // labels: mode={day,night}
	DegenerateIndexes prometheus.Counter
	UndefinedPixels   prometheus.Counter

	// Scene loading metrics.
	SceneCache         *prometheus.CounterVec   // labels: result={hit,miss}
	SceneFetchDuration *prometheus.HistogramVec // labels: source={file,http}
}

// NewMetrics creates and registers all pipeline metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.RequestsConsumed,
		m.CompositesProduced,
		m.TransformErrors,
		m.LoadRetries,
		m.PipelineRunning,
		m.BatchSize,
		m.BatchProcessingDuration,
		m.CompositeDuration,
		m.DegenerateIndexes,
		m.UndefinedPixels,
		m.SceneCache,
		m.SceneFetchDuration,
	)
	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		RequestsConsumed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "fire_etl",
			Name:      "scene_requests_consumed_total",
			Help:      "Total scene requests read from the source topic.",
		}),
		CompositesProduced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "fire_etl",
			Name:      "composites_produced_total",
			Help:      "Total composites written and announced on the sink topic.",
		}),
		TransformErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "fire_etl",
			Name:      "transform_errors_total",
			Help:      "Total scene requests that failed to produce a composite.",
		}),
		LoadRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "fire_etl",
			Name:      "load_retries_total",
			Help:      "Total failed load attempts that were retried.",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "fire_etl",
			Name:      "pipeline_running",
			Help:      "1 when the pipeline is active, 0 when shut down.",
		}),
		BatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "fire_etl",
			Name:      "batch_size",
			Help:      "Number of scene requests per batch extracted from Kafka.",
			Buckets:   []float64{1, 2, 5, 10, 20, 50},
		}),
		BatchProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "fire_etl",
			Name:      "batch_processing_duration_seconds",
			Help:      "Duration of a complete batch extract-transform-load cycle.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		CompositeDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "fire_etl",
			Name:      "composite_duration_seconds",
			Help:      "Time to derive the fire index and stack one composite.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"mode"}),
		DegenerateIndexes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "fire_etl",
			Name:      "degenerate_indexes_total",
			Help:      "Composites whose fire-index ratio had an empty range.",
		}),
		UndefinedPixels: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "fire_etl",
			Name:      "undefined_pixels_total",
			Help:      "Fire-index pixels rendered as 0 because their ratio was undefined.",
		}),
		SceneCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fire_etl",
			Name:      "scene_cache_total",
			Help:      "Scene cache lookups by result.",
		}, []string{"result"}),
		SceneFetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "fire_etl",
			Name:      "scene_fetch_duration_seconds",
			Help:      "Time to read and decode one scene.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}, []string{"source"}),
	}
}
