package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// aggregation service.
type Metrics struct {
	// Upstream fetch metrics.
	UpstreamRequests *prometheus.CounterVec   // labels: source={airnow,openweather}, outcome={success,error}
	UpstreamDuration *prometheus.HistogramVec // labels: source={airnow,openweather}

	// Sensor store metrics.
	StoreQueries       *prometheus.CounterVec   // labels: operation={in_bounds,near,all,insert}, outcome={success,error}
	StoreQueryDuration *prometheus.HistogramVec // labels: operation
	MalformedLocations prometheus.Counter

	// Risk model metrics.
	Predictions       *prometheus.CounterVec // labels: tier={MINIMAL,LOW,MODERATE,HIGH,EXTREME}
	InferenceErrors   prometheus.Counter
	InferenceDuration prometheus.Histogram
	ModelLoaded       prometheus.Gauge
}

// NewMetrics creates and registers all service metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()

	prometheus.MustRegister(
		m.UpstreamRequests,
		m.UpstreamDuration,
		m.StoreQueries,
		m.StoreQueryDuration,
		m.MalformedLocations,
		m.Predictions,
		m.InferenceErrors,
		m.InferenceDuration,
		m.ModelLoaded,
	)

	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		UpstreamRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "enviro_risk",
			Name:      "upstream_requests_total",
			Help:      "Upstream API requests by source and outcome.",
		}, []string{"source", "outcome"}),
		UpstreamDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "enviro_risk",
			Name:      "upstream_request_duration_seconds",
			Help:      "Upstream API request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"source"}),
		StoreQueries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "enviro_risk",
			Name:      "store_queries_total",
			Help:      "Sensor store queries by operation and outcome.",
		}, []string{"operation", "outcome"}),
		StoreQueryDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "enviro_risk",
			Name:      "store_query_duration_seconds",
			Help:      "Sensor store query duration in seconds.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5},
		}, []string{"operation"}),
		MalformedLocations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "enviro_risk",
			Name:      "malformed_sensor_locations_total",
			Help:      "Sensor rows whose stored location text failed to parse and degraded to (0,0).",
		}),
		Predictions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "enviro_risk",
			Name:      "risk_predictions_total",
			Help:      "Completed risk predictions by tier.",
		}, []string{"tier"}),
		InferenceErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "enviro_risk",
			Name:      "inference_errors_total",
			Help:      "Risk model invocation failures.",
		}),
		InferenceDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "enviro_risk",
			Name:      "inference_duration_seconds",
			Help:      "Risk model inference duration in seconds.",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		}),
		ModelLoaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "enviro_risk",
			Name:      "model_loaded",
			Help:      "1 when the risk model session is loaded, 0 otherwise.",
		}),
	}
}
