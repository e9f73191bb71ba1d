package apikeys

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Validation outcome labels.
const (
	statusSuccess = "success"
	statusError   = "error"

	reasonValid      = "valid"
	reasonEmptyKey   = "empty_key"
	reasonNotFound   = "not_found"
	reasonStoreError = "store_error"
	reasonCanceled   = "canceled"
)

// Metrics holds Prometheus collectors for key validation.
type Metrics struct {
	validationTotal    *prometheus.CounterVec
	validationDuration *prometheus.HistogramVec
	cacheHits          prometheus.Counter
	cacheMisses        prometheus.Counter
	cacheEntries       prometheus.Gauge
}

// NewMetrics creates the collectors and registers them with reg.
// A nil reg leaves them unregistered.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = "userdirectory"
	}

	m := &Metrics{
		validationTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "apikey",
				Name:      "validation_total",
				Help:      "Total number of API key validation attempts",
			},
			[]string{"status", "reason"},
		),
		validationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "apikey",
				Name:      "validation_duration_seconds",
				Help:      "API key validation duration in seconds",
				Buckets:   []float64{.0001, .0005, .001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"status", "reason"},
		),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "apikey",
			Name:      "cache_hits_total",
			Help:      "Total number of API key cache hits",
		}),
		cacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "apikey",
			Name:      "cache_misses_total",
			Help:      "Total number of API key cache misses",
		}),
		cacheEntries: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "apikey",
			Name:      "cache_entries",
			Help:      "Number of API keys currently cached",
		}),
	}

	if reg != nil {
		reg.MustRegister(m.validationTotal, m.validationDuration, m.cacheHits, m.cacheMisses, m.cacheEntries)
	}

	return m
}

// Init pre-creates the label combinations so series exist from startup.
func (m *Metrics) Init() {
	m.validationTotal.WithLabelValues(statusSuccess, reasonValid)
	for _, reason := range []string{reasonEmptyKey, reasonNotFound, reasonStoreError, reasonCanceled} {
		m.validationTotal.WithLabelValues(statusError, reason)
	}
}

func (m *Metrics) recordValidation(status, reason string, d time.Duration) {
	if m == nil {
		return
	}
	m.validationTotal.WithLabelValues(status, reason).Inc()
	m.validationDuration.WithLabelValues(status, reason).Observe(d.Seconds())
}

func (m *Metrics) recordCacheHit() {
	if m != nil {
		m.cacheHits.Inc()
	}
}

func (m *Metrics) recordCacheMiss() {
	if m != nil {
		m.cacheMisses.Inc()
	}
}

func (m *Metrics) setCacheEntries(n int) {
	if m != nil {
		m.cacheEntries.Set(float64(n))
	}
}
