package documents

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks document uploads and conversions.
type Metrics struct {
	uploads            *prometheus.CounterVec
	conversions        prometheus.Counter
	conversionFailures prometheus.Counter
	conversionSeconds  prometheus.Histogram
}

// NewMetrics registers the document collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		uploads: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dialogtuple",
			Subsystem: "documents",
			Name:      "uploads_total",
			Help:      "Document uploads by result.",
		}, []string{"result"}),
		conversions: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "dialogtuple",
			Subsystem: "documents",
			Name:      "conversions_total",
			Help:      "Documents converted to HTML.",
		}),
		conversionFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "dialogtuple",
			Subsystem: "documents",
			Name:      "conversion_failures_total",
			Help:      "Documents skipped because download or conversion failed.",
		}),
		conversionSeconds: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "dialogtuple",
			Subsystem: "documents",
			Name:      "conversion_duration_seconds",
			Help:      "Time spent converting a single document.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
}

func (m *Metrics) upload(result string) {
	if m != nil {
		m.uploads.WithLabelValues(result).Inc()
	}
}

func (m *Metrics) converted(seconds float64) {
	if m != nil {
		m.conversions.Inc()
		m.conversionSeconds.Observe(seconds)
	}
}

func (m *Metrics) failed() {
	if m != nil {
		m.conversionFailures.Inc()
	}
}
