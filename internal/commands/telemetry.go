package commands

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Result classifies how a command run ended.
type Result string

const (
	ResultOK       Result = "ok"
	ResultFailed   Result = "failed"
	ResultCanceled Result = "canceled"
	ResultTimeout  Result = "timeout"
)

func classify(err error) Result {
	switch {
	case err == nil:
		return ResultOK
	case errors.Is(err, context.DeadlineExceeded):
		return ResultTimeout
	case errors.Is(err, context.Canceled):
		return ResultCanceled
	default:
		return ResultFailed
	}
}

// Outcome describes one finished command run.
type Outcome struct {
	Command   string
	Operation string
	Fields    map[string]any
	Elapsed   time.Duration
	Result    Result
	Err       error
}

// Observer receives every Outcome of the handlers it is attached to.
type Observer interface {
	Observe(ctx context.Context, outcome Outcome)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ctx context.Context, outcome Outcome)

func (fn ObserverFunc) Observe(ctx context.Context, outcome Outcome) { fn(ctx, outcome) }

// Metrics counts command runs by command and result.
type Metrics struct {
	runs     *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

var _ Observer = (*Metrics)(nil)

// NewMetrics registers the collectors with reg. A nil reg leaves them
// unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		runs: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dialogtuple",
			Subsystem: "commands",
			Name:      "executions_total",
			Help:      "Command runs by command and result.",
		}, []string{"command", "result"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "dialogtuple",
			Subsystem: "commands",
			Name:      "duration_seconds",
			Help:      "Command run latency.",
			Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		}, []string{"command"}),
	}
}

func (m *Metrics) Observe(_ context.Context, o Outcome) {
	if m == nil {
		return
	}
	m.runs.WithLabelValues(o.Command, string(o.Result)).Inc()
	m.duration.WithLabelValues(o.Command).Observe(o.Elapsed.Seconds())
}
