package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	backtestDuration *prometheus.HistogramVec
	tradesTotal      *prometheus.CounterVec
	iterationsTotal  *prometheus.CounterVec
	bestObjective    *prometheus.GaugeVec
	errorsTotal      *prometheus.CounterVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		backtestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "scalpbot_backtest_duration_seconds",
				Help:    "Duration of one full backtest run",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"symbol"},
		),
		tradesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scalpbot_backtest_trades_total",
				Help: "Closed trades produced by backtest runs",
			},
			[]string{"symbol"},
		),
		iterationsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scalpbot_optimizer_iterations_total",
				Help: "Optimizer iterations by outcome",
			},
			[]string{"result"},
		),
		bestObjective: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "scalpbot_optimizer_best_objective",
				Help: "Best committed objective value of the current run",
			},
			[]string{"objective"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scalpbot_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
	}
}

// RecordBacktest records the duration of one backtest run.
func (r *Recorder) RecordBacktest(symbol string, seconds float64) {
	r.backtestDuration.WithLabelValues(symbol).Observe(seconds)
}

// RecordTrades records the number of closed trades of one run.
func (r *Recorder) RecordTrades(symbol string, n int) {
	r.tradesTotal.WithLabelValues(symbol).Add(float64(n))
}

// RecordIteration records one optimizer iteration outcome.
func (r *Recorder) RecordIteration(result string) {
	r.iterationsTotal.WithLabelValues(result).Inc()
}

// RecordBestObjective records the committed objective value.
func (r *Recorder) RecordBestObjective(objective string, value float64) {
	r.bestObjective.WithLabelValues(objective).Set(value)
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}
