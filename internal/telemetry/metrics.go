// Package telemetry exposes walk-forward analysis progress as Prometheus
// metrics for the results server.
package telemetry

import (
	"math"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	io_prometheus_client "github.com/prometheus/client_model/go"

	"github.com/sawpanic/walkgate/internal/walkforward"
)

// Registry holds all walkgate Prometheus metrics on a private registry so
// repeated runs in one process never double-register.
type Registry struct {
	registry *prometheus.Registry

	WindowsEvaluated prometheus.Counter
	PendingWindows   prometheus.Gauge
	OverfitRate      *prometheus.GaugeVec
	MeanPenalty      *prometheus.GaugeVec
	Stability        *prometheus.GaugeVec
	ParameterDrift   *prometheus.GaugeVec
	OverallSeverity  prometheus.Gauge
}

// NewRegistry creates a registry with all walkgate metrics registered.
func NewRegistry() *Registry {
	r := &Registry{
		registry: prometheus.NewRegistry(),

		WindowsEvaluated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "walkgate_windows_evaluated_total",
			Help: "Windows with a recorded backtest result",
		}),
		PendingWindows: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "walkgate_pending_windows",
			Help: "Generated windows not yet evaluated",
		}),
		OverfitRate: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "walkgate_overfit_rate",
			Help: "Share of evaluated windows past the overfitting tolerance",
		}, []string{"metric"}),
		MeanPenalty: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "walkgate_mean_penalty",
			Help: "Mean overfitting penalty across evaluated windows",
		}, []string{"metric"}),
		Stability: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "walkgate_stability_score",
			Help: "Test-metric stability score across evaluated windows (0 to 1)",
		}, []string{"metric"}),
		ParameterDrift: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "walkgate_parameter_drift",
			Help: "Latest relative drift per parameter",
		}, []string{"parameter"}),
		OverallSeverity: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "walkgate_overall_severity",
			Help: "Overall severity classification (0=none 1=mild 2=moderate 3=severe)",
		}),
	}

	r.registry.MustRegister(
		r.WindowsEvaluated,
		r.PendingWindows,
		r.OverfitRate,
		r.MeanPenalty,
		r.Stability,
		r.ParameterDrift,
		r.OverallSeverity,
	)
	return r
}

// RecordWindow counts one recorded window result.
func (r *Registry) RecordWindow() {
	r.WindowsEvaluated.Inc()
}

// ObserveAssessment publishes the current assessment. Undefined drift (NaN)
// is not exported.
func (r *Registry) ObserveAssessment(a *walkforward.Assessment) {
	r.PendingWindows.Set(float64(a.Summary.PendingWindows))
	r.OverallSeverity.Set(float64(a.Overall))

	for name, ms := range a.Summary.Metrics {
		r.OverfitRate.WithLabelValues(name).Set(ms.OverfitRate)
		r.MeanPenalty.WithLabelValues(name).Set(ms.MeanPenalty)
		r.Stability.WithLabelValues(name).Set(ms.Stability)
	}
	for name, d := range a.LatestDrift {
		if math.IsNaN(d) {
			continue
		}
		r.ParameterDrift.WithLabelValues(name).Set(d)
	}
}

// EvaluatedCount reads the windows-evaluated counter back out of the
// registry.
func (r *Registry) EvaluatedCount() float64 {
	metric := &io_prometheus_client.Metric{}
	if err := r.WindowsEvaluated.Write(metric); err != nil {
		return 0
	}
	return metric.GetCounter().GetValue()
}

// Handler returns the Prometheus scrape handler for this registry.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
