package walkforward

import (
	"github.com/sawpanic/walkgate/internal/overfit"
)

// MetricVerdict is the severity classification of one metric's mean penalty.
type MetricVerdict struct {
	Metric      string           `json:"metric"`
	MeanPenalty float64          `json:"mean_penalty"`
	Severity    overfit.Severity `json:"severity"`
}

// Assessment is the accept/veto view over a run: per-metric severity, the
// overall worst severity, and whether the parameter set's drift stayed within
// tolerance.
type Assessment struct {
	Summary        *Summary                  `json:"summary"`
	Metrics        map[string]*MetricVerdict `json:"metrics"`
	Overall        overfit.Severity          `json:"overall_severity"`
	Robust         bool                      `json:"robust_parameters"`
	UnstableParams []string                  `json:"unstable_params,omitempty"`
	LatestDrift    map[string]float64        `json:"latest_drift,omitempty"`
}

// Assess classifies the current summary against severity thresholds and the
// drift tolerance. Like Summary, it is recomputed fully on each call.
func (v *Validator) Assess(th overfit.Thresholds, maxDriftPct float64) *Assessment {
	summary := v.Summary()

	a := &Assessment{
		Summary:     summary,
		Metrics:     make(map[string]*MetricVerdict),
		Overall:     overfit.SeverityNone,
		LatestDrift: v.drift.LatestDrift(),
	}

	for name, ms := range summary.Metrics {
		verdict := &MetricVerdict{
			Metric:      name,
			MeanPenalty: ms.MeanPenalty,
			Severity:    overfit.ClassifySeverity(ms.MeanPenalty, th),
		}
		a.Metrics[name] = verdict
		if verdict.Severity > a.Overall {
			a.Overall = verdict.Severity
		}
	}

	a.Robust = overfit.IsRobustParameters(a.LatestDrift, maxDriftPct)
	a.UnstableParams = v.drift.FlagInstability(maxDriftPct)

	return a
}
