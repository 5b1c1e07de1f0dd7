package walkforward

import (
	"errors"
	"fmt"
	"maps"
	"sort"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/sawpanic/walkgate/internal/overfit"
)

// ValidatorConfig holds the scoring knobs the validator applies when
// summarizing recorded results.
type ValidatorConfig struct {
	TolerancePct float64 // degradation tolerated before a window counts as overfit
	PenaltyScale float64
}

// DefaultValidatorConfig returns permissive defaults that never veto every
// parameter set untuned.
func DefaultValidatorConfig() *ValidatorConfig {
	return &ValidatorConfig{
		TolerancePct: 0.30,
		PenaltyScale: 1.0,
	}
}

// WindowResult associates a window with the parameter set used and the
// train/test metric mappings the external backtest engine produced for it.
type WindowResult struct {
	WindowID     int                `json:"window_id"`
	Params       map[string]float64 `json:"params"`
	TrainMetrics map[string]float64 `json:"train_metrics"`
	TestMetrics  map[string]float64 `json:"test_metrics"`
}

// ResultRow is the per-window tabular export shape: time bounds, parameters,
// and both metric mappings. Rendering to CSV/JSON/HTML happens downstream.
type ResultRow struct {
	WindowID     int                `json:"window_id"`
	TrainStart   time.Time          `json:"train_start"`
	TrainEnd     time.Time          `json:"train_end"`
	TestStart    time.Time          `json:"test_start"`
	TestEnd      time.Time          `json:"test_end"`
	Params       map[string]float64 `json:"params"`
	TrainMetrics map[string]float64 `json:"train_metrics"`
	TestMetrics  map[string]float64 `json:"test_metrics"`
}

// MetricSummary aggregates one tracked metric across all evaluated windows.
type MetricSummary struct {
	Metric        string  `json:"metric"`
	MeanTrain     float64 `json:"mean_train"`
	MeanTest      float64 `json:"mean_test"`
	MeanPenalty   float64 `json:"mean_penalty"`
	OverfitRate   float64 `json:"overfit_rate"` // share of paired windows past tolerance
	WorstWindowID int     `json:"worst_window_id"`
	Stability     float64 `json:"stability"`
}

// Summary is the aggregate view over all currently recorded results.
type Summary struct {
	TotalWindows     int                       `json:"total_windows"`
	EvaluatedWindows int                       `json:"evaluated_windows"`
	PendingWindows   int                       `json:"pending_windows"`
	Metrics          map[string]*MetricSummary `json:"metrics"`
}

// Validator owns the generated window sequence and accumulates per-window
// results pushed by the caller's backtest loop. Results live in a dense slice
// indexed by window ID, so concurrent recording of distinct windows touches
// disjoint slots; recording the same window from multiple writers needs
// external serialization.
type Validator struct {
	cfg     *ValidatorConfig
	windows []Window
	results []*WindowResult
	drift   *DriftMonitor
}

// NewValidator creates a validator for one generated window sequence.
func NewValidator(windows []Window, cfg *ValidatorConfig) *Validator {
	if cfg == nil {
		cfg = DefaultValidatorConfig()
	}
	return &Validator{
		cfg:     cfg,
		windows: windows,
		results: make([]*WindowResult, len(windows)),
		drift:   NewDriftMonitor(),
	}
}

// Windows returns the generated window sequence.
func (v *Validator) Windows() []Window {
	return v.windows
}

// Window returns the window with the given ID.
func (v *Validator) Window(id int) (Window, error) {
	if id < 0 || id >= len(v.windows) {
		return Window{}, fmt.Errorf("%w: id %d of %d windows", ErrUnknownWindow, id, len(v.windows))
	}
	return v.windows[id], nil
}

// Drift returns the parameter drift monitor fed by RecordWindowResult.
func (v *Validator) Drift() *DriftMonitor {
	return v.drift
}

// Evaluated reports whether a window has a recorded result.
func (v *Validator) Evaluated(id int) bool {
	return id >= 0 && id < len(v.results) && v.results[id] != nil
}

// RecordWindowResult stores (or overwrites, for reruns) the result for a
// generated window and appends the matching parameter snapshot to the drift
// monitor. A snapshot the monitor rejects as out-of-order — reruns and
// out-of-sequence recording — is skipped without failing the call; the
// monotonic history keeps the first pass. All maps are copied on entry.
func (v *Validator) RecordWindowResult(windowID int, params, trainMetrics, testMetrics map[string]float64) error {
	if windowID < 0 || windowID >= len(v.windows) {
		return fmt.Errorf("record result: %w: id %d of %d windows", ErrUnknownWindow, windowID, len(v.windows))
	}

	v.results[windowID] = &WindowResult{
		WindowID:     windowID,
		Params:       maps.Clone(params),
		TrainMetrics: maps.Clone(trainMetrics),
		TestMetrics:  maps.Clone(testMetrics),
	}

	if err := v.drift.AddSnapshot(windowID, params); err != nil {
		if !errors.Is(err, ErrOutOfOrderSnapshot) {
			return fmt.Errorf("record result: window %d: %w", windowID, err)
		}
		log.Debug().
			Int("window_id", windowID).
			Msg("Parameter snapshot skipped, drift history keeps first pass")
	}

	return nil
}

// Summary recomputes aggregate statistics from all currently recorded
// results. No caching: the output depends only on the recorded result set
// and the validator config.
func (v *Validator) Summary() *Summary {
	s := &Summary{
		TotalWindows: len(v.windows),
		Metrics:      make(map[string]*MetricSummary),
	}

	type accum struct {
		trainSum, testSum, penaltySum float64
		trainN, testN, pairN          int
		overfitN                      int
		worstID                       int
		worstDegradation              float64
		testValues                    []float64
	}
	accums := make(map[string]*accum)
	get := func(metric string) *accum {
		a, ok := accums[metric]
		if !ok {
			a = &accum{worstID: -1}
			accums[metric] = a
		}
		return a
	}

	for _, res := range v.results {
		if res == nil {
			continue
		}
		s.EvaluatedWindows++

		for metric, train := range res.TrainMetrics {
			a := get(metric)
			a.trainSum += train
			a.trainN++

			test, ok := res.TestMetrics[metric]
			if !ok {
				continue
			}
			a.pairN++
			a.penaltySum += overfit.Penalty(train, test, v.cfg.TolerancePct, v.cfg.PenaltyScale)
			if overfit.Detect(train, test, v.cfg.TolerancePct) {
				a.overfitN++
			}
			if d := overfit.Degradation(train, test); a.worstID < 0 || d > a.worstDegradation {
				a.worstID = res.WindowID
				a.worstDegradation = d
			}
		}
		for metric, test := range res.TestMetrics {
			a := get(metric)
			a.testSum += test
			a.testN++
			a.testValues = append(a.testValues, test)
		}
	}

	s.PendingWindows = s.TotalWindows - s.EvaluatedWindows

	for metric, a := range accums {
		ms := &MetricSummary{
			Metric:        metric,
			WorstWindowID: a.worstID,
			Stability:     overfit.StabilityScore(a.testValues),
		}
		if a.trainN > 0 {
			ms.MeanTrain = a.trainSum / float64(a.trainN)
		}
		if a.testN > 0 {
			ms.MeanTest = a.testSum / float64(a.testN)
		}
		if a.pairN > 0 {
			ms.MeanPenalty = a.penaltySum / float64(a.pairN)
			ms.OverfitRate = float64(a.overfitN) / float64(a.pairN)
		}
		s.Metrics[metric] = ms
	}

	return s
}

// Rows exports one row per recorded window, ordered by window ID. Map values
// are copies; mutating them does not touch the recorded results.
func (v *Validator) Rows() []ResultRow {
	var rows []ResultRow
	for id, res := range v.results {
		if res == nil {
			continue
		}
		w := v.windows[id]
		rows = append(rows, ResultRow{
			WindowID:     id,
			TrainStart:   w.TrainStart,
			TrainEnd:     w.TrainEnd,
			TestStart:    w.TestStart,
			TestEnd:      w.TestEnd,
			Params:       maps.Clone(res.Params),
			TrainMetrics: maps.Clone(res.TrainMetrics),
			TestMetrics:  maps.Clone(res.TestMetrics),
		})
	}
	return rows
}

// MetricNames returns the sorted union of metric names seen across recorded
// train and test mappings.
func (v *Validator) MetricNames() []string {
	seen := make(map[string]bool)
	for _, res := range v.results {
		if res == nil {
			continue
		}
		for name := range res.TrainMetrics {
			seen[name] = true
		}
		for name := range res.TestMetrics {
			seen[name] = true
		}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
