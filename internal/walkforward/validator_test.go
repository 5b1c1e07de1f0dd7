package walkforward

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sawpanic/walkgate/internal/overfit"
)

func overfitThresholdsForTest() overfit.Thresholds {
	return overfit.Thresholds{Mild: 0.10, Moderate: 0.25, Severe: 0.50}
}

func newTestValidator(t *testing.T) *Validator {
	t.Helper()
	windows, err := GenerateWindows(dayConfig(StrategyRolling, 120, 30, 10, 0))
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(windows), 3)
	return NewValidator(windows, &ValidatorConfig{TolerancePct: 0.10, PenaltyScale: 1.0})
}

func TestValidator_RecordUnknownWindow(t *testing.T) {
	v := newTestValidator(t)

	err := v.RecordWindowResult(len(v.Windows()), nil, nil, nil)
	assert.True(t, errors.Is(err, ErrUnknownWindow))

	err = v.RecordWindowResult(-1, nil, nil, nil)
	assert.True(t, errors.Is(err, ErrUnknownWindow))
}

func TestValidator_SummaryMeansAndWorstWindow(t *testing.T) {
	v := newTestValidator(t)
	params := map[string]float64{"lookback": 20}

	require.NoError(t, v.RecordWindowResult(0, params,
		map[string]float64{"sharpe": 2.0}, map[string]float64{"sharpe": 1.8}))
	require.NoError(t, v.RecordWindowResult(1, params,
		map[string]float64{"sharpe": 2.0}, map[string]float64{"sharpe": 1.0}))
	require.NoError(t, v.RecordWindowResult(2, params,
		map[string]float64{"sharpe": 2.0}, map[string]float64{"sharpe": 2.2}))

	s := v.Summary()
	assert.Equal(t, len(v.Windows()), s.TotalWindows)
	assert.Equal(t, 3, s.EvaluatedWindows)
	assert.Equal(t, s.TotalWindows-3, s.PendingWindows)

	ms := s.Metrics["sharpe"]
	require.NotNil(t, ms)
	assert.InDelta(t, 2.0, ms.MeanTrain, 1e-12)
	assert.InDelta(t, (1.8+1.0+2.2)/3, ms.MeanTest, 1e-12)
	assert.Equal(t, 1, ms.WorstWindowID, "window 1 degrades hardest")

	// Penalties: w0 d=0.1 -> 0, w1 d=0.5 -> 0.4, w2 -> 0.
	assert.InDelta(t, 0.4/3, ms.MeanPenalty, 1e-12)
	assert.InDelta(t, 1.0/3, ms.OverfitRate, 1e-12)
}

func TestValidator_RerecordIsIdempotent(t *testing.T) {
	v := newTestValidator(t)
	params := map[string]float64{"lookback": 20}
	train := map[string]float64{"sharpe": 2.0}
	test := map[string]float64{"sharpe": 1.5}

	require.NoError(t, v.RecordWindowResult(0, params, train, test))
	require.NoError(t, v.RecordWindowResult(1, params, train, test))
	before := v.Summary()

	// Rerun of window 0 with identical values.
	require.NoError(t, v.RecordWindowResult(0, params, train, test))
	after := v.Summary()

	assert.Equal(t, before, after, "re-recording an identical result must not change the summary")
	assert.Len(t, v.Drift().Snapshots(), 2, "drift history keeps the first pass")
}

func TestValidator_RerecordOverwrites(t *testing.T) {
	v := newTestValidator(t)
	params := map[string]float64{"lookback": 20}

	require.NoError(t, v.RecordWindowResult(0, params,
		map[string]float64{"sharpe": 2.0}, map[string]float64{"sharpe": 0.5}))
	require.NoError(t, v.RecordWindowResult(0, params,
		map[string]float64{"sharpe": 2.0}, map[string]float64{"sharpe": 2.0}))

	ms := v.Summary().Metrics["sharpe"]
	require.NotNil(t, ms)
	assert.Equal(t, 0.0, ms.MeanPenalty, "last write wins")
	assert.Equal(t, 1, v.Summary().EvaluatedWindows)
}

func TestValidator_RecordFeedsDriftMonitor(t *testing.T) {
	v := newTestValidator(t)
	metrics := map[string]float64{"sharpe": 1.0}

	require.NoError(t, v.RecordWindowResult(0, map[string]float64{"lookback": 10}, metrics, metrics))
	require.NoError(t, v.RecordWindowResult(1, map[string]float64{"lookback": 16}, metrics, metrics))

	drift := v.Drift().LatestDrift()
	assert.InDelta(t, 0.6, drift["lookback"], 1e-12)
}

func TestValidator_EvaluatedStateTransitions(t *testing.T) {
	v := newTestValidator(t)
	assert.False(t, v.Evaluated(0))

	metrics := map[string]float64{"sharpe": 1.0}
	require.NoError(t, v.RecordWindowResult(0, nil, metrics, metrics))
	assert.True(t, v.Evaluated(0))

	// Idempotent: still evaluated after a rerun.
	require.NoError(t, v.RecordWindowResult(0, nil, metrics, metrics))
	assert.True(t, v.Evaluated(0))
	assert.False(t, v.Evaluated(1))
}

func TestValidator_RowsOrderedByWindowID(t *testing.T) {
	v := newTestValidator(t)
	metrics := map[string]float64{"sharpe": 1.0}

	require.NoError(t, v.RecordWindowResult(2, map[string]float64{"lookback": 30}, metrics, metrics))
	require.NoError(t, v.RecordWindowResult(0, map[string]float64{"lookback": 10}, metrics, metrics))

	rows := v.Rows()
	require.Len(t, rows, 2)
	assert.Equal(t, 0, rows[0].WindowID)
	assert.Equal(t, 2, rows[1].WindowID)

	w0 := v.Windows()[0]
	assert.Equal(t, w0.TrainStart, rows[0].TrainStart)
	assert.Equal(t, w0.TestEnd, rows[0].TestEnd)
	assert.Equal(t, 10.0, rows[0].Params["lookback"])
}

func TestValidator_OutOfOrderRecordingStillStoresResult(t *testing.T) {
	v := newTestValidator(t)
	metrics := map[string]float64{"sharpe": 1.0}

	require.NoError(t, v.RecordWindowResult(1, map[string]float64{"lookback": 10}, metrics, metrics))
	// Window 0 arrives late: result stored, snapshot skipped.
	require.NoError(t, v.RecordWindowResult(0, map[string]float64{"lookback": 12}, metrics, metrics))

	assert.True(t, v.Evaluated(0))
	assert.True(t, v.Evaluated(1))

	snapshots := v.Drift().Snapshots()
	require.Len(t, snapshots, 1)
	assert.Equal(t, 1, snapshots[0].WindowID)
}

func TestValidator_Assess(t *testing.T) {
	v := newTestValidator(t)

	require.NoError(t, v.RecordWindowResult(0, map[string]float64{"lookback": 10},
		map[string]float64{"sharpe": 2.0}, map[string]float64{"sharpe": 0.4}))
	require.NoError(t, v.RecordWindowResult(1, map[string]float64{"lookback": 16},
		map[string]float64{"sharpe": 2.0}, map[string]float64{"sharpe": 0.5}))

	a := v.Assess(overfitThresholdsForTest(), 0.5)

	// Mean penalty: ((0.8-0.1) + (0.75-0.1)) / 2 = 0.675 -> severe.
	require.NotNil(t, a.Metrics["sharpe"])
	assert.Equal(t, "severe", a.Overall.String())
	assert.False(t, a.Robust, "60% lookback drift exceeds the 50% tolerance")
	assert.Equal(t, []string{"lookback"}, a.UnstableParams)
}
