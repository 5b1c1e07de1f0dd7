package overfit

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetect(t *testing.T) {
	assert.True(t, Detect(100, 50, 0.1), "50% degradation past 10% tolerance")
	assert.False(t, Detect(100, 95, 0.1), "5% degradation inside tolerance")
	assert.False(t, Detect(100, 110, 0.1), "test outperforming train never flags")
	assert.False(t, Detect(0, -50, 0.1), "zero train value never flags")
	assert.True(t, Detect(-100, -160, 0.1), "degradation is relative to |train|")
}

func TestPenalty(t *testing.T) {
	assert.Equal(t, 0.0, Penalty(100, 110, 0.1, 1.0), "test outperforms train")
	assert.Equal(t, 0.0, Penalty(100, 95, 0.1, 1.0), "inside tolerance")
	assert.InDelta(t, 0.4, Penalty(100, 50, 0.1, 1.0), 1e-12)
	assert.InDelta(t, 0.8, Penalty(100, 50, 0.1, 2.0), 1e-12, "penalty scales linearly")
	assert.Equal(t, 0.0, Penalty(0, -100, 0.1, 1.0), "zero train guards to zero")
}

func TestStabilityScore(t *testing.T) {
	assert.Equal(t, 1.0, StabilityScore([]float64{1.0, 1.0, 1.0}), "constant sequence is exactly 1.0")
	assert.Equal(t, 0.0, StabilityScore(nil))
	assert.Equal(t, 1.0, StabilityScore([]float64{2.5}), "single value has zero spread")

	noisy := StabilityScore([]float64{1.0, -1.0, 1.0, -1.0})
	assert.Equal(t, 0.0, noisy, "spread far beyond the mean clamps to 0")

	mild := StabilityScore([]float64{1.0, 1.1, 0.9})
	assert.Greater(t, mild, 0.8)
	assert.Less(t, mild, 1.0)
}

func TestDegradationRatio(t *testing.T) {
	ratio, err := DegradationRatio([]float64{100, 100}, []float64{90, 80})
	require.NoError(t, err)
	assert.InDelta(t, 0.15, ratio, 1e-12, "mean of 0.10 and 0.20")

	ratio, err = DegradationRatio([]float64{100, 0}, []float64{150, -10})
	require.NoError(t, err)
	assert.Equal(t, 0.0, ratio, "outperformance and zero train both guard to 0")

	_, err = DegradationRatio([]float64{100}, []float64{90, 80})
	assert.True(t, errors.Is(err, ErrMismatchedLength))

	ratio, err = DegradationRatio(nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 0.0, ratio)
}

func TestClassifySeverity(t *testing.T) {
	th := Thresholds{Mild: 0.10, Moderate: 0.25, Severe: 0.50}

	assert.Equal(t, SeverityNone, ClassifySeverity(0.0, th))
	assert.Equal(t, SeverityNone, ClassifySeverity(0.09, th))
	assert.Equal(t, SeverityMild, ClassifySeverity(0.10, th), "lower bounds are inclusive")
	assert.Equal(t, SeverityMild, ClassifySeverity(0.24, th))
	assert.Equal(t, SeverityModerate, ClassifySeverity(0.25, th))
	assert.Equal(t, SeveritySevere, ClassifySeverity(0.50, th))
	assert.Equal(t, SeveritySevere, ClassifySeverity(9.0, th))
}

func TestSeverityOrdering(t *testing.T) {
	assert.True(t, SeverityNone < SeverityMild)
	assert.True(t, SeverityMild < SeverityModerate)
	assert.True(t, SeverityModerate < SeveritySevere)
	assert.Equal(t, "moderate", SeverityModerate.String())
}

func TestIsRobustParameters(t *testing.T) {
	assert.True(t, IsRobustParameters(nil, 0.5))
	assert.True(t, IsRobustParameters(map[string]float64{"fast": 0.1, "slow": -0.4}, 0.5))
	assert.False(t, IsRobustParameters(map[string]float64{"fast": 0.6}, 0.5))
	assert.False(t, IsRobustParameters(map[string]float64{"fast": -0.6}, 0.5), "magnitude counts, not sign")
	assert.True(t, IsRobustParameters(map[string]float64{"fast": math.NaN()}, 0.5), "undefined drift never exceeds")
}

func TestDegradation(t *testing.T) {
	assert.InDelta(t, 0.5, Degradation(100, 50), 1e-12)
	assert.Equal(t, 0.0, Degradation(100, 120))
	assert.Equal(t, 0.0, Degradation(0, -10))
	assert.InDelta(t, 0.6, Degradation(-100, -160), 1e-12)
}
