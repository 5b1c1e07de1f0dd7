// Package overfit holds the stateless scoring functions that turn train/test
// metric pairs into degradation measures, penalties, and stability scores.
// Zero denominators are an expected outcome of unattended runs, so every
// function resolves them to a guarded value instead of returning an error.
package overfit

import (
	"errors"
	"math"
)

// ErrMismatchedLength indicates paired sequences of unequal length.
var ErrMismatchedLength = errors.New("mismatched sequence lengths")

// epsilon keeps the stability denominator away from zero.
const epsilon = 1e-9

// Degradation returns the relative train→test performance drop,
// max(0, (train-test)/|train|), guarded to 0 when train is zero. Negative
// degradation (test outperforming train) is clamped to 0.
func Degradation(train, test float64) float64 {
	if train == 0 {
		return 0
	}
	d := (train - test) / math.Abs(train)
	if d < 0 {
		return 0
	}
	return d
}

// Detect reports whether the train→test drop exceeds the tolerance. A zero
// train value never flags, and neither does a test value at or above train.
func Detect(train, test, tolerancePct float64) bool {
	if train == 0 {
		return false
	}
	return (train-test)/math.Abs(train) > tolerancePct
}

// Penalty converts a train/test pair into a non-negative penalty: the
// degradation in excess of the tolerance, scaled by penaltyScale.
func Penalty(train, test, tolerancePct, penaltyScale float64) float64 {
	p := (Degradation(train, test) - tolerancePct) * penaltyScale
	if p < 0 {
		return 0
	}
	return p
}

// StabilityScore measures the consistency of test values across windows:
// clamp(1 - stdev/(|mean|+eps), 0, 1). A constant sequence scores exactly
// 1.0; an empty one scores 0.
func StabilityScore(testValues []float64) float64 {
	n := len(testValues)
	if n == 0 {
		return 0
	}

	mean := 0.0
	for _, v := range testValues {
		mean += v
	}
	mean /= float64(n)

	variance := 0.0
	for _, v := range testValues {
		diff := v - mean
		variance += diff * diff
	}
	variance /= float64(n)

	score := 1 - math.Sqrt(variance)/(math.Abs(mean)+epsilon)
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

// DegradationRatio returns the mean per-index degradation over equal-length
// paired sequences.
func DegradationRatio(trainValues, testValues []float64) (float64, error) {
	if len(trainValues) != len(testValues) {
		return 0, ErrMismatchedLength
	}
	if len(trainValues) == 0 {
		return 0, nil
	}

	total := 0.0
	for i := range trainValues {
		total += Degradation(trainValues[i], testValues[i])
	}
	return total / float64(len(trainValues)), nil
}

// IsRobustParameters reports whether no parameter's latest flagged drift
// magnitude exceeds maxDriftPct. An undefined drift (NaN, from a zero
// previous value) never exceeds.
func IsRobustParameters(latestDrift map[string]float64, maxDriftPct float64) bool {
	for _, d := range latestDrift {
		if math.IsNaN(d) {
			continue
		}
		if math.Abs(d) > maxDriftPct {
			return false
		}
	}
	return true
}
