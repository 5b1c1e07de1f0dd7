package walkforward

import (
	"fmt"
	"maps"
	"math"
	"sort"
	"sync"
)

// ParamSnapshot is one parameter set as it was evaluated for a window.
type ParamSnapshot struct {
	WindowID int                `json:"window_id"`
	Params   map[string]float64 `json:"params"`
}

// DriftMonitor tracks a parameter set's evolution across the ordered window
// sequence. History is append-only with strictly increasing window IDs;
// drift between consecutive snapshots is undefined otherwise.
//
// Appends share a single list tail, so the monitor carries its own lock even
// though result recording for distinct windows does not.
type DriftMonitor struct {
	mu        sync.RWMutex
	snapshots []ParamSnapshot
}

// NewDriftMonitor creates an empty drift monitor.
func NewDriftMonitor() *DriftMonitor {
	return &DriftMonitor{}
}

// AddSnapshot appends a parameter snapshot. The window ID must be strictly
// greater than the last appended one; duplicates and out-of-order appends
// fail with ErrOutOfOrderSnapshot. The parameter map is copied.
func (m *DriftMonitor) AddSnapshot(windowID int, params map[string]float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if n := len(m.snapshots); n > 0 {
		last := m.snapshots[n-1].WindowID
		if windowID <= last {
			return fmt.Errorf("%w: window %d after window %d", ErrOutOfOrderSnapshot, windowID, last)
		}
	}

	m.snapshots = append(m.snapshots, ParamSnapshot{
		WindowID: windowID,
		Params:   maps.Clone(params),
	})
	return nil
}

// Snapshots returns a copy of the snapshot history in append order.
func (m *DriftMonitor) Snapshots() []ParamSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]ParamSnapshot, len(m.snapshots))
	copy(out, m.snapshots)
	return out
}

// PerParameterDrift computes, for each parameter present in at least two
// consecutive snapshots, the sequence of relative changes
// (v_i - v_{i-1}) / |v_{i-1}| between those pairs. A zero previous value
// makes the change undefined and yields NaN for that step.
func (m *DriftMonitor) PerParameterDrift() map[string][]float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()

	drift := make(map[string][]float64)
	for i := 1; i < len(m.snapshots); i++ {
		prev := m.snapshots[i-1].Params
		cur := m.snapshots[i].Params
		for name, curVal := range cur {
			prevVal, ok := prev[name]
			if !ok {
				continue
			}
			if prevVal == 0 {
				drift[name] = append(drift[name], math.NaN())
				continue
			}
			drift[name] = append(drift[name], (curVal-prevVal)/math.Abs(prevVal))
		}
	}
	return drift
}

// LatestDrift returns each parameter's most recent drift value.
func (m *DriftMonitor) LatestDrift() map[string]float64 {
	latest := make(map[string]float64)
	for name, series := range m.PerParameterDrift() {
		latest[name] = series[len(series)-1]
	}
	return latest
}

// IsWithinBounds checks the latest snapshot's value for a parameter against
// caller bounds. A parameter absent from the latest snapshot, or an empty
// history, is out of bounds.
func (m *DriftMonitor) IsWithinBounds(param string, min, max float64) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	n := len(m.snapshots)
	if n == 0 {
		return false
	}
	v, ok := m.snapshots[n-1].Params[param]
	if !ok {
		return false
	}
	return v >= min && v <= max
}

// FlagInstability returns the sorted names of parameters whose most recent
// drift magnitude exceeds thresholdPct. Undefined drift never exceeds.
func (m *DriftMonitor) FlagInstability(thresholdPct float64) []string {
	var flagged []string
	for name, d := range m.LatestDrift() {
		if math.IsNaN(d) {
			continue
		}
		if math.Abs(d) > thresholdPct {
			flagged = append(flagged, name)
		}
	}
	sort.Strings(flagged)
	return flagged
}
