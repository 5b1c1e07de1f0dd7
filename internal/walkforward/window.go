package walkforward

import (
	"fmt"
	"time"
)

// Strategy selects how train/test windows advance across the overall range.
type Strategy int

const (
	// StrategyRolling slides a fixed-length train window forward by the test
	// duration each step.
	StrategyRolling Strategy = iota
	// StrategyAnchored keeps the train start fixed and expands the train
	// window by the test duration each step.
	StrategyAnchored
	// StrategyFixedGap is rolling with a constant gap inserted between the
	// train end and the test start.
	StrategyFixedGap
)

// String returns the config-file spelling of the strategy.
func (s Strategy) String() string {
	switch s {
	case StrategyRolling:
		return "rolling"
	case StrategyAnchored:
		return "anchored"
	case StrategyFixedGap:
		return "fixed_gap"
	default:
		return fmt.Sprintf("strategy(%d)", int(s))
	}
}

// ParseStrategy parses the config-file spelling of a strategy.
func ParseStrategy(s string) (Strategy, error) {
	switch s {
	case "rolling":
		return StrategyRolling, nil
	case "anchored":
		return StrategyAnchored, nil
	case "fixed_gap":
		return StrategyFixedGap, nil
	default:
		return 0, fmt.Errorf("%w: unknown window strategy %q", ErrInvalidConfig, s)
	}
}

// MarshalText implements encoding.TextMarshaler so windows serialize the
// strategy by name in JSON and YAML.
func (s Strategy) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Strategy) UnmarshalText(text []byte) error {
	parsed, err := ParseStrategy(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// WindowConfig describes the overall range and slicing parameters for one
// analysis run.
type WindowConfig struct {
	Start       time.Time     `json:"start"`
	End         time.Time     `json:"end"`
	TrainWindow time.Duration `json:"train_window"`
	TestWindow  time.Duration `json:"test_window"`
	Gap         time.Duration `json:"gap"` // fixed_gap only, default 0
	Strategy    Strategy      `json:"strategy"`
}

// Validate fails fast on window sizing that can never partition a range.
func (c WindowConfig) Validate() error {
	if c.TrainWindow <= 0 {
		return fmt.Errorf("%w: train window must be positive, got %v", ErrInvalidConfig, c.TrainWindow)
	}
	if c.TestWindow <= 0 {
		return fmt.Errorf("%w: test window must be positive, got %v", ErrInvalidConfig, c.TestWindow)
	}
	if c.Gap < 0 {
		return fmt.Errorf("%w: gap must not be negative, got %v", ErrInvalidConfig, c.Gap)
	}
	return nil
}

// Window is one train/test timestamp-range pair. All segments are half-open:
// [start, end).
type Window struct {
	ID         int       `json:"window_id"`
	TrainStart time.Time `json:"train_start"`
	TrainEnd   time.Time `json:"train_end"`
	TestStart  time.Time `json:"test_start"`
	TestEnd    time.Time `json:"test_end"`
	Strategy   Strategy  `json:"strategy"`
}

// TrainDuration returns the length of the train segment.
func (w Window) TrainDuration() time.Duration {
	return w.TrainEnd.Sub(w.TrainStart)
}

// TestDuration returns the length of the test segment.
func (w Window) TestDuration() time.Duration {
	return w.TestEnd.Sub(w.TestStart)
}

// Bounds returns the [start, end) pair for the given split.
func (w Window) Bounds(split Split) (time.Time, time.Time) {
	if split == SplitTest {
		return w.TestStart, w.TestEnd
	}
	return w.TrainStart, w.TrainEnd
}

// GenerateWindows produces the ordered window sequence for a config. Window
// IDs are sequential from zero. A range too short for even one window yields
// an empty sequence, not an error. The final window's test end is clamped to
// the range end.
func GenerateWindows(cfg WindowConfig) ([]Window, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// Gap is only meaningful for fixed_gap.
	gap := time.Duration(0)
	if cfg.Strategy == StrategyFixedGap {
		gap = cfg.Gap
	}

	var windows []Window
	for id := 0; ; id++ {
		step := time.Duration(id) * cfg.TestWindow

		var trainStart, trainEnd time.Time
		switch cfg.Strategy {
		case StrategyAnchored:
			trainStart = cfg.Start
			trainEnd = cfg.Start.Add(cfg.TrainWindow + step)
		default: // rolling, fixed_gap
			trainStart = cfg.Start.Add(step)
			trainEnd = trainStart.Add(cfg.TrainWindow)
		}

		testStart := trainEnd.Add(gap)
		if !testStart.Before(cfg.End) {
			break
		}

		testEnd := testStart.Add(cfg.TestWindow)
		if testEnd.After(cfg.End) {
			testEnd = cfg.End
		}

		windows = append(windows, Window{
			ID:         id,
			TrainStart: trainStart,
			TrainEnd:   trainEnd,
			TestStart:  testStart,
			TestEnd:    testEnd,
			Strategy:   cfg.Strategy,
		})
	}

	return windows, nil
}
