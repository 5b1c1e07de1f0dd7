// Package config loads the walk-forward analysis configuration from YAML
// with built-in permissive defaults.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sawpanic/walkgate/internal/overfit"
	"github.com/sawpanic/walkgate/internal/walkforward"
)

// Duration wraps time.Duration so YAML configs can use "720h" style values.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return fmt.Errorf("duration must be a string like \"720h\": %w", err)
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// AnalysisConfig is the full configuration surface for one walk-forward
// analysis run.
type AnalysisConfig struct {
	WindowStrategy string    `yaml:"window_strategy"`
	Start          time.Time `yaml:"start"`
	End            time.Time `yaml:"end"`
	TrainWindow    Duration  `yaml:"train_window"`
	TestWindow     Duration  `yaml:"test_window"`
	Gap            Duration  `yaml:"gap"` // fixed_gap only

	OverfitTolerancePct float64            `yaml:"overfitting_tolerance_pct"`
	PenaltyScale        float64            `yaml:"penalty_scale"`
	DriftTolerancePct   float64            `yaml:"drift_tolerance_pct"`
	StabilityFloor      float64            `yaml:"stability_floor"`
	Severity            overfit.Thresholds `yaml:"severity"`
}

// DefaultAnalysisConfig returns built-in defaults. They are deliberately
// permissive: an untuned run must never veto every parameter set.
func DefaultAnalysisConfig() *AnalysisConfig {
	return &AnalysisConfig{
		WindowStrategy:      "rolling",
		TrainWindow:         Duration(180 * 24 * time.Hour),
		TestWindow:          Duration(30 * 24 * time.Hour),
		Gap:                 0,
		OverfitTolerancePct: 0.30,
		PenaltyScale:        1.0,
		DriftTolerancePct:   0.50,
		StabilityFloor:      0.0,
		Severity:            overfit.DefaultThresholds(),
	}
}

// LoadAnalysisConfig reads a YAML config file over the built-in defaults and
// validates the result.
func LoadAnalysisConfig(path string) (*AnalysisConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read analysis config: %w", err)
	}

	cfg := DefaultAnalysisConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse analysis config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the config before any windows are generated.
func (c *AnalysisConfig) Validate() error {
	if _, err := walkforward.ParseStrategy(c.WindowStrategy); err != nil {
		return err
	}
	wc := c.WindowConfig()
	if err := wc.Validate(); err != nil {
		return err
	}
	if c.OverfitTolerancePct < 0 {
		return fmt.Errorf("overfitting_tolerance_pct must not be negative, got %v", c.OverfitTolerancePct)
	}
	if c.PenaltyScale < 0 {
		return fmt.Errorf("penalty_scale must not be negative, got %v", c.PenaltyScale)
	}
	if c.DriftTolerancePct < 0 {
		return fmt.Errorf("drift_tolerance_pct must not be negative, got %v", c.DriftTolerancePct)
	}
	if c.StabilityFloor < 0 || c.StabilityFloor > 1 {
		return fmt.Errorf("stability_floor must be within [0, 1], got %v", c.StabilityFloor)
	}
	th := c.Severity
	if th.Mild > th.Moderate || th.Moderate > th.Severe {
		return fmt.Errorf("severity thresholds must be ordered mild <= moderate <= severe, got %v/%v/%v",
			th.Mild, th.Moderate, th.Severe)
	}
	return nil
}

// WindowConfig converts the analysis config into the generator's input.
func (c *AnalysisConfig) WindowConfig() walkforward.WindowConfig {
	strategy, _ := walkforward.ParseStrategy(c.WindowStrategy)
	return walkforward.WindowConfig{
		Start:       c.Start,
		End:         c.End,
		TrainWindow: c.TrainWindow.Std(),
		TestWindow:  c.TestWindow.Std(),
		Gap:         c.Gap.Std(),
		Strategy:    strategy,
	}
}

// ValidatorConfig converts the analysis config into the validator's scoring
// knobs.
func (c *AnalysisConfig) ValidatorConfig() *walkforward.ValidatorConfig {
	return &walkforward.ValidatorConfig{
		TolerancePct: c.OverfitTolerancePct,
		PenaltyScale: c.PenaltyScale,
	}
}
