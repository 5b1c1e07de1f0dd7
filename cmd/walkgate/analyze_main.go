package main

import (
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/sawpanic/walkgate/internal/config"
	"github.com/sawpanic/walkgate/internal/report"
	"github.com/sawpanic/walkgate/internal/telemetry"
	"github.com/sawpanic/walkgate/internal/walkforward"
)

// loadRun builds a validator for the configured window plan and replays a
// recorded results file into it. A row that fails to record is logged and
// skipped; it never aborts the rest of the replay.
func loadRun(configPath, resultsPath string, metrics *telemetry.Registry) (*config.AnalysisConfig, *walkforward.Validator, error) {
	cfg, err := config.LoadAnalysisConfig(configPath)
	if err != nil {
		return nil, nil, err
	}

	windows, err := walkforward.GenerateWindows(cfg.WindowConfig())
	if err != nil {
		return nil, nil, err
	}

	rows, err := report.ReadRows(resultsPath)
	if err != nil {
		return nil, nil, err
	}

	validator := walkforward.NewValidator(windows, cfg.ValidatorConfig())
	recorded := 0
	for _, row := range rows {
		if err := validator.RecordWindowResult(row.WindowID, row.Params, row.TrainMetrics, row.TestMetrics); err != nil {
			log.Warn().Err(err).Int("window_id", row.WindowID).Msg("Skipping result row")
			continue
		}
		recorded++
		if metrics != nil {
			metrics.RecordWindow()
		}
	}

	log.Info().
		Int("windows", len(windows)).
		Int("recorded", recorded).
		Int("rows", len(rows)).
		Msg("Results replayed")

	return cfg, validator, nil
}

// runAnalyze replays recorded results and writes the analysis artifacts.
func runAnalyze(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	resultsPath, _ := cmd.Flags().GetString("results")
	outputDir, _ := cmd.Flags().GetString("output")

	cfg, validator, err := loadRun(configPath, resultsPath, nil)
	if err != nil {
		return err
	}

	assessment := validator.Assess(cfg.Severity, cfg.DriftTolerancePct)
	summary := assessment.Summary

	absOutputDir, err := filepath.Abs(outputDir)
	if err != nil {
		return fmt.Errorf("failed to resolve output directory: %w", err)
	}

	writer := report.NewWriter(absOutputDir)
	rows := validator.Rows()
	if err := writer.WriteRows(rows); err != nil {
		return err
	}
	if err := writer.WriteRowsCSV(rows); err != nil {
		return err
	}
	if err := writer.WriteSummary(cfg, assessment); err != nil {
		return err
	}
	if err := writer.WriteReport(cfg, assessment); err != nil {
		return err
	}

	log.Info().
		Str("run_id", writer.RunID()).
		Int("evaluated", summary.EvaluatedWindows).
		Int("pending", summary.PendingWindows).
		Str("overall_severity", assessment.Overall.String()).
		Bool("robust_parameters", assessment.Robust).
		Strs("unstable_params", assessment.UnstableParams).
		Msg("Analysis complete")

	fmt.Printf("Verdict: severity=%s robust=%t (%d/%d windows evaluated)\n",
		assessment.Overall, assessment.Robust, summary.EvaluatedWindows, summary.TotalWindows)
	fmt.Printf("Artifacts: %s\n", writer.OutputDir())
	return nil
}
