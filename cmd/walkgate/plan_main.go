package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/sawpanic/walkgate/internal/config"
	"github.com/sawpanic/walkgate/internal/report"
	"github.com/sawpanic/walkgate/internal/walkforward"
)

// runPlan generates and prints the window plan for a config.
func runPlan(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	outputDir, _ := cmd.Flags().GetString("output")

	cfg, err := config.LoadAnalysisConfig(configPath)
	if err != nil {
		return err
	}

	windows, err := walkforward.GenerateWindows(cfg.WindowConfig())
	if err != nil {
		return err
	}

	log.Info().
		Str("strategy", cfg.WindowStrategy).
		Dur("train_window", cfg.TrainWindow.Std()).
		Dur("test_window", cfg.TestWindow.Std()).
		Dur("gap", cfg.Gap.Std()).
		Int("windows", len(windows)).
		Msg("Window plan generated")

	if len(windows) == 0 {
		fmt.Println("Range too short for a single window; nothing to plan.")
		return nil
	}

	fmt.Printf("%-4s %-22s %-22s %-22s %-22s\n", "ID", "TRAIN START", "TRAIN END", "TEST START", "TEST END")
	for _, w := range windows {
		fmt.Printf("%-4d %-22s %-22s %-22s %-22s\n",
			w.ID,
			w.TrainStart.Format(time.RFC3339),
			w.TrainEnd.Format(time.RFC3339),
			w.TestStart.Format(time.RFC3339),
			w.TestEnd.Format(time.RFC3339))
	}

	absOutputDir, err := filepath.Abs(outputDir)
	if err != nil {
		return fmt.Errorf("failed to resolve output directory: %w", err)
	}

	writer := report.NewWriter(absOutputDir)
	if err := writer.WritePlan(windows); err != nil {
		return err
	}

	fmt.Printf("\nPlan written to %s\n", writer.ArtifactPaths().PlanJSONL)
	return nil
}
