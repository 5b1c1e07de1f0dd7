package main

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

const (
	appName = "walkgate"
	version = "v0.3.0"
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	if term.IsTerminal(int(os.Stderr.Fd())) {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}

	rootCmd := &cobra.Command{
		Use:     appName,
		Short:   "Walk-forward validation and overfitting gate for strategy parameters",
		Version: version,
		Long: `walkgate partitions a backtest period into ordered train/test windows,
replays externally produced per-window metrics through a walk-forward
validator, and reports the overfitting and parameter-drift diagnostics
used to accept or veto a parameter update.`,
		SilenceUsage: true,
	}

	planCmd := &cobra.Command{
		Use:   "plan",
		Short: "Generate and print the train/test window plan",
		Long:  "Generate the ordered window sequence for the configured range and slicing strategy, print it, and write plan.jsonl",
		RunE:  runPlan,
	}
	planCmd.Flags().String("config", "config/analysis.yaml", "Analysis config file")
	planCmd.Flags().String("output", "./artifacts", "Output directory for the plan artifact")

	analyzeCmd := &cobra.Command{
		Use:   "analyze",
		Short: "Replay recorded window results and produce the analysis report",
		Long:  "Replay a JSONL file of per-window backtest results through the validator and drift monitor, then write summary, CSV, and markdown artifacts",
		RunE:  runAnalyze,
	}
	analyzeCmd.Flags().String("config", "config/analysis.yaml", "Analysis config file")
	analyzeCmd.Flags().String("results", "", "JSONL file of recorded window results (required)")
	analyzeCmd.Flags().String("output", "./artifacts", "Output directory for artifacts")
	analyzeCmd.MarkFlagRequired("results")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve a finished analysis over HTTP",
		Long:  "Host the read-only results server: /summary, /windows, /rows, /health, and Prometheus /metrics",
		RunE:  runServe,
	}
	serveCmd.Flags().String("config", "config/analysis.yaml", "Analysis config file")
	serveCmd.Flags().String("results", "", "JSONL file of recorded window results (required)")
	serveCmd.Flags().String("host", "127.0.0.1", "Bind host")
	serveCmd.Flags().Int("port", 8080, "Bind port")
	serveCmd.MarkFlagRequired("results")

	rootCmd.AddCommand(planCmd, analyzeCmd, serveCmd)

	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("Command failed")
		os.Exit(1)
	}
}
