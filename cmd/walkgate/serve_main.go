package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	httpiface "github.com/sawpanic/walkgate/internal/interfaces/http"
	"github.com/sawpanic/walkgate/internal/overfit"
	"github.com/sawpanic/walkgate/internal/telemetry"
	"github.com/sawpanic/walkgate/internal/walkforward"
)

// validatorSource adapts a loaded run to the results server's Source.
type validatorSource struct {
	validator   *walkforward.Validator
	severity    overfit.Thresholds
	driftTolPct float64
}

func (s *validatorSource) Windows() []walkforward.Window {
	return s.validator.Windows()
}

func (s *validatorSource) Rows() []walkforward.ResultRow {
	return s.validator.Rows()
}

func (s *validatorSource) Assessment() *walkforward.Assessment {
	return s.validator.Assess(s.severity, s.driftTolPct)
}

// runServe hosts a finished analysis over HTTP until interrupted.
func runServe(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	resultsPath, _ := cmd.Flags().GetString("results")
	host, _ := cmd.Flags().GetString("host")
	port, _ := cmd.Flags().GetInt("port")

	metrics := telemetry.NewRegistry()
	cfg, validator, err := loadRun(configPath, resultsPath, metrics)
	if err != nil {
		return err
	}

	source := &validatorSource{
		validator:   validator,
		severity:    cfg.Severity,
		driftTolPct: cfg.DriftTolerancePct,
	}
	metrics.ObserveAssessment(source.Assessment())

	serverConfig := httpiface.DefaultServerConfig()
	serverConfig.Host = host
	serverConfig.Port = port

	server, err := httpiface.NewServer(serverConfig, source, metrics.Handler())
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info().Str("host", host).Int("port", port).Msg("Serving analysis results")
	return server.Start(ctx)
}
