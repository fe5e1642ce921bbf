package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/akave-ai/udplog/internal/config"
	"github.com/akave-ai/udplog/internal/logger"
	"github.com/akave-ai/udplog/internal/observability"
	"github.com/akave-ai/udplog/internal/server"
)

var configPath string

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "udplogd",
	Short:         "UDP log ingestion service",
	Long:          "udplogd receives LEVEL|MESSAGE|REQUEST_ID records over UDP, rate-limits them per client IP and appends them to a log file.",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          run,
}

func init() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultConfigFile, "key=value config file (empty for environment only)")
}

func run(_ *cobra.Command, _ []string) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}

	l := logger.New(cfg.Observability)
	log.Logger = l

	nrApp, err := observability.NewRelic(cfg.Observability)
	if err != nil {
		l.Error().Err(err).Msg("new relic disabled")
	}
	defer observability.Shutdown(nrApp, 5*time.Second)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	srv, err := server.New(cfg, server.Deps{Logger: l, NewRelic: nrApp, Metrics: reg})
	if err != nil {
		l.Error().Err(err).Msg("startup failed")
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := srv.Start(ctx); err != nil {
		l.Error().Err(err).Msg("server exited")
		return err
	}
	return nil
}
