package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"tokenPlotter/internal/app"
	"tokenPlotter/internal/config"
)

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Compute traces for a base and store them without rendering",
		Long:  "Compute traces for a base and store them. Without --quote every quote option is exported.",
		RunE:  runExport,
	}
	addPlotFlags(cmd)
	cmd.Flags().Bool("verify", false, "read stored traces back from Postgres and compare")
	return cmd
}

func runExport(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadPlot(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.TracesOut == "" && cfg.PGDSN == "" {
		return fmt.Errorf("traces-out or pg-dsn is required")
	}
	if cfg.Verify && cfg.PGDSN == "" {
		return fmt.Errorf("verify requires pg-dsn")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.Open(ctx, cfg.Source, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	base := cfg.Base
	if !cmd.Flags().Changed("base") {
		base = a.DefaultBase(cfg.Base)
	}
	quotes := cfg.Quotes
	if !cmd.Flags().Changed("quote") {
		quotes = a.Catalog().QuoteOptions()
	}

	ctrl := a.NewController(cfg.Parallelism)
	ctrl.SetBase(ctx, base)
	result, err := ctrl.SetQuotes(ctx, quotes).Wait(ctx)
	if err != nil {
		return err
	}

	logger.Info("export start", zap.String("base", base), zap.Int("quotes", len(quotes)))
	return storeTraces(ctx, cfg, result.Base, result.Traces, logger)
}
