package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"tokenPlotter/internal/app"
	"tokenPlotter/internal/config"
	"tokenPlotter/internal/server"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve traces, charts, and websocket selection sessions over HTTP",
		RunE:  runServe,
	}
	cmd.Flags().String("listen", ":8080", "listen address")
	cmd.Flags().String("base", "DAI", "default base symbol")
	cmd.Flags().StringSlice("quote", []string{"ETH"}, "default quote symbols (comma-separated)")
	cmd.Flags().Int("parallelism", 4, "concurrent trace computations per selection")
	cmd.Flags().Duration("shutdown-timeout", 10*time.Second, "graceful shutdown timeout")
	addSourceFlags(cmd.Flags())
	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadServe(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.Open(ctx, cfg.Source, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	logger.Info("serve start",
		zap.String("listen", cfg.Listen),
		zap.String("default_base", a.DefaultBase(cfg.DefaultBase)),
		zap.Strings("default_quotes", cfg.DefaultQuotes),
		zap.Bool("redis", cfg.Source.RedisAddr != ""),
	)

	srv := server.New(server.Config{
		Addr:            cfg.Listen,
		DefaultBase:     cfg.DefaultBase,
		DefaultQuotes:   cfg.DefaultQuotes,
		Parallelism:     cfg.Parallelism,
		ShutdownTimeout: cfg.ShutdownTimeout,
	}, a, logger)
	return srv.Run(ctx)
}
