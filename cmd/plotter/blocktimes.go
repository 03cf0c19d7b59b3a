package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"tokenPlotter/internal/blocktimes"
	"tokenPlotter/internal/chain"
	"tokenPlotter/internal/config"
)

func newBlocktimesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "blocktimes",
		Short: "Sample chain headers into a blocktimes.json schedule",
		RunE:  runBlocktimes,
	}
	cmd.Flags().String("rpc", "", "Ethereum RPC URL")
	cmd.Flags().String("start", "", "first sample time (unix seconds or RFC3339)")
	cmd.Flags().Duration("delta", time.Hour, "spacing between samples")
	cmd.Flags().Int("count", 0, "number of samples")
	cmd.Flags().Uint64("from-block", 0, "lowest block to search")
	cmd.Flags().String("out", "./data/blocktimes.json", "output schedule path")
	cmd.Flags().Int("max-retries", 3, "maximum retry attempts")
	cmd.Flags().Duration("retry-backoff", 500*time.Millisecond, "initial retry backoff")
	cmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")
	return cmd
}

func runBlocktimes(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadBlocktimes(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.RPCURL == "" {
		return fmt.Errorf("rpc url is required")
	}
	start, err := config.ParseTimestamp(cfg.Start)
	if err != nil {
		return fmt.Errorf("invalid start: %w", err)
	}
	if start <= 0 {
		return fmt.Errorf("start is required")
	}
	if cfg.Delta < time.Second {
		return fmt.Errorf("delta must be at least 1s")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := chain.Dial(ctx, cfg.RPCURL)
	if err != nil {
		return fmt.Errorf("connect rpc: %w", err)
	}
	defer client.Close()

	chainID, err := client.ChainID(ctx)
	if err != nil {
		return err
	}

	logger.Info("blocktimes start",
		zap.Uint64("chain_id", chainID),
		zap.Int64("start", start),
		zap.Duration("delta", cfg.Delta),
		zap.Int("count", cfg.Count),
		zap.Uint64("from_block", cfg.FromBlock),
		zap.String("out", cfg.Out),
	)

	builder := blocktimes.NewBuilder(blocktimes.Config{
		StartTS:      start,
		Delta:        int64(cfg.Delta / time.Second),
		Count:        cfg.Count,
		FromBlock:    cfg.FromBlock,
		MaxRetries:   cfg.MaxRetries,
		RetryBackoff: cfg.RetryBackoff,
	}, client, logger)

	schedule, err := builder.Build(ctx)
	if err != nil {
		return err
	}
	if err := blocktimes.WriteFile(cfg.Out, schedule); err != nil {
		return err
	}

	logger.Info("blocktimes written", zap.Int("samples", len(schedule.Offsets)), zap.String("out", cfg.Out))
	return nil
}
