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
	"tokenPlotter/internal/chain"
	"tokenPlotter/internal/config"
	"tokenPlotter/internal/erc20"
	"tokenPlotter/internal/model"
)

func newCatalogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Token catalog tools",
	}

	verifyCmd := &cobra.Command{
		Use:   "verify",
		Short: "Check catalog symbols and decimals against ERC20 metadata",
		RunE:  runCatalogVerify,
	}
	verifyCmd.Flags().String("rpc", "", "Ethereum RPC URL")
	addSourceFlags(verifyCmd.Flags())

	cmd.AddCommand(verifyCmd)
	return cmd
}

func runCatalogVerify(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadVerify(cfgFile, cmd.Flags())
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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.Open(ctx, cfg.Source, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	client, err := chain.Dial(ctx, cfg.RPCURL)
	if err != nil {
		return fmt.Errorf("connect rpc: %w", err)
	}
	defer client.Close()

	catalog := a.Catalog()
	tokens := make(map[string]model.TokenInfo, len(catalog.Symbols()))
	for _, symbol := range catalog.Symbols() {
		info, _ := catalog.Lookup(symbol)
		tokens[symbol] = info
	}

	findings, err := erc20.VerifyCatalog(ctx, client, tokens, logger)
	if err != nil {
		return err
	}
	for _, f := range findings {
		logger.Warn("catalog mismatch",
			zap.String("symbol", f.Symbol),
			zap.String("address", f.Address),
			zap.String("problem", f.Problem),
		)
	}

	logger.Info("catalog verified", zap.Int("tokens", len(tokens)), zap.Int("mismatches", len(findings)))
	if len(findings) > 0 {
		return fmt.Errorf("%d catalog mismatches", len(findings))
	}
	return nil
}
