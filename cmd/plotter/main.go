package main

import (
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	_ = godotenv.Load()

	root := &cobra.Command{
		Use:          "plotter",
		Short:        "Token price ratio plotter",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	root.AddCommand(newPlotCmd())
	root.AddCommand(newExportCmd())
	root.AddCommand(newServeCmd())
	root.AddCommand(newBlocktimesCmd())
	root.AddCommand(newCatalogCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func addSourceFlags(flags *pflag.FlagSet) {
	flags.String("data-dir", "./data", "local data directory (blocktimes.json, tokens.json, <address>.json)")
	flags.String("data-url", "", "remote data base URL, overrides data-dir")
	flags.Duration("http-timeout", 30*time.Second, "remote fetch timeout")
	flags.Float64("rate-limit", 0, "remote requests per second, 0 means unlimited")
	flags.Int("max-retries", 3, "maximum retry attempts")
	flags.Duration("retry-backoff", 500*time.Millisecond, "initial retry backoff")
	flags.String("redis-addr", "", "redis address for caching fetched resources")
	flags.String("redis-password", "", "redis password")
	flags.Int("redis-db", 0, "redis database")
	flags.Duration("redis-ttl", time.Hour, "redis cache TTL")
	flags.String("reference-symbol", "ETH", "symbol of the native reference asset")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}

func redactDSN(dsn string) string {
	if dsn == "" {
		return dsn
	}
	return "***"
}
