package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"tokenPlotter/internal/app"
	"tokenPlotter/internal/config"
	"tokenPlotter/internal/model"
	"tokenPlotter/internal/render"
	"tokenPlotter/internal/storage"
	"tokenPlotter/internal/storage/postgres"
)

func addPlotFlags(cmd *cobra.Command) {
	cmd.Flags().String("base", "DAI", "base symbol")
	cmd.Flags().StringSlice("quote", []string{"ETH"}, "quote symbols (comma-separated)")
	cmd.Flags().String("traces-out", "", "append computed traces to a JSONL file")
	cmd.Flags().String("pg-dsn", "", "Postgres DSN for storing computed traces")
	cmd.Flags().Int("batch-size", 1000, "batch size for DB writes")
	cmd.Flags().Int("parallelism", 4, "concurrent trace computations")
	addSourceFlags(cmd.Flags())
}

func newPlotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plot",
		Short: "Render price ratio traces to an image",
		RunE:  runPlot,
	}
	addPlotFlags(cmd)
	cmd.Flags().String("out", "./data/plot.png", "output image path")
	cmd.Flags().String("format", "png", "image format (png, svg)")
	cmd.Flags().Int("width", 1280, "image width")
	cmd.Flags().Int("height", 720, "image height")
	return cmd
}

func runPlot(cmd *cobra.Command, _ []string) error {
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

	format, err := render.ParseFormat(cfg.Format)
	if err != nil {
		return err
	}
	if cfg.Out == "" {
		return fmt.Errorf("out path is required")
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

	ctrl := a.NewController(cfg.Parallelism)
	ctrl.SetBase(ctx, base)
	result, err := ctrl.SetQuotes(ctx, cfg.Quotes).Wait(ctx)
	if err != nil {
		return err
	}

	from, to := a.Window()
	opts := render.Options{Width: cfg.Width, Height: cfg.Height, Format: format, From: from, To: to}
	if err := writeImage(cfg.Out, result.Plot, opts); err != nil {
		return err
	}

	if err := storeTraces(ctx, cfg, result.Base, result.Traces, logger); err != nil {
		return err
	}

	logger.Info("plot written",
		zap.String("base", result.Base),
		zap.Strings("quotes", result.Quotes),
		zap.String("title", result.Plot.Title),
		zap.String("out", cfg.Out),
	)
	return nil
}

func writeImage(path string, plot model.Plot, opts render.Options) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create image: %w", err)
	}
	if err := render.Render(f, plot, opts); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("close image: %w", err)
	}
	return os.Rename(tmp, path)
}

// storeTraces writes traces to every configured sink.
func storeTraces(ctx context.Context, cfg config.PlotConfig, base string, traces []*model.Trace, logger *zap.Logger) error {
	var sinks []storage.Storage
	if cfg.TracesOut != "" {
		sinks = append(sinks, storage.NewJsonlStorage(cfg.TracesOut))
	}
	var pgStore *postgres.Store
	if cfg.PGDSN != "" {
		store, err := postgres.NewStore(ctx, cfg.PGDSN, cfg.BatchSize)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer store.Close()
		if err := store.Migrate(ctx); err != nil {
			return err
		}
		pgStore = store
		sinks = append(sinks, store)
	}

	for _, sink := range sinks {
		if err := sink.PutTraces(ctx, base, traces); err != nil {
			return err
		}
	}
	if cfg.Verify && pgStore != nil {
		if err := pgStore.VerifyTraces(ctx, base, traces); err != nil {
			return err
		}
		logger.Info("stored traces verified", zap.Int("traces", len(traces)))
	}
	if len(sinks) > 0 {
		logger.Info("traces stored",
			zap.Int("traces", len(traces)),
			zap.String("traces_out", cfg.TracesOut),
			zap.String("pg_dsn", redactDSN(cfg.PGDSN)),
		)
	}
	return nil
}
