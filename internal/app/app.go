package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"tokenPlotter/internal/config"
	"tokenPlotter/internal/ratio"
	"tokenPlotter/internal/selection"
	"tokenPlotter/internal/series"
	"tokenPlotter/internal/source"
	"tokenPlotter/internal/timeaxis"
)

const cachePrefix = "plotter:"

// App holds the loaded time axis, catalog, and series store for one process.
type App struct {
	Axis   timeaxis.Axis
	Store  *series.Store
	Engine *ratio.Engine

	logger  *zap.Logger
	closers []func() error
}

// Open loads the schedule and catalog. Malformed startup data aborts with a DataFormatError.
func Open(ctx context.Context, cfg config.SourceConfig, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &App{logger: logger}

	fetcher, err := a.newFetcher(ctx, cfg)
	if err != nil {
		a.Close()
		return nil, err
	}
	src := source.New(fetcher, logger)

	schedule, err := src.Schedule(ctx)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("load schedule: %w", err)
	}
	axis, err := timeaxis.Build(schedule)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("build time axis: %w", err)
	}

	tokens, err := src.Catalog(ctx)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	catalog, err := series.NewCatalog(tokens, cfg.ReferenceSymbol)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("load catalog: %w", err)
	}

	a.Axis = axis
	a.Store = series.NewStore(catalog, axis.Len(), src, logger)
	a.Engine = ratio.NewEngine(axis, a.Store)

	logger.Info("data loaded",
		zap.Int("axis_len", axis.Len()),
		zap.Int("tokens", len(catalog.Symbols())),
		zap.String("reference", catalog.Reference()),
	)
	return a, nil
}

func (a *App) newFetcher(ctx context.Context, cfg config.SourceConfig) (source.Fetcher, error) {
	var fetcher source.Fetcher
	if cfg.DataURL != "" {
		httpFetcher, err := source.NewHTTPFetcher(source.HTTPConfig{
			BaseURL:      cfg.DataURL,
			Timeout:      cfg.HTTPTimeout,
			RateLimit:    cfg.RateLimit,
			MaxRetries:   cfg.MaxRetries,
			RetryBackoff: cfg.RetryBackoff,
		}, a.logger)
		if err != nil {
			return nil, err
		}
		fetcher = httpFetcher
	} else {
		fetcher = source.NewFileFetcher(cfg.DataDir)
	}

	if cfg.RedisAddr == "" {
		return fetcher, nil
	}
	kv, err := source.NewRedisKV(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	a.closers = append(a.closers, kv.Close)
	return source.NewCachedFetcher(fetcher, kv, cachePrefix, cfg.RedisTTL, a.logger), nil
}

// Catalog returns the loaded token catalog.
func (a *App) Catalog() *series.Catalog {
	return a.Store.Catalog()
}

// Window returns the first and last axis times, or zero times for an empty axis.
func (a *App) Window() (time.Time, time.Time) {
	if a.Axis.Len() == 0 {
		return time.Time{}, time.Time{}
	}
	return a.Axis.Time(0), a.Axis.Time(a.Axis.Len() - 1)
}

// DefaultBase returns preferred when the catalog knows it, otherwise the reference symbol.
func (a *App) DefaultBase(preferred string) string {
	if preferred != "" && a.Catalog().Has(preferred) {
		return preferred
	}
	return a.Catalog().Reference()
}

// NewController returns a selection controller over the shared engine.
func (a *App) NewController(parallelism int) *selection.Controller {
	return selection.NewController(selection.Config{Parallelism: parallelism}, a.Engine, a.logger)
}

// Close releases cache connections.
func (a *App) Close() error {
	var first error
	for _, closeFn := range a.closers {
		if err := closeFn(); err != nil && first == nil {
			first = err
		}
	}
	a.closers = nil
	return first
}
