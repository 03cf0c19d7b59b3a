package series

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"tokenPlotter/internal/model"
)

// Loader fetches the stored series for an address key.
type Loader interface {
	Series(ctx context.Context, key string) (model.SeriesRecord, error)
}

// Store resolves symbols to series, fetching each token at most once per process.
type Store struct {
	catalog *Catalog
	axisLen int
	loader  Loader
	logger  *zap.Logger

	group singleflight.Group
	mu    sync.RWMutex
	data  map[string]*TokenSeries
}

func NewStore(catalog *Catalog, axisLen int, loader Loader, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		catalog: catalog,
		axisLen: axisLen,
		loader:  loader,
		logger:  logger,
		data:    make(map[string]*TokenSeries),
	}
}

// Catalog returns the catalog the store resolves against.
func (s *Store) Catalog() *Catalog {
	return s.catalog
}

// Get returns the series for symbol.
func (s *Store) Get(ctx context.Context, symbol string) (Series, error) {
	if symbol == s.catalog.Reference() {
		return ReferenceSeries{symbol: symbol}, nil
	}

	info, ok := s.catalog.Lookup(symbol)
	if !ok {
		return nil, &model.NotFoundError{Symbol: symbol}
	}

	s.mu.RLock()
	cached, ok := s.data[symbol]
	s.mu.RUnlock()
	if ok {
		return cached, nil
	}

	// The shared fetch outlives any single caller; each caller stops waiting on its own ctx.
	fetchCtx := context.WithoutCancel(ctx)
	ch := s.group.DoChan(symbol, func() (interface{}, error) {
		s.mu.RLock()
		cached, ok := s.data[symbol]
		s.mu.RUnlock()
		if ok {
			return cached, nil
		}

		loaded, err := s.load(fetchCtx, symbol, info)
		if err != nil {
			return nil, err
		}

		s.mu.Lock()
		s.data[symbol] = loaded
		s.mu.Unlock()
		return loaded, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*TokenSeries), nil
	}
}

func (s *Store) load(ctx context.Context, symbol string, info model.TokenInfo) (*TokenSeries, error) {
	if s.loader == nil {
		return nil, fmt.Errorf("series loader is nil")
	}
	key := ResourceKey(info)
	record, err := s.loader.Series(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("load series %s: %w", symbol, err)
	}

	resource := "series " + symbol
	if record.StartIndex == nil {
		return nil, &model.DataFormatError{Resource: resource, Reason: "missing start_index"}
	}
	start := *record.StartIndex
	if start < 0 || start >= s.axisLen {
		return nil, &model.DataFormatError{Resource: resource, Reason: fmt.Sprintf("start_index %d outside axis of length %d", start, s.axisLen)}
	}
	if want := s.axisLen - start; len(record.Prices) != want {
		return nil, &model.DataFormatError{Resource: resource, Reason: fmt.Sprintf("got %d prices, want %d", len(record.Prices), want)}
	}

	s.logger.Debug("series loaded", zap.String("symbol", symbol), zap.String("key", key), zap.Int("start_index", start))
	return &TokenSeries{symbol: symbol, start: start, prices: record.Prices}, nil
}
