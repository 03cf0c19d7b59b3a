package series

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"tokenPlotter/internal/model"
)

const (
	daiAddress  = "0x6B175474E89094C44Da98b954EedeAC495271d0F"
	usdcAddress = "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48"
)

type fakeLoader struct {
	mu      sync.Mutex
	records map[string]model.SeriesRecord
	calls   map[string]int
	delay   time.Duration
	total   int32
}

func newFakeLoader() *fakeLoader {
	return &fakeLoader{records: make(map[string]model.SeriesRecord), calls: make(map[string]int)}
}

func (f *fakeLoader) put(address string, start int, prices ...float64) {
	s := start
	f.records[ResourceKey(model.TokenInfo{Address: address})] = model.SeriesRecord{StartIndex: &s, Prices: prices}
}

func (f *fakeLoader) Series(_ context.Context, key string) (model.SeriesRecord, error) {
	atomic.AddInt32(&f.total, 1)
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	f.mu.Lock()
	f.calls[key]++
	f.mu.Unlock()
	rec, ok := f.records[key]
	if !ok {
		return model.SeriesRecord{}, fmt.Errorf("no series %s", key)
	}
	return rec, nil
}

func newTestCatalog(t *testing.T) *Catalog {
	t.Helper()
	catalog, err := NewCatalog(map[string]model.TokenInfo{
		"DAI":  {Address: daiAddress},
		"USDC": {Address: usdcAddress},
	}, "")
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	return catalog
}

func TestStoreReference(t *testing.T) {
	loader := newFakeLoader()
	store := NewStore(newTestCatalog(t), 5, loader, nil)

	s, err := store.Get(context.Background(), "ETH")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !s.IsReference() || s.StartIndex() != 0 {
		t.Fatalf("expected reference series at index 0, got %+v", s)
	}
	for _, i := range []int{0, 4, 1_000_000} {
		if s.At(i) != 1 {
			t.Fatalf("reference value at %d = %f", i, s.At(i))
		}
	}
	if loader.total != 0 {
		t.Fatalf("reference series must not be fetched")
	}
}

func TestStoreMemoizes(t *testing.T) {
	loader := newFakeLoader()
	loader.put(daiAddress, 1, 2.0, 4.0)
	store := NewStore(newTestCatalog(t), 3, loader, nil)

	first, err := store.Get(context.Background(), "DAI")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	second, err := store.Get(context.Background(), "DAI")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if first != second {
		t.Fatalf("expected identical cached series")
	}
	if first.StartIndex() != 1 || first.At(1) != 2.0 || first.At(2) != 4.0 {
		t.Fatalf("series mismatch")
	}
	if loader.total != 1 {
		t.Fatalf("expected one fetch, got %d", loader.total)
	}
	if _, ok := first.(*TokenSeries); !ok {
		t.Fatalf("expected *TokenSeries, got %T", first)
	}
}

func TestStoreConcurrentGetFetchesOnce(t *testing.T) {
	loader := newFakeLoader()
	loader.delay = 20 * time.Millisecond
	loader.put(usdcAddress, 0, 1, 1, 1)
	store := NewStore(newTestCatalog(t), 3, loader, nil)

	var wg sync.WaitGroup
	results := make([]Series, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s, err := store.Get(context.Background(), "USDC")
			if err != nil {
				t.Errorf("get: %v", err)
				return
			}
			results[i] = s
		}(i)
	}
	wg.Wait()

	if got := atomic.LoadInt32(&loader.total); got != 1 {
		t.Fatalf("expected one fetch, got %d", got)
	}
	for i := 1; i < len(results); i++ {
		if results[i] != results[0] {
			t.Fatalf("result %d is a different object", i)
		}
	}
}

func TestStoreNotFound(t *testing.T) {
	store := NewStore(newTestCatalog(t), 3, newFakeLoader(), nil)
	_, err := store.Get(context.Background(), "WBTC")
	if !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	var nf *model.NotFoundError
	if !errors.As(err, &nf) || nf.Symbol != "WBTC" {
		t.Fatalf("expected NotFoundError for WBTC, got %v", err)
	}
}

func TestStoreRejectsMalformedSeries(t *testing.T) {
	cases := []struct {
		name   string
		start  int
		prices []float64
	}{
		{"start past axis", 3, nil},
		{"negative start", -1, []float64{1, 1, 1, 1}},
		{"short prices", 1, []float64{1}},
		{"long prices", 0, []float64{1, 2, 3, 4}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			loader := newFakeLoader()
			loader.put(daiAddress, tc.start, tc.prices...)
			store := NewStore(newTestCatalog(t), 3, loader, nil)
			_, err := store.Get(context.Background(), "DAI")
			if !errors.Is(err, model.ErrDataFormat) {
				t.Fatalf("expected data format error, got %v", err)
			}
		})
	}

	loader := newFakeLoader()
	loader.records[ResourceKey(model.TokenInfo{Address: daiAddress})] = model.SeriesRecord{Prices: []float64{1}}
	store := NewStore(newTestCatalog(t), 1, loader, nil)
	if _, err := store.Get(context.Background(), "DAI"); !errors.Is(err, model.ErrDataFormat) {
		t.Fatalf("expected data format error for missing start_index, got %v", err)
	}
}

func TestStoreErrorNotCached(t *testing.T) {
	loader := newFakeLoader()
	store := NewStore(newTestCatalog(t), 2, loader, nil)
	if _, err := store.Get(context.Background(), "DAI"); err == nil {
		t.Fatalf("expected load error")
	}
	loader.put(daiAddress, 0, 1, 2)
	if _, err := store.Get(context.Background(), "DAI"); err != nil {
		t.Fatalf("expected retry after failure to succeed: %v", err)
	}
}

type blockingLoader struct {
	started chan struct{}
	release chan struct{}
	total   int32
}

func (b *blockingLoader) Series(ctx context.Context, _ string) (model.SeriesRecord, error) {
	if atomic.AddInt32(&b.total, 1) == 1 {
		close(b.started)
	}
	select {
	case <-ctx.Done():
		return model.SeriesRecord{}, ctx.Err()
	case <-b.release:
	}
	start := 0
	return model.SeriesRecord{StartIndex: &start, Prices: []float64{1, 2, 3}}, nil
}

func TestStoreCanceledCallerDoesNotFailSharedFetch(t *testing.T) {
	loader := &blockingLoader{started: make(chan struct{}), release: make(chan struct{})}
	store := NewStore(newTestCatalog(t), 3, loader, nil)

	ctx, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := store.Get(ctx, "DAI")
		firstErr <- err
	}()
	<-loader.started

	secondErr := make(chan error, 1)
	go func() {
		_, err := store.Get(context.Background(), "DAI")
		secondErr <- err
	}()
	time.Sleep(20 * time.Millisecond)

	cancel()
	if err := <-firstErr; !errors.Is(err, context.Canceled) {
		t.Fatalf("expected canceled first caller, got %v", err)
	}

	close(loader.release)
	if err := <-secondErr; err != nil {
		t.Fatalf("second caller: %v", err)
	}
	if _, err := store.Get(context.Background(), "DAI"); err != nil {
		t.Fatalf("cached get: %v", err)
	}
	if got := atomic.LoadInt32(&loader.total); got != 1 {
		t.Fatalf("expected one fetch, got %d", got)
	}
}
