package selection

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tokenPlotter/internal/model"
)

type fakeComputer struct {
	mu    sync.Mutex
	calls map[string]int
	gates map[string]chan struct{}
	fail  map[string]error
}

func newFakeComputer() *fakeComputer {
	return &fakeComputer{
		calls: make(map[string]int),
		gates: make(map[string]chan struct{}),
		fail:  make(map[string]error),
	}
}

func key(quote, base string) string { return quote + "/" + base }

func (f *fakeComputer) gate(quote, base string) chan struct{} {
	ch := make(chan struct{})
	f.mu.Lock()
	f.gates[key(quote, base)] = ch
	f.mu.Unlock()
	return ch
}

func (f *fakeComputer) count(quote, base string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[key(quote, base)]
}

func (f *fakeComputer) Compute(ctx context.Context, quote, base string) (*model.Trace, error) {
	f.mu.Lock()
	f.calls[key(quote, base)]++
	gate := f.gates[key(quote, base)]
	err := f.fail[key(quote, base)]
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	return &model.Trace{Name: fmt.Sprintf("%s in %s", quote, base), Timestamps: []int64{1}, Values: []float64{1}}, nil
}

func waitResult(t *testing.T, p *Pending) (Result, error) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return p.Wait(ctx)
}

func TestSetQuotesComputesInSelectionOrder(t *testing.T) {
	engine := newFakeComputer()
	c := NewController(Config{}, engine, nil)
	ctx := context.Background()

	_, err := waitResult(t, c.SetBase(ctx, "DAI"))
	require.NoError(t, err)

	res, err := waitResult(t, c.SetQuotes(ctx, []string{"ETH", "USDC", "ETH"}))
	require.NoError(t, err)

	require.Len(t, res.Traces, 2)
	assert.Equal(t, "ETH in DAI", res.Traces[0].Name)
	assert.Equal(t, "USDC in DAI", res.Traces[1].Name)
	assert.Equal(t, []string{"ETH", "USDC"}, res.Quotes)
	assert.Equal(t, "Price history for ETH, USDC (in DAI)", res.Plot.Title)
	assert.Equal(t, "Price (DAI)", res.Plot.YAxisLabel)
	assert.Equal(t, res.Traces, c.Current())
}

func TestReselectReusesCachedTrace(t *testing.T) {
	engine := newFakeComputer()
	c := NewController(Config{}, engine, nil)
	ctx := context.Background()

	c.SetBase(ctx, "DAI")
	first, err := waitResult(t, c.SetQuotes(ctx, []string{"ETH"}))
	require.NoError(t, err)

	_, err = waitResult(t, c.SetQuotes(ctx, []string{"USDC"}))
	require.NoError(t, err)

	again, err := waitResult(t, c.SetQuotes(ctx, []string{"ETH"}))
	require.NoError(t, err)

	require.Len(t, again.Traces, 1)
	assert.Same(t, first.Traces[0], again.Traces[0])
	assert.Equal(t, 1, engine.count("ETH", "DAI"))
}

func TestBaseChangeClearsMemo(t *testing.T) {
	engine := newFakeComputer()
	c := NewController(Config{}, engine, nil)
	ctx := context.Background()

	c.SetBase(ctx, "DAI")
	before, err := waitResult(t, c.SetQuotes(ctx, []string{"ETH"}))
	require.NoError(t, err)

	after, err := waitResult(t, c.SetBase(ctx, "USDC"))
	require.NoError(t, err)
	require.Len(t, after.Traces, 1)
	assert.Equal(t, "ETH in USDC", after.Traces[0].Name)

	back, err := waitResult(t, c.SetBase(ctx, "DAI"))
	require.NoError(t, err)
	assert.NotSame(t, before.Traces[0], back.Traces[0])
	assert.Equal(t, 2, engine.count("ETH", "DAI"))
}

func TestSameBaseKeepsMemo(t *testing.T) {
	engine := newFakeComputer()
	c := NewController(Config{}, engine, nil)
	ctx := context.Background()

	c.SetBase(ctx, "DAI")
	_, err := waitResult(t, c.SetQuotes(ctx, []string{"ETH"}))
	require.NoError(t, err)
	_, err = waitResult(t, c.SetBase(ctx, "DAI"))
	require.NoError(t, err)
	assert.Equal(t, 1, engine.count("ETH", "DAI"))
}

func TestStaleResultIsDiscarded(t *testing.T) {
	engine := newFakeComputer()
	gate := engine.gate("WBTC", "DAI")
	c := NewController(Config{}, engine, nil)
	ctx := context.Background()

	c.SetBase(ctx, "DAI")
	slow := c.SetQuotes(ctx, []string{"WBTC"})
	fast := c.SetQuotes(ctx, []string{"ETH"})

	res, err := waitResult(t, fast)
	require.NoError(t, err)
	require.Len(t, res.Traces, 1)
	assert.Equal(t, "ETH in DAI", res.Traces[0].Name)

	close(gate)
	_, err = waitResult(t, slow)
	assert.ErrorIs(t, err, ErrSuperseded)

	assert.Equal(t, []string{"ETH"}, c.Quotes())
	require.Len(t, c.Current(), 1)
	assert.Equal(t, "ETH in DAI", c.Current()[0].Name)

	c.mu.Lock()
	_, memoized := c.memo["WBTC"]
	c.mu.Unlock()
	assert.False(t, memoized, "stale work must not populate the memo")
}

func TestStaleBaseResultIsDiscarded(t *testing.T) {
	engine := newFakeComputer()
	gate := engine.gate("ETH", "DAI")
	c := NewController(Config{}, engine, nil)
	ctx := context.Background()

	c.SetQuotes(ctx, []string{"ETH"})
	slow := c.SetBase(ctx, "DAI")
	fast := c.SetBase(ctx, "USDC")

	res, err := waitResult(t, fast)
	require.NoError(t, err)
	assert.Equal(t, "ETH in USDC", res.Traces[0].Name)

	close(gate)
	_, err = waitResult(t, slow)
	assert.ErrorIs(t, err, ErrSuperseded)
	assert.Equal(t, "USDC", c.Base())
	assert.Equal(t, "ETH in USDC", c.Current()[0].Name)
}

func TestComputeErrorPropagates(t *testing.T) {
	engine := newFakeComputer()
	notFound := &model.NotFoundError{Symbol: "NOPE"}
	engine.fail[key("NOPE", "DAI")] = notFound
	c := NewController(Config{}, engine, nil)
	ctx := context.Background()

	c.SetBase(ctx, "DAI")
	_, err := waitResult(t, c.SetQuotes(ctx, []string{"ETH"}))
	require.NoError(t, err)

	_, err = waitResult(t, c.SetQuotes(ctx, []string{"ETH", "NOPE"}))
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrNotFound))

	c.mu.Lock()
	_, ok := c.memo["ETH"]
	c.mu.Unlock()
	assert.True(t, ok, "earlier traces survive a failed request")
}

func TestNoBaseResolvesEmpty(t *testing.T) {
	engine := newFakeComputer()
	c := NewController(Config{}, engine, nil)

	res, err := waitResult(t, c.SetQuotes(context.Background(), []string{"ETH"}))
	require.NoError(t, err)
	assert.Empty(t, res.Traces)
	assert.Equal(t, 0, engine.count("ETH", ""))
}

func TestWaitHonorsContext(t *testing.T) {
	engine := newFakeComputer()
	gate := engine.gate("ETH", "DAI")
	defer close(gate)
	c := NewController(Config{}, engine, nil)

	c.SetBase(context.Background(), "DAI")
	p := c.SetQuotes(context.Background(), []string{"ETH"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := p.Wait(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
