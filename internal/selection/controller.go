package selection

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"tokenPlotter/internal/model"
)

// ErrSuperseded is returned by Pending.Wait when a later selection replaced the request.
var ErrSuperseded = errors.New("selection superseded")

const defaultParallelism = 4

// Computer produces the trace of quote priced in base.
type Computer interface {
	Compute(ctx context.Context, quote, base string) (*model.Trace, error)
}

// Result is a resolved selection ready for rendering.
type Result struct {
	Base   string
	Quotes []string
	Traces []*model.Trace
	Plot   model.Plot
}

// Pending resolves once every trace of a selection is available.
type Pending struct {
	done   chan struct{}
	result Result
	err    error
}

// Done is closed when the pending result resolves.
func (p *Pending) Done() <-chan struct{} {
	return p.done
}

// Wait blocks until the result resolves or ctx ends.
func (p *Pending) Wait(ctx context.Context) (Result, error) {
	select {
	case <-ctx.Done():
		return Result{}, ctx.Err()
	case <-p.done:
		return p.result, p.err
	}
}

// Config controls the controller.
type Config struct {
	Parallelism int
}

// Controller holds the base/quote selection and memoizes traces under the current base.
// All state is guarded by mu; computations run outside the lock and only the newest
// generation may write back.
type Controller struct {
	engine      Computer
	logger      *zap.Logger
	parallelism int

	mu         sync.Mutex
	generation uint64
	base       string
	quotes     []string
	memo       map[string]*model.Trace
}

func NewController(cfg Config, engine Computer, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Parallelism <= 0 {
		cfg.Parallelism = defaultParallelism
	}
	return &Controller{
		engine:      engine,
		logger:      logger,
		parallelism: cfg.Parallelism,
		memo:        make(map[string]*model.Trace),
	}
}

// SetBase switches the base symbol. A different base drops every memoized trace.
func (c *Controller) SetBase(ctx context.Context, symbol string) *Pending {
	c.mu.Lock()
	if symbol != c.base {
		c.logger.Debug("base changed", zap.String("from", c.base), zap.String("to", symbol))
		c.base = symbol
		c.memo = make(map[string]*model.Trace)
	}
	return c.refreshLocked(ctx)
}

// SetQuotes replaces the selected quote symbols.
func (c *Controller) SetQuotes(ctx context.Context, symbols []string) *Pending {
	quotes := dedupe(symbols)
	c.mu.Lock()
	c.quotes = quotes
	return c.refreshLocked(ctx)
}

// Base returns the current base symbol.
func (c *Controller) Base() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.base
}

// Quotes returns the selected quote symbols in selection order.
func (c *Controller) Quotes() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.quotes...)
}

// Current returns the memoized traces of the selected quotes in selection order.
func (c *Controller) Current() []*model.Trace {
	c.mu.Lock()
	defer c.mu.Unlock()
	traces := make([]*model.Trace, 0, len(c.quotes))
	for _, q := range c.quotes {
		if t, ok := c.memo[q]; ok {
			traces = append(traces, t)
		}
	}
	return traces
}

// refreshLocked must be called with mu held; it releases mu.
func (c *Controller) refreshLocked(ctx context.Context) *Pending {
	c.generation++
	gen := c.generation
	base := c.base
	quotes := append([]string(nil), c.quotes...)

	var missing []string
	if base != "" {
		for _, q := range quotes {
			if _, ok := c.memo[q]; !ok {
				missing = append(missing, q)
			}
		}
	}
	c.mu.Unlock()

	p := &Pending{done: make(chan struct{})}
	go func() {
		defer close(p.done)
		p.result, p.err = c.resolve(ctx, gen, base, quotes, missing)
	}()
	return p
}

func (c *Controller) resolve(ctx context.Context, gen uint64, base string, quotes, missing []string) (Result, error) {
	computed := make([]*model.Trace, len(missing))
	if len(missing) > 0 {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(c.parallelism)
		for i, quote := range missing {
			g.Go(func() error {
				trace, err := c.engine.Compute(gctx, quote, base)
				if err != nil {
					return err
				}
				computed[i] = trace
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			c.mu.Lock()
			stale := gen != c.generation
			c.mu.Unlock()
			if stale {
				return Result{}, ErrSuperseded
			}
			c.logger.Warn("trace computation failed", zap.String("base", base), zap.Strings("quotes", missing), zap.Error(err))
			return Result{}, err
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.generation {
		c.logger.Debug("discard superseded selection", zap.Uint64("generation", gen), zap.Uint64("current", c.generation))
		return Result{}, ErrSuperseded
	}

	for i, quote := range missing {
		c.memo[quote] = computed[i]
	}

	traces := make([]*model.Trace, 0, len(quotes))
	if base != "" {
		for _, q := range quotes {
			traces = append(traces, c.memo[q])
		}
	}

	return Result{
		Base:   base,
		Quotes: quotes,
		Traces: traces,
		Plot:   NewPlot(base, quotes, traces),
	}, nil
}

func dedupe(symbols []string) []string {
	seen := make(map[string]struct{}, len(symbols))
	out := make([]string, 0, len(symbols))
	for _, s := range symbols {
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
