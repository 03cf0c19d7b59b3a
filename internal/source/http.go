package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"tokenPlotter/internal/retry"
)

// HTTPConfig controls remote fetching.
type HTTPConfig struct {
	BaseURL      string
	Timeout      time.Duration
	RateLimit    float64
	MaxRetries   int
	RetryBackoff time.Duration
}

// HTTPFetcher reads resources relative to a base URL.
type HTTPFetcher struct {
	cfg     HTTPConfig
	base    *url.URL
	client  *http.Client
	limiter *rate.Limiter
	logger  *zap.Logger
}

func NewHTTPFetcher(cfg HTTPConfig, logger *zap.Logger) (*HTTPFetcher, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base url is required")
	}
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/") + "/")
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), 1)
	}

	return &HTTPFetcher{
		cfg:     cfg,
		base:    base,
		client:  &http.Client{Timeout: cfg.Timeout},
		limiter: limiter,
		logger:  logger,
	}, nil
}

func (f *HTTPFetcher) Fetch(ctx context.Context, name string) ([]byte, error) {
	ref, err := url.Parse(name)
	if err != nil {
		return nil, fmt.Errorf("parse resource name: %w", err)
	}
	target := f.base.ResolveReference(ref).String()

	var body []byte
	err = retry.Do(ctx, f.cfg.MaxRetries, f.cfg.RetryBackoff, func(ctx context.Context) error {
		if err := f.limiter.Wait(ctx); err != nil {
			return retry.Permanent(err)
		}
		var err error
		body, err = f.get(ctx, target)
		if err != nil {
			f.logger.Warn("fetch failed", zap.String("url", target), zap.Error(err))
		}
		return err
	})
	return body, err
}

func (f *HTTPFetcher) get(ctx context.Context, target string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, retry.Permanent(fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", target, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, retry.Permanent(fmt.Errorf("%s: %w", target, ErrResourceMissing))
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("get %s: status %d", target, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return nil, retry.Permanent(fmt.Errorf("get %s: status %d", target, resp.StatusCode))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return data, nil
}
