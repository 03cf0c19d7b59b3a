package blocktimes

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"tokenPlotter/internal/model"
	"tokenPlotter/internal/retry"
)

// HeaderSource exposes the block data needed to sample the chain.
type HeaderSource interface {
	LatestBlockNumber(ctx context.Context) (uint64, error)
	BlockTimestamp(ctx context.Context, number uint64) (uint64, error)
}

// Config controls schedule sampling.
type Config struct {
	StartTS      int64
	Delta        int64
	Count        int
	FromBlock    uint64
	MaxRetries   int
	RetryBackoff time.Duration
}

// Builder samples the first block at or after each ideal time start+i*delta.
type Builder struct {
	cfg     Config
	headers HeaderSource
	logger  *zap.Logger
}

func NewBuilder(cfg Config, headers HeaderSource, logger *zap.Logger) *Builder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Builder{cfg: cfg, headers: headers, logger: logger}
}

// Build returns a schedule whose ts_offsets are the actual minus ideal sample times and
// whose block_diffs are block number deltas between samples. Sampling stops early when
// the chain head is reached.
func (b *Builder) Build(ctx context.Context) (model.Schedule, error) {
	if b.headers == nil {
		return model.Schedule{}, fmt.Errorf("header source is nil")
	}
	if b.cfg.Delta <= 0 {
		return model.Schedule{}, fmt.Errorf("delta must be positive")
	}
	if b.cfg.Count <= 0 {
		return model.Schedule{}, fmt.Errorf("count must be positive")
	}

	var latest uint64
	if err := retry.Do(ctx, b.cfg.MaxRetries, b.cfg.RetryBackoff, func(ctx context.Context) error {
		var err error
		latest, err = b.headers.LatestBlockNumber(ctx)
		return err
	}); err != nil {
		return model.Schedule{}, fmt.Errorf("latest block: %w", err)
	}
	if b.cfg.FromBlock > latest {
		return model.Schedule{}, fmt.Errorf("from block %d is past head %d", b.cfg.FromBlock, latest)
	}

	schedule := model.NewSchedule(b.cfg.StartTS, b.cfg.Delta, make([]int64, 0, b.cfg.Count))
	schedule.BlockDiffs = make([]int64, 0, b.cfg.Count)

	lo := b.cfg.FromBlock
	prev := lo
	for i := 0; i < b.cfg.Count; i++ {
		target := b.cfg.StartTS + int64(i)*b.cfg.Delta
		block, ts, ok, err := b.firstAtOrAfter(ctx, target, lo, latest)
		if err != nil {
			return model.Schedule{}, err
		}
		if !ok {
			b.logger.Warn("chain head reached", zap.Int("samples", i), zap.Int64("target_ts", target), zap.Uint64("head", latest))
			break
		}

		diff := int64(0)
		if i > 0 {
			diff = int64(block - prev)
		}
		schedule.Offsets = append(schedule.Offsets, ts-target)
		schedule.BlockDiffs = append(schedule.BlockDiffs, diff)
		prev = block
		lo = block

		if (i+1)%500 == 0 {
			b.logger.Info("sampling progress", zap.Int("samples", i+1), zap.Uint64("block", block))
		}
	}

	if len(schedule.Offsets) == 0 {
		return model.Schedule{}, fmt.Errorf("no block at or after start_ts %d", b.cfg.StartTS)
	}
	return schedule, nil
}

// firstAtOrAfter binary-searches [lo, hi] for the lowest block with timestamp >= target.
func (b *Builder) firstAtOrAfter(ctx context.Context, target int64, lo, hi uint64) (uint64, int64, bool, error) {
	headTS, err := b.timestamp(ctx, hi)
	if err != nil {
		return 0, 0, false, err
	}
	if headTS < target {
		return 0, 0, false, nil
	}

	for lo < hi {
		mid := lo + (hi-lo)/2
		ts, err := b.timestamp(ctx, mid)
		if err != nil {
			return 0, 0, false, err
		}
		if ts >= target {
			hi = mid
		} else {
			lo = mid + 1
		}
	}

	ts, err := b.timestamp(ctx, lo)
	if err != nil {
		return 0, 0, false, err
	}
	return lo, ts, true, nil
}

func (b *Builder) timestamp(ctx context.Context, number uint64) (int64, error) {
	var ts uint64
	err := retry.Do(ctx, b.cfg.MaxRetries, b.cfg.RetryBackoff, func(ctx context.Context) error {
		var err error
		ts, err = b.headers.BlockTimestamp(ctx, number)
		if err != nil {
			b.logger.Warn("block timestamp fetch failed", zap.Error(err), zap.Uint64("block_number", number))
		}
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("block timestamp %d: %w", number, err)
	}
	return int64(ts), nil
}

// WriteFile stores the schedule as JSON, replacing path atomically.
func WriteFile(path string, schedule model.Schedule) error {
	dir := filepath.Dir(path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create schedule dir: %w", err)
		}
	}

	data, err := json.Marshal(schedule)
	if err != nil {
		return fmt.Errorf("marshal schedule: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write schedule tmp: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename schedule: %w", err)
	}
	return nil
}
