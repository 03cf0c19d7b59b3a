package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"tokenPlotter/internal/model"
)

const (
	ScheduleResource = "blocktimes.json"
	CatalogResource  = "tokens.json"
)

// ErrResourceMissing is returned when a fetcher has no resource under the requested name.
var ErrResourceMissing = errors.New("resource missing")

// Fetcher returns the raw bytes of a named data resource.
type Fetcher interface {
	Fetch(ctx context.Context, name string) ([]byte, error)
}

// SeriesResource returns the resource name of a token series by its address key.
func SeriesResource(key string) string {
	return key + ".json"
}

// Source decodes the schedule, catalog, and series resources served by a Fetcher.
type Source struct {
	fetcher Fetcher
	logger  *zap.Logger
}

func New(fetcher Fetcher, logger *zap.Logger) *Source {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Source{fetcher: fetcher, logger: logger}
}

// Schedule loads the block-time schedule.
func (s *Source) Schedule(ctx context.Context) (model.Schedule, error) {
	var schedule model.Schedule
	if err := s.load(ctx, ScheduleResource, "schedule", &schedule); err != nil {
		return model.Schedule{}, err
	}
	return schedule, nil
}

// Catalog loads the symbol to token info mapping.
func (s *Source) Catalog(ctx context.Context) (map[string]model.TokenInfo, error) {
	var catalog map[string]model.TokenInfo
	if err := s.load(ctx, CatalogResource, "catalog", &catalog); err != nil {
		return nil, err
	}
	if catalog == nil {
		return nil, &model.DataFormatError{Resource: "catalog", Reason: "empty document"}
	}
	return catalog, nil
}

// Series loads the price series stored under an address key.
func (s *Source) Series(ctx context.Context, key string) (model.SeriesRecord, error) {
	var record model.SeriesRecord
	if err := s.load(ctx, SeriesResource(key), "series "+key, &record); err != nil {
		return model.SeriesRecord{}, err
	}
	return record, nil
}

func (s *Source) load(ctx context.Context, name, resource string, target interface{}) error {
	if s.fetcher == nil {
		return fmt.Errorf("fetcher is nil")
	}
	data, err := s.fetcher.Fetch(ctx, name)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", name, err)
	}
	if err := json.Unmarshal(data, target); err != nil {
		return &model.DataFormatError{Resource: resource, Reason: "decode json", Err: err}
	}
	s.logger.Debug("resource loaded", zap.String("name", name), zap.Int("bytes", len(data)))
	return nil
}
