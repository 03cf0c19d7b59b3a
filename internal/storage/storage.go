package storage

import (
	"context"

	"tokenPlotter/internal/model"
)

// Storage defines a sink for computed ratio traces.
type Storage interface {
	PutTraces(ctx context.Context, base string, traces []*model.Trace) error
}
