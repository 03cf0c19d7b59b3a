package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"tokenPlotter/internal/model"
)

// TraceRecord is one exported trace line.
type TraceRecord struct {
	Base       string       `json:"base"`
	Quote      string       `json:"quote"`
	Trace      *model.Trace `json:"trace"`
	ExportedAt string       `json:"exported_at"`
}

// JsonlStorage appends trace records to a JSONL file.
type JsonlStorage struct {
	path string
	mu   sync.Mutex
}

func NewJsonlStorage(path string) *JsonlStorage {
	return &JsonlStorage{path: path}
}

// PutTraces appends one JSON line per trace.
func (s *JsonlStorage) PutTraces(_ context.Context, base string, traces []*model.Trace) error {
	if len(traces) == 0 {
		return nil
	}

	dir := filepath.Dir(s.path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open output file: %w", err)
	}
	defer file.Close()

	exportedAt := time.Now().UTC().Format(time.RFC3339Nano)
	writer := bufio.NewWriter(file)
	for _, trace := range traces {
		line, err := json.Marshal(TraceRecord{
			Base:       base,
			Quote:      trace.Name,
			Trace:      trace,
			ExportedAt: exportedAt,
		})
		if err != nil {
			return fmt.Errorf("marshal trace: %w", err)
		}
		if _, err := writer.Write(line); err != nil {
			return fmt.Errorf("write trace: %w", err)
		}
		if err := writer.WriteByte('\n'); err != nil {
			return fmt.Errorf("write newline: %w", err)
		}
	}

	if err := writer.Flush(); err != nil {
		return fmt.Errorf("flush output: %w", err)
	}

	return nil
}
