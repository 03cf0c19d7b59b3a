package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"tokenPlotter/internal/app/apptest"
	"tokenPlotter/internal/config"
	"tokenPlotter/internal/model"
)

func TestOpenLoadsFixture(t *testing.T) {
	dir := apptest.WriteDataDir(t)
	a, err := Open(context.Background(), config.SourceConfig{DataDir: dir, ReferenceSymbol: "ETH"}, nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer a.Close()

	if a.Axis.Len() != len(apptest.Offsets) {
		t.Fatalf("axis len mismatch: %d", a.Axis.Len())
	}
	if a.Axis.At(1) != apptest.StartTS+apptest.Delta+5 {
		t.Fatalf("axis[1] mismatch: %d", a.Axis.At(1))
	}
	if got := a.Catalog().BaseOptions(); !reflect.DeepEqual(got, []string{"ETH", "DAI", "USDC"}) {
		t.Fatalf("base options mismatch: %v", got)
	}

	trace, err := a.Engine.Compute(context.Background(), "ETH", "DAI")
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	want := []float64{500, 400, 500, 250}
	for i, v := range want {
		if diff := trace.Values[i] - v; diff > 1e-9 || diff < -1e-9 {
			t.Fatalf("value %d mismatch: got %v want %v", i, trace.Values[i], v)
		}
	}
}

func TestWindow(t *testing.T) {
	dir := apptest.WriteDataDir(t)
	a, err := Open(context.Background(), config.SourceConfig{DataDir: dir, ReferenceSymbol: "ETH"}, nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer a.Close()

	from, to := a.Window()
	if from.Unix() != apptest.StartTS {
		t.Fatalf("from mismatch: %v", from)
	}
	if to.Unix() != apptest.StartTS+3*apptest.Delta+2 {
		t.Fatalf("to mismatch: %v", to)
	}
	if from.Location() != time.UTC {
		t.Fatalf("expected UTC, got %v", from.Location())
	}
}

func TestDefaultBase(t *testing.T) {
	dir := apptest.WriteDataDir(t)
	a, err := Open(context.Background(), config.SourceConfig{DataDir: dir, ReferenceSymbol: "ETH"}, nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer a.Close()

	if got := a.DefaultBase("DAI"); got != "DAI" {
		t.Fatalf("expected DAI, got %s", got)
	}
	if got := a.DefaultBase("WBTC"); got != "ETH" {
		t.Fatalf("expected fallback to ETH, got %s", got)
	}
}

func TestOpenMalformedSchedule(t *testing.T) {
	dir := apptest.WriteDataDir(t)
	if err := os.WriteFile(filepath.Join(dir, "blocktimes.json"), []byte(`{"delta":3600,"ts_offsets":[0]}`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	_, err := Open(context.Background(), config.SourceConfig{DataDir: dir, ReferenceSymbol: "ETH"}, nil)
	if !errors.Is(err, model.ErrDataFormat) {
		t.Fatalf("expected data format error, got %v", err)
	}
}

func TestOpenMissingCatalog(t *testing.T) {
	dir := apptest.WriteDataDir(t)
	if err := os.Remove(filepath.Join(dir, "tokens.json")); err != nil {
		t.Fatalf("remove: %v", err)
	}

	if _, err := Open(context.Background(), config.SourceConfig{DataDir: dir, ReferenceSymbol: "ETH"}, nil); err == nil {
		t.Fatalf("expected error")
	}
}
