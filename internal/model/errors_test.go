package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"testing"
)

func TestErrorsMatchSentinels(t *testing.T) {
	var err error = &DataFormatError{Resource: "schedule", Reason: "missing start_ts"}
	wrapped := fmt.Errorf("load: %w", err)
	if !errors.Is(wrapped, ErrDataFormat) {
		t.Fatalf("expected ErrDataFormat match")
	}
	if errors.Is(wrapped, ErrNotFound) {
		t.Fatalf("unexpected ErrNotFound match")
	}

	var nf error = &NotFoundError{Symbol: "XYZ"}
	if !errors.Is(fmt.Errorf("get: %w", nf), ErrNotFound) {
		t.Fatalf("expected ErrNotFound match")
	}
}

func TestDataFormatErrorUnwrap(t *testing.T) {
	err := &DataFormatError{Resource: "series", Reason: "decode", Err: io.ErrUnexpectedEOF}
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Fatalf("expected cause to be reachable")
	}
	if err.Error() != "malformed series: decode: unexpected EOF" {
		t.Fatalf("message mismatch: %s", err.Error())
	}
}

func TestTraceJSONNonFinite(t *testing.T) {
	trace := Trace{
		Name:       "X",
		Timestamps: []int64{1, 2, 3},
		Values:     []float64{2, math.Inf(1), math.NaN()},
	}

	data, err := json.Marshal(trace)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	want := `{"name":"X","x":[1,2,3],"y":[2,null,null]}`
	if string(data) != want {
		t.Fatalf("json mismatch: %s != %s", data, want)
	}
}
