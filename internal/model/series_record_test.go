package model

import (
	"encoding/json"
	"math"
	"testing"
)

func TestSeriesRecordNullPriceIsNaN(t *testing.T) {
	var rec SeriesRecord
	if err := json.Unmarshal([]byte(`{"start_index":0,"prices":[2.0,null,4.0]}`), &rec); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if rec.StartIndex == nil || *rec.StartIndex != 0 {
		t.Fatalf("start_index mismatch: %v", rec.StartIndex)
	}
	if len(rec.Prices) != 3 || rec.Prices[0] != 2 || rec.Prices[2] != 4 {
		t.Fatalf("prices mismatch: %v", rec.Prices)
	}
	if !math.IsNaN(rec.Prices[1]) {
		t.Fatalf("expected NaN for null price, got %v", rec.Prices[1])
	}
}

func TestSeriesRecordMissingFields(t *testing.T) {
	var rec SeriesRecord
	if err := json.Unmarshal([]byte(`{}`), &rec); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if rec.StartIndex != nil || rec.Prices != nil {
		t.Fatalf("expected empty record, got %+v", rec)
	}
	if err := json.Unmarshal([]byte(`{"start_index":0,"prices":["1"]}`), &rec); err == nil {
		t.Fatalf("expected error for non-numeric price")
	}
}
