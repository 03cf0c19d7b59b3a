// Package apptest writes a small data directory for tests that need a loaded App.
package apptest

import (
	"os"
	"path/filepath"
	"testing"
)

const (
	DAIAddress  = "0x6b175474e89094c44da98b954eedeac495271d0f"
	USDCAddress = "0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48"

	StartTS = int64(1600000000)
	Delta   = int64(3600)
)

// Offsets are the ts_offsets of the fixture schedule.
var Offsets = []int64{0, 5, -3, 2}

var files = map[string]string{
	"blocktimes.json": `{"start_ts":1600000000,"delta":3600,"ts_offsets":[0,5,-3,2],"block_diffs":[0,300,300,300]}`,
	"tokens.json": `{"DAI":{"address":"0x6B175474E89094C44Da98b954EedeAC495271d0F"},` +
		`"USDC":{"address":"0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48"}}`,
	DAIAddress + ".json":  `{"start_index":0,"prices":[0.002,0.0025,0.002,0.004]}`,
	USDCAddress + ".json": `{"start_index":1,"prices":[0.002,0.004,0.002]}`,
}

// WriteDataDir creates the fixture files in a temp dir and returns its path.
func WriteDataDir(t testing.TB) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	return dir
}
