package source

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// FileFetcher reads resources from a local data directory.
type FileFetcher struct {
	Dir string
}

func NewFileFetcher(dir string) *FileFetcher {
	return &FileFetcher{Dir: dir}
}

func (f *FileFetcher) Fetch(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(f.Dir, filepath.FromSlash(name)))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", name, ErrResourceMissing)
		}
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return data, nil
}
