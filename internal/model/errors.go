package model

import (
	"errors"
	"fmt"
)

var (
	// ErrDataFormat matches any DataFormatError.
	ErrDataFormat = errors.New("data format error")
	// ErrNotFound matches any NotFoundError.
	ErrNotFound = errors.New("not found")
)

// DataFormatError reports a malformed schedule, catalog, or series resource.
type DataFormatError struct {
	Resource string
	Reason   string
	Err      error
}

func (e *DataFormatError) Error() string {
	msg := fmt.Sprintf("malformed %s: %s", e.Resource, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *DataFormatError) Unwrap() error { return e.Err }

func (e *DataFormatError) Is(target error) bool { return target == ErrDataFormat }

// NotFoundError reports a symbol that is neither in the catalog nor the reference asset.
type NotFoundError struct {
	Symbol string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("symbol %q not found in catalog", e.Symbol)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }
