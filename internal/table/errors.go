package table

import (
	"errors"
	"fmt"
)

// ErrUnsupportedFormat is returned for file names whose extension has no
// reader.
var ErrUnsupportedFormat = errors.New("unsupported file type")

// ParseError reports input that could not be read as tabular data.
type ParseError struct {
	Source string
	Line   int // 1-based; 0 when unknown
	Err    error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("invalid table: %s line %d: %v", e.Source, e.Line, e.Err)
	}
	return fmt.Sprintf("invalid table: %s: %v", e.Source, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// EmptyInputError reports input that parsed but has no columns.
type EmptyInputError struct {
	Source string
}

func (e *EmptyInputError) Error() string {
	if e.Source == "" {
		return "empty file: no columns"
	}
	return fmt.Sprintf("empty file: %s has no columns", e.Source)
}
