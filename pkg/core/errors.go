package core

import (
	"errors"
	"fmt"
)

// Common errors.
var (
	ErrMalformedDocument  = errors.New("malformed document")
	ErrPropertyCorruption = errors.New("property corruption")
	ErrWorkflowConflict   = errors.New("block matches multiple workflow states")
	ErrInvalidInput       = errors.New("invalid input")
	ErrRoundTrip          = errors.New("content differed after parsing")
	ErrPropertyNotFound   = errors.New("property not found")
	ErrExists             = errors.New("file already exists, use the overwrite option")
	ErrEmpty              = errors.New("refusing to write an empty file without allow-empty")
	ErrPatternNotFound    = errors.New("pattern did not match exactly one block")
	ErrPageNotFound       = errors.New("page not found")
	ErrReadOnly           = errors.New("repository is in read-only mode")
)

// RoundTripError reports the first line where the re-rendered page differs
// from its source.
type RoundTripError struct {
	Line     int // 1-based, counted over non-blank lines
	Expected string
	Got      string
}

func (e *RoundTripError) Error() string {
	return fmt.Sprintf("%s: line %d: expected %q, got %q", ErrRoundTrip, e.Line, e.Expected, e.Got)
}

func (e *RoundTripError) Unwrap() error {
	return ErrRoundTrip
}
