package genome

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyInput is returned (wrapped in a FormatError) when the
	// input has no non-blank line.
	ErrEmptyInput = errors.New("empty input")
	// ErrUnknownFormat is returned (wrapped in a FormatError) when the
	// first line is neither a FASTA nor a FASTQ header.
	ErrUnknownFormat = errors.New("neither FASTA nor FASTQ")
)

// FormatError reports malformed input.
//
// The underlying error (if any) can be accessed via errors.Unwrap.
type FormatError struct {
	Line  int // 1-based, 0 if unknown
	Msg   string
	cause error
}

func (e *FormatError) Error() string {
	msg := e.Msg
	if msg == "" && e.cause != nil {
		msg = e.cause.Error()
	}
	if e.Line > 0 {
		return fmt.Sprintf("input line %d: %s", e.Line, msg)
	}
	return "input: " + msg
}

func (e *FormatError) Unwrap() error { return e.cause }

// ResourceError reports a genome buffer that could not be allocated.
type ResourceError struct {
	Size  int64
	cause error
}

func (e *ResourceError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("cannot allocate genome buffer of %d bytes: %s", e.Size, e.cause)
	}
	return fmt.Sprintf("cannot allocate genome buffer of %d bytes", e.Size)
}

func (e *ResourceError) Unwrap() error { return e.cause }
