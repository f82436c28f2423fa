package kmer

import "fmt"

// InvariantError reports a bin or digit outside the encoding's range.
// It indicates a programming error rather than bad input.
type InvariantError struct {
	Op    string
	Bin   Bin
	Digit int // -1 when the bin itself is out of range
}

func (e *InvariantError) Error() string {
	if e.Digit < 0 {
		return fmt.Sprintf("%s: bin %d out of range", e.Op, e.Bin)
	}
	return fmt.Sprintf("%s: nucleotide %d in bin %d", e.Op, e.Digit, e.Bin)
}
