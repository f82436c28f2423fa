package kmer

// ComplementTable caches Codec.Complement results. Each entry is
// computed on first use and never changes afterwards.
type ComplementTable struct {
	codec     Codec
	rev       []Bin
	populated []bool
}

func NewComplementTable(codec Codec) *ComplementTable {
	return &ComplementTable{
		codec:     codec,
		rev:       make([]Bin, codec.Bins()),
		populated: make([]bool, codec.Bins()),
	}
}

// Lookup returns the reverse complement of bin.
func (t *ComplementTable) Lookup(bin Bin) (Bin, error) {
	if int64(bin) < int64(len(t.rev)) && t.populated[bin] {
		return t.rev[bin], nil
	}
	rev, err := t.codec.Complement(bin)
	if err != nil {
		return 0, err
	}
	t.rev[bin] = rev
	t.populated[bin] = true
	// the relation is symmetric, so fill the partner too
	if !t.populated[rev] {
		t.rev[rev] = bin
		t.populated[rev] = true
	}
	return rev, nil
}

// Len returns the number of populated entries.
func (t *ComplementTable) Len() int {
	n := 0
	for _, ok := range t.populated {
		if ok {
			n++
		}
	}
	return n
}
