// Package kmer maps fixed-length nucleotide windows to integer bins
// and back.
//
// A window of k bases is encoded as a base-4 number whose least
// significant digit is the first base of the window, using the digit
// values t=0, c=1, a=2, g=3.
package kmer

import (
	"fmt"
)

// MaxK is the longest supported window. 4^15 bins still fit in an
// int32-sized count table.
const MaxK = 15

// Bin identifies one k-mer.
type Bin uint32

// Outcome reports how an Encode attempt ended.
type Outcome int

const (
	Complete Outcome = iota // k valid bases were read
	Invalid                 // a symbol other than t/c/a/g was found
	Boundary                // end of sequence reached before k symbols
)

func (o Outcome) String() string {
	switch o {
	case Complete:
		return "complete"
	case Invalid:
		return "invalid"
	case Boundary:
		return "boundary"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

var (
	// digit value of each lowercase base; other symbols are invalid
	digit = func() []Bin {
		r := make([]Bin, 256)
		r[int('t')] = 0
		r[int('c')] = 1
		r[int('a')] = 2
		r[int('g')] = 3
		return r
	}()
	isbase = func() []bool {
		r := make([]bool, 256)
		r[int('t')] = true
		r[int('c')] = true
		r[int('a')] = true
		r[int('g')] = true
		return r
	}()
	letter = [4]byte{'T', 'C', 'A', 'G'}
)

// Codec encodes windows of a fixed length.
type Codec struct {
	k    int
	bins int
	pow  []Bin // pow[i] == 4^i
}

func NewCodec(k int) (Codec, error) {
	if k < 1 || k > MaxK {
		return Codec{}, fmt.Errorf("oligo length %d out of range [1, %d]", k, MaxK)
	}
	pow := make([]Bin, k)
	pow[0] = 1
	for i := 1; i < k; i++ {
		pow[i] = pow[i-1] * 4
	}
	return Codec{k: k, bins: int(pow[k-1]) * 4, pow: pow}, nil
}

// K returns the window length.
func (c Codec) K() int { return c.k }

// Bins returns 4^k.
func (c Codec) Bins() int { return c.bins }

// Encode reads the window of k symbols starting at seq[pos].
//
// On Complete, the returned int is k. On Invalid, it is the number of
// valid bases before the offending symbol, i.e. the offending
// symbol's offset within the window. On Boundary, it is the number of
// valid bases read before the end of seq.
func (c Codec) Encode(seq []byte, pos int) (Bin, int, Outcome) {
	var bin Bin
	for i := 0; i < c.k; i++ {
		p := pos + i
		if p < 0 || p >= len(seq) {
			return 0, i, Boundary
		}
		b := seq[p]
		if !isbase[int(b)] {
			return 0, i, Invalid
		}
		bin += digit[int(b)] * c.pow[i]
	}
	return bin, c.k, Complete
}

// digits returns the base-4 digits of bin, least significant first.
func (c Codec) digits(bin Bin, op string) ([]int, error) {
	if int64(bin) >= int64(c.bins) {
		return nil, &InvariantError{Op: op, Bin: bin, Digit: -1}
	}
	d := make([]int, c.k)
	for i := range d {
		d[i] = int(bin % 4)
		bin /= 4
	}
	return d, nil
}

// Complement returns the bin of the reverse complement of bin.
func (c Codec) Complement(bin Bin) (Bin, error) {
	d, err := c.digits(bin, "complement")
	if err != nil {
		return 0, err
	}
	var rev Bin
	for i := c.k - 1; i > -1; i-- {
		var n Bin
		switch d[i] {
		case 0:
			n = 2
		case 1:
			n = 3
		case 2:
			n = 0
		case 3:
			n = 1
		default:
			return 0, &InvariantError{Op: "complement", Bin: bin, Digit: d[i]}
		}
		rev += n * c.pow[c.k-1-i]
	}
	return rev, nil
}

// Name returns the k-mer of bin in uppercase letters, first base first.
func (c Codec) Name(bin Bin) (string, error) {
	d, err := c.digits(bin, "name")
	if err != nil {
		return "", err
	}
	name := make([]byte, c.k)
	for i, n := range d {
		if n < 0 || n >= len(letter) {
			return "", &InvariantError{Op: "name", Bin: bin, Digit: n}
		}
		name[i] = letter[n]
	}
	return string(name), nil
}

// Decode returns the bin of a k-letter name. Case is ignored.
func (c Codec) Decode(name string) (Bin, error) {
	if len(name) != c.k {
		return 0, fmt.Errorf("k-mer %q: length %d, expected %d", name, len(name), c.k)
	}
	lower := make([]byte, len(name))
	for i := 0; i < len(name); i++ {
		b := name[i]
		if b >= 'A' && b <= 'Z' {
			b += 'a' - 'A'
		}
		lower[i] = b
	}
	bin, n, outcome := c.Encode(lower, 0)
	if outcome != Complete {
		return 0, fmt.Errorf("k-mer %q: invalid base at position %d", name, n)
	}
	return bin, nil
}
