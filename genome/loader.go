// Package genome reads FASTA and FASTQ input into a single
// normalized nucleotide buffer.
//
// Records are concatenated with an 'n' separator between them, so no
// k-mer spans two records. Uppercase T, C, A and G are folded to
// lowercase; other letters are kept as they are and never count as
// bases. FASTQ bases with a quality score below the threshold are
// replaced with 'n'.
package genome

import (
	"bufio"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/blake2b"
)

const (
	DefaultMaxSize    int64 = 1 << 32
	DefaultMinQuality       = 16

	// Phred+33
	qualityOffset = 33
	// longest accepted input line (an unwrapped chromosome)
	maxLineSize = 640 * 1024 * 1024
	// separator inserted between records
	separator = 'n'

	maxInt = int64(^uint(0) >> 1)
)

type Format int

const (
	FASTA Format = iota + 1
	FASTQ
)

func (f Format) String() string {
	switch f {
	case FASTA:
		return "fasta"
	case FASTQ:
		return "fastq"
	default:
		return fmt.Sprintf("Format(%d)", int(f))
	}
}

type Options struct {
	// Loading stops before the buffer would grow past MaxSize.
	MaxSize int64
	// FASTQ bases scoring below MinQuality become 'n'.
	MinQuality int
	// Expected buffer size, used for the initial allocation.
	SizeHint int64
}

// DefaultOptions returns the options used when none are given.
func DefaultOptions() Options {
	return Options{MaxSize: DefaultMaxSize, MinQuality: DefaultMinQuality}
}

// Buffer is a loaded genome. It is not modified after Load returns.
type Buffer struct {
	Format Format
	// Valid is the number of symbols copied from sequence data,
	// excluding separators and quality-filtered bases.
	Valid int64
	seq   []byte
}

func (b *Buffer) Bytes() []byte { return b.seq }

func (b *Buffer) Len() int { return len(b.seq) }

// Total is the number of symbols in the buffer, including
// separators and quality-filtered bases.
func (b *Buffer) Total() int64 { return int64(len(b.seq)) }

// Digest returns the blake2b-256 hash of the buffer contents.
func (b *Buffer) Digest() [blake2b.Size256]byte {
	return blake2b.Sum256(b.seq)
}

// Load reads FASTA or FASTQ data from rdr. The format is taken from
// the first non-blank line.
func Load(rdr io.Reader, opts Options) (*Buffer, error) {
	if opts.MaxSize < 1 || opts.MaxSize > maxInt {
		return nil, &ResourceError{Size: opts.MaxSize, cause: errors.New("maximum genome size out of range")}
	}
	hint := opts.SizeHint
	if hint > opts.MaxSize {
		hint = opts.MaxSize
	} else if hint < 0 {
		hint = 0
	}
	seq, err := allocate(hint)
	if err != nil {
		return nil, err
	}
	scanner := bufio.NewScanner(rdr)
	scanner.Buffer(nil, maxLineSize)
	l := &loader{
		scanner: scanner,
		buf:     &Buffer{seq: seq},
		max:     opts.MaxSize,
		minQ:    opts.MinQuality,
	}

	var first []byte
	for {
		line, ok := l.next()
		if !ok {
			if err := l.err(); err != nil {
				return nil, err
			}
			return nil, &FormatError{cause: ErrEmptyInput}
		}
		if len(line) > 0 {
			first = line
			break
		}
	}
	switch first[0] {
	case '>':
		l.buf.Format = FASTA
		err = l.fasta(first)
	case '@':
		l.buf.Format = FASTQ
		err = l.fastq(first)
	default:
		err = &FormatError{Line: l.line, cause: ErrUnknownFormat}
	}
	if err != nil {
		return nil, err
	}
	return l.buf, nil
}

func allocate(n int64) (buf []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			buf, err = nil, &ResourceError{Size: n, cause: fmt.Errorf("%v", r)}
		}
	}()
	return make([]byte, 0, int(n)), nil
}

type loader struct {
	scanner *bufio.Scanner
	line    int
	buf     *Buffer
	max     int64
	minQ    int
}

// next returns the next input line without its line terminator. The
// returned slice is only valid until the following call.
func (l *loader) next() ([]byte, bool) {
	if !l.scanner.Scan() {
		return nil, false
	}
	l.line++
	buf := l.scanner.Bytes()
	if n := len(buf); n > 0 && buf[n-1] == '\r' {
		buf = buf[:n-1]
	}
	return buf, true
}

func (l *loader) err() error {
	err := l.scanner.Err()
	if err == bufio.ErrTooLong {
		return &FormatError{Line: l.line + 1, cause: err}
	}
	return err
}

// fits reports whether n more symbols fit under the size cap.
func (l *loader) fits(n int) bool {
	return int64(len(l.buf.seq))+int64(n) <= l.max
}

func (l *loader) fasta(line []byte) error {
	for ok := true; ok; line, ok = l.next() {
		if len(line) > 0 && line[0] == '>' {
			if !l.fits(1) {
				return nil
			}
			l.buf.seq = append(l.buf.seq, separator)
			continue
		}
		n := 0
		for _, b := range line {
			if isalpha[int(b)] {
				n++
			}
		}
		if !l.fits(n) {
			return nil
		}
		for _, b := range line {
			if isalpha[int(b)] {
				l.buf.seq = append(l.buf.seq, fold[int(b)])
			}
		}
		l.buf.Valid += int64(n)
	}
	return l.err()
}

func (l *loader) fastq(line []byte) error {
	for ok := true; ok; line, ok = l.next() {
		if len(line) == 0 {
			continue
		}
		if line[0] != '@' {
			return &FormatError{Line: l.line, Msg: "FASTQ record does not start with '@'"}
		}
		if !l.fits(1) {
			return nil
		}
		l.buf.seq = append(l.buf.seq, separator)

		bases, ok := l.next()
		if !ok {
			return l.missing("sequence")
		}
		bases = append([]byte(nil), bases...)
		plus, ok := l.next()
		if !ok {
			return l.missing("'+'")
		} else if len(plus) == 0 || plus[0] != '+' {
			return &FormatError{Line: l.line, Msg: "FASTQ record has no '+' line"}
		}
		qual, ok := l.next()
		if !ok {
			return l.missing("quality")
		} else if len(qual) != len(bases) {
			return &FormatError{Line: l.line, Msg: fmt.Sprintf("quality length %d does not match sequence length %d", len(qual), len(bases))}
		}

		if !l.fits(len(bases)) {
			return nil
		}
		for i, b := range bases {
			if int(qual[i])-qualityOffset < l.minQ {
				l.buf.seq = append(l.buf.seq, separator)
			} else {
				l.buf.seq = append(l.buf.seq, fold[int(b)])
				l.buf.Valid++
			}
		}
	}
	return l.err()
}

func (l *loader) missing(what string) error {
	if err := l.err(); err != nil {
		return err
	}
	return &FormatError{Line: l.line + 1, Msg: "FASTQ record truncated: missing " + what + " line"}
}

var (
	isalpha = func() []bool {
		r := make([]bool, 256)
		for b := 'a'; b <= 'z'; b++ {
			r[int(b)] = true
			r[int(b-'a'+'A')] = true
		}
		return r
	}()
	fold = func() []byte {
		r := make([]byte, 256)
		for i := range r {
			r[i] = byte(i)
		}
		r[int('T')] = 't'
		r[int('C')] = 'c'
		r[int('A')] = 'a'
		r[int('G')] = 'g'
		return r
	}()
)
