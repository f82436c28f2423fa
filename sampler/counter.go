// Package sampler turns a loaded genome into rows of normalized k-mer
// frequencies.
//
// Each row counts a fixed number of overlapping k-mer windows,
// starting where the previous row stopped. When a scan runs off the
// end of the genome it resumes at the next multiple of the shift
// size, so successive passes sample shifted regions instead of
// re-reading the same windows.
package sampler

import (
	"errors"
	"fmt"

	"git.arvados.org/countog.git/genome"
	"git.arvados.org/countog.git/kmer"
)

const (
	DefaultK            = 8
	DefaultCountingSize = 100000
	DefaultRows         = 20000
	DefaultShift        = 20000
)

// ErrNoKmers is returned by New when the genome has no complete
// k-mer to count.
var ErrNoKmers = errors.New("genome contains no countable k-mer")

type Config struct {
	K            int  // oligo length
	CountingSize int  // windows counted per row
	Shift        int  // relocation stride at the end of the genome
	Merge        bool // fold each k-mer together with its reverse complement
}

func DefaultConfig() Config {
	return Config{
		K:            DefaultK,
		CountingSize: DefaultCountingSize,
		Shift:        DefaultShift,
	}
}

// Pipeline holds the scan state that carries over from one row to
// the next. It is not safe for concurrent use.
type Pipeline struct {
	seq    []byte
	valid  int64
	codec  kmer.Codec
	comp   *kmer.ComplementTable
	counts []uint32
	cfg    Config

	cursor int
	round  int
	shift  int64

	groups [][]kmer.Bin // merged column layout, built on first use
}

// Validate returns a *ConfigError if any setting is out of range.
func (cfg Config) Validate() error {
	if _, err := kmer.NewCodec(cfg.K); err != nil {
		return &ConfigError{Field: "k", Value: cfg.K, cause: err}
	}
	if cfg.CountingSize < 1 {
		return &ConfigError{Field: "count", Value: cfg.CountingSize, Msg: fmt.Sprintf("counting size %d must be positive", cfg.CountingSize)}
	}
	if cfg.Shift < 1 {
		return &ConfigError{Field: "shift", Value: cfg.Shift, Msg: fmt.Sprintf("shift size %d must be positive", cfg.Shift)}
	}
	return nil
}

func New(buf *genome.Buffer, cfg Config) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	codec, err := kmer.NewCodec(cfg.K)
	if err != nil {
		return nil, err
	}
	p := &Pipeline{
		seq:    buf.Bytes(),
		valid:  buf.Valid,
		codec:  codec,
		comp:   kmer.NewComplementTable(codec),
		counts: make([]uint32, codec.Bins()),
		cfg:    cfg,
		round:  1,
		shift:  int64(cfg.Shift),
	}
	if p.valid < p.shift {
		p.shift = 1
	}
	// After a relocation the window at offset 0 is never revisited,
	// so at least one window must start past it or Advance would
	// never finish.
	found := false
	for pos := 1; pos+codec.K() <= len(p.seq); pos++ {
		if _, _, outcome := codec.Encode(p.seq, pos); outcome == kmer.Complete {
			found = true
			break
		}
	}
	if !found {
		return nil, ErrNoKmers
	}
	return p, nil
}

func (p *Pipeline) Codec() kmer.Codec { return p.codec }

// Cursor returns the offset where the next window scan begins.
func (p *Pipeline) Cursor() int { return p.cursor }

// Round returns the current relocation multiplier.
func (p *Pipeline) Round() int { return p.round }

// Shift returns the effective shift size.
func (p *Pipeline) Shift() int64 { return p.shift }

// Counts returns the current count table. The slice is reused by
// the next row.
func (p *Pipeline) Counts() []uint32 { return p.counts }

// Reset zeroes the count table.
func (p *Pipeline) Reset() {
	for i := range p.counts {
		p.counts[i] = 0
	}
}

// Advance counts target complete windows, starting at the cursor,
// and returns the number counted.
func (p *Pipeline) Advance(target int) int {
	n := 0
	for n < target {
		bin, _, outcome := p.codec.Encode(p.seq, p.cursor)
		switch outcome {
		case kmer.Complete:
			p.counts[bin]++
			n++
		case kmer.Boundary:
			p.relocate()
		}
		if p.valid >= p.shift*int64(p.round+1) {
			p.round = 0
		}
		p.cursor++
	}
	return n
}

// relocate moves the cursor to the next shift offset. An offset past
// the end of the genome wraps to the start.
func (p *Pipeline) relocate() {
	target := p.shift * int64(p.round)
	if target >= int64(len(p.seq)) {
		target = 0
		p.round = 0
	}
	p.cursor = int(target)
	p.round++
}
