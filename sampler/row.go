package sampler

import (
	"git.arvados.org/countog.git/kmer"
)

// NextRow counts the next CountingSize windows and returns their
// normalized frequencies, one value per column.
func (p *Pipeline) NextRow() ([]float32, error) {
	p.Reset()
	p.Advance(p.cfg.CountingSize)
	if !p.cfg.Merge {
		return normalize(p.counts), nil
	}
	groups, err := p.layout()
	if err != nil {
		return nil, err
	}
	totals := make([]uint32, len(groups))
	for i, g := range groups {
		for _, bin := range g {
			totals[i] += p.counts[bin]
		}
	}
	return normalize(totals), nil
}

// Columns returns the header names of every bin in increasing bin
// order. The list is the same whether or not complementary k-mers are
// merged.
func (p *Pipeline) Columns() ([]string, error) {
	bins := make([]kmer.Bin, p.codec.Bins())
	for i := range bins {
		bins[i] = kmer.Bin(i)
	}
	return p.names(bins)
}

// MergedColumns returns the name of each merged output column: the
// first k-mer of its complementary pair.
func (p *Pipeline) MergedColumns() ([]string, error) {
	groups, err := p.layout()
	if err != nil {
		return nil, err
	}
	bins := make([]kmer.Bin, len(groups))
	for i, g := range groups {
		bins[i] = g[0]
	}
	return p.names(bins)
}

func (p *Pipeline) names(bins []kmer.Bin) ([]string, error) {
	names := make([]string, len(bins))
	for i, bin := range bins {
		name, err := p.codec.Name(bin)
		if err != nil {
			return nil, err
		}
		names[i] = name
	}
	return names, nil
}

// Width returns the number of values in each row.
func (p *Pipeline) Width() (int, error) {
	if !p.cfg.Merge {
		return p.codec.Bins(), nil
	}
	groups, err := p.layout()
	return len(groups), err
}

// layout pairs every bin with its reverse complement, in increasing
// order of the pair's first bin. A bin that is its own reverse
// complement forms a group by itself and is counted once.
func (p *Pipeline) layout() ([][]kmer.Bin, error) {
	if p.groups != nil {
		return p.groups, nil
	}
	consumed := make([]bool, p.codec.Bins())
	var groups [][]kmer.Bin
	for i := range consumed {
		if consumed[i] {
			continue
		}
		bin := kmer.Bin(i)
		rev, err := p.comp.Lookup(bin)
		if err != nil {
			return nil, err
		}
		consumed[bin] = true
		if rev == bin {
			groups = append(groups, []kmer.Bin{bin})
			continue
		}
		consumed[rev] = true
		groups = append(groups, []kmer.Bin{bin, rev})
	}
	p.groups = groups
	return groups, nil
}

// normalize divides each count by the largest one. All values are 0
// if every count is 0.
func normalize(counts []uint32) []float32 {
	var max uint32
	for _, n := range counts {
		if n > max {
			max = n
		}
	}
	row := make([]float32, len(counts))
	if max == 0 {
		return row
	}
	for i, n := range counts {
		row[i] = float32(n) / float32(max)
	}
	return row
}
