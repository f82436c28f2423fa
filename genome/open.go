package genome

import (
	"bytes"
	"io"
	"io/ioutil"
	"os"
	"strings"

	"github.com/edsrzf/mmap-go"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Open returns a reader for the sequence file at path, decompressing
// .gz, .zst and .lz4 files. Uncompressed regular files are memory
// mapped. "-" means stdin.
//
// The returned size is the number of bytes the reader will produce,
// or -1 if that is not known in advance.
func Open(path string) (io.ReadCloser, int64, error) {
	if path == "-" {
		return ioutil.NopCloser(os.Stdin), -1, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, -1, err
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, -1, err
	}
	switch {
	case strings.HasSuffix(path, ".gz"):
		zr, err := gzip.NewReader(f)
		if err != nil {
			f.Close()
			return nil, -1, &FormatError{Msg: path + ": gzip: " + err.Error(), cause: err}
		}
		return &readCloser{Reader: zr, closers: []io.Closer{zr, f}}, -1, nil
	case strings.HasSuffix(path, ".zst"):
		zr, err := zstd.NewReader(f)
		if err != nil {
			f.Close()
			return nil, -1, &FormatError{Msg: path + ": zstd: " + err.Error(), cause: err}
		}
		rc := zr.IOReadCloser()
		return &readCloser{Reader: rc, closers: []io.Closer{rc, f}}, -1, nil
	case strings.HasSuffix(path, ".lz4"):
		return &readCloser{Reader: lz4.NewReader(f), closers: []io.Closer{f}}, -1, nil
	case fi.Mode().IsRegular() && fi.Size() > 0:
		mm, err := mmap.Map(f, mmap.RDONLY, 0)
		if err != nil {
			// fall back to ordinary reads
			return f, fi.Size(), nil
		}
		m := &mapping{mm: mm}
		return &readCloser{Reader: bytes.NewReader(mm), closers: []io.Closer{m, f}}, fi.Size(), nil
	default:
		return f, -1, nil
	}
}

// LoadFile opens path with Open and loads it.
func LoadFile(path string, opts Options) (*Buffer, error) {
	rdr, size, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer rdr.Close()
	if opts.SizeHint == 0 && size > 0 {
		opts.SizeHint = size
	}
	return Load(rdr, opts)
}

type readCloser struct {
	io.Reader
	closers []io.Closer
}

func (rc *readCloser) Close() error {
	var err error
	for _, c := range rc.closers {
		if e := c.Close(); e != nil && err == nil {
			err = e
		}
	}
	return err
}

type mapping struct {
	mm mmap.MMap
}

func (m *mapping) Close() error { return m.mm.Unmap() }
