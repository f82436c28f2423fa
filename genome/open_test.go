package genome

import (
	"io"
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"gopkg.in/check.v1"
)

type openSuite struct{}

var _ = check.Suite(&openSuite{})

const testFasta = ">chr1\nACGTACGTTTGGCCAA\nacgtNNNN\n>chr2\nGATTACA\n"

func writeCompressed(c *check.C, path string, wrap func(io.Writer) io.WriteCloser) {
	f, err := os.Create(path)
	c.Assert(err, check.IsNil)
	defer f.Close()
	w := wrap(f)
	_, err = io.WriteString(w, testFasta)
	c.Assert(err, check.IsNil)
	c.Assert(w.Close(), check.IsNil)
	c.Assert(f.Close(), check.IsNil)
}

func (s *openSuite) TestCompressedInputsMatchPlain(c *check.C) {
	dir := c.MkDir()
	plain := filepath.Join(dir, "ref.fa")
	c.Assert(ioutil.WriteFile(plain, []byte(testFasta), 0644), check.IsNil)
	writeCompressed(c, plain+".gz", func(w io.Writer) io.WriteCloser { return gzip.NewWriter(w) })
	writeCompressed(c, plain+".zst", func(w io.Writer) io.WriteCloser {
		enc, err := zstd.NewWriter(w)
		c.Assert(err, check.IsNil)
		return enc
	})
	writeCompressed(c, plain+".lz4", func(w io.Writer) io.WriteCloser { return lz4.NewWriter(w) })

	want, err := LoadFile(plain, DefaultOptions())
	c.Assert(err, check.IsNil)
	c.Check(string(want.Bytes()), check.Equals, "nacgtacgtttggccaaacgtNNNNngattaca")
	for _, suffix := range []string{".gz", ".zst", ".lz4"} {
		got, err := LoadFile(plain+suffix, DefaultOptions())
		c.Assert(err, check.IsNil, check.Commentf("%s", suffix))
		c.Check(got.Digest(), check.Equals, want.Digest(), check.Commentf("%s", suffix))
		c.Check(got.Valid, check.Equals, want.Valid)
	}
}

func (s *openSuite) TestOpenReportsSize(c *check.C) {
	dir := c.MkDir()
	path := filepath.Join(dir, "ref.fa")
	c.Assert(ioutil.WriteFile(path, []byte(testFasta), 0644), check.IsNil)
	rdr, size, err := Open(path)
	c.Assert(err, check.IsNil)
	c.Check(size, check.Equals, int64(len(testFasta)))
	data, err := ioutil.ReadAll(rdr)
	c.Assert(err, check.IsNil)
	c.Check(string(data), check.Equals, testFasta)
	c.Check(rdr.Close(), check.IsNil)
}

func (s *openSuite) TestOpenEmptyFile(c *check.C) {
	dir := c.MkDir()
	path := filepath.Join(dir, "empty.fa")
	c.Assert(ioutil.WriteFile(path, nil, 0644), check.IsNil)
	_, err := LoadFile(path, DefaultOptions())
	c.Check(err, check.FitsTypeOf, &FormatError{})
}

func (s *openSuite) TestOpenMissingFile(c *check.C) {
	_, _, err := Open(filepath.Join(c.MkDir(), "nonexistent.fa"))
	c.Check(os.IsNotExist(err), check.Equals, true)
}

func (s *openSuite) TestOpenCorruptGzip(c *check.C) {
	dir := c.MkDir()
	path := filepath.Join(dir, "bad.fa.gz")
	c.Assert(ioutil.WriteFile(path, []byte(testFasta), 0644), check.IsNil)
	_, _, err := Open(path)
	c.Check(err, check.FitsTypeOf, &FormatError{})
}
