package main

import (
	"bytes"
	"os"
	"strings"

	"github.com/kshedden/gonpy"
	"gopkg.in/check.v1"
)

type outputSuite struct{}

var _ = check.Suite(&outputSuite{})

func (s *outputSuite) TestCountToNumpy(c *check.C) {
	var stdout bytes.Buffer
	exited := (&countog{}).RunCommand("countog", []string{"-k=2", "-count=3", "-rows=4", "-format=npy", "-"}, strings.NewReader(">seq1\nTCAG\n"), &stdout, os.Stderr)
	c.Assert(exited, check.Equals, 0)
	npy, err := gonpy.NewReader(&stdout)
	c.Assert(err, check.IsNil)
	c.Check(npy.Shape, check.DeepEquals, []int{4, 16})
	values, err := npy.GetFloat32()
	c.Assert(err, check.IsNil)
	c.Assert(values, check.HasLen, 64)
	for row := 0; row < 4; row++ {
		for col := 0; col < 16; col++ {
			v := values[row*16+col]
			if col == 4 || col == 9 || col == 14 {
				c.Check(v, check.Equals, float32(1), check.Commentf("row %d col %d", row, col))
			} else {
				c.Check(v, check.Equals, float32(0), check.Commentf("row %d col %d", row, col))
			}
		}
	}
}

func (s *outputSuite) TestNumpyMergedWidth(c *check.C) {
	var stdout bytes.Buffer
	exited := (&countog{}).RunCommand("countog", []string{"-k=3", "-count=10", "-rows=2", "-merge-complementary", "-format=npy", "-"}, strings.NewReader(">x\n"+strings.Repeat("ACGTTGCA", 10)+"\n"), &stdout, os.Stderr)
	c.Assert(exited, check.Equals, 0)
	npy, err := gonpy.NewReader(&stdout)
	c.Assert(err, check.IsNil)
	c.Check(npy.Shape, check.DeepEquals, []int{2, 32})
}

func (s *outputSuite) TestNpySinkRejectsWrongWidth(c *check.C) {
	sink := newNpySink(nopCloser{&bytes.Buffer{}}, 4)
	c.Check(sink.WriteRow([]float32{1, 0, 0}), check.ErrorMatches, `npy: row has 3 values, expected 4`)
	c.Check(sink.WriteRow([]float32{1, 0, 0, 0}), check.IsNil)
	c.Check(sink.rows, check.Equals, 1)
}

func (s *outputSuite) TestTSVSinkFlushesOnClose(c *check.C) {
	var out bytes.Buffer
	sink := newTSVSink(nopCloser{&out}, "")
	c.Assert(sink.WriteRow([]float32{0.5, 1}), check.IsNil)
	c.Check(out.Len(), check.Equals, 0)
	c.Assert(sink.Close(), check.IsNil)
	c.Check(out.String(), check.Equals, "0.5000\t1.0000\n")
}

func (s *outputSuite) TestNumpyLargeOutputWarning(c *check.C) {
	defer func(size int64) { npyWarnSize = size }(npyWarnSize)
	npyWarnSize = 100
	var stdout, stderr bytes.Buffer
	exited := (&countog{}).RunCommand("countog", []string{"-k=1", "-count=4", "-rows=10", "-format=npy", "-"}, strings.NewReader(">x\nACGT\n"), &stdout, &stderr)
	c.Assert(exited, check.Equals, 0)
	c.Check(stderr.String(), check.Matches, `(?s).*npy output holds all 10 rows in memory \(160 bytes\).*`)
}
