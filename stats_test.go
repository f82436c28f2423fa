package main

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"golang.org/x/crypto/blake2b"
	"gopkg.in/check.v1"
)

type statsSuite struct{}

var _ = check.Suite(&statsSuite{})

func (s *statsSuite) TestStats(c *check.C) {
	var stdout bytes.Buffer
	exited := (&genomeStats{}).RunCommand("stats", []string{"-"}, strings.NewReader(">a\nACGT\n>b\nNN\n"), &stdout, os.Stderr)
	c.Assert(exited, check.Equals, 0)
	c.Check(stdout.String(), check.Equals, fmt.Sprintf("format\tfasta\nvalid\t6\ntotal\t8\nblake2b\t%x\n", blake2b.Sum256([]byte("nacgtnNN"))))
}

func (s *statsSuite) TestStatsFastqQuality(c *check.C) {
	var stdout bytes.Buffer
	exited := (&genomeStats{}).RunCommand("stats", []string{"-min-quality=30", "-"}, strings.NewReader("@r\nACGT\n+\nI5I5\n"), &stdout, os.Stderr)
	c.Assert(exited, check.Equals, 0)
	c.Check(strings.HasPrefix(stdout.String(), "format\tfastq\nvalid\t2\ntotal\t5\n"), check.Equals, true, check.Commentf("%s", stdout.String()))
}

func (s *statsSuite) TestStatsErrors(c *check.C) {
	exited := (&genomeStats{}).RunCommand("stats", nil, nil, &bytes.Buffer{}, &bytes.Buffer{})
	c.Check(exited, check.Equals, exitUsage)
	exited = (&genomeStats{}).RunCommand("stats", []string{"-"}, strings.NewReader("hello\n"), &bytes.Buffer{}, &bytes.Buffer{})
	c.Check(exited, check.Equals, exitFormat)
}
